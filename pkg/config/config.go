// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds the runtime settings of an ETL run
type Settings struct {
	// Locations
	ConfigDir string
	CacheDir  string
	OutputDir string

	// Loader behaviour
	UseCache     bool
	QueryTimeout time.Duration

	// Metrics
	PushgatewayURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadSettings loads runtime settings from environment variables. A .env file
// in the working directory is read first when present; variables already set
// in the environment win over it.
func LoadSettings() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	s := &Settings{
		ConfigDir:      getEnv("ETL_CONFIG_DIR", "config"),
		CacheDir:       getEnv("ETL_CACHE_DIR", "cache"),
		OutputDir:      getEnv("ETL_OUTPUT_DIR", "output"),
		UseCache:       getEnvAsBool("ETL_USE_CACHE", false),
		QueryTimeout:   time.Duration(getEnvAsInt("ETL_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
		PushgatewayURL: getEnv("ETL_PUSHGATEWAY_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate ensures the settings are usable
func (s *Settings) Validate() error {
	if s.ConfigDir == "" {
		return errors.New("config directory is required")
	}
	if s.CacheDir == "" {
		return errors.New("cache directory is required")
	}
	if s.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if s.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}
	switch s.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q (want json or console)", s.LogFormat)
	}
	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
