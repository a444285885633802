package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/sales-etl/pkg/config"
)

// globalFlags are shared by every sub-command and override the environment
type globalFlags struct {
	configDir string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "sales-etl",
		Short: "Load customers and sales, clean them and write spend reports",
		Long: `sales-etl reads the customers and sales tables from the database described in
config.yaml, casts and normalizes them according to data_types.yaml, checks
their keys and writes aggregate CSV reports to the output directory.

Settings come from the environment (or a .env file) and can be overridden
with flags:
  ETL_CONFIG_DIR, ETL_CACHE_DIR, ETL_OUTPUT_DIR, ETL_USE_CACHE,
  ETL_QUERY_TIMEOUT_SECONDS, ETL_PUSHGATEWAY_URL, ETL_DB_PASSWORD,
  LOG_LEVEL, LOG_FORMAT`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "Directory holding config.yaml and data_types.yaml")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (json or console)")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newCheckConfigCmd(flags))
	return root
}

// loadSettings reads settings from the environment and applies flag overrides
func (f *globalFlags) loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("config-dir") {
		settings.ConfigDir = f.configDir
	}
	if cmd.Flags().Changed("log-level") {
		settings.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		settings.LogFormat = f.logFormat
	}
	return settings, nil
}

// newLogger builds a JSON production logger or a console development logger
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
