// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/snowflakedb/gosnowflake"
)

// Supported source drivers
const (
	DriverPostgres  = "postgres"
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite"
)

// ConnectionConfig holds the source database parameters read from config.yaml
type ConnectionConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"dbname"`
	User     string `yaml:"username"`
	Password string `yaml:"password"`

	// PostgreSQL
	SSLMode string `yaml:"sslmode"`

	// Snowflake
	Account       string `yaml:"account"`
	Warehouse     string `yaml:"warehouse"`
	Role          string `yaml:"role"`
	Schema        string `yaml:"schema"`
	Authenticator string `yaml:"authenticator"`

	// SQLite
	Path string `yaml:"path"`
}

// LoadConnection loads config.yaml from dir. ETL_DB_PASSWORD, when set,
// replaces the password from the file.
func LoadConnection(dir string) (*ConnectionConfig, error) {
	cfg, err := Load[ConnectionConfig](dir, ConnectionFile)
	if err != nil {
		return nil, err
	}

	if password := os.Getenv("ETL_DB_PASSWORD"); password != "" {
		cfg.Password = password
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConnectionFile, err)
	}
	return cfg, nil
}

func (c *ConnectionConfig) applyDefaults() {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.Driver == DriverPostgres {
		if c.Port == 0 {
			c.Port = 5432
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
	}
}

// Validate ensures the parameters required by the selected driver are present
func (c *ConnectionConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" {
			return errors.New("host is required")
		}
		if c.Database == "" {
			return errors.New("dbname is required")
		}
		if c.User == "" {
			return errors.New("username is required")
		}
	case DriverSnowflake:
		if c.Account == "" {
			return errors.New("account is required for snowflake")
		}
		if c.User == "" {
			return errors.New("username is required")
		}
		if c.Warehouse == "" {
			return errors.New("warehouse is required for snowflake")
		}
		if c.Database == "" {
			return errors.New("dbname is required")
		}
	case DriverSQLite:
		if c.Path == "" {
			return errors.New("path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	return nil
}

// ConnectionString returns the DSN for the configured driver. PostgreSQL uses
// the keyword/value form understood by pgx.
func (c *ConnectionConfig) ConnectionString() string {
	switch c.Driver {
	case DriverSQLite:
		return c.Path
	case DriverSnowflake:
		dsn, err := gosnowflake.DSN(c.SnowflakeConfig())
		if err != nil {
			return ""
		}
		return dsn
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		quoteConnValue(c.Password),
		c.Database,
		c.SSLMode,
	)
}

// Redacted returns a URL-like description of the connection without the
// password, for logs
func (c *ConnectionConfig) Redacted() string {
	switch c.Driver {
	case DriverSQLite:
		return "sqlite://" + c.Path
	case DriverSnowflake:
		return fmt.Sprintf("snowflake://%s@%s/%s", c.User, c.Account, c.Database)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(c.User),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	return u.String()
}

// SnowflakeConfig builds the driver configuration for a Snowflake source
func (c *ConnectionConfig) SnowflakeConfig() *gosnowflake.Config {
	return &gosnowflake.Config{
		Account:       c.Account,
		User:          c.User,
		Password:      c.Password,
		Database:      c.Database,
		Schema:        c.Schema,
		Warehouse:     c.Warehouse,
		Role:          c.Role,
		Authenticator: snowflakeAuthenticator(c.Authenticator),
	}
}

func snowflakeAuthenticator(name string) gosnowflake.AuthType {
	switch strings.ToLower(name) {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// quoteConnValue quotes a keyword/value connection string value when it
// contains spaces, quotes or backslashes
func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
