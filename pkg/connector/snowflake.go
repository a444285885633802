// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/lib/pq"
	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"
)

var unquotedIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// SnowflakeConnector implements DatabaseConnector for Snowflake
type SnowflakeConnector struct {
	*baseConnector
}

// NewSnowflakeConnector creates a new Snowflake connector
func NewSnowflakeConnector(ctx context.Context, cfg *config.ConnectionConfig) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("role", cfg.Role),
	)

	dsn, err := sf.DSN(cfg.SnowflakeConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake DSN: %w", err)
	}

	base, err := open(ctx, logger, config.DriverSnowflake, "snowflake", dsn)
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to Snowflake")
	return &SnowflakeConnector{baseConnector: base}, nil
}

// QuoteIdentifier leaves plain identifiers unquoted so Snowflake resolves them
// case-insensitively. Anything else is double quoted.
func (s *SnowflakeConnector) QuoteIdentifier(name string) string {
	if unquotedIdentifier.MatchString(name) {
		return strings.ToUpper(name)
	}
	return pq.QuoteIdentifier(name)
}

// Validate ensures the Snowflake connection is valid
func (s *SnowflakeConnector) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var role, database, warehouse string
	err := s.db.QueryRowxContext(ctx,
		"SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").
		Scan(&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to validate Snowflake connection: %w", err)
	}

	s.logger.Info("Snowflake connection validated",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse),
	)
	return nil
}
