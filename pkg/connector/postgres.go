// pkg/connector/postgres.go
package connector

import (
	"context"

	"github.com/David-Botos/sales-etl/pkg/config"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresConnector implements DatabaseConnector for PostgreSQL
type PostgresConnector struct {
	*baseConnector
}

// NewPostgresConnector creates a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.ConnectionConfig) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User),
	)

	base, err := open(ctx, logger, config.DriverPostgres, "pgx", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresConnector{baseConnector: base}, nil
}

// QuoteIdentifier quotes name as a PostgreSQL identifier
func (p *PostgresConnector) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// Validate ensures the PostgreSQL connection is valid
func (p *PostgresConnector) Validate(ctx context.Context) error {
	version, err := p.queryVersion(ctx, "SELECT version()")
	if err != nil {
		return err
	}
	p.logger.Info("PostgreSQL connection validated", zap.String("version", version))
	return nil
}
