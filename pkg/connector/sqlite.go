package connector

import (
	"context"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteConnector implements DatabaseConnector for a local SQLite file
type SQLiteConnector struct {
	*baseConnector
}

// NewSQLiteConnector opens the SQLite database at cfg.Path
func NewSQLiteConnector(ctx context.Context, cfg *config.ConnectionConfig) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")
	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	base, err := open(ctx, logger, config.DriverSQLite, "sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	return &SQLiteConnector{baseConnector: base}, nil
}

// QuoteIdentifier quotes name as a SQLite identifier
func (s *SQLiteConnector) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// Validate ensures the SQLite database can be queried
func (s *SQLiteConnector) Validate(ctx context.Context) error {
	version, err := s.queryVersion(ctx, "SELECT sqlite_version()")
	if err != nil {
		return err
	}
	s.logger.Info("SQLite connection validated", zap.String("version", version))
	return nil
}
