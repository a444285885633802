// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DatabaseConnector defines the interface for source database connectors
type DatabaseConnector interface {
	// DB returns the underlying connection pool
	DB() *sqlx.DB

	// Name identifies the connector in logs ("postgres", "snowflake", "sqlite")
	Name() string

	// QuoteIdentifier renders a table or column name for use in a query
	QuoteIdentifier(name string) string

	// Validate verifies the connection by querying the server version
	Validate(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if pingCtx.Err() != nil {
			return fmt.Errorf("ping timed out after %v: %w", timeout, err)
		}
		return err
	}
	return nil
}

// ApplyScopedConnections limits the pool to a single connection that is
// closed as soon as it is released, so every query acquires its own
// connection and nothing is kept between queries.
func ApplyScopedConnections(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)
}

// baseConnector carries the state shared by every driver
type baseConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	name   string
}

// open opens the pool for driverName, applies pool settings and pings it
func open(ctx context.Context, logger *zap.Logger, name, driverName, dsn string) (*baseConnector, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s connection: %w", name, err)
	}

	ApplyScopedConnections(db.DB)

	if err := PingWithTimeout(ctx, db.DB, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	LogConnectionStats(logger, name, db.DB)
	return &baseConnector{db: db, logger: logger, name: name}, nil
}

// DB returns the underlying database connection
func (c *baseConnector) DB() *sqlx.DB {
	return c.db
}

// Name returns the connector name
func (c *baseConnector) Name() string {
	return c.name
}

// Close closes the database connection
func (c *baseConnector) Close() error {
	c.logger.Info("Closing connection", zap.String("database", c.name))
	LogConnectionStats(c.logger, c.name, c.db.DB)
	return c.db.Close()
}

// queryVersion runs a single-value version query
func (c *baseConnector) queryVersion(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var version string
	if err := c.db.QueryRowxContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query %s version: %w", c.name, err)
	}
	return version, nil
}
