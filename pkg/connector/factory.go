// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"github.com/David-Botos/sales-etl/pkg/config"
	"go.uber.org/zap"
)

// ConnectorFactory creates the connector selected by config.yaml
type ConnectorFactory struct {
	cfg    *config.ConnectionConfig
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.ConnectionConfig, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create opens a connector for the configured driver
func (f *ConnectorFactory) Create(ctx context.Context) (DatabaseConnector, error) {
	f.logger.Debug("Creating connector",
		zap.String("driver", f.cfg.Driver),
		zap.String("source", f.cfg.Redacted()),
	)

	var (
		conn DatabaseConnector
		err  error
	)
	switch f.cfg.Driver {
	case config.DriverPostgres:
		conn, err = NewPostgresConnector(ctx, f.cfg)
	case config.DriverSnowflake:
		conn, err = NewSnowflakeConnector(ctx, f.cfg)
	case config.DriverSQLite:
		conn, err = NewSQLiteConnector(ctx, f.cfg)
	default:
		return nil, fmt.Errorf("unsupported driver %q", f.cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
