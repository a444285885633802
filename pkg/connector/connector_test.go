package connector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteConnectorViaFactory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.ConnectionConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "shop.db"),
	}

	conn, err := NewConnectorFactory(cfg, nil).Create(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, config.DriverSQLite, conn.Name())
	require.NoError(t, conn.Validate(ctx))

	_, err = conn.DB().ExecContext(ctx, `CREATE TABLE customers (customer_id INTEGER)`)
	require.NoError(t, err)

	stats := GetConnectionStats(conn.DB().DB)
	assert.Equal(t, 1, stats.MaxOpenConns)
	assert.Zero(t, stats.Idle, "released connections must not be kept")
}

func TestFactoryUnsupportedDriver(t *testing.T) {
	_, err := NewConnectorFactory(&config.ConnectionConfig{Driver: "oracle"}, nil).Create(context.Background())
	require.ErrorContains(t, err, "unsupported driver")
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"sales"`, (&SQLiteConnector{}).QuoteIdentifier("sales"))
	assert.Equal(t, `"we""ird"`, (&PostgresConnector{}).QuoteIdentifier(`we"ird`))
	assert.Equal(t, "SALES", (&SnowflakeConnector{}).QuoteIdentifier("sales"))
	assert.Equal(t, `"order lines"`, (&SnowflakeConnector{}).QuoteIdentifier("order lines"))
}

func TestPingWithTimeoutCancelled(t *testing.T) {
	cfg := &config.ConnectionConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "x.db")}
	conn, err := NewSQLiteConnector(context.Background(), cfg)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, PingWithTimeout(ctx, conn.DB().DB, 0))
}
