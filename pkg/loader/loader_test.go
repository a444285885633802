package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, statements ...string) connector.DatabaseConnector {
	t.Helper()
	cfg := &config.ConnectionConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "src.db")}
	conn, err := connector.NewSQLiteConnector(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range statements {
		_, err := conn.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return conn
}

func TestLoadFromDatabaseWritesCache(t *testing.T) {
	conn := openSQLite(t,
		`CREATE TABLE customers (customer_id INTEGER, customer_name TEXT, age INTEGER, region TEXT)`,
		`INSERT INTO customers VALUES (1, 'Ann, Jr.', 30, 'North'), (2, 'Bob', 41, 'South')`,
	)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	l := New(Options{CacheDir: cacheDir}, nil)

	ds, src, err := l.Load(context.Background(), conn, "customers")
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, src)
	assert.Equal(t, []string{"customer_id", "customer_name", "age", "region"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Ann, Jr.", ds.Rows[0][1])
	assert.EqualValues(t, 41, ds.Rows[1][2])

	data, err := os.ReadFile(filepath.Join(cacheDir, "customers.csv"))
	require.NoError(t, err)
	assert.Equal(t, "customer_id,customer_name,age,region\n1,\"Ann, Jr.\",30,North\n2,Bob,41,South\n", string(data))
}

func TestLoadUsesCacheWithoutDatabase(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "sales.csv"),
		[]byte("sale_id,sale_amount\n1,10.5\n2,3\n"), 0o644))

	l := New(Options{CacheDir: cacheDir, UseCache: true}, nil)
	ds, src, err := l.Load(context.Background(), nil, "sales")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, src)
	assert.Equal(t, [][]interface{}{{"1", "10.5"}, {"2", "3"}}, ds.Rows)
}

func TestLoadCacheMissFallsBackToDatabase(t *testing.T) {
	conn := openSQLite(t,
		`CREATE TABLE sales (sale_id INTEGER, sale_amount REAL)`,
		`INSERT INTO sales VALUES (7, 2.25)`,
	)
	cacheDir := t.TempDir()
	l := New(Options{CacheDir: cacheDir, UseCache: true}, nil)

	ds, src, err := l.Load(context.Background(), conn, "sales")
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, src)
	assert.Equal(t, 1, ds.Len())
	assert.FileExists(t, filepath.Join(cacheDir, "sales.csv"))

	// second load is served from the file just written
	cached, src, err := l.Load(context.Background(), nil, "sales")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, src)
	assert.Equal(t, [][]interface{}{{"7", "2.25"}}, cached.Rows)
}

func TestLoadMissingTable(t *testing.T) {
	conn := openSQLite(t)
	l := New(Options{CacheDir: t.TempDir()}, nil)

	_, _, err := l.Load(context.Background(), conn, "customers")
	require.ErrorContains(t, err, "failed to query customers")
}

func TestLoadEmptyCacheFile(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "sales.csv"), nil, 0o644))

	l := New(Options{CacheDir: cacheDir, UseCache: true}, nil)
	_, _, err := l.Load(context.Background(), nil, "sales")
	require.ErrorContains(t, err, "no header")
}

func TestCacheHit(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "customers.csv"), []byte("customer_id\n1\n"), 0o644))

	assert.True(t, New(Options{CacheDir: cacheDir, UseCache: true}, nil).CacheHit("customers"))
	assert.False(t, New(Options{CacheDir: cacheDir, UseCache: true}, nil).CacheHit("sales"))
	assert.False(t, New(Options{CacheDir: cacheDir}, nil).CacheHit("customers"))
}

func TestCacheKeepsNullDistinctFromEmptyText(t *testing.T) {
	conn := openSQLite(t,
		`CREATE TABLE sales (sale_id INTEGER, product_category TEXT)`,
		`INSERT INTO sales VALUES (1, NULL), (2, ''), (3, '\N'), (4, '\\x'), (5, 'Books')`,
	)
	cacheDir := t.TempDir()
	l := New(Options{CacheDir: cacheDir, UseCache: true}, nil)

	fromDB, src, err := l.Load(context.Background(), conn, "sales")
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, src)
	assert.Nil(t, fromDB.Rows[0][1])

	data, err := os.ReadFile(filepath.Join(cacheDir, "sales.csv"))
	require.NoError(t, err)
	assert.Equal(t, "sale_id,product_category\n1,\\N\n2,\n3,\\\\N\n4,\\\\\\x\n5,Books\n", string(data))

	cached, src, err := l.Load(context.Background(), nil, "sales")
	require.NoError(t, err)
	require.Equal(t, SourceCache, src)
	assert.Equal(t, [][]interface{}{
		{"1", nil},
		{"2", ""},
		{"3", `\N`},
		{"4", `\\x`},
		{"5", "Books"},
	}, cached.Rows)
}

func TestCacheValueEncoding(t *testing.T) {
	for _, v := range []interface{}{nil, "", `\N`, `\`, `\\N`, "N", "plain"} {
		assert.Equal(t, v, decodeCacheValue(encodeCacheValue(v)), "value %q", v)
	}
	assert.Equal(t, `\N`, encodeCacheValue(nil))
	assert.Equal(t, "", encodeCacheValue(""))
}
