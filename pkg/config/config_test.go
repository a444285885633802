package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

type LoaderSuite struct {
	suite.Suite
	dir string
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *LoaderSuite) TestLoadMissingFile() {
	_, err := Load[ConnectionConfig](s.dir, ConnectionFile)
	s.Require().ErrorIs(err, ErrMissingConfig)
	s.Contains(err.Error(), ConnectionFile)
}

func (s *LoaderSuite) TestLoadReturnsMappingVerbatim() {
	writeFile(s.T(), s.dir, "extra.yaml", "host: db\nport: 5432\nnested:\n  key: value\n")

	raw, err := Load[map[string]interface{}](s.dir, "extra.yaml")
	s.Require().NoError(err)
	got := *raw
	s.Equal("db", got["host"])
	s.Equal(5432, got["port"])
	s.Equal(map[string]interface{}{"key": "value"}, got["nested"])
}

func (s *LoaderSuite) TestLoadMalformedYAML() {
	writeFile(s.T(), s.dir, ConnectionFile, "host: [unterminated\n")

	_, err := Load[ConnectionConfig](s.dir, ConnectionFile)
	s.Require().Error(err)
	s.NotErrorIs(err, ErrMissingConfig)
	s.Contains(err.Error(), "failed to parse")
}

func (s *LoaderSuite) TestLoadConnectionAndSchemaShareLoadErrors() {
	_, err := LoadConnection(s.dir)
	s.Require().ErrorIs(err, ErrMissingConfig)

	writeFile(s.T(), s.dir, DataTypesFile, "customers: [oops\n")
	_, err = LoadSchema(s.dir)
	s.Require().ErrorContains(err, "failed to parse")
	s.NotErrorIs(err, ErrMissingConfig)
}

func (s *LoaderSuite) TestLoadConnectionPostgres() {
	writeFile(s.T(), s.dir, ConnectionFile,
		"host: localhost\nport: 6543\ndbname: shop\nusername: etl\npassword: secret\n")

	cfg, err := LoadConnection(s.dir)
	s.Require().NoError(err)
	s.Equal(DriverPostgres, cfg.Driver)
	s.Equal("disable", cfg.SSLMode)
	s.Equal("host=localhost port=6543 user=etl password=secret dbname=shop sslmode=disable", cfg.ConnectionString())
	s.Equal("postgres://etl@localhost:6543/shop", cfg.Redacted())
}

func (s *LoaderSuite) TestLoadConnectionPasswordOverride() {
	writeFile(s.T(), s.dir, ConnectionFile,
		"host: localhost\ndbname: shop\nusername: etl\npassword: from-file\n")
	s.T().Setenv("ETL_DB_PASSWORD", "p w'd")

	cfg, err := LoadConnection(s.dir)
	s.Require().NoError(err)
	s.Equal(5432, cfg.Port)
	s.Equal("p w'd", cfg.Password)
	s.Contains(cfg.ConnectionString(), `password='p w\'d'`)
}

func (s *LoaderSuite) TestLoadConnectionRequiresDriverKeys() {
	writeFile(s.T(), s.dir, ConnectionFile, "host: localhost\nusername: etl\n")
	_, err := LoadConnection(s.dir)
	s.Require().ErrorContains(err, "dbname is required")

	writeFile(s.T(), s.dir, ConnectionFile, "driver: sqlite\n")
	_, err = LoadConnection(s.dir)
	s.Require().ErrorContains(err, "path is required")

	writeFile(s.T(), s.dir, ConnectionFile, "driver: oracle\n")
	_, err = LoadConnection(s.dir)
	s.Require().ErrorContains(err, "unsupported driver")
}

func (s *LoaderSuite) TestLoadConnectionSQLite() {
	writeFile(s.T(), s.dir, ConnectionFile, "driver: SQLite\npath: shop.db\n")

	cfg, err := LoadConnection(s.dir)
	s.Require().NoError(err)
	s.Equal(DriverSQLite, cfg.Driver)
	s.Equal("shop.db", cfg.ConnectionString())
}

func (s *LoaderSuite) TestLoadSchema() {
	writeFile(s.T(), s.dir, DataTypesFile, `
customers:
  customer_id: int
  customer_name: str
  age: int
  region: str
Sales:
  Sale_ID: int
  sale_amount: float
`)

	schema, err := LoadSchema(s.dir)
	s.Require().NoError(err)

	sales, err := schema.Table("sales")
	s.Require().NoError(err)
	typeName, ok := sales.TypeOf("SALE_ID")
	s.True(ok)
	s.Equal("int", typeName)
	s.Equal([]string{"sale_amount", "sale_id"}, sales.Columns())
}

func (s *LoaderSuite) TestLoadSchemaUnknownType() {
	writeFile(s.T(), s.dir, DataTypesFile, "customers:\n  customer_id: uuid\n")

	_, err := LoadSchema(s.dir)
	s.Require().ErrorIs(err, ErrUnknownType)
	s.Contains(err.Error(), "customer_id")
}

func (s *LoaderSuite) TestLoadSchemaMissing() {
	_, err := LoadSchema(s.dir)
	s.Require().ErrorIs(err, ErrMissingConfig)
}

func TestSchemaValidate(t *testing.T) {
	schema, err := NewSchema(map[string]map[string]string{
		"customers": {"customer_id": "int", "age": "int", "region": "str"},
	})
	require.NoError(t, err)

	require.NoError(t, schema.Validate("customers", []string{"Customer_ID", "age", "region", "extra"}))

	err = schema.Validate("customers", []string{"customer_id"})
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "age, region")

	err = schema.Validate("sales", []string{"sale_id"})
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"ETL_CONFIG_DIR", "ETL_CACHE_DIR", "ETL_OUTPUT_DIR", "ETL_USE_CACHE",
		"ETL_QUERY_TIMEOUT_SECONDS", "ETL_PUSHGATEWAY_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "config", s.ConfigDir)
	assert.Equal(t, "cache", s.CacheDir)
	assert.Equal(t, "output", s.OutputDir)
	assert.False(t, s.UseCache)
	assert.Equal(t, 300*time.Second, s.QueryTimeout)
	assert.Equal(t, "json", s.LogFormat)
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("ETL_USE_CACHE", "true")
	t.Setenv("ETL_QUERY_TIMEOUT_SECONDS", "12")
	t.Setenv("ETL_OUTPUT_DIR", "/tmp/reports")
	t.Setenv("LOG_FORMAT", "console")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.True(t, s.UseCache)
	assert.Equal(t, 12*time.Second, s.QueryTimeout)
	assert.Equal(t, "/tmp/reports", s.OutputDir)
}

func TestSettingsValidate(t *testing.T) {
	s := &Settings{ConfigDir: "c", CacheDir: "k", OutputDir: "o", QueryTimeout: time.Second, LogFormat: "xml"}
	require.ErrorContains(t, s.Validate(), "log format")

	s.LogFormat = "json"
	s.QueryTimeout = 0
	require.ErrorContains(t, s.Validate(), "timeout")
}
