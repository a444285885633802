// pkg/loader/loader.go
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/David-Botos/sales-etl/pkg/connector"
	"github.com/David-Botos/sales-etl/pkg/model"
	"go.uber.org/zap"
)

// Source tells where a dataset was read from
type Source string

const (
	SourceDatabase Source = "database"
	SourceCache    Source = "cache"
)

// Loader reads full tables from the source database, keeping a CSV copy of
// each table in the cache directory
type Loader struct {
	cacheDir string
	useCache bool
	timeout  time.Duration
	logger   *zap.Logger
}

// Options configures a Loader
type Options struct {
	CacheDir string
	UseCache bool
	Timeout  time.Duration
}

// New creates a Loader
func New(opts Options, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Loader{
		cacheDir: opts.CacheDir,
		useCache: opts.UseCache,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// CachePath returns the cache file used for table
func (l *Loader) CachePath(table string) string {
	return filepath.Join(l.cacheDir, table+".csv")
}

// CacheHit reports whether Load would serve table from the cache file
func (l *Loader) CacheHit(table string) bool {
	if !l.useCache {
		return false
	}
	_, err := os.Stat(l.CachePath(table))
	return err == nil
}

// Load returns every row of table. With caching enabled an existing cache
// file is used as is and the database is not contacted. Every database
// load rewrites the cache file.
func (l *Loader) Load(ctx context.Context, conn connector.DatabaseConnector, table string) (*model.Dataset, Source, error) {
	logger := l.logger.With(zap.String("table", table))

	if l.useCache {
		ds, found, err := l.readCache(table)
		if err != nil {
			return nil, "", err
		}
		if found {
			logger.Info("Loaded table from cache",
				zap.String("path", l.CachePath(table)),
				zap.Int("rows", ds.Len()))
			return ds, SourceCache, nil
		}
		logger.Info("No cache file, loading from database")
	}

	if conn == nil {
		return nil, "", fmt.Errorf("no database connection to load %s", table)
	}

	start := time.Now()
	ds, err := l.query(ctx, conn, table)
	if err != nil {
		return nil, "", err
	}
	logger.Info("Loaded table from database",
		zap.String("database", conn.Name()),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.Columns)),
		zap.Duration("duration", time.Since(start)))

	if err := l.writeCache(ds); err != nil {
		return nil, "", err
	}
	return ds, SourceDatabase, nil
}

// query runs a full table scan on a connection of its own and releases it
// before returning
func (l *Loader) query(ctx context.Context, conn connector.DatabaseConnector, table string) (*model.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	c, err := conn.DB().Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for %s: %w", table, err)
	}
	defer c.Close()

	query := "SELECT * FROM " + conn.QuoteIdentifier(table)
	l.logger.Debug("Executing query", zap.String("query", query))

	rows, err := c.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	ds := model.NewDataset(table, columns)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d of %s: %w", ds.Len(), table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		if err := ds.Append(values); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rows of %s: %w", table, err)
	}
	return ds, nil
}

// readCache loads the cache file of table. found is false when no file exists.
func (l *Loader) readCache(table string) (*model.Dataset, bool, error) {
	path := l.CachePath(table)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat cache file %s: %w", path, err)
	}

	// No freshness check against the source
	l.logger.Warn("Using cached data without freshness check",
		zap.String("table", table),
		zap.Time("cached_at", info.ModTime()),
		zap.Duration("age", time.Since(info.ModTime()).Round(time.Second)))

	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open cache file %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, false, fmt.Errorf("cache file %s has no header", path)
	}

	ds := model.NewDataset(table, records[0])
	for _, record := range records[1:] {
		row := make([]interface{}, len(record))
		for i, v := range record {
			row[i] = decodeCacheValue(v)
		}
		if err := ds.Append(row); err != nil {
			return nil, false, fmt.Errorf("cache file %s: %w", path, err)
		}
	}
	return ds, true, nil
}

// nullMarker stands for a NULL value in a cache file. A text value starting
// with a backslash is written with one extra leading backslash, so a literal
// "\N" is stored as "\\N" and never read back as NULL.
const nullMarker = `\N`

// cacheRecords renders the rows of ds for the cache file
func cacheRecords(ds *model.Dataset) [][]string {
	out := make([][]string, len(ds.Rows))
	for i, row := range ds.Rows {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = encodeCacheValue(v)
		}
		out[i] = record
	}
	return out
}

func encodeCacheValue(v interface{}) string {
	if v == nil {
		return nullMarker
	}
	s := model.FormatValue(v)
	if strings.HasPrefix(s, `\`) {
		return `\` + s
	}
	return s
}

func decodeCacheValue(s string) interface{} {
	if s == nullMarker {
		return nil
	}
	return strings.TrimPrefix(s, `\`)
}

// writeCache persists ds as <cacheDir>/<table>.csv via a temporary file and rename
func (l *Loader) writeCache(ds *model.Dataset) error {
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", l.cacheDir, err)
	}

	path := l.CachePath(ds.Table)
	tmp, err := os.CreateTemp(l.cacheDir, ds.Table+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file for %s: %w", ds.Table, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(ds.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache header for %s: %w", ds.Table, err)
	}
	if err := w.WriteAll(cacheRecords(ds)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache rows for %s: %w", ds.Table, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file for %s: %w", ds.Table, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move cache file into place for %s: %w", ds.Table, err)
	}

	l.logger.Debug("Wrote cache file", zap.String("path", path), zap.Int("rows", ds.Len()))
	return nil
}
