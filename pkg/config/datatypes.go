package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/David-Botos/sales-etl/pkg/converter"
)

var (
	// ErrSchemaMismatch is returned when a dataset does not carry the columns
	// declared for its table
	ErrSchemaMismatch = errors.New("dataset does not match declared data types")
	// ErrUnknownType is returned when data_types.yaml names a type with no converter
	ErrUnknownType = converter.ErrUnknownType
)

// TableSchema maps a column name to its declared type name
type TableSchema map[string]string

// Schema maps a table name to its declared column types
type Schema map[string]TableSchema

// LoadSchema loads data_types.yaml from dir and checks that every declared
// type name has a converter
func LoadSchema(dir string) (Schema, error) {
	raw, err := Load[map[string]map[string]string](dir, DataTypesFile)
	if err != nil {
		return nil, err
	}
	return NewSchema(*raw)
}

// NewSchema normalizes table and column names to lowercase and validates the
// declared type names
func NewSchema(raw map[string]map[string]string) (Schema, error) {
	schema := make(Schema, len(raw))
	for table, columns := range raw {
		ts := make(TableSchema, len(columns))
		for column, typeName := range columns {
			if _, err := converter.LookupKind(typeName); err != nil {
				return nil, fmt.Errorf("%s: table %s column %s: %w", DataTypesFile, table, column, err)
			}
			ts[normalizeName(column)] = typeName
		}
		schema[normalizeName(table)] = ts
	}
	return schema, nil
}

// Table returns the declared columns of a table
func (s Schema) Table(name string) (TableSchema, error) {
	ts, ok := s[normalizeName(name)]
	if !ok || len(ts) == 0 {
		return nil, fmt.Errorf("%w: no data types declared for table %s", ErrSchemaMismatch, name)
	}
	return ts, nil
}

// Validate checks that every column declared for table is present in columns
func (s Schema) Validate(table string, columns []string) error {
	ts, err := s.Table(table)
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		present[normalizeName(col)] = struct{}{}
	}

	var missing []string
	for _, col := range ts.Columns() {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %s is missing declared columns %s",
			ErrSchemaMismatch, table, strings.Join(missing, ", "))
	}
	return nil
}

// TypeOf returns the declared type name of a column
func (t TableSchema) TypeOf(column string) (string, bool) {
	typeName, ok := t[normalizeName(column)]
	return typeName, ok
}

// Kind returns the converter kind of a column
func (t TableSchema) Kind(column string) (converter.Kind, bool) {
	typeName, ok := t.TypeOf(column)
	if !ok {
		return "", false
	}
	kind, err := converter.LookupKind(typeName)
	if err != nil {
		return "", false
	}
	return kind, true
}

// Columns returns the declared column names in sorted order
func (t TableSchema) Columns() []string {
	cols := make([]string, 0, len(t))
	for col := range t {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
