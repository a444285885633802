// pkg/model/metadata.go
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dataset is an in-memory snapshot of a table: column names in query order
// and one value slice per row, aligned with Columns.
type Dataset struct {
	Table   string
	Columns []string
	Rows    [][]interface{}
}

// NewDataset creates an empty dataset for the given table and columns
func NewDataset(table string, columns []string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{
		Table:   table,
		Columns: cols,
		Rows:    make([][]interface{}, 0),
	}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ColumnIndex returns the position of a column (case-insensitive), or -1
func (d *Dataset) ColumnIndex(name string) int {
	normalizedName := normalizeColumnName(name)
	for i, col := range d.Columns {
		if normalizeColumnName(col) == normalizedName {
			return i
		}
	}
	return -1
}

// Append adds a row. The row must have one value per column.
func (d *Dataset) Append(row []interface{}) error {
	if len(row) != len(d.Columns) {
		return fmt.Errorf("row has %d values, table %s has %d columns", len(row), d.Table, len(d.Columns))
	}
	d.Rows = append(d.Rows, row)
	return nil
}

// Clone returns a deep copy of the row slices. Values themselves are shared.
func (d *Dataset) Clone() *Dataset {
	clone := NewDataset(d.Table, d.Columns)
	clone.Rows = make([][]interface{}, len(d.Rows))
	for i, row := range d.Rows {
		r := make([]interface{}, len(row))
		copy(r, row)
		clone.Rows[i] = r
	}
	return clone
}

// StringRows renders every row with FormatValue, for CSV output
func (d *Dataset) StringRows() [][]string {
	out := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = FormatValue(v)
		}
		out[i] = record
	}
	return out
}

// FormatValue renders a value in the canonical text form used by the cache
// and the reports. Parsing the output with the converter for the value's
// declared type yields the same value again.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if isDateOnly(val) {
			return val.Format(DateLayout)
		}
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// DateLayout is the text form of date-only values
const DateLayout = "2006-01-02"

func isDateOnly(t time.Time) bool {
	return t.Location() == time.UTC &&
		t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
