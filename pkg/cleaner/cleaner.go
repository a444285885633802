// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
)

var (
	// ErrTypeCoercion is returned when a value cannot be cast to its declared type
	ErrTypeCoercion = errors.New("type coercion failed")
	// ErrDuplicateRows is returned when a table still holds identical rows after cleaning
	ErrDuplicateRows = errors.New("duplicate rows after cleaning")
)

// maxReportedDuplicates caps the row indices quoted in ErrDuplicateRows
const maxReportedDuplicates = 5

// DataCleaner casts loaded tables to their declared types and normalizes text
type DataCleaner struct {
	schema    config.Schema
	converter *converter.TypeConverter
	logger    *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(schema config.Schema, conv *converter.TypeConverter, logger *zap.Logger) (*DataCleaner, error) {
	if schema == nil {
		return nil, errors.New("schema cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}

	return &DataCleaner{
		schema:    schema,
		converter: conv,
		logger:    logger,
	}, nil
}

// Clean returns a cleaned copy of ds. The input dataset is not modified.
func (c *DataCleaner) Clean(ds *model.Dataset, table string) (*model.Dataset, error) {
	cleaned, _, err := c.CleanRows(ds, table)
	return cleaned, err
}

// CleanRows cleans every row of ds and returns the cleaned copy together with
// a summary of the values that changed
func (c *DataCleaner) CleanRows(ds *model.Dataset, table string) (*model.Dataset, *model.CleaningSummary, error) {
	if ds == nil {
		return nil, nil, errors.New("dataset cannot be nil")
	}
	if err := c.schema.Validate(table, ds.Columns); err != nil {
		return nil, nil, err
	}
	ts, err := c.schema.Table(table)
	if err != nil {
		return nil, nil, err
	}

	// Columns without a declared type pass through untouched
	kinds := make([]converter.Kind, len(ds.Columns))
	for i, col := range ds.Columns {
		if kind, ok := ts.Kind(col); ok {
			kinds[i] = kind
		}
	}

	normalizer := newTextNormalizer()
	summary := model.NewCleaningSummary(table, ds.Len())
	cleaned := ds.Clone()
	cleaned.Table = table

	for i, row := range cleaned.Rows {
		for j, value := range row {
			if kinds[j] == "" {
				continue
			}
			newValue, ops, err := c.cleanValue(normalizer, kinds[j], value, table, ds.Columns[j], i)
			if err != nil {
				return nil, nil, err
			}
			row[j] = newValue
			for _, op := range ops {
				summary.Add(op)
			}
		}
	}

	if dups := findDuplicateRows(cleaned.Rows); len(dups) > 0 {
		quoted := dups
		if len(quoted) > maxReportedDuplicates {
			quoted = quoted[:maxReportedDuplicates]
		}
		c.logger.Error("Duplicate rows found after cleaning",
			zap.String("table", table),
			zap.Int("duplicates", len(dups)),
			zap.Ints("rows", quoted))
		return nil, nil, fmt.Errorf("%w: table %s has %d duplicate rows (rows %v)",
			ErrDuplicateRows, table, len(dups), quoted)
	}

	c.logSummary(summary)
	return cleaned, summary, nil
}

// cleanValue casts one value and, for text columns, normalizes it
func (c *DataCleaner) cleanValue(
	normalizer *textNormalizer,
	kind converter.Kind,
	value interface{},
	table, column string,
	rowIndex int,
) (interface{}, []model.CleaningOperation, error) {
	converted, err := c.converter.ConvertKind(kind, value)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: table %s row %d column %s value %q: %w",
			ErrTypeCoercion, table, rowIndex, column, model.FormatValue(value), err)
	}

	var ops []model.CleaningOperation
	if op := standardization(value, converted, table, column, rowIndex); op != nil {
		ops = append(ops, *op)
	}

	if kind == converter.KindText {
		text := converted.(string)
		normalized, err := normalizer.Normalize(text)
		if err != nil {
			return nil, nil, fmt.Errorf("table %s row %d column %s: %w", table, rowIndex, column, err)
		}
		if normalized != text {
			ops = append(ops, model.CleaningOperation{
				TableName:         table,
				ColumnName:        column,
				RowIndex:          rowIndex,
				OriginalValue:     value,
				NewValue:          normalized,
				CleaningOperation: model.OperationTextNormalization,
			})
		}
		converted = normalized
	}
	return converted, ops, nil
}

// logSummary logs the number of changed values per column
func (c *DataCleaner) logSummary(summary *model.CleaningSummary) {
	for _, col := range summary.Columns() {
		for kind, n := range summary.Changes[col] {
			c.logger.Info("Cleaned column",
				zap.String("table", summary.TableName),
				zap.String("column", col),
				zap.String("operation", kind),
				zap.Int("values_changed", n))
		}
	}
	c.logger.Info("Cleaned table",
		zap.String("table", summary.TableName),
		zap.Int("rows", summary.Rows),
		zap.Int("values_changed", summary.Total()))
}
