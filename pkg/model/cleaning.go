// pkg/model/cleaning.go
package model

import "sort"

// Cleaning operation kinds
const (
	OperationTypeStandardization = "type_standardization"
	OperationTextNormalization   = "text_normalization"
)

// CleaningOperation records a value changed while cleaning a row
type CleaningOperation struct {
	TableName         string      // Table name
	ColumnName        string      // Column that was cleaned
	RowIndex          int         // Zero-based row position in the dataset
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning, in canonical text form
	CleaningOperation string      // Kind of cleaning performed
}

// CleaningSummary aggregates the operations performed on one table
type CleaningSummary struct {
	TableName string
	Rows      int
	// column -> operation kind -> number of values changed
	Changes map[string]map[string]int
}

// NewCleaningSummary creates an empty summary for a table
func NewCleaningSummary(table string, rows int) *CleaningSummary {
	return &CleaningSummary{
		TableName: table,
		Rows:      rows,
		Changes:   make(map[string]map[string]int),
	}
}

// Add counts an operation
func (s *CleaningSummary) Add(op CleaningOperation) {
	byKind, ok := s.Changes[op.ColumnName]
	if !ok {
		byKind = make(map[string]int)
		s.Changes[op.ColumnName] = byKind
	}
	byKind[op.CleaningOperation]++
}

// Total returns the number of changed values across all columns
func (s *CleaningSummary) Total() int {
	total := 0
	for _, byKind := range s.Changes {
		for _, n := range byKind {
			total += n
		}
	}
	return total
}

// Columns returns the changed column names in sorted order
func (s *CleaningSummary) Columns() []string {
	cols := make([]string, 0, len(s.Changes))
	for col := range s.Changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
