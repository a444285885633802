// pkg/cleaner/operations.go
package cleaner

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// textNormalizer strips punctuation and symbol characters, then lowercases
type textNormalizer struct {
	t transform.Transformer
}

func newTextNormalizer() *textNormalizer {
	return &textNormalizer{
		t: transform.Chain(
			runes.Remove(runes.In(unicode.P)),
			runes.Remove(runes.In(unicode.S)),
			cases.Lower(language.Und),
		),
	}
}

// Normalize returns s without punctuation or symbols, lowercased.
// Whitespace is kept as is.
func (n *textNormalizer) Normalize(s string) (string, error) {
	out, _, err := transform.String(n.t, s)
	if err != nil {
		return "", fmt.Errorf("failed to normalize %q: %w", s, err)
	}
	return out, nil
}

// standardization records a cast that changed the canonical text form of a value
func standardization(original, converted interface{}, table, column string, rowIndex int) *model.CleaningOperation {
	before := model.FormatValue(original)
	after := model.FormatValue(converted)
	if before == after {
		return nil
	}
	return &model.CleaningOperation{
		TableName:         table,
		ColumnName:        column,
		RowIndex:          rowIndex,
		OriginalValue:     original,
		NewValue:          after,
		CleaningOperation: model.OperationTypeStandardization,
	}
}

// rowKey renders a row as bytes that are equal only for identical rows.
// Each value carries its Go type so 1 and "1" differ.
func rowKey(row []interface{}) []byte {
	var b bytes.Buffer
	for _, v := range row {
		fmt.Fprintf(&b, "%T\x1f%s\x1e", v, model.FormatValue(v))
	}
	return b.Bytes()
}

// findDuplicateRows returns the indices of rows identical to an earlier row.
// Rows are bucketed by xxh3 fingerprint and compared exactly within a bucket.
func findDuplicateRows(rows [][]interface{}) []int {
	seen := make(map[uint64][][]byte, len(rows))
	var dups []int
	for i, row := range rows {
		key := rowKey(row)
		h := xxh3.Hash(key)

		duplicate := false
		for _, prev := range seen[h] {
			if bytes.Equal(prev, key) {
				duplicate = true
				break
			}
		}
		if duplicate {
			dups = append(dups, i)
			continue
		}
		seen[h] = append(seen[h], key)
	}
	return dups
}
