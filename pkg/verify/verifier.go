// pkg/verify/verifier.go
package verify

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/report"
)

var (
	// ErrDuplicateKey is returned when a primary key value repeats
	ErrDuplicateKey = errors.New("duplicate primary key")
	// ErrOrphanReference is returned when a sale references a missing customer
	ErrOrphanReference = errors.New("sale references unknown customer")
)

// maxQuoted caps the values quoted in an error message
const maxQuoted = 10

// Issue types reported in a VerificationReport
const (
	IssueDuplicateKey    = "duplicate_key"
	IssueOrphanReference = "orphan_reference"
	IssueNameCollision   = "name_collision"
)

// IntegrityIssue represents a data integrity issue
type IntegrityIssue struct {
	IssueType    string
	Table        string
	ColumnName   string
	Description  string
	AffectedRows int
}

// VerificationReport contains the results of verifying the cleaned tables
type VerificationReport struct {
	VerificationTime  time.Time
	CustomerRows      int
	SaleRows          int
	IntegrityVerified bool
	IntegrityIssues   []IntegrityIssue
	Duration          time.Duration
}

// Verifier checks the relational invariants of the cleaned tables
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{logger: logger}
}

// Verify checks that no customer id carries several names, customer and sale
// primary keys, and that every sale references an existing customer. The
// returned error is the first failed check; the report lists every issue found.
func (v *Verifier) Verify(customers, sales *model.Dataset) (*VerificationReport, error) {
	start := time.Now()
	result := &VerificationReport{
		VerificationTime: start,
		CustomerRows:     customers.Len(),
		SaleRows:         sales.Len(),
	}

	v.logger.Info("Verifying integrity",
		zap.Int("customers", result.CustomerRows),
		zap.Int("sales", result.SaleRows))

	checks := []struct {
		issueType string
		table     string
		column    string
		run       func() (int, error)
	}{
		{IssueNameCollision, customers.Table, model.ColCustomerName, func() (int, error) {
			return nameCollisions(customers)
		}},
		{IssueDuplicateKey, customers.Table, model.ColCustomerID, func() (int, error) {
			return duplicateKeys(customers, model.ColCustomerID)
		}},
		{IssueDuplicateKey, sales.Table, model.ColSaleID, func() (int, error) {
			return duplicateKeys(sales, model.ColSaleID)
		}},
		{IssueOrphanReference, sales.Table, model.ColSaleCustomerID, func() (int, error) {
			return orphanReferences(sales, customers)
		}},
	}

	var firstErr error
	for _, check := range checks {
		affected, err := check.run()
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		result.IntegrityIssues = append(result.IntegrityIssues, IntegrityIssue{
			IssueType:    check.issueType,
			Table:        check.table,
			ColumnName:   check.column,
			Description:  err.Error(),
			AffectedRows: affected,
		})
		v.logger.Error("Integrity check failed",
			zap.String("issue", check.issueType),
			zap.String("table", check.table),
			zap.String("column", check.column),
			zap.Int("affected_rows", affected),
			zap.Error(err))
	}

	result.IntegrityVerified = firstErr == nil
	result.Duration = time.Since(start)
	if firstErr != nil {
		return result, firstErr
	}

	v.logger.Info("Integrity verified", zap.Duration("duration", result.Duration))
	return result, nil
}

// PrimaryKey checks that column holds a distinct value on every row
func PrimaryKey(ds *model.Dataset, column string) error {
	_, err := duplicateKeys(ds, column)
	return err
}

// References checks that every sale's customer_id names an existing customer
func References(sales, customers *model.Dataset) error {
	_, err := orphanReferences(sales, customers)
	return err
}

func duplicateKeys(ds *model.Dataset, column string) (int, error) {
	idx := ds.ColumnIndex(column)
	if idx < 0 {
		return 0, fmt.Errorf("table %s has no column %s", ds.Table, column)
	}

	seen := make(map[string]struct{}, ds.Len())
	var dups []string
	for _, row := range ds.Rows {
		key := model.FormatValue(row[idx])
		if _, ok := seen[key]; ok {
			dups = append(dups, key)
			continue
		}
		seen[key] = struct{}{}
	}
	if len(dups) > 0 {
		return len(dups), fmt.Errorf("%w: table %s column %s has %d repeated values %v",
			ErrDuplicateKey, ds.Table, column, len(dups), quote(dups))
	}
	return 0, nil
}

// nameCollisions finds customer ids that appear with more than one name.
// Spend is grouped by (customer_id, customer_name), so such an id would yield
// several spend rows; the error wraps report.ErrSpendRowCountMismatch.
func nameCollisions(customers *model.Dataset) (int, error) {
	idIdx := customers.ColumnIndex(model.ColCustomerID)
	if idIdx < 0 {
		return 0, fmt.Errorf("table %s has no column %s", customers.Table, model.ColCustomerID)
	}
	nameIdx := customers.ColumnIndex(model.ColCustomerName)
	if nameIdx < 0 {
		return 0, fmt.Errorf("table %s has no column %s", customers.Table, model.ColCustomerName)
	}

	names := make(map[string]map[string]struct{}, customers.Len())
	var order []string
	for _, row := range customers.Rows {
		id := model.FormatValue(row[idIdx])
		if names[id] == nil {
			names[id] = make(map[string]struct{})
			order = append(order, id)
		}
		names[id][model.FormatValue(row[nameIdx])] = struct{}{}
	}

	var collided []string
	groups := 0
	for _, id := range order {
		groups += len(names[id])
		if len(names[id]) > 1 {
			collided = append(collided, id)
		}
	}
	if len(collided) > 0 {
		return len(collided), fmt.Errorf("%w: %d (customer_id, customer_name) groups for %d customer ids, ids with several names %v",
			report.ErrSpendRowCountMismatch, groups, len(order), quote(collided))
	}
	return 0, nil
}

func orphanReferences(sales, customers *model.Dataset) (int, error) {
	custIdx := customers.ColumnIndex(model.ColCustomerID)
	if custIdx < 0 {
		return 0, fmt.Errorf("table %s has no column %s", customers.Table, model.ColCustomerID)
	}
	refIdx := sales.ColumnIndex(model.ColSaleCustomerID)
	if refIdx < 0 {
		return 0, fmt.Errorf("table %s has no column %s", sales.Table, model.ColSaleCustomerID)
	}
	saleIdx := sales.ColumnIndex(model.ColSaleID)

	known := make(map[string]struct{}, customers.Len())
	for _, row := range customers.Rows {
		known[model.FormatValue(row[custIdx])] = struct{}{}
	}

	var orphans []string
	for i, row := range sales.Rows {
		if _, ok := known[model.FormatValue(row[refIdx])]; ok {
			continue
		}
		id := fmt.Sprintf("row %d", i)
		if saleIdx >= 0 {
			id = model.FormatValue(row[saleIdx])
		}
		orphans = append(orphans, id)
	}
	if len(orphans) > 0 {
		return len(orphans), fmt.Errorf("%w: %d sales without a customer, sale ids %v",
			ErrOrphanReference, len(orphans), quote(orphans))
	}
	return 0, nil
}

func quote(values []string) []string {
	if len(values) > maxQuoted {
		return values[:maxQuoted]
	}
	return values
}
