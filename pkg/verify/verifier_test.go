package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/report"
)

func dataset(table string, columns []string, rows ...[]interface{}) *model.Dataset {
	ds := model.NewDataset(table, columns)
	ds.Rows = rows
	return ds
}

func customers(ids ...int64) *model.Dataset {
	ds := model.NewDataset(model.TableCustomers, []string{"customer_id", "customer_name", "age", "region"})
	for _, id := range ids {
		ds.Rows = append(ds.Rows, []interface{}{id, "c", int64(20), "r"})
	}
	return ds
}

func sales(pairs ...[2]int64) *model.Dataset {
	ds := model.NewDataset(model.TableSales, []string{"sale_id", "customer_id", "sale_amount"})
	for _, p := range pairs {
		ds.Rows = append(ds.Rows, []interface{}{p[0], p[1], 1.0})
	}
	return ds
}

func TestPrimaryKey(t *testing.T) {
	require.NoError(t, PrimaryKey(customers(1, 2, 3), "customer_id"))

	err := PrimaryKey(customers(1, 2, 1, 1), "customer_id")
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, err.Error(), "2 repeated values")

	require.Error(t, PrimaryKey(customers(1), "missing"))
}

func TestReferences(t *testing.T) {
	require.NoError(t, References(sales([2]int64{10, 1}, [2]int64{11, 2}), customers(1, 2)))

	err := References(sales([2]int64{10, 1}, [2]int64{11, 9}), customers(1, 2))
	require.ErrorIs(t, err, ErrOrphanReference)
	assert.Contains(t, err.Error(), "[11]")
}

func TestVerifyReportsEveryIssue(t *testing.T) {
	v := NewVerifier(nil)

	report, err := v.Verify(customers(1, 1), sales([2]int64{5, 1}, [2]int64{5, 7}))
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.NotNil(t, report)
	assert.False(t, report.IntegrityVerified)
	require.Len(t, report.IntegrityIssues, 3)
	assert.Equal(t, IssueOrphanReference, report.IntegrityIssues[2].IssueType)
	assert.Equal(t, 1, report.IntegrityIssues[2].AffectedRows)

	report, err = v.Verify(customers(1, 2), sales([2]int64{5, 1}))
	require.NoError(t, err)
	assert.True(t, report.IntegrityVerified)
	assert.Equal(t, 2, report.CustomerRows)
}

func TestReferencesWithoutSaleID(t *testing.T) {
	s := dataset(model.TableSales, []string{"customer_id"}, []interface{}{int64(3)})
	err := References(s, customers(1))
	require.ErrorIs(t, err, ErrOrphanReference)
	assert.Contains(t, err.Error(), "row 0")
}

func TestVerifyNameCollisionIsSpendMismatch(t *testing.T) {
	c := dataset(model.TableCustomers, []string{"customer_id", "customer_name", "age", "region"},
		[]interface{}{int64(1), "jo", int64(30), "east"},
		[]interface{}{int64(2), "sam", int64(41), "north"},
		[]interface{}{int64(1), "joe", int64(30), "east"},
	)

	result, err := NewVerifier(nil).Verify(c, sales([2]int64{5, 1}))
	require.ErrorIs(t, err, report.ErrSpendRowCountMismatch)
	require.NotErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, err.Error(), "3 (customer_id, customer_name) groups for 2 customer ids")
	assert.Contains(t, err.Error(), "[1]")

	require.Len(t, result.IntegrityIssues, 2)
	assert.Equal(t, IssueNameCollision, result.IntegrityIssues[0].IssueType)
	assert.Equal(t, IssueDuplicateKey, result.IntegrityIssues[1].IssueType)
}
