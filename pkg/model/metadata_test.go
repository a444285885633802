package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "east", "east"},
		{"bytes", []byte("west"), "west"},
		{"int64", int64(42), "42"},
		{"int32", int32(-7), "-7"},
		{"float", 10.005, "10.005"},
		{"whole float", 3.0, "3"},
		{"bool", true, "true"},
		{"date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
		{"timestamp", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), "2024-03-01T12:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestDatasetColumnIndexIsCaseInsensitive(t *testing.T) {
	ds := NewDataset(TableCustomers, []string{"CUSTOMER_ID", "customer_name"})
	assert.Equal(t, 0, ds.ColumnIndex("customer_id"))
	assert.Equal(t, 1, ds.ColumnIndex(" Customer_Name "))
	assert.Equal(t, -1, ds.ColumnIndex("age"))
}

func TestDatasetAppendRejectsShortRow(t *testing.T) {
	ds := NewDataset(TableCustomers, []string{"a", "b"})
	require.NoError(t, ds.Append([]interface{}{1, 2}))
	require.Error(t, ds.Append([]interface{}{1}))
	assert.Equal(t, 1, ds.Len())
}

func TestDatasetCloneCopiesRows(t *testing.T) {
	ds := NewDataset(TableCustomers, []string{"a"})
	require.NoError(t, ds.Append([]interface{}{"x"}))

	clone := ds.Clone()
	clone.Rows[0][0] = "y"

	assert.Equal(t, "x", ds.Rows[0][0])
}

func TestCustomersFrom(t *testing.T) {
	ds := NewDataset(TableCustomers, []string{ColCustomerID, ColCustomerName, ColAge, ColRegion})
	require.NoError(t, ds.Append([]interface{}{int64(1), "jo", int64(30), "east"}))

	customers, err := CustomersFrom(ds)
	require.NoError(t, err)
	assert.Equal(t, []Customer{{ID: 1, Name: "jo", Age: 30, Region: "east"}}, customers)

	ds.Rows[0][2] = "30"
	_, err = CustomersFrom(ds)
	require.Error(t, err)
}

func TestSalesFromMissingColumn(t *testing.T) {
	ds := NewDataset(TableSales, []string{ColSaleID, ColSaleCustomerID})
	_, err := SalesFrom(ds)
	require.ErrorContains(t, err, ColSaleDate)
}

func TestCleaningSummary(t *testing.T) {
	s := NewCleaningSummary(TableCustomers, 3)
	s.Add(CleaningOperation{ColumnName: "region", CleaningOperation: OperationTextNormalization})
	s.Add(CleaningOperation{ColumnName: "region", CleaningOperation: OperationTextNormalization})
	s.Add(CleaningOperation{ColumnName: "age", CleaningOperation: OperationTypeStandardization})

	assert.Equal(t, 3, s.Total())
	assert.Equal(t, []string{"age", "region"}, s.Columns())
	assert.Equal(t, 2, s.Changes["region"][OperationTextNormalization])
}
