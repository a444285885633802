package model

import (
	"fmt"
	"time"
)

// Source table names
const (
	TableCustomers = "customers"
	TableSales     = "sales"
)

// Customer columns
const (
	ColCustomerID   = "customer_id"
	ColCustomerName = "customer_name"
	ColAge          = "age"
	ColRegion       = "region"
)

// Sale columns
const (
	ColSaleID          = "sale_id"
	ColSaleCustomerID  = "customer_id"
	ColSaleDate        = "sale_date"
	ColProductCategory = "product_category"
	ColSaleAmount      = "sale_amount"
)

// Customer is a cleaned row of the customers table
type Customer struct {
	ID     int64
	Name   string
	Age    int64
	Region string
}

// Sale is a cleaned row of the sales table
type Sale struct {
	ID         int64
	CustomerID int64
	Date       time.Time
	Category   string
	Amount     float64
}

// CustomersFrom maps a cleaned customers dataset onto typed rows
func CustomersFrom(ds *Dataset) ([]Customer, error) {
	idx, err := columnIndexes(ds, ColCustomerID, ColCustomerName, ColAge, ColRegion)
	if err != nil {
		return nil, err
	}

	customers := make([]Customer, 0, ds.Len())
	for i, row := range ds.Rows {
		var c Customer
		var ok bool
		if c.ID, ok = row[idx[0]].(int64); !ok {
			return nil, typeError(ds, i, ColCustomerID, row[idx[0]])
		}
		if c.Name, ok = row[idx[1]].(string); !ok {
			return nil, typeError(ds, i, ColCustomerName, row[idx[1]])
		}
		if c.Age, ok = row[idx[2]].(int64); !ok {
			return nil, typeError(ds, i, ColAge, row[idx[2]])
		}
		if c.Region, ok = row[idx[3]].(string); !ok {
			return nil, typeError(ds, i, ColRegion, row[idx[3]])
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// SalesFrom maps a cleaned sales dataset onto typed rows
func SalesFrom(ds *Dataset) ([]Sale, error) {
	idx, err := columnIndexes(ds, ColSaleID, ColSaleCustomerID, ColSaleDate, ColProductCategory, ColSaleAmount)
	if err != nil {
		return nil, err
	}

	sales := make([]Sale, 0, ds.Len())
	for i, row := range ds.Rows {
		var s Sale
		var ok bool
		if s.ID, ok = row[idx[0]].(int64); !ok {
			return nil, typeError(ds, i, ColSaleID, row[idx[0]])
		}
		if s.CustomerID, ok = row[idx[1]].(int64); !ok {
			return nil, typeError(ds, i, ColSaleCustomerID, row[idx[1]])
		}
		if s.Date, ok = row[idx[2]].(time.Time); !ok {
			return nil, typeError(ds, i, ColSaleDate, row[idx[2]])
		}
		if s.Category, ok = row[idx[3]].(string); !ok {
			return nil, typeError(ds, i, ColProductCategory, row[idx[3]])
		}
		if s.Amount, ok = row[idx[4]].(float64); !ok {
			return nil, typeError(ds, i, ColSaleAmount, row[idx[4]])
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func columnIndexes(ds *Dataset, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = ds.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("table %s has no column %s", ds.Table, name)
		}
	}
	return idx, nil
}

func typeError(ds *Dataset, row int, col string, v interface{}) error {
	return fmt.Errorf("table %s row %d column %s: unexpected %T value %v (dataset not cleaned?)",
		ds.Table, row, col, v, v)
}
