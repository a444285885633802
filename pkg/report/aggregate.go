package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// ErrSpendRowCountMismatch is returned when grouping spend by (customer_id,
// customer_name) yields a different number of rows than there are distinct
// customer ids, which points at one id carrying several names
var ErrSpendRowCountMismatch = errors.New("customer spend row count does not match distinct customers")

// amountPlaces is the number of decimal places kept in spend totals
const amountPlaces = 2

// CustomerSpend is the total spend of one customer
type CustomerSpend struct {
	CustomerID int64
	Name       string
	Total      decimal.Decimal
}

// CategorySpend is the total spend of one product category
type CategorySpend struct {
	Category string
	Total    decimal.Decimal
}

// uniqueCustomers counts distinct customer ids
func uniqueCustomers(customers []model.Customer) int {
	ids := make(map[int64]struct{}, len(customers))
	for _, c := range customers {
		ids[c.ID] = struct{}{}
	}
	return len(ids)
}

// customerSpend sums sale amounts per (customer_id, customer_name). Customers
// without sales get a zero total. Rows are ordered by id, then name.
func customerSpend(customers []model.Customer, sales []model.Sale) ([]CustomerSpend, error) {
	byID := make(map[int64]decimal.Decimal)
	for _, s := range sales {
		byID[s.CustomerID] = byID[s.CustomerID].Add(decimal.NewFromFloat(s.Amount))
	}

	type group struct {
		id   int64
		name string
	}
	seen := make(map[group]struct{}, len(customers))
	spend := make([]CustomerSpend, 0, len(customers))
	for _, c := range customers {
		g := group{c.ID, c.Name}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		spend = append(spend, CustomerSpend{
			CustomerID: c.ID,
			Name:       c.Name,
			Total:      byID[c.ID].RoundBank(amountPlaces),
		})
	}

	sort.SliceStable(spend, func(i, j int) bool {
		if spend[i].CustomerID != spend[j].CustomerID {
			return spend[i].CustomerID < spend[j].CustomerID
		}
		return spend[i].Name < spend[j].Name
	})

	if distinct := uniqueCustomers(customers); len(spend) != distinct {
		return nil, fmt.Errorf("%w: %d (customer_id, customer_name) groups for %d customer ids",
			ErrSpendRowCountMismatch, len(spend), distinct)
	}
	return spend, nil
}

// topCustomer returns the highest spender. Ties go to the lowest customer id.
func topCustomer(spend []CustomerSpend) (CustomerSpend, bool) {
	if len(spend) == 0 {
		return CustomerSpend{}, false
	}
	top := spend[0]
	for _, s := range spend[1:] {
		if s.Total.GreaterThan(top.Total) ||
			(s.Total.Equal(top.Total) && s.CustomerID < top.CustomerID) {
			top = s
		}
	}
	return top, true
}

// categorySpend sums sale amounts per product category, ordered by category
func categorySpend(sales []model.Sale) []CategorySpend {
	totals := make(map[string]decimal.Decimal)
	for _, s := range sales {
		totals[s.Category] = totals[s.Category].Add(decimal.NewFromFloat(s.Amount))
	}

	spend := make([]CategorySpend, 0, len(totals))
	for category, total := range totals {
		spend = append(spend, CategorySpend{Category: category, Total: total.RoundBank(amountPlaces)})
	}
	sort.Slice(spend, func(i, j int) bool { return spend[i].Category < spend[j].Category })
	return spend
}

// topCategory returns the category with the highest spend. Ties go to the
// first category in order.
func topCategory(spend []CategorySpend) (CategorySpend, bool) {
	if len(spend) == 0 {
		return CategorySpend{}, false
	}
	top := spend[0]
	for _, s := range spend[1:] {
		if s.Total.GreaterThan(top.Total) {
			top = s
		}
	}
	return top, true
}

// formatAmount renders a total with exactly two decimals
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(amountPlaces)
}
