// pkg/report/generator.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Output sub-directories
const (
	ReportsDir = "reports"
	LegacyDir  = "legacy"
)

// Report file names
const (
	FileUniqueCustomerCount = "unique_customer_count.csv"
	FileCustomersByAge      = "customers_by_age.csv"
	FileCustomerSpend       = "customer_spend.csv"
	FileTopCustomer         = "top_customer.csv"
	FileCategorySpend       = "category_spend.csv"
	FileTopCategory         = "top_category.csv"
	FileSalesByDate         = "sales_by_date.csv"
	FileCustomersClean      = "customers_clean.csv"
	FileSalesClean          = "sales_clean.csv"
)

// legacyFiles are also written to <output>/legacy for older consumers
var legacyFiles = map[string]bool{
	FileUniqueCustomerCount: true,
	FileCustomerSpend:       true,
	FileCategorySpend:       true,
	FileTopCustomer:         true,
}

// Result describes the reports written by a run
type Result struct {
	OutputDir       string
	Files           []string
	UniqueCustomers int
	TopCustomer     *CustomerSpend
	TopCategory     *CategorySpend
	Duration        time.Duration
}

// Generator writes the aggregate reports of cleaned customers and sales
type Generator struct {
	outputDir string
	logger    *zap.Logger
}

// NewGenerator creates a Generator writing below outputDir
func NewGenerator(outputDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{outputDir: outputDir, logger: logger}
}

// Generate recreates the output directory and writes every report. Any
// previous content of the directory is removed first.
func (g *Generator) Generate(customersDS, salesDS *model.Dataset) (*Result, error) {
	start := time.Now()

	customers, err := model.CustomersFrom(customersDS)
	if err != nil {
		return nil, err
	}
	sales, err := model.SalesFrom(salesDS)
	if err != nil {
		return nil, err
	}

	if err := g.resetOutputDir(); err != nil {
		return nil, err
	}

	result := &Result{OutputDir: g.outputDir}
	write := func(name string, header []string, records [][]string) error {
		paths := []string{filepath.Join(g.outputDir, ReportsDir, name)}
		if legacyFiles[name] {
			paths = append(paths, filepath.Join(g.outputDir, LegacyDir, name))
		}
		for _, path := range paths {
			if err := writeCSV(path, header, records); err != nil {
				return err
			}
			result.Files = append(result.Files, path)
		}
		g.logger.Debug("Wrote report", zap.String("report", name), zap.Int("rows", len(records)))
		return nil
	}

	result.UniqueCustomers = uniqueCustomers(customers)
	if err := write(FileUniqueCustomerCount, []string{"unique_customers"},
		[][]string{{strconv.Itoa(result.UniqueCustomers)}}); err != nil {
		return nil, err
	}

	byAge := sortedRows(customersDS, func(i, j int) bool { return customers[i].Age < customers[j].Age })
	if err := write(FileCustomersByAge, customersDS.Columns, byAge); err != nil {
		return nil, err
	}

	spend, err := customerSpend(customers, sales)
	if err != nil {
		return nil, err
	}
	spendHeader := []string{model.ColCustomerID, model.ColCustomerName, "total_spend"}
	spendRecords := make([][]string, len(spend))
	for i, s := range spend {
		spendRecords[i] = customerSpendRecord(s)
	}
	if err := write(FileCustomerSpend, spendHeader, spendRecords); err != nil {
		return nil, err
	}

	var topCustomerRecords [][]string
	if top, ok := topCustomer(spend); ok {
		result.TopCustomer = &top
		topCustomerRecords = [][]string{customerSpendRecord(top)}
	}
	if err := write(FileTopCustomer, spendHeader, topCustomerRecords); err != nil {
		return nil, err
	}

	categories := categorySpend(sales)
	categoryHeader := []string{model.ColProductCategory, "total_spend"}
	categoryRecords := make([][]string, len(categories))
	for i, c := range categories {
		categoryRecords[i] = []string{c.Category, formatAmount(c.Total)}
	}
	if err := write(FileCategorySpend, categoryHeader, categoryRecords); err != nil {
		return nil, err
	}

	var topCategoryRecords [][]string
	if top, ok := topCategory(categories); ok {
		result.TopCategory = &top
		topCategoryRecords = [][]string{{top.Category, formatAmount(top.Total)}}
	}
	if err := write(FileTopCategory, categoryHeader, topCategoryRecords); err != nil {
		return nil, err
	}

	byDate := sortedRows(salesDS, func(i, j int) bool { return sales[i].Date.After(sales[j].Date) })
	if err := write(FileSalesByDate, salesDS.Columns, byDate); err != nil {
		return nil, err
	}

	if err := write(FileCustomersClean, customersDS.Columns, customersDS.StringRows()); err != nil {
		return nil, err
	}
	if err := write(FileSalesClean, salesDS.Columns, salesDS.StringRows()); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	fields := []zap.Field{
		zap.String("output_dir", g.outputDir),
		zap.Int("files", len(result.Files)),
		zap.Int("unique_customers", result.UniqueCustomers),
		zap.Duration("duration", result.Duration),
	}
	if result.TopCustomer != nil {
		fields = append(fields,
			zap.Int64("top_customer_id", result.TopCustomer.CustomerID),
			zap.String("top_customer_spend", formatAmount(result.TopCustomer.Total)))
	}
	if result.TopCategory != nil {
		fields = append(fields, zap.String("top_category", result.TopCategory.Category))
	}
	g.logger.Info("Reports generated", fields...)
	return result, nil
}

// resetOutputDir removes whatever a previous run left behind, complete or
// not, and creates the report directories
func (g *Generator) resetOutputDir() error {
	if g.outputDir == "" {
		return fmt.Errorf("output directory is not set")
	}
	if err := os.RemoveAll(g.outputDir); err != nil {
		return fmt.Errorf("failed to clear output directory %s: %w", g.outputDir, err)
	}
	for _, dir := range []string{ReportsDir, LegacyDir} {
		path := filepath.Join(g.outputDir, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil
}

func customerSpendRecord(s CustomerSpend) []string {
	return []string{strconv.FormatInt(s.CustomerID, 10), s.Name, formatAmount(s.Total)}
}

// sortedRows renders the rows of ds in the order given by a stable sort on
// row positions; less compares original row indices
func sortedRows(ds *model.Dataset, less func(i, j int) bool) [][]string {
	order := make([]int, ds.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return less(order[a], order[b]) })

	rows := ds.StringRows()
	out := make([][]string, len(order))
	for i, idx := range order {
		out[i] = rows[idx]
	}
	return out
}
