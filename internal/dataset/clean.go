package dataset

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

const (
	ColInvoiceNo   = "InvoiceNo"
	ColInvoiceDate = "InvoiceDate"
	ColCountry     = "Country"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColUnitPrice   = "UnitPrice"
	ColRevenue     = "Revenue"
	ColCustomerID  = "CustomerID"
)

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// CleanOptions selects the cleaning profile. Allocation additionally requires
// positive quantity and unit price and a customer id, and always derives
// revenue from quantity and unit price.
type CleanOptions struct {
	Allocation bool
}

type columns struct {
	invoiceNo, invoiceDate, country, stockCode, description int
	quantity, unitPrice, revenue, customerID                int
}

type parsedRow struct {
	tx    models.Transaction
	valid bool
}

// Clean turns a raw table into a validated dataset. It never mutates the
// table and yields the same output for the same input.
func Clean(ctx context.Context, table *Table, opts CleanOptions) (*Dataset, error) {
	cols, err := resolveColumns(table, opts)
	if err != nil {
		return nil, err
	}

	parsed := make([]parsedRow, len(table.Records))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for start := 0; start < len(table.Records); start += batchSize {
		end := min(start+batchSize, len(table.Records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				tx, ok := parseRecord(table.Records[i], cols, opts)
				parsed[i] = parsedRow{tx: tx, valid: ok}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]models.Transaction, 0, len(parsed))
	for _, p := range parsed {
		if p.valid {
			rows = append(rows, p.tx)
		}
	}

	return &Dataset{rows: rows}, nil
}

func resolveColumns(table *Table, opts CleanOptions) (columns, error) {
	cols := columns{
		invoiceNo:   table.index(ColInvoiceNo),
		invoiceDate: table.index(ColInvoiceDate),
		country:     table.index(ColCountry),
		stockCode:   table.index(ColStockCode),
		description: table.index(ColDescription),
		quantity:    table.index(ColQuantity),
		unitPrice:   table.index(ColUnitPrice),
		revenue:     table.index(ColRevenue),
		customerID:  table.index(ColCustomerID),
	}

	var missing []string
	if cols.invoiceDate < 0 {
		missing = append(missing, ColInvoiceDate)
	}
	if cols.country < 0 {
		missing = append(missing, ColCountry)
	}

	hasPair := cols.quantity >= 0 && cols.unitPrice >= 0
	switch {
	case opts.Allocation:
		if cols.quantity < 0 {
			missing = append(missing, ColQuantity)
		}
		if cols.unitPrice < 0 {
			missing = append(missing, ColUnitPrice)
		}
		if cols.customerID < 0 {
			missing = append(missing, ColCustomerID)
		}
		cols.revenue = -1
	case cols.revenue < 0 && !hasPair:
		missing = append(missing, ColRevenue+" or "+ColQuantity+"+"+ColUnitPrice)
	}

	if len(missing) > 0 {
		return cols, &SchemaError{Missing: missing}
	}
	return cols, nil
}

func parseRecord(record []string, cols columns, opts CleanOptions) (models.Transaction, bool) {
	date, ok := ParseDate(field(record, cols.invoiceDate))
	if !ok {
		return models.Transaction{}, false
	}

	country := NormalizeCountry(field(record, cols.country))
	if country == "" {
		return models.Transaction{}, false
	}

	tx := models.Transaction{
		InvoiceID:   field(record, cols.invoiceNo),
		InvoiceDate: date,
		Country:     country,
		StockCode:   field(record, cols.stockCode),
		Description: field(record, cols.description),
		Quantity:    parseQuantity(field(record, cols.quantity)),
		UnitPrice:   parseNumber(field(record, cols.unitPrice)),
		CustomerID:  field(record, cols.customerID),
	}
	if isNull(tx.CustomerID) {
		tx.CustomerID = ""
	}
	if isNull(tx.Description) {
		tx.Description = ""
	}

	if cols.revenue >= 0 {
		revenue, err := strconv.ParseFloat(field(record, cols.revenue), 64)
		if err != nil {
			return models.Transaction{}, false
		}
		tx.Revenue = revenue
	} else {
		tx.Revenue = float64(tx.Quantity) * tx.UnitPrice
	}

	if !(tx.Revenue > 0) || math.IsInf(tx.Revenue, 0) {
		return models.Transaction{}, false
	}

	if opts.Allocation && (tx.Quantity <= 0 || tx.UnitPrice <= 0 || tx.CustomerID == "") {
		return models.Transaction{}, false
	}

	return tx, true
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// ParseDate accepts the date layouts seen in retail exports.
func ParseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseQuantity treats unparseable or fractional values as 0.
func parseQuantity(value string) int {
	if q, err := strconv.Atoi(value); err == nil {
		return q
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func parseNumber(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func isNull(value string) bool {
	switch strings.ToLower(value) {
	case "", "nan", "null", "none", "na", "n/a":
		return true
	}
	return false
}

// NormalizeCountry trims and title-cases a country: the first letter of
// every run of letters is upper case, the rest lower case.
func NormalizeCountry(value string) string {
	value = strings.TrimSpace(value)
	if isNull(value) {
		return ""
	}

	var b strings.Builder
	b.Grow(len(value))
	prevLetter := false
	for _, r := range value {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
