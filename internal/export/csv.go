// Package export renders analysis results in flat file formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

var allocationHeader = []string{
	"Country",
	"Allocated_Budget",
	"Investment_Percentage",
	"Expected_Profit",
	"Investment_Level",
}

// AllocationCSV writes one header line followed by one line per row, in the
// order given.
func AllocationCSV(w io.Writer, rows []models.AllocationRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(allocationHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Country,
			money(r.AllocatedBudget),
			money(r.InvestmentPercentage),
			money(r.ExpectedProfit),
			string(r.InvestmentLevel),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", r.Country, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
