package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/models"
)

func TestAllocationCSV(t *testing.T) {
	rows := []models.AllocationRow{
		{
			CountryMetrics:       models.CountryMetrics{Country: "United Kingdom"},
			AllocatedBudget:      8000,
			InvestmentPercentage: 80,
			ExpectedProfit:       1200.005,
			InvestmentLevel:      models.LevelVeryHigh,
		},
		{
			CountryMetrics:       models.CountryMetrics{Country: "Korea, Republic of"},
			AllocatedBudget:      1999.999,
			InvestmentPercentage: 19.9999,
			ExpectedProfit:       300,
			InvestmentLevel:      models.LevelHigh,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, AllocationCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Country", "Allocated_Budget", "Investment_Percentage", "Expected_Profit", "Investment_Level"}, records[0])
	assert.Equal(t, []string{"United Kingdom", "8000.00", "80.00", "1200.01", "VeryHigh"}, records[1])
	assert.Equal(t, []string{"Korea, Republic of", "2000.00", "20.00", "300.00", "High"}, records[2])
}

func TestAllocationCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AllocationCSV(&buf, nil))
	assert.Equal(t, "Country,Allocated_Budget,Investment_Percentage,Expected_Profit,Investment_Level\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAllocationCSV_WriteError(t *testing.T) {
	err := AllocationCSV(failingWriter{}, []models.AllocationRow{{CountryMetrics: models.CountryMetrics{Country: "UK"}}})
	assert.Error(t, err)
}
