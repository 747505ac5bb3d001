package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

func scoredCountries(scores map[string]float64) []models.CountryMetrics {
	out := make([]models.CountryMetrics, 0, len(scores))
	for _, c := range sortedKeys(scores) {
		out = append(out, models.CountryMetrics{Country: c, OverallScore: scores[c], TotalRevenue: scores[c] * 1000})
	}
	return out
}

func totalAllocated(rows []models.AllocationRow) float64 {
	var total float64
	for _, r := range rows {
		total += r.AllocatedBudget
	}
	return total
}

func TestAllocateBudget_ClipWithinBounds(t *testing.T) {
	rows, err := AllocateBudget(scoredCountries(map[string]float64{"A": 9, "B": 1}), AllocationParams{
		TotalBudget:   10000,
		MinPerCountry: 2000,
		MaxPerCountry: 8000,
		ExpectedROI:   15,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.InDelta(t, 10000, totalAllocated(rows), 1e-6)
	assert.Equal(t, "A", rows[0].Country)
	assert.InDelta(t, 9000, rows[0].InitialBudget, 1e-9)
	assert.InDelta(t, 1000, rows[1].InitialBudget, 1e-9)
	assert.InDelta(t, 8000, rows[0].AllocatedBudget, 1e-6)
	assert.InDelta(t, 2000, rows[1].AllocatedBudget, 1e-6)

	assert.InDelta(t, 1200, rows[0].ExpectedProfit, 1e-6)
	assert.InDelta(t, 9200, rows[0].TotalReturn, 1e-6)
	assert.InDelta(t, 80, rows[0].InvestmentPercentage, 1e-9)
	assert.Equal(t, models.LevelVeryHigh, rows[0].InvestmentLevel)
	assert.Equal(t, models.LevelHigh, rows[1].InvestmentLevel)
}

func TestAllocateBudget_RescaleMayLeaveBounds(t *testing.T) {
	rows, err := AllocateBudget(scoredCountries(map[string]float64{"A": 9, "B": 1}), AllocationParams{
		TotalBudget:   10000,
		MinPerCountry: 2000,
		MaxPerCountry: 6000,
		ExpectedROI:   10,
	})
	require.NoError(t, err)

	assert.InDelta(t, 10000, totalAllocated(rows), 1e-6)
	assert.InDelta(t, 7500, rows[0].AllocatedBudget, 1e-6)
	assert.InDelta(t, 2500, rows[1].AllocatedBudget, 1e-6)
	assert.Greater(t, rows[0].AllocatedBudget, 6000.0)
}

func TestAllocateBudget_Conservation(t *testing.T) {
	scores := map[string]float64{}
	for i := range 12 {
		scores[fmt.Sprintf("C%02d", i)] = float64(i%5) + 0.5
	}
	for _, p := range []AllocationParams{
		{TotalBudget: 100000, MinPerCountry: 0, MaxPerCountry: 100000, ExpectedROI: 12},
		{TotalBudget: 100000, MinPerCountry: 5000, MaxPerCountry: 9000, ExpectedROI: 12},
		{TotalBudget: 100000, MinPerCountry: 10000, MaxPerCountry: 10000, ExpectedROI: 12},
		{TotalBudget: 3.75, MinPerCountry: 0.1, MaxPerCountry: 1, ExpectedROI: 0},
	} {
		rows, err := AllocateBudget(scoredCountries(scores), p)
		require.NoError(t, err)
		assert.InDelta(t, p.TotalBudget, totalAllocated(rows), 1e-6)
		for i := 1; i < len(rows); i++ {
			assert.GreaterOrEqual(t, rows[i-1].AllocatedBudget, rows[i].AllocatedBudget)
		}
	}
}

// Bounds that cannot hold the budget are either rejected or the rescale
// still spends exactly the total.
func TestAllocateBudget_TightBoundsConserveOrReject(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		params AllocationParams
	}{
		{"max zero", map[string]float64{"A": 9, "B": 1}, AllocationParams{TotalBudget: 10000, ExpectedROI: 10}},
		{"every country capped", map[string]float64{"A": 9, "B": 1}, AllocationParams{TotalBudget: 10000, MaxPerCountry: 1000}},
		{"caps below an equal share", map[string]float64{"A": 1, "B": 1, "C": 1}, AllocationParams{TotalBudget: 900, MaxPerCountry: 100}},
		{"min equals max", map[string]float64{"A": 5, "B": 0}, AllocationParams{TotalBudget: 1000, MinPerCountry: 50, MaxPerCountry: 50}},
		{"zero scores capped", map[string]float64{"A": 0, "B": 0}, AllocationParams{TotalBudget: 1000, MaxPerCountry: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := AllocateBudget(scoredCountries(tt.scores), tt.params)
			if err != nil {
				assert.ErrorIs(t, err, ErrDegenerateInput)
				return
			}
			assert.InDelta(t, tt.params.TotalBudget, totalAllocated(rows), 1e-6)
		})
	}
}

func TestAllocatePortfolio_UnknownCountry(t *testing.T) {
	ds := dataset.New(productRows("Germany"))
	params := AllocationParams{TotalBudget: 1000, MaxPerCountry: 1000}

	_, err := AllocatePortfolio(ds, []string{"Nowhere", "germany"}, 4, params)
	assert.ErrorIs(t, err, ErrNotFound)

	rows, err := AllocatePortfolio(ds, []string{"germany"}, 4, params)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Germany", rows[0].Country)
	assert.InDelta(t, 1000, rows[0].AllocatedBudget, 1e-9)
	assert.NotEmpty(t, rows[0].TopProducts)
}

func TestAllocateBudget_ZeroScoresSplitEqually(t *testing.T) {
	rows, err := AllocateBudget(scoredCountries(map[string]float64{"A": 0, "B": 0}), AllocationParams{
		TotalBudget: 1000, MinPerCountry: 0, MaxPerCountry: 1000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 500, rows[0].AllocatedBudget, 1e-9)
	assert.InDelta(t, 500, rows[1].AllocatedBudget, 1e-9)
}

func TestAllocateBudget_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		params AllocationParams
		field  string
	}{
		{"zero budget", AllocationParams{TotalBudget: 0, MaxPerCountry: 10}, "total_budget"},
		{"negative budget", AllocationParams{TotalBudget: -1, MaxPerCountry: 10}, "total_budget"},
		{"min above max", AllocationParams{TotalBudget: 100, MinPerCountry: 50, MaxPerCountry: 10}, "min_per_country"},
		{"zero max", AllocationParams{TotalBudget: 10000, ExpectedROI: 10}, "max_per_country"},
		{"negative max", AllocationParams{TotalBudget: 10000, MaxPerCountry: -1}, "max_per_country"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AllocateBudget(scoredCountries(map[string]float64{"A": 1}), tt.params)
			require.ErrorIs(t, err, ErrDegenerateInput)
			var de *DegenerateInputError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestAllocateBudget_NoCountries(t *testing.T) {
	rows, err := AllocateBudget(nil, AllocationParams{TotalBudget: 100, MaxPerCountry: 100})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInvestmentLevel(t *testing.T) {
	assert.Equal(t, models.LevelVeryHigh, investmentLevel(25))
	assert.Equal(t, models.LevelHigh, investmentLevel(24.99))
	assert.Equal(t, models.LevelHigh, investmentLevel(15))
	assert.Equal(t, models.LevelMedium, investmentLevel(10))
	assert.Equal(t, models.LevelLow, investmentLevel(9.99))
}

func TestSummarizeAllocation(t *testing.T) {
	rows, err := AllocateBudget(scoredCountries(map[string]float64{"A": 8, "B": 6, "C": 4, "D": 2}), AllocationParams{
		TotalBudget: 20000, MinPerCountry: 0, MaxPerCountry: 20000, ExpectedROI: 10,
	})
	require.NoError(t, err)

	s := SummarizeAllocation(rows, 20000)
	assert.InDelta(t, 20000, s.TotalAllocated, 1e-6)
	assert.InDelta(t, 2000, s.TotalExpectedProfit, 1e-6)
	assert.InDelta(t, 10, s.RealisedROI, 1e-9)
	assert.InDelta(t, 5, s.AverageScore, 1e-9)
	assert.InDelta(t, 90, s.TopThreeShare, 1e-9)
	// top three mean 6, bottom two mean 3
	assert.InDelta(t, 3, s.ScoreGap, 1e-9)
	assert.InDelta(t, 20000, s.TotalCurrentRevenue, 1e-9)

	assert.Zero(t, SummarizeAllocation(nil, 100).TotalAllocated)
}

func productRows(country string) []models.Transaction {
	d := day(2011, time.June, 1)
	return []models.Transaction{
		tx(country, "A", d, 100, 10, "1"),
		tx(country, "A", d, 50, 10, "2"),
		tx(country, "B", d, 300, 1, "3"),
		tx(country, "C", d, 10, 50, "4"),
		tx(country, "C", d, 2, 50, "5"),
		tx(country, "C", d, 1, 50, "6"),
		tx(country, "D", d, 10, 10, "7"),
		{InvoiceID: "8", InvoiceDate: d, Country: country, StockCode: "E", Quantity: 20, UnitPrice: 10, Revenue: 200},
	}
}

func TestTopProducts(t *testing.T) {
	ds := dataset.New(productRows("France"))
	top := TopProducts(ds, []string{"France", "Peru"}, 3, 10)

	assert.Empty(t, top["Peru"])
	products := top["France"]
	require.Len(t, products, 4, "D sits on the 100 noise floor")

	assert.Equal(t, "A", products[0].StockCode)
	assert.InDelta(t, 1500, products[0].TotalRevenue, 1e-9)
	assert.Equal(t, 2, products[0].TotalOrders)
	assert.InDelta(t, 750, products[0].AvgRevenuePerOrder, 1e-9)
	// 0.6*1 + 0.3*(150/300) + 0.1*(2/3)
	assert.InDelta(t, 0.6+0.15+0.1*2.0/3.0, products[0].OverallScore, 1e-9)

	for _, p := range products {
		if p.StockCode == "E" {
			assert.Equal(t, "Product E", p.Description)
		}
	}

	limited := TopProducts(ds, []string{"France"}, 3, 2)["France"]
	require.Len(t, limited, 2)
	assert.Equal(t, products[:2], limited)
}

func TestProductDiversity(t *testing.T) {
	products := []models.TopProduct{{TotalRevenue: 1000}, {TotalRevenue: 1000.01}, {TotalRevenue: 5000}}
	assert.Equal(t, 2, ProductDiversity(products))
	assert.Zero(t, ProductDiversity(nil))
}

func TestProductStrategy(t *testing.T) {
	assert.Nil(t, ProductStrategy(nil, 1000))

	products := []models.TopProduct{
		{StockCode: "low", TotalRevenue: 10},
		{StockCode: "top", TotalRevenue: 500},
		{StockCode: "mid", TotalRevenue: 200},
		{StockCode: "tail", TotalRevenue: 50},
	}
	s := ProductStrategy(products, 1000)
	require.NotNil(t, s)

	assert.Equal(t, 30.0, s.Core.Percentage)
	assert.InDelta(t, 300, s.Core.Budget, 1e-9)
	assert.Equal(t, "top", s.Core.Products[0].StockCode)

	assert.InDelta(t, 100, s.Growth.Budget, 1e-9)
	require.Len(t, s.Growth.Products, 1)
	assert.Equal(t, "mid", s.Growth.Products[0].StockCode)

	assert.InDelta(t, 600, s.Diversify.Budget, 1e-9)
	require.Len(t, s.Diversify.Products, 2)
	assert.Equal(t, "tail", s.Diversify.Products[0].StockCode)

	single := ProductStrategy(products[:1], 100)
	assert.Empty(t, single.Growth.Products)
	assert.Empty(t, single.Diversify.Products)
	assert.InDelta(t, 60, single.Diversify.Budget, 1e-9)
}

func TestAllocatePortfolio(t *testing.T) {
	rows := append(productRows("France"), productRows("Spain")[:3]...)
	ds := dataset.New(rows)

	out, err := AllocatePortfolio(ds, []string{"France", "Spain"}, 3, AllocationParams{
		TotalBudget: 10000, MinPerCountry: 1000, MaxPerCountry: 9000, ExpectedROI: 20,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.InDelta(t, 10000, totalAllocated(out), 1e-6)
	for _, r := range out {
		require.NotNil(t, r.Strategy, r.Country)
		assert.InDelta(t, r.AllocatedBudget*0.3, r.Strategy.Core.Budget, 1e-9)
		assert.LessOrEqual(t, len(r.TopProducts), 5)
	}

	france := out[0]
	assert.Equal(t, "France", france.Country)
	assert.Equal(t, 1, france.ProductDiversity)
}
