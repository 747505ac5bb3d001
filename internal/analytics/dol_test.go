package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

func dolDataset() *dataset.Dataset {
	return dataset.New([]models.Transaction{
		tx("UK", "85123A", day(2010, time.December, 1), 40, 3, "1"),
		tx("UK", "85123A", day(2011, time.January, 10), 10, 4, "2"),
		tx("UK", "85123A", day(2011, time.March, 5), 20, 5, "3"),
		tx("UK", "85123A", day(2011, time.March, 20), 30, 6, "4"),
		tx("UK", "22633", day(2011, time.April, 2), 5, 2, "5"),
	})
}

func TestCalculateDOL(t *testing.T) {
	res, err := CalculateDOL(dolDataset(), DolParams{
		ProductCode:  "85123A",
		VariableCost: 2,
		FixedCost:    50,
		TimePeriod:   "2 months",
	})
	require.NoError(t, err)

	// Rows from 2010-12-20 onwards: 10, 20, 30.
	assert.InDelta(t, 40, res.ForecastedQuantity, 1e-9)
	assert.InDelta(t, 4.5, res.AvgUnitPrice, 1e-9)
	assert.InDelta(t, 180, res.Revenue, 1e-9)
	assert.InDelta(t, 100, res.ContributionMargin, 1e-9)
	assert.InDelta(t, 50, res.Profit, 1e-9)
	assert.InDelta(t, 2, res.DOL, 1e-9)

	assert.Equal(t, 2011, res.DataYear)
	assert.Equal(t, 2011, res.SelectedYear)
	require.Len(t, res.MonthlyDOL, 2)
	// January: 10 × (4 − 2) = 20, 20 / (20 − 50)
	assert.InDelta(t, 20.0/-30.0, res.MonthlyDOL[1], 1e-9)
	// March: 50 × (5.5 − 2) = 175, 175 / 125
	assert.InDelta(t, 1.4, res.MonthlyDOL[3], 1e-9)
	_, ok := res.MonthlyDOL[2]
	assert.False(t, ok)

	require.Len(t, res.RecentHistory, 4)
	assert.Equal(t, "4", res.RecentHistory[3].InvoiceID)
}

func TestCalculateDOL_SelectedYear(t *testing.T) {
	res, err := CalculateDOL(dolDataset(), DolParams{
		ProductCode: "85123A", VariableCost: 1, FixedCost: 10, TimePeriod: "1 month", SelectedYear: 2010,
	})
	require.NoError(t, err)
	assert.Equal(t, 2010, res.SelectedYear)
	assert.Equal(t, 2011, res.DataYear)
	require.Len(t, res.MonthlyDOL, 1)
	// 40 × (3 − 1) = 80, 80 / 70
	assert.InDelta(t, 80.0/70.0, res.MonthlyDOL[12], 1e-9)
}

func TestCalculateDOL_ZeroMarginFallback(t *testing.T) {
	ds := dataset.New([]models.Transaction{tx("UK", "P", day(2011, 5, 1), 10, 5, "1")})

	res, err := CalculateDOL(ds, DolParams{ProductCode: "P", VariableCost: 3, FixedCost: 20, TimePeriod: "1 month"})
	require.NoError(t, err)
	assert.Equal(t, res.ContributionMargin, res.FixedCost)
	assert.Equal(t, 0.0, res.DOL)
	assert.Equal(t, 0.0, res.MonthlyDOL[5])
}

func TestCalculateDOL_Clamp(t *testing.T) {
	ds := dolDataset()
	for _, vc := range []float64{0, 1, 3.9, 4.4, 4.5, 4.6, 8, 100} {
		for _, fc := range []float64{0, 1, 39, 40, 41, 100, 1e6} {
			for _, period := range TimePeriods() {
				res, err := CalculateDOL(ds, DolParams{ProductCode: "85123A", VariableCost: vc, FixedCost: fc, TimePeriod: period})
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.DOL, -10.0)
				assert.LessOrEqual(t, res.DOL, 10.0)
				for _, v := range res.MonthlyDOL {
					assert.GreaterOrEqual(t, v, -10.0)
					assert.LessOrEqual(t, v, 10.0)
				}
			}
		}
	}
}

func TestCalculateDOL_Errors(t *testing.T) {
	_, err := CalculateDOL(dolDataset(), DolParams{ProductCode: "missing", TimePeriod: "1 month"})
	require.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Key)

	_, err = CalculateDOL(dolDataset(), DolParams{ProductCode: "85123A", TimePeriod: "6 months"})
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestForecastQuantity(t *testing.T) {
	assert.Zero(t, ForecastQuantity(dataset.New(nil), 3))

	returns := dataset.New([]models.Transaction{tx("UK", "P", day(2011, 1, 1), -5, 1, "1")})
	assert.Zero(t, ForecastQuantity(returns, 2))

	assert.InDelta(t, 60, ForecastQuantity(dolDataset().ForProduct("85123A"), 3), 1e-9)
}

func TestDolFunction(t *testing.T) {
	assert.Equal(t, 0.0, dol(50, 50))
	assert.Equal(t, 10.0, dol(100, 99.9))
	assert.Equal(t, -10.0, dol(100, 100.1))
	assert.InDelta(t, 2, dol(100, 50), 1e-12)
}
