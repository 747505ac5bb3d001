package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

func seasonalDataset() *dataset.Dataset {
	rows := []models.Transaction{}
	for m, rev := range []float64{100, 120, 50, 110, 130} {
		rows = append(rows, tx("UK", "MUG", day(2011, time.Month(m+1), 3), 1, rev, "m"))
	}
	rows = append(rows, tx("UK", "MUG", day(2010, time.December, 3), 1, 400, "d"))
	rows = append(rows, tx("UK", "CUP", day(2011, time.January, 3), 1, 10, "c"))
	return dataset.New(rows)
}

func TestAnalyzeSeasonality(t *testing.T) {
	r, err := AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{Description: "Item MUG", Year: 2011, Budget: 1200})
	require.NoError(t, err)

	assert.Equal(t, "Item MUG", r.Product)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.Series.Months())
	assert.Equal(t, 5, r.Series.PeakMonth)
	assert.Equal(t, models.InsightPeak, r.Insights[0].Kind)
	assert.NotEmpty(t, r.Quarters)
	assert.Len(t, r.BudgetPlan, 5)

	all, err := AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{StockCode: "MUG"})
	require.NoError(t, err)
	assert.Equal(t, 12, all.Series.PeakMonth)
	assert.Nil(t, all.BudgetPlan)
}

func TestAnalyzeSeasonality_NotFound(t *testing.T) {
	_, err := AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{Description: "Teapot"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{StockCode: "CUP", Year: 2009})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeSeasonality_DateRange(t *testing.T) {
	r, err := AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{
		StockCode: "MUG",
		Start:     time.Date(2011, time.February, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2011, time.April, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, r.Series.Months())
	assert.Equal(t, []float64{120, 50, 110}, r.Series.Revenues())
	assert.Equal(t, 2011, r.Start.Year())

	// An open start keeps December 2010; the end drops May onwards.
	open, err := AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{
		StockCode: "MUG",
		End:       time.Date(2011, time.January, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 12}, open.Series.Months())

	_, err = AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{
		StockCode: "MUG",
		Start:     time.Date(2012, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = AnalyzeSeasonality(seasonalDataset(), SeasonalityParams{
		StockCode: "MUG",
		Start:     time.Date(2011, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2011, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestDescribe(t *testing.T) {
	r, err := Describe(dataset.New(productRows("UK")), DescriptiveParams{TopN: 2})
	require.NoError(t, err)

	assert.Len(t, r.TopProducts, 2)
	assert.Equal(t, "A", r.TopProducts[0].StockCode)
	assert.Equal(t, 1, r.CustomerCount)
	assert.Len(t, r.TopCustomers, 1)
	assert.Len(t, r.TimeSeries, 1)
	assert.LessOrEqual(t, len(r.Outliers), 2)

	_, err = Describe(dataset.New(nil), DescriptiveParams{})
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Describe(dataset.New(nil), DescriptiveParams{TopN: 3, Outliers: "mad"})
	assert.ErrorIs(t, err, ErrDegenerateInput)
}
