package analytics

import (
	"cmp"
	"slices"
	"time"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

// SeasonalityParams selects one product by description, or by stock code
// when no description is given. Start and End bound the invoice dates,
// inclusive, and a zero bound is open. Year 0 folds every year together. A
// positive Budget adds a monthly budget plan.
type SeasonalityParams struct {
	Description string    `json:"description"`
	StockCode   string    `json:"stock_code"`
	Start       time.Time `json:"start,omitzero"`
	End         time.Time `json:"end,omitzero"`
	Year        int       `json:"year,omitempty"`
	Budget      float64   `json:"budget,omitempty"`
}

func AnalyzeSeasonality(ds *dataset.Dataset, p SeasonalityParams) (*models.SeasonalityReport, error) {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return nil, &DegenerateInputError{Field: "end", Reason: "must not be before start"}
	}

	product, rows := p.Description, ds.ForDescription(p.Description)
	if product == "" {
		product, rows = p.StockCode, ds.ForProduct(p.StockCode)
	}
	if rows.Len() == 0 {
		return nil, &NotFoundError{Kind: "product", Key: product}
	}
	if !p.Start.IsZero() || !p.End.IsZero() {
		rows = inRange(rows, p.Start, p.End)
		if rows.Len() == 0 {
			return nil, &NotFoundError{Kind: "product date range", Key: product}
		}
	}
	if p.Year != 0 {
		year := p.Year
		rows = rows.Where(func(t models.Transaction) bool { return t.Year() == year })
		if rows.Len() == 0 {
			return nil, &NotFoundError{Kind: "product year", Key: product}
		}
	}

	series := MonthlyRevenue(rows)
	report := &models.SeasonalityReport{
		Product:         product,
		Start:           p.Start,
		End:             p.End,
		Year:            p.Year,
		Series:          series,
		Insights:        AnalyzeTrend(series),
		Recommendations: MonthRecommendations(series),
		Quarters:        QuarterlyPlan(series),
		Opportunities:   MarketOpportunities(series),
	}
	if p.Budget > 0 {
		report.BudgetPlan = MonthlyBudgetPlan(p.Budget, series)
	}
	return report, nil
}

// inRange applies date bounds where a zero bound falls back to the data's
// own first or last day.
func inRange(rows *dataset.Dataset, start, end time.Time) *dataset.Dataset {
	if start.IsZero() {
		start, _ = rows.MinDate()
	}
	if end.IsZero() {
		end, _ = rows.MaxDate()
	}
	return rows.Between(start, end)
}

type DescriptiveParams struct {
	Frequency Frequency     `json:"frequency"`
	Outliers  OutlierMethod `json:"outliers"`
	TopN      int           `json:"top_n"`
}

// Describe bundles the descriptive views of a dataset. Lists are cut to
// TopN entries; counts cover everything.
func Describe(ds *dataset.Dataset, p DescriptiveParams) (*models.DescriptiveReport, error) {
	if p.TopN <= 0 {
		return nil, &DegenerateInputError{Field: "top_n", Reason: "must be positive"}
	}
	if p.Frequency == "" {
		p.Frequency = Monthly
	}
	if p.Outliers == "" {
		p.Outliers = OutlierIQR
	}

	outliers, err := DetectOutliers(ds, p.Outliers)
	if err != nil {
		return nil, err
	}

	customers := CustomerSegments(ds)
	topCustomers := slices.Clone(customers)
	slices.SortStableFunc(topCustomers, func(a, b models.CustomerSegment) int {
		return cmp.Compare(b.TotalRevenue, a.TotalRevenue)
	})

	products := ProductPerformance(ds)
	return &models.DescriptiveReport{
		TopProducts:   products[:min(p.TopN, len(products))],
		CustomerCount: len(customers),
		TopCustomers:  topCustomers[:min(p.TopN, len(topCustomers))],
		TimeSeries:    TimeSeries(ds, p.Frequency),
		OutlierCount:  len(outliers),
		Outliers:      outliers[:min(p.TopN, len(outliers))],
	}, nil
}
