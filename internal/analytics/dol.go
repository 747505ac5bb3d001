package analytics

import (
	"slices"
	"time"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

const (
	dolLimit       = 10.0
	forecastWindow = 90 * 24 * time.Hour
	historyRows    = 10
)

var timePeriods = map[string]int{
	"1 month":  1,
	"2 months": 2,
	"3 months": 3,
}

// TimePeriods lists the supported forecast horizons.
func TimePeriods() []string {
	return []string{"1 month", "2 months", "3 months"}
}

type DolParams struct {
	ProductCode  string  `json:"product_code"`
	VariableCost float64 `json:"variable_cost"`
	FixedCost    float64 `json:"fixed_cost"`
	TimePeriod   string  `json:"time_period"`
	// SelectedYear picks the year of the monthly series; 0 means the latest
	// year of the dataset.
	SelectedYear int `json:"selected_year,omitempty"`
}

// CalculateDOL computes the degree of operating leverage of one product over
// a forecast horizon, plus one DOL value per month of the selected year.
func CalculateDOL(ds *dataset.Dataset, p DolParams) (*models.DolResult, error) {
	months, ok := timePeriods[p.TimePeriod]
	if !ok {
		return nil, &DegenerateInputError{Field: "time_period", Reason: "must be one of 1 month, 2 months, 3 months"}
	}

	product := ds.ForProduct(p.ProductCode)
	if product.Len() == 0 {
		return nil, &NotFoundError{Kind: "product", Key: p.ProductCode}
	}

	quantity := ForecastQuantity(product, months)
	price := meanUnitPrice(product.Rows())
	margin := quantity * (price - p.VariableCost)

	dataYear := 0
	if years := ds.Years(); len(years) > 0 {
		dataYear = years[len(years)-1]
	}
	year := p.SelectedYear
	if year == 0 {
		year = dataYear
	}

	return &models.DolResult{
		ProductCode:        p.ProductCode,
		TimePeriod:         p.TimePeriod,
		ForecastedQuantity: quantity,
		AvgUnitPrice:       price,
		VariableCost:       p.VariableCost,
		FixedCost:          p.FixedCost,
		Revenue:            quantity * price,
		ContributionMargin: margin,
		Profit:             margin - p.FixedCost,
		DOL:                dol(margin, p.FixedCost),
		MonthlyDOL:         MonthlyDOL(product, year, p.VariableCost, p.FixedCost),
		DataYear:           dataYear,
		SelectedYear:       year,
		RecentHistory:      recentHistory(product.Rows(), historyRows),
	}, nil
}

// ForecastQuantity multiplies the mean per-row quantity of the last 90 days
// by the horizon in months. It never returns a negative value.
func ForecastQuantity(product *dataset.Dataset, months int) float64 {
	latest, ok := product.MaxDate()
	if !ok {
		return 0
	}
	from := latest.Add(-forecastWindow)

	var total float64
	var n int
	for _, r := range product.Rows() {
		if !r.InvoiceDate.Before(from) {
			total += float64(r.Quantity)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return max(0, total/float64(n)*float64(months))
}

// MonthlyDOL uses each month's actual mean unit price and summed quantity.
// Months without rows are absent.
func MonthlyDOL(product *dataset.Dataset, year int, variableCost, fixedCost float64) map[int]float64 {
	type acc struct {
		quantity   int
		priceTotal float64
		n          int
	}
	byMonth := make(map[int]*acc)
	for _, r := range product.Rows() {
		if r.Year() != year {
			continue
		}
		a, ok := byMonth[r.Month()]
		if !ok {
			a = &acc{}
			byMonth[r.Month()] = a
		}
		a.quantity += r.Quantity
		a.priceTotal += r.UnitPrice
		a.n++
	}

	out := make(map[int]float64, len(byMonth))
	for m, a := range byMonth {
		price := a.priceTotal / float64(a.n)
		margin := float64(a.quantity) * (price - variableCost)
		out[m] = dol(margin, fixedCost)
	}
	return out
}

// dol is clamped to [-10, 10]; a zero denominator at break-even yields 0.
func dol(margin, fixedCost float64) float64 {
	den := margin - fixedCost
	if den == 0 {
		return 0
	}
	return clamp(margin/den, -dolLimit, dolLimit)
}

func meanUnitPrice(rows []models.Transaction) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total float64
	for _, r := range rows {
		total += r.UnitPrice
	}
	return total / float64(len(rows))
}

func recentHistory(rows []models.Transaction, n int) []models.Transaction {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b models.Transaction) int {
		return a.InvoiceDate.Compare(b.InvoiceDate)
	})
	return sorted[max(0, len(sorted)-n):]
}

// ProductYears lists the years in which a product sold, ascending.
func ProductYears(ds *dataset.Dataset, code string) []int {
	return ds.ForProduct(code).Years()
}
