package analytics

import (
	"cmp"
	"slices"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

const (
	weightRevenue   = 0.5
	weightFrequency = 0.35
	weightStability = 0.15
)

type countryWindow struct {
	revenue float64
	orders  map[string]struct{}
	monthly map[string]float64
}

// ScoreCountries computes metrics and composite scores for the selected
// countries over a trailing window of months×30 days. Countries are matched
// to the dataset case-insensitively; one without any rows is a NotFoundError.
// Scores are normalized against the selected batch only. The result is
// sorted by overall score, highest first.
func ScoreCountries(ds *dataset.Dataset, countries []string, months int) ([]models.CountryMetrics, error) {
	if len(countries) == 0 {
		return []models.CountryMetrics{}, nil
	}
	if months <= 0 {
		return nil, &DegenerateInputError{Field: "months", Reason: "must be positive"}
	}
	countries, err := ResolveCountries(ds, countries)
	if err != nil {
		return nil, err
	}

	selected := ds.ForCountries(countries)
	window := selected.Window(months)

	byCountry := make(map[string]*countryWindow, len(countries))
	for _, c := range countries {
		byCountry[c] = &countryWindow{orders: map[string]struct{}{}, monthly: map[string]float64{}}
	}
	for _, r := range window.Rows() {
		w := byCountry[r.Country]
		w.revenue += r.Revenue
		if r.InvoiceID != "" {
			w.orders[r.InvoiceID] = struct{}{}
		}
		w.monthly[r.YearMonth()] += r.Revenue
	}

	seasonality := seasonalityScores(selected)

	metrics := make([]models.CountryMetrics, 0, len(countries))
	for _, c := range countries {
		w := byCountry[c]
		m := models.CountryMetrics{
			Country:           c,
			TotalRevenue:      w.revenue,
			AvgMonthlyRevenue: w.revenue / float64(months),
			TotalOrders:       len(w.orders),
			AvgOrdersPerMonth: float64(len(w.orders)) / float64(months),
			AvgOrderValue:     ratio(w.revenue, float64(len(w.orders))),
			RevenueStability:  revenueStability(mapValues(w.monthly)),
			SeasonalityScore:  seasonality[c],
		}
		metrics = append(metrics, m)
	}

	scoreMetrics(metrics)

	slices.SortStableFunc(metrics, func(a, b models.CountryMetrics) int {
		return cmp.Compare(b.OverallScore, a.OverallScore)
	})
	return metrics, nil
}

// revenueStability is the inverse coefficient of variation of monthly
// revenue. Fewer than two months, a non-positive mean or zero spread give 0.
func revenueStability(monthly []float64) float64 {
	if len(monthly) < 2 {
		return 0
	}
	m := mean(monthly)
	if m <= 0 {
		return 0
	}
	s := stdev(monthly)
	if s == 0 {
		return 0
	}
	return 1 / (s / m)
}

// seasonalityScores is the coefficient of variation of the mean revenue per
// calendar month, over each country's full history.
func seasonalityScores(ds *dataset.Dataset) map[string]float64 {
	type acc struct {
		sum   float64
		count int
	}
	byCountry := make(map[string]map[int]*acc)
	for _, r := range ds.Rows() {
		months, ok := byCountry[r.Country]
		if !ok {
			months = make(map[int]*acc)
			byCountry[r.Country] = months
		}
		a, ok := months[r.Month()]
		if !ok {
			a = &acc{}
			months[r.Month()] = a
		}
		a.sum += r.Revenue
		a.count++
	}

	out := make(map[string]float64, len(byCountry))
	for country, months := range byCountry {
		avgs := make([]float64, 0, len(months))
		for m := 1; m <= 12; m++ {
			if a, ok := months[m]; ok {
				avgs = append(avgs, a.sum/float64(a.count))
			}
		}
		out[country] = cv(avgs)
	}
	return out
}

func scoreMetrics(metrics []models.CountryMetrics) {
	var maxRevenue, maxOrders float64
	for _, m := range metrics {
		maxRevenue = max(maxRevenue, m.AvgMonthlyRevenue)
		maxOrders = max(maxOrders, m.AvgOrdersPerMonth)
	}

	for i := range metrics {
		m := &metrics[i]
		m.RevenueScore = ratio(m.AvgMonthlyRevenue, maxRevenue) * 10
		m.OrderFrequencyScore = ratio(m.AvgOrdersPerMonth, maxOrders) * 10
		m.StabilityScore = clamp(m.RevenueStability*2, 0, 10)
		m.OverallScore = weightRevenue*m.RevenueScore +
			weightFrequency*m.OrderFrequencyScore +
			weightStability*m.StabilityScore
		m.RiskLevel = riskLevel(m.OrderFrequencyScore, m.RevenueStability)
		m.InvestmentPotential = investmentPotential(m.OverallScore)
	}
}

func riskLevel(frequencyScore, stability float64) models.RiskLevel {
	switch {
	case frequencyScore > 7 && stability > 0.5:
		return models.RiskLow
	case frequencyScore < 4 || stability < 0.2:
		return models.RiskHigh
	default:
		return models.RiskMedium
	}
}

func investmentPotential(score float64) models.InvestmentPotential {
	switch {
	case score > 7:
		return models.PotentialHigh
	case score < 4:
		return models.PotentialLow
	default:
		return models.PotentialMedium
	}
}

// mapValues returns the values ordered by key so float sums are repeatable.
func mapValues[K cmp.Ordered](m map[K]float64) []float64 {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
