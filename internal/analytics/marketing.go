package analytics

import (
	"retail-dashboard/internal/models"
)

const (
	strongQuarterRatio   = 0.8
	opportunityThreshold = 0.7
	baseBudgetShare      = 0.7
	boostBudgetShare     = 0.3
)

// MonthRecommendations tags the peak, low, stable and volatile months of a
// series. A month may appear under more than one type.
func MonthRecommendations(s models.MonthlyRevenueSeries) []models.MonthRecommendation {
	if len(s.Points) == 0 {
		return []models.MonthRecommendation{}
	}
	out := []models.MonthRecommendation{
		{Month: s.PeakMonth, Type: models.MonthPeak},
		{Month: s.LowMonth, Type: models.MonthLow},
	}
	for _, m := range s.StableMonths {
		out = append(out, models.MonthRecommendation{Month: m, Type: models.MonthStable})
	}
	if s.VolatileMonth != nil {
		out = append(out, models.MonthRecommendation{Month: *s.VolatileMonth, Type: models.MonthVolatile})
	}
	return out
}

// QuarterlyPlan averages revenue per quarter and compares it with the best
// month of the series.
func QuarterlyPlan(s models.MonthlyRevenueSeries) []models.QuarterPlan {
	revenues := s.Revenues()
	best := maxOf(revenues)

	var order []int
	byQuarter := make(map[int][]float64)
	for _, p := range s.Points {
		q := (p.Month-1)/3 + 1
		if _, ok := byQuarter[q]; !ok {
			order = append(order, q)
		}
		byQuarter[q] = append(byQuarter[q], p.Revenue)
	}

	out := make([]models.QuarterPlan, 0, len(order))
	for _, q := range order {
		avg := mean(byQuarter[q])
		r := ratio(avg, best)
		out = append(out, models.QuarterPlan{
			Quarter:          q,
			AvgRevenue:       avg,
			PerformanceRatio: r,
			Strong:           r > strongQuarterRatio,
		})
	}
	return out
}

// MarketOpportunities lists months below 70% of the mean revenue with the
// growth needed to reach the mean.
func MarketOpportunities(s models.MonthlyRevenueSeries) []models.MarketOpportunity {
	avg := mean(s.Revenues())
	out := []models.MarketOpportunity{}
	for _, p := range s.Points {
		if p.Revenue < avg*opportunityThreshold && p.Revenue > 0 {
			out = append(out, models.MarketOpportunity{
				Month:              p.Month,
				CurrentRevenue:     p.Revenue,
				GrowthPotentialPct: (avg - p.Revenue) / p.Revenue * 100,
			})
		}
	}
	return out
}

// MonthlyBudgetPlan gives every month a revenue-proportional share of 70% of
// the budget, plus a boost from the remaining 30% for months below average.
func MonthlyBudgetPlan(total float64, s models.MonthlyRevenueSeries) []models.MonthlyBudget {
	revenues := s.Revenues()
	totalRevenue := sum(revenues)
	avg := mean(revenues)

	out := make([]models.MonthlyBudget, 0, len(s.Points))
	for _, p := range s.Points {
		base := ratio(p.Revenue, totalRevenue) * total * baseBudgetShare
		var boost float64
		if p.Revenue < avg {
			boost = ratio(avg-p.Revenue, avg) * total * boostBudgetShare
		}
		out = append(out, models.MonthlyBudget{
			Month:       p.Month,
			Budget:      base + boost,
			BaseAmount:  base,
			BoostAmount: boost,
			Accelerate:  p.Revenue < avg,
		})
	}
	return out
}
