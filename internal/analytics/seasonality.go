package analytics

import (
	"math"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

const (
	volatileThreshold = 0.30
	stableBand        = 0.15
)

// MonthlyRevenue folds revenue by month of year, so the same month of
// different years lands in one bucket. Points are ordered by month number.
func MonthlyRevenue(ds *dataset.Dataset) models.MonthlyRevenueSeries {
	var totals [13]float64
	var present [13]bool
	for _, r := range ds.Rows() {
		totals[r.Month()] += r.Revenue
		present[r.Month()] = true
	}

	points := make([]models.MonthRevenue, 0, 12)
	for m := 1; m <= 12; m++ {
		if present[m] {
			points = append(points, models.MonthRevenue{Month: m, Revenue: totals[m]})
		}
	}
	return NewMonthlySeries(points)
}

// NewMonthlySeries derives peak, low, volatile and stable months for points
// already in presentation order.
func NewMonthlySeries(points []models.MonthRevenue) models.MonthlyRevenueSeries {
	s := models.MonthlyRevenueSeries{Points: points, StableMonths: []int{}}
	if len(points) == 0 {
		return s
	}

	peak, low := 0, 0
	for i, p := range points {
		if p.Revenue > points[peak].Revenue {
			peak = i
		}
		if p.Revenue < points[low].Revenue {
			low = i
		}
	}
	s.PeakMonth = points[peak].Month
	s.LowMonth = points[low].Month

	if idx, _, ok := volatileIndex(s.Revenues()); ok {
		m := points[idx].Month
		s.VolatileMonth = &m
	}

	lower, upper := stableBounds(s.Revenues())
	for _, p := range points {
		if p.Revenue >= lower && p.Revenue <= upper {
			s.StableMonths = append(s.StableMonths, p.Month)
		}
	}
	return s
}

// volatileIndex finds the largest relative change between consecutive
// points, skipping pairs whose previous value is 0. It reports the later
// index only when the change exceeds 30%.
func volatileIndex(revenues []float64) (int, float64, bool) {
	best, idx := 0.0, -1
	for i := 1; i < len(revenues); i++ {
		prev := revenues[i-1]
		if prev == 0 {
			continue
		}
		pct := math.Abs(revenues[i]-prev) / prev
		if pct > best {
			best, idx = pct, i
		}
	}
	if idx < 0 || best <= volatileThreshold {
		return 0, 0, false
	}
	return idx, best, true
}

func stableBounds(revenues []float64) (float64, float64) {
	avg := mean(revenues)
	return avg * (1 - stableBand), avg * (1 + stableBand)
}

// AnalyzeTrend evaluates every trend rule independently and returns the
// insights that apply, in a fixed order.
func AnalyzeTrend(s models.MonthlyRevenueSeries) []models.TrendInsight {
	revenues := s.Revenues()
	months := s.Months()
	n := len(revenues)
	if n == 0 {
		return []models.TrendInsight{}
	}

	valueOf := func(month int) float64 {
		for _, p := range s.Points {
			if p.Month == month {
				return p.Revenue
			}
		}
		return 0
	}

	insights := []models.TrendInsight{
		{Kind: models.InsightPeak, Months: []int{s.PeakMonth}, Values: []float64{valueOf(s.PeakMonth)}},
		{Kind: models.InsightLow, Months: []int{s.LowMonth}, Values: []float64{valueOf(s.LowMonth)}},
	}

	if len(s.StableMonths) > 0 {
		lower, upper := stableBounds(revenues)
		insights = append(insights, models.TrendInsight{
			Kind:   models.InsightStable,
			Months: s.StableMonths,
			Lower:  lower,
			Upper:  upper,
		})
	}

	if n >= 3 && revenues[n-2] < revenues[n-1] && revenues[n-1] > mean(revenues[:n-2]) {
		insights = append(insights, models.TrendInsight{
			Kind:   models.InsightRisingYearEnd,
			Months: months[n-2:],
			Values: revenues[n-2:],
		})
	}

	if n > 4 {
		mid := n / 2
		if firstHalf := mean(revenues[:mid]); revenues[mid] < firstHalf {
			insights = append(insights, models.TrendInsight{
				Kind:   models.InsightMidYearDip,
				Months: months[mid-1 : mid+2],
				Values: revenues[mid-1 : mid+2],
				Change: revenues[mid] - firstHalf,
			})
		}
	}

	if idx, _, ok := volatileIndex(revenues); ok {
		insights = append(insights, models.TrendInsight{
			Kind:   models.InsightVolatile,
			Months: []int{months[idx]},
			Values: []float64{revenues[idx-1], revenues[idx]},
			Change: revenues[idx] - revenues[idx-1],
		})
	}

	switch monotonic(revenues) {
	case 1:
		insights = append(insights, models.TrendInsight{Kind: models.InsightMonotonicIncrease})
	case -1:
		insights = append(insights, models.TrendInsight{Kind: models.InsightMonotonicDecrease})
	}

	return insights
}

// monotonic returns 1 for a non-decreasing series with at least one rise,
// -1 for a non-increasing series with at least one fall and 0 otherwise.
func monotonic(values []float64) int {
	up, down := false, false
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[i-1]:
			up = true
		case values[i] < values[i-1]:
			down = true
		}
	}
	switch {
	case up && !down:
		return 1
	case down && !up:
		return -1
	}
	return 0
}
