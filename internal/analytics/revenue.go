package analytics

import (
	"cmp"
	"math"
	"slices"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

const (
	investmentMultiplier = 1.2
	momentumDecay        = 0.7
	profitRecommendGap   = 5.0
	growthRecommendGap   = 3.0
	investmentStepPct    = 20.0
)

// RevenueFilter narrows the revenue analysis. Months are inclusive
// "2006-01" bounds; an empty bound is open. Countries whose filtered total is
// below Threshold are dropped.
type RevenueFilter struct {
	StartMonth string   `json:"start_month"`
	EndMonth   string   `json:"end_month"`
	Countries  []string `json:"countries"`
	Threshold  float64  `json:"threshold"`
}

func FilterRevenue(ds *dataset.Dataset, f RevenueFilter) *dataset.Dataset {
	out := ds.MonthRange(f.StartMonth, f.EndMonth)
	if len(f.Countries) > 0 {
		out = out.ForCountries(f.Countries)
	}
	if f.Threshold > 0 {
		totals := make(map[string]float64)
		for _, r := range out.Rows() {
			totals[r.Country] += r.Revenue
		}
		out = out.Where(func(t models.Transaction) bool { return totals[t.Country] >= f.Threshold })
	}
	return out
}

// AnalyzeRevenue runs every revenue view over the filtered dataset.
func AnalyzeRevenue(ds *dataset.Dataset, f RevenueFilter) (*models.RevenueReport, error) {
	filtered := FilterRevenue(ds, f)
	if filtered.Len() == 0 {
		return nil, &NotFoundError{Kind: "revenue data", Key: f.StartMonth + ".." + f.EndMonth}
	}

	pivot := BuildPivot(filtered)
	growth := GrowthRates(pivot)
	totals := CountryTotals(pivot)
	perf := CountryPerformance(filtered)

	report := &models.RevenueReport{
		Pivot:          pivot,
		Growth:         growth,
		Totals:         totals,
		Seasonality:    SeasonalitySummary(filtered),
		Performance:    perf,
		ProfitForecast: ForecastProfitIncrease(pivot, perf),
		GrowthForecast: ForecastGrowthTrend(growth, perf),
	}
	if cmpResult, ok := CompareRevenue(totals); ok {
		report.Comparison = &cmpResult
	}
	return report, nil
}

// BuildPivot sums revenue per (YearMonth, Country), zero-filled, with both
// axes sorted ascending.
func BuildPivot(ds *dataset.Dataset) models.RevenuePivot {
	months := make(map[string]struct{})
	cells := make(map[[2]string]float64)
	for _, r := range ds.Rows() {
		ym := r.YearMonth()
		months[ym] = struct{}{}
		cells[[2]string{ym, r.Country}] += r.Revenue
	}

	p := models.RevenuePivot{Months: sortedKeys(months), Countries: ds.Countries()}
	p.Values = make([][]float64, len(p.Months))
	for i, m := range p.Months {
		p.Values[i] = make([]float64, len(p.Countries))
		for j, c := range p.Countries {
			p.Values[i][j] = cells[[2]string{m, c}]
		}
	}
	return p
}

// GrowthRates is the month-over-month percentage change rounded to one
// decimal. Cells without a non-zero previous month are nil.
func GrowthRates(p models.RevenuePivot) models.GrowthTable {
	g := models.GrowthTable{Months: p.Months, Countries: p.Countries, Values: make([][]*float64, len(p.Months))}
	for i := range p.Months {
		g.Values[i] = make([]*float64, len(p.Countries))
		if i == 0 {
			continue
		}
		for j := range p.Countries {
			prev := p.Values[i-1][j]
			if prev == 0 {
				continue
			}
			v := round((p.Values[i][j]/prev-1)*100, 1)
			g.Values[i][j] = &v
		}
	}
	return g
}

// CountryTotals is sorted by revenue, highest first.
func CountryTotals(p models.RevenuePivot) []models.CountryTotal {
	out := make([]models.CountryTotal, len(p.Countries))
	var grand float64
	for j, c := range p.Countries {
		out[j].Country = c
		for i := range p.Months {
			out[j].Revenue += p.Values[i][j]
		}
		grand += out[j].Revenue
	}
	for j := range out {
		out[j].MarketShare = ratio(out[j].Revenue, grand) * 100
	}
	slices.SortStableFunc(out, func(a, b models.CountryTotal) int {
		return cmp.Compare(b.Revenue, a.Revenue)
	})
	return out
}

// SeasonalitySummary uses the mean revenue per row of each calendar month.
// Peak months reach at least mean + one standard deviation of those means.
func SeasonalitySummary(ds *dataset.Dataset) models.SeasonalitySummary {
	type acc struct {
		total float64
		n     int
	}
	var months [13]acc
	var quarters [5]float64
	var grand float64
	for _, r := range ds.Rows() {
		months[r.Month()].total += r.Revenue
		months[r.Month()].n++
		quarters[r.Quarter()] += r.Revenue
		grand += r.Revenue
	}

	s := models.SeasonalitySummary{
		MonthlyAverage: make(map[int]float64),
		PeakMonths:     []int{},
		QuarterlyShare: make(map[int]float64),
	}
	var avgs []float64
	for m := 1; m <= 12; m++ {
		if months[m].n > 0 {
			avg := months[m].total / float64(months[m].n)
			s.MonthlyAverage[m] = avg
			avgs = append(avgs, avg)
		}
	}
	s.PeakThreshold = mean(avgs) + stdev(avgs)
	for m := 1; m <= 12; m++ {
		if avg, ok := s.MonthlyAverage[m]; ok && avg >= s.PeakThreshold {
			s.PeakMonths = append(s.PeakMonths, m)
		}
	}
	for q := 1; q <= 4; q++ {
		if quarters[q] > 0 {
			s.QuarterlyShare[q] = round(ratio(quarters[q], grand)*100, 2)
		}
	}
	return s
}

// CountryPerformance reports year-over-year growth between the two latest
// years of the dataset and stability as the coefficient of variation of
// monthly revenue, in percent. Lower stability means steadier revenue.
func CountryPerformance(ds *dataset.Dataset) []models.CountryPerformance {
	years := ds.Years()
	yearly := make(map[string]map[int]float64)
	monthly := make(map[string]map[string]float64)
	for _, r := range ds.Rows() {
		if yearly[r.Country] == nil {
			yearly[r.Country] = make(map[int]float64)
			monthly[r.Country] = make(map[string]float64)
		}
		yearly[r.Country][r.Year()] += r.Revenue
		monthly[r.Country][r.YearMonth()] += r.Revenue
	}

	countries := ds.Countries()
	out := make([]models.CountryPerformance, 0, len(countries))
	for _, c := range countries {
		perf := models.CountryPerformance{Country: c}
		for _, v := range yearly[c] {
			perf.TotalRevenue += v
		}
		if len(years) >= 2 {
			last, prev := yearly[c][years[len(years)-1]], yearly[c][years[len(years)-2]]
			if prev != 0 {
				g := (last/prev - 1) * 100
				perf.YoYGrowth = &g
			}
		}
		perf.Stability = cv(mapValues(monthly[c])) * 100
		out = append(out, perf)
	}
	return out
}

// CompareRevenue sets the top country against every other country with
// revenue. It reports false when there is nothing to compare.
func CompareRevenue(totals []models.CountryTotal) (models.RevenueComparison, bool) {
	if len(totals) == 0 {
		return models.RevenueComparison{}, false
	}
	top := totals[0]
	for _, t := range totals[1:] {
		if t.Revenue > top.Revenue {
			top = t
		}
	}

	c := models.RevenueComparison{TopCountry: top.Country, TopRevenue: top.Revenue, Ratios: map[string]float64{}}
	var ratios []float64
	for _, t := range totals {
		if t.Country == top.Country || t.Revenue == 0 {
			continue
		}
		r := top.Revenue / t.Revenue
		c.Ratios[t.Country] = r
		ratios = append(ratios, r)
	}
	if len(ratios) == 0 {
		return c, false
	}

	c.AvgRatio = mean(ratios)
	c.MaxRatio = slices.Max(ratios)
	c.MinRatio = slices.Min(ratios)
	switch {
	case c.AvgRatio >= 5:
		c.Disparity = models.DisparityVeryHigh
	case c.AvgRatio >= 3:
		c.Disparity = models.DisparityHigh
	case c.AvgRatio >= 2:
		c.Disparity = models.DisparityModerate
	default:
		c.Disparity = models.DisparityLow
	}
	return c, true
}

// ForecastProfitIncrease projects one-year revenue growth of the top revenue
// country, keeping the budget as is and with 20% more investment.
func ForecastProfitIncrease(p models.RevenuePivot, perf []models.CountryPerformance) models.ProfitForecast {
	totals := CountryTotals(p)
	if len(totals) == 0 {
		return models.ProfitForecast{}
	}
	country := totals[0].Country
	series := p.Column(country)
	f := models.ProfitForecast{Country: country, TotalRevenue: totals[0].Revenue, Stability: stabilityOf(perf, country)}
	if len(series) < 2 {
		return f
	}
	f.Sufficient = true
	f.CurrentRevenue = series[len(series)-1]

	var rates []float64
	for i := 1; i < len(series); i++ {
		if series[i-1] != 0 {
			rates = append(rates, series[i]/series[i-1]-1)
		}
	}
	f.AvgMonthlyGrowth = mean(rates)
	f.Volatility = stdev(rates)
	f.TrendGrowth = ratio(slope(series), f.CurrentRevenue)

	f.SeasonalFactor = 1
	if len(series) >= 12 {
		f.SeasonalFactor = seasonalFactor(p.Months, series)
	}

	f.StabilityFactor = math.Max(0.5, 1-f.Stability/100)
	baseGrowth := f.TrendGrowth * 12 * f.StabilityFactor * f.SeasonalFactor
	f.BaseForecast = baseGrowth * 100
	f.EfficiencyGain = 1.15 + 0.1*f.StabilityFactor
	f.EnhancedForecast = baseGrowth * investmentMultiplier * f.EfficiencyGain * 100
	f.Confidence = stabilityConfidence(f.Stability)

	gap := f.EnhancedForecast - f.BaseForecast
	f.IncreaseRecommend = gap > profitRecommendGap
	f.ROIPerPoint = gap / investmentStepPct
	return f
}

// seasonalFactor compares the latest calendar month's mean with the mean
// over all calendar months.
func seasonalFactor(months []string, series []float64) float64 {
	byMonth := make(map[string][]float64)
	for i, ym := range months {
		key := ym[len(ym)-2:]
		byMonth[key] = append(byMonth[key], series[i])
	}
	if len(byMonth) < 2 {
		return 1
	}
	keys := sortedKeys(byMonth)
	avgs := make([]float64, len(keys))
	for i, k := range keys {
		avgs[i] = mean(byMonth[k])
	}
	m := mean(avgs)
	if m == 0 {
		return 1
	}
	return avgs[len(avgs)-1] / m
}

// ForecastGrowthTrend projects next year's growth rate of the country with
// the highest mean month-over-month growth.
func ForecastGrowthTrend(g models.GrowthTable, perf []models.CountryPerformance) models.GrowthForecast {
	if len(g.Countries) == 0 {
		return models.GrowthForecast{}
	}

	columns := make([][]float64, len(g.Countries))
	best, bestAvg := -1, math.Inf(-1)
	for j := range g.Countries {
		for i := range g.Months {
			if v := g.Values[i][j]; v != nil {
				columns[j] = append(columns[j], *v)
			}
		}
		if len(columns[j]) == 0 {
			continue
		}
		if avg := mean(columns[j]); avg > bestAvg {
			best, bestAvg = j, avg
		}
	}
	if best < 0 {
		return models.GrowthForecast{Country: g.Countries[0]}
	}

	country := g.Countries[best]
	values := columns[best]
	f := models.GrowthForecast{Country: country, Stability: stabilityOf(perf, country)}
	if len(values) < 2 {
		return f
	}
	f.Sufficient = true

	last := values[len(values)-1]
	avg := mean(values)
	f.Current = last
	f.Average = avg
	if len(values) >= 3 {
		recent := values[len(values)-3:]
		f.Momentum = mean(recent) - avg
		f.Acceleration = recent[2] - recent[0]
	} else {
		f.Momentum = last - avg
	}

	f.Volatility = stdev(values)
	f.GrowthStability = 0.5
	if avg != 0 {
		f.GrowthStability = 1 - f.Volatility/math.Abs(avg)
	}
	f.MarketFactor = math.Max(0.5, 1-f.Stability/100)

	base := (avg + f.Momentum*momentumDecay + f.Acceleration*0.5) * f.MarketFactor
	base = math.Max(base, avg*0.5)
	base = math.Min(base, avg*2.0)
	f.BaseForecast = base

	f.MarketResponse = 1.15 + 0.1*f.MarketFactor
	enhanced := (avg + f.Momentum*1.3*momentumDecay + f.Acceleration*0.8) * f.MarketFactor * f.MarketResponse
	enhanced = math.Max(enhanced, base*1.05)
	enhanced = math.Min(enhanced, avg*2.5)
	f.EnhancedForecast = enhanced

	switch {
	case enhanced > last:
		f.Trend = models.TrendUp
	case enhanced < last:
		f.Trend = models.TrendDown
	default:
		f.Trend = models.TrendFlat
	}

	switch {
	case f.GrowthStability >= 0.7:
		f.Confidence = models.ConfidenceHigh
	case f.GrowthStability >= 0.4:
		f.Confidence = models.ConfidenceMedium
	default:
		f.Confidence = models.ConfidenceLow
	}

	additional := enhanced - base
	f.IncreaseRecommend = additional > growthRecommendGap
	f.ROIPerPoint = additional / investmentStepPct
	return f
}

func stabilityOf(perf []models.CountryPerformance, country string) float64 {
	for _, p := range perf {
		if p.Country == country {
			return p.Stability
		}
	}
	return 0
}

func stabilityConfidence(stability float64) models.Confidence {
	switch {
	case stability <= 30:
		return models.ConfidenceHigh
	case stability <= 60:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
