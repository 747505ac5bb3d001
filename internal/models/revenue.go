package models

// RevenuePivot holds revenue summed per (YearMonth, Country). Values[i][j]
// belongs to Months[i] and Countries[j]; missing cells are zero.
type RevenuePivot struct {
	Months    []string    `json:"months"`
	Countries []string    `json:"countries"`
	Values    [][]float64 `json:"values"`
}

// Column returns the monthly series of one country, or nil if it is absent.
func (p RevenuePivot) Column(country string) []float64 {
	for j, c := range p.Countries {
		if c == country {
			out := make([]float64, len(p.Months))
			for i := range p.Months {
				out[i] = p.Values[i][j]
			}
			return out
		}
	}
	return nil
}

// GrowthTable mirrors RevenuePivot with month-over-month percentage change.
// A nil cell means the change is undefined (first month or previous month 0).
type GrowthTable struct {
	Months    []string     `json:"months"`
	Countries []string     `json:"countries"`
	Values    [][]*float64 `json:"values"`
}

type CountryTotal struct {
	Country     string  `json:"country"`
	Revenue     float64 `json:"revenue"`
	MarketShare float64 `json:"market_share"`
}

type SeasonalitySummary struct {
	MonthlyAverage map[int]float64 `json:"monthly_average"`
	PeakMonths     []int           `json:"peak_months"`
	QuarterlyShare map[int]float64 `json:"quarterly_share"`
	PeakThreshold  float64         `json:"peak_threshold"`
}

type CountryPerformance struct {
	Country      string   `json:"country"`
	TotalRevenue float64  `json:"total_revenue"`
	YoYGrowth    *float64 `json:"yoy_growth,omitempty"`
	Stability    float64  `json:"stability"`
}

type Disparity string

const (
	DisparityVeryHigh Disparity = "VeryHigh"
	DisparityHigh     Disparity = "High"
	DisparityModerate Disparity = "Moderate"
	DisparityLow      Disparity = "Low"
)

type RevenueComparison struct {
	TopCountry string             `json:"top_country"`
	TopRevenue float64            `json:"top_revenue"`
	Ratios     map[string]float64 `json:"ratios"`
	AvgRatio   float64            `json:"avg_ratio"`
	MaxRatio   float64            `json:"max_ratio"`
	MinRatio   float64            `json:"min_ratio"`
	Disparity  Disparity          `json:"disparity"`
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

type ProfitForecast struct {
	Country           string     `json:"country"`
	Sufficient        bool       `json:"sufficient"`
	CurrentRevenue    float64    `json:"current_revenue"`
	TotalRevenue      float64    `json:"total_revenue"`
	Stability         float64    `json:"stability"`
	AvgMonthlyGrowth  float64    `json:"avg_monthly_growth"`
	TrendGrowth       float64    `json:"trend_growth"`
	Volatility        float64    `json:"volatility"`
	SeasonalFactor    float64    `json:"seasonal_factor"`
	StabilityFactor   float64    `json:"stability_factor"`
	EfficiencyGain    float64    `json:"efficiency_gain"`
	BaseForecast      float64    `json:"base_forecast"`
	EnhancedForecast  float64    `json:"enhanced_forecast"`
	Confidence        Confidence `json:"confidence"`
	IncreaseRecommend bool       `json:"increase_recommended"`
	ROIPerPoint       float64    `json:"roi_per_point"`
}

type TrendDirection string

const (
	TrendUp   TrendDirection = "Up"
	TrendDown TrendDirection = "Down"
	TrendFlat TrendDirection = "Flat"
)

type GrowthForecast struct {
	Country           string         `json:"country"`
	Sufficient        bool           `json:"sufficient"`
	Current           float64        `json:"current"`
	Average           float64        `json:"average"`
	Volatility        float64        `json:"volatility"`
	Stability         float64        `json:"stability"`
	Momentum          float64        `json:"momentum"`
	Acceleration      float64        `json:"acceleration"`
	GrowthStability   float64        `json:"growth_stability"`
	MarketFactor      float64        `json:"market_factor"`
	MarketResponse    float64        `json:"market_response"`
	BaseForecast      float64        `json:"base_forecast"`
	EnhancedForecast  float64        `json:"enhanced_forecast"`
	Trend             TrendDirection `json:"trend"`
	Confidence        Confidence     `json:"confidence"`
	IncreaseRecommend bool           `json:"increase_recommended"`
	ROIPerPoint       float64        `json:"roi_per_point"`
}

// RevenueReport bundles every view of the revenue analysis mode.
type RevenueReport struct {
	Pivot          RevenuePivot         `json:"pivot"`
	Growth         GrowthTable          `json:"growth"`
	Totals         []CountryTotal       `json:"totals"`
	Seasonality    SeasonalitySummary   `json:"seasonality"`
	Performance    []CountryPerformance `json:"performance"`
	Comparison     *RevenueComparison   `json:"comparison,omitempty"`
	ProfitForecast ProfitForecast       `json:"profit_forecast"`
	GrowthForecast GrowthForecast       `json:"growth_forecast"`
}
