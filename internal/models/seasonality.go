package models

import "time"

type MonthRevenue struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
}

// MonthlyRevenueSeries is ordered by ascending month number. Months of
// different years are folded together.
type MonthlyRevenueSeries struct {
	Points        []MonthRevenue `json:"points"`
	PeakMonth     int            `json:"peak_month"`
	LowMonth      int            `json:"low_month"`
	VolatileMonth *int           `json:"volatile_month,omitempty"`
	StableMonths  []int          `json:"stable_months"`
}

func (s MonthlyRevenueSeries) Revenues() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Revenue
	}
	return out
}

func (s MonthlyRevenueSeries) Months() []int {
	out := make([]int, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Month
	}
	return out
}

type InsightKind string

const (
	InsightPeak              InsightKind = "peak"
	InsightLow               InsightKind = "low"
	InsightStable            InsightKind = "stable"
	InsightRisingYearEnd     InsightKind = "rising_year_end"
	InsightMidYearDip        InsightKind = "mid_year_dip"
	InsightVolatile          InsightKind = "volatile"
	InsightMonotonicIncrease InsightKind = "monotonic_increase"
	InsightMonotonicDecrease InsightKind = "monotonic_decrease"
)

// TrendInsight carries the numbers behind one narrative block; wording is
// left to the presentation layer.
type TrendInsight struct {
	Kind   InsightKind `json:"kind"`
	Months []int       `json:"months,omitempty"`
	Values []float64   `json:"values,omitempty"`
	Lower  float64     `json:"lower,omitempty"`
	Upper  float64     `json:"upper,omitempty"`
	Change float64     `json:"change,omitempty"`
}

type MonthType string

const (
	MonthPeak     MonthType = "peak"
	MonthLow      MonthType = "low"
	MonthStable   MonthType = "stable"
	MonthVolatile MonthType = "volatile"
)

type MonthRecommendation struct {
	Month int       `json:"month"`
	Type  MonthType `json:"type"`
}

type QuarterPlan struct {
	Quarter          int     `json:"quarter"`
	AvgRevenue       float64 `json:"avg_revenue"`
	PerformanceRatio float64 `json:"performance_ratio"`
	Strong           bool    `json:"strong"`
}

type MarketOpportunity struct {
	Month              int     `json:"month"`
	CurrentRevenue     float64 `json:"current_revenue"`
	GrowthPotentialPct float64 `json:"growth_potential_pct"`
}

type MonthlyBudget struct {
	Month       int     `json:"month"`
	Budget      float64 `json:"budget"`
	BaseAmount  float64 `json:"base_amount"`
	BoostAmount float64 `json:"boost_amount"`
	Accelerate  bool    `json:"accelerate"`
}

type SeasonalityReport struct {
	Product         string                `json:"product"`
	Start           time.Time             `json:"start,omitzero"`
	End             time.Time             `json:"end,omitzero"`
	Year            int                   `json:"year,omitempty"`
	Series          MonthlyRevenueSeries  `json:"series"`
	Insights        []TrendInsight        `json:"insights"`
	Recommendations []MonthRecommendation `json:"recommendations"`
	Quarters        []QuarterPlan         `json:"quarters"`
	Opportunities   []MarketOpportunity   `json:"opportunities"`
	BudgetPlan      []MonthlyBudget       `json:"budget_plan,omitempty"`
}
