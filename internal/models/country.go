package models

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type InvestmentPotential string

const (
	PotentialLow    InvestmentPotential = "Low"
	PotentialMedium InvestmentPotential = "Medium"
	PotentialHigh   InvestmentPotential = "High"
)

type InvestmentLevel string

const (
	LevelVeryHigh InvestmentLevel = "VeryHigh"
	LevelHigh     InvestmentLevel = "High"
	LevelMedium   InvestmentLevel = "Medium"
	LevelLow      InvestmentLevel = "Low"
)

// CountryMetrics is recomputed on every run and never persisted.
type CountryMetrics struct {
	Country             string              `json:"country"`
	TotalRevenue        float64             `json:"total_revenue"`
	AvgMonthlyRevenue   float64             `json:"avg_monthly_revenue"`
	TotalOrders         int                 `json:"total_orders"`
	AvgOrdersPerMonth   float64             `json:"avg_orders_per_month"`
	AvgOrderValue       float64             `json:"avg_order_value"`
	RevenueStability    float64             `json:"revenue_stability"`
	SeasonalityScore    float64             `json:"seasonality_score"`
	RevenueScore        float64             `json:"revenue_score"`
	OrderFrequencyScore float64             `json:"order_frequency_score"`
	StabilityScore      float64             `json:"stability_score"`
	OverallScore        float64             `json:"overall_score"`
	RiskLevel           RiskLevel           `json:"risk_level"`
	InvestmentPotential InvestmentPotential `json:"investment_potential"`
}

type TopProduct struct {
	StockCode          string  `json:"stock_code"`
	Description        string  `json:"description"`
	TotalQuantity      int     `json:"total_quantity"`
	TotalRevenue       float64 `json:"total_revenue"`
	TotalOrders        int     `json:"total_orders"`
	OverallScore       float64 `json:"overall_score"`
	AvgRevenuePerOrder float64 `json:"avg_revenue_per_order"`
}

type StrategyBucket struct {
	Percentage float64      `json:"percentage"`
	Budget     float64      `json:"budget"`
	Products   []TopProduct `json:"products"`
}

// ProductStrategy is the fixed 30/10/60 split of one country's budget.
type ProductStrategy struct {
	Core      StrategyBucket `json:"core"`
	Growth    StrategyBucket `json:"growth"`
	Diversify StrategyBucket `json:"diversify"`
}

type AllocationRow struct {
	CountryMetrics
	InitialBudget        float64          `json:"initial_budget"`
	AllocatedBudget      float64          `json:"allocated_budget"`
	ExpectedProfit       float64          `json:"expected_profit"`
	TotalReturn          float64          `json:"total_return"`
	InvestmentPercentage float64          `json:"investment_percentage"`
	InvestmentLevel      InvestmentLevel  `json:"investment_level"`
	TopProducts          []TopProduct     `json:"top_products,omitempty"`
	ProductDiversity     int              `json:"product_diversity"`
	Strategy             *ProductStrategy `json:"strategy,omitempty"`
}

type AllocationSummary struct {
	TotalBudget         float64 `json:"total_budget"`
	TotalAllocated      float64 `json:"total_allocated"`
	TotalExpectedProfit float64 `json:"total_expected_profit"`
	TotalCurrentRevenue float64 `json:"total_current_revenue"`
	RealisedROI         float64 `json:"realised_roi"`
	AverageScore        float64 `json:"average_score"`
	TopThreeShare       float64 `json:"top_three_share"`
	ScoreGap            float64 `json:"score_gap"`
}

// AllocationReport is one complete budget allocation run.
type AllocationReport struct {
	RunID     string            `json:"run_id"`
	Countries []string          `json:"countries"`
	Months    int               `json:"months"`
	Rows      []AllocationRow   `json:"rows"`
	Summary   AllocationSummary `json:"summary"`
}
