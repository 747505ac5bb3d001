package models

type DolResult struct {
	ProductCode        string          `json:"product_code"`
	TimePeriod         string          `json:"time_period"`
	ForecastedQuantity float64         `json:"forecasted_quantity"`
	AvgUnitPrice       float64         `json:"avg_unit_price"`
	VariableCost       float64         `json:"variable_cost"`
	FixedCost          float64         `json:"fixed_cost"`
	Revenue            float64         `json:"revenue"`
	ContributionMargin float64         `json:"contribution_margin"`
	Profit             float64         `json:"profit"`
	DOL                float64         `json:"dol"`
	MonthlyDOL         map[int]float64 `json:"monthly_dol_series"`
	DataYear           int             `json:"data_year"`
	SelectedYear       int             `json:"selected_year"`
	RecentHistory      []Transaction   `json:"recent_history,omitempty"`
}
