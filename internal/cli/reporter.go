package cli

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

var funcs = template.FuncMap{
	"money": func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(2)
	},
	"pct": func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(1) + "%"
	},
	"fixed": func(places int32, v float64) string {
		return decimal.NewFromFloat(v).StringFixed(places)
	},
	"month": func(m int) string {
		if m < 1 || m > 12 {
			return fmt.Sprintf("M%d", m)
		}
		return time.Month(m).String()[:3]
	},
	"months": func(ms []int) string {
		names := make([]string, len(ms))
		for i, m := range ms {
			names[i] = time.Month(m).String()[:3]
		}
		return strings.Join(names, ", ")
	},
	"pad": func(width int, s string) string {
		return fmt.Sprintf("%-*s", width, s)
	},
	"rule": func(width int) string {
		return strings.Repeat("-", width)
	},
	"opt": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return decimal.NewFromFloat(*v).StringFixed(1) + "%"
	},
}

var reports = template.Must(template.New("reports").Funcs(funcs).Parse(`
{{define "countries"}}{{pad 24 "Country"}} {{pad 14 "Revenue"}} {{pad 8 "Rows"}} Orders
{{rule 56}}
{{range .}}{{pad 24 .Country}} {{pad 14 (money .TotalRevenue)}} {{pad 8 (printf "%d" .TransactionCount)}} {{.OrderCount}}
{{end}}{{end}}

{{define "allocation"}}Allocation run {{.RunID}} ({{.Months}} months)

{{pad 20 "Country"}} {{pad 7 "Score"}} {{pad 8 "Risk"}} {{pad 12 "Budget"}} {{pad 7 "Share"}} {{pad 12 "Profit"}} Level
{{rule 80}}
{{range .Rows}}{{pad 20 .Country}} {{pad 7 (fixed 1 .OverallScore)}} {{pad 8 (printf "%s" .RiskLevel)}} {{pad 12 (money .AllocatedBudget)}} {{pad 7 (pct .InvestmentPercentage)}} {{pad 12 (money .ExpectedProfit)}} {{.InvestmentLevel}}
{{if .Strategy}}    core {{money .Strategy.Core.Budget}} / growth {{money .Strategy.Growth.Budget}} / diversify {{money .Strategy.Diversify.Budget}}
{{end}}{{end}}{{rule 80}}
Budget:          {{money .Summary.TotalBudget}}
Allocated:       {{money .Summary.TotalAllocated}}
Expected profit: {{money .Summary.TotalExpectedProfit}}
Realised ROI:    {{pct .Summary.RealisedROI}}
Top-3 share:     {{pct .Summary.TopThreeShare}}
{{end}}

{{define "dol"}}Degree of operating leverage for {{.ProductCode}} ({{.TimePeriod}})

Forecast quantity:   {{fixed 2 .ForecastedQuantity}}
Average unit price:  {{money .AvgUnitPrice}}
Revenue:             {{money .Revenue}}
Contribution margin: {{money .ContributionMargin}}
Operating profit:    {{money .Profit}}
DOL:                 {{fixed 2 .DOL}}
Data year:           {{.DataYear}}
{{end}}

{{define "seasonality"}}Seasonality for {{.Product}}{{if .Year}} in {{.Year}}{{end}}{{if not .Start.IsZero}} from {{.Start.Format "2006-01-02"}}{{end}}{{if not .End.IsZero}} until {{.End.Format "2006-01-02"}}{{end}}

{{range .Series.Points}}{{pad 5 (month .Month)}} {{money .Revenue}}
{{end}}
Peak: {{month .Series.PeakMonth}}  Low: {{month .Series.LowMonth}}{{with .Series.VolatileMonth}}  Volatile: {{month .}}{{end}}
{{if .Series.StableMonths}}Stable: {{months .Series.StableMonths}}
{{end}}{{if .Quarters}}
Quarters
{{range .Quarters}}  Q{{.Quarter}} avg {{money .AvgRevenue}} ratio {{fixed 2 .PerformanceRatio}}{{if .Strong}} strong{{end}}
{{end}}{{end}}{{if .Opportunities}}
Opportunities
{{range .Opportunities}}  {{month .Month}} {{money .CurrentRevenue}} potential {{pct .GrowthPotentialPct}}
{{end}}{{end}}{{if .BudgetPlan}}
Budget plan
{{range .BudgetPlan}}  {{pad 5 (month .Month)}} {{pad 12 (money .Budget)}}{{if .Accelerate}} accelerate{{end}}
{{end}}{{end}}{{end}}

{{define "revenue"}}{{pad 24 "Country"}} {{pad 14 "Revenue"}} Share
{{rule 56}}
{{range .Totals}}{{pad 24 .Country}} {{pad 14 (money .Revenue)}} {{pct .MarketShare}}
{{end}}{{with .Comparison}}
Top country {{.TopCountry}}, disparity {{.Disparity}} (avg ratio {{fixed 2 .AvgRatio}})
{{end}}{{with .ProfitForecast}}{{if .Sufficient}}
Profit forecast for {{.Country}}: base {{money .BaseForecast}}, with investment {{money .EnhancedForecast}} ({{.Confidence}} confidence)
{{end}}{{end}}{{with .GrowthForecast}}{{if .Sufficient}}Growth forecast for {{.Country}}: {{pct .BaseForecast}} trending {{.Trend}} ({{.Confidence}} confidence)
{{end}}{{end}}{{end}}
`))

// Reporter renders analysis results as plain-text tables.
type Reporter struct {
	writer io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{writer: w}
}

func (r *Reporter) render(name string, data any) error {
	if err := reports.ExecuteTemplate(r.writer, name, data); err != nil {
		return fmt.Errorf("render %s report: %w", name, err)
	}
	return nil
}

func (r *Reporter) Countries(stats []models.CountryStats) error {
	return r.render("countries", stats)
}

func (r *Reporter) Allocation(report *models.AllocationReport) error {
	return r.render("allocation", report)
}

func (r *Reporter) DOL(result *models.DolResult) error {
	return r.render("dol", result)
}

func (r *Reporter) Seasonality(report *models.SeasonalityReport) error {
	return r.render("seasonality", report)
}

func (r *Reporter) Revenue(report *models.RevenueReport) error {
	return r.render("revenue", report)
}
