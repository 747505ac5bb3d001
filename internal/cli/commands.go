package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
)

type countriesCmd struct {
	cli        *CLI
	allocation bool
}

func newCountriesCmd(cli *CLI) *cobra.Command {
	cc := &countriesCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List countries with revenue and order counts",
		Args:  cobra.NoArgs,
		RunE:  cc.run,
	}
	cmd.Flags().BoolVar(&cc.allocation, "allocation", false, "Only rows usable for budget allocation")
	return cmd
}

func (cc *countriesCmd) run(cmd *cobra.Command, _ []string) error {
	a, err := cc.cli.analytics(cmd.Context())
	if err != nil {
		return err
	}

	lookup := a.Countries
	if cc.allocation {
		lookup = a.AllocationCountries
	}
	stats, err := lookup(cmd.Context())
	if err != nil {
		return err
	}
	return cc.cli.emit(stats, func() error { return cc.cli.reporter.Countries(stats) })
}

type allocateCmd struct {
	cli         *CLI
	countries   []string
	selection   string
	selectCount int
	months      int
	budget      float64
	min         float64
	max         float64
	roi         float64
	csvPath     string
}

func newAllocateCmd(cli *CLI) *cobra.Command {
	ac := &allocateCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Split a marketing budget across countries by score",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}

	f := cmd.Flags()
	f.StringSliceVarP(&ac.countries, "countries", "c", nil, "Countries to allocate across")
	f.StringVar(&ac.selection, "select", "", "Pick countries by top_revenue, most_orders or top_avg_revenue")
	f.IntVar(&ac.selectCount, "select-count", 0, "Number of countries to pick with --select")
	f.IntVar(&ac.months, "months", cli.defaults.TimeFrameMonths, "Analysis window in months")
	f.Float64Var(&ac.budget, "budget", 0, "Total budget")
	f.Float64Var(&ac.min, "min", 0, "Minimum budget per country")
	f.Float64Var(&ac.max, "max", 0, "Maximum budget per country")
	f.Float64Var(&ac.roi, "roi", cli.defaults.ExpectedROI, "Expected ROI in percent")
	f.StringVar(&ac.csvPath, "csv", "", "Also write the allocation table to this CSV file, - for stdout")
	return cmd
}

// fromProfile fills every flag the user did not set from the loaded profile.
func (ac *allocateCmd) fromProfile(flags *pflag.FlagSet) {
	p := ac.cli.profile
	if p == nil {
		return
	}
	unset := func(name string) bool { return !flags.Changed(name) }

	if unset("countries") && len(p.Countries) > 0 {
		ac.countries = p.Countries
	}
	if unset("select") && p.Selection != "" {
		ac.selection = p.Selection
	}
	if unset("select-count") && p.SelectCount > 0 {
		ac.selectCount = p.SelectCount
	}
	if unset("months") && p.Months > 0 {
		ac.months = p.Months
	}
	if unset("budget") && p.TotalBudget > 0 {
		ac.budget = p.TotalBudget
	}
	if unset("min") && p.MinPerCountry > 0 {
		ac.min = p.MinPerCountry
	}
	if unset("max") && p.MaxPerCountry > 0 {
		ac.max = p.MaxPerCountry
	}
	if unset("roi") && p.ExpectedROI > 0 {
		ac.roi = p.ExpectedROI
	}
}

func (ac *allocateCmd) run(cmd *cobra.Command, _ []string) error {
	ac.fromProfile(cmd.Flags())
	if len(ac.countries) == 0 && ac.selectCount == 0 {
		return fmt.Errorf("no countries: pass --countries or --select-count")
	}
	if ac.max == 0 {
		ac.max = ac.budget
	}

	a, err := ac.cli.analytics(cmd.Context())
	if err != nil {
		return err
	}

	report, err := a.Allocation(cmd.Context(), services.AllocationRequest{
		Countries:   ac.countries,
		Selection:   analytics.SelectionCriteria(ac.selection),
		SelectCount: ac.selectCount,
		Months:      ac.months,
		AllocationParams: analytics.AllocationParams{
			TotalBudget:   ac.budget,
			MinPerCountry: ac.min,
			MaxPerCountry: ac.max,
			ExpectedROI:   ac.roi,
		},
	})
	if err != nil {
		return err
	}

	if err := ac.cli.emit(report, func() error { return ac.cli.reporter.Allocation(report) }); err != nil {
		return err
	}
	return ac.writeCSV(cmd, report.Rows)
}

func (ac *allocateCmd) writeCSV(cmd *cobra.Command, rows []models.AllocationRow) error {
	switch ac.csvPath {
	case "":
		return nil
	case "-":
		return export.AllocationCSV(cmd.OutOrStdout(), rows)
	}

	f, err := os.Create(ac.csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", ac.csvPath, err)
	}
	if err := export.AllocationCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type dolCmd struct {
	cli    *CLI
	params analytics.DolParams
}

func newDolCmd(cli *CLI) *cobra.Command {
	dc := &dolCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "dol",
		Short: "Degree of operating leverage for one product",
		Args:  cobra.NoArgs,
		RunE:  dc.run,
	}

	f := cmd.Flags()
	f.StringVar(&dc.params.ProductCode, "product", "", "Stock code")
	f.Float64Var(&dc.params.VariableCost, "variable-cost", 0, "Variable cost per unit")
	f.Float64Var(&dc.params.FixedCost, "fixed-cost", 0, "Fixed cost for the period")
	f.StringVar(&dc.params.TimePeriod, "period", "1 month", "Forecast horizon: 1 month, 2 months or 3 months")
	f.IntVar(&dc.params.SelectedYear, "year", 0, "Year of the monthly series, latest when 0")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func (dc *dolCmd) run(cmd *cobra.Command, _ []string) error {
	a, err := dc.cli.analytics(cmd.Context())
	if err != nil {
		return err
	}
	result, err := a.DOL(cmd.Context(), dc.params)
	if err != nil {
		return err
	}
	return dc.cli.emit(result, func() error { return dc.cli.reporter.DOL(result) })
}

type seasonalityCmd struct {
	cli    *CLI
	params analytics.SeasonalityParams
	start  string
	end    string
}

func newSeasonalityCmd(cli *CLI) *cobra.Command {
	sc := &seasonalityCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "seasonality",
		Short: "Monthly revenue pattern and marketing plan for one product",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}

	f := cmd.Flags()
	f.StringVar(&sc.params.Description, "description", "", "Product description")
	f.StringVar(&sc.params.StockCode, "stock-code", "", "Stock code, used when no description is given")
	f.StringVar(&sc.start, "start", "", "First invoice date, YYYY-MM-DD")
	f.StringVar(&sc.end, "end", "", "Last invoice date, YYYY-MM-DD")
	f.IntVar(&sc.params.Year, "year", 0, "Restrict to one year")
	f.Float64Var(&sc.params.Budget, "budget", 0, "Marketing budget to plan by month")
	cmd.MarkFlagsOneRequired("description", "stock-code")
	return cmd
}

func (sc *seasonalityCmd) run(cmd *cobra.Command, _ []string) error {
	var err error
	if sc.params.Start, err = parseDate("start", sc.start); err != nil {
		return err
	}
	if sc.params.End, err = parseDate("end", sc.end); err != nil {
		return err
	}

	a, err := sc.cli.analytics(cmd.Context())
	if err != nil {
		return err
	}
	report, err := a.Seasonality(cmd.Context(), sc.params)
	if err != nil {
		return err
	}
	return sc.cli.emit(report, func() error { return sc.cli.reporter.Seasonality(report) })
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}

type revenueCmd struct {
	cli    *CLI
	filter analytics.RevenueFilter
}

func newRevenueCmd(cli *CLI) *cobra.Command {
	rc := &revenueCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "revenue",
		Short: "Revenue by country and month with growth forecasts",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	f := cmd.Flags()
	f.StringVar(&rc.filter.StartMonth, "start", "", "First month, YYYY-MM")
	f.StringVar(&rc.filter.EndMonth, "end", "", "Last month, YYYY-MM")
	f.StringSliceVarP(&rc.filter.Countries, "countries", "c", nil, "Countries to include")
	f.Float64Var(&rc.filter.Threshold, "threshold", 0, "Minimum total revenue per country")
	return cmd
}

func (rc *revenueCmd) run(cmd *cobra.Command, _ []string) error {
	a, err := rc.cli.analytics(cmd.Context())
	if err != nil {
		return err
	}
	report, err := a.Revenue(cmd.Context(), rc.filter)
	if err != nil {
		return err
	}
	return rc.cli.emit(report, func() error { return rc.cli.reporter.Revenue(report) })
}
