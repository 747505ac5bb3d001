package analytics

import (
	"cmp"
	"slices"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

type SelectionCriteria string

const (
	ByTopRevenue    SelectionCriteria = "top_revenue"
	ByMostOrders    SelectionCriteria = "most_orders"
	ByTopAvgRevenue SelectionCriteria = "top_avg_revenue"
)

// CountryOptions summarises every country of the dataset, ordered by name.
// Money values are rounded to cents.
func CountryOptions(ds *dataset.Dataset) []models.CountryStats {
	type acc struct {
		revenue float64
		rows    int
		orders  map[string]struct{}
	}
	groups := make(map[string]*acc)
	for _, r := range ds.Rows() {
		a, ok := groups[r.Country]
		if !ok {
			a = &acc{orders: map[string]struct{}{}}
			groups[r.Country] = a
		}
		a.revenue += r.Revenue
		a.rows++
		if r.InvoiceID != "" {
			a.orders[r.InvoiceID] = struct{}{}
		}
	}

	out := make([]models.CountryStats, 0, len(groups))
	for _, c := range sortedKeys(groups) {
		a := groups[c]
		out = append(out, models.CountryStats{
			Country:          c,
			TotalRevenue:     round(a.revenue, 2),
			AvgRevenue:       round(a.revenue/float64(a.rows), 2),
			TransactionCount: a.rows,
			OrderCount:       len(a.orders),
		})
	}
	return out
}

// SelectCountries picks n countries by criteria. Unknown criteria keep the
// first n in name order.
func SelectCountries(stats []models.CountryStats, criteria SelectionCriteria, n int) []string {
	ranked := slices.Clone(stats)
	var metric func(models.CountryStats) float64
	switch criteria {
	case ByTopRevenue:
		metric = func(s models.CountryStats) float64 { return s.TotalRevenue }
	case ByMostOrders:
		metric = func(s models.CountryStats) float64 { return float64(s.OrderCount) }
	case ByTopAvgRevenue:
		metric = func(s models.CountryStats) float64 { return s.AvgRevenue }
	}
	if metric != nil {
		slices.SortStableFunc(ranked, func(a, b models.CountryStats) int {
			return cmp.Compare(metric(b), metric(a))
		})
	}

	out := make([]string, 0, min(max(n, 0), len(ranked)))
	for _, s := range ranked[:min(max(n, 0), len(ranked))] {
		out = append(out, s.Country)
	}
	return out
}

// ResolveCountries maps requested country names onto the dataset's own
// spelling after trimming and title-casing, dropping duplicates. A country
// with no rows at all is a NotFoundError.
func ResolveCountries(ds *dataset.Dataset, countries []string) ([]string, error) {
	known := make(map[string]string)
	for _, c := range ds.Countries() {
		known[dataset.NormalizeCountry(c)] = c
	}

	out := make([]string, 0, len(countries))
	for _, requested := range countries {
		c, ok := known[dataset.NormalizeCountry(requested)]
		if !ok {
			return nil, &NotFoundError{Kind: "country", Key: requested}
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}
