package analytics

import (
	"cmp"
	"slices"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

const (
	productRevenueFloor    = 100.0
	diversityRevenueFloor  = 1000.0
	portfolioTopN          = 5
	productWeightRevenue   = 0.6
	productWeightQuantity  = 0.3
	productWeightFrequency = 0.1
)

type productAgg struct {
	code        string
	description string
	quantity    int
	revenue     float64
	orders      map[string]struct{}
}

// TopProducts ranks each selected country's products within the trailing
// window by a weighted revenue, quantity and order-count score. Products
// with revenue at or below 100 are ignored.
func TopProducts(ds *dataset.Dataset, countries []string, months, n int) map[string][]models.TopProduct {
	out := make(map[string][]models.TopProduct, len(countries))
	if len(countries) == 0 {
		return out
	}

	window := ds.ForCountries(countries).Window(months)

	byCountry := make(map[string]map[string]*productAgg)
	for _, r := range window.Rows() {
		products, ok := byCountry[r.Country]
		if !ok {
			products = make(map[string]*productAgg)
			byCountry[r.Country] = products
		}
		p, ok := products[r.StockCode]
		if !ok {
			p = &productAgg{code: r.StockCode, orders: map[string]struct{}{}}
			products[r.StockCode] = p
		}
		p.quantity += r.Quantity
		p.revenue += r.Revenue
		if r.InvoiceID != "" {
			p.orders[r.InvoiceID] = struct{}{}
		}
		if p.description == "" {
			p.description = r.Description
		}
	}

	for _, c := range countries {
		out[c] = rankProducts(byCountry[c], n)
	}
	return out
}

func rankProducts(products map[string]*productAgg, n int) []models.TopProduct {
	kept := make([]*productAgg, 0, len(products))
	for _, p := range products {
		if p.revenue > productRevenueFloor {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 || n <= 0 {
		return []models.TopProduct{}
	}
	slices.SortFunc(kept, func(a, b *productAgg) int { return cmp.Compare(a.code, b.code) })

	var maxQty, maxRev, maxOrders float64
	for _, p := range kept {
		maxQty = max(maxQty, float64(p.quantity))
		maxRev = max(maxRev, p.revenue)
		maxOrders = max(maxOrders, float64(len(p.orders)))
	}

	ranked := make([]models.TopProduct, len(kept))
	for i, p := range kept {
		orders := len(p.orders)
		description := p.description
		if description == "" {
			description = "Product " + p.code
		}
		ranked[i] = models.TopProduct{
			StockCode:     p.code,
			Description:   description,
			TotalQuantity: p.quantity,
			TotalRevenue:  p.revenue,
			TotalOrders:   orders,
			OverallScore: productWeightRevenue*ratio(p.revenue, maxRev) +
				productWeightQuantity*ratio(float64(p.quantity), maxQty) +
				productWeightFrequency*ratio(float64(orders), maxOrders),
			AvgRevenuePerOrder: ratio(p.revenue, float64(orders)),
		}
	}

	slices.SortStableFunc(ranked, func(a, b models.TopProduct) int {
		return cmp.Compare(b.OverallScore, a.OverallScore)
	})
	return ranked[:min(n, len(ranked))]
}

// ProductDiversity counts products with revenue above 1000.
func ProductDiversity(products []models.TopProduct) int {
	n := 0
	for _, p := range products {
		if p.TotalRevenue > diversityRevenueFloor {
			n++
		}
	}
	return n
}
