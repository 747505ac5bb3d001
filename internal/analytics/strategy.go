package analytics

import (
	"cmp"
	"slices"

	"retail-dashboard/internal/models"
)

const (
	coreShare      = 0.30
	growthShare    = 0.10
	diversifyShare = 0.60
)

// ProductStrategy splits a country budget 30/10/60 across its products
// ranked by revenue: the first is core, the second growth and the rest share
// the diversify pool. It returns nil when there are no products.
func ProductStrategy(products []models.TopProduct, budget float64) *models.ProductStrategy {
	if len(products) == 0 {
		return nil
	}

	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b models.TopProduct) int {
		return cmp.Compare(b.TotalRevenue, a.TotalRevenue)
	})

	bucket := func(share float64, members []models.TopProduct) models.StrategyBucket {
		if members == nil {
			members = []models.TopProduct{}
		}
		return models.StrategyBucket{Percentage: share * 100, Budget: budget * share, Products: members}
	}

	var growth, diversify []models.TopProduct
	if len(sorted) > 1 {
		growth = sorted[1:2]
	}
	if len(sorted) > 2 {
		diversify = sorted[2:]
	}

	return &models.ProductStrategy{
		Core:      bucket(coreShare, sorted[:1]),
		Growth:    bucket(growthShare, growth),
		Diversify: bucket(diversifyShare, diversify),
	}
}
