package analytics

import (
	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

// AnalyzeCountriesWithProducts scores the selected countries and ranks the
// top five products of each.
func AnalyzeCountriesWithProducts(ds *dataset.Dataset, countries []string, months int) ([]models.CountryMetrics, map[string][]models.TopProduct, error) {
	countries, err := ResolveCountries(ds, countries)
	if err != nil {
		return nil, nil, err
	}
	scored, err := ScoreCountries(ds, countries, months)
	if err != nil {
		return nil, nil, err
	}
	return scored, TopProducts(ds, countries, months, portfolioTopN), nil
}

// AllocatePortfolio runs scoring, allocation and the per-country product
// strategy against each country's allocated budget.
func AllocatePortfolio(ds *dataset.Dataset, countries []string, months int, p AllocationParams) ([]models.AllocationRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	scored, products, err := AnalyzeCountriesWithProducts(ds, countries, months)
	if err != nil {
		return nil, err
	}

	rows, err := AllocateBudget(scored, p)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		r := &rows[i]
		r.TopProducts = products[r.Country]
		r.ProductDiversity = ProductDiversity(r.TopProducts)
		r.Strategy = ProductStrategy(r.TopProducts, r.AllocatedBudget)
	}
	return rows, nil
}
