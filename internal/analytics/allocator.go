package analytics

import (
	"cmp"
	"math"
	"slices"

	"retail-dashboard/internal/models"
)

type AllocationParams struct {
	TotalBudget   float64 `json:"total_budget"`
	MinPerCountry float64 `json:"min_per_country"`
	MaxPerCountry float64 `json:"max_per_country"`
	ExpectedROI   float64 `json:"expected_roi"`
}

func (p AllocationParams) Validate() error {
	switch {
	case !(p.TotalBudget > 0) || math.IsInf(p.TotalBudget, 0):
		return &DegenerateInputError{Field: "total_budget", Reason: "must be a positive number"}
	case !(p.MaxPerCountry > 0) || math.IsInf(p.MaxPerCountry, 0):
		return &DegenerateInputError{Field: "max_per_country", Reason: "must be a positive number"}
	case p.MinPerCountry < 0:
		return &DegenerateInputError{Field: "min_per_country", Reason: "must not be negative"}
	case p.MinPerCountry > p.MaxPerCountry:
		return &DegenerateInputError{Field: "min_per_country", Reason: "must not exceed max_per_country"}
	}
	return nil
}

// AllocateBudget splits the budget proportionally to overall score, clips
// each share to [min, max] and rescales so the shares sum to the total. The
// rescale may push a share back outside [min, max].
func AllocateBudget(scored []models.CountryMetrics, p AllocationParams) ([]models.AllocationRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return []models.AllocationRow{}, nil
	}

	var totalScore float64
	for _, m := range scored {
		totalScore += m.OverallScore
	}

	rows := make([]models.AllocationRow, len(scored))
	var allocated float64
	for i, m := range scored {
		initial := p.TotalBudget / float64(len(scored))
		if totalScore > 0 {
			initial = m.OverallScore / totalScore * p.TotalBudget
		}
		rows[i] = models.AllocationRow{
			CountryMetrics:  m,
			InitialBudget:   initial,
			AllocatedBudget: clamp(initial, p.MinPerCountry, p.MaxPerCountry),
		}
		allocated += rows[i].AllocatedBudget
	}

	if allocated != p.TotalBudget && allocated > 0 {
		factor := p.TotalBudget / allocated
		for i := range rows {
			rows[i].AllocatedBudget *= factor
		}
	}

	for i := range rows {
		r := &rows[i]
		r.ExpectedProfit = r.AllocatedBudget * p.ExpectedROI / 100
		r.TotalReturn = r.AllocatedBudget + r.ExpectedProfit
		r.InvestmentPercentage = r.AllocatedBudget / p.TotalBudget * 100
		r.InvestmentLevel = investmentLevel(r.InvestmentPercentage)
	}

	slices.SortStableFunc(rows, func(a, b models.AllocationRow) int {
		return cmp.Compare(b.AllocatedBudget, a.AllocatedBudget)
	})
	return rows, nil
}

func investmentLevel(pct float64) models.InvestmentLevel {
	switch {
	case pct >= 25:
		return models.LevelVeryHigh
	case pct >= 15:
		return models.LevelHigh
	case pct >= 10:
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}

// SummarizeAllocation aggregates an allocation sorted by budget, highest
// first. The score gap compares the mean of the top three with the mean of
// the bottom two.
func SummarizeAllocation(rows []models.AllocationRow, totalBudget float64) models.AllocationSummary {
	s := models.AllocationSummary{TotalBudget: totalBudget}
	if len(rows) == 0 {
		return s
	}

	scores := make([]float64, len(rows))
	for i, r := range rows {
		s.TotalAllocated += r.AllocatedBudget
		s.TotalExpectedProfit += r.ExpectedProfit
		s.TotalCurrentRevenue += r.TotalRevenue
		scores[i] = r.OverallScore
	}
	s.RealisedROI = ratio(s.TotalExpectedProfit, s.TotalAllocated) * 100
	s.AverageScore = mean(scores)

	var topBudget float64
	for _, r := range rows[:min(3, len(rows))] {
		topBudget += r.AllocatedBudget
	}
	s.TopThreeShare = ratio(topBudget, s.TotalAllocated) * 100

	byScore := slices.Clone(scores)
	slices.SortFunc(byScore, func(a, b float64) int { return cmp.Compare(b, a) })
	if len(byScore) >= 2 {
		s.ScoreGap = mean(byScore[:min(3, len(byScore))]) - mean(byScore[max(0, len(byScore)-2):])
	}
	return s
}
