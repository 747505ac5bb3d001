package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

type Frequency string

const (
	Daily   Frequency = "D"
	Weekly  Frequency = "W"
	Monthly Frequency = "M"
)

type OutlierMethod string

const (
	OutlierIQR    OutlierMethod = "iqr"
	OutlierZScore OutlierMethod = "zscore"
)

// ProductPerformance aggregates every (stock code, description) pair, sorted
// by revenue, highest first.
func ProductPerformance(ds *dataset.Dataset) []models.ProductPerformance {
	type key struct{ code, description string }
	type acc struct {
		quantity int
		revenue  float64
		orders   map[string]struct{}
	}
	groups := make(map[key]*acc)
	for _, r := range ds.Rows() {
		k := key{r.StockCode, r.Description}
		a, ok := groups[k]
		if !ok {
			a = &acc{orders: map[string]struct{}{}}
			groups[k] = a
		}
		a.quantity += r.Quantity
		a.revenue += r.Revenue
		if r.InvoiceID != "" {
			a.orders[r.InvoiceID] = struct{}{}
		}
	}

	out := make([]models.ProductPerformance, 0, len(groups))
	for k, a := range groups {
		out = append(out, models.ProductPerformance{
			StockCode:     k.code,
			Description:   k.description,
			TotalQuantity: a.quantity,
			TotalRevenue:  a.revenue,
			TotalOrders:   len(a.orders),
			AvgOrderValue: ratio(a.revenue, float64(len(a.orders))),
		})
	}
	slices.SortFunc(out, func(a, b models.ProductPerformance) int {
		if c := cmp.Compare(b.TotalRevenue, a.TotalRevenue); c != 0 {
			return c
		}
		return cmp.Compare(a.StockCode, b.StockCode)
	})
	return out
}

// CustomerSegments summarises purchases per customer. Rows without a
// customer id are skipped.
func CustomerSegments(ds *dataset.Dataset) []models.CustomerSegment {
	type acc struct {
		seg    models.CustomerSegment
		orders map[string]struct{}
	}
	groups := make(map[string]*acc)
	for _, r := range ds.Rows() {
		if r.CustomerID == "" {
			continue
		}
		a, ok := groups[r.CustomerID]
		if !ok {
			a = &acc{
				seg:    models.CustomerSegment{CustomerID: r.CustomerID, FirstPurchase: r.InvoiceDate, LastPurchase: r.InvoiceDate},
				orders: map[string]struct{}{},
			}
			groups[r.CustomerID] = a
		}
		a.seg.TotalRevenue += r.Revenue
		a.seg.TotalItems++
		if r.InvoiceID != "" {
			a.orders[r.InvoiceID] = struct{}{}
		}
		if r.InvoiceDate.Before(a.seg.FirstPurchase) {
			a.seg.FirstPurchase = r.InvoiceDate
		}
		if r.InvoiceDate.After(a.seg.LastPurchase) {
			a.seg.LastPurchase = r.InvoiceDate
		}
	}

	out := make([]models.CustomerSegment, 0, len(groups))
	for _, a := range groups {
		a.seg.TotalOrders = len(a.orders)
		a.seg.AvgOrderValue = ratio(a.seg.TotalRevenue, float64(a.seg.TotalOrders))
		out = append(out, a.seg)
	}
	slices.SortFunc(out, func(a, b models.CustomerSegment) int {
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	return out
}

// TimeSeries buckets revenue, quantity and distinct orders by day, week
// (starting Monday) or calendar month. Empty buckets between the first and
// last are not emitted.
func TimeSeries(ds *dataset.Dataset, freq Frequency) []models.TimeSeriesPoint {
	type acc struct {
		point  models.TimeSeriesPoint
		orders map[string]struct{}
	}
	groups := make(map[time.Time]*acc)
	for _, r := range ds.Rows() {
		period := periodStart(r.InvoiceDate, freq)
		a, ok := groups[period]
		if !ok {
			a = &acc{point: models.TimeSeriesPoint{Period: period}, orders: map[string]struct{}{}}
			groups[period] = a
		}
		a.point.Revenue += r.Revenue
		a.point.Quantity += r.Quantity
		if r.InvoiceID != "" {
			a.orders[r.InvoiceID] = struct{}{}
		}
	}

	out := make([]models.TimeSeriesPoint, 0, len(groups))
	for _, a := range groups {
		a.point.Orders = len(a.orders)
		out = append(out, a.point)
	}
	slices.SortFunc(out, func(a, b models.TimeSeriesPoint) int { return a.Period.Compare(b.Period) })
	return out
}

func periodStart(t time.Time, freq Frequency) time.Time {
	y, m, d := t.Date()
	switch freq {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
}

// DetectOutliers returns rows whose revenue lies outside 1.5 IQR of the
// quartiles, or whose z-score exceeds 3.
func DetectOutliers(ds *dataset.Dataset, method OutlierMethod) ([]models.Transaction, error) {
	rows := ds.Rows()
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Revenue
	}

	var outlier func(v float64) bool
	switch method {
	case OutlierIQR:
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
		iqr := q3 - q1
		lower, upper := q1-1.5*iqr, q3+1.5*iqr
		outlier = func(v float64) bool { return v < lower || v > upper }
	case OutlierZScore:
		m, s := mean(values), stdev(values)
		if s == 0 {
			return []models.Transaction{}, nil
		}
		outlier = func(v float64) bool { return math.Abs((v-m)/s) > 3 }
	default:
		return nil, &DegenerateInputError{Field: "method", Reason: "must be iqr or zscore"}
	}

	out := []models.Transaction{}
	for i, r := range rows {
		if outlier(values[i]) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GrowthRate is the percentage change from previous to current. From a zero
// base any gain is +Inf and no gain is 0.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (current - previous) / previous * 100
}
