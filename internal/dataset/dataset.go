package dataset

import (
	"slices"
	"time"

	"retail-dashboard/internal/models"
)

// Dataset is an immutable, cleaned set of transactions. Views return new
// datasets sharing no mutable state with their source.
type Dataset struct {
	rows []models.Transaction
}

func New(rows []models.Transaction) *Dataset {
	return &Dataset{rows: slices.Clone(rows)}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Rows exposes the underlying rows. Callers must not modify them.
func (d *Dataset) Rows() []models.Transaction {
	if d == nil {
		return nil
	}
	return d.rows
}

func (d *Dataset) Where(keep func(models.Transaction) bool) *Dataset {
	out := make([]models.Transaction, 0, d.Len())
	for _, r := range d.Rows() {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Dataset{rows: out}
}

func (d *Dataset) ForCountries(countries []string) *Dataset {
	set := toSet(countries)
	return d.Where(func(t models.Transaction) bool {
		_, ok := set[t.Country]
		return ok
	})
}

func (d *Dataset) ExcludeCountries(countries []string) *Dataset {
	if len(countries) == 0 {
		return d
	}
	set := toSet(countries)
	return d.Where(func(t models.Transaction) bool {
		_, ok := set[t.Country]
		return !ok
	})
}

func (d *Dataset) ExcludeProducts(codes []string) *Dataset {
	if len(codes) == 0 {
		return d
	}
	set := toSet(codes)
	return d.Where(func(t models.Transaction) bool {
		_, ok := set[t.StockCode]
		return !ok
	})
}

func (d *Dataset) ForProduct(code string) *Dataset {
	return d.Where(func(t models.Transaction) bool { return t.StockCode == code })
}

func (d *Dataset) ForDescription(description string) *Dataset {
	return d.Where(func(t models.Transaction) bool { return t.Description == description })
}

// Between keeps rows whose calendar date lies in [start, end].
func (d *Dataset) Between(start, end time.Time) *Dataset {
	from := dateOnly(start)
	until := dateOnly(end).AddDate(0, 0, 1)
	return d.Where(func(t models.Transaction) bool {
		return !t.InvoiceDate.Before(from) && t.InvoiceDate.Before(until)
	})
}

// Window keeps the trailing months×30 days anchored at the latest row.
func (d *Dataset) Window(months int) *Dataset {
	maxDate, ok := d.MaxDate()
	if !ok {
		return &Dataset{}
	}
	start := WindowStart(maxDate, months)
	return d.Where(func(t models.Transaction) bool { return !t.InvoiceDate.Before(start) })
}

// WindowStart approximates a month as 30 days.
func WindowStart(anchor time.Time, months int) time.Time {
	return anchor.Add(-time.Duration(months) * 30 * 24 * time.Hour)
}

// MonthRange keeps rows whose YearMonth lies in [startYM, endYM]. An empty
// bound is open.
func (d *Dataset) MonthRange(startYM, endYM string) *Dataset {
	return d.Where(func(t models.Transaction) bool {
		ym := t.YearMonth()
		return (startYM == "" || ym >= startYM) && (endYM == "" || ym <= endYM)
	})
}

func (d *Dataset) MinDate() (time.Time, bool) {
	rows := d.Rows()
	if len(rows) == 0 {
		return time.Time{}, false
	}
	m := rows[0].InvoiceDate
	for _, r := range rows[1:] {
		if r.InvoiceDate.Before(m) {
			m = r.InvoiceDate
		}
	}
	return m, true
}

func (d *Dataset) MaxDate() (time.Time, bool) {
	rows := d.Rows()
	if len(rows) == 0 {
		return time.Time{}, false
	}
	m := rows[0].InvoiceDate
	for _, r := range rows[1:] {
		if r.InvoiceDate.After(m) {
			m = r.InvoiceDate
		}
	}
	return m, true
}

func (d *Dataset) Countries() []string {
	return distinct(d.Rows(), func(t models.Transaction) string { return t.Country })
}

func (d *Dataset) Products() []string {
	return distinct(d.Rows(), func(t models.Transaction) string { return t.StockCode })
}

func (d *Dataset) Descriptions() []string {
	return distinct(d.Rows(), func(t models.Transaction) string { return t.Description })
}

func (d *Dataset) Years() []int {
	seen := make(map[int]struct{})
	for _, r := range d.Rows() {
		seen[r.Year()] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	slices.Sort(out)
	return out
}

func distinct(rows []models.Transaction, key func(models.Transaction) string) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if k := key(r); k != "" {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
