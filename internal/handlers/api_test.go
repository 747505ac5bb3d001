package handlers

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
)

var testDefaults = config.AnalysisConfig{
	TimeFrameMonths: 12,
	TopProducts:     5,
	ExpectedROI:     15,
	CacheTTL:        time.Minute,
	CacheMaxEntries: 32,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTransactions() []models.Transaction {
	row := func(inv, country, code string, m time.Month, qty int, price float64) models.Transaction {
		return models.Transaction{
			InvoiceID:   inv,
			InvoiceDate: time.Date(2011, m, 10, 9, 0, 0, 0, time.UTC),
			Country:     country,
			StockCode:   code,
			Description: "Item " + code,
			Quantity:    qty,
			UnitPrice:   price,
			Revenue:     float64(qty) * price,
			CustomerID:  "C-" + country,
		}
	}
	return []models.Transaction{
		row("1", "France", "85123A", time.January, 100, 10),
		row("2", "France", "85123A", time.February, 40, 10),
		row("3", "France", "22633", time.March, 60, 5),
		row("4", "Germany", "85123A", time.January, 30, 10),
		row("5", "Germany", "22633", time.April, 20, 5),
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(services.Options{Logger: testLogger()})
	a.SetData(testTransactions())
	return a
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestAPI() *APIHandlers {
	return NewAPIHandlers(createTestAnalytics(), testDefaults, testLogger())
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func do(t *testing.T, handler http.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()
	handlers := NewAPIHandlers(analytics, testDefaults, logger)

	assert.Same(t, analytics, handlers.analytics)
	assert.Same(t, logger, handlers.logger)
	assert.Equal(t, 12, handlers.defaults.TimeFrameMonths)
}

func TestAPIHandlers_HandleCountries(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleCountries, http.MethodGet, "/api/countries", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	var stats []models.CountryStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, "France", stats[0].Country)
	assert.Equal(t, 1700.0, stats[0].TotalRevenue)

	w, _ = do(t, h.HandleCountries, http.MethodGet, "/api/countries?mode=allocation", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIHandlers_HandleProductsAndYears(t *testing.T) {
	h := newTestAPI()

	_, env := do(t, h.HandleProducts, http.MethodGet, "/api/products", "")
	assert.JSONEq(t, `["22633","85123A"]`, string(env.Data))

	_, env = do(t, h.HandleProducts, http.MethodGet, "/api/products?field=description", "")
	assert.JSONEq(t, `["Item 22633","Item 85123A"]`, string(env.Data))

	_, env = do(t, h.HandleYears, http.MethodGet, "/api/years?product=85123A", "")
	assert.JSONEq(t, `[2011]`, string(env.Data))
}

func TestAPIHandlers_HandleAllocation(t *testing.T) {
	h := newTestAPI()
	body := `{"countries":["France","Germany"],"total_budget":10000,"min_per_country":1000,"max_per_country":9000}`

	w, env := do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.AllocationReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 12, report.Months)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "France", report.Rows[0].Country)
	assert.InDelta(t, 10000, report.Rows[0].AllocatedBudget+report.Rows[1].AllocatedBudget, 1e-6)
	// default ROI from configuration
	assert.InDelta(t, report.Rows[0].AllocatedBudget*0.15, report.Rows[0].ExpectedProfit, 1e-6)
}

func TestAPIHandlers_HandleAllocation_Validation(t *testing.T) {
	h := newTestAPI()

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"malformed json", `{"countries":`, http.StatusBadRequest, ""},
		{"unknown field", `{"budget":1}`, http.StatusBadRequest, ""},
		{"no countries", `{"total_budget":100,"max_per_country":100}`, http.StatusBadRequest, "countries"},
		{"zero budget", `{"countries":["France"],"total_budget":0,"max_per_country":100}`, http.StatusBadRequest, "total_budget"},
		{"min above max", `{"countries":["France"],"total_budget":100,"min_per_country":50,"max_per_country":10}`, http.StatusBadRequest, "max_per_country"},
		{"window too long", `{"countries":["France"],"months":36,"total_budget":100,"max_per_country":100}`, http.StatusBadRequest, "months"},
		{"bad selection", `{"select_count":2,"selection":"random","total_budget":100,"max_per_country":100}`, http.StatusBadRequest, "selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			if tt.field != "" {
				require.NotNil(t, env.Error)
				assert.Contains(t, env.Error.Fields, tt.field)
			}
		})
	}
}

func TestAPIHandlers_HandleAllocation_MaxDefaultsToBudget(t *testing.T) {
	h := newTestAPI()
	body := `{"countries":["France","Germany"],"total_budget":10000}`

	w, env := do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.AllocationReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Rows, 2)
	assert.InDelta(t, 10000, report.Rows[0].AllocatedBudget+report.Rows[1].AllocatedBudget, 1e-6)
	assert.InDelta(t, 10000, report.Summary.TotalAllocated, 1e-6)

	// A minimum above the defaulted cap is still rejected.
	w, env = do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", `{"countries":["France"],"total_budget":100,"min_per_country":500}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAPIHandlers_HandleAllocation_Countries(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", `{"countries":["france"," GERMANY "],"total_budget":1000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report models.AllocationReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []string{"France", "Germany"}, report.Countries)

	w, env = do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", `{"countries":["France","Atlantis"],"total_budget":1000}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Contains(t, env.Error.Message, "Atlantis")
}

func TestAPIHandlers_HandleAllocation_BySelection(t *testing.T) {
	h := newTestAPI()
	body := `{"selection":"top_revenue","select_count":1,"total_budget":500,"max_per_country":500,"expected_roi":10}`

	w, env := do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", body)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.AllocationReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []string{"France"}, report.Countries)
	assert.InDelta(t, 50, report.Summary.TotalExpectedProfit, 1e-6)
}

func TestAPIHandlers_HandleAllocationExport(t *testing.T) {
	h := newTestAPI()
	body := `{"countries":["France","Germany"],"total_budget":10000,"min_per_country":1000,"max_per_country":9000}`

	w, _ := do(t, h.HandleAllocationExport, http.MethodPost, "/api/allocation/export", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "budget_allocation.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Allocated_Budget", records[0][1])
	assert.Equal(t, "France", records[1][0])
}

func TestAPIHandlers_HandleDOL(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleDOL, http.MethodPost, "/api/dol",
		`{"product_code":"85123A","variable_cost":4,"fixed_cost":100,"time_period":"2 months"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result models.DolResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "85123A", result.ProductCode)
	assert.Equal(t, 2011, result.DataYear)
	assert.GreaterOrEqual(t, result.DOL, -10.0)
	assert.LessOrEqual(t, result.DOL, 10.0)

	w, env = do(t, h.HandleDOL, http.MethodPost, "/api/dol", `{"product_code":"nope","time_period":"1 month"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = do(t, h.HandleDOL, http.MethodPost, "/api/dol", `{"product_code":"85123A","time_period":"6 months"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "time_period")
}

func TestAPIHandlers_HandleSeasonality(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleSeasonality, http.MethodPost, "/api/seasonality", `{"description":"Item 85123A","budget":1000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.SeasonalityReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []int{1, 2}, report.Series.Months())
	assert.Equal(t, 1, report.Series.PeakMonth)
	assert.Len(t, report.BudgetPlan, 2)

	w, env = do(t, h.HandleSeasonality, http.MethodPost, "/api/seasonality", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "description")
}

func TestAPIHandlers_HandleSeasonality_DateRange(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleSeasonality, http.MethodPost, "/api/seasonality",
		`{"description":"Item 85123A","start_date":"2011-02-01","end_date":"2011-12-31"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.SeasonalityReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []int{2}, report.Series.Months())
	assert.True(t, report.Start.Equal(time.Date(2011, time.February, 1, 0, 0, 0, 0, time.UTC)), report.Start)

	w, env = do(t, h.HandleSeasonality, http.MethodPost, "/api/seasonality", `{"description":"Item 85123A","start_date":"01/02/2011"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "start_date")

	w, env = do(t, h.HandleSeasonality, http.MethodPost, "/api/seasonality",
		`{"description":"Item 85123A","start_date":"2011-03-01","end_date":"2011-02-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "end")

	w, _ = do(t, h.HandleSeasonality, http.MethodPost, "/api/seasonality", `{"description":"Item 85123A","start_date":"2012-01-01"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIHandlers_HandleRevenueAnalysis(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleRevenueAnalysis, http.MethodPost, "/api/revenue-analysis", `{"start_month":"2011-01","end_month":"2011-03"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.RevenueReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []string{"2011-01", "2011-02", "2011-03"}, report.Pivot.Months)

	w, _ = do(t, h.HandleRevenueAnalysis, http.MethodPost, "/api/revenue-analysis", `{"start_month":"January"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h.HandleRevenueAnalysis, http.MethodPost, "/api/revenue-analysis", `{"start_month":"2030-01"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIHandlers_HandleDescriptive(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleDescriptive, http.MethodGet, "/api/descriptive?frequency=W&top_n=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var report models.DescriptiveReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Len(t, report.TopProducts, 1)
	assert.Equal(t, 2, report.CustomerCount)

	w, _ = do(t, h.HandleDescriptive, http.MethodGet, "/api/descriptive?frequency=Y", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, h.HandleDescriptive, http.MethodGet, "/api/descriptive?top_n=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, h.HandleDescriptive, http.MethodGet, "/api/descriptive?outliers=mad", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIHandlers_NoData(t *testing.T) {
	h := NewAPIHandlers(services.NewAnalytics(services.Options{Logger: testLogger()}), testDefaults, testLogger())

	w, env := do(t, h.HandleCountries, http.MethodGet, "/api/countries", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)
}

func TestAPIHandlers_SchemaErrorIs422(t *testing.T) {
	a := services.NewAnalytics(services.Options{Logger: testLogger()})
	require.NoError(t, a.LoadFromFile(t.Context(), writeCSV(t, "InvoiceDate,Country,Revenue\n2011-01-01,France,10\n")))
	h := NewAPIHandlers(a, testDefaults, testLogger())

	w, env := do(t, h.HandleAllocation, http.MethodPost, "/api/allocation", `{"countries":["France"],"total_budget":100,"max_per_country":100}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SCHEMA_ERROR", env.Error.Code)
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleHealth, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Empty(t, w.Header().Get("Cache-Control"))

	var health map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health["status"])
	_, err := time.Parse(time.RFC3339, health["timestamp"])
	assert.NoError(t, err)
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := newTestAPI()

	w, env := do(t, h.HandleStats, http.MethodGet, "/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 5.0, stats["record_count"])
	assert.Equal(t, "memory", stats["source"])
}
