package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

const maxBodyBytes = 1 << 20

type APIHandlers struct {
	analytics *services.Analytics
	defaults  config.AnalysisConfig
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, defaults config.AnalysisConfig, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		defaults:  defaults,
		logger:    logger,
	}
}

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, appError(err), observability.GetRequestID(r.Context()))
}

// decode reads a JSON body into req and validates it.
func (h *APIHandlers) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		h.writeError(w, r, errors.BadRequestWrap(err, "Invalid request body: malformed JSON"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, r, validationError(err))
		return false
	}
	return true
}

// HandleCountries lists country options. mode=allocation restricts them to
// rows usable for budget allocation.
func (h *APIHandlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	fetch := h.analytics.Countries
	if r.URL.Query().Get("mode") == "allocation" {
		fetch = h.analytics.AllocationCountries
	}

	data, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	fetch := h.analytics.Products
	if r.URL.Query().Get("field") == "description" {
		fetch = h.analytics.Descriptions
	}

	data, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleYears(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Years(r.Context(), r.URL.Query().Get("product"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.analytics.Allocation(r.Context(), req.params(h.defaults))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccess(w, report)
}

func (h *APIHandlers) HandleAllocationExport(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.analytics.Allocation(r.Context(), req.params(h.defaults))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.AllocationCSV(&buf, report.Rows); err != nil {
		h.writeError(w, r, errors.InternalWrap(err, "Failed to render allocation export"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="budget_allocation.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write allocation export", "error", err)
	}
}

func (h *APIHandlers) HandleDOL(w http.ResponseWriter, r *http.Request) {
	var req DolRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.analytics.DOL(r.Context(), req.params())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccess(w, result)
}

func (h *APIHandlers) HandleSeasonality(w http.ResponseWriter, r *http.Request) {
	var req SeasonalityRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.analytics.Seasonality(r.Context(), req.params())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccess(w, report)
}

func (h *APIHandlers) HandleRevenueAnalysis(w http.ResponseWriter, r *http.Request) {
	var req RevenueRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.analytics.Revenue(r.Context(), req.params())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccess(w, report)
}

// HandleDescriptive serves the descriptive summary. Query: frequency (D, W,
// M), outliers (iqr, zscore), top_n.
func (h *APIHandlers) HandleDescriptive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topN := h.defaults.TopProducts
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, r, errors.Validation("top_n must be a positive integer"))
			return
		}
		topN = n
	}

	freq := analytics.Frequency(q.Get("frequency"))
	switch freq {
	case "", analytics.Daily, analytics.Weekly, analytics.Monthly:
	default:
		h.writeError(w, r, errors.Validation("frequency must be one of D, W, M"))
		return
	}

	report, err := h.analytics.Describe(r.Context(), analytics.DescriptiveParams{
		Frequency: freq,
		Outliers:  analytics.OutlierMethod(q.Get("outliers")),
		TopN:      topN,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, report, cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
