package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/services"
)

// SSEHandlers mirror the analysis endpoints for Datastar clients: request
// parameters arrive as signals and results are patched back as signals.
type SSEHandlers struct {
	analytics *services.Analytics
	defaults  config.AnalysisConfig
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, defaults config.AnalysisConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		defaults:  defaults,
		logger:    logger,
	}
}

// readSignals decodes and validates the request signals. Failures are
// reported on the stream and false is returned.
func (h *SSEHandlers) readSignals(sse *datastar.ServerSentEventGenerator, r *http.Request, req any) bool {
	if err := datastar.ReadSignals(r, req); err != nil {
		h.patchError(sse, errors.BadRequestWrap(err, "Invalid signals"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		h.patchError(sse, validationError(err))
		return false
	}
	return true
}

func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, err error) {
	appErr, ok := appError(err).(*errors.AppError)
	if !ok {
		appErr = errors.InternalWrap(err, "An unexpected error occurred")
	}
	h.logger.Warn("sse analysis failed", "code", appErr.Code, "error", err)
	h.patch(sse, map[string]any{"error": appErr, "loading": false})
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, signals map[string]any) {
	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}

func (h *SSEHandlers) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var req AllocationRequest
	if !h.readSignals(sse, r, &req) {
		return
	}

	report, err := h.analytics.Allocation(r.Context(), req.params(h.defaults))
	if err != nil {
		h.patchError(sse, err)
		return
	}
	h.patch(sse, map[string]any{"allocation": report, "error": nil, "loading": false})
}

func (h *SSEHandlers) HandleDOL(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var req DolRequest
	if !h.readSignals(sse, r, &req) {
		return
	}

	result, err := h.analytics.DOL(r.Context(), req.params())
	if err != nil {
		h.patchError(sse, err)
		return
	}
	h.patch(sse, map[string]any{"dol": result, "error": nil, "loading": false})
}

func (h *SSEHandlers) HandleSeasonality(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var req SeasonalityRequest
	if !h.readSignals(sse, r, &req) {
		return
	}

	report, err := h.analytics.Seasonality(r.Context(), req.params())
	if err != nil {
		h.patchError(sse, err)
		return
	}
	h.patch(sse, map[string]any{"seasonality": report, "error": nil, "loading": false})
}
