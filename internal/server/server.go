package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(analytics *services.Analytics, defaults config.AnalysisConfig, logger *slog.Logger) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, defaults, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, defaults, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// Lookups
	s.mux.HandleFunc("GET /api/countries", s.apiHandlers.HandleCountries)
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/years", s.apiHandlers.HandleYears)

	// Analyses
	s.mux.HandleFunc("POST /api/allocation", s.apiHandlers.HandleAllocation)
	s.mux.HandleFunc("POST /api/allocation/export", s.apiHandlers.HandleAllocationExport)
	s.mux.HandleFunc("POST /api/dol", s.apiHandlers.HandleDOL)
	s.mux.HandleFunc("POST /api/seasonality", s.apiHandlers.HandleSeasonality)
	s.mux.HandleFunc("POST /api/revenue-analysis", s.apiHandlers.HandleRevenueAnalysis)
	s.mux.HandleFunc("GET /api/descriptive", s.apiHandlers.HandleDescriptive)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/allocation", s.sseHandlers.HandleAllocation)
	s.mux.HandleFunc("GET /sse/dol", s.sseHandlers.HandleDOL)
	s.mux.HandleFunc("GET /sse/seasonality", s.sseHandlers.HandleSeasonality)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
