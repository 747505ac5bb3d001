package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/middleware"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
)

const (
	dataLoadTimeout = 2 * time.Minute
	visitorIdle     = 10 * time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		"addr", cfg.Address(),
		"data_file", cfg.Data.File,
		"log_level", cfg.Logger.Level,
	)

	analytics := services.NewAnalytics(services.Options{
		CacheDir:        cfg.Data.CacheDir,
		CacheTTL:        cfg.Analysis.CacheTTL,
		CacheMaxEntries: cfg.Analysis.CacheMaxEntries,
		Logger:          logger,
	})

	loadCtx, cancel := context.WithTimeout(ctx, dataLoadTimeout)
	start := time.Now()
	err := analytics.LoadFromFile(loadCtx, cfg.Data.File)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("transaction data loaded", "duration", time.Since(start))

	limiter := middleware.NewRateLimiter(cfg.Security)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go limiter.Cleanup(limiterCtx, time.Minute, visitorIdle)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gs := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gs.OnShutdown("rate-limiter", func(context.Context) error {
		stopLimiter()
		return nil
	})
	gs.OnShutdown("analytics", func(context.Context) error {
		logger.Info("analytics service stopped", "stats", analytics.Stats())
		return nil
	})

	return gs.Run(ctx)
}

// newHandler wraps the routes in the middleware stack. TrustedProxy runs
// before RateLimit so client IPs come from trusted forwarding headers only.
func newHandler(cfg *config.Config, analytics *services.Analytics, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, cfg.Analysis, logger)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)
	return chain(srv)
}
