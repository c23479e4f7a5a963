package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polymktlab/poly-data/internal/api"
	"github.com/polymktlab/poly-data/internal/config"
	"github.com/polymktlab/poly-data/internal/cutoff"
	"github.com/polymktlab/poly-data/internal/database"
	"github.com/polymktlab/poly-data/internal/ingest"
	"github.com/polymktlab/poly-data/internal/metrics"
	"github.com/polymktlab/poly-data/internal/ratelimit"
	"github.com/polymktlab/poly-data/internal/store"
	"github.com/polymktlab/poly-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingester",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"gamma_url", cfg.API.GammaURL,
		"clob_url", cfg.API.CLOBURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Create API client
	limiter := ratelimit.New(cfg.API.RateRPS, cfg.API.RateBurst)
	apiClient := api.NewClient(
		cfg.API.GammaURL,
		cfg.API.CLOBURL,
		cfg.API.DataURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithRateLimiter(limiter),
		api.WithBookCandidates(cfg.API.BookCandidates),
	)

	st := store.New(pool,
		store.WithLogger(logger),
		store.WithReadTimeout(cfg.Ingest.StatementTimeout),
	)
	resolver := cutoff.NewResolver(st, cutoff.Fallback(cfg.Features.CutoffFallback),
		cutoff.WithLogger(logger))

	runner := ingest.NewRunner(apiClient, st, resolver, cfg.Ingest,
		ingest.WithLogger(logger))

	// Metrics/health server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHandler(pool, cfg.Metrics.Path),
	}
	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("ingestion starting",
		"run_id", runner.RunID(),
		"instance_id", cfg.Instance.ID,
	)

	if err := runner.Run(ctx); err != nil {
		logger.Error("ingestion run ended with error", "error", err)
	}

	// Graceful shutdown of metrics server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	metricsServer.Shutdown(shutdownCtx)

	logger.Info("ingester stopped")
}

// createHandler serves metrics and a database health probe.
func createHandler(pool *pgxpool.Pool, metricsPath string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, metrics.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
