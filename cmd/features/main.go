package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/polymktlab/poly-data/internal/config"
	"github.com/polymktlab/poly-data/internal/cutoff"
	"github.com/polymktlab/poly-data/internal/database"
	"github.com/polymktlab/poly-data/internal/export"
	"github.com/polymktlab/poly-data/internal/features"
	"github.com/polymktlab/poly-data/internal/store"
	"github.com/polymktlab/poly-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	skipExport := flag.Bool("no-export", false, "skip CSV exports")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting feature derivation",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

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

	st := store.New(pool,
		store.WithLogger(logger),
		store.WithReadTimeout(cfg.Ingest.StatementTimeout),
	)
	resolver := cutoff.NewResolver(st, cutoff.Fallback(cfg.Features.CutoffFallback),
		cutoff.WithLogger(logger))

	builder := features.NewBuilder(st, resolver,
		features.WithMinPoints(cfg.Features.MinPoints),
		features.WithLogger(logger))

	written, err := builder.Run(ctx, cfg.Features.MarketLimit)
	if err != nil {
		logger.Error("feature derivation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("feature rows written", "rows", written)

	if *skipExport {
		logger.Info("exports skipped")
		return
	}

	featureRows, err := st.ListFeatureRows(ctx)
	if err != nil {
		logger.Error("failed to read feature rows", "error", err)
		os.Exit(1)
	}
	if err := export.WriteFeatures(cfg.Features.FeatureOutfile, featureRows); err != nil {
		logger.Error("feature export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("feature export written", "path", cfg.Features.FeatureOutfile, "rows", len(featureRows))

	tickRows, err := st.ListTickExportRows(ctx)
	if err != nil {
		logger.Error("failed to read tick rows", "error", err)
		os.Exit(1)
	}
	if err := export.WriteTicks(cfg.Features.TickOutfile, tickRows); err != nil {
		logger.Error("tick export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("tick export written", "path", cfg.Features.TickOutfile, "rows", len(tickRows))
}
