// Package ingest drives the batch ingestion run: market metadata, token
// mapping, order book snapshots, price history and holder snapshots.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polymktlab/poly-data/internal/api"
	"github.com/polymktlab/poly-data/internal/config"
	"github.com/polymktlab/poly-data/internal/cutoff"
	"github.com/polymktlab/poly-data/internal/metrics"
	"github.com/polymktlab/poly-data/internal/model"
	"github.com/polymktlab/poly-data/internal/store"
)

// Outcome is the typed result of one market/token task. Every task resolves
// to exactly one outcome and is logged once; failures never abort the batch.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Store is the persistence surface the runner writes to. *store.Store
// satisfies it.
type Store interface {
	UpsertEvent(ctx context.Context, e model.Event) error
	UpsertMarket(ctx context.Context, m model.Market) error
	UpsertCLOBMarket(ctx context.Context, m model.CLOBMarket) error
	UpsertTokens(ctx context.Context, t model.TokenPair) error
	BackfillAltSlugs(ctx context.Context) (int, error)
	ListCLOBTokenRows(ctx context.Context, limit int) ([]store.CLOBTokenRow, error)
	ListMarketTokens(ctx context.Context, limit int) ([]model.MarketTokens, error)
	ListMarketsMissingCutoff(ctx context.Context, limit int) ([]model.Market, error)
	InsertPriceTicks(ctx context.Context, ticks []model.PriceTick) (int, int, error)
	InsertBookSnapshot(ctx context.Context, snap model.BookSnapshot) error
	InsertHolderSnapshot(ctx context.Context, snap model.HolderSnapshot) error
	RecordIngest(ctx context.Context, e store.AuditEntry) error
}

// Runner executes one ingestion batch under a single run id.
type Runner struct {
	client   *api.Client
	store    Store
	resolver *cutoff.Resolver
	cfg      config.IngestConfig
	logger   *slog.Logger
	runID    uuid.UUID
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner for one batch.
func NewRunner(client *api.Client, st Store, resolver *cutoff.Resolver, cfg config.IngestConfig, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		store:    st,
		resolver: resolver,
		cfg:      cfg,
		logger:   slog.Default(),
		runID:    uuid.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID identifies this batch in the audit log.
func (r *Runner) RunID() uuid.UUID { return r.runID }

// Run executes the full batch: metadata sync, token mapping, then the three
// per-market collection stages. Stage errors end the run only when the
// context is cancelled; per-task failures are absorbed by the stages.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	r.logger.Info("ingestion run starting", "run_id", r.runID)

	if err := r.SyncGammaMarkets(ctx); err != nil {
		r.logger.Error("gamma sync failed", "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := r.SyncCLOBMarkets(ctx); err != nil {
		r.logger.Error("clob sync failed", "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := r.MapTokens(ctx); err != nil {
		r.logger.Error("token mapping failed", "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := r.BackfillCutoffs(ctx); err != nil {
		r.logger.Error("cutoff backfill failed", "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	marketTokens, err := r.store.ListMarketTokens(ctx, r.cfg.MarketLimit)
	if err != nil {
		return err
	}

	if err := r.CollectBooks(ctx, marketTokens); err != nil {
		return err
	}
	if err := r.CollectPrices(ctx, marketTokens); err != nil {
		return err
	}
	if err := r.CollectHolders(ctx, marketTokens); err != nil {
		return err
	}

	r.logger.Info("ingestion run complete",
		"run_id", r.runID,
		"markets", len(marketTokens),
		"elapsed", r.now().Sub(start).Round(time.Millisecond))
	return nil
}

// finish records a task outcome exactly once.
func (r *Runner) finish(stage, id string, outcome Outcome, err error) {
	metrics.TaskOutcomes.WithLabelValues(stage, string(outcome)).Inc()
	switch outcome {
	case OutcomeFailed:
		r.logger.Warn("task failed", "stage", stage, "id", id, "error", err)
	case OutcomeSkipped:
		r.logger.Debug("task skipped", "stage", stage, "id", id)
	default:
		r.logger.Debug("task ok", "stage", stage, "id", id)
	}
}

// audit appends one exchange to the ingest log. Audit failures are logged
// and swallowed: the log is informational and must not fail a task.
func (r *Runner) audit(ctx context.Context, marketID *string, endpoint string, res *api.FetchResult) {
	if res == nil {
		return
	}
	entry := store.AuditEntry{
		RunID:    r.runID,
		MarketID: marketID,
		Endpoint: endpoint,
		URL:      res.URL,
		Params:   res.Params,
		Status:   res.Status,
		Payload:  res.Body,
	}
	if err := r.store.RecordIngest(ctx, entry); err != nil {
		r.logger.Warn("audit write failed", "endpoint", endpoint, "error", err)
	}
}
