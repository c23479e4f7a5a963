// Package features derives the fixed-shape, leakage-safe feature vector for
// each market from its persisted price and order book history.
package features

import (
	"context"
	"log/slog"
	"time"

	"github.com/polymktlab/poly-data/internal/cutoff"
	"github.com/polymktlab/poly-data/internal/metrics"
	"github.com/polymktlab/poly-data/internal/model"
)

// DefaultMinPoints is the minimum pre-cutoff tick count for the normal
// path; below it the builder degrades to snapshot-only mode.
const DefaultMinPoints = 3

// Store is the persistence surface the builder reads and writes.
// *store.Store satisfies it.
type Store interface {
	ListMarketTokens(ctx context.Context, limit int) ([]model.MarketTokens, error)
	PriceSeries(ctx context.Context, tokenID string, before time.Time) ([]model.PriceTick, error)
	LatestBookBefore(ctx context.Context, tokenID string, before time.Time) (*model.BookSnapshot, error)
	UpsertFeatureRow(ctx context.Context, row model.FeatureRow) error
}

// Builder computes feature rows.
type Builder struct {
	store     Store
	resolver  *cutoff.Resolver
	minPoints int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithMinPoints overrides the snapshot-only threshold.
func WithMinPoints(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.minPoints = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder.
func NewBuilder(store Store, resolver *cutoff.Resolver, opts ...Option) *Builder {
	b := &Builder{
		store:     store,
		resolver:  resolver,
		minPoints: DefaultMinPoints,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build derives one market's feature row. It returns (nil, nil) when the
// market has no usable signal at all: no cutoff under a skip policy, or
// neither a pre-cutoff tick nor a book snapshot carrying a mid.
func (b *Builder) Build(ctx context.Context, mt model.MarketTokens) (*model.FeatureRow, error) {
	primaryToken, series, err := b.primarySeries(ctx, mt)
	if err != nil {
		return nil, err
	}

	cut, ok := b.resolver.Resolve(ctx, mt.Market, series)
	if !ok {
		return nil, nil
	}

	// Strictly before cutoff. Everything at or after is resolution-time
	// information and must not leak into the row.
	pre := series[:0:0]
	for _, tk := range series {
		if tk.TS.Before(cut) {
			pre = append(pre, tk)
		}
	}

	snap, err := b.store.LatestBookBefore(ctx, primaryToken, cut)
	if err != nil {
		return nil, err
	}

	row := model.FeatureRow{
		MarketID:     mt.Market.MarketID,
		Question:     mt.Market.Question,
		CutoffTS:     cut,
		TokenUsed:    model.StrOrNil(primaryToken),
		LabelOutcome: mt.Market.ResolvedOutcome,
	}
	if snap != nil {
		row.LastBid = snap.BestBid
		row.LastAsk = snap.BestAsk
		row.Spread = snap.Spread
		row.Depth = model.Ptr(snap.Depth)
	}

	// Last mid prefers the book snapshot over the final tick.
	switch {
	case snap != nil && snap.Mid != nil:
		row.LastMid = *snap.Mid
	case len(pre) > 0:
		row.LastMid = pre[len(pre)-1].Price
	default:
		// No signal of any kind.
		return nil, nil
	}

	if len(pre) < b.minPoints {
		// Snapshot-only mode: window statistics stay zero.
		return &row, nil
	}

	returns := seriesReturns(pre)
	row.Vol1h = windowVolume(pre, cut, windowHour)
	row.Vol24h = windowVolume(pre, cut, windowDay)
	row.Vol7d = windowVolume(pre, cut, windowWeek)
	row.Volat1h = windowVolatility(returns, cut, windowHour)
	row.Volat24h = windowVolatility(returns, cut, windowDay)
	row.Volat7d = windowVolatility(returns, cut, windowWeek)
	row.Momentum1h = windowMomentum(pre, cut, windowHour)
	row.Momentum24h = windowMomentum(pre, cut, windowDay)

	return &row, nil
}

// primarySeries loads both tokens' histories and picks the richer one as
// the primary signal. Ties prefer the YES side.
func (b *Builder) primarySeries(ctx context.Context, mt model.MarketTokens) (string, []model.PriceTick, error) {
	horizon := b.now().UTC()

	yes, err := b.store.PriceSeries(ctx, mt.Tokens.TokenIDYes, horizon)
	if err != nil {
		return "", nil, err
	}
	if mt.Tokens.TokenIDNo == nil {
		return mt.Tokens.TokenIDYes, yes, nil
	}

	no, err := b.store.PriceSeries(ctx, *mt.Tokens.TokenIDNo, horizon)
	if err != nil {
		return "", nil, err
	}
	if len(no) > len(yes) {
		return *mt.Tokens.TokenIDNo, no, nil
	}
	return mt.Tokens.TokenIDYes, yes, nil
}

// Run derives and upserts feature rows for the most recent markets. A
// per-market failure is logged and counted, never fatal to the batch.
func (b *Builder) Run(ctx context.Context, limit int) (int, error) {
	marketTokens, err := b.store.ListMarketTokens(ctx, limit)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, mt := range marketTokens {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		row, err := b.Build(ctx, mt)
		switch {
		case err != nil:
			metrics.TaskOutcomes.WithLabelValues("features", "failed").Inc()
			b.logger.Warn("feature build failed", "market_id", mt.Market.MarketID, "error", err)
			continue
		case row == nil:
			metrics.TaskOutcomes.WithLabelValues("features", "skipped").Inc()
			b.logger.Debug("no usable signal", "market_id", mt.Market.MarketID)
			continue
		}
		if err := b.store.UpsertFeatureRow(ctx, *row); err != nil {
			metrics.TaskOutcomes.WithLabelValues("features", "failed").Inc()
			b.logger.Warn("feature upsert failed", "market_id", mt.Market.MarketID, "error", err)
			continue
		}
		metrics.TaskOutcomes.WithLabelValues("features", "ok").Inc()
		written++
	}

	b.logger.Info("feature derivation complete", "markets", len(marketTokens), "rows", written)
	return written, nil
}
