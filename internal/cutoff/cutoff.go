// Package cutoff resolves the leakage boundary for each market: the single
// timestamp before which data may feed features and at-or-after which it is
// off limits.
package cutoff

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
	"github.com/polymktlab/poly-data/internal/resolve"
)

// Fallback names the policy used when neither the stored cutoff nor the raw
// payload yields one.
type Fallback string

const (
	// FallbackLast uses the last observed price timestamp. The cutoff may
	// move on a later run as more ticks arrive; downstream rows derived
	// from it are revisable by construction.
	FallbackLast Fallback = "last"
	// FallbackNow uses the current time.
	FallbackNow Fallback = "now"
	// FallbackSkip excludes the market from derivation.
	FallbackSkip Fallback = "skip"
)

// CutoffWriter persists extracted cutoffs.
type CutoffWriter interface {
	SetCutoff(ctx context.Context, marketID string, cutoff time.Time) error
}

// Resolver decides each market's cutoff.
type Resolver struct {
	writer   CutoffWriter
	fallback Fallback
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver with the given fallback policy.
func NewResolver(writer CutoffWriter, fallback Fallback, opts ...Option) *Resolver {
	r := &Resolver{
		writer:   writer,
		fallback: fallback,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the market's cutoff, trying in order: the persisted value,
// extraction from the raw payload (persisted on success), then the fallback
// policy against the market's observed price series. The second return is
// false when the policy says to skip the market.
func (r *Resolver) Resolve(ctx context.Context, m model.Market, series []model.PriceTick) (time.Time, bool) {
	if m.Cutoff != nil {
		return m.Cutoff.UTC(), true
	}

	if t, ok := extract(m.Raw); ok {
		if r.writer != nil {
			if err := r.writer.SetCutoff(ctx, m.MarketID, t); err != nil {
				r.logger.Warn("persist cutoff failed", "market_id", m.MarketID, "error", err)
			}
		}
		return t, true
	}

	switch r.fallback {
	case FallbackLast:
		if len(series) > 0 {
			return series[len(series)-1].TS.UTC(), true
		}
		return time.Time{}, false
	case FallbackNow:
		return r.now().UTC(), true
	default:
		return time.Time{}, false
	}
}

// SnapshotTime returns the timestamp to record for a live observation of a
// market with the given cutoff: once the cutoff has passed, observations are
// stamped just inside the boundary so they stay usable for derivation.
func (r *Resolver) SnapshotTime(cutoff time.Time) time.Time {
	now := r.now().UTC()
	if !cutoff.IsZero() && cutoff.Before(now) {
		return cutoff.Add(-time.Second)
	}
	return now
}

// Backfill extracts and persists cutoffs for markets that lack one. Returns
// the number of markets updated.
func (r *Resolver) Backfill(ctx context.Context, markets []model.Market) int {
	updated := 0
	for _, m := range markets {
		t, ok := extract(m.Raw)
		if !ok {
			continue
		}
		if err := r.writer.SetCutoff(ctx, m.MarketID, t); err != nil {
			r.logger.Warn("persist cutoff failed", "market_id", m.MarketID, "error", err)
			continue
		}
		updated++
	}
	return updated
}

// extract pulls a cutoff out of a raw payload document.
func extract(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return time.Time{}, false
	}
	return resolve.Cutoff(doc)
}
