package model

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Metadata Types (merged-forward on upsert)
// -----------------------------------------------------------------------------

// Event represents a group of related markets (e.g., "2026 Midterms").
type Event struct {
	EventID  string  // Primary key
	Title    *string // Display title
	Category *string // Category (e.g., "Politics")
	Tags     []string
}

// Market represents a tradeable prediction market.
//
// MarketID is the stable identity chosen from provider id > internal id > slug.
// Nullable fields are pointers; an upsert with a nil field never erases a
// previously stored value.
type Market struct {
	MarketID        string     // Primary key
	EventID         *string    // Owning event group
	Question        *string    // Market question text
	Slug            *string    // Gamma slug
	AltSlug         *string    // CLOB slug variant
	ConditionID     *string    // CLOB condition id (holders lookup key)
	EndTime         *time.Time // Scheduled end time
	Cutoff          *time.Time // Resolution cutoff; nil until resolved
	ResolvedOutcome *string    // Settlement label when known
	Raw             json.RawMessage
}

// TokenPair is the YES/NO token pair of a binary market.
// TokenIDYes is the dedup key; TokenIDNo may be backfilled later.
type TokenPair struct {
	TokenIDYes string
	TokenIDNo  *string
	MarketID   string
}

// CLOBMarket is a staging row from the CLOB market listing, keyed by slug.
// The token mapper joins it against markets to backfill token pairs.
type CLOBMarket struct {
	Slug        string
	ConditionID *string
	Tokens      json.RawMessage // raw tokens array
	Raw         json.RawMessage
}

// -----------------------------------------------------------------------------
// Time-Series Types (append-only, immutable once written)
// -----------------------------------------------------------------------------

// PriceTick is one point of a token's price history.
// Price is a normalized probability in [0,1]; raw feeds that deliver cents
// (magnitude > 1.0) are divided by 100 at ingestion.
type PriceTick struct {
	TokenID string
	TS      time.Time
	Price   float64
	Volume  float64 // non-negative, 0 when the feed omits it
	Raw     json.RawMessage
}

// BookSnapshot is a top-of-book order book observation for one token.
// Mid and Spread are derived: both sides present -> midpoint and ask-bid;
// one side present -> Mid is that side and Spread stays nil.
type BookSnapshot struct {
	TokenID string
	TS      time.Time
	BestBid *float64
	BestAsk *float64
	Mid     *float64
	Spread  *float64
	Depth   float64 // sum of top-of-book quantities
	Raw     json.RawMessage
}

// HolderSnapshot is a bounded ranked list of a market's top holders.
type HolderSnapshot struct {
	MarketID   string
	TS         time.Time
	TopHolders json.RawMessage
}

// -----------------------------------------------------------------------------
// Derived Types
// -----------------------------------------------------------------------------

// FeatureRow is the fixed-shape, leakage-safe feature vector for one market.
// Rows are fully recomputed and replaced on each aggregation run.
type FeatureRow struct {
	MarketID  string
	Question  *string
	CutoffTS  time.Time
	TokenUsed *string // token whose price series drove the window stats

	// Last observed top-of-book state strictly before cutoff.
	LastMid float64
	LastBid *float64
	LastAsk *float64
	Spread  *float64
	Depth   *float64

	// Trailing-window statistics, all strictly before cutoff.
	Vol1h  float64
	Vol24h float64
	Vol7d  float64

	Volat1h  float64
	Volat24h float64
	Volat7d  float64

	Momentum1h  float64
	Momentum24h float64

	LabelOutcome *string
}

// MarketTokens joins a market with its token pair for per-market tasks.
type MarketTokens struct {
	Market Market
	Tokens TokenPair
}

// NormalizeProb normalizes a raw price that may be quoted in cents (>1.0)
// or already as a probability (0..1). Values above 1.0 are divided by 100.
// A value of exactly 1.0 is treated as a probability; a genuine cents value
// of 1 is indistinguishable from it, and that ambiguity is accepted.
func NormalizeProb(v float64) float64 {
	if v > 1.0 {
		return v / 100.0
	}
	return v
}

// Ptr returns a pointer to v. Convenience for optional fields.
func Ptr[T any](v T) *T { return &v }

// StrOrNil returns nil for the empty string, otherwise a pointer to s.
func StrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
