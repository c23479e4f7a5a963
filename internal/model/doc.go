// Package model defines the shared domain types for the ingestion and
// feature pipeline.
//
// Conventions:
//   - Metadata rows (events, markets, tokens) are merged forward: nil fields
//     on a later write never erase stored values.
//   - Time-series rows (price ticks, book snapshots, holder snapshots) are
//     append-only and immutable under their natural key.
//   - Prices are normalized probabilities in [0,1].
package model
