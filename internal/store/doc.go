// Package store persists pipeline data in PostgreSQL.
//
// Two write disciplines cover every table. Metadata tables (events, markets,
// tokens, clob_markets) merge forward: non-null incoming fields win and a
// null never erases a stored value. Time-series tables (price_history,
// book_snapshots, holders_snapshot) are append-only with DO NOTHING on
// natural-key conflict. Either way, re-running ingestion with overlapping
// data is a safe no-op.
package store
