package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create all pipeline tables. Statements are idempotent so
// bootstrap is safe on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		event_id    TEXT PRIMARY KEY,
		title       TEXT,
		category    TEXT,
		tags        TEXT[],
		created_at  TIMESTAMPTZ DEFAULT now(),
		updated_at  TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS markets (
		market_id         TEXT PRIMARY KEY,
		event_id          TEXT,
		question          TEXT,
		slug              TEXT,
		alt_slug          TEXT,
		condition_id      TEXT,
		end_time          TIMESTAMPTZ,
		resolution_cutoff TIMESTAMPTZ,
		resolved_outcome  TEXT,
		raw_payload       JSONB,
		inserted_at       TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS clob_markets (
		slug         TEXT PRIMARY KEY,
		condition_id TEXT,
		tokens       JSONB,
		raw          JSONB,
		inserted_at  TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		token_id_yes TEXT PRIMARY KEY,
		token_id_no  TEXT,
		market_id    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		token_id TEXT NOT NULL,
		ts       TIMESTAMPTZ NOT NULL,
		price    DOUBLE PRECISION NOT NULL,
		volume   DOUBLE PRECISION NOT NULL DEFAULT 0,
		raw      JSONB,
		PRIMARY KEY (token_id, ts)
	)`,
	`CREATE TABLE IF NOT EXISTS book_snapshots (
		token_id  TEXT NOT NULL,
		ts        TIMESTAMPTZ NOT NULL,
		best_bid  DOUBLE PRECISION,
		best_ask  DOUBLE PRECISION,
		mid       DOUBLE PRECISION,
		spread    DOUBLE PRECISION,
		depth     DOUBLE PRECISION NOT NULL DEFAULT 0,
		raw       JSONB,
		PRIMARY KEY (token_id, ts)
	)`,
	`CREATE TABLE IF NOT EXISTS holders_snapshot (
		market_id   TEXT NOT NULL,
		ts          TIMESTAMPTZ NOT NULL,
		top_holders JSONB,
		PRIMARY KEY (market_id, ts)
	)`,
	`CREATE TABLE IF NOT EXISTS ingest_log (
		id        BIGSERIAL PRIMARY KEY,
		run_id    UUID,
		market_id TEXT,
		endpoint  TEXT NOT NULL,
		url       TEXT NOT NULL,
		params    JSONB,
		status    INT NOT NULL,
		sha256    TEXT NOT NULL,
		ts        TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS features_pre_res (
		market_id     TEXT PRIMARY KEY,
		question      TEXT,
		cutoff_ts     TIMESTAMPTZ NOT NULL,
		token_used    TEXT,
		last_mid      DOUBLE PRECISION NOT NULL,
		last_bid      DOUBLE PRECISION,
		last_ask      DOUBLE PRECISION,
		spread        DOUBLE PRECISION,
		depth         DOUBLE PRECISION,
		vol_1h        DOUBLE PRECISION NOT NULL DEFAULT 0,
		vol_24h       DOUBLE PRECISION NOT NULL DEFAULT 0,
		vol_7d        DOUBLE PRECISION NOT NULL DEFAULT 0,
		volat_1h      DOUBLE PRECISION NOT NULL DEFAULT 0,
		volat_24h     DOUBLE PRECISION NOT NULL DEFAULT 0,
		volat_7d      DOUBLE PRECISION NOT NULL DEFAULT 0,
		momentum_1h   DOUBLE PRECISION NOT NULL DEFAULT 0,
		momentum_24h  DOUBLE PRECISION NOT NULL DEFAULT 0,
		label_outcome TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_markets_slug ON markets (slug)`,
	`CREATE INDEX IF NOT EXISTS idx_tokens_market ON tokens (market_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_log_endpoint ON ingest_log (endpoint, ts)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
