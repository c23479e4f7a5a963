package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
)

// UpsertEvent merges an event row forward. COALESCE keeps stored values
// when the new write carries nulls.
func (s *Store) UpsertEvent(ctx context.Context, e model.Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO events (event_id, title, category, tags, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (event_id) DO UPDATE SET
			title      = COALESCE(EXCLUDED.title, events.title),
			category   = COALESCE(EXCLUDED.category, events.category),
			tags       = COALESCE(EXCLUDED.tags, events.tags),
			updated_at = now()
	`, e.EventID, e.Title, e.Category, e.Tags)
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", e.EventID, err)
	}
	return nil
}

// UpsertMarket merges a market row forward under its natural key.
// Non-null fields in the new write win; a null never overwrites a stored
// value, so metadata only ever accumulates. The raw payload is replaced
// wholesale (it is the newest full observation and is retained verbatim
// for re-derivation).
func (s *Store) UpsertMarket(ctx context.Context, m model.Market) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO markets (
			market_id, event_id, question, slug, alt_slug, condition_id,
			end_time, resolved_outcome, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (market_id) DO UPDATE SET
			event_id         = COALESCE(EXCLUDED.event_id, markets.event_id),
			question         = COALESCE(EXCLUDED.question, markets.question),
			slug             = COALESCE(EXCLUDED.slug, markets.slug),
			alt_slug         = COALESCE(EXCLUDED.alt_slug, markets.alt_slug),
			condition_id     = COALESCE(EXCLUDED.condition_id, markets.condition_id),
			end_time         = COALESCE(EXCLUDED.end_time, markets.end_time),
			resolved_outcome = COALESCE(EXCLUDED.resolved_outcome, markets.resolved_outcome),
			raw_payload      = COALESCE(EXCLUDED.raw_payload, markets.raw_payload)
	`, m.MarketID, m.EventID, m.Question, m.Slug, m.AltSlug, m.ConditionID,
		m.EndTime, m.ResolvedOutcome, m.Raw)
	if err != nil {
		return fmt.Errorf("upsert market %s: %w", m.MarketID, err)
	}
	return nil
}

// UpsertCLOBMarket stages a CLOB listing row keyed by slug. Tokens and raw
// are replaced (newest observation), condition id merges forward.
func (s *Store) UpsertCLOBMarket(ctx context.Context, m model.CLOBMarket) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO clob_markets (slug, condition_id, tokens, raw, inserted_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (slug) DO UPDATE SET
			condition_id = COALESCE(EXCLUDED.condition_id, clob_markets.condition_id),
			tokens       = EXCLUDED.tokens,
			raw          = EXCLUDED.raw,
			inserted_at  = now()
	`, m.Slug, m.ConditionID, m.Tokens, m.Raw)
	if err != nil {
		return fmt.Errorf("upsert clob market %s: %w", m.Slug, err)
	}
	return nil
}

// SetCutoff persists a resolution cutoff once found. The guard makes the
// write monotonic: it only fills a null cutoff or tightens an existing one
// to an earlier time, never regresses it later or back to null.
func (s *Store) SetCutoff(ctx context.Context, marketID string, cutoff time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE markets
		SET resolution_cutoff = $1
		WHERE market_id = $2
		  AND (resolution_cutoff IS NULL OR resolution_cutoff > $1)
	`, cutoff, marketID)
	if err != nil {
		return fmt.Errorf("set cutoff %s: %w", marketID, err)
	}
	return nil
}

// ListMarketTokens returns the most recent markets joined with their token
// pairs, newest first, for per-market ingestion and aggregation tasks.
func (s *Store) ListMarketTokens(ctx context.Context, limit int) ([]model.MarketTokens, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(rctx, `
		SELECT m.market_id, m.question, m.condition_id, m.resolution_cutoff,
		       m.resolved_outcome, m.raw_payload,
		       t.token_id_yes, t.token_id_no
		FROM markets m
		JOIN tokens t ON t.market_id = m.market_id
		ORDER BY COALESCE(m.resolution_cutoff, m.inserted_at) DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list market tokens: %w", err)
	}
	defer rows.Close()

	var out []model.MarketTokens
	for rows.Next() {
		var mt model.MarketTokens
		if err := rows.Scan(
			&mt.Market.MarketID, &mt.Market.Question, &mt.Market.ConditionID,
			&mt.Market.Cutoff, &mt.Market.ResolvedOutcome, &mt.Market.Raw,
			&mt.Tokens.TokenIDYes, &mt.Tokens.TokenIDNo,
		); err != nil {
			return nil, fmt.Errorf("scan market tokens: %w", err)
		}
		mt.Tokens.MarketID = mt.Market.MarketID
		out = append(out, mt)
	}
	return out, rows.Err()
}

// ListMarketsMissingCutoff returns markets without a persisted cutoff,
// newest first, with their raw payloads for heuristic extraction.
func (s *Store) ListMarketsMissingCutoff(ctx context.Context, limit int) ([]model.Market, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(rctx, `
		SELECT market_id, raw_payload
		FROM markets
		WHERE resolution_cutoff IS NULL
		ORDER BY inserted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list markets missing cutoff: %w", err)
	}
	defer rows.Close()

	var out []model.Market
	for rows.Next() {
		var m model.Market
		if err := rows.Scan(&m.MarketID, &m.Raw); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// BackfillAltSlugs fills each market's alt_slug from a staged CLOB row with
// the same question text when the slugs differ. Gamma and CLOB do not always
// agree on the slug, and the question is the join key the listings share.
// Returns the number of markets updated.
func (s *Store) BackfillAltSlugs(ctx context.Context) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE markets m
		SET alt_slug = c.slug
		FROM clob_markets c
		WHERE m.alt_slug IS NULL
		  AND m.question IS NOT NULL
		  AND lower(m.question) = lower(c.raw->>'question')
		  AND (m.slug IS NULL OR m.slug <> c.slug)
	`)
	if err != nil {
		return 0, fmt.Errorf("backfill alt slugs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CLOBTokenRow joins a market with its staged CLOB tokens array for the
// token mapper.
type CLOBTokenRow struct {
	MarketID string
	Slug     string
	Tokens   json.RawMessage
}

// ListCLOBTokenRows returns markets joined against the CLOB staging table
// on their slug (alt_slug preferred), newest first.
func (s *Store) ListCLOBTokenRows(ctx context.Context, limit int) ([]CLOBTokenRow, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(rctx, `
		SELECT m.market_id, COALESCE(m.alt_slug, m.slug) AS slug_key, c.tokens
		FROM markets m
		JOIN clob_markets c ON c.slug = COALESCE(m.alt_slug, m.slug)
		ORDER BY m.inserted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list clob token rows: %w", err)
	}
	defer rows.Close()

	var out []CLOBTokenRow
	for rows.Next() {
		var r CLOBTokenRow
		if err := rows.Scan(&r.MarketID, &r.Slug, &r.Tokens); err != nil {
			return nil, fmt.Errorf("scan clob token row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
