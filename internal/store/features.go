package store

import (
	"context"
	"fmt"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
)

// UpsertFeatureRow replaces a market's feature vector wholesale. Feature rows
// are a pure derivation of stored history, so a rerun overwrites every column
// rather than merging.
func (s *Store) UpsertFeatureRow(ctx context.Context, row model.FeatureRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO features_pre_res (
			market_id, question, cutoff_ts, token_used,
			last_mid, last_bid, last_ask, spread, depth,
			vol_1h, vol_24h, vol_7d,
			volat_1h, volat_24h, volat_7d,
			momentum_1h, momentum_24h,
			label_outcome
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (market_id) DO UPDATE SET
			question      = EXCLUDED.question,
			cutoff_ts     = EXCLUDED.cutoff_ts,
			token_used    = EXCLUDED.token_used,
			last_mid      = EXCLUDED.last_mid,
			last_bid      = EXCLUDED.last_bid,
			last_ask      = EXCLUDED.last_ask,
			spread        = EXCLUDED.spread,
			depth         = EXCLUDED.depth,
			vol_1h        = EXCLUDED.vol_1h,
			vol_24h       = EXCLUDED.vol_24h,
			vol_7d        = EXCLUDED.vol_7d,
			volat_1h      = EXCLUDED.volat_1h,
			volat_24h     = EXCLUDED.volat_24h,
			volat_7d      = EXCLUDED.volat_7d,
			momentum_1h   = EXCLUDED.momentum_1h,
			momentum_24h  = EXCLUDED.momentum_24h,
			label_outcome = EXCLUDED.label_outcome
	`, row.MarketID, row.Question, row.CutoffTS, row.TokenUsed,
		row.LastMid, row.LastBid, row.LastAsk, row.Spread, row.Depth,
		row.Vol1h, row.Vol24h, row.Vol7d,
		row.Volat1h, row.Volat24h, row.Volat7d,
		row.Momentum1h, row.Momentum24h,
		row.LabelOutcome)
	if err != nil {
		return fmt.Errorf("upsert feature row %s: %w", row.MarketID, err)
	}
	return nil
}

// ListFeatureRows returns every derived feature vector, ordered by cutoff
// descending so the freshest markets export first.
func (s *Store) ListFeatureRows(ctx context.Context) ([]model.FeatureRow, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(rctx, `
		SELECT market_id, question, cutoff_ts, token_used,
		       last_mid, last_bid, last_ask, spread, depth,
		       vol_1h, vol_24h, vol_7d,
		       volat_1h, volat_24h, volat_7d,
		       momentum_1h, momentum_24h,
		       label_outcome
		FROM features_pre_res
		ORDER BY cutoff_ts DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list feature rows: %w", err)
	}
	defer rows.Close()

	var out []model.FeatureRow
	for rows.Next() {
		var r model.FeatureRow
		if err := rows.Scan(
			&r.MarketID, &r.Question, &r.CutoffTS, &r.TokenUsed,
			&r.LastMid, &r.LastBid, &r.LastAsk, &r.Spread, &r.Depth,
			&r.Vol1h, &r.Vol24h, &r.Vol7d,
			&r.Volat1h, &r.Volat24h, &r.Volat7d,
			&r.Momentum1h, &r.Momentum24h,
			&r.LabelOutcome,
		); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TickExportRow is one row of the flat tick export: a price point joined
// with its market's identity.
type TickExportRow struct {
	MarketID string
	Question *string
	TokenID  string
	TS       time.Time
	Price    float64
	Volume   float64
}

// ListTickExportRows returns pre-cutoff price history joined against market
// metadata, ordered by market then time, for the flat CSV export.
func (s *Store) ListTickExportRows(ctx context.Context) ([]TickExportRow, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(rctx, `
		SELECT m.market_id, m.question, p.token_id, p.ts, p.price, COALESCE(p.volume, 0)
		FROM price_history p
		JOIN tokens t  ON t.token_id_yes = p.token_id OR t.token_id_no = p.token_id
		JOIN markets m ON m.market_id = t.market_id
		WHERE m.resolution_cutoff IS NULL OR p.ts < m.resolution_cutoff
		ORDER BY m.market_id, p.ts
	`)
	if err != nil {
		return nil, fmt.Errorf("list tick export rows: %w", err)
	}
	defer rows.Close()

	var out []TickExportRow
	for rows.Next() {
		var r TickExportRow
		if err := rows.Scan(&r.MarketID, &r.Question, &r.TokenID, &r.TS, &r.Price, &r.Volume); err != nil {
			return nil, fmt.Errorf("scan tick export row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
