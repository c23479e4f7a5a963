package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polymktlab/poly-data/internal/metrics"
	"github.com/polymktlab/poly-data/internal/model"
)

// InsertPriceTicks appends price history rows in one batch. The natural key
// (token_id, ts) dedups re-fetches: conflicting rows are dropped as no-ops
// and counted, never updated. Returns (inserted, conflicts).
func (s *Store) InsertPriceTicks(ctx context.Context, ticks []model.PriceTick) (int, int, error) {
	if len(ticks) == 0 {
		return 0, 0, nil
	}

	batch := &pgx.Batch{}
	for _, tk := range ticks {
		batch.Queue(`
			INSERT INTO price_history (token_id, ts, price, volume, raw)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (token_id, ts) DO NOTHING
		`, tk.TokenID, tk.TS, tk.Price, tk.Volume, tk.Raw)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range ticks {
		tag, err := results.Exec()
		if err != nil {
			return inserted, 0, fmt.Errorf("insert price tick: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	conflicts := len(ticks) - inserted

	metrics.RowsInserted.WithLabelValues("price_history").Add(float64(inserted))
	metrics.Conflicts.WithLabelValues("price_history").Add(float64(conflicts))

	if conflicts > 0 {
		s.logger.Debug("price ticks deduplicated",
			"token_id", ticks[0].TokenID,
			"inserted", inserted,
			"conflicts", conflicts)
	}
	return inserted, conflicts, nil
}

// PriceSeries returns a token's price history strictly before the cutoff,
// ascending by timestamp.
func (s *Store) PriceSeries(ctx context.Context, tokenID string, before time.Time) ([]model.PriceTick, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(rctx, `
		SELECT token_id, ts, price, COALESCE(volume, 0)
		FROM price_history
		WHERE token_id = $1 AND ts < $2
		ORDER BY ts ASC
	`, tokenID, before)
	if err != nil {
		return nil, fmt.Errorf("price series %s: %w", tokenID, err)
	}
	defer rows.Close()

	var out []model.PriceTick
	for rows.Next() {
		var tk model.PriceTick
		if err := rows.Scan(&tk.TokenID, &tk.TS, &tk.Price, &tk.Volume); err != nil {
			return nil, fmt.Errorf("scan price tick: %w", err)
		}
		out = append(out, tk)
	}
	return out, rows.Err()
}
