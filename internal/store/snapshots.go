package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polymktlab/poly-data/internal/metrics"
	"github.com/polymktlab/poly-data/internal/model"
)

// InsertBookSnapshot appends one order book observation. The natural key
// (token_id, ts) drops exact re-observations as no-ops.
func (s *Store) InsertBookSnapshot(ctx context.Context, snap model.BookSnapshot) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO book_snapshots (token_id, ts, best_bid, best_ask, mid, spread, depth, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token_id, ts) DO NOTHING
	`, snap.TokenID, snap.TS, snap.BestBid, snap.BestAsk, snap.Mid, snap.Spread, snap.Depth, snap.Raw)
	if err != nil {
		return fmt.Errorf("insert book snapshot %s: %w", snap.TokenID, err)
	}
	if tag.RowsAffected() == 0 {
		metrics.Conflicts.WithLabelValues("book_snapshots").Inc()
	} else {
		metrics.RowsInserted.WithLabelValues("book_snapshots").Inc()
	}
	return nil
}

// LatestBookBefore returns the newest book snapshot for a token strictly
// before the given time, or nil when none exists.
func (s *Store) LatestBookBefore(ctx context.Context, tokenID string, before time.Time) (*model.BookSnapshot, error) {
	rctx, cancel := s.readCtx(ctx)
	defer cancel()

	var snap model.BookSnapshot
	err := s.db.QueryRow(rctx, `
		SELECT token_id, ts, best_bid, best_ask, mid, spread, COALESCE(depth, 0)
		FROM book_snapshots
		WHERE token_id = $1 AND ts < $2
		ORDER BY ts DESC
		LIMIT 1
	`, tokenID, before).Scan(
		&snap.TokenID, &snap.TS, &snap.BestBid, &snap.BestAsk,
		&snap.Mid, &snap.Spread, &snap.Depth,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest book before %s: %w", tokenID, err)
	}
	return &snap, nil
}
