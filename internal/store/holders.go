package store

import (
	"context"
	"fmt"

	"github.com/polymktlab/poly-data/internal/metrics"
	"github.com/polymktlab/poly-data/internal/model"
)

// InsertHolderSnapshot appends one top-holders observation keyed by
// (market_id, ts). A re-observation at the same instant is a no-op.
func (s *Store) InsertHolderSnapshot(ctx context.Context, snap model.HolderSnapshot) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO holders_snapshot (market_id, ts, top_holders)
		VALUES ($1, $2, $3)
		ON CONFLICT (market_id, ts) DO NOTHING
	`, snap.MarketID, snap.TS, snap.TopHolders)
	if err != nil {
		return fmt.Errorf("insert holder snapshot %s: %w", snap.MarketID, err)
	}
	if tag.RowsAffected() == 0 {
		metrics.Conflicts.WithLabelValues("holders_snapshot").Inc()
	} else {
		metrics.RowsInserted.WithLabelValues("holders_snapshot").Inc()
	}
	return nil
}
