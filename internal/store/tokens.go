package store

import (
	"context"
	"fmt"

	"github.com/polymktlab/poly-data/internal/model"
)

// UpsertTokens writes a token pair keyed by the YES token id.
// The NO side may be backfilled by a later write, but a null NO never
// overwrites a stored value.
func (s *Store) UpsertTokens(ctx context.Context, t model.TokenPair) error {
	if t.TokenIDYes == "" {
		// Nothing to key on yet; the mapper will fill this in once the
		// CLOB listing exposes the pair.
		return nil
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO tokens (token_id_yes, token_id_no, market_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id_yes) DO UPDATE SET
			token_id_no = COALESCE(EXCLUDED.token_id_no, tokens.token_id_no),
			market_id   = EXCLUDED.market_id
	`, t.TokenIDYes, t.TokenIDNo, t.MarketID)
	if err != nil {
		return fmt.Errorf("upsert tokens %s: %w", t.TokenIDYes, err)
	}
	return nil
}
