package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/polymktlab/poly-data/internal/api"
	"github.com/polymktlab/poly-data/internal/model"
	"github.com/polymktlab/poly-data/internal/resolve"
)

// SyncGammaMarkets walks the Gamma markets listing and merges metadata
// forward. A payload without a resolvable market id is skipped, never fatal.
func (r *Runner) SyncGammaMarkets(ctx context.Context) error {
	total := 0
	err := r.client.ForEachGammaPage(ctx, r.cfg.PageSize, func(markets []map[string]any, res *api.FetchResult) error {
		r.audit(ctx, nil, "gamma_markets", res)

		for _, raw := range markets {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, id, err := r.syncGammaMarket(ctx, raw)
			r.finish("gamma_sync", id, outcome, err)
			total++
		}

		if r.cfg.MarketLimit > 0 && total >= r.cfg.MarketLimit {
			return api.ErrStopPagination
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync gamma markets: %w", err)
	}

	r.logger.Info("gamma sync complete", "markets", total)
	return nil
}

func (r *Runner) syncGammaMarket(ctx context.Context, raw map[string]any) (Outcome, string, error) {
	marketID, ok := resolve.MarketID(raw)
	if !ok {
		return OutcomeSkipped, "", nil
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return OutcomeFailed, marketID, err
	}

	eventID, ok := resolve.EventID(raw)
	if !ok {
		eventID = "ev_" + marketID
	}
	question, _ := resolve.Question(raw)
	if err := r.store.UpsertEvent(ctx, model.Event{
		EventID: eventID,
		Title:   model.StrOrNil(question),
	}); err != nil {
		return OutcomeFailed, marketID, err
	}

	m := model.Market{
		MarketID: marketID,
		EventID:  &eventID,
		Question: model.StrOrNil(question),
		Raw:      payload,
	}
	if slug, ok := resolve.Slug(raw); ok {
		m.Slug = &slug
	}
	if cond, ok := resolve.ConditionID(raw); ok {
		m.ConditionID = &cond
	}
	if end, ok := resolve.EndTime(raw); ok {
		m.EndTime = &end
	}
	if err := r.store.UpsertMarket(ctx, m); err != nil {
		return OutcomeFailed, marketID, err
	}

	// Some Gamma payloads already carry the token pair.
	if yes, no := resolve.TokenIDs(raw); yes != "" {
		pair := model.TokenPair{TokenIDYes: yes, TokenIDNo: model.StrOrNil(no), MarketID: marketID}
		if err := r.store.UpsertTokens(ctx, pair); err != nil {
			return OutcomeFailed, marketID, err
		}
	}
	return OutcomeOK, marketID, nil
}

// SyncCLOBMarkets walks the cursor-paginated CLOB listing into the staging
// table keyed by slug. The token mapper later joins it against markets.
func (r *Runner) SyncCLOBMarkets(ctx context.Context) error {
	total := 0
	err := r.client.ForEachCLOBPage(ctx, func(markets []map[string]any, res *api.FetchResult) error {
		r.audit(ctx, nil, "clob_markets", res)

		for _, raw := range markets {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, slug, err := r.syncCLOBMarket(ctx, raw)
			r.finish("clob_sync", slug, outcome, err)
			total++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync clob markets: %w", err)
	}

	r.logger.Info("clob sync complete", "markets", total)
	return nil
}

func (r *Runner) syncCLOBMarket(ctx context.Context, raw map[string]any) (Outcome, string, error) {
	slug, ok := resolve.Slug(raw)
	if !ok {
		return OutcomeSkipped, "", nil
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return OutcomeFailed, slug, err
	}

	m := model.CLOBMarket{Slug: slug, Raw: payload}
	if cond, ok := resolve.ConditionID(raw); ok {
		m.ConditionID = &cond
	}
	if toks, present := raw["tokens"]; present {
		if tokensJSON, err := json.Marshal(toks); err == nil {
			m.Tokens = tokensJSON
		}
	}
	if err := r.store.UpsertCLOBMarket(ctx, m); err != nil {
		return OutcomeFailed, slug, err
	}
	return OutcomeOK, slug, nil
}

// MapTokens backfills token pairs from staged CLOB rows joined to markets
// by slug. Question-matched alt slugs are filled first so the join also
// covers markets whose Gamma and CLOB slugs disagree.
func (r *Runner) MapTokens(ctx context.Context) error {
	if n, err := r.store.BackfillAltSlugs(ctx); err != nil {
		r.logger.Warn("alt slug backfill failed", "error", err)
	} else if n > 0 {
		r.logger.Info("alt slugs backfilled", "markets", n)
	}

	rows, err := r.store.ListCLOBTokenRows(ctx, r.cfg.MarketLimit)
	if err != nil {
		return fmt.Errorf("map tokens: %w", err)
	}

	mapped := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		var arr []any
		if len(row.Tokens) == 0 || json.Unmarshal(row.Tokens, &arr) != nil {
			r.finish("token_map", row.MarketID, OutcomeSkipped, nil)
			continue
		}
		yes, no := resolve.PickYesNo(arr)
		if yes == "" {
			r.finish("token_map", row.MarketID, OutcomeSkipped, nil)
			continue
		}

		pair := model.TokenPair{TokenIDYes: yes, TokenIDNo: model.StrOrNil(no), MarketID: row.MarketID}
		if err := r.store.UpsertTokens(ctx, pair); err != nil {
			r.finish("token_map", row.MarketID, OutcomeFailed, err)
			continue
		}
		r.finish("token_map", row.MarketID, OutcomeOK, nil)
		mapped++
	}

	r.logger.Info("token mapping complete", "rows", len(rows), "mapped", mapped)
	return nil
}

// BackfillCutoffs extracts resolution cutoffs from the stored raw payloads
// of markets that still lack one.
func (r *Runner) BackfillCutoffs(ctx context.Context) error {
	markets, err := r.store.ListMarketsMissingCutoff(ctx, r.cfg.MarketLimit)
	if err != nil {
		return fmt.Errorf("backfill cutoffs: %w", err)
	}

	updated := r.resolver.Backfill(ctx, markets)
	r.logger.Info("cutoff backfill complete", "candidates", len(markets), "updated", updated)
	return nil
}
