package ingest

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polymktlab/poly-data/internal/api"
	"github.com/polymktlab/poly-data/internal/model"
)

// marketCutoff returns the persisted cutoff, zero when unknown.
func marketCutoff(mt model.MarketTokens) time.Time {
	if mt.Market.Cutoff != nil {
		return mt.Market.Cutoff.UTC()
	}
	return time.Time{}
}

// tokensOf lists the market's known token ids, YES first.
func tokensOf(mt model.MarketTokens) []string {
	out := []string{mt.Tokens.TokenIDYes}
	if mt.Tokens.TokenIDNo != nil && *mt.Tokens.TokenIDNo != "" {
		out = append(out, *mt.Tokens.TokenIDNo)
	}
	return out
}

// forEachMarket runs fn per market under the configured concurrency cap.
// Tasks share no state beyond the store; fn must absorb its own failures.
func (r *Runner) forEachMarket(ctx context.Context, marketTokens []model.MarketTokens, fn func(ctx context.Context, mt model.MarketTokens)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, mt := range marketTokens {
		mt := mt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, mt)
			return nil
		})
	}
	return g.Wait()
}

// CollectBooks snapshots the order book of every known token. Snapshots of
// already-resolved markets are stamped just inside the cutoff so they stay
// usable for derivation.
func (r *Runner) CollectBooks(ctx context.Context, marketTokens []model.MarketTokens) error {
	return r.forEachMarket(ctx, marketTokens, func(ctx context.Context, mt model.MarketTokens) {
		ts := r.resolver.SnapshotTime(marketCutoff(mt))
		for _, tokenID := range tokensOf(mt) {
			book, res := r.client.FetchOrderBook(ctx, tokenID, r.cfg.BookDepth)
			r.audit(ctx, &mt.Market.MarketID, "order_book", res)

			snap := book.ToBookSnapshot(tokenID, ts)
			if snap.Mid == nil && snap.Depth == 0 {
				// Nothing observed on either side. Keep the audit entry but
				// no snapshot row: an empty observation must not shadow an
				// earlier real one in latest-before-cutoff reads.
				r.finish("books", tokenID, OutcomeSkipped, nil)
				continue
			}
			if err := r.store.InsertBookSnapshot(ctx, snap); err != nil {
				r.finish("books", tokenID, OutcomeFailed, err)
				continue
			}
			r.finish("books", tokenID, OutcomeOK, nil)
		}
	})
}

// CollectPrices fetches each token's price history and appends the ticks.
// When the cutoff is known the request is bounded to end just inside it;
// otherwise the interval=max sentinel asks for full history.
func (r *Runner) CollectPrices(ctx context.Context, marketTokens []model.MarketTokens) error {
	return r.forEachMarket(ctx, marketTokens, func(ctx context.Context, mt model.MarketTokens) {
		var endTs *int64
		if cut := marketCutoff(mt); !cut.IsZero() {
			end := cut.Add(-time.Second).Unix()
			endTs = &end
		}

		for _, tokenID := range tokensOf(mt) {
			points, res, err := r.client.GetPriceHistory(ctx, tokenID, nil, endTs)
			r.audit(ctx, &mt.Market.MarketID, "price_history", res)
			if err != nil {
				if api.IsPermanent(err) {
					r.finish("prices", tokenID, OutcomeSkipped, nil)
				} else {
					r.finish("prices", tokenID, OutcomeFailed, err)
				}
				continue
			}

			ticks := make([]model.PriceTick, 0, len(points))
			for _, p := range points {
				if p.Price == nil {
					continue
				}
				volume := 0.0
				if p.Volume != nil {
					volume = *p.Volume
				}
				ticks = append(ticks, model.PriceTick{
					TokenID: tokenID,
					TS:      p.TS,
					Price:   model.NormalizeProb(*p.Price),
					Volume:  volume,
					Raw:     p.Raw,
				})
			}

			if _, _, err := r.store.InsertPriceTicks(ctx, ticks); err != nil {
				r.finish("prices", tokenID, OutcomeFailed, err)
				continue
			}
			r.finish("prices", tokenID, OutcomeOK, nil)
		}
	})
}

// CollectHolders snapshots the top holders of every market that has a
// condition id. Markets without one are skipped.
func (r *Runner) CollectHolders(ctx context.Context, marketTokens []model.MarketTokens) error {
	return r.forEachMarket(ctx, marketTokens, func(ctx context.Context, mt model.MarketTokens) {
		marketID := mt.Market.MarketID
		if mt.Market.ConditionID == nil || *mt.Market.ConditionID == "" {
			r.finish("holders", marketID, OutcomeSkipped, nil)
			return
		}

		holders, res, err := r.client.GetHolders(ctx, *mt.Market.ConditionID)
		r.audit(ctx, &marketID, "holders", res)
		if err != nil {
			if api.IsPermanent(err) {
				r.finish("holders", marketID, OutcomeSkipped, nil)
			} else {
				r.finish("holders", marketID, OutcomeFailed, err)
			}
			return
		}

		if n := r.cfg.TopHolders; n > 0 && len(holders) > n {
			holders = holders[:n]
		}
		top, err := json.Marshal(holders)
		if err != nil {
			r.finish("holders", marketID, OutcomeFailed, err)
			return
		}

		snap := model.HolderSnapshot{
			MarketID:   marketID,
			TS:         r.resolver.SnapshotTime(marketCutoff(mt)),
			TopHolders: top,
		}
		if err := r.store.InsertHolderSnapshot(ctx, snap); err != nil {
			r.finish("holders", marketID, OutcomeFailed, err)
			return
		}
		r.finish("holders", marketID, OutcomeOK, nil)
	})
}
