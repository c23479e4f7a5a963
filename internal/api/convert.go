package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
)

// toFloat coerces the numeric encodings seen in book payloads (numbers,
// numeric strings) to float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// levelPrice reads a level's price under p/price and normalizes it to a
// probability.
func levelPrice(row any) *float64 {
	obj, ok := row.(map[string]any)
	if !ok {
		return nil
	}
	v, ok := obj["p"]
	if !ok {
		v = obj["price"]
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	p := model.NormalizeProb(f)
	return &p
}

// levelQty reads a level's quantity under q/quantity, 0 when missing.
func levelQty(row any) float64 {
	obj, ok := row.(map[string]any)
	if !ok {
		return 0
	}
	v, ok := obj["q"]
	if !ok {
		v = obj["quantity"]
	}
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return f
}

// BestLevels computes best bid/ask as probabilities and top-of-book depth
// (sum of level-1 quantities on both sides).
func BestLevels(book *Book) (bid, ask *float64, depth float64) {
	if len(book.Bids) > 0 {
		bid = levelPrice(book.Bids[0])
		depth += levelQty(book.Bids[0])
	}
	if len(book.Asks) > 0 {
		ask = levelPrice(book.Asks[0])
		depth += levelQty(book.Asks[0])
	}
	return bid, ask, depth
}

// ToBookSnapshot converts an accepted book payload into a snapshot row.
// Mid and spread are derived only when both sides exist; with one side,
// mid is that side and spread stays unset.
func (b *Book) ToBookSnapshot(tokenID string, ts time.Time) model.BookSnapshot {
	bid, ask, depth := BestLevels(b)

	var mid, spread *float64
	switch {
	case bid != nil && ask != nil:
		m := 0.5 * (*bid + *ask)
		s := *ask - *bid
		mid, spread = &m, &s
	case bid != nil:
		mid = bid
	case ask != nil:
		mid = ask
	}

	return model.BookSnapshot{
		TokenID: tokenID,
		TS:      ts,
		BestBid: bid,
		BestAsk: ask,
		Mid:     mid,
		Spread:  spread,
		Depth:   depth,
		Raw:     b.Raw(),
	}
}
