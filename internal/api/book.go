package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// Book is a structurally validated order book payload: both sides are
// arrays (possibly empty) of level objects in whatever shape the upstream
// variant used.
type Book struct {
	Bids []any
	Asks []any
}

// Raw re-encodes the accepted book shape for verbatim retention.
func (b *Book) Raw() json.RawMessage {
	raw, err := json.Marshal(map[string]any{"bids": b.Bids, "asks": b.Asks})
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

// Empty reports whether the book has no levels on either side.
func (b *Book) Empty() bool {
	return len(b.Bids) == 0 && len(b.Asks) == 0
}

// FetchOrderBook retrieves a single order book snapshot for a token.
//
// The order book endpoint's true schema is unknown and unstable upstream,
// so the client iterates the configured ordered candidate list of
// (path, parameter-name) combinations and accepts the first response that
// parses into a structurally valid shape (arrays present, even if empty)
// rather than the first 2xx, because some variants return 2xx with an
// unusable body. If no candidate succeeds, a synthetic empty book is
// returned with status 200 so downstream logic can distinguish "confirmed
// empty" from "unreachable".
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string, depth int) (*Book, *FetchResult) {
	for _, cand := range c.bookCandidates {
		query := url.Values{}
		query.Set(cand.Param, tokenID)
		query.Set("depth", strconv.Itoa(depth))

		res, err := c.doRequest(ctx, c.clobURL, "/"+cand.Path, query)
		if err != nil {
			c.logger.Debug("book candidate failed",
				"path", cand.Path,
				"param", cand.Param,
				"err", err,
			)
			continue
		}

		if book, ok := parseBook(res.Body); ok {
			return book, res
		}
	}

	// Fallback: confirmed-empty book with status 200 for a graceful skip
	// downstream.
	fallback := c.bookCandidates[0]
	query := url.Values{}
	query.Set(fallback.Param, tokenID)
	query.Set("depth", strconv.Itoa(depth))

	empty := &Book{Bids: []any{}, Asks: []any{}}
	return empty, &FetchResult{
		URL:    c.clobURL + "/" + fallback.Path,
		Params: query,
		Status: 200,
		Body:   empty.Raw(),
	}
}

// parseBook accepts a payload whose bids or asks decode as arrays.
func parseBook(body []byte) (*Book, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}

	bids, bidsOK := sideArray(payload, "bids", "bestBids")
	asks, asksOK := sideArray(payload, "asks", "bestAsks")
	if !bidsOK && !asksOK {
		return nil, false
	}

	if bids == nil {
		bids = []any{}
	}
	if asks == nil {
		asks = []any{}
	}
	return &Book{Bids: bids, Asks: asks}, true
}

func sideArray(payload map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if arr, ok := payload[k].([]any); ok {
			return arr, true
		}
	}
	return nil, false
}
