package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrStopPagination may be returned by a page callback to end enumeration
// early without reporting an error.
var ErrStopPagination = errors.New("stop pagination")

// GetGammaMarkets fetches one page of markets from the Gamma API.
// The payload shape varies (bare array, or wrapped under "data"/"markets"),
// so items are returned as decoded JSON objects for the resolver.
func (c *Client) GetGammaMarkets(ctx context.Context, limit, offset int) ([]map[string]any, *FetchResult, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	res, err := c.doWithRetry(ctx, c.gammaURL, "/markets", query)
	if err != nil {
		return nil, res, fmt.Errorf("get gamma markets: %w", err)
	}

	markets, err := parseMarketList(res.Body)
	if err != nil {
		return nil, res, fmt.Errorf("get gamma markets: %w", err)
	}
	return markets, res, nil
}

// ForEachGammaPage walks the offset-paginated Gamma markets listing.
// Enumeration terminates when the server returns a page shorter than the
// page size, or when fn returns ErrStopPagination.
func (c *Client) ForEachGammaPage(ctx context.Context, pageSize int, fn func(markets []map[string]any, res *FetchResult) error) error {
	for offset := 0; ; offset += pageSize {
		markets, res, err := c.GetGammaMarkets(ctx, pageSize, offset)
		if err != nil {
			return err
		}

		if err := fn(markets, res); err != nil {
			if errors.Is(err, ErrStopPagination) {
				return nil
			}
			return err
		}

		if len(markets) < pageSize {
			return nil
		}
	}
}

// parseMarketList tolerates the known Gamma list envelopes.
func parseMarketList(body []byte) ([]map[string]any, error) {
	var arr []map[string]any
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected payload shape: %w", err)
	}

	for _, key := range []string{"data", "markets"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("unexpected %q shape: %w", key, err)
		}
		return arr, nil
	}

	return nil, errors.New("unexpected payload shape: no market list found")
}
