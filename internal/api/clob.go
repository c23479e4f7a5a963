package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// terminalCursor is the sentinel the CLOB API returns on the last page.
const terminalCursor = "LTE="

// CLOBMarketsPage is one page of the CLOB market listing.
type CLOBMarketsPage struct {
	Markets    []map[string]any
	NextCursor string
}

// GetCLOBMarkets fetches one page of the CLOB market listing. An empty
// cursor requests the first page.
func (c *Client) GetCLOBMarkets(ctx context.Context, cursor string) (*CLOBMarketsPage, *FetchResult, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("next_cursor", cursor)
	}

	res, err := c.doWithRetry(ctx, c.clobURL, "/markets", query)
	if err != nil {
		return nil, res, fmt.Errorf("get clob markets: %w", err)
	}

	var envelope struct {
		Markets    []map[string]any `json:"markets"`
		Data       []map[string]any `json:"data"`
		NextCursor string           `json:"next_cursor"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return nil, res, fmt.Errorf("get clob markets: unmarshal response: %w", err)
	}

	markets := envelope.Markets
	if markets == nil {
		markets = envelope.Data
	}

	return &CLOBMarketsPage{Markets: markets, NextCursor: envelope.NextCursor}, res, nil
}

// ForEachCLOBPage walks the cursor-paginated CLOB market listing until the
// server omits the cursor or returns the terminal sentinel. The loop bound
// is the server-provided termination, not a client-side page cap, so the
// enumeration is complete.
func (c *Client) ForEachCLOBPage(ctx context.Context, fn func(markets []map[string]any, res *FetchResult) error) error {
	cursor := ""
	for {
		page, res, err := c.GetCLOBMarkets(ctx, cursor)
		if err != nil {
			return err
		}

		if err := fn(page.Markets, res); err != nil {
			if errors.Is(err, ErrStopPagination) {
				return nil
			}
			return err
		}

		if page.NextCursor == "" || page.NextCursor == terminalCursor {
			return nil
		}
		cursor = page.NextCursor
	}
}
