package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// PricePoint is one raw point of a token's price history.
// Price and Volume stay unnormalized here; persistence applies the
// magnitude heuristic.
type PricePoint struct {
	TS     time.Time
	Price  *float64
	Volume *float64
	Raw    json.RawMessage
}

// GetPriceHistory fetches a token's price/volume series. Bounds are unix
// seconds; when neither bound is given the request carries the
// interval=max sentinel to ask for full history.
//
// A 4xx answer is returned as an error together with the FetchResult so the
// caller can audit-log the exchange and skip the token without aborting
// the batch.
func (c *Client) GetPriceHistory(ctx context.Context, tokenID string, startTs, endTs *int64) ([]PricePoint, *FetchResult, error) {
	query := url.Values{}
	query.Set("market", tokenID)
	if startTs != nil {
		query.Set("startTs", strconv.FormatInt(*startTs, 10))
	}
	if endTs != nil {
		query.Set("endTs", strconv.FormatInt(*endTs, 10))
	}
	// Default to full history when no bounds are provided.
	if startTs == nil && endTs == nil {
		query.Set("interval", "max")
	}

	res, err := c.doWithRetry(ctx, c.clobURL, "/prices-history", query)
	if err != nil {
		return nil, res, fmt.Errorf("get price history: %w", err)
	}

	points, err := parseHistory(res.Body)
	if err != nil {
		return nil, res, fmt.Errorf("get price history: %w", err)
	}
	return points, res, nil
}

// parseHistory decodes the known history envelopes. Rows missing a usable
// timestamp are skipped, not fatal.
func parseHistory(body []byte) ([]PricePoint, error) {
	var envelope struct {
		History []json.RawMessage `json:"history"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	rows := envelope.History
	if rows == nil {
		rows = envelope.Data
	}

	points := make([]PricePoint, 0, len(rows))
	for _, raw := range rows {
		// Expected row shape: {"t": 1690000000, "p": 55, "v": 123}.
		var row struct {
			T *int64   `json:"t"`
			P *float64 `json:"p"`
			V *float64 `json:"v"`
		}
		if err := json.Unmarshal(raw, &row); err != nil || row.T == nil {
			continue
		}
		points = append(points, PricePoint{
			TS:     time.Unix(*row.T, 0).UTC(),
			Price:  row.P,
			Volume: row.V,
			Raw:    raw,
		})
	}
	return points, nil
}
