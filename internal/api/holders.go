package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// GetHolders fetches the holder list for a market's condition id from the
// data API. The payload is either a bare array or wrapped under "holders".
func (c *Client) GetHolders(ctx context.Context, conditionID string) ([]json.RawMessage, *FetchResult, error) {
	query := url.Values{}
	query.Set("market", conditionID)

	res, err := c.doWithRetry(ctx, c.dataURL, "/holders", query)
	if err != nil {
		return nil, res, fmt.Errorf("get holders: %w", err)
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(res.Body, &arr); err == nil {
		return arr, res, nil
	}

	var envelope struct {
		Holders []json.RawMessage `json:"holders"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return nil, res, fmt.Errorf("get holders: unmarshal response: %w", err)
	}
	return envelope.Holders, res, nil
}
