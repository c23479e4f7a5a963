package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/polymktlab/poly-data/internal/metrics"
)

const userAgent = "poly-data/0.1"

// APIError represents an HTTP-level error from an upstream API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
// Only 429 and 5xx are transient; other 4xx are permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsPermanent reports whether err is a non-retryable upstream rejection.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && !apiErr.IsRetryable()
}

// FetchResult carries the final URL, final params, raw body and status of a
// completed fetch, for audit logging and replay debugging.
type FetchResult struct {
	URL    string
	Params url.Values
	Status int
	Body   []byte
}

// doRequest performs a single GET against base+path with query params.
// The FetchResult is returned even on HTTP errors so callers can audit the
// exchange.
func (c *Client) doRequest(ctx context.Context, base, path string, query url.Values) (*FetchResult, error) {
	fullURL := base + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, req.URL.Host); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	metrics.FetchTotal.WithLabelValues(req.URL.Host, metrics.StatusClass(resp.StatusCode)).Inc()

	res := &FetchResult{
		URL:    base + path,
		Params: query,
		Status: resp.StatusCode,
		Body:   body,
	}

	if resp.StatusCode >= 400 {
		return res, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return res, nil
}

// doWithRetry performs a GET with exponential backoff on transient errors.
func (c *Client) doWithRetry(ctx context.Context, base, path string, query url.Values) (*FetchResult, error) {
	var lastRes *FetchResult
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)
			metrics.RetryTotal.Inc()

			select {
			case <-ctx.Done():
				return lastRes, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		res, err := c.doRequest(ctx, base, path, query)
		if err == nil {
			return res, nil
		}

		lastRes, lastErr = res, err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return res, err
		}
	}

	return lastRes, fmt.Errorf("max retries exceeded: %w", lastErr)
}
