package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/polymktlab/poly-data/internal/config"
)

// RateLimiter throttles outgoing requests per host.
type RateLimiter interface {
	Wait(ctx context.Context, host string) error
}

// Client provides access to the three Polymarket API families: Gamma
// (markets/metadata), CLOB (order books, price history) and the data API
// (holders).
type Client struct {
	gammaURL string
	clobURL  string
	dataURL  string

	httpClient *http.Client
	logger     *slog.Logger
	limiter    RateLimiter

	maxRetries   int
	retryBackoff time.Duration

	bookCandidates []config.BookCandidate
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new API client for the given base URLs.
func NewClient(gammaURL, clobURL, dataURL string, opts ...ClientOption) *Client {
	c := &Client{
		gammaURL: gammaURL,
		clobURL:  clobURL,
		dataURL:  dataURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:         slog.Default(),
		maxRetries:     3,
		retryBackoff:   time.Second,
		bookCandidates: config.DefaultBookCandidates(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimiter sets the per-host rate limiter.
func WithRateLimiter(l RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithBookCandidates overrides the order-book endpoint probe list.
func WithBookCandidates(candidates []config.BookCandidate) ClientOption {
	return func(c *Client) {
		if len(candidates) > 0 {
			c.bookCandidates = candidates
		}
	}
}
