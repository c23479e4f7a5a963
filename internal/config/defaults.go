package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGammaURL = "https://gamma-api.polymarket.com"
	DefaultCLOBURL  = "https://clob.polymarket.com"
	DefaultDataURL  = "https://data-api.polymarket.com"

	DefaultAPITimeout   = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 1 * time.Second
	DefaultRateRPS      = 8.0
	DefaultRateBurst    = 16

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultMarketLimit      = 2000
	DefaultPageSize         = 50
	DefaultConcurrency      = 10
	DefaultBookDepth        = 1
	DefaultTopHolders       = 25
	DefaultStatementTimeout = 5 * time.Second

	DefaultCutoffFallback = "last"
	DefaultMinPoints      = 3
	DefaultTickOutfile    = "bets_level_data.csv"
	DefaultFeatureOutfile = "features_pre_res.csv"

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

// DefaultBookCandidates is the probe order for the order book endpoint.
// Some variants return 2xx with an unusable body, so acceptance is decided
// by body shape, not status.
func DefaultBookCandidates() []BookCandidate {
	var out []BookCandidate
	for _, path := range []string{"book", "orderbook"} {
		for _, param := range []string{"token_id", "tokenId", "market"} {
			out = append(out, BookCandidate{Path: path, Param: param})
		}
	}
	return out
}

func (c *PipelineConfig) applyDefaults() {
	// API defaults
	if c.API.GammaURL == "" {
		c.API.GammaURL = DefaultGammaURL
	}
	if c.API.CLOBURL == "" {
		c.API.CLOBURL = DefaultCLOBURL
	}
	if c.API.DataURL == "" {
		c.API.DataURL = DefaultDataURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RateRPS == 0 {
		c.API.RateRPS = DefaultRateRPS
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}
	if len(c.API.BookCandidates) == 0 {
		c.API.BookCandidates = DefaultBookCandidates()
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Ingest defaults
	if c.Ingest.MarketLimit == 0 {
		c.Ingest.MarketLimit = DefaultMarketLimit
	}
	if c.Ingest.PageSize == 0 {
		c.Ingest.PageSize = DefaultPageSize
	}
	if c.Ingest.Concurrency == 0 {
		c.Ingest.Concurrency = DefaultConcurrency
	}
	if c.Ingest.BookDepth == 0 {
		c.Ingest.BookDepth = DefaultBookDepth
	}
	if c.Ingest.TopHolders == 0 {
		c.Ingest.TopHolders = DefaultTopHolders
	}
	if c.Ingest.StatementTimeout == 0 {
		c.Ingest.StatementTimeout = DefaultStatementTimeout
	}

	// Features defaults
	if c.Features.CutoffFallback == "" {
		c.Features.CutoffFallback = DefaultCutoffFallback
	}
	if c.Features.MinPoints == 0 {
		c.Features.MinPoints = DefaultMinPoints
	}
	if c.Features.MarketLimit == 0 {
		c.Features.MarketLimit = DefaultMarketLimit
	}
	if c.Features.TickOutfile == "" {
		c.Features.TickOutfile = DefaultTickOutfile
	}
	if c.Features.FeatureOutfile == "" {
		c.Features.FeatureOutfile = DefaultFeatureOutfile
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
