package config

import "time"

// PipelineConfig is the root configuration for a pipeline run.
type PipelineConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Features FeaturesConfig `yaml:"features"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this pipeline instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds the external HTTP API settings.
type APIConfig struct {
	GammaURL string `yaml:"gamma_url"` // markets/metadata API
	CLOBURL  string `yaml:"clob_url"`  // order book + price history API
	DataURL  string `yaml:"data_url"`  // holders API

	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// Token bucket shared per API host.
	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`

	// Ordered candidate (path, param) combinations probed for the order
	// book endpoint, whose true schema is unstable upstream. Extend here,
	// not in code.
	BookCandidates []BookCandidate `yaml:"book_candidates"`
}

// BookCandidate is one (path, parameter-name) combination to probe.
type BookCandidate struct {
	Path  string `yaml:"path"`
	Param string `yaml:"param"`
}

// DatabaseConfig holds the PostgreSQL connection for all persisted tables.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// IngestConfig holds batch ingestion settings.
type IngestConfig struct {
	MarketLimit int `yaml:"market_limit"` // max markets per stage run
	PageSize    int `yaml:"page_size"`    // gamma page size
	Concurrency int `yaml:"concurrency"`  // parallel market/token tasks
	BookDepth   int `yaml:"book_depth"`   // order book levels requested
	TopHolders  int `yaml:"top_holders"`  // holders retained per snapshot

	// Statement-level timeout for read/aggregation queries.
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// FeaturesConfig holds feature derivation settings.
type FeaturesConfig struct {
	// CutoffFallback decides the cutoff for markets without a resolved
	// one: "last" (most recent price ts), "now", or "skip".
	CutoffFallback string `yaml:"cutoff_fallback"`
	MinPoints      int    `yaml:"min_points"` // price points required before cutoff
	MarketLimit    int    `yaml:"market_limit"`

	TickOutfile    string `yaml:"tick_outfile"`
	FeatureOutfile string `yaml:"feature_outfile"`
}

// MetricsConfig holds the metrics/health HTTP server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
