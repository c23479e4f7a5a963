// Package api implements the HTTP clients for the three Polymarket API
// families: Gamma (markets/metadata, offset-paginated), CLOB (market
// listing with cursor pagination, order books with endpoint probing, price
// history) and the data API (holders).
//
// Transient failures (429/5xx) are retried with jittered exponential
// backoff; other 4xx are permanent and surfaced to the caller together
// with the FetchResult for audit logging.
package api
