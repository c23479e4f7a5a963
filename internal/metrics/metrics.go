// Package metrics exposes Prometheus counters for the pipeline and the
// handler that serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchTotal counts external HTTP fetches by host and status class.
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydata_fetch_total",
		Help: "External HTTP fetches by host and status class.",
	}, []string{"host", "status"})

	// RetryTotal counts transient-failure retries.
	RetryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polydata_fetch_retries_total",
		Help: "HTTP fetch retries after transient failures.",
	})

	// RowsInserted counts rows actually written per table.
	RowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydata_rows_inserted_total",
		Help: "Rows inserted per table.",
	}, []string{"table"})

	// Conflicts counts natural-key conflicts resolved as no-ops.
	Conflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydata_conflicts_total",
		Help: "Natural-key conflicts per table (writes dropped as no-ops).",
	}, []string{"table"})

	// TaskOutcomes counts per-task outcomes by pipeline stage.
	TaskOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydata_task_outcomes_total",
		Help: "Task outcomes (ok/skipped/failed) per pipeline stage.",
	}, []string{"stage", "outcome"})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status code for the fetch counter.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
