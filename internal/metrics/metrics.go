// Package metrics exposes the indexing engine's Prometheus instrumentation.
// It is a pure counter/gauge registry: nothing in this package touches the
// network, so cmd/nomindex decides whether and where to serve /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the handful of series the indexer updates during a pass.
type Metrics struct {
	RowsIndexed    *prometheus.CounterVec
	PassDuration   *prometheus.HistogramVec
	ActiveWorkers  prometheus.Gauge
	RunnerFailures *prometheus.CounterVec
}

// New registers the indexer's series on reg and returns the handle used to
// update them. Passing a fresh prometheus.NewRegistry() keeps tests hermetic.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nominatim",
			Subsystem: "indexer",
			Name:      "rows_indexed_total",
			Help:      "Number of rows whose UPDATE committed, by runner name.",
		}, []string{"runner"}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nominatim",
			Subsystem: "indexer",
			Name:      "pass_duration_seconds",
			Help:      "Wall-clock duration of an indexing pass, including aborted ones.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"runner"}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nominatim",
			Subsystem: "indexer",
			Name:      "active_workers",
			Help:      "Number of workers the running pass started with; 0 when no pass is running.",
		}),
		RunnerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nominatim",
			Subsystem: "indexer",
			Name:      "runner_failures_total",
			Help:      "Number of passes aborted by a fatal error, by runner name.",
		}, []string{"runner"}),
	}

	reg.MustRegister(m.RowsIndexed, m.PassDuration, m.ActiveWorkers, m.RunnerFailures)
	return m
}
