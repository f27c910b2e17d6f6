// Package observability exposes Prometheus collectors for dataset loads and
// query traffic.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	datasetLoadedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitdash",
		Subsystem: "dataset",
		Name:      "last_load_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful dataset load.",
	})

	datasetRowsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitdash",
		Subsystem: "dataset",
		Name:      "rows_loaded",
		Help:      "Row count per normalized table in the current snapshot.",
	}, []string{"table"})

	datasetLoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitdash",
		Subsystem: "dataset",
		Name:      "load_duration_seconds",
		Help:      "Wall time spent parsing, normalizing and joining the sources.",
		Buckets:   prometheus.DefBuckets,
	})

	reloadCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitdash",
		Subsystem: "dataset",
		Name:      "reloads_total",
		Help:      "Number of reload attempts grouped by outcome.",
	}, []string{"outcome"})

	queryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitdash",
		Subsystem: "query",
		Name:      "operations_total",
		Help:      "Query layer calls grouped by operation and outcome.",
	}, []string{"operation", "outcome"})
)

func init() {
	prometheus.MustRegister(
		datasetLoadedGauge,
		datasetRowsGauge,
		datasetLoadDuration,
		reloadCounter,
		queryCounter,
	)
}

// RecordDatasetLoaded updates the load watermark, the per-table row gauges
// and the load duration histogram after a successful load.
func RecordDatasetLoaded(loadedAt time.Time, took time.Duration, rows map[string]int) {
	if !loadedAt.IsZero() {
		datasetLoadedGauge.Set(float64(loadedAt.Unix()))
	}
	datasetLoadDuration.Observe(took.Seconds())
	for table, count := range rows {
		datasetRowsGauge.WithLabelValues(table).Set(float64(count))
	}
}

// RecordReload counts one reload attempt. Outcome is "ok" or "error".
func RecordReload(outcome string) {
	reloadCounter.WithLabelValues(outcome).Inc()
}

// RecordQuery counts one query-layer call.
func RecordQuery(operation, outcome string) {
	queryCounter.WithLabelValues(operation, outcome).Inc()
}
