package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Message generation latency in milliseconds, labelled by outcome.
	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_ms",
			Help:    "Motivational message generation latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"outcome"},
	)

	// Goals handled per enrichment run, labelled by result.
	GoalsEnriched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goals_enriched_total",
			Help: "Goals handled by the enrichment job, by result",
		},
		[]string{"result"}, // processed, skipped_generation, skipped_store, skipped_deleted
	)

	// Completed enrichment runs, labelled by status.
	EnrichmentRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_runs_total",
			Help: "Enrichment job invocations, by status",
		},
		[]string{"status"}, // success, failed, skipped
	)

	// Store operation duration in seconds.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_op_duration_seconds",
			Help:    "Goal store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "driver"},
	)

	// HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveGeneration records one generation attempt.
func ObserveGeneration(outcome string, start time.Time) {
	GenerationLatency.WithLabelValues(outcome).Observe(float64(time.Since(start).Milliseconds()))
}

// ObserveStoreOp records one store operation.
func ObserveStoreOp(operation, driver string, start time.Time) {
	StoreOpDuration.WithLabelValues(operation, driver).Observe(time.Since(start).Seconds())
}
