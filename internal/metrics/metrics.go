// Package metrics exposes Prometheus instruments for the ingestion and
// retrieval pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docrag"

var (
	// EmbeddingRequests counts embedding calls.
	// Labels: outcome (success, empty_input, upstream, dimension, cancelled)
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Total number of embedding requests by outcome",
		},
		[]string{"outcome"},
	)

	// EmbeddingDuration tracks provider round-trip time.
	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Duration of embedding provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// EmbeddingCacheLookups counts cache lookups.
	// Labels: result (hit, miss, error)
	EmbeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Total number of embedding cache lookups by result",
		},
		[]string{"result"},
	)

	// BatchItemFailures counts batch inputs skipped after a failed embedding.
	BatchItemFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "item_failures_total",
			Help:      "Total number of batch inputs dropped because embedding failed",
		},
	)

	// DimensionMigrations counts schema width changes.
	DimensionMigrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "dimension_migrations_total",
			Help:      "Total number of embedding column width migrations",
		},
	)

	// RetrievalDuration tracks nearest neighbour queries.
	// Labels: target (chunks, documents, pages)
	RetrievalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Duration of nearest neighbour queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	// IngestedChunks counts chunks persisted by ingestion.
	IngestedChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks persisted by document ingestion",
		},
	)

	// ReindexJobs counts processed reindex jobs.
	// Labels: result (completed, retried, failed)
	ReindexJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reindex",
			Name:      "jobs_total",
			Help:      "Total number of reindex jobs processed by result",
		},
		[]string{"result"},
	)

	// HTTPRequestDuration tracks API request latency.
	// Labels: method, route, status (2xx, 3xx, 4xx, 5xx)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
