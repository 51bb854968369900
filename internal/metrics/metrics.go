package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking and embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matchrank",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "embedding_errors_total",
			Help:      "Total embedding provider errors by class",
		},
		[]string{"provider", "model", "error_class"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses by layer",
		},
		[]string{"layer", "result"}, // layer: "memory" / "shared"; result: "hit" / "miss"
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "completion_requests_total",
			Help:      "Total number of completion provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "rank_requests_total",
			Help:      "Total ranking requests by resulting mode",
		},
		[]string{"mode"}, // "hybrid" / "lexical"
	)

	RankDimensionMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "rank_dimension_mismatch_total",
			Help:      "Document vectors skipped due to dimensionality mismatch",
		},
	)

	RateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the local sliding-window limiter",
		},
		[]string{"identity"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchrank",
			Name:      "retry_attempts_total",
			Help:      "Retry controller attempts by operation class and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "success" / "retried" / "exhausted"
	)
)

var registered bool

// Register registers domain metrics with the default registry. Must be
// called once from main (no init side effects for domain metrics).
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(RankRequestsTotal)
	prometheus.MustRegister(RankDimensionMismatchTotal)
	prometheus.MustRegister(RateLimitRejectionsTotal)
	prometheus.MustRegister(RetryAttemptsTotal)
	registered = true
}
