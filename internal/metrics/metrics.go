// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapp_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Negotiation
	NegotiationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_negotiation_outcomes_total",
			Help: "Negotiation operations by action and outcome",
		},
		[]string{"action", "outcome"}, // action: propose, accept, reject, invalid
	)

	// Matching
	CandidateFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_candidate_fallbacks_total",
			Help: "Candidate lookups served from the fallback set",
		},
		[]string{"reason"}, // upstream_error, empty, unresolved
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swapp_recommendation_cache_hits_total",
			Help: "Recommendation lookups served from Redis",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swapp_recommendation_cache_misses_total",
			Help: "Recommendation lookups that went to the recommender",
		},
	)

	// Recommender
	RecommenderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_recommender_calls_total",
			Help: "Calls to the recommendation service",
		},
		[]string{"operation", "outcome"},
	)

	RecommenderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapp_recommender_latency_seconds",
			Help:    "Recommendation service call latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// Push
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_push_deliveries_total",
			Help: "Push notifications by type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: sent, no_device, failed
	)

	// Background tasks
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_tasks_enqueued_total",
			Help: "Background tasks enqueued",
		},
		[]string{"type", "outcome"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapp_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapp_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordRecommenderCall records one recommendation service call.
func RecordRecommenderCall(operation string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RecommenderCalls.WithLabelValues(operation, outcome).Inc()
	RecommenderLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
