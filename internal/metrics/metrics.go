// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recipick"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// GenerationCalls counts text-generation calls. kind is recipe,
	// instructions or reply; outcome is success, error, invalid or duplicate.
	GenerationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_calls_total",
		Help:      "Text-generation calls by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RecommendedRecipes counts recipes returned by source: store, generated or fallback.
	RecommendedRecipes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommended_recipes_total",
		Help:      "Recipes returned in recommendations by source.",
	}, []string{"source"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"name"})

	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "Requests through the circuit breaker by result.",
	}, []string{"name", "result"})

	RateLimitedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"prefix"})
)
