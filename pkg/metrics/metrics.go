// Package metrics регистрирует метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shop_assistant"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	IndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_index_build_duration_seconds",
		Help:      "Duration of catalog index builds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	IndexProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_index_products",
		Help:      "Number of products in the published catalog index",
	})

	EncoderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "encoder_calls_total",
		Help:      "Calls to the ML encoder by input kind and result",
	}, []string{"kind", "result"})

	EmbeddingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_cache_total",
		Help:      "Embedding cache lookups by store and result",
	}, []string{"store", "result"})

	RecommendationCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendation_cache_total",
		Help:      "Recommendation cache lookups by result",
	}, []string{"result"})

	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_calls_total",
		Help:      "Chat completion calls by result",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Kafka events by source and result",
	}, []string{"source", "result"})
)

// Result возвращает метку результата для err.
func Result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
