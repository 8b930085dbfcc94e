// Package metrics exposes Prometheus instrumentation for the API server
// and the split engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshare_http_requests_total",
			Help: "Total HTTP requests served, by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fairshare_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// SplitsComputed counts successful split calculations.
	SplitsComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fairshare_splits_computed_total",
			Help: "Total successful split calculations.",
		},
	)

	// Extractions counts receipt extraction attempts by provider and outcome.
	Extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshare_extractions_total",
			Help: "Receipt extraction attempts, by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// ExtractionCache counts cache lookups for extraction results.
	ExtractionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshare_extraction_cache_total",
			Help: "Extraction cache lookups, by result (hit or miss).",
		},
		[]string{"result"},
	)

	// EventsPublished counts bill lifecycle events emitted to the broker.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshare_events_published_total",
			Help: "Bill events published to the broker, by event type.",
		},
		[]string{"event"},
	)

	// EventsConsumed counts bill lifecycle events handled by the consumer.
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshare_events_consumed_total",
			Help: "Bill events handled by the consumer, by event type.",
		},
		[]string{"event"},
	)
)

// Middleware records request counts and latency for every route. The route
// label uses the chi pattern (e.g. /api/v1/bills/{id}) so per-bill URLs do
// not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
