// Package metrics holds the Prometheus collectors shared across packages.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gleam_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gleam_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Relay metrics
var (
	relayQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gleam_relay_query_duration_seconds",
		Help:    "Fan-out relay query latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	})

	relayEventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gleam_relay_events_received_total",
		Help: "Events accepted from relays after verification and dedupe",
	})

	relayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gleam_relay_errors_total",
		Help: "Relay connection and protocol errors by operation",
	}, []string{"op"})

	droppedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gleam_relay_dropped_events_total",
		Help: "Events dropped because a subscription buffer was full",
	})

	relayConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gleam_relay_connections",
		Help: "Open relay websocket connections",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gleam_events_published_total",
		Help: "Events published by kind and outcome",
	}, []string{"kind", "outcome"})
)

// Cache metrics
var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gleam_cache_requests_total",
		Help: "Cache lookups by cache name and result",
	}, []string{"cache", "result"})
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route string, code int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveRelayQuery records a completed fan-out query.
func ObserveRelayQuery(d time.Duration, events int) {
	relayQueryDuration.Observe(d.Seconds())
	relayEventsReceived.Add(float64(events))
}

// IncRelayError counts a relay failure for op (connect, subscribe, publish).
func IncRelayError(op string) {
	relayErrorsTotal.WithLabelValues(op).Inc()
}

// IncDroppedEvent counts an event dropped on a full subscription buffer.
func IncDroppedEvent() {
	droppedEventsTotal.Inc()
}

// SetRelayConnections sets the open connection gauge.
func SetRelayConnections(n int) {
	relayConnections.Set(float64(n))
}

// IncPublished counts a publish attempt.
func IncPublished(kind int, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	eventsPublished.WithLabelValues(strconv.Itoa(kind), outcome).Inc()
}

// IncCacheHit increments the cache hit counter
func IncCacheHit(cache string) {
	cacheRequests.WithLabelValues(cache, "hit").Inc()
}

// IncCacheMiss increments the cache miss counter
func IncCacheMiss(cache string) {
	cacheRequests.WithLabelValues(cache, "miss").Inc()
}
