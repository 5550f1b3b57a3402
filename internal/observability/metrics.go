// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheErrors counts Redis cache errors by operation type.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_cache_errors_total",
		Help: "Total number of Redis cache errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stride_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedAssemblyLatency records end-to-end feed assembly latency per feed kind.
	FeedAssemblyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stride_feed_assembly_latency_seconds",
		Help:    "Feed assembly latency in seconds by feed kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})

	// FeedAssemblyErrors counts failed feed assemblies by feed kind and error code.
	FeedAssemblyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_feed_assembly_errors_total",
		Help: "Total number of failed feed assemblies by feed kind and error code",
	}, []string{"feed", "code"})

	// WebSocketConnections is the gauge of active feed-event connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stride_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// ObserveFeedAssembly records a completed feed assembly.
func ObserveFeedAssembly(feed string, start time.Time) {
	FeedAssemblyLatency.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
