package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP API metrics.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialwave_api_requests_total",
		Help: "Total HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dialwave_api_request_duration_seconds",
		Help:    "HTTP API request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialwave_api_active_connections",
		Help: "Number of in-flight HTTP requests.",
	})
)

// Database metrics.
var (
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dialwave_db_query_duration_seconds",
		Help:    "Database operation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialwave_db_errors_total",
		Help: "Total database errors.",
	}, []string{"operation", "kind"})

	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialwave_db_connections_active",
		Help: "Open database connections.",
	})
)

// Domain metrics.
var (
	CompositionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialwave_compositions_total",
		Help: "Playlist composition runs by outcome.",
	}, []string{"outcome"})

	FallbackEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialwave_fallback_entries_total",
		Help: "Fallback entries emitted when the catalog ran dry.",
	})

	OptimizePassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialwave_optimize_passes_total",
		Help: "Optimizer sub-steps that changed the playlist.",
	}, []string{"step"})

	TunesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialwave_tunes_total",
		Help: "Tune requests by match result.",
	}, []string{"matched"})

	VoiceRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialwave_voice_renders_total",
		Help: "Voice render attempts by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
