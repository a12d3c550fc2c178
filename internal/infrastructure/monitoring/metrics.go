package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons recorded on EventsDropped.
const (
	DropScopeMismatch = "scope_mismatch"
	DropStaleTarget   = "stale_target"
	DropMalformed     = "malformed"
	DropUnknownKind   = "unknown_kind"
)

// Metrics holds all Prometheus metrics for the sync core and relay.
type Metrics struct {
	// Dispatch metrics
	EventsDispatched *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec

	// Synchronizer metrics
	CommandsEmitted *prometheus.CounterVec

	// Extension sync metrics
	CacheInvalidations *prometheus.CounterVec
	NotificationsShown prometheus.Counter

	// Relay metrics
	RelayConnections prometheus.Gauge
	RelayFrames      *prometheus.CounterVec

	// HTTP metrics (relay endpoints)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry, so multiple
// instances (one per test, one per process) never collide.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		startTime: time.Now(),
		registry:  registry,

		EventsDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_events_dispatched_total",
				Help: "Inbound events applied to the session store",
			},
			[]string{"kind"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_events_dropped_total",
				Help: "Inbound events dropped without mutation",
			},
			[]string{"reason"},
		),
		CommandsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_commands_emitted_total",
				Help: "Outbound sync commands emitted by the diff synchronizer",
			},
			[]string{"kind"},
		),
		CacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_cache_invalidations_total",
				Help: "Query cache keys marked stale by extension events",
			},
			[]string{"key"},
		),
		NotificationsShown: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sync_notifications_shown_total",
				Help: "User-facing sync notifications produced",
			},
		),
		RelayConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_connections",
				Help: "Active relay websocket connections",
			},
		),
		RelayFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_frames_total",
				Help: "Frames handled by the relay hub",
			},
			[]string{"topic", "direction"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}
}

// Registry exposes the underlying registry for promhttp handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordHTTPRequest records one relay HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
