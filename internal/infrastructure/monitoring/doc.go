// Package monitoring provides Prometheus metrics for the sync core and the
// relay daemon.
//
// Tracked:
//   - Inbound events dispatched/dropped (by kind / by drop reason)
//   - Outbound sync commands emitted by the diff synchronizer
//   - Cache invalidations and user notifications from extension events
//   - Relay connections, frame counts, and HTTP request latency
//
// Each Metrics instance owns its registry; the relay exposes it on /metrics
// via promhttp.
package monitoring
