// Package metrics holds every Prometheus collector the portal exports. The
// collectors register with the default registry on import and are served by
// promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// Login surfaces and results
const (
	SurfaceClient = "client"
	SurfaceAdmin  = "admin"

	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultDeactivated = "deactivated"
)

// ── HTTP ──

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// ── Auth ──

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - surface: "client" or "admin"
//   - result: "success", "failure" or "deactivated"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by surface and result.",
	},
	[]string{"surface", "result"},
)

// ── Audit ──

var AuditWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Total number of admin audit entries that could not be persisted.",
	},
)

// ── Sessions ──

var SessionsSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Total number of expired in-memory sessions removed by the sweeper.",
	},
)
