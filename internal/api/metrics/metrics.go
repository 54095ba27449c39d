// Package metrics defines and registers all custom Prometheus metrics for
// the auth gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register themselves with the default registry at package init via
// promauto; expose them through the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// RequestsForwardedTotal counts outbound exchanges that completed, labelled
// by the downstream status so 4xx/5xx passthrough stays visible.
// Labels:
//   - backend: logical backend name (e.g. "genomica")
//   - method: HTTP method of the forwarded request
//   - status: downstream status code as text (e.g. "200", "404")
var RequestsForwardedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_forwarded_total",
		Help:      "Total number of requests forwarded to a backend, by downstream status.",
	},
	[]string{"backend", "method", "status"},
)

// UpstreamErrorsTotal counts outbound calls that failed at transport level.
// Label:
//   - reason: "timeout" or "unavailable"
var UpstreamErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_errors_total",
		Help:      "Total number of forwarding attempts that failed before a downstream response.",
	},
	[]string{"backend", "reason"},
)

// UpstreamDuration measures a single outbound exchange end-to-end.
var UpstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_duration_seconds",
		Help:      "Duration of outbound backend calls from dispatch to body read.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// AuthRejectionsTotal counts requests rejected before forwarding.
// Label:
//   - reason: "missing_header", "bad_scheme", or "invalid_token"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected as unauthenticated.",
	},
	[]string{"reason"},
)

// LoginsTotal counts login attempts by outcome ("success" or "failure").
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)
