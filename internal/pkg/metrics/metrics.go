// Package metrics defines the Prometheus collectors for the creator console.
// Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "donacrypto"

// ── Backend transport ─────────────────────────────────────────────────────────

// BackendRequestsTotal counts backend calls.
// Labels:
//   - route: templated request path (e.g. "/user/wallets/{currencyType}")
//   - status: HTTP status code, or "network" when no response arrived
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of backend API requests, by route and status.",
	},
	[]string{"route", "status"},
)

// BackendRequestDuration measures backend round trips.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route"},
)

// ── Session ───────────────────────────────────────────────────────────────────

// SessionTeardownsTotal counts session teardowns.
// Label:
//   - reason: "logout", "unauthorized", "account_deleted", "token_expired" or "profile_failed"
var SessionTeardownsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_teardowns_total",
		Help:      "Total number of session teardowns, by reason.",
	},
	[]string{"reason"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Dashboard ─────────────────────────────────────────────────────────────────

// DashboardFetchFailuresTotal counts failed dashboard resource loads.
// Label:
//   - resource: "statistics", "wallets", "followers", "posts" or "profile"
var DashboardFetchFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dashboard_fetch_failures_total",
		Help:      "Total number of failed dashboard resource fetches.",
	},
	[]string{"resource"},
)

// SubscriberQueueDepth tracks pending session events per subscriber.
var SubscriberQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_event_queue_depth",
		Help:      "Session events waiting across all subscriber queues.",
	},
)
