// Package metrics defines all custom Prometheus metrics emitted by the Renvo
// client core. It is the single source of truth for metric names, labels, and
// help strings. Metrics register themselves with the default registry via
// promauto; embedding applications decide whether and where to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "renvo_client"

// ── API transport metrics ─────────────────────────────────────────────────────

// APIRequestsTotal counts REST calls issued by the client.
// Labels:
//   - endpoint: logical endpoint name (e.g. "auth_login", "notifications_list")
//   - status: numeric HTTP status, or "error" when no response was received
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of REST calls issued, by endpoint and status.",
	},
	[]string{"endpoint", "status"},
)

// APIRequestDuration measures wall time of REST calls.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of REST calls from request build to response decode.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state machine transitions.
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by from/to state.",
	},
	[]string{"from", "to"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsUnread tracks the current unread notification count.
var NotificationsUnread = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_unread",
		Help:      "Current number of unread notifications held by the store.",
	},
)

// ── Push feed metrics ─────────────────────────────────────────────────────────

// PushEventsTotal counts pushed events applied to the stores.
// Labels:
//   - kind: "notification" or "message"
//   - result: "applied" or "error"
var PushEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_events_total",
		Help:      "Total number of pushed events routed to the stores.",
	},
	[]string{"kind", "result"},
)

// PushQueueDepth tracks the number of events waiting in each dispatcher worker.
var PushQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "push_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
