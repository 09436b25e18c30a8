// Package metrics defines and registers all custom Prometheus metrics for the
// academy API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry when the package
// is initialised; HTTP request metrics are added separately by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "academy"

// ── Authentication metrics ────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Labels:
//   - role: requested role name, or "invalid" when it did not parse
//   - result: "success", "duplicate", "invalid", or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_registrations_total",
		Help:      "Total number of registration attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenChecksTotal counts the outcome of the authentication filter.
// Label:
//   - result: "anonymous", "invalid", "expired", "unknown_subject", "rejected",
//     "store_error", "authenticated", or "preauthenticated"
var TokenChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_token_checks_total",
		Help:      "Total number of bearer token checks, by outcome.",
	},
	[]string{"result"},
)

// IdentityCacheTotal counts identity cache lookups.
// Label:
//   - result: "hit", "miss", or "error"
var IdentityCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_lookups_total",
		Help:      "Total number of identity cache lookups, labelled by result (hit/miss/error).",
	},
	[]string{"result"},
)

// IdentityCacheSuppressedTotal counts cache fills refused because the
// identity was evicted within the last TTL.
var IdentityCacheSuppressedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_suppressed_fills_total",
		Help:      "Total number of identity cache fills skipped for a recently evicted email.",
	},
)

// ── Access control metrics ────────────────────────────────────────────────────

// AccessDecisionsTotal counts access control decisions.
// Label:
//   - decision: "public", "allowed", "unauthenticated", or "denied"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of access control decisions, by decision.",
	},
	[]string{"decision"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by their fate.
// Labels:
//   - kind: the event kind (e.g. "login_failure")
//   - result: "stored", "dropped", or "error"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of authentication audit events, by kind and result.",
	},
	[]string{"kind", "result"},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures how long persisting a single audit event takes.
var AuditWriteDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of audit event persistence from dequeue to store.",
		Buckets:   prometheus.DefBuckets,
	},
)
