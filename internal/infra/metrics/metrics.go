// Package metrics provides Prometheus metrics for taskmirror:
// ledger fetches, transition submissions, batch filtering, and the
// notification feed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Fetches ────────────────────────────────────────────────────────────────

// FetchLatency tracks ledger read duration in seconds.
var FetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "taskmirror",
	Name:      "fetch_latency_seconds",
	Help:      "Ledger read duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"kind"}) // single | range

// FetchesTotal tracks ledger reads by kind and outcome.
var FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskmirror",
	Name:      "fetches_total",
	Help:      "Total ledger reads.",
}, []string{"kind", "outcome"}) // outcome: ok | error

// PlaceholdersFiltered counts records dropped for the creator-role-0
// placeholder sentinel.
var PlaceholdersFiltered = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "taskmirror",
	Name:      "placeholders_filtered_total",
	Help:      "Records dropped as empty ledger slots (creator role 0).",
})

// DecodeDrops counts records dropped from a batch because their status
// code failed to decode.
var DecodeDrops = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "taskmirror",
	Name:      "decode_drops_total",
	Help:      "Records dropped for an unrecognized status code.",
})

// ─── Transitions ────────────────────────────────────────────────────────────

// TransitionsSubmitted tracks lifecycle transitions by ledger call and
// outcome.
var TransitionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskmirror",
	Name:      "transitions_submitted_total",
	Help:      "Lifecycle transitions submitted to the ledger.",
}, []string{"call", "outcome"})

// AdminCalls tracks administrative submissions by method and outcome.
var AdminCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskmirror",
	Name:      "admin_calls_total",
	Help:      "Administrative ledger calls submitted.",
}, []string{"method", "outcome"})

// ─── State ──────────────────────────────────────────────────────────────────

// BatchSize tracks the surviving size of the last range fetch.
var BatchSize = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "taskmirror",
	Name:      "batch_size_current",
	Help:      "Views in the current batch slot after filtering.",
})

// NotificationsEmitted tracks feed entries by severity.
var NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskmirror",
	Name:      "notifications_emitted_total",
	Help:      "Notifications appended to the feed.",
}, []string{"severity"})
