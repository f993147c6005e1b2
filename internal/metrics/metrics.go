// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route pattern and status code.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "mmex",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})

// ObserveHTTP records one completed request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ─── Recurring transactions ─────────────────────────────────────────────────

var RecurringEntered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "recurring",
	Name:      "entered_total",
	Help:      "Transactions entered from recurring templates, by trigger (user, auto).",
}, []string{"trigger"})

var RecurringSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "recurring",
	Name:      "skipped_total",
	Help:      "Recurring occurrences skipped without entering a transaction.",
})

var RecurringPending = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mmex",
	Subsystem: "recurring",
	Name:      "pending",
	Help:      "Manual recurring templates due and awaiting the user after the last run.",
})

var RecurringRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "recurring",
	Name:      "runs_total",
	Help:      "Recurring processor runs by outcome.",
}, []string{"outcome"})

// ─── Reports ────────────────────────────────────────────────────────────────

var ReportCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "report",
	Name:      "cache_lookups_total",
	Help:      "Report cache lookups by result (hit, miss).",
}, []string{"result"})

var ReportCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "report",
	Name:      "cache_invalidations_total",
	Help:      "Report cache purges caused by data changes.",
})

// ─── Events ─────────────────────────────────────────────────────────────────

var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Data-changed events by outcome (ok, error, disabled).",
}, []string{"outcome"})

var EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmex",
	Subsystem: "events",
	Name:      "consumed_total",
	Help:      "Data-changed events handled by the consumer, by entity.",
}, []string{"entity"})
