// Package metrics holds the Prometheus collectors shared by the bot runtime.
//
// Collectors live on Registry rather than the global default registry so that
// tests can gather them without cross-test interference from other packages.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketbot"

var (
	// UpdatesTotal counts routed updates by handler and status.
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tg",
			Name:      "updates_total",
			Help:      "Routed Telegram updates.",
		},
		[]string{"handler", "status"},
	)

	// HandlerDuration tracks handler latency by handler name.
	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tg",
			Name:      "handler_duration_seconds",
			Help:      "Duration of update handlers in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"handler"},
	)

	// MessagesSent counts outbound messages produced by handlers.
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tg",
		Name:      "messages_sent_total",
		Help:      "Messages sent or edited in reply to updates.",
	})

	// SendFailures counts outbound jobs that failed after retries.
	SendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tg",
			Name:      "send_failures_total",
			Help:      "Outbound Telegram calls that failed after retries.",
		},
		[]string{"kind"},
	)

	// RateLimited counts updates dropped by the rate limiter.
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tg",
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limiter.",
	})

	// Transitions counts conversation steps by conversation and outcome.
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "transitions_total",
			Help:      "Conversation steps by conversation and outcome.",
		},
		[]string{"conversation", "outcome"},
	)

	// ActiveSessions reports the number of sessions held in memory.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently held in memory.",
	})

	// SessionsEvicted counts sessions removed by TTL sweeps.
	SessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "evicted_total",
		Help:      "Idle sessions evicted by the TTL sweeper.",
	})

	// LedgerQueryDuration tracks ledger query latency by operation.
	LedgerQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "query_duration_seconds",
			Help:      "Duration of ledger queries in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)

	// LedgerWrites counts created ledger records by entity.
	LedgerWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "records_created_total",
			Help:      "Ledger records created by entity.",
		},
		[]string{"entity"},
	)

	// HTTPRequests counts requests served by the health listener.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the health listener.",
		},
		[]string{"path", "status"},
	)
)

// Registry is the registry every collector above is registered with.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		UpdatesTotal,
		HandlerDuration,
		MessagesSent,
		SendFailures,
		RateLimited,
		Transitions,
		ActiveSessions,
		SessionsEvicted,
		LedgerQueryDuration,
		LedgerWrites,
		HTTPRequests,
	)
}

// Handler exposes Registry in the Prometheus text and OpenMetrics formats.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveHandler records one routed update.
func ObserveHandler(handler, status string, start time.Time) {
	UpdatesTotal.WithLabelValues(handler, status).Inc()
	HandlerDuration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
}

// ObserveQuery records a ledger query duration:
//
//	defer metrics.ObserveQuery("create_order", time.Now())
func ObserveQuery(operation string, start time.Time) {
	LedgerQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
