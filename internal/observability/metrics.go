// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Monitoring metrics
	EventsObserved         prometheus.Counter
	DuplicatesDropped      prometheus.Counter
	MalformedNotifications prometheus.Counter
	SubscriptionRestarts   *prometheus.CounterVec
	ActiveSubscriptions    prometheus.Gauge
	HighestSlotSeen        prometheus.Gauge

	// Classification metrics
	TransactionsClassified *prometheus.CounterVec
	FetchFailures          prometheus.Counter

	// Mirroring metrics
	DecisionsTotal *prometheus.CounterVec
	MirrorsTotal   *prometheus.CounterVec
	MirrorLatency  prometheus.Histogram

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryErrors *prometheus.CounterVec

	// Health metrics
	LastEventTimestamp prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "copy_trading_bot"
	}

	return &Metrics{
		// Monitoring metrics
		EventsObserved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "events_observed_total",
			Help:      "Total number of log notifications received across subscriptions",
		}),
		DuplicatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "duplicates_dropped_total",
			Help:      "Total number of signatures dropped by the dedup window",
		}),
		MalformedNotifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "malformed_notifications_total",
			Help:      "Total number of notifications discarded as malformed",
		}),
		SubscriptionRestarts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "subscription_restarts_total",
			Help:      "Total number of per-account subscription restarts",
		}, []string{"account"}),
		ActiveSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active_subscriptions",
			Help:      "Current number of active account subscriptions",
		}),
		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "highest_slot_seen",
			Help:      "Highest Solana slot number seen",
		}),

		// Classification metrics
		TransactionsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "transactions_total",
			Help:      "Total number of transactions classified by kind",
		}, []string{"kind"}),
		FetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "fetch_failures_total",
			Help:      "Total number of transaction fetches that exhausted retries",
		}),

		// Mirroring metrics
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "decisions_total",
			Help:      "Total number of policy decisions by action and reason",
		}, []string{"action", "reason"}),
		MirrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "outcomes_total",
			Help:      "Total number of mirror outcomes by status",
		}, []string{"status"}),
		MirrorLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "latency_seconds",
			Help:      "Time from observation to terminal outcome in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Database metrics
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastEventTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_event_timestamp",
			Help:      "Unix timestamp of the last processed notification",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventObserved increments the observed notification counter.
func RecordEventObserved(slot uint64) {
	DefaultMetrics.EventsObserved.Inc()
	DefaultMetrics.LastEventTimestamp.SetToCurrentTime()
	if slot > 0 {
		DefaultMetrics.HighestSlotSeen.Set(float64(slot))
	}
}

// RecordDuplicateDropped increments the dedup drop counter.
func RecordDuplicateDropped() {
	DefaultMetrics.DuplicatesDropped.Inc()
}

// RecordMalformedNotification increments the malformed notification counter.
func RecordMalformedNotification() {
	DefaultMetrics.MalformedNotifications.Inc()
}

// RecordSubscriptionRestart records one restart of an account subscription.
func RecordSubscriptionRestart(account string) {
	DefaultMetrics.SubscriptionRestarts.WithLabelValues(account).Inc()
}

// RecordClassification records a classified transaction by kind.
func RecordClassification(kind string) {
	DefaultMetrics.TransactionsClassified.WithLabelValues(kind).Inc()
}

// RecordDecision records a policy decision.
func RecordDecision(action, reason string) {
	DefaultMetrics.DecisionsTotal.WithLabelValues(action, reason).Inc()
}

// RecordOutcome records a mirror outcome by status.
func RecordOutcome(status string) {
	DefaultMetrics.MirrorsTotal.WithLabelValues(status).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQueryError records a database query error.
func RecordDBQueryError(database, operation string) {
	DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
}
