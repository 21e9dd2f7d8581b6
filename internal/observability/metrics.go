// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	EventsDecoded  *prometheus.CounterVec
	EventsSkipped  *prometheus.CounterVec
	ReplayDuration prometheus.Histogram
	TradesReplayed prometheus.Counter
	CandlesBuilt   prometheus.Counter

	// Refresh metrics
	RefreshRunsTotal      *prometheus.CounterVec
	StaleResultsDiscarded prometheus.Counter

	// Oracle metrics
	OracleFetchErrors prometheus.Counter
	OracleFallbacks   prometheus.Counter

	// Identity metrics
	CommitmentsSubmitted prometheus.Counter
	NamesRegistered      prometheus.Counter

	// Latency metrics
	RPCCallLatency   *prometheus.HistogramVec
	WSMessageLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
	UptimeSeconds         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sui_launchpad"
	}

	return &Metrics{
		// Ledger metrics
		EventsDecoded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_decoded_total",
			Help:      "Total number of protocol events decoded by kind",
		}, []string{"kind"}),
		EventsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped during decode or replay by reason",
		}, []string{"reason"}),
		ReplayDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "replay_duration_seconds",
			Help:      "Event replay duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_replayed_total",
			Help:      "Total number of trades produced by replay",
		}),
		CandlesBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "candles_built_total",
			Help:      "Total number of candles built by aggregation",
		}),

		// Refresh metrics
		RefreshRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh runs by target and status",
		}, []string{"target", "status"}),
		StaleResultsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "stale_results_discarded_total",
			Help:      "Total number of refresh results discarded as stale",
		}),

		// Oracle metrics
		OracleFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed oracle fetches",
		}),
		OracleFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "fallbacks_total",
			Help:      "Total number of rate lookups served from cache or fallback",
		}),

		// Identity metrics
		CommitmentsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "commitments_submitted_total",
			Help:      "Total number of registration commitments submitted",
		}),
		NamesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "names_registered_total",
			Help:      "Total number of names registered",
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sui",
			Name:      "rpc_call_latency_seconds",
			Help:      "Sui RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sui",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful refresh run",
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

// RecordEventDecoded increments the decoded events counter.
func RecordEventDecoded(kind string) {
	DefaultMetrics.EventsDecoded.WithLabelValues(kind).Inc()
}

// RecordEventSkipped records a skipped event.
func RecordEventSkipped(reason string) {
	DefaultMetrics.EventsSkipped.WithLabelValues(reason).Inc()
}

// RecordReplay records a replay run.
func RecordReplay(trades int, durationSeconds float64) {
	DefaultMetrics.ReplayDuration.Observe(durationSeconds)
	DefaultMetrics.TradesReplayed.Add(float64(trades))
}

// RecordCandlesBuilt increments the candles built counter.
func RecordCandlesBuilt(count int) {
	DefaultMetrics.CandlesBuilt.Add(float64(count))
}

// RecordRefreshRun records a refresh run outcome.
func RecordRefreshRun(target, status string) {
	DefaultMetrics.RefreshRunsTotal.WithLabelValues(target, status).Inc()
}

// RecordStaleDiscarded increments the stale-result counter.
func RecordStaleDiscarded() {
	DefaultMetrics.StaleResultsDiscarded.Inc()
}

// RecordOracleFallback records a degraded rate lookup.
func RecordOracleFallback() {
	DefaultMetrics.OracleFetchErrors.Inc()
	DefaultMetrics.OracleFallbacks.Inc()
}

// RecordCommitmentSubmitted increments the commitments counter.
func RecordCommitmentSubmitted() {
	DefaultMetrics.CommitmentsSubmitted.Inc()
}

// RecordNameRegistered increments the registered names counter.
func RecordNameRegistered() {
	DefaultMetrics.NamesRegistered.Inc()
}

// RecordWSMessage records websocket message processing latency.
func RecordWSMessage(seconds float64) {
	DefaultMetrics.WSMessageLatency.Observe(seconds)
}

// SetLastSuccessfulRefresh updates the health gauge.
func SetLastSuccessfulRefresh(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulRefresh.Set(unixSeconds)
}

// TrackUptime increments the uptime counter once per second until ctx
// is cancelled. Run in a goroutine at process start.
func TrackUptime(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			DefaultMetrics.UptimeSeconds.Inc()
		}
	}
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
