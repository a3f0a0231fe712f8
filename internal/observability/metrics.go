// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	DeliveriesTotal      *prometheus.CounterVec
	SubjectsTotal        *prometheus.CounterVec
	EnrichmentLatency    prometheus.Histogram
	AnalysisRequests     *prometheus.CounterVec
	AuditLogErrors       prometheus.Counter
	ListenerTransactions *prometheus.CounterVec

	// Watchlist and notification metrics
	ScansTotal         *prometheus.CounterVec
	ScorerLatency      *prometheus.HistogramVec
	NotificationsTotal *prometheus.CounterVec

	// Latency metrics
	RPCCallLatency  *prometheus.HistogramVec
	HTTPRequestTime *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "deliveries_total",
			Help:      "Total number of handled deliveries by path and status",
		}, []string{"path", "status"}),
		SubjectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "subjects_total",
			Help:      "Total number of per-mint outcomes by source and status",
		}, []string{"source", "status"}),
		EnrichmentLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "enrichment_latency_seconds",
			Help:      "Metadata lookup latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		AnalysisRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "analysis_requests_total",
			Help:      "Analysis requests published for newly inserted mints",
		}, []string{"result"}),
		AuditLogErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "audit_log_errors_total",
			Help:      "Failed ingestion_log appends",
		}),
		ListenerTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "transactions_total",
			Help:      "Graduation transactions seen by the live listener",
		}, []string{"result"}),

		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchlist",
			Name:      "scans_total",
			Help:      "Watchlist scans by result",
		}, []string{"result"}),
		ScorerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "watchlist",
			Name:      "scorer_latency_seconds",
			Help:      "Reputation scorer latency in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"result"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Notification candidates by kind and result",
		}, []string{"kind", "result"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPRequestTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),

		LastSuccessfulIngestion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordDelivery records one handled delivery.
func RecordDelivery(path, status string) {
	DefaultMetrics.DeliveriesTotal.WithLabelValues(path, status).Inc()
	if status == "ok" {
		DefaultMetrics.LastSuccessfulIngestion.Set(float64(time.Now().Unix()))
	}
}

// RecordSubject records one per-mint outcome.
func RecordSubject(source, status string) {
	DefaultMetrics.SubjectsTotal.WithLabelValues(source, status).Inc()
}

// RecordEnrichment records metadata lookup latency.
func RecordEnrichment(d time.Duration) {
	DefaultMetrics.EnrichmentLatency.Observe(d.Seconds())
}

// RecordAnalysisRequest records a publish attempt ("ok" or "error").
func RecordAnalysisRequest(result string) {
	DefaultMetrics.AnalysisRequests.WithLabelValues(result).Inc()
}

// RecordAuditLogError records a failed audit append.
func RecordAuditLogError() {
	DefaultMetrics.AuditLogErrors.Inc()
}

// RecordListenerTransaction records a transaction seen by the listener.
func RecordListenerTransaction(result string) {
	DefaultMetrics.ListenerTransactions.WithLabelValues(result).Inc()
}

// RecordScan records a watchlist scan ("scanned" or "rate_limited").
func RecordScan(result string) {
	DefaultMetrics.ScansTotal.WithLabelValues(result).Inc()
}

// RecordScorerCall records scorer latency by result ("ok", "empty", "error").
func RecordScorerCall(result string, d time.Duration) {
	DefaultMetrics.ScorerLatency.WithLabelValues(result).Observe(d.Seconds())
}

// RecordNotification records a notification decision
// ("emitted", "suppressed", "failed").
func RecordNotification(kind, result string) {
	DefaultMetrics.NotificationsTotal.WithLabelValues(kind, result).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, d time.Duration) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route, code string, d time.Duration) {
	DefaultMetrics.HTTPRequestTime.WithLabelValues(route, code).Observe(d.Seconds())
}
