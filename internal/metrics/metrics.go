package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for showsync
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Remote store metrics
	RemoteCallsTotal   *prometheus.CounterVec
	RemoteCallDuration *prometheus.HistogramVec

	// Sync metrics
	SyncRunDuration   prometheus.Histogram
	SyncRecordsTotal  *prometheus.CounterVec
	IdempotentReplays prometheus.Counter
	InvitesSentTotal  *prometheus.CounterVec
}

// NewMetricsRegistry creates every metric and registers it with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showsync_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showsync_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "showsync_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method"},
		),

		RemoteCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showsync_remote_calls_total",
				Help: "Airtable calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		RemoteCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showsync_remote_call_duration_seconds",
				Help:    "Airtable call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),

		SyncRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "showsync_sync_duration_seconds",
				Help:    "Sync run execution time in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),
		SyncRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showsync_sync_records_total",
				Help: "Records processed by sync, by result (synced, failed, pruned)",
			},
			[]string{"result"},
		),
		IdempotentReplays: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "showsync_idempotent_replays_total",
				Help: "Create requests answered from the idempotency store",
			},
		),
		InvitesSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showsync_invites_sent_total",
				Help: "Invite emails by outcome",
			},
			[]string{"outcome"},
		),
	}
}
