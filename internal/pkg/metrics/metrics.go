package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency of requests served by this API
	HTTPRequestDuration *prometheus.HistogramVec

	// Latency of calls to the TrackBase API
	UpstreamDuration *prometheus.HistogramVec

	// Upstream calls by endpoint and status code ("error" for transport failures)
	UpstreamRequests *prometheus.CounterVec

	// Entry marking attempts by payload shape and outcome
	EntryAttempts *prometheus.CounterVec

	// 0 closed, 1 half-open, 2 open
	CircuitBreakerState *prometheus.GaugeVec

	// Open sessions left over from previous days
	StaleOpenSessions prometheus.Gauge

	// Unparseable timestamps met while aggregating
	DataErrors prometheus.Counter
}

// New registers the collectors on reg. A nil reg gets a private registry so
// tests can build clients without touching global state.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		HTTPRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		UpstreamDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackbase_upstream_duration_seconds",
			Help:    "Histogram of TrackBase API call latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),

		UpstreamRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trackbase_upstream_requests_total",
			Help: "Total number of TrackBase API calls.",
		}, []string{"endpoint", "status"}),

		EntryAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trackbase_entry_attempts_total",
			Help: "Entry marking attempts by payload shape.",
		}, []string{"shape", "outcome"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "trackbase_circuit_breaker_state",
			Help: "Current state of the upstream circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),

		StaleOpenSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "trackbase_stale_open_sessions",
			Help: "Open sessions whose entry date is before today.",
		}),

		DataErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "trackbase_record_data_errors_total",
			Help: "Attendance records with unparseable timestamps.",
		}),
	}
}
