package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the cross-cutting Prometheus metrics for the application.
// Feature packages register their own metrics next to their services.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	ClaimsSubmitted prometheus.Counter
}

// New creates and registers the shared metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		ClaimsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factgate_claims_submitted_total",
			Help: "Total number of claims accepted for verification.",
		}),
	}
}
