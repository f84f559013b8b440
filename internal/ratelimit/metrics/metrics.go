package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the rate limiter's Prometheus metrics.
type Metrics struct {
	ChecksTotal     *prometheus.CounterVec
	RejectionsTotal *prometheus.CounterVec
	BypassTotal     prometheus.Counter
}

// New creates and registers the rate limiter metrics.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "factgate_ratelimit_checks_total",
			Help: "Rate limit checks by route class and outcome.",
		}, []string{"class", "outcome"}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "factgate_ratelimit_rejections_total",
			Help: "Rejected requests by route class.",
		}, []string{"class"}),
		BypassTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factgate_ratelimit_bypass_total",
			Help: "Requests from trusted callers that bypassed limiting.",
		}),
	}
}
