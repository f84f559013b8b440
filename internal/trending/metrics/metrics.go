package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the trending recompute Prometheus metrics.
type Metrics struct {
	ActiveTopics      prometheus.Gauge
	TrendingClaims    prometheus.Gauge
	RecomputeDuration prometheus.Histogram
}

// New creates and registers the trending metrics.
func New() *Metrics {
	return &Metrics{
		ActiveTopics: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "factgate_trending_active_topics",
			Help: "Topics currently in active status.",
		}),
		TrendingClaims: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "factgate_trending_claims",
			Help: "Claims currently flagged as trending.",
		}),
		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factgate_trending_recompute_seconds",
			Help:    "Duration of trending recompute sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
