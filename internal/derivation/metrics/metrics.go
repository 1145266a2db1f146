// Package metrics holds Prometheus metrics for the FABS derivation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for derivation.
type Metrics struct {
	RowsDerived prometheus.Counter
	Duration    prometheus.Histogram
}

// New creates and registers all derivation metrics.
func New() *Metrics {
	return &Metrics{
		RowsDerived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_fabs_rows_derived_total",
			Help: "Total number of FABS rows run through the derivation pipeline.",
		}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "broker_fabs_derivation_duration_seconds",
			Help:    "Duration of whole-submission derivation runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
	}
}

// ObserveRun records one finished derivation run.
func (m *Metrics) ObserveRun(start time.Time, rows int) {
	m.Duration.Observe(time.Since(start).Seconds())
	m.RowsDerived.Add(float64(rows))
}
