// Package metrics holds Prometheus metrics for rule execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the rule engines.
type Metrics struct {
	RulesExecuted      *prometheus.CounterVec
	RuleFailures       *prometheus.CounterVec
	ErrorsRecorded     *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	RuleDuration       prometheus.Histogram
}

// New creates and registers all rule-engine metrics.
func New() *Metrics {
	return &Metrics{
		RulesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_rules_executed_total",
			Help: "Total number of rule predicates executed.",
		}, []string{"file_type", "severity"}),
		RuleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_rule_failures_total",
			Help: "Total number of rule predicates that failed to execute.",
		}, []string{"file_type", "kind"}),
		ErrorsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_errors_recorded_total",
			Help: "Total number of error records materialized.",
		}, []string{"file_type", "severity"}),
		ValidationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "broker_validation_duration_seconds",
			Help:    "Duration of whole validation runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"file_type"}),
		RuleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "broker_rule_duration_seconds",
			Help:    "Duration of individual rule executions.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
	}
}

// ObserveValidation records one finished validation run.
func (m *Metrics) ObserveValidation(fileType string, start time.Time) {
	m.ValidationDuration.WithLabelValues(fileType).Observe(time.Since(start).Seconds())
}
