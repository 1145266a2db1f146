// Package metrics holds Prometheus metrics for catalog loading.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the rule catalog.
type Metrics struct {
	Loads       prometheus.Counter
	RulesLoaded prometheus.Gauge
	VersionInfo *prometheus.GaugeVec
}

// New creates and registers all catalog metrics.
func New() *Metrics {
	return &Metrics{
		Loads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_catalog_loads_total",
			Help: "Total number of catalog re-materializations.",
		}),
		RulesLoaded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "broker_catalog_rules",
			Help: "Number of rules in the stored catalog.",
		}),
		VersionInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "broker_catalog_version_info",
			Help: "Checksum of the stored catalog; value is always 1.",
		}, []string{"version"}),
	}
}

// ObserveLoad records one successful re-materialization.
func (m *Metrics) ObserveLoad(version string, rules int) {
	m.Loads.Inc()
	m.RulesLoaded.Set(float64(rules))
	m.VersionInfo.Reset()
	m.VersionInfo.WithLabelValues(version).Set(1)
}
