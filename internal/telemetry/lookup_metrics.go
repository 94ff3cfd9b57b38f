package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LookupMetrics records postal code provider calls. It satisfies
// postalcode.Observer.
type LookupMetrics struct {
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
}

// NewLookupMetrics creates and registers the lookup metrics on reg.
// A nil reg uses the default registerer.
func NewLookupMetrics(namespace string, reg prometheus.Registerer) *LookupMetrics {
	if namespace == "" {
		namespace = "lojas"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &LookupMetrics{
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "postalcode_lookups_total",
				Help:      "Total postal code lookups per provider and outcome",
			},
			[]string{"provider", "outcome"}, // outcome: found, not_found, empty
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "postalcode_lookup_duration_seconds",
				Help:      "Postal code provider call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
	}
}

// ObserveLookup records one provider call.
func (m *LookupMetrics) ObserveLookup(provider, outcome string, duration time.Duration) {
	m.Lookups.WithLabelValues(provider, outcome).Inc()
	m.LookupDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
