package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorageMetrics counts storage drift: physical operations that failed
// while metadata went ahead, sentinel URLs, and orphan sweep outcomes.
// A nil *StorageMetrics is valid and records nothing.
type StorageMetrics struct {
	physicalFailures *prometheus.CounterVec
	invalidURLs      *prometheus.CounterVec
	sweepOutcomes    *prometheus.CounterVec
}

// NewStorageMetrics registers the collectors on reg.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	m := &StorageMetrics{
		physicalFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediahub",
				Subsystem: "storage",
				Name:      "physical_failures_total",
				Help:      "Physical storage operations that failed and were swallowed.",
			},
			[]string{"disk", "operation"},
		),
		invalidURLs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediahub",
				Subsystem: "storage",
				Name:      "invalid_urls_total",
				Help:      "URL syntheses that returned the invalid-url sentinel.",
			},
			[]string{"disk", "reason"},
		),
		sweepOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediahub",
				Subsystem: "orphans",
				Name:      "sweep_outcomes_total",
				Help:      "Orphan reconciliation results by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.physicalFailures, m.invalidURLs, m.sweepOutcomes)
	}
	return m
}

// PhysicalFailure records a swallowed disk error.
func (m *StorageMetrics) PhysicalFailure(disk, operation string) {
	if m == nil {
		return
	}
	m.physicalFailures.WithLabelValues(disk, operation).Inc()
}

// InvalidURL records a sentinel URL.
func (m *StorageMetrics) InvalidURL(disk, reason string) {
	if m == nil {
		return
	}
	m.invalidURLs.WithLabelValues(disk, reason).Inc()
}

// SweepOutcome records one orphan processed by a sweep ("resolved" or "retained").
func (m *StorageMetrics) SweepOutcome(outcome string) {
	if m == nil {
		return
	}
	m.sweepOutcomes.WithLabelValues(outcome).Inc()
}
