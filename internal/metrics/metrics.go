// Package metrics exposes the pipeline's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid_request"
	OutcomeUpstream     = "upstream_failure"
	OutcomeStorage      = "storage_failure"
	OutcomePersistence  = "persistence_failure"
)

// Metrics holds the application instruments.
type Metrics struct {
	pipelineRuns      *prometheus.CounterVec
	generationSeconds prometheus.Histogram
	orphanedArtifacts prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptpix_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptpix_generation_seconds",
			Help:    "Time from the upstream request to completed artifact storage.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		orphanedArtifacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "promptpix_orphaned_artifacts",
			Help: "Stored artifacts not referenced by any record at the last audit.",
		}),
	}

	for _, c := range []prometheus.Collector{m.pipelineRuns, m.generationSeconds, m.orphanedArtifacts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePipeline counts a finished pipeline run.
func (m *Metrics) ObservePipeline(outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the measured generation time in seconds.
func (m *Metrics) ObserveGeneration(seconds float64) {
	if m == nil {
		return
	}
	m.generationSeconds.Observe(seconds)
}

// SetOrphanedArtifacts records the result of the last orphan audit.
func (m *Metrics) SetOrphanedArtifacts(n int) {
	if m == nil {
		return
	}
	m.orphanedArtifacts.Set(float64(n))
}
