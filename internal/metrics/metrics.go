// Package metrics exposes Prometheus instruments for generation work.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "repurpose"

// Metrics owns a private registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	runs          *prometheus.CounterVec
	transitions   *prometheus.CounterVec
}

// New creates and registers all instruments.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of generation stages.",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"pipeline", "stage"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Total number of failed generation stages.",
			},
			[]string{"pipeline", "stage"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of repurpose runs, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "launchpad_transitions_total",
				Help:      "Total number of launchpad screen changes, partitioned by target screen.",
			},
			[]string{"screen"},
		),
	}
}

// ObserveStage records one stage of a pipeline.
func (m *Metrics) ObserveStage(pipeline, stage string, d time.Duration, failed bool) {
	m.stageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
	if failed {
		m.stageFailures.WithLabelValues(pipeline, stage).Inc()
	}
}

// ObserveRun counts a finished run. outcome is "success", "invalid" or "failed".
func (m *Metrics) ObserveRun(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}

// Transition counts a launchpad screen change.
func (m *Metrics) Transition(screen string) {
	m.transitions.WithLabelValues(screen).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
