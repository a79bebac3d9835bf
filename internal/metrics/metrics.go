// Package metrics exposes Prometheus collectors for optimization runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

const namespace = "annealhive"

// Metrics groups the run collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	RunsStarted          *prometheus.CounterVec
	RunsFinished         *prometheus.CounterVec
	ActiveRuns           prometheus.Gauge
	Iterations           *prometheus.HistogramVec
	Duration             *prometheus.HistogramVec
	Evaluations          *prometheus.CounterVec
	DegenerateSelections prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Optimization runs started, by algorithm.",
		}, []string{"algorithm"}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Optimization runs finished, by algorithm and final status.",
		}, []string{"algorithm", "status"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Optimization runs submitted and not yet finished, queued or executing.",
		}),
		Iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Iterations executed per completed run.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"algorithm"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of completed runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"algorithm"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective function evaluations, by algorithm.",
		}, []string{"algorithm"}),
		DegenerateSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "colony_degenerate_selections_total",
			Help:      "Colony iterations that fell back to uniform selection.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.RunsStarted, m.RunsFinished, m.ActiveRuns, m.Iterations,
		m.Duration, m.Evaluations, m.DegenerateSelections,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RunStarted records the submission of a run. The run counts as active
// from here until RunFinished, including time spent waiting for a worker.
func (m *Metrics) RunStarted(algorithm string) {
	if m == nil {
		return
	}
	m.RunsStarted.WithLabelValues(algorithm).Inc()
	m.ActiveRuns.Inc()
}

// RunFinished records the end of a run. res may be nil for failed or
// cancelled runs.
func (m *Metrics) RunFinished(algorithm, status string, elapsed time.Duration, res *optimization.Result) {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
	m.RunsFinished.WithLabelValues(algorithm, status).Inc()
	m.Duration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	if res == nil {
		return
	}
	m.Iterations.WithLabelValues(algorithm).Observe(float64(res.Iterations))
	m.Evaluations.WithLabelValues(algorithm).Add(float64(res.Evaluations))
	m.DegenerateSelections.Add(float64(res.DegenerateSelections))
}
