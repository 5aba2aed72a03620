// Package telemetry exposes Prometheus metrics for sweeps and solver
// calls. A nil *Metrics is a valid no-op receiver, so callers without a
// registry simply pass nothing.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step outcome labels.
const (
	StepRecorded   = "recorded"
	StepInfeasible = "infeasible"
	StepFailed     = "failed"
)

// Sweep result labels.
const (
	SweepBuilt  = "built"
	SweepEmpty  = "empty"
	SweepFailed = "failed"
)

// Metrics bundles the collectors the sweep pipeline feeds.
type Metrics struct {
	solverCalls    *prometheus.CounterVec
	solverDuration *prometheus.HistogramVec
	steps          *prometheus.CounterVec
	sweeps         *prometheus.CounterVec
	frontSize      prometheus.Gauge
}

// New registers the collectors with reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		solverCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pareto",
			Subsystem: "solver",
			Name:      "calls_total",
			Help:      "Solver invocations by backend and reported status.",
		}, []string{"backend", "status"}),
		solverDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pareto",
			Subsystem: "solver",
			Name:      "call_duration_seconds",
			Help:      "Wall time of individual solver calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"backend"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pareto",
			Subsystem: "sweep",
			Name:      "steps_total",
			Help:      "Scan steps by final outcome.",
		}, []string{"outcome"}),
		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pareto",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Finished sweeps by result.",
		}, []string{"result"}),
		frontSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pareto",
			Subsystem: "sweep",
			Name:      "front_size",
			Help:      "Points in the most recently built front.",
		}),
	}
}

// SolverCall records one solver invocation.
func (m *Metrics) SolverCall(backend, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.solverCalls.WithLabelValues(backend, status).Inc()
	m.solverDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// Step records the final outcome of one scan step.
func (m *Metrics) Step(outcome string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(outcome).Inc()
}

// Sweep records one finished sweep.
func (m *Metrics) Sweep(result string) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(result).Inc()
}

// FrontSize records the size of the latest front.
func (m *Metrics) FrontSize(n int) {
	if m == nil {
		return
	}
	m.frontSize.Set(float64(n))
}
