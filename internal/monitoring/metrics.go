// Package monitoring exposes benchmark results as Prometheus metrics and
// over a small HTTP API.
package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"kvbench/internal/results"
)

// Metrics holds the Prometheus collectors fed by finished trials.
// It uses a custom registry so nothing leaks into the global default.
type Metrics struct {
	Registry *prometheus.Registry

	TrialThroughput *prometheus.GaugeVec
	Operations      *prometheus.CounterVec
	Misses          *prometheus.CounterVec
	TrialDuration   *prometheus.HistogramVec
	Trials          *prometheus.CounterVec
}

var trialLabels = []string{"container", "threads", "workload"}

// NewMetrics creates the collectors and registers them on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		TrialThroughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kvbench_trial_throughput_ops",
			Help: "Throughput of the most recent trial in operations per second.",
		}, trialLabels),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvbench_trial_operations_total",
			Help: "Total number of operations completed across trials.",
		}, trialLabels),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvbench_trial_misses_total",
			Help: "Total number of operations that found no key or lost an insert race.",
		}, trialLabels),
		TrialDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kvbench_trial_duration_seconds",
			Help:    "Measured duration of trials in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"container"}),
		Trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvbench_trials_total",
			Help: "Total number of completed trials.",
		}, []string{"container"}),
	}

	reg.MustRegister(
		m.TrialThroughput,
		m.Operations,
		m.Misses,
		m.TrialDuration,
		m.Trials,
	)

	return m
}

// Record updates every collector from one trial result
func (m *Metrics) Record(result results.RunResult) {
	labels := prometheus.Labels{
		"container": result.Container,
		"threads":   strconv.Itoa(result.Threads),
		"workload":  result.Workload.String(),
	}

	m.TrialThroughput.With(labels).Set(result.Throughput)
	m.Operations.With(labels).Add(float64(result.TotalOperations))
	m.Misses.With(labels).Add(float64(result.Misses))
	m.TrialDuration.WithLabelValues(result.Container).Observe(result.Elapsed.Seconds())
	m.Trials.WithLabelValues(result.Container).Inc()
}
