// Package telemetry collects Prometheus metrics for runs and tuning sessions
// and writes them in the node-exporter textfile format.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/sim"
	"github.com/san-kum/loopsim/internal/tuning"
)

const namespace = "loopsim"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	StepsTotal     prometheus.Counter
	SaturatedSteps prometheus.Counter
	LastError      prometheus.Gauge
	LastControl    prometheus.Gauge
	LastTerms      *prometheus.GaugeVec

	TuningSessions   *prometheus.CounterVec
	TuningCandidates prometheus.Counter
	UltimateGain     prometheus.Gauge
	UltimatePeriod   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Simulation runs by outcome",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock time of a simulation run",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		StepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Integration steps taken",
			},
		),
		SaturatedSteps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saturated_steps_total",
				Help:      "Steps where the controller output was clamped",
			},
		),
		LastError: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_error",
				Help:      "Tracking error at the last observed step",
			},
		),
		LastControl: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_control",
				Help:      "Controller output at the last observed step",
			},
		),
		LastTerms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_pid_term",
				Help:      "Proportional, integral and derivative contributions at the last observed step",
			},
			[]string{"term"},
		),
		TuningSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tuning_sessions_total",
				Help:      "Auto-tune sessions by final status",
			},
			[]string{"status"},
		),
		TuningCandidates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tuning_candidates_total",
				Help:      "Proportional gains tried by the auto-tuner",
			},
		),
		UltimateGain: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ultimate_gain",
				Help:      "Ku of the last successful tuning session",
			},
		),
		UltimatePeriod: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ultimate_period_seconds",
				Help:      "Tu of the last successful tuning session",
			},
		),
	}

	m.registry.MustRegister(
		m.RunsTotal, m.RunDuration, m.StepsTotal, m.SaturatedSteps, m.LastError, m.LastControl, m.LastTerms,
		m.TuningSessions, m.TuningCandidates, m.UltimateGain, m.UltimatePeriod,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// outcome classifies a run error into a label value.
func outcome(err error) string {
	var verr *dynamo.ValidationError
	var perr *dynamo.InvalidPlantError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, dynamo.ErrCanceled):
		return "canceled"
	case errors.Is(err, dynamo.ErrUnstable):
		return "unstable"
	case errors.As(err, &verr), errors.As(err, &perr):
		return "invalid"
	}
	return "error"
}

func (m *Metrics) RecordRun(elapsed time.Duration, err error) {
	m.RunsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.RunDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) RecordSession(s *tuning.Session) {
	if s == nil {
		return
	}
	m.TuningSessions.WithLabelValues(string(s.Status)).Inc()
	m.TuningCandidates.Add(float64(len(s.Candidates)))
	if s.Status == tuning.Tuned {
		m.UltimateGain.Set(s.Ku)
		m.UltimatePeriod.Set(s.Tu)
	}
}

// Observer counts steps as they happen.
func (m *Metrics) Observer() sim.Observer {
	return sim.ObserverFunc(func(s sim.Sample) {
		m.StepsTotal.Inc()
		if s.Saturated {
			m.SaturatedSteps.Inc()
		}
		m.LastError.Set(s.Error)
		m.LastControl.Set(s.Control)
		m.LastTerms.WithLabelValues("p").Set(s.Terms.P)
		m.LastTerms.WithLabelValues("i").Set(s.Terms.I)
		m.LastTerms.WithLabelValues("d").Set(s.Terms.D)
	})
}

// WriteFile writes all metrics to path atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
