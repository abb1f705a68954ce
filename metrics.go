package covsim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the simulation and optimizer state to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	coverage    prometheus.Gauge
	ticks       prometheus.Counter
	evaluations *prometheus.CounterVec
	iterations  *prometheus.CounterVec
	temperature prometheus.Gauge
	bestCost    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "covsim_coverage_percent",
			Help: "Latitude weighted coverage of the live raster.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covsim_ticks_total",
			Help: "Total number of live simulation ticks.",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covsim_evaluations_total",
			Help: "Total number of coverage time evaluations.",
		}, []string{"outcome"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covsim_annealing_iterations_total",
			Help: "Total number of annealing iterations.",
		}, []string{"accepted"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "covsim_annealing_temperature",
			Help: "Current annealing temperature.",
		}),
		bestCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "covsim_annealing_best_days",
			Help: "Best time to target coverage found so far, in days.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.coverage, m.ticks, m.evaluations, m.iterations, m.temperature, m.bestCost)
	}
	return m
}

func (m *Metrics) observeTick(coverage float64) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.coverage.Set(coverage)
}

func (m *Metrics) observeEvaluation(days float64) {
	if m == nil {
		return
	}
	outcome := "reached"
	if days >= Unreached {
		outcome = "unreached"
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeIteration(accepted bool, temperature, best float64) {
	if m == nil {
		return
	}
	if accepted {
		m.iterations.WithLabelValues("true").Inc()
	} else {
		m.iterations.WithLabelValues("false").Inc()
	}
	m.temperature.Set(temperature)
	m.bestCost.Set(best)
}
