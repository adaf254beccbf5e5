package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PropagatorCollector bundles Prometheus metrics for the propagation engine
// and provides a ready-to-serve /metrics handler. A nil collector is a valid
// no-op receiver so instrumentation call sites need no guards.
type PropagatorCollector struct {
	gatherer prometheus.Gatherer

	StepsTotal    *prometheus.CounterVec
	StepDurations *prometheus.HistogramVec

	ParticleNumber   *prometheus.GaugeVec
	SimulationTime   prometheus.Gauge
	SnapshotsWritten prometheus.Counter
}

// NewPropagatorCollector registers the propagation metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPropagatorCollector(reg prometheus.Registerer) (*PropagatorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propagation_steps_total",
		Help: "Total number of executed step operators, labeled by step name.",
	}, []string{"step"})
	steps, err := registerCounterVec(reg, steps, "propagation_steps_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propagation_step_duration_seconds",
		Help:    "Step operator wall time in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"step"})
	durations, err = registerHistogramVec(reg, durations, "propagation_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	particles := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "particle_number",
		Help: "Most recently computed particle number per component.",
	}, []string{"component"})
	particles, err = registerGaugeVec(reg, particles, "particle_number")
	if err != nil {
		return nil, err
	}

	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulation_time",
		Help: "Current simulation time of the propagator.",
	}), "simulation_time")
	if err != nil {
		return nil, err
	}

	snapshots, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshots_written_total",
		Help: "Total number of snapshot records written to disk.",
	}), "snapshots_written_total")
	if err != nil {
		return nil, err
	}

	return &PropagatorCollector{
		gatherer:         gatherer,
		StepsTotal:       steps,
		StepDurations:    durations,
		ParticleNumber:   particles,
		SimulationTime:   simTime,
		SnapshotsWritten: snapshots,
	}, nil
}

// ObserveStep records one executed step operator and its duration.
func (c *PropagatorCollector) ObserveStep(step string, d time.Duration) {
	if c == nil {
		return
	}
	if c.StepsTotal != nil {
		c.StepsTotal.WithLabelValues(step).Inc()
	}
	if c.StepDurations != nil {
		c.StepDurations.WithLabelValues(step).Observe(d.Seconds())
	}
}

// SetParticleNumber publishes the latest particle number for a component.
func (c *PropagatorCollector) SetParticleNumber(comp int, n float64) {
	if c == nil || c.ParticleNumber == nil {
		return
	}
	c.ParticleNumber.WithLabelValues(strconv.Itoa(comp)).Set(n)
}

// SetSimulationTime publishes the current simulation time.
func (c *PropagatorCollector) SetSimulationTime(t float64) {
	if c == nil || c.SimulationTime == nil {
		return
	}
	c.SimulationTime.Set(t)
}

// IncSnapshots counts one written snapshot record.
func (c *PropagatorCollector) IncSnapshots() {
	if c == nil || c.SnapshotsWritten == nil {
		return
	}
	c.SnapshotsWritten.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PropagatorCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
