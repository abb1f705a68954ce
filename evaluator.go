package covsim

import (
	"errors"
	"fmt"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
)

const (
	// Unreached is the cost of a design which never reaches the target coverage within the
	// horizon. It is larger than any reachable number of days.
	Unreached = 1000.0
	// DefaultEvaluatorStep is the coarse time step of an evaluation, in simulated seconds.
	// It was tuned empirically for throughput and is not known to be optimal.
	DefaultEvaluatorStep = 1000.0
	// HorizonPeriods is the number of orbital periods after which an evaluation gives up.
	HorizonPeriods = 20
	secondsPerDay  = 86400.0
)

// ErrEvaluation is returned when a design cannot be scored.
var ErrEvaluation = errors.New("coverage evaluation failed")

// Evaluator scores a design by the simulated time it takes to reach the target coverage. It
// owns a raster which is never visible to the live simulation, and never touches the live clock.
type Evaluator struct {
	Origin   CelestialObject
	Settings Settings
	Step     float64 // s
	Horizon  float64 // in orbital periods

	raster    *Raster
	rotOffset float64
	logger    kitlog.Logger
	metrics   *Metrics
}

// NewEvaluator returns an evaluator with its own width x height raster.
func NewEvaluator(body CelestialObject, set Settings, width, height int, step float64, logger kitlog.Logger, metrics *Metrics) *Evaluator {
	if step <= 0 {
		step = DefaultEvaluatorStep
	}
	return &Evaluator{
		Origin:   body,
		Settings: set.Clamp(),
		Step:     step,
		Horizon:  HorizonPeriods,
		raster:   NewRaster(width, height),
		logger:   subsysLogger(logger, "coverage"),
		metrics:  metrics,
	}
}

// Evaluate returns the number of days needed by the design to reach the target coverage, or
// Unreached. Identical designs always yield identical results.
func (e *Evaluator) Evaluate(d Design) (float64, error) {
	if err := d.Validate(); err != nil {
		return Unreached, err
	}
	if e.raster.Empty() {
		return Unreached, fmt.Errorf("%w: raster is %dx%d", ErrEvaluation, e.raster.Width(), e.raster.Height())
	}
	if !(e.Step > 0) {
		return Unreached, fmt.Errorf("%w: step of %f s", ErrEvaluation, e.Step)
	}
	run := e.newRun(d)
	run.sample()
	if !run.reached {
		ode.NewRK4(0, e.Step, run).Solve() // Blocking.
	}
	days := Unreached
	if run.reached {
		days = run.t / secondsPerDay
	}
	e.metrics.observeEvaluation(days)
	e.logger.Log("level", "debug", "design", d, "days", days, "coverage", run.coverage)
	return days, nil
}

// coverageRun is one evaluation. The integrated state holds the in-plane angle of every
// satellite followed by the surface rotation angle.
type coverageRun struct {
	e        *Evaluator
	orbits   []Orbit
	rates    []float64
	state    []float64
	t        float64
	horizon  float64
	radius   float64
	coverage float64
	reached  bool
}

func (e *Evaluator) newRun(d Design) *coverageRun {
	set := e.Settings
	n := d.Len()
	r := &coverageRun{
		e:      e,
		orbits: make([]Orbit, n),
		rates:  make([]float64, n+1),
		state:  make([]float64, n+1),
		radius: e.Origin.CoverageRadius(set.Altitude, set.MinElevation),
	}
	for i := 0; i < n; i++ {
		r.orbits[i] = Orbit{set.Altitude, d.Inclination, d.RAAN[i], e.Origin}
		r.rates[i] = r.orbits[i].MeanMotion()
		r.state[i] = d.Phase[i]
	}
	r.rates[n] = e.Origin.RotationRate()
	r.state[n] = e.rotOffset
	r.horizon = e.Horizon * Orbit{Altitude: set.Altitude, Origin: e.Origin}.Period()
	e.raster.Reset()
	return r
}

// sample accumulates every footprint at the current state and checks the target.
func (r *coverageRun) sample() {
	rot := r.state[len(r.orbits)]
	for i, o := range r.orbits {
		pos := o.Position(r.state[i], rot)
		r.e.raster.Accumulate(r.e.Origin.Footprint(pos.Lat, pos.Lon, r.radius), pos.Lon)
	}
	r.coverage = r.e.raster.Percentage(r.e.Settings.MaxLatitude)
	r.reached = r.coverage >= r.e.Settings.TargetCoverage
}

// GetState implements the ode.Integrable interface.
func (r *coverageRun) GetState() []float64 {
	return r.state
}

// SetState implements the ode.Integrable interface.
func (r *coverageRun) SetState(t float64, s []float64) {
	r.state = s
	r.t += r.e.Step
	r.sample()
}

// Stop implements the ode.Integrable interface.
func (r *coverageRun) Stop(t float64) bool {
	return r.reached || r.t+r.e.Step >= r.horizon
}

// Func implements the ode.Integrable interface: every angle grows at a constant rate.
func (r *coverageRun) Func(t float64, s []float64) []float64 {
	fDot := make([]float64, len(s))
	copy(fDot, r.rates)
	return fDot
}
