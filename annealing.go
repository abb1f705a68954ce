package covsim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/stat/distuv"
)

const (
	// maxInclinationDelta bounds an inclination perturbation.
	maxInclinationDelta = 30 * deg2rad
	// maxAngleDelta bounds a RAAN or phase perturbation.
	maxAngleDelta = 90 * deg2rad
)

// ErrAnnealerState is returned when an annealer method is called in the wrong state.
var ErrAnnealerState = errors.New("annealer not in expected state")

// AnnealState is the state of an annealing run.
type AnnealState uint8

const (
	// AnnealIdle is before Start.
	AnnealIdle AnnealState = iota + 1
	// AnnealRunning means Step may be called.
	AnnealRunning
	// AnnealConverged means the temperature or the iteration cap was reached.
	AnnealConverged
	// AnnealCancelled means the run was stopped from outside.
	AnnealCancelled
	// AnnealFailed means an evaluation failed: nothing was committed.
	AnnealFailed
)

func (s AnnealState) String() string {
	switch s {
	case AnnealIdle:
		return "idle"
	case AnnealRunning:
		return "running"
	case AnnealConverged:
		return "converged"
	case AnnealCancelled:
		return "cancelled"
	case AnnealFailed:
		return "failed"
	}
	panic("cannot stringify unknown annealing state")
}

// Done returns whether the run has terminated.
func (s AnnealState) Done() bool {
	return s == AnnealConverged || s == AnnealCancelled || s == AnnealFailed
}

// AnnealingConfig is the cooling schedule.
type AnnealingConfig struct {
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	MaxIterations      int
}

// DefaultAnnealingConfig returns the schedule the interface starts with.
func DefaultAnnealingConfig() AnnealingConfig {
	return AnnealingConfig{InitialTemperature: 100, CoolingRate: 0.95, MinTemperature: 0.1, MaxIterations: 500}
}

// Clamp bounds the schedule to what the interface allows.
func (c AnnealingConfig) Clamp() AnnealingConfig {
	def := DefaultAnnealingConfig()
	c.InitialTemperature = fallback(c.InitialTemperature, def.InitialTemperature, 100, 10000)
	c.CoolingRate = fallback(c.CoolingRate, def.CoolingRate, 0.9, 0.999)
	if !(c.MinTemperature > 0) {
		c.MinTemperature = def.MinTemperature
	}
	if c.MaxIterations < 100 {
		c.MaxIterations = 100
	} else if c.MaxIterations > 2000 {
		c.MaxIterations = 2000
	}
	return c
}

// Scorer returns the cost of a design, lower is better.
type Scorer interface {
	Evaluate(Design) (float64, error)
}

// Committer receives the best design when a run terminates.
type Committer interface {
	Commit(Design)
}

// Sample is one iteration of an annealing run.
type Sample struct {
	Iteration   int
	Temperature float64
	Cost        float64
	Current     float64
	Best        float64
	Accepted    bool
}

// Annealer searches the design space by simulated annealing. It is an explicit iterator: the
// caller drives Step and may do other work, or Cancel, between two iterations.
type Annealer struct {
	conf        AnnealingConfig
	scorer      Scorer
	committer   Committer
	maxInc      float64
	state       AnnealState
	cancelled   bool
	current     Design
	best        Design
	currentCost float64
	bestCost    float64
	initialCost float64
	firstValid  float64
	temperature float64
	iteration   int
	history     []Sample
	rng         *rand.Rand
	unit        distuv.Uniform
	logger      kitlog.Logger
	metrics     *Metrics
	err         error
}

// NewAnnealer returns an idle annealer starting from initial. Inclinations are bounded to
// [0, maxInclination]. The committer may be nil.
func NewAnnealer(conf AnnealingConfig, initial Design, maxInclination float64, scorer Scorer, committer Committer, rng *rand.Rand, logger kitlog.Logger, metrics *Metrics) *Annealer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Annealer{
		conf:        conf,
		scorer:      scorer,
		committer:   committer,
		maxInc:      maxInclination,
		state:       AnnealIdle,
		current:     initial.Clone(),
		best:        initial.Clone(),
		currentCost: Unreached,
		bestCost:    Unreached,
		initialCost: Unreached,
		firstValid:  Unreached,
		rng:         rng,
		unit:        distuv.Uniform{Min: -1, Max: 1, Source: rng},
		logger:      subsysLogger(logger, "optim"),
		metrics:     metrics,
	}
}

// Start scores the initial design. The run may converge immediately.
func (a *Annealer) Start() error {
	if a.state != AnnealIdle {
		return fmt.Errorf("%w: cannot start when %s", ErrAnnealerState, a.state)
	}
	cost, err := a.scorer.Evaluate(a.current)
	if err != nil {
		return a.fail(err)
	}
	a.currentCost = cost
	a.bestCost = cost
	a.initialCost = cost
	if cost < Unreached {
		a.firstValid = cost
	}
	a.temperature = a.conf.InitialTemperature
	a.state = AnnealRunning
	a.logger.Log("level", "info", "status", "started", "cost", cost, "temperature", a.temperature, "max iterations", a.conf.MaxIterations)
	if a.exhausted() {
		a.terminate(AnnealConverged)
	}
	return nil
}

// Step performs one iteration and returns whether the run should continue.
func (a *Annealer) Step() (bool, error) {
	if a.state != AnnealRunning {
		return false, a.err
	}
	if a.cancelled {
		a.terminate(AnnealCancelled)
		return false, nil
	}
	candidate := a.perturb()
	cost := a.currentCost
	if !candidate.Equals(a.current) {
		// A perturbation clamped at a bound may leave the design unchanged.
		var err error
		if cost, err = a.scorer.Evaluate(candidate); err != nil {
			return false, a.fail(err)
		}
	}
	Δ := cost - a.currentCost
	accepted := Δ <= 0 || a.rng.Float64() < math.Exp(-Δ/a.temperature)
	if accepted {
		a.current = candidate
		a.currentCost = cost
	}
	if cost < a.bestCost || a.bestCost >= Unreached {
		a.best = candidate.Clone()
		a.bestCost = cost
	}
	if cost < Unreached && a.firstValid >= Unreached {
		a.firstValid = cost
	}
	a.history = append(a.history, Sample{a.iteration, a.temperature, cost, a.currentCost, a.bestCost, accepted})
	a.metrics.observeIteration(accepted, a.temperature, a.bestCost)
	a.temperature *= a.conf.CoolingRate
	a.iteration++
	if a.exhausted() {
		a.terminate(AnnealConverged)
		return false, nil
	}
	return true, nil
}

// Cancel stops the run at the next iteration boundary.
func (a *Annealer) Cancel() {
	a.cancelled = true
}

// Run starts the annealer if needed and steps it until termination or until ctx is done.
func (a *Annealer) Run(ctx context.Context) error {
	if a.state == AnnealIdle {
		if err := a.Start(); err != nil {
			return err
		}
	}
	for a.state == AnnealRunning {
		select {
		case <-ctx.Done():
			a.Cancel()
		default:
		}
		if _, err := a.Step(); err != nil {
			return err
		}
	}
	return nil
}

// State returns the state of the run.
func (a *Annealer) State() AnnealState { return a.state }

// Best returns the best design found so far.
func (a *Annealer) Best() Design { return a.best.Clone() }

// BestCost returns the cost of the best design, or Unreached.
func (a *Annealer) BestCost() float64 { return a.bestCost }

// Feasible returns whether the best design reaches the target.
func (a *Annealer) Feasible() bool { return a.bestCost < Unreached }

// Iteration returns the number of completed iterations.
func (a *Annealer) Iteration() int { return a.iteration }

// Temperature returns the current temperature.
func (a *Annealer) Temperature() float64 { return a.temperature }

// History returns every iteration performed.
func (a *Annealer) History() []Sample { return a.history }

// Improvement returns the improvement of the best cost in percent, relative to the initial cost
// when it was feasible or else to the first feasible cost found.
func (a *Annealer) Improvement() float64 {
	ref := a.initialCost
	if ref >= Unreached || ref <= 0 {
		ref = a.firstValid
	}
	if ref >= Unreached || ref <= 0 || a.bestCost >= Unreached {
		return 0
	}
	return (ref - a.bestCost) / ref * 100
}

// Progress returns the state of the run as shown to the user.
func (a *Annealer) Progress() Progress {
	return Progress{Iteration: a.iteration, MaxIterations: a.conf.MaxIterations, Improvement: a.Improvement(), State: a.state}
}

func (a *Annealer) exhausted() bool {
	return a.temperature <= a.conf.MinTemperature || a.iteration >= a.conf.MaxIterations
}

// perturb returns a copy of the current design with one dimension moved at random.
func (a *Annealer) perturb() Design {
	d := a.current.Clone()
	switch a.rng.Intn(3) {
	case 0:
		d.Inclination = clamp(d.Inclination+a.unit.Rand()*maxInclinationDelta, 0, a.maxInc)
	case 1:
		i := a.rng.Intn(d.Len())
		d.RAAN[i] = WrapAngle(d.RAAN[i] + a.unit.Rand()*maxAngleDelta)
	default:
		i := a.rng.Intn(d.Len())
		d.Phase[i] = WrapAngle(d.Phase[i] + a.unit.Rand()*maxAngleDelta)
	}
	return d
}

func (a *Annealer) terminate(state AnnealState) {
	a.state = state
	if a.committer != nil {
		a.committer.Commit(a.best.Clone())
	}
	if a.Feasible() {
		a.logger.Log("level", "notice", "status", state, "iterations", a.iteration, "best", a.best, "days", a.bestCost, "improvement(%)", a.Improvement())
	} else {
		a.logger.Log("level", "warning", "status", state, "iterations", a.iteration, "message", "no design reaches the target coverage")
	}
}

func (a *Annealer) fail(err error) error {
	a.state = AnnealFailed
	a.err = fmt.Errorf("iteration %d: %w", a.iteration, err)
	a.logger.Log("level", "error", "status", AnnealFailed, "err", a.err)
	return a.err
}

// Optimize pauses the simulation and runs an annealer over the live design with the current
// settings. The best design is committed on termination, and the simulation resumes unless it
// was already paused.
func (s *Simulator) Optimize(ctx context.Context, conf AnnealingConfig) (*Annealer, error) {
	wasRunning := s.state == Running
	s.Pause()
	if wasRunning {
		defer s.Resume()
	}
	a := NewAnnealer(conf, s.Design(), s.settings.MaxInclination(s.Origin), s.Evaluator(), s, s.rng, s.root, s.metrics)
	return a, a.Run(ctx)
}
