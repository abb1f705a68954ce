package covsim

import (
	"fmt"
	"math"
	"math/rand"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// maxAngularStep bounds the in-plane angle between two accumulated footprints.
	maxAngularStep = 0.1
	// maxSubSteps caps the footprints accumulated per satellite per tick.
	maxSubSteps = 100
	// defaultInclination replaces an invalid requested inclination.
	defaultInclination = 45 * deg2rad
)

// SimState is the state of the live simulation.
type SimState uint8

const (
	// Idle means paused: ticks are ignored.
	Idle SimState = iota + 1
	// Running means every tick advances the simulated time.
	Running
)

func (s SimState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	panic("cannot stringify unknown simulation state")
}

// Simulator is the live simulation context: it owns the clock, the satellites and the
// coverage raster, and latches the first time the target coverage is reached.
type Simulator struct {
	Origin     CelestialObject
	Time       float64 // simulated seconds since the last full reset
	StartTime  float64 // when coverage started accumulating
	Sats       []*Satellite
	TailLength int

	conf            Config
	settings        Settings
	lastAlt         float64
	inclination     float64
	raster          *Raster
	coverage        float64
	targetReached   bool
	elapsedAtTarget float64
	warnedOversized bool
	state           SimState
	rotOffset       float64
	rng             *rand.Rand
	root            kitlog.Logger
	logger          kitlog.Logger
	metrics         *Metrics
}

// NewSimulator returns a running simulator with conf.NumSatellites satellites at random RAAN
// and phase, and the configured inclination.
func NewSimulator(conf Config, logger kitlog.Logger, metrics *Metrics) *Simulator {
	s := &Simulator{
		Origin:     conf.Body,
		TailLength: conf.TailLength,
		conf:       conf,
		settings:   conf.Settings.Clamp(),
		raster:     NewRaster(conf.RasterWidth, conf.RasterHeight),
		state:      Running,
		rng:        rand.New(rand.NewSource(conf.Seed)),
		root:       logger,
		logger:     subsysLogger(logger, "astro"),
		metrics:    metrics,
	}
	if s.Origin.Radius == 0 {
		s.Origin = Earth
	}
	s.raster.WrapSeam = conf.WrapSeam
	if !conf.Epoch.IsZero() {
		s.rotOffset = GreenwichAngle(conf.Epoch)
	}
	s.lastAlt = s.settings.Altitude
	s.Initialize(conf.NumSatellites, conf.Inclination*deg2rad, nil, nil)
	return s
}

// Initialize replaces the constellation with num satellites. Missing or short RAAN and phase
// lists are completed with random angles in [0, π/2). An invalid inclination falls back to 45°
// and an excessive one is capped. The clock, the raster and the latch are reset.
func (s *Simulator) Initialize(num int, inclination float64, raan, phase []float64) {
	if num < MinSatellites {
		num = MinSatellites
	}
	if num > MaxSatellites {
		num = MaxSatellites
	}
	maxInc := math.Pi / 2
	if s.settings.AllowRetrograde {
		maxInc = math.Pi
	}
	if math.IsNaN(inclination) || inclination < 0 {
		inclination = defaultInclination
	}
	if inclination > maxInc {
		inclination = maxInc
	}
	s.inclination = inclination
	s.Sats = make([]*Satellite, num)
	for i := range s.Sats {
		sat := &Satellite{Inclination: inclination}
		if i < len(raan) {
			sat.RAAN = raan[i]
		} else {
			sat.RAAN = s.rng.Float64() * 0.5 * math.Pi
		}
		if i < len(phase) {
			sat.InitialPhase = phase[i]
		} else {
			sat.InitialPhase = s.rng.Float64() * 0.5 * math.Pi
		}
		s.Sats[i] = sat
	}
	s.Time = 0
	s.reset()
	s.logger.Log("level", "info", "status", "initialized", "design", s.Design())
}

// reset clears the raster, the latch and every satellite history, and restarts the coverage
// clock at the current time.
func (s *Simulator) reset() {
	s.raster.Reset()
	s.coverage = 0
	s.targetReached = false
	s.elapsedAtTarget = 0
	s.warnedOversized = false
	s.StartTime = s.Time
	for _, sat := range s.Sats {
		sat.forget()
	}
}

// Clear wipes the accumulated coverage and the latch without touching the clock.
func (s *Simulator) Clear() {
	s.reset()
	s.logger.Log("level", "info", "status", "cleared", "t", s.Time)
}

// Commit replaces the live design, e.g. with the best design found by an optimizer.
func (s *Simulator) Commit(d Design) {
	s.Initialize(d.Len(), d.Inclination, d.RAAN, d.Phase)
}

// EditSatellite changes the RAAN and the initial phase (radians, within [0, 2π]) of satellite i.
// The whole simulation restarts from t=0 on success; nothing changes on error.
func (s *Simulator) EditSatellite(i int, raan, phase float64) error {
	if i < 0 || i >= len(s.Sats) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrSatelliteIndex, i, len(s.Sats))
	}
	for _, a := range []float64{raan, phase} {
		if math.IsNaN(a) || a < 0 || a > twoπ {
			return fmt.Errorf("%w: %f rad", ErrAngleRange, a)
		}
	}
	s.Sats[i].RAAN = raan
	s.Sats[i].InitialPhase = phase
	s.Time = 0
	s.reset()
	s.logger.Log("level", "info", "status", "edited", "sat", i+1, "raan", Rad2deg(raan), "phase", Rad2deg(phase))
	return nil
}

// SetTarget changes the target coverage. The accumulated coverage is kept but the latch is
// released so the new target may be reached.
func (s *Simulator) SetTarget(target float64) {
	s.settings.TargetCoverage = fallback(target, DefaultSettings().TargetCoverage, 0, MaxTarget)
	s.targetReached = false
	s.elapsedAtTarget = 0
}

// Pause stops the clock.
func (s *Simulator) Pause() { s.state = Idle }

// Resume restarts the clock.
func (s *Simulator) Resume() { s.state = Running }

// State returns whether the simulator is running.
func (s *Simulator) State() SimState { return s.state }

// Settings returns the settings seen at the last tick.
func (s *Simulator) Settings() Settings { return s.settings }

// Design returns the live design.
func (s *Simulator) Design() Design {
	d := Design{Inclination: s.inclination, RAAN: make([]float64, len(s.Sats)), Phase: make([]float64, len(s.Sats))}
	for i, sat := range s.Sats {
		d.RAAN[i] = sat.RAAN
		d.Phase[i] = sat.InitialPhase
	}
	return d
}

// Raster returns the live coverage raster for display. Callers must not accumulate into it.
func (s *Simulator) Raster() *Raster { return s.raster }

// Coverage returns the coverage percentage computed at the last traced tick.
func (s *Simulator) Coverage() float64 { return s.coverage }

// TimeToTarget returns the simulated seconds it took to reach the target coverage since the
// last reset, and whether it was reached.
func (s *Simulator) TimeToTarget() (float64, bool) {
	return s.elapsedAtTarget, s.targetReached
}

// SurfaceRotation returns the surface rotation angle in radians at simulated time t.
func (s *Simulator) SurfaceRotation(t float64) float64 {
	return s.Origin.RotationRate()*t + s.rotOffset
}

// Evaluator returns a coverage time evaluator using the current settings and its own raster.
func (s *Simulator) Evaluator() *Evaluator {
	e := NewEvaluator(s.Origin, s.settings, s.conf.RasterWidth, s.conf.RasterHeight, s.conf.EvaluatorStep, s.root, s.metrics)
	e.raster.WrapSeam = s.raster.WrapSeam
	e.rotOffset = s.rotOffset
	return e
}

// Tick advances the simulation by one step of set.Speed simulated seconds.
func (s *Simulator) Tick(set Settings) {
	if s.state != Running {
		return
	}
	set = set.Clamp()
	s.settings = set
	if set.Altitude != s.lastAlt {
		s.lastAlt = set.Altitude
		s.reset()
		s.logger.Log("level", "info", "status", "altitude", "km", set.Altitude)
	}
	ω := twoπ / Orbit{Altitude: set.Altitude, Origin: s.Origin}.Period()
	rot := s.SurfaceRotation(s.Time)
	radius := s.Origin.CoverageRadius(set.Altitude, set.MinElevation)
	for _, sat := range s.Sats {
		orbit := Orbit{set.Altitude, sat.Inclination, sat.RAAN, s.Origin}
		θ := ω*s.Time + sat.InitialPhase
		if set.ShowTrace {
			start := θ - ω*set.Speed
			if sat.hasLastTheta {
				start = sat.lastTheta
			}
			s.trace(orbit, start, θ, rot, radius)
		}
		sat.update(θ, orbit.Position(θ, rot), orbit.PrecessionAngle(s.Time), s.TailLength)
	}
	if set.ShowTrace {
		s.coverage = s.raster.Percentage(set.MaxLatitude)
		if !s.targetReached && s.coverage >= set.TargetCoverage {
			s.targetReached = true
			s.elapsedAtTarget = s.Time - s.StartTime
			s.logger.Log("level", "notice", "status", "target reached", "coverage", s.coverage, "elapsed", FormatDuration(s.elapsedAtTarget))
		}
	}
	s.metrics.observeTick(s.coverage)
	s.Time += set.Speed
}

// subSteps returns the number of intervals a sweep of Δθ radians is split into.
func subSteps(Δθ float64) int {
	if !finite(Δθ) {
		return 0
	}
	return int(math.Min(maxSubSteps, math.Ceil(math.Abs(Δθ)/maxAngularStep)))
}

// trace accumulates footprints from θ0 to θ1 so that consecutive footprints never leave a gap,
// whatever the angular speed.
func (s *Simulator) trace(orbit Orbit, θ0, θ1, rot, radius float64) {
	Δθ := θ1 - θ0
	steps := subSteps(Δθ)
	for i := 0; i <= steps; i++ {
		θ := θ1
		if steps > 0 {
			θ = θ0 + Δθ*float64(i)/float64(steps)
		}
		pos := orbit.Position(θ, rot)
		fp := s.Origin.Footprint(pos.Lat, pos.Lon, radius)
		if fp.Oversized && !s.warnedOversized {
			s.warnedOversized = true
			s.logger.Log("level", "warning", "message", "footprint capped to 90° angular radius", "radius(km)", radius)
		}
		s.raster.Accumulate(fp, pos.Lon)
	}
}
