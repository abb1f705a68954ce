package covsim

import (
	"errors"
	"fmt"
	"math"
)

// Envelope of the design space.
const (
	MinSatellites   = 1
	MaxSatellites   = 10
	MinAltitude     = 200.0  // km
	MaxAltitude     = 4000.0 // km
	MinSpeed        = 1.0
	MaxSpeed        = 300.0
	MaxElevation    = 90.0
	MaxTarget       = 100.0
	MaxLatitudeBand = 90.0
)

var (
	// ErrInvalidDesign is returned when a design cannot be simulated.
	ErrInvalidDesign = errors.New("invalid design")
	// ErrSatelliteIndex is returned when editing a satellite which does not exist.
	ErrSatelliteIndex = errors.New("satellite index out of range")
	// ErrAngleRange is returned when an edited angle is outside [0, 2π].
	ErrAngleRange = errors.New("angle out of range")
)

// Settings are the values pulled from the user interface every tick. They are clamped at the
// boundary and never surface as errors.
type Settings struct {
	Altitude        float64 // km
	Speed           float64 // simulated seconds per tick
	MinElevation    float64 // deg
	TargetCoverage  float64 // percent
	MaxLatitude     float64 // deg
	AllowRetrograde bool
	// Display toggles. Only ShowTrace matters to the simulation: without it nothing accumulates.
	ShowCoverage  bool
	ShowTrace     bool
	ShowTracks    bool
	InertialFrame bool
}

// DefaultSettings returns the settings the interface starts with.
func DefaultSettings() Settings {
	return Settings{
		Altitude:       400,
		Speed:          50,
		MinElevation:   10,
		TargetCoverage: 90,
		MaxLatitude:    80,
		ShowCoverage:   true,
		ShowTrace:      true,
		ShowTracks:     true,
	}
}

// fallback returns v bounded to [lo, hi], or def when v is not a number.
func fallback(v, def, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return clamp(v, lo, hi)
}

// Clamp returns a copy with every value within its admissible range.
func (s Settings) Clamp() Settings {
	def := DefaultSettings()
	s.Altitude = fallback(s.Altitude, def.Altitude, MinAltitude, MaxAltitude)
	s.Speed = fallback(s.Speed, def.Speed, MinSpeed, MaxSpeed)
	s.MinElevation = fallback(s.MinElevation, def.MinElevation, 0, MaxElevation)
	s.TargetCoverage = fallback(s.TargetCoverage, def.TargetCoverage, 0, MaxTarget)
	s.MaxLatitude = fallback(s.MaxLatitude, def.MaxLatitude, 0, MaxLatitudeBand)
	return s
}

// MaxInclination returns the largest admissible inclination in radians about body. Without
// retrograde orbits, inclining past the band of interest plus one footprint radius only
// wastes coverage.
func (s Settings) MaxInclination(body CelestialObject) float64 {
	if s.AllowRetrograde {
		return math.Pi
	}
	δ := body.angularRadius(body.CoverageRadius(s.Altitude, s.MinElevation)) * rad2deg
	return math.Min(90, s.MaxLatitude+δ) * deg2rad
}

// Design is a point of the search space: one inclination shared by all satellites and the
// RAAN and initial phase of each satellite, all in radians.
type Design struct {
	Inclination float64
	RAAN        []float64
	Phase       []float64
}

// Len returns the number of satellites.
func (d Design) Len() int {
	return len(d.RAAN)
}

// Clone returns a deep copy.
func (d Design) Clone() Design {
	return Design{
		Inclination: d.Inclination,
		RAAN:        append([]float64(nil), d.RAAN...),
		Phase:       append([]float64(nil), d.Phase...),
	}
}

// Equals returns whether both designs are identical within the angle tolerance.
func (d Design) Equals(o Design) bool {
	if d.Len() != o.Len() || len(d.Phase) != d.Len() || len(o.Phase) != o.Len() || !anglesEqual(d.Inclination, o.Inclination) {
		return false
	}
	for i := range d.RAAN {
		if !anglesEqual(d.RAAN[i], o.RAAN[i]) || !anglesEqual(d.Phase[i], o.Phase[i]) {
			return false
		}
	}
	return true
}

// Validate returns an error if the design cannot be simulated.
func (d Design) Validate() error {
	if d.Len() < MinSatellites || d.Len() > MaxSatellites {
		return fmt.Errorf("%w: %d satellites", ErrInvalidDesign, d.Len())
	}
	if len(d.Phase) != d.Len() {
		return fmt.Errorf("%w: %d RAANs but %d phases", ErrInvalidDesign, d.Len(), len(d.Phase))
	}
	if !finite(d.Inclination) || d.Inclination < 0 || d.Inclination > math.Pi {
		return fmt.Errorf("%w: inclination %f", ErrInvalidDesign, d.Inclination)
	}
	for i := range d.RAAN {
		if !finite(d.RAAN[i]) || !finite(d.Phase[i]) {
			return fmt.Errorf("%w: satellite %d has non finite angles", ErrInvalidDesign, i)
		}
	}
	return nil
}

// String implements the Stringer interface.
func (d Design) String() string {
	s := fmt.Sprintf("i=%.2f", d.Inclination*rad2deg)
	for i := range d.RAAN {
		s += fmt.Sprintf(" [Ω=%.2f φ=%.2f]", Rad2deg(d.RAAN[i]), Rad2deg(d.Phase[i]))
	}
	return s
}
