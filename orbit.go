package covsim

import (
	"fmt"
	"math"
	"time"
)

const (
	angleε = (5e-3 / 360) * twoπ // 0.005 degrees
)

// Orbit defines a circular orbit via its altitude and plane orientation.
// The in-plane angle θ is not part of the orbit: it is a function of time.
type Orbit struct {
	Altitude    float64 // km above the surface
	Inclination float64 // rad
	RAAN        float64 // rad
	Origin      CelestialObject
}

// NewOrbit returns a circular orbit about Earth. Angles are in radians.
func NewOrbit(altitude, inclination, raan float64) Orbit {
	return Orbit{altitude, inclination, raan, Earth}
}

// Radius returns the orbital radius in km.
func (o Orbit) Radius() float64 {
	return o.Origin.Radius + o.Altitude
}

// Period returns the orbital period in seconds (Kepler's third law).
func (o Orbit) Period() float64 {
	r := o.Radius() * 1e3
	return twoπ * math.Sqrt(r*r*r/o.Origin.GM())
}

// PeriodDuration returns the period as a time.Duration.
func (o Orbit) PeriodDuration() time.Duration {
	return time.Duration(o.Period() * float64(time.Second))
}

// MeanMotion returns the angular rate along the orbit in rad/s.
func (o Orbit) MeanMotion() float64 {
	return twoπ / o.Period()
}

// Position stores where a satellite is. R is in the inertial frame (km); Lat and Lon are
// geographic (degrees) on the rotating surface.
type Position struct {
	X, Y, Z  float64
	Lat, Lon float64
}

// R returns the inertial position vector.
func (p Position) R() []float64 {
	return []float64{p.X, p.Y, p.Z}
}

// String implements the Stringer interface.
func (p Position) String() string {
	return fmt.Sprintf("lat=%.3f lon=%.3f r=%.1f", p.Lat, p.Lon, norm(p.R()))
}

// Position returns the position at in-plane angle θ while the surface has rotated by
// surfaceRot radians since the epoch.
func (o Orbit) Position(θ, surfaceRot float64) Position {
	r := o.Radius()
	sθ, cθ := math.Sincos(θ)
	R := PQW2ECI(o.Inclination, o.RAAN, []float64{r * cθ, r * sθ, 0})
	S := ECI2Surface(R, surfaceRot)
	lon := math.Atan2(S[1], S[0]) * rad2deg
	lat := math.Atan2(S[2], math.Hypot(S[0], S[1])) * rad2deg
	return Position{X: R[0], Y: R[1], Z: R[2], Lat: lat, Lon: WrapLongitude(lon)}
}

// PrecessionRate returns the simplified secular nodal drift in rad/s. It is only used to
// display the plane drifting in a non-inertial frame and never feeds back into Position.
func (o Orbit) PrecessionRate() float64 {
	ratio := o.Origin.Radius / o.Radius()
	return -1.5 * ratio * ratio * o.Origin.RotationRate() * math.Cos(o.Inclination)
}

// PrecessionAngle returns the nodal drift accumulated after t seconds.
func (o Orbit) PrecessionAngle(t float64) float64 {
	return o.PrecessionRate() * t
}

// String implements the stringer interface.
func (o Orbit) String() string {
	return fmt.Sprintf("alt=%.1f i=%.3f Ω=%.3f", o.Altitude, o.Inclination*rad2deg, Rad2deg(o.RAAN))
}

// OrbitalPeriod returns the period in seconds of a circular Earth orbit at the given altitude.
func OrbitalPeriod(altitude float64) float64 {
	return Orbit{Altitude: altitude, Origin: Earth}.Period()
}
