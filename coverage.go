package covsim

import (
	"fmt"
	"math"
)

// FootprintPoints is the number of vertices of every footprint polygon.
const FootprintPoints = 32

// LatLon is a geographic point in degrees.
type LatLon struct {
	Lat, Lon float64
}

// CoverageRadius returns the ground radius in km covered from altitude (km) above a body for
// a minimum elevation in degrees. Out of domain inputs yield 0, never NaN nor a negative value.
// This includes high orbits seen at a low elevation, where the arcsine argument exceeds 1.
// NOTE: a zero radius is a legitimate result that downstream code must handle.
func (c CelestialObject) CoverageRadius(altitude, minElevation float64) float64 {
	r := c.Radius + altitude
	ε := minElevation * deg2rad
	λ := math.Acos(clamp(c.Radius/r*math.Cos(ε), -1, 1)) - ε
	γ := math.Asin(r / c.Radius * math.Sin(λ))
	radius := c.Radius * γ
	if !finite(radius) || radius < 0 {
		return 0
	}
	return radius
}

// CoverageRadius returns the coverage radius in km about Earth.
func CoverageRadius(altitude, minElevation float64) float64 {
	return Earth.CoverageRadius(altitude, minElevation)
}

// AngularRadiusDeg converts a ground radius in km on Earth to degrees of arc.
func AngularRadiusDeg(radius float64) float64 {
	return Earth.angularRadius(radius) * rad2deg
}

// Footprint is the ground boundary of a satellite's coverage, a spherical circle sampled at
// FootprintPoints bearings. The ring is implicitly closed.
type Footprint struct {
	Center    LatLon
	Points    [FootprintPoints]LatLon
	Oversized bool // angular radius capped at 90°
}

// NewFootprint returns the footprint of the given ground radius (km) centered on lat, lon (deg).
func NewFootprint(lat, lon, radius float64) Footprint {
	return Earth.Footprint(lat, lon, radius)
}

// Footprint returns the footprint about this body.
func (c CelestialObject) Footprint(lat, lon, radius float64) Footprint {
	fp := Footprint{Center: LatLon{lat, lon}}
	δ := c.angularRadius(radius)
	if !finite(δ) || δ < 0 {
		δ = 0
	}
	if δ >= math.Pi/2 {
		δ = math.Pi / 2
		fp.Oversized = true
	}
	φ, λ := lat*deg2rad, lon*deg2rad
	sφ, cφ := math.Sincos(φ)
	sδ, cδ := math.Sincos(δ)
	for i := range fp.Points {
		sθ, cθ := math.Sincos(twoπ * float64(i) / FootprintPoints)
		φi := math.Asin(clamp(sφ*cδ+cφ*sδ*cθ, -1, 1))
		λi := λ + math.Atan2(sθ*sδ*cφ, cδ-sφ*math.Sin(φi))
		fp.Points[i] = LatLon{clamp(φi*rad2deg, -90, 90), λi * rad2deg}
	}
	return fp
}

// String implements the Stringer interface.
func (f Footprint) String() string {
	s := fmt.Sprintf("footprint@(%.2f, %.2f)", f.Center.Lat, f.Center.Lon)
	if f.Oversized {
		s += " [oversized]"
	}
	return s
}
