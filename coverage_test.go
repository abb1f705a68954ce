package covsim

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestCoverageRadius(t *testing.T) {
	if r := CoverageRadius(400, 10); !floats.EqualWithinRel(r, 1420, 0.05) {
		t.Fatalf("coverage radius at 400 km / 10°=%f km", r)
	}
	prev := 0.0
	for alt := MinAltitude; alt <= 2000; alt += 100 {
		r := CoverageRadius(alt, 10)
		if r < prev {
			t.Fatalf("radius decreasing at %f km: %f < %f", alt, r, prev)
		}
		prev = r
	}
	// Past the horizon the arcsine is undefined and nothing is covered.
	for _, tc := range []struct{ alt, el float64 }{{4000, 0}, {4000, 2}, {3000, 0}, {MaxAltitude, 10}} {
		if r := CoverageRadius(tc.alt, tc.el); r != 0 {
			t.Fatalf("CoverageRadius(%f, %f)=%f km instead of 0", tc.alt, tc.el, r)
		}
	}
	if CoverageRadius(1000, 10) <= CoverageRadius(400, 10) {
		t.Fatal("radius must grow with altitude")
	}
	if CoverageRadius(400, 30) >= CoverageRadius(400, 10) {
		t.Fatal("radius must shrink with the minimum elevation")
	}
	for _, tc := range []struct{ alt, el float64 }{
		{400, 90}, {math.NaN(), 10}, {400, math.NaN()}, {math.Inf(1), 10},
	} {
		r := CoverageRadius(tc.alt, tc.el)
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			t.Fatalf("CoverageRadius(%f, %f)=%f", tc.alt, tc.el, r)
		}
	}
	if r := CoverageRadius(400, 90); !floats.EqualWithinAbs(r, 0, 1e-6) {
		t.Fatalf("zenith only coverage should be empty, got %f km", r)
	}
	if Mars.CoverageRadius(400, 10) >= CoverageRadius(400, 10) {
		t.Fatal("a smaller body sees less ground at the same altitude")
	}
}

func TestCoverageRadiusGrid(t *testing.T) {
	for alt := MinAltitude; alt <= MaxAltitude; alt += 100 {
		r := Earth.Radius + alt
		prev := math.Inf(1)
		for el := 0.0; el <= MaxElevation; el++ {
			radius := CoverageRadius(alt, el)
			if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
				t.Fatalf("CoverageRadius(%f, %f)=%f", alt, el, radius)
			}
			ε := el * deg2rad
			λ := math.Acos(Earth.Radius/r*math.Cos(ε)) - ε
			if r/Earth.Radius*math.Sin(λ) > 1 {
				if radius != 0 {
					t.Fatalf("CoverageRadius(%f, %f)=%f km beyond the horizon", alt, el, radius)
				}
				continue
			}
			if el < MaxElevation && radius >= prev {
				t.Fatalf("CoverageRadius(%f, %f)=%f km not below %f km", alt, el, radius, prev)
			}
			if radius > Earth.Radius*math.Pi/2 {
				t.Fatalf("CoverageRadius(%f, %f)=%f km exceeds a hemisphere", alt, el, radius)
			}
			prev = radius
		}
		if prev > 1e-6 {
			t.Fatalf("zenith only coverage at %f km is %f km", alt, prev)
		}
	}
}

// greatCircle returns the central angle in radians between two points in degrees.
func greatCircle(a, b LatLon) float64 {
	φ1, φ2 := a.Lat*deg2rad, b.Lat*deg2rad
	Δφ, Δλ := φ2-φ1, (b.Lon-a.Lon)*deg2rad
	h := math.Pow(math.Sin(Δφ/2), 2) + math.Cos(φ1)*math.Cos(φ2)*math.Pow(math.Sin(Δλ/2), 2)
	return 2 * math.Asin(math.Sqrt(h))
}

func TestFootprint(t *testing.T) {
	radius := CoverageRadius(400, 10)
	δ := AngularRadiusDeg(radius) * deg2rad
	for _, c := range []LatLon{{0, 0}, {45, 120}, {-60, -179}, {80, 10}} {
		fp := NewFootprint(c.Lat, c.Lon, radius)
		if len(fp.Points) != FootprintPoints || FootprintPoints != 32 {
			t.Fatalf("expected 32 points, got %d", len(fp.Points))
		}
		if fp.Oversized {
			t.Fatalf("%s should not be oversized", fp)
		}
		for i, p := range fp.Points {
			if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
				t.Fatalf("%s point %d is NaN", fp, i)
			}
			if d := greatCircle(c, p); !floats.EqualWithinAbs(d, δ, 1e-9) {
				t.Fatalf("%s point %d at %f rad instead of %f", fp, i, d, δ)
			}
		}
	}
	// Bearing zero points north.
	fp := NewFootprint(0, 0, radius)
	if !floats.EqualWithinAbs(fp.Points[0].Lat, δ*rad2deg, 1e-9) || !floats.EqualWithinAbs(fp.Points[0].Lon, 0, 1e-9) {
		t.Fatalf("first point %v is not due north", fp.Points[0])
	}
}

func TestFootprintOversized(t *testing.T) {
	fp := NewFootprint(10, 10, 20000)
	if !fp.Oversized {
		t.Fatal("a 20000 km radius must be capped")
	}
	for i, p := range fp.Points {
		if d := greatCircle(fp.Center, p); !floats.EqualWithinAbs(d, math.Pi/2, 1e-9) {
			t.Fatalf("capped point %d at %f rad", i, d)
		}
	}
	zero := NewFootprint(10, 10, 0)
	for _, p := range zero.Points {
		if p != (LatLon{10, 10}) && !floats.EqualWithinAbs(greatCircle(zero.Center, p), 0, 1e-12) {
			t.Fatalf("zero radius footprint point %v", p)
		}
	}
}
