package covsim

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestWrapLongitude(t *testing.T) {
	for _, tc := range []struct{ in, exp float64 }{
		{0, 0},
		{179.5, 179.5},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{540, -180},
		{725, 5},
		{-725, -5},
	} {
		if got := WrapLongitude(tc.in); !floats.EqualWithinAbs(got, tc.exp, 1e-12) {
			t.Fatalf("WrapLongitude(%f)=%f expected %f", tc.in, got, tc.exp)
		}
	}
	for lon := -1000.0; lon <= 1000; lon += 7.3 {
		if w := WrapLongitude(lon); w < -180 || w >= 180 {
			t.Fatalf("WrapLongitude(%f)=%f out of [-180, 180)", lon, w)
		}
	}
}

func TestWrapAngle(t *testing.T) {
	for _, tc := range []struct{ in, exp float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{twoπ, 0},
		{-math.Pi / 2, 1.5 * math.Pi},
		{5 * math.Pi, math.Pi},
		{-1e-18, 0},
	} {
		if got := WrapAngle(tc.in); !floats.EqualWithinAbs(got, tc.exp, 1e-12) {
			t.Fatalf("WrapAngle(%f)=%f expected %f", tc.in, got, tc.exp)
		}
	}
}

func TestUnwrapLongitude(t *testing.T) {
	if got := unwrapLongitude(-175, 170); got != 185 {
		t.Fatalf("expected 185, got %f", got)
	}
	if got := unwrapLongitude(175, -170); got != -185 {
		t.Fatalf("expected -185, got %f", got)
	}
	if got := unwrapLongitude(10, 0); got != 10 {
		t.Fatalf("expected 10, got %f", got)
	}
}

func TestAngles(t *testing.T) {
	if !anglesEqual(0, twoπ) {
		t.Fatal("0 != 2π")
	}
	if !anglesEqual(-math.Pi/2, 1.5*math.Pi) {
		t.Fatal("-π/2 != 3π/2")
	}
	if anglesEqual(0, 0.1) {
		t.Fatal("0 == 0.1")
	}
	if got := Rad2deg(-math.Pi / 2); !floats.EqualWithinAbs(got, 270, 1e-9) {
		t.Fatalf("Rad2deg(-π/2)=%f", got)
	}
}
