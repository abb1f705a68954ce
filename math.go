package covsim

import (
	"math"

	"github.com/gonum/floats"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 1 / deg2rad
	twoπ    = 2 * math.Pi
)

// norm returns the norm of a given vector which is supposed to be 3x1.
func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// finite returns whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WrapLongitude wraps a longitude in degrees into [-180, 180).
func WrapLongitude(lon float64) float64 {
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}

// WrapAngle wraps an angle in radians into [0, 2π).
func WrapAngle(a float64) float64 {
	a = math.Mod(a, twoπ)
	if a < 0 {
		a += twoπ
	}
	if a >= twoπ {
		// -tiny + 2π rounds up to 2π.
		a = 0
	}
	return a
}

// unwrapLongitude shifts lon by whole turns until it is within 180 degrees of ref.
func unwrapLongitude(lon, ref float64) float64 {
	for lon-ref > 180 {
		lon -= 360
	}
	for lon-ref < -180 {
		lon += 360
	}
	return lon
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += twoπ
	}
	return math.Mod(a*rad2deg, 360)
}

// anglesEqual returns whether two angles in radians are equal within the angle tolerance.
func anglesEqual(a, b float64) bool {
	d := math.Abs(WrapAngle(a) - WrapAngle(b))
	return floats.EqualWithinAbs(d, 0, angleε) || floats.EqualWithinAbs(d, twoπ, angleε)
}
