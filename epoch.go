package covsim

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
)

// GreenwichAngle returns the Greenwich mean sidereal angle in radians at dt. It is the surface
// rotation at the start of a simulation pinned to a calendar epoch.
func GreenwichAngle(dt time.Time) float64 {
	return sidereal.Mean(julian.TimeToJD(dt.UTC())).Angle().Rad()
}

// JulianDate returns the Julian date of an epoch offset by t simulated seconds.
func JulianDate(epoch time.Time, t float64) float64 {
	return julian.TimeToJD(epoch.UTC().Add(time.Duration(t * float64(time.Second))))
}
