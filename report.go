package covsim

import (
	"fmt"
	"time"
)

// NotReached is shown instead of a time to target which was never reached.
const NotReached = "not reached"

// FormatCoverage returns a coverage percentage with two decimals.
func FormatCoverage(pct float64) string {
	return fmt.Sprintf("%.2f", pct)
}

// FormatDuration returns simulated seconds as days and hours.
func FormatDuration(seconds float64) string {
	return fmt.Sprintf("%.2f days (%.2f hours)", seconds/secondsPerDay, seconds/3600)
}

// FormatTimeToTarget returns the time to target of the simulator for display.
func FormatTimeToTarget(s *Simulator) string {
	elapsed, ok := s.TimeToTarget()
	if !ok {
		return NotReached
	}
	return FormatDuration(elapsed)
}

// FormatCost returns an evaluator cost in days, or NotReached.
func FormatCost(days float64) string {
	if days >= Unreached {
		return NotReached
	}
	return FormatDuration(days * secondsPerDay)
}

// Progress is the state of an optimization as shown to the user.
type Progress struct {
	Iteration     int
	MaxIterations int
	Improvement   float64 // percent
	State         AnnealState
}

func (p Progress) String() string {
	return fmt.Sprintf("%s: iteration %d/%d, improvement %.1f%%", p.State, p.Iteration, p.MaxIterations, p.Improvement)
}

// SatelliteReport is what the rendering side reads of one satellite.
type SatelliteReport struct {
	Lat, Lon        float64 // deg
	X, Y, Z         float64 // km
	PrecessionAngle float64 // rad
}

// Snapshot is everything the rendering side reads after a tick.
type Snapshot struct {
	Time         float64
	Date         time.Time // zero without an epoch
	JD           float64   // zero without an epoch
	Coverage     string
	TimeToTarget string
	Satellites   []SatelliteReport
}

// Snapshot returns the current state for display.
func (s *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Time:         s.Time,
		Coverage:     FormatCoverage(s.coverage),
		TimeToTarget: FormatTimeToTarget(s),
		Satellites:   make([]SatelliteReport, len(s.Sats)),
	}
	if !s.conf.Epoch.IsZero() {
		snap.Date = s.conf.Epoch.Add(time.Duration(s.Time * float64(time.Second)))
		snap.JD = JulianDate(s.conf.Epoch, s.Time)
	}
	for i, sat := range s.Sats {
		p := sat.Position
		snap.Satellites[i] = SatelliteReport{p.Lat, p.Lon, p.X, p.Y, p.Z, sat.PrecessionAngle}
	}
	return snap
}
