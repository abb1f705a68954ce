package covsim

import "fmt"

// DefaultTailLength bounds the number of recent positions kept per satellite.
const DefaultTailLength = 500

// Satellite is one orbiting body of the live constellation.
type Satellite struct {
	// Design parameters, in radians.
	Inclination, RAAN, InitialPhase float64
	// Derived state, recomputed every tick.
	Theta           float64
	Position        Position
	PrecessionAngle float64
	// Tail holds recent positions, oldest first, for display only.
	Tail []Position

	lastTheta    float64
	hasLastTheta bool
}

// forget drops the history which became meaningless after a parameter change.
func (s *Satellite) forget() {
	s.Tail = nil
	s.hasLastTheta = false
}

// update stores the derived state of the current tick.
func (s *Satellite) update(θ float64, pos Position, precession float64, tailLength int) {
	s.Theta = θ
	s.Position = pos
	s.PrecessionAngle = precession
	s.lastTheta = θ
	s.hasLastTheta = true
	if tailLength <= 0 {
		return
	}
	s.Tail = append(s.Tail, pos)
	if over := len(s.Tail) - tailLength; over > 0 {
		s.Tail = append(s.Tail[:0], s.Tail[over:]...)
	}
}

// String implements the Stringer interface.
func (s Satellite) String() string {
	return fmt.Sprintf("i=%.2f Ω=%.2f φ=%.2f %s", s.Inclination*rad2deg, Rad2deg(s.RAAN), Rad2deg(s.InitialPhase), s.Position)
}
