package covsim

import (
	"fmt"
	"strings"
)

const (
	// G is the gravitational constant in m^3/(kg s^2).
	G = 6.67430e-11
)

// CelestialObject defines the rotating sphere the constellation orbits.
type CelestialObject struct {
	Name           string
	Radius         float64 // km
	Mass           float64 // kg
	RotationPeriod float64 // sidereal rotation period in seconds
}

// GM returns the gravitational parameter in m^3/s^2.
func (c CelestialObject) GM() float64 {
	return G * c.Mass
}

// RotationRate returns the rotation rate in radians per second.
func (c CelestialObject) RotationRate() float64 {
	return twoπ / c.RotationPeriod
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.Mass == b.Mass && c.RotationPeriod == b.RotationPeriod
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "", "earth":
		return Earth, nil
	case "mars":
		return Mars, nil
	default:
		return CelestialObject{}, fmt.Errorf("undefined body '%s'", name)
	}
}

// angularRadius converts a ground distance in km into the angle it subtends at the center.
func (c CelestialObject) angularRadius(km float64) float64 {
	return km / c.Radius
}

/* Definitions */

// Earth is home. Spherical, mean radius.
var Earth = CelestialObject{"Earth", 6371, 5.972e24, 86164.1}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3389.5, 6.4171e23, 88642.66}
