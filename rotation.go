package covsim

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// R3R1R3 performs a 3-1-3 Euler parameter rotation.
// From Schaub and Junkins.
func R3R1R3(θ1, θ2, θ3 float64) *mat64.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat64.NewDense(3, 3, []float64{cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat64.Matrix, v []float64) []float64 {
	var rVec mat64.Vector
	rVec.MulVec(m, mat64.NewVector(len(v), v))
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// PQW2ECI converts a vector from the orbital plane to the inertial frame of a circular orbit.
// The argument of latitude lives in the in-plane vector, hence the zero middle angle.
func PQW2ECI(i, Ω float64, vI []float64) []float64 {
	// The transpose of the 3-1-3 (Ω, i, 0) DCM maps PQW onto ECI.
	return MxV33(R3R1R3(Ω, i, 0).T(), vI)
}

// ECI2Surface rotates an inertial vector into the frame fixed to the rotating surface, which
// has turned by θ radians since the epoch.
func ECI2Surface(R []float64, θ float64) []float64 {
	return MxV33(R3(θ), R)
}
