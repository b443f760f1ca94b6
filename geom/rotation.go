package geom

import (
	"math"
)

// Rotation returns the matrix rotating by angle around the given axis. The
// axis does not have to be normalized.
func Rotation(axis Vec, angle float64) Matrix {
	u := axis.Normalized()
	s, c := math.Sincos(angle)
	k := 1 - c

	return Matrix{
		c + u[0]*u[0]*k, u[0]*u[1]*k - u[2]*s, u[0]*u[2]*k + u[1]*s,
		u[1]*u[0]*k + u[2]*s, c + u[1]*u[1]*k, u[1]*u[2]*k - u[0]*s,
		u[2]*u[0]*k - u[1]*s, u[2]*u[1]*k + u[0]*s, c + u[2]*u[2]*k,
	}
}

// EulerRotation creates a rotation matrix from the Euler angles phi, theta
// and psi, three consecutive rotations around the x, y and z axes.
func EulerRotation(phi, theta, psi float64) Matrix {
	rx := Rotation(Vec{1, 0, 0}, phi)
	ry := Rotation(Vec{0, 1, 0}, theta)
	rz := Rotation(Vec{0, 0, 1}, psi)
	return rz.Mul(ry.Mul(rx))
}

// IsRotation reports whether m is a proper rotation: orthonormal columns
// and determinant +1, to within eps.
func (m Matrix) IsRotation(eps float64) bool {
	mt := m.Transpose()
	if !m.Mul(mt).Equal(Identity(), eps) {
		return false
	}
	return math.Abs(m.Det()-1) <= eps
}
