/*
package geom provides the vector and matrix primitives used by the Monte
Carlo engine: 3-vectors, 3x3 matrices, axis rotations and conversions
between rotation matrices and unit quaternions.
*/
package geom

import (
	"math"
)

// Vec is a vector in 3D space.
type Vec [3]float64

// Add returns the sum v + u.
func (v Vec) Add(u Vec) Vec {
	return Vec{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Sub returns the difference v - u.
func (v Vec) Sub(u Vec) Vec {
	return Vec{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

// Scale returns v multiplied by the scalar s.
func (v Vec) Scale(s float64) Vec {
	return Vec{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the inner product of v and u.
func (v Vec) Dot(u Vec) float64 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Cross returns the cross product v x u.
func (v Vec) Cross(u Vec) Vec {
	return Vec{
		v[1]*u[2] - v[2]*u[1],
		v[2]*u[0] - v[0]*u[2],
		v[0]*u[1] - v[1]*u[0],
	}
}

// Norm2 returns the squared Euclidean norm of v.
func (v Vec) Norm2() float64 {
	return v.Dot(v)
}

// Norm returns the Euclidean norm of v.
func (v Vec) Norm() float64 {
	return math.Sqrt(v.Norm2())
}

// Normalized returns v scaled to unit length. It panics on the zero vector.
func (v Vec) Normalized() Vec {
	n := v.Norm()
	if n == 0 {
		panic("geom: normalizing zero vector")
	}
	return v.Scale(1 / n)
}

// Dist2 returns the squared distance between v and u.
func (v Vec) Dist2(u Vec) float64 {
	dx := v[0] - u[0]
	dy := v[1] - u[1]
	dz := v[2] - u[2]
	return dx*dx + dy*dy + dz*dz
}
