package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a 3x3 matrix stored in row-major order.
type Matrix [9]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Diagonal returns the diagonal matrix with the entries of d on the
// diagonal.
func Diagonal(d Vec) Matrix {
	return Matrix{
		d[0], 0, 0,
		0, d[1], 0,
		0, 0, d[2],
	}
}

// At returns the element in row i, column j.
func (m *Matrix) At(i, j int) float64 { return m[3*i+j] }

// Set sets the element in row i, column j to x.
func (m *Matrix) Set(i, j int, x float64) { m[3*i+j] = x }

// Col returns the j-th column of m.
func (m *Matrix) Col(j int) Vec {
	return Vec{m[j], m[3+j], m[6+j]}
}

// Row returns the i-th row of m.
func (m *Matrix) Row(i int) Vec {
	return Vec{m[3*i], m[3*i+1], m[3*i+2]}
}

// Mul returns the matrix product m * o.
func (m Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = m[3*i]*o[j] + m[3*i+1]*o[3+j] + m[3*i+2]*o[6+j]
		}
	}
	return out
}

// MulVec returns the matrix-vector product m * v.
func (m Matrix) MulVec(v Vec) Vec {
	return Vec{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	return Matrix{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Det returns the determinant of m.
func (m Matrix) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the inverse of m. The second return value is false if m
// is singular to working precision.
func (m Matrix) Inverse() (Matrix, bool) {
	var inv mat.Dense
	if err := inv.Inverse(m.Dense()); err != nil {
		return Matrix{}, false
	}
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = inv.At(i, j)
		}
	}
	return out, true
}

// Dense returns m as a gonum dense matrix.
func (m Matrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, m[:])
}

// MatrixFromDense converts a 3x3 gonum dense matrix into a Matrix.
func MatrixFromDense(d mat.Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = d.At(i, j)
		}
	}
	return out
}

// Equal reports whether m and o agree element-wise to within eps.
func (m Matrix) Equal(o Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
