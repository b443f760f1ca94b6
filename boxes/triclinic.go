/*
package boxes implements the triclinic simulation box and the periodic
boundary conditions applied on top of it.

The box is a 3x3 matrix whose columns are the three edge vectors. Particle
positions are stored in absolute coordinates; fractional coordinates are
obtained through the inverse matrix, which is kept cached alongside the
matrix itself.
*/
package boxes

import (
	"errors"
	"math"

	"github.com/phil-mansfield/packmc/geom"
)

// ErrInvalidBox is returned when a box matrix has a non-positive
// determinant.
var ErrInvalidBox = errors.New("boxes: box matrix must have positive determinant")

// TriclinicBox is a fully general parallelepiped simulation box.
type TriclinicBox struct {
	m, inv geom.Matrix
}

// NewTriclinicBox creates a box from the matrix whose columns are the edge
// vectors. Returns ErrInvalidBox unless det m > 0.
func NewTriclinicBox(m geom.Matrix) (*TriclinicBox, error) {
	b := &TriclinicBox{}
	if err := b.SetMatrix(m); err != nil {
		return nil, err
	}
	return b, nil
}

// NewCubicBox creates an axis-aligned cubic box with the given side length.
func NewCubicBox(side float64) (*TriclinicBox, error) {
	return NewOrthorhombicBox(geom.Vec{side, side, side})
}

// NewOrthorhombicBox creates an axis-aligned box with the given side
// lengths.
func NewOrthorhombicBox(sides geom.Vec) (*TriclinicBox, error) {
	return NewTriclinicBox(geom.Diagonal(sides))
}

// Matrix returns the box matrix.
func (b *TriclinicBox) Matrix() geom.Matrix { return b.m }

// InverseMatrix returns the cached inverse of the box matrix.
func (b *TriclinicBox) InverseMatrix() geom.Matrix { return b.inv }

// SetMatrix replaces the box matrix and refreshes the cached inverse.
// Returns ErrInvalidBox unless det m > 0.
func (b *TriclinicBox) SetMatrix(m geom.Matrix) error {
	if m.Det() <= 0 {
		return ErrInvalidBox
	}
	inv, ok := m.Inverse()
	if !ok {
		return ErrInvalidBox
	}
	b.m, b.inv = m, inv
	return nil
}

// Transform left-multiplies the box matrix by t. Returns ErrInvalidBox if
// the transformed matrix would have a non-positive determinant, in which
// case the box is unchanged.
func (b *TriclinicBox) Transform(t geom.Matrix) error {
	return b.SetMatrix(t.Mul(b.m))
}

// Volume returns the box volume |det m|.
func (b *TriclinicBox) Volume() float64 {
	return math.Abs(b.m.Det())
}

// Heights returns the perpendicular distances between the three pairs of
// opposite box faces. The k-th height is the distance between the faces
// spanned by the other two edge vectors.
func (b *TriclinicBox) Heights() geom.Vec {
	return MatrixHeights(b.m)
}

// MatrixHeights returns the face heights of the box described by m
// without requiring det m > 0. It lets callers vet a candidate box
// matrix before committing it.
func MatrixHeights(m geom.Matrix) geom.Vec {
	v := math.Abs(m.Det())
	var h geom.Vec
	for k := 0; k < 3; k++ {
		area := m.Col((k + 1) % 3).Cross(m.Col((k + 2) % 3)).Norm()
		h[k] = v / area
	}
	return h
}

// Absolute converts fractional coordinates to absolute ones.
func (b *TriclinicBox) Absolute(frac geom.Vec) geom.Vec {
	return b.m.MulVec(frac)
}

// Relative converts absolute coordinates to fractional ones.
func (b *TriclinicBox) Relative(abs geom.Vec) geom.Vec {
	return b.inv.MulVec(abs)
}

// Wrap translates pos by a lattice vector so that its fractional
// coordinates land in [0, 1).
func (b *TriclinicBox) Wrap(pos geom.Vec) geom.Vec {
	f := b.Relative(pos)
	for k := 0; k < 3; k++ {
		f[k] -= math.Floor(f[k])
		// Floor of a tiny negative value can round the fraction up to
		// exactly 1, which must alias back to 0.
		if f[k] >= 1 {
			f[k] = 0
		}
	}
	return b.Absolute(f)
}
