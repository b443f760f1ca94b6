package boxes

import (
	"math"

	"github.com/phil-mansfield/packmc/geom"
)

// BoundaryConditions translates positions between periodic images.
type BoundaryConditions interface {
	// Correction returns the lattice translation that, added to `to`,
	// yields its minimum image with respect to `from`: the corrected
	// separation has fractional coordinates in [-1/2, 1/2).
	Correction(from, to geom.Vec) geom.Vec

	// Distance2 returns the squared minimum-image distance between p1
	// and p2.
	Distance2(p1, p2 geom.Vec) float64
}

// Periodic applies the minimum-image convention of a triclinic box.
type Periodic struct {
	box *TriclinicBox
}

// NewPeriodic creates periodic boundary conditions bound to box. The
// conditions follow the box through any later scaling of its matrix.
func NewPeriodic(box *TriclinicBox) *Periodic {
	return &Periodic{box: box}
}

func (p *Periodic) Correction(from, to geom.Vec) geom.Vec {
	f := p.box.Relative(to.Sub(from))
	var shift geom.Vec
	wrapped := false
	for k := 0; k < 3; k++ {
		s := math.Floor(f[k] + 0.5)
		if s != 0 {
			shift[k] = -s
			wrapped = true
		}
	}
	if !wrapped {
		return geom.Vec{}
	}
	return p.box.Absolute(shift)
}

func (p *Periodic) Distance2(p1, p2 geom.Vec) float64 {
	d := p2.Sub(p1)
	return d.Add(p.Correction(p1, p2)).Norm2()
}

// Free boundary conditions never correct positions. They are used for
// isolated systems and by shape unit tests.
type Free struct{}

func (Free) Correction(from, to geom.Vec) geom.Vec { return geom.Vec{} }

func (Free) Distance2(p1, p2 geom.Vec) float64 { return p1.Dist2(p2) }
