package shape

import (
	"math"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
)

// Spherocylinder is a hard cylinder of length l capped with hemispheres
// of radius r. The body-frame axis points along z.
type Spherocylinder struct {
	l, r float64
}

// NewSpherocylinder creates a hard spherocylinder with cap-centre
// distance l and radius r.
func NewSpherocylinder(l, r float64) *Spherocylinder {
	if l <= 0 || r <= 0 {
		panic("shape: spherocylinder length and radius must be positive")
	}
	return &Spherocylinder{l: l, r: r}
}

// Length returns the distance between the two cap centres.
func (s *Spherocylinder) Length() float64 { return s.l }

// Radius returns the cap and cylinder radius.
func (s *Spherocylinder) Radius() float64 { return s.r }

func (s *Spherocylinder) Volume() float64 {
	return math.Pi*s.r*s.r*s.l + 4.0/3.0*math.Pi*s.r*s.r*s.r
}

func (s *Spherocylinder) InteractionCentres() []geom.Vec { return nil }

func (s *Spherocylinder) RangeRadius() float64 { return s.l + 2*s.r }

func (s *Spherocylinder) TotalRangeRadius() float64 { return s.RangeRadius() }

func (s *Spherocylinder) HasHardPart() bool { return true }
func (s *Spherocylinder) HasSoftPart() bool { return false }
func (s *Spherocylinder) HasWallPart() bool { return true }

func (s *Spherocylinder) PrimaryAxis() geom.Vec { return geom.Vec{0, 0, 1} }

func (s *Spherocylinder) SecondaryAxis() geom.Vec { return geom.Vec{1, 0, 0} }

func (s *Spherocylinder) CheckOverlap(pos1 geom.Vec, or1 geom.Matrix, c1 int,
	pos2 geom.Vec, or2 geom.Matrix, c2 int, bc boxes.BoundaryConditions) bool {

	pos2 = pos2.Add(bc.Correction(pos1, pos2))
	half1 := or1.MulVec(geom.Vec{0, 0, s.l / 2})
	half2 := or2.MulVec(geom.Vec{0, 0, s.l / 2})

	return segmentDistance2(pos1, half1, pos2, half2) < 4*s.r*s.r
}

func (s *Spherocylinder) CheckWallOverlap(pos geom.Vec, or geom.Matrix, c int,
	wallOrigin, wallNormal geom.Vec) bool {

	half := or.MulVec(geom.Vec{0, 0, s.l / 2})
	d1 := pos.Add(half).Sub(wallOrigin).Dot(wallNormal)
	d2 := pos.Sub(half).Sub(wallOrigin).Dot(wallNormal)
	return math.Min(d1, d2) < s.r
}

func (s *Spherocylinder) Energy(pos1 geom.Vec, or1 geom.Matrix, c1 int,
	pos2 geom.Vec, or2 geom.Matrix, c2 int, bc boxes.BoundaryConditions) float64 {
	return 0
}

func (s *Spherocylinder) NamedPoint(name string) (geom.Vec, bool) {
	switch name {
	case "cm":
		return geom.Vec{}, true
	case "beg":
		return geom.Vec{0, 0, -s.l / 2}, true
	case "end":
		return geom.Vec{0, 0, s.l / 2}, true
	}
	return geom.Vec{}, false
}

// segmentDistance2 returns the squared minimum distance between the
// segments c1 +/- h1 and c2 +/- h2.
func segmentDistance2(c1, h1, c2, h2 geom.Vec) float64 {
	// Closest-point parametrisation after Eberly: points are
	// c1 + s*h1 and c2 + t*h2 with s, t in [-1, 1].
	d := c1.Sub(c2)
	a := h1.Dot(h1)
	b := h1.Dot(h2)
	c := h2.Dot(h2)
	e := h1.Dot(d)
	f := h2.Dot(d)

	det := a*c - b*b
	var sp, tp float64
	if det > 1e-14*a*c {
		sp = clamp((b*f - c*e) / det)
		tp = (b*sp + f) / c
	} else if c > 0 {
		// Parallel or one segment degenerate: fix s, optimize t.
		sp = 0
		tp = f / c
	}
	tp = clamp(tp)
	if a > 0 {
		sp = clamp((b*tp - e) / a)
	}

	p1 := c1.Add(h1.Scale(sp))
	p2 := c2.Add(h2.Scale(tp))
	return p1.Dist2(p2)
}

func clamp(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
