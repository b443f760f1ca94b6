package shape

import (
	"math"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
)

// Sphere is a single ball, hard by default, soft when carrying a central
// potential. The radius always defines the volume; with a soft potential
// the interaction geometry comes from the potential alone.
type Sphere struct {
	r   float64
	pot CentralPotential
}

// NewSphere creates a hard sphere with radius r.
func NewSphere(r float64) *Sphere {
	if r <= 0 {
		panic("shape: sphere radius must be positive")
	}
	return &Sphere{r: r}
}

// NewSoftSphere creates a sphere interacting through pot instead of a
// hard core.
func NewSoftSphere(r float64, pot CentralPotential) *Sphere {
	s := NewSphere(r)
	s.pot = pot
	return s
}

// Radius returns the sphere radius.
func (s *Sphere) Radius() float64 { return s.r }

func (s *Sphere) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * s.r * s.r * s.r
}

func (s *Sphere) InteractionCentres() []geom.Vec { return nil }

func (s *Sphere) RangeRadius() float64 {
	if s.pot != nil {
		return s.pot.RangeRadius()
	}
	return 2 * s.r
}

func (s *Sphere) TotalRangeRadius() float64 { return s.RangeRadius() }

func (s *Sphere) HasHardPart() bool { return s.pot == nil }
func (s *Sphere) HasSoftPart() bool { return s.pot != nil }
func (s *Sphere) HasWallPart() bool { return true }

func (s *Sphere) CheckOverlap(pos1 geom.Vec, or1 geom.Matrix, c1 int,
	pos2 geom.Vec, or2 geom.Matrix, c2 int, bc boxes.BoundaryConditions) bool {

	if s.pot != nil {
		return false
	}
	return bc.Distance2(pos1, pos2) < 4*s.r*s.r
}

func (s *Sphere) CheckWallOverlap(pos geom.Vec, or geom.Matrix, c int,
	wallOrigin, wallNormal geom.Vec) bool {

	return pos.Sub(wallOrigin).Dot(wallNormal) < s.r
}

func (s *Sphere) Energy(pos1 geom.Vec, or1 geom.Matrix, c1 int,
	pos2 geom.Vec, or2 geom.Matrix, c2 int, bc boxes.BoundaryConditions) float64 {

	if s.pot == nil {
		return 0
	}
	return s.pot.Energy(bc.Distance2(pos1, pos2))
}

func (s *Sphere) NamedPoint(name string) (geom.Vec, bool) {
	if name == "cm" {
		return geom.Vec{}, true
	}
	return geom.Vec{}, false
}
