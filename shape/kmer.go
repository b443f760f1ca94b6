package shape

import (
	"math"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
)

// KMer is a rigid linear chain of k identical spheres spaced bond apart
// along the body-frame z axis. Each sphere is one interaction centre.
// Hard by default, soft when carrying a central potential.
type KMer struct {
	k       int
	r, bond float64
	pot     CentralPotential
	centres []geom.Vec
}

// NewKMer creates a hard k-mer of spheres with radius r and bond length
// bond.
func NewKMer(k int, r, bond float64) *KMer {
	if k < 1 {
		panic("shape: k-mer needs at least one sphere")
	}
	if r <= 0 || bond <= 0 {
		panic("shape: k-mer radius and bond must be positive")
	}

	m := &KMer{k: k, r: r, bond: bond}
	m.centres = make([]geom.Vec, k)
	for i := 0; i < k; i++ {
		z := (float64(i) - float64(k-1)/2) * bond
		m.centres[i] = geom.Vec{0, 0, z}
	}
	return m
}

// NewSoftKMer creates a k-mer whose spheres interact through pot instead
// of hard cores.
func NewSoftKMer(k int, r, bond float64, pot CentralPotential) *KMer {
	m := NewKMer(k, r, bond)
	m.pot = pot
	return m
}

func (m *KMer) Volume() float64 {
	sphere := 4.0 / 3.0 * math.Pi * m.r * m.r * m.r
	v := float64(m.k) * sphere
	if m.bond < 2*m.r {
		// Subtract the lens shared by each consecutive pair.
		d := m.bond
		lens := math.Pi * (4*m.r + d) * (2*m.r - d) * (2*m.r - d) / 12
		v -= float64(m.k-1) * lens
	}
	return v
}

func (m *KMer) InteractionCentres() []geom.Vec { return m.centres }

func (m *KMer) RangeRadius() float64 {
	if m.pot != nil {
		return m.pot.RangeRadius()
	}
	return 2 * m.r
}

func (m *KMer) TotalRangeRadius() float64 {
	return m.RangeRadius() + float64(m.k-1)*m.bond
}

func (m *KMer) HasHardPart() bool { return m.pot == nil }
func (m *KMer) HasSoftPart() bool { return m.pot != nil }
func (m *KMer) HasWallPart() bool { return true }

func (m *KMer) PrimaryAxis() geom.Vec { return geom.Vec{0, 0, 1} }

func (m *KMer) SecondaryAxis() geom.Vec { return geom.Vec{1, 0, 0} }

func (m *KMer) CheckOverlap(pos1 geom.Vec, or1 geom.Matrix, c1 int,
	pos2 geom.Vec, or2 geom.Matrix, c2 int, bc boxes.BoundaryConditions) bool {

	if m.pot != nil {
		return false
	}
	return bc.Distance2(pos1, pos2) < 4*m.r*m.r
}

func (m *KMer) CheckWallOverlap(pos geom.Vec, or geom.Matrix, c int,
	wallOrigin, wallNormal geom.Vec) bool {

	return pos.Sub(wallOrigin).Dot(wallNormal) < m.r
}

func (m *KMer) Energy(pos1 geom.Vec, or1 geom.Matrix, c1 int,
	pos2 geom.Vec, or2 geom.Matrix, c2 int, bc boxes.BoundaryConditions) float64 {

	if m.pot == nil {
		return 0
	}
	return m.pot.Energy(bc.Distance2(pos1, pos2))
}

func (m *KMer) NamedPoint(name string) (geom.Vec, bool) {
	switch name {
	case "cm":
		return geom.Vec{}, true
	case "beg":
		return m.centres[0], true
	case "end":
		return m.centres[m.k-1], true
	}
	return geom.Vec{}, false
}
