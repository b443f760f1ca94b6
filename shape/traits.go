/*
package shape defines the shape-model contract consumed by the packing
engine, the concrete traits shipped with it (spheres, spherocylinders,
polysphere k-mers) and the central soft potentials they can carry.
*/
package shape

import (
	"math"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
)

// Traits describes one species: its geometry, its interaction and the
// ranges the neighbour grid needs for pruning. Pairwise calls receive the
// absolute positions of the two interaction centres being tested together
// with the orientations of their particles and the centre indices.
//
// A species with no explicit interaction centres (InteractionCentres
// returns nil) interacts through a single centre at the particle
// position; callers pass centre index 0.
type Traits interface {
	// Volume returns the volume of a single particle.
	Volume() float64

	// InteractionCentres returns the body-frame offsets of the
	// interaction centres, or nil for a single centre at the origin.
	InteractionCentres() []geom.Vec

	// RangeRadius is the per-centre interaction cutoff: pairs of centres
	// further apart than this never interact.
	RangeRadius() float64

	// TotalRangeRadius extends RangeRadius by the circumsphere of the
	// centre layout, so that particle positions can be used for pruning
	// instead of per-centre positions.
	TotalRangeRadius() float64

	HasHardPart() bool
	HasSoftPart() bool
	HasWallPart() bool

	// CheckOverlap reports whether centre c1 of a particle at pos1 with
	// orientation or1 overlaps centre c2 of a particle at pos2 with
	// orientation or2. pos1 and pos2 are centre positions, not particle
	// positions.
	CheckOverlap(pos1 geom.Vec, or1 geom.Matrix, c1 int,
		pos2 geom.Vec, or2 geom.Matrix, c2 int,
		bc boxes.BoundaryConditions) bool

	// CheckWallOverlap reports whether centre c of a particle at pos
	// crosses the wall through wallOrigin whose unit normal wallNormal
	// points to the side the particle must stay on.
	CheckWallOverlap(pos geom.Vec, or geom.Matrix, c int,
		wallOrigin, wallNormal geom.Vec) bool

	// Energy returns the soft interaction energy between two centres, or
	// 0 for species without a soft part.
	Energy(pos1 geom.Vec, or1 geom.Matrix, c1 int,
		pos2 geom.Vec, or2 geom.Matrix, c2 int,
		bc boxes.BoundaryConditions) float64

	// NamedPoint returns a body-frame point of the shape ("cm" is always
	// present) and whether the name is known.
	NamedPoint(name string) (geom.Vec, bool)
}

// Axes is implemented by anisotropic species that have a well-defined
// primary (and possibly secondary) body-frame axis.
type Axes interface {
	PrimaryAxis() geom.Vec
	SecondaryAxis() geom.Vec
}

// CentralPotential is a soft pair potential depending only on the
// centre-centre distance.
type CentralPotential interface {
	// Energy returns the pair energy at squared distance r2.
	Energy(r2 float64) float64

	// RangeRadius returns the cutoff beyond which Energy is 0.
	RangeRadius() float64
}

// LennardJones is the 12-6 potential truncated at 3 sigma.
type LennardJones struct {
	Epsilon, Sigma float64
}

func (lj LennardJones) RangeRadius() float64 { return 3 * lj.Sigma }

func (lj LennardJones) Energy(r2 float64) float64 {
	rc := lj.RangeRadius()
	if r2 >= rc*rc {
		return 0
	}
	s2 := lj.Sigma * lj.Sigma / r2
	s6 := s2 * s2 * s2
	return 4 * lj.Epsilon * (s6*s6 - s6)
}

// RepulsiveLennardJones is the WCA potential: 12-6 cut at its minimum
// 2^(1/6) sigma and shifted up by epsilon, leaving only the repulsive
// branch.
type RepulsiveLennardJones struct {
	Epsilon, Sigma float64
}

func (r RepulsiveLennardJones) RangeRadius() float64 {
	return math.Pow(2, 1.0/6) * r.Sigma
}

func (r RepulsiveLennardJones) Energy(r2 float64) float64 {
	rc := r.RangeRadius()
	if r2 >= rc*rc {
		return 0
	}
	s2 := r.Sigma * r.Sigma / r2
	s6 := s2 * s2 * s2
	return 4*r.Epsilon*(s6*s6-s6) + r.Epsilon
}
