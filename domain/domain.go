/*
package domain partitions the simulation box into a grid of disjoint
active regions so that particle moves in different regions can run in
parallel without synchronisation.

The box is cut by three families of parallel planes through a random
fractional origin. Each region's active bounds are snapped to
neighbour-grid cell boundaries and shrunk by a ghost margin of one whole
cell on every side. A cell is at least the total interaction range wide,
so two active regions are always separated by at least that range, and
workers in different regions can never read or write the same grid
cells.
*/
package domain

import (
	"errors"
	"math"

	"github.com/phil-mansfield/packmc/geom"
)

// ErrTooFine is returned when the requested divisions leave no room for
// an active region between the ghost margins.
var ErrTooFine = errors.New("domain: divisions too fine for the interaction range")

// Region is an axis-aligned parallelepiped in fractional coordinates.
// Along an axis where Lo > Hi the region wraps through the periodic
// boundary. Lo == 0 and Hi == 1 covers the whole axis.
type Region struct {
	Lo, Hi geom.Vec
}

// Contains reports whether the fractional position f lies inside the
// region. f is wrapped into [0, 1) first.
func (r Region) Contains(f geom.Vec) bool {
	for k := 0; k < 3; k++ {
		x := f[k] - math.Floor(f[k])
		lo, hi := r.Lo[k], r.Hi[k]
		if lo <= hi {
			if x < lo || x >= hi {
				return false
			}
		} else if x >= hi && x < lo {
			return false
		}
	}
	return true
}

// Decomposition is one cycle's partition of the box into active regions
// and per-region particle lists.
type Decomposition struct {
	divisions [3]int
	origin    geom.Vec
	full      []Region
	active    []Region
	particles [][]int
}

// New builds a decomposition with the given divisions per axis and the
// fractional plane origin. numCells and heights describe the neighbour
// grid the active bounds must align with; totalRange is the total
// interaction range radius. Returns ErrTooFine when some region cannot
// hold an active interior.
func New(divisions [3]int, origin geom.Vec, numCells [3]int, heights geom.Vec,
	totalRange float64) (*Decomposition, error) {

	for k := 0; k < 3; k++ {
		if divisions[k] < 1 {
			panic("domain: divisions must be at least 1 per axis")
		}
		if divisions[k] > 1 && heights[k]/float64(divisions[k]) < 2*totalRange {
			return nil, ErrTooFine
		}
	}

	d := &Decomposition{divisions: divisions, origin: origin}
	n := divisions[0] * divisions[1] * divisions[2]
	d.full = make([]Region, n)
	d.active = make([]Region, n)
	d.particles = make([][]int, n)

	// Per-axis bounds, then their cartesian product.
	var fullLo, fullHi, activeLo, activeHi [3][]float64
	for k := 0; k < 3; k++ {
		i := divisions[k]
		fullLo[k] = make([]float64, i)
		fullHi[k] = make([]float64, i)
		activeLo[k] = make([]float64, i)
		activeHi[k] = make([]float64, i)

		if i == 1 {
			fullLo[k][0], fullHi[k][0] = 0, 1
			activeLo[k][0], activeHi[k][0] = 0, 1
			continue
		}

		cells := float64(numCells[k])
		for j := 0; j < i; j++ {
			lo := wrapUnit(origin[k] + float64(j)/float64(i))
			hi := wrapUnit(origin[k] + float64(j+1)/float64(i))
			fullLo[k][j], fullHi[k][j] = lo, hi

			// The ghost margin is one whole grid cell: the region
			// boundary is snapped to a cell boundary and one more cell
			// is given up. A cell is at least the total interaction
			// range wide, so two active regions end up separated by at
			// least two cells.
			alo := wrapUnit((math.Ceil(lo*cells-1e-9) + 1) / cells)
			ahi := wrapUnit((math.Floor(hi*cells+1e-9) - 1) / cells)

			// The snapped interior must keep at least one whole cell.
			width := 1/float64(i) - forwardDist(lo, alo) - forwardDist(ahi, hi)
			if width < 1/cells-1e-9 {
				return nil, ErrTooFine
			}
			activeLo[k][j], activeHi[k][j] = alo, ahi
		}
	}

	for ix := 0; ix < divisions[0]; ix++ {
		for iy := 0; iy < divisions[1]; iy++ {
			for iz := 0; iz < divisions[2]; iz++ {
				i := d.index(ix, iy, iz)
				c := [3]int{ix, iy, iz}
				for k := 0; k < 3; k++ {
					d.full[i].Lo[k] = fullLo[k][c[k]]
					d.full[i].Hi[k] = fullHi[k][c[k]]
					d.active[i].Lo[k] = activeLo[k][c[k]]
					d.active[i].Hi[k] = activeHi[k][c[k]]
				}
			}
		}
	}
	return d, nil
}

// NumRegions returns the total number of regions.
func (d *Decomposition) NumRegions() int { return len(d.full) }

// Divisions returns the number of divisions per axis.
func (d *Decomposition) Divisions() [3]int { return d.divisions }

// FullRegion returns region i's full bounds; the full regions tile the
// box exactly.
func (d *Decomposition) FullRegion(i int) Region { return d.full[i] }

// ActiveRegion returns region i's active bounds: the full bounds shrunk
// by the ghost margins.
func (d *Decomposition) ActiveRegion(i int) *Region { return &d.active[i] }

// Particles returns the indices assigned to region i by Populate.
func (d *Decomposition) Particles(i int) []int { return d.particles[i] }

// Populate assigns particles 0..n-1 to regions by their current
// fractional position, as reported by frac. Particles inside a ghost
// margin belong to no region and sit out the cycle.
func (d *Decomposition) Populate(n int, frac func(i int) geom.Vec) {
	for i := range d.particles {
		d.particles[i] = d.particles[i][:0]
	}
	for p := 0; p < n; p++ {
		f := frac(p)
		var c [3]int
		for k := 0; k < 3; k++ {
			rel := wrapUnit(f[k] - math.Floor(f[k]) - d.origin[k])
			c[k] = int(rel * float64(d.divisions[k]))
			if c[k] >= d.divisions[k] {
				c[k] = d.divisions[k] - 1
			}
		}
		i := d.index(c[0], c[1], c[2])
		if d.active[i].Contains(f) {
			d.particles[i] = append(d.particles[i], p)
		}
	}
}

func (d *Decomposition) index(ix, iy, iz int) int {
	return ix + d.divisions[0]*(iy+d.divisions[1]*iz)
}

// wrapUnit maps x into [0, 1).
func wrapUnit(x float64) float64 {
	x -= math.Floor(x)
	if x >= 1 {
		x = 0
	}
	return x
}

// forwardDist returns the distance from `from` to `to` walking in the
// positive direction, wrapping through the boundary if needed.
func forwardDist(from, to float64) float64 {
	w := to - from
	return w - math.Floor(w)
}
