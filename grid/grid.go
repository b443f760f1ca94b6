/*
package grid implements the neighbour grid: a spatial hash of interaction
centres into axis-aligned cells, used to prune pair searches.

The grid lives in the fractional coordinates of the box, so a triclinic
box needs no special handling here. Each axis carries one extra layer of
halo cells on both faces. A halo cell is an alias of the periodic image of
the interior cell it mirrors: reads through a halo cell return the interior
cell's list, which makes periodic boundary conditions transparent to
neighbour queries.
*/
package grid

import (
	"errors"
	"math"

	"github.com/phil-mansfield/packmc/geom"
)

// ErrTooCoarse is returned when the requested cell edge would produce
// fewer than 3 cells along some axis.
var ErrTooCoarse = errors.New("grid: fewer than 3 cells per axis")

// Grid is the neighbour grid. Entries are opaque non-negative ints chosen
// by the caller; positions are fractional coordinates in [0, 1).
type Grid struct {
	numCells [3]int // interior cells per axis
	padded   [3]int // interior + 2 halo layers

	// cells is indexed by padded coordinates; halo entries stay nil and
	// are resolved through reflected.
	cells     [][]int
	reflected []int // alias target for halo cells, -1 for interior
	offsets   [27]int
}

// New builds a grid for a box with the given face heights such that every
// cell edge is at least cellEdge long. Returns ErrTooCoarse if fewer than
// 3 cells would fit along some axis.
func New(heights geom.Vec, cellEdge float64) (*Grid, error) {
	g := &Grid{}
	if err := g.Resize(heights, cellEdge); err != nil {
		return nil, err
	}
	return g, nil
}

// NumCells returns the number of interior cells along each axis.
func (g *Grid) NumCells() [3]int { return g.numCells }

// Resize re-dimensions the grid for new box heights or a new cell edge.
// If the cell counts per axis are unchanged the grid is only cleared;
// otherwise the cell storage and the halo aliases are rebuilt. All
// entries are dropped either way.
func (g *Grid) Resize(heights geom.Vec, cellEdge float64) error {
	if cellEdge <= 0 {
		panic("grid: cell edge must be positive")
	}

	var numCells [3]int
	for k := 0; k < 3; k++ {
		numCells[k] = int(math.Floor(heights[k] / cellEdge))
		if numCells[k] < 3 {
			return ErrTooCoarse
		}
	}

	if numCells == g.numCells {
		g.Clear()
		return nil
	}

	g.numCells = numCells
	for k := 0; k < 3; k++ {
		g.padded[k] = numCells[k] + 2
	}

	n := g.padded[0] * g.padded[1] * g.padded[2]
	g.cells = make([][]int, n)
	g.reflected = make([]int, n)

	for idx := 0; idx < n; idx++ {
		g.reflected[idx] = g.reflectedTarget(idx)
	}

	i := 0
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				g.offsets[i] = dx + g.padded[0]*(dy+g.padded[1]*dz)
				i++
			}
		}
	}
	return nil
}

// Clear drops every entry while keeping the grid dimensions.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Add inserts entry idx into the cell containing pos.
func (g *Grid) Add(idx int, pos geom.Vec) {
	c := g.cellIndex(pos)
	g.cells[c] = append(g.cells[c], idx)
}

// Remove deletes entry idx from the cell containing pos. It panics if the
// entry is not there: that always indicates a bookkeeping bug in the
// caller.
func (g *Grid) Remove(idx int, pos geom.Vec) {
	c := g.cellIndex(pos)
	cell := g.cells[c]
	for i, e := range cell {
		if e == idx {
			cell[i] = cell[len(cell)-1]
			g.cells[c] = cell[:len(cell)-1]
			return
		}
	}
	panic("grid: removing entry not present in its cell")
}

// Move relocates entry idx from the cell of oldPos to the cell of newPos.
// It is a no-op when both positions share a cell.
func (g *Grid) Move(idx int, oldPos, newPos geom.Vec) {
	from := g.cellIndex(oldPos)
	to := g.cellIndex(newPos)
	if from == to {
		return
	}

	cell := g.cells[from]
	for i, e := range cell {
		if e == idx {
			cell[i] = cell[len(cell)-1]
			g.cells[from] = cell[:len(cell)-1]
			g.cells[to] = append(g.cells[to], idx)
			return
		}
	}
	panic("grid: moving entry not present in its cell")
}

// Cell returns the entries of the cell containing pos.
func (g *Grid) Cell(pos geom.Vec) []int {
	return g.cells[g.cellIndex(pos)]
}

// Neighbours appends to buf the entries of the 27 cells covering the
// 3x3x3 neighbourhood of the cell containing pos, following halo aliases,
// and returns the extended slice. Reusing buf across calls keeps the hot
// path free of allocations.
func (g *Grid) Neighbours(pos geom.Vec, buf []int) []int {
	base := g.cellIndex(pos)
	for _, off := range g.offsets {
		c := base + off
		if r := g.reflected[c]; r >= 0 {
			c = r
		}
		buf = append(buf, g.cells[c]...)
	}
	return buf
}

// cellIndex maps a fractional position to the padded index of its interior
// cell. Positions outside [0, 1) are wrapped first. A position exactly on
// a cell boundary belongs to the lower-index cell.
func (g *Grid) cellIndex(pos geom.Vec) int {
	var c [3]int
	for k := 0; k < 3; k++ {
		f := pos[k] - math.Floor(pos[k])
		if f >= 1 {
			f = 0
		}
		x := f * float64(g.numCells[k])
		ck := int(x)
		if float64(ck) == x && ck > 0 {
			ck--
		}
		if ck >= g.numCells[k] {
			ck = g.numCells[k] - 1
		}
		c[k] = ck + 1
	}
	return c[0] + g.padded[0]*(c[1]+g.padded[1]*c[2])
}

// reflectedTarget returns the interior alias of a halo cell, or -1 for an
// interior cell.
func (g *Grid) reflectedTarget(idx int) int {
	x := idx % g.padded[0]
	y := (idx / g.padded[0]) % g.padded[1]
	z := idx / (g.padded[0] * g.padded[1])

	coords := [3]int{x, y, z}
	halo := false
	for k := 0; k < 3; k++ {
		if coords[k] == 0 {
			coords[k] = g.numCells[k]
			halo = true
		} else if coords[k] == g.padded[k]-1 {
			coords[k] = 1
			halo = true
		}
	}
	if !halo {
		return -1
	}
	return coords[0] + g.padded[0]*(coords[1]+g.padded[1]*coords[2])
}
