/*
package packing owns the particle configuration: the box, the boundary
conditions, the shapes, the neighbour grid and the cached totals. All
mutation goes through transactional try/accept/revert operations so that
the Metropolis driver never sees a half-updated state.
*/
package packing

import (
	"errors"
	"math"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/grid"
	"github.com/phil-mansfield/packmc/shape"
)

var (
	// ErrNoParticles is returned when a packing is created empty.
	ErrNoParticles = errors.New("packing: at least one particle required")

	// ErrUnknownSpecies is returned when a shape's species index has no
	// traits.
	ErrUnknownSpecies = errors.New("packing: shape species out of range")

	// ErrBoxTooSmall is returned when some box face height is below
	// twice the total interaction range already at construction.
	ErrBoxTooSmall = errors.New("packing: box heights below twice the interaction range")
)

// Packing is a configuration of shapes in a triclinic box.
type Packing struct {
	box    *boxes.TriclinicBox
	bc     *boxes.Periodic
	shapes []shape.Shape
	traits []shape.Traits

	// Per-species dispatch data, indexed by species.
	centres  [][]geom.Vec // body-frame centre offsets, at least one each
	hardPart []bool
	softPart []bool
	wallPart []bool

	maxCentres int
	totalRange float64

	// absCentres[i][c] is the absolute position of centre c of shape i
	// in the committed state.
	absCentres [][]geom.Vec

	// grid is nil when the box holds fewer than 3 cells along some axis;
	// pair scans then fall back to looping over all particles.
	grid *grid.Grid

	totalEnergy   float64
	numOverlaps   int
	countOverlaps bool

	walls [3]bool

	movers  []Mover
	scaling scalingTxn
}

// New creates a packing from a starting configuration. traits is indexed
// by shape species. Positions are wrapped into the box; the caches and
// the neighbour grid are built from scratch.
func New(box *boxes.TriclinicBox, shapes []shape.Shape, traits []shape.Traits) (*Packing, error) {
	if len(shapes) == 0 {
		return nil, ErrNoParticles
	}

	p := &Packing{
		box:    box,
		bc:     boxes.NewPeriodic(box),
		shapes: append([]shape.Shape{}, shapes...),
		traits: traits,
	}

	p.centres = make([][]geom.Vec, len(traits))
	p.hardPart = make([]bool, len(traits))
	p.softPart = make([]bool, len(traits))
	p.wallPart = make([]bool, len(traits))
	for s, tr := range traits {
		c := tr.InteractionCentres()
		if len(c) == 0 {
			c = []geom.Vec{{}}
		}
		p.centres[s] = c
		p.hardPart[s] = tr.HasHardPart()
		p.softPart[s] = tr.HasSoftPart()
		p.wallPart[s] = tr.HasWallPart()
		if len(c) > p.maxCentres {
			p.maxCentres = len(c)
		}
		if r := tr.TotalRangeRadius(); r > p.totalRange {
			p.totalRange = r
		}
	}

	for i := range p.shapes {
		if s := p.shapes[i].Species; s < 0 || s >= len(traits) {
			return nil, ErrUnknownSpecies
		}
		p.shapes[i].Pos = box.Wrap(p.shapes[i].Pos)
	}

	h := box.Heights()
	for k := 0; k < 3; k++ {
		if h[k] < 2*p.totalRange {
			return nil, ErrBoxTooSmall
		}
	}

	p.absCentres = make([][]geom.Vec, len(p.shapes))
	for i := range p.shapes {
		p.absCentres[i] = make([]geom.Vec, len(p.centres[p.shapes[i].Species]))
	}
	p.refreshCentres()
	p.rebuildGrid()
	p.totalEnergy, p.numOverlaps = p.computeTotals()

	p.SetMoveThreads(1)
	return p, nil
}

// Len returns the number of particles.
func (p *Packing) Len() int { return len(p.shapes) }

// Box returns the simulation box.
func (p *Packing) Box() *boxes.TriclinicBox { return p.box }

// BoundaryConditions returns the periodic boundary conditions bound to
// the box.
func (p *Packing) BoundaryConditions() boxes.BoundaryConditions { return p.bc }

// Shape returns a copy of particle i.
func (p *Packing) Shape(i int) shape.Shape { return p.shapes[i] }

// Traits returns the traits of the given species.
func (p *Packing) Traits(species int) shape.Traits { return p.traits[species] }

// NumSpecies returns the number of species the packing dispatches over.
func (p *Packing) NumSpecies() int { return len(p.traits) }

// Volume returns the box volume.
func (p *Packing) Volume() float64 { return p.box.Volume() }

// NumberDensity returns N / V.
func (p *Packing) NumberDensity() float64 {
	return float64(p.Len()) / p.Volume()
}

// PackingFraction returns the total particle volume divided by the box
// volume.
func (p *Packing) PackingFraction() float64 {
	v := 0.0
	for i := range p.shapes {
		v += p.traits[p.shapes[i].Species].Volume()
	}
	return v / p.Volume()
}

// TotalEnergy returns the cached soft interaction energy of the
// committed state.
func (p *Packing) TotalEnergy() float64 { return p.totalEnergy }

// NumOverlaps returns the cached overlap count of the committed state.
// It is exact while overlap counting is on. With counting off it comes
// from a scan that stops at the first overlap, so it is 0 for an
// overlap-free state and 1 otherwise.
func (p *Packing) NumOverlaps() int { return p.numOverlaps }

// OverlapCounting reports whether overlap counting is on.
func (p *Packing) OverlapCounting() bool { return p.countOverlaps }

// SetOverlapCounting toggles overlap counting. Turning it on recounts
// the committed state so the cache starts exact.
func (p *Packing) SetOverlapCounting(on bool) {
	if p.countOverlaps == on {
		return
	}
	p.countOverlaps = on
	_, p.numOverlaps = p.computeTotals()
}

// TotalRangeRadius returns the largest total interaction range over the
// species.
func (p *Packing) TotalRangeRadius() float64 { return p.totalRange }

// Walls returns the per-axis wall flags.
func (p *Packing) Walls() [3]bool { return p.walls }

// SetWalls enables hard walls on the box face pairs of the flagged axes.
// The totals are recomputed to pick up wall overlaps.
func (p *Packing) SetWalls(walls [3]bool) {
	p.walls = walls
	p.totalEnergy, p.numOverlaps = p.computeTotals()
}

// Frac returns the fractional position of particle i.
func (p *Packing) Frac(i int) geom.Vec {
	return p.box.Relative(p.shapes[i].Pos)
}

// UsingGrid reports whether pair scans currently go through the
// neighbour grid.
func (p *Packing) UsingGrid() bool { return p.grid != nil }

// GridCells returns the neighbour grid's interior cell counts, or
// {1, 1, 1} when the packing runs without a grid.
func (p *Packing) GridCells() [3]int {
	if p.grid == nil {
		return [3]int{1, 1, 1}
	}
	return p.grid.NumCells()
}

// SetMoveThreads sizes the pool of move transaction slots; slot i is
// used through Mover(i). Any pending transactions are dropped.
func (p *Packing) SetMoveThreads(n int) {
	if n < 1 {
		panic("packing: at least one move thread required")
	}
	p.movers = make([]Mover, n)
	for i := range p.movers {
		p.movers[i] = Mover{p: p, txn: &moveTxn{}}
	}
}

// Mover returns the transaction handle of move thread slot tid.
func (p *Packing) Mover(tid int) *Mover { return &p.movers[tid] }

// FlushMoves folds the per-slot energy and overlap deltas accumulated by
// accepted moves into the cached totals. The driver calls this at the
// end of every particle-move phase, after all workers have joined.
func (p *Packing) FlushMoves() {
	for i := range p.movers {
		t := p.movers[i].txn
		p.totalEnergy += t.energyAcc
		p.numOverlaps += t.overlapAcc
		t.energyAcc, t.overlapAcc = 0, 0
	}
}

// refreshCentres recomputes the absolute centre positions of every
// particle from the committed shapes.
func (p *Packing) refreshCentres() {
	for i := range p.shapes {
		p.shapeCentres(&p.shapes[i], p.absCentres[i])
	}
}

// shapeCentres writes the absolute centre positions of sh into out.
func (p *Packing) shapeCentres(sh *shape.Shape, out []geom.Vec) {
	for c, off := range p.centres[sh.Species] {
		out[c] = sh.Pos.Add(sh.Orient.MulVec(off))
	}
}

// rebuildGrid resizes the neighbour grid for the current box and
// re-inserts every interaction centre. When fewer than 3 cells fit along
// some axis the grid is dropped and pair scans fall back to the direct
// loop.
func (p *Packing) rebuildGrid() {
	h := p.box.Heights()

	if p.grid == nil {
		g, err := grid.New(h, p.totalRange)
		if err != nil {
			return
		}
		p.grid = g
	} else if err := p.grid.Resize(h, p.totalRange); err != nil {
		p.grid = nil
		return
	}

	for i := range p.shapes {
		for c := range p.absCentres[i] {
			p.grid.Add(i*p.maxCentres+c, p.box.Relative(p.absCentres[i][c]))
		}
	}
}

// Infinity is the delta-energy sentinel for a rejected proposal.
func Infinity() float64 { return math.Inf(1) }
