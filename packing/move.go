package packing

import (
	"math"

	"github.com/phil-mansfield/packmc/domain"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/shape"
)

// moveTxn is the scratch state of one move thread slot. A try never
// touches the committed state: the proposed shape and centre positions
// live here until the move is accepted.
type moveTxn struct {
	idx   int
	shape shape.Shape
	abs   []geom.Vec

	softDelta float64
	overDelta int

	pending bool
	ok      bool

	// Deltas of accepted moves, folded into the packing totals by
	// FlushMoves once the workers have joined.
	energyAcc  float64
	overlapAcc int

	buf []int
}

// Mover runs particle-move transactions on one thread slot. Each worker
// of the particle-move phase owns exactly one Mover; slots never share
// scratch state, so movers of different slots may run concurrently as
// long as their particles come from separated active regions.
type Mover struct {
	p   *Packing
	txn *moveTxn
}

// TryTranslation proposes translating particle i by dv. If active is not
// nil and the new position leaves it, the move is rejected with +Inf.
// Returns the energy delta of the proposal.
func (m *Mover) TryTranslation(i int, dv geom.Vec, active *domain.Region) float64 {
	return m.try(i, dv, geom.Matrix{}, false, active)
}

// TryRotation proposes rotating particle i by rot.
func (m *Mover) TryRotation(i int, rot geom.Matrix) float64 {
	return m.try(i, geom.Vec{}, rot, true, nil)
}

// TryMove proposes a combined translation and rotation as one atomic
// transaction.
func (m *Mover) TryMove(i int, dv geom.Vec, rot geom.Matrix, active *domain.Region) float64 {
	return m.try(i, dv, rot, true, active)
}

func (m *Mover) try(i int, dv geom.Vec, rot geom.Matrix, hasRot bool, active *domain.Region) float64 {
	p := m.p
	t := m.txn
	if t.pending {
		panic("packing: move transaction already pending on this slot")
	}

	newSh := p.shapes[i]
	newSh.Pos = p.box.Wrap(newSh.Pos.Add(dv))
	if hasRot {
		newSh.Orient = rot.Mul(newSh.Orient)
	}

	t.idx = i
	t.shape = newSh
	t.pending = true
	t.ok = false

	if active != nil && !active.Contains(p.box.Relative(newSh.Pos)) {
		return Infinity()
	}

	n := len(p.centres[newSh.Species])
	if cap(t.abs) < n {
		t.abs = make([]geom.Vec, n)
	}
	t.abs = t.abs[:n]
	p.shapeCentres(&newSh, t.abs)

	sp := newSh.Species
	t.softDelta = 0
	if p.softPart[sp] {
		var newE, oldE float64
		newE, t.buf = p.shapeSoftEnergy(i, &newSh, t.abs, t.buf)
		oldE, t.buf = p.shapeSoftEnergy(i, &p.shapes[i], p.absCentres[i], t.buf)
		t.softDelta = newE - oldE
	}

	t.overDelta = 0
	if p.hardPart[sp] || p.hasWalls() {
		if p.countOverlaps {
			var newO, oldO int
			newO, t.buf = p.shapeOverlaps(i, &newSh, t.abs, t.buf, true)
			oldO, t.buf = p.shapeOverlaps(i, &p.shapes[i], p.absCentres[i], t.buf, true)
			t.overDelta = newO - oldO
		} else {
			var o int
			o, t.buf = p.shapeOverlaps(i, &newSh, t.abs, t.buf, false)
			if o > 0 {
				return Infinity()
			}
		}
	}

	t.ok = true
	if p.countOverlaps {
		return t.softDelta + float64(t.overDelta)
	}
	return t.softDelta
}

// Accept commits the pending proposal: the shape, its cached centres and
// the neighbour grid move to the proposed state, and the energy and
// overlap deltas are queued for FlushMoves.
func (m *Mover) Accept() {
	p := m.p
	t := m.txn
	if !t.pending {
		panic("packing: no pending move to accept")
	}
	if !t.ok {
		panic("packing: accepting a rejected move")
	}

	i := t.idx
	if p.grid != nil {
		for c := range t.abs {
			p.grid.Move(i*p.maxCentres+c,
				p.box.Relative(p.absCentres[i][c]), p.box.Relative(t.abs[c]))
		}
	}
	p.shapes[i] = t.shape
	copy(p.absCentres[i], t.abs)

	t.energyAcc += t.softDelta
	t.overlapAcc += t.overDelta
	t.pending = false
}

// Revert drops the pending proposal; the committed state was never
// touched by the try.
func (m *Mover) Revert() {
	if !m.txn.pending {
		panic("packing: no pending move to revert")
	}
	m.txn.pending = false
}

func (p *Packing) hasWalls() bool {
	return p.walls[0] || p.walls[1] || p.walls[2]
}

// IsRejected reports whether dE is the +Inf rejection sentinel.
func IsRejected(dE float64) bool {
	return math.IsInf(dE, 1)
}
