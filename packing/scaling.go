package packing

import (
	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
)

// scalingTxn is the rollback state of the single outstanding scaling
// transaction.
type scalingTxn struct {
	pending bool
	ok      bool

	oldMatrix   geom.Matrix
	oldPos      []geom.Vec
	oldAbs      [][]geom.Vec
	oldEnergy   float64
	oldOverlaps int
}

// TryScaling proposes replacing the box matrix B with t*B and carrying
// every particle along the corresponding affine map. The proposal fails
// immediately with +Inf when the new box would have non-positive volume
// or any face height below twice the total interaction range; otherwise
// the new state is computed in full and its energy delta returned.
//
// A scaling transaction must be globally serialized against all move
// transactions; the driver runs it on the controller thread between
// particle-move phases.
func (p *Packing) TryScaling(t geom.Matrix) float64 {
	s := &p.scaling
	if s.pending {
		panic("packing: scaling transaction already pending")
	}
	s.pending = true
	s.ok = false

	newM := t.Mul(p.box.Matrix())
	if newM.Det() <= 0 {
		return Infinity()
	}
	h := boxes.MatrixHeights(newM)
	for k := 0; k < 3; k++ {
		if h[k] < 2*p.totalRange {
			return Infinity()
		}
	}

	s.oldMatrix = p.box.Matrix()
	s.oldEnergy = p.totalEnergy
	s.oldOverlaps = p.numOverlaps
	if s.oldPos == nil {
		s.oldPos = make([]geom.Vec, p.Len())
		s.oldAbs = make([][]geom.Vec, p.Len())
		for i := range s.oldAbs {
			s.oldAbs[i] = make([]geom.Vec, len(p.absCentres[i]))
		}
	}
	for i := range p.shapes {
		s.oldPos[i] = p.shapes[i].Pos
		copy(s.oldAbs[i], p.absCentres[i])
	}

	if err := p.box.SetMatrix(newM); err != nil {
		// det was checked above; this cannot happen.
		panic(err)
	}
	for i := range p.shapes {
		p.shapes[i].Pos = t.MulVec(s.oldPos[i])
	}
	p.refreshCentres()
	p.rebuildGrid()

	energy, overlaps := p.computeTotals()
	dE := energy - s.oldEnergy
	dOver := overlaps - s.oldOverlaps
	p.totalEnergy, p.numOverlaps = energy, overlaps
	s.ok = true

	if p.countOverlaps {
		return dE + float64(dOver)
	}
	if overlaps > 0 {
		return Infinity()
	}
	return dE
}

// AcceptScaling commits the pending scaling transaction.
func (p *Packing) AcceptScaling() {
	s := &p.scaling
	if !s.pending {
		panic("packing: no pending scaling to accept")
	}
	if !s.ok {
		panic("packing: accepting a rejected scaling")
	}
	s.pending = false
}

// RevertScaling rolls the box, the particles, the caches and the grid
// back to the state before TryScaling.
func (p *Packing) RevertScaling() {
	s := &p.scaling
	if !s.pending {
		panic("packing: no pending scaling to revert")
	}
	s.pending = false
	if !s.ok {
		// The proposal was rejected before touching anything.
		return
	}

	if err := p.box.SetMatrix(s.oldMatrix); err != nil {
		panic(err)
	}
	for i := range p.shapes {
		p.shapes[i].Pos = s.oldPos[i]
		copy(p.absCentres[i], s.oldAbs[i])
	}
	p.totalEnergy = s.oldEnergy
	p.numOverlaps = s.oldOverlaps
	p.rebuildGrid()
}
