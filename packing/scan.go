package packing

import (
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/shape"
)

// shapeSoftEnergy returns the soft interaction energy of sh, standing in
// for particle i, against the committed state of every other particle.
// buf is neighbour scratch; the grown slice is handed back.
func (p *Packing) shapeSoftEnergy(i int, sh *shape.Shape, abs []geom.Vec, buf []int) (float64, []int) {
	tr := p.traits[sh.Species]
	e := 0.0

	for c := range abs {
		if p.grid != nil {
			buf = p.grid.Neighbours(p.box.Relative(abs[c]), buf[:0])
			for _, id := range buf {
				j, cj := id/p.maxCentres, id%p.maxCentres
				if j == i {
					continue
				}
				e += tr.Energy(abs[c], sh.Orient, c,
					p.absCentres[j][cj], p.shapes[j].Orient, cj, p.bc)
			}
		} else {
			for j := range p.shapes {
				if j == i {
					continue
				}
				for cj := range p.absCentres[j] {
					e += tr.Energy(abs[c], sh.Orient, c,
						p.absCentres[j][cj], p.shapes[j].Orient, cj, p.bc)
				}
			}
		}
	}
	return e, buf
}

// shapeOverlaps counts overlaps of sh, standing in for particle i,
// against the committed state of every other particle, plus its wall
// overlaps. Unless countAll is set the scan stops at the first hit.
func (p *Packing) shapeOverlaps(i int, sh *shape.Shape, abs []geom.Vec, buf []int, countAll bool) (int, []int) {
	tr := p.traits[sh.Species]
	n := p.shapeWallOverlaps(sh, abs)
	if n > 0 && !countAll {
		return n, buf
	}

	for c := range abs {
		if p.grid != nil {
			buf = p.grid.Neighbours(p.box.Relative(abs[c]), buf[:0])
			for _, id := range buf {
				j, cj := id/p.maxCentres, id%p.maxCentres
				if j == i {
					continue
				}
				if tr.CheckOverlap(abs[c], sh.Orient, c,
					p.absCentres[j][cj], p.shapes[j].Orient, cj, p.bc) {
					n++
					if !countAll {
						return n, buf
					}
				}
			}
		} else {
			for j := range p.shapes {
				if j == i {
					continue
				}
				for cj := range p.absCentres[j] {
					if tr.CheckOverlap(abs[c], sh.Orient, c,
						p.absCentres[j][cj], p.shapes[j].Orient, cj, p.bc) {
						n++
						if !countAll {
							return n, buf
						}
					}
				}
			}
		}
	}
	return n, buf
}

// shapeWallOverlaps counts the centres of sh crossing an enabled wall.
func (p *Packing) shapeWallOverlaps(sh *shape.Shape, abs []geom.Vec) int {
	if !p.wallPart[sh.Species] {
		return 0
	}
	n := 0
	m := p.box.Matrix()
	for k := 0; k < 3; k++ {
		if !p.walls[k] {
			continue
		}
		// Inward normal of the face through the origin; the opposite
		// face sits one edge vector away with the normal flipped.
		edge := m.Col(k)
		normal := m.Col((k + 1) % 3).Cross(m.Col((k + 2) % 3)).Normalized()
		if normal.Dot(edge) < 0 {
			normal = normal.Scale(-1)
		}
		tr := p.traits[sh.Species]
		for c := range abs {
			if tr.CheckWallOverlap(abs[c], sh.Orient, c, geom.Vec{}, normal) {
				n++
			}
			if tr.CheckWallOverlap(abs[c], sh.Orient, c, edge, normal.Scale(-1)) {
				n++
			}
		}
	}
	return n
}

// computeTotals rescans the committed state: the total soft energy and,
// when overlap counting is on, the exact overlap count. With counting
// off the scan stops at the first overlap: the count is then 0 or 1, and
// after an overlap the energy covers only the pairs scanned so far.
func (p *Packing) computeTotals() (energy float64, overlaps int) {
	var buf []int

	for i := range p.shapes {
		sh := &p.shapes[i]
		sp := sh.Species
		tr := p.traits[sp]
		abs := p.absCentres[i]

		overlaps += p.shapeWallOverlaps(sh, abs)
		if overlaps > 0 && !p.countOverlaps {
			return energy, overlaps
		}

		for c := range abs {
			if p.grid != nil {
				buf = p.grid.Neighbours(p.box.Relative(abs[c]), buf[:0])
				for _, id := range buf {
					j, cj := id/p.maxCentres, id%p.maxCentres
					if j <= i {
						continue
					}
					energy, overlaps = p.accumulatePair(tr, sh, abs, c, j, cj, energy, overlaps)
					if overlaps > 0 && !p.countOverlaps {
						return energy, overlaps
					}
				}
			} else {
				for j := i + 1; j < len(p.shapes); j++ {
					for cj := range p.absCentres[j] {
						energy, overlaps = p.accumulatePair(tr, sh, abs, c, j, cj, energy, overlaps)
						if overlaps > 0 && !p.countOverlaps {
							return energy, overlaps
						}
					}
				}
			}
		}
	}
	return energy, overlaps
}

func (p *Packing) accumulatePair(tr shape.Traits, sh *shape.Shape, abs []geom.Vec,
	c, j, cj int, energy float64, overlaps int) (float64, int) {

	other := &p.shapes[j]
	pos2 := p.absCentres[j][cj]
	if p.hardPart[sh.Species] || p.hardPart[other.Species] {
		if tr.CheckOverlap(abs[c], sh.Orient, c, pos2, other.Orient, cj, p.bc) {
			overlaps++
		}
	}
	if p.softPart[sh.Species] || p.softPart[other.Species] {
		energy += tr.Energy(abs[c], sh.Orient, c, pos2, other.Orient, cj, p.bc)
	}
	return energy, overlaps
}
