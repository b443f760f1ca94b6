package packing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/domain"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/shape"
)

// latticePacking builds n hard spheres of radius r on a cubic lattice in
// a cubic box with the given side.
func latticePacking(t *testing.T, n int, side, r float64) *Packing {
	t.Helper()
	box, err := boxes.NewCubicBox(side)
	require.NoError(t, err)

	shapes := latticeShapes(n, side)
	p, err := New(box, shapes, []shape.Traits{shape.NewSphere(r)})
	require.NoError(t, err)
	return p
}

func latticeShapes(n int, side float64) []shape.Shape {
	cells := int(math.Ceil(math.Cbrt(float64(n))))
	spacing := side / float64(cells)
	shapes := make([]shape.Shape, 0, n)
	for ix := 0; ix < cells && len(shapes) < n; ix++ {
		for iy := 0; iy < cells && len(shapes) < n; iy++ {
			for iz := 0; iz < cells && len(shapes) < n; iz++ {
				pos := geom.Vec{
					(float64(ix) + 0.5) * spacing,
					(float64(iy) + 0.5) * spacing,
					(float64(iz) + 0.5) * spacing,
				}
				shapes = append(shapes, shape.New(pos))
			}
		}
	}
	return shapes
}

// directOverlaps recomputes the overlap count with an O(N^2) scan,
// bypassing the grid and the caches.
func directOverlaps(p *Packing) int {
	n := 0
	for i := 0; i < p.Len(); i++ {
		si := p.Shape(i)
		tri := p.Traits(si.Species)
		ci := tri.InteractionCentres()
		if len(ci) == 0 {
			ci = []geom.Vec{{}}
		}
		for j := i + 1; j < p.Len(); j++ {
			sj := p.Shape(j)
			cj := p.Traits(sj.Species).InteractionCentres()
			if len(cj) == 0 {
				cj = []geom.Vec{{}}
			}
			for a := range ci {
				pa := si.Pos.Add(si.Orient.MulVec(ci[a]))
				for b := range cj {
					pb := sj.Pos.Add(sj.Orient.MulVec(cj[b]))
					if tri.CheckOverlap(pa, si.Orient, a, pb, sj.Orient, b, p.BoundaryConditions()) {
						n++
					}
				}
			}
		}
	}
	return n
}

// directEnergy recomputes the soft energy with an O(N^2) scan.
func directEnergy(p *Packing) float64 {
	e := 0.0
	for i := 0; i < p.Len(); i++ {
		si := p.Shape(i)
		tri := p.Traits(si.Species)
		for j := i + 1; j < p.Len(); j++ {
			sj := p.Shape(j)
			e += tri.Energy(si.Pos, si.Orient, 0, sj.Pos, sj.Orient, 0, p.BoundaryConditions())
		}
	}
	return e
}

func TestNewValidation(t *testing.T) {
	box, err := boxes.NewCubicBox(10)
	require.NoError(t, err)

	_, err = New(box, nil, []shape.Traits{shape.NewSphere(0.5)})
	assert.ErrorIs(t, err, ErrNoParticles)

	_, err = New(box, []shape.Shape{{Species: 3, Orient: geom.Identity()}},
		[]shape.Traits{shape.NewSphere(0.5)})
	assert.ErrorIs(t, err, ErrUnknownSpecies)

	small, err := boxes.NewCubicBox(1.5)
	require.NoError(t, err)
	_, err = New(small, []shape.Shape{shape.New(geom.Vec{})},
		[]shape.Traits{shape.NewSphere(0.5)})
	assert.ErrorIs(t, err, ErrBoxTooSmall)
}

func TestHardTranslationRejectsOverlap(t *testing.T) {
	p := latticePacking(t, 8, 8, 0.5)
	mv := p.Mover(0)

	// Move particle 0 on top of particle 1.
	target := p.Shape(1).Pos
	dv := target.Sub(p.Shape(0).Pos)
	dE := mv.TryTranslation(0, dv, nil)
	assert.True(t, IsRejected(dE))
	mv.Revert()

	// A small move in free space is accepted freely.
	dE = mv.TryTranslation(0, geom.Vec{0.1, 0, 0}, nil)
	assert.Equal(t, 0.0, dE)
	mv.Accept()
	p.FlushMoves()
	assert.Equal(t, 0, directOverlaps(p))
}

func TestMoveUpdatesState(t *testing.T) {
	p := latticePacking(t, 8, 8, 0.5)
	mv := p.Mover(0)
	before := p.Shape(0).Pos

	rot := geom.Rotation(geom.Vec{0, 0, 1}, 0.3)
	dE := mv.TryMove(0, geom.Vec{0.2, -0.1, 0.05}, rot, nil)
	require.False(t, IsRejected(dE))

	// Nothing committed until Accept.
	assert.Equal(t, before, p.Shape(0).Pos)
	mv.Accept()
	assert.InDelta(t, before[0]+0.2, p.Shape(0).Pos[0], 1e-12)
	assert.True(t, p.Shape(0).Orient.Equal(rot, 1e-12))
}

func TestRevertLeavesStateUntouched(t *testing.T) {
	p := latticePacking(t, 27, 9, 0.5)
	mv := p.Mover(0)
	before := p.Shape(5)

	dE := mv.TryMove(5, geom.Vec{0.3, 0.1, -0.2},
		geom.Rotation(geom.Vec{1, 0, 0}, 0.2), nil)
	require.False(t, IsRejected(dE))
	mv.Revert()

	assert.Equal(t, before, p.Shape(5))
	assert.Equal(t, 0, p.NumOverlaps())
}

func TestDomainRestrictedMove(t *testing.T) {
	p := latticePacking(t, 27, 12, 0.5)
	mv := p.Mover(0)

	// An active region covering a thin slab: moves out of it come back
	// as +Inf without touching the particle.
	region := &domain.Region{Lo: geom.Vec{0, 0, 0}, Hi: geom.Vec{0.25, 1, 1}}
	i := 0
	require.True(t, region.Contains(p.Frac(i)), "particle 0 starts inside the slab")

	dE := mv.TryTranslation(i, geom.Vec{6, 0, 0}, region)
	assert.True(t, IsRejected(dE))
	mv.Revert()

	dE = mv.TryTranslation(i, geom.Vec{0.05, 0, 0}, region)
	assert.False(t, IsRejected(dE))
	mv.Revert()
}

func TestOverlapCountingSignedDelta(t *testing.T) {
	// Two spheres forced to overlap: counting mode reports the signed
	// change instead of +Inf.
	box, err := boxes.NewCubicBox(8)
	require.NoError(t, err)
	shapes := []shape.Shape{
		shape.New(geom.Vec{4, 4, 4}),
		shape.New(geom.Vec{4.5, 4, 4}),
		shape.New(geom.Vec{6.5, 4, 4}),
	}
	p, err := New(box, shapes, []shape.Traits{shape.NewSphere(0.5)})
	require.NoError(t, err)

	p.SetOverlapCounting(true)
	assert.Equal(t, 1, p.NumOverlaps())

	mv := p.Mover(0)

	// Separating the overlapping pair: delta -1.
	dE := mv.TryTranslation(1, geom.Vec{0, 2, 0}, nil)
	assert.InDelta(t, -1, dE, 1e-12)
	mv.Accept()
	p.FlushMoves()
	assert.Equal(t, 0, p.NumOverlaps())

	// Moving back on top: delta +1, still a finite number.
	dE = mv.TryTranslation(1, geom.Vec{0, -2, 0}, nil)
	assert.InDelta(t, 1, dE, 1e-12)
	mv.Revert()
	assert.Equal(t, 0, p.NumOverlaps())
}

func TestCacheExactnessUnderRandomMoves(t *testing.T) {
	p := latticePacking(t, 27, 9, 0.45)
	p.SetOverlapCounting(true)
	mv := p.Mover(0)
	rng := rand.New(rand.NewSource(3))

	for step := 0; step < 300; step++ {
		i := rng.Intn(p.Len())
		dv := geom.Vec{
			(2*rng.Float64() - 1) * 0.4,
			(2*rng.Float64() - 1) * 0.4,
			(2*rng.Float64() - 1) * 0.4,
		}
		dE := mv.TryTranslation(i, dv, nil)
		if !IsRejected(dE) && rng.Float64() < 0.7 {
			mv.Accept()
		} else {
			mv.Revert()
		}
	}
	p.FlushMoves()

	assert.Equal(t, directOverlaps(p), p.NumOverlaps(),
		"cached overlap count matches O(N^2) recount")
}

func TestSoftEnergyCacheExactness(t *testing.T) {
	box, err := boxes.NewCubicBox(6)
	require.NoError(t, err)
	shapes := latticeShapes(27, 6)
	lj := shape.NewSoftSphere(0.5, shape.LennardJones{Epsilon: 1, Sigma: 0.5})
	p, err := New(box, shapes, []shape.Traits{lj})
	require.NoError(t, err)

	mv := p.Mover(0)
	rng := rand.New(rand.NewSource(9))
	for step := 0; step < 300; step++ {
		i := rng.Intn(p.Len())
		dv := geom.Vec{
			(2*rng.Float64() - 1) * 0.3,
			(2*rng.Float64() - 1) * 0.3,
			(2*rng.Float64() - 1) * 0.3,
		}
		dE := mv.TryTranslation(i, dv, nil)
		if !IsRejected(dE) && rng.Float64() < 0.7 {
			mv.Accept()
		} else {
			mv.Revert()
		}
	}
	p.FlushMoves()

	tol := 1e-9 * float64(p.Len())
	assert.InDelta(t, directEnergy(p), p.TotalEnergy(), tol)
}

func TestScalingTransaction(t *testing.T) {
	p := latticePacking(t, 27, 9, 0.45)
	v0 := p.Volume()
	pos0 := p.Shape(13).Pos

	// Growing the box is always fine for hard particles.
	dE := p.TryScaling(geom.Diagonal(geom.Vec{1.1, 1.1, 1.1}))
	assert.Equal(t, 0.0, dE)
	assert.InDelta(t, v0*1.1*1.1*1.1, p.Volume(), 1e-9)
	p.AcceptScaling()

	// Positions follow the affine map.
	assert.InDelta(t, pos0[0]*1.1, p.Shape(13).Pos[0], 1e-12)

	// Reverting an attempted shrink restores everything.
	vBefore := p.Volume()
	posBefore := p.Shape(4).Pos
	dE = p.TryScaling(geom.Diagonal(geom.Vec{0.9, 0.9, 0.9}))
	p.RevertScaling()
	_ = dE
	assert.InDelta(t, vBefore, p.Volume(), 1e-12)
	assert.InDelta(t, posBefore[0], p.Shape(4).Pos[0], 1e-12)
	assert.Equal(t, 0, p.NumOverlaps())
	assert.Equal(t, directOverlaps(p), 0)
}

func TestScalingRejectsTightBox(t *testing.T) {
	p := latticePacking(t, 8, 8, 0.5)

	// Shrinking a height below twice the range fails immediately.
	dE := p.TryScaling(geom.Diagonal(geom.Vec{0.2, 1, 1}))
	assert.True(t, IsRejected(dE))
	p.RevertScaling()
	assert.InDelta(t, 512, p.Volume(), 1e-12)
}

func TestScalingRejectsFlippedBox(t *testing.T) {
	p := latticePacking(t, 8, 8, 0.5)
	dE := p.TryScaling(geom.Diagonal(geom.Vec{-1, 1, 1}))
	assert.True(t, IsRejected(dE))
	p.RevertScaling()
}

func TestShearScaling(t *testing.T) {
	p := latticePacking(t, 27, 12, 0.3)

	shear := geom.Identity()
	shear.Set(0, 1, 0.05)
	dE := p.TryScaling(shear)
	require.False(t, IsRejected(dE))
	p.AcceptScaling()

	assert.Equal(t, 0, directOverlaps(p))
	assert.Equal(t, 0, p.NumOverlaps())

	// The box is now genuinely triclinic.
	m := p.Box().Matrix()
	assert.InDelta(t, 0.6, m.At(0, 1), 1e-12)
}

func TestGridConsistencyAfterTransactions(t *testing.T) {
	p := latticePacking(t, 27, 9, 0.45)
	mv := p.Mover(0)
	rng := rand.New(rand.NewSource(21))

	for step := 0; step < 200; step++ {
		switch rng.Intn(5) {
		case 0:
			f := 1 + (2*rng.Float64()-1)*0.02
			dE := p.TryScaling(geom.Diagonal(geom.Vec{f, f, f}))
			if !IsRejected(dE) && rng.Float64() < 0.5 {
				p.AcceptScaling()
			} else {
				p.RevertScaling()
			}
		default:
			i := rng.Intn(p.Len())
			dv := geom.Vec{
				(2*rng.Float64() - 1) * 0.5,
				(2*rng.Float64() - 1) * 0.5,
				(2*rng.Float64() - 1) * 0.5,
			}
			dE := mv.TryTranslation(i, dv, nil)
			if !IsRejected(dE) && rng.Float64() < 0.7 {
				mv.Accept()
			} else {
				mv.Revert()
			}
		}
	}
	p.FlushMoves()

	// The committed state stays overlap-free and the cache agrees with a
	// direct recount.
	assert.Equal(t, 0, directOverlaps(p))
	assert.Equal(t, 0, p.NumOverlaps())
}

func TestPBCEquivariance(t *testing.T) {
	// Shifting every particle by a lattice vector changes nothing
	// observable.
	side := 9.0
	box1, err := boxes.NewCubicBox(side)
	require.NoError(t, err)
	box2, err := boxes.NewCubicBox(side)
	require.NoError(t, err)

	shapes := latticeShapes(27, side)
	shifted := make([]shape.Shape, len(shapes))
	for i := range shapes {
		shifted[i] = shapes[i]
		shifted[i].Pos = shapes[i].Pos.Add(geom.Vec{side, -side, 2 * side})
	}

	// Sigma is chosen so that lattice neighbours sit inside the cutoff
	// and the energies compared below are not trivially zero.
	lj := shape.NewSoftSphere(0.5, shape.LennardJones{Epsilon: 1, Sigma: 1.2})
	p1, err := New(box1, shapes, []shape.Traits{lj})
	require.NoError(t, err)
	p2, err := New(box2, shifted, []shape.Traits{lj})
	require.NoError(t, err)

	assert.NotZero(t, p1.TotalEnergy())
	assert.InDelta(t, p1.TotalEnergy(), p2.TotalEnergy(), 1e-9)
	assert.Equal(t, p1.NumOverlaps(), p2.NumOverlaps())

	// The same move gives the same delta in both.
	dv := geom.Vec{0.3, 0.2, -0.4}
	d1 := p1.Mover(0).TryTranslation(7, dv, nil)
	d2 := p2.Mover(0).TryTranslation(7, dv, nil)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestKMerPackingCentres(t *testing.T) {
	box, err := boxes.NewCubicBox(12)
	require.NoError(t, err)
	shapes := []shape.Shape{
		shape.New(geom.Vec{3, 3, 3}),
		shape.New(geom.Vec{9, 9, 9}),
	}
	kmer := shape.NewKMer(2, 0.5, 1)
	p, err := New(box, shapes, []shape.Traits{kmer})
	require.NoError(t, err)

	assert.Equal(t, 0, p.NumOverlaps())

	// Translating dumbbell 0 from (3,3,3) by (5.6,5.6,5.6) puts it at
	// (8.6,8.6,8.6), right on top of dumbbell 1, so the move overlaps.
	mv := p.Mover(0)
	dE := mv.TryTranslation(0, geom.Vec{5.6, 5.6, 5.6}, nil)
	assert.True(t, IsRejected(dE), "dumbbells stacked on top of each other overlap")
	mv.Revert()
}

func TestNoGridFallback(t *testing.T) {
	// Spheres whose interaction range fits fewer than 3 grid cells into
	// the box: the packing must fall back to direct pair scans and still
	// keep its caches exact.
	box, err := boxes.NewCubicBox(8)
	require.NoError(t, err)
	shapes := latticeShapes(8, 8)
	p, err := New(box, shapes, []shape.Traits{shape.NewSphere(1.4)})
	require.NoError(t, err)
	require.False(t, p.UsingGrid())

	p.SetOverlapCounting(true)
	mv := p.Mover(0)
	rng := rand.New(rand.NewSource(31))
	for step := 0; step < 200; step++ {
		i := rng.Intn(p.Len())
		dv := geom.Vec{
			(2*rng.Float64() - 1) * 0.6,
			(2*rng.Float64() - 1) * 0.6,
			(2*rng.Float64() - 1) * 0.6,
		}
		dE := mv.TryTranslation(i, dv, nil)
		if !IsRejected(dE) && rng.Float64() < 0.7 {
			mv.Accept()
		} else {
			mv.Revert()
		}
	}
	p.FlushMoves()

	assert.Equal(t, directOverlaps(p), p.NumOverlaps())
}

func TestWalls(t *testing.T) {
	p := latticePacking(t, 8, 8, 0.5)
	p.SetWalls([3]bool{false, false, true})

	mv := p.Mover(0)

	// Pushing a particle through the bottom z face is rejected with
	// walls on.
	i := 0
	sh := p.Shape(i)
	dv := geom.Vec{0, 0, -(sh.Pos[2] - 0.3)}
	dE := mv.TryTranslation(i, dv, nil)
	assert.True(t, IsRejected(dE))
	mv.Revert()

	p.SetWalls([3]bool{})
	dE = mv.TryTranslation(i, dv, nil)
	assert.False(t, IsRejected(dE))
	mv.Revert()
}
