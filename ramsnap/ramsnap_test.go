package ramsnap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/lattice"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/shape"
)

func testPacking(t *testing.T) *packing.Packing {
	t.Helper()
	box, err := boxes.NewCubicBox(10)
	require.NoError(t, err)

	shapes := lattice.Arrange(27, box)
	// Give a few particles non-trivial orientations.
	shapes[3].Orient = geom.Rotation(geom.Vec{1, 2, 3}, 0.7)
	shapes[8].Orient = geom.Rotation(geom.Vec{0, 1, -1}, -1.2)

	p, err := packing.New(box, shapes, []shape.Traits{shape.NewSpherocylinder(0.5, 0.2)})
	require.NoError(t, err)
	return p
}

func TestStoreLoadStoreByteExact(t *testing.T) {
	p := testPacking(t)
	snap := FromPacking(p, map[string]string{
		TranslationStepKey: "0.75",
		RotationStepKey:    "0.1",
		ScalingStepKey:     "1.25",
		CyclesKey:          "5000",
	})

	var first bytes.Buffer
	require.NoError(t, snap.Store(&first))

	loaded, err := Load(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, loaded.Store(&second))

	assert.Equal(t, first.String(), second.String(), "store-load-store is byte exact")
}

func TestRoundTripRebuildsEquivalentPacking(t *testing.T) {
	p := testPacking(t)
	traits := []shape.Traits{shape.NewSpherocylinder(0.5, 0.2)}

	var buf bytes.Buffer
	require.NoError(t, FromPacking(p, nil).Store(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	p2, err := loaded.Packing(traits)
	require.NoError(t, err)

	require.Equal(t, p.Len(), p2.Len())
	assert.Equal(t, p.NumOverlaps(), p2.NumOverlaps())
	assert.InDelta(t, p.TotalEnergy(), p2.TotalEnergy(), 1e-9)
	assert.InDelta(t, p.Volume(), p2.Volume(), 1e-12)

	for i := 0; i < p.Len(); i++ {
		s1, s2 := p.Shape(i), p2.Shape(i)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, s1.Pos[k], s2.Pos[k], 1e-12)
		}
		assert.True(t, s1.Orient.Equal(s2.Orient, 1e-9), "orientation of particle %d", i)
		assert.Equal(t, s1.Species, s2.Species)
	}
}

func TestAuxAccessors(t *testing.T) {
	p := testPacking(t)
	snap := FromPacking(p, map[string]string{
		TranslationStepKey: "0.5",
		CyclesKey:          "123",
	})

	v, err := snap.AuxFloat(TranslationStepKey)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	n, err := snap.AuxInt(CyclesKey)
	require.NoError(t, err)
	assert.Equal(t, 123, n)

	_, err = snap.AuxFloat("missing")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"bad header":      "RAMPAGE 1\n",
		"bad version":     "RAMSNAP 9\n",
		"short box":       "RAMSNAP 1\n1 0 0\n",
		"bad count":       "RAMSNAP 1\n1 0 0 0 1 0 0 0 1\nmany\n",
		"short particle":  "RAMSNAP 1\n1 0 0 0 1 0 0 0 1\n1\n0 0 0 1\n",
		"bad species":     "RAMSNAP 1\n1 0 0 0 1 0 0 0 1\n1\n0 0 0 1 0 0 0 -2\n",
		"missing entries": "RAMSNAP 1\n1 0 0 0 1 0 0 0 1\n2\n0 0 0 1 0 0 0 0\n",
	}
	for name, text := range cases {
		_, err := Load(strings.NewReader(text))
		assert.Error(t, err, name)
	}
}

func TestLoadSkipsBlankLines(t *testing.T) {
	text := "RAMSNAP 1\n\n2 0 0 0 2 0 0 0 2\n\n1\n1 1 1 1 0 0 0 0\n\ncycles 7\n"
	s, err := Load(strings.NewReader(text))
	require.NoError(t, err)
	assert.Len(t, s.Particles, 1)
	assert.Equal(t, "7", s.Aux["cycles"])
}
