package scaler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/phil-mansfield/packmc/geom"
)

func newRng() *rand.Rand { return rand.New(rand.NewSource(1)) }

func cube(side float64) geom.Matrix {
	return geom.Diagonal(geom.Vec{side, side, side})
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("isotropic")
	require.NoError(t, err)
	assert.Equal(t, [][3]bool{{true, true, true}}, d.Groups())

	d, err = ParseDirection("anisotropic x")
	require.NoError(t, err)
	assert.Equal(t, [][3]bool{{true, false, false}, {false, true, true}}, d.Groups())

	d, err = ParseDirection("xyz")
	require.NoError(t, err)
	assert.Len(t, d.Groups(), 3)

	d, err = ParseDirection("(xy)z")
	require.NoError(t, err)
	assert.Equal(t, [][3]bool{{true, true, false}, {false, false, true}}, d.Groups())

	d, err = ParseDirection("[x]yz")
	require.NoError(t, err)
	assert.Equal(t, [3]bool{true, false, false}, d.Frozen())
	assert.Len(t, d.Groups(), 2)

	d, err = ParseDirection("y[xz]")
	require.NoError(t, err)
	assert.Equal(t, [3]bool{true, false, true}, d.Frozen())
}

func TestParseDirectionErrors(t *testing.T) {
	for _, bad := range []string{
		"", "xy", "xx yz", "xyzz", "(xy", "[x]y", "w", "x(y]z", "(xyz)x",
	} {
		_, err := ParseDirection(bad)
		assert.Error(t, err, "direction %q", bad)
	}
}

func TestDeltaVolume(t *testing.T) {
	rng := newRng()
	box := cube(10)
	v := 1000.0

	for i := 0; i < 200; i++ {
		tr, logJac := DeltaVolume{}.SampleTransform(box, 5, rng)
		assert.Equal(t, 0.0, logJac)

		// The transform is isotropic and its determinant matches the
		// sampled volume change.
		assert.InDelta(t, tr.At(0, 0), tr.At(1, 1), 1e-12)
		assert.InDelta(t, tr.At(0, 0), tr.At(2, 2), 1e-12)

		newV := v * tr.Det()
		assert.InDelta(t, v, newV, 5+1e-9, "volume change within the step")
	}
}

func TestLinearIsotropic(t *testing.T) {
	s, err := FromString("linear isotropic")
	require.NoError(t, err)
	rng := newRng()

	for i := 0; i < 200; i++ {
		tr, _ := s.SampleTransform(cube(5), 0.1, rng)
		f := tr.At(0, 0)
		assert.InDelta(t, f, tr.At(1, 1), 1e-12)
		assert.InDelta(t, f, tr.At(2, 2), 1e-12)
		assert.GreaterOrEqual(t, f, 0.9)
		assert.LessOrEqual(t, f, 1.1)
	}
}

func TestIndependentLinearAnisotropic(t *testing.T) {
	s, err := FromString("independent linear xyz")
	require.NoError(t, err)
	rng := newRng()

	different := false
	for i := 0; i < 50; i++ {
		tr, _ := s.SampleTransform(cube(5), 0.2, rng)
		if math.Abs(tr.At(0, 0)-tr.At(1, 1)) > 1e-9 {
			different = true
		}
	}
	assert.True(t, different, "independent axes draw different factors")
}

func TestCoupledSharesFactor(t *testing.T) {
	s, err := FromString("independent linear (xy)z")
	require.NoError(t, err)
	rng := newRng()

	for i := 0; i < 50; i++ {
		tr, _ := s.SampleTransform(cube(5), 0.2, rng)
		assert.InDelta(t, tr.At(0, 0), tr.At(1, 1), 1e-12, "coupled axes share the factor")
	}
}

func TestFrozenAxisStaysUnit(t *testing.T) {
	s, err := FromString("log [x]yz")
	require.NoError(t, err)
	rng := newRng()

	for i := 0; i < 50; i++ {
		tr, _ := s.SampleTransform(cube(5), 0.3, rng)
		assert.Equal(t, 1.0, tr.At(0, 0), "frozen axis is never scaled")
	}
}

func TestLogFactorsPositive(t *testing.T) {
	s, err := FromString("independent log xyz")
	require.NoError(t, err)
	rng := newRng()

	for i := 0; i < 200; i++ {
		tr, _ := s.SampleTransform(cube(5), 1.5, rng)
		assert.Positive(t, tr.Det(), "log factors keep the box valid even for large steps")
	}
}

func TestNonIndependentSharesAcrossGroups(t *testing.T) {
	s, err := FromString("linear xyz")
	require.NoError(t, err)
	rng := newRng()

	for i := 0; i < 50; i++ {
		tr, _ := s.SampleTransform(cube(5), 0.2, rng)
		assert.InDelta(t, tr.At(0, 0), tr.At(1, 1), 1e-12)
		assert.InDelta(t, tr.At(0, 0), tr.At(2, 2), 1e-12)
	}
}

func TestTriclinicDelta(t *testing.T) {
	s, err := FromString("delta triclinic")
	require.NoError(t, err)
	rng := newRng()
	box := cube(10)

	sheared := false
	for i := 0; i < 100; i++ {
		tr, logJac := s.SampleTransform(box, 0.5, rng)
		assert.Equal(t, 0.0, logJac)

		newM := tr.Mul(box)
		// The three diagonals move together.
		assert.InDelta(t, newM.At(0, 0)-10, newM.At(1, 1)-10, 1e-9)
		assert.InDelta(t, newM.At(0, 0)-10, newM.At(2, 2)-10, 1e-9)

		for _, idx := range offDiagonal {
			if math.Abs(newM[idx]) > 1e-12 {
				sheared = true
			}
		}
	}
	assert.True(t, sheared, "off-diagonal elements get perturbed")
}

func TestIndependentTriclinicDelta(t *testing.T) {
	s, err := FromString("independent delta triclinic")
	require.NoError(t, err)
	rng := newRng()
	box := cube(10)

	different := false
	for i := 0; i < 100; i++ {
		tr, _ := s.SampleTransform(box, 0.5, rng)
		newM := tr.Mul(box)
		if math.Abs(newM.At(0, 0)-newM.At(1, 1)) > 1e-9 {
			different = true
		}
	}
	assert.True(t, different, "independent diagonals move apart")
}

func TestFromStringErrors(t *testing.T) {
	for _, bad := range []string{
		"", "delta", "quadratic isotropic", "linear", "log xy", "delta W",
		"independent", "independent linear", "linear xyzz",
	} {
		_, err := FromString(bad)
		assert.Error(t, err, "spec %q", bad)
	}
}
