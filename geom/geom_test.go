package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

const eps = 1e-12

func TestVecOps(t *testing.T) {
	v := Vec{1, 2, 3}
	u := Vec{-1, 0.5, 2}

	assert.Equal(t, Vec{0, 2.5, 5}, v.Add(u))
	assert.Equal(t, Vec{2, 1.5, 1}, v.Sub(u))
	assert.Equal(t, Vec{2, 4, 6}, v.Scale(2))
	assert.InDelta(t, 6, v.Dot(u), eps)
	assert.InDelta(t, math.Sqrt(14), v.Norm(), eps)

	c := v.Cross(u)
	assert.InDelta(t, 0, c.Dot(v), eps, "cross product orthogonal to v")
	assert.InDelta(t, 0, c.Dot(u), eps, "cross product orthogonal to u")
}

func TestMatrixMul(t *testing.T) {
	m := Matrix{
		1, 2, 3,
		4, 5, 6,
		7, 8, 10,
	}
	id := Identity()

	assert.True(t, m.Mul(id).Equal(m, eps))
	assert.True(t, id.Mul(m).Equal(m, eps))
	assert.InDelta(t, -3, m.Det(), eps)

	inv, ok := m.Inverse()
	assert.True(t, ok)
	assert.True(t, m.Mul(inv).Equal(Identity(), 1e-10))
}

func TestSingularInverse(t *testing.T) {
	m := Matrix{
		1, 2, 3,
		2, 4, 6,
		0, 0, 1,
	}
	_, ok := m.Inverse()
	assert.False(t, ok)
}

func TestRotationIsProper(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		axis := Vec{
			2*rng.Float64() - 1, 2*rng.Float64() - 1, 2*rng.Float64() - 1,
		}
		if axis.Norm2() == 0 {
			continue
		}
		angle := (2*rng.Float64() - 1) * math.Pi
		r := Rotation(axis, angle)
		assert.True(t, r.IsRotation(1e-10))
	}
}

func TestRotationComposition(t *testing.T) {
	axis := Vec{0, 0, 1}
	r1 := Rotation(axis, math.Pi/3)
	r2 := Rotation(axis, -math.Pi/3)
	assert.True(t, r1.Mul(r2).Equal(Identity(), 1e-12))

	// Rotating the x axis by pi/2 around z gives the y axis.
	r := Rotation(axis, math.Pi/2)
	v := r.MulVec(Vec{1, 0, 0})
	assert.InDelta(t, 0, v[0], eps)
	assert.InDelta(t, 1, v[1], eps)
	assert.InDelta(t, 0, v[2], eps)
}

func TestQuatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))
	for i := 0; i < 200; i++ {
		axis := Vec{
			2*rng.Float64() - 1, 2*rng.Float64() - 1, 2*rng.Float64() - 1,
		}
		if axis.Norm2() == 0 {
			continue
		}
		angle := (2*rng.Float64() - 1) * math.Pi
		r := Rotation(axis, angle)

		back := RotationFromQuat(r.Quat())
		assert.True(t, r.Equal(back, 1e-9), "round trip %v angle %g", axis, angle)
	}
}

func TestQuatIdentity(t *testing.T) {
	q := Identity().Quat()
	assert.InDelta(t, 1, q.Real, eps)
	assert.InDelta(t, 0, q.Imag, eps)
	assert.InDelta(t, 0, q.Jmag, eps)
	assert.InDelta(t, 0, q.Kmag, eps)
}
