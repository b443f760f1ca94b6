/*
package scaler implements the box scalers: samplers of volume and shape
perturbations of the triclinic box. A scaler is a pure function of the
current box matrix, a step size and an RNG; it holds no state between
calls.
*/
package scaler

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/phil-mansfield/packmc/geom"
)

// Scaler proposes box transforms. The returned transform t is applied to
// the box by left multiplication; logJac is the proposal-asymmetry
// adjustment added to the Metropolis exponent on top of N*log(det t).
type Scaler interface {
	SampleTransform(box geom.Matrix, step float64, rng *rand.Rand) (t geom.Matrix, logJac float64)
}

// DeltaVolume samples a volume change dV uniformly in [-step, step] and
// turns it into an isotropic transform.
type DeltaVolume struct{}

func (DeltaVolume) SampleTransform(box geom.Matrix, step float64, rng *rand.Rand) (geom.Matrix, float64) {
	v := math.Abs(box.Det())
	dv := distuv.Uniform{Min: -step, Max: step, Src: rng}.Rand()

	// A negative target volume gives a transform with non-positive
	// determinant, which the packing rejects on its own.
	f := math.Cbrt((v + dv) / v)
	return geom.Diagonal(geom.Vec{f, f, f}), 0
}

// FactorSampler draws one linear scaling factor.
type FactorSampler interface {
	SampleFactor(step float64, rng *rand.Rand) float64
}

// Linear samples factors uniformly in [1-step, 1+step].
type Linear struct{}

func (Linear) SampleFactor(step float64, rng *rand.Rand) float64 {
	return distuv.Uniform{Min: 1 - step, Max: 1 + step, Src: rng}.Rand()
}

// Log samples factors as exp(u) with u uniform in [-step, step].
type Log struct{}

func (Log) SampleFactor(step float64, rng *rand.Rand) float64 {
	return math.Exp(distuv.Uniform{Min: -step, Max: step, Src: rng}.Rand())
}

// Anisotropic scales the box axes with factors drawn by a FactorSampler,
// grouped and frozen according to a parsed scaling direction. With
// independent sampling every coupled group draws its own factor;
// otherwise one draw serves all groups.
type Anisotropic struct {
	sampler     FactorSampler
	dir         Direction
	independent bool
}

// NewAnisotropic creates an anisotropic scaler.
func NewAnisotropic(sampler FactorSampler, dir Direction, independent bool) *Anisotropic {
	return &Anisotropic{sampler: sampler, dir: dir, independent: independent}
}

func (a *Anisotropic) SampleTransform(box geom.Matrix, step float64, rng *rand.Rand) (geom.Matrix, float64) {
	factors := geom.Vec{1, 1, 1}

	shared := math.NaN()
	for _, group := range a.dir.groups {
		f := shared
		if a.independent || math.IsNaN(shared) {
			f = a.sampler.SampleFactor(step, rng)
			shared = f
		}
		for k := 0; k < 3; k++ {
			if group[k] {
				factors[k] = f
			}
		}
	}
	return geom.Diagonal(factors), 0
}

// TriclinicDelta perturbs one randomly chosen off-diagonal box-matrix
// element by a uniform delta, shearing the box, and additionally
// perturbs the diagonal, together or independently.
type TriclinicDelta struct {
	scaleTogether bool
}

// NewTriclinicDelta creates a triclinic delta scaler. With scaleTogether
// the three diagonal elements receive the same delta.
func NewTriclinicDelta(scaleTogether bool) *TriclinicDelta {
	return &TriclinicDelta{scaleTogether: scaleTogether}
}

// offDiagonal lists the row-major indices of the six off-diagonal
// elements of a 3x3 matrix.
var offDiagonal = [6]int{1, 2, 3, 5, 6, 7}

func (s *TriclinicDelta) SampleTransform(box geom.Matrix, step float64, rng *rand.Rand) (geom.Matrix, float64) {
	u := distuv.Uniform{Min: -step, Max: step, Src: rng}

	newM := box
	if s.scaleTogether {
		d := u.Rand()
		newM[0] += d
		newM[4] += d
		newM[8] += d
	} else {
		newM[0] += u.Rand()
		newM[4] += u.Rand()
		newM[8] += u.Rand()
	}
	newM[offDiagonal[rng.Intn(6)]] += u.Rand()

	inv, ok := box.Inverse()
	if !ok {
		panic("scaler: current box matrix is singular")
	}
	return newM.Mul(inv), 0
}
