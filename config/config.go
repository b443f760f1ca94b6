/*
package config reads the ini run configuration and builds the
simulation ingredients out of it: the shape traits, the box scaler, the
starting packing and the run parameters.
*/
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/lattice"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/scaler"
	"github.com/phil-mansfield/packmc/shape"
)

// ErrState is returned when a continuation request does not match the
// stored run state.
var ErrState = errors.New("config: invalid run continuation")

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// File mirrors the sections of a run configuration file.
type File struct {
	General struct {
		Seed      int
		Verbosity string
	}

	Simulation struct {
		Temperature          float64
		Pressure             float64
		ThermalisationCycles int
		AveragingCycles      int
		AveragingEvery       int
		SnapshotEvery        int
		TranslationStep      float64
		RotationStep         float64
		ScalingStep          float64
		Domains              string
	}

	Scaling struct {
		Type string
	}

	Shape struct {
		Type        string
		Radius      float64
		Length      float64
		K           int
		Bond        float64
		Interaction string
		Epsilon     float64
		Sigma       float64
	}

	Lattice struct {
		N      int
		Volume float64
	}

	Output struct {
		Packing     string
		Trajectory  string
		Averages    string
		Wolfram     string
		DensityPlot string
	}
}

// Read parses and validates a configuration file.
func Read(path string) (*File, error) {
	f := &File{}
	f.setDefaults()
	if err := gcfg.ReadFileInto(f, path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) setDefaults() {
	f.General.Verbosity = "info"
	f.Simulation.SnapshotEvery = 100
	f.Simulation.TranslationStep = 0.5
	f.Simulation.RotationStep = 0.1
	f.Simulation.ScalingStep = 1
	f.Simulation.Domains = "1 1 1"
	f.Scaling.Type = "delta V"
	f.Shape.Interaction = "hard"
}

func (f *File) validate() error {
	s := &f.Simulation
	switch {
	case s.Temperature <= 0:
		return &ConfigError{"Simulation.Temperature", "must be positive"}
	case s.Pressure <= 0:
		return &ConfigError{"Simulation.Pressure", "must be positive"}
	case s.ThermalisationCycles <= 0:
		return &ConfigError{"Simulation.ThermalisationCycles", "must be positive"}
	case s.AveragingCycles <= 0:
		return &ConfigError{"Simulation.AveragingCycles", "must be positive"}
	case s.AveragingEvery <= 0 || s.AveragingEvery >= s.AveragingCycles:
		return &ConfigError{"Simulation.AveragingEvery", "must lie inside the averaging phase"}
	case s.TranslationStep <= 0 || s.RotationStep <= 0 || s.ScalingStep <= 0:
		return &ConfigError{"Simulation", "step sizes must be positive"}
	}

	if f.Lattice.N <= 0 {
		return &ConfigError{"Lattice.N", "must be positive"}
	}
	if f.Lattice.Volume <= 0 {
		return &ConfigError{"Lattice.Volume", "must be positive"}
	}
	if _, err := f.Domains(); err != nil {
		return err
	}
	if _, err := f.BuildTraits(); err != nil {
		return err
	}
	if _, err := f.BuildScaler(); err != nil {
		return err
	}
	return nil
}

// Domains parses the per-axis domain divisions.
func (f *File) Domains() ([3]int, error) {
	var d [3]int
	n, err := fmt.Sscanf(f.Simulation.Domains, "%d %d %d", &d[0], &d[1], &d[2])
	if err != nil || n != 3 {
		return d, &ConfigError{"Simulation.Domains", "expected three integers"}
	}
	for k := 0; k < 3; k++ {
		if d[k] < 1 {
			return d, &ConfigError{"Simulation.Domains", "divisions must be positive"}
		}
	}
	return d, nil
}

// BuildTraits constructs the shape traits described by the [Shape]
// section.
func (f *File) BuildTraits() (shape.Traits, error) {
	pot, err := f.buildPotential()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(f.Shape.Type) {
	case "sphere":
		if f.Shape.Radius <= 0 {
			return nil, &ConfigError{"Shape.Radius", "must be positive"}
		}
		if pot == nil {
			return shape.NewSphere(f.Shape.Radius), nil
		}
		return shape.NewSoftSphere(f.Shape.Radius, pot), nil

	case "spherocylinder":
		if f.Shape.Radius <= 0 || f.Shape.Length <= 0 {
			return nil, &ConfigError{"Shape", "spherocylinder needs positive Length and Radius"}
		}
		if pot != nil {
			return nil, &ConfigError{"Shape.Interaction", "spherocylinders are hard only"}
		}
		return shape.NewSpherocylinder(f.Shape.Length, f.Shape.Radius), nil

	case "kmer":
		if f.Shape.K < 1 || f.Shape.Radius <= 0 || f.Shape.Bond <= 0 {
			return nil, &ConfigError{"Shape", "kmer needs positive K, Radius and Bond"}
		}
		if pot == nil {
			return shape.NewKMer(f.Shape.K, f.Shape.Radius, f.Shape.Bond), nil
		}
		return shape.NewSoftKMer(f.Shape.K, f.Shape.Radius, f.Shape.Bond, pot), nil
	}
	return nil, &ConfigError{"Shape.Type", fmt.Sprintf("unknown shape %q", f.Shape.Type)}
}

func (f *File) buildPotential() (shape.CentralPotential, error) {
	switch strings.ToLower(f.Shape.Interaction) {
	case "", "hard":
		return nil, nil
	case "lj":
		if f.Shape.Epsilon <= 0 || f.Shape.Sigma <= 0 {
			return nil, &ConfigError{"Shape", "lj needs positive Epsilon and Sigma"}
		}
		return shape.LennardJones{Epsilon: f.Shape.Epsilon, Sigma: f.Shape.Sigma}, nil
	case "wca":
		if f.Shape.Epsilon <= 0 || f.Shape.Sigma <= 0 {
			return nil, &ConfigError{"Shape", "wca needs positive Epsilon and Sigma"}
		}
		return shape.RepulsiveLennardJones{Epsilon: f.Shape.Epsilon, Sigma: f.Shape.Sigma}, nil
	}
	return nil, &ConfigError{"Shape.Interaction", fmt.Sprintf("unknown interaction %q", f.Shape.Interaction)}
}

// BuildScaler constructs the box scaler described by the [Scaling]
// section.
func (f *File) BuildScaler() (scaler.Scaler, error) {
	s, err := scaler.FromString(f.Scaling.Type)
	if err != nil {
		return nil, &ConfigError{"Scaling.Type", err.Error()}
	}
	return s, nil
}

// BuildStartPacking arranges the configured number of particles on a
// lattice in a cubic box of the configured volume.
func (f *File) BuildStartPacking() (*packing.Packing, error) {
	traits, err := f.BuildTraits()
	if err != nil {
		return nil, err
	}

	side := math.Cbrt(f.Lattice.Volume)
	box, err := boxes.NewCubicBox(side)
	if err != nil {
		return nil, err
	}
	return packing.New(box, lattice.Arrange(f.Lattice.N, box),
		[]shape.Traits{traits})
}

// ExampleFile is printed by the CLI when asked for a template.
const ExampleFile = `[General]
# Seed of the random number generator.
Seed = 1234
# One of: error, warn, info, verbose, debug.
Verbosity = info

[Simulation]
Temperature = 10
Pressure = 1
ThermalisationCycles = 5000
AveragingCycles = 10000
AveragingEvery = 100
SnapshotEvery = 100
TranslationStep = 1
RotationStep = 0.1
ScalingStep = 1
# Domain divisions per axis; more than one enables parallel moves.
Domains = 1 1 1

[Scaling]
# One of: "delta V", "[independent] linear <dir>", "[independent] log <dir>",
# "[independent] delta triclinic". Directions: isotropic, anisotropic x,
# anisotropic xyz, or a token string such as (xy)z or [x]yz.
Type = delta V

[Shape]
# One of: Sphere, Spherocylinder, KMer.
Type = Sphere
Radius = 0.5
# Spherocylinder only.
# Length = 0.5
# KMer only.
# K = 2
# Bond = 1
# One of: hard, lj, wca.
Interaction = hard
# Epsilon = 1
# Sigma = 0.5

[Lattice]
N = 50
Volume = 5000

[Output]
# Any of these may be left empty to skip that output.
Packing = packing.ramsnap
Trajectory = run.ramtrj
Averages = averages.out
Wolfram = packing.nb
DensityPlot = density.png
`
