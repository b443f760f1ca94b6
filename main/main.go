package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/phil-mansfield/packmc/config"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/obs"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/ramsnap"
	"github.com/phil-mansfield/packmc/ramtrj"
	"github.com/phil-mansfield/packmc/shape"
	"github.com/phil-mansfield/packmc/sim"
)

var verbosityLevels = map[string]int{
	"error": 0, "warn": 1, "info": 2, "verbose": 3, "debug": 4,
}

func main() {
	// The main function manages input sanitization and dispatches to the
	// secondary main functions of each mode.
	var (
		input     string
		startFrom string
		cont      bool
		verbosity string
	)
	flag.StringVar(&input, "input", "", "Run configuration file.")
	flag.StringVar(&startFrom, "start-from", "",
		"RAMSNAP file to restore the starting configuration from.")
	flag.BoolVar(&cont, "continue", false,
		"Continue the run stored in the -start-from file, restoring its "+
			"step sizes and cycle count.")
	flag.StringVar(&verbosity, "verbosity", "info",
		"One of: error, warn, info, verbose, debug.")
	flag.Parse()

	level, ok := verbosityLevels[verbosity]
	if !ok {
		log.Fatalf("unknown verbosity %q", verbosity)
	}
	logger := newLogger(level)

	mode := "casino"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}

	var err error
	switch mode {
	case "casino":
		err = casinoMain(input, startFrom, cont, logger)
	case "preview":
		err = previewMain(input, logger)
	case "shape-preview":
		err = shapePreviewMain(input)
	case "trajectory":
		err = trajectoryMain(flag.Arg(1))
	case "example-config":
		fmt.Print(config.ExampleFile)
	default:
		err = fmt.Errorf("unknown mode %q; expected casino, preview, "+
			"shape-preview, trajectory or example-config", mode)
	}
	if err != nil {
		log.Fatal(err.Error())
	}
}

func newLogger(level int) *log.Logger {
	if level < verbosityLevels["info"] {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stdout, "", log.Ltime)
}

// interruptFlag adapts SIGINT/SIGTERM into the driver's polled
// cancellation flag.
func interruptFlag() func() bool {
	var flagged atomic.Bool
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		flagged.Store(true)
		signal.Stop(ch)
	}()
	return flagged.Load
}

// casinoMain performs the full NpT integration described by the config
// file.
func casinoMain(input, startFrom string, cont bool, logger *log.Logger) error {
	if input == "" {
		return fmt.Errorf("casino mode needs -input")
	}
	cfg, err := config.Read(input)
	if err != nil {
		return err
	}

	par := sim.Params{
		TranslationStep: cfg.Simulation.TranslationStep,
		RotationStep:    cfg.Simulation.RotationStep,
		ScalingStep:     cfg.Simulation.ScalingStep,
		Seed:            uint64(cfg.General.Seed),
		Interrupt:       interruptFlag(),
		Logger:          logger,
	}
	if par.Scaler, err = cfg.BuildScaler(); err != nil {
		return err
	}
	if par.Domains, err = cfg.Domains(); err != nil {
		return err
	}

	p, cycleOffset, err := startingPacking(cfg, startFrom, cont, &par)
	if err != nil {
		return err
	}

	thermalCycles := cfg.Simulation.ThermalisationCycles
	if cont && cycleOffset >= thermalCycles {
		return fmt.Errorf("%w: stored run already finished thermalisation (%d of %d cycles)",
			config.ErrState, cycleOffset, thermalCycles)
	}

	s, err := sim.New(p, par)
	if err != nil {
		return err
	}

	collector := obs.NewDensityCollector()
	var runCol sim.Collector = collector
	var trj *ramtrj.Writer
	if cfg.Output.Trajectory != "" {
		f, err := os.Create(cfg.Output.Trajectory)
		if err != nil {
			return err
		}
		defer f.Close()
		if trj, err = ramtrj.NewWriter(f, p.Len()); err != nil {
			return err
		}
		defer trj.Close()
		runCol = &trajectoryCollector{DensityCollector: collector, trj: trj, logger: logger}
	}

	err = s.Integrate(cfg.Simulation.Temperature, cfg.Simulation.Pressure,
		cfg.Simulation.ThermalisationCycles, cfg.Simulation.AveragingCycles,
		cfg.Simulation.AveragingEvery, cfg.Simulation.SnapshotEvery,
		runCol, cycleOffset)
	if err != nil {
		return err
	}
	if s.WasInterrupted() {
		logger.Printf("run interrupted; storing the last committed state")
	}

	logger.Printf("move acceptance rate: %.4f, scaling: %.4f",
		s.MoveAcceptanceRate(), s.ScalingAcceptanceRate())
	logger.Printf("moves: %.0f us, scalings: %.0f us, total: %.0f us",
		s.MoveMicroseconds(), s.ScalingMicroseconds(), s.TotalMicroseconds())

	return storeOutputs(cfg, s, collector)
}

func startingPacking(cfg *config.File, startFrom string, cont bool,
	par *sim.Params) (*packing.Packing, int, error) {

	if startFrom == "" {
		if cont {
			return nil, 0, fmt.Errorf("%w: -continue needs -start-from", config.ErrState)
		}
		p, err := cfg.BuildStartPacking()
		return p, 0, err
	}

	f, err := os.Open(startFrom)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	snap, err := ramsnap.Load(f)
	if err != nil {
		return nil, 0, err
	}
	traits, err := cfg.BuildTraits()
	if err != nil {
		return nil, 0, err
	}
	p, err := snap.Packing([]shape.Traits{traits})
	if err != nil {
		return nil, 0, err
	}

	cycleOffset := 0
	if cont {
		if par.TranslationStep, err = snap.AuxFloat(ramsnap.TranslationStepKey); err != nil {
			return nil, 0, err
		}
		if par.RotationStep, err = snap.AuxFloat(ramsnap.RotationStepKey); err != nil {
			return nil, 0, err
		}
		if par.ScalingStep, err = snap.AuxFloat(ramsnap.ScalingStepKey); err != nil {
			return nil, 0, err
		}
		if cycleOffset, err = snap.AuxInt(ramsnap.CyclesKey); err != nil {
			return nil, 0, err
		}
	}
	return p, cycleOffset, nil
}

func storeOutputs(cfg *config.File, s *sim.Simulation, collector *obs.DensityCollector) error {
	p := s.Packing()

	if cfg.Output.Packing != "" {
		aux := map[string]string{
			ramsnap.TranslationStepKey: fmt.Sprintf("%g", s.TranslationStep()),
			ramsnap.RotationStepKey:    fmt.Sprintf("%g", s.RotationStep()),
			ramsnap.ScalingStepKey:     fmt.Sprintf("%g", s.ScalingStep()),
			ramsnap.CyclesKey:          fmt.Sprintf("%d", s.TotalCycles()),
		}
		if err := storeTo(cfg.Output.Packing, func(w io.Writer) error {
			return ramsnap.FromPacking(p, aux).Store(w)
		}); err != nil {
			return err
		}
	}

	if cfg.Output.Averages != "" {
		if err := storeTo(cfg.Output.Averages, func(w io.Writer) error {
			return collector.StoreAverages(w, cfg.Simulation.Temperature,
				cfg.Simulation.Pressure)
		}); err != nil {
			return err
		}
	}

	if cfg.Output.Wolfram != "" {
		if err := storeTo(cfg.Output.Wolfram, p.StoreWolfram); err != nil {
			return err
		}
	}

	if cfg.Output.DensityPlot != "" {
		if err := collector.PlotDensity(cfg.Output.DensityPlot); err != nil {
			return err
		}
	}
	return nil
}

func storeTo(path string, store func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := store(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// trajectoryCollector tees snapshots into the trajectory writer on top
// of the density collector.
type trajectoryCollector struct {
	*obs.DensityCollector
	trj    *ramtrj.Writer
	logger *log.Logger
}

func (c *trajectoryCollector) AddSnapshot(p *packing.Packing, cycle int) {
	c.DensityCollector.AddSnapshot(p, cycle)
	if err := c.trj.WriteFrame(p); err != nil {
		c.logger.Printf("trajectory frame at cycle %d failed: %v", cycle, err)
	}
}

// previewMain builds the initial configuration and stores it without
// running the simulation.
func previewMain(input string, logger *log.Logger) error {
	if input == "" {
		return fmt.Errorf("preview mode needs -input")
	}
	cfg, err := config.Read(input)
	if err != nil {
		return err
	}
	p, err := cfg.BuildStartPacking()
	if err != nil {
		return err
	}

	if cfg.Output.Packing != "" {
		if err := storeTo(cfg.Output.Packing, func(w io.Writer) error {
			return ramsnap.FromPacking(p, nil).Store(w)
		}); err != nil {
			return err
		}
		logger.Printf("packing stored to %s", cfg.Output.Packing)
	}
	if cfg.Output.Wolfram != "" {
		if err := storeTo(cfg.Output.Wolfram, p.StoreWolfram); err != nil {
			return err
		}
		logger.Printf("Wolfram packing stored to %s", cfg.Output.Wolfram)
	}
	return nil
}

// shapePreviewMain prints a single configured shape as a Wolfram
// expression.
func shapePreviewMain(input string) error {
	if input == "" {
		return fmt.Errorf("shape-preview mode needs -input")
	}
	cfg, err := config.Read(input)
	if err != nil {
		return err
	}
	traits, err := cfg.BuildTraits()
	if err != nil {
		return err
	}

	r, ok := traits.(shape.WolframRenderer)
	if !ok {
		return fmt.Errorf("shape %q has no preview", cfg.Shape.Type)
	}
	fmt.Printf("Graphics3D[%s]\n", r.Wolfram(geom.Vec{}, geom.Identity()))
	return nil
}

// trajectoryMain prints a per-frame summary of a stored trajectory.
func trajectoryMain(path string) error {
	if path == "" {
		return fmt.Errorf("trajectory mode needs a trajectory file argument")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := ramtrj.NewReader(f)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Printf("particles per frame: %d\n", r.NumParticles())
	for i := 0; ; i++ {
		frame, err := r.Next()
		if err == io.EOF {
			fmt.Printf("frames: %d\n", i)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("frame %d: V = %g\n", i, frame.BoxMatrix.Det())
	}
}
