/*
package sim drives the Monte Carlo sampling: it composes particle moves
and box moves into cycles, applies the Metropolis criterion, self-tunes
the step sizes during thermalisation and hands the packing to an
observable collector.

Moves themselves are carried out by the packing's transactional API; the
driver only decides whether to accept them.
*/
package sim

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/phil-mansfield/packmc/domain"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/scaler"
)

var (
	// ErrBadParams covers invalid construction or run parameters.
	ErrBadParams = errors.New("sim: bad parameters")

	// ErrNoGrid is returned when domain division is requested but the
	// box is too small to carry a neighbour grid.
	ErrNoGrid = errors.New("sim: domain division requires a neighbour grid")
)

// State is the phase of a simulation run.
type State int

const (
	NotStarted State = iota
	Thermalising
	Averaging
	Finished
	Interrupted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Thermalising:
		return "thermalisation"
	case Averaging:
		return "averaging"
	case Finished:
		return "finished"
	case Interrupted:
		return "interrupted"
	}
	return "unknown"
}

// Collector receives the packing state during a run. Implementations
// live outside the core; see the obs package for the standard one.
type Collector interface {
	AddSnapshot(p *packing.Packing, cycle int)
	AddAveragingValue(p *packing.Packing)
}

// InlineReporter is an optional Collector extension supplying the short
// observable string logged every 100 cycles.
type InlineReporter interface {
	InlineString(p *packing.Packing) string
}

// Params configures a Simulation.
type Params struct {
	TranslationStep float64
	RotationStep    float64
	ScalingStep     float64

	Seed uint64

	// Scaler proposes box moves.
	Scaler scaler.Scaler

	// Domains is the number of domain divisions per axis; the zero
	// value means {1, 1, 1}, i.e. single-threaded moves.
	Domains [3]int

	// Interrupt is polled once per cycle; when it returns true the
	// current cycle finishes and the run returns early. Nil means never.
	Interrupt func() bool

	// Logger receives progress lines; nil discards them.
	Logger *log.Logger
}

// Simulation owns a packing for the duration of a run and performs
// Metropolis sampling on it.
type Simulation struct {
	packing *packing.Packing

	translationStep float64
	rotationStep    float64
	scalingStep     float64

	boxScaler  scaler.Scaler
	divisions  [3]int
	numDomains int
	rngs       []*rand.Rand

	moveCounter    *Counter
	scalingCounter *Counter

	logger    *log.Logger
	interrupt func() bool

	temperature float64
	pressure    float64

	state           State
	adjustStepSizes bool
	wasInterrupted  bool
	performedCycles int
	totalCycles     int

	allParticles []int

	moveMicroseconds    float64
	scalingMicroseconds float64
	totalMicroseconds   float64
}

// New creates a simulation taking exclusive ownership of p until the
// next Integrate or RelaxOverlaps call returns.
func New(p *packing.Packing, par Params) (*Simulation, error) {
	if par.TranslationStep <= 0 || par.RotationStep <= 0 || par.ScalingStep <= 0 {
		return nil, fmt.Errorf("%w: step sizes must be positive", ErrBadParams)
	}
	if par.Scaler == nil {
		return nil, fmt.Errorf("%w: a box scaler is required", ErrBadParams)
	}

	div := par.Domains
	if div == ([3]int{}) {
		div = [3]int{1, 1, 1}
	}
	for k := 0; k < 3; k++ {
		if div[k] < 1 {
			return nil, fmt.Errorf("%w: domain divisions must be positive", ErrBadParams)
		}
	}
	numDomains := div[0] * div[1] * div[2]
	if numDomains > p.Len() {
		return nil, fmt.Errorf("%w: more domains than particles", ErrBadParams)
	}

	logger := par.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	interrupt := par.Interrupt
	if interrupt == nil {
		interrupt = func() bool { return false }
	}

	s := &Simulation{
		packing:         p,
		translationStep: par.TranslationStep,
		rotationStep:    par.RotationStep,
		scalingStep:     par.ScalingStep,
		boxScaler:       par.Scaler,
		divisions:       div,
		numDomains:      numDomains,
		moveCounter:     NewCounter(numDomains),
		scalingCounter:  NewCounter(1),
		logger:          logger,
		interrupt:       interrupt,
		allParticles:    make([]int, p.Len()),
	}
	for i := range s.allParticles {
		s.allParticles[i] = i
	}

	// One RNG per domain, seeded seed+i: the stream of domain i only
	// depends on (seed, i), which keeps runs reproducible for a fixed
	// domain count.
	s.rngs = make([]*rand.Rand, numDomains)
	for i := range s.rngs {
		s.rngs[i] = rand.New(rand.NewSource(par.Seed + uint64(i)))
	}

	p.SetMoveThreads(numDomains)
	return s, nil
}

// Integrate performs a full NpT run: thermalisation with step-size
// tuning followed by an averaging phase feeding the collector.
// cycleOffset shifts the cycle numbering when continuing an earlier run;
// an offset past the thermalisation phase skips straight to averaging.
func (s *Simulation) Integrate(temperature, pressure float64,
	thermalCycles, averagingCycles, averagingEvery, snapshotEvery int,
	collector Collector, cycleOffset int) error {

	switch {
	case temperature <= 0:
		return fmt.Errorf("%w: temperature must be positive", ErrBadParams)
	case pressure <= 0:
		return fmt.Errorf("%w: pressure must be positive", ErrBadParams)
	case thermalCycles <= 0 || averagingCycles <= 0:
		return fmt.Errorf("%w: cycle counts must be positive", ErrBadParams)
	case averagingEvery <= 0 || averagingEvery >= averagingCycles:
		return fmt.Errorf("%w: averaging interval must lie inside the averaging phase", ErrBadParams)
	case snapshotEvery <= 0:
		return fmt.Errorf("%w: snapshot interval must be positive", ErrBadParams)
	}
	if err := s.checkDomains(); err != nil {
		return err
	}

	s.temperature = temperature
	s.pressure = pressure
	s.reset()
	s.totalCycles = cycleOffset

	start := time.Now()
	defer func() { s.totalMicroseconds += micro(start) }()

	remainingThermal := thermalCycles - cycleOffset
	if remainingThermal > 0 {
		s.state = Thermalising
		s.adjustStepSizes = true
		s.logger.Printf("[%s] starting %d cycles", s.state, remainingThermal)
		if ok, err := s.runPhase(remainingThermal, snapshotEvery, 0, collector); !ok {
			return err
		}
	}

	s.state = Averaging
	s.adjustStepSizes = false
	s.logger.Printf("[%s] starting %d cycles", s.state, averagingCycles)
	if ok, err := s.runPhase(averagingCycles, snapshotEvery, averagingEvery, collector); !ok {
		return err
	}

	s.state = Finished
	return nil
}

// RelaxOverlaps runs with overlap counting enabled until the packing is
// overlap-free. Moves reducing the overlap count are always accepted;
// step sizes keep tuning throughout.
func (s *Simulation) RelaxOverlaps(temperature, pressure float64,
	snapshotEvery int, collector Collector, cycleOffset int) error {

	switch {
	case temperature <= 0:
		return fmt.Errorf("%w: temperature must be positive", ErrBadParams)
	case pressure <= 0:
		return fmt.Errorf("%w: pressure must be positive", ErrBadParams)
	case snapshotEvery <= 0:
		return fmt.Errorf("%w: snapshot interval must be positive", ErrBadParams)
	}
	if err := s.checkDomains(); err != nil {
		return err
	}

	s.temperature = temperature
	s.pressure = pressure
	s.reset()
	s.totalCycles = cycleOffset

	start := time.Now()
	defer func() { s.totalMicroseconds += micro(start) }()

	s.packing.SetOverlapCounting(true)
	defer s.packing.SetOverlapCounting(false)

	s.state = Thermalising
	s.adjustStepSizes = true
	s.logger.Printf("[overlap relaxation] starting; %d overlaps", s.packing.NumOverlaps())

	for cycle := 1; s.packing.NumOverlaps() > 0; cycle++ {
		if s.interrupt() {
			s.markInterrupted()
			return nil
		}
		if err := s.performCycle(); err != nil {
			return err
		}
		if cycle%snapshotEvery == 0 && collector != nil {
			collector.AddSnapshot(s.packing, s.totalCycles)
		}
		if cycle%100 == 0 {
			s.logger.Printf("[overlap relaxation] performed %d cycles; %d overlaps",
				cycle, s.packing.NumOverlaps())
		}
	}

	s.state = Finished
	return nil
}

// runPhase performs n cycles, snapshotting and averaging as configured.
// Returns false if the run was interrupted or failed.
func (s *Simulation) runPhase(n, snapshotEvery, averagingEvery int, collector Collector) (bool, error) {
	for cycle := 1; cycle <= n; cycle++ {
		if s.interrupt() {
			s.markInterrupted()
			return false, nil
		}
		if err := s.performCycle(); err != nil {
			return false, err
		}

		if collector != nil {
			if cycle%snapshotEvery == 0 {
				collector.AddSnapshot(s.packing, s.totalCycles)
			}
			if averagingEvery > 0 && cycle%averagingEvery == 0 {
				collector.AddAveragingValue(s.packing)
			}
		}
		if cycle%100 == 0 {
			s.logInline(cycle, collector)
		}
	}
	return true, nil
}

// performCycle runs one Monte Carlo cycle: N particle moves, one box
// move, then the counter evaluation.
func (s *Simulation) performCycle() error {
	start := time.Now()
	if s.numDomains == 1 {
		s.movesWithoutDomains()
	} else if err := s.movesWithDomains(); err != nil {
		return err
	}
	s.packing.FlushMoves()
	s.moveMicroseconds += micro(start)

	start = time.Now()
	s.tryScaling()
	s.scalingMicroseconds += micro(start)

	if s.adjustStepSizes {
		s.evaluateCounters()
	}

	s.performedCycles++
	s.totalCycles++
	return nil
}

func (s *Simulation) movesWithoutDomains() {
	mv := s.packing.Mover(0)
	for i := 0; i < s.packing.Len(); i++ {
		accepted := s.tryMove(mv, s.rngs[0], s.allParticles, nil)
		s.moveCounter.Increment(0, accepted)
	}
}

func (s *Simulation) movesWithDomains() error {
	rng := s.rngs[0]
	origin := geom.Vec{rng.Float64(), rng.Float64(), rng.Float64()}

	if !s.packing.UsingGrid() {
		return ErrNoGrid
	}
	d, err := domain.New(s.divisions, origin, s.packing.GridCells(),
		s.packing.Box().Heights(), s.packing.TotalRangeRadius())
	if err != nil {
		// checkDomains vetted the divisions before the run started, so
		// scaling must have shrunk the box underneath us.
		return err
	}
	d.Populate(s.packing.Len(), s.packing.Frac)

	movesPerDomain := s.packing.Len() / s.numDomains
	var wg sync.WaitGroup
	for r := 0; r < s.numDomains; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			particles := d.Particles(r)
			if len(particles) == 0 {
				return
			}
			mv := s.packing.Mover(r)
			rng := s.rngs[r]
			region := d.ActiveRegion(r)
			for x := 0; x < movesPerDomain; x++ {
				accepted := s.tryMove(mv, rng, particles, region)
				s.moveCounter.Increment(r, accepted)
			}
		}(r)
	}
	wg.Wait()
	return nil
}

// tryMove samples one combined translation-plus-rotation move on a
// particle drawn from particles and runs it through the Metropolis
// test.
func (s *Simulation) tryMove(mv *packing.Mover, rng *rand.Rand,
	particles []int, region *domain.Region) bool {

	dv := geom.Vec{
		2*rng.Float64() - 1,
		2*rng.Float64() - 1,
		2*rng.Float64() - 1,
	}.Scale(s.translationStep)

	// Rotation axis uniform on the sphere by accept-reject in the unit
	// cube.
	var axis geom.Vec
	for {
		axis = geom.Vec{
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
		}
		if n2 := axis.Norm2(); n2 <= 1 && n2 > 0 {
			break
		}
	}
	angle := (2*rng.Float64() - 1) * math.Min(s.rotationStep, math.Pi)
	rot := geom.Rotation(axis, angle)

	idx := particles[rng.Intn(len(particles))]
	dE := mv.TryMove(idx, dv, rot, region)

	if s.metropolis(dE, rng) {
		mv.Accept()
		return true
	}
	mv.Revert()
	return false
}

// tryScaling samples one box move and runs it through the NpT Metropolis
// test.
func (s *Simulation) tryScaling() {
	rng := s.rngs[0]
	p := s.packing

	t, logJac := s.boxScaler.SampleTransform(p.Box().Matrix(), s.scalingStep, rng)
	detT := t.Det()
	oldV := p.Volume()
	dV := oldV*detT - oldV

	dE := p.TryScaling(t)

	accepted := false
	if !packing.IsRejected(dE) && detT > 0 {
		n := float64(p.Len())
		exponent := n*math.Log(detT) + logJac -
			dE/s.temperature - s.pressure*dV/s.temperature
		accepted = rng.Float64() <= math.Exp(exponent)
	} else {
		// Burn the deviate regardless so that the RNG stream does not
		// depend on the rejection path.
		rng.Float64()
	}

	if accepted {
		p.AcceptScaling()
	} else {
		p.RevertScaling()
	}
	s.scalingCounter.Increment(0, accepted)
}

// metropolis accepts a proposal with probability min(1, exp(-dE/T)).
func (s *Simulation) metropolis(dE float64, rng *rand.Rand) bool {
	if packing.IsRejected(dE) {
		rng.Float64()
		return false
	}
	return rng.Float64() <= math.Exp(-dE/s.temperature)
}

// evaluateCounters adapts the step sizes from the acceptance rates:
// above 0.2 the steps grow by 1.1, below 0.1 they shrink by 1.1, and in
// between nothing happens, so steps may oscillate around the band.
// Translation and rotation move together; the translation step never
// exceeds the shortest box height.
func (s *Simulation) evaluateCounters() {
	if s.moveCounter.MovesSinceEvaluation() >= uint64(100*s.packing.Len()) {
		rate := s.moveCounter.CurrentRate()
		s.moveCounter.ResetCurrent()

		h := s.packing.Box().Heights()
		minHeight := math.Min(h[0], math.Min(h[1], h[2]))

		if rate > 0.2 {
			if s.translationStep*1.1 <= minHeight {
				s.translationStep *= 1.1
				s.rotationStep *= 1.1
				s.logger.Printf("move rate %.4f, steps up: translation %g, rotation %g",
					rate, s.translationStep, s.rotationStep)
			}
		} else if rate < 0.1 {
			s.translationStep /= 1.1
			s.rotationStep /= 1.1
			s.logger.Printf("move rate %.4f, steps down: translation %g, rotation %g",
				rate, s.translationStep, s.rotationStep)
		}
	}

	if s.scalingCounter.MovesSinceEvaluation() >= 100 {
		rate := s.scalingCounter.CurrentRate()
		s.scalingCounter.ResetCurrent()

		if rate > 0.2 {
			s.scalingStep *= 1.1
			s.logger.Printf("scaling rate %.4f, step up: %g", rate, s.scalingStep)
		} else if rate < 0.1 {
			s.scalingStep /= 1.1
			s.logger.Printf("scaling rate %.4f, step down: %g", rate, s.scalingStep)
		}
	}
}

func (s *Simulation) checkDomains() error {
	if s.numDomains > 1 && !s.packing.UsingGrid() {
		return ErrNoGrid
	}
	if s.numDomains > 1 {
		// Probe a decomposition: an undividable box is a setup error,
		// not a routine rejection.
		_, err := domain.New(s.divisions, geom.Vec{}, s.packing.GridCells(),
			s.packing.Box().Heights(), s.packing.TotalRangeRadius())
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) reset() {
	s.moveCounter.Reset()
	s.scalingCounter.Reset()
	s.performedCycles = 0
	s.wasInterrupted = false
	s.moveMicroseconds = 0
	s.scalingMicroseconds = 0
	s.totalMicroseconds = 0
}

func (s *Simulation) markInterrupted() {
	s.state = Interrupted
	s.wasInterrupted = true
	s.logger.Printf("[%s] run interrupted after %d cycles", s.state, s.performedCycles)
}

func (s *Simulation) logInline(cycle int, collector Collector) {
	extra := ""
	if r, ok := collector.(InlineReporter); ok {
		extra = "; " + r.InlineString(s.packing)
	}
	s.logger.Printf("[%s] performed %d cycles%s", s.state, cycle, extra)
}

// Packing returns the owned packing. Outside a run it is safe to read
// and store.
func (s *Simulation) Packing() *packing.Packing { return s.packing }

// State returns the run state.
func (s *Simulation) State() State { return s.state }

// WasInterrupted reports whether the last run returned early because of
// a cancellation signal.
func (s *Simulation) WasInterrupted() bool { return s.wasInterrupted }

// TranslationStep returns the current translation step size.
func (s *Simulation) TranslationStep() float64 { return s.translationStep }

// RotationStep returns the current rotation step size.
func (s *Simulation) RotationStep() float64 { return s.rotationStep }

// ScalingStep returns the current scaling step size.
func (s *Simulation) ScalingStep() float64 { return s.scalingStep }

// MoveAcceptanceRate returns the overall particle-move acceptance rate.
func (s *Simulation) MoveAcceptanceRate() float64 { return s.moveCounter.Rate() }

// ScalingAcceptanceRate returns the overall box-move acceptance rate.
func (s *Simulation) ScalingAcceptanceRate() float64 { return s.scalingCounter.Rate() }

// PerformedCycles returns the number of cycles run by the last call.
func (s *Simulation) PerformedCycles() int { return s.performedCycles }

// TotalCycles returns the performed cycles plus the cycle offset.
func (s *Simulation) TotalCycles() int { return s.totalCycles }

// MoveMicroseconds returns the time spent in particle moves.
func (s *Simulation) MoveMicroseconds() float64 { return s.moveMicroseconds }

// ScalingMicroseconds returns the time spent in box moves.
func (s *Simulation) ScalingMicroseconds() float64 { return s.scalingMicroseconds }

// TotalMicroseconds returns the wall time of the last run.
func (s *Simulation) TotalMicroseconds() float64 { return s.totalMicroseconds }

func micro(start time.Time) float64 {
	return float64(time.Since(start).Microseconds())
}
