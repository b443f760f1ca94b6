/*
package obs collects observables during a simulation run: per-snapshot
scalar series for every cycle milestone and averaging-phase values that
are reduced to a mean with a statistical error.
*/
package obs

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/packmc/packing"
)

// Quantity is a value with a statistical error.
type Quantity struct {
	Value, Error float64
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g +- %g", q.Value, q.Error)
}

// RelativeError returns Error / |Value|.
func (q Quantity) RelativeError() float64 {
	if q.Value == 0 {
		return math.Inf(1)
	}
	return math.Abs(q.Error / q.Value)
}

// quantityOf reduces samples to their mean and the error of the mean.
func quantityOf(values []float64) Quantity {
	if len(values) == 0 {
		return Quantity{}
	}
	mean := stat.Mean(values, nil)
	if len(values) == 1 {
		return Quantity{Value: mean}
	}
	sd := stat.StdDev(values, nil)
	return Quantity{Value: mean, Error: sd / math.Sqrt(float64(len(values)))}
}

// ScalarSnapshot is one observable value tagged with its cycle number.
type ScalarSnapshot struct {
	Cycle int
	Value float64
}

// DensityCollector tracks the number density and, for soft systems, the
// energy per particle over a run.
type DensityCollector struct {
	densitySnapshots []ScalarSnapshot
	energySnapshots  []ScalarSnapshot
	densityValues    []float64
}

// NewDensityCollector creates an empty collector.
func NewDensityCollector() *DensityCollector {
	return &DensityCollector{}
}

// AddSnapshot records the instantaneous density and energy per particle.
func (c *DensityCollector) AddSnapshot(p *packing.Packing, cycle int) {
	c.densitySnapshots = append(c.densitySnapshots,
		ScalarSnapshot{Cycle: cycle, Value: p.NumberDensity()})
	c.energySnapshots = append(c.energySnapshots,
		ScalarSnapshot{Cycle: cycle, Value: p.TotalEnergy() / float64(p.Len())})
}

// AddAveragingValue records the density for the run average.
func (c *DensityCollector) AddAveragingValue(p *packing.Packing) {
	c.densityValues = append(c.densityValues, p.NumberDensity())
}

// InlineString returns the short observable summary logged alongside
// cycle milestones.
func (c *DensityCollector) InlineString(p *packing.Packing) string {
	return fmt.Sprintf("rho = %.6g, E/N = %.6g", p.NumberDensity(),
		p.TotalEnergy()/float64(p.Len()))
}

// Density returns the averaging-phase density with its error.
func (c *DensityCollector) Density() Quantity {
	return quantityOf(c.densityValues)
}

// DensitySnapshots returns the recorded density series.
func (c *DensityCollector) DensitySnapshots() []ScalarSnapshot {
	return c.densitySnapshots
}

// EnergySnapshots returns the recorded energy-per-particle series.
func (c *DensityCollector) EnergySnapshots() []ScalarSnapshot {
	return c.energySnapshots
}

// NumAveragingValues returns the number of recorded averaging samples.
func (c *DensityCollector) NumAveragingValues() int {
	return len(c.densityValues)
}

// Clear drops everything recorded so far.
func (c *DensityCollector) Clear() {
	c.densitySnapshots = c.densitySnapshots[:0]
	c.energySnapshots = c.energySnapshots[:0]
	c.densityValues = c.densityValues[:0]
}

// StoreAverages writes the averaged observables as "name value error"
// lines.
func (c *DensityCollector) StoreAverages(w io.Writer, temperature, pressure float64) error {
	rho := c.Density()
	_, err := fmt.Fprintf(w, "temperature %g\npressure %g\ndensity %g %g\n",
		temperature, pressure, rho.Value, rho.Error)
	return err
}
