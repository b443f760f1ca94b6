package obs

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotDensity renders the density-versus-cycle series to an image file;
// the format follows the file extension (png, svg, pdf, ...).
func (c *DensityCollector) PlotDensity(path string) error {
	p := plot.New()
	p.Title.Text = "number density"
	p.X.Label.Text = "cycle"
	p.Y.Label.Text = "rho"

	pts := make(plotter.XYs, len(c.densitySnapshots))
	for i, s := range c.densitySnapshots {
		pts[i].X = float64(s.Cycle)
		pts[i].Y = s.Value
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
