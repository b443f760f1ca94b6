/*
package lattice builds starting configurations by arranging particles
on a cubic lattice spanning the simulation box.
*/
package lattice

import (
	"math"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/shape"
)

// Arrange places n particles with identity orientations on the smallest
// cubic lattice that holds them, filling the box cell by cell. The
// lattice lives in fractional coordinates, so a triclinic box gets a
// correspondingly sheared arrangement.
func Arrange(n int, box *boxes.TriclinicBox) []shape.Shape {
	if n < 1 {
		panic("lattice: at least one particle required")
	}

	cells := int(math.Ceil(math.Cbrt(float64(n))))
	spacing := 1 / float64(cells)

	shapes := make([]shape.Shape, 0, n)
	for ix := 0; ix < cells && len(shapes) < n; ix++ {
		for iy := 0; iy < cells && len(shapes) < n; iy++ {
			for iz := 0; iz < cells && len(shapes) < n; iz++ {
				frac := geom.Vec{
					(float64(ix) + 0.5) * spacing,
					(float64(iy) + 0.5) * spacing,
					(float64(iz) + 0.5) * spacing,
				}
				shapes = append(shapes, shape.New(box.Absolute(frac)))
			}
		}
	}
	return shapes
}
