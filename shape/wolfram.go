package shape

import (
	"fmt"
	"strings"

	"github.com/phil-mansfield/packmc/geom"
)

// WolframRenderer is implemented by species that can draw one particle
// as a Wolfram Language graphics primitive.
type WolframRenderer interface {
	Wolfram(pos geom.Vec, orient geom.Matrix) string
}

func (s *Sphere) Wolfram(pos geom.Vec, orient geom.Matrix) string {
	return fmt.Sprintf("Sphere[{%g, %g, %g}, %g]", pos[0], pos[1], pos[2], s.r)
}

func (s *Spherocylinder) Wolfram(pos geom.Vec, orient geom.Matrix) string {
	half := orient.MulVec(geom.Vec{0, 0, s.l / 2})
	beg := pos.Sub(half)
	end := pos.Add(half)
	return fmt.Sprintf("CapsuleShape[{{%g, %g, %g}, {%g, %g, %g}}, %g]",
		beg[0], beg[1], beg[2], end[0], end[1], end[2], s.r)
}

func (m *KMer) Wolfram(pos geom.Vec, orient geom.Matrix) string {
	parts := make([]string, len(m.centres))
	for i, off := range m.centres {
		c := pos.Add(orient.MulVec(off))
		parts[i] = fmt.Sprintf("Sphere[{%g, %g, %g}, %g]", c[0], c[1], c[2], m.r)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
