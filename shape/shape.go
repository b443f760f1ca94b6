package shape

import (
	"github.com/phil-mansfield/packmc/geom"
)

// Shape is one rigid body instance: a position in absolute coordinates, a
// proper rotation and the species index selecting its traits.
type Shape struct {
	Pos     geom.Vec
	Orient  geom.Matrix
	Species int
}

// New creates a shape at pos with the identity orientation and species 0.
func New(pos geom.Vec) Shape {
	return Shape{Pos: pos, Orient: geom.Identity()}
}

// Translate moves the shape by dv.
func (s *Shape) Translate(dv geom.Vec) {
	s.Pos = s.Pos.Add(dv)
}

// Rotate composes r onto the shape's orientation.
func (s *Shape) Rotate(r geom.Matrix) {
	s.Orient = r.Mul(s.Orient)
}
