package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quat returns the unit quaternion representing the same rotation as m.
// The real part is kept non-negative so that the representation is unique.
func (m Matrix) Quat() quat.Number {
	var q quat.Number
	tr := m[0] + m[4] + m[8]

	switch {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q.Real = s / 4
		q.Imag = (m[7] - m[5]) / s
		q.Jmag = (m[2] - m[6]) / s
		q.Kmag = (m[3] - m[1]) / s
	case m[0] > m[4] && m[0] > m[8]:
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		q.Real = (m[7] - m[5]) / s
		q.Imag = s / 4
		q.Jmag = (m[1] + m[3]) / s
		q.Kmag = (m[2] + m[6]) / s
	case m[4] > m[8]:
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		q.Real = (m[2] - m[6]) / s
		q.Imag = (m[1] + m[3]) / s
		q.Jmag = s / 4
		q.Kmag = (m[5] + m[7]) / s
	default:
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		q.Real = (m[3] - m[1]) / s
		q.Imag = (m[2] + m[6]) / s
		q.Jmag = (m[5] + m[7]) / s
		q.Kmag = s / 4
	}

	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// RotationFromQuat returns the rotation matrix corresponding to the unit
// quaternion q.
func RotationFromQuat(q quat.Number) Matrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	return Matrix{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)}
}
