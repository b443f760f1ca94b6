/*
package ramsnap reads and writes the textual packing snapshot format.

A snapshot is a small line-oriented file:

	RAMSNAP 1
	b00 b01 b02 b10 b11 b12 b20 b21 b22
	N
	x y z q0 q1 q2 q3 species     (N lines)
	key value                     (auxiliary pairs, sorted by key)

Floats are written in their shortest round-tripping form, so storing a
loaded snapshot reproduces the file byte for byte.
*/
package ramsnap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/shape"
)

// Version is the current snapshot format version.
const Version = 1

// Auxiliary keys written by the standard run flow.
const (
	TranslationStepKey = "translationStep"
	RotationStepKey    = "rotationStep"
	ScalingStepKey     = "scalingStep"
	CyclesKey          = "cycles"
)

// ErrFormat is wrapped by every parse failure.
var ErrFormat = errors.New("ramsnap: malformed snapshot")

// Particle is one stored shape: position, orientation quaternion
// (w, x, y, z) and species index.
type Particle struct {
	Pos     geom.Vec
	Quat    [4]float64
	Species int
}

// Snapshot is an in-memory packing snapshot.
type Snapshot struct {
	BoxMatrix geom.Matrix
	Particles []Particle
	Aux       map[string]string
}

// FromPacking captures the committed state of p together with the given
// auxiliary pairs.
func FromPacking(p *packing.Packing, aux map[string]string) *Snapshot {
	s := &Snapshot{
		BoxMatrix: p.Box().Matrix(),
		Particles: make([]Particle, p.Len()),
		Aux:       map[string]string{},
	}
	for k, v := range aux {
		s.Aux[k] = v
	}
	for i := range s.Particles {
		sh := p.Shape(i)
		q := sh.Orient.Quat()
		s.Particles[i] = Particle{
			Pos:     sh.Pos,
			Quat:    [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
			Species: sh.Species,
		}
	}
	return s
}

// Packing rebuilds a packing from the snapshot with the given traits
// table.
func (s *Snapshot) Packing(traits []shape.Traits) (*packing.Packing, error) {
	box, err := boxes.NewTriclinicBox(s.BoxMatrix)
	if err != nil {
		return nil, err
	}

	shapes := make([]shape.Shape, len(s.Particles))
	for i, pt := range s.Particles {
		q := quat.Number{Real: pt.Quat[0], Imag: pt.Quat[1], Jmag: pt.Quat[2], Kmag: pt.Quat[3]}
		shapes[i] = shape.Shape{
			Pos:     pt.Pos,
			Orient:  geom.RotationFromQuat(q),
			Species: pt.Species,
		}
	}
	return packing.New(box, shapes, traits)
}

// Store writes the snapshot.
func (s *Snapshot) Store(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "RAMSNAP %d\n", Version)

	for i, v := range s.BoxMatrix {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(formatFloat(v))
	}
	bw.WriteByte('\n')

	fmt.Fprintf(bw, "%d\n", len(s.Particles))
	for _, pt := range s.Particles {
		fmt.Fprintf(bw, "%s %s %s %s %s %s %s %d\n",
			formatFloat(pt.Pos[0]), formatFloat(pt.Pos[1]), formatFloat(pt.Pos[2]),
			formatFloat(pt.Quat[0]), formatFloat(pt.Quat[1]),
			formatFloat(pt.Quat[2]), formatFloat(pt.Quat[3]),
			pt.Species)
	}

	keys := make([]string, 0, len(s.Aux))
	for k := range s.Aux {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(bw, "%s %s\n", k, s.Aux[k])
	}

	return bw.Flush()
}

// Load parses a snapshot.
func Load(r io.Reader) (*Snapshot, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<22)

	line, err := nextLine(sc)
	if err != nil {
		return nil, err
	}
	var version int
	if _, err := fmt.Sscanf(line, "RAMSNAP %d", &version); err != nil {
		return nil, fmt.Errorf("%w: bad header %q", ErrFormat, line)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, version)
	}

	s := &Snapshot{Aux: map[string]string{}}

	line, err = nextLine(sc)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) != 9 {
		return nil, fmt.Errorf("%w: box line needs 9 entries", ErrFormat)
	}
	for i, f := range fields {
		if s.BoxMatrix[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, fmt.Errorf("%w: box entry %q", ErrFormat, f)
		}
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: bad particle count %q", ErrFormat, line)
	}

	s.Particles = make([]Particle, n)
	for i := 0; i < n; i++ {
		line, err = nextLine(sc)
		if err != nil {
			return nil, err
		}
		fields = strings.Fields(line)
		if len(fields) != 8 {
			return nil, fmt.Errorf("%w: particle line needs 8 entries", ErrFormat)
		}

		var vals [7]float64
		for j := 0; j < 7; j++ {
			if vals[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
				return nil, fmt.Errorf("%w: particle entry %q", ErrFormat, fields[j])
			}
		}
		species, err := strconv.Atoi(fields[7])
		if err != nil || species < 0 {
			return nil, fmt.Errorf("%w: species %q", ErrFormat, fields[7])
		}

		s.Particles[i] = Particle{
			Pos:     geom.Vec{vals[0], vals[1], vals[2]},
			Quat:    [4]float64{vals[3], vals[4], vals[5], vals[6]},
			Species: species,
		}
	}

	for sc.Scan() {
		line = strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: auxiliary line %q", ErrFormat, line)
		}
		s.Aux[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// AuxFloat parses an auxiliary value as a float.
func (s *Snapshot) AuxFloat(key string) (float64, error) {
	v, ok := s.Aux[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing auxiliary key %q", ErrFormat, key)
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: auxiliary %q = %q", ErrFormat, key, v)
	}
	return x, nil
}

// AuxInt parses an auxiliary value as an int.
func (s *Snapshot) AuxInt(key string) (int, error) {
	v, ok := s.Aux[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing auxiliary key %q", ErrFormat, key)
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: auxiliary %q = %q", ErrFormat, key, v)
	}
	return x, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func nextLine(sc *bufio.Scanner) (string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: unexpected end of file", ErrFormat)
}
