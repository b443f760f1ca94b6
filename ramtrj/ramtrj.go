/*
package ramtrj writes and reads the binary trajectory format: an
uncompressed header followed by a zstd stream of fixed-size frames, one
per recorded cycle, each holding the box matrix and every particle's
position and orientation quaternion.
*/
package ramtrj

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/phil-mansfield/packmc/geom"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/ramsnap"
)

// Version is the current trajectory format version.
const Version = 1

var magic = [6]byte{'R', 'A', 'M', 'T', 'R', 'J'}

// All frames are little endian.
var endianness = binary.LittleEndian

// ErrFormat is wrapped by every parse failure.
var ErrFormat = errors.New("ramtrj: malformed trajectory")

// Frame is one recorded state.
type Frame struct {
	BoxMatrix geom.Matrix
	Particles []ramsnap.Particle
}

// Writer appends frames to a trajectory stream.
type Writer struct {
	enc    *zstd.Encoder
	n      int
	frames int
}

// NewWriter writes the header for a trajectory of packings with
// numParticles particles and returns the frame writer. Closing the
// writer flushes the compressed stream but leaves w open.
func NewWriter(w io.Writer, numParticles int) (*Writer, error) {
	if numParticles < 1 {
		return nil, fmt.Errorf("%w: no particles", ErrFormat)
	}

	header := make([]byte, 0, 11)
	header = append(header, magic[:]...)
	header = append(header, Version)
	header = endianness.AppendUint32(header, uint32(numParticles))
	if _, err := w.Write(header); err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &Writer{enc: enc, n: numParticles}, nil
}

// WriteFrame records the committed state of p.
func (w *Writer) WriteFrame(p *packing.Packing) error {
	if p.Len() != w.n {
		return fmt.Errorf("%w: frame has %d particles, trajectory %d",
			ErrFormat, p.Len(), w.n)
	}

	buf := make([]float64, 0, 9+7*w.n)
	m := p.Box().Matrix()
	buf = append(buf, m[:]...)
	for i := 0; i < w.n; i++ {
		sh := p.Shape(i)
		q := sh.Orient.Quat()
		buf = append(buf, sh.Pos[0], sh.Pos[1], sh.Pos[2],
			q.Real, q.Imag, q.Jmag, q.Kmag)
	}

	if err := binary.Write(w.enc, endianness, buf); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Close flushes the compressed stream.
func (w *Writer) Close() error { return w.enc.Close() }

// Reader replays a trajectory stream.
type Reader struct {
	dec *zstd.Decoder
	n   int
}

// NewReader parses the header and prepares frame decoding.
func NewReader(r io.Reader) (*Reader, error) {
	header := make([]byte, 11)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrFormat)
	}
	if [6]byte(header[:6]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, header[:6])
	}
	if header[6] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, header[6])
	}
	n := int(endianness.Uint32(header[7:11]))
	if n < 1 {
		return nil, fmt.Errorf("%w: no particles", ErrFormat)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{dec: dec, n: n}, nil
}

// NumParticles returns the per-frame particle count.
func (r *Reader) NumParticles() int { return r.n }

// Next decodes the next frame, or returns io.EOF after the last one.
func (r *Reader) Next() (*Frame, error) {
	buf := make([]float64, 9+7*r.n)
	if err := binary.Read(r.dec, endianness, buf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: truncated frame", ErrFormat)
	}

	f := &Frame{Particles: make([]ramsnap.Particle, r.n)}
	copy(f.BoxMatrix[:], buf[:9])
	for i := 0; i < r.n; i++ {
		v := buf[9+7*i : 9+7*(i+1)]
		f.Particles[i] = ramsnap.Particle{
			Pos:  geom.Vec{v[0], v[1], v[2]},
			Quat: [4]float64{v[3], v[4], v[5], v[6]},
		}
	}
	return f, nil
}

// Close releases the decoder.
func (r *Reader) Close() { r.dec.Close() }
