package packing

import (
	"bufio"
	"fmt"
	"io"

	"github.com/phil-mansfield/packmc/shape"
)

// StoreWolfram writes the packing as a Wolfram Language Graphics3D
// expression. Species that do not implement shape.WolframRenderer are
// drawn as points.
func (p *Packing) StoreWolfram(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Graphics3D[{")
	for i := range p.shapes {
		sh := &p.shapes[i]
		if r, ok := p.traits[sh.Species].(shape.WolframRenderer); ok {
			bw.WriteString(r.Wolfram(sh.Pos, sh.Orient))
		} else {
			fmt.Fprintf(bw, "Point[{%g, %g, %g}]", sh.Pos[0], sh.Pos[1], sh.Pos[2])
		}
		if i != len(p.shapes)-1 {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	fmt.Fprint(bw, "}]")

	return bw.Flush()
}
