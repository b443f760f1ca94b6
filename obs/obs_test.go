package obs

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/packmc/boxes"
	"github.com/phil-mansfield/packmc/lattice"
	"github.com/phil-mansfield/packmc/packing"
	"github.com/phil-mansfield/packmc/shape"
)

func testPacking(t *testing.T) *packing.Packing {
	t.Helper()
	box, err := boxes.NewCubicBox(10)
	require.NoError(t, err)
	p, err := packing.New(box, lattice.Arrange(8, box),
		[]shape.Traits{shape.NewSphere(0.4)})
	require.NoError(t, err)
	return p
}

func TestQuantity(t *testing.T) {
	q := quantityOf([]float64{2, 2, 2, 2})
	assert.InDelta(t, 2, q.Value, 1e-12)
	assert.InDelta(t, 0, q.Error, 1e-12)

	q = quantityOf([]float64{1, 3})
	assert.InDelta(t, 2, q.Value, 1e-12)
	assert.InDelta(t, 1, q.Error, 1e-12, "stddev sqrt(2) over sqrt(2)")
	assert.InDelta(t, 0.5, q.RelativeError(), 1e-12)

	assert.Equal(t, Quantity{}, quantityOf(nil))
}

func TestCollector(t *testing.T) {
	p := testPacking(t)
	c := NewDensityCollector()

	c.AddSnapshot(p, 100)
	c.AddSnapshot(p, 200)
	c.AddAveragingValue(p)
	c.AddAveragingValue(p)

	require.Len(t, c.DensitySnapshots(), 2)
	assert.Equal(t, 200, c.DensitySnapshots()[1].Cycle)
	assert.InDelta(t, p.NumberDensity(), c.DensitySnapshots()[0].Value, 1e-12)
	assert.Equal(t, 2, c.NumAveragingValues())
	assert.InDelta(t, p.NumberDensity(), c.Density().Value, 1e-12)

	assert.Contains(t, c.InlineString(p), "rho")

	c.Clear()
	assert.Empty(t, c.DensitySnapshots())
	assert.Equal(t, 0, c.NumAveragingValues())
}

func TestStoreAverages(t *testing.T) {
	p := testPacking(t)
	c := NewDensityCollector()
	c.AddAveragingValue(p)

	var buf bytes.Buffer
	require.NoError(t, c.StoreAverages(&buf, 10, 1))
	assert.Contains(t, buf.String(), "temperature 10")
	assert.Contains(t, buf.String(), "density 0.008")
}

func TestPlotDensity(t *testing.T) {
	p := testPacking(t)
	c := NewDensityCollector()
	for i := 1; i <= 5; i++ {
		c.AddSnapshot(p, i*100)
	}

	path := filepath.Join(t.TempDir(), "density.png")
	require.NoError(t, c.PlotDensity(path))
}
