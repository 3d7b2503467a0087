package rastermath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDatasetRoundTrip(t *testing.T) {
	ds := NewMemDataset(4, 3, 2, Float64, BlockSize(2, 2), NoData(-1))
	st := ds.Structure()
	assert.Equal(t, 4, st.SizeX)
	assert.Equal(t, 3, st.SizeY)
	assert.Equal(t, 2, st.BlockSizeX)
	assert.Equal(t, 2, st.NBands)

	w := Window{X0: 1, Y0: 1, W: 2, H: 2}
	require.NoError(t, ds.WriteBand(1, w, []float64{1, 2, 3, 4}))
	buf := make([]float64, 4)
	require.NoError(t, ds.ReadBand(1, w, buf))
	assert.Equal(t, []float64{1, 2, 3, 4}, buf)
	//band 0 untouched
	require.NoError(t, ds.ReadBand(0, w, buf))
	assert.Equal(t, []float64{0, 0, 0, 0}, buf)

	nd, ok := ds.NoData()
	assert.True(t, ok)
	assert.Equal(t, -1.0, nd)
}

// integer typed datasets round and clamp on write, like GDAL does
func TestMemDatasetTypeConversion(t *testing.T) {
	ds := NewMemDataset(2, 1, 1, Byte)
	w := Window{X0: 0, Y0: 0, W: 2, H: 1}
	require.NoError(t, ds.WriteBand(0, w, []float64{300, 1.6}))
	buf := make([]float64, 2)
	require.NoError(t, ds.ReadBand(0, w, buf))
	assert.Equal(t, 255.0, buf[0])
	assert.Equal(t, 2.0, buf[1])
}

func TestMemDatasetBounds(t *testing.T) {
	ds := NewMemDataset(2, 2, 1, Float64)
	buf := make([]float64, 4)
	assert.Error(t, ds.ReadBand(0, Window{X0: 1, Y0: 1, W: 2, H: 2}, buf))
	assert.Error(t, ds.ReadBand(1, Window{X0: 0, Y0: 0, W: 1, H: 1}, buf))
	assert.Error(t, ds.WriteBand(0, Window{X0: -1, Y0: 0, W: 1, H: 1}, buf))
}

func TestMemDatasetClosed(t *testing.T) {
	ds := NewMemDataset(2, 2, 1, Float64)
	require.NoError(t, ds.Close())
	buf := make([]float64, 4)
	assert.Error(t, ds.ReadBand(0, Window{X0: 0, Y0: 0, W: 2, H: 2}, buf))
	assert.Error(t, ds.Flush())
}

func TestMemDriver(t *testing.T) {
	drv := NewMemDriver(BlockSize(8, 8))
	ds, err := drv.Create("a.tif", 16, 16, 3, Int16)
	require.NoError(t, err)
	st := ds.Structure()
	assert.Equal(t, 8, st.BlockSizeX)
	assert.Equal(t, 8, st.BlockSizeY)
	assert.Equal(t, Int16, st.DataType)

	got, ok := drv.Dataset("a.tif")
	assert.True(t, ok)
	assert.Equal(t, ds, Dataset(got))

	_, ok = drv.Dataset("missing.tif")
	assert.False(t, ok)
}
