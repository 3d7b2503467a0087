package rastermath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRandomBlockDeterministic(t *testing.T) {
	build := func() *Engine {
		ds := NewMemDataset(16, 16, 1, Float64, NoData(-9999), BlockSize(4, 4))
		for row := 0; row < 16; row++ {
			for col := 0; col < 16; col++ {
				ds.SetPixel(0, col, row, float64(row*16+col))
			}
		}
		eng, err := New(ds, NewMemDriver(), Logger(quietLogger()), Seed(1234))
		require.NoError(t, err)
		return eng
	}
	b1, err := build().RandomBlock()
	require.NoError(t, err)
	b2, err := build().RandomBlock()
	require.NoError(t, err)
	require.NotNil(t, b1)
	require.NotNil(t, b2)
	assert.True(t, mat.Equal(b1, b2))
}

func TestRandomBlockValidOnly(t *testing.T) {
	ds := NewMemDataset(4, 4, 1, Float64, NoData(-9999), BlockSize(2, 2))
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			ds.SetPixel(0, col, row, -9999)
		}
	}
	ds.SetPixel(0, 1, 1, 7)

	eng, err := New(ds, NewMemDriver(), Logger(quietLogger()), Seed(99))
	require.NoError(t, err)
	//sampling retries until it hits the only block with a valid pixel, or
	//exhausts its draws; with 4 blocks and 10 attempts a miss is possible
	//but the returned matrix must never contain a nodata row
	for i := 0; i < 20; i++ {
		bl, err := eng.RandomBlock()
		require.NoError(t, err)
		if bl == nil {
			continue
		}
		r, c := bl.Dims()
		assert.Equal(t, 1, c)
		for p := 0; p < r; p++ {
			assert.Equal(t, 7.0, bl.At(p, 0))
		}
	}
}

func TestRandomBlockAllMasked(t *testing.T) {
	ds := NewMemDataset(4, 4, 1, Float64, NoData(0))
	eng, err := New(ds, NewMemDriver(), Logger(quietLogger()), Seed(5))
	require.NoError(t, err)
	bl, err := eng.RandomBlock()
	require.NoError(t, err)
	assert.Nil(t, bl)
}

// a fully masked raster falls back to the input datatype and a single band
func TestInferenceFallback(t *testing.T) {
	ds := NewMemDataset(4, 4, 1, Float32, NoData(0))
	drv := NewMemDriver()
	eng, err := New(ds, drv, Logger(quietLogger()), Seed(5))
	require.NoError(t, err)
	identity := func(x *mat.Dense, args Args) (mat.Matrix, error) {
		return x, nil
	}
	require.NoError(t, eng.Register("identity", identity, "out.tif"))
	spec := eng.Outputs()[0]
	assert.Equal(t, Float32, spec.DataType)
	assert.Equal(t, 1, spec.NBands)
}
