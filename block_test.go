package rastermath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBlockNoMask(t *testing.T) {
	ds := NewMemDataset(4, 2, 2, Float64, NoData(-9999))
	for row := 0; row < 2; row++ {
		for col := 0; col < 4; col++ {
			ds.SetPixel(0, col, row, float64(row*4+col+1))
			ds.SetPixel(1, col, row, 100+float64(row*4+col+1))
		}
	}
	ds.SetPixel(0, 1, 0, -9999)

	w := Window{X0: 0, Y0: 0, W: 4, H: 2}
	bl, err := readBlock(ds, nil, w, -9999, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, bl.ValidCount())
	assert.False(t, bl.Valid[1])
	assert.True(t, bl.Valid[0])

	r, c := bl.X.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, bl.X.At(2, 0))
	assert.Equal(t, 103.0, bl.X.At(2, 1))

	valid := bl.ValidPixels()
	vr, _ := valid.Dims()
	assert.Equal(t, 7, vr)
	//row 0 of the valid subset is pixel 0, row 1 skips the nodata pixel
	assert.Equal(t, 1.0, valid.At(0, 0))
	assert.Equal(t, 3.0, valid.At(1, 0))
}

func TestReadBlockWithMask(t *testing.T) {
	ds := NewMemDataset(2, 2, 1, Float64, NoData(-9999))
	mask := NewMemDataset(2, 2, 1, Byte)
	for p := 0; p < 4; p++ {
		ds.SetPixel(0, p%2, p/2, float64(p+1))
	}
	mask.SetPixel(0, 0, 0, 1)
	mask.SetPixel(0, 1, 0, 1)
	//mask pixels (0,1) and (1,1) stay 0 == mask nodata
	ds.SetPixel(0, 1, 0, -9999)

	w := Window{X0: 0, Y0: 0, W: 2, H: 2}
	bl, err := readBlock(ds, mask, w, -9999, 0)
	require.NoError(t, err)
	//pixel 0: mask ok, value ok. pixel 1: mask ok but nodata value.
	//pixels 2,3: masked out.
	assert.Equal(t, 1, bl.ValidCount())
	assert.True(t, bl.Valid[0])
	assert.False(t, bl.Valid[1])
	assert.False(t, bl.Valid[2])
	assert.False(t, bl.Valid[3])
}

// nodata on bands other than band 0 does not invalidate a pixel
func TestReadBlockBandZeroOnly(t *testing.T) {
	ds := NewMemDataset(2, 1, 2, Float64, NoData(-9999))
	ds.SetPixel(0, 0, 0, 1)
	ds.SetPixel(1, 0, 0, -9999)
	ds.SetPixel(0, 1, 0, -9999)
	ds.SetPixel(1, 1, 0, 5)

	w := Window{X0: 0, Y0: 0, W: 2, H: 1}
	bl, err := readBlock(ds, nil, w, -9999, 0)
	require.NoError(t, err)
	assert.True(t, bl.Valid[0])
	assert.False(t, bl.Valid[1])
}

func TestReadBlockOutOfBounds(t *testing.T) {
	ds := NewMemDataset(2, 2, 1, Float64)
	w := Window{X0: 1, Y0: 1, W: 2, H: 2}
	_, err := readBlock(ds, nil, w, -9999, 0)
	assert.Error(t, err)
}

func TestValidPixelsEmpty(t *testing.T) {
	ds := NewMemDataset(2, 2, 1, Float64, NoData(0))
	w := Window{X0: 0, Y0: 0, W: 2, H: 2}
	bl, err := readBlock(ds, nil, w, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, bl.ValidCount())
	assert.Nil(t, bl.ValidPixels())
}
