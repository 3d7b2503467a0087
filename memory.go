// Copyright 2024 the rastermath authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rastermath

import (
	"fmt"
	"math"
)

type memOpts struct {
	blockX, blockY int
	nodata         float64
	hasNodata      bool
}

// MemOption is an option that can be passed to NewMemDataset()
//
// Available MemOptions are:
//
// • BlockSize
//
// • NoData
type MemOption interface {
	setMemOpt(mo *memOpts)
}

type blockSizeOpt struct {
	x, y int
}

func (bo blockSizeOpt) setMemOpt(mo *memOpts) {
	mo.blockX = bo.x
	mo.blockY = bo.y
}

// BlockSize sets the native block size of an in-memory dataset. Defaults
// to the full raster width by one row, mirroring a striped GTiff.
func BlockSize(x, y int) interface {
	MemOption
} {
	return blockSizeOpt{x: x, y: y}
}

func (no noDataOpt) setMemOpt(mo *memOpts) {
	mo.nodata = no.nodata
	mo.hasNodata = true
}

// MemDataset is a pure in-memory Dataset. It backs the root package's
// tests and is handy for ad hoc previews of transform functions without
// touching disk.
type MemDataset struct {
	st     Structure
	gt     [6]float64
	proj   string
	nodata float64
	hasND  bool
	data   []float64 // band major
	closed bool
}

var _ Dataset = &MemDataset{}

// NewMemDataset creates an in-memory raster of width x height pixels with
// nBands bands of dtype, initialized to zero.
func NewMemDataset(width, height, nBands int, dtype DataType, opts ...MemOption) *MemDataset {
	mo := memOpts{blockX: width, blockY: 1}
	for _, o := range opts {
		o.setMemOpt(&mo)
	}
	return &MemDataset{
		st: Structure{
			SizeX:      width,
			SizeY:      height,
			BlockSizeX: mo.blockX,
			BlockSizeY: mo.blockY,
			DataType:   dtype,
			NBands:     nBands,
		},
		gt:     [6]float64{0, 1, 0, 0, 0, -1},
		nodata: mo.nodata,
		hasND:  mo.hasNodata,
		data:   make([]float64, width*height*nBands),
	}
}

// Structure returns the dataset's shape
func (m *MemDataset) Structure() Structure { return m.st }

// GeoTransform returns the affine transformation coefficients
func (m *MemDataset) GeoTransform() [6]float64 { return m.gt }

// SetGeoTransform sets the affine transformation coefficients
func (m *MemDataset) SetGeoTransform(gt [6]float64) error {
	m.gt = gt
	return nil
}

// Projection returns the dataset's projection descriptor
func (m *MemDataset) Projection() string { return m.proj }

// SetProjection sets the dataset's projection descriptor
func (m *MemDataset) SetProjection(proj string) error {
	m.proj = proj
	return nil
}

// NoData returns the dataset's nodata value
func (m *MemDataset) NoData() (float64, bool) { return m.nodata, m.hasND }

// SetNoData sets the nodata value
func (m *MemDataset) SetNoData(nodata float64) error {
	m.nodata = nodata
	m.hasND = true
	return nil
}

func (m *MemDataset) check(band int, w Window) error {
	if m.closed {
		return fmt.Errorf("dataset is closed")
	}
	if band < 0 || band >= m.st.NBands {
		return fmt.Errorf("band %d out of range [0,%d)", band, m.st.NBands)
	}
	if w.X0 < 0 || w.Y0 < 0 || w.W <= 0 || w.H <= 0 ||
		w.X0+w.W > m.st.SizeX || w.Y0+w.H > m.st.SizeY {
		return fmt.Errorf("window %d,%d %dx%d outside raster bounds %dx%d",
			w.X0, w.Y0, w.W, w.H, m.st.SizeX, m.st.SizeY)
	}
	return nil
}

// ReadBand populates buf with the pixels of band covered by w
func (m *MemDataset) ReadBand(band int, w Window, buf []float64) error {
	if err := m.check(band, w); err != nil {
		return err
	}
	if len(buf) < w.Pixels() {
		return fmt.Errorf("buffer too small: %d < %d", len(buf), w.Pixels())
	}
	base := band * m.st.SizeX * m.st.SizeY
	for row := 0; row < w.H; row++ {
		src := base + (w.Y0+row)*m.st.SizeX + w.X0
		copy(buf[row*w.W:(row+1)*w.W], m.data[src:src+w.W])
	}
	return nil
}

// WriteBand sets the pixels of band covered by w from buf, converting
// values to the dataset's storage type the way GDAL would (integer types
// round and clamp).
func (m *MemDataset) WriteBand(band int, w Window, buf []float64) error {
	if err := m.check(band, w); err != nil {
		return err
	}
	if len(buf) < w.Pixels() {
		return fmt.Errorf("buffer too small: %d < %d", len(buf), w.Pixels())
	}
	base := band * m.st.SizeX * m.st.SizeY
	for row := 0; row < w.H; row++ {
		dst := base + (w.Y0+row)*m.st.SizeX + w.X0
		for col := 0; col < w.W; col++ {
			m.data[dst+col] = convertValue(buf[row*w.W+col], m.st.DataType)
		}
	}
	return nil
}

// Flush is a no-op for in-memory data
func (m *MemDataset) Flush() error {
	if m.closed {
		return fmt.Errorf("dataset is closed")
	}
	return nil
}

// Close releases the dataset
func (m *MemDataset) Close() error {
	m.closed = true
	return nil
}

// SetPixel sets one pixel, converting to the storage type.
func (m *MemDataset) SetPixel(band, col, row int, v float64) {
	m.data[band*m.st.SizeX*m.st.SizeY+row*m.st.SizeX+col] = convertValue(v, m.st.DataType)
}

// Pixel returns one pixel value.
func (m *MemDataset) Pixel(band, col, row int) float64 {
	return m.data[band*m.st.SizeX*m.st.SizeY+row*m.st.SizeX+col]
}

func convertValue(v float64, dtype DataType) float64 {
	clamp := func(v, lo, hi float64) float64 {
		return math.Min(math.Max(math.Round(v), lo), hi)
	}
	switch dtype {
	case Byte:
		return clamp(v, 0, 255)
	case UInt16:
		return clamp(v, 0, 65535)
	case Int16:
		return clamp(v, -32768, 32767)
	case UInt32:
		return clamp(v, 0, 4294967295)
	case Int32:
		return clamp(v, -2147483648, 2147483647)
	case Float32:
		return float64(float32(v))
	default:
		return v
	}
}

// MemDriver creates in-memory output datasets, retrievable by path after
// a run for inspection.
type MemDriver struct {
	blockX, blockY int
	datasets       map[string]*MemDataset
}

var _ Driver = &MemDriver{}

// NewMemDriver returns a MemDriver creating datasets with the given
// native block size (full width by one row when zero).
func NewMemDriver(opts ...MemOption) *MemDriver {
	mo := memOpts{}
	for _, o := range opts {
		o.setMemOpt(&mo)
	}
	return &MemDriver{
		blockX:   mo.blockX,
		blockY:   mo.blockY,
		datasets: map[string]*MemDataset{},
	}
}

// Create creates an in-memory dataset registered under path
func (d *MemDriver) Create(path string, width, height, nBands int, dtype DataType) (Dataset, error) {
	opts := []MemOption{}
	if d.blockX > 0 && d.blockY > 0 {
		opts = append(opts, BlockSize(d.blockX, d.blockY))
	}
	ds := NewMemDataset(width, height, nBands, dtype, opts...)
	d.datasets[path] = ds
	return ds, nil
}

// Dataset returns the dataset created under path, if any. Closed datasets
// remain readable through Pixel for inspection.
func (d *MemDriver) Dataset(path string) (*MemDataset, bool) {
	ds, ok := d.datasets[path]
	return ds, ok
}
