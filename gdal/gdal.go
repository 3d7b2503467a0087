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

// Package gdal adapts GDAL datasets (through github.com/airbusgeo/godal)
// to the rastermath Dataset and Driver interfaces. Callers must have
// registered the GDAL drivers they need, e.g. with godal.RegisterAll(),
// before opening or creating datasets.
package gdal

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/museotools/rastermath"
)

// Dataset wraps a godal.Dataset as a rastermath.Dataset.
type Dataset struct {
	ds    *godal.Dataset
	bands []godal.Band
	st    rastermath.Structure
}

var _ rastermath.Dataset = &Dataset{}

// Open opens a raster for reading.
func Open(path string) (*Dataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, &rastermath.OpenError{Path: path, Err: err}
	}
	return wrap(ds)
}

func wrap(ds *godal.Dataset) (*Dataset, error) {
	st := ds.Structure()
	dt, err := toDataType(st.DataType)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		ds:    ds,
		bands: ds.Bands(),
		st: rastermath.Structure{
			SizeX:      st.SizeX,
			SizeY:      st.SizeY,
			BlockSizeX: st.BlockSizeX,
			BlockSizeY: st.BlockSizeY,
			DataType:   dt,
			NBands:     st.NBands,
		},
	}, nil
}

// Structure returns the dataset's shape
func (d *Dataset) Structure() rastermath.Structure { return d.st }

// GeoTransform returns the affine transformation coefficients. Datasets
// without one yield the identity transform.
func (d *Dataset) GeoTransform() [6]float64 {
	gt, err := d.ds.GeoTransform()
	if err != nil {
		return [6]float64{0, 1, 0, 0, 0, 1}
	}
	return gt
}

// SetGeoTransform sets the affine transformation coefficients
func (d *Dataset) SetGeoTransform(gt [6]float64) error {
	return d.ds.SetGeoTransform(gt)
}

// Projection returns the WKT projection of the dataset. May be empty.
func (d *Dataset) Projection() string { return d.ds.Projection() }

// SetProjection sets the WKT projection of the dataset
func (d *Dataset) SetProjection(proj string) error {
	return d.ds.SetProjection(proj)
}

// NoData returns band 0's nodata value
func (d *Dataset) NoData() (float64, bool) {
	if len(d.bands) == 0 {
		return 0, false
	}
	return d.bands[0].NoData()
}

// SetNoData sets the nodata value on every band
func (d *Dataset) SetNoData(nodata float64) error {
	return d.ds.SetNoData(nodata)
}

// ReadBand populates buf with the pixels of band covered by w. GDAL
// converts the band's storage type to float64.
func (d *Dataset) ReadBand(band int, w rastermath.Window, buf []float64) error {
	if band < 0 || band >= len(d.bands) {
		return fmt.Errorf("band %d out of range [0,%d)", band, len(d.bands))
	}
	return d.bands[band].Read(w.X0, w.Y0, buf[:w.Pixels()], w.W, w.H)
}

// WriteBand sets the pixels of band covered by w from buf. GDAL converts
// float64 to the band's storage type.
func (d *Dataset) WriteBand(band int, w rastermath.Window, buf []float64) error {
	if band < 0 || band >= len(d.bands) {
		return fmt.Errorf("band %d out of range [0,%d)", band, len(d.bands))
	}
	return d.bands[band].Write(w.X0, w.Y0, buf[:w.Pixels()], w.W, w.H)
}

// Flush is a no-op: GDAL flushes its caches when the dataset is closed.
func (d *Dataset) Flush() error { return nil }

// Close releases the dataset, flushing pending writes
func (d *Dataset) Close() error { return d.ds.Close() }

// Driver creates compressed tiled GTiff outputs.
type Driver struct {
	// CreationOptions overrides the GTiff creation options. Defaults to
	// COMPRESS=DEFLATE and TILED=YES.
	CreationOptions []string
}

var _ rastermath.Driver = Driver{}

// Create creates a GTiff dataset at path
func (drv Driver) Create(path string, width, height, nBands int, dtype rastermath.DataType) (rastermath.Dataset, error) {
	gdt, err := toGodalType(dtype)
	if err != nil {
		return nil, err
	}
	copts := drv.CreationOptions
	if copts == nil {
		copts = []string{"COMPRESS=DEFLATE", "TILED=YES"}
	}
	ds, err := godal.Create(godal.GTiff, path, nBands, gdt, width, height,
		godal.CreationOption(copts...))
	if err != nil {
		return nil, err
	}
	return wrap(ds)
}

func toDataType(dt godal.DataType) (rastermath.DataType, error) {
	switch dt {
	case godal.Byte:
		return rastermath.Byte, nil
	case godal.UInt16:
		return rastermath.UInt16, nil
	case godal.Int16:
		return rastermath.Int16, nil
	case godal.UInt32:
		return rastermath.UInt32, nil
	case godal.Int32:
		return rastermath.Int32, nil
	case godal.Float32:
		return rastermath.Float32, nil
	case godal.Float64:
		return rastermath.Float64, nil
	default:
		return rastermath.Unknown, fmt.Errorf("unsupported gdal datatype %s", dt)
	}
}

func toGodalType(dt rastermath.DataType) (godal.DataType, error) {
	switch dt {
	case rastermath.Byte:
		return godal.Byte, nil
	case rastermath.UInt16:
		return godal.UInt16, nil
	case rastermath.Int16:
		return godal.Int16, nil
	case rastermath.UInt32:
		return godal.UInt32, nil
	case rastermath.Int32:
		return godal.Int32, nil
	case rastermath.Float32:
		return godal.Float32, nil
	case rastermath.Float64:
		return godal.Float64, nil
	default:
		return godal.Unknown, fmt.Errorf("unsupported datatype %s", dt)
	}
}
