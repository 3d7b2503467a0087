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

// Dataset is the raster surface the engine works against. The gdal
// subpackage provides a GDAL-backed implementation; MemDataset provides a
// pure in-memory one.
//
// Pixel values cross this interface as float64 regardless of the dataset's
// storage DataType; implementations convert on read and write.
type Dataset interface {
	// Structure returns the dataset's shape
	Structure() Structure
	// GeoTransform returns the affine transformation coefficients
	GeoTransform() [6]float64
	// SetGeoTransform sets the affine transformation coefficients
	SetGeoTransform(gt [6]float64) error
	// Projection returns the dataset's projection descriptor. May be empty.
	Projection() string
	// SetProjection sets the dataset's projection descriptor
	SetProjection(proj string) error
	// NoData returns the dataset's nodata value. ok is false when the
	// dataset has no nodata value set.
	NoData() (nodata float64, ok bool)
	// SetNoData sets the nodata value on every band
	SetNoData(nodata float64) error
	// ReadBand populates buf (len w.W*w.H, row major) with the pixels of
	// band (0 based) covered by w. Reading outside the raster bounds is a
	// programming error, not a retryable condition.
	ReadBand(band int, w Window, buf []float64) error
	// WriteBand sets the pixels of band covered by w from buf
	WriteBand(band int, w Window, buf []float64) error
	// Flush persists any pending writes
	Flush() error
	// Close releases the dataset. Reads and writes are invalid afterwards.
	Close() error
}

// Driver creates output datasets. Outputs are always created for writing
// over the full extent given by width,height with nBands bands of dtype.
type Driver interface {
	Create(path string, width, height, nBands int, dtype DataType) (Dataset, error)
}
