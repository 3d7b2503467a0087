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

package gdal

import (
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/museotools/rastermath"
)

// rasterizeTo burns a vector dataset into a new raster covering the same
// grid as ref.
func rasterizeTo(vectorPath string, ref *Dataset, outPath string, dtype rastermath.DataType, switches []string) (*Dataset, error) {
	vds, err := godal.Open(vectorPath, godal.VectorOnly())
	if err != nil {
		return nil, &rastermath.OpenError{Path: vectorPath, Err: err}
	}
	defer vds.Close()

	gdt, err := toGodalType(dtype)
	if err != nil {
		return nil, err
	}
	st := ref.Structure()
	out, err := godal.Create(godal.GTiff, outPath, 1, gdt, st.SizeX, st.SizeY,
		godal.CreationOption("COMPRESS=DEFLATE"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := out.SetGeoTransform(ref.GeoTransform()); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("set geotransform on %s: %w", outPath, err)
	}
	if proj := ref.Projection(); proj != "" {
		if err := out.SetProjection(proj); err != nil {
			_ = out.Close()
			return nil, fmt.Errorf("set projection on %s: %w", outPath, err)
		}
	}
	if err := out.RasterizeInto(vds, switches); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("rasterize %s into %s: %w", vectorPath, outPath, err)
	}
	return wrap(out)
}

// MaskFromVector rasterizes a vector file into a byte mask over the grid
// of the reference raster: covered pixels are burned to 1, everything
// else is the mask's nodata value 0. With invert set, covered pixels
// become the masked ones.
func MaskFromVector(vectorPath, referencePath, outPath string, invert bool) error {
	ref, err := Open(referencePath)
	if err != nil {
		return err
	}
	defer ref.Close()

	switches := []string{"-burn", "1"}
	if invert {
		switches = append(switches, "-i")
	}
	out, err := rasterizeTo(vectorPath, ref, outPath, rastermath.Byte, switches)
	if err != nil {
		return err
	}
	if err := out.SetNoData(0); err != nil {
		_ = out.Close()
		return fmt.Errorf("set nodata on %s: %w", outPath, err)
	}
	return out.Close()
}

// RasterizeField burns the given attribute field of a vector file into a
// single band raster of dtype over the grid of the reference raster.
func RasterizeField(vectorPath, referencePath, outPath, field string, dtype rastermath.DataType) error {
	ref, err := Open(referencePath)
	if err != nil {
		return err
	}
	defer ref.Close()

	out, err := rasterizeTo(vectorPath, ref, outPath, dtype, []string{"-a", field})
	if err != nil {
		return err
	}
	return out.Close()
}

// SamplesFromVector extracts the pixels of a raster lying under the
// features of a vector file. Each named field is rasterized to a
// temporary raster and returned as one label vector; with no fields, a
// plain coverage mask is used and the returned set has no labels beyond
// the burned mask. Temporary rasters are removed before returning.
func SamplesFromVector(rasterPath, vectorPath string, fields []string, opts ...rastermath.SampleOption) (*rastermath.SampleSet, error) {
	raster, err := Open(rasterPath)
	if err != nil {
		return nil, err
	}
	defer raster.Close()

	var (
		labels []rastermath.Dataset
		temps  []string
	)
	defer func() {
		for _, l := range labels {
			_ = l.Close()
		}
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}()

	addTemp := func(switches []string, dtype rastermath.DataType) error {
		f, err := os.CreateTemp("", "*_roi.tif")
		if err != nil {
			return fmt.Errorf("create temp raster: %w", err)
		}
		tmp := f.Name()
		_ = f.Close()
		temps = append(temps, tmp)
		roi, err := rasterizeTo(vectorPath, raster, tmp, dtype, switches)
		if err != nil {
			return err
		}
		labels = append(labels, roi)
		return nil
	}

	if len(fields) == 0 {
		if err := addTemp([]string{"-burn", "1"}, rastermath.Byte); err != nil {
			return nil, err
		}
	} else {
		for _, field := range fields {
			if err := addTemp([]string{"-a", field}, rastermath.Float64); err != nil {
				return nil, err
			}
		}
	}

	return rastermath.Samples(raster, labels, opts...)
}
