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

// Package rastermath applies user functions to geospatial rasters one
// block at a time, keeping memory bounded by the raster's native block
// size rather than its full extent.
//
// An Engine reads every window of an input Dataset, builds a
// (pixels x bands) matrix of the window's values together with a nodata
// validity mask, applies each registered Function to the valid pixels,
// and scatters results into output rasters sharing the input's extent,
// geotransform and projection. Output band counts and datatypes may be
// left unset, in which case they are inferred once from the function's
// result on a randomly sampled block and frozen for the run.
//
// The package is I/O backend agnostic: the gdal subpackage adapts GDAL
// datasets (through github.com/airbusgeo/godal), and MemDataset provides
// a pure in-memory implementation.
package rastermath
