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

	"gonum.org/v1/gonum/mat"
)

// defaultMaxSampleBytes bounds the sample matrix of Samples() to 2GiB
// unless overridden with MaxBytes.
const defaultMaxSampleBytes = 1 << 31

// Pixel is a column,row raster coordinate.
type Pixel struct {
	Col, Row int
}

// SampleSet holds the pixels extracted under a region of interest.
type SampleSet struct {
	// X is the sample matrix, one row per extracted pixel and one column
	// per input band. Nil when OnlyCoords was requested.
	X *mat.Dense
	// Labels holds one vector per label raster, aligned with X's rows.
	Labels []*mat.VecDense
	// Coords holds the coordinate of every extracted pixel when Coords or
	// OnlyCoords was requested.
	Coords []Pixel
}

// Len returns the number of extracted pixels.
func (s *SampleSet) Len() int {
	if s.X != nil {
		r, _ := s.X.Dims()
		return r
	}
	return len(s.Coords)
}

// Samples reads raster per block and extracts every pixel where the first
// label raster holds a nonzero value, returning the pixel's value on every
// band of raster plus its value in each label raster. All label rasters
// must share raster's extent.
func Samples(raster Dataset, labels []Dataset, opts ...SampleOption) (*SampleSet, error) {
	so := sampleOpts{maxBytes: defaultMaxSampleBytes}
	for _, o := range opts {
		o.setSampleOpt(&so)
	}
	if so.progress == nil {
		so.progress = noopProgress{}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one label raster is required")
	}

	st := raster.Structure()
	for _, l := range labels {
		lst := l.Structure()
		if lst.SizeX != st.SizeX || lst.SizeY != st.SizeY {
			return nil, &ExtentMismatchError{SizeX: lst.SizeX, SizeY: lst.SizeY, WantX: st.SizeX, WantY: st.SizeY}
		}
	}

	var (
		xdata  []float64
		ldata  = make([][]float64, len(labels))
		coords []Pixel
		nrows  int
	)

	total := st.WindowCount()
	done := 0
	roiBuf := make([]float64, 0)
	for w, ok := st.FirstWindow(), true; ok; w, ok = w.Next() {
		npix := w.Pixels()
		if cap(roiBuf) < npix {
			roiBuf = make([]float64, npix)
		}
		roi := roiBuf[:npix]
		if err := labels[0].ReadBand(0, w, roi); err != nil {
			return nil, fmt.Errorf("read label window %d,%d: %w", w.X0, w.Y0, err)
		}

		hits := make([]int, 0, npix)
		for p := 0; p < npix; p++ {
			if roi[p] != 0 {
				hits = append(hits, p)
			}
		}
		done++
		so.progress.Update(done, total)
		if len(hits) == 0 {
			continue
		}

		if so.coords || so.onlyCoords {
			for _, p := range hits {
				coords = append(coords, Pixel{Col: w.X0 + p%w.W, Row: w.Y0 + p/w.W})
			}
		}
		if so.onlyCoords {
			nrows += len(hits)
			continue
		}

		need := (nrows + len(hits)) * (st.NBands + len(labels)) * 8
		if need > so.maxBytes {
			return nil, &AllocationError{Bytes: need, Limit: so.maxBytes}
		}

		for li, l := range labels {
			lbuf := make([]float64, npix)
			if li == 0 {
				copy(lbuf, roi)
			} else if err := l.ReadBand(0, w, lbuf); err != nil {
				return nil, fmt.Errorf("read label %d window %d,%d: %w", li, w.X0, w.Y0, err)
			}
			for _, p := range hits {
				ldata[li] = append(ldata[li], lbuf[p])
			}
		}

		band := make([]float64, npix)
		rows := make([][]float64, len(hits))
		for i := range rows {
			rows[i] = make([]float64, st.NBands)
		}
		for b := 0; b < st.NBands; b++ {
			if err := raster.ReadBand(b, w, band); err != nil {
				return nil, fmt.Errorf("read band %d window %d,%d: %w", b, w.X0, w.Y0, err)
			}
			for i, p := range hits {
				rows[i][b] = band[p]
			}
		}
		for _, r := range rows {
			xdata = append(xdata, r...)
		}
		nrows += len(hits)
	}

	set := &SampleSet{Coords: coords}
	if !so.onlyCoords && nrows > 0 {
		set.X = mat.NewDense(nrows, st.NBands, xdata)
		set.Labels = make([]*mat.VecDense, len(labels))
		for li := range labels {
			set.Labels[li] = mat.NewVecDense(nrows, ldata[li])
		}
	}
	return set, nil
}
