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

// Block is the in-memory buffer materialized for one Window: a
// (pixels x bands) matrix holding every input band, and a per-pixel
// validity flag. Blocks are ephemeral, one per window.
type Block struct {
	Window Window
	X      *mat.Dense
	Valid  []bool

	nvalid int
}

// ValidCount returns the number of valid pixels in the block.
func (b *Block) ValidCount() int { return b.nvalid }

// ValidPixels returns the rows of X belonging to valid pixels, or nil when
// the block has none.
func (b *Block) ValidPixels() *mat.Dense {
	if b.nvalid == 0 {
		return nil
	}
	_, nb := b.X.Dims()
	sub := mat.NewDense(b.nvalid, nb, nil)
	vi := 0
	for p, ok := range b.Valid {
		if !ok {
			continue
		}
		sub.SetRow(vi, b.X.RawRowView(p))
		vi++
	}
	return sub
}

// readBlock reads every band of ds covered by w into a Block and computes
// its validity vector. A pixel is valid iff the mask (when configured)
// does not report its nodata value there, and the primary raster's band 0
// does not hold the primary nodata value. Bands past band 0 are not
// examined.
func readBlock(ds Dataset, mask Dataset, w Window, nodata, maskNoData float64) (*Block, error) {
	st := ds.Structure()
	npix := w.Pixels()
	x := mat.NewDense(npix, st.NBands, nil)
	buf := make([]float64, npix)
	for band := 0; band < st.NBands; band++ {
		if err := ds.ReadBand(band, w, buf); err != nil {
			return nil, fmt.Errorf("read band %d of window %d,%d: %w", band, w.X0, w.Y0, err)
		}
		x.SetCol(band, buf)
	}

	valid := make([]bool, npix)
	nvalid := 0
	if mask != nil {
		mbuf := make([]float64, npix)
		if err := mask.ReadBand(0, w, mbuf); err != nil {
			return nil, fmt.Errorf("read mask window %d,%d: %w", w.X0, w.Y0, err)
		}
		for p := 0; p < npix; p++ {
			if mbuf[p] != maskNoData && x.At(p, 0) != nodata {
				valid[p] = true
				nvalid++
			}
		}
	} else {
		for p := 0; p < npix; p++ {
			if x.At(p, 0) != nodata {
				valid[p] = true
				nvalid++
			}
		}
	}

	return &Block{Window: w, X: x, Valid: valid, nvalid: nvalid}, nil
}
