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

import "gonum.org/v1/gonum/mat"

// sampleAttempts bounds the number of windows tried before giving up on
// finding valid pixels in a mostly masked raster.
const sampleAttempts = 10

// RandomBlock reads one block-aligned window chosen uniformly at random
// and returns its valid pixels as a (pixels x bands) matrix. It is meant
// for datatype/shape inference and ad hoc previews and offers no coverage
// guarantee. Windows without any valid pixel are redrawn a bounded number
// of times; a fully masked raster yields nil.
func (e *Engine) RandomBlock() (*mat.Dense, error) {
	nx, ny := e.st.BlockCount()
	for attempt := 0; attempt < sampleAttempts; attempt++ {
		w := e.st.Window(e.rnd.Intn(nx), e.rnd.Intn(ny))
		bl, err := readBlock(e.ds, e.mask, w, e.nodata, e.maskNoData)
		if err != nil {
			return nil, err
		}
		if bl.ValidCount() > 0 {
			return bl.ValidPixels(), nil
		}
	}
	return nil, nil
}
