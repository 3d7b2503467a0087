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

import "log/slog"

type engineOpts struct {
	mask     Dataset
	seed     int64
	seeded   bool
	logger   *slog.Logger
	progress Progress
}

// EngineOption is an option that can be passed to New()
//
// Available EngineOptions are:
//
// • Mask
//
// • Seed
//
// • Logger
//
// • Notify
type EngineOption interface {
	setEngineOpt(eo *engineOpts)
}

type registerOpts struct {
	nbands    int
	dtype     DataType
	nodata    float64
	hasNodata bool
	args      Args
}

// RegisterOption is an option that can be passed to Engine.Register()
//
// Available RegisterOptions are:
//
// • Bands
//
// • OutputType
//
// • NoData
//
// • FunctionArg
type RegisterOption interface {
	setRegisterOpt(ro *registerOpts)
}

type sampleOpts struct {
	coords     bool
	onlyCoords bool
	maxBytes   int
	progress   Progress
}

// SampleOption is an option that can be passed to Samples()
//
// Available SampleOptions are:
//
// • Coords
//
// • OnlyCoords
//
// • MaxBytes
//
// • Notify
type SampleOption interface {
	setSampleOpt(so *sampleOpts)
}

type maskOpt struct {
	ds Dataset
}

func (mo maskOpt) setEngineOpt(eo *engineOpts) {
	eo.mask = mo.ds
}

// Mask configures a secondary single band raster whose nodata pixels are
// excluded from computation. The mask must have the same extent as the
// primary raster.
func Mask(ds Dataset) interface {
	EngineOption
} {
	return maskOpt{ds: ds}
}

type seedOpt struct {
	seed int64
}

func (so seedOpt) setEngineOpt(eo *engineOpts) {
	eo.seed = so.seed
	eo.seeded = true
}

// Seed makes random block sampling deterministic. Two engines constructed
// with the same seed over the same raster sample identical blocks.
func Seed(seed int64) interface {
	EngineOption
} {
	return seedOpt{seed: seed}
}

type loggerOpt struct {
	logger *slog.Logger
}

func (lo loggerOpt) setEngineOpt(eo *engineOpts) {
	eo.logger = lo.logger
}

// Logger overrides the slog.Logger used for informational notices
// (inferred datatypes, completed outputs, cancellation).
func Logger(logger *slog.Logger) interface {
	EngineOption
} {
	return loggerOpt{logger: logger}
}

type notifyOpt struct {
	p Progress
}

func (no notifyOpt) setEngineOpt(eo *engineOpts) {
	eo.progress = no.p
}

func (no notifyOpt) setSampleOpt(so *sampleOpts) {
	so.progress = no.p
}

// Notify installs a Progress sink receiving a tick per processed window.
func Notify(p Progress) interface {
	EngineOption
	SampleOption
} {
	return notifyOpt{p: p}
}

type bandsOpt struct {
	nbands int
}

func (bo bandsOpt) setRegisterOpt(ro *registerOpts) {
	ro.nbands = bo.nbands
}

// Bands fixes the band count of a registered output. When not provided the
// band count is inferred from the function's result on a random sample
// block.
func Bands(nbands int) interface {
	RegisterOption
} {
	return bandsOpt{nbands: nbands}
}

type outputTypeOpt struct {
	dtype DataType
}

func (oo outputTypeOpt) setRegisterOpt(ro *registerOpts) {
	ro.dtype = oo.dtype
}

// OutputType fixes the datatype of a registered output. When not provided
// the datatype is inferred from the min/max of the function's result on a
// random sample block.
func OutputType(dtype DataType) interface {
	RegisterOption
} {
	return outputTypeOpt{dtype: dtype}
}

type noDataOpt struct {
	nodata float64
}

func (no noDataOpt) setRegisterOpt(ro *registerOpts) {
	ro.nodata = no.nodata
	ro.hasNodata = true
}

// NoData fixes the nodata value of a registered output, or of an
// in-memory dataset. When registering, defaults to the input raster's
// nodata value.
func NoData(nodata float64) interface {
	RegisterOption
	MemOption
} {
	return noDataOpt{nodata: nodata}
}

type functionArgOpt struct {
	name  string
	value interface{}
}

func (fo functionArgOpt) setRegisterOpt(ro *registerOpts) {
	ro.args = append(ro.args, Arg{Name: fo.name, Value: fo.value})
}

// FunctionArg appends a named argument passed through opaquely to the
// registered function on every invocation, in the order the options were
// given.
func FunctionArg(name string, value interface{}) interface {
	RegisterOption
} {
	return functionArgOpt{name: name, value: value}
}

type coordsOpt struct{}

func (coordsOpt) setSampleOpt(so *sampleOpts) {
	so.coords = true
}

// Coords makes Samples also return the column,row coordinate of every
// sampled pixel.
func Coords() interface {
	SampleOption
} {
	return coordsOpt{}
}

type onlyCoordsOpt struct{}

func (onlyCoordsOpt) setSampleOpt(so *sampleOpts) {
	so.onlyCoords = true
}

// OnlyCoords makes Samples return coordinates only, skipping pixel values
// entirely.
func OnlyCoords() interface {
	SampleOption
} {
	return onlyCoordsOpt{}
}

type maxBytesOpt struct {
	n int
}

func (mo maxBytesOpt) setSampleOpt(so *sampleOpts) {
	so.maxBytes = mo.n
}

// MaxBytes bounds the memory the sample matrix may grow to before Samples
// fails with an AllocationError.
func MaxBytes(n int) interface {
	SampleOption
} {
	return maxBytesOpt{n: n}
}
