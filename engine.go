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
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
)

// defaultNoData is used when the input raster declares no nodata value.
const defaultNoData = -9999

// Arg is one named argument passed through opaquely to a Function.
type Arg struct {
	Name  string
	Value interface{}
}

// Args is an ordered list of named arguments. The engine never interprets
// them; they are forwarded as-is on every Function invocation.
type Args []Arg

// Get returns the value of the named argument. ok is false when no
// argument with that name was configured.
func (a Args) Get(name string) (value interface{}, ok bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return nil, false
}

// Function is a transform applied to the valid pixels of each window. x
// has one row per valid pixel and one column per input band. The result
// must have one row per input row; a *mat.VecDense counts as a single
// column.
type Function func(x *mat.Dense, args Args) (mat.Matrix, error)

// State is the lifecycle state of an Engine.
type State int

const (
	// Idle after construction and during registration
	Idle State = iota
	// Running while Run() iterates windows
	Running
	// Completed after every window has been processed and written
	Completed
	// Cancelled when the context expired at a window boundary
	Cancelled
	// Failed when a function, write or shape error aborted the run
	Failed
)

// String implements Stringer
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OutputSpec is the frozen description of one registered output.
type OutputSpec struct {
	Function string
	Path     string
	NBands   int
	DataType DataType
	NoData   float64
	Args     Args

	fn  Function
	out Dataset
}

// Engine reads a raster per window, applies every registered function to
// the valid pixels, and writes the results to georeferenced outputs.
// Engines are single use: construct, register, run.
//
//	eng, err := rastermath.New(ds, drv)
//	err = eng.Register("mean", meanFn, "/tmp/mean.tif")
//	err = eng.Run(ctx)
type Engine struct {
	ds         Dataset
	mask       Dataset
	drv        Driver
	st         Structure
	gt         [6]float64
	proj       string
	nodata     float64
	maskNoData float64

	logger   *slog.Logger
	progress Progress
	rnd      *rand.Rand

	specs    []*OutputSpec
	state    State
	position int
}

// New creates an Engine over the given input dataset. Outputs registered
// later are created through drv.
func New(ds Dataset, drv Driver, opts ...EngineOption) (*Engine, error) {
	eo := engineOpts{}
	for _, o := range opts {
		o.setEngineOpt(&eo)
	}
	st := ds.Structure()
	e := &Engine{
		ds:       ds,
		mask:     eo.mask,
		drv:      drv,
		st:       st,
		gt:       ds.GeoTransform(),
		proj:     ds.Projection(),
		logger:   eo.logger,
		progress: eo.progress,
		state:    Idle,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.progress == nil {
		e.progress = noopProgress{}
	}
	seed := eo.seed
	if !eo.seeded {
		seed = time.Now().UnixNano()
	}
	e.rnd = rand.New(rand.NewSource(seed))

	nodata, ok := ds.NoData()
	if !ok {
		nodata = defaultNoData
	}
	e.nodata = nodata

	if e.mask != nil {
		mst := e.mask.Structure()
		if mst.SizeX != st.SizeX || mst.SizeY != st.SizeY {
			return nil, &ExtentMismatchError{SizeX: mst.SizeX, SizeY: mst.SizeY, WantX: st.SizeX, WantY: st.SizeY}
		}
		// museotoolbox convention: an unset mask nodata means 0
		e.maskNoData = 0
		if mnd, ok := e.mask.NoData(); ok {
			e.maskNoData = mnd
		}
	}

	return e, nil
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State { return e.state }

// NoDataValue returns the input nodata value the engine masks against.
func (e *Engine) NoDataValue() float64 { return e.nodata }

// Outputs returns the registered output specs in registration order.
func (e *Engine) Outputs() []OutputSpec {
	specs := make([]OutputSpec, len(e.specs))
	for i, s := range e.specs {
		specs[i] = *s
	}
	return specs
}

// Register adds a function and its output raster to the engine. name
// identifies the function in logs and errors. Band count, datatype and
// nodata default to values inferred from a random sample block (see
// Bands, OutputType and NoData to set them explicitly); once resolved
// they are frozen for the run. The output raster is created immediately,
// matching the input's extent, geotransform and projection, with any
// missing parent directory created first.
func (e *Engine) Register(name string, fn Function, outPath string, opts ...RegisterOption) error {
	if e.state != Idle {
		return fmt.Errorf("cannot register while engine is %s", e.state)
	}
	ro := registerOpts{dtype: Unknown}
	for _, o := range opts {
		o.setRegisterOpt(&ro)
	}

	if ro.dtype == Unknown {
		sample, err := e.RandomBlock()
		if err != nil {
			return err
		}
		dt, err := e.inferDataType(name, fn, ro.args, sample)
		if err != nil {
			return err
		}
		ro.dtype = dt
	}
	if ro.nbands == 0 {
		sample, err := e.RandomBlock()
		if err != nil {
			return err
		}
		nbands, err := e.inferBands(name, fn, ro.args, sample)
		if err != nil {
			return err
		}
		ro.nbands = nbands
	}
	if !ro.hasNodata {
		ro.nodata = e.nodata
	}

	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	out, err := e.drv.Create(outPath, e.st.SizeX, e.st.SizeY, ro.nbands, ro.dtype)
	if err != nil {
		return fmt.Errorf("create output %s: %w", outPath, err)
	}
	if err := out.SetGeoTransform(e.gt); err != nil {
		_ = out.Close()
		return fmt.Errorf("set geotransform on %s: %w", outPath, err)
	}
	if e.proj != "" {
		if err := out.SetProjection(e.proj); err != nil {
			_ = out.Close()
			return fmt.Errorf("set projection on %s: %w", outPath, err)
		}
	}
	if err := out.SetNoData(ro.nodata); err != nil {
		_ = out.Close()
		return fmt.Errorf("set nodata on %s: %w", outPath, err)
	}

	e.specs = append(e.specs, &OutputSpec{
		Function: name,
		Path:     outPath,
		NBands:   ro.nbands,
		DataType: ro.dtype,
		NoData:   ro.nodata,
		Args:     ro.args,
		fn:       fn,
		out:      out,
	})
	return nil
}

// inferDataType resolves an output datatype by invoking the function once
// on a sample block and feeding the result's min/max to MinimumDataType.
// A nil sample (fully masked raster) falls back to the input's datatype.
func (e *Engine) inferDataType(name string, fn Function, args Args, sample *mat.Dense) (DataType, error) {
	if sample == nil {
		e.logger.Info("no valid sample pixels, using input datatype",
			"function", name, "datatype", e.st.DataType.String())
		return e.st.DataType, nil
	}
	res, err := fn(sample, args)
	if err != nil {
		return Unknown, &FunctionError{Function: name, Err: err}
	}
	min, max := matBounds(res)
	dt := MinimumDataType(min, max)
	e.logger.Info("using datatype inferred from function result",
		"function", name, "datatype", dt.String())
	return dt, nil
}

// inferBands resolves an output band count from the column count of the
// function's result on a sample block.
func (e *Engine) inferBands(name string, fn Function, args Args, sample *mat.Dense) (int, error) {
	if sample == nil {
		e.logger.Info("no valid sample pixels, defaulting to a single output band",
			"function", name)
		return 1, nil
	}
	res, err := fn(sample, args)
	if err != nil {
		return 0, &FunctionError{Function: name, Err: err}
	}
	_, nbands := res.Dims()
	if nbands < 1 {
		nbands = 1
	}
	return nbands, nil
}

func matBounds(m mat.Matrix) (min, max float64) {
	r, c := m.Dims()
	min, max = m.At(0, 0), m.At(0, 0)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

// Run processes every window of the input raster in scanline order: read
// the masked block, apply each registered function to the valid pixels,
// scatter the results back over the window with each output's nodata
// value filling invalid pixels, and write every output band at the window
// offset. The context is polled once per window; cancellation stops the
// run at the next window boundary, leaves already written pixels intact,
// and is not an error. Any function, shape or write error aborts the run.
func (e *Engine) Run(ctx context.Context) error {
	if e.state != Idle {
		return fmt.Errorf("cannot run: engine is %s", e.state)
	}
	e.state = Running
	e.position = 0
	total := e.st.WindowCount()

	for w, ok := e.st.FirstWindow(), true; ok; w, ok = w.Next() {
		bl, err := readBlock(e.ds, e.mask, w, e.nodata, e.maskNoData)
		if err != nil {
			return e.fail(err)
		}
		if ctx.Err() != nil {
			return e.cancel()
		}
		for _, spec := range e.specs {
			if err := e.processWindow(spec, bl); err != nil {
				return e.fail(err)
			}
		}
		e.position++
		e.progress.Update(e.position, total)
	}

	e.state = Completed
	for _, spec := range e.specs {
		if err := spec.out.Flush(); err != nil {
			return e.fail(fmt.Errorf("flush %s: %w", spec.Path, err))
		}
		if err := spec.out.Close(); err != nil {
			return e.fail(fmt.Errorf("close %s: %w", spec.Path, err))
		}
		e.logger.Info("saved output", "path", spec.Path, "function", spec.Function)
	}
	return nil
}

// processWindow computes and writes one output for one block. The scatter
// buffer starts out filled with the spec's nodata value so invalid pixels
// and unpopulated trailing bands end up as nodata.
func (e *Engine) processWindow(spec *OutputSpec, bl *Block) error {
	npix := bl.Window.Pixels()
	out := mat.NewDense(npix, spec.NBands, nil)
	for p := 0; p < npix; p++ {
		for b := 0; b < spec.NBands; b++ {
			out.Set(p, b, spec.NoData)
		}
	}

	if bl.ValidCount() > 0 {
		res, err := spec.fn(bl.ValidPixels(), spec.Args)
		if err != nil {
			return &FunctionError{Function: spec.Function, Err: err}
		}
		rows, cols := res.Dims()
		if cols > spec.NBands {
			return &BandOverflowError{Function: spec.Function, Bands: cols, MaxBands: spec.NBands}
		}
		if rows != bl.ValidCount() {
			return &FunctionError{
				Function: spec.Function,
				Err:      fmt.Errorf("result has %d rows for %d valid pixels", rows, bl.ValidCount()),
			}
		}
		vi := 0
		for p := 0; p < npix; p++ {
			if !bl.Valid[p] {
				continue
			}
			for b := 0; b < cols; b++ {
				out.Set(p, b, res.At(vi, b))
			}
			vi++
		}
	}

	buf := make([]float64, npix)
	for b := 0; b < spec.NBands; b++ {
		mat.Col(buf, b, out)
		if err := spec.out.WriteBand(b, bl.Window, buf); err != nil {
			return fmt.Errorf("write band %d of %s: %w", b, spec.Path, err)
		}
	}
	return nil
}

// cancel flushes and closes every output, keeping what was written.
func (e *Engine) cancel() error {
	e.state = Cancelled
	for _, spec := range e.specs {
		_ = spec.out.Flush()
		_ = spec.out.Close()
	}
	e.logger.Info("run cancelled", "windows", e.position, "total", e.st.WindowCount())
	return nil
}

func (e *Engine) fail(err error) error {
	e.state = Failed
	for _, spec := range e.specs {
		_ = spec.out.Close()
	}
	return err
}
