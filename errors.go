package rastermath

import "fmt"

// OpenError reports a raster that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ExtentMismatchError reports an auxiliary raster (mask or label) whose
// size differs from the primary raster.
type ExtentMismatchError struct {
	SizeX, SizeY int
	WantX, WantY int
}

func (e *ExtentMismatchError) Error() string {
	return fmt.Sprintf("raster extents do not match: got %dx%d, want %dx%d",
		e.SizeX, e.SizeY, e.WantX, e.WantY)
}

// AllocationError reports a sample buffer that grew past its memory
// budget.
type AllocationError struct {
	Bytes int
	Limit int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("impossible to allocate memory: region too large (%d bytes, limit %d)", e.Bytes, e.Limit)
}

// BandOverflowError reports a function result with more columns than the
// frozen band count of its output. The run is aborted, never truncated.
type BandOverflowError struct {
	Function string
	Bands    int
	MaxBands int
}

func (e *BandOverflowError) Error() string {
	return fmt.Sprintf("function %s output %d bands, but has been defined to have a maximum of %d bands",
		e.Function, e.Bands, e.MaxBands)
}

// FunctionError wraps an error raised by a registered transform function,
// attaching the function's identity.
type FunctionError struct {
	Function string
	Err      error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s: %v", e.Function, e.Err)
}

func (e *FunctionError) Unwrap() error { return e.Err }
