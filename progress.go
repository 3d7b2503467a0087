package rastermath

// Progress receives discrete progress ticks from a run: position counts
// processed windows, total is the full window count. Implementations must
// tolerate position == total being reported more than once.
type Progress interface {
	Update(position, total int)
}

type noopProgress struct{}

func (noopProgress) Update(position, total int) {}
