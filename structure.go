package rastermath

// Window is a rectangular pixel region inside a raster, starting at pixel
// X0,Y0 and spanning W,H pixels.
type Window struct {
	X0, Y0 int
	W, H   int
	bw, bh int //block size
	sx, sy int //img size
	nx, ny int //num windows
	i, j   int //cur
}

// Next returns the following window in scanline order. It returns Window{},false
// when there are no more windows in the scanlines
func (w Window) Next() (Window, bool) {
	nw := w
	nw.i++
	if nw.i >= nw.nx {
		nw.i = 0
		nw.j++
	}
	if nw.j >= nw.ny {
		return Window{}, false
	}
	nw.X0 = nw.i * nw.bw
	nw.Y0 = nw.j * nw.bh
	nw.W, nw.H = clippedWindowSize(nw.sx, nw.sy, nw.bw, nw.bh, nw.i, nw.j)

	return nw, true
}

// Pixels returns the number of pixels covered by the window.
func (w Window) Pixels() int {
	return w.W * w.H
}

// WindowIterator returns the windows covering a sizeX,sizeY raster, tiled
// to blockSizeX,blockSizeY. All sizes must be strictly positive. The
// sequence is row-major, exhaustive and non-overlapping, with the last
// column/row of windows clipped to the raster bounds.
func WindowIterator(sizeX, sizeY int, blockSizeX, blockSizeY int) Window {
	w := Window{
		X0: 0,
		Y0: 0,
		i:  0,
		j:  0,
		bw: blockSizeX,
		bh: blockSizeY,
		sx: sizeX,
		sy: sizeY,
	}
	w.nx, w.ny = (sizeX+blockSizeX-1)/blockSizeX,
		(sizeY+blockSizeY-1)/blockSizeY
	w.W, w.H = clippedWindowSize(sizeX, sizeY, blockSizeX, blockSizeY, 0, 0)
	return w
}

// Structure describes the shape of a raster dataset
type Structure struct {
	SizeX, SizeY           int
	BlockSizeX, BlockSizeY int
	DataType               DataType
	NBands                 int
}

// FirstWindow returns the topleft window definition
func (st Structure) FirstWindow() Window {
	return WindowIterator(st.SizeX, st.SizeY, st.BlockSizeX, st.BlockSizeY)
}

// BlockCount returns the number of windows in the x and y dimensions
func (st Structure) BlockCount() (int, int) {
	return (st.SizeX + st.BlockSizeX - 1) / st.BlockSizeX,
		(st.SizeY + st.BlockSizeY - 1) / st.BlockSizeY
}

// WindowCount returns the total number of windows covering the raster
func (st Structure) WindowCount() int {
	nx, ny := st.BlockCount()
	return nx * ny
}

// Window returns the clipped window at grid position blockX,blockY
func (st Structure) Window(blockX, blockY int) Window {
	w, h := clippedWindowSize(st.SizeX, st.SizeY, st.BlockSizeX, st.BlockSizeY, blockX, blockY)
	return Window{
		X0: blockX * st.BlockSizeX,
		Y0: blockY * st.BlockSizeY,
		W:  w,
		H:  h,
	}
}

func clippedWindowSize(sizeX, sizeY int, blockSizeX, blockSizeY int, blockX, blockY int) (int, int) {
	cx, cy := (sizeX+blockSizeX-1)/blockSizeX,
		(sizeY+blockSizeY-1)/blockSizeY
	if blockX < 0 || blockY < 0 || blockX >= cx || blockY >= cy {
		return 0, 0
	}
	retx := blockSizeX
	rety := blockSizeY
	if blockX == cx-1 {
		nXPixelOff := blockX * blockSizeX
		retx = sizeX - nXPixelOff
	}
	if blockY == cy-1 {
		nYPixelOff := blockY * blockSizeY
		rety = sizeY - nYPixelOff
	}
	return retx, rety
}
