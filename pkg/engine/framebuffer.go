package engine

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// MinBuffers is the smallest number of character buffers a FrameBuffer keeps.
const MinBuffers = 2

// clearCell is the packed value of an empty pixel: +Inf depth and glyph 0.
var clearCell = packCell(math32.Inf(1), 0)

// depthKey maps a float32 to a uint32 whose unsigned order matches the
// float order, so the packed cell can be compared as one integer.
func depthKey(z float32) uint32 {
	b := math.Float32bits(z)
	if b&0x80000000 != 0 {
		return ^b
	}
	return b | 0x80000000
}

func depthFromKey(k uint32) float32 {
	if k&0x80000000 != 0 {
		return math.Float32frombits(k &^ 0x80000000)
	}
	return math.Float32frombits(^k)
}

func packCell(z float32, glyph rune) uint64 {
	return uint64(depthKey(z))<<32 | uint64(uint32(glyph))
}

// DepthBuffer stores, per pixel, the nearest depth written this frame and
// the glyph that came with it. Depth and glyph live in one 64-bit word so a
// single compare-and-swap updates both.
type DepthBuffer struct {
	width, height int
	cells         []atomic.Uint64
}

// NewDepthBuffer allocates a cleared width x height buffer.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{width: width, height: height, cells: make([]atomic.Uint64, width*height)}
	d.Clear()
	return d
}

// Clear resets every cell to +Inf depth with no glyph.
func (d *DepthBuffer) Clear() {
	for i := range d.cells {
		d.cells[i].Store(clearCell)
	}
}

// Plot writes glyph at (x, y) if z is strictly nearer than the stored depth.
// It also writes at equal depth when glyph is smaller than the stored glyph,
// so the pixel ends up the same whatever order concurrent writers arrive in.
// Rewriting the same depth and glyph is not a write. Out-of-range
// coordinates and NaN depths are ignored. Plot is safe for concurrent use.
func (d *DepthBuffer) Plot(x, y int, z float32, glyph rune) bool {
	if x < 0 || x >= d.width || y < 0 || y >= d.height || math32.IsNaN(z) {
		return false
	}
	cell := &d.cells[y*d.width+x]
	next := packCell(z, glyph)
	for {
		cur := cell.Load()
		if next >= cur {
			return false
		}
		if cell.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// DepthAt returns the stored depth at (x, y), +Inf when unwritten or out of range.
func (d *DepthBuffer) DepthAt(x, y int) float32 {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return math32.Inf(1)
	}
	return depthFromKey(uint32(d.cells[y*d.width+x].Load() >> 32))
}

// GlyphAt returns the stored glyph at (x, y), 0 when unwritten or out of range.
func (d *DepthBuffer) GlyphAt(x, y int) rune {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return 0
	}
	return rune(uint32(d.cells[y*d.width+x].Load()))
}

// FrameBuffer owns the rotating character buffers and the single depth
// buffer. Index Current() is the buffer being rasterized; once a frame is
// resolved and rotated it becomes the previous buffer, eligible for
// presentation.
type FrameBuffer struct {
	width, height int
	blank         rune
	buffers       [][]rune
	current       int
	depth         *DepthBuffer
}

// NewFrameBuffer allocates count character buffers of width x height.
func NewFrameBuffer(width, height, count int, blank rune) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", width, height)
	}
	if count < MinBuffers {
		return nil, errors.Errorf("need at least %d buffers, got %d", MinBuffers, count)
	}
	fb := &FrameBuffer{
		width:   width,
		height:  height,
		blank:   blank,
		buffers: make([][]rune, count),
		depth:   NewDepthBuffer(width, height),
	}
	for i := range fb.buffers {
		fb.buffers[i] = make([]rune, width*height)
		for j := range fb.buffers[i] {
			fb.buffers[i][j] = blank
		}
	}
	return fb, nil
}

// Width returns the frame width in cells.
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the frame height in cells.
func (fb *FrameBuffer) Height() int { return fb.height }

// Len returns the number of character buffers.
func (fb *FrameBuffer) Len() int { return len(fb.buffers) }

// Blank returns the glyph used for empty cells.
func (fb *FrameBuffer) Blank() rune { return fb.blank }

// Current returns the index of the buffer being rasterized.
func (fb *FrameBuffer) Current() int { return fb.current }

// Previous returns the index of the last completed buffer.
func (fb *FrameBuffer) Previous() int {
	return (fb.current + len(fb.buffers) - 1) % len(fb.buffers)
}

// Buffer returns buffer i. Callers outside the pipeline must treat it as
// read-only.
func (fb *FrameBuffer) Buffer(i int) []rune { return fb.buffers[i] }

// Depth returns the shared depth buffer.
func (fb *FrameBuffer) Depth() *DepthBuffer { return fb.depth }

// Clear resets the depth buffer and blanks the current character buffer.
func (fb *FrameBuffer) Clear() {
	fb.depth.Clear()
	buf := fb.buffers[fb.current]
	for i := range buf {
		buf[i] = fb.blank
	}
}

// Resolve copies the glyphs that survived the depth test into the current
// character buffer. Rows are split into bands processed concurrently; it
// must only run after every rasterization task for the frame has returned.
func (fb *FrameBuffer) Resolve() {
	buf := fb.buffers[fb.current]
	cells := fb.depth.cells

	bands := runtime.GOMAXPROCS(0)
	if bands > fb.height {
		bands = fb.height
	}
	rowsPerBand := fb.height / bands

	var wg sync.WaitGroup
	for b := 0; b < bands; b++ {
		startRow := b * rowsPerBand
		endRow := startRow + rowsPerBand
		if b == bands-1 {
			endRow = fb.height
		}
		wg.Add(1)
		go func(startRow, endRow int) {
			defer wg.Done()
			for i := startRow * fb.width; i < endRow*fb.width; i++ {
				if v := cells[i].Load(); v != clearCell {
					buf[i] = rune(uint32(v))
				}
			}
		}(startRow, endRow)
	}
	wg.Wait()
}

// Rotate makes the current buffer the previous one and advances to the next.
// It returns the index of the completed buffer.
func (fb *FrameBuffer) Rotate() int {
	done := fb.current
	fb.current = (fb.current + 1) % len(fb.buffers)
	return done
}
