package engine

import (
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func screenTri(a, b, c mgl32.Vec3) ScreenTriangle {
	return ScreenTriangle{V: [3]mgl32.Vec3{a, b, c}}
}

func newTestRasterizer(w, h int) *rasterizer {
	return &rasterizer{depth: NewDepthBuffer(w, h), gradient: NewGradient(DefaultGradient)}
}

func TestRightTriangleFill(t *testing.T) {
	r := newTestRasterizer(20, 20)
	glyph := r.gradient[2]
	written := r.drawGlyph(screenTri(mgl32.Vec3{5, 5, 1}, mgl32.Vec3{5, 10, 1}, mgl32.Vec3{10, 10, 1}), glyph)

	count := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			inside := y >= 5 && y <= 10 && x >= 5 && x <= y
			g, z := r.depth.GlyphAt(x, y), r.depth.DepthAt(x, y)
			if inside {
				count++
				if g != glyph || z != 1 {
					t.Errorf("pixel (%d,%d) = %q depth %v, want %q depth 1", x, y, g, z, glyph)
				}
			} else if g != 0 || !math32.IsInf(z, 1) {
				t.Errorf("pixel (%d,%d) outside the triangle written: %q depth %v", x, y, g, z)
			}
		}
	}
	if written != count {
		t.Errorf("drawGlyph wrote %d pixels, want %d", written, count)
	}
}

func TestVertexOrderDoesNotMatter(t *testing.T) {
	a, b, c := mgl32.Vec3{3, 2, 0.5}, mgl32.Vec3{15, 8, 0.5}, mgl32.Vec3{6, 17, 0.5}
	orders := [][3]mgl32.Vec3{{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a}}

	ref := newTestRasterizer(20, 20)
	ref.drawGlyph(screenTri(a, b, c), '#')
	for i, o := range orders {
		r := newTestRasterizer(20, 20)
		r.drawGlyph(screenTri(o[0], o[1], o[2]), '#')
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				if r.depth.GlyphAt(x, y) != ref.depth.GlyphAt(x, y) {
					t.Fatalf("order %d differs at (%d,%d)", i, x, y)
				}
			}
		}
	}
}

func TestSortVertices(t *testing.T) {
	a, b, c := sortVertices([3]mgl32.Vec3{{4, 9, 0}, {7, 1, 0}, {2, 9, 0}})
	if a != (mgl32.Vec3{7, 1, 0}) || b != (mgl32.Vec3{2, 9, 0}) || c != (mgl32.Vec3{4, 9, 0}) {
		t.Errorf("sortVertices = %v %v %v", a, b, c)
	}
}

func TestFlatTriangleDropped(t *testing.T) {
	r := newTestRasterizer(10, 10)
	if n := r.drawGlyph(screenTri(mgl32.Vec3{1, 4, 0}, mgl32.Vec3{5, 4, 0}, mgl32.Vec3{8, 4, 0}), '#'); n != 0 {
		t.Errorf("zero-height triangle wrote %d pixels", n)
	}
	if lines := scanlines(nil, screenTri(mgl32.Vec3{1, 4, 0}, mgl32.Vec3{5, 4, 0}, mgl32.Vec3{8, 4, 0}), 10); len(lines) != 0 {
		t.Errorf("zero-height triangle produced %d scanlines", len(lines))
	}
}

func TestScanlinesCanonical(t *testing.T) {
	tris := []ScreenTriangle{
		screenTri(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{0, 5, 0}, mgl32.Vec3{9, 9, 0}),
		screenTri(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{9, 5, 0}, mgl32.Vec3{0, 9, 0}),
		screenTri(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{9, 0, 0}, mgl32.Vec3{4, 9, 0}),
		screenTri(mgl32.Vec3{4, 0, 0}, mgl32.Vec3{0, 9, 0}, mgl32.Vec3{9, 9, 0}),
	}
	for i, tri := range tris {
		for _, s := range scanlines(nil, tri, 10) {
			if s.Left[0] < s.Right[0] {
				t.Errorf("triangle %d row %v: left x %v < right x %v", i, s.Left[1], s.Left[0], s.Right[0])
			}
			if s.Left[1] != s.Right[1] {
				t.Errorf("triangle %d: scanline ends on rows %v and %v", i, s.Left[1], s.Right[1])
			}
		}
	}
}

func TestScanlineRowsUnique(t *testing.T) {
	lines := scanlines(nil, screenTri(mgl32.Vec3{5, 0.5, 0}, mgl32.Vec3{0, 4.5, 0}, mgl32.Vec3{9, 9.5, 0}), 10)
	seen := map[float32]bool{}
	for _, s := range lines {
		if seen[s.Left[1]] {
			t.Errorf("row %v emitted twice", s.Left[1])
		}
		seen[s.Left[1]] = true
	}
	for y := float32(0); y <= 9; y++ {
		if !seen[y] {
			t.Errorf("row %v missing", y)
		}
	}
}

func TestFillInterpolatesDepth(t *testing.T) {
	d := NewDepthBuffer(10, 1)
	fill(d, []Scanline{{Left: mgl32.Vec3{8, 0, 1}, Right: mgl32.Vec3{4, 0, 2}}}, '#')
	for x, want := range map[int]float32{8: 1, 6: 1.5, 4: 2} {
		if got := d.DepthAt(x, 0); math32.Abs(got-want) > epsilon {
			t.Errorf("DepthAt(%d) = %v, want %v", x, got, want)
		}
	}
}

func TestFillZeroSpan(t *testing.T) {
	d := NewDepthBuffer(10, 10)
	n := fill(d, []Scanline{{Left: mgl32.Vec3{3.5, 2, 0.25}, Right: mgl32.Vec3{3.2, 2, 0.75}}}, '#')
	if n != 1 {
		t.Fatalf("fill wrote %d pixels, want 1", n)
	}
	if got := d.DepthAt(3, 2); got != 0.25 {
		t.Errorf("DepthAt(3,2) = %v, want 0.25", got)
	}
}

func TestFillClipsToBounds(t *testing.T) {
	r := newTestRasterizer(8, 6)
	n := r.drawGlyph(screenTri(mgl32.Vec3{-20, -20, 0}, mgl32.Vec3{30, -5, 0}, mgl32.Vec3{-5, 30, 0}), '@')
	if n != 8*6 {
		t.Errorf("covering triangle wrote %d pixels, want %d", n, 8*6)
	}
}

func TestScanlinesStayOnScreen(t *testing.T) {
	tri := screenTri(mgl32.Vec3{10, -3e7, 0.5}, mgl32.Vec3{5, 20, 0.5}, mgl32.Vec3{30, 3e7, 0.5})
	lines := scanlines(nil, tri, 40)
	if len(lines) != 40 {
		t.Fatalf("scanlines emitted %d rows, want 40", len(lines))
	}
	for i, s := range lines {
		if s.Left[1] != float32(i) {
			t.Errorf("scanline %d is on row %v", i, s.Left[1])
		}
	}
	if n := len(scanlines(nil, screenTri(mgl32.Vec3{0, -90, 0}, mgl32.Vec3{5, -60, 0}, mgl32.Vec3{9, -1, 0}), 40)); n != 0 {
		t.Errorf("triangle above the frame emitted %d rows", n)
	}
}

func TestFarOffScreenVertexMatchesClippedFill(t *testing.T) {
	// With the far vertex at y=-500, rows clipped only to a huge height
	// are cheap to walk and serve as the reference for what lands on screen.
	for _, far := range []float32{-500, -3e7} {
		tri := screenTri(mgl32.Vec3{10, far, 0.5}, mgl32.Vec3{5, 20, 0.5}, mgl32.Vec3{30, 30, 0.5})

		done := make(chan int, 1)
		r := newTestRasterizer(120, 40)
		go func() { done <- r.drawGlyph(tri, '#') }()
		var written int
		select {
		case written = <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("far=%v: drawGlyph did not return", far)
		}

		count := 0
		for y := 0; y < 40; y++ {
			for x := 0; x < 120; x++ {
				if r.depth.GlyphAt(x, y) == '#' {
					count++
					if z := r.depth.DepthAt(x, y); z != 0.5 {
						t.Errorf("far=%v: pixel (%d,%d) depth %v, want 0.5", far, x, y, z)
					}
				}
			}
		}
		if count == 0 || written != count {
			t.Errorf("far=%v: wrote %d pixels, %d on screen", far, written, count)
		}
		if far == -500 {
			ref := NewDepthBuffer(120, 40)
			fill(ref, scanlines(nil, tri, 1<<20), '#')
			for i := range ref.cells {
				if ref.cells[i].Load() != r.depth.cells[i].Load() {
					t.Fatalf("far=%v: pixel %d differs from the reference walk", far, i)
				}
			}
		}
	}
}

func TestFillClipsWideSpan(t *testing.T) {
	d := NewDepthBuffer(16, 1)
	n := fill(d, []Scanline{{Left: mgl32.Vec3{1e9, 0, 0}, Right: mgl32.Vec3{-1e9, 0, 1}}}, '#')
	if n != 16 {
		t.Fatalf("fill wrote %d pixels, want 16", n)
	}
	for x := 0; x < 16; x++ {
		if z := d.DepthAt(x, 0); math32.Abs(z-0.5) > 1e-3 {
			t.Errorf("DepthAt(%d) = %v, want 0.5", x, z)
		}
	}
}

func TestDepthTestStrict(t *testing.T) {
	r := newTestRasterizer(20, 20)
	near := screenTri(mgl32.Vec3{5, 5, 0.2}, mgl32.Vec3{5, 10, 0.2}, mgl32.Vec3{10, 10, 0.2})
	far := screenTri(mgl32.Vec3{5, 5, 0.8}, mgl32.Vec3{5, 10, 0.8}, mgl32.Vec3{10, 10, 0.8})

	r.drawGlyph(near, '#')
	if n := r.drawGlyph(far, '.'); n != 0 {
		t.Errorf("farther triangle wrote %d pixels", n)
	}
	if n := r.drawGlyph(near, '#'); n != 0 {
		t.Errorf("equal depth rewrite wrote %d pixels", n)
	}
	if g := r.depth.GlyphAt(7, 9); g != '#' {
		t.Errorf("GlyphAt(7,9) = %q, want '#'", g)
	}
}

func TestGradientIndex(t *testing.T) {
	g := NewGradient(DefaultGradient)
	tests := []struct {
		intensity float32
		want      int
	}{
		{1, 0},
		{0.3, 0},
		{0, 0},
		{-0.25, 2},
		{-0.5, 5},
		{-0.99, 9},
		{-1, 9},
		{-3, 9},
	}
	for _, tt := range tests {
		if got := g.Index(tt.intensity); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.intensity, got, tt.want)
		}
	}
	if g.Glyph(-0.25) != '-' {
		t.Errorf("Glyph(-0.25) = %q, want '-'", g.Glyph(-0.25))
	}
	if len(NewGradient("")) != len([]rune(DefaultGradient)) {
		t.Error("empty charset did not fall back to the default gradient")
	}
}

func TestShade(t *testing.T) {
	floor := Tri(mgl32.Vec3{-1, 0, -1}, mgl32.Vec3{-1, 0, 1}, mgl32.Vec3{1, 0, 1})
	light := mgl32.Vec3{0, 10, 0}
	g := NewGradient(DefaultGradient)

	// Seen from below, the reflected view ray points up, against the light.
	below := shade(floor, mgl32.Vec3{0, -5, 0}, light)
	if below > -0.98 {
		t.Errorf("shade(seen from below) = %v, want close to -1", below)
	}
	if c := g.Glyph(below); c != '$' {
		t.Errorf("glyph seen from below = %q, want '$'", c)
	}

	// Seen from above, it points down along the light.
	above := shade(floor, mgl32.Vec3{0, 5, 0}, light)
	if above < 0.98 {
		t.Errorf("shade(seen from above) = %v, want close to 1", above)
	}
	if c := g.Glyph(above); c != '.' {
		t.Errorf("glyph seen from above = %q, want '.'", c)
	}

	if i := shade(Tri(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}), mgl32.Vec3{0, 5, 0}, light); i != 0 {
		t.Errorf("shade(degenerate) = %v, want 0", i)
	}
}

func TestReflect(t *testing.T) {
	got := reflect(mgl32.Vec3{1, -1, 0}, mgl32.Vec3{0, 1, 0})
	if !vecNear(got, mgl32.Vec3{1, 1, 0}) {
		t.Errorf("reflect = %v, want (1,1,0)", got)
	}
}
