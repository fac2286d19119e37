package engine

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"simplerenderer/internal/util"
)

// DefaultGradient orders glyphs from dimmest to brightest.
const DefaultGradient = ".:-=+*#%@$"

// Gradient is the ordered glyph ramp used for shading.
type Gradient []rune

// NewGradient builds a gradient from a charset, falling back to
// DefaultGradient when the charset is empty.
func NewGradient(charset string) Gradient {
	if charset == "" {
		charset = DefaultGradient
	}
	return Gradient([]rune(charset))
}

// Index maps a lighting intensity to a gradient index:
// floor(-intensity * len), clamped to [0, len).
func (g Gradient) Index(intensity float32) int {
	i := int(math32.Floor(-intensity * float32(len(g))))
	return util.Clamp(i, 0, len(g)-1)
}

// Glyph returns the glyph for a lighting intensity.
func (g Gradient) Glyph(intensity float32) rune {
	return g[g.Index(intensity)]
}

// reflect mirrors i about the plane with normal n.
func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// shade computes the lighting scalar for a world-space triangle: the light
// direction (light to centroid) dotted with the camera-to-triangle direction
// reflected about the surface normal. The result is in [-1, 1]; a degenerate
// triangle yields 0.
func shade(world Triangle, eye, light mgl32.Vec3) float32 {
	n := world.Normal()
	c := world.Centroid()
	toTri := c.Sub(light)
	toEye := eye.Sub(c)
	if n.Len() == 0 || toTri.Len() == 0 || toEye.Len() == 0 {
		return 0
	}
	bounce := reflect(toEye.Normalize(), n)
	return util.Clamp(toTri.Normalize().Dot(bounce), -1, 1)
}

// Scanline bounds one row of a triangle. After canonicalization
// Left.X() >= Right.X(); Y is the row and Z the depth at each end.
type Scanline struct {
	Left, Right mgl32.Vec3
}

// edgePoint intersects the edge start->end with row y. x and z are clamped
// to the edge's extent so rows at the segment ends do not overshoot.
func edgePoint(start, end mgl32.Vec3, y float32) mgl32.Vec3 {
	dy := end[1] - start[1]
	if dy == 0 {
		return mgl32.Vec3{start[0], y, start[2]}
	}
	t := (y - start[1]) / dy
	x := util.Clamp(start[0]+(end[0]-start[0])*t, math32.Min(start[0], end[0]), math32.Max(start[0], end[0]))
	z := util.Clamp(start[2]+(end[2]-start[2])*t, math32.Min(start[2], end[2]), math32.Max(start[2], end[2]))
	return mgl32.Vec3{x, y, z}
}

// sortVertices orders the vertices by ascending y, ties broken by ascending
// x, with three compare-and-swap steps.
func sortVertices(v [3]mgl32.Vec3) (a, b, c mgl32.Vec3) {
	a, b, c = v[0], v[1], v[2]
	if above(b, a) {
		a, b = b, a
	}
	if above(c, b) {
		b, c = c, b
	}
	if above(b, a) {
		a, b = b, a
	}
	return a, b, c
}

func above(p, q mgl32.Vec3) bool {
	return p[1] < q[1] || (p[1] == q[1] && p[0] < q[0])
}

// scanlines decomposes a screen triangle into rows, appending them to dst.
// Only rows in [0, height) are emitted. It returns dst unchanged when the
// triangle has no vertical extent.
func scanlines(dst []Scanline, tri ScreenTriangle, height int) []Scanline {
	a, b, c := sortVertices(tri.V)
	if a[1] == c[1] {
		return dst
	}

	// The long edge a->c lies on one side for the whole triangle.
	facingRight := b[0] > c[0]
	emit := func(short mgl32.Vec3, long mgl32.Vec3) {
		l, r := short, long
		if !facingRight {
			l, r = r, l
		}
		if l[0] < r[0] {
			l, r = r, l
		}
		dst = append(dst, Scanline{Left: l, Right: r})
	}

	ay, by, cy := math32.Floor(a[1]), math32.Floor(b[1]), math32.Floor(c[1])
	if ay != by {
		lo, hi := clipSpan(ay, by, height)
		for y := lo; y <= hi; y++ {
			emit(edgePoint(a, b, float32(y)), edgePoint(a, c, float32(y)))
		}
	}
	if by != cy {
		start := by
		if ay != by {
			start++
		}
		lo, hi := clipSpan(start, cy, height)
		for y := lo; y <= hi; y++ {
			emit(edgePoint(b, c, float32(y)), edgePoint(a, c, float32(y)))
		}
	}
	return dst
}

// clipSpan clips the floored interval [from, to] to [0, limit). The bounds
// are clamped as floats so far off-screen coordinates never reach an int
// conversion; an empty span has lo > hi.
func clipSpan(from, to float32, limit int) (lo, hi int) {
	from = math32.Max(from, 0)
	to = math32.Min(to, float32(limit-1))
	if from > to {
		return 0, -1
	}
	return int(from), int(to)
}

// fill walks each scanline from Left to Right inclusive, interpolating depth
// by step index, and plots every pixel in [0, width). Columns outside the
// frame are never visited. It returns the number of pixels that won the
// depth test.
func fill(depth *DepthBuffer, lines []Scanline, glyph rune) int {
	written := 0
	for _, s := range lines {
		y := int(math32.Floor(s.Left[1]))
		if y < 0 || y >= depth.height {
			continue
		}
		left := math32.Floor(s.Left[0])
		right := math32.Floor(s.Right[0])
		steps := left - right
		lo, hi := clipSpan(right, left, depth.width)
		for x := hi; x >= lo; x-- {
			z := s.Left[2]
			if steps > 0 {
				step := left - float32(x)
				z += (s.Right[2] - s.Left[2]) * step / steps
			}
			if depth.Plot(x, y, z, glyph) {
				written++
			}
		}
	}
	return written
}

// rasterizer holds per-worker scratch space. It is not safe for concurrent
// use; each dispatch task owns one.
type rasterizer struct {
	depth    *DepthBuffer
	gradient Gradient
	eye      mgl32.Vec3
	light    mgl32.Vec3
	lines    []Scanline
}

// draw shades and fills one visible triangle.
func (r *rasterizer) draw(world Triangle, screen ScreenTriangle) int {
	glyph := r.gradient.Glyph(shade(world, r.eye, r.light))
	return r.drawGlyph(screen, glyph)
}

func (r *rasterizer) drawGlyph(screen ScreenTriangle, glyph rune) int {
	r.lines = scanlines(r.lines[:0], screen, r.depth.height)
	return fill(r.depth, r.lines, glyph)
}
