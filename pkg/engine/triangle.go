package engine

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Triangle is a model- or world-space triangle. Front faces wind
// counter-clockwise, so Normal points out of the surface.
type Triangle struct {
	V [3]mgl32.Vec3
}

// Tri builds a triangle from three vertices.
func Tri(a, b, c mgl32.Vec3) Triangle {
	return Triangle{V: [3]mgl32.Vec3{a, b, c}}
}

// Transform returns a new triangle with every vertex multiplied by m.
func (t Triangle) Transform(m mgl32.Mat4) Triangle {
	var out Triangle
	for i, v := range t.V {
		out.V[i] = mgl32.TransformCoordinate(v, m)
	}
	return out
}

// Normal returns the unit surface normal (v1-v0) x (v2-v0), or the zero
// vector for a degenerate triangle.
func (t Triangle) Normal() mgl32.Vec3 {
	n := t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0]))
	if n.Len() == 0 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}

// Centroid returns the average of the three vertices.
func (t Triangle) Centroid() mgl32.Vec3 {
	return t.V[0].Add(t.V[1]).Add(t.V[2]).Mul(1.0 / 3.0)
}

// ScreenTriangle is a projected triangle: X and Y are pixel coordinates with
// Y growing downwards, Z is depth where smaller is nearer.
type ScreenTriangle struct {
	V [3]mgl32.Vec3
}

// Visibility is the outcome of projecting a triangle. Anything other than
// Visible means the triangle must not be rasterized.
type Visibility uint8

const (
	Visible Visibility = iota
	BehindCamera
	NearClipped
	BackFacing
	Degenerate
	OffScreen
)

var visibilityNames = [...]string{
	Visible:      "visible",
	BehindCamera: "behind camera",
	NearClipped:  "near clipped",
	BackFacing:   "back facing",
	Degenerate:   "degenerate",
	OffScreen:    "off screen",
}

func (v Visibility) String() string {
	if int(v) < len(visibilityNames) {
		return visibilityNames[v]
	}
	return "unknown"
}

// Discard reports whether the triangle must be skipped.
func (v Visibility) Discard() bool { return v != Visible }
