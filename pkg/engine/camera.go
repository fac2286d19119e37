package engine

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"simplerenderer/pkg/config"
)

// Camera is the single active viewpoint. Its Transform supplies the eye
// position and orientation; the camera looks along Transform.Forward().
type Camera struct {
	Transform   *Transform
	FOV         float32 // vertical field of view in degrees
	Near        float32
	Far         float32
	PixelAspect float32 // width/height of one output cell
}

// NewCamera creates a camera from its configuration.
func NewCamera(cfg config.CameraConfig) *Camera {
	t := NewTransform()
	t.SetPosition(cfg.Position[0], cfg.Position[1], cfg.Position[2])
	t.SetRotation(cfg.Rotation[0], cfg.Rotation[1], cfg.Rotation[2])

	aspect := cfg.PixelAspect
	if aspect <= 0 {
		aspect = 1
	}
	return &Camera{
		Transform:   t,
		FOV:         cfg.FOV,
		Near:        cfg.Near,
		Far:         cfg.Far,
		PixelAspect: aspect,
	}
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := c.Transform.Position()
	return mgl32.LookAtV(eye, eye.Add(c.Transform.Forward()), c.Transform.Up())
}

// ProjectionMatrix returns the perspective projection for a width x height
// character grid.
func (c *Camera) ProjectionMatrix(width, height int) mgl32.Mat4 {
	aspect := float32(width) * c.PixelAspect / float32(height)
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// Projector snapshots the camera for one frame. The returned value shares
// nothing with the camera, so workers can use it while the camera moves.
func (c *Camera) Projector(width, height int, cull bool) Projector {
	return Projector{
		viewProj: c.ProjectionMatrix(width, height).Mul4(c.ViewMatrix()),
		eye:      c.Transform.Position(),
		near:     c.Near,
		width:    float32(width),
		height:   float32(height),
		cull:     cull,
	}
}

// Projector maps world triangles into screen space for one frame.
type Projector struct {
	viewProj mgl32.Mat4
	eye      mgl32.Vec3
	near     float32
	width    float32
	height   float32
	cull     bool
}

// Eye returns the camera position the projector was taken from.
func (p Projector) Eye() mgl32.Vec3 { return p.eye }

// Projection is the result of projecting one triangle. World is kept for
// lighting; Screen is only meaningful when Visibility is Visible.
type Projection struct {
	World      Triangle
	Screen     ScreenTriangle
	Visibility Visibility
}

// ProjectToScreenSpace applies model, then the camera's view and projection.
// Triangles with any vertex in front of the near plane are discarded rather
// than clipped.
func (p Projector) ProjectToScreenSpace(tri Triangle, model mgl32.Mat4) Projection {
	world := tri.Transform(model)
	out := Projection{World: world}

	var clip [3]mgl32.Vec4
	behind := 0
	for i, v := range world.V {
		clip[i] = p.viewProj.Mul4x1(v.Vec4(1))
		if clip[i][3] < p.near {
			behind++
		}
	}
	switch {
	case behind == 3:
		out.Visibility = BehindCamera
		return out
	case behind > 0:
		out.Visibility = NearClipped
		return out
	}

	if p.cull {
		n := world.Normal()
		if n.Len() == 0 {
			out.Visibility = Degenerate
			return out
		}
		if n.Dot(p.eye.Sub(world.Centroid())) <= 0 {
			out.Visibility = BackFacing
			return out
		}
	}

	for i, c := range clip {
		w := c[3]
		out.Screen.V[i] = mgl32.Vec3{
			(c[0]/w + 1) * 0.5 * p.width,
			(1 - c[1]/w) * 0.5 * p.height,
			c[2] / w,
		}
	}

	s := out.Screen.V
	area := (s[1][0]-s[0][0])*(s[2][1]-s[0][1]) - (s[2][0]-s[0][0])*(s[1][1]-s[0][1])
	if area == 0 || math32.IsNaN(area) {
		out.Visibility = Degenerate
		return out
	}

	if offScreen(s, p.width, p.height) {
		out.Visibility = OffScreen
		return out
	}

	out.Visibility = Visible
	return out
}

func offScreen(v [3]mgl32.Vec3, w, h float32) bool {
	minX := math32.Min(v[0][0], math32.Min(v[1][0], v[2][0]))
	maxX := math32.Max(v[0][0], math32.Max(v[1][0], v[2][0]))
	minY := math32.Min(v[0][1], math32.Min(v[1][1], v[2][1]))
	maxY := math32.Max(v[0][1], math32.Max(v[1][1], v[2][1]))
	minZ := math32.Min(v[0][2], math32.Min(v[1][2], v[2][2]))
	return maxX < 0 || minX >= w || maxY < 0 || minY >= h || minZ > 1
}
