package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ComponentKind keys an object's components. An object holds at most one
// component of each kind.
type ComponentKind uint8

const (
	TransformKind ComponentKind = iota
	MeshKind
	SpinKind
	CameraKind
)

func (k ComponentKind) String() string {
	switch k {
	case TransformKind:
		return "transform"
	case MeshKind:
		return "mesh"
	case SpinKind:
		return "spin"
	case CameraKind:
		return "camera"
	}
	return "unknown"
}

// Component is a piece of object behaviour.
type Component interface {
	Kind() ComponentKind
	Update(o *Object, deltaTime float64)
}

// Drawable is implemented by components that queue draws.
type Drawable interface {
	Render(o *Object, r Renderer)
}

// TransformComponent places an object in the world.
type TransformComponent struct {
	*Transform
}

// NewTransformComponent wraps a fresh identity transform.
func NewTransformComponent() *TransformComponent {
	return &TransformComponent{Transform: NewTransform()}
}

func (c *TransformComponent) Kind() ComponentKind { return TransformKind }
func (c *TransformComponent) Update(*Object, float64) {}

// MeshComponent draws a registered mesh with its object's transform. A
// component whose mesh failed to register is invisible.
type MeshComponent struct {
	Handle  MeshHandle
	Source  string
	visible bool
}

// NewMeshComponent creates a component for h.
func NewMeshComponent(source string, h MeshHandle) *MeshComponent {
	return &MeshComponent{Handle: h, Source: source, visible: h.Valid()}
}

func (c *MeshComponent) Kind() ComponentKind { return MeshKind }
func (c *MeshComponent) Update(*Object, float64) {}

// Visible reports whether the component queues draws.
func (c *MeshComponent) Visible() bool { return c.visible }

// SetVisible toggles drawing. An invalid mesh stays invisible.
func (c *MeshComponent) SetVisible(v bool) { c.visible = v && c.Handle.Valid() }

// Render queues the mesh with the object's model matrix.
func (c *MeshComponent) Render(o *Object, r Renderer) {
	if !c.visible {
		return
	}
	t := o.Transform()
	if t == nil {
		return
	}
	if err := r.DrawMesh(c.Handle, t.Matrix()); errors.Is(err, ErrInvalidMesh) {
		c.visible = false
	}
}

// SpinComponent rotates its object at a constant rate.
type SpinComponent struct {
	Rate mgl32.Vec3 // degrees per second about X, Y and Z
}

func (c *SpinComponent) Kind() ComponentKind { return SpinKind }

// Update advances the rotation by Rate * deltaTime.
func (c *SpinComponent) Update(o *Object, deltaTime float64) {
	t := o.Transform()
	if t == nil {
		return
	}
	dt := float32(deltaTime)
	if c.Rate[0] != 0 {
		t.RotateX(c.Rate[0] * dt)
	}
	if c.Rate[1] != 0 {
		t.RotateY(c.Rate[1] * dt)
	}
	if c.Rate[2] != 0 {
		t.RotateZ(c.Rate[2] * dt)
	}
}

// CameraComponent makes its object a viewpoint. The camera shares the
// object's transform.
type CameraComponent struct {
	Camera *Camera
}

func (c *CameraComponent) Kind() ComponentKind { return CameraKind }
func (c *CameraComponent) Update(*Object, float64) {}
