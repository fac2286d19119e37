package engine

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"simplerenderer/internal/util"
)

// World basis vectors.
var (
	worldForward = mgl32.Vec3{0, 0, 1}
	worldUp      = mgl32.Vec3{0, 1, 0}
	worldRight   = mgl32.Vec3{1, 0, 0}
)

// Transform holds translation, orientation and scale and lazily composes them
// into a model matrix. The cached matrix is valid while dirty is false; every
// mutator sets dirty.
//
// A Transform is not safe for concurrent use. The renderer reads model
// matrices once per draw call on the caller's goroutine.
type Transform struct {
	translation mgl32.Vec3
	rotation    mgl32.Quat
	scale       mgl32.Vec3

	translationMatrix mgl32.Mat4
	rotationMatrix    mgl32.Mat4
	scaleMatrix       mgl32.Mat4
	matrix            mgl32.Mat4
	dirty             bool
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		matrix:   mgl32.Ident4(),
		dirty:    true,
	}
}

// Position returns the translation.
func (t *Transform) Position() mgl32.Vec3 { return t.translation }

// SetPosition replaces the translation.
func (t *Transform) SetPosition(x, y, z float32) {
	t.translation = mgl32.Vec3{x, y, z}
	t.dirty = true
}

// Translate adds to the translation.
func (t *Transform) Translate(x, y, z float32) {
	t.translation = t.translation.Add(mgl32.Vec3{x, y, z})
	t.dirty = true
}

// Orientation returns the rotation quaternion.
func (t *Transform) Orientation() mgl32.Quat { return t.rotation }

// SetOrientation replaces the rotation. q is normalised.
func (t *Transform) SetOrientation(q mgl32.Quat) {
	t.rotation = q.Normalize()
	t.dirty = true
}

// SetRotation sets the orientation from euler angles in degrees, applied
// about X, then Y, then Z.
func (t *Transform) SetRotation(x, y, z float32) {
	qx := mgl32.QuatRotate(mgl32.DegToRad(x), worldRight)
	qy := mgl32.QuatRotate(mgl32.DegToRad(y), worldUp)
	qz := mgl32.QuatRotate(mgl32.DegToRad(z), worldForward)
	t.rotation = qz.Mul(qy).Mul(qx).Normalize()
	t.dirty = true
}

// Rotation returns the orientation as euler angles in degrees (pitch, yaw, roll).
func (t *Transform) Rotation() mgl32.Vec3 {
	q := t.rotation
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	pitch := math32.Atan2(2*(y*z+w*x), w*w-x*x-y*y+z*z)
	yaw := math32.Asin(util.Clamp(-2*(x*z-w*y), -1, 1))
	roll := math32.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)

	return mgl32.Vec3{mgl32.RadToDeg(pitch), mgl32.RadToDeg(yaw), mgl32.RadToDeg(roll)}
}

// Rotate composes a rotation of theta degrees about axis onto the current
// orientation. A zero axis is ignored.
func (t *Transform) Rotate(theta float32, axis mgl32.Vec3) {
	if axis.Len() == 0 {
		return
	}
	t.rotation = t.rotation.Mul(mgl32.QuatRotate(mgl32.DegToRad(theta), axis.Normalize())).Normalize()
	t.dirty = true
}

// RotateX rotates theta degrees about the X axis.
func (t *Transform) RotateX(theta float32) { t.Rotate(theta, worldRight) }

// RotateY rotates theta degrees about the Y axis.
func (t *Transform) RotateY(theta float32) { t.Rotate(theta, worldUp) }

// RotateZ rotates theta degrees about the Z axis.
func (t *Transform) RotateZ(theta float32) { t.Rotate(theta, worldForward) }

// ScaleFactor returns the per-axis scale.
func (t *Transform) ScaleFactor() mgl32.Vec3 { return t.scale }

// SetScale sets a uniform scale.
func (t *Transform) SetScale(s float32) { t.SetScale3(s, s, s) }

// SetScale3 sets a per-axis scale.
func (t *Transform) SetScale3(x, y, z float32) {
	t.scale = mgl32.Vec3{x, y, z}
	t.dirty = true
}

// Scale multiplies the scale uniformly.
func (t *Transform) Scale(s float32) { t.Scale3(s, s, s) }

// Scale3 multiplies the scale per axis.
func (t *Transform) Scale3(x, y, z float32) {
	t.scale = mgl32.Vec3{t.scale[0] * x, t.scale[1] * y, t.scale[2] * z}
	t.dirty = true
}

// Forward returns world +Z rotated by the orientation.
func (t *Transform) Forward() mgl32.Vec3 { return t.rotation.Rotate(worldForward) }

// Up returns world +Y rotated by the orientation.
func (t *Transform) Up() mgl32.Vec3 { return t.rotation.Rotate(worldUp) }

// Right returns world +X rotated by the orientation.
func (t *Transform) Right() mgl32.Vec3 { return t.rotation.Rotate(worldRight) }

// TranslationMatrix returns the cached translation matrix.
func (t *Transform) TranslationMatrix() mgl32.Mat4 {
	t.rebuild()
	return t.translationMatrix
}

// RotationMatrix returns the cached rotation matrix.
func (t *Transform) RotationMatrix() mgl32.Mat4 {
	t.rebuild()
	return t.rotationMatrix
}

// ScaleMatrix returns the cached scale matrix.
func (t *Transform) ScaleMatrix() mgl32.Mat4 {
	t.rebuild()
	return t.scaleMatrix
}

// Matrix returns the composed model matrix translation * rotation * scale,
// rebuilding it only when a mutator ran since the last call.
func (t *Transform) Matrix() mgl32.Mat4 {
	t.rebuild()
	return t.matrix
}

// Dirty reports whether the next Matrix call rebuilds.
func (t *Transform) Dirty() bool { return t.dirty }

func (t *Transform) rebuild() {
	if !t.dirty {
		return
	}
	t.scaleMatrix = mgl32.Scale3D(t.scale[0], t.scale[1], t.scale[2])
	t.rotationMatrix = t.rotation.Mat4()
	t.translationMatrix = mgl32.Translate3D(t.translation[0], t.translation[1], t.translation[2])
	t.matrix = t.translationMatrix.Mul4(t.rotationMatrix).Mul4(t.scaleMatrix)
	t.dirty = false
}
