package engine

import (
	"github.com/pkg/errors"
)

// ObjectID identifies an object within its Scene. Zero is never assigned.
type ObjectID uint32

// Object is a named bag of components keyed by kind.
type Object struct {
	id         ObjectID
	Name       string
	components map[ComponentKind]Component
}

// NewObject creates an object with no components.
func NewObject(name string) *Object {
	return &Object{Name: name, components: make(map[ComponentKind]Component)}
}

// ID returns the scene identifier, zero until the object is added.
func (o *Object) ID() ObjectID { return o.id }

// Add attaches c, replacing any component of the same kind.
func (o *Object) Add(c Component) {
	o.components[c.Kind()] = c
}

// Remove detaches the component of kind k.
func (o *Object) Remove(k ComponentKind) {
	delete(o.components, k)
}

// Component returns the component of kind k.
func (o *Object) Component(k ComponentKind) (Component, bool) {
	c, ok := o.components[k]
	return c, ok
}

// Transform returns the object's transform, or nil.
func (o *Object) Transform() *Transform {
	if c, ok := o.components[TransformKind].(*TransformComponent); ok {
		return c.Transform
	}
	return nil
}

// Camera returns the object's camera, or nil.
func (o *Object) Camera() *Camera {
	if c, ok := o.components[CameraKind].(*CameraComponent); ok {
		return c.Camera
	}
	return nil
}

// Update runs every component in kind order.
func (o *Object) Update(deltaTime float64) {
	for k := TransformKind; k <= CameraKind; k++ {
		if c, ok := o.components[k]; ok {
			c.Update(o, deltaTime)
		}
	}
}

// Render lets drawable components queue their draws.
func (o *Object) Render(r Renderer) {
	for k := TransformKind; k <= CameraKind; k++ {
		if d, ok := o.components[k].(Drawable); ok {
			d.Render(o, r)
		}
	}
}

// Scene owns its objects in an indexed pool. Freed slots are reused.
type Scene struct {
	slots []*Object
	free  []int
	count int
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add stores o and assigns its ID.
func (s *Scene) Add(o *Object) (ObjectID, error) {
	if o.id != 0 {
		return 0, errors.Errorf("object %q already belongs to a scene", o.Name)
	}
	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[idx] = o
	} else {
		idx = len(s.slots)
		s.slots = append(s.slots, o)
	}
	o.id = ObjectID(idx + 1)
	s.count++
	return o.id, nil
}

// Get returns the object with id.
func (s *Scene) Get(id ObjectID) (*Object, bool) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(s.slots) || s.slots[idx] == nil {
		return nil, false
	}
	return s.slots[idx], true
}

// Remove releases the object with id.
func (s *Scene) Remove(id ObjectID) bool {
	o, ok := s.Get(id)
	if !ok {
		return false
	}
	idx := int(id) - 1
	s.slots[idx] = nil
	s.free = append(s.free, idx)
	s.count--
	o.id = 0
	return true
}

// Len returns the number of live objects.
func (s *Scene) Len() int { return s.count }

// Each calls fn for every live object in slot order.
func (s *Scene) Each(fn func(*Object)) {
	for _, o := range s.slots {
		if o != nil {
			fn(o)
		}
	}
}

// Find returns the first object named name.
func (s *Scene) Find(name string) (*Object, bool) {
	for _, o := range s.slots {
		if o != nil && o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// Camera returns the first camera in the scene, or nil.
func (s *Scene) Camera() *Camera {
	for _, o := range s.slots {
		if o == nil {
			continue
		}
		if c := o.Camera(); c != nil {
			return c
		}
	}
	return nil
}

// Update advances every object.
func (s *Scene) Update(deltaTime float64) {
	s.Each(func(o *Object) { o.Update(deltaTime) })
}

// Render queues every visible mesh.
func (s *Scene) Render(r Renderer) {
	s.Each(func(o *Object) { o.Render(r) })
}
