package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
)

// Factory builds scene objects from configuration, registering their meshes
// with the renderer.
type Factory struct {
	renderer Renderer
	lens     config.CameraConfig
	log      *logger.Logger
}

// NewFactory creates a factory. lens supplies FOV and clip planes for camera
// objects.
func NewFactory(r Renderer, lens config.CameraConfig, log *logger.Logger) *Factory {
	return &Factory{renderer: r, lens: lens, log: log}
}

// NewObject builds an object of def.Kind. A model whose mesh fails to load is
// still returned; its mesh component is invisible.
func (f *Factory) NewObject(def config.ObjectConfig) (*Object, error) {
	o := NewObject(def.Name)
	tc := NewTransformComponent()
	tc.SetPosition(def.Position[0], def.Position[1], def.Position[2])
	tc.SetRotation(def.Rotation[0], def.Rotation[1], def.Rotation[2])
	if def.Scale != ([3]float32{}) {
		tc.SetScale3(def.Scale[0], def.Scale[1], def.Scale[2])
	}
	o.Add(tc)

	switch def.Kind {
	case config.ObjectCamera:
		lens := f.lens
		lens.Position = def.Position
		lens.Rotation = def.Rotation
		cam := NewCamera(lens)
		cam.Transform = tc.Transform
		o.Add(&CameraComponent{Camera: cam})

	case config.ObjectModel, config.ObjectSpinningModel:
		h, err := f.renderer.RegisterMesh(def.Mesh)
		if err != nil {
			f.log.Warnf("object %q will be invisible: %v", def.Name, err)
		}
		o.Add(NewMeshComponent(def.Mesh, h))

	default:
		return nil, errors.Errorf("unknown object kind %q", def.Kind)
	}

	if def.Spin != ([3]float32{}) || def.Kind == config.ObjectSpinningModel {
		o.Add(&SpinComponent{Rate: mgl32.Vec3{def.Spin[0], def.Spin[1], def.Spin[2]}})
	}
	return o, nil
}

// Populate adds every configured object to scene. Without a camera object the
// default camera from the lens configuration is added.
func (f *Factory) Populate(scene *Scene, defs []config.ObjectConfig) error {
	for _, def := range defs {
		o, err := f.NewObject(def)
		if err != nil {
			return errors.Wrapf(err, "object %q", def.Name)
		}
		if _, err := scene.Add(o); err != nil {
			return err
		}
	}
	if scene.Camera() == nil {
		o, err := f.NewObject(config.ObjectConfig{
			Name:     "camera",
			Kind:     config.ObjectCamera,
			Position: f.lens.Position,
			Rotation: f.lens.Rotation,
		})
		if err != nil {
			return err
		}
		if _, err := scene.Add(o); err != nil {
			return err
		}
	}
	f.renderer.SetCamera(scene.Camera())
	return nil
}
