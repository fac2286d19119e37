package engine

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidMesh is returned when drawing a handle that was never registered.
	ErrInvalidMesh = errors.New("invalid mesh handle")
	// ErrRendererClosed is returned by calls made after Close.
	ErrRendererClosed = errors.New("renderer closed")
	// ErrNoCamera is returned by Flush when no camera has been set.
	ErrNoCamera = errors.New("no active camera")
)

// Renderer defines the interface scene objects render through
type Renderer interface {
	// RegisterMesh loads a mesh once and returns its handle, or InvalidMesh
	// with the reason on failure
	RegisterMesh(source string) (MeshHandle, error)

	// DrawMesh queues one draw of a mesh for the current frame
	DrawMesh(handle MeshHandle, model mgl32.Mat4) error

	// SetCamera sets the active camera
	SetCamera(camera *Camera)

	// Flush rasterizes the queued draws and hands the frame to the presenter
	Flush(ctx context.Context, deltaTime float64) error

	// Close stops presentation and releases resources
	Close()
}
