package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/internal/util"
	"simplerenderer/pkg/config"
)

// queueEntry is one pending draw.
type queueEntry struct {
	handle MeshHandle
	model  mgl32.Mat4
}

// Stats summarises the renderer's work since construction.
type Stats struct {
	Flushed   uint64  // frames rasterized to completion
	Presented uint64  // frames the device accepted
	Dropped   uint64  // completed frames not handed to the presenter
	Failed    uint64  // frames the device rejected
	Submitted uint64  // triangles dispatched
	Discarded uint64  // triangles rejected by the projector
	Pixels    uint64  // pixels that won the depth test
	FrameTime float64 // rolling average of deltaTime in seconds
}

// ConsoleRenderer rasterizes meshes into character buffers and presents them
// on a background worker.
type ConsoleRenderer struct {
	config    config.RendererConfig
	log       *logger.Logger
	meshes    *MeshRegistry
	fb        *FrameBuffer
	presenter *Presenter
	dispatch  *dispatcher
	device    Device
	block     bool

	mutex  sync.Mutex
	queue  []queueEntry
	camera *Camera
	closed bool

	// flushMutex serialises Flush against Close.
	flushMutex sync.Mutex
	frameTime  *util.RollingAverage

	flushed   atomic.Uint64
	dropped   atomic.Uint64
	submitted atomic.Uint64
	discarded atomic.Uint64
	pixels    atomic.Uint64
}

// NewConsoleRenderer creates a renderer presenting to device and starts its
// presenter.
func NewConsoleRenderer(cfg config.RendererConfig, light config.LightConfig, device Device, log *logger.Logger) (*ConsoleRenderer, error) {
	if device == nil {
		return nil, errors.New("renderer needs an output device")
	}
	blank := ' '
	if r := []rune(cfg.Blank); len(r) > 0 {
		blank = r[0]
	}
	fb, err := NewFrameBuffer(cfg.Width, cfg.Height, cfg.Buffers, blank)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create frame buffer")
	}

	r := &ConsoleRenderer{
		config:    cfg,
		log:       log,
		meshes:    NewMeshRegistry(log.Named("mesh")),
		fb:        fb,
		presenter: NewPresenter(fb, device, log.Named("presenter")),
		dispatch: newDispatcher(cfg.Parallel(), cfg.Workers, NewGradient(cfg.CharSet),
			mgl32.Vec3{light.Position[0], light.Position[1], light.Position[2]}),
		device:    device,
		block:     cfg.BlockOnPresent(),
		frameTime: util.NewRollingAverage(60),
	}
	r.presenter.Start()

	mode := config.ModeSequential
	if r.dispatch.parallel {
		mode = config.ModeParallel
	}
	log.Infof("renderer %dx%d, %s with %d workers, %d buffers", cfg.Width, cfg.Height, mode, r.dispatch.workers, cfg.Buffers)
	return r, nil
}

// Meshes returns the renderer's mesh registry.
func (r *ConsoleRenderer) Meshes() *MeshRegistry { return r.meshes }

// RegisterMesh loads source into the registry.
func (r *ConsoleRenderer) RegisterMesh(source string) (MeshHandle, error) {
	return r.meshes.Register(source)
}

// DrawMesh queues a draw for the next Flush. Handles that are not
// registered are rejected with ErrInvalidMesh and nothing is queued.
func (r *ConsoleRenderer) DrawMesh(handle MeshHandle, model mgl32.Mat4) error {
	if _, ok := r.meshes.Get(handle); !ok {
		return ErrInvalidMesh
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	r.queue = append(r.queue, queueEntry{handle: handle, model: model})
	return nil
}

// SetCamera sets the active camera.
func (r *ConsoleRenderer) SetCamera(camera *Camera) {
	r.mutex.Lock()
	r.camera = camera
	r.mutex.Unlock()
}

// Camera returns the active camera, or nil.
func (r *ConsoleRenderer) Camera() *Camera {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.camera
}

// Flush clears the current buffer, rasterizes every queued draw, waits for
// all workers, then hands the buffer to the presenter and advances to the
// next one. The queue is emptied in every case. If ctx is cancelled during
// rasterization the partial frame is abandoned and ctx.Err() is returned.
func (r *ConsoleRenderer) Flush(ctx context.Context, deltaTime float64) error {
	r.flushMutex.Lock()
	defer r.flushMutex.Unlock()

	r.mutex.Lock()
	queue := r.queue
	r.queue = nil
	camera := r.camera
	closed := r.closed
	r.mutex.Unlock()

	if closed {
		return ErrRendererClosed
	}
	if camera == nil {
		return ErrNoCamera
	}
	r.frameTime.Add(deltaTime)

	cur := r.fb.Current()
	r.presenter.AwaitWritable(cur)
	r.fb.Clear()

	calls := make([]drawCall, 0, len(queue))
	for _, e := range queue {
		if mesh, ok := r.meshes.Get(e.handle); ok {
			calls = append(calls, drawCall{mesh: mesh, model: e.model})
		}
	}

	proj := camera.Projector(r.fb.Width(), r.fb.Height(), r.config.CullBackfaces)
	stats, err := r.dispatch.run(ctx, proj, r.fb.Depth(), calls)
	r.submitted.Add(stats.Submitted)
	r.discarded.Add(stats.Discarded)
	r.pixels.Add(stats.Pixels)
	if err != nil {
		r.log.Debugf("frame abandoned: %v", err)
		return err
	}

	r.fb.Resolve()
	r.flushed.Add(1)
	if r.presenter.Submit(cur, r.block) {
		r.fb.Rotate()
	} else {
		r.dropped.Add(1)
	}
	return nil
}

// Stats returns the renderer counters.
func (r *ConsoleRenderer) Stats() Stats {
	r.flushMutex.Lock()
	frameTime := r.frameTime.Average()
	r.flushMutex.Unlock()
	return Stats{
		Flushed:   r.flushed.Load(),
		Presented: r.presenter.Presented(),
		Dropped:   r.dropped.Load(),
		Failed:    r.presenter.Failed(),
		Submitted: r.submitted.Load(),
		Discarded: r.discarded.Load(),
		Pixels:    r.pixels.Load(),
		FrameTime: frameTime,
	}
}

// Close stops the presenter after it drains the pending frame, then closes
// the device. Further calls return ErrRendererClosed.
func (r *ConsoleRenderer) Close() {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return
	}
	r.closed = true
	r.queue = nil
	r.mutex.Unlock()

	r.flushMutex.Lock()
	defer r.flushMutex.Unlock()
	r.presenter.Stop()
	if err := r.device.Close(); err != nil {
		r.log.Warnf("failed to close device: %v", err)
	}
}
