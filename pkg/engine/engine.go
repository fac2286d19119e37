package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
)

// QuitRequester is implemented by devices that can ask the engine to stop,
// for example when the user presses ESC.
type QuitRequester interface {
	Done() <-chan struct{}
}

// Engine represents the main render loop
type Engine struct {
	config     *config.Config
	logger     *logger.Logger
	renderer   *ConsoleRenderer
	scene      *Scene
	quit       <-chan struct{}
	frameRate  int
	lastUpdate time.Time
	lastStats  time.Time
}

// NewEngine creates the renderer on device and populates the scene from cfg.
// The engine owns device from the moment it is called: on any error the
// device has already been closed.
func NewEngine(cfg *config.Config, device Device, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		closeDevice(device, log)
		return nil, errors.Wrap(err, "invalid configuration")
	}

	renderer, err := NewConsoleRenderer(cfg.Renderer, cfg.Light, device, log.Named("renderer"))
	if err != nil {
		closeDevice(device, log)
		return nil, errors.Wrap(err, "failed to initialize renderer")
	}

	scene := NewScene()
	factory := NewFactory(renderer, cfg.Camera, log.Named("factory"))
	if err := factory.Populate(scene, cfg.Scene.Objects); err != nil {
		renderer.Close()
		return nil, errors.Wrap(err, "failed to build scene")
	}

	e := &Engine{
		config:    cfg,
		logger:    log,
		renderer:  renderer,
		scene:     scene,
		frameRate: cfg.Renderer.FrameRate,
	}
	if q, ok := device.(QuitRequester); ok {
		e.quit = q.Done()
	}
	log.Infof("engine ready with %d objects", scene.Len())
	return e, nil
}

// Scene returns the engine's scene.
func (e *Engine) Scene() *Scene { return e.scene }

// Renderer returns the engine's renderer.
func (e *Engine) Renderer() *ConsoleRenderer { return e.renderer }

// Run drives frames until ctx is cancelled or the device requests quit, then
// shuts the renderer down. A cancelled frame is never presented.
func (e *Engine) Run(ctx context.Context) error {
	defer e.cleanup()

	e.logger.Info("engine started")
	e.lastUpdate = time.Now()
	e.lastStats = e.lastUpdate

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quit:
			e.logger.Info("quit requested by device")
			return nil
		default:
		}

		currentTime := time.Now()
		deltaTime := currentTime.Sub(e.lastUpdate).Seconds()
		e.lastUpdate = currentTime

		if err := e.Step(ctx, deltaTime); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if currentTime.Sub(e.lastStats) >= time.Second {
			e.lastStats = currentTime
			s := e.renderer.Stats()
			e.logger.Debugf("frames %d presented %d dropped %d, %.1f ms/frame, %d/%d triangles discarded",
				s.Flushed, s.Presented, s.Dropped, s.FrameTime*1000, s.Discarded, s.Submitted)
		}

		// Cap the frame rate
		if e.frameRate > 0 {
			frameTime := time.Since(currentTime)
			targetFrameTime := time.Second / time.Duration(e.frameRate)
			if frameTime < targetFrameTime {
				timer := time.NewTimer(targetFrameTime - frameTime)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}
			}
		}
	}
}

// Step updates the scene, queues its draws and flushes one frame.
func (e *Engine) Step(ctx context.Context, deltaTime float64) error {
	e.scene.Update(deltaTime)
	e.scene.Render(e.renderer)
	return e.renderer.Flush(ctx, deltaTime)
}

// cleanup stops presentation before the buffers are released.
func (e *Engine) cleanup() {
	e.logger.Info("shutting down engine...")
	e.renderer.Close()
	s := e.renderer.Stats()
	e.logger.Infof("engine stopped: %d frames rendered, %d presented", s.Flushed, s.Presented)
}

// closeDevice releases a device the renderer never took over.
func closeDevice(device Device, log *logger.Logger) {
	if device == nil {
		return
	}
	if err := device.Close(); err != nil {
		log.Warnf("failed to close device: %v", err)
	}
}
