package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
)

func testRendererConfig() config.RendererConfig {
	return config.RendererConfig{
		Width:         16,
		Height:        8,
		Mode:          config.ModeSequential,
		Buffers:       2,
		CharSet:       DefaultGradient,
		Blank:         " ",
		CullBackfaces: true,
		PresentPolicy: config.PresentBlock,
	}
}

func newTestRenderer(t *testing.T, cfg config.RendererConfig, device Device) *ConsoleRenderer {
	t.Helper()
	r, err := NewConsoleRenderer(cfg, config.LightConfig{Position: [3]float32{0, 10, 0}}, device, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestRendererDrawsCube(t *testing.T) {
	device := &fakeDevice{}
	r := newTestRenderer(t, testRendererConfig(), device)
	r.SetCamera(testCamera())

	h, err := r.RegisterMesh("builtin:cube")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.DrawMesh(h, mgl32.Scale3D(2, 2, 2)); err != nil {
		t.Fatal(err)
	}
	if err := r.Flush(context.Background(), 1.0/30); err != nil {
		t.Fatal(err)
	}
	r.Close()

	frames := device.Frames()
	if len(frames) != 1 {
		t.Fatalf("device received %d frames, want 1", len(frames))
	}
	rows := []rune(frames[0])
	if len(rows) != 16*8 {
		t.Fatalf("frame has %d cells, want %d", len(rows), 16*8)
	}
	if c := rows[4*16+8]; c == ' ' {
		t.Errorf("centre cell is blank:\n%s", frames[0])
	}
	if c := rows[0]; c != ' ' {
		t.Errorf("corner cell = %q, want blank", c)
	}

	s := r.Stats()
	if s.Flushed != 1 || s.Presented != 1 || s.Dropped != 0 {
		t.Errorf("Stats() = %+v", s)
	}
	// Only the two triangles of the face towards the camera survive culling.
	if s.Submitted != 12 || s.Discarded != 10 {
		t.Errorf("submitted %d discarded %d, want 12 and 10", s.Submitted, s.Discarded)
	}
	if !device.closed {
		t.Error("Close did not close the device")
	}
}

func TestRendererRejectsInvalidMesh(t *testing.T) {
	r := newTestRenderer(t, testRendererConfig(), &fakeDevice{})
	for _, h := range []MeshHandle{InvalidMesh, 42} {
		if err := r.DrawMesh(h, mgl32.Ident4()); !errors.Is(err, ErrInvalidMesh) {
			t.Errorf("DrawMesh(%d) = %v, want ErrInvalidMesh", h, err)
		}
	}
	if h, err := r.RegisterMesh("missing.obj"); err == nil || h.Valid() {
		t.Errorf("RegisterMesh(missing) = %v, %v", h, err)
	}
}

func TestFlushNeedsCamera(t *testing.T) {
	device := &fakeDevice{}
	r := newTestRenderer(t, testRendererConfig(), device)
	if err := r.Flush(context.Background(), 0); !errors.Is(err, ErrNoCamera) {
		t.Errorf("Flush() = %v, want ErrNoCamera", err)
	}
	r.Close()
	if n := len(device.Frames()); n != 0 {
		t.Errorf("device received %d frames", n)
	}
}

func TestEmptyFlushPresentsBlankFrame(t *testing.T) {
	device := &fakeDevice{}
	cfg := testRendererConfig()
	cfg.Blank = "~"
	r := newTestRenderer(t, cfg, device)
	r.SetCamera(testCamera())

	if err := r.Flush(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	r.Close()
	frames := device.Frames()
	if len(frames) != 1 || frames[0] != strings.Repeat("~", 16*8) {
		t.Errorf("frames = %q", frames)
	}
}

func TestCancelledFlushIsNotPresented(t *testing.T) {
	device := &fakeDevice{}
	r := newTestRenderer(t, testRendererConfig(), device)
	r.SetCamera(testCamera())
	h, _ := r.RegisterMesh("builtin:cube")
	r.DrawMesh(h, mgl32.Ident4())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Flush(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("Flush() = %v, want context.Canceled", err)
	}
	r.Close()
	if n := len(device.Frames()); n != 0 {
		t.Errorf("device received %d frames after a cancelled flush", n)
	}
	if s := r.Stats(); s.Flushed != 0 {
		t.Errorf("Flushed = %d, want 0", s.Flushed)
	}
}

func TestFlushEmptiesQueue(t *testing.T) {
	r := newTestRenderer(t, testRendererConfig(), &fakeDevice{})
	r.SetCamera(testCamera())
	h, _ := r.RegisterMesh("builtin:cube")
	r.DrawMesh(h, mgl32.Ident4())

	if err := r.Flush(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Flush(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if s := r.Stats(); s.Submitted != 12 || s.Flushed != 2 {
		t.Errorf("Stats() = %+v, want 12 triangles over 2 frames", s)
	}
}

func TestSkipPolicyDropsFrames(t *testing.T) {
	device := &fakeDevice{gate: make(chan struct{})}
	cfg := testRendererConfig()
	cfg.PresentPolicy = config.PresentSkip
	cfg.Buffers = 3
	r := newTestRenderer(t, cfg, device)
	r.SetCamera(testCamera())

	ctx := context.Background()
	if err := r.Flush(ctx, 0); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "presenting", func() bool { return r.presenter.State() == PresenterPresenting })
	for i := 0; i < 2; i++ {
		if err := r.Flush(ctx, 0); err != nil {
			t.Fatal(err)
		}
	}

	close(device.gate)
	r.Close()
	s := r.Stats()
	if s.Flushed != 3 || s.Presented != 2 || s.Dropped != 1 {
		t.Errorf("Stats() = %+v, want 3 flushed, 2 presented, 1 dropped", s)
	}
}

func TestRendererClosed(t *testing.T) {
	r := newTestRenderer(t, testRendererConfig(), &fakeDevice{})
	r.SetCamera(testCamera())
	h, _ := r.RegisterMesh("builtin:tetra")
	r.Close()
	r.Close()

	if err := r.DrawMesh(h, mgl32.Ident4()); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("DrawMesh after Close = %v", err)
	}
	if err := r.Flush(context.Background(), 0); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Flush after Close = %v", err)
	}
}

func TestFrameTimeAverage(t *testing.T) {
	r := newTestRenderer(t, testRendererConfig(), &fakeDevice{})
	r.SetCamera(testCamera())
	for _, dt := range []float64{0.01, 0.03} {
		if err := r.Flush(context.Background(), dt); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.Stats().FrameTime; math.Abs(got-0.02) > 1e-9 {
		t.Errorf("FrameTime = %v, want 0.02", got)
	}
}

func TestNewConsoleRendererValidates(t *testing.T) {
	if _, err := NewConsoleRenderer(testRendererConfig(), config.LightConfig{}, nil, logger.Discard()); err == nil {
		t.Error("nil device accepted")
	}
	cfg := testRendererConfig()
	cfg.Buffers = 1
	if _, err := NewConsoleRenderer(cfg, config.LightConfig{}, &fakeDevice{}, logger.Discard()); err == nil {
		t.Error("single buffer accepted")
	}
}
