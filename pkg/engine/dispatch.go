package engine

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest number of triangles handed to one task.
const minChunk = 64

// drawCall is one resolved render-queue entry.
type drawCall struct {
	mesh  *Mesh
	model mgl32.Mat4
}

// DispatchStats counts the triangles one dispatch processed.
type DispatchStats struct {
	Submitted uint64
	Discarded uint64
	Pixels    uint64
}

// dispatcher runs the projector and rasterizer over every triangle of a
// frame, either in order on the calling goroutine or split across workers.
type dispatcher struct {
	parallel bool
	workers  int
	gradient Gradient
	light    mgl32.Vec3
}

func newDispatcher(parallel bool, workers int, gradient Gradient, light mgl32.Vec3) *dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &dispatcher{parallel: parallel, workers: workers, gradient: gradient, light: light}
}

// run rasterizes calls into depth. It returns once every task has finished,
// with ctx.Err() if the frame was abandoned.
func (d *dispatcher) run(ctx context.Context, proj Projector, depth *DepthBuffer, calls []drawCall) (DispatchStats, error) {
	var stats counters
	var err error
	if d.parallel && d.workers > 1 {
		err = d.runParallel(ctx, proj, depth, calls, &stats)
	} else {
		err = d.runSequential(ctx, proj, depth, calls, &stats)
	}
	return stats.snapshot(), err
}

func (d *dispatcher) newRasterizer(proj Projector, depth *DepthBuffer) *rasterizer {
	return &rasterizer{depth: depth, gradient: d.gradient, eye: proj.Eye(), light: d.light}
}

func (d *dispatcher) runSequential(ctx context.Context, proj Projector, depth *DepthBuffer, calls []drawCall, stats *counters) error {
	r := d.newRasterizer(proj, depth)
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		drawRange(r, proj, call, 0, len(call.mesh.Triangles), stats)
	}
	return nil
}

// chunk is a contiguous triangle range of one draw call.
type chunk struct {
	call       int
	start, end int
}

func (d *dispatcher) chunks(calls []drawCall) []chunk {
	total := 0
	for _, c := range calls {
		total += len(c.mesh.Triangles)
	}
	size := (total + d.workers - 1) / d.workers
	if size < minChunk {
		size = minChunk
	}

	var out []chunk
	for i, c := range calls {
		n := len(c.mesh.Triangles)
		for start := 0; start < n; start += size {
			end := start + size
			if end > n {
				end = n
			}
			out = append(out, chunk{call: i, start: start, end: end})
		}
	}
	return out
}

func (d *dispatcher) runParallel(ctx context.Context, proj Projector, depth *DepthBuffer, calls []drawCall, stats *counters) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, ch := range d.chunks(calls) {
		ch := ch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			drawRange(d.newRasterizer(proj, depth), proj, calls[ch.call], ch.start, ch.end, stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func drawRange(r *rasterizer, proj Projector, call drawCall, start, end int, stats *counters) {
	var discarded, pixels uint64
	for _, tri := range call.mesh.Triangles[start:end] {
		p := proj.ProjectToScreenSpace(tri, call.model)
		if p.Visibility.Discard() {
			discarded++
			continue
		}
		pixels += uint64(r.draw(p.World, p.Screen))
	}
	stats.submitted.Add(uint64(end - start))
	stats.discarded.Add(discarded)
	stats.pixels.Add(pixels)
}

type counters struct {
	submitted atomic.Uint64
	discarded atomic.Uint64
	pixels    atomic.Uint64
}

func (c *counters) snapshot() DispatchStats {
	return DispatchStats{
		Submitted: c.submitted.Load(),
		Discarded: c.discarded.Load(),
		Pixels:    c.pixels.Load(),
	}
}
