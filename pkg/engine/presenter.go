package engine

import (
	"sync"
	"sync/atomic"

	"simplerenderer/internal/logger"
)

// Device receives completed frames: width*height glyphs, row-major.
type Device interface {
	Present(frame []rune, width, height int) error
	Close() error
}

// PresenterState is the presenter worker's lifecycle state.
type PresenterState int32

const (
	PresenterIdle PresenterState = iota
	PresenterPresenting
	PresenterTerminated
)

func (s PresenterState) String() string {
	switch s {
	case PresenterIdle:
		return "idle"
	case PresenterPresenting:
		return "presenting"
	case PresenterTerminated:
		return "terminated"
	}
	return "unknown"
}

// none marks an empty slot.
const none = -1

// Presenter is the background worker that copies completed buffers to the
// device. The producer hands over a buffer index through a single ready slot;
// at most one buffer is pending and at most one is being presented.
type Presenter struct {
	fb     *FrameBuffer
	device Device
	log    *logger.Logger

	mutex    sync.Mutex
	cond     *sync.Cond
	pending  int
	inFlight int
	stopping bool
	started  bool
	state    atomic.Int32

	done     chan struct{}
	stopOnce sync.Once

	presented atomic.Uint64
	failed    atomic.Uint64
}

// NewPresenter creates a presenter reading from fb. Call Start to launch the
// worker.
func NewPresenter(fb *FrameBuffer, device Device, log *logger.Logger) *Presenter {
	p := &Presenter{
		fb:       fb,
		device:   device,
		log:      log,
		pending:  none,
		inFlight: none,
		done:     make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mutex)
	return p
}

// Start launches the worker goroutine. Calling it more than once has no effect.
func (p *Presenter) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.started || p.stopping {
		return
	}
	p.started = true
	go p.loop()
	p.log.Info("presenter started")
}

func (p *Presenter) loop() {
	defer close(p.done)
	w, h := p.fb.Width(), p.fb.Height()

	for {
		p.mutex.Lock()
		for p.pending == none && !p.stopping {
			p.cond.Wait()
		}
		if p.pending == none {
			p.state.Store(int32(PresenterTerminated))
			p.cond.Broadcast()
			p.mutex.Unlock()
			return
		}
		idx := p.pending
		p.pending = none
		p.inFlight = idx
		p.state.Store(int32(PresenterPresenting))
		p.cond.Broadcast()
		p.mutex.Unlock()

		if err := p.device.Present(p.fb.Buffer(idx), w, h); err != nil {
			p.failed.Add(1)
			p.log.Warnf("present failed, frame dropped: %v", err)
		} else {
			p.presented.Add(1)
		}

		p.mutex.Lock()
		p.inFlight = none
		p.state.Store(int32(PresenterIdle))
		p.cond.Broadcast()
		p.mutex.Unlock()
	}
}

// Submit marks buffer idx ready for presentation. With block set it waits
// for the slot to empty; otherwise it returns false when a frame is still
// pending. It also returns false once Stop has been called.
func (p *Presenter) Submit(idx int, block bool) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for block && p.pending != none && !p.stopping {
		p.cond.Wait()
	}
	if p.stopping || p.pending != none {
		return false
	}
	p.pending = idx
	p.cond.Broadcast()
	return true
}

// AwaitWritable blocks until buffer idx is neither pending nor being
// presented, so the producer can overwrite it.
func (p *Presenter) AwaitWritable(idx int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for (p.pending == idx && p.started) || p.inFlight == idx {
		p.cond.Wait()
	}
}

// Stop lets the worker present any pending frame, then terminates and joins
// it. Stop is idempotent.
func (p *Presenter) Stop() {
	p.stopOnce.Do(func() {
		p.mutex.Lock()
		p.stopping = true
		started := p.started
		if !started {
			p.pending = none
			p.state.Store(int32(PresenterTerminated))
		}
		p.cond.Broadcast()
		p.mutex.Unlock()

		if started {
			<-p.done
			p.log.Infof("presenter stopped after %d frames", p.presented.Load())
		}
	})
}

// State returns the worker's current state.
func (p *Presenter) State() PresenterState {
	return PresenterState(p.state.Load())
}

// Presented returns the number of frames delivered to the device.
func (p *Presenter) Presented() uint64 { return p.presented.Load() }

// Failed returns the number of frames the device rejected.
func (p *Presenter) Failed() uint64 { return p.failed.Load() }
