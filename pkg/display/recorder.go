package display

import (
	"sync"

	"github.com/pkg/errors"
)

// Recorder keeps copies of presented frames in memory. With a limit of zero
// it only counts frames and serves as the null device.
type Recorder struct {
	mutex  sync.Mutex
	limit  int
	frames [][]rune
	count  int
	width  int
	height int
	closed bool
	fail   error
}

// NewRecorder keeps at most limit frames, dropping the oldest. A negative
// limit keeps every frame.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Present copies frame.
func (r *Recorder) Present(frame []rune, width, height int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return errors.New("recorder closed")
	}
	if r.fail != nil {
		return r.fail
	}
	if len(frame) != width*height {
		return errors.Errorf("frame has %d cells, want %dx%d", len(frame), width, height)
	}
	r.count++
	r.width, r.height = width, height
	if r.limit == 0 {
		return nil
	}
	r.frames = append(r.frames, append([]rune(nil), frame...))
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	return nil
}

// FailWith makes subsequent Present calls return err; nil restores normal
// operation.
func (r *Recorder) FailWith(err error) {
	r.mutex.Lock()
	r.fail = err
	r.mutex.Unlock()
}

// Count returns the number of frames presented.
func (r *Recorder) Count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.count
}

// Frames returns the kept frames, oldest first.
func (r *Recorder) Frames() [][]rune {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([][]rune(nil), r.frames...)
}

// Last returns the most recent kept frame as text rows.
func (r *Recorder) Last() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return Rows(r.frames[len(r.frames)-1], r.width, r.height)
}

// Close stops accepting frames.
func (r *Recorder) Close() error {
	r.mutex.Lock()
	r.closed = true
	r.mutex.Unlock()
	return nil
}

// Rows splits a row-major frame into strings.
func Rows(frame []rune, width, height int) []string {
	rows := make([]string, height)
	for y := range rows {
		rows[y] = string(frame[y*width : (y+1)*width])
	}
	return rows
}
