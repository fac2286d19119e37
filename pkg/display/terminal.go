package display

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
)

// Terminal presents frames on the controlling terminal. ESC, Ctrl-C and q
// request quit through Done.
type Terminal struct {
	screen tcell.Screen
	style  tcell.Style
	log    *logger.Logger

	mutex     sync.Mutex
	closed    bool
	done      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once
	events    sync.WaitGroup
}

// NewTerminal takes over the terminal screen.
func NewTerminal(log *logger.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, &InitError{Device: config.DeviceTerminal, Code: CodeScreen, Err: err}
	}
	return newTerminal(screen, log)
}

func newTerminal(screen tcell.Screen, log *logger.Logger) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, &InitError{Device: config.DeviceTerminal, Code: CodeScreen, Err: err}
	}
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		style:  tcell.StyleDefault,
		log:    log,
		done:   make(chan struct{}),
	}
	t.events.Add(1)
	go t.pollEvents()
	return t, nil
}

func (t *Terminal) pollEvents() {
	defer t.events.Done()
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				t.log.Debugf("quit key %s", ev.Name())
				t.requestQuit()
			}
		case *tcell.EventResize:
			t.mutex.Lock()
			if !t.closed {
				t.screen.Sync()
			}
			t.mutex.Unlock()
		}
	}
}

func (t *Terminal) requestQuit() {
	t.quitOnce.Do(func() { close(t.done) })
}

// Done is closed when the user asks to quit.
func (t *Terminal) Done() <-chan struct{} { return t.done }

// Present writes frame to the screen. Cells beyond the terminal are clipped.
func (t *Terminal) Present(frame []rune, width, height int) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return nil
	}
	for y := 0; y < height; y++ {
		row := frame[y*width : (y+1)*width]
		for x, r := range row {
			t.screen.SetContent(x, y, r, nil, t.style)
		}
	}
	t.screen.Show()
	return nil
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.mutex.Lock()
		t.closed = true
		t.screen.Fini()
		t.mutex.Unlock()
		t.events.Wait()
		t.requestQuit()
	})
	return nil
}
