package display

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
)

// ImageSequence writes every n-th frame as a PNG into a directory.
type ImageSequence struct {
	dir     string
	every   int
	log     *logger.Logger
	canvas  *glyphCanvas
	frame   int
	written int
}

// NewImageSequence creates dir if needed. every < 1 is treated as 1.
func NewImageSequence(dir string, every int, log *logger.Logger) (*ImageSequence, error) {
	if every < 1 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &InitError{Device: config.DeviceImage, Code: CodeOutputDir, Err: err}
	}
	return &ImageSequence{dir: dir, every: every, log: log}, nil
}

// Present renders frame with a bitmap font and encodes it.
func (s *ImageSequence) Present(frame []rune, width, height int) error {
	n := s.frame
	s.frame++
	if n%s.every != 0 {
		return nil
	}
	if s.canvas == nil || s.canvas.width != width || s.canvas.height != height {
		s.canvas = newGlyphCanvas(width, height)
	}
	img := s.canvas.draw(frame)

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", n))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create frame image")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	s.written++
	return nil
}

// Written returns the number of images written.
func (s *ImageSequence) Written() int { return s.written }

// Close reports how many images were written.
func (s *ImageSequence) Close() error {
	s.log.Infof("wrote %d frames to %s", s.written, s.dir)
	return nil
}
