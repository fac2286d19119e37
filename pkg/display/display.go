// Package display provides the output devices the renderer presents to.
package display

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
	"simplerenderer/pkg/engine"
)

// Diagnostic codes carried by InitError.
const (
	CodeUnknownDevice = iota + 1
	CodeInvalidSize
	CodeScreen
	CodeWindow
	CodeGL
	CodeOutputDir
)

// InitError reports a device that could not be brought up. Startup must be
// aborted when it is returned.
type InitError struct {
	Device string
	Code   int
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s device (code %d): %v", e.Device, e.Code, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the underlying error.
func (e *InitError) Cause() error { return e.Err }

// Open creates the device selected by cfg.Display.
func Open(cfg *config.Config, log *logger.Logger) (engine.Device, error) {
	w, h := cfg.Renderer.Width, cfg.Renderer.Height
	if w <= 0 || h <= 0 {
		return nil, &InitError{Device: cfg.Display.Device, Code: CodeInvalidSize, Err: errors.Errorf("invalid size %dx%d", w, h)}
	}

	var (
		dev engine.Device
		err error
	)
	switch strings.ToLower(cfg.Display.Device) {
	case config.DeviceTerminal:
		dev, err = asDevice(NewTerminal(log.Named("terminal")))
	case config.DeviceWindow:
		dev, err = asDevice(NewWindow(w, h, cfg.Display.WindowScale, cfg.Renderer.VSync, log.Named("window")))
	case config.DeviceImage:
		dev, err = asDevice(NewImageSequence(cfg.Display.ImageDir, cfg.Display.ImageEvery, log.Named("image")))
	case config.DeviceNull:
		dev = NewRecorder(0)
	default:
		err = &InitError{Device: cfg.Display.Device, Code: CodeUnknownDevice, Err: errors.Errorf("unknown device %q", cfg.Display.Device)}
	}
	if err != nil {
		return nil, err
	}
	log.Infof("%s device ready", cfg.Display.Device)
	return dev, nil
}

// asDevice keeps a failed constructor's nil pointer out of the interface.
func asDevice[D engine.Device](d D, err error) (engine.Device, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}
