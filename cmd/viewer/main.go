package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/gopxl/mainthread/v2"
	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
	"simplerenderer/pkg/display"
	"simplerenderer/pkg/engine"
)

func init() {
	// GLFW requires the program to be running on the main thread
	runtime.LockOSThread()
}

var (
	configPath = flag.String("config", "configs/viewer.yaml", "Path to configuration file")
	logLevel   = flag.String("log", "", "Log level override (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	mainthread.Run(run)
}

func run() {
	log := logger.NewLogger("info")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Warnf("%s not found, using defaults", *configPath)
		} else {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	log, err = openLogger(cfg)
	if err != nil {
		logger.NewLogger("info").Fatalf("Failed to open log: %v", err)
	}
	defer log.Close()
	log.Info("Starting SimpleRenderer viewer...")

	device, err := display.Open(cfg, log.Named("display"))
	if err != nil {
		var initErr *display.InitError
		if errors.As(err, &initErr) {
			log.Fatalf("Output device %s failed (code %d): %v", initErr.Device, initErr.Code, initErr.Err)
		}
		log.Fatalf("Failed to open output device: %v", err)
	}

	// The engine owns device from here on, including on failure.
	viewer, err := engine.NewEngine(cfg, device, log.Named("engine"))
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := viewer.Run(ctx); err != nil {
		log.Errorf("Render loop stopped: %v", err)
	}
}

// defaultTerminalLog receives log output when the terminal device owns the
// screen and no log file is configured.
const defaultTerminalLog = "viewer.log"

// openLogger keeps log output off the screen when the terminal device owns it.
func openLogger(cfg *config.Config) (*logger.Logger, error) {
	terminal := strings.EqualFold(cfg.Display.Device, config.DeviceTerminal)
	switch {
	case terminal && cfg.Log.File == "":
		return logger.NewFileLogger(cfg.Log.Level, defaultTerminalLog)
	case terminal:
		return logger.NewFileLogger(cfg.Log.Level, cfg.Log.File)
	case cfg.Log.File != "":
		return logger.NewMultiLogger(cfg.Log.Level, cfg.Log.File)
	}
	return logger.NewLogger(cfg.Log.Level), nil
}
