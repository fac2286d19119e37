package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Rendering modes.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Presentation policies applied when the presenter still holds the previous frame.
const (
	PresentBlock = "block"
	PresentSkip  = "skip"
)

// Output devices.
const (
	DeviceTerminal = "terminal"
	DeviceWindow   = "window"
	DeviceImage    = "image"
	DeviceNull     = "null"
)

// Scene object kinds.
const (
	ObjectCamera        = "camera"
	ObjectModel         = "model"
	ObjectSpinningModel = "spinning_model"
)

// Config represents the main configuration
type Config struct {
	Renderer RendererConfig `yaml:"renderer"`
	Camera   CameraConfig   `yaml:"camera"`
	Light    LightConfig    `yaml:"light"`
	Display  DisplayConfig  `yaml:"display"`
	Scene    SceneConfig    `yaml:"scene"`
	Log      LogConfig      `yaml:"log"`
}

// RendererConfig contains the rasterization pipeline configuration.
// It is fixed once the renderer is constructed.
type RendererConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Mode          string `yaml:"mode"`    // sequential, parallel
	Workers       int    `yaml:"workers"` // 0 means GOMAXPROCS
	Buffers       int    `yaml:"buffers"` // character buffers, at least 2
	CharSet       string `yaml:"charset"` // shading gradient, darkest first
	Blank         string `yaml:"blank"`   // glyph written on clear
	FrameRate     int    `yaml:"framerate"`
	VSync         bool   `yaml:"vsync"`
	CullBackfaces bool   `yaml:"cull_backfaces"`
	PresentPolicy string `yaml:"present_policy"` // block, skip
}

// CameraConfig describes the initial camera placement and lens.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	Rotation    [3]float32 `yaml:"rotation"` // euler angles in degrees
	FOV         float32    `yaml:"fov"`      // vertical, degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	PixelAspect float32    `yaml:"pixel_aspect"` // glyph width / glyph height
}

// LightConfig holds the fixed point light used for shading.
type LightConfig struct {
	Position [3]float32 `yaml:"position"`
}

// DisplayConfig selects and tunes the output device.
type DisplayConfig struct {
	Device      string `yaml:"device"`       // terminal, window, image, null
	WindowScale int    `yaml:"window_scale"` // window pixels per cell column
	ImageDir    string `yaml:"image_dir"`
	ImageEvery  int    `yaml:"image_every"` // write every n-th frame
}

// SceneConfig lists the objects the viewer instantiates.
type SceneConfig struct {
	Objects []ObjectConfig `yaml:"objects"`
}

// ObjectConfig defines one scene object.
type ObjectConfig struct {
	Name     string     `yaml:"name"`
	Kind     string     `yaml:"kind"` // camera, model, spinning_model
	Mesh     string     `yaml:"mesh"`
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
	Scale    [3]float32 `yaml:"scale"`
	Spin     [3]float32 `yaml:"spin"` // degrees per second
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	return &Config{
		Renderer: RendererConfig{
			Width:         120,
			Height:        40,
			Mode:          ModeParallel,
			Workers:       0,
			Buffers:       2,
			CharSet:       ".:-=+*#%@$",
			Blank:         " ",
			FrameRate:     30,
			VSync:         true,
			CullBackfaces: true,
			PresentPolicy: PresentBlock,
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, -5},
			FOV:         60,
			Near:        0.1,
			Far:         100,
			PixelAspect: 0.5,
		},
		Light: LightConfig{
			Position: [3]float32{0, 10, 0},
		},
		Display: DisplayConfig{
			Device:      DeviceTerminal,
			WindowScale: 8,
			ImageDir:    "frames",
			ImageEvery:  1,
		},
		Scene: SceneConfig{
			Objects: []ObjectConfig{
				{
					Name:  "cube",
					Kind:  ObjectSpinningModel,
					Mesh:  "builtin:cube",
					Scale: [3]float32{2, 2, 2},
					Spin:  [3]float32{20, 35, 0},
				},
			},
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadConfig loads the configuration from a file.
// On failure the returned config holds the defaults.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, errors.Wrap(err, "config file not found, using defaults")
	}

	loaded := DefaultConfig()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return config, errors.Wrap(err, "error parsing config")
	}
	if err := loaded.Validate(); err != nil {
		return config, errors.Wrapf(err, "invalid config %s", filePath)
	}

	return loaded, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "error serializing config")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	r := c.Renderer
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Errorf("renderer size %dx%d must be positive", r.Width, r.Height)
	}
	if r.Buffers < 2 {
		return errors.Errorf("renderer needs at least 2 buffers, got %d", r.Buffers)
	}
	if r.Workers < 0 {
		return errors.Errorf("renderer workers %d must not be negative", r.Workers)
	}
	if len([]rune(r.CharSet)) == 0 {
		return errors.New("renderer charset is empty")
	}
	if len([]rune(r.Blank)) != 1 {
		return errors.Errorf("renderer blank %q must be a single glyph", r.Blank)
	}
	switch strings.ToLower(r.Mode) {
	case ModeSequential, ModeParallel:
	default:
		return errors.Errorf("unknown renderer mode %q", r.Mode)
	}
	switch strings.ToLower(r.PresentPolicy) {
	case PresentBlock, PresentSkip:
	default:
		return errors.Errorf("unknown present policy %q", r.PresentPolicy)
	}

	cam := c.Camera
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return errors.Errorf("camera clip range [%v, %v] is invalid", cam.Near, cam.Far)
	}
	if cam.FOV <= 0 || cam.FOV >= 180 {
		return errors.Errorf("camera fov %v out of range", cam.FOV)
	}
	if cam.PixelAspect <= 0 {
		return errors.Errorf("camera pixel aspect %v must be positive", cam.PixelAspect)
	}

	switch strings.ToLower(c.Display.Device) {
	case DeviceTerminal, DeviceWindow, DeviceImage, DeviceNull:
	default:
		return errors.Errorf("unknown display device %q", c.Display.Device)
	}

	for i, obj := range c.Scene.Objects {
		switch obj.Kind {
		case ObjectCamera, ObjectModel, ObjectSpinningModel:
		default:
			return errors.Errorf("scene object %d (%s): unknown kind %q", i, obj.Name, obj.Kind)
		}
	}

	return nil
}

// Parallel reports whether the renderer dispatches triangles across workers.
func (r RendererConfig) Parallel() bool {
	return strings.ToLower(r.Mode) == ModeParallel
}

// BlockOnPresent reports whether the renderer waits for the presenter
// instead of dropping a frame when the presenter is busy.
func (r RendererConfig) BlockOnPresent() bool {
	return strings.ToLower(r.PresentPolicy) != PresentSkip
}
