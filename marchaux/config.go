package marchaux

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"
	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/marcher/camera"
	"github.com/soypat/marcher/frame"
	"github.com/soypat/marcher/raymarch"
)

// Config is the configuration of the interactive viewer. It may be loaded from a TOML file.
type Config struct {
	Width   int `toml:"width"`
	Height  int `toml:"height"`
	Workers int `toml:"workers"`
	// FOVDegrees is the angle between the view direction and the left or right frame edge.
	FOVDegrees float32 `toml:"fov_degrees"`
	MaxSteps   int     `toml:"max_steps"`
	Epsilon    float32 `toml:"epsilon"`

	MouseSensitivity float32 `toml:"mouse_sensitivity"`
	Speed            float32 `toml:"speed"`
	// Start is the initial camera position.
	Start [3]float32 `toml:"start"`

	// UseGPU marches rays in a fragment shader instead of the CPU renderer.
	UseGPU bool `toml:"use_gpu"`
	// HUD draws frame statistics over CPU rendered frames.
	HUD bool `toml:"hud"`
	// Silent disables informational logging.
	Silent bool `toml:"silent"`

	Scene SceneConfig `toml:"scene"`
}

// DefaultConfig returns the viewer defaults.
func DefaultConfig() Config {
	fc := frame.DefaultConfig()
	cc := camera.DefaultControllerConfig()
	return Config{
		Width:            fc.Width,
		Height:           fc.Height,
		Workers:          fc.Workers,
		FOVDegrees:       fc.FOV * 180 / math32.Pi,
		MaxSteps:         fc.March.MaxSteps,
		Epsilon:          fc.March.Epsilon,
		MouseSensitivity: cc.MouseSensitivity,
		Speed:            cc.Speed,
		HUD:              true,
		Scene:            DefaultSceneConfig(),
	}
}

// LoadConfig reads a TOML configuration from r. Fields missing in r keep their default value.
// Unknown fields are an error.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(&cfg)
	if err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadConfigFile reads a TOML configuration file.
func LoadConfigFile(filename string) (Config, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer fp.Close()
	return LoadConfig(fp)
}

// WriteConfig writes cfg to w in TOML format.
func WriteConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate returns an error if the configuration can not be used to run the viewer.
func (cfg Config) Validate() error {
	err := cfg.FrameConfig().Validate()
	if err != nil {
		return err
	}
	if !(cfg.MouseSensitivity > 0) || !(cfg.Speed > 0) {
		return errors.New("mouse sensitivity and speed must be positive")
	}
	_, err = cfg.Scene.colors()
	return err
}

// FrameConfig returns the CPU renderer configuration.
func (cfg Config) FrameConfig() frame.Config {
	return frame.Config{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Workers: cfg.Workers,
		FOV:     cfg.FOVDegrees * math32.Pi / 180,
		March:   raymarch.Config{MaxSteps: cfg.MaxSteps, Epsilon: cfg.Epsilon},
	}
}

// ControllerConfig returns the input controller configuration.
func (cfg Config) ControllerConfig() camera.ControllerConfig {
	return camera.ControllerConfig{MouseSensitivity: cfg.MouseSensitivity, Speed: cfg.Speed}
}

// StartCamera returns the camera at the configured start position.
func (cfg Config) StartCamera() camera.Camera {
	return camera.Camera{Position: ms3.Vec{X: cfg.Start[0], Y: cfg.Start[1], Z: cfg.Start[2]}}
}
