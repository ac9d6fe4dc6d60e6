// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// WindowMode selects how the window occupies the screen.
type WindowMode string

// Window modes
const (
	Windowed           WindowMode = "windowed"
	WindowedFullscreen WindowMode = "windowed_fullscreen"
	Fullscreen         WindowMode = "fullscreen"
)

// Frame rate limits accepted from the command line.
const (
	MinFramesPerSecond = 1
	MaxFramesPerSecond = 2000
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Window   WindowConfiguration   `toml:"window" yaml:"window"`
	Time     TimeConfiguration     `toml:"time" yaml:"time"`
	Renderer RendererConfiguration `toml:"renderer" yaml:"renderer"`
	World    WorldConfiguration    `toml:"world" yaml:"world"`
	Metrics  MetricsConfiguration  `toml:"metrics" yaml:"metrics"`
	LogLevel string                `toml:"log_level" yaml:"log_level"`
}

// WindowConfiguration describes the application window
type WindowConfiguration struct {
	Title  string     `toml:"title" yaml:"title"`
	Width  uint32     `toml:"width" yaml:"width"`
	Height uint32     `toml:"height" yaml:"height"`
	Mode   WindowMode `toml:"mode" yaml:"mode"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	FramesPerSecond int `toml:"fps" yaml:"fps"`

	// EventsPerSecond is how often window events are polled
	EventsPerSecond int `toml:"events" yaml:"events"`
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	VSync bool `toml:"vsync" yaml:"vsync"`

	// GPU is the enumeration index of the physical device,
	// negative selects automatically.
	GPU int `toml:"gpu" yaml:"gpu"`

	SwapchainSize   uint32   `toml:"swapchain_size" yaml:"swapchain_size"`
	Validation      bool     `toml:"validation" yaml:"validation"`
	ShaderDirectory string   `toml:"shader_dir" yaml:"shader_dir"`
	Shaders         []string `toml:"shaders" yaml:"shaders"`
	Textures        []string `toml:"textures" yaml:"textures"`
	Models          []string `toml:"models" yaml:"models"`

	// Archive is an optional kar file assets are read from.
	Archive string `toml:"archive" yaml:"archive"`
}

// WorldConfiguration describes the octree world shown on start
type WorldConfiguration struct {
	Depth     int     `toml:"depth" yaml:"depth"`
	Seed      int64   `toml:"seed" yaml:"seed"`
	Size      float32 `toml:"size" yaml:"size"`
	Generator string  `toml:"generator" yaml:"generator"`
	File      string  `toml:"file" yaml:"file"`
}

// MetricsConfiguration enables the prometheus endpoint when Address is set
type MetricsConfiguration struct {
	Address string `toml:"address" yaml:"address"`
}

// DefaultConfiguration is used when no file is given
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title:  "koruvox",
			Width:  800,
			Height: 600,
			Mode:   Windowed,
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventsPerSecond: 100,
		},
		Renderer: RendererConfiguration{
			GPU:             -1,
			SwapchainSize:   3,
			ShaderDirectory: "./shaders",
			Shaders:         []string{"octree.vert.spv", "octree.frag.spv"},
		},
		World: WorldConfiguration{
			Depth:     2,
			Seed:      1,
			Size:      2,
			Generator: "random",
			File:      "world.oct",
		},
		LogLevel: "info",
	}
}

// LoadConfiguration reads a toml or yaml file on top of the defaults
// and applies environment overrides.
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, &cfg)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		default:
			err = fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
		}
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnvironment(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnvironment loads a .env file if present and applies the
// KORU_* overrides.
func (c *Configuration) ApplyEnvironment() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return err
		}
	}
	envy.Reload()

	if dir := envy.Get("KORU_SHADER_DIR", ""); dir != "" {
		c.Renderer.ShaderDirectory = dir
	}
	if gpu := envy.Get("KORU_GPU", ""); gpu != "" {
		idx, err := strconv.Atoi(gpu)
		if err != nil {
			return fmt.Errorf("KORU_GPU: %w", err)
		}
		c.Renderer.GPU = idx
	}
	if level := envy.Get("KORU_LOG_LEVEL", ""); level != "" {
		c.LogLevel = level
	}
	return nil
}

// Validate checks values that would otherwise fail deep in the renderer.
func (c Configuration) Validate() error {
	switch c.Window.Mode {
	case Windowed, WindowedFullscreen, Fullscreen:
	default:
		return fmt.Errorf("unknown window mode %q", c.Window.Mode)
	}
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size %dx%d is empty", c.Window.Width, c.Window.Height)
	}
	if c.World.Size <= 0 {
		return fmt.Errorf("world size %v must be positive", c.World.Size)
	}
	return nil
}

// ClampFramesPerSecond keeps fps within the supported range.
func ClampFramesPerSecond(fps int) int {
	if fps < MinFramesPerSecond {
		return MinFramesPerSecond
	}
	if fps > MaxFramesPerSecond {
		return MaxFramesPerSecond
	}
	return fps
}
