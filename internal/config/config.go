// Package config handles application configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/handcloud/internal/animator"
	"github.com/Faultbox/handcloud/internal/gesture"
)

// Config holds all application settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Particles ParticlesConfig `yaml:"particles"`
	Gesture   gesture.Options `yaml:"gesture"`
	Capture   CaptureConfig   `yaml:"capture"`
	GenAI     GenAIConfig     `yaml:"genai"`
	Audio     AudioConfig     `yaml:"audio"`
	Logging   LoggingConfig   `yaml:"logging"`
	Debug     DebugConfig     `yaml:"debug"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"`             // vertical, degrees
	CameraDist float32 `yaml:"camera_distance"` // eye distance from the cloud
	ShowFPS    bool    `yaml:"show_fps"`
}

// ParticlesConfig holds the pool and shape settings.
type ParticlesConfig struct {
	Shape         string          `yaml:"shape"`
	Color         string          `yaml:"color"`
	ExplodeWindow time.Duration   `yaml:"explode_window"`
	Animation     animator.Params `yaml:"animation"`
}

// CaptureConfig selects where hand landmarks come from. With neither URL nor
// ReplayFile set, the mouse stands in for a hand.
type CaptureConfig struct {
	URL            string        `yaml:"url"`
	ReplayFile     string        `yaml:"replay_file"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// GenAIConfig holds the prompt-to-shape service settings.
type GenAIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	Points   int           `yaml:"points"`
}

// AudioConfig holds sound effect settings.
type AudioConfig struct {
	Muted     bool    `yaml:"muted"`
	Volume    float64 `yaml:"volume"`
	ClapSound string  `yaml:"clap_sound"` // optional WAV replacing the synthesized burst
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DebugConfig holds developer tooling settings.
type DebugConfig struct {
	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or bmp
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FOV:        60,
			CameraDist: 5,
		},
		Particles: ParticlesConfig{
			Shape:         "heart",
			Color:         "#33ccff",
			ExplodeWindow: 500 * time.Millisecond,
			Animation:     animator.DefaultParams(),
		},
		Gesture: gesture.DefaultOptions(),
		Capture: CaptureConfig{
			ReconnectDelay: 2 * time.Second,
			ReadTimeout:    5 * time.Second,
		},
		GenAI: GenAIConfig{
			Timeout: 20 * time.Second,
			Points:  1500,
		},
		Audio: AudioConfig{
			Volume: 0.8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Debug: DebugConfig{
			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
	}
}
