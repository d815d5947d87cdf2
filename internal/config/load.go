package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search locations.
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Particles.Animation.Count <= 0 {
		return fmt.Errorf("particles.animation.count must be positive, got %d", c.Particles.Animation.Count)
	}
	if c.Particles.ExplodeWindow <= 0 {
		return fmt.Errorf("particles.explode_window must be positive, got %s", c.Particles.ExplodeWindow)
	}
	if c.Gesture.OpenMax <= c.Gesture.OpenMin {
		return fmt.Errorf("gesture.open_max (%v) must exceed gesture.open_min (%v)", c.Gesture.OpenMax, c.Gesture.OpenMin)
	}
	switch c.Debug.ScreenshotFormat {
	case "png", "bmp":
	default:
		return fmt.Errorf("debug.screenshot_format must be png or bmp, got %q", c.Debug.ScreenshotFormat)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./handcloud.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Handcloud")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Handcloud")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "handcloud")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "handcloud")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
