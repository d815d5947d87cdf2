package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/handcloud/internal/animator"
	"github.com/Faultbox/handcloud/internal/gesture"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Particles.ExplodeWindow != 500*time.Millisecond {
		t.Errorf("expected explode window 500ms, got %v", cfg.Particles.ExplodeWindow)
	}
	if diff := cmp.Diff(animator.DefaultParams(), cfg.Particles.Animation); diff != "" {
		t.Errorf("animation defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(gesture.DefaultOptions(), cfg.Gesture); diff != "" {
		t.Errorf("gesture defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "handcloud.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fov: 45

particles:
  shape: planet
  color: "#ff00aa"
  explode_window: 750ms
  animation:
    count: 3000
    blend_lerp: 0.2

gesture:
  pinch_threshold: 0.04
  debounce: 1500ms

capture:
  url: "ws://127.0.0.1:8765/hands"
  reconnect_delay: 3s

genai:
  endpoint: "http://localhost:9000/shape"
  timeout: 10s

logging:
  level: "debug"
  log_file: "handcloud.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	want := Default()
	want.Graphics.Width = 1920
	want.Graphics.Height = 1080
	want.Graphics.FOV = 45
	want.Particles.Shape = "planet"
	want.Particles.Color = "#ff00aa"
	want.Particles.ExplodeWindow = 750 * time.Millisecond
	want.Particles.Animation.Count = 3000
	want.Particles.Animation.BlendLerp = 0.2
	want.Gesture.PinchThreshold = 0.04
	want.Gesture.Debounce = 1500 * time.Millisecond
	want.Capture.URL = "ws://127.0.0.1:8765/hands"
	want.Capture.ReconnectDelay = 3 * time.Second
	want.GenAI.Endpoint = "http://localhost:9000/shape"
	want.GenAI.Timeout = 10 * time.Second
	want.Logging.Level = "debug"
	want.Logging.LogFile = "handcloud.log"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("loaded config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero particles", func(c *Config) { c.Particles.Animation.Count = 0 }},
		{"zero explode window", func(c *Config) { c.Particles.ExplodeWindow = 0 }},
		{"inverted openness", func(c *Config) { c.Gesture.OpenMin, c.Gesture.OpenMax = 0.5, 0.2 }},
		{"bad screenshot format", func(c *Config) { c.Debug.ScreenshotFormat = "gif" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("handcloud.yaml", []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find handcloud.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Graphics.ShowFPS {
					t.Error("expected show_fps to be enabled with debug flag")
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "capture flag",
			setup: func() { *flagCapture = "ws://detector:8765" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Capture.URL != "ws://detector:8765" {
					t.Errorf("expected capture url, got %s", cfg.Capture.URL)
				}
			},
			teardown: func() { *flagCapture = "" },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "shape and particles flags",
			setup: func() {
				*flagShape = "flower"
				*flagParticles = 4000
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Particles.Shape != "flower" {
					t.Errorf("expected shape flower, got %s", cfg.Particles.Shape)
				}
				if cfg.Particles.Animation.Count != 4000 {
					t.Errorf("expected 4000 particles, got %d", cfg.Particles.Animation.Count)
				}
			},
			teardown: func() {
				*flagShape = ""
				*flagParticles = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "handcloud.yaml")
	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.yaml")
	cfg := Default()
	cfg.Particles.Shape = "cube"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
