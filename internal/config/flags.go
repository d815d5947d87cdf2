package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagCapture    = flag.String("capture", "", "Landmark stream URL (ws://...)")
	flagReplay     = flag.String("replay", "", "Replay landmark frames from a JSON-lines file")
	flagShape      = flag.String("shape", "", "Initial shape")
	flagParticles  = flag.Int("particles", 0, "Particle pool size")
	flagDumpConfig = flag.String("dump-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// DumpPath returns the -dump-config target, if any.
func DumpPath() string {
	return *flagDumpConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Graphics.ShowFPS = true
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagCapture != "" {
		cfg.Capture.URL = *flagCapture
	}
	if *flagReplay != "" {
		cfg.Capture.ReplayFile = *flagReplay
	}
	if *flagShape != "" {
		cfg.Particles.Shape = *flagShape
	}
	if *flagParticles > 0 {
		cfg.Particles.Animation.Count = *flagParticles
	}
}
