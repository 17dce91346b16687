package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagManifest   = flag.String("manifest", "", "Map manifest to load instead of generating terrain")
	flagSeed       = flag.Uint("seed", 0, "Seed for generated terrain")
	flagSize       = flag.Int("size", 0, "Generated terrain size in texels")
	flagFrames     = flag.Int("frames", 0, "Frames to render in the benchmark")
	flagNoGrass    = flag.Bool("no-grass", false, "Disable grass")
	flagReduced    = flag.Bool("reduced-quality", false, "Drop distant dynamic lights")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagManifest != "" {
		cfg.Data.Manifest = *flagManifest
	}
	if *flagSeed > 0 {
		cfg.Terrain.Seed = uint32(*flagSeed)
	}
	if *flagSize > 0 {
		cfg.Terrain.Size = *flagSize
	}
	if *flagFrames > 0 {
		cfg.Bench.Frames = *flagFrames
	}
	if *flagNoGrass {
		cfg.Grass.Enabled = false
	}
	if *flagReduced {
		cfg.Lighting.ReducedQuality = true
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
}
