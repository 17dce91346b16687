// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Data       DataConfig       `yaml:"data"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Lighting   LightingConfig   `yaml:"lighting"`
	Render     RenderConfig     `yaml:"render"`
	Grass      GrassConfig      `yaml:"grass"`
	Wind       WindConfig       `yaml:"wind"`
	Bench      BenchConfig      `yaml:"bench"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	FOV        float32 `yaml:"fov"`
	Far        float32 `yaml:"far"`
}

// DataConfig holds map data locations.
type DataConfig struct {
	Manifest   string   `yaml:"manifest"`    // Map manifest; empty generates a map
	AssetRoots []string `yaml:"asset_roots"` // Searched last to first
}

// TerrainConfig controls procedurally generated maps.
type TerrainConfig struct {
	Size          int     `yaml:"size"`
	Scale         float32 `yaml:"scale"`
	Seed          uint32  `yaml:"seed"`
	SpecialHeight float32 `yaml:"special_height"`
}

// VisibilityConfig holds block culling and LOD settings.
type VisibilityConfig struct {
	BlockSize           int     `yaml:"block_size"`
	MoveThreshold       float32 `yaml:"move_threshold"`
	RenderDistanceScale float32 `yaml:"render_distance_scale"`
	Overscan            int     `yaml:"overscan"`
	LODDistance         float32 `yaml:"lod_distance"`
	LODBlend            float32 `yaml:"lod_blend"`
	LODSteps            []int   `yaml:"lod_steps"`
	PartialCulling      bool    `yaml:"partial_culling"`
}

// LightingConfig holds sun and dynamic light settings.
type LightingConfig struct {
	SunAzimuth       float32 `yaml:"sun_azimuth"`
	SunElevation     float32 `yaml:"sun_elevation"`
	Ambient          float32 `yaml:"ambient"`
	CullByFrustum    bool    `yaml:"cull_by_frustum"`
	IntensityEpsilon float32 `yaml:"intensity_epsilon"`
	ReducedQuality   bool    `yaml:"reduced_quality"`
	ReducedDistance  float32 `yaml:"reduced_distance"`
}

// RenderConfig holds terrain batching settings.
type RenderConfig struct {
	BatchQuads         int     `yaml:"batch_quads"`
	LightCacheTTL      uint64  `yaml:"light_cache_ttl"`
	LightCacheCapacity int     `yaml:"light_cache_capacity"`
	TileUV             float32 `yaml:"tile_uv"`
	WaterTexture       uint8   `yaml:"water_texture"`
	WaterScroll        float32 `yaml:"water_scroll"`
	WaterFrequency     float32 `yaml:"water_frequency"`
	WaterAmplitude     float32 `yaml:"water_amplitude"`
}

// GrassConfig holds grass density and animation settings.
type GrassConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Sprite        string  `yaml:"sprite"`
	Near          float32 `yaml:"near"`
	Mid           float32 `yaml:"mid"`
	Far           float32 `yaml:"far"`
	Cutoff        float32 `yaml:"cutoff"`
	Counts        []int   `yaml:"counts"`
	MemoCapacity  int     `yaml:"memo_capacity"`
	ClearInterval uint64  `yaml:"clear_interval"`
	AlphaRef      float32 `yaml:"alpha_ref"`
	Textures      []uint8 `yaml:"textures"`
	WindScale     float32 `yaml:"wind_scale"`
	SwayDegrees   float32 `yaml:"sway_degrees"`
	SwaySpeed     float32 `yaml:"sway_speed"`
}

// WindConfig holds wind field settings.
type WindConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Radius       int           `yaml:"radius"`
	TableSize    int           `yaml:"table_size"`
	SpeedRate    float32       `yaml:"speed_rate"`
	Amplitude    float32       `yaml:"amplitude"`
	Phase        int           `yaml:"phase"`
	Workers      int           `yaml:"workers"`
}

// BenchConfig drives the headless benchmark.
type BenchConfig struct {
	Frames      int           `yaml:"frames"`
	FrameTime   time.Duration `yaml:"frame_time"`
	OrbitRadius float32       `yaml:"orbit_radius"`
	Height      float32       `yaml:"height"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			FOV:        35,
			Far:        3000,
		},
		Data: DataConfig{
			Manifest:   "",
			AssetRoots: []string{"data"},
		},
		Terrain: TerrainConfig{
			Size:          256,
			Scale:         100,
			Seed:          1,
			SpecialHeight: 1200,
		},
		Visibility: VisibilityConfig{
			BlockSize:           4,
			MoveThreshold:       50,
			RenderDistanceScale: 1.2,
			Overscan:            2,
			LODDistance:         2000,
			LODBlend:            0.5,
			LODSteps:            []int{1, 4},
			PartialCulling:      true,
		},
		Lighting: LightingConfig{
			SunAzimuth:       315,
			SunElevation:     45,
			Ambient:          0,
			CullByFrustum:    true,
			IntensityEpsilon: 0.001,
			ReducedQuality:   false,
			ReducedDistance:  2000,
		},
		Render: RenderConfig{
			BatchQuads:         1024,
			LightCacheTTL:      2,
			LightCacheCapacity: 1 << 16,
			TileUV:             64,
			WaterTexture:       5,
			WaterScroll:        0.05,
			WaterFrequency:     0.5,
			WaterAmplitude:     0.03,
		},
		Grass: GrassConfig{
			Enabled:       true,
			Sprite:        "",
			Near:          1200,
			Mid:           2000,
			Far:           2800,
			Cutoff:        3000,
			Counts:        []int{10, 4, 2},
			MemoCapacity:  8192,
			ClearInterval: 1000,
			AlphaRef:      0.25,
			Textures:      []uint8{0},
			WindScale:     1.5,
			SwayDegrees:   6,
			SwaySpeed:     2,
		},
		Wind: WindConfig{
			TickInterval: 50 * time.Millisecond,
			Radius:       32,
			TableSize:    1024,
			SpeedRate:    180,
			Amplitude:    10,
			Phase:        13,
			Workers:      0,
		},
		Bench: BenchConfig{
			Frames:      600,
			FrameTime:   16 * time.Millisecond,
			OrbitRadius: 2000,
			Height:      1500,
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
