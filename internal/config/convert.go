package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/engine/visibility"
	"github.com/Faultbox/midgard-terrain/internal/engine/wind"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Validate reports settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.Far <= 0 {
		errs = append(errs, fmt.Errorf("graphics: far plane must be positive, got %v", c.Graphics.Far))
	}
	if c.Data.Manifest == "" && c.Terrain.Size <= 0 {
		errs = append(errs, fmt.Errorf("terrain: size must be positive, got %d", c.Terrain.Size))
	}
	if c.Visibility.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("visibility: block_size must be positive, got %d", c.Visibility.BlockSize))
	}
	for i, step := range c.Visibility.LODSteps {
		switch {
		case step <= 0:
			errs = append(errs, fmt.Errorf("visibility: lod_steps[%d] must be positive, got %d", i, step))
		case c.Visibility.BlockSize > 0 && c.Visibility.BlockSize%step != 0:
			errs = append(errs, fmt.Errorf("visibility: lod_steps[%d]=%d must divide block_size %d", i, step, c.Visibility.BlockSize))
		}
	}
	if c.Visibility.LODBlend < 0 || c.Visibility.LODBlend > 1 {
		errs = append(errs, fmt.Errorf("visibility: lod_blend must be in [0,1], got %v", c.Visibility.LODBlend))
	}
	if c.Render.BatchQuads <= 0 {
		errs = append(errs, fmt.Errorf("render: batch_quads must be positive, got %d", c.Render.BatchQuads))
	}
	if len(c.Grass.Counts) != 3 {
		errs = append(errs, fmt.Errorf("grass: counts needs 3 entries, got %d", len(c.Grass.Counts)))
	}
	for i, n := range c.Grass.Counts {
		if n < 0 || n > scene.MaxTuftsPerTile {
			errs = append(errs, fmt.Errorf("grass: counts[%d]=%d outside [0,%d]", i, n, scene.MaxTuftsPerTile))
		}
	}
	if !(c.Grass.Near <= c.Grass.Mid && c.Grass.Mid <= c.Grass.Far && c.Grass.Far <= c.Grass.Cutoff) {
		errs = append(errs, errors.New("grass: bands must satisfy near <= mid <= far <= cutoff"))
	}
	if c.Wind.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("wind: negative tick_interval %v", c.Wind.TickInterval))
	}
	return errors.Join(errs...)
}

// SceneConfig converts the file settings into engine settings. Tuning values
// the file does not expose keep their engine defaults.
func (c *Config) SceneConfig() scene.Config {
	sc := scene.DefaultConfig()

	v := visibility.DefaultConfig()
	v.BlockSize = c.Visibility.BlockSize
	v.MoveThreshold = c.Visibility.MoveThreshold
	v.RenderDistanceScale = c.Visibility.RenderDistanceScale
	v.Overscan = c.Visibility.Overscan
	v.LODDistance = c.Visibility.LODDistance
	v.LODBlend = c.Visibility.LODBlend
	if len(c.Visibility.LODSteps) > 0 {
		v.LODSteps = append([]int(nil), c.Visibility.LODSteps...)
	}
	v.PartialCulling = c.Visibility.PartialCulling
	v.SpecialHeight = c.Terrain.SpecialHeight
	sc.Visibility = v

	sc.Lighting = lighting.Config{
		IntensityEpsilon: c.Lighting.IntensityEpsilon,
		ReducedQuality:   c.Lighting.ReducedQuality,
		ReducedDistance:  c.Lighting.ReducedDistance,
	}
	sc.CullLightsByFrustum = c.Lighting.CullByFrustum
	sc.SunDirection = lighting.SunDirection(c.Lighting.SunAzimuth, c.Lighting.SunElevation)

	r := &sc.Renderer
	r.BatchQuads = c.Render.BatchQuads
	r.LightCacheTTL = c.Render.LightCacheTTL
	r.LightCacheCapacity = c.Render.LightCacheCapacity
	r.Ambient = c.Lighting.Ambient
	r.TileUV = c.Render.TileUV
	r.WaterTexture = c.Render.WaterTexture
	r.WaterScroll = c.Render.WaterScroll
	r.WaterFrequency = c.Render.WaterFrequency
	r.WaterAmplitude = c.Render.WaterAmplitude

	g := &sc.Grass
	sc.GrassEnabled = c.Grass.Enabled
	g.Near = c.Grass.Near
	g.Mid = c.Grass.Mid
	g.Far = c.Grass.Far
	g.Cutoff = c.Grass.Cutoff
	copy(g.Counts[:], c.Grass.Counts)
	g.MemoCapacity = c.Grass.MemoCapacity
	g.ClearInterval = c.Grass.ClearInterval
	g.AlphaRef = c.Grass.AlphaRef
	if len(c.Grass.Textures) > 0 {
		g.Textures = append([]uint8(nil), c.Grass.Textures...)
	}
	g.WindScale = c.Grass.WindScale
	g.SwayDegrees = c.Grass.SwayDegrees
	g.SwaySpeed = c.Grass.SwaySpeed

	w := wind.DefaultConfig()
	w.TickInterval = c.Wind.TickInterval
	w.Radius = c.Wind.Radius
	w.TableSize = c.Wind.TableSize
	w.SpeedRate = c.Wind.SpeedRate
	w.Amplitude = c.Wind.Amplitude
	w.Phase = c.Wind.Phase
	w.Workers = c.Wind.Workers
	sc.Wind = w

	return sc
}

// LogFileConfig converts the logging section for logger.InitWithFileConfig.
func (c *Config) LogFileConfig() logger.FileConfig {
	return logger.FileConfig{
		Path:       c.Logging.LogFile,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}
