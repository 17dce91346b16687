// Package scene drives the terrain systems for one frame: visibility, light
// refresh, wind and the batched terrain and grass draw.
package scene

import (
	"image"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/visibility"
	"github.com/Faultbox/midgard-terrain/internal/engine/wind"
)

// Config contains scene configuration options.
type Config struct {
	Visibility visibility.Config
	Lighting   lighting.Config
	Renderer   RendererConfig
	Grass      GrassConfig
	Wind       wind.Config

	// CullLightsByFrustum keeps only dynamic lights touching the view.
	CullLightsByFrustum bool
	// SunDirection is baked into the light map at construction.
	SunDirection mgl32.Vec3
	// GrassEnabled toggles the grass renderer.
	GrassEnabled bool
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Visibility:          visibility.DefaultConfig(),
		Lighting:            lighting.DefaultConfig(),
		Renderer:            DefaultRendererConfig(),
		Grass:               DefaultGrassConfig(),
		Wind:                wind.DefaultConfig(),
		CullLightsByFrustum: true,
		SunDirection:        lighting.SunDirection(315, 45),
		GrassEnabled:        true,
	}
}

// Metrics is the per-frame work summary.
type Metrics struct {
	DrawCalls int
	Triangles int

	VisibleBlocks int
	Recomputes    int
	ActiveLights  int
	WindTicks     int

	Terrain RendererMetrics
	Grass   GrassMetrics

	LightCacheHits   int
	LightCacheMisses int
}

// Scene owns the terrain systems for one loaded map. It is driven from a
// single thread.
type Scene struct {
	config Config
	log    *zap.Logger

	data    *terrain.Data
	physics *terrain.Physics
	lights  *lighting.Manager
	vis     *visibility.Manager
	wind    *wind.Simulator
	state   *render.StateCache

	// Renderers
	terrainRenderer *TerrainRenderer
	grassRenderer   *GrassRenderer

	cam    camera.Camera
	hasCam bool
}

// New creates a scene over populated terrain data drawing to dev. Normals
// and the final light map are computed here.
func New(data *terrain.Data, dev render.Device, cfg Config, log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scene")

	s := &Scene{
		config: cfg,
		log:    log,
		data:   data,
		state:  render.NewStateCache(dev),
	}
	s.lights = lighting.NewManager(cfg.Lighting, log)
	s.physics = terrain.NewPhysics(data, s.lights)
	s.physics.SpecialHeight = cfg.Visibility.SpecialHeight
	s.vis = visibility.NewManager(data, cfg.Visibility, log)
	s.wind = wind.NewSimulator(data, cfg.Wind, log)
	if cfg.GrassEnabled {
		s.grassRenderer = NewGrassRenderer(s.physics, s.wind, s.state, cfg.Grass, log)
	}
	s.terrainRenderer = NewTerrainRenderer(data, s.vis, s.lights, s.grassRenderer, s.state, cfg.Renderer, log)

	s.lights.ComputeNormals(data)
	s.UpdateLighting(cfg.SunDirection)

	log.Info("scene ready",
		zap.Int("size", data.Size),
		zap.Int("blocks", s.vis.BlocksPerSide()*s.vis.BlocksPerSide()),
		zap.Bool("grass", cfg.GrassEnabled),
	)
	return s
}

// Data returns the terrain data.
func (s *Scene) Data() *terrain.Data { return s.data }

// Physics returns the terrain query layer.
func (s *Scene) Physics() *terrain.Physics { return s.physics }

// Lights returns the dynamic light manager.
func (s *Scene) Lights() *lighting.Manager { return s.lights }

// Visibility returns the visibility manager.
func (s *Scene) Visibility() *visibility.Manager { return s.vis }

// Wind returns the wind simulator.
func (s *Scene) Wind() *wind.Simulator { return s.wind }

// Grass returns the grass renderer, nil when grass is disabled.
func (s *Scene) Grass() *GrassRenderer { return s.grassRenderer }

// SetGrassSprite installs the asynchronously loaded grass sprite.
func (s *Scene) SetGrassSprite(sprite *assets.Resource[*image.RGBA], up render.Uploader) {
	if s.grassRenderer != nil {
		s.grassRenderer.SetSprite(sprite, up)
	}
}

// UpdateVisibility stores the frame camera and reselects visible blocks if it
// moved far enough. Returns whether the visible set was recomputed.
func (s *Scene) UpdateVisibility(cam camera.Camera) bool {
	s.cam = cam
	s.hasCam = true
	return s.vis.Update(&s.cam)
}

// UpdateLighting rebakes the final light map for a new sun direction.
func (s *Scene) UpdateLighting(dir mgl32.Vec3) {
	s.lights.BakeFinalLightMap(s.data, dir)
}

// RefreshLights rebuilds the active dynamic light set for the frame camera.
func (s *Scene) RefreshLights() {
	if !s.hasCam {
		return
	}
	s.lights.RefreshActiveLights(s.cam.Position, s.cam.Frustum(), s.config.CullLightsByFrustum)
}

// UpdateWind advances the wind field and the animation clocks. now is the
// time since the scene started.
func (s *Scene) UpdateWind(now time.Duration) bool {
	seconds := float32(now.Seconds())
	s.terrainRenderer.SetTime(seconds)
	if s.grassRenderer != nil {
		s.grassRenderer.SetTime(seconds)
	}
	if !s.hasCam {
		return false
	}
	return s.wind.Update(now, s.cam.Position)
}

// Draw submits one pass. Nothing is drawn before the first camera.
func (s *Scene) Draw(pass Pass) {
	if !s.hasCam {
		return
	}
	s.terrainRenderer.Draw(s.cam.Position, pass)
}

// Frame runs a full frame: visibility, light refresh, wind, then the ground
// and water passes.
func (s *Scene) Frame(cam camera.Camera, now time.Duration) {
	s.UpdateVisibility(cam)
	s.RefreshLights()
	s.UpdateWind(now)
	s.Draw(PassGround)
	s.Draw(PassWater)
}

// Metrics returns the counters of the last frame.
func (s *Scene) Metrics() Metrics {
	m := Metrics{
		DrawCalls:     s.state.DrawCalls,
		Triangles:     s.state.Triangles,
		VisibleBlocks: len(s.vis.Visible()),
		Recomputes:    s.vis.Recomputes(),
		ActiveLights:  len(s.lights.Active()),
		WindTicks:     s.wind.Ticks(),
		Terrain:       s.terrainRenderer.Metrics(),
	}
	if s.grassRenderer != nil {
		m.Grass = s.grassRenderer.Metrics()
	}
	m.LightCacheHits, m.LightCacheMisses = s.terrainRenderer.LightCacheStats()
	return m
}
