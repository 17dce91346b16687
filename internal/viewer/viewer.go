// Package viewer implements the interactive terrain viewer loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/renderer"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/world"
)

// sunStep is the azimuth change per key press, in degrees.
const sunStep = 15

// Viewer is the interactive viewer instance.
type Viewer struct {
	config *config.Config
	log    *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	assets   *assets.Manager
	world    *world.Manager

	current *world.Map
	scene   *scene.Scene
	orbit   *camera.Orbit
	capture *debug.ScreenshotCapture

	lights     []*lighting.DynamicLight
	sunAzimuth float32
	reduced    bool
	running    bool
}

// New opens the window, loads the configured map and builds its scene.
func New(cfg *config.Config, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Viewer{
		config:     cfg,
		log:        log.Named("viewer"),
		input:      input.New(),
		capture:    debug.NewScreenshotCapture("screenshots", "terrain"),
		sunAzimuth: cfg.Lighting.SunAzimuth,
		reduced:    cfg.Lighting.ReducedQuality,
	}

	v.assets = assets.NewManager(log)
	for _, dir := range cfg.Data.AssetRoots {
		if err := v.assets.AddDir(dir); err != nil {
			v.log.Warn("skipping asset root", zap.String("dir", dir), zap.Error(err))
		}
	}
	v.world = world.NewManager(v.assets, log)

	mp, err := v.world.Open(cfg.Data.Manifest, cfg.Terrain.Size, cfg.Terrain.Scale, cfg.Terrain.Seed)
	if err != nil {
		return nil, err
	}
	v.current = mp

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      "Midgard Terrain - " + mp.Name,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	w, h := v.window.Size()
	v.renderer, err = renderer.New(renderer.DefaultConfig(w, h), log)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.world.UploadTextures(mp, v.renderer)

	v.scene = scene.New(mp.Data, v.renderer, cfg.SceneConfig(), log)
	v.scene.SetGrassSprite(v.world.GrassSprite(mp, cfg.Grass.Sprite), v.renderer)

	v.orbit = camera.NewOrbit()
	v.orbit.FovY = cfg.Graphics.FOV
	v.orbit.Far = cfg.Graphics.Far
	c := mp.Center()
	v.orbit.SetCenter(c.X(), c.Y(), c.Z())

	v.log.Info("viewer initialized", zap.String("map", mp.Name))
	return v, nil
}

// Run starts the main loop and returns when the window is closed.
func (v *Viewer) Run() error {
	v.running = true

	var frameLimit time.Duration
	if v.config.Graphics.FPSLimit > 0 {
		frameLimit = time.Second / time.Duration(v.config.Graphics.FPSLimit)
	}

	start := time.Now()
	lastTime := start
	frameCount := 0
	fpsTimer := start

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Process input
		v.handleInput(v.input.Update(), float32(dt.Seconds()))
		if !v.running {
			break
		}

		// 2. Render
		cam := v.orbit.Camera(v.window.Aspect())
		v.renderer.Begin(cam.ViewProj())
		v.scene.Frame(cam, now.Sub(start))
		v.renderer.End()

		// 3. Present (swap buffers)
		v.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			m := v.scene.Metrics()
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("dt", dt),
				zap.Int("draw_calls", m.DrawCalls),
				zap.Int("triangles", m.Triangles),
				zap.Int("visible_blocks", m.VisibleBlocks),
				zap.Int("tufts", m.Grass.Tufts),
				zap.Int("lights", m.ActiveLights),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameLimit > 0 {
			if spent := time.Since(now); spent < frameLimit {
				time.Sleep(frameLimit - spent)
			}
		}
	}

	return nil
}

func (v *Viewer) handleInput(f *input.Frame, dt float32) {
	if f.Quit {
		v.running = false
		return
	}
	if f.Resized {
		v.renderer.Resize(v.window.Size())
	}

	if f.DragX != 0 || f.DragY != 0 {
		v.orbit.HandleDrag(f.DragX, f.DragY)
	}
	if f.Wheel != 0 {
		v.orbit.HandleZoom(f.Wheel)
	}

	var forward, right float32
	if input.KeyHeld(sdl.SCANCODE_W) || input.KeyHeld(sdl.SCANCODE_UP) {
		forward++
	}
	if input.KeyHeld(sdl.SCANCODE_S) || input.KeyHeld(sdl.SCANCODE_DOWN) {
		forward--
	}
	if input.KeyHeld(sdl.SCANCODE_D) || input.KeyHeld(sdl.SCANCODE_RIGHT) {
		right++
	}
	if input.KeyHeld(sdl.SCANCODE_A) || input.KeyHeld(sdl.SCANCODE_LEFT) {
		right--
	}
	if forward != 0 || right != 0 {
		// HandleMovement is tuned for 60 steps per second
		v.orbit.HandleMovement(forward*dt*60, right*dt*60)
		c := v.orbit.Center
		v.orbit.Center[2] = v.scene.Physics().Height(c.X(), c.Y())
	}

	switch {
	case f.Pressed(sdl.K_F12):
		v.screenshot()
	case f.Pressed(sdl.K_l):
		v.dropLight()
	case f.Pressed(sdl.K_c):
		v.clearLights()
	case f.Pressed(sdl.K_r):
		v.reduced = !v.reduced
		v.scene.Lights().SetReducedQuality(v.reduced)
		v.log.Info("reduced quality lighting", zap.Bool("enabled", v.reduced))
	case f.Pressed(sdl.K_LEFTBRACKET):
		v.rotateSun(-sunStep)
	case f.Pressed(sdl.K_RIGHTBRACKET):
		v.rotateSun(sunStep)
	}
}

// dropLight places a warm point light above the orbit center.
func (v *Viewer) dropLight() {
	l := &lighting.DynamicLight{
		Position:  v.orbit.Center.Add(mgl32.Vec3{0, 0, 80}),
		Color:     mgl32.Vec3{1, 0.7, 0.4},
		Radius:    600,
		Intensity: 1,
	}
	v.scene.Lights().AddLight(l)
	v.lights = append(v.lights, l)
	v.log.Info("light added", zap.Int("lights", len(v.lights)))
}

func (v *Viewer) clearLights() {
	for _, l := range v.lights {
		v.scene.Lights().RemoveLight(l)
	}
	v.lights = v.lights[:0]
}

func (v *Viewer) rotateSun(delta float32) {
	v.sunAzimuth += delta
	v.scene.UpdateLighting(lighting.SunDirection(v.sunAzimuth, v.config.Lighting.SunElevation))
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.capture.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
	if v.assets != nil {
		v.assets.Close()
	}
}
