// Package main renders a terrain along an orbit without a window and reports
// how much work each frame submitted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/bench"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/world"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.LogFileConfig(), true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("bench failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Log

	a := assets.NewManager(log)
	defer a.Close()
	for _, dir := range cfg.Data.AssetRoots {
		if err := a.AddDir(dir); err != nil {
			log.Warn("skipping asset root", zap.String("dir", dir), zap.Error(err))
		}
	}

	wm := world.NewManager(a, log)
	mp, err := wm.Open(cfg.Data.Manifest, cfg.Terrain.Size, cfg.Terrain.Scale, cfg.Terrain.Seed)
	if err != nil {
		return err
	}

	rec := render.NewRecorder(false)
	wm.UploadTextures(mp, rec)

	sc := scene.New(mp.Data, rec, cfg.SceneConfig(), log)
	sprite := wm.GrassSprite(mp, cfg.Grass.Sprite)
	sc.SetGrassSprite(sprite, rec)
	// The first frames poll the sprite; wait so every frame draws grass
	if _, err := sprite.Wait(ctx); err != nil {
		log.Warn("grass sprite unavailable", zap.Error(err))
	}

	b := cfg.Bench
	res, err := bench.Run(ctx, sc, bench.Config{
		Frames:      b.Frames,
		FrameTime:   b.FrameTime,
		Center:      mp.Center(),
		OrbitRadius: b.OrbitRadius,
		Height:      b.Height,
		FovY:        cfg.Graphics.FOV,
		Aspect:      float32(cfg.Graphics.Width) / float32(cfg.Graphics.Height),
		Near:        20,
		Far:         cfg.Graphics.Far,
		AfterFrame:  func(int) { rec.Reset() },
	}, log)
	if err != nil {
		return err
	}

	fmt.Printf("map %s: %d frames in %v (%v/frame)\n", mp.Name, res.Frames, res.Elapsed, res.FrameAverage())
	fmt.Printf("  draw calls %d (max %d/frame), triangles %d\n", res.DrawCalls, res.MaxDrawCalls, res.Triangles)
	fmt.Printf("  terrain quads %d (%d blended), grass tufts %d, overflows %d\n", res.Quads, res.AlphaQuads, res.GrassTufts, res.Overflows)
	fmt.Printf("  visibility recomputes %d, wind ticks %d\n", res.Recomputes, res.WindTicks)
	return nil
}
