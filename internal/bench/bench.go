// Package bench drives a scene along a fixed camera path without a window
// and aggregates the per-frame work counters.
package bench

import (
	"context"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
)

// Config describes the camera path.
type Config struct {
	Frames      int
	FrameTime   time.Duration // simulated time between frames
	Center      mgl32.Vec3
	OrbitRadius float32
	Height      float32 // eye height above Center

	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	// AfterFrame runs after every frame, e.g. to drop recorded device calls.
	AfterFrame func(frame int)
}

// Result totals the work of a run.
type Result struct {
	Frames  int
	Elapsed time.Duration

	DrawCalls  int
	Triangles  int
	Quads      int
	AlphaQuads int
	GrassTufts int
	Overflows  int

	MaxDrawCalls int
	Recomputes   int
	WindTicks    int
	MaxLights    int
}

// FrameAverage returns the mean wall time per frame.
func (r Result) FrameAverage() time.Duration {
	if r.Frames == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Frames)
}

// Eye returns the camera position of frame f.
func (c Config) Eye(f int) mgl32.Vec3 {
	angle := 2 * math.Pi * float64(f) / float64(max(c.Frames, 1))
	return mgl32.Vec3{
		c.Center[0] + c.OrbitRadius*float32(math.Cos(angle)),
		c.Center[1] + c.OrbitRadius*float32(math.Sin(angle)),
		c.Center[2] + c.Height,
	}
}

// Run renders cfg.Frames frames of sc. It stops early when ctx is done.
func Run(ctx context.Context, sc *scene.Scene, cfg Config, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("bench")

	var res Result
	start := time.Now()
	for f := 0; f < cfg.Frames; f++ {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		cam := camera.LookAt(cfg.Eye(f), cfg.Center, cfg.FovY, cfg.Aspect, cfg.Near, cfg.Far)
		sc.Frame(cam, time.Duration(f)*cfg.FrameTime)

		m := sc.Metrics()
		res.Frames++
		res.DrawCalls += m.DrawCalls
		res.Triangles += m.Triangles
		res.Quads += m.Terrain.Quads
		res.AlphaQuads += m.Terrain.AlphaQuads
		res.GrassTufts += m.Grass.Tufts
		res.Overflows += m.Terrain.Overflows
		res.MaxDrawCalls = max(res.MaxDrawCalls, m.DrawCalls)
		res.MaxLights = max(res.MaxLights, m.ActiveLights)
		res.Recomputes = m.Recomputes
		res.WindTicks = m.WindTicks

		if f%100 == 0 {
			log.Debug("frame",
				zap.Int("frame", f),
				zap.Int("draw_calls", m.DrawCalls),
				zap.Int("visible_blocks", m.VisibleBlocks),
				zap.Int("tufts", m.Grass.Tufts),
			)
		}
		if cfg.AfterFrame != nil {
			cfg.AfterFrame(f)
		}
	}
	res.Elapsed = time.Since(start)

	log.Info("bench finished",
		zap.Int("frames", res.Frames),
		zap.Duration("elapsed", res.Elapsed),
		zap.Duration("frame_avg", res.FrameAverage()),
		zap.Int("draw_calls", res.DrawCalls),
		zap.Int("triangles", res.Triangles),
		zap.Int("recomputes", res.Recomputes),
		zap.Int("wind_ticks", res.WindTicks),
	)
	return res, nil
}
