package scene

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

func TestGrassCountBands(t *testing.T) {
	b := DefaultGrassConfig().Bands()
	below := func(v float32) float32 { return v - 1 }

	tests := []struct {
		name   string
		distSq float32
		want   int
	}{
		{"zero", 0, 10},
		{"just inside near", below(b.NearSq), 10},
		{"at near", b.NearSq, 4},
		{"just inside mid", below(b.MidSq), 4},
		{"at mid", b.MidSq, 2},
		{"just inside far", below(b.FarSq), 2},
		{"at far", b.FarSq, 0},
		{"beyond", b.FarSq * 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GrassCount(tt.distSq, b); got != tt.want {
				t.Errorf("GrassCount(%v) = %d, want %d", tt.distSq, got, tt.want)
			}
		})
	}
}

type grassFixture struct {
	data  *terrain.Data
	rec   *render.Recorder
	grass *GrassRenderer
}

func newGrassFixture(t *testing.T, cfg GrassConfig, log *zap.Logger) *grassFixture {
	t.Helper()
	d, err := terrain.NewData(16, 100)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	rec := render.NewRecorder(true)
	g := NewGrassRenderer(terrain.NewPhysics(d, nil), nil, render.NewStateCache(rec), cfg, log)
	return &grassFixture{data: d, rec: rec, grass: g}
}

var white = mgl32.Vec3{1, 1, 1}

func TestGrassDisabledWithoutTexture(t *testing.T) {
	f := newGrassFixture(t, DefaultGrassConfig(), nil)
	f.grass.BeginFrame()
	f.grass.AddTile(2, 2, 1, 0, white, mgl32.Vec3{250, 250, 100})
	f.grass.Flush()

	if len(f.rec.Calls) != 0 || f.grass.Metrics().Tufts != 0 {
		t.Errorf("grass drew without a texture: %+v", f.rec.Calls)
	}
}

func TestGrassTuftsAndAlphaTest(t *testing.T) {
	cfg := DefaultGrassConfig()
	f := newGrassFixture(t, cfg, nil)
	tex := &render.Texture{ID: 77, Width: 64, Height: 64}
	f.grass.SetTexture(tex)

	f.grass.BeginFrame()
	// Near band, then a layer without grass, then a tile beyond the cutoff
	f.grass.AddTile(2, 2, 1, 0, white, mgl32.Vec3{250, 250, 100})
	f.grass.AddTile(2, 2, 1, 3, white, mgl32.Vec3{250, 250, 100})
	f.grass.AddTile(14, 14, 1, 0, white, mgl32.Vec3{-2000, -2000, 0})
	f.grass.Flush()

	draws := f.rec.Draws()
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(draws))
	}
	d := draws[0]
	if d.Texture != tex || d.Blend != render.AlphaTest(cfg.AlphaRef) {
		t.Errorf("draw texture %v blend %+v", d.Texture, d.Blend)
	}
	if d.Quads != 10 || f.grass.Metrics().Tufts != 10 {
		t.Errorf("tufts = %d, want 10", d.Quads)
	}

	// Bases stay inside the tile
	for i := 0; i < d.Quads; i++ {
		for _, v := range d.Vertices[i*4 : i*4+2] {
			if v.Pos[0] < 200-cfg.Width || v.Pos[0] > 300+cfg.Width || v.Pos[1] < 200-cfg.Width || v.Pos[1] > 300+cfg.Width {
				t.Errorf("tuft base %v outside tile", v.Pos)
			}
		}
	}
}

func TestGrassBandUsesSpecialHeight(t *testing.T) {
	f := newGrassFixture(t, DefaultGrassConfig(), nil)
	f.grass.SetTexture(&render.Texture{ID: 1, Width: 64, Height: 64})
	f.data.Flags[f.data.Index(2, 2)] = terrain.FlagHeight

	// 100 above the raised tile, 1300 above the raw height map
	f.grass.BeginFrame()
	f.grass.AddTile(2, 2, 1, 0, white, mgl32.Vec3{250, 250, terrain.DefaultSpecialHeight + 100})
	f.grass.Flush()

	if got := f.grass.Metrics().Tufts; got != 10 {
		t.Errorf("tufts = %d, want the near band count 10", got)
	}
}

func TestGrassPlacementStable(t *testing.T) {
	f := newGrassFixture(t, DefaultGrassConfig(), nil)
	f.grass.SetTexture(&render.Texture{ID: 1})
	cam := mgl32.Vec3{250, 250, 100}

	frame := func() []render.Vertex {
		f.rec.Reset()
		f.grass.BeginFrame()
		f.grass.AddTile(2, 2, 1, 0, white, cam)
		f.grass.Flush()
		return f.rec.Draws()[0].Vertices
	}

	a := frame()
	b := frame()
	if len(a) != len(b) {
		t.Fatalf("vertex counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vertex %d moved between frames: %v vs %v", i, a[i].Pos, b[i].Pos)
		}
	}
	hits, misses := f.grass.PlacementStats()
	if hits != 1 || misses != 1 {
		t.Errorf("placement cache hits %d misses %d, want 1/1", hits, misses)
	}
}

func TestGrassPlacementCacheClears(t *testing.T) {
	cfg := DefaultGrassConfig()
	cfg.ClearInterval = 3
	f := newGrassFixture(t, cfg, nil)
	f.grass.SetTexture(&render.Texture{ID: 1})

	for range 3 {
		f.grass.BeginFrame()
		f.grass.AddTile(2, 2, 1, 0, white, mgl32.Vec3{250, 250, 100})
	}
	// Frames 1 and 2 build then hit, frame 3 starts after the clear
	hits, misses := f.grass.PlacementStats()
	if hits != 1 || misses != 2 {
		t.Errorf("hits %d misses %d, want 1/2", hits, misses)
	}
}

func TestGrassWindMovesOnlyTops(t *testing.T) {
	f := newGrassFixture(t, DefaultGrassConfig(), nil)
	f.grass.SetTexture(&render.Texture{ID: 1})
	cam := mgl32.Vec3{250, 250, 100}

	frame := func() []render.Vertex {
		f.rec.Reset()
		f.grass.BeginFrame()
		f.grass.AddTile(2, 2, 1, 0, white, cam)
		f.grass.Flush()
		return f.rec.Draws()[0].Vertices
	}

	calm := frame()
	f.data.Wind[f.data.Index(2, 2)] = 20
	windy := frame()

	for q := 0; q < len(calm)/4; q++ {
		for c := range 4 {
			i := q*4 + c
			moved := calm[i].Pos != windy[i].Pos
			if c < 2 && moved {
				t.Errorf("tuft %d bottom vertex %d moved with wind", q, c)
			}
			if c >= 2 && !moved {
				t.Errorf("tuft %d top vertex %d ignored wind", q, c)
			}
		}
	}
}

func TestGrassBatchOverflowFlushes(t *testing.T) {
	cfg := DefaultGrassConfig()
	cfg.BatchQuads = 4
	f := newGrassFixture(t, cfg, nil)
	f.grass.SetTexture(&render.Texture{ID: 1})

	f.grass.BeginFrame()
	f.grass.AddTile(2, 2, 1, 0, white, mgl32.Vec3{250, 250, 100})
	f.grass.Flush()

	total := 0
	for _, d := range f.rec.Draws() {
		total += d.Quads
	}
	if total != 10 || f.grass.Metrics().Flushes != 3 {
		t.Errorf("quads %d flushes %d, want 10 and 3", total, f.grass.Metrics().Flushes)
	}
}

func solidImage(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestGrassSpriteAsync(t *testing.T) {
	f := newGrassFixture(t, DefaultGrassConfig(), nil)
	release := make(chan struct{})
	sprite := assets.LoadAsync(func() (*image.RGBA, error) {
		<-release
		return solidImage(32, 16), nil
	})
	f.grass.SetSprite(sprite, f.rec)

	f.grass.BeginFrame()
	if f.grass.Texture() != nil {
		t.Fatal("texture available while pending")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := sprite.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	f.grass.BeginFrame()
	tex := f.grass.Texture()
	if tex == nil || tex.Width != 32 || tex.Height != 16 {
		t.Fatalf("texture = %+v", tex)
	}
}

func TestGrassSpriteFailureLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newGrassFixture(t, DefaultGrassConfig(), zap.New(core))

	attempts := 0
	sprite := assets.LoadAsync(func() (*image.RGBA, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("missing sprite")
		}
		return solidImage(8, 8), nil
	})
	f.grass.SetSprite(sprite, f.rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sprite.Wait(ctx)
	for range 5 {
		f.grass.BeginFrame()
	}
	if n := logs.FilterMessage("grass sprite unavailable, grass disabled").Len(); n != 1 {
		t.Errorf("failure logged %d times, want 1", n)
	}
	if f.grass.Texture() != nil {
		t.Fatal("texture set after failure")
	}

	if !f.grass.ReloadSprite() {
		t.Fatal("ReloadSprite refused")
	}
	if _, err := sprite.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	f.grass.BeginFrame()
	if f.grass.Texture() == nil {
		t.Error("texture missing after reload")
	}
}
