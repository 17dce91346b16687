package scene

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/cache"
	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/wind"
)

// MaxTuftsPerTile bounds the per-tile tuft count.
const MaxTuftsPerTile = 16

// GrassConfig holds grass density and animation settings.
type GrassConfig struct {
	// Distance bands (world units). A tile closer than Near gets Counts[0]
	// tufts, closer than Mid Counts[1], closer than Far Counts[2].
	Near   float32
	Mid    float32
	Far    float32
	Cutoff float32 // tiles at or beyond this distance are skipped
	Counts [3]int

	MemoCapacity  int    // cached tile placements
	ClearInterval uint64 // frames between placement cache clears
	AlphaRef      float32
	BatchQuads    int
	Textures      []uint8 // layer1 ids that grow grass
	Salt          uint32

	Height   float32 // tuft height at scale 1
	Width    float32 // tuft width at scale 1 and full sprite width
	MinScale float32
	MaxScale float32
	Jitter   float32 // max base rotation jitter, radians

	WindScale   float32 // degrees of lean per unit of wind
	SwayDegrees float32
	SwaySpeed   float32 // radians per second
}

// DefaultGrassConfig returns the standard grass settings.
func DefaultGrassConfig() GrassConfig {
	return GrassConfig{
		Near:          1200,
		Mid:           2000,
		Far:           2800,
		Cutoff:        3000,
		Counts:        [3]int{10, 4, 2},
		MemoCapacity:  8192,
		ClearInterval: 1000,
		AlphaRef:      0.25,
		BatchQuads:    4096,
		Textures:      []uint8{0},
		Salt:          0x5eed,
		Height:        60,
		Width:         50,
		MinScale:      0.7,
		MaxScale:      1.3,
		Jitter:        0.35,
		WindScale:     1.5,
		SwayDegrees:   6,
		SwaySpeed:     2,
	}
}

// Bands are the squared distance thresholds of GrassCount.
type Bands struct {
	NearSq float32
	MidSq  float32
	FarSq  float32
	Counts [3]int
}

// Bands returns the squared band thresholds.
func (c GrassConfig) Bands() Bands {
	return Bands{
		NearSq: c.Near * c.Near,
		MidSq:  c.Mid * c.Mid,
		FarSq:  c.Far * c.Far,
		Counts: c.Counts,
	}
}

// GrassCount maps a squared camera distance to a tuft count.
func GrassCount(distSq float32, b Bands) int {
	switch {
	case distSq < b.NearSq:
		return b.Counts[0]
	case distSq < b.MidSq:
		return b.Counts[1]
	case distSq < b.FarSq:
		return b.Counts[2]
	default:
		return 0
	}
}

// GrassMetrics counts the grass work of one frame.
type GrassMetrics struct {
	Tiles   int
	Tufts   int
	Flushes int
}

// tuft is the hash-derived placement of one grass quad within its tile.
type tuft struct {
	u, v     float32 // offset in the tile, 0..1
	scale    float32
	uv0, uv1 float32 // horizontal sprite sub-rectangle
	rotation float32 // jitter added to the diagonal base rotation
	phase    float32 // sway phase
}

type tileKey struct {
	x, y int32
}

type tuftSet [MaxTuftsPerTile]tuft

// GrassRenderer places and draws grass tufts on qualifying tiles.
type GrassRenderer struct {
	cfg     GrassConfig
	bands   Bands
	cutSq   float32
	grows   [terrain.MaxTextures]bool
	physics *terrain.Physics
	wind    *wind.Simulator
	table   *wind.Table
	state   *render.StateCache
	log     *zap.Logger

	sprite     *assets.Resource[*image.RGBA]
	uploader   render.Uploader
	texture    *render.Texture
	failLogged bool

	placements *cache.Generational[tileKey, tuftSet]
	batch      *render.Batch
	time       float32
	metrics    GrassMetrics
}

// NewGrassRenderer creates a grass renderer. sim may be nil, in which case
// the wind field is read directly from the terrain data.
func NewGrassRenderer(physics *terrain.Physics, sim *wind.Simulator, state *render.StateCache, cfg GrassConfig, log *zap.Logger) *GrassRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchQuads <= 0 {
		cfg.BatchQuads = DefaultGrassConfig().BatchQuads
	}
	for i, n := range cfg.Counts {
		cfg.Counts[i] = max(0, min(n, MaxTuftsPerTile))
	}

	g := &GrassRenderer{
		cfg:        cfg,
		bands:      cfg.Bands(),
		cutSq:      cfg.Cutoff * cfg.Cutoff,
		physics:    physics,
		wind:       sim,
		state:      state,
		log:        log.Named("grass"),
		placements: cache.NewGenerational[tileKey, tuftSet](cfg.MemoCapacity, cfg.ClearInterval),
		batch:      render.NewBatch(cfg.BatchQuads),
	}
	if sim != nil {
		g.table = sim.Table()
	} else {
		g.table = wind.NewTable(wind.DefaultTableSize)
	}
	for _, id := range cfg.Textures {
		g.grows[id] = true
	}
	return g
}

// SetSprite installs an asynchronously loading sprite. Grass stays disabled
// until the resource is ready and uploaded.
func (g *GrassRenderer) SetSprite(sprite *assets.Resource[*image.RGBA], up render.Uploader) {
	g.sprite = sprite
	g.uploader = up
	g.texture = nil
	g.failLogged = false
}

// SetTexture installs an already uploaded sprite texture.
func (g *GrassRenderer) SetTexture(tex *render.Texture) {
	g.sprite = nil
	g.texture = tex
}

// Texture returns the sprite texture, nil while unavailable.
func (g *GrassRenderer) Texture() *render.Texture {
	return g.texture
}

// ReloadSprite retries a failed sprite load.
func (g *GrassRenderer) ReloadSprite() bool {
	if g.sprite == nil || !g.sprite.Reload() {
		return false
	}
	g.failLogged = false
	return true
}

// SetTime sets the animation clock in seconds.
func (g *GrassRenderer) SetTime(seconds float32) {
	g.time = seconds
}

// Metrics returns the counters of the current frame.
func (g *GrassRenderer) Metrics() GrassMetrics {
	return g.metrics
}

// PlacementStats returns placement cache hits and misses.
func (g *GrassRenderer) PlacementStats() (hits, misses int) {
	hits, misses, _ = g.placements.Stats()
	return hits, misses
}

// BeginFrame resets the metrics, ages the placement cache and polls the
// sprite load.
func (g *GrassRenderer) BeginFrame() {
	g.metrics = GrassMetrics{}
	g.placements.Advance()
	g.pollSprite()
}

func (g *GrassRenderer) pollSprite() {
	if g.sprite == nil || g.texture != nil {
		return
	}
	switch g.sprite.Poll() {
	case assets.StateReady:
		img, _ := g.sprite.Get()
		if img == nil {
			return
		}
		if g.uploader != nil {
			g.texture = g.uploader.UploadImage(img)
		} else {
			b := img.Bounds()
			g.texture = &render.Texture{Width: b.Dx(), Height: b.Dy()}
		}
		g.log.Debug("grass sprite ready")
	case assets.StateFailed:
		if !g.failLogged {
			g.log.Warn("grass sprite unavailable, grass disabled", zap.Error(g.sprite.Err()))
			g.failLogged = true
		}
	}
}

// AddTile emits the tufts of the step×step tile at texel (x, y). light is the
// tile's lit color in 0..1.
func (g *GrassRenderer) AddTile(x, y, step int, layer uint8, light mgl32.Vec3, cameraPos mgl32.Vec3) {
	if g.texture == nil || !g.grows[layer] {
		return
	}
	d := g.physics.Data()
	scale := d.Scale
	extent := float32(step) * scale

	cx := float32(x)*scale + extent/2
	cy := float32(y)*scale + extent/2
	cz := g.physics.Height(cx, cy)
	dx, dy, dz := cx-cameraPos[0], cy-cameraPos[1], cz-cameraPos[2]
	distSq := dx*dx + dy*dy + dz*dz
	if distSq >= g.cutSq {
		return
	}
	count := GrassCount(distSq, g.bands)
	if count == 0 {
		return
	}
	g.metrics.Tiles++

	tufts := g.placement(x, y)
	windValue := g.windAt(x, y)
	color := mgl32.Vec4{light[0], light[1], light[2], 1}
	ox := float32(x) * scale
	oy := float32(y) * scale
	for j := range count {
		g.addTuft(&tufts[j], ox, oy, extent, windValue, color)
	}
}

func (g *GrassRenderer) windAt(x, y int) float32 {
	if g.wind != nil {
		return g.wind.Value(x, y)
	}
	d := g.physics.Data()
	return d.WindAt(d.WrapIndex(x, y))
}

// placement returns the memoised tufts of tile (x, y).
func (g *GrassRenderer) placement(x, y int) tuftSet {
	key := tileKey{int32(x), int32(y)}
	if set, ok := g.placements.Get(key); ok {
		return set
	}

	var set tuftSet
	cfg := &g.cfg
	for j := range set {
		salt := cfg.Salt + uint32(j)*8
		r := func(k uint32) float32 {
			return terrain.HashFloat(key.x, key.y, salt+k)
		}
		width := 0.5 + 0.5*r(3)
		start := (1 - width) * r(4)
		set[j] = tuft{
			u:        r(0),
			v:        r(1),
			scale:    cfg.MinScale + (cfg.MaxScale-cfg.MinScale)*r(2),
			uv0:      start,
			uv1:      start + width,
			rotation: (r(5)*2 - 1) * cfg.Jitter,
			phase:    r(6) * 2 * math.Pi,
		}
	}
	g.placements.Put(key, set)
	return set
}

func (g *GrassRenderer) addTuft(t *tuft, ox, oy, extent, windValue float32, color mgl32.Vec4) {
	bx := ox + t.u*extent
	by := oy + t.v*extent
	base := mgl32.Vec3{bx, by, g.physics.Height(bx, by)}

	height := g.cfg.Height * t.scale
	halfWidth := g.cfg.Width * t.scale * (t.uv1 - t.uv0) / 2

	rot := math.Pi/4 + t.rotation
	sin, cos := g.table.Sin(rot), g.table.Cos(rot)
	side := mgl32.Vec3{cos * halfWidth, sin * halfWidth, 0}
	across := mgl32.Vec3{-sin, cos, 0}

	// Only the top edge leans with the wind
	lean := mgl32.DegToRad(windValue*g.cfg.WindScale + g.cfg.SwayDegrees*g.table.Sin(g.time*g.cfg.SwaySpeed+t.phase))
	top := across.Mul(height * g.table.Sin(lean)).Add(mgl32.Vec3{0, 0, height * g.table.Cos(lean)})

	bl := base.Sub(side)
	br := base.Add(side)
	v0 := render.Vertex{Pos: bl, UV: mgl32.Vec2{t.uv0, 1}, Color: color}
	v1 := render.Vertex{Pos: br, UV: mgl32.Vec2{t.uv1, 1}, Color: color}
	v2 := render.Vertex{Pos: br.Add(top), UV: mgl32.Vec2{t.uv1, 0}, Color: color}
	v3 := render.Vertex{Pos: bl.Add(top), UV: mgl32.Vec2{t.uv0, 0}, Color: color}

	if g.batch.Full() {
		g.Flush()
	}
	g.batch.AddQuad(v0, v1, v2, v3)
	g.metrics.Tufts++
}

// Flush draws the buffered tufts with alpha testing.
func (g *GrassRenderer) Flush() {
	if g.batch.Empty() {
		return
	}
	if g.texture == nil {
		g.batch.Reset()
		return
	}
	g.state.BindTexture(g.texture)
	g.state.SetBlend(render.AlphaTest(g.cfg.AlphaRef))
	g.state.DrawQuads(g.batch.Vertices())
	g.batch.Reset()
	g.metrics.Flushes++
}
