package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/cache"
	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/visibility"
)

// Pass selects which tiles a Draw call submits.
type Pass int

const (
	// PassAll draws every tile.
	PassAll Pass = iota
	// PassGround draws every tile except water.
	PassGround
	// PassWater draws only water tiles, after the ground pass.
	PassWater
)

func (p Pass) String() string {
	switch p {
	case PassAll:
		return "all"
	case PassGround:
		return "ground"
	case PassWater:
		return "water"
	default:
		return "unknown"
	}
}

// RendererConfig holds terrain batching settings.
type RendererConfig struct {
	BatchQuads         int    // quads per texture batch
	LightCacheTTL      uint64 // frames between vertex-light cache clears
	LightCacheCapacity int
	Ambient            float32 // 0..255, added to every vertex light

	TileUV         float32 // texel units per texture width, UV scale = TileUV / width
	WaterTexture   uint8
	WaterScroll    float32 // UV units per second
	WaterFrequency float32 // radians per texel
	WaterAmplitude float32 // UV units
}

// DefaultRendererConfig returns the standard batching settings.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		BatchQuads:         1024,
		LightCacheTTL:      2,
		LightCacheCapacity: 1 << 16,
		TileUV:             64,
		WaterTexture:       terrain.WaterTexture,
		WaterScroll:        0.05,
		WaterFrequency:     0.5,
		WaterAmplitude:     0.03,
	}
}

// RendererMetrics counts the work of one frame.
type RendererMetrics struct {
	Blocks     int
	Tiles      int
	Quads      int
	AlphaQuads int
	Overflows  int // mid-frame batch flushes and alpha spills
	Skipped    int // quads dropped because their texture is not loaded
}

type vertexLight struct {
	color mgl32.Vec3 // 0..1
	pos   mgl32.Vec3
}

type spilledBatch struct {
	texture uint8
	batch   *render.Batch
}

// TerrainRenderer turns visible blocks into batched textured quads. Opaque
// geometry always reaches the device before alpha-blended geometry.
type TerrainRenderer struct {
	cfg    RendererConfig
	data   *terrain.Data
	vis    *visibility.Manager
	lights terrain.DynamicLighter
	grass  *GrassRenderer
	state  *render.StateCache
	log    *zap.Logger

	specialHeight float32

	// Batches, allocated on first use per texture and reused
	opaque [terrain.MaxTextures]*render.Batch
	alpha  [terrain.MaxTextures]*render.Batch

	// Full alpha batches waiting for the end of frame, and their free list
	spilled []spilledBatch
	pool    []*render.Batch

	vertexLights *cache.Generational[int, vertexLight]

	time    float32 // seconds
	metrics RendererMetrics
}

// NewTerrainRenderer creates a renderer drawing through state. lights and
// grass may be nil.
func NewTerrainRenderer(
	data *terrain.Data,
	vis *visibility.Manager,
	lights terrain.DynamicLighter,
	grass *GrassRenderer,
	state *render.StateCache,
	cfg RendererConfig,
	log *zap.Logger,
) *TerrainRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchQuads <= 0 {
		cfg.BatchQuads = DefaultRendererConfig().BatchQuads
	}
	if cfg.TileUV <= 0 {
		cfg.TileUV = DefaultRendererConfig().TileUV
	}
	return &TerrainRenderer{
		cfg:           cfg,
		data:          data,
		vis:           vis,
		lights:        lights,
		grass:         grass,
		state:         state,
		log:           log.Named("terrain"),
		specialHeight: vis.Config().SpecialHeight,
		vertexLights:  cache.NewGenerational[int, vertexLight](cfg.LightCacheCapacity, cfg.LightCacheTTL),
	}
}

// SetTime sets the animation clock in seconds.
func (r *TerrainRenderer) SetTime(seconds float32) {
	r.time = seconds
}

// Metrics returns the counters of the current frame.
func (r *TerrainRenderer) Metrics() RendererMetrics {
	return r.metrics
}

// LightCacheStats returns vertex-light cache hits and misses.
func (r *TerrainRenderer) LightCacheStats() (hits, misses int) {
	hits, misses, _ = r.vertexLights.Stats()
	return hits, misses
}

// Draw renders the visible blocks for one pass. Any pass other than
// PassWater starts a new frame: metrics reset and frame-scoped caches age.
func (r *TerrainRenderer) Draw(cameraPos mgl32.Vec3, pass Pass) {
	if pass != PassWater {
		r.metrics = RendererMetrics{}
		r.state.ResetMetrics()
		r.vertexLights.Advance()
		if r.grass != nil {
			r.grass.BeginFrame()
		}
	}

	bs := r.vis.Config().BlockSize
	for _, b := range r.vis.Visible() {
		r.metrics.Blocks++
		step := r.vis.LODStep(b.LOD)
		if step < 1 {
			step = 1
		}
		for ty := 0; ty < bs; ty += step {
			for tx := 0; tx < bs; tx += step {
				if b.Partial && !tileRangeVisible(b, tx, ty, step, bs) {
					continue
				}
				r.drawTile(b.GridX*bs+tx, b.GridY*bs+ty, step, cameraPos, pass)
			}
		}
	}

	r.flush()
	if r.grass != nil && pass != PassWater {
		r.grass.Flush()
	}
	r.flushAlpha()
}

// tileRangeVisible reports whether any tile of the step×step square at
// (tx, ty) is marked in the block's tile mask.
func tileRangeVisible(b *visibility.Block, tx, ty, step, bs int) bool {
	for y := ty; y < min(ty+step, bs); y++ {
		for x := tx; x < min(tx+step, bs); x++ {
			if b.TileVisible(x, y, bs) {
				return true
			}
		}
	}
	return false
}

func (r *TerrainRenderer) drawTile(x, y, step int, cameraPos mgl32.Vec3, pass Pass) {
	d := r.data
	origin := d.WrapIndex(x, y)
	if d.FlagsAt(origin).Has(terrain.FlagNoGround) {
		return
	}

	// Corners counter-clockwise from the tile origin
	cx := [4]int{x, x + step, x + step, x}
	cy := [4]int{y, y, y + step, y + step}
	var idx [4]int
	var alpha [4]uint8
	for c := range 4 {
		idx[c] = d.WrapIndex(cx[c], cy[c])
		alpha[c] = d.AlphaAt(idx[c])
	}

	layer1, layer2 := d.Layers(origin)
	base := layer1
	allOpaque := alpha[0] == 255 && alpha[1] == 255 && alpha[2] == 255 && alpha[3] == 255
	if allOpaque {
		base = layer2
	}

	water := base == r.cfg.WaterTexture
	switch pass {
	case PassGround:
		if water {
			return
		}
	case PassWater:
		if !water {
			return
		}
	}
	r.metrics.Tiles++

	var pos [4]mgl32.Vec3
	var light [4]mgl32.Vec3
	for c := range 4 {
		i := idx[c]
		z := d.HeightAt(i)
		if d.FlagsAt(i).Has(terrain.FlagHeight) {
			z = r.specialHeight
		}
		pos[c] = mgl32.Vec3{float32(cx[c]) * d.Scale, float32(cy[c]) * d.Scale, z}
		light[c] = r.vertexLight(i, pos[c])
	}

	r.emit(base, false, &pos, &light, nil, cx, cy)
	anyAlpha := (alpha[0] | alpha[1] | alpha[2] | alpha[3]) != 0
	if !allOpaque && anyAlpha {
		r.emit(layer2, true, &pos, &light, &alpha, cx, cy)
	}

	if r.grass != nil && !water && !anyAlpha {
		r.grass.AddTile(x, y, step, layer1, light[0], cameraPos)
	}
}

// vertexLight returns the lit color of texel i at pos. Entries computed for a
// different position are treated as stale.
func (r *TerrainRenderer) vertexLight(i int, pos mgl32.Vec3) mgl32.Vec3 {
	fresh := func(e vertexLight) bool { return e.pos == pos }
	if e, ok := r.vertexLights.GetIf(i, fresh); ok {
		return e.color
	}

	c := r.data.FinalLightAt(i)
	amb := r.cfg.Ambient
	c = c.Add(mgl32.Vec3{amb, amb, amb})
	if r.lights != nil {
		c = c.Add(r.lights.Evaluate(pos))
	}
	for ch := range 3 {
		c[ch] = mgl32.Clamp(c[ch], 0, 255) / 255
	}
	r.vertexLights.Put(i, vertexLight{color: c, pos: pos})
	return c
}

func (r *TerrainRenderer) emit(id uint8, blended bool, pos, light *[4]mgl32.Vec3, alpha *[4]uint8, cx, cy [4]int) {
	tex := r.data.Texture(id)
	if tex == nil {
		r.metrics.Skipped++
		return
	}

	var v [4]render.Vertex
	for c := range 4 {
		a := float32(1)
		if alpha != nil {
			a = float32(alpha[c]) / 255
		}
		l := light[c]
		v[c] = render.Vertex{
			Pos:   pos[c],
			UV:    r.uv(id, tex, cx[c], cy[c]),
			Color: mgl32.Vec4{l[0], l[1], l[2], a},
		}
	}

	if blended {
		r.addAlpha(id, v)
		r.metrics.AlphaQuads++
	} else {
		r.addOpaque(id, v)
	}
	r.metrics.Quads++
}

// uv tiles the texture every width/TileUV texels. Water scrolls and wobbles
// with time.
func (r *TerrainRenderer) uv(id uint8, tex *render.Texture, x, y int) mgl32.Vec2 {
	scale := float32(1)
	if tex.Width > 0 {
		scale = r.cfg.TileUV / float32(tex.Width)
	}
	u := float32(x) * scale
	v := float32(y) * scale
	if id == r.cfg.WaterTexture {
		phase := float64(float32(x+y)*r.cfg.WaterFrequency + r.time)
		u += r.time * r.cfg.WaterScroll
		v += r.cfg.WaterAmplitude * float32(math.Sin(phase))
	}
	return mgl32.Vec2{u, v}
}

func (r *TerrainRenderer) batch(set *[terrain.MaxTextures]*render.Batch, id uint8) *render.Batch {
	b := set[id]
	if b == nil {
		b = render.NewBatch(r.cfg.BatchQuads)
		set[id] = b
	}
	return b
}

func (r *TerrainRenderer) addOpaque(id uint8, v [4]render.Vertex) {
	b := r.batch(&r.opaque, id)
	if b.Full() {
		r.metrics.Overflows++
		r.log.Debug("opaque batch overflow", zap.Uint8("texture", id))
		r.submit(id, b, render.Opaque)
	}
	b.AddQuad(v[0], v[1], v[2], v[3])
}

// addAlpha never submits mid-frame: a full alpha batch is parked until the
// opaque batches are out.
func (r *TerrainRenderer) addAlpha(id uint8, v [4]render.Vertex) {
	b := r.batch(&r.alpha, id)
	if b.Full() {
		r.metrics.Overflows++
		r.log.Debug("alpha batch spilled", zap.Uint8("texture", id))
		r.spilled = append(r.spilled, spilledBatch{texture: id, batch: b})
		b = r.takeBatch()
		r.alpha[id] = b
	}
	b.AddQuad(v[0], v[1], v[2], v[3])
}

func (r *TerrainRenderer) takeBatch() *render.Batch {
	if n := len(r.pool); n > 0 {
		b := r.pool[n-1]
		r.pool = r.pool[:n-1]
		return b
	}
	return render.NewBatch(r.cfg.BatchQuads)
}

func (r *TerrainRenderer) submit(id uint8, b *render.Batch, blend render.BlendState) {
	if b.Empty() {
		return
	}
	r.state.BindTexture(r.data.Texture(id))
	r.state.SetBlend(blend)
	r.state.DrawQuads(b.Vertices())
	b.Reset()
}

// flush submits every opaque batch in texture order.
func (r *TerrainRenderer) flush() {
	for id := range r.opaque {
		if b := r.opaque[id]; b != nil {
			r.submit(uint8(id), b, render.Opaque)
		}
	}
}

// flushAlpha submits the parked alpha batches, then the live ones.
func (r *TerrainRenderer) flushAlpha() {
	for _, s := range r.spilled {
		r.submit(s.texture, s.batch, render.Alpha)
		r.pool = append(r.pool, s.batch)
	}
	clear(r.spilled)
	r.spilled = r.spilled[:0]

	for id := range r.alpha {
		if b := r.alpha[id]; b != nil {
			r.submit(uint8(id), b, render.Alpha)
		}
	}
}
