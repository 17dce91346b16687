package visibility

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/geom"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Config holds block partitioning and LOD selection settings.
type Config struct {
	BlockSize int // texels per block side, divides the grid size

	// MoveThreshold is the camera travel (world units) below which a pass is
	// skipped. Compared squared.
	MoveThreshold float32

	RenderDistanceScale float32 // render distance = camera far * scale
	Overscan            int     // extra blocks around the render window

	LODDistance float32 // world units per LOD level
	LODBlend    float32 // 0 = planar distance, 1 = full 3D distance
	LODSteps    []int   // tile stride per LOD level

	PartialCulling bool // build per-tile masks for straddling blocks
	SpecialHeight  float32
}

// DefaultConfig returns the standard visibility settings.
func DefaultConfig() Config {
	return Config{
		BlockSize:           4,
		MoveThreshold:       50,
		RenderDistanceScale: 1.2,
		Overscan:            2,
		LODDistance:         2000,
		LODBlend:            0.5,
		LODSteps:            []int{1, 4},
		PartialCulling:      true,
		SpecialHeight:       terrain.DefaultSpecialHeight,
	}
}

// Manager owns the block grid and the visible set.
type Manager struct {
	cfg  Config
	data *terrain.Data
	log  *zap.Logger

	blocksPerSide int
	blocks        []Block
	visible       []*Block

	lastPos    mgl32.Vec3
	hasLast    bool
	recomputes int
}

// NewManager partitions data into blocks and computes their bounds.
// An unusable block size falls back to the default. LOD steps are reduced to
// the nearest divisor of the block size so tiles never cross block edges.
func NewManager(data *terrain.Data, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BlockSize <= 0 || data.Size%cfg.BlockSize != 0 {
		cfg.BlockSize = DefaultConfig().BlockSize
	}
	if data.Size%cfg.BlockSize != 0 {
		cfg.BlockSize = data.Size
	}
	if len(cfg.LODSteps) == 0 {
		cfg.LODSteps = DefaultConfig().LODSteps
	}
	cfg.LODSteps = fitSteps(cfg.LODSteps, cfg.BlockSize)
	if cfg.LODDistance <= 0 {
		cfg.LODDistance = DefaultConfig().LODDistance
	}

	per := data.Size / cfg.BlockSize
	m := &Manager{
		cfg:           cfg,
		data:          data,
		log:           log.Named("visibility"),
		blocksPerSide: per,
		blocks:        make([]Block, per*per),
		visible:       make([]*Block, 0, per*per),
	}
	for gy := range per {
		for gx := range per {
			b := &m.blocks[gy*per+gx]
			b.GridX = gx
			b.GridY = gy
		}
	}
	m.RebuildBounds()
	return m
}

// Config returns the active settings.
func (m *Manager) Config() Config {
	return m.cfg
}

// BlocksPerSide returns the number of blocks along one grid edge.
func (m *Manager) BlocksPerSide() int {
	return m.blocksPerSide
}

// Block returns the block at grid coordinates, or nil.
func (m *Manager) Block(gx, gy int) *Block {
	if gx < 0 || gy < 0 || gx >= m.blocksPerSide || gy >= m.blocksPerSide {
		return nil
	}
	return &m.blocks[gy*m.blocksPerSide+gx]
}

// RebuildBounds recomputes every block's AABB from the height field. Call it
// after the terrain geometry changes.
func (m *Manager) RebuildBounds() {
	d := m.data
	bs := m.cfg.BlockSize
	scale := d.Scale
	for i := range m.blocks {
		b := &m.blocks[i]
		x0 := b.GridX * bs
		y0 := b.GridY * bs

		minZ := float32(math.MaxFloat32)
		maxZ := float32(-math.MaxFloat32)
		// Tiles reach one texel past the block edge
		for y := y0; y <= y0+bs; y++ {
			for x := x0; x <= x0+bs; x++ {
				idx := d.WrapIndex(x, y)
				z := d.HeightAt(idx)
				if d.FlagsAt(idx).Has(terrain.FlagHeight) {
					z = m.cfg.SpecialHeight
				}
				minZ = min(minZ, z)
				maxZ = max(maxZ, z)
			}
		}

		b.Bounds = geom.AABB{
			Min: mgl32.Vec3{float32(x0) * scale, float32(y0) * scale, minZ},
			Max: mgl32.Vec3{float32(x0+bs) * scale, float32(y0+bs) * scale, maxZ},
		}
	}
}

// Invalidate forces the next Update to recompute.
func (m *Manager) Invalidate() {
	m.hasLast = false
}

// Recomputes returns how many full passes have run.
func (m *Manager) Recomputes() int {
	return m.recomputes
}

// Visible returns the visible blocks of the last pass in grid scan order.
func (m *Manager) Visible() []*Block {
	return m.visible
}

// LODStep returns the tile stride for a LOD level.
func (m *Manager) LODStep(lod int) int {
	steps := m.cfg.LODSteps
	if lod < 0 {
		lod = 0
	}
	if lod >= len(steps) {
		lod = len(steps) - 1
	}
	return steps[lod]
}

// Update runs a visibility pass unless the camera moved less than the
// threshold since the last one. Returns true when the visible set was
// recomputed.
func (m *Manager) Update(cam *camera.Camera) bool {
	pos := cam.Position
	if m.hasLast {
		d := pos.Sub(m.lastPos)
		if d.Dot(d) <= m.cfg.MoveThreshold*m.cfg.MoveThreshold {
			return false
		}
	}
	m.lastPos = pos
	m.hasLast = true
	m.recomputes++

	for _, b := range m.visible {
		b.Visible = false
		b.Partial = false
	}
	m.visible = m.visible[:0]

	if !finite(pos[0]) || !finite(pos[1]) || !finite(pos[2]) {
		return true
	}

	renderDist := cam.Far * m.cfg.RenderDistanceScale
	renderDistSq := renderDist * renderDist
	blockWorld := float32(m.cfg.BlockSize) * m.data.Scale

	cbx := int(math.Floor(float64(pos[0] / blockWorld)))
	cby := int(math.Floor(float64(pos[1] / blockWorld)))
	radius := int(math.Ceil(float64(renderDist/blockWorld))) + m.cfg.Overscan

	last := m.blocksPerSide - 1
	x0 := clampi(cbx-radius, 0, m.blocksPerSide)
	x1 := clampi(cbx+radius, -1, last)
	y0 := clampi(cby-radius, 0, m.blocksPerSide)
	y1 := clampi(cby+radius, -1, last)

	frustum := cam.Frustum()
	for gy := y0; gy <= y1; gy++ {
		for gx := x0; gx <= x1; gx++ {
			b := &m.blocks[gy*m.blocksPerSide+gx]
			c := b.Bounds.Center()
			dx := c[0] - pos[0]
			dy := c[1] - pos[1]
			planarSq := dx*dx + dy*dy
			if planarSq > renderDistSq {
				continue
			}

			containment := frustum.TestAABB(b.Bounds)
			if containment == geom.Outside {
				continue
			}

			dz := c[2] - pos[2]
			b.LOD = m.selectLOD(planarSq, dz)
			b.Visible = true
			b.Partial = false
			if containment == geom.Intersect && m.cfg.PartialCulling && m.cfg.BlockSize <= MaxMaskedBlockSize {
				b.Partial = true
				b.TileMask = m.tileMask(b, frustum)
			}
			m.visible = append(m.visible, b)
		}
	}

	m.log.Debug("visibility recomputed",
		zap.Int("visible", len(m.visible)),
		zap.Int("window", (x1-x0+1)*(y1-y0+1)),
	)
	return true
}

// selectLOD blends planar and 3D distance and maps it to a level.
func (m *Manager) selectLOD(planarSq, dz float32) int {
	planar := float32(math.Sqrt(float64(planarSq)))
	full := float32(math.Sqrt(float64(planarSq + dz*dz)))
	blended := planar + (full-planar)*m.cfg.LODBlend

	lod := int(blended / m.cfg.LODDistance)
	return clampi(lod, 0, len(m.cfg.LODSteps)-1)
}

func (m *Manager) tileMask(b *Block, frustum *geom.Frustum) uint64 {
	bs := m.cfg.BlockSize
	scale := m.data.Scale
	var mask uint64
	for ty := range bs {
		for tx := range bs {
			tile := geom.AABB{
				Min: mgl32.Vec3{b.Bounds.Min[0] + float32(tx)*scale, b.Bounds.Min[1] + float32(ty)*scale, b.Bounds.Min[2]},
				Max: mgl32.Vec3{b.Bounds.Min[0] + float32(tx+1)*scale, b.Bounds.Min[1] + float32(ty+1)*scale, b.Bounds.Max[2]},
			}
			if frustum.IntersectsAABB(tile) {
				mask |= 1 << uint(ty*bs+tx)
			}
		}
	}
	return mask
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fitSteps returns a copy of steps with each stride in [1, bs] and dividing bs.
func fitSteps(steps []int, bs int) []int {
	out := make([]int, len(steps))
	for i, step := range steps {
		step = max(1, min(step, bs))
		for bs%step != 0 {
			step--
		}
		out[i] = step
	}
	return out
}
