package lighting

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/geom"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Defaults for active-light culling.
const (
	DefaultIntensityEpsilon = 0.001
	DefaultReducedDistance  = 2000.0
)

// Config holds light culling settings.
type Config struct {
	// IntensityEpsilon drops lights at or below this intensity.
	IntensityEpsilon float32
	// ReducedQuality drops lights farther than ReducedDistance from the camera.
	ReducedQuality  bool
	ReducedDistance float32
	// ExemptScene disables the reduced-quality distance cut (e.g. for
	// indoor scenes lit mostly by dynamic lights).
	ExemptScene bool
}

// DefaultConfig returns the standard culling settings.
func DefaultConfig() Config {
	return Config{
		IntensityEpsilon: DefaultIntensityEpsilon,
		ReducedDistance:  DefaultReducedDistance,
	}
}

// Manager owns the dynamic light list and the per-frame active subset.
type Manager struct {
	cfg    Config
	log    *zap.Logger
	lights []*DynamicLight
	active []*DynamicLight
}

// NewManager creates a light manager.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		log:    log.Named("lighting"),
		lights: make([]*DynamicLight, 0, 32),
		active: make([]*DynamicLight, 0, 32),
	}
}

// Config returns the culling settings.
func (m *Manager) Config() Config {
	return m.cfg
}

// SetReducedQuality toggles the distance cut.
func (m *Manager) SetReducedQuality(enabled bool) {
	m.cfg.ReducedQuality = enabled
}

// SetExemptScene marks the current scene as exempt from the distance cut.
func (m *Manager) SetExemptScene(exempt bool) {
	m.cfg.ExemptScene = exempt
}

// AddLight registers a light. Adding the same light twice is a no-op.
func (m *Manager) AddLight(l *DynamicLight) {
	if l == nil {
		return
	}
	for _, existing := range m.lights {
		if existing == l {
			return
		}
	}
	m.lights = append(m.lights, l)
}

// RemoveLight unregisters a light by identity. The light also leaves the
// active set immediately.
func (m *Manager) RemoveLight(l *DynamicLight) {
	m.lights = removeLight(m.lights, l)
	m.active = removeLight(m.active, l)
}

func removeLight(list []*DynamicLight, l *DynamicLight) []*DynamicLight {
	for i, existing := range list {
		if existing == l {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

// Lights returns all registered lights.
func (m *Manager) Lights() []*DynamicLight {
	return m.lights
}

// Active returns the lights kept by the last RefreshActiveLights.
func (m *Manager) Active() []*DynamicLight {
	return m.active
}

// RefreshActiveLights rebuilds the active subset for this frame. Owned
// lights first pick up their owner's position. When cullByFrustum is set and
// frustum is non-nil, only lights whose sphere touches the frustum are kept.
func (m *Manager) RefreshActiveLights(cameraPos mgl32.Vec3, frustum *geom.Frustum, cullByFrustum bool) {
	m.active = m.active[:0]

	reducedSq := m.cfg.ReducedDistance * m.cfg.ReducedDistance
	distanceCut := m.cfg.ReducedQuality && !m.cfg.ExemptScene

	for _, l := range m.lights {
		if l.Owner != nil {
			l.Position = l.Owner.Position()
		}
		if l.Intensity <= m.cfg.IntensityEpsilon {
			continue
		}
		if distanceCut {
			d := l.Position.Sub(cameraPos)
			if d.Dot(d) > reducedSq {
				continue
			}
		}
		if cullByFrustum && frustum != nil && !frustum.IntersectsSphere(l.Position, l.Radius) {
			continue
		}
		m.active = append(m.active, l)
	}
}

// Evaluate sums the contribution of every active light at point, in 0..255
// units. The result is not clamped.
func (m *Manager) Evaluate(point mgl32.Vec3) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, l := range m.active {
		if c, ok := l.contribution(point); ok {
			sum = sum.Add(c)
		}
	}
	return sum
}

// ComputeNormals derives per-texel normals from the height field. Each texel
// contributes two triangles over its wrapped 2×2 neighbourhood; the face
// normals are summed and normalised.
func (m *Manager) ComputeNormals(d *terrain.Data) {
	if d == nil || len(d.Height) != d.Len() {
		m.log.Warn("skipping normals: height map missing")
		return
	}
	if len(d.Normals) != d.Len() {
		d.Normals = make([]mgl32.Vec3, d.Len())
	}

	s := d.Scale
	for y := range d.Size {
		for x := range d.Size {
			fx := float32(x) * s
			fy := float32(y) * s
			v1 := mgl32.Vec3{fx, fy, d.Height[d.WrapIndex(x, y)]}
			v2 := mgl32.Vec3{fx + s, fy, d.Height[d.WrapIndex(x+1, y)]}
			v3 := mgl32.Vec3{fx + s, fy + s, d.Height[d.WrapIndex(x+1, y+1)]}
			v4 := mgl32.Vec3{fx, fy + s, d.Height[d.WrapIndex(x, y+1)]}

			n1 := v2.Sub(v1).Cross(v3.Sub(v1))
			n2 := v3.Sub(v1).Cross(v4.Sub(v1))
			n := n1.Add(n2)
			if n.Len() == 0 {
				n = mgl32.Vec3{0, 0, 1}
			}
			d.Normals[d.Index(x, y)] = n.Normalize()
		}
	}
	m.log.Debug("normals computed", zap.Int("texels", d.Len()))
}

// BakeFinalLightMap modulates the static light by the sun:
// final = static * clamp(normal·dir + 0.5, 0, 1).
func (m *Manager) BakeFinalLightMap(d *terrain.Data, dir mgl32.Vec3) {
	if d == nil {
		return
	}
	n := d.Len()
	if len(d.FinalLight) != n {
		d.FinalLight = make([]mgl32.Vec3, n)
	}
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}

	for i := range n {
		static := terrain.White
		if i < len(d.StaticLight) {
			static = d.StaticLight[i]
		}
		normal := mgl32.Vec3{0, 0, 1}
		if i < len(d.Normals) {
			normal = d.Normals[i]
		}
		lum := normal.Dot(dir) + 0.5
		if lum < 0 {
			lum = 0
		} else if lum > 1 {
			lum = 1
		}
		d.FinalLight[i] = static.Mul(lum)
	}
	m.log.Info("light map baked",
		zap.Float32("dir_x", dir[0]),
		zap.Float32("dir_y", dir[1]),
		zap.Float32("dir_z", dir[2]),
	)
}
