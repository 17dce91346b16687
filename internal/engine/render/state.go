package render

// StateCache wraps a Device and drops redundant texture and blend writes.
// It also counts the draws and triangles that reach the device.
type StateCache struct {
	dev Device

	texture    *Texture
	hasTexture bool
	blend      BlendState
	hasBlend   bool

	DrawCalls int
	Triangles int
}

// NewStateCache creates a state cache in front of dev.
func NewStateCache(dev Device) *StateCache {
	return &StateCache{dev: dev}
}

// BindTexture binds tex unless it is already bound.
func (s *StateCache) BindTexture(tex *Texture) {
	if s.hasTexture && s.texture == tex {
		return
	}
	s.texture = tex
	s.hasTexture = true
	s.dev.BindTexture(tex)
}

// SetBlend applies state unless it is already active.
func (s *StateCache) SetBlend(state BlendState) {
	if s.hasBlend && s.blend == state {
		return
	}
	s.blend = state
	s.hasBlend = true
	s.dev.SetBlend(state)
}

// DrawQuads forwards a draw and updates the counters.
func (s *StateCache) DrawQuads(vertices []Vertex) {
	if len(vertices) < VerticesPerQuad {
		return
	}
	s.dev.DrawQuads(vertices)
	s.DrawCalls++
	s.Triangles += len(vertices) / VerticesPerQuad * 2
}

// ResetMetrics zeroes the draw counters.
func (s *StateCache) ResetMetrics() {
	s.DrawCalls = 0
	s.Triangles = 0
}

// Invalidate forgets the tracked state so the next writes always reach the
// device. Call it when something else touched the device state.
func (s *StateCache) Invalidate() {
	s.texture = nil
	s.hasTexture = false
	s.hasBlend = false
}
