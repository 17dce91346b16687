package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSpecialHeight is the height reported for texels carrying FlagHeight.
const DefaultSpecialHeight = 1200.0

// DynamicLighter evaluates the additive dynamic-light contribution at a
// world point, in 0..255 units, unclamped.
type DynamicLighter interface {
	Evaluate(point mgl32.Vec3) mgl32.Vec3
}

// Physics answers height, light, texture and attribute queries at arbitrary
// world positions. All methods are read-only and allocation free.
type Physics struct {
	data   *Data
	lights DynamicLighter

	// SpecialHeight is returned by Height for FlagHeight texels.
	SpecialHeight float32
}

// NewPhysics creates a query layer over data. lights may be nil.
func NewPhysics(data *Data, lights DynamicLighter) *Physics {
	return &Physics{
		data:          data,
		lights:        lights,
		SpecialHeight: DefaultSpecialHeight,
	}
}

// Data returns the underlying grid.
func (p *Physics) Data() *Data {
	return p.data
}

// Height returns the bilinearly interpolated terrain height at world (x, y).
// Neighbour texels wrap around the grid edges so the surface repeats
// seamlessly. Negative, NaN or infinite input, or a missing height map,
// yields 0.
func (p *Physics) Height(x, y float32) float32 {
	d := p.data
	if d == nil || len(d.Height) != d.Len() {
		return 0
	}
	if !validCoord(x) || !validCoord(y) {
		return 0
	}

	tx := x / d.Scale
	ty := y / d.Scale
	xi := int(tx)
	yi := int(ty)
	xd := tx - float32(xi)
	yd := ty - float32(yi)

	i1 := d.WrapIndex(xi, yi)
	if d.FlagsAt(i1).Has(FlagHeight) {
		return p.SpecialHeight
	}
	i2 := d.WrapIndex(xi+1, yi)
	i3 := d.WrapIndex(xi, yi+1)
	i4 := d.WrapIndex(xi+1, yi+1)

	h1 := d.Height[i1]
	h2 := d.Height[i2]
	h3 := d.Height[i3]
	h4 := d.Height[i4]

	near := h1 + (h2-h1)*xd
	far := h3 + (h4-h3)*xd
	return near + (far-near)*yd
}

// Light returns the lit color at world (x, y) in 0..1 per channel: the
// bilinearly interpolated baked light plus ambient (0..255, broadcast to RGB)
// plus dynamic lights, clamped. When any of the four light-map samples falls
// outside the grid the result is neutral white; there is no partial blend.
func (p *Physics) Light(x, y, ambient float32) mgl32.Vec3 {
	neutral := mgl32.Vec3{1, 1, 1}
	d := p.data
	if d == nil || len(d.FinalLight) == 0 {
		return neutral
	}
	if !validCoord(x) || !validCoord(y) {
		return neutral
	}

	tx := x / d.Scale
	ty := y / d.Scale
	// Reject in float space, before the int conversion can overflow
	if !(tx < float32(d.Size)) || !(ty < float32(d.Size)) {
		return neutral
	}
	xi := int(tx)
	yi := int(ty)
	xd := tx - float32(xi)
	yd := ty - float32(yi)

	i1 := d.Index(xi, yi)
	i2 := i1 + 1
	i3 := i1 + d.Size
	i4 := i3 + 1
	n := len(d.FinalLight)
	if i1 < 0 || i4 >= n {
		return neutral
	}

	c1 := d.FinalLight[i1]
	c2 := d.FinalLight[i2]
	c3 := d.FinalLight[i3]
	c4 := d.FinalLight[i4]

	var out mgl32.Vec3
	for ch := 0; ch < 3; ch++ {
		near := c1[ch] + (c2[ch]-c1[ch])*xd
		far := c3[ch] + (c4[ch]-c3[ch])*xd
		out[ch] = near + (far-near)*yd + ambient
	}

	if p.lights != nil {
		out = out.Add(p.lights.Evaluate(mgl32.Vec3{x, y, p.Height(x, y)}))
	}

	for ch := 0; ch < 3; ch++ {
		out[ch] = clampf(out[ch], 0, 255) / 255
	}
	return out
}

// BaseTextureIndex returns the dominant texture id of the texel under world
// (x, y): layer2 when it fully covers the texel, layer1 otherwise. Coordinates
// are clamped to the grid.
func (p *Physics) BaseTextureIndex(x, y float32) uint8 {
	d := p.data
	if d == nil {
		return 0
	}
	tx := clampi(texelCoord(x, d.Scale), 0, d.Size-1)
	ty := clampi(texelCoord(y, d.Scale), 0, d.Size-1)
	i := d.Index(tx, ty)

	layer1, layer2 := d.Layers(i)
	if d.AlphaAt(i) == 255 {
		return layer2
	}
	return layer1
}

// Flags returns the attribute flags of the texel under world (x, y), or no
// flags when attributes are not loaded or the point is off the grid.
func (p *Physics) Flags(x, y float32) Flag {
	d := p.data
	if d == nil || len(d.Flags) == 0 || !validCoord(x) || !validCoord(y) {
		return 0
	}
	tx := int(x / d.Scale)
	ty := int(y / d.Scale)
	if tx >= d.Size || ty >= d.Size {
		return 0
	}
	return d.FlagsAt(d.Index(tx, ty))
}

// Walkable reports whether characters can stand at world (x, y).
func (p *Physics) Walkable(x, y float32) bool {
	f := p.Flags(x, y)
	return f&(FlagNoMove|FlagNoGround) == 0
}

// validCoord rejects negative and non-finite world coordinates.
func validCoord(v float32) bool {
	f := float64(v)
	return f >= 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func texelCoord(v, scale float32) int {
	f := float64(v / scale)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
