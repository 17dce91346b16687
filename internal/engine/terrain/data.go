// Package terrain holds the per-texel terrain grid and the pure query layer
// over it: interpolated height and light, texture and attribute lookups.
package terrain

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/render"
)

// Default grid parameters.
const (
	DefaultSize  = 256
	DefaultScale = 100.0

	// MaxTextures is the number of texture id slots (ids are bytes).
	MaxTextures = 256

	// WaterTexture is the layer id rendered with animated UVs.
	WaterTexture = 5
)

var (
	// ErrInvalidSize is returned for grid sizes that are not a power of two.
	ErrInvalidSize = errors.New("terrain: size must be a positive power of two")
	// ErrSizeMismatch is returned when a per-texel array has the wrong length.
	ErrSizeMismatch = errors.New("terrain: array length does not match grid")
)

// White is the neutral light color in 0..255 units.
var White = mgl32.Vec3{255, 255, 255}

// Data is the terrain grid. Every per-texel slice has length Size*Size and is
// addressed by i = y*Size + x. Components hold a reference and never replace
// the container after load; individual slices may be nil when a map does not
// provide them, and every query treats that as "use the default".
type Data struct {
	Size  int     // texels per side, power of two
	Mask  int     // Size-1, for wrapped neighbour lookups
	Scale float32 // world units per texel

	Height      []float32
	Layer1      []uint8
	Layer2      []uint8
	Alpha       []uint8 // 0 = only layer1, 255 = only layer2
	Flags       []Flag
	StaticLight []mgl32.Vec3 // 0..255 per channel
	Normals     []mgl32.Vec3
	FinalLight  []mgl32.Vec3 // StaticLight modulated by the sun, 0..255
	Wind        []float32

	// Textures is indexed by texture id; nil entries are not loaded.
	Textures [MaxTextures]*render.Texture
}

// NewData allocates a grid of size×size texels with default contents: flat,
// white-lit, up-facing, calm, layer 0 everywhere.
func NewData(size int, scale float32) (*Data, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	n := size * size
	d := &Data{
		Size:        size,
		Mask:        size - 1,
		Scale:       scale,
		Height:      make([]float32, n),
		Layer1:      make([]uint8, n),
		Layer2:      make([]uint8, n),
		Alpha:       make([]uint8, n),
		Flags:       make([]Flag, n),
		StaticLight: make([]mgl32.Vec3, n),
		Normals:     make([]mgl32.Vec3, n),
		FinalLight:  make([]mgl32.Vec3, n),
		Wind:        make([]float32, n),
	}
	for i := range n {
		d.StaticLight[i] = White
		d.FinalLight[i] = White
		d.Normals[i] = mgl32.Vec3{0, 0, 1}
	}
	return d, nil
}

// Len returns the number of texels.
func (d *Data) Len() int {
	return d.Size * d.Size
}

// Index returns the unwrapped texel index of (x, y).
func (d *Data) Index(x, y int) int {
	return y*d.Size + x
}

// WrapIndex returns the texel index of (x, y) wrapped into the grid.
func (d *Data) WrapIndex(x, y int) int {
	return (y&d.Mask)*d.Size + (x & d.Mask)
}

// InBounds reports whether i addresses a texel.
func (d *Data) InBounds(i int) bool {
	return i >= 0 && i < d.Size*d.Size
}

// HeightAt returns the stored height of texel i, or 0.
func (d *Data) HeightAt(i int) float32 {
	if i < 0 || i >= len(d.Height) {
		return 0
	}
	return d.Height[i]
}

// FlagsAt returns the attribute flags of texel i, or none.
func (d *Data) FlagsAt(i int) Flag {
	if i < 0 || i >= len(d.Flags) {
		return 0
	}
	return d.Flags[i]
}

// AlphaAt returns the blend byte of texel i, or 0.
func (d *Data) AlphaAt(i int) uint8 {
	if i < 0 || i >= len(d.Alpha) {
		return 0
	}
	return d.Alpha[i]
}

// Layers returns both texture layer ids of texel i.
func (d *Data) Layers(i int) (layer1, layer2 uint8) {
	if i >= 0 && i < len(d.Layer1) {
		layer1 = d.Layer1[i]
	}
	if i >= 0 && i < len(d.Layer2) {
		layer2 = d.Layer2[i]
	}
	return layer1, layer2
}

// FinalLightAt returns the baked light of texel i, or white.
func (d *Data) FinalLightAt(i int) mgl32.Vec3 {
	if i < 0 || i >= len(d.FinalLight) {
		return White
	}
	return d.FinalLight[i]
}

// WindAt returns the wind scalar of texel i, or 0.
func (d *Data) WindAt(i int) float32 {
	if i < 0 || i >= len(d.Wind) {
		return 0
	}
	return d.Wind[i]
}

// Texture returns the loaded texture for id, or nil.
func (d *Data) Texture(id uint8) *render.Texture {
	return d.Textures[id]
}

// Validate checks that every present per-texel array has length Size*Size.
func (d *Data) Validate() error {
	n := d.Len()
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return fmt.Errorf("%w: %s has %d entries, want %d", ErrSizeMismatch, name, l, n)
		}
		return nil
	}
	for _, c := range []struct {
		name string
		l    int
	}{
		{"height", len(d.Height)},
		{"layer1", len(d.Layer1)},
		{"layer2", len(d.Layer2)},
		{"alpha", len(d.Alpha)},
		{"flags", len(d.Flags)},
		{"static light", len(d.StaticLight)},
		{"normals", len(d.Normals)},
		{"final light", len(d.FinalLight)},
		{"wind", len(d.Wind)},
	} {
		if err := check(c.name, c.l); err != nil {
			return err
		}
	}
	return nil
}
