// Package render defines the GPU submission contract used by the terrain
// renderers: vertex layout, texture handles, blend state, and the Device
// interface that an OpenGL (or recording) backend implements.
package render

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a lit, textured vertex as submitted to the device.
type Vertex struct {
	Pos   mgl32.Vec3
	UV    mgl32.Vec2
	Color mgl32.Vec4
}

// VerticesPerQuad is the number of vertices emitted per quad (two triangles
// are formed by the device from each group of four).
const VerticesPerQuad = 4

// Texture is a GPU texture handle.
// A nil *Texture means the texture is not loaded and draws using it are skipped.
type Texture struct {
	ID     uint32
	Width  int
	Height int
}

// BlendMode selects how fragments are combined with the framebuffer.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendAlphaTest
)

func (m BlendMode) String() string {
	switch m {
	case BlendOpaque:
		return "opaque"
	case BlendAlpha:
		return "alpha"
	case BlendAlphaTest:
		return "alpha-test"
	default:
		return "unknown"
	}
}

// BlendState is the full blend configuration applied before a draw.
// AlphaRef is only meaningful for BlendAlphaTest.
type BlendState struct {
	Mode     BlendMode
	AlphaRef float32
}

var (
	// Opaque writes fragments unconditionally.
	Opaque = BlendState{Mode: BlendOpaque}
	// Alpha blends fragments by vertex/texture alpha.
	Alpha = BlendState{Mode: BlendAlpha}
)

// AlphaTest returns a state that discards fragments with alpha below ref.
func AlphaTest(ref float32) BlendState {
	return BlendState{Mode: BlendAlphaTest, AlphaRef: ref}
}

// Device is the synchronous GPU submission API.
type Device interface {
	// BindTexture binds the texture used by subsequent draws.
	BindTexture(tex *Texture)
	// SetBlend applies blend state for subsequent draws.
	SetBlend(state BlendState)
	// DrawQuads submits len(vertices)/4 quads.
	DrawQuads(vertices []Vertex)
}

// Uploader turns decoded images into device textures.
type Uploader interface {
	UploadImage(img *image.RGBA) *Texture
}
