// Package renderer is the OpenGL backend of the render.Device contract.
package renderer

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int

	// MaxQuads sizes the streaming vertex buffer. Larger draws are split.
	MaxQuads   int
	ClearColor mgl32.Vec4
}

// DefaultConfig returns the standard renderer settings.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:      width,
		Height:     height,
		MaxQuads:   4096,
		ClearColor: mgl32.Vec4{0.1, 0.1, 0.15, 1.0}, // Dark blue-gray background
	}
}

// Stats counts the GL work of one frame.
type Stats struct {
	DrawCalls int
	Quads     int
	Uploads   int
}

const vertexStride = int32(unsafe.Sizeof(render.Vertex{}))

// Renderer implements render.Device and render.Uploader on OpenGL 4.1.
type Renderer struct {
	config Config
	log    *zap.Logger

	program *shader.Program
	vao     uint32
	vbo     uint32
	ebo     uint32

	textures map[uint32]struct{}
	stats    Stats
}

var (
	_ render.Device   = (*Renderer)(nil)
	_ render.Uploader = (*Renderer)(nil)
)

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxQuads <= 0 {
		cfg.MaxQuads = DefaultConfig(cfg.Width, cfg.Height).MaxQuads
	}
	r := &Renderer{
		config:   cfg,
		log:      log.Named("renderer"),
		textures: make(map[uint32]struct{}),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	// Terrain layers are coplanar, later passes must win ties
	gl.DepthFunc(gl.LEQUAL)
	gl.Disable(gl.CULL_FACE)
	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])

	var err error
	r.program, err = shader.NewProgram(vertexShaderSource, fragmentShaderSource,
		"uViewProj", "uTexture", "uAlphaTest", "uAlphaRef")
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.program.Use()
	r.program.SetInt("uTexture", 0)

	r.createBuffers()
	r.Resize(cfg.Width, cfg.Height)

	return r, nil
}

// createBuffers allocates the streaming VBO and a static index buffer that
// splits every group of four vertices into two triangles.
func (r *Renderer) createBuffers() {
	n := r.config.MaxQuads

	indices := make([]uint32, 0, n*6)
	for q := 0; q < n; q++ {
		b := uint32(q * render.VerticesPerQuad)
		indices = append(indices, b, b+1, b+2, b, b+2, b+3)
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, n*render.VerticesPerQuad*int(vertexStride), nil, gl.STREAM_DRAW)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	// Position (location = 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	// UV (location = 1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, vertexStride, 3*4)
	gl.EnableVertexAttribArray(1)
	// Color (location = 2)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, vertexStride, 5*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	r.log.Debug("buffers created",
		zap.Uint32("vao", r.vao),
		zap.Int("max_quads", n),
	)
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("textures", len(r.textures)))
	for id := range r.textures {
		gl.DeleteTextures(1, &id)
	}
	clear(r.textures)
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame with the given view-projection matrix.
func (r *Renderer) Begin(viewProj mgl32.Mat4) {
	r.stats = Stats{}
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.program.Use()
	r.program.SetMat4("uViewProj", viewProj)
	gl.BindVertexArray(r.vao)
	gl.ActiveTexture(gl.TEXTURE0)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.DepthMask(true)
}

// Stats returns the counters of the current frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// BindTexture implements render.Device.
func (r *Renderer) BindTexture(tex *render.Texture) {
	if tex == nil {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, tex.ID)
}

// SetBlend implements render.Device.
func (r *Renderer) SetBlend(state render.BlendState) {
	switch state.Mode {
	case render.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		r.program.SetInt("uAlphaTest", 0)
	case render.BlendAlphaTest:
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
		r.program.SetInt("uAlphaTest", 1)
		r.program.SetFloat("uAlphaRef", state.AlphaRef)
	default:
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
		r.program.SetInt("uAlphaTest", 0)
	}
}

// DrawQuads implements render.Device, splitting draws larger than the
// streaming buffer.
func (r *Renderer) DrawQuads(vertices []render.Vertex) {
	quads := len(vertices) / render.VerticesPerQuad
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	for quads > 0 {
		n := min(quads, r.config.MaxQuads)
		count := n * render.VerticesPerQuad

		// Orphan the buffer so the driver need not wait on the previous draw
		gl.BufferData(gl.ARRAY_BUFFER, r.config.MaxQuads*render.VerticesPerQuad*int(vertexStride), nil, gl.STREAM_DRAW)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, count*int(vertexStride), unsafe.Pointer(&vertices[0]))
		gl.DrawElementsWithOffset(gl.TRIANGLES, int32(n*6), gl.UNSIGNED_INT, 0)

		r.stats.DrawCalls++
		r.stats.Quads += n
		vertices = vertices[count:]
		quads -= n
	}
}

// UploadImage implements render.Uploader.
func (r *Renderer) UploadImage(img *image.RGBA) *render.Texture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	if img.Stride != w*4 {
		img = tightRGBA(img)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)

	r.textures[id] = struct{}{}
	r.stats.Uploads++
	r.log.Debug("texture uploaded", zap.Uint32("id", id), zap.Int("width", w), zap.Int("height", h))

	return &render.Texture{ID: id, Width: w, Height: h}
}

// DeleteTexture releases a texture created by UploadImage.
func (r *Renderer) DeleteTexture(tex *render.Texture) {
	if tex == nil {
		return
	}
	if _, ok := r.textures[tex.ID]; !ok {
		return
	}
	delete(r.textures, tex.ID)
	gl.DeleteTextures(1, &tex.ID)
}

// ReadPixels reads the default framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// tightRGBA copies a sub-image into a buffer without row padding.
func tightRGBA(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dst
}

const vertexShaderSource = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aUV;
layout (location = 2) in vec4 aColor;

uniform mat4 uViewProj;

out vec2 vUV;
out vec4 vColor;

void main() {
	gl_Position = uViewProj * vec4(aPos, 1.0);
	vUV = aUV;
	vColor = aColor;
}
`

const fragmentShaderSource = `
#version 410 core

in vec2 vUV;
in vec4 vColor;

uniform sampler2D uTexture;
uniform int uAlphaTest;
uniform float uAlphaRef;

out vec4 FragColor;

void main() {
	vec4 tex = texture(uTexture, vUV);
	vec4 color = vec4(tex.rgb * vColor.rgb, tex.a * vColor.a);
	if (uAlphaTest != 0 && color.a < uAlphaRef) {
		discard;
	}
	FragColor = color;
}
`
