package render

import "image"

// CallKind identifies a recorded device call.
type CallKind int

const (
	CallBindTexture CallKind = iota
	CallSetBlend
	CallDraw
)

// Call is one recorded device call.
type Call struct {
	Kind     CallKind
	Texture  *Texture
	Blend    BlendState
	Quads    int
	Vertices []Vertex
}

// Recorder is an in-memory Device that records every call it receives.
// Draw calls are tagged with the texture and blend state active at the time.
type Recorder struct {
	Calls []Call

	texture *Texture
	blend   BlendState
	nextID  uint32

	// KeepVertices copies the vertices of each draw into the recorded call.
	KeepVertices bool
}

// NewRecorder creates a recorder.
func NewRecorder(keepVertices bool) *Recorder {
	return &Recorder{KeepVertices: keepVertices}
}

// BindTexture implements Device.
func (r *Recorder) BindTexture(tex *Texture) {
	r.texture = tex
	r.Calls = append(r.Calls, Call{Kind: CallBindTexture, Texture: tex})
}

// SetBlend implements Device.
func (r *Recorder) SetBlend(state BlendState) {
	r.blend = state
	r.Calls = append(r.Calls, Call{Kind: CallSetBlend, Blend: state})
}

// DrawQuads implements Device.
func (r *Recorder) DrawQuads(vertices []Vertex) {
	call := Call{
		Kind:    CallDraw,
		Texture: r.texture,
		Blend:   r.blend,
		Quads:   len(vertices) / VerticesPerQuad,
	}
	if r.KeepVertices {
		call.Vertices = append([]Vertex(nil), vertices...)
	}
	r.Calls = append(r.Calls, call)
}

// UploadImage implements Uploader with sequential texture ids.
func (r *Recorder) UploadImage(img *image.RGBA) *Texture {
	r.nextID++
	b := img.Bounds()
	return &Texture{ID: r.nextID, Width: b.Dx(), Height: b.Dy()}
}

// Draws returns only the draw calls, in submission order.
func (r *Recorder) Draws() []Call {
	var draws []Call
	for _, c := range r.Calls {
		if c.Kind == CallDraw {
			draws = append(draws, c)
		}
	}
	return draws
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}
