package render

// Batch is a fixed-capacity quad buffer. Its storage is allocated once and
// reused after every Reset.
type Batch struct {
	vertices []Vertex
	capacity int
}

// NewBatch allocates a batch holding up to quads quads.
func NewBatch(quads int) *Batch {
	if quads < 1 {
		quads = 1
	}
	return &Batch{
		vertices: make([]Vertex, 0, quads*VerticesPerQuad),
		capacity: quads,
	}
}

// Full reports whether another quad would exceed the capacity.
func (b *Batch) Full() bool {
	return len(b.vertices)+VerticesPerQuad > b.capacity*VerticesPerQuad
}

// Empty reports whether the batch holds no quads.
func (b *Batch) Empty() bool {
	return len(b.vertices) == 0
}

// AddQuad appends one quad. Returns false, leaving the batch unchanged, when
// the batch is full.
func (b *Batch) AddQuad(v0, v1, v2, v3 Vertex) bool {
	if b.Full() {
		return false
	}
	b.vertices = append(b.vertices, v0, v1, v2, v3)
	return true
}

// Quads returns the number of quads held.
func (b *Batch) Quads() int {
	return len(b.vertices) / VerticesPerQuad
}

// Capacity returns the maximum number of quads.
func (b *Batch) Capacity() int {
	return b.capacity
}

// Vertices returns the buffered vertices. The slice is only valid until the
// next Reset.
func (b *Batch) Vertices() []Vertex {
	return b.vertices
}

// Reset empties the batch, keeping its storage.
func (b *Batch) Reset() {
	b.vertices = b.vertices[:0]
}
