package render

import "testing"

func quad(alpha float32) (Vertex, Vertex, Vertex, Vertex) {
	v := Vertex{}
	v.Color[3] = alpha
	return v, v, v, v
}

func TestBatchCapacity(t *testing.T) {
	b := NewBatch(2)
	if !b.Empty() {
		t.Fatal("new batch not empty")
	}
	if !b.AddQuad(quad(1)) || !b.AddQuad(quad(1)) {
		t.Fatal("batch rejected quads below capacity")
	}
	if !b.Full() {
		t.Error("batch at capacity does not report Full")
	}
	if b.AddQuad(quad(1)) {
		t.Error("batch accepted a quad beyond capacity")
	}
	if b.Quads() != 2 {
		t.Errorf("Quads() = %d, want 2", b.Quads())
	}

	b.Reset()
	if !b.Empty() || b.Capacity() != 2 {
		t.Errorf("Reset left %d quads, capacity %d", b.Quads(), b.Capacity())
	}
}

func TestStateCacheSkipsRedundantWrites(t *testing.T) {
	rec := NewRecorder(false)
	sc := NewStateCache(rec)
	texA := &Texture{ID: 1, Width: 64, Height: 64}
	texB := &Texture{ID: 2, Width: 64, Height: 64}

	sc.BindTexture(texA)
	sc.BindTexture(texA)
	sc.SetBlend(Opaque)
	sc.SetBlend(Opaque)
	sc.BindTexture(texB)
	sc.SetBlend(Alpha)
	sc.SetBlend(AlphaTest(0.25))
	sc.SetBlend(AlphaTest(0.25))

	var binds, blends int
	for _, c := range rec.Calls {
		switch c.Kind {
		case CallBindTexture:
			binds++
		case CallSetBlend:
			blends++
		}
	}
	if binds != 2 {
		t.Errorf("texture binds = %d, want 2", binds)
	}
	if blends != 3 {
		t.Errorf("blend writes = %d, want 3", blends)
	}

	sc.Invalidate()
	sc.BindTexture(texB)
	if rec.Calls[len(rec.Calls)-1].Kind != CallBindTexture {
		t.Error("bind after Invalidate did not reach the device")
	}
}

func TestStateCacheNilBindAfterInvalidate(t *testing.T) {
	rec := NewRecorder(false)
	sc := NewStateCache(rec)

	sc.BindTexture(nil)
	sc.BindTexture(nil)
	sc.Invalidate()
	sc.BindTexture(nil)

	binds := 0
	for _, c := range rec.Calls {
		if c.Kind == CallBindTexture {
			binds++
		}
	}
	if binds != 2 {
		t.Errorf("nil binds reaching the device = %d, want 2", binds)
	}
}

func TestStateCacheMetrics(t *testing.T) {
	rec := NewRecorder(true)
	sc := NewStateCache(rec)

	b := NewBatch(4)
	b.AddQuad(quad(1))
	b.AddQuad(quad(1))
	b.AddQuad(quad(1))
	sc.DrawQuads(b.Vertices())
	sc.DrawQuads(nil)

	if sc.DrawCalls != 1 {
		t.Errorf("DrawCalls = %d, want 1", sc.DrawCalls)
	}
	if sc.Triangles != 6 {
		t.Errorf("Triangles = %d, want 6", sc.Triangles)
	}

	draws := rec.Draws()
	if len(draws) != 1 || draws[0].Quads != 3 || len(draws[0].Vertices) != 12 {
		t.Fatalf("unexpected recorded draws: %+v", draws)
	}

	sc.ResetMetrics()
	if sc.DrawCalls != 0 || sc.Triangles != 0 {
		t.Error("ResetMetrics left counters non-zero")
	}
}

func TestBlendModeString(t *testing.T) {
	tests := []struct {
		mode BlendMode
		want string
	}{
		{BlendOpaque, "opaque"},
		{BlendAlpha, "alpha"},
		{BlendAlphaTest, "alpha-test"},
		{BlendMode(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
