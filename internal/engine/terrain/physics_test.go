package terrain

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type fixedLights mgl32.Vec3

func (f fixedLights) Evaluate(mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3(f)
}

func newTestData(t *testing.T, size int) *Data {
	t.Helper()
	d, err := NewData(size, 100)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	return d
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestHeightCornersAndCenter(t *testing.T) {
	d := newTestData(t, 4)
	d.Height[d.Index(0, 0)] = 10
	d.Height[d.Index(1, 0)] = 20
	d.Height[d.Index(0, 1)] = 30
	d.Height[d.Index(1, 1)] = 40
	p := NewPhysics(d, nil)

	tests := []struct {
		name string
		x, y float32
		want float32
	}{
		{"corner 0,0", 0, 0, 10},
		{"corner 1,0", 100, 0, 20},
		{"corner 0,1", 0, 100, 30},
		{"corner 1,1", 100, 100, 40},
		{"center", 50, 50, 25},
		{"edge midpoint", 50, 0, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Height(tt.x, tt.y); got != tt.want {
				t.Errorf("Height(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHeightWrapsAtSeam(t *testing.T) {
	d := newTestData(t, 4)
	d.Height[d.Index(3, 0)] = 8
	d.Height[d.Index(0, 0)] = 10
	p := NewPhysics(d, nil)

	// Between the last column and the wrapped first column
	if got := p.Height(350, 0); got != 9 {
		t.Errorf("Height(350, 0) = %v, want 9", got)
	}

	// Approaching the seam converges on the first column
	nearSeam := p.Height(399.9, 0)
	if !approx(nearSeam, 9.998) {
		t.Errorf("Height(399.9, 0) = %v, want ~9.998", nearSeam)
	}
	if got, want := p.Height(400, 0), p.Height(0, 0); got != want {
		t.Errorf("Height(400, 0) = %v, want wrapped %v", got, want)
	}
	if got, want := p.Height(450, 0), p.Height(50, 0); got != want {
		t.Errorf("Height(450, 0) = %v, want wrapped %v", got, want)
	}
}

func TestHeightDegenerateInput(t *testing.T) {
	d := newTestData(t, 4)
	for i := range d.Height {
		d.Height[i] = 50
	}
	p := NewPhysics(d, nil)

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, c := range [][2]float32{{-1, 0}, {0, -0.5}, {nan, 0}, {0, nan}, {inf, 0}} {
		if got := p.Height(c[0], c[1]); got != 0 {
			t.Errorf("Height(%v, %v) = %v, want 0", c[0], c[1], got)
		}
	}

	d.Height = nil
	if got := p.Height(10, 10); got != 0 {
		t.Errorf("Height with no height map = %v, want 0", got)
	}
	if got := NewPhysics(nil, nil).Height(10, 10); got != 0 {
		t.Errorf("Height with nil data = %v, want 0", got)
	}
}

func TestHeightSpecialFlag(t *testing.T) {
	d := newTestData(t, 4)
	d.Height[d.Index(1, 1)] = 30
	d.Flags[d.Index(1, 1)] = FlagHeight
	p := NewPhysics(d, nil)
	p.SpecialHeight = 777

	if got := p.Height(150, 150); got != 777 {
		t.Errorf("Height on special texel = %v, want 777", got)
	}
	if got := p.Height(50, 50); got == 777 {
		t.Error("special height leaked to a neighbouring texel")
	}
}

func TestLightInterpolation(t *testing.T) {
	d := newTestData(t, 4)
	for i := range d.FinalLight {
		d.FinalLight[i] = mgl32.Vec3{100, 100, 100}
	}
	d.FinalLight[d.Index(1, 0)] = mgl32.Vec3{200, 100, 0}
	p := NewPhysics(d, nil)

	got := p.Light(50, 0, 0)
	want := mgl32.Vec3{150 / 255.0, 100 / 255.0, 50 / 255.0}
	for ch := 0; ch < 3; ch++ {
		if !approx(got[ch], want[ch]) {
			t.Errorf("Light channel %d = %v, want %v", ch, got[ch], want[ch])
		}
	}

	got = p.Light(0, 0, 10)
	if !approx(got[0], 110/255.0) {
		t.Errorf("Light with ambient = %v, want %v", got[0], 110/255.0)
	}
}

func TestLightDynamicAndClamp(t *testing.T) {
	d := newTestData(t, 4)
	for i := range d.FinalLight {
		d.FinalLight[i] = mgl32.Vec3{100, 250, 0}
	}
	p := NewPhysics(d, fixedLights{20, 20, -50})

	got := p.Light(10, 10, 0)
	if !approx(got[0], 120/255.0) {
		t.Errorf("red = %v, want %v", got[0], 120/255.0)
	}
	if got[1] != 1 {
		t.Errorf("green = %v, want clamp to 1", got[1])
	}
	if got[2] != 0 {
		t.Errorf("blue = %v, want clamp to 0", got[2])
	}
}

func TestLightFailsClosedOutsideMap(t *testing.T) {
	d := newTestData(t, 4)
	for i := range d.FinalLight {
		d.FinalLight[i] = mgl32.Vec3{10, 10, 10}
	}
	p := NewPhysics(d, nil)
	neutral := mgl32.Vec3{1, 1, 1}

	// Last row: the far samples are past the end of the light map
	if got := p.Light(50, 350, 0); got != neutral {
		t.Errorf("Light on last row = %v, want neutral", got)
	}
	if got := p.Light(-10, 0, 0); got != neutral {
		t.Errorf("Light at negative x = %v, want neutral", got)
	}
	if got := p.Light(0, 1e6, 0); got != neutral {
		t.Errorf("Light far off map = %v, want neutral", got)
	}
	for _, v := range []float32{1e30, math.MaxFloat32} {
		if got := p.Light(v, 50, 0); got != neutral {
			t.Errorf("Light(%g, 50) = %v, want neutral", v, got)
		}
		if got := p.Light(50, v, 0); got != neutral {
			t.Errorf("Light(50, %g) = %v, want neutral", v, got)
		}
	}

	d.FinalLight = nil
	if got := p.Light(50, 50, 0); got != neutral {
		t.Errorf("Light without light map = %v, want neutral", got)
	}
}

func TestBaseTextureIndex(t *testing.T) {
	d := newTestData(t, 4)
	i := d.Index(2, 1)
	d.Layer1[i] = 3
	d.Layer2[i] = 7
	p := NewPhysics(d, nil)

	if got := p.BaseTextureIndex(250, 150); got != 3 {
		t.Errorf("alpha 0: got %d, want layer1 3", got)
	}
	d.Alpha[i] = 128
	if got := p.BaseTextureIndex(250, 150); got != 3 {
		t.Errorf("alpha 128: got %d, want layer1 3", got)
	}
	d.Alpha[i] = 255
	if got := p.BaseTextureIndex(250, 150); got != 7 {
		t.Errorf("alpha 255: got %d, want layer2 7", got)
	}

	corner := d.Index(3, 3)
	d.Layer1[corner] = 9
	if got := p.BaseTextureIndex(1e6, 1e6); got != 9 {
		t.Errorf("clamped lookup = %d, want 9", got)
	}
	if got := p.BaseTextureIndex(-500, -500); got != d.Layer1[0] {
		t.Errorf("negative lookup = %d, want texel 0", got)
	}
}

func TestFlagsLookup(t *testing.T) {
	d := newTestData(t, 4)
	d.Flags[d.Index(1, 2)] = FlagNoMove | FlagSafeZone
	p := NewPhysics(d, nil)

	if got := p.Flags(150, 250); got != FlagNoMove|FlagSafeZone {
		t.Errorf("Flags = %v", got)
	}
	if p.Walkable(150, 250) {
		t.Error("no-move texel reported walkable")
	}
	if !p.Walkable(50, 50) {
		t.Error("plain texel reported not walkable")
	}
	if got := p.Flags(-1, 0); got != 0 {
		t.Errorf("Flags off grid = %v, want none", got)
	}
	if got := p.Flags(1000, 0); got != 0 {
		t.Errorf("Flags past grid = %v, want none", got)
	}

	d.Flags = nil
	if got := p.Flags(150, 250); got != 0 {
		t.Errorf("Flags with attributes unloaded = %v, want none", got)
	}
}
