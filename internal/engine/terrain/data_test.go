package terrain

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewDataRejectsBadSize(t *testing.T) {
	for _, size := range []int{0, -4, 3, 100} {
		if _, err := NewData(size, 100); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewData(%d) error = %v, want ErrInvalidSize", size, err)
		}
	}
}

func TestNewDataDefaults(t *testing.T) {
	d, err := NewData(8, 0)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	if d.Scale != DefaultScale {
		t.Errorf("Scale = %v, want default %v", d.Scale, DefaultScale)
	}
	if d.Mask != 7 || d.Len() != 64 {
		t.Errorf("Mask = %d, Len = %d", d.Mask, d.Len())
	}
	if d.StaticLight[10] != White || d.FinalLight[63] != White {
		t.Error("light maps not initialised to white")
	}
	if d.Normals[5] != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v, want +Z", d.Normals[5])
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestWrapIndex(t *testing.T) {
	d, _ := NewData(4, 100)
	tests := []struct {
		x, y, want int
	}{
		{0, 0, 0},
		{3, 3, 15},
		{4, 0, 0},
		{5, 1, 5},
		{-1, 0, 3},
		{0, -1, 12},
	}
	for _, tt := range tests {
		if got := d.WrapIndex(tt.x, tt.y); got != tt.want {
			t.Errorf("WrapIndex(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestAccessorsDefaultOutOfRange(t *testing.T) {
	d, _ := NewData(4, 100)
	if d.HeightAt(-1) != 0 || d.HeightAt(16) != 0 {
		t.Error("HeightAt out of range not 0")
	}
	if d.FlagsAt(99) != 0 || d.AlphaAt(99) != 0 || d.WindAt(99) != 0 {
		t.Error("byte accessors out of range not 0")
	}
	if d.FinalLightAt(99) != White {
		t.Error("FinalLightAt out of range not white")
	}
	if l1, l2 := d.Layers(-3); l1 != 0 || l2 != 0 {
		t.Error("Layers out of range not 0")
	}
	if d.InBounds(16) || !d.InBounds(15) {
		t.Error("InBounds wrong at the edge")
	}
}

func TestValidateMismatch(t *testing.T) {
	d, _ := NewData(4, 100)
	d.Alpha = make([]uint8, 3)
	if err := d.Validate(); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Validate = %v, want ErrSizeMismatch", err)
	}

	d.Alpha = nil
	if err := d.Validate(); err != nil {
		t.Errorf("Validate with absent array = %v, want nil", err)
	}
}

func TestFlagString(t *testing.T) {
	if got := Flag(0).String(); got != "none" {
		t.Errorf("empty flags = %q", got)
	}
	if got := (FlagNoGround | FlagWater).String(); got != "noground|water" {
		t.Errorf("flags = %q", got)
	}
	if !(FlagHeight | FlagNoMove).Has(FlagHeight) {
		t.Error("Has missed a set bit")
	}
	if FlagHeight.Has(FlagHeight | FlagNoMove) {
		t.Error("Has matched a partial set")
	}
}

func TestHashDeterministic(t *testing.T) {
	a := Hash(12, 34, 5)
	b := Hash(12, 34, 5)
	if a != b {
		t.Fatal("Hash is not deterministic")
	}
	if Hash(12, 34, 6) == a || Hash(13, 34, 5) == a || Hash(12, 35, 5) == a {
		t.Error("Hash ignores one of its inputs")
	}

	var sum float64
	const samples = 4096
	for i := 0; i < samples; i++ {
		v := HashFloat(int32(i%64), int32(i/64), 99)
		if v < 0 || v >= 1 {
			t.Fatalf("HashFloat out of range: %v", v)
		}
		sum += float64(v)
	}
	if mean := sum / samples; mean < 0.45 || mean > 0.55 {
		t.Errorf("HashFloat mean = %v, want ~0.5", mean)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(32, 100, 7)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := Generate(32, 100, 7)
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for i := range a.Height {
		if a.Height[i] != b.Height[i] || a.Alpha[i] != b.Alpha[i] || a.Flags[i] != b.Flags[i] {
			t.Fatalf("texel %d differs between runs", i)
		}
	}

	c, _ := Generate(32, 100, 8)
	same := true
	for i := range a.Height {
		if a.Height[i] != c.Height[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical maps")
	}
}
