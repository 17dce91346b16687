package texture

import (
	"image"
	"image/color"
	"testing"
)

func tgaHeader(imageType byte, w, h int, bpp byte, topToBottom bool) []byte {
	hdr := make([]byte, tgaHeaderSize)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	if topToBottom {
		hdr[17] = 0x20
	}
	return hdr
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	// 2x2, 24 bit, rows stored bottom row first
	data := tgaHeader(TGATypeUncompressed, 2, 2, 24, false)
	// Bottom row blue, green; top row red, white
	data = append(data,
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	want := map[image.Point]color.RGBA{
		{0, 0}: {R: 255, A: 255},
		{1, 0}: {R: 255, G: 255, B: 255, A: 255},
		{0, 1}: {B: 255, A: 255},
		{1, 1}: {G: 255, A: 255},
	}
	for p, c := range want {
		if got := img.RGBAAt(p.X, p.Y); got != c {
			t.Errorf("pixel %v = %v, want %v", p, got, c)
		}
	}
}

func TestDecodeTGARLE(t *testing.T) {
	// 3x1, 32 bit, top-down: one run of two pixels then one raw pixel
	data := tgaHeader(TGATypeRLE, 3, 1, 32, true)
	data = append(data,
		0x81, 10, 20, 30, 40,
		0x00, 1, 2, 3, 4,
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	run := color.RGBA{R: 30, G: 20, B: 10, A: 40}
	if img.RGBAAt(0, 0) != run || img.RGBAAt(1, 0) != run {
		t.Errorf("run pixels = %v %v, want %v", img.RGBAAt(0, 0), img.RGBAAt(1, 0), run)
	}
	if got := img.RGBAAt(2, 0); got != (color.RGBA{R: 3, G: 2, B: 1, A: 4}) {
		t.Errorf("raw pixel = %v", got)
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{0, 0, 2}},
		{"color mapped", func() []byte {
			d := tgaHeader(TGATypeUncompressed, 1, 1, 24, false)
			d[1] = 1
			return d
		}()},
		{"grayscale", tgaHeader(3, 1, 1, 8, false)},
		{"bit depth", tgaHeader(TGATypeUncompressed, 1, 1, 16, false)},
		{"truncated pixels", append(tgaHeader(TGATypeUncompressed, 2, 1, 24, false), 1, 2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyMagentaKey(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 252, G: 5, B: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 40, G: 200, B: 40, A: 255})

	if n := ApplyMagentaKey(img); n != 1 {
		t.Errorf("keyed %d pixels, want 1", n)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("magenta pixel = %v, want transparent black", got)
	}
	if got := img.RGBAAt(1, 0); got.A != 255 {
		t.Errorf("green pixel lost alpha: %v", got)
	}
}
