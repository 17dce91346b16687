package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

// LoadImage loads and decodes an image into RGBA. TGA files are decoded by
// extension; BMP files have their magenta key made transparent.
func (m *Manager) LoadImage(name string) (*image.RGBA, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}

	var img *image.RGBA
	switch strings.ToLower(path.Ext(name)) {
	case ".tga":
		img, err = texture.DecodeTGA(data)
	case ".bmp":
		if img, err = DecodeImage(data); err == nil {
			texture.ApplyMagentaKey(img)
		}
	default:
		img, err = DecodeImage(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

// LoadImageAsync loads an image on a background goroutine.
func (m *Manager) LoadImageAsync(name string) *Resource[*image.RGBA] {
	return LoadAsync(func() (*image.RGBA, error) {
		img, err := m.LoadImage(name)
		if err != nil {
			m.log.Warn("image load failed", zap.String("path", name), zap.Error(err))
		}
		return img, err
	})
}

// DecodeImage decodes PNG, JPEG or BMP data into RGBA.
func DecodeImage(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}
