package world

import (
	"image"
	"image/color"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/engine/render"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// PlaceholderSize is the edge length of generated placeholder textures.
const PlaceholderSize = 16

// UploadStats summarizes a texture upload.
type UploadStats struct {
	Loaded       int
	Placeholders int
	Failed       int
}

// UploadTextures decodes the map's textures in parallel and uploads them on
// the calling goroutine, which must own the device. Every id the grid uses
// ends up with a texture: files that fail to load are replaced by a
// placeholder and logged.
func (m *Manager) UploadTextures(mp *Map, up render.Uploader) UploadStats {
	var stats UploadStats

	ids := sortedTextureIDs(mp.Textures)
	images := make([]*image.RGBA, len(ids))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		path := mp.Textures[id]
		g.Go(func() error {
			img, err := m.assets.LoadImage(path)
			if err != nil {
				m.log.Warn("texture load failed, using placeholder",
					zap.Int("id", id),
					zap.String("path", path),
					zap.Error(err),
				)
				return nil
			}
			images[i] = img
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		if id < 0 || id >= terrain.MaxTextures {
			m.log.Warn("texture id out of range", zap.Int("id", id))
			continue
		}
		if images[i] == nil {
			stats.Failed++
			continue
		}
		mp.Data.Textures[id] = up.UploadImage(images[i])
		stats.Loaded++
	}

	for _, id := range mp.UsedTextures() {
		if mp.Data.Textures[id] != nil {
			continue
		}
		mp.Data.Textures[id] = up.UploadImage(Placeholder(id))
		stats.Placeholders++
	}

	m.log.Info("textures uploaded",
		zap.String("map", mp.Name),
		zap.Int("loaded", stats.Loaded),
		zap.Int("placeholders", stats.Placeholders),
		zap.Int("failed", stats.Failed),
	)
	return stats
}

// placeholderColors are the base colors of known texture ids.
var placeholderColors = map[uint8]color.RGBA{
	terrain.GeneratedGrass: {R: 84, G: 140, B: 60, A: 255},
	terrain.GeneratedDirt:  {R: 130, G: 100, B: 70, A: 255},
	terrain.GeneratedRock:  {R: 128, G: 128, B: 124, A: 255},
	terrain.WaterTexture:   {R: 50, G: 90, B: 160, A: 255},
}

// Placeholder returns a checkered texture for id. Known ids get a fitting
// color, others a color hashed from the id.
func Placeholder(id uint8) *image.RGBA {
	base, ok := placeholderColors[id]
	if !ok {
		h := terrain.Hash(int32(id), 0, 0x9e3779b9)
		base = color.RGBA{R: uint8(h), G: uint8(h >> 8), B: uint8(h >> 16), A: 255}
	}
	dark := color.RGBA{R: base.R - base.R/8, G: base.G - base.G/8, B: base.B - base.B/8, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	for y := 0; y < PlaceholderSize; y++ {
		for x := 0; x < PlaceholderSize; x++ {
			c := base
			if (x/4+y/4)%2 == 1 {
				c = dark
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// GrassPlaceholder returns a sprite sheet of four blade clusters on a
// transparent background.
func GrassPlaceholder() *image.RGBA {
	const w, h = 128, 32
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for cell := 0; cell < 4; cell++ {
		for blade := 0; blade < 5; blade++ {
			x0 := cell*32 + 4 + blade*6
			lean := int(terrain.Hash(int32(cell), int32(blade), 7)%5) - 2
			for y := 0; y < h; y++ {
				// Blades taper and lean towards the top (y = 0)
				x := x0 + lean*(h-y)/h
				width := 1 + y*2/h
				for dx := 0; dx < width; dx++ {
					shade := uint8(110 + y*3)
					img.SetRGBA(x+dx, y, color.RGBA{R: 50, G: shade, B: 40, A: 255})
				}
			}
		}
	}
	return img
}
