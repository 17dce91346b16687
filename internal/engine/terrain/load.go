package terrain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // texture and light map decoders
	_ "image/png"
	"io"
	"io/fs"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // height maps ship as 8-bit BMP
	"gopkg.in/yaml.v3"
)

// DefaultHeightMultiplier converts 8-bit height-map samples to world units.
const DefaultHeightMultiplier = 1.5

// Manifest describes the files that make up one terrain map. Paths are
// relative to the filesystem passed to Load.
type Manifest struct {
	Name             string  `yaml:"name"`
	Size             int     `yaml:"size"`
	Scale            float32 `yaml:"scale"`
	HeightMultiplier float32 `yaml:"height_multiplier"`

	HeightMap  string `yaml:"height_map"` // 8-bit grayscale image
	LightMap   string `yaml:"light_map"`  // RGB image
	Layer1     string `yaml:"layer1"`     // raw N*N bytes
	Layer2     string `yaml:"layer2"`     // raw N*N bytes
	Alpha      string `yaml:"alpha"`      // raw N*N bytes
	Attributes string `yaml:"attributes"` // raw N*N flag bytes

	// Textures maps texture id to image path.
	Textures map[int]string `yaml:"textures"`

	GrassSprite string `yaml:"grass_sprite"`
}

// LoadManifest reads a YAML map manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.applyDefaults()
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Size == 0 {
		m.Size = DefaultSize
	}
	if m.Scale == 0 {
		m.Scale = DefaultScale
	}
	if m.HeightMultiplier == 0 {
		m.HeightMultiplier = DefaultHeightMultiplier
	}
}

// Load builds a terrain grid from the files named by m. Missing files are
// logged and leave the corresponding array at its default; malformed or
// wrongly sized files are errors.
func Load(m *Manifest, fsys fs.FS, log *zap.Logger) (*Data, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m.applyDefaults()

	d, err := NewData(m.Size, m.Scale)
	if err != nil {
		return nil, err
	}
	n := d.Len()

	steps := []struct {
		name string
		path string
		read func(io.Reader) error
	}{
		{"height map", m.HeightMap, func(r io.Reader) error {
			h, err := LoadHeightmap(r, m.Size, m.HeightMultiplier)
			if err == nil {
				d.Height = h
			}
			return err
		}},
		{"light map", m.LightMap, func(r io.Reader) error {
			l, err := LoadLightmap(r, m.Size)
			if err == nil {
				d.StaticLight = l
				copy(d.FinalLight, l)
			}
			return err
		}},
		{"layer1", m.Layer1, func(r io.Reader) error { return readPlane(r, d.Layer1) }},
		{"layer2", m.Layer2, func(r io.Reader) error { return readPlane(r, d.Layer2) }},
		{"alpha", m.Alpha, func(r io.Reader) error { return readPlane(r, d.Alpha) }},
		{"attributes", m.Attributes, func(r io.Reader) error {
			raw := make([]uint8, n)
			if err := readPlane(r, raw); err != nil {
				return err
			}
			for i, b := range raw {
				d.Flags[i] = Flag(b)
			}
			return nil
		}},
	}

	for _, s := range steps {
		if s.path == "" {
			continue
		}
		f, err := fsys.Open(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("terrain file missing, using defaults",
				zap.String("map", m.Name),
				zap.String("part", s.name),
				zap.String("path", s.path),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("opening %s %s: %w", s.name, s.path, err)
		}
		err = s.read(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s %s: %w", s.name, s.path, err)
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	log.Info("terrain loaded",
		zap.String("map", m.Name),
		zap.Int("size", d.Size),
		zap.Float32("scale", d.Scale),
	)
	return d, nil
}

// LoadHeightmap decodes a size×size image and converts its luminance to
// heights (sample * multiplier).
func LoadHeightmap(r io.Reader, size int, multiplier float32) ([]float32, error) {
	img, err := decodeSquare(r, size)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	heights := make([]float32, size*size)
	for y := range size {
		for x := range size {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			heights[y*size+x] = float32(g.Y) * multiplier
		}
	}
	return heights, nil
}

// LoadLightmap decodes a size×size RGB image into static light colors in
// 0..255 units.
func LoadLightmap(r io.Reader, size int) ([]mgl32.Vec3, error) {
	img, err := decodeSquare(r, size)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	light := make([]mgl32.Vec3, size*size)
	for y := range size {
		for x := range size {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			light[y*size+x] = mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}
		}
	}
	return light, nil
}

func decodeSquare(r io.Reader, size int) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		return nil, fmt.Errorf("%w: %s image is %dx%d, want %dx%d",
			ErrSizeMismatch, format, b.Dx(), b.Dy(), size, size)
	}
	return img, nil
}

func readPlane(r io.Reader, dst []uint8) error {
	if _, err := io.ReadFull(r, dst); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: plane shorter than %d bytes", ErrSizeMismatch, len(dst))
		}
		return err
	}
	return nil
}
