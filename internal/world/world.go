// Package world handles map loading and management.
package world

import (
	"fmt"
	"image"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Map represents a loaded terrain map.
type Map struct {
	Name string
	Data *terrain.Data

	// Textures maps texture ids to asset paths. Ids used by the grid but
	// missing here get a placeholder on upload.
	Textures map[int]string
	// GrassSprite is the asset path of the grass sprite, empty for the
	// built-in sprite.
	GrassSprite string
}

// Size returns the world extent of the map along each axis.
func (m *Map) Size() float32 {
	return float32(m.Data.Size) * m.Data.Scale
}

// Center returns the world position of the map center on the ground.
func (m *Map) Center() mgl32.Vec3 {
	return m.CellToWorld(m.Data.Size/2, m.Data.Size/2)
}

// WorldToCell converts world coordinates to texel coordinates.
func (m *Map) WorldToCell(pos mgl32.Vec3) (int, int) {
	return int(pos.X() / m.Data.Scale), int(pos.Y() / m.Data.Scale)
}

// CellToWorld returns the world position of a texel origin at its height.
func (m *Map) CellToWorld(x, y int) mgl32.Vec3 {
	d := m.Data
	return mgl32.Vec3{
		float32(x) * d.Scale,
		float32(y) * d.Scale,
		d.HeightAt(d.WrapIndex(x, y)),
	}
}

// UsedTextures returns the sorted texture ids referenced by either layer.
func (m *Map) UsedTextures() []uint8 {
	var seen [terrain.MaxTextures]bool
	for _, layer := range [][]uint8{m.Data.Layer1, m.Data.Layer2} {
		for _, id := range layer {
			seen[id] = true
		}
	}
	if m.Data.Layer1 == nil || m.Data.Layer2 == nil {
		seen[0] = true
	}
	var ids []uint8
	for id, ok := range seen {
		if ok {
			ids = append(ids, uint8(id))
		}
	}
	return ids
}

// Manager manages the current map and map transitions.
type Manager struct {
	assets  *assets.Manager
	log     *zap.Logger
	current *Map
	loading bool
}

// NewManager creates a new world manager that reads map files through a.
func NewManager(a *assets.Manager, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		assets: a,
		log:    log.Named("world"),
	}
}

// Current returns the current map.
func (m *Manager) Current() *Map {
	return m.current
}

// IsLoading returns whether a map is currently loading.
func (m *Manager) IsLoading() bool {
	return m.loading
}

// LoadManifest loads the map described by the manifest at path. The
// manifest's directory becomes the highest priority asset root.
func (m *Manager) LoadManifest(path string) (*Map, error) {
	m.loading = true
	defer func() { m.loading = false }()

	man, err := terrain.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := m.assets.AddDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if man.Name == "" {
		man.Name = filepath.Base(path)
	}

	data, err := terrain.Load(man, m.assets, m.log)
	if err != nil {
		return nil, fmt.Errorf("loading map %s: %w", man.Name, err)
	}

	m.current = &Map{
		Name:        man.Name,
		Data:        data,
		Textures:    man.Textures,
		GrassSprite: man.GrassSprite,
	}
	return m.current, nil
}

// Generate builds a procedural map and makes it current.
func (m *Manager) Generate(size int, scale float32, seed uint32) (*Map, error) {
	m.loading = true
	defer func() { m.loading = false }()

	data, err := terrain.Generate(size, scale, seed)
	if err != nil {
		return nil, fmt.Errorf("generating map: %w", err)
	}
	m.current = &Map{
		Name: fmt.Sprintf("generated-%d", seed),
		Data: data,
	}
	m.log.Info("map generated",
		zap.Int("size", size),
		zap.Uint32("seed", seed),
	)
	return m.current, nil
}

// Open loads manifest when it is set and generates a map otherwise.
func (m *Manager) Open(manifest string, size int, scale float32, seed uint32) (*Map, error) {
	if manifest != "" {
		return m.LoadManifest(manifest)
	}
	return m.Generate(size, scale, seed)
}

// GrassSprite starts loading the map's grass sprite, or override when set.
// Without either path the built-in sprite is used.
func (m *Manager) GrassSprite(mp *Map, override string) *assets.Resource[*image.RGBA] {
	path := mp.GrassSprite
	if override != "" {
		path = override
	}
	if path == "" {
		return assets.Ready(GrassPlaceholder())
	}
	return m.assets.LoadImageAsync(path)
}

// sortedTextureIDs returns the manifest texture ids in ascending order.
func sortedTextureIDs(textures map[int]string) []int {
	ids := make([]int, 0, len(textures))
	for id := range textures {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
