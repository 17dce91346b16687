// Package assets handles asset loading and caching.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no root contains the requested file.
	ErrNotFound = errors.New("assets: file not found")
	// ErrPending is returned by Resource.Get while the load is in flight.
	ErrPending = errors.New("assets: resource pending")
)

// Manager handles asset loading from a stack of file system roots.
// Roots are searched in reverse order (last added = highest priority).
// Manager implements fs.FS and fs.ReadFileFS, so loaders can take it as a
// plain file system and still hit the cache.
type Manager struct {
	roots []root
	cache *Cache
	mu    sync.RWMutex
	log   *zap.Logger
}

type root struct {
	name string
	fsys fs.FS
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log.Named("assets"),
	}
}

// AddDir adds a directory root to the manager.
func (m *Manager) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("opening asset root %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("opening asset root %s: not a directory", path)
	}
	m.AddFS(path, os.DirFS(path))
	return nil
}

// AddFS adds an arbitrary file system root under a display name.
func (m *Manager) AddFS(name string, fsys fs.FS) {
	m.mu.Lock()
	m.roots = append(m.roots, root{name: name, fsys: fsys})
	m.mu.Unlock()
	m.log.Debug("asset root added", zap.String("root", name))
}

// Roots returns the number of registered roots.
func (m *Manager) Roots() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.roots)
}

// Load loads a file from the roots.
func (m *Manager) Load(path string) ([]byte, error) {
	// Check cache first
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(m.roots[i].fsys, path)
		if err == nil {
			m.cache.Set(path, data)
			return data, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// ReadFile implements fs.ReadFileFS.
func (m *Manager) ReadFile(name string) ([]byte, error) {
	data, err := m.Load(name)
	if errors.Is(err, ErrNotFound) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return data, err
}

// Open implements fs.FS. The first root holding name wins.
func (m *Manager) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		f, err := m.roots[i].fsys.Open(name)
		if err == nil {
			return f, nil
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Close drops all roots and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

// Cache returns the byte cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
