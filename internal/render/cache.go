package render

import (
	"image"
	"sync"

	"github.com/example/floormark/internal/view"
)

type rotationKey struct {
	doc   string
	layer string
	angle view.Angle
}

// Cache memoizes one decoded document per session and its rotated layers.
// Loading a different document invalidates everything held for the previous
// one.
type Cache[V any] struct {
	mu      sync.Mutex
	key     string
	value   V
	loaded  bool
	rotated map[rotationKey]*image.RGBA

	hits, misses int
}

// NewCache returns an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{rotated: make(map[rotationKey]*image.RGBA)}
}

// Load returns the value for key, calling load only on a miss. A failed load
// leaves the cache unchanged.
func (c *Cache[V]) Load(key string, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && c.key == key {
		c.hits++
		return c.value, nil
	}
	c.misses++
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.invalidateLocked()
	c.key, c.value, c.loaded = key, v, true
	return v, nil
}

// Current returns the cached value, if any.
func (c *Cache[V]) Current() (string, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key, c.value, c.loaded
}

// Rotated returns src rotated by a, computing it once per (document, layer,
// angle). The result is shared and must not be drawn on.
func (c *Cache[V]) Rotated(layer string, src image.Image, a view.Angle) *image.RGBA {
	c.mu.Lock()
	k := rotationKey{doc: c.key, layer: layer, angle: a}
	if img, ok := c.rotated[k]; ok {
		c.hits++
		c.mu.Unlock()
		return img
	}
	c.misses++
	c.mu.Unlock()

	img := Rotate(src, a)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == k.doc {
		c.rotated[k] = img
	}
	return img
}

// Invalidate drops every cached entry.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Cache[V]) invalidateLocked() {
	var zero V
	c.key, c.value, c.loaded = "", zero, false
	clear(c.rotated)
}

// Stats reports cache hits and misses.
func (c *Cache[V]) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
