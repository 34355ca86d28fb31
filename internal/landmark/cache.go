package landmark

import (
	"fmt"
	"image"
	"math"
)

// Smoothing weights: new = previous*PreviousWeight + current*CurrentWeight
const (
	PreviousWeight = 0.7
	CurrentWeight  = 0.3
)

// Cache holds the last emitted position per (site, index) for one session.
// It is not safe for concurrent use; each connection owns its own.
type Cache struct {
	positions map[string]image.Point
}

func NewCache() *Cache {
	return &Cache{positions: make(map[string]image.Point, MaxCacheEntries())}
}

// Key formats the cache key for a site landmark, e.g. "forehead_10"
func Key(site string, index int) string {
	return fmt.Sprintf("%s_%d", site, index)
}

// Smooth blends current with the previous emitted position for key and
// stores the result. The first observation is returned unchanged.
func (c *Cache) Smooth(key string, current image.Point) image.Point {
	prev, ok := c.positions[key]
	if !ok {
		c.positions[key] = current
		return current
	}

	smoothed := image.Point{
		X: blend(prev.X, current.X),
		Y: blend(prev.Y, current.Y),
	}
	c.positions[key] = smoothed
	return smoothed
}

// Get returns the stored position for key
func (c *Cache) Get(key string) (image.Point, bool) {
	p, ok := c.positions[key]
	return p, ok
}

// Len is the number of tracked keys
func (c *Cache) Len() int {
	return len(c.positions)
}

func blend(prev, cur int) int {
	return int(math.Round(PreviousWeight*float64(prev) + CurrentWeight*float64(cur)))
}
