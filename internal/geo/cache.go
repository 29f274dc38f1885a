package geo

import (
	"context"
	"sync"
)

type cachedCity struct {
	timezone string
	coords   Coordinates
}

// Cached wraps a Resolver with a bounded in-memory cache. Timezone and
// coordinates are a pure function of the city name, so entries never expire;
// when the cache is full the map is reset rather than tracking LRU order.
// Failed lookups are not cached.
type Cached struct {
	inner   Resolver
	maxSize int

	mu      sync.Mutex
	entries map[string]cachedCity
}

func NewCached(inner Resolver, maxSize int) *Cached {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &Cached{
		inner:   inner,
		maxSize: maxSize,
		entries: make(map[string]cachedCity),
	}
}

func (c *Cached) get(city string) (cachedCity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[city]
	return entry, ok
}

func (c *Cached) put(city string, entry cachedCity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.entries = make(map[string]cachedCity)
	}
	c.entries[city] = entry
}

func (c *Cached) resolve(ctx context.Context, city string) (cachedCity, error) {
	if entry, ok := c.get(city); ok {
		return entry, nil
	}

	tz, err := c.inner.ResolveTimezone(ctx, city)
	if err != nil {
		return cachedCity{}, err
	}
	coords, err := c.inner.Coordinates(ctx, city)
	if err != nil {
		return cachedCity{}, err
	}

	entry := cachedCity{timezone: tz, coords: coords}
	c.put(city, entry)
	return entry, nil
}

func (c *Cached) ResolveTimezone(ctx context.Context, city string) (string, error) {
	entry, err := c.resolve(ctx, city)
	if err != nil {
		return "", err
	}
	return entry.timezone, nil
}

func (c *Cached) Coordinates(ctx context.Context, city string) (Coordinates, error) {
	entry, err := c.resolve(ctx, city)
	if err != nil {
		return Coordinates{}, err
	}
	return entry.coords, nil
}
