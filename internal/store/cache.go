package store

import "sync"

// Cache is an in-memory cache of decoded object frames.
type Cache interface {
	Get(id string) ([]byte, bool)
	Add(id string, data []byte)
	Has(id string) bool
	Remove(id string)
	Clear()
}

// boundedCache is a size-bounded object cache. Eviction is approximate:
// when full, an arbitrary frame is dropped, which is good enough for the
// read-mostly access pattern of loose objects.
type boundedCache struct {
	maxSize int
	items   map[string][]byte
	mu      sync.RWMutex
}

func newBoundedCache(maxSize int) *boundedCache {
	return &boundedCache{
		maxSize: maxSize,
		items:   make(map[string][]byte),
	}
}

func (c *boundedCache) Get(id string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.items[id]
	return data, ok
}

func (c *boundedCache) Add(id string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.maxSize {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[id] = data
}

func (c *boundedCache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[id]
	return ok
}

func (c *boundedCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

func (c *boundedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string][]byte)
}
