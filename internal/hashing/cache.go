package hashing

import "sync"

type cacheKey struct {
	path      string
	algorithm Algorithm
}

// Cache memoizes digests by resolved path and algorithm. The zero value is
// ready to use. Entries are never invalidated; a Cache should live no longer
// than one command invocation.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) get(path string, algorithm Algorithm) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	digest, ok := c.entries[cacheKey{path, algorithm}]
	return digest, ok
}

func (c *Cache) put(path string, algorithm Algorithm, digest string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[cacheKey]string)
	}
	c.entries[cacheKey{path, algorithm}] = digest
}

// Len reports the number of cached digests.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached digest.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
