package presburger

import "sync"

// Cache memoizes DimMin and DimMax queries keyed by the textual set. A nil
// *Cache computes every query directly.
//
// Thread-safety: Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	hits    int
}

type cacheKey struct {
	set  string
	name string
	min  bool
}

type cacheEntry struct {
	pw  PwAff
	err error
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]cacheEntry)}
}

// DimMin is the memoized Set.DimMin.
func (c *Cache) DimMin(s Set, name string) (PwAff, error) { return c.lookup(s, name, true) }

// DimMax is the memoized Set.DimMax.
func (c *Cache) DimMax(s Set, name string) (PwAff, error) { return c.lookup(s, name, false) }

// Hits returns how many queries were answered from the cache.
func (c *Cache) Hits() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *Cache) lookup(s Set, name string, min bool) (PwAff, error) {
	if c == nil {
		return s.dimOpt(name, min)
	}
	key := cacheKey{set: s.String(), name: name, min: min}
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return e.pw, e.err
	}
	c.mu.Unlock()

	pw, err := s.dimOpt(name, min)

	c.mu.Lock()
	c.entries[key] = cacheEntry{pw: pw, err: err}
	c.mu.Unlock()
	return pw, err
}
