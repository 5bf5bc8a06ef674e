package traits

// DefaultCacheSize bounds per-agent memoization.
const DefaultCacheSize = 256

// Cache is a bounded memo that evicts its oldest entries first. It is owned
// by a single agent and not safe for concurrent use.
type Cache[V any] struct {
	limit   int
	entries map[string]V
	order   []string
}

func NewCache[V any](limit int) *Cache[V] {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	return &Cache[V]{limit: limit, entries: make(map[string]V)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[V]) Put(key string, v V) {
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = v
	for len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// GetOrCompute returns the cached value or stores the result of fn.
func (c *Cache[V]) GetOrCompute(key string, fn func() V) V {
	if v, ok := c.entries[key]; ok {
		return v
	}
	v := fn()
	c.Put(key, v)
	return v
}

func (c *Cache[V]) Len() int { return len(c.entries) }

func (c *Cache[V]) Clear() {
	c.entries = make(map[string]V)
	c.order = nil
}
