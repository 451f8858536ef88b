package calcgrade

// Cache holds parsed expressions keyed by their source text so that repeated
// evaluations of the same input are parsed once. Parse errors are cached as
// well. A Cache is not safe for concurrent use.
type Cache struct {
	opts    []ParseOption
	entries map[string]cacheEntry
}

type cacheEntry struct {
	e   *Expr
	err error
}

// NewCache creates a cache which parses with the given options.
func NewCache(opts ...ParseOption) *Cache {
	return &Cache{
		opts:    append([]ParseOption(nil), opts...),
		entries: make(map[string]cacheEntry),
	}
}

// Parse returns the parsed expression for src, parsing it only if it has not
// been parsed before.
func (c *Cache) Parse(src string) (*Expr, error) {
	if r, ok := c.entries[src]; ok {
		return r.e, r.err
	}
	e, err := Parse(src, c.opts...)
	c.entries[src] = cacheEntry{e, err}
	return e, err
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
