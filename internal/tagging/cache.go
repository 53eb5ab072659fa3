package tagging

import (
	gocache "github.com/patrickmn/go-cache"
)

// Cache maps canonical tag names to their persistent identifiers. One
// instance is shared by every concurrent pipeline invocation for the
// process lifetime; entries are never evicted. Put must be safe to repeat
// with the same pair.
type Cache interface {
	Lookup(name string) (uint64, bool)
	Put(name string, id uint64)
}

type tagCache struct {
	store *gocache.Cache
}

// NewCache returns the process-wide tag cache. Constructed once at startup
// and shared by reference across request handlers.
func NewCache() Cache {
	// No expiration and no janitor: tags are never renamed or deleted by
	// this service, so an entry stays valid for the process lifetime.
	return &tagCache{store: gocache.New(gocache.NoExpiration, 0)}
}

func (c *tagCache) Lookup(name string) (uint64, bool) {
	v, ok := c.store.Get(name)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func (c *tagCache) Put(name string, id uint64) {
	c.store.Set(name, id, gocache.NoExpiration)
}
