// internal/storage/file_cache.go
package storage

import (
	"sort"
	"sync"
	"time"
)

// readCache keeps recently read file contents for a short time.
type readCache struct {
	entries    map[string]*cacheEntry
	mu         sync.RWMutex
	maxSize    int
	expiration time.Duration
	now        func() time.Time
}

type cacheEntry struct {
	data     []byte
	storedAt time.Time
	lastRead time.Time
}

func newReadCache(maxSize int, expiration time.Duration) *readCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if expiration <= 0 {
		expiration = 5 * time.Minute
	}
	return &readCache{
		entries:    make(map[string]*cacheEntry),
		maxSize:    maxSize,
		expiration: expiration,
		now:        time.Now,
	}
}

func (c *readCache) get(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.Sub(entry.storedAt) >= c.expiration {
		delete(c.entries, path)
		return nil, false
	}
	entry.lastRead = now
	return entry.data, true
}

func (c *readCache) put(path string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[path] = &cacheEntry{data: data, storedAt: now, lastRead: now}
	if len(c.entries) > c.maxSize {
		c.evictLRU(len(c.entries) - c.maxSize)
	}
}

func (c *readCache) invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// sweep drops expired entries.
func (c *readCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for path, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.expiration {
			delete(c.entries, path)
		}
	}
}

func (c *readCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLRU removes the count least recently read entries. Caller holds mu.
func (c *readCache) evictLRU(count int) {
	type keyAge struct {
		key  string
		time time.Time
	}

	entries := make([]keyAge, 0, len(c.entries))
	for k, v := range c.entries {
		entries = append(entries, keyAge{k, v.lastRead})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	for i := 0; i < min(count, len(entries)); i++ {
		delete(c.entries, entries[i].key)
	}
}
