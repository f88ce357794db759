package cache

import (
	"sync"

	"jsonlview/app/interfaces"
)

// Size-bounded LRU cache of filtered views. Entries hold row pointers into
// the canonical store, so a cached view costs pointer overhead, not row
// data. Keys embed the document content hash, mutation generation and
// search term, so a mutated document simply stops hitting stale entries
// and they age out through the LRU.

// DefaultMaxSize is the default cache size limit (32MB of entry overhead).
const DefaultMaxSize = 32 * 1024 * 1024

// Entry is one cached filtered view.
type Entry struct {
	Rows    []*interfaces.Row
	Indices []int
	Size    int64
}

// Stats reports cache usage for the shell.
type Stats struct {
	Entries      int     `json:"entries"`
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
}

// Cache is a thread-safe LRU cache keyed by filter-view cache keys.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	lru       *lruList
	maxSize   int64
	totalSize int64
	hits      int64
	misses    int64
}

// New creates a cache bounded to maxSize bytes of entry overhead. A
// non-positive size falls back to DefaultMaxSize.
func New(maxSize int64) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		entries: make(map[string]*Entry),
		lru:     newLRUList(),
		maxSize: maxSize,
	}
}

// Get returns the cached view for key, if present.
func (c *Cache) Get(key string) ([]*interfaces.Row, []int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[key]
	if !found {
		c.misses++
		return nil, nil, false
	}
	c.hits++
	c.lru.touch(key)
	return entry.Rows, entry.Indices, true
}

// Store caches a filtered view under key, evicting least recently used
// entries until the size bound holds. A view too large to ever fit is not
// stored.
func (c *Cache) Store(key string, rows []*interfaces.Row, indices []int) {
	size := entrySize(key, indices)
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.entries[key]; exists {
		c.totalSize -= old.Size
	}
	for c.totalSize+size > c.maxSize {
		oldest := c.lru.removeOldest()
		if oldest == "" {
			break
		}
		if victim, exists := c.entries[oldest]; exists {
			c.totalSize -= victim.Size
			delete(c.entries, oldest)
		}
	}

	c.entries[key] = &Entry{Rows: rows, Indices: indices, Size: size}
	c.totalSize += size
	c.lru.touch(key)
}

// Remove drops a single entry.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.entries[key]; exists {
		c.totalSize -= entry.Size
		delete(c.entries, key)
		c.lru.remove(key)
	}
}

// Clear drops every entry. Called when a new document replaces the old one.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.lru = newLRUList()
	c.totalSize = 0
}

// GetStats returns a point-in-time view of cache usage.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := Stats{
		Entries:   len(c.entries),
		TotalSize: c.totalSize,
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
	}
	if c.maxSize > 0 {
		stats.UsagePercent = float64(c.totalSize) / float64(c.maxSize) * 100
	}
	return stats
}

// entrySize estimates the pointer overhead of a cached view: two slices of
// word-sized elements plus the key.
func entrySize(key string, indices []int) int64 {
	return int64(len(indices))*16 + int64(len(key))
}
