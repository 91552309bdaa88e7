package streaming

import (
	"sort"

	"github.com/helioforge/terrastream/internal/engine/terrain"
)

// cacheEntry is a cached generated tile plus recency metadata.
type cacheEntry struct {
	tile        *terrain.TileData
	lastAccess  uint64 // monotonic access stamp, not wall time
	accessCount int
}

// tileCache is a bounded LRU cache of generated tiles keyed by rounded
// position and LOD level. It is touched only from the main thread; workers
// never see it.
type tileCache struct {
	entries map[string]*cacheEntry
	maxSize int
	stamp   uint64
}

func newTileCache(maxSize int) *tileCache {
	return &tileCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
	}
}

// get returns a clone of the cached tile and refreshes its recency metadata.
func (c *tileCache) get(key string) (*terrain.TileData, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.stamp++
	e.lastAccess = c.stamp
	e.accessCount++
	return e.tile.Clone(), true
}

// add stores a clone of the tile, evicting a batch of least-recently-used
// entries first if the cache is full. Batch eviction amortizes the sort.
func (c *tileCache) add(key string, tile *terrain.TileData) {
	if c.maxSize <= 0 {
		return
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictBatch()
	}
	c.stamp++
	c.entries[key] = &cacheEntry{
		tile:       tile.Clone(),
		lastAccess: c.stamp,
	}
}

// evictBatch removes the max(1, maxSize/10) entries with the oldest access
// stamps.
func (c *tileCache) evictBatch() {
	n := c.maxSize / 10
	if n < 1 {
		n = 1
	}

	type keyed struct {
		key   string
		stamp uint64
	}
	all := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, keyed{k, e.lastAccess})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].stamp < all[j].stamp })

	if n > len(all) {
		n = len(all)
	}
	for _, k := range all[:n] {
		delete(c.entries, k.key)
	}
}

func (c *tileCache) len() int {
	return len(c.entries)
}

func (c *tileCache) clear() {
	c.entries = make(map[string]*cacheEntry)
	c.stamp = 0
}
