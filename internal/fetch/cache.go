// Package fetch provides the shared HTTP client used by all scrapers: a
// plain net/http client wrapped with a TTL response cache that can be
// snapshotted to a file between process runs.
package fetch

import (
	"encoding/gob"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// entry is one cached response body.
type entry struct {
	key        string
	value      []byte
	insertedAt time.Time
}

// snapshotEntry is the on-disk form. The file is a gob-encoded list of
// these, with no schema versioning; anything unreadable is treated as an
// empty cache.
type snapshotEntry struct {
	Key   string
	Value []byte
}

// cache is a TTL keyed response cache with a capacity bound. Entries past
// their TTL are dropped lazily on access and swept before snapshots; when
// the cache is full the oldest entry by insertion time is evicted.
type cache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	ttl      time.Duration
	capacity int
	path     string
	now      func() time.Time
	logger   *zap.Logger
}

func newCache(ttl time.Duration, capacity int, path string, logger *zap.Logger) *cache {
	c := &cache{
		entries:  make(map[string]*entry, capacity),
		ttl:      ttl,
		capacity: capacity,
		path:     path,
		now:      time.Now,
		logger:   logger,
	}
	if path != "" && ttl > 0 {
		c.load()
	}
	return c
}

// enabled reports whether caching is active at all. TTL zero means every
// request bypasses the cache and nothing is ever stored.
func (c *cache) enabled() bool {
	return c.ttl > 0
}

// get returns the cached value for key, if present and within TTL.
func (c *cache) get(key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.mu.Lock()
		// recheck under the write lock; a concurrent put may have
		// refreshed the entry
		if cur, ok := c.entries[key]; ok && c.now().Sub(cur.insertedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// put stores a value under key, evicting the oldest entry by insertion
// time if the cache is at capacity. Concurrent puts to the same key race;
// last write wins.
func (c *cache) put(key string, value []byte) {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry{
		key:        key,
		value:      value,
		insertedAt: c.now(),
	}
}

func (c *cache) evictOldestLocked() {
	var oldest *entry
	for _, e := range c.entries {
		if oldest == nil || e.insertedAt.Before(oldest.insertedAt) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(c.entries, oldest.key)
		cacheEvictions.Inc()
	}
}

// sweep removes all expired entries. Called before snapshots so that
// expired-but-not-yet-purged entries are not persisted.
func (c *cache) sweep() {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
}

// len reports the resident entry count.
func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// load populates the cache from the snapshot file. A missing, unreadable
// or malformed file is never fatal; the cache just starts empty. Loaded
// entries are stamped with the load time, so their TTL clock restarts:
// a very old snapshot still serves "fresh" results for one TTL after a
// restart.
func (c *cache) load() {
	f, err := os.Open(c.path)
	if err != nil {
		c.logger.Warn("failed to load cache file, starting empty",
			zap.String("path", c.path), zap.Error(err))
		return
	}
	defer f.Close()

	var stored []snapshotEntry
	if err := gob.NewDecoder(f).Decode(&stored); err != nil {
		c.logger.Warn("failed to decode cache file, starting empty",
			zap.String("path", c.path), zap.Error(err))
		return
	}

	now := c.now()
	c.mu.Lock()
	for _, s := range stored {
		if len(c.entries) >= c.capacity {
			break
		}
		c.entries[s.Key] = &entry{
			key:        s.Key,
			value:      s.Value,
			insertedAt: now,
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.logger.Debug("loaded cache entries from file",
		zap.String("path", c.path), zap.Int("entries", n))
}

// save sweeps expired entries and writes the remainder to the configured
// path, overwriting it. With no path configured it is a no-op that
// succeeds.
func (c *cache) save() error {
	if c.path == "" {
		c.logger.Debug("no cache file path set, nothing to save")
		return nil
	}
	c.sweep()

	c.mu.RLock()
	stored := make([]snapshotEntry, 0, len(c.entries))
	for _, e := range c.entries {
		stored = append(stored, snapshotEntry{Key: e.key, Value: e.value})
	}
	c.mu.RUnlock()

	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(stored); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	c.logger.Debug("saved cache entries to file",
		zap.String("path", c.path), zap.Int("entries", len(stored)))
	return nil
}
