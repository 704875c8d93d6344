// Package cache holds the named in-memory caches for the employee service,
// backed by sturdyc. Every lookup and store feeds the cache aggregator so the
// monitoring endpoints can report per-cache hit rates.
package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/naokiys/emprecord/internal/stats"
)

// Well-known cache names.
const (
	EmployeeByID   = "employee_by_id"
	EmployeeSearch = "employee_search"
)

// Config tunes the underlying sturdyc clients. One config applies to all
// named caches.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

// DefaultConfig returns defaults suitable for a single-node deployment.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Registry owns a fixed set of named caches. sturdyc has no flush operation,
// so Clear swaps in a fresh client; the mutex only guards that swap, lookups
// take the read path.
type Registry struct {
	cfg      Config
	cacheSts *stats.CacheStats

	mu     sync.RWMutex
	caches map[string]*sturdyc.Client[any]
}

// NewRegistry creates the named caches. Names must be unique.
func NewRegistry(cfg Config, cacheSts *stats.CacheStats, names ...string) *Registry {
	r := &Registry{
		cfg:      cfg,
		cacheSts: cacheSts,
		caches:   make(map[string]*sturdyc.Client[any], len(names)),
	}
	for _, name := range names {
		r.caches[name] = r.newClient()
	}
	return r
}

func (r *Registry) newClient() *sturdyc.Client[any] {
	return sturdyc.New[any](r.cfg.Capacity, r.cfg.NumShards, r.cfg.TTL, r.cfg.EvictionPercentage)
}

func (r *Registry) client(name string) *sturdyc.Client[any] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caches[name]
}

// Names lists the registered cache names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks key up in the named cache, recording a hit or miss. An unknown
// cache name behaves as a miss.
func (r *Registry) Get(name, key string) (any, bool) {
	c := r.client(name)
	if c == nil {
		r.cacheSts.RecordMiss(name)
		return nil, false
	}
	v, ok := c.Get(key)
	if ok {
		r.cacheSts.RecordHit(name)
	} else {
		r.cacheSts.RecordMiss(name)
	}
	return v, ok
}

// Set stores value under key in the named cache. Unknown names are ignored.
func (r *Registry) Set(name, key string, value any) {
	c := r.client(name)
	if c == nil {
		return
	}
	c.Set(key, value)
	r.cacheSts.RecordPut(name)
}

// Delete evicts one key from the named cache.
func (r *Registry) Delete(name, key string) {
	c := r.client(name)
	if c == nil {
		return
	}
	c.Delete(key)
	r.cacheSts.RecordEvict(name, 1)
}

// Clear drops every entry of the named cache and records the eviction count.
func (r *Registry) Clear(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.caches[name]
	if !ok {
		return fmt.Errorf("unknown cache %q", name)
	}
	r.caches[name] = r.newClient()
	r.cacheSts.RecordEvict(name, int64(old.Size()))
	return nil
}

// ClearAll drops every entry of every cache.
func (r *Registry) ClearAll() {
	for _, name := range r.Names() {
		// Names came from the registry, Clear cannot fail on them.
		_ = r.Clear(name)
	}
}
