package stats

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/naokiys/emprecord/internal/models"
)

// CacheStats tracks hit/miss/put/evict counts per named cache.
type CacheStats struct {
	caches *xsync.MapOf[string, *cacheCounters]
}

type cacheCounters struct {
	hits   *xsync.Counter
	misses *xsync.Counter
	puts   *xsync.Counter
	evicts *xsync.Counter
}

func newCacheCounters() *cacheCounters {
	return &cacheCounters{
		hits:   xsync.NewCounter(),
		misses: xsync.NewCounter(),
		puts:   xsync.NewCounter(),
		evicts: xsync.NewCounter(),
	}
}

// NewCacheStats returns a zeroed aggregator.
func NewCacheStats() *CacheStats {
	return &CacheStats{caches: xsync.NewMapOf[string, *cacheCounters]()}
}

func (s *CacheStats) countersFor(name string) *cacheCounters {
	c, _ := s.caches.LoadOrCompute(name, newCacheCounters)
	return c
}

// RecordHit counts a cache hit for the named cache.
func (s *CacheStats) RecordHit(name string) { s.countersFor(name).hits.Inc() }

// RecordMiss counts a cache miss for the named cache.
func (s *CacheStats) RecordMiss(name string) { s.countersFor(name).misses.Inc() }

// RecordPut counts a value stored in the named cache.
func (s *CacheStats) RecordPut(name string) { s.countersFor(name).puts.Inc() }

// RecordEvict counts n entries evicted from the named cache.
func (s *CacheStats) RecordEvict(name string, n int64) { s.countersFor(name).evicts.Add(n) }

// Snapshot aggregates per-cache and global hit rates. A cache with no lookups
// reports a hit rate of 0.
func (s *CacheStats) Snapshot() models.CacheStats {
	out := models.CacheStats{
		Caches:    make(map[string]models.CacheCounters),
		Timestamp: time.Now(),
	}
	s.caches.Range(func(name string, c *cacheCounters) bool {
		cc := models.CacheCounters{
			Hits:   c.hits.Value(),
			Misses: c.misses.Value(),
			Puts:   c.puts.Value(),
			Evicts: c.evicts.Value(),
		}
		cc.HitRate = hitRate(cc.Hits, cc.Misses)
		out.Caches[name] = cc
		out.TotalHits += cc.Hits
		out.TotalMisses += cc.Misses
		return true
	})
	out.HitRate = hitRate(out.TotalHits, out.TotalMisses)
	return out
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
