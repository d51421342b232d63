package cache

import (
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// store is an expiring LRU with in-flight deduplication of misses.
type store[V any] struct {
	lru   *expirable.LRU[CacheKey, V]
	group singleflight.Group
	max   int

	hits, misses, dedup atomic.Int64
}

func newStore[V any](config *CacheConfig) *store[V] {
	if config == nil {
		config = DefaultCacheConfig()
	}
	return &store[V]{
		lru: expirable.NewLRU[CacheKey, V](config.MaxSize, nil, config.TTL),
		max: config.MaxSize,
	}
}

// get returns the cached value for key or computes it once, even when several
// callers miss at the same time. Errors are never cached.
func (s *store[V]) get(key CacheKey, fn func() (V, error)) (V, error) {
	if v, ok := s.lru.Get(key); ok {
		s.hits.Add(1)
		return v, nil
	}
	s.misses.Add(1)

	result, err, shared := s.group.Do(string(key), func() (interface{}, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		s.lru.Add(key, v)
		return v, nil
	})
	if shared {
		s.dedup.Add(1)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (s *store[V]) stats() CacheStats {
	return CacheStats{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		Deduplicated: s.dedup.Load(),
		Size:         s.lru.Len(),
		MaxSize:      s.max,
	}
}

func (s *store[V]) purge() { s.lru.Purge() }
