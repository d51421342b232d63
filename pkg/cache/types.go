package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// CacheKey identifies one capability call.
type CacheKey string

// NewCacheKey hashes the parts of a call. Parts are length-prefixed so that
// ("ab","c") and ("a","bc") never collide.
func NewCacheKey(kind string, parts ...string) CacheKey {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	MaxSize int           `json:"max_size" yaml:"max_size"` // maximum number of entries
	TTL     time.Duration `json:"ttl" yaml:"ttl"`           // zero means entries never expire
}

// DefaultCacheConfig returns a default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxSize: 10000,
		TTL:     10 * time.Minute,
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Deduplicated int64 `json:"deduplicated"`
	Size         int   `json:"size"`
	MaxSize      int   `json:"max_size"`
}

// HitRate returns hits / (hits + misses).
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
