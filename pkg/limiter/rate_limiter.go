package limiter

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds calls per capability. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps"`
	Burst int     `json:"burst" yaml:"burst"`
}

// RateLimiter holds one token bucket per capability name.
type RateLimiter struct {
	config   RateLimitConfig
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:   config,
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetLimiter returns or creates the limiter for name.
func (rl *RateLimiter) GetLimiter(name string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[name]; exists {
		return limiter
	}

	limit := rate.Inf
	burst := rl.config.Burst
	if rl.config.RPS > 0 {
		limit = rate.Limit(rl.config.RPS)
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)
	rl.limiters[name] = limiter
	return limiter
}

// Wait blocks until name may make a call or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context, name string) error {
	if err := rl.GetLimiter(name).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}
	return nil
}

// Allow checks if a call is allowed without waiting
func (rl *RateLimiter) Allow(name string) bool {
	return rl.GetLimiter(name).Allow()
}

// Tokens reports the tokens currently available to name.
func (rl *RateLimiter) Tokens(name string) float64 {
	return rl.GetLimiter(name).Tokens()
}

// Reset drops the limiter for name.
func (rl *RateLimiter) Reset(name string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, name)
}
