package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/snow-ghost/thoughtsearch/policy/local"
)

// ProtectionConfig configures every protection layer around capability calls.
type ProtectionConfig struct {
	RateLimit RateLimitConfig      `json:"rate_limit" yaml:"rate_limit"`
	Breaker   CircuitBreakerConfig `json:"breaker" yaml:"breaker"`
	Retry     *RetryConfig         `json:"retry" yaml:"retry"`
	Timeout   time.Duration        `json:"timeout" yaml:"timeout"`
}

// DefaultProtectionConfig leaves rate limiting off.
func DefaultProtectionConfig() ProtectionConfig {
	return ProtectionConfig{
		Breaker: DefaultCircuitBreakerConfig(),
		Retry:   DefaultRetryConfig(),
		Timeout: local.DefaultTimeout,
	}
}

// ProtectionManager integrates rate limiting, circuit breaking, retries and
// per-attempt timeouts.
type ProtectionManager struct {
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreakerManager
	retryManager   *RetryManager
	guard          *local.Guard
}

// NewProtectionManager creates a new protection manager. onChange may be nil.
func NewProtectionManager(config ProtectionConfig, logger *zap.Logger, onChange StateChangeFunc) *ProtectionManager {
	return &ProtectionManager{
		rateLimiter:    NewRateLimiter(config.RateLimit),
		circuitBreaker: NewCircuitBreakerManager(config.Breaker, logger, onChange),
		retryManager:   NewRetryManager(config.Retry),
		guard:          local.NewGuard(config.Timeout),
	}
}

// Execute runs fn for the named capability: wait for the rate limiter, then
// call through the breaker, retrying timed-out or failed attempts inside it.
func (pm *ProtectionManager) Execute(ctx context.Context, name string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := pm.rateLimiter.Wait(ctx, name); err != nil {
		return nil, err
	}

	result, err := pm.circuitBreaker.Execute(ctx, name, func() (interface{}, error) {
		return pm.retryManager.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			var out interface{}
			err := pm.guard.Wrap(ctx, func(ctx context.Context) error {
				v, err := fn(ctx)
				out = v
				return err
			})
			if err != nil {
				return nil, err
			}
			return out, nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("protected call to %s failed: %w", name, err)
	}
	return result, nil
}

// Stats is a snapshot of the protection state of one capability.
type Stats struct {
	Name          string  `json:"name"`
	BreakerState  string  `json:"breaker_state"`
	Requests      uint32  `json:"requests"`
	TotalFailures uint32  `json:"total_failures"`
	Tokens        float64 `json:"tokens"`
}

// Stats returns the protection state for name.
func (pm *ProtectionManager) Stats(name string) Stats {
	counts := pm.circuitBreaker.Counts(name)
	return Stats{
		Name:          name,
		BreakerState:  pm.circuitBreaker.State(name).String(),
		Requests:      counts.Requests,
		TotalFailures: counts.TotalFailures,
		Tokens:        pm.rateLimiter.Tokens(name),
	}
}

// Available reports whether name's breaker currently admits calls.
func (pm *ProtectionManager) Available(name string) bool {
	return pm.circuitBreaker.State(name) != gobreaker.StateOpen
}

// Reset clears every protection layer for name.
func (pm *ProtectionManager) Reset(name string) {
	pm.rateLimiter.Reset(name)
	pm.circuitBreaker.Reset(name)
}
