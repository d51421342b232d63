package limiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay     time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay      time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor"`
	Jitter        bool          `json:"jitter" yaml:"jitter"`

	// Retryable decides whether a failed attempt is tried again.
	// Nil means IsRetryable.
	Retryable func(error) bool `json:"-" yaml:"-"`
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    2,
		BaseDelay:     50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func(ctx context.Context) (interface{}, error)

// RetryManager manages retry logic
type RetryManager struct {
	config *RetryConfig
}

// NewRetryManager creates a new retry manager
func NewRetryManager(config *RetryConfig) *RetryManager {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryManager{config: config}
}

// Execute runs fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent.
func (rm *RetryManager) Execute(ctx context.Context, fn RetryableFunc) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= rm.config.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == rm.config.MaxRetries {
			break
		}
		if !rm.isRetryable(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rm.calculateDelay(attempt)):
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (rm *RetryManager) isRetryable(err error) bool {
	if rm.config.Retryable != nil {
		return rm.config.Retryable(err)
	}
	return IsRetryable(err)
}

// calculateDelay calculates the delay for the given attempt
func (rm *RetryManager) calculateDelay(attempt int) time.Duration {
	// baseDelay * (backoffFactor ^ attempt)
	delay := float64(rm.config.BaseDelay) * math.Pow(rm.config.BackoffFactor, float64(attempt))

	if delay > float64(rm.config.MaxDelay) {
		delay = float64(rm.config.MaxDelay)
	}

	if rm.config.Jitter {
		// ±25%
		jitter := rand.Float64()*0.5 - 0.25
		delay = delay * (1 + jitter)
	}

	return time.Duration(delay)
}

// PermanentError marks a failure that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that IsRetryable reports false for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsRetryable is the default retry predicate. Context errors, permanent
// errors and breaker rejections are final; everything else is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perm *PermanentError
	switch {
	case errors.As(err, &perm):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	}
	return true
}
