package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `json:"max_requests" yaml:"max_requests"`
	Interval     time.Duration `json:"interval" yaml:"interval"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	MinRequests  uint32        `json:"min_requests" yaml:"min_requests"`
	FailureRatio float64       `json:"failure_ratio" yaml:"failure_ratio"`
}

// DefaultCircuitBreakerConfig opens a breaker once at least 5 requests were
// seen and half of them failed.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:  3,
		Interval:     10 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.5,
	}
}

func (c CircuitBreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	return counts.Requests >= c.MinRequests &&
		float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

// StateChangeFunc observes breaker transitions.
type StateChangeFunc func(name string, from, to gobreaker.State)

// CircuitBreakerManager manages one breaker per capability name.
type CircuitBreakerManager struct {
	config   CircuitBreakerConfig
	logger   *zap.Logger
	onChange StateChangeFunc

	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.Mutex
}

// NewCircuitBreakerManager creates a new circuit breaker manager. onChange may be nil.
func NewCircuitBreakerManager(config CircuitBreakerConfig, logger *zap.Logger, onChange StateChangeFunc) *CircuitBreakerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreakerManager{
		config:   config,
		logger:   logger,
		onChange: onChange,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// GetBreaker returns or creates the breaker for name.
func (cbm *CircuitBreakerManager) GetBreaker(name string) *gobreaker.CircuitBreaker {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()

	if breaker, exists := cbm.breakers[name]; exists {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cbm.config.MaxRequests,
		Interval:    cbm.config.Interval,
		Timeout:     cbm.config.Timeout,
		ReadyToTrip: cbm.config.readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			cbm.logger.Warn("circuit breaker state changed",
				zap.String("capability", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if cbm.onChange != nil {
				cbm.onChange(name, from, to)
			}
		},
	})
	cbm.breakers[name] = breaker
	return breaker
}

// Execute executes a function through the breaker for name.
func (cbm *CircuitBreakerManager) Execute(ctx context.Context, name string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbm.GetBreaker(name).Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("circuit breaker %s: %w", name, err)
	}
	return result, nil
}

// State returns the current state of the breaker for name.
func (cbm *CircuitBreakerManager) State(name string) gobreaker.State {
	return cbm.GetBreaker(name).State()
}

// Counts returns the breaker counters for name.
func (cbm *CircuitBreakerManager) Counts(name string) gobreaker.Counts {
	return cbm.GetBreaker(name).Counts()
}

// IsOpen checks if the breaker for name is open.
func (cbm *CircuitBreakerManager) IsOpen(name string) bool {
	return cbm.State(name) == gobreaker.StateOpen
}

// Reset drops the breaker for name.
func (cbm *CircuitBreakerManager) Reset(name string) {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()
	delete(cbm.breakers, name)
}
