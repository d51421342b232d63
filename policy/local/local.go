package local

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds a capability call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when a wrapped call outlives its timeout.
var ErrTimeout = errors.New("capability call timed out")

// Guard runs capability calls under a wall-clock timeout. The call keeps
// running in its goroutine after a timeout until it observes ctx, but its
// result is discarded.
type Guard struct {
	timeout time.Duration
}

// NewGuard creates a guard; timeout <= 0 selects DefaultTimeout.
func NewGuard(timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{timeout: timeout}
}

// Timeout returns the configured per-call timeout.
func (g *Guard) Timeout() time.Duration { return g.timeout }

// Wrap runs fn with a derived context that expires after the guard's timeout.
// A timeout is reported as ErrTimeout; cancellation of the parent as ctx.Err().
func (g *Guard) Wrap(ctx context.Context, run func(ctx context.Context) error) error {
	execCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(execCtx)
	}()

	select {
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return execCtx.Err()
	case err := <-done:
		return err
	}
}
