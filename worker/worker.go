package worker

import (
	"context"
	"fmt"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
	"github.com/snow-ghost/thoughtsearch/search"
)

// Worker solves search requests.
type Worker interface {
	// Solve runs one search for req.
	Solve(ctx context.Context, req SolveRequest) (core.Outcome, error)

	// SolveStream runs one search and reports each expansion to progress.
	SolveStream(ctx context.Context, req SolveRequest, progress search.ProgressFunc) (core.Outcome, error)

	// Type returns the worker type ("light" or "heavy").
	Type() string

	// Caps describes the capabilities the worker searches with.
	Caps() Capabilities
}

// WorkerType represents the type of worker
type WorkerType string

const (
	// WorkerTypeLight runs the requested strategy alone.
	WorkerTypeLight WorkerType = "light"
	// WorkerTypeHeavy runs breadth and depth searches as a portfolio.
	WorkerTypeHeavy WorkerType = "heavy"
)

// NewWorker builds a worker and its components from config.
func NewWorker(ctx context.Context, config *Config, obs *observability.Manager) (*Solver, error) {
	workerType := WorkerType(config.WorkerType)
	switch workerType {
	case WorkerTypeLight, WorkerTypeHeavy:
	case "":
		workerType = WorkerTypeLight
	default:
		return nil, fmt.Errorf("unknown worker type %q", config.WorkerType)
	}

	base, err := config.SearchConfig()
	if err != nil {
		return nil, err
	}

	components, err := BuildComponents(ctx, config, obs.Logger().Zap(), obs.BreakerObserver())
	if err != nil {
		return nil, err
	}

	return NewSolver(components, base, workerType, config.PortfolioLimit, obs), nil
}
