package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
	"github.com/snow-ghost/thoughtsearch/search"
)

// Solver runs searches over shared components and reports every run to the
// observability manager.
type Solver struct {
	components     *Components
	base           search.Config
	workerType     WorkerType
	portfolioLimit int
	obs            *observability.Manager
}

func NewSolver(components *Components, base search.Config, workerType WorkerType, portfolioLimit int, obs *observability.Manager) *Solver {
	return &Solver{
		components:     components,
		base:           base,
		workerType:     workerType,
		portfolioLimit: portfolioLimit,
		obs:            obs,
	}
}

func (s *Solver) Type() string { return string(s.workerType) }

func (s *Solver) Caps() Capabilities { return s.components.Caps }

// Components returns the capabilities the solver searches with.
func (s *Solver) Components() *Components { return s.components }

// Solve applies req's overrides to the base config and runs the search.
// Invalid overrides return an ErrBadRequest error without searching.
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (core.Outcome, error) {
	return s.SolveStream(ctx, req, nil)
}

// SolveStream is Solve with progress reported after every expansion.
// progress may be nil. In heavy mode it is called from every portfolio member,
// one call at a time.
func (s *Solver) SolveStream(ctx context.Context, req SolveRequest, progress search.ProgressFunc) (core.Outcome, error) {
	cfg, err := req.Apply(s.base)
	if err != nil {
		return core.Outcome{}, err
	}

	caller := req.Caller
	if caller == "" {
		caller = observability.GetCallerFromContext(ctx)
	}

	ctx, finish := s.obs.StartSolve(ctx, caller, string(cfg.Strategy), req.Problem)
	out, err := s.run(ctx, cfg, req.Problem, progress)
	finish(out, err)

	for name, stats := range s.components.CacheStats() {
		s.obs.RecordCacheStats(name, stats)
	}
	return out, err
}

func (s *Solver) run(ctx context.Context, cfg search.Config, problem string, progress search.ProgressFunc) (core.Outcome, error) {
	logger := s.obs.Logger().Zap().With(zap.String("request_id", observability.GetRequestIDFromContext(ctx)))
	opts := []search.Option{
		search.WithLogger(logger),
		search.WithTracer(s.obs.Tracer().Tracer()),
	}
	if progress != nil {
		if s.workerType == WorkerTypeHeavy {
			var mu sync.Mutex
			next := progress
			progress = func(p search.Progress) {
				mu.Lock()
				defer mu.Unlock()
				next(p)
			}
		}
		opts = append(opts, search.WithProgress(progress))
	}

	if s.workerType != WorkerTypeHeavy {
		solver, err := search.New(s.components.Generator, s.components.Evaluator,
			append([]search.Option{search.WithConfig(cfg)}, opts...)...)
		if err != nil {
			return core.Outcome{}, err
		}
		return solver.Solve(ctx, problem)
	}

	// the requested strategy first, so it wins ties
	strategies := []search.Strategy{cfg.Strategy, search.StrategyDepth}
	if cfg.Strategy == search.StrategyDepth {
		strategies[1] = search.StrategyBreadth
	}
	solvers := make([]*search.Solver, 0, len(strategies))
	for _, strategy := range strategies {
		member := cfg
		member.Strategy = strategy
		solver, err := search.New(s.components.Generator, s.components.Evaluator,
			append([]search.Option{search.WithConfig(member)}, opts...)...)
		if err != nil {
			return core.Outcome{}, err
		}
		solvers = append(solvers, solver)
	}

	start := time.Now()
	best, members, err := search.NewPortfolio(s.portfolioLimit, solvers...).Solve(ctx, problem)
	if err != nil && ctx.Err() != nil {
		out := core.Outcome{
			Strategy: string(cfg.Strategy),
			Status:   core.StatusFailed,
			Reason:   search.ReasonCancelled,
			Duration: time.Since(start),
		}
		for _, m := range members {
			out.NodesExplored += m.NodesExplored
		}
		return out, fmt.Errorf("portfolio: %w", err)
	}
	return best, err
}
