package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/snow-ghost/thoughtsearch/core"
)

// Solver explores a tree of reasoning chains using a ThoughtGenerator and a
// StateEvaluator. Configuration is fixed at construction.
//
// All per-call bookkeeping lives in the Solve call, so a Solver can be reused.
// Concurrent Solve calls on one Solver are not supported; run separate Solvers
// (see Portfolio) instead.
type Solver struct {
	gen  core.ThoughtGenerator
	eval core.StateEvaluator
	cfg  Config

	logger   *zap.Logger
	tracer   trace.Tracer
	newRunID func() string
	progress ProgressFunc
}

// New builds a Solver. Numeric configuration is validated here; the strategy
// tag is validated when Solve is called.
func New(gen core.ThoughtGenerator, eval core.StateEvaluator, opts ...Option) (*Solver, error) {
	if gen == nil || eval == nil {
		return nil, ErrNilCapability
	}
	s := &Solver{
		gen:      gen,
		eval:     eval,
		cfg:      DefaultConfig(),
		logger:   zap.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer("thoughtsearch"),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the solver's configuration.
func (s *Solver) Config() Config { return s.cfg }

// Solve runs the configured traversal for problem.
//
// Exhaustion is reported as a failed outcome with a nil error. An unknown
// strategy returns ErrUnknownStrategy before anything is explored. If ctx ends
// the search, a failed outcome with ReasonCancelled is returned with ctx.Err().
func (s *Solver) Solve(ctx context.Context, problem string) (core.Outcome, error) {
	start := time.Now()

	strategy, err := ParseStrategy(string(s.cfg.Strategy))
	if err != nil {
		return core.Outcome{}, err
	}

	r := &run{
		solver:   s,
		problem:  problem,
		strategy: strategy,
		id:       s.newRunID(),
	}
	r.logger = s.logger.With(zap.String("run_id", r.id), zap.String("strategy", string(strategy)))

	ctx, span := s.tracer.Start(ctx, "search.solve", trace.WithAttributes(
		attribute.String("search.run_id", r.id),
		attribute.String("search.strategy", string(strategy)),
		attribute.Int("search.max_depth", s.cfg.MaxDepth),
		attribute.Int("search.branching_factor", s.cfg.BranchingFactor),
	))
	defer span.End()

	root := core.NewRoot(core.NeutralScore)

	var node *core.SearchNode
	switch strategy {
	case StrategyBreadth:
		node, err = r.breadth(ctx, root)
	case StrategyDepth:
		node, err = r.depth(ctx, root)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ReasonCancelled)
		out := r.failed(ReasonCancelled, time.Since(start))
		r.logger.Debug("search cancelled", zap.Int("nodes_explored", r.explored), zap.Error(err))
		return out, fmt.Errorf("search %s: %w", r.id, err)
	}

	var out core.Outcome
	if node == nil {
		out = r.failed(ReasonExhausted, time.Since(start))
	} else {
		out = r.solved(node, time.Since(start))
	}

	span.SetAttributes(
		attribute.String("search.status", string(out.Status)),
		attribute.Int("search.nodes_explored", out.NodesExplored),
	)
	span.SetStatus(codes.Ok, "")
	r.logger.Debug("search finished",
		zap.String("status", string(out.Status)),
		zap.Int("nodes_explored", out.NodesExplored),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

// run is the state owned by a single Solve call.
type run struct {
	solver   *Solver
	problem  string
	strategy Strategy
	id       string
	logger   *zap.Logger

	explored int
}

func (r *run) reached(n *core.SearchNode) bool {
	return n.Score >= r.solver.cfg.SuccessThreshold
}

// thoughts asks the generator for candidates from n. A generator failure
// counts as no candidates.
func (r *run) thoughts(ctx context.Context, n *core.SearchNode) []string {
	bf := r.solver.cfg.BranchingFactor
	thoughts, err := r.solver.gen.GenerateThoughts(ctx, n.GeneratorState(), r.problem, bf)
	if err != nil {
		r.logger.Warn("thought generation failed, treating node as a leaf",
			zap.Int("depth", n.Depth), zap.Error(err))
		return nil
	}
	if len(thoughts) > bf {
		thoughts = thoughts[:bf]
	}
	return thoughts
}

// score evaluates one candidate chain and counts it as explored. Evaluator
// failures and NaN fall back to the neutral score, except once ctx has ended:
// then ok is false and the caller stops expanding.
func (r *run) score(ctx context.Context, chain string) (v float64, ok bool) {
	r.explored++
	v, err := r.solver.eval.Evaluate(ctx, chain, r.problem)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false
		}
		r.logger.Warn("state evaluation failed, using neutral score", zap.Error(err))
		return core.NeutralScore, true
	}
	if math.IsNaN(v) {
		return core.NeutralScore, true
	}
	return v, true
}

// expand generates, scores and prunes the children of n, handing each
// surviving child to visit in generation order. If visit returns true the
// expansion stops and that child is returned. Callers must check ctx after
// expand returns nil.
func (r *run) expand(ctx context.Context, n *core.SearchNode, visit func(*core.SearchNode) bool) *core.SearchNode {
	ctx, span := r.solver.tracer.Start(ctx, "search.expand", trace.WithAttributes(
		attribute.Int("search.depth", n.Depth),
	))
	defer span.End()

	thoughts := r.thoughts(ctx, n)
	survivors := 0
	best := math.Inf(-1)
	defer func() {
		span.SetAttributes(
			attribute.Int("search.thoughts", len(thoughts)),
			attribute.Int("search.survivors", survivors),
		)
		r.report(n.Depth, len(thoughts), survivors, best)
	}()

	for _, thought := range thoughts {
		score, ok := r.score(ctx, n.Extend(thought))
		if !ok {
			return nil
		}
		if score < r.solver.cfg.PruneThreshold {
			continue
		}
		survivors++
		best = math.Max(best, score)
		child := n.Child(thought, score)
		if visit(child) {
			return child
		}
	}
	return nil
}
