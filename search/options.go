package search

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures a Solver at construction.
type Option func(*Solver)

// WithConfig replaces the whole configuration. Options applied after it
// override individual fields.
func WithConfig(cfg Config) Option {
	return func(s *Solver) { s.cfg = cfg }
}

// WithStrategy selects the traversal. The tag is checked when Solve runs.
func WithStrategy(strategy Strategy) Option {
	return func(s *Solver) { s.cfg.Strategy = strategy }
}

// WithMaxDepth bounds how many thoughts a chain may hold below the root.
func WithMaxDepth(n int) Option {
	return func(s *Solver) { s.cfg.MaxDepth = n }
}

// WithBranchingFactor sets how many thoughts are requested per expansion.
func WithBranchingFactor(n int) Option {
	return func(s *Solver) { s.cfg.BranchingFactor = n }
}

// WithBeamWidth sets how many nodes survive each level. Breadth only.
func WithBeamWidth(n int) Option {
	return func(s *Solver) { s.cfg.BeamWidth = n }
}

// WithPruneThreshold discards candidates scoring below v.
func WithPruneThreshold(v float64) Option {
	return func(s *Solver) { s.cfg.PruneThreshold = v }
}

// WithSuccessThreshold ends the search at the first node scoring at least v.
func WithSuccessThreshold(v float64) Option {
	return func(s *Solver) { s.cfg.SuccessThreshold = v }
}

// WithLogger sets the logger used for per-level debug output and capability
// degradation warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for solve and expansion spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Solver) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithRunIDs overrides how run IDs are minted.
func WithRunIDs(next func() string) Option {
	return func(s *Solver) {
		if next != nil {
			s.newRunID = next
		}
	}
}
