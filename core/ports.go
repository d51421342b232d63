package core

import "context"

// ThoughtGenerator proposes candidate next reasoning steps from a state.
// It returns at most n distinct thoughts; fewer (or none) is not an error.
type ThoughtGenerator interface {
	GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error)
}

// StateEvaluator scores how promising a reasoning state is, nominally in [0,1].
type StateEvaluator interface {
	Evaluate(ctx context.Context, state, problem string) (float64, error)
}

// LLMAdapter is a raw text completion backend used by prompt-based capabilities.
type LLMAdapter interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// GeneratorFunc adapts a plain function to ThoughtGenerator.
type GeneratorFunc func(ctx context.Context, state, problem string, n int) ([]string, error)

func (f GeneratorFunc) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	return f(ctx, state, problem, n)
}

// EvaluatorFunc adapts a plain function to StateEvaluator.
type EvaluatorFunc func(ctx context.Context, state, problem string) (float64, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	return f(ctx, state, problem)
}
