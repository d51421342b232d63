package limiter

import (
	"context"

	"github.com/snow-ghost/thoughtsearch/core"
)

// GuardedGenerator runs a ThoughtGenerator through a ProtectionManager.
type GuardedGenerator struct {
	next core.ThoughtGenerator
	pm   *ProtectionManager
	name string
}

func NewGuardedGenerator(next core.ThoughtGenerator, pm *ProtectionManager, name string) *GuardedGenerator {
	return &GuardedGenerator{next: next, pm: pm, name: name}
}

func (g *GuardedGenerator) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	res, err := g.pm.Execute(ctx, g.name, func(ctx context.Context) (interface{}, error) {
		return g.next.GenerateThoughts(ctx, state, problem, n)
	})
	if err != nil {
		return nil, err
	}
	thoughts, _ := res.([]string)
	return thoughts, nil
}

// GuardedEvaluator runs a StateEvaluator through a ProtectionManager.
type GuardedEvaluator struct {
	next core.StateEvaluator
	pm   *ProtectionManager
	name string
}

func NewGuardedEvaluator(next core.StateEvaluator, pm *ProtectionManager, name string) *GuardedEvaluator {
	return &GuardedEvaluator{next: next, pm: pm, name: name}
}

func (e *GuardedEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	res, err := e.pm.Execute(ctx, e.name, func(ctx context.Context) (interface{}, error) {
		return e.next.Evaluate(ctx, state, problem)
	})
	if err != nil {
		return 0, err
	}
	score, _ := res.(float64)
	return score, nil
}
