package testkit

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/snow-ghost/thoughtsearch/core"
)

// ErrCapability is returned by the failing doubles.
var ErrCapability = errors.New("capability unavailable")

// ScriptedGenerator returns fixed thoughts keyed by the state it is asked to
// expand. The root is expanded with the empty state.
type ScriptedGenerator struct {
	Thoughts map[string][]string
	Default  []string

	mu    sync.Mutex
	calls []string
}

func NewScriptedGenerator(thoughts map[string][]string) *ScriptedGenerator {
	return &ScriptedGenerator{Thoughts: thoughts}
}

func (g *ScriptedGenerator) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, state)
	g.mu.Unlock()

	thoughts, ok := g.Thoughts[state]
	if !ok {
		thoughts = g.Default
	}
	if len(thoughts) > n {
		thoughts = thoughts[:n]
	}
	out := make([]string, len(thoughts))
	copy(out, thoughts)
	return out, nil
}

// Calls returns the states expanded so far, in order.
func (g *ScriptedGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// TreeGenerator produces n children of every state, named "<state>.<i>", so
// that every node in the tree is distinct.
type TreeGenerator struct{}

func (TreeGenerator) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	if state == "" {
		state = "n"
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s.%d", state, i+1)
	}
	return out, nil
}

// Rule scores any chain containing Substring.
type Rule struct {
	Substring string
	Score     float64
}

// KeywordEvaluator applies the first matching rule, or Default.
type KeywordEvaluator struct {
	Rules   []Rule
	Default float64
}

func (e KeywordEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	for _, r := range e.Rules {
		if strings.Contains(state, r.Substring) {
			return r.Score, nil
		}
	}
	return e.Default, nil
}

// ConstantEvaluator scores every chain the same.
type ConstantEvaluator float64

func (c ConstantEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	return float64(c), nil
}

// HashEvaluator gives every chain a stable pseudo-random score in [0,1).
type HashEvaluator struct{}

func (HashEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(problem))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(state))
	return float64(h.Sum64()%1000) / 1000, nil
}

// FailingGenerator always fails.
type FailingGenerator struct{}

func (FailingGenerator) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	return nil, ErrCapability
}

// FailingEvaluator always fails.
type FailingEvaluator struct{}

func (FailingEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	return 0, ErrCapability
}

// CountingEvaluator records how many times, and with which chains, the wrapped
// evaluator was called.
type CountingEvaluator struct {
	Next core.StateEvaluator

	n      atomic.Int64
	mu     sync.Mutex
	states []string
}

func NewCountingEvaluator(next core.StateEvaluator) *CountingEvaluator {
	return &CountingEvaluator{Next: next}
}

func (c *CountingEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	c.n.Add(1)
	c.mu.Lock()
	c.states = append(c.states, state)
	c.mu.Unlock()
	return c.Next.Evaluate(ctx, state, problem)
}

func (c *CountingEvaluator) Count() int { return int(c.n.Load()) }

// States returns every evaluated chain, in call order.
func (c *CountingEvaluator) States() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.states...)
}
