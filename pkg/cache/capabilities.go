package cache

import (
	"context"
	"strconv"

	"github.com/snow-ghost/thoughtsearch/core"
)

// CachingEvaluator memoises scores by (problem, state). Safe for concurrent use,
// so one instance can be shared by the members of a portfolio.
type CachingEvaluator struct {
	next  core.StateEvaluator
	store *store[float64]
}

func NewCachingEvaluator(next core.StateEvaluator, config *CacheConfig) *CachingEvaluator {
	return &CachingEvaluator{next: next, store: newStore[float64](config)}
}

func (c *CachingEvaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	return c.store.get(NewCacheKey("eval", problem, state), func() (float64, error) {
		return c.next.Evaluate(ctx, state, problem)
	})
}

// Stats returns cache statistics
func (c *CachingEvaluator) Stats() CacheStats { return c.store.stats() }

// Clear drops every cached score.
func (c *CachingEvaluator) Clear() { c.store.purge() }

// CachingGenerator memoises thoughts by (problem, state, n). Only useful for
// generators that are deterministic for a given input.
type CachingGenerator struct {
	next  core.ThoughtGenerator
	store *store[[]string]
}

func NewCachingGenerator(next core.ThoughtGenerator, config *CacheConfig) *CachingGenerator {
	return &CachingGenerator{next: next, store: newStore[[]string](config)}
}

func (c *CachingGenerator) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	thoughts, err := c.store.get(NewCacheKey("gen", problem, state, strconv.Itoa(n)), func() ([]string, error) {
		return c.next.GenerateThoughts(ctx, state, problem, n)
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), thoughts...), nil
}

// Stats returns cache statistics
func (c *CachingGenerator) Stats() CacheStats { return c.store.stats() }

// Clear drops every cached expansion.
func (c *CachingGenerator) Clear() { c.store.purge() }
