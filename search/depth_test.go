package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/testkit"
)

func TestDepthVisitsInGenerationOrder(t *testing.T) {
	gen := testkit.NewScriptedGenerator(map[string][]string{
		"":  {"A", "B"},
		"A": {"A1"},
		"B": {"B1"},
	})
	eval := testkit.KeywordEvaluator{Rules: []testkit.Rule{{Substring: "B1", Score: 0.8}}, Default: 0.5}
	s, err := New(gen, eval, WithStrategy(StrategyDepth))
	require.NoError(t, err)

	out, err := s.Solve(context.Background(), "p")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "A", "A1", "B", "B1"}, gen.Calls())
	assert.Equal(t, core.StatusSolved, out.Status)
	assert.False(t, out.ThresholdReached)
	assert.Equal(t, "Start\nB\nB1", out.Solution)
	assert.Equal(t, 0.8, out.FinalScore)
	assert.Equal(t, 4, out.NodesExplored)
}

func TestDepthAbandonsStackOnThreshold(t *testing.T) {
	gen := testkit.NewScriptedGenerator(map[string][]string{
		"":  {"A", "B"},
		"A": {"A1", "A2"},
		"B": {"B1"},
	})
	eval := testkit.KeywordEvaluator{Rules: []testkit.Rule{{Substring: "A1", Score: 0.95}}, Default: 0.5}
	s, err := New(gen, eval, WithStrategy(StrategyDepth))
	require.NoError(t, err)

	out, err := s.Solve(context.Background(), "p")
	require.NoError(t, err)

	assert.Equal(t, "Start\nA\nA1", out.Solution)
	assert.True(t, out.ThresholdReached)
	assert.Equal(t, 2, out.Depth)
	assert.Equal(t, 4, out.NodesExplored)
	assert.Equal(t, []string{"", "A"}, gen.Calls())
}

func TestDepthSkipsNodesBeyondMaxDepth(t *testing.T) {
	gen := testkit.NewScriptedGenerator(nil)
	gen.Default = []string{"x", "y", "z"}
	s, err := New(gen, testkit.ConstantEvaluator(0.6), WithStrategy(StrategyDepth), WithMaxDepth(1))
	require.NoError(t, err)

	out, err := s.Solve(context.Background(), "p")
	require.NoError(t, err)

	// depth-1 nodes are expanded, their depth-2 children are scored then skipped
	assert.Equal(t, 3+9, out.NodesExplored)
	assert.Len(t, gen.Calls(), 4)
	assert.Equal(t, "Start\nx", out.Solution)
	assert.Equal(t, 1, out.Depth)
	assert.False(t, out.ThresholdReached)
}

func TestDepthFailsWhenRootIsNeverBeaten(t *testing.T) {
	gen := testkit.NewScriptedGenerator(map[string][]string{"": {"A", "B"}})
	s, err := New(gen, testkit.ConstantEvaluator(0.45), WithStrategy(StrategyDepth))
	require.NoError(t, err)

	out, err := s.Solve(context.Background(), "p")
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, out.Status)
	assert.Equal(t, ReasonExhausted, out.Reason)
	assert.Equal(t, 2, out.NodesExplored)
}
