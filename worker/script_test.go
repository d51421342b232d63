package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	doc := `
thoughts:
  "": [left, right]
  left: [left-done]
default_thoughts: [again]
rules:
  - contains: done
    score: 0.97
  - contains: right
    score: 0.1
default_score: 0.6
`
	script, err := ParseScript([]byte(doc))
	require.NoError(t, err)

	ctx := context.Background()
	gen := script.Generator()

	thoughts, err := gen.GenerateThoughts(ctx, "", "p", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right"}, thoughts)

	thoughts, err = gen.GenerateThoughts(ctx, "left", "p", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"left-done"}, thoughts)

	thoughts, err = gen.GenerateThoughts(ctx, "elsewhere", "p", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"again"}, thoughts)

	eval := script.Evaluator()
	for state, want := range map[string]float64{
		"Start\nleft\nleft-done": 0.97,
		"Start\nright":           0.1,
		"Start\nleft":            0.6,
	} {
		got, err := eval.Evaluate(ctx, state, "p")
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, state)
	}
}

func TestParseScriptErrors(t *testing.T) {
	_, err := ParseScript([]byte("rules:\n  - score: 0.9\n"))
	assert.ErrorContains(t, err, "no contains pattern")

	_, err = ParseScript([]byte("thoughts: [not, a, map]"))
	assert.Error(t, err)

	_, err = LoadScript("/nonexistent/script.yaml")
	assert.Error(t, err)
}

func TestDemoScriptDefaultScore(t *testing.T) {
	eval := DemoScript().Evaluator()

	got, err := eval.Evaluate(context.Background(), "Start\nBreak the problem into parts", "p")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)

	got, err = eval.Evaluate(context.Background(), "Start\nDONE", "p")
	require.NoError(t, err)
	assert.Equal(t, 0.95, got)
}
