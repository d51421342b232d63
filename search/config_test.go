package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in   string
		want Strategy
	}{
		{"breadth", StrategyBreadth},
		{"BFS", StrategyBreadth},
		{" beam ", StrategyBreadth},
		{"depth", StrategyDepth},
		{"dfs", StrategyDepth},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseStrategy("astar")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StrategyBreadth, cfg.Strategy)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, 3, cfg.BranchingFactor)
	assert.Equal(t, 5, cfg.BeamWidth)
	assert.Equal(t, 0.3, cfg.PruneThreshold)
	assert.Equal(t, 0.9, cfg.SuccessThreshold)
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("strategy: dfs\nmax_depth: 8\n"))
	require.NoError(t, err)

	assert.Equal(t, StrategyDepth, cfg.Strategy)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, 3, cfg.BranchingFactor)
	assert.Equal(t, 0.9, cfg.SuccessThreshold)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("max_depth: [1"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("beam_width: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("success_threshold: .nan\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("strategy: astar\n"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("branching_factor: 2\nprune_threshold: 0.25\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.BranchingFactor)
	assert.Equal(t, 0.25, cfg.PruneThreshold)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWithConfigThenOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 9
	s := &Solver{}
	for _, opt := range []Option{WithConfig(cfg), WithBeamWidth(2)} {
		opt(s)
	}
	assert.Equal(t, 9, s.cfg.MaxDepth)
	assert.Equal(t, 2, s.cfg.BeamWidth)
}
