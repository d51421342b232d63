package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
	"github.com/snow-ghost/thoughtsearch/search"
	"github.com/snow-ghost/thoughtsearch/testkit"
)

func TestNewWorkerRejectsUnknownType(t *testing.T) {
	config := scriptConfig()
	config.WorkerType = "medium"
	_, err := NewWorker(context.Background(), config, newTestObs(t))
	assert.Error(t, err)
}

func TestLightSolve(t *testing.T) {
	s, obs := newTestSolver(t, scriptConfig())
	assert.Equal(t, "light", s.Type())
	assert.Equal(t, "script/keywords+cache", s.Caps().String())

	ctx := observability.WithRequestID(context.Background(), "req-1")
	out, err := s.Solve(ctx, SolveRequest{Problem: "plan a trip", Caller: "test"})
	require.NoError(t, err)

	assert.Equal(t, core.StatusSolved, out.Status)
	assert.Equal(t, "Start\nDONE", out.Solution)
	assert.Equal(t, []string{"Start", "DONE"}, out.Path)
	assert.Equal(t, 0.95, out.FinalScore)
	assert.Equal(t, 1, out.Depth)
	assert.Equal(t, 2, out.NodesExplored)
	assert.True(t, out.ThresholdReached)
	assert.Equal(t, "breadth", out.Strategy)

	runs, err := obs.Accounting().GetRuns(accounting.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "test", runs[0].Caller)
	assert.Equal(t, "req-1", runs[0].RequestID)
	assert.Equal(t, out.RunID, runs[0].RunID)
}

func TestLightSolveOverrides(t *testing.T) {
	s, _ := newTestSolver(t, scriptConfig())

	// nothing reaches 0.99, so breadth returns its best survivor
	out, err := s.Solve(context.Background(), SolveRequest{
		Problem:          "p",
		MaxDepth:         ptr(1),
		SuccessThreshold: ptr(0.99),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSolved, out.Status)
	assert.False(t, out.ThresholdReached)
	assert.Equal(t, "Start\nDONE", out.Solution)

	// everything is pruned
	out, err = s.Solve(context.Background(), SolveRequest{
		Problem:        "p",
		PruneThreshold: ptr(0.99),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, out.Status)
	assert.Equal(t, search.ReasonExhausted, out.Reason)
}

func TestLightSolveBadRequest(t *testing.T) {
	s, obs := newTestSolver(t, scriptConfig())

	_, err := s.Solve(context.Background(), SolveRequest{Problem: "p", Strategy: ptr("sideways")})
	assert.ErrorIs(t, err, ErrBadRequest)

	runs, err := obs.Accounting().GetRuns(accounting.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLightSolveCancelled(t *testing.T) {
	s, _ := newTestSolver(t, scriptConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := s.Solve(ctx, SolveRequest{Problem: "p"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.StatusFailed, out.Status)
	assert.Equal(t, search.ReasonCancelled, out.Reason)
	assert.Positive(t, out.Duration)
}

func TestHeavySolve(t *testing.T) {
	config := scriptConfig()
	config.WorkerType = string(WorkerTypeHeavy)
	s, obs := newTestSolver(t, config)
	assert.Equal(t, "heavy", s.Type())

	// depth wanders down the first branch before finding DONE, so the
	// breadth member wins on nodes explored
	out, err := s.Solve(context.Background(), SolveRequest{Problem: "p", Strategy: ptr("depth")})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSolved, out.Status)
	assert.Equal(t, "Start\nDONE", out.Solution)
	assert.Equal(t, "breadth", out.Strategy)
	assert.Equal(t, 2, out.NodesExplored)

	runs, err := obs.Accounting().GetRuns(accounting.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHeavySolveCancelled(t *testing.T) {
	config := scriptConfig()
	config.WorkerType = string(WorkerTypeHeavy)
	s, _ := newTestSolver(t, config)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	out, err := s.Solve(ctx, SolveRequest{Problem: "p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, core.StatusFailed, out.Status)
	assert.Equal(t, search.ReasonCancelled, out.Reason)
	assert.Positive(t, out.Duration)
}

func TestHeavySolveCancelledKeepsMemberWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	eval := core.EvaluatorFunc(func(ctx context.Context, state, problem string) (float64, error) {
		if calls.Add(1) == 1 {
			cancel()
		}
		return 0.5, nil
	})
	components := &Components{Generator: testkit.TreeGenerator{}, Evaluator: eval}
	// limit 1: the breadth member scores the root's children, the depth
	// member then starts already cancelled
	s := NewSolver(components, search.DefaultConfig(), WorkerTypeHeavy, 1, newTestObs(t))

	out, err := s.Solve(ctx, SolveRequest{Problem: "p"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.StatusFailed, out.Status)
	assert.Equal(t, search.ReasonCancelled, out.Reason)
	assert.Equal(t, 3, out.NodesExplored)
	assert.Positive(t, out.Duration)
}

func TestHeavySolveNormalizesConfiguredStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: dfs\n"), 0o600))

	config := scriptConfig()
	config.WorkerType = string(WorkerTypeHeavy)
	config.SearchConfigPath = path
	s, _ := newTestSolver(t, config)

	var mu sync.Mutex
	seen := map[string]bool{}
	_, err := s.SolveStream(context.Background(), SolveRequest{Problem: "p"}, func(p search.Progress) {
		mu.Lock()
		defer mu.Unlock()
		seen[p.Strategy] = true
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"breadth": true, "depth": true}, seen)
}
