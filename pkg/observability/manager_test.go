package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/cache"
	"github.com/snow-ghost/thoughtsearch/pkg/logging"
	"github.com/snow-ghost/thoughtsearch/pkg/metrics"
	"github.com/snow-ghost/thoughtsearch/pkg/tracing"
)

func newTestManager(t *testing.T) (*Manager, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tr, err := tracing.NewTracer(tracing.Config{ServiceName: "test", Exporter: exporter})
	require.NoError(t, err)
	acct, err := accounting.NewManager(accounting.Config{})
	require.NoError(t, err)

	m := NewManagerFrom(logging.NewNop(), metrics.NewSearchMetrics(), tr, acct)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m, exporter
}

func TestManager_SolveLifecycle(t *testing.T) {
	m, exporter := newTestManager(t)

	ctx := WithRequestID(context.Background(), "req-7")
	_, finish := m.StartSolve(ctx, "http", "breadth", "problem")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().InFlight))

	finish(core.Outcome{
		RunID:            "run-1",
		Strategy:         "breadth",
		Status:           core.StatusSolved,
		NodesExplored:    2,
		Depth:            1,
		FinalScore:       0.95,
		ThresholdReached: true,
	}, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.Metrics().InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().SearchesTotal.WithLabelValues("breadth", "solved", "true")))

	runs, err := m.Accounting().GetRuns(accounting.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "req-7", runs[0].RequestID)
	assert.Equal(t, "http", runs[0].Caller)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "solve.request", spans[0].Name)
}

func TestManager_SolveError(t *testing.T) {
	m, _ := newTestManager(t)

	// cancelled searches still produce a failed outcome and are accounted
	_, finish := m.StartSolve(context.Background(), "cli", "depth", "p")
	finish(core.Outcome{Strategy: "depth", Status: core.StatusFailed, Reason: "search cancelled"}, context.Canceled)

	// configuration errors have no outcome
	_, finish = m.StartSolve(context.Background(), "cli", "sideways", "p")
	finish(core.Outcome{}, errors.New("unknown search strategy"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().SearchErrorsTotal.WithLabelValues("depth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().SearchErrorsTotal.WithLabelValues("sideways")))

	summary, err := m.Accounting().GetRunSummary(accounting.RunFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalRuns)
	assert.Equal(t, int64(1), summary.Failed)
}

func TestManager_RecordCacheStats(t *testing.T) {
	m, _ := newTestManager(t)

	m.RecordCacheStats("evaluator", cache.CacheStats{Hits: 2, Misses: 5})
	m.RecordCacheStats("evaluator", cache.CacheStats{Hits: 6, Misses: 7})
	assert.Equal(t, 6.0, testutil.ToFloat64(m.Metrics().CacheHitsTotal.WithLabelValues("evaluator")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Metrics().CacheMissesTotal.WithLabelValues("evaluator")))

	// counters restarted after a clear
	m.RecordCacheStats("evaluator", cache.CacheStats{Hits: 1, Misses: 1})
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Metrics().CacheHitsTotal.WithLabelValues("evaluator")))
}

func TestManager_BreakerObserver(t *testing.T) {
	m, _ := newTestManager(t)

	m.BreakerObserver()("evaluator", gobreaker.StateClosed, gobreaker.StateOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().BreakerTransitionsTotal.WithLabelValues("evaluator", "open")))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestIDFromContext(ctx))
	assert.Equal(t, "unknown", GetCallerFromContext(ctx))

	ctx = WithCaller(WithRequestID(ctx, "r"), "cli")
	assert.Equal(t, "r", GetRequestIDFromContext(ctx))
	assert.Equal(t, "cli", GetCallerFromContext(ctx))
}
