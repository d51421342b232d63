package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/logging"
	"github.com/snow-ghost/thoughtsearch/pkg/metrics"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
	"github.com/snow-ghost/thoughtsearch/pkg/tracing"
)

func newTestObs(t *testing.T) *observability.Manager {
	t.Helper()
	tr, err := tracing.NewTracer(tracing.Config{Exporter: tracetest.NewInMemoryExporter()})
	require.NoError(t, err)
	acct, err := accounting.NewManager(accounting.Config{})
	require.NoError(t, err)
	obs := observability.NewManagerFrom(logging.NewNop(), metrics.NewSearchMetrics(), tr, acct)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })
	return obs
}

// scriptConfig runs the demo script without protection.
func scriptConfig() *Config {
	return &Config{
		WorkerType:     string(WorkerTypeLight),
		GeneratorMode:  "script",
		EvaluatorMode:  "keywords",
		CacheEnabled:   true,
		CacheSize:      128,
		PortfolioLimit: 2,
	}
}

func newTestSolver(t *testing.T, config *Config) (*Solver, *observability.Manager) {
	t.Helper()
	obs := newTestObs(t)
	s, err := NewWorker(context.Background(), config, obs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Components().Close(context.Background()) })
	return s, obs
}
