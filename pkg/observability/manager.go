package observability

import (
	"context"
	"errors"
	"sync"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/cache"
	"github.com/snow-ghost/thoughtsearch/pkg/limiter"
	"github.com/snow-ghost/thoughtsearch/pkg/logging"
	"github.com/snow-ghost/thoughtsearch/pkg/metrics"
	"github.com/snow-ghost/thoughtsearch/pkg/tracing"
)

// Manager manages all observability components
type Manager struct {
	metrics    *metrics.SearchMetrics
	tracer     *tracing.Tracer
	logger     *logging.Logger
	accounting *accounting.Manager

	mu        sync.Mutex
	lastCache map[string]cache.CacheStats
}

// Config holds observability configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	JaegerEndpoint string
	LogLevel       string
	LogFormat      string
	Accounting     accounting.Config
}

// NewManager creates a new observability manager
func NewManager(config Config) (*Manager, error) {
	tracer, err := tracing.NewTracer(tracing.Config{
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
		JaegerEndpoint: config.JaegerEndpoint,
		Environment:    config.Environment,
	})
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:     config.LogLevel,
		Format:    config.LogFormat,
		Output:    "stderr",
		AddCaller: true,
	})
	if err != nil {
		return nil, err
	}

	acct, err := accounting.NewManager(config.Accounting)
	if err != nil {
		return nil, err
	}

	return NewManagerFrom(logger, metrics.NewSearchMetrics(), tracer, acct), nil
}

// NewManagerFrom assembles a manager from existing components.
func NewManagerFrom(logger *logging.Logger, m *metrics.SearchMetrics, tracer *tracing.Tracer, acct *accounting.Manager) *Manager {
	return &Manager{
		metrics:    m,
		tracer:     tracer,
		logger:     logger,
		accounting: acct,
		lastCache:  make(map[string]cache.CacheStats),
	}
}

func (m *Manager) Metrics() *metrics.SearchMetrics { return m.metrics }
func (m *Manager) Tracer() *tracing.Tracer { return m.tracer }
func (m *Manager) Logger() *logging.Logger { return m.logger }
func (m *Manager) Accounting() *accounting.Manager { return m.accounting }

// StartSolve opens the request span and marks a search in flight. The
// returned function must be called exactly once with the search result.
func (m *Manager) StartSolve(ctx context.Context, caller, strategy, problem string) (context.Context, func(core.Outcome, error)) {
	requestID := GetRequestIDFromContext(ctx)
	ctx, span := m.tracer.StartRequestSpan(ctx, requestID, caller, strategy)
	done := m.metrics.TrackInFlight()

	return ctx, func(out core.Outcome, err error) {
		defer done()
		defer span.End()
		m.finishSolve(span, caller, requestID, problem, strategy, out, err)
	}
}

func (m *Manager) finishSolve(span trace.Span, caller, requestID, problem, strategy string, out core.Outcome, err error) {
	log := m.logger.WithRequestID(requestID).WithTraceID(span.SpanContext().TraceID().String())
	log.LogSolve(problem, out, err)

	// configuration errors never produced an outcome
	if err != nil && out.Status == "" {
		m.metrics.RecordError(strategy)
		tracing.RecordSpanError(span, err)
		return
	}

	tracing.RecordOutcome(span, out)
	m.metrics.RecordOutcome(out)
	if err != nil {
		m.metrics.RecordError(out.Strategy)
		tracing.RecordSpanError(span, err)
	} else {
		tracing.RecordSpanSuccess(span)
	}

	if m.accounting != nil {
		if aerr := m.accounting.RecordOutcome(caller, requestID, problem, out); aerr != nil {
			log.Warn("failed to record run", "error", aerr)
		}
	}
}

// RecordCacheStats converts cumulative cache stats into counter deltas.
func (m *Manager) RecordCacheStats(capability string, stats cache.CacheStats) {
	m.mu.Lock()
	prev := m.lastCache[capability]
	m.lastCache[capability] = stats
	m.mu.Unlock()

	hits, misses := stats.Hits-prev.Hits, stats.Misses-prev.Misses
	// a cleared cache restarts its counters
	if hits < 0 || misses < 0 {
		hits, misses = stats.Hits, stats.Misses
	}
	m.metrics.RecordCacheDelta(capability, hits, misses)
	m.logger.LogCacheStats(capability, stats.Hits, stats.Misses, stats.HitRate())
}

// BreakerObserver returns a limiter.StateChangeFunc feeding metrics and logs.
func (m *Manager) BreakerObserver() limiter.StateChangeFunc {
	return func(name string, from, to gobreaker.State) {
		m.metrics.RecordBreakerTransition(name, to.String())
		m.logger.LogCircuitBreaker(name, from.String(), to.String())
	}
}

// Shutdown shuts down all observability components
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if err := m.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if m.accounting != nil {
		if err := m.accounting.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	// syncing stderr fails on some platforms; ignored as zap documents
	_ = m.logger.Sync()
	return errors.Join(errs...)
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	callerKey    contextKey = "caller"
)

// GetRequestIDFromContext extracts request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithCaller adds caller to context
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCallerFromContext extracts caller from context
func GetCallerFromContext(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey).(string); ok {
		return caller
	}
	return "unknown"
}
