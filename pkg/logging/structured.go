package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/snow-ghost/thoughtsearch/core"
)

// Logger pairs a slog logger for service code with a zap logger handed to
// the search engine and its decorators.
type Logger struct {
	slog *slog.Logger
	zap  *zap.Logger
}

// Config holds logging configuration
type Config struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // "json" or "console"
	Output    string `yaml:"output"` // "stdout" or "stderr"
	AddCaller bool   `yaml:"add_caller"`
	AddStack  bool   `yaml:"add_stack"`
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: "stderr"}
}

// NewLogger creates a new structured logger
func NewLogger(config Config) (*Logger, error) {
	if config.Format == "" {
		config.Format = "json"
	}
	if config.Output == "" {
		config.Output = "stderr"
	}

	var w io.Writer = os.Stderr
	if config.Output == "stdout" {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseSlogLevel(config.Level), AddSource: config.AddCaller}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if config.Format == "console" {
		handler = slog.NewTextHandler(w, opts)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = parseZapLevel(config.Level)
	zapConfig.Encoding = config.Format
	if config.Format == "console" {
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zapConfig.OutputPaths = []string{config.Output}
	zapConfig.ErrorOutputPaths = []string{config.Output}
	zapConfig.DisableCaller = !config.AddCaller
	zapConfig.DisableStacktrace = !config.AddStack

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		slog: slog.New(handler),
		zap:  zapLogger,
	}, nil
}

// New wraps existing loggers; nil arguments are replaced with discarding ones.
func New(s *slog.Logger, z *zap.Logger) *Logger {
	if s == nil {
		s = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{slog: s, zap: z}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger { return New(nil, nil) }

func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseZapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		slog: l.slog.With("request_id", requestID),
		zap:  l.zap.With(zap.String("request_id", requestID)),
	}
}

// WithTraceID adds a trace ID; an empty ID returns l unchanged.
func (l *Logger) WithTraceID(traceID string) *Logger {
	if traceID == "" {
		return l
	}
	return &Logger{
		slog: l.slog.With("trace_id", traceID),
		zap:  l.zap.With(zap.String("trace_id", traceID)),
	}
}

// WithFields adds fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	slogAttrs := make([]any, 0, len(fields)*2)
	zapFields := make([]zap.Field, 0, len(fields))

	for key, value := range fields {
		slogAttrs = append(slogAttrs, key, value)
		zapFields = append(zapFields, zap.Any(key, value))
	}

	return &Logger{
		slog: l.slog.With(slogAttrs...),
		zap:  l.zap.With(zapFields...),
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...interface{}) { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{}) { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.slog.Error(msg, args...) }

// LogRequest logs an HTTP request
func (l *Logger) LogRequest(method, path string, statusCode int, duration time.Duration, requestID string) {
	l.slog.Info("HTTP request completed",
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", float64(duration.Nanoseconds())/1e6,
		"request_id", requestID,
	)
}

// LogSolve logs a finished search.
func (l *Logger) LogSolve(problem string, out core.Outcome, err error) {
	args := []any{
		"run_id", out.RunID,
		"strategy", out.Strategy,
		"status", string(out.Status),
		"nodes_explored", out.NodesExplored,
		"duration_ms", float64(out.Duration.Nanoseconds()) / 1e6,
		"problem_len", len(problem),
	}
	switch {
	case err != nil:
		l.slog.Warn("search aborted", append(args, "reason", out.Reason, "error", err)...)
	case out.Solved():
		l.slog.Info("search solved", append(args,
			"depth", out.Depth,
			"final_score", out.FinalScore,
			"threshold_reached", out.ThresholdReached,
		)...)
	default:
		l.slog.Info("search failed", append(args, "reason", out.Reason)...)
	}
}

// LogCacheStats logs cache effectiveness for one capability.
func (l *Logger) LogCacheStats(capability string, hits, misses int64, hitRate float64) {
	l.slog.Debug("capability cache",
		"capability", capability,
		"hits", hits,
		"misses", misses,
		"hit_rate", hitRate,
	)
}

// LogCircuitBreaker logs a breaker transition.
func (l *Logger) LogCircuitBreaker(capability, from, to string) {
	l.slog.Warn("Circuit breaker state changed",
		"capability", capability,
		"from", from,
		"to", to,
	)
}

// Sync flushes buffered zap output.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Slog returns the slog logger
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Zap returns the zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}
