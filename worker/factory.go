package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/interp/wasm"
	"github.com/snow-ghost/thoughtsearch/llm"
	llmmock "github.com/snow-ghost/thoughtsearch/llm/mock"
	"github.com/snow-ghost/thoughtsearch/pkg/cache"
	"github.com/snow-ghost/thoughtsearch/pkg/limiter"
)

const (
	capabilityGenerator = "generator"
	capabilityEvaluator = "evaluator"
)

// Components are the capabilities a worker searches with, fully decorated.
type Components struct {
	Generator core.ThoughtGenerator
	Evaluator core.StateEvaluator
	Caps      Capabilities

	caches     map[string]interface{ Stats() cache.CacheStats }
	protection *limiter.ProtectionManager
	closers    []func(context.Context) error
}

// BuildComponents creates the generator and evaluator selected by config.
// Each is wrapped in protection (when enabled) and then in a cache, so cache
// hits never consume rate-limit tokens. onBreaker may be nil.
func BuildComponents(ctx context.Context, config *Config, logger *zap.Logger, onBreaker limiter.StateChangeFunc) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Components{
		Caps: Capabilities{
			Generator: config.GeneratorMode,
			Evaluator: config.EvaluatorMode,
			Cache:     config.CacheEnabled,
			Guard:     config.GuardEnabled,
		},
		caches: make(map[string]interface{ Stats() cache.CacheStats }),
	}

	var script *Script
	needScript := config.GeneratorMode == "script" || config.EvaluatorMode == "keywords"
	if needScript {
		if config.ScriptPath == "" {
			script = DemoScript()
		} else {
			s, err := LoadScript(config.ScriptPath)
			if err != nil {
				return nil, err
			}
			script = s
		}
	}

	adapter := llmmock.NewMockLLM()

	var gen core.ThoughtGenerator
	switch config.GeneratorMode {
	case "mock":
		gen = llm.NewGenerator(adapter, logger)
	case "script":
		gen = script.Generator()
	default:
		return nil, fmt.Errorf("unknown generator mode %q", config.GeneratorMode)
	}

	var eval core.StateEvaluator
	switch config.EvaluatorMode {
	case "mock":
		eval = llm.NewEvaluator(adapter, logger)
	case "keywords":
		eval = script.Evaluator()
	case "wasm":
		if config.ScorerPath == "" {
			return nil, errors.New("wasm evaluator requires a scorer path")
		}
		rt := wasm.NewRuntime(ctx)
		scorer, err := wasm.LoadEvaluator(ctx, rt, config.ScorerPath, config.CallTimeout)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
		c.closers = append(c.closers, rt.Close)
		eval = scorer
	default:
		return nil, fmt.Errorf("unknown evaluator mode %q", config.EvaluatorMode)
	}

	if config.GuardEnabled {
		pc := limiter.DefaultProtectionConfig()
		pc.RateLimit = limiter.RateLimitConfig{RPS: config.RateLimitRPS, Burst: config.RateLimitBurst}
		pc.Timeout = config.CallTimeout
		pc.Retry.MaxRetries = config.CallRetries
		c.protection = limiter.NewProtectionManager(pc, logger, onBreaker)
		gen = limiter.NewGuardedGenerator(gen, c.protection, capabilityGenerator)
		eval = limiter.NewGuardedEvaluator(eval, c.protection, capabilityEvaluator)
	}

	if config.CacheEnabled {
		cc := &cache.CacheConfig{MaxSize: config.CacheSize, TTL: config.CacheTTL}
		cachedGen := cache.NewCachingGenerator(gen, cc)
		cachedEval := cache.NewCachingEvaluator(eval, cc)
		c.caches[capabilityGenerator] = cachedGen
		c.caches[capabilityEvaluator] = cachedEval
		gen, eval = cachedGen, cachedEval
	}

	c.Generator, c.Evaluator = gen, eval
	return c, nil
}

// CacheStats returns cumulative cache stats keyed by capability name.
func (c *Components) CacheStats() map[string]cache.CacheStats {
	out := make(map[string]cache.CacheStats, len(c.caches))
	for name, s := range c.caches {
		out[name] = s.Stats()
	}
	return out
}

// ProtectionStats returns breaker and limiter state, or nil when unguarded.
func (c *Components) ProtectionStats() []limiter.Stats {
	if c.protection == nil {
		return nil
	}
	return []limiter.Stats{
		c.protection.Stats(capabilityEvaluator),
		c.protection.Stats(capabilityGenerator),
	}
}

// Close releases runtimes held by the components.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
