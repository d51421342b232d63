package wasm

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const (
	// MemoryLimitPages caps scorer memory (64 pages = 4MB).
	MemoryLimitPages = 64
	// DefaultTimeout bounds one evaluate call.
	DefaultTimeout = 5 * time.Second

	exportEvaluate = "evaluate"
)

// Runtime hosts sandboxed scorer modules. Compiled modules are cached by name.
type Runtime struct {
	runtime wazero.Runtime

	mu    sync.Mutex
	cache map[string]wazero.CompiledModule
}

// NewRuntime creates a wazero runtime with memory and cancellation limits.
func NewRuntime(ctx context.Context) *Runtime {
	config := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(MemoryLimitPages).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, config)

	// TinyGo and Rust scorers built for wasip1 import it
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	return &Runtime{
		runtime: runtime,
		cache:   make(map[string]wazero.CompiledModule),
	}
}

// Compile compiles module under name, or returns the cached module.
func (r *Runtime) Compile(ctx context.Context, name string, module []byte) (wazero.CompiledModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if compiled, exists := r.cache[name]; exists {
		return compiled, nil
	}

	compiled, err := r.runtime.CompileModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scorer %s: %w", name, err)
	}
	if _, ok := compiled.ExportedFunctions()[exportEvaluate]; !ok {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("scorer %s does not export %q", name, exportEvaluate)
	}
	r.cache[name] = compiled
	return compiled, nil
}

// Score runs the compiled module's evaluate export on input in a fresh instance.
func (r *Runtime) Score(ctx context.Context, compiled wazero.CompiledModule, input string) (float64, error) {
	// anonymous, so concurrent calls may instantiate the same module
	instance, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return 0, fmt.Errorf("failed to instantiate scorer: %w", err)
	}
	defer instance.Close(context.Background())

	ptr, size, err := writeInput(instance, input)
	if err != nil {
		return 0, err
	}

	results, err := instance.ExportedFunction(exportEvaluate).Call(ctx, uint64(ptr), uint64(size))
	if err != nil {
		return 0, fmt.Errorf("failed to call %s: %w", exportEvaluate, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("%s should return one f64, got %d results", exportEvaluate, len(results))
	}
	return api.DecodeF64(results[0]), nil
}

// writeInput places input at offset 0 of the module's memory.
func writeInput(instance api.Module, input string) (uint32, uint32, error) {
	mem := instance.Memory()
	if mem == nil {
		return 0, 0, fmt.Errorf("scorer has no memory")
	}

	data := []byte(input)
	size := uint32(len(data))
	if uint64(size) > uint64(mem.Size()) {
		return 0, 0, fmt.Errorf("not enough memory: need %d bytes, have %d", size, mem.Size())
	}
	if !mem.Write(0, data) {
		return 0, 0, fmt.Errorf("failed to write to memory")
	}
	return 0, size, nil
}

// Close closes the runtime and every compiled module.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Evaluator scores reasoning paths with one scorer module. The module
// receives the full path text and returns an f64 score.
type Evaluator struct {
	runtime *Runtime
	name    string
	module  []byte
	timeout time.Duration
}

// NewEvaluator binds module to the runtime under name. timeout <= 0 selects
// DefaultTimeout. The module is compiled eagerly so bad modules fail here.
func NewEvaluator(ctx context.Context, runtime *Runtime, name string, module []byte, timeout time.Duration) (*Evaluator, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, err := runtime.Compile(ctx, name, module); err != nil {
		return nil, err
	}
	return &Evaluator{runtime: runtime, name: name, module: module, timeout: timeout}, nil
}

// LoadEvaluator reads a scorer module from path; the file's base name is the cache key.
func LoadEvaluator(ctx context.Context, runtime *Runtime, path string, timeout time.Duration) (*Evaluator, error) {
	module, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scorer %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewEvaluator(ctx, runtime, name, module, timeout)
}

// Name returns the scorer's cache key.
func (e *Evaluator) Name() string { return e.name }

func (e *Evaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	compiled, err := e.runtime.Compile(execCtx, e.name, e.module)
	if err != nil {
		return 0, err
	}
	score, err := e.runtime.Score(execCtx, compiled, state)
	if err != nil {
		return 0, fmt.Errorf("scorer %s: %w", e.name, err)
	}
	if math.IsInf(score, 0) {
		return 0, fmt.Errorf("scorer %s returned %v", e.name, score)
	}
	return score, nil
}
