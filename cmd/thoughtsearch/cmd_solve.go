package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
	"github.com/snow-ghost/thoughtsearch/search"
	"github.com/snow-ghost/thoughtsearch/worker"
)

type solveFlags struct {
	searchConfig string
	strategy     string
	maxDepth     int
	branching    int
	beamWidth    int
	prune        float64
	success      float64

	generator string
	evaluator string
	script    string
	scorer    string
	demo      bool
	portfolio bool
	noCache   bool
	noGuard   bool
	progress  bool

	timeout      time.Duration
	logLevel     string
	accountingDB string
}

func newSolveCmd() *cobra.Command {
	f := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "Search for a solution to a problem",
		Long: `Runs one search and prints the outcome. Flags left unset keep the values
from --config (or the built-in defaults). Environment variables understood by
the worker (GENERATOR_MODE, SCORER_PATH, ...) apply here too.`,
		Example: `  thoughtsearch solve --demo "plan a trip"
  thoughtsearch solve --evaluator wasm --scorer scorer.wasm --strategy depth "prove it"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, f, strings.Join(args, " "))
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.searchConfig, "config", "", "YAML search config")
	fl.StringVar(&f.strategy, "strategy", "", "breadth or depth")
	fl.IntVar(&f.maxDepth, "max-depth", 0, "maximum chain depth")
	fl.IntVar(&f.branching, "branching-factor", 0, "thoughts requested per expansion")
	fl.IntVar(&f.beamWidth, "beam-width", 0, "survivors kept per level (breadth)")
	fl.Float64Var(&f.prune, "prune-threshold", 0, "discard chains scoring below this")
	fl.Float64Var(&f.success, "success-threshold", 0, "stop at the first chain scoring at least this")

	fl.StringVar(&f.generator, "generator", "", "thought generator: mock or script")
	fl.StringVar(&f.evaluator, "evaluator", "", "state evaluator: mock, keywords or wasm")
	fl.StringVar(&f.script, "script", "", "YAML script for the script generator and keyword evaluator")
	fl.StringVar(&f.scorer, "scorer", "", "WebAssembly scorer module for the wasm evaluator")
	fl.BoolVar(&f.demo, "demo", false, "use the built-in demo script")
	fl.BoolVar(&f.portfolio, "portfolio", false, "race breadth and depth and keep the better outcome")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable capability caching")
	fl.BoolVar(&f.noGuard, "no-guard", false, "disable rate limiting, retries and circuit breaking")
	fl.BoolVar(&f.progress, "progress", false, "print one line per expansion to stderr")

	fl.DurationVar(&f.timeout, "timeout", 0, "abandon the search after this long")
	fl.StringVar(&f.logLevel, "log-level", "warn", "debug, info, warn or error")
	fl.StringVar(&f.accountingDB, "accounting-db", "", "record the run in this SQLite database")
	return cmd
}

func (f *solveFlags) config() *worker.Config {
	config := worker.LoadConfig()
	if f.searchConfig != "" {
		config.SearchConfigPath = f.searchConfig
	}
	if f.generator != "" {
		config.GeneratorMode = f.generator
	}
	if f.evaluator != "" {
		config.EvaluatorMode = f.evaluator
	}
	if f.script != "" {
		config.ScriptPath = f.script
	}
	if f.scorer != "" {
		config.ScorerPath = f.scorer
	}
	if f.demo {
		config.GeneratorMode = "script"
		config.EvaluatorMode = "keywords"
		config.ScriptPath = ""
	}
	if f.portfolio {
		config.WorkerType = string(worker.WorkerTypeHeavy)
	}
	if f.noCache {
		config.CacheEnabled = false
	}
	if f.noGuard {
		config.GuardEnabled = false
	}
	if f.accountingDB != "" {
		config.AccountingDB = f.accountingDB
	}
	config.LogLevel = f.logLevel
	return config
}

func (f *solveFlags) request(cmd *cobra.Command, problem string) worker.SolveRequest {
	req := worker.SolveRequest{Problem: problem, Caller: "cli"}
	changed := cmd.Flags().Changed
	if changed("strategy") {
		req.Strategy = &f.strategy
	}
	if changed("max-depth") {
		req.MaxDepth = &f.maxDepth
	}
	if changed("branching-factor") {
		req.BranchingFactor = &f.branching
	}
	if changed("beam-width") {
		req.BeamWidth = &f.beamWidth
	}
	if changed("prune-threshold") {
		req.PruneThreshold = &f.prune
	}
	if changed("success-threshold") {
		req.SuccessThreshold = &f.success
	}
	return req
}

func runSolve(cmd *cobra.Command, f *solveFlags, problem string) error {
	config := f.config()

	obs, err := observability.NewManager(observability.Config{
		ServiceName: "thoughtsearch",
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
		LogFormat:   "console",
		Accounting: accounting.Config{
			UseSQLite: config.AccountingDB != "",
			DBPath:    config.AccountingDB,
		},
	})
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	w, err := worker.NewWorker(ctx, config, obs)
	if err != nil {
		return err
	}
	defer w.Components().Close(context.Background())

	var progress search.ProgressFunc
	if f.progress {
		stderr := cmd.ErrOrStderr()
		progress = func(p search.Progress) {
			fmt.Fprintf(stderr, "%-7s depth=%d thoughts=%d survivors=%d best=%.3f explored=%d\n",
				p.Strategy, p.Depth, p.Thoughts, p.Survivors, p.BestScore, p.NodesExplored)
		}
	}

	out, err := w.SolveStream(ctx, f.request(cmd, problem), progress)
	if out.Status == "" {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		return encErr
	}
	if err != nil {
		return fmt.Errorf("search did not finish: %w", err)
	}
	return nil
}
