// Package llm provides thought generators and state evaluators that work by
// prompting a text completion backend.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/snow-ghost/thoughtsearch/core"
)

const (
	GenerateTemperature = 0.7
	EvaluateTemperature = 0.1
)

// Generator asks the backend for n next steps and reads one thought per line.
type Generator struct {
	llm    core.LLMAdapter
	logger *zap.Logger
}

func NewGenerator(llm core.LLMAdapter, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{llm: llm, logger: logger}
}

func (g *Generator) GenerateThoughts(ctx context.Context, state, problem string, n int) ([]string, error) {
	response, err := g.llm.Generate(ctx, GeneratePrompt(state, problem, n), GenerateTemperature)
	if err != nil {
		return nil, fmt.Errorf("thought generation failed: %w", err)
	}
	thoughts := SplitThoughts(response)
	if len(thoughts) > n {
		thoughts = thoughts[:n]
	}
	g.logger.Debug("thoughts generated", zap.Int("requested", n), zap.Int("returned", len(thoughts)))
	return thoughts, nil
}

// GeneratePrompt renders the next-step request.
func GeneratePrompt(state, problem string, n int) string {
	return fmt.Sprintf(`You are an intelligent problem solver.

Problem: %s

Current State:
%s

Generate %d distinct, valid next steps (thoughts) to move closer to the solution.
Provide each thought on a new line.`, problem, state, n)
}

// SplitThoughts returns the trimmed, non-empty lines of a response.
func SplitThoughts(response string) []string {
	var thoughts []string
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			thoughts = append(thoughts, line)
		}
	}
	return thoughts
}

// Evaluator asks the backend to rate a reasoning state. It never returns an
// error: a failed call or an unreadable answer yields core.NeutralScore.
type Evaluator struct {
	llm    core.LLMAdapter
	logger *zap.Logger
}

func NewEvaluator(llm core.LLMAdapter, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{llm: llm, logger: logger}
}

func (e *Evaluator) Evaluate(ctx context.Context, state, problem string) (float64, error) {
	response, err := e.llm.Generate(ctx, EvaluatePrompt(state, problem), EvaluateTemperature)
	if err != nil {
		e.logger.Warn("evaluation call failed, using neutral score", zap.Error(err))
		return core.NeutralScore, nil
	}
	score, ok := ParseScore(response)
	if !ok {
		e.logger.Warn("no score in evaluation response, using neutral score",
			zap.String("response", response))
		return core.NeutralScore, nil
	}
	return score, nil
}

// EvaluatePrompt renders the rating request.
func EvaluatePrompt(state, problem string) string {
	return fmt.Sprintf(`Evaluate the following reasoning step towards solving the problem.

Problem: %s

Current Reasoning State:
%s

Assess whether this step is:
- Impossible/Wrong (0.1)
- Unlikely to work (0.3)
- Plausible (0.5)
- Promising (0.7)
- Correct/Solved (1.0)

Return ONLY the numeric score (0.0 to 1.0).`, problem, state)
}

var scorePattern = regexp.MustCompile(`0\.\d+|1\.0|1`)

// ParseScore extracts the first score-looking number from a response.
func ParseScore(response string) (float64, bool) {
	match := scorePattern.FindString(response)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
