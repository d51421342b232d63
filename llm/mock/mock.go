package mock

import (
	"context"
	"strings"
	"sync/atomic"
)

// MockLLM is a canned completion backend for running the search without a model.
type MockLLM struct {
	calls atomic.Int64
}

func NewMockLLM() *MockLLM { return &MockLLM{} }

// Generate answers rating prompts with "0.8", step prompts with three steps and
// anything else with a generic thought.
func (m *MockLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.calls.Add(1)

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "evaluate"):
		return "0.8", nil
	case strings.Contains(lower, "generate"):
		return "Step 1\nStep 2\nStep 3", nil
	default:
		return "Generic thought", nil
	}
}

// Calls returns how many prompts were answered.
func (m *MockLLM) Calls() int { return int(m.calls.Load()) }
