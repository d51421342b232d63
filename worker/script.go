package worker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/testkit"
)

// Script is a YAML description of rule-based capabilities. Thoughts are keyed
// by the state being expanded; the root is expanded with the empty key.
//
//	thoughts:
//	  "": [work, DONE]
//	rules:
//	  - contains: DONE
//	    score: 0.95
//	default_score: 0.5
type Script struct {
	Thoughts        map[string][]string `yaml:"thoughts"`
	DefaultThoughts []string            `yaml:"default_thoughts"`
	Rules           []ScriptRule        `yaml:"rules"`
	DefaultScore    *float64            `yaml:"default_score"`
}

type ScriptRule struct {
	Contains string  `yaml:"contains"`
	Score    float64 `yaml:"score"`
}

// ParseScript decodes a script document.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, r := range s.Rules {
		if r.Contains == "" {
			return nil, fmt.Errorf("script rule %d has no contains pattern", i)
		}
	}
	return &s, nil
}

// LoadScript reads a script from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return ParseScript(data)
}

// DemoScript reaches "DONE" one step below the root.
func DemoScript() *Script {
	score := core.NeutralScore
	return &Script{
		Thoughts: map[string][]string{
			"": {"Break the problem into parts", "DONE"},
		},
		DefaultThoughts: []string{"Refine the previous step"},
		Rules:           []ScriptRule{{Contains: "DONE", Score: 0.95}},
		DefaultScore:    &score,
	}
}

func (s *Script) Generator() *testkit.ScriptedGenerator {
	g := testkit.NewScriptedGenerator(s.Thoughts)
	g.Default = s.DefaultThoughts
	return g
}

func (s *Script) Evaluator() testkit.KeywordEvaluator {
	e := testkit.KeywordEvaluator{Default: core.NeutralScore}
	if s.DefaultScore != nil {
		e.Default = *s.DefaultScore
	}
	for _, r := range s.Rules {
		e.Rules = append(e.Rules, testkit.Rule{Substring: r.Contains, Score: r.Score})
	}
	return e
}
