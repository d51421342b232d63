package search

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Strategy selects the traversal algorithm.
type Strategy string

const (
	StrategyBreadth Strategy = "breadth"
	StrategyDepth   Strategy = "depth"
)

// ParseStrategy normalises a strategy tag. The short forms "bfs", "beam" and
// "dfs" are accepted as aliases.
func ParseStrategy(tag string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "breadth", "bfs", "beam":
		return StrategyBreadth, nil
	case "depth", "dfs":
		return StrategyDepth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, tag)
	}
}

// Config holds the search parameters of a Solver.
type Config struct {
	Strategy         Strategy `yaml:"strategy" json:"strategy"`
	MaxDepth         int      `yaml:"max_depth" json:"max_depth" validate:"gt=0"`
	BranchingFactor  int      `yaml:"branching_factor" json:"branching_factor" validate:"gt=0"`
	BeamWidth        int      `yaml:"beam_width" json:"beam_width" validate:"gt=0"`
	PruneThreshold   float64  `yaml:"prune_threshold" json:"prune_threshold" validate:"finite"`
	SuccessThreshold float64  `yaml:"success_threshold" json:"success_threshold" validate:"finite"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:         StrategyBreadth,
		MaxDepth:         5,
		BranchingFactor:  3,
		BeamWidth:        5,
		PruneThreshold:   0.3,
		SuccessThreshold: 0.9,
	}
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	if err := configValidate.RegisterValidation("finite", validateFinite); err != nil {
		panic(fmt.Sprintf("register finite validation: %v", err))
	}
}

func validateFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the numeric fields. The strategy tag is checked by Solve.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted keys keep their
// defaults. Strategy aliases are normalised and unknown strategies rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse search config: %w", err)
	}
	strategy, err := ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return Config{}, err
	}
	cfg.Strategy = strategy
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML search config from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read search config %s: %w", path, err)
	}
	return ParseConfig(data)
}
