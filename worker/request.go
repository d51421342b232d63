package worker

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/snow-ghost/thoughtsearch/search"
)

// SolveRequest is the body of POST /solve. Unset fields keep the worker's
// configured values.
type SolveRequest struct {
	Problem          string   `json:"problem" validate:"required"`
	Caller           string   `json:"caller,omitempty"`
	Strategy         *string  `json:"strategy,omitempty"`
	MaxDepth         *int     `json:"max_depth,omitempty" validate:"omitempty,gt=0,lte=64"`
	BranchingFactor  *int     `json:"branching_factor,omitempty" validate:"omitempty,gt=0,lte=64"`
	BeamWidth        *int     `json:"beam_width,omitempty" validate:"omitempty,gt=0,lte=1024"`
	PruneThreshold   *float64 `json:"prune_threshold,omitempty"`
	SuccessThreshold *float64 `json:"success_threshold,omitempty"`
}

// ErrBadRequest marks request validation failures.
var ErrBadRequest = errors.New("bad request")

var requestValidate = validator.New()

// Apply validates the request and overlays it on base.
func (r SolveRequest) Apply(base search.Config) (search.Config, error) {
	if err := requestValidate.Struct(r); err != nil {
		return search.Config{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	cfg := base
	tag := string(base.Strategy)
	if r.Strategy != nil {
		tag = *r.Strategy
	}
	strategy, err := search.ParseStrategy(tag)
	if err != nil {
		return search.Config{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	cfg.Strategy = strategy
	if r.MaxDepth != nil {
		cfg.MaxDepth = *r.MaxDepth
	}
	if r.BranchingFactor != nil {
		cfg.BranchingFactor = *r.BranchingFactor
	}
	if r.BeamWidth != nil {
		cfg.BeamWidth = *r.BeamWidth
	}
	if r.PruneThreshold != nil {
		cfg.PruneThreshold = *r.PruneThreshold
	}
	if r.SuccessThreshold != nil {
		cfg.SuccessThreshold = *r.SuccessThreshold
	}

	if err := cfg.Validate(); err != nil {
		return search.Config{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return cfg, nil
}
