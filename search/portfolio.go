package search

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/snow-ghost/thoughtsearch/core"
)

// Portfolio runs several independent Solvers on the same problem in parallel,
// each over its own tree, and merges their outcomes.
type Portfolio struct {
	solvers []*Solver
	limit   int
}

// NewPortfolio builds a portfolio running at most limit solvers at once
// (limit <= 0 means no bound). Members must be distinct Solvers unless their
// capabilities are safe for concurrent use.
func NewPortfolio(limit int, solvers ...*Solver) *Portfolio {
	return &Portfolio{solvers: solvers, limit: limit}
}

// Solve runs every member and returns the preferred outcome together with all
// individual outcomes in member order. The first member error cancels the rest
// and is returned; the outcomes then hold whatever each member reported, such
// as partial cancelled outcomes.
func (p *Portfolio) Solve(ctx context.Context, problem string) (core.Outcome, []core.Outcome, error) {
	if len(p.solvers) == 0 {
		return core.Outcome{}, nil, errors.New("portfolio has no solvers")
	}

	outcomes := make([]core.Outcome, len(p.solvers))
	g, gctx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}
	for i, s := range p.solvers {
		i, s := i, s
		g.Go(func() error {
			out, err := s.Solve(gctx, problem)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return core.Outcome{}, outcomes, err
	}
	return Best(outcomes...), outcomes, nil
}

// Best picks the preferred outcome: solved over failed, threshold-reaching over
// not, then higher score, then fewer nodes explored. Earlier outcomes win ties.
func Best(outcomes ...core.Outcome) core.Outcome {
	var best core.Outcome
	for i, o := range outcomes {
		if i == 0 || better(o, best) {
			best = o
		}
	}
	return best
}

func better(a, b core.Outcome) bool {
	if a.Solved() != b.Solved() {
		return a.Solved()
	}
	if a.ThresholdReached != b.ThresholdReached {
		return a.ThresholdReached
	}
	if a.Solved() && a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}
	return a.NodesExplored < b.NodesExplored
}
