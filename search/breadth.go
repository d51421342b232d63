package search

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/snow-ghost/thoughtsearch/core"
)

// breadth runs a level-by-level beam search. The first node to reach the
// success threshold wins, in generation order; otherwise the best node of the
// last surviving frontier is returned. A nil node means the frontier ran dry.
func (r *run) breadth(ctx context.Context, root *core.SearchNode) (*core.SearchNode, error) {
	cfg := r.solver.cfg
	frontier := []*core.SearchNode{root}

	for level := 0; level < cfg.MaxDepth; level++ {
		r.logger.Debug("expanding level", zap.Int("depth", level), zap.Int("candidates", len(frontier)))

		var next []*core.SearchNode
		for _, node := range frontier {
			if r.reached(node) {
				return node, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			winner := r.expand(ctx, node, func(child *core.SearchNode) bool {
				next = append(next, child)
				return r.reached(child)
			})
			if winner != nil {
				return winner, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		// stable: equal scores keep generation order
		slices.SortStableFunc(next, func(a, b *core.SearchNode) int {
			return cmp.Compare(b.Score, a.Score)
		})
		if len(next) > cfg.BeamWidth {
			next = next[:cfg.BeamWidth]
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	if len(frontier) == 0 {
		return nil, nil
	}
	return frontier[0], nil
}
