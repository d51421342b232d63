package search

import (
	"context"

	"github.com/snow-ghost/thoughtsearch/core"
)

// depth runs a depth-first search over an explicit stack, remembering the best
// node seen. Children are pushed in reverse so the first generated thought is
// visited first. A nil node means nothing ever beat the root.
func (r *run) depth(ctx context.Context, root *core.SearchNode) (*core.SearchNode, error) {
	cfg := r.solver.cfg
	stack := []*core.SearchNode{root}
	best := root

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.Depth > cfg.MaxDepth {
			continue
		}
		if node.Score > best.Score {
			best = node
		}
		if r.reached(node) {
			return node, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var children []*core.SearchNode
		r.expand(ctx, node, func(child *core.SearchNode) bool {
			children = append(children, child)
			return false
		})
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	if best.IsRoot() {
		return nil, nil
	}
	return best, nil
}
