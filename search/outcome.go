package search

import (
	"time"

	"github.com/snow-ghost/thoughtsearch/core"
)

func (r *run) solved(node *core.SearchNode, elapsed time.Duration) core.Outcome {
	return core.Outcome{
		RunID:            r.id,
		Strategy:         string(r.strategy),
		Status:           core.StatusSolved,
		Solution:         node.Chain(),
		Path:             node.FullPath(),
		FinalScore:       node.Score,
		Depth:            node.Depth,
		NodesExplored:    r.explored,
		Duration:         elapsed,
		ThresholdReached: r.reached(node),
	}
}

func (r *run) failed(reason string, elapsed time.Duration) core.Outcome {
	return core.Outcome{
		RunID:         r.id,
		Strategy:      string(r.strategy),
		Status:        core.StatusFailed,
		Reason:        reason,
		NodesExplored: r.explored,
		Duration:      elapsed,
	}
}
