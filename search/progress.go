package search

import "math"

// Progress describes one finished node expansion.
type Progress struct {
	RunID         string  `json:"run_id"`
	Strategy      string  `json:"strategy"`
	Depth         int     `json:"depth"` // depth of the expanded node
	Thoughts      int     `json:"thoughts"`
	Survivors     int     `json:"survivors"`
	NodesExplored int     `json:"nodes_explored"`
	BestScore     float64 `json:"best_score"` // 0 when nothing survived
}

// ProgressFunc receives Progress on the goroutine running Solve. It must not
// block for long; the search waits for it.
type ProgressFunc func(Progress)

// WithProgress registers fn to be called after every expansion.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Solver) { s.progress = fn }
}

func (r *run) report(depth, thoughts, survivors int, best float64) {
	if r.solver.progress == nil {
		return
	}
	if math.IsInf(best, -1) {
		best = 0
	}
	r.solver.progress(Progress{
		RunID:         r.id,
		Strategy:      string(r.strategy),
		Depth:         depth,
		Thoughts:      thoughts,
		Survivors:     survivors,
		NodesExplored: r.explored,
		BestScore:     best,
	})
}
