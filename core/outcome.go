package core

import (
	"encoding/json"
	"time"
)

// Status is the terminal state of a search.
type Status string

const (
	StatusSolved Status = "solved"
	StatusFailed Status = "failed"
)

// Outcome is the result of one Solve call.
type Outcome struct {
	RunID         string
	Strategy      string
	Status        Status
	Solution      string   // full chain, PathSeparator-joined
	Path          []string // full chain as steps
	FinalScore    float64
	Depth         int
	NodesExplored int
	Duration      time.Duration
	Reason        string

	// ThresholdReached is true when the returned node scored at or above the
	// success threshold. A breadth search that runs out of depth still reports
	// its best surviving node as solved, with ThresholdReached=false.
	ThresholdReached bool
}

// Solved reports whether the outcome carries a solution.
func (o Outcome) Solved() bool { return o.Status == StatusSolved }

// outcomeRecord is the serialized shape shared with reporting collaborators.
type outcomeRecord struct {
	RunID            string   `json:"run_id,omitempty"`
	Strategy         string   `json:"strategy,omitempty"`
	Status           Status   `json:"status"`
	Solution         *string  `json:"solution,omitempty"`
	Path             []string `json:"path,omitempty"`
	Reason           *string  `json:"reason,omitempty"`
	FinalScore       *float64 `json:"final_score,omitempty"`
	Depth            *int     `json:"depth,omitempty"`
	ThresholdReached bool     `json:"threshold_reached"`
	NodesExplored    int      `json:"nodes_explored"`
	Duration         float64  `json:"duration"` // seconds
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	rec := outcomeRecord{
		RunID:            o.RunID,
		Strategy:         o.Strategy,
		Status:           o.Status,
		ThresholdReached: o.ThresholdReached,
		NodesExplored:    o.NodesExplored,
		Duration:         o.Duration.Seconds(),
	}
	if o.Solved() {
		solution, score, depth := o.Solution, o.FinalScore, o.Depth
		rec.Solution = &solution
		rec.Path = o.Path
		rec.FinalScore = &score
		rec.Depth = &depth
	} else {
		reason := o.Reason
		rec.Reason = &reason
	}
	return json.Marshal(rec)
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var rec outcomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*o = Outcome{
		RunID:            rec.RunID,
		Strategy:         rec.Strategy,
		Status:           rec.Status,
		Path:             rec.Path,
		ThresholdReached: rec.ThresholdReached,
		NodesExplored:    rec.NodesExplored,
		Duration:         time.Duration(rec.Duration * float64(time.Second)),
	}
	if rec.Solution != nil {
		o.Solution = *rec.Solution
	}
	if rec.Reason != nil {
		o.Reason = *rec.Reason
	}
	if rec.FinalScore != nil {
		o.FinalScore = *rec.FinalScore
	}
	if rec.Depth != nil {
		o.Depth = *rec.Depth
	}
	return nil
}
