package accounting

import (
	"time"

	"github.com/snow-ghost/thoughtsearch/core"
)

// RunRecord is the effort spent on one Solve call.
type RunRecord struct {
	ID               int64     `json:"id" db:"id"`
	Timestamp        time.Time `json:"timestamp" db:"timestamp"`
	RunID            string    `json:"run_id" db:"run_id"`
	RequestID        string    `json:"request_id" db:"request_id"`
	Caller           string    `json:"caller" db:"caller"`
	Problem          string    `json:"problem" db:"problem"`
	Strategy         string    `json:"strategy" db:"strategy"`
	Status           string    `json:"status" db:"status"`
	Reason           string    `json:"reason,omitempty" db:"reason"`
	NodesExplored    int       `json:"nodes_explored" db:"nodes_explored"`
	Depth            int       `json:"depth" db:"depth"`
	FinalScore       float64   `json:"final_score" db:"final_score"`
	ThresholdReached bool      `json:"threshold_reached" db:"threshold_reached"`
	DurationMS       float64   `json:"duration_ms" db:"duration_ms"`
}

// NewRunRecord builds a record from an outcome.
func NewRunRecord(caller, requestID, problem string, out core.Outcome) RunRecord {
	return RunRecord{
		Timestamp:        time.Now(),
		RunID:            out.RunID,
		RequestID:        requestID,
		Caller:           caller,
		Problem:          problem,
		Strategy:         out.Strategy,
		Status:           string(out.Status),
		Reason:           out.Reason,
		NodesExplored:    out.NodesExplored,
		Depth:            out.Depth,
		FinalScore:       out.FinalScore,
		ThresholdReached: out.ThresholdReached,
		DurationMS:       float64(out.Duration.Nanoseconds()) / 1e6,
	}
}

// RunSummary aggregates a set of runs.
type RunSummary struct {
	TotalRuns     int64   `json:"total_runs"`
	Solved        int64   `json:"solved"`
	Failed        int64   `json:"failed"`
	ThresholdHits int64   `json:"threshold_hits"`
	TotalNodes    int64   `json:"total_nodes"`
	AvgNodes      float64 `json:"avg_nodes"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// SolveRate returns solved / total.
func (s RunSummary) SolveRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.Solved) / float64(s.TotalRuns)
}

// RunGroup is a summary for one value of the grouping field.
type RunGroup struct {
	GroupBy    string     `json:"group_by"`
	GroupValue string     `json:"group_value"`
	Summary    RunSummary `json:"summary"`
}

// RunReport is a summary with optional grouping.
type RunReport struct {
	GroupBy string     `json:"group_by,omitempty"` // strategy, status, caller
	Summary RunSummary `json:"summary"`
	Groups  []RunGroup `json:"groups,omitempty"`
}

// RunFilter narrows run queries. Zero fields match everything.
type RunFilter struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Caller   string     `json:"caller,omitempty"`
	Strategy string     `json:"strategy,omitempty"`
	Status   string     `json:"status,omitempty"`
	GroupBy  string     `json:"group_by,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// ExportFormat represents supported export formats
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
)

// RunStore persists run records.
type RunStore interface {
	RecordRun(record RunRecord) error
	GetRuns(filter RunFilter) ([]RunRecord, error)
	GetRunSummary(filter RunFilter) (RunSummary, error)
	GetRunReport(filter RunFilter) (RunReport, error)
	Close() error
}

func validGroupBy(field string) bool {
	switch field {
	case "strategy", "status", "caller":
		return true
	}
	return false
}
