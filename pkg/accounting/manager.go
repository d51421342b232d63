package accounting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/snow-ghost/thoughtsearch/core"
)

// Manager records the effort spent by search runs.
type Manager struct {
	store RunStore
}

// Config holds accounting configuration
type Config struct {
	UseSQLite bool
	DBPath    string
}

// NewManager creates a new accounting manager
func NewManager(config Config) (*Manager, error) {
	if !config.UseSQLite {
		return &Manager{store: NewMemoryStore()}, nil
	}
	store, err := NewSQLiteStore(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}
	return &Manager{store: store}, nil
}

// NewManagerWithStore wraps an existing store.
func NewManagerWithStore(store RunStore) *Manager {
	return &Manager{store: store}
}

// RecordOutcome records one finished Solve call.
func (m *Manager) RecordOutcome(caller, requestID, problem string, out core.Outcome) error {
	return m.store.RecordRun(NewRunRecord(caller, requestID, problem, out))
}

func (m *Manager) GetRuns(filter RunFilter) ([]RunRecord, error) {
	return m.store.GetRuns(filter)
}

func (m *Manager) GetRunSummary(filter RunFilter) (RunSummary, error) {
	return m.store.GetRunSummary(filter)
}

func (m *Manager) GetRunReport(filter RunFilter) (RunReport, error) {
	return m.store.GetRunReport(filter)
}

// ExportRuns renders matching runs as JSON or CSV.
func (m *Manager) ExportRuns(filter RunFilter, format ExportFormat) ([]byte, error) {
	records, err := m.store.GetRuns(filter)
	if err != nil {
		return nil, err
	}
	switch format {
	case ExportFormatJSON:
		return json.MarshalIndent(records, "", "  ")
	case ExportFormatCSV:
		return exportCSV(records)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Close closes the manager
func (m *Manager) Close() error {
	return m.store.Close()
}

func exportCSV(records []RunRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "timestamp", "run_id", "request_id", "caller", "strategy", "status",
		"reason", "nodes_explored", "depth", "final_score", "threshold_reached", "duration_ms",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format(time.RFC3339),
			r.RunID,
			r.RequestID,
			r.Caller,
			r.Strategy,
			r.Status,
			r.Reason,
			strconv.Itoa(r.NodesExplored),
			strconv.Itoa(r.Depth),
			strconv.FormatFloat(r.FinalScore, 'f', 4, 64),
			strconv.FormatBool(r.ThresholdReached),
			strconv.FormatFloat(r.DurationMS, 'f', 3, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ParseRunFilter reads a filter from URL query parameters. Times are RFC3339.
func ParseRunFilter(values url.Values) (RunFilter, error) {
	filter := RunFilter{
		Caller:   values.Get("caller"),
		Strategy: values.Get("strategy"),
		Status:   values.Get("status"),
		GroupBy:  values.Get("group_by"),
	}
	if filter.GroupBy != "" && !validGroupBy(filter.GroupBy) {
		return RunFilter{}, fmt.Errorf("invalid group_by %q", filter.GroupBy)
	}

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := values.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return RunFilter{}, fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = &t
		}
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := values.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return RunFilter{}, fmt.Errorf("invalid %s %q", key, v)
			}
			*dst = n
		}
	}
	return filter, nil
}
