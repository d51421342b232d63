package accounting

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow-ghost/thoughtsearch/core"
)

func solvedOutcome(strategy string, nodes int) core.Outcome {
	return core.Outcome{
		RunID:            "run-" + strategy,
		Strategy:         strategy,
		Status:           core.StatusSolved,
		Solution:         "Start\nDONE",
		FinalScore:       0.95,
		Depth:            1,
		NodesExplored:    nodes,
		Duration:         20 * time.Millisecond,
		ThresholdReached: true,
	}
}

func failedOutcome(strategy string, nodes int) core.Outcome {
	return core.Outcome{
		RunID:         "run-" + strategy,
		Strategy:      strategy,
		Status:        core.StatusFailed,
		Reason:        "max depth or no solution found",
		NodesExplored: nodes,
		Duration:      40 * time.Millisecond,
	}
}

// stores runs every test against both backends.
func stores(t *testing.T) map[string]*Manager {
	t.Helper()
	sqlite, err := NewManager(Config{UseSQLite: true, DBPath: filepath.Join(t.TempDir(), "runs.db")})
	require.NoError(t, err)
	memory, err := NewManager(Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlite.Close()
		memory.Close()
	})
	return map[string]*Manager{"memory": memory, "sqlite": sqlite}
}

func seed(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.RecordOutcome("cli", "req-1", "p1", solvedOutcome("breadth", 2)))
	require.NoError(t, m.RecordOutcome("http", "req-2", "p2", failedOutcome("breadth", 3)))
	require.NoError(t, m.RecordOutcome("http", "req-3", "p3", solvedOutcome("depth", 5)))
}

func TestManager_Summary(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, m)

			summary, err := m.GetRunSummary(RunFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(3), summary.TotalRuns)
			assert.Equal(t, int64(2), summary.Solved)
			assert.Equal(t, int64(1), summary.Failed)
			assert.Equal(t, int64(2), summary.ThresholdHits)
			assert.Equal(t, int64(10), summary.TotalNodes)
			assert.InDelta(t, 10.0/3, summary.AvgNodes, 1e-9)
			assert.InDelta(t, 80.0/3, summary.AvgDurationMS, 1e-6)
			assert.InDelta(t, 2.0/3, summary.SolveRate(), 1e-9)

			summary, err = m.GetRunSummary(RunFilter{Caller: "http"})
			require.NoError(t, err)
			assert.Equal(t, int64(2), summary.TotalRuns)
		})
	}
}

func TestManager_GetRuns(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, m)

			runs, err := m.GetRuns(RunFilter{Strategy: "breadth"})
			require.NoError(t, err)
			require.Len(t, runs, 2)
			for _, r := range runs {
				assert.Equal(t, "breadth", r.Strategy)
			}

			failed, err := m.GetRuns(RunFilter{Status: "failed"})
			require.NoError(t, err)
			require.Len(t, failed, 1)
			assert.Equal(t, "req-2", failed[0].RequestID)
			assert.Equal(t, "max depth or no solution found", failed[0].Reason)
			assert.False(t, failed[0].ThresholdReached)

			page, err := m.GetRuns(RunFilter{Limit: 1, Offset: 1})
			require.NoError(t, err)
			assert.Len(t, page, 1)

			future := time.Now().Add(time.Hour)
			none, err := m.GetRuns(RunFilter{From: &future})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestManager_Report(t *testing.T) {
	for name, m := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, m)

			report, err := m.GetRunReport(RunFilter{GroupBy: "strategy"})
			require.NoError(t, err)
			require.Len(t, report.Groups, 2)
			assert.Equal(t, "breadth", report.Groups[0].GroupValue)
			assert.Equal(t, int64(2), report.Groups[0].Summary.TotalRuns)
			assert.Equal(t, int64(1), report.Groups[0].Summary.Solved)
			assert.Equal(t, "depth", report.Groups[1].GroupValue)
			assert.Equal(t, int64(5), report.Groups[1].Summary.TotalNodes)

			// unknown fields are never interpolated into queries
			report, err = m.GetRunReport(RunFilter{GroupBy: "problem; DROP TABLE runs"})
			require.NoError(t, err)
			assert.Empty(t, report.Groups)
			assert.Equal(t, int64(3), report.Summary.TotalRuns)
		})
	}
}

func TestManager_Export(t *testing.T) {
	m, err := NewManager(Config{})
	require.NoError(t, err)
	seed(t, m)

	data, err := m.ExportRuns(RunFilter{}, ExportFormatJSON)
	require.NoError(t, err)
	var records []RunRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 3)

	data, err = m.ExportRuns(RunFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "id,timestamp,run_id"))

	_, err = m.ExportRuns(RunFilter{}, "xml")
	assert.Error(t, err)
}

func TestParseRunFilter(t *testing.T) {
	filter, err := ParseRunFilter(url.Values{
		"strategy": {"depth"},
		"limit":    {"10"},
		"from":     {"2026-01-02T03:04:05Z"},
		"group_by": {"status"},
	})
	require.NoError(t, err)
	assert.Equal(t, "depth", filter.Strategy)
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, "status", filter.GroupBy)
	require.NotNil(t, filter.From)
	assert.Equal(t, 2026, filter.From.Year())
	assert.Nil(t, filter.To)

	tests := []url.Values{
		{"limit": {"-1"}},
		{"offset": {"x"}},
		{"from": {"yesterday"}},
		{"group_by": {"problem"}},
	}
	for _, v := range tests {
		_, err := ParseRunFilter(v)
		assert.Error(t, err, "%v", v)
	}
}
