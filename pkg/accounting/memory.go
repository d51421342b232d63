package accounting

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps run records in process.
type MemoryStore struct {
	records []RunRecord
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make([]RunRecord, 0)}
}

func (m *MemoryStore) RecordRun(record RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.ID == 0 {
		record.ID = int64(len(m.records) + 1)
	}
	m.records = append(m.records, record)
	return nil
}

// GetRuns returns matching runs, newest first.
func (m *MemoryStore) GetRuns(filter RunFilter) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []RunRecord
	for _, record := range m.records {
		if matches(record, filter) {
			filtered = append(filtered, record)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Timestamp.Equal(filtered[j].Timestamp) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	if filter.Limit > 0 {
		start := filter.Offset
		end := start + filter.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		if start < len(filtered) {
			filtered = filtered[start:end]
		} else {
			filtered = []RunRecord{}
		}
	}
	return filtered, nil
}

func (m *MemoryStore) GetRunSummary(filter RunFilter) (RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var selected []RunRecord
	for _, record := range m.records {
		if matches(record, filter) {
			selected = append(selected, record)
		}
	}
	return summarize(selected), nil
}

func (m *MemoryStore) GetRunReport(filter RunFilter) (RunReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var selected []RunRecord
	for _, record := range m.records {
		if matches(record, filter) {
			selected = append(selected, record)
		}
	}

	report := RunReport{GroupBy: filter.GroupBy, Summary: summarize(selected)}
	if !validGroupBy(filter.GroupBy) {
		report.GroupBy = ""
		return report, nil
	}

	groups := make(map[string][]RunRecord)
	var order []string
	for _, record := range selected {
		key := groupValue(record, filter.GroupBy)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}
	sort.Strings(order)
	for _, key := range order {
		report.Groups = append(report.Groups, RunGroup{
			GroupBy:    filter.GroupBy,
			GroupValue: key,
			Summary:    summarize(groups[key]),
		})
	}
	return report, nil
}

func (m *MemoryStore) Close() error { return nil }

func matches(record RunRecord, filter RunFilter) bool {
	if filter.From != nil && record.Timestamp.Before(*filter.From) {
		return false
	}
	if filter.To != nil && record.Timestamp.After(*filter.To) {
		return false
	}
	if filter.Caller != "" && record.Caller != filter.Caller {
		return false
	}
	if filter.Strategy != "" && record.Strategy != filter.Strategy {
		return false
	}
	if filter.Status != "" && record.Status != filter.Status {
		return false
	}
	return true
}

func groupValue(record RunRecord, field string) string {
	switch field {
	case "strategy":
		return record.Strategy
	case "status":
		return record.Status
	case "caller":
		return record.Caller
	}
	return ""
}

func summarize(records []RunRecord) RunSummary {
	var s RunSummary
	var duration float64
	for _, r := range records {
		s.TotalRuns++
		if r.Status == "solved" {
			s.Solved++
		} else {
			s.Failed++
		}
		if r.ThresholdReached {
			s.ThresholdHits++
		}
		s.TotalNodes += int64(r.NodesExplored)
		duration += r.DurationMS
	}
	if s.TotalRuns > 0 {
		s.AvgNodes = float64(s.TotalNodes) / float64(s.TotalRuns)
		s.AvgDurationMS = duration / float64(s.TotalRuns)
	}
	return s
}
