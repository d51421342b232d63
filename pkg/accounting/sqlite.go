package accounting

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists run records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		run_id TEXT NOT NULL,
		request_id TEXT,
		caller TEXT NOT NULL,
		problem TEXT NOT NULL,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		nodes_explored INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		final_score REAL NOT NULL,
		threshold_reached BOOLEAN NOT NULL,
		duration_ms REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_runs_caller ON runs(caller);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) RecordRun(record RunRecord) error {
	query := `
	INSERT INTO runs (
		timestamp, run_id, request_id, caller, problem, strategy, status, reason,
		nodes_explored, depth, final_score, threshold_reached, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		record.Timestamp,
		record.RunID,
		record.RequestID,
		record.Caller,
		record.Problem,
		record.Strategy,
		record.Status,
		record.Reason,
		record.NodesExplored,
		record.Depth,
		record.FinalScore,
		record.ThresholdReached,
		record.DurationMS,
	)
	return err
}

// GetRuns returns matching runs, newest first.
func (s *SQLiteStore) GetRuns(filter RunFilter) ([]RunRecord, error) {
	where, args := s.buildWhereClause(filter)
	query := `
	SELECT id, timestamp, run_id, request_id, caller, problem, strategy, status, reason,
		nodes_explored, depth, final_score, threshold_reached, duration_ms
	FROM runs ` + where + ` ORDER BY timestamp DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var record RunRecord
		var requestID, reason sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.Timestamp,
			&record.RunID,
			&requestID,
			&record.Caller,
			&record.Problem,
			&record.Strategy,
			&record.Status,
			&reason,
			&record.NodesExplored,
			&record.Depth,
			&record.FinalScore,
			&record.ThresholdReached,
			&record.DurationMS,
		)
		if err != nil {
			return nil, err
		}
		record.RequestID = requestID.String
		record.Reason = reason.String
		records = append(records, record)
	}
	return records, rows.Err()
}

const summaryColumns = `
	COUNT(*),
	COALESCE(SUM(CASE WHEN status = 'solved' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'solved' THEN 0 ELSE 1 END), 0),
	COALESCE(SUM(CASE WHEN threshold_reached THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(nodes_explored), 0),
	COALESCE(AVG(nodes_explored), 0),
	COALESCE(AVG(duration_ms), 0)`

func (s *SQLiteStore) GetRunSummary(filter RunFilter) (RunSummary, error) {
	where, args := s.buildWhereClause(filter)
	var summary RunSummary
	err := s.db.QueryRow("SELECT "+summaryColumns+" FROM runs "+where, args...).Scan(
		&summary.TotalRuns,
		&summary.Solved,
		&summary.Failed,
		&summary.ThresholdHits,
		&summary.TotalNodes,
		&summary.AvgNodes,
		&summary.AvgDurationMS,
	)
	if err != nil {
		return RunSummary{}, err
	}
	return summary, nil
}

func (s *SQLiteStore) GetRunReport(filter RunFilter) (RunReport, error) {
	summary, err := s.GetRunSummary(filter)
	if err != nil {
		return RunReport{}, err
	}
	report := RunReport{GroupBy: filter.GroupBy, Summary: summary}
	if !validGroupBy(filter.GroupBy) {
		report.GroupBy = ""
		return report, nil
	}

	groups, err := s.getGroupedRuns(filter)
	if err != nil {
		return RunReport{}, err
	}
	report.Groups = groups
	return report, nil
}

func (s *SQLiteStore) buildWhereClause(filter RunFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.To)
	}
	if filter.Caller != "" {
		conditions = append(conditions, "caller = ?")
		args = append(args, filter.Caller)
	}
	if filter.Strategy != "" {
		conditions = append(conditions, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// getGroupedRuns groups by a column already checked by validGroupBy.
func (s *SQLiteStore) getGroupedRuns(filter RunFilter) ([]RunGroup, error) {
	where, args := s.buildWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM runs %s
		GROUP BY %s
		ORDER BY %s
	`, filter.GroupBy, summaryColumns, where, filter.GroupBy, filter.GroupBy)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []RunGroup
	for rows.Next() {
		group := RunGroup{GroupBy: filter.GroupBy}
		err := rows.Scan(
			&group.GroupValue,
			&group.Summary.TotalRuns,
			&group.Summary.Solved,
			&group.Summary.Failed,
			&group.Summary.ThresholdHits,
			&group.Summary.TotalNodes,
			&group.Summary.AvgNodes,
			&group.Summary.AvgDurationMS,
		)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
