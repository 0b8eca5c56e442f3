package index

import (
	"fmt"
	"time"
)

// RunRow is one recorded theme-analysis run.
type RunRow struct {
	ID         string
	StartDate  string
	EndDate    string
	EntryCount int
	NotePath   string
	Duration   time.Duration
	CreatedAt  time.Time
}

// InsertRun records a completed analysis run.
func (db *DB) InsertRun(r RunRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO analysis_runs (id, start_date, end_date, entry_count, note_path, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartDate, r.EndDate, r.EntryCount, r.NotePath, r.Duration.Milliseconds(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, start_date, end_date, entry_count, note_path, duration_ms, created_at
		FROM analysis_runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var ms int64
		if err := rows.Scan(&r.ID, &r.StartDate, &r.EndDate, &r.EntryCount, &r.NotePath, &ms, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
