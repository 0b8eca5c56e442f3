//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// Without the sqlite_fts5 build tag the index keeps no FTS table and
// search falls back to LIKE scans over the notes table.

func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search scans title, body, and tags with LIKE. Snippets are the first
// 200 body characters; there is no relevance ranking.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, title, substr(body, 1, 200)
		FROM notes
		WHERE title LIKE ? OR body LIKE ? OR tags LIKE ?
		LIMIT ?
	`, like, like, like, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return collectSearch(rows)
}
