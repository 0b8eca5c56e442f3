// Package index provides SQLite-backed note indexing with optional FTS5
// full-text search, plus the audit log of theme-analysis runs.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions tunes SQLite for a single-process server: WAL so readers
// never block the writer, and a busy timeout instead of SQLITE_BUSY.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		path       TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		checksum   TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '[]',
		body       TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS links (
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		type   TEXT NOT NULL DEFAULT 'inline',
		UNIQUE(source, target)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_source ON links(source)`,
	`CREATE INDEX IF NOT EXISTS idx_links_target ON links(target)`,

	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id          TEXT PRIMARY KEY,
		start_date  TEXT NOT NULL,
		end_date    TEXT NOT NULL,
		entry_count INTEGER NOT NULL DEFAULT 0,
		note_path   TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs(created_at)`,
}

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func initSchema(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("index: ping: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("index: apply schema: %w", err)
		}
	}
	if err := initFTS(conn); err != nil {
		return fmt.Errorf("index: apply fts schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
