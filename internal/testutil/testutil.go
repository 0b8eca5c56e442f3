// Package testutil provides shared helpers for tests that need a real
// vault directory or SQLite index.
package testutil

import (
	"os"
	"testing"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/index"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// TestDB opens a throwaway SQLite index, removed when the test ends.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	f, err := os.CreateTemp("", "journal-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temp vault directory and a Provider rooted there.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
