package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "journal-index-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM analysis_runs`).Scan(&count); err != nil {
		t.Fatalf("analysis_runs table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "journal/2025-10-01.md",
		Title:     "Journal Entry: 2025-10-01",
		Checksum:  "abc123",
		Tags:      []string{"journal"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "Walked the dog.", []string{"other.md"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("journal/2025-10-01.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{
		Path:      "journal/2025-10-01.md",
		Title:     "Entry",
		Checksum:  "1",
		Tags:      []string{"journal", "meta"},
		UpdatedAt: time.Now(),
	}, "body", nil)

	n, err := db.GetNote("journal/2025-10-01.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n == nil || n.Title != "Entry" || len(n.Tags) != 2 {
		t.Errorf("note = %+v", n)
	}

	missing, err := db.GetNote("nope.md")
	if err != nil {
		t.Fatalf("GetNote missing: %v", err)
	}
	if missing != nil {
		t.Errorf("want nil for unknown path, got %+v", missing)
	}
}

func TestListNotes(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []string{"a.md", "b.md", "c.md"} {
		tags := []string{"note"}
		if p == "b.md" {
			tags = append(tags, "journal")
		}
		_ = db.UpsertNote(NoteRow{
			Path:      p,
			Title:     p,
			Checksum:  p,
			Tags:      tags,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}, "body", nil)
	}

	rows, total, err := db.ListNotes(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("total = %d, rows = %d", total, len(rows))
	}
	if rows[0].Path != "c.md" {
		t.Errorf("default sort must be newest first, got %q", rows[0].Path)
	}

	rows, total, err = db.ListNotes(10, 0, "journal", "")
	if err != nil {
		t.Fatalf("ListNotes tag filter: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "b.md" {
		t.Errorf("tag filter rows = %+v (total %d)", rows, total)
	}

	rows, _, err = db.ListNotes(2, 1, "", "path")
	if err != nil {
		t.Fatalf("ListNotes paging: %v", err)
	}
	if len(rows) != 2 || rows[0].Path != "b.md" {
		t.Errorf("paging rows = %+v", rows)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
}

func TestBacklinks_WikilinkTargetsWithoutExtension(t *testing.T) {
	// Wikilink targets usually omit .md; lookups by full note path must
	// still find them.
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"journal/2025-10-01"})

	bl, err := db.Backlinks("journal/2025-10-01.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 1 || bl[0] != "a.md" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "A", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b"})
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "B", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, "body", nil)

	nodes, links, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %+v", nodes)
	}
	if len(links) != 1 || links[0].Source != "a.md" || links[0].Target != "b" {
		t.Errorf("links = %+v", links)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "ca", Tags: []string{}, UpdatedAt: time.Now()}, "", nil)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "cb", Tags: []string{}, UpdatedAt: time.Now()}, "", nil)

	cs, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(cs) != 2 || cs["a.md"] != "ca" || cs["b.md"] != "cb" {
		t.Errorf("checksums = %v", cs)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"target.md"})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "Old", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "old body", []string{"x.md"})
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body", []string{"y.md"})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "s.md", Title: "Search Me", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestRunLog(t *testing.T) {
	db := testDB(t)

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns empty: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %+v", runs)
	}

	base := time.Date(2025, 10, 31, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		err := db.InsertRun(RunRow{
			ID:         id,
			StartDate:  "2025-10-01",
			EndDate:    "2025-10-31",
			EntryCount: i + 1,
			NotePath:   "journal/meta/analysis-2025-10-01-to-2025-10-31.md",
			Duration:   1500 * time.Millisecond,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertRun: %v", err)
		}
	}

	runs, err = db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want limit respected", len(runs))
	}
	if runs[0].ID != "run-3" {
		t.Errorf("newest first, got %q", runs[0].ID)
	}
	if runs[0].Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", runs[0].Duration)
	}
	if runs[0].EntryCount != 3 {
		t.Errorf("entry count = %d", runs[0].EntryCount)
	}
}

func TestInsertRun_DuplicateID(t *testing.T) {
	db := testDB(t)
	rec := RunRow{ID: "dup", StartDate: "a", EndDate: "b", NotePath: "p", CreatedAt: time.Now()}
	if err := db.InsertRun(rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := db.InsertRun(rec); err == nil {
		t.Error("duplicate run id must be rejected")
	}
}
