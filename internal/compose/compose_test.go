package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/parser"
)

var testNow = time.Date(2025, 10, 31, 14, 30, 0, 0, time.UTC)

func TestAnalysisNote(t *testing.T) {
	path, content := AnalysisNote(AnalysisNoteInput{
		MetaFolder: "journal/meta",
		Start:      "2025-10-01",
		End:        "2025-10-31",
		Body:       "## Recurring Themes\n\ngardening",
		EntryCount: 12,
		Now:        testNow,
	})

	if path != "journal/meta/analysis-2025-10-01-to-2025-10-31.md" {
		t.Errorf("path = %q", path)
	}

	for _, want := range []string{
		"date: 2025-10-31\n",
		"type: journal-analysis\n",
		"tags: [meta, analysis, journal]\n",
		"start_date: 2025-10-01\n",
		"end_date: 2025-10-31\n",
		"## Recurring Themes",
		"*Generated by Journal Analyzer Plugin*",
		"*Entries analyzed: 12*",
		"*Generated: ",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q", want)
		}
	}

	// Frontmatter must parse back cleanly.
	doc := parser.Parse([]byte(content))
	if doc.Frontmatter["type"] != "journal-analysis" {
		t.Errorf("frontmatter type = %v", doc.Frontmatter["type"])
	}
	if doc.Frontmatter["start_date"] != "2025-10-01" {
		t.Errorf("frontmatter start_date = %v", doc.Frontmatter["start_date"])
	}
}

func TestAnalysisNotePath_Deterministic(t *testing.T) {
	a := AnalysisNotePath("journal/meta", "2025-10-01", "2025-10-31")
	b := AnalysisNotePath("journal/meta", "2025-10-01", "2025-10-31")
	if a != b {
		t.Error("same range must map to the same path")
	}
}

func TestJournalEntry(t *testing.T) {
	content := JournalEntry(testNow, "planted tomatoes\n")

	for _, want := range []string{
		"date: 2025-10-31\n",
		"type: journal\n",
		"tags: [journal]\n",
		"# Journal Entry: 2025-10-31",
		"planted tomatoes",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q", want)
		}
	}

	doc := parser.Parse([]byte(content))
	if doc.Frontmatter["type"] != "journal" {
		t.Errorf("frontmatter type = %v", doc.Frontmatter["type"])
	}
	if doc.Title != "Journal Entry: 2025-10-31" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestAppendJournalEntry(t *testing.T) {
	first := JournalEntry(testNow, "morning thoughts")
	later := time.Date(2025, 10, 31, 21, 5, 0, 0, time.UTC)

	appended := AppendJournalEntry(first, later, "evening thoughts")

	if !strings.Contains(appended, "morning thoughts") {
		t.Error("existing content must be preserved")
	}
	if !strings.Contains(appended, "## 21:05\n\nevening thoughts") {
		t.Errorf("missing time subheading, got:\n%s", appended)
	}
	if strings.Count(appended, "# Journal Entry:") != 1 {
		t.Error("append must not duplicate the day heading")
	}
}
