package prompt

import (
	"fmt"
	"strings"
	"testing"
)

func TestThemeAnalysis_Sections(t *testing.T) {
	p := ThemeAnalysis("2025-10-01", "2025-10-31", "## Entry: 2025-10-01.md\n\nbody\n\n")

	for _, section := range []string{
		"## Recurring Themes",
		"## Pattern Recognition",
		"## Key Insights",
		"## Suggested Connections",
		"## Questions to Consider",
	} {
		if !strings.Contains(p, section) {
			t.Errorf("prompt missing section %q", section)
		}
	}
	if !strings.Contains(p, "2025-10-01") || !strings.Contains(p, "2025-10-31") {
		t.Error("prompt missing date range")
	}
	if !strings.Contains(p, "## Entry: 2025-10-01.md") {
		t.Error("prompt missing aggregated content")
	}
}

func TestThemeAnalysis_VerbatimContent(t *testing.T) {
	// Note text is embedded without escaping.
	body := `entries with "quotes" and {braces} and [brackets]`
	p := ThemeAnalysis("2025-01-01", "2025-01-02", body)
	if !strings.Contains(p, body) {
		t.Error("aggregated text must be embedded verbatim")
	}
}

func TestConnectionSuggestions_Basics(t *testing.T) {
	p := ConnectionSuggestions(ConnectionRequest{
		NotePath: "journal/2025-10-03.md",
		NoteBody: "today I planted tomatoes",
		Candidates: []Candidate{
			{Path: "journal/2025-09-15.md", Body: "bought seeds"},
		},
		MinConfidence: 70,
		Types:         []string{"thematic", "temporal", "entity"},
	})

	if !strings.Contains(p, "journal/2025-10-03.md") {
		t.Error("missing current note path")
	}
	if !strings.Contains(p, "today I planted tomatoes") {
		t.Error("missing current note body")
	}
	if !strings.Contains(p, "### journal/2025-09-15.md") {
		t.Error("missing candidate header")
	}
	if !strings.Contains(p, "at least 70") {
		t.Error("missing confidence threshold")
	}
	if !strings.Contains(p, "thematic, temporal, entity") {
		t.Error("missing type labels")
	}
	if !strings.Contains(p, `"connectionType":"thematic"`) {
		t.Error("missing example object")
	}
	if !strings.Contains(p, "one JSON array") {
		t.Error("missing output-format instruction")
	}
}

func TestConnectionSuggestions_TruncatesPreviews(t *testing.T) {
	long := strings.Repeat("x", PreviewChars+100)
	p := ConnectionSuggestions(ConnectionRequest{
		NotePath:   "a.md",
		NoteBody:   "body",
		Candidates: []Candidate{{Path: "b.md", Body: long}},
	})
	if strings.Contains(p, long) {
		t.Error("candidate body should have been truncated")
	}
	if !strings.Contains(p, strings.Repeat("x", PreviewChars)+"...") {
		t.Error("truncated preview should end with ellipsis marker")
	}
}

func TestConnectionSuggestions_ShortPreviewNotMarked(t *testing.T) {
	p := ConnectionSuggestions(ConnectionRequest{
		NotePath:   "a.md",
		NoteBody:   "body",
		Candidates: []Candidate{{Path: "b.md", Body: "short"}},
	})
	if strings.Contains(p, "short...") {
		t.Error("short bodies get no ellipsis marker")
	}
}

func TestConnectionSuggestions_LoweredPreviewLimit(t *testing.T) {
	p := ConnectionSuggestions(ConnectionRequest{
		NotePath:     "a.md",
		NoteBody:     "body",
		Candidates:   []Candidate{{Path: "b.md", Body: strings.Repeat("y", 100)}},
		PreviewChars: 10,
	})
	if !strings.Contains(p, strings.Repeat("y", 10)+"...") {
		t.Error("lowered preview limit not honored")
	}
	if strings.Contains(p, strings.Repeat("y", 11)) {
		t.Error("preview exceeds lowered limit")
	}
}

func TestConnectionSuggestions_PreviewLimitCannotRaise(t *testing.T) {
	long := strings.Repeat("z", PreviewChars+50)
	p := ConnectionSuggestions(ConnectionRequest{
		NotePath:     "a.md",
		NoteBody:     "body",
		Candidates:   []Candidate{{Path: "b.md", Body: long}},
		PreviewChars: PreviewChars + 1000,
	})
	if strings.Contains(p, long) {
		t.Error("request must not raise the built-in preview limit")
	}
}

func TestConnectionSuggestions_CapsCandidates(t *testing.T) {
	var cands []Candidate
	for i := 0; i < MaxCandidates+10; i++ {
		cands = append(cands, Candidate{Path: fmt.Sprintf("n%03d.md", i), Body: "b"})
	}
	p := ConnectionSuggestions(ConnectionRequest{NotePath: "a.md", Candidates: cands})

	if n := strings.Count(p, "### n"); n != MaxCandidates {
		t.Errorf("embedded %d candidates, want %d", n, MaxCandidates)
	}
	if strings.Contains(p, fmt.Sprintf("n%03d.md", MaxCandidates)) {
		t.Error("candidates beyond the cap must be dropped")
	}
}
