package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/analyzer"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/testutil"
)

// stubInvoker is a deterministic llm.Invoker for tool tests.
type stubInvoker struct {
	out string
	err error
}

func (s *stubInvoker) Complete(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}

func testServer(t *testing.T) (*Server, storage.Provider, *stubInvoker) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	invoker := &stubInvoker{}
	an := analyzer.New(store, invoker, nil, nil, analyzer.Config{
		JournalFolder:   "journal",
		MetaFolder:      "journal/meta",
		DaysToAnalyze:   7,
		MinConfidence:   70,
		ConnectionTypes: []string{"thematic", "temporal", "entity"},
		MaxCandidates:   10,
		PreviewChars:    500,
	}, logger)

	srv := New(store, db, an)
	return srv, store, invoker
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "analyze_journal":
		result, err = srv.analyzeJournal(ctx, req)
	case "suggest_connections":
		result, err = srv.suggestConnections(ctx, req)
	case "apply_connection":
		result, err = srv.applyConnection(ctx, req)
	case "append_journal_entry":
		result, err = srv.appendJournalEntry(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	text := resultText(r)
	if text != "created: test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{
		"path": "test.md",
	})
	text = resultText(r)
	if text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestListNotes(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("journal/2025-10-01.md", []byte("a"))
	_ = store.Write("journal/2025-10-02.md", []byte("b"))

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if text == "" {
		t.Error("list returned empty")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "find.md",
		"content": "uniquetoken appears here",
	})

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "uniquetoken"})
	if r.IsError {
		t.Fatalf("search errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "find.md") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "a.md",
		"content": "links to [[b]]",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b"})
	text := resultText(r)
	if text != "a.md" {
		t.Errorf("backlinks = %q, want a.md", text)
	}
}

func TestAnalyzeJournal(t *testing.T) {
	srv, store, invoker := testServer(t)
	_ = store.Write("journal/2025-10-02.md", []byte("Planted the first bed."))
	invoker.out = "## Recurring Themes\n- gardening"

	r := callTool(t, srv, "analyze_journal", map[string]interface{}{
		"start_date": "2025-10-01",
		"end_date":   "2025-10-07",
	})
	if r.IsError {
		t.Fatalf("analyze_journal errored: %s", resultText(r))
	}
	text := resultText(r)
	want := "Analysis saved to journal/meta/analysis-2025-10-01-to-2025-10-07.md (1 entries)"
	if text != want {
		t.Errorf("result = %q, want %q", text, want)
	}

	data, err := store.Read("journal/meta/analysis-2025-10-01-to-2025-10-07.md")
	if err != nil {
		t.Fatalf("analysis note not written: %v", err)
	}
	if !strings.Contains(string(data), "## Recurring Themes") {
		t.Error("analysis note missing tool output")
	}
}

func TestAnalyzeJournal_EmptyRange(t *testing.T) {
	srv, store, _ := testServer(t)
	if err := store.EnsureDir("journal"); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "analyze_journal", map[string]interface{}{
		"start_date": "2025-10-01",
		"end_date":   "2025-10-07",
	})
	if r.IsError {
		t.Fatalf("empty range should not be a tool error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "No journal entries found") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestAnalyzeJournal_HalfRangeRejected(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "analyze_journal", map[string]interface{}{
		"start_date": "2025-10-01",
	})
	if !r.IsError {
		t.Error("expected error when only start_date is given")
	}
}

func TestSuggestConnectionsTool(t *testing.T) {
	srv, store, invoker := testServer(t)
	_ = store.Write("journal/2025-10-03.md", []byte("worked on the garden project"))
	_ = store.Write("notes/garden.md", []byte("# Garden"))
	invoker.out = `[{"sourceFile":"journal/2025-10-03.md","targetFile":"notes/garden.md",` +
		`"sourceText":"garden project","targetText":"Garden","reason":"same project",` +
		`"confidence":85,"connectionType":"thematic"}]`

	r := callTool(t, srv, "suggest_connections", map[string]interface{}{
		"path": "journal/2025-10-03.md",
	})
	if r.IsError {
		t.Fatalf("suggest_connections errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"targetFile": "notes/garden.md"`) {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestSuggestConnectionsTool_NoneFound(t *testing.T) {
	srv, store, invoker := testServer(t)
	_ = store.Write("solo.md", []byte("nothing relates to this"))
	invoker.out = "I found no connections worth suggesting."

	r := callTool(t, srv, "suggest_connections", map[string]interface{}{"path": "solo.md"})
	if r.IsError {
		t.Fatalf("no-suggestions should not be a tool error: %s", resultText(r))
	}
	if resultText(r) != "no connections suggested" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestApplyConnectionTool(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("journal/2025-10-03.md", []byte("worked on the garden project today"))

	r := callTool(t, srv, "apply_connection", map[string]interface{}{
		"source_file": "journal/2025-10-03.md",
		"target_file": "notes/garden.md",
		"source_text": "garden project",
	})
	if r.IsError {
		t.Fatalf("apply_connection errored: %s", resultText(r))
	}
	if resultText(r) != "linked: journal/2025-10-03.md -> notes/garden.md" {
		t.Errorf("result = %q", resultText(r))
	}

	data, _ := store.Read("journal/2025-10-03.md")
	if !strings.Contains(string(data), "[[notes/garden|garden project]]") {
		t.Errorf("wikilink not applied: %s", data)
	}
}

func TestApplyConnectionTool_TextMissing(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("journal/2025-10-03.md", []byte("a quiet day"))

	r := callTool(t, srv, "apply_connection", map[string]interface{}{
		"source_file": "journal/2025-10-03.md",
		"target_file": "notes/garden.md",
		"source_text": "garden project",
	})
	if !r.IsError {
		t.Error("expected error when source text is absent")
	}
}

func TestAppendJournalEntryTool(t *testing.T) {
	srv, store, _ := testServer(t)

	r := callTool(t, srv, "append_journal_entry", map[string]interface{}{
		"text": "Morning pages before coffee.",
	})
	if r.IsError {
		t.Fatalf("append errored: %s", resultText(r))
	}
	today := time.Now().Format("2006-01-02")
	wantPath := "journal/" + today + ".md"
	if resultText(r) != "appended: "+wantPath {
		t.Errorf("result = %q", resultText(r))
	}

	// Second append lands in the same file under a time subheading.
	r = callTool(t, srv, "append_journal_entry", map[string]interface{}{
		"text": "Evening recap.",
	})
	if r.IsError {
		t.Fatalf("second append errored: %s", resultText(r))
	}

	data, err := store.Read(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "Morning pages before coffee.") || !strings.Contains(content, "Evening recap.") {
		t.Errorf("entries missing: %s", content)
	}
	if !strings.Contains(content, "\n## ") {
		t.Error("second entry should append a time subheading")
	}
}
