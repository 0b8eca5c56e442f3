// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the journal analyzer tools for LLM integration via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/analyzer"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/checksum"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/connections"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/index"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/parser"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// Server wraps the MCP server with journal and vault tools.
type Server struct {
	mcp      *server.MCPServer
	store    storage.Provider
	db       *index.DB
	analyzer *analyzer.Service
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, db *index.DB, an *analyzer.Service) *Server {
	s := &Server{store: store, db: db, analyzer: an}

	s.mcp = server.NewMCPServer(
		"Journal Analyzer",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_journal",
		mcp.WithDescription("Run theme analysis over journal entries in a date range and save "+
			"the result as an analysis note in the meta folder. Dates are YYYY-MM-DD; omit both "+
			"to analyze the configured trailing window ending today."),
		mcp.WithString("start_date", mcp.Description("Range start, inclusive (YYYY-MM-DD)")),
		mcp.WithString("end_date", mcp.Description("Range end, inclusive (YYYY-MM-DD)")),
	), s.analyzeJournal)

	s.mcp.AddTool(mcp.NewTool("suggest_connections",
		mcp.WithDescription("Suggest connections from one note to the rest of the vault. "+
			"Returns a JSON array of candidate wikilinks with confidence scores."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the source note")),
	), s.suggestConnections)

	s.mcp.AddTool(mcp.NewTool("apply_connection",
		mcp.WithDescription("Turn one suggested connection into a wikilink: the first occurrence "+
			"of source_text inside the source note becomes [[target|source_text]]."),
		mcp.WithString("source_file", mcp.Required(), mcp.Description("Note to modify")),
		mcp.WithString("target_file", mcp.Required(), mcp.Description("Note the link points at")),
		mcp.WithString("source_text", mcp.Required(), mcp.Description("Verbatim text in the source note to wrap")),
		mcp.WithString("reason", mcp.Description("Optional reason recorded in logs")),
	), s.applyConnection)

	s.mcp.AddTool(mcp.NewTool("append_journal_entry",
		mcp.WithDescription("Append text to today's journal note, creating it on first use. "+
			"Later entries on the same day append under a time subheading."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Entry text (Markdown)")),
	), s.appendJournalEntry)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. journal/2025-10-03.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note at the specified path. "+
			"Content MUST follow the canonical note format (YAML frontmatter with title, "+
			"optional tags, Markdown body with [[wikilinks]]). Read the contract first via "+
			"the get_note_contract tool or the journal://note-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("journal://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) analyzeJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := ""
	if v, err := req.RequireString("start_date"); err == nil {
		start = v
	}
	end := ""
	if v, err := req.RequireString("end_date"); err == nil {
		end = v
	}
	if (start == "") != (end == "") {
		return mcp.NewToolResultError("start_date and end_date must be provided together"), nil
	}
	if start == "" {
		start, end = s.analyzer.DefaultRange(time.Now())
	}

	res, err := s.analyzer.AnalyzeRange(ctx, start, end)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Skipped {
		return mcp.NewToolResultText(fmt.Sprintf("No journal entries found between %s and %s", res.Start, res.End)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Analysis saved to %s (%d entries)", res.NotePath, res.EntryCount)), nil
}

func (s *Server) suggestConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conns, err := s.analyzer.SuggestConnections(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(conns) == 0 {
		return mcp.NewToolResultText("no connections suggested"), nil
	}
	out, _ := json.MarshalIndent(conns, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceFile, err := req.RequireString("source_file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targetFile, err := req.RequireString("target_file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sourceText, err := req.RequireString("source_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reason := ""
	if v, rErr := req.RequireString("reason"); rErr == nil {
		reason = v
	}

	report, err := s.analyzer.ApplyConnections(ctx, []connections.Connection{{
		SourceFile: sourceFile,
		TargetFile: targetFile,
		SourceText: sourceText,
		Reason:     reason,
	}})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if report.Failed > 0 {
		return mcp.NewToolResultError(report.Results[0].Err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked: %s -> %s", sourceFile, targetFile)), nil
}

func (s *Server) appendJournalEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.analyzer.AppendEntry(ctx, text, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended: %s", path)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Check existence.
	if _, readErr := s.store.Read(path); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", path)), nil
	}

	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Index the new note.
	doc := parser.Parse(data)
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	_ = s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     doc.Title,
		Checksum:  checksum.Sum(data),
		Tags:      tags,
		UpdatedAt: time.Now(),
	}, doc.Body, doc.Links)

	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "journal://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}
