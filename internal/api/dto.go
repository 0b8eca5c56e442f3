package api

import (
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/connections"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"journal/2025-10-03.md" validate:"required"`
	Content string `json:"content" example:"# Monday\nSlow start." validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Monday\nBetter afternoon." validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"journal/2025-10-03.md" validate:"required"`
	Title   string `json:"title" example:"Monday" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphNode is a node in the knowledge graph.
type GraphNode struct {
	ID    string `json:"id" example:"journal/2025-10-03.md" validate:"required"`
	Title string `json:"title,omitempty" example:"Monday"`
}

// GraphLink is an edge in the knowledge graph.
type GraphLink struct {
	Source string `json:"source" example:"journal/2025-10-03.md" validate:"required"`
	Target string `json:"target" example:"notes/garden.md" validate:"required"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// BacklinksResponse wraps a backlink lookup.
type BacklinksResponse struct {
	Target    string   `json:"target" example:"notes/garden.md" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

// AnalysisRunRequest is the request body for starting an analysis run.
// An empty body analyzes the configured trailing window ending today.
type AnalysisRunRequest struct {
	StartDate string `json:"start_date" example:"2025-10-01"`
	EndDate   string `json:"end_date" example:"2025-10-07"`
}

// AnalysisRunResponse summarizes one analysis run. Skipped means the range
// held no journal entries and no note was written.
type AnalysisRunResponse struct {
	StartDate  string `json:"start_date" example:"2025-10-01" validate:"required"`
	EndDate    string `json:"end_date" example:"2025-10-07" validate:"required"`
	NotePath   string `json:"note_path" example:"journal/meta/analysis-2025-10-01-to-2025-10-07.md"`
	EntryCount int    `json:"entry_count" example:"7"`
	Skipped    bool   `json:"skipped" example:"false"`
}

// RunHistoryItem is one recorded analysis run.
type RunHistoryItem struct {
	ID         string    `json:"id" example:"2f5c2b9e-8f7a-4c1d-9e2a-77b1f3d4a0c1"`
	StartDate  string    `json:"start_date" example:"2025-10-01"`
	EndDate    string    `json:"end_date" example:"2025-10-07"`
	EntryCount int       `json:"entry_count" example:"7"`
	NotePath   string    `json:"note_path" example:"journal/meta/analysis-2025-10-01-to-2025-10-07.md"`
	DurationMS int64     `json:"duration_ms" example:"5400"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunHistoryResponse wraps the analysis run audit log.
type RunHistoryResponse struct {
	Runs []RunHistoryItem `json:"runs" validate:"required"`
}

// SuggestConnectionsRequest names the note to find connections for.
type SuggestConnectionsRequest struct {
	Path string `json:"path" example:"journal/2025-10-03.md" validate:"required"`
}

// SuggestConnectionsResponse wraps suggested connections.
type SuggestConnectionsResponse struct {
	Connections []connections.Connection `json:"connections" validate:"required"`
}

// ApplyConnectionsRequest carries connections to apply as wikilinks.
type ApplyConnectionsRequest struct {
	Connections []connections.Connection `json:"connections" validate:"required"`
}

// ApplyOutcome reports one connection's application result.
type ApplyOutcome struct {
	Connection connections.Connection `json:"connection"`
	Error      string                 `json:"error,omitempty" example:"source text not found in note"`
}

// ApplyConnectionsResponse aggregates a batch application.
type ApplyConnectionsResponse struct {
	Applied int            `json:"applied" example:"2"`
	Failed  int            `json:"failed" example:"1"`
	Results []ApplyOutcome `json:"results" validate:"required"`
}
