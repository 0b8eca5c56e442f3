// Package noteservice exposes vault notes as a coherent read/write API
// backed by the file system and the SQLite index.
package noteservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/apperr"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/checksum"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/index"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/parser"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates vault storage and the search index. Writes go to disk
// first and are indexed immediately after, so API reads never lag the file.
type Service struct {
	store storage.Provider
	db    *index.DB
}

func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetNote reads a note and enriches it with backlinks from the index.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.detail(path, data)
}

// CreateNote writes a new note. Existing paths are rejected rather than
// silently overwritten.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if ok, err := s.store.Exists(path); err != nil {
		return nil, err
	} else if ok {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.reindex(path, content); err != nil {
		return nil, err
	}
	return s.detail(path, content)
}

// UpdateNote replaces a note's content. A non-empty ifMatch checksum must
// equal the checksum of the current content or the update is rejected.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	current, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(ifMatch, current) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.reindex(path, content); err != nil {
		return nil, err
	}
	return s.detail(path, content)
}

// DeleteNote removes a note from disk and from the index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteNote(path)
}

// ListNotes returns one page of notes, optionally filtered by tag.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, NoteListItem{
			Path:      row.Path,
			Title:     row.Title,
			Checksum:  row.Checksum,
			Tags:      orEmpty(row.Tags),
			UpdatedAt: row.UpdatedAt,
		})
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns the paths of notes that link to target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// ListAnalysisRuns returns the most recent analysis runs, newest first.
func (s *Service) ListAnalysisRuns(_ context.Context, limit int) ([]index.RunRow, error) {
	return s.db.ListRuns(limit)
}

func (s *Service) reindex(path string, data []byte) error {
	doc := parser.Parse(data)
	return s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     doc.Title,
		Checksum:  checksum.Sum(data),
		Tags:      orEmpty(doc.Tags),
		UpdatedAt: time.Now(),
	}, doc.Body, doc.Links)
}

// detail assembles the full note view from content already in hand.
func (s *Service) detail(path string, data []byte) (*NoteDetail, error) {
	doc := parser.Parse(data)
	backlinks, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        path,
		Title:       doc.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        orEmpty(doc.Tags),
		Frontmatter: doc.Frontmatter,
		Backlinks:   orEmpty(backlinks),
		UpdatedAt:   time.Now(),
	}, nil
}

// orEmpty keeps JSON responses from rendering null where a list is expected.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
