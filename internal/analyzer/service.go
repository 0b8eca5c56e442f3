// Package analyzer orchestrates the journal analysis pipelines: theme
// analysis over a date range, connection suggestions for a single note, and
// journal entry capture.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/apperr"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/compose"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/connections"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/journal"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/llm"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/parser"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/prompt"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// Config carries the journal layout and connection-suggestion settings. The
// caller threads a value in; the service never reads ambient state.
type Config struct {
	JournalFolder   string
	MetaFolder      string
	DaysToAnalyze   int
	MinConfidence   int
	ConnectionTypes []string
	MaxCandidates   int
	PreviewChars    int
}

// ProgressFunc receives human-readable progress messages during a run.
// A nil ProgressFunc disables progress reporting.
type ProgressFunc func(message string)

// RunRecord captures one completed theme-analysis run for the audit log.
type RunRecord struct {
	ID         string
	Start      string
	End        string
	EntryCount int
	NotePath   string
	Duration   time.Duration
	CreatedAt  time.Time
}

// RunRecorder persists completed runs. Implementations must tolerate being
// called once per successful AnalyzeRange.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}

// Result summarizes one theme-analysis run. Skipped is set when the range
// selected no journal files, which is a normal outcome, not a failure.
type Result struct {
	Start      string
	End        string
	NotePath   string
	EntryCount int
	Skipped    bool
}

// ApplyResult is the outcome of applying a single connection.
type ApplyResult struct {
	Connection connections.Connection
	Err        error
}

// ApplyReport aggregates a batch application. Partial success is expected:
// one stale suggestion never aborts the rest.
type ApplyReport struct {
	Applied int
	Failed  int
	Results []ApplyResult
}

// Service runs the analysis pipelines against a vault. recorder and progress
// may be nil.
type Service struct {
	store    storage.Provider
	invoker  llm.Invoker
	recorder RunRecorder
	progress ProgressFunc
	cfg      Config
	logger   *slog.Logger
}

// New creates an analyzer service.
func New(store storage.Provider, invoker llm.Invoker, recorder RunRecorder, progress ProgressFunc, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		invoker:  invoker,
		recorder: recorder,
		progress: progress,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Service) report(msg string) {
	if s.progress != nil {
		s.progress(msg)
	}
	s.logger.Info(msg)
}

// DefaultRange returns the configured trailing window ending today.
func (s *Service) DefaultRange(now time.Time) (start, end string) {
	return journal.DefaultRange(now, s.cfg.DaysToAnalyze)
}

// AnalyzeRange runs the theme-analysis pipeline over [start, end]: select
// journal files, aggregate them, invoke the external tool, and write the
// meta note. Exactly one note write happens, after the tool has answered;
// no failure leaves a partial note behind. An empty selection returns a
// Skipped result and writes nothing.
func (s *Service) AnalyzeRange(ctx context.Context, start, end string) (Result, error) {
	res := Result{Start: start, End: end}

	ok, err := s.store.Exists(s.cfg.JournalFolder)
	if err != nil {
		return res, fmt.Errorf("analyzer: check journal folder: %w", err)
	}
	if !ok {
		return res, fmt.Errorf("analyzer: journal folder %q: %w", s.cfg.JournalFolder, apperr.ErrNotFound)
	}

	s.report("Gathering journal entries...")
	metas, err := s.store.List("")
	if err != nil {
		return res, fmt.Errorf("analyzer: list vault: %w", err)
	}
	files := journal.SelectRange(metas, s.cfg.JournalFolder, start, end)
	if len(files) == 0 {
		s.report(fmt.Sprintf("No journal entries found between %s and %s", start, end))
		res.Skipped = true
		return res, nil
	}

	entries := make([]journal.Entry, 0, len(files))
	for _, f := range files {
		data, err := s.store.Read(f.Path)
		if err != nil {
			return res, fmt.Errorf("analyzer: read %s: %w", f.Path, err)
		}
		entries = append(entries, journal.Entry{Basename: f.Basename(), Body: string(data)})
	}
	aggregated := journal.Aggregate(entries)

	s.report(fmt.Sprintf("Analyzing %d journal entries...", len(entries)))
	began := time.Now()
	analysis, err := s.invoker.Complete(ctx, prompt.ThemeAnalysis(start, end, aggregated))
	if err != nil {
		return res, err
	}

	s.report("Saving analysis...")
	count := journal.CountEntries(aggregated)
	path, content := compose.AnalysisNote(compose.AnalysisNoteInput{
		MetaFolder: s.cfg.MetaFolder,
		Start:      start,
		End:        end,
		Body:       analysis,
		EntryCount: count,
		Now:        time.Now(),
	})
	if err := s.store.EnsureDir(s.cfg.MetaFolder); err != nil {
		return res, fmt.Errorf("analyzer: ensure meta folder: %w", err)
	}
	if err := s.store.Write(path, []byte(content)); err != nil {
		return res, fmt.Errorf("analyzer: write analysis note: %w", err)
	}

	res.NotePath = path
	res.EntryCount = count
	s.recordRun(ctx, RunRecord{
		ID:         uuid.NewString(),
		Start:      start,
		End:        end,
		EntryCount: count,
		NotePath:   path,
		Duration:   time.Since(began),
		CreatedAt:  time.Now(),
	})
	s.report(fmt.Sprintf("Analysis complete: %s", path))
	return res, nil
}

// recordRun is bookkeeping: a failed insert is logged, never fails the run.
func (s *Service) recordRun(ctx context.Context, rec RunRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordRun(ctx, rec); err != nil {
		s.logger.Warn("failed to record analysis run",
			slog.String("run_id", rec.ID),
			slog.String("error", err.Error()))
	}
}

// SuggestConnections reads the note at path, samples the rest of the vault
// as candidates (most recently modified first), and asks the external tool
// for typed link suggestions. Zero suggestions is a normal outcome; a
// malformed answer wraps apperr.ErrParse.
func (s *Service) SuggestConnections(ctx context.Context, path string) ([]connections.Connection, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("analyzer: note %q: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("analyzer: read note: %w", err)
	}

	s.report("Gathering candidate notes...")
	metas, err := s.store.List("")
	if err != nil {
		return nil, fmt.Errorf("analyzer: list vault: %w", err)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	limit := s.cfg.MaxCandidates
	if limit <= 0 || limit > prompt.MaxCandidates {
		limit = prompt.MaxCandidates
	}
	candidates := make([]prompt.Candidate, 0, limit)
	for _, m := range metas {
		if len(candidates) == limit {
			break
		}
		if m.Path == path {
			continue
		}
		body, err := s.store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("analyzer: read candidate %s: %w", m.Path, err)
		}
		candidates = append(candidates, prompt.Candidate{Path: m.Path, Body: string(body)})
	}

	s.report(fmt.Sprintf("Asking for connections across %d candidate notes...", len(candidates)))
	out, err := s.invoker.Complete(ctx, prompt.ConnectionSuggestions(prompt.ConnectionRequest{
		NotePath:      path,
		NoteBody:      string(data),
		Candidates:    candidates,
		MinConfidence: s.cfg.MinConfidence,
		Types:         s.cfg.ConnectionTypes,
		PreviewChars:  s.cfg.PreviewChars,
	}))
	if err != nil {
		return nil, err
	}

	conns, err := connections.Parse(out, s.cfg.MinConfidence)
	if err != nil {
		return nil, err
	}
	s.report(fmt.Sprintf("Found %d connection suggestions", len(conns)))
	return conns, nil
}

// ApplyConnections rewrites each connection's source text into a wikilink.
// Failures are collected per connection; the batch always runs to the end
// unless ctx expires between items.
func (s *Service) ApplyConnections(ctx context.Context, conns []connections.Connection) (ApplyReport, error) {
	report := ApplyReport{Results: make([]ApplyResult, 0, len(conns))}
	for _, conn := range conns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.applyOne(conn); err != nil {
			report.Failed++
			report.Results = append(report.Results, ApplyResult{Connection: conn, Err: err})
			s.logger.Warn("connection not applied",
				slog.String("source", conn.SourceFile),
				slog.String("error", err.Error()))
			continue
		}
		report.Applied++
		report.Results = append(report.Results, ApplyResult{Connection: conn})
	}
	s.report(fmt.Sprintf("Applied %d connections, %d failed", report.Applied, report.Failed))
	return report, nil
}

func (s *Service) applyOne(conn connections.Connection) error {
	data, err := s.store.Read(conn.SourceFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("analyzer: source note %q: %w", conn.SourceFile, apperr.ErrNotFound)
		}
		return fmt.Errorf("analyzer: read source note: %w", err)
	}
	updated, err := connections.ApplyLink(string(data), conn.SourceText, parser.LinkTarget(conn.TargetFile))
	if err != nil {
		return err
	}
	return s.store.Write(conn.SourceFile, []byte(updated))
}

// AppendEntry writes text as today's journal entry. The first entry of the
// day creates the file; later entries append under a time subheading.
// It returns the entry path.
func (s *Service) AppendEntry(_ context.Context, text string, now time.Time) (string, error) {
	if err := s.store.EnsureDir(s.cfg.JournalFolder); err != nil {
		return "", fmt.Errorf("analyzer: ensure journal folder: %w", err)
	}
	path := compose.EntryPath(s.cfg.JournalFolder, now)

	existing, err := s.store.Read(path)
	switch {
	case err == nil:
		content := compose.AppendJournalEntry(string(existing), now, text)
		return path, s.store.Write(path, []byte(content))
	case errors.Is(err, os.ErrNotExist):
		return path, s.store.Write(path, []byte(compose.JournalEntry(now, text)))
	default:
		return "", fmt.Errorf("analyzer: read journal entry: %w", err)
	}
}
