// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/analyzer"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/api"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/index"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/llm"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/mcpserver"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/noteservice"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/sse"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// runSink records completed analysis runs in the index and, when a broker is
// attached, announces them to SSE clients.
type runSink struct {
	db     *index.DB
	broker *sse.Broker
}

var _ analyzer.RunRecorder = (*runSink)(nil)

func (r *runSink) RecordRun(_ context.Context, rec analyzer.RunRecord) error {
	if r.broker != nil {
		r.broker.PublishAnalysisCompleted(rec.NotePath, rec.EntryCount)
	}
	return r.db.InsertRun(index.RunRow{
		ID:         rec.ID,
		StartDate:  rec.Start,
		EndDate:    rec.End,
		EntryCount: rec.EntryCount,
		NotePath:   rec.NotePath,
		Duration:   rec.Duration,
		CreatedAt:  rec.CreatedAt,
	})
}

// pipeline bundles the storage, index, and analyzer stack shared by all modes.
type pipeline struct {
	store storage.Provider
	db    *index.DB
	an    *analyzer.Service
}

func analyzerConfig(cfg *Config) analyzer.Config {
	return analyzer.Config{
		JournalFolder:   cfg.Journal.Folder,
		MetaFolder:      cfg.Journal.MetaFolder,
		DaysToAnalyze:   cfg.Journal.DaysToAnalyze,
		MinConfidence:   cfg.Analysis.MinConfidence,
		ConnectionTypes: cfg.Analysis.ConnectionTypes,
		MaxCandidates:   cfg.Analysis.MaxCandidates,
		PreviewChars:    cfg.Analysis.PreviewChars,
	}
}

// newPipeline opens the vault and index and wires the analyzer. The caller
// owns p.db and must close it.
func newPipeline(cfg *Config, logger *slog.Logger, progress analyzer.ProgressFunc, broker *sse.Broker) (*pipeline, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	invoker := llm.NewCLI(cfg.Analysis.ToolPath, logger)
	an := analyzer.New(store, invoker, &runSink{db: db, broker: broker}, progress, analyzerConfig(cfg), logger)
	return &pipeline{store: store, db: db, an: an}, nil
}

// newCLILogger logs to stderr so stdout stays free for command output (and,
// in MCP mode, for the stdio transport).
func newCLILogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func printProgress(msg string) {
	fmt.Println(msg)
}

// Run starts the long-running serve mode: vault watcher, index sync, HTTP
// API, and SSE event stream.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("journal_folder", cfg.Journal.Folder),
		slog.String("analysis_tool", cfg.Analysis.ToolPath),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker relays note changes and analysis progress to clients.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	p, err := newPipeline(cfg, logger, broker.PublishAnalysisProgress, broker)
	if err != nil {
		return err
	}
	defer p.db.Close()

	// Run initial sync.
	if stats, err := index.Sync(p.db, p.store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync complete",
			slog.Int("indexed", stats.Indexed),
			slog.Int("removed", stats.Removed))
	}

	// Build API service and router.
	svc := noteservice.NewService(p.store, p.db)
	apiRouter := api.NewRouter(svc, p.an, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes (including SSE at /api/events) under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		index.Watch(gCtx, p.db, p.store, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
		})
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunAnalyze performs one theme-analysis run and prints the outcome. Empty
// dates analyze the configured trailing window ending today.
func RunAnalyze(ctx context.Context, start, end string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newCLILogger(cfg)

	if (start == "") != (end == "") {
		return fmt.Errorf("start and end dates must be provided together")
	}

	p, err := newPipeline(cfg, logger, printProgress, nil)
	if err != nil {
		return err
	}
	defer p.db.Close()

	if start == "" {
		start, end = p.an.DefaultRange(time.Now())
	}
	res, err := p.an.AnalyzeRange(ctx, start, end)
	if err != nil {
		return err
	}
	if res.Skipped {
		return nil
	}
	fmt.Printf("Analysis saved to %s (%d entries)\n", res.NotePath, res.EntryCount)
	return nil
}

// RunConnect suggests connections for one note and, when apply is set, turns
// them into wikilinks.
func RunConnect(ctx context.Context, notePath string, apply bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newCLILogger(cfg)

	p, err := newPipeline(cfg, logger, printProgress, nil)
	if err != nil {
		return err
	}
	defer p.db.Close()

	conns, err := p.an.SuggestConnections(ctx, notePath)
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		fmt.Println("No connections suggested")
		return nil
	}
	out, err := json.MarshalIndent(conns, "", "  ")
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}
	fmt.Println(string(out))

	if !apply {
		return nil
	}
	report, err := p.an.ApplyConnections(ctx, conns)
	if err != nil {
		return err
	}
	for _, r := range report.Results {
		if r.Err != nil {
			fmt.Printf("skipped %s: %v\n", r.Connection.SourceFile, r.Err)
		}
	}
	fmt.Printf("Applied %d connections, %d failed\n", report.Applied, report.Failed)
	return nil
}

// RunEntry appends text as a journal entry for today.
func RunEntry(ctx context.Context, text string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newCLILogger(cfg)

	p, err := newPipeline(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer p.db.Close()

	path, err := p.an.AppendEntry(ctx, text, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Journal entry saved to %s\n", path)
	return nil
}

// RunMCP serves the MCP stdio server. Logs go to stderr; stdout belongs to
// the MCP transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newCLILogger(cfg)
	slog.SetDefault(logger)

	p, err := newPipeline(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer p.db.Close()

	// Sync so search and backlinks reflect the vault before the first call.
	if stats, err := index.Sync(p.db, p.store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync complete",
			slog.Int("indexed", stats.Indexed),
			slog.Int("removed", stats.Removed))
	}

	srv := mcpserver.New(p.store, p.db, p.an)
	return srv.ServeStdio()
}
