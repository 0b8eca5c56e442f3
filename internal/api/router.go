package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/analyzer"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/noteservice"
)

// NewRouter mounts every API route on a chi router. All routes sit
// behind the same Bearer auth middleware; authEnabled switches it on.
// A nil an leaves the analysis and connection endpoints unmounted, and
// a nil sseHandler does the same for GET /events.
func NewRouter(svc *noteservice.Service, an *analyzer.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search and graph.
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)
	r.Get("/backlinks", h.Backlinks)

	// Analysis pipeline.
	if an != nil {
		ah := NewAnalysisHandler(an, svc)
		r.Post("/analysis/runs", ah.RunAnalysis)
		r.Get("/analysis/runs", ah.ListRuns)
		r.Post("/connections/suggestions", ah.SuggestConnections)
		r.Post("/connections/apply", ah.ApplyConnections)
	}

	// Server-sent events.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
