package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/analyzer"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/apperr"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/connections"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/noteservice"
)

// AnalysisHandler serves the analysis pipeline and run history endpoints.
type AnalysisHandler struct {
	analyzer *analyzer.Service
	svc      *noteservice.Service
}

// NewAnalysisHandler creates a handler backed by the analyzer pipeline and
// the note service (for run history lookups).
func NewAnalysisHandler(a *analyzer.Service, svc *noteservice.Service) *AnalysisHandler {
	return &AnalysisHandler{analyzer: a, svc: svc}
}

// writeAnalysisError maps pipeline failures onto HTTP statuses. External tool
// trouble is a gateway problem, not ours, so it surfaces as 502.
func writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrParse):
		writeError(w, http.StatusBadGateway, "analysis tool returned unparseable output")
	case errors.Is(err, apperr.ErrExternalTool):
		writeError(w, http.StatusBadGateway, "analysis tool failed")
	default:
		slog.Error("analysis failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// RunAnalysis handles POST /api/analysis/runs.
//
//	@Summary		Run theme analysis over a journal date range
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AnalysisRunRequest	false	"Date range; omit for the configured trailing window"
//	@Success		200		{object}	AnalysisRunResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analysis/runs [post]
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	// An absent body is fine here; it selects the default window.
	var req AnalysisRunRequest
	if err := readJSON(w, r, 1<<20, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if (req.StartDate == "") != (req.EndDate == "") {
		writeError(w, http.StatusBadRequest, "start_date and end_date must be provided together")
		return
	}
	start, end := req.StartDate, req.EndDate
	if start == "" {
		start, end = h.analyzer.DefaultRange(time.Now())
	}

	res, err := h.analyzer.AnalyzeRange(r.Context(), start, end)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisRunResponse{
		StartDate:  res.Start,
		EndDate:    res.End,
		NotePath:   res.NotePath,
		EntryCount: res.EntryCount,
		Skipped:    res.Skipped,
	})
}

// ListRuns handles GET /api/analysis/runs.
//
//	@Summary		List recorded analysis runs, newest first
//	@Tags			analysis
//	@Produce		json
//	@Param			limit	query		int	false	"Max runs to return"
//	@Success		200		{object}	RunHistoryResponse
//	@Security		BearerAuth
//	@Router			/analysis/runs [get]
func (h *AnalysisHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListAnalysisRuns(r.Context(), queryInt(r.URL.Query(), "limit"))
	if err != nil {
		slog.Error("list analysis runs failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	runs := make([]RunHistoryItem, len(rows))
	for i, row := range rows {
		runs[i] = RunHistoryItem{
			ID:         row.ID,
			StartDate:  row.StartDate,
			EndDate:    row.EndDate,
			EntryCount: row.EntryCount,
			NotePath:   row.NotePath,
			DurationMS: row.Duration.Milliseconds(),
			CreatedAt:  row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, RunHistoryResponse{Runs: runs})
}

// SuggestConnections handles POST /api/connections/suggestions.
//
//	@Summary		Suggest connections from a note to the rest of the vault
//	@Tags			connections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SuggestConnectionsRequest	true	"Source note"
//	@Success		200		{object}	SuggestConnectionsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/connections/suggestions [post]
func (h *AnalysisHandler) SuggestConnections(w http.ResponseWriter, r *http.Request) {
	var req SuggestConnectionsRequest
	if err := readJSON(w, r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	conns, err := h.analyzer.SuggestConnections(r.Context(), req.Path)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	if conns == nil {
		conns = []connections.Connection{}
	}
	writeJSON(w, http.StatusOK, SuggestConnectionsResponse{Connections: conns})
}

// ApplyConnections handles POST /api/connections/apply.
//
//	@Summary		Apply connection suggestions as wikilinks
//	@Tags			connections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ApplyConnectionsRequest	true	"Connections to apply"
//	@Success		200		{object}	ApplyConnectionsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/connections/apply [post]
func (h *AnalysisHandler) ApplyConnections(w http.ResponseWriter, r *http.Request) {
	var req ApplyConnectionsRequest
	if err := readJSON(w, r, maxNoteBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Connections) == 0 {
		writeError(w, http.StatusBadRequest, "connections are required")
		return
	}

	report, err := h.analyzer.ApplyConnections(r.Context(), req.Connections)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	results := make([]ApplyOutcome, len(report.Results))
	for i, res := range report.Results {
		results[i] = ApplyOutcome{Connection: res.Connection}
		if res.Err != nil {
			results[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, ApplyConnectionsResponse{
		Applied: report.Applied,
		Failed:  report.Failed,
		Results: results,
	})
}
