// Package prompt renders the fixed instruction templates handed to the
// external analysis tool. Both templates are pure string interpolation:
// note text is embedded verbatim, with no escaping against the tool's
// input grammar.
package prompt

import (
	"fmt"
	"strings"
)

const (
	// MaxCandidates caps how many candidate notes the connection template
	// embeds. Configuration may lower this, never raise it.
	MaxCandidates = 50

	// PreviewChars is the per-candidate body truncation length.
	PreviewChars = 500
)

// ThemeAnalysis renders the theme-analysis instruction for one date range.
// The five section headers are passed through to the result verbatim and are
// never parsed structurally downstream.
func ThemeAnalysis(start, end, aggregated string) string {
	var b strings.Builder
	b.WriteString("You are analyzing personal journal entries written between ")
	b.WriteString(start)
	b.WriteString(" and ")
	b.WriteString(end)
	b.WriteString(".\n\n")
	b.WriteString("Review the entries below and respond in Markdown with exactly these five sections:\n\n")
	b.WriteString("## Recurring Themes\nTopics, concerns, or ideas that appear across multiple entries.\n\n")
	b.WriteString("## Pattern Recognition\nBehavioral or emotional patterns visible over time.\n\n")
	b.WriteString("## Key Insights\nThe most significant observations from this period.\n\n")
	b.WriteString("## Suggested Connections\nEntries or ideas that relate to each other, and why.\n\n")
	b.WriteString("## Questions to Consider\nReflective questions these entries raise.\n\n")
	b.WriteString("Journal entries:\n\n")
	b.WriteString(aggregated)
	return b.String()
}

// Candidate is one note offered to the connection template as link material.
type Candidate struct {
	Path string
	Body string
}

// ConnectionRequest carries everything the connection template interpolates.
// Candidates are expected in most-recently-modified-first order; the template
// caps them at MaxCandidates and truncates each body to PreviewChars.
// A positive PreviewChars below the built-in limit lowers the truncation
// length; it can never raise it.
type ConnectionRequest struct {
	NotePath      string
	NoteBody      string
	Candidates    []Candidate
	MinConfidence int
	Types         []string
	PreviewChars  int
}

// exampleConnection is the one concrete object the instructions show the
// tool, fixing the expected field names.
const exampleConnection = `{"sourceFile":"journal/2025-10-03.md","targetFile":"journal/2025-09-15.md","sourceText":"started learning Go","targetText":"want to pick up a systems language","reason":"Follow-through on an earlier goal","confidence":85,"connectionType":"thematic"}`

// ConnectionSuggestions renders the connection-suggestion instruction for one
// source note against a set of candidate notes.
func ConnectionSuggestions(req ConnectionRequest) string {
	candidates := req.Candidates
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	preview := req.PreviewChars
	if preview <= 0 || preview > PreviewChars {
		preview = PreviewChars
	}

	var b strings.Builder
	b.WriteString("You are suggesting connections between notes in a personal knowledge base.\n\n")
	b.WriteString("Current note (")
	b.WriteString(req.NotePath)
	b.WriteString("):\n\n")
	b.WriteString(req.NoteBody)
	b.WriteString("\n\nOther notes in the collection:\n\n")
	for _, c := range candidates {
		b.WriteString("### ")
		b.WriteString(c.Path)
		b.WriteString("\n")
		b.WriteString(truncate(c.Body, preview))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Suggest connections from the current note to the other notes. Allowed connection types: %s.\n", strings.Join(req.Types, ", "))
	fmt.Fprintf(&b, "Only include connections with a confidence of at least %d (0-100 scale).\n", req.MinConfidence)
	b.WriteString("For each connection, sourceText must be a verbatim substring of the current note and targetText a verbatim substring of the target note.\n\n")
	b.WriteString("Example object:\n")
	b.WriteString(exampleConnection)
	b.WriteString("\n\nReturn one JSON array of objects shaped like the example, and nothing else.")
	return b.String()
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
