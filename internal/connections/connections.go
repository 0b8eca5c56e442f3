// Package connections extracts link suggestions from external-tool output
// and applies them to note bodies as wikilink markup.
package connections

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/apperr"
)

// ErrSourceTextNotFound reports that a connection's source text no longer
// appears verbatim in the note, typically because the user edited it after
// suggestions were generated.
var ErrSourceTextNotFound = errors.New("connections: source text not found")

// Connection is one suggested cross-reference between two notes. SourceText
// must appear verbatim in the source note for the suggestion to be
// applicable; TargetText is advisory context and never checked.
type Connection struct {
	SourceFile     string `json:"sourceFile"`
	TargetFile     string `json:"targetFile"`
	SourceText     string `json:"sourceText"`
	TargetText     string `json:"targetText"`
	Reason         string `json:"reason"`
	Confidence     int    `json:"confidence"`
	ConnectionType string `json:"connectionType"`
}

// valid reports whether a decoded record has the fields downstream
// application depends on. Confidence is bounds-checked; the type label set
// is open ended and deliberately not validated here.
func (c Connection) valid() bool {
	if c.SourceFile == "" || c.TargetFile == "" || c.SourceText == "" {
		return false
	}
	return c.Confidence >= 0 && c.Confidence <= 100
}

// Parse extracts connection records from raw tool output.
//
// The JSON array is located permissively, bounded by the first '[' and the
// last ']' in the text, so surrounding prose does not matter. No such region
// means zero suggestions: (nil, nil), a normal outcome distinct from
// failure. A region that is present but not decodable JSON wraps
// apperr.ErrParse. Records that decode but fail shape validation are
// dropped, and records below minConfidence are filtered out (the boundary
// value is kept). Output order is whatever the tool produced.
func Parse(raw string, minConfidence int) ([]Connection, error) {
	start := strings.Index(raw, "[")
	if start < 0 {
		return nil, nil
	}
	end := strings.LastIndex(raw, "]")
	if end <= start {
		return nil, nil
	}
	region := raw[start : end+1]

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(region), &items); err != nil {
		return nil, fmt.Errorf("connections: decode suggestions: %w: %w", apperr.ErrParse, err)
	}

	out := make([]Connection, 0, len(items))
	for _, item := range items {
		var c Connection
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		if !c.valid() {
			continue
		}
		if c.Confidence < minConfidence {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ApplyLink rewrites the first occurrence of sourceText in body into
// [[target|sourceText]]. The substitution is precondition checked: when
// sourceText does not appear verbatim the body is returned unchanged along
// with ErrSourceTextNotFound, so a stale suggestion can never corrupt the
// note.
func ApplyLink(body, sourceText, target string) (string, error) {
	if sourceText == "" {
		return body, fmt.Errorf("connections: empty source text: %w", ErrSourceTextNotFound)
	}
	if !strings.Contains(body, sourceText) {
		return body, fmt.Errorf("connections: %q: %w", sourceText, ErrSourceTextNotFound)
	}
	link := "[[" + target + "|" + sourceText + "]]"
	return strings.Replace(body, sourceText, link, 1), nil
}
