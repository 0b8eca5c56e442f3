// Package journal selects and aggregates date-stamped journal files.
package journal

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/models"
)

// DateLayout is the fixed-width date format embedded in journal filenames.
// Fixed width keeps lexicographic ordering equal to chronological ordering.
const DateLayout = "2006-01-02"

// dateRe matches a YYYY-MM-DD shaped substring. Calendar validity is not
// checked: downstream ordering relies only on string comparison, so a name
// like 2025-13-99 still counts as dated.
var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ExtractDate returns the first date-shaped substring of name. The second
// return is false when name carries no date.
func ExtractDate(name string) (string, bool) {
	m := dateRe.FindString(name)
	if m == "" {
		return "", false
	}
	return m, true
}

// SelectRange filters metas to files under folder whose embedded date falls
// within [start, end] inclusive, compared lexicographically. Files without an
// extractable date are dropped. The result is sorted ascending by basename;
// an empty result is a value, not an error.
func SelectRange(metas []models.NoteMetadata, folder, start, end string) []models.NoteMetadata {
	out := make([]models.NoteMetadata, 0)
	for _, m := range metas {
		if !strings.HasPrefix(m.Path, folder) {
			continue
		}
		date, ok := ExtractDate(m.Basename())
		if !ok {
			continue
		}
		if date < start || date > end {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Basename() < out[j].Basename()
	})
	return out
}

// Entry pairs a journal file's basename with its full body text.
type Entry struct {
	Basename string
	Body     string
}

// entryHeader introduces each aggregated section; CountEntries keys off it.
const entryHeader = "## Entry: "

// Aggregate concatenates entries in input order, each introduced by a header
// line carrying the file's basename. No size cap is applied here; prompt
// assembly owns any truncation.
func Aggregate(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(entryHeader)
		b.WriteString(e.Basename)
		b.WriteString("\n\n")
		b.WriteString(e.Body)
		b.WriteString("\n\n")
	}
	return b.String()
}

// CountEntries reports how many entry headers appear in aggregated text.
func CountEntries(text string) int {
	return strings.Count(text, strings.TrimSuffix(entryHeader, " "))
}

// DefaultRange returns the end-anchored window of days calendar dates ending
// at now. days below one is treated as a single-day range.
func DefaultRange(now time.Time, days int) (start, end string) {
	if days < 1 {
		days = 1
	}
	end = now.Format(DateLayout)
	start = now.AddDate(0, 0, -(days - 1)).Format(DateLayout)
	return start, end
}
