// Package compose renders the persisted note formats: theme-analysis meta
// notes and plain journal entries.
package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/journal"
)

// AnalysisNoteInput carries everything the theme-analysis note embeds.
type AnalysisNoteInput struct {
	MetaFolder string
	Start      string
	End        string
	Body       string
	EntryCount int
	Now        time.Time
}

// AnalysisNotePath returns the deterministic target for a range. Repeated
// runs over the same range resolve to the same path and overwrite.
func AnalysisNotePath(metaFolder, start, end string) string {
	return fmt.Sprintf("%s/analysis-%s-to-%s.md", metaFolder, start, end)
}

// AnalysisNote renders a complete theme-analysis note: frontmatter, the
// analysis body, and the fixed attribution footer. The footer is cosmetic
// and never parsed downstream.
func AnalysisNote(in AnalysisNoteInput) (path, content string) {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("date: " + in.Now.Format(journal.DateLayout) + "\n")
	b.WriteString("type: journal-analysis\n")
	b.WriteString("tags: [meta, analysis, journal]\n")
	b.WriteString("start_date: " + in.Start + "\n")
	b.WriteString("end_date: " + in.End + "\n")
	b.WriteString("---\n\n")
	b.WriteString(in.Body)
	b.WriteString("\n\n---\n")
	b.WriteString("*Generated by Journal Analyzer Plugin*\n")
	fmt.Fprintf(&b, "*Entries analyzed: %d*\n", in.EntryCount)
	fmt.Fprintf(&b, "*Generated: %s*\n", in.Now.Format(time.RFC1123))
	return AnalysisNotePath(in.MetaFolder, in.Start, in.End), b.String()
}

// EntryPath returns the journal file for the day of now.
func EntryPath(journalFolder string, now time.Time) string {
	return fmt.Sprintf("%s/%s.md", journalFolder, now.Format(journal.DateLayout))
}

// JournalEntry renders a new day's journal file: frontmatter, a level-1
// date heading, and the entry text.
func JournalEntry(now time.Time, text string) string {
	date := now.Format(journal.DateLayout)
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("date: " + date + "\n")
	b.WriteString("type: journal\n")
	b.WriteString("tags: [journal]\n")
	b.WriteString("---\n\n")
	b.WriteString("# Journal Entry: " + date + "\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")
	return b.String()
}

// AppendJournalEntry adds a same-day entry to an existing journal file under
// a time-stamped subheading. The existing content is never replaced.
func AppendJournalEntry(existing string, now time.Time, text string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(existing, "\n"))
	b.WriteString("\n\n## " + now.Format("15:04") + "\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")
	return b.String()
}
