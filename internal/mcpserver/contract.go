package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Journal Vault Note Format Contract

Every Markdown note stored in this vault MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED – used in search, sidebar, graph
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
created: 2025-10-03                 # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `garden-project` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is the
   filename stem (no ` + "`" + `.md` + "`" + ` extension, path separators OK: ` + "`" + `[[folder/note]]` + "`" + `).
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
7. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Journal conventions

- Daily journal notes live in the journal folder and are named by date:
  ` + "`" + `journal/2025-10-03.md` + "`" + `. The date in the filename is what range
  analysis selects on, so keep the ` + "`" + `YYYY-MM-DD` + "`" + ` stem intact.
- Prefer ` + "`" + `append_journal_entry` + "`" + ` over ` + "`" + `create_note` + "`" + ` for journal
  capture; it handles same-day appends with time subheadings.
- Analysis notes are machine-written into the meta folder as
  ` + "`" + `analysis-<start>-to-<end>.md` + "`" + ` and carry ` + "`" + `type: journal-analysis` + "`" + `
  frontmatter. Do not hand-edit their frontmatter; the body is yours to annotate.

## Example

` + "```" + `markdown
---
title: Garden project
tags:
  - garden-project
created: 2025-10-03
---

# Garden project

Raised beds sketched out; see [[journal/2025-10-03]] for the site notes.

## Next steps

- Order lumber ([[suppliers|local suppliers list]])
- Ask [[alice]] about drip irrigation
` + "```" + `
`
