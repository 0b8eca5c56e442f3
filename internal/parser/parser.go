// Package parser turns raw Markdown notes into their indexable parts:
// frontmatter, body, wikilink targets, tags, and a display title.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const fmDelim = "---"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Document is the parsed form of one Markdown note.
type Document struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Tags        []string
	Title       string
}

// Parse splits data into frontmatter and body and extracts wikilink targets,
// tags, and the note title. Parse never fails: a malformed frontmatter block
// is kept as body text.
func Parse(data []byte) *Document {
	doc := &Document{}
	doc.Frontmatter, doc.Body = splitFrontmatter(data)
	doc.Links = wikilinkTargets(doc.Body)
	doc.Tags = collectTags(doc.Frontmatter, doc.Body)
	doc.Title = noteTitle(doc.Frontmatter, doc.Body)
	return doc
}

// LinkTarget converts a vault-relative note path into the target form used
// inside [[...]] syntax, dropping the .md extension.
func LinkTarget(notePath string) string {
	return strings.TrimSuffix(notePath, ".md")
}

// splitFrontmatter decodes a leading YAML block delimited by --- lines.
// A missing or malformed block yields a nil map and the whole file as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	content := bytes.TrimLeft(data, "\r\n")
	if !bytes.HasPrefix(content, []byte(fmDelim)) {
		return nil, string(data)
	}
	rest := content[len(fmDelim):]
	end := bytes.Index(rest, []byte("\n"+fmDelim))
	if end < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, string(data)
	}
	body := rest[end+1+len(fmDelim):]
	return fm, strings.TrimLeft(string(body), "\r\n")
}

// wikilinkTargets returns each distinct link target in order of first
// appearance. Alias syntax [[target|shown text]] resolves to target.
func wikilinkTargets(body string) []string {
	var targets []string
	seen := map[string]struct{}{}
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets
}

// collectTags merges frontmatter tags with inline #tags, keeping first
// occurrence order.
func collectTags(fm map[string]any, body string) []string {
	var tags []string
	seen := map[string]struct{}{}
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if list, ok := fm["tags"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return tags
}

// noteTitle prefers the frontmatter title and falls back to the first H1.
func noteTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		if after, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}
