// Package parser splits vault notes into YAML frontmatter and Markdown body.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe    = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	journalNameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.md$`)
)

// Note is a parsed vault file.
type Note struct {
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse separates frontmatter from the body and derives a title.
// Broken frontmatter is not an error: the whole file becomes the body.
func Parse(data []byte) Note {
	fm, body := splitFrontmatter(data)
	return Note{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
	}
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	block := rest[:idx]
	after := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(after), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// StringList reads a frontmatter key that may hold a single value or a list.
// Non-string scalars are formatted with %v.
func StringList(fm map[string]any, key string) []string {
	switch v := fm[key].(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// Wikilinks returns the raw [[target]] texts in document order, duplicates included.
func Wikilinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// JournalDate returns the YYYY-MM-DD date encoded in a journal filename.
func JournalDate(filename string) (string, bool) {
	m := journalNameRe.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}
