// Package extract derives tags, people, quadrant and mood from note text.
// Nothing here fails: no match means an empty result.
package extract

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/parser"
)

var (
	inlineTagRe = regexp.MustCompile(`#(\w+)`)
	mentionRe   = regexp.MustCompile(`@(\w+)`)

	knownPeople = []*regexp.Regexp{
		regexp.MustCompile(`\b(Ula|Ulka)\b`),
		regexp.MustCompile(`\b(Damien|Eamon|Marco|James|Micheal|Tom|Kay|Ruth|Killian|Jayden)\b`),
		regexp.MustCompile(`\b(Sam O'Neill)\b`),
	}
)

// Tags unions frontmatter tags with inline #tags in the body, case-folded.
// The result is sorted and has no duplicates.
func Tags(frontmatter map[string]any, content string) []string {
	set := make(map[string]struct{})
	for _, t := range parser.StringList(frontmatter, "tags") {
		set[fold(t)] = struct{}{}
	}
	for _, m := range inlineTagRe.FindAllStringSubmatch(content, -1) {
		set[fold(m[1])] = struct{}{}
	}
	return sortedKeys(set)
}

// People collects @mentions, wikilinks that look like one to three
// capitalized words, and known names. The result is sorted and has no
// duplicates.
func People(content string) []string {
	set := make(map[string]struct{})
	for _, m := range mentionRe.FindAllStringSubmatch(content, -1) {
		set[m[1]] = struct{}{}
	}
	for _, link := range parser.Wikilinks(content) {
		if looksLikeName(link) {
			set[link] = struct{}{}
		}
	}
	for _, re := range knownPeople {
		for _, m := range re.FindAllString(content, -1) {
			set[m] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func looksLikeName(s string) bool {
	words := strings.Split(s, " ")
	if len(words) > 3 {
		return false
	}
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// Annotate fills the derived fields of a note.
func Annotate(n *models.Note) {
	n.Tags = Tags(n.Frontmatter, n.Content)
	n.People = People(n.Content)
	if c, ok := Categorize(n.Content, n.Filename); ok {
		n.Category = c
	} else {
		n.Category = ""
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
