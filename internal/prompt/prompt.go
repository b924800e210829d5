// Package prompt renders the analysis prompts from gathered cycle data.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/lifedash/internal/activity"
	"github.com/starford/lifedash/internal/extract"
	"github.com/starford/lifedash/internal/models"
)

// Limits applied to note excerpts.
const (
	MaxNotes        = 25
	MaxExcerptRunes = 800
	maxGitMessages  = 5
)

// Fallback texts for empty sections.
const (
	NoJournals      = "No recent journal entries found."
	NoNotes         = "No recent notes found."
	NoManualEntries = "No pending manual entries."
	NoQuadrants     = "No quadrant data."
	NoMood          = "Not available"
)

// ErrPlaceholder is returned when a template placeholder has no value.
var ErrPlaceholder = errors.New("prompt: unresolved placeholder")

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Input is everything the user prompt is built from.
type Input struct {
	Days          int
	Notes         []models.Note
	Mood          *extract.MoodAnalysis
	Activity      activity.Summary
	ManualEntries []models.ManualEntry
	Quadrants     []models.Quadrant
}

// Builder renders prompts for a fixed set of values and quadrant definitions.
type Builder struct {
	values    []string
	quadrants []models.QuadrantDef
}

// NewBuilder creates a Builder. Empty arguments fall back to the defaults.
func NewBuilder(values []string, quadrants []models.QuadrantDef) *Builder {
	if len(values) == 0 {
		values = models.DefaultValues
	}
	if len(quadrants) == 0 {
		quadrants = models.DefaultQuadrants
	}
	return &Builder{values: values, quadrants: quadrants}
}

// System renders the static context prompt.
func (b *Builder) System() (string, error) {
	var values, quads []string
	for _, v := range b.values {
		values = append(values, "- "+v)
	}
	for _, q := range b.quadrants {
		quads = append(quads, fmt.Sprintf("- %s: %s", q.Name, strings.Join(q.Tags, ", ")))
	}
	return render(systemTemplate, map[string]string{
		"values":    strings.Join(values, "\n"),
		"quadrants": strings.Join(quads, "\n"),
	})
}

// User renders the per-cycle prompt.
func (b *Builder) User(in Input) (string, error) {
	return render(userTemplate, map[string]string{
		"days":              strconv.Itoa(in.Days),
		"journal_entries":   orDefault(noteBlock(in.Notes, true), NoJournals),
		"notes":             orDefault(noteBlock(in.Notes, false), NoNotes),
		"github":            githubBlock(in.Activity),
		"manual_entries":    orDefault(manualBlock(in.ManualEntries), NoManualEntries),
		"current_quadrants": orDefault(b.quadrantBlock(in.Quadrants), NoQuadrants),
		"mood_analysis":     moodBlock(in.Mood),
	})
}

// render substitutes every {name} in tmpl in a single pass. Values are not
// rescanned, so note text containing braces is left alone.
func render(tmpl string, vals map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := vals[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrPlaceholder, strings.Join(missing, ", "))
	}
	return out, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// noteBlock renders the journal or non-journal subset of the first MaxNotes notes.
func noteBlock(notes []models.Note, journals bool) string {
	var sb strings.Builder
	for _, n := range notes[:min(MaxNotes, len(notes))] {
		isJournal := n.IsJournal || n.Source == models.SourceJournal
		if isJournal != journals {
			continue
		}
		category := string(n.Category)
		if category == "" {
			category = "uncategorized"
		}
		fmt.Fprintf(&sb, "\n### %s (%s)\nCategory: %s\nContent:\n%s\n",
			n.Filename, n.DisplayDate(), category, Excerpt(n.Content))
	}
	return sb.String()
}

// Excerpt truncates content to MaxExcerptRunes runes.
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) <= MaxExcerptRunes {
		return content
	}
	return string(r[:MaxExcerptRunes])
}

func githubBlock(s activity.Summary) string {
	msgs := s.RecentMessages[:min(maxGitMessages, len(s.RecentMessages))]
	return fmt.Sprintf("\nCommits: %d\nActive repos: %s\nCurrent streak: %d days\nRecent commit messages: %s",
		s.Commits, strings.Join(s.Repos, ", "), s.Streak, strings.Join(msgs, ", "))
}

func manualBlock(entries []models.ManualEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		if e.Processed {
			continue
		}
		fmt.Fprintf(&sb, "\n- [%s] %s", e.Category, e.Content)
	}
	return sb.String()
}

// quadrantBlock lists quadrants in the builder's definition order; unknown
// categories follow in input order.
func (b *Builder) quadrantBlock(quads []models.Quadrant) string {
	byCat := make(map[models.Category]models.Quadrant, len(quads))
	for _, q := range quads {
		byCat[q.Category] = q
	}

	var sb strings.Builder
	line := func(q models.Quadrant) {
		name := q.Name
		if name == "" {
			name = string(q.Category)
		}
		status := string(q.Status)
		if status == "" {
			status = "unknown"
		}
		fmt.Fprintf(&sb, "\n- %s: %s", name, status)
	}

	seen := make(map[models.Category]bool, len(quads))
	for _, def := range b.quadrants {
		if q, ok := byCat[def.Category]; ok {
			line(q)
			seen[def.Category] = true
		}
	}
	for _, q := range quads {
		if !seen[q.Category] {
			line(q)
		}
	}
	return sb.String()
}

func moodBlock(m *extract.MoodAnalysis) string {
	if m == nil {
		return NoMood
	}
	return fmt.Sprintf("\nCurrent mood: %s\nMood score: %s (-1 to 1 scale)\nPositive signals: %d\nStress signals: %d\nBalance mentions: %d",
		m.Mood, strconv.FormatFloat(m.Score, 'f', -1, 64), m.Positive, m.Stress, m.Balance)
}
