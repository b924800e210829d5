// Package vault reads recent notes from a Markdown vault, either a local
// directory or a GitHub repository, and annotates them for analysis.
package vault

import (
	"context"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/lifedash/internal/extract"
	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/parser"
)

// Vault folder conventions.
const (
	JournalDir = "_Journal/"
	AreasDir   = "_Areas/"
)

// UncategorizedKey is the ByCategory bucket for notes without a quadrant.
const UncategorizedKey = "uncategorized"

// moodJournals is how many of the newest journals feed the mood analysis.
const moodJournals = 5

// fetchConcurrency bounds parallel per-file requests.
const fetchConcurrency = 8

// Source lists and reads vault files.
type Source interface {
	Files(ctx context.Context) ([]string, error)
	Modified(ctx context.Context, path string) (time.Time, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// Summary is the annotated set of recent notes for one cycle.
type Summary struct {
	TotalNotes     int                   `json:"totalNotes"`
	JournalEntries int                   `json:"journalEntries"`
	OtherNotes     int                   `json:"otherNotes"`
	Notes          []models.Note         `json:"notes"`
	ByCategory     map[string][]string   `json:"byCategory"`
	AllPeople      []string              `json:"allPeople"`
	AllTags        []string              `json:"allTags"`
	Mood           *extract.MoodAnalysis `json:"moodAnalysis,omitempty"`
	LastModified   time.Time             `json:"lastModified"`
}

// Journals returns the journal notes, newest first.
func (s Summary) Journals() []models.Note {
	var out []models.Note
	for _, n := range s.Notes {
		if n.IsJournal {
			out = append(out, n)
		}
	}
	return out
}

// Others returns the non-journal notes.
func (s Summary) Others() []models.Note {
	var out []models.Note
	for _, n := range s.Notes {
		if !n.IsJournal {
			out = append(out, n)
		}
	}
	return out
}

// EmptySummary is returned when the vault cannot be read.
func EmptySummary() Summary {
	return Summary{
		Notes:      []models.Note{},
		ByCategory: emptyBuckets(),
		AllPeople:  []string{},
		AllTags:    []string{},
	}
}

func emptyBuckets() map[string][]string {
	b := make(map[string][]string, len(models.Categories)+1)
	for _, c := range models.Categories {
		b[string(c)] = []string{}
	}
	b[UncategorizedKey] = []string{}
	return b
}

// Reader gathers the notes touched within the lookback window.
type Reader struct {
	src      Source
	lookback time.Duration
	now      func() time.Time
}

// NewReader creates a Reader.
func NewReader(src Source, lookback time.Duration) *Reader {
	return &Reader{src: src, lookback: lookback, now: time.Now}
}

// Summary reads recent notes. It does not fail: listing errors yield an
// empty summary and unreadable files are skipped.
func (r *Reader) Summary(ctx context.Context) Summary {
	if r == nil || r.src == nil {
		return EmptySummary()
	}

	files, err := r.src.Files(ctx)
	if err != nil {
		slog.Warn("vault: list files failed", slog.String("error", err.Error()))
		return EmptySummary()
	}
	if len(files) == 0 {
		return EmptySummary()
	}

	now := r.now()
	cutoff := now.Add(-r.lookback)

	loaded := make([]*models.Note, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, p := range files {
		g.Go(func() error {
			loaded[i] = r.load(gctx, p, now, cutoff)
			return nil
		})
	}
	_ = g.Wait()

	var journals, others []models.Note
	for _, n := range loaded {
		if n == nil {
			continue
		}
		if n.IsJournal {
			journals = append(journals, *n)
		} else {
			others = append(others, *n)
		}
	}

	slices.SortStableFunc(journals, func(a, b models.Note) int {
		return strings.Compare(b.DisplayDate(), a.DisplayDate())
	})

	s := EmptySummary()
	s.JournalEntries = len(journals)
	s.OtherNotes = len(others)
	s.Notes = append(append(s.Notes, journals...), others...)
	s.TotalNotes = len(s.Notes)

	if len(journals) > 0 {
		var parts []string
		for _, j := range journals[:min(moodJournals, len(journals))] {
			parts = append(parts, j.Content)
		}
		m := extract.Mood(strings.Join(parts, "\n"))
		s.Mood = &m
	}

	people := make(map[string]struct{})
	tags := make(map[string]struct{})
	for i := range s.Notes {
		n := &s.Notes[i]
		extract.Annotate(n)
		for _, p := range n.People {
			people[p] = struct{}{}
		}
		for _, t := range n.Tags {
			tags[t] = struct{}{}
		}
		key := UncategorizedKey
		if n.Category != "" {
			key = string(n.Category)
		}
		s.ByCategory[key] = append(s.ByCategory[key], n.Path)
		if n.Modified.After(s.LastModified) {
			s.LastModified = n.Modified
		}
	}
	s.AllPeople = setToSorted(people)
	s.AllTags = setToSorted(tags)

	return s
}

// load reads one file if it falls inside the window. It returns nil for
// stale or unreadable files.
func (r *Reader) load(ctx context.Context, p string, now, cutoff time.Time) *models.Note {
	filename := path.Base(p)
	isJournal := strings.HasPrefix(p, JournalDir)
	isArea := strings.HasPrefix(p, AreasDir)

	var entryDate string
	if isJournal {
		entryDate, _ = parser.JournalDate(filename)
	}

	modified, err := r.src.Modified(ctx, p)
	if err != nil {
		slog.Debug("vault: modified time unavailable", slog.String("path", p), slog.String("error", err.Error()))
		modified = now
	}

	fileDate := modified
	if entryDate != "" {
		if d, err := time.Parse(time.DateOnly, entryDate); err == nil {
			fileDate = d
		}
	}
	if fileDate.Before(cutoff) && modified.Before(cutoff) {
		return nil
	}

	data, err := r.src.Read(ctx, p)
	if err != nil {
		slog.Warn("vault: read failed", slog.String("path", p), slog.String("error", err.Error()))
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	parsed := parser.Parse(data)

	source := models.SourceNotes
	switch {
	case isJournal:
		source = models.SourceJournal
	case isArea:
		source = models.SourceArea
	}

	return &models.Note{
		Path:        p,
		Filename:    filename,
		Content:     parsed.Body,
		Frontmatter: parsed.Frontmatter,
		Modified:    modified,
		EntryDate:   entryDate,
		IsJournal:   isJournal,
		IsArea:      isArea,
		Source:      source,
	}
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
