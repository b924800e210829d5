package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifedash/internal/extract"
	"github.com/starford/lifedash/internal/github"
	"github.com/starford/lifedash/internal/models"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

type fakeFile struct {
	modified time.Time
	content  string
	readErr  error
}

type fakeSource struct {
	order   []string
	files   map[string]fakeFile
	listErr error
}

func (f *fakeSource) Files(context.Context) ([]string, error) {
	return f.order, f.listErr
}

func (f *fakeSource) Modified(_ context.Context, p string) (time.Time, error) {
	ff, ok := f.files[p]
	if !ok {
		return time.Time{}, errors.New("missing")
	}
	return ff.modified, nil
}

func (f *fakeSource) Read(_ context.Context, p string) ([]byte, error) {
	ff := f.files[p]
	if ff.readErr != nil {
		return nil, ff.readErr
	}
	return []byte(ff.content), nil
}

func newFake() *fakeSource {
	files := map[string]fakeFile{
		"_Journal/2026-10-17.md": {day(2026, 10, 17), "Great parkour training session, worked on kong vaults.", nil},
		"_Journal/2026-10-10.md": {day(2026, 9, 1), "Tired but happy.", nil},
		"_Journal/2026-09-01.md": {day(2026, 10, 16), "---\ntags: [Plans]\n---\nPlanning the japan trip with @Ula", nil},
		"_Journal/2026-08-01.md": {day(2026, 8, 1), "old journal", nil},
		"Projects/startup.md":    {day(2026, 10, 15), "Pilot with customers for the startup #work", nil},
		"_Areas/Friends.md":      {day(2026, 10, 12), "Lunch with Marco.", nil},
		"old.md":                 {day(2026, 1, 1), "stale", nil},
		"broken.md":              {day(2026, 10, 17), "", errors.New("read failed")},
	}
	return &fakeSource{
		order: []string{
			"Projects/startup.md",
			"_Areas/Friends.md",
			"_Journal/2026-08-01.md",
			"_Journal/2026-09-01.md",
			"_Journal/2026-10-10.md",
			"_Journal/2026-10-17.md",
			"broken.md",
			"old.md",
		},
		files: files,
	}
}

func newTestReader(src Source) *Reader {
	r := NewReader(src, 14*24*time.Hour)
	r.now = func() time.Time { return now }
	return r
}

func TestReader_Summary(t *testing.T) {
	s := newTestReader(newFake()).Summary(context.Background())

	require.Equal(t, 5, s.TotalNotes)
	assert.Equal(t, 3, s.JournalEntries)
	assert.Equal(t, 2, s.OtherNotes)

	var paths []string
	for _, n := range s.Notes {
		paths = append(paths, n.Path)
	}
	assert.Equal(t, []string{
		"_Journal/2026-10-17.md",
		"_Journal/2026-10-10.md",
		"_Journal/2026-09-01.md",
		"Projects/startup.md",
		"_Areas/Friends.md",
	}, paths)

	assert.Equal(t, []string{"_Journal/2026-10-17.md"}, s.ByCategory["parkour"])
	assert.Equal(t, []string{"_Journal/2026-09-01.md"}, s.ByCategory["travel"])
	assert.Equal(t, []string{"Projects/startup.md"}, s.ByCategory["work"])
	assert.Equal(t, []string{"_Areas/Friends.md"}, s.ByCategory["relationships"])
	assert.Equal(t, []string{"_Journal/2026-10-10.md"}, s.ByCategory[UncategorizedKey])

	assert.Equal(t, []string{"Marco", "Ula"}, s.AllPeople)
	assert.Equal(t, []string{"plans", "work"}, s.AllTags)

	require.NotNil(t, s.Mood)
	assert.Equal(t, extract.MoodBalanced, s.Mood.Mood)
	assert.InDelta(t, 0.25, s.Mood.Score, 1e-9)

	assert.True(t, s.LastModified.Equal(day(2026, 10, 17)))
}

func TestReader_NoteFields(t *testing.T) {
	s := newTestReader(newFake()).Summary(context.Background())

	journal := s.Notes[2]
	assert.True(t, journal.IsJournal)
	assert.Equal(t, models.SourceJournal, journal.Source)
	assert.Equal(t, "2026-09-01", journal.EntryDate)
	assert.Equal(t, "2026-09-01.md", journal.Filename)
	assert.Equal(t, "Planning the japan trip with @Ula", journal.Content)
	assert.Equal(t, models.CategoryTravel, journal.Category)

	area := s.Notes[4]
	assert.True(t, area.IsArea)
	assert.Equal(t, models.SourceArea, area.Source)
	assert.Empty(t, area.EntryDate)

	assert.Equal(t, models.SourceNotes, s.Notes[3].Source)
}

func TestReader_ListFailureIsEmpty(t *testing.T) {
	src := &fakeSource{listErr: errors.New("down")}
	s := newTestReader(src).Summary(context.Background())
	assert.Zero(t, s.TotalNotes)
	assert.Nil(t, s.Mood)
	assert.Empty(t, s.Notes)
	assert.Contains(t, s.ByCategory, UncategorizedKey)
}

func TestReader_ModifiedUnknownCountsAsNow(t *testing.T) {
	src := &fakeSource{
		order: []string{"ghost.md"},
		files: map[string]fakeFile{},
	}
	// Modified fails for ghost.md, so it is treated as fresh; Read then
	// returns empty content and the note is skipped.
	s := newTestReader(src).Summary(context.Background())
	assert.Zero(t, s.TotalNotes)
}

type fakeGitHubAPI struct {
	tree []github.TreeEntry
}

func (f fakeGitHubAPI) Tree(context.Context, string, string) ([]github.TreeEntry, error) {
	return f.tree, nil
}

func (f fakeGitHubAPI) Contents(_ context.Context, _ string, p string) ([]byte, error) {
	return []byte("content of " + p), nil
}

func (f fakeGitHubAPI) LastCommitDate(context.Context, string, string) (time.Time, error) {
	return now, nil
}

func TestGitHub_FilesFiltersAndCaps(t *testing.T) {
	api := fakeGitHubAPI{tree: []github.TreeEntry{
		{Path: "_Journal", Type: "tree"},
		{Path: "_Journal/2026-10-17.md", Type: "blob"},
		{Path: "img.png", Type: "blob"},
		{Path: "a.md", Type: "blob"},
		{Path: "b.md", Type: "blob"},
	}}
	g := NewGitHub(api, "me/vault", "", 2)

	files, err := g.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"_Journal/2026-10-17.md", "a.md"}, files)

	data, err := g.Read(context.Background(), "a.md")
	require.NoError(t, err)
	assert.Equal(t, "content of a.md", string(data))
}

func TestGitHub_ThroughReader(t *testing.T) {
	api := fakeGitHubAPI{tree: []github.TreeEntry{{Path: "_Journal/2026-10-18.md", Type: "blob"}}}
	s := newTestReader(NewGitHub(api, "me/vault", "main", 0)).Summary(context.Background())
	require.Equal(t, 1, s.JournalEntries)
	assert.Equal(t, "2026-10-18", s.Notes[0].EntryDate)
}
