package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/store"
	"github.com/starford/lifedash/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newLoader(t *testing.T, dir string) (*Loader, *store.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	l := NewLoader(db, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return l, db
}

const quadrantsJSON = `{
  "work": {
    "name": "Work & Innovation",
    "color": "#9B59B6",
    "status": "thriving",
    "lastActivity": "2026-10-17",
    "activityPulse": true,
    "metrics": {"projects": 2},
    "githubStats": {"commits": 12, "repos": ["lifedash"], "streak": 3},
    "currentFocus": "pilot launch"
  },
  "parkour": {
    "name": "Parkour",
    "color": "#4ECDC4",
    "skills": [{"name": "kong", "status": "learning", "firstMentioned": "2026-09-01", "lastMentioned": "2026-10-10"}]
  }
}`

const goalsJSON = `{
  "nearFuture": [{"id": "g-1", "text": "Ship v2", "category": "work", "progress": 40, "createdAt": "2026-09-01"}],
  "farFuture": [{"id": "g-2", "text": "Live in Japan", "progress": 10}],
  "values": ["Enjoying life", "Building things"]
}`

func TestLoad_AllDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quadrants.json", quadrantsJSON)
	writeFile(t, dir, "timeline.json", `[
		{"id": "tl-1", "date": "2026-10-01", "category": "work", "title": "Kickoff", "content": "Started"},
		{"id": "tl-2", "date": "2026-10-05", "category": "travel", "title": "Osaka", "content": "Booked", "significance": "major"}
	]`)
	writeFile(t, dir, "goals.json", goalsJSON)
	writeFile(t, dir, "inspiration.json", `[{"id": "i-1", "category": "movement", "type": "video", "title": "Flow", "content": "https://example.com/v"}]`)
	writeFile(t, dir, "right_now.json", `{"weekOf": "2026-10-12", "summary": "Steady", "quadrantStatuses": {"work": "thriving"}, "balanceCheck": "fine"}`)
	writeFile(t, dir, "metadata.json", `{"lastProcessed": "2026-10-12T08:00:00Z", "totalEntriesProcessed": 7}`)
	writeFile(t, dir, "manual_entries.json", `[
		{"content": "Old note", "category": "work", "processed": true, "createdAt": "2026-10-01T10:00:00Z"},
		{"content": "Fresh note", "category": "parkour"}
	]`)

	l, db := newLoader(t, dir)
	ctx := context.Background()

	r, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Quadrants)
	assert.Equal(t, 2, r.Timeline)
	assert.Equal(t, 2, r.Goals)
	assert.Equal(t, 2, r.Values)
	assert.Equal(t, 1, r.Inspiration)
	assert.Equal(t, 1, r.Snapshots)
	assert.True(t, r.Metadata)
	assert.Equal(t, 2, r.ManualEntries)
	assert.Empty(t, r.Skipped)

	work, err := db.Quadrant(ctx, models.CategoryWork)
	require.NoError(t, err)
	assert.Equal(t, models.StatusThriving, work.Status)
	require.NotNil(t, work.GitHubStats)
	assert.Equal(t, 12, work.GitHubStats.Commits)
	assert.Equal(t, map[string]any{"currentFocus": "pilot launch"}, work.Extra)

	parkour, err := db.Quadrant(ctx, models.CategoryParkour)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeedsAttention, parkour.Status)
	assert.Nil(t, parkour.Extra)
	require.Len(t, parkour.Skills, 1)

	tl, err := db.TimelineEntry(ctx, "tl-1")
	require.NoError(t, err)
	assert.Equal(t, models.SignificanceMinor, tl.Significance)

	far, err := db.Goal(ctx, "g-2")
	require.NoError(t, err)
	assert.Nil(t, far.Progress)
	near, err := db.Goal(ctx, "g-1")
	require.NoError(t, err)
	require.NotNil(t, near.Progress)
	assert.Equal(t, 40, *near.Progress)
	assert.Equal(t, "2026-09-01", near.CreatedAt.Format(time.DateOnly))

	values, err := db.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enjoying life", "Building things"}, values)

	snap, err := db.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", snap.WeekOf)
	assert.Equal(t, map[string]any{"balanceCheck": "fine"}, snap.Extra)
	assert.NotEmpty(t, snap.LastUpdated)

	meta, err := db.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, meta.TotalEntriesProcessed)
	require.NotNil(t, meta.LastProcessed)

	pending, err := db.ManualEntries(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Fresh note", pending[0].Content)
}

func TestLoad_Twice(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "goals.json", goalsJSON)
	writeFile(t, dir, "manual_entries.json", `[{"content": "Once", "category": "work", "createdAt": "2026-10-01"}]`)
	writeFile(t, dir, "right_now.json", `{"summary": "s"}`)

	l, db := newLoader(t, dir)
	ctx := context.Background()

	_, err := l.Load(ctx)
	require.NoError(t, err)
	r, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, r.ManualEntries)

	goals, err := db.Goals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 2)
	entries, err := db.ManualEntries(ctx, false)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	n, err := db.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoad_MissingFilesSkipped(t *testing.T) {
	l, _ := newLoader(t, t.TempDir())

	r, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, r.Skipped, 7)
	assert.Zero(t, r.Quadrants)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "timeline.yaml", `
- id: tl-y
  date: 2026-10-03
  category: parkour
  title: Rail balance
  content: Two minutes on the rail
`)
	l, db := newLoader(t, dir)

	r, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Timeline)

	e, err := db.TimelineEntry(context.Background(), "tl-y")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-03", e.Date)
	assert.Equal(t, models.CategoryParkour, e.Category)
}

func TestLoad_MalformedAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "timeline.json", `{"not": "a list"}`)

	l, _ := newLoader(t, dir)
	_, err := l.Load(context.Background())
	assert.ErrorContains(t, err, "seed: timeline")
}

func TestLoad_EntryWithoutID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inspiration.json", `[{"category": "people", "type": "quote", "title": "x", "content": "y"}]`)

	l, _ := newLoader(t, dir)
	_, err := l.Load(context.Background())
	assert.Error(t, err)
}
