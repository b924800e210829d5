package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/search"
	"github.com/starford/lifedash/internal/sse"
	"github.com/starford/lifedash/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingNotifier) Publish(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	db := testutil.TestDB(t)
	require.NoError(t, db.EnsureQuadrants(context.Background(), models.DefaultQuadrants))

	idx, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	n := &recordingNotifier{}
	svc := NewService(db, idx, n, nil)
	svc.now = func() time.Time { return fixedNow }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc, n
}

func TestRightNow_PlaceholderBeforeFirstCycle(t *testing.T) {
	svc, _ := newTestService(t)

	rn, err := svc.RightNow(context.Background())
	require.NoError(t, err)
	assert.True(t, rn.Placeholder)
	assert.Equal(t, "2026-10-18", rn.WeekOf)
	assert.Len(t, rn.QuadrantStatuses, 4)
	assert.Equal(t, models.StatusNeedsAttention, rn.QuadrantStatuses[models.CategoryWork])
}

func TestRightNow_Latest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, summary := range []string{"first", "second"} {
		_, err := svc.repo.InsertSnapshot(ctx, models.RightNowSnapshot{
			WeekOf:    "2026-10-18",
			Summary:   summary,
			CreatedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	rn, err := svc.RightNow(ctx)
	require.NoError(t, err)
	assert.False(t, rn.Placeholder)
	assert.Equal(t, "second", rn.Summary)
}

func TestAddManualEntry(t *testing.T) {
	svc, n := newTestService(t)
	ctx := context.Background()

	e, err := svc.AddManualEntry(ctx, ManualEntryInput{Content: "  Trained kongs  ", Category: models.CategoryParkour})
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, "Trained kongs", e.Content)
	assert.False(t, e.Processed)

	pending, err := svc.ManualEntries(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.CategoryParkour, pending[0].Category)

	require.Len(t, n.events, 1)
	assert.Equal(t, sse.EventManualEntryAdded, n.events[0].Type)
}

func TestAddManualEntry_Invalid(t *testing.T) {
	svc, n := newTestService(t)
	ctx := context.Background()

	cases := []ManualEntryInput{
		{Category: models.CategoryWork},
		{Content: "no category"},
		{Content: "bad category", Category: "cooking"},
	}
	for _, in := range cases {
		_, err := svc.AddManualEntry(ctx, in)
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "input %+v: %v", in, err)
	}

	entries, err := svc.ManualEntries(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, n.events)
}

func TestGoals_SplitAndValues(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Goals(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.NearFuture)
	assert.Empty(t, view.FarFuture)
	assert.Equal(t, models.DefaultValues, view.Values)

	progress := 30
	_, err = svc.CreateGoal(ctx, GoalInput{Text: "Run a 10k", Timeframe: models.TimeframeNear, Progress: &progress})
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = svc.CreateGoal(ctx, GoalInput{Text: "Learn to cook", Timeframe: models.TimeframeNear})
	require.NoError(t, err)
	_, err = svc.CreateGoal(ctx, GoalInput{Text: "Live in Japan", Category: models.CategoryTravel, Timeframe: models.TimeframeFar})
	require.NoError(t, err)

	require.NoError(t, svc.repo.ReplaceValues(ctx, []string{"Kindness"}))

	view, err = svc.Goals(ctx)
	require.NoError(t, err)
	require.Len(t, view.NearFuture, 2)
	assert.Equal(t, "Learn to cook", view.NearFuture[0].Text)
	assert.Equal(t, "Run a 10k", view.NearFuture[1].Text)
	require.NotNil(t, view.NearFuture[1].Progress)
	assert.Equal(t, 30, *view.NearFuture[1].Progress)
	require.Len(t, view.FarFuture, 1)
	assert.Equal(t, []string{"Kindness"}, view.Values)
}

func TestCreateGoal_RejectsFarProgress(t *testing.T) {
	svc, _ := newTestService(t)
	p := 10
	_, err := svc.CreateGoal(context.Background(), GoalInput{Text: "Someday", Timeframe: models.TimeframeFar, Progress: &p})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPatchGoal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, GoalInput{Text: "Ship v2", Timeframe: models.TimeframeNear})
	require.NoError(t, err)

	done := true
	got, err := svc.PatchGoal(ctx, g.ID, GoalPatchInput{Completed: &done})
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)

	text := "Ship v2.1"
	got, err = svc.PatchGoal(ctx, g.ID, GoalPatchInput{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "Ship v2.1", got.Text)
	assert.True(t, got.Completed)

	_, err = svc.PatchGoal(ctx, g.ID, GoalPatchInput{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	over := 101
	_, err = svc.PatchGoal(ctx, g.ID, GoalPatchInput{Progress: &over})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.PatchGoal(ctx, "missing", GoalPatchInput{Completed: &done})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeleteGoal(ctx, g.ID))
	assert.ErrorIs(t, svc.DeleteGoal(ctx, g.ID), apperr.ErrNotFound)
}

func TestAddInspiration_IndexedAndDated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	it, err := svc.AddInspiration(ctx, InspirationInput{
		Category: models.InspirationMovement,
		Type:     models.TypeVideo,
		Title:    "Rooftop flow",
		Content:  "https://example.com/flow",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", it.AddedAt)

	items, err := svc.Inspiration(ctx, models.InspirationMovement)
	require.NoError(t, err)
	require.Len(t, items, 1)

	results, err := svc.Search(ctx, "rooftop", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, search.KindInspiration, results[0].Kind)
	assert.Equal(t, it.ID, results[0].ID)
}

func TestAddTimelineEntry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	e, err := svc.AddTimelineEntry(ctx, TimelineInput{
		Date:     "2026-10-17",
		Category: models.CategoryTravel,
		Title:    "Booked Osaka",
		Content:  "Flights for March",
	})
	require.NoError(t, err)
	assert.Equal(t, "manual-id-1", e.ID)
	assert.Equal(t, models.SignificanceMinor, e.Significance)

	_, err = svc.AddTimelineEntry(ctx, TimelineInput{Date: "17/10/2026", Category: models.CategoryTravel, Title: "x", Content: "y"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	entries, err := svc.Timeline(ctx, models.CategoryTravel, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.Timeline(ctx, "cooking", 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	results, err := svc.Search(ctx, "osaka", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, search.KindTimeline, results[0].Kind)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Search(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDashboard_Bundle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddTimelineEntry(ctx, TimelineInput{Date: "2026-10-01", Category: models.CategoryWork, Title: "Kickoff", Content: "Started"})
	require.NoError(t, err)

	b, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, b.Quadrants, 4)
	assert.Equal(t, "Work & Innovation", b.Quadrants[models.CategoryWork].Name)
	assert.True(t, b.RightNow.Placeholder)
	assert.Len(t, b.Timeline, 1)
	assert.Equal(t, models.DefaultValues, b.Goals.Values)
	assert.NotNil(t, b.Inspiration)
	assert.Equal(t, "1.0", b.Metadata.Version)
}
