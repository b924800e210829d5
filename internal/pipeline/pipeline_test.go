package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifedash/internal/activity"
	"github.com/starford/lifedash/internal/analysis"
	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/sse"
	"github.com/starford/lifedash/internal/store"
	"github.com/starford/lifedash/internal/testutil"
)

const scenarioReply = "```json\n" + `{
  "timeline_entries": [
    {"id": "tl-1", "date": "2026-10-18", "category": "work", "title": "Pilot", "content": "Signed the pilot", "significance": "notable"}
  ],
  "quadrant_updates": {
    "work": {"status": "thriving", "lastActivity": "2026-10-18", "activityPulse": true, "metrics": {"commits": 3}},
    "travel": {"status": "dormant", "lastActivity": "2026-08-01", "activityPulse": false}
  },
  "right_now": {
    "summary": "Good week",
    "valuesAlignment": {"score": 80, "livingWell": ["building"], "needsAttention": [], "note": ""},
    "actionables": [],
    "celebration": "Pilot",
    "friendlyNote": "Rest",
    "quadrantStatuses": {"work": "neglected"},
    "balanceCheck": "ok"
  },
  "extracted_goals": [{"id": "g-1", "text": "Ship v2", "category": "work", "progress": 40}],
  "extracted_inspiration": [{"id": "i-1", "category": "movement", "type": "video", "title": "Storror", "content": "https://example.com/v"}]
}` + "\n```"

type fakeAnalyzer struct {
	configured bool
	reply      string
	err        error
	gate       chan struct{}
	calls      atomic.Int32

	mu       sync.Mutex
	lastUser string
}

func (f *fakeAnalyzer) IsConfigured() bool { return f.configured }

func (f *fakeAnalyzer) Analyze(ctx context.Context, _, user string) (json.RawMessage, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastUser = user
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return analysis.ParseResponse(f.reply)
}

type staticActivity activity.Summary

func (s staticActivity) Summary(context.Context) activity.Summary { return activity.Summary(s) }

type recordingNotifier struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingNotifier) Publish(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(t *testing.T) *store.DB {
	t.Helper()
	db := testutil.TestDB(t)
	require.NoError(t, db.EnsureQuadrants(context.Background(), models.DefaultQuadrants))
	return db
}

func addManual(t *testing.T, db *store.DB, ids ...string) {
	t.Helper()
	for i, id := range ids {
		require.NoError(t, db.CreateManualEntry(context.Background(), models.ManualEntry{
			ID:        id,
			Content:   "manual note " + id,
			Category:  models.CategoryWork,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestRun_Scenario(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)
	addManual(t, db, "m1", "m2")
	require.NoError(t, db.SaveMetadata(ctx, models.ProcessingMetadata{TotalEntriesProcessed: 5}))

	an := &fakeAnalyzer{configured: true, reply: scenarioReply}
	notifier := &recordingNotifier{}
	s := New(db, an,
		WithActivity(staticActivity{HasActivity: true, Commits: 3, Repos: []string{"lifedash"}, Streak: 2}),
		WithNotifier(notifier),
		WithLogger(quietLogger()),
	)

	res := s.Run(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, CodeOK, res.Code)
	assert.Equal(t, StageDone, res.Stage)
	assert.True(t, res.OK())
	assert.Equal(t, 1, res.Stats.TimelineEntries)
	assert.Equal(t, 2, res.Stats.ManualEntriesProcessed)
	assert.Equal(t, 2, res.Stats.QuadrantsUpdated)
	assert.Equal(t, 1, res.Stats.GoalsExtracted)
	assert.Equal(t, 1, res.Stats.InspirationExtracted)

	entry, err := db.TimelineEntry(ctx, "tl-1")
	require.NoError(t, err)
	assert.Equal(t, models.SignificanceNotable, entry.Significance)

	pending, err := db.ManualEntries(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, pending)

	meta, err := db.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, meta.TotalEntriesProcessed)
	assert.NotNil(t, meta.LastProcessed)

	n, err := db.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snap, err := db.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Category]models.Status{
		models.CategoryWork:   models.StatusThriving,
		models.CategoryTravel: models.StatusDormant,
	}, snap.QuadrantStatuses)
	assert.Equal(t, map[string]any{"balanceCheck": "ok"}, snap.Extra)
	assert.Equal(t, res.Stats.SnapshotID, snap.ID)

	work, err := db.Quadrant(ctx, models.CategoryWork)
	require.NoError(t, err)
	assert.Equal(t, models.StatusThriving, work.Status)
	assert.True(t, work.ActivityPulse)

	goal, err := db.Goal(ctx, "g-1")
	require.NoError(t, err)
	require.NotNil(t, goal.Progress)
	assert.Equal(t, 40, *goal.Progress)

	an.mu.Lock()
	user := an.lastUser
	an.mu.Unlock()
	assert.Contains(t, user, "Commits: 3")
	assert.Contains(t, user, "Current streak: 2 days")
	assert.Contains(t, user, "[work] manual note m1")
	assert.Contains(t, user, "[work] manual note m2")

	require.Len(t, notifier.events, 1)
	assert.Equal(t, sse.EventRefreshCompleted, notifier.events[0].Type)
}

func TestRun_TwiceIsIdempotentAndAppendsSnapshots(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)
	s := New(db, &fakeAnalyzer{configured: true, reply: scenarioReply}, WithLogger(quietLogger()))

	first := s.Run(ctx)
	require.True(t, first.OK(), first.Error())
	second := s.Run(ctx)
	require.True(t, second.OK(), second.Error())

	count, err := db.CountTimeline(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err := db.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	latest, err := db.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Stats.SnapshotID, latest.ID)

	goals, err := db.Goals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	meta, _ := db.Metadata(ctx)
	assert.Equal(t, 2, meta.TotalEntriesProcessed)
	assert.Equal(t, 0, second.Stats.ManualEntriesProcessed)
}

func TestRun_NotConfigured(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)
	addManual(t, db, "m1")
	an := &fakeAnalyzer{configured: false}
	notifier := &recordingNotifier{}

	res := New(db, an, WithNotifier(notifier), WithLogger(quietLogger())).Run(ctx)
	assert.Equal(t, CodeNotConfigured, res.Code)
	assert.True(t, errors.Is(res.Err, apperr.ErrNotConfigured))
	assert.False(t, res.OK())
	assert.Zero(t, an.calls.Load())

	pending, _ := db.ManualEntries(ctx, true)
	assert.Len(t, pending, 1)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, sse.EventRefreshFailed, notifier.events[0].Type)
}

func TestRun_ModelOutputFailuresPersistNothing(t *testing.T) {
	tests := []struct {
		name  string
		an    *fakeAnalyzer
		code  Code
		stage Stage
	}{
		{"unparseable", &fakeAnalyzer{configured: true, reply: "Sorry, I can't."}, CodeAnalysisFailed, StageAnalyze},
		{"request error", &fakeAnalyzer{configured: true, err: analysis.ErrRequest}, CodeAnalysisFailed, StageAnalyze},
		{"missing keys", &fakeAnalyzer{configured: true, reply: `{"timeline_entries": []}`}, CodeValidationFailed, StageValidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := seeded(t)
			addManual(t, db, "m1")

			res := New(db, tt.an, WithLogger(quietLogger())).Run(ctx)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.stage, res.Stage)
			assert.Error(t, res.Err)

			n, _ := db.CountSnapshots(ctx)
			assert.Zero(t, n)
			pending, _ := db.ManualEntries(ctx, true)
			assert.Len(t, pending, 1)
			meta, _ := db.Metadata(ctx)
			assert.Nil(t, meta.LastProcessed)
		})
	}
}

const looselyTypedReply = `{
  "timeline_entries": [
    {"id": 7, "date": "2026-10-18", "category": "work", "title": "Pilot", "content": "Signed", "significance": "major"},
    {"id": "tl-bad", "date": "2026-10-18", "category": "work", "title": {"text": "nested"}, "content": "x"}
  ],
  "quadrant_updates": {
    "work": {"status": "thriving", "lastActivity": "2026-10-18", "activityPulse": "true"}
  },
  "right_now": {
    "summary": "Good week",
    "valuesAlignment": {"score": "85", "livingWell": "building", "needsAttention": [], "note": ""},
    "actionables": [{"id": 1, "text": "Rest", "priority": "high", "effort": "low", "impact": 3}],
    "celebration": "Pilot",
    "friendlyNote": "Rest"
  },
  "extracted_goals": [{"id": "g-1", "text": "Ship v2", "category": "work", "progress": "50"}],
  "extracted_inspiration": []
}`

func TestRun_LooselyTypedFieldsStillPersist(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)

	res := New(db, &fakeAnalyzer{configured: true, reply: looselyTypedReply}, WithLogger(quietLogger())).Run(ctx)
	require.True(t, res.OK(), res.Error())
	assert.Equal(t, CodeOK, res.Code)
	assert.Equal(t, 1, res.Stats.TimelineEntries)

	snap, err := db.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 85.0, snap.ValuesAlignment.Score)
	assert.Equal(t, []string{"building"}, snap.ValuesAlignment.LivingWell)
	require.Len(t, snap.Actionables, 1)
	assert.Equal(t, "1", snap.Actionables[0].ID)
	assert.Equal(t, "3", snap.Actionables[0].Impact)

	entry, err := db.TimelineEntry(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Pilot", entry.Title)

	work, err := db.Quadrant(ctx, models.CategoryWork)
	require.NoError(t, err)
	assert.True(t, work.ActivityPulse)

	goal, err := db.Goal(ctx, "g-1")
	require.NoError(t, err)
	require.NotNil(t, goal.Progress)
	assert.Equal(t, 50, *goal.Progress)
}

func TestRun_BusyWhenLeaseHeld(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)
	ok, err := db.AcquireLease(ctx, LeaseName, "other-process", time.Hour, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	an := &fakeAnalyzer{configured: true, reply: scenarioReply}
	res := New(db, an, WithLogger(quietLogger())).Run(ctx)
	assert.Equal(t, CodeBusy, res.Code)
	assert.True(t, errors.Is(res.Err, apperr.ErrBusy))
	assert.Zero(t, an.calls.Load())
}

func TestRun_ReleasesLease(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)
	res := New(db, &fakeAnalyzer{configured: true, reply: scenarioReply}, WithLogger(quietLogger())).Run(ctx)
	require.True(t, res.OK())

	ok, err := db.AcquireLease(ctx, LeaseName, "next", time.Minute, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_SkipsMissingQuadrantRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.TestDB(t)
	require.NoError(t, db.SaveQuadrant(ctx, models.Quadrant{Category: models.CategoryWork, Name: "Work", Status: models.StatusBalanced}))

	res := New(db, &fakeAnalyzer{configured: true, reply: scenarioReply}, WithLogger(quietLogger())).Run(ctx)
	require.Equal(t, CodeOK, res.Code, res.Error())
	assert.Equal(t, 1, res.Stats.QuadrantsUpdated)

	qs, err := db.Quadrants(ctx)
	require.NoError(t, err)
	assert.Len(t, qs, 1)
}

type failingGoals struct {
	*store.DB
}

func (failingGoals) MergeGoal(context.Context, models.Goal) error {
	return errors.New("disk full")
}

func TestRun_PersistenceFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	db := seeded(t)
	addManual(t, db, "m1")

	res := New(failingGoals{db}, &fakeAnalyzer{configured: true, reply: scenarioReply}, WithLogger(quietLogger())).Run(ctx)
	assert.Equal(t, CodePartial, res.Code)
	assert.True(t, res.OK())
	assert.Equal(t, 1, res.Stats.Failures)
	assert.Equal(t, 0, res.Stats.GoalsExtracted)

	n, _ := db.CountSnapshots(ctx)
	assert.Equal(t, 1, n)
	pending, _ := db.ManualEntries(ctx, true)
	assert.Empty(t, pending)
	meta, _ := db.Metadata(ctx)
	assert.Equal(t, 1, meta.TotalEntriesProcessed)
}

func TestRun_Timeout(t *testing.T) {
	db := seeded(t)
	an := &fakeAnalyzer{configured: true, reply: scenarioReply, gate: make(chan struct{})}
	s := New(db, an, WithLogger(quietLogger()), WithConfig(Config{RunTimeout: 50 * time.Millisecond}))

	res := s.Run(context.Background())
	assert.Equal(t, CodeTimeout, res.Code)
	assert.Equal(t, StageAnalyze, res.Stage)

	n, _ := db.CountSnapshots(context.Background())
	assert.Zero(t, n)
}

func TestRun_ConcurrentCallsShareOneCycle(t *testing.T) {
	db := seeded(t)
	an := &fakeAnalyzer{configured: true, reply: scenarioReply, gate: make(chan struct{})}
	s := New(db, an, WithLogger(quietLogger()))

	results := make([]Result, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Run(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return an.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(an.gate)
	wg.Wait()

	assert.Equal(t, int32(1), an.calls.Load())
	assert.Equal(t, results[0].RunID, results[1].RunID)
	n, _ := db.CountSnapshots(context.Background())
	assert.Equal(t, 1, n)
}

func TestProgress(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	near := models.TimeframeNear

	assert.Nil(t, progress(analysis.Goal{Timeframe: near}))
	assert.Nil(t, progress(analysis.Goal{Timeframe: near, Progress: f(0)}))
	assert.Nil(t, progress(analysis.Goal{Timeframe: models.TimeframeFar, Progress: f(50)}))
	assert.Equal(t, 43, *progress(analysis.Goal{Timeframe: near, Progress: f(42.5)}))
	assert.Equal(t, 100, *progress(analysis.Goal{Timeframe: near, Progress: f(140)}))
}
