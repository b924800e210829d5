package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/starford/lifedash/internal/analysis"
	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

// persist applies an analysis result step by step. Each step runs even when
// an earlier one failed; failures are logged and counted.
func (s *Synchronizer) persist(ctx context.Context, log *slog.Logger, r *analysis.Result, in gathered) Stats {
	var st Stats
	now := s.now().UTC()
	today := now.Format(time.DateOnly)

	fail := func(what, id string, err error) {
		st.Failures++
		log.Warn("pipeline: persist failed",
			slog.String("entity", what),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	// Timeline entries, upserted by id.
	for _, e := range r.TimelineEntries {
		entry := models.TimelineEntry{
			ID:           e.ID,
			Date:         e.Date,
			Category:     e.Category,
			Title:        e.Title,
			Content:      e.Content,
			Significance: e.Significance,
		}
		if err := s.store.UpsertTimelineEntry(ctx, entry); err != nil {
			fail("timeline", e.ID, err)
			continue
		}
		st.TimelineEntries++
		s.indexTimeline(log, entry)
	}

	// Quadrants, updated in place only where a row already exists.
	prior := make(map[models.Category]models.Status, len(in.quadrants))
	for _, q := range in.quadrants {
		prior[q.Category] = q.Status
	}
	for _, cat := range updateOrder(r.QuadrantUpdates) {
		u := r.QuadrantUpdates[cat]
		expected, ok := prior[cat]
		if !ok {
			log.Debug("pipeline: no quadrant row, update skipped", slog.String("category", string(cat)))
			continue
		}
		err := s.store.UpdateQuadrant(ctx, cat, expected, models.QuadrantUpdate{
			Status:        u.Status,
			LastActivity:  u.LastActivity,
			ActivityPulse: u.ActivityPulse,
			Metrics:       u.Metrics,
		})
		switch {
		case err == nil:
			st.QuadrantsUpdated++
		case errors.Is(err, apperr.ErrNotFound):
			log.Debug("pipeline: quadrant row vanished, update skipped", slog.String("category", string(cat)))
		default:
			fail("quadrant", string(cat), err)
		}
	}

	// A new snapshot every cycle. Statuses come from the quadrant updates.
	statuses := make(map[models.Category]models.Status, len(r.QuadrantUpdates))
	for cat, u := range r.QuadrantUpdates {
		statuses[cat] = u.Status
	}
	actionables := r.RightNow.Actionables
	if actionables == nil {
		actionables = []models.Actionable{}
	}
	snapID, err := s.store.InsertSnapshot(ctx, models.RightNowSnapshot{
		WeekOf:           today,
		LastUpdated:      now.Format(time.RFC3339),
		QuadrantStatuses: statuses,
		Summary:          r.RightNow.Summary,
		ValuesAlignment:  r.RightNow.ValuesAlignment,
		Actionables:      actionables,
		Celebration:      r.RightNow.Celebration,
		FriendlyNote:     r.RightNow.FriendlyNote,
		Extra:            r.RightNow.Extra,
		CreatedAt:        now,
	})
	if err != nil {
		fail("snapshot", "", err)
	} else {
		st.SnapshotID = snapID
	}

	// Goals, merged by id.
	for _, g := range r.Goals {
		goal := models.Goal{
			ID:        g.ID,
			Text:      g.Text,
			Category:  g.Category,
			Timeframe: g.Timeframe,
			Progress:  progress(g),
			CreatedAt: now,
		}
		if err := s.store.MergeGoal(ctx, goal); err != nil {
			fail("goal", g.ID, err)
			continue
		}
		st.GoalsExtracted++
	}

	// Inspiration, merged by id.
	for _, it := range r.Inspiration {
		item := models.InspirationItem{
			ID:       it.ID,
			Category: it.Category,
			Type:     it.Type,
			Title:    it.Title,
			Content:  it.Content,
			Source:   it.Source,
			AddedAt:  today,
		}
		if err := s.store.MergeInspiration(ctx, item); err != nil {
			fail("inspiration", it.ID, err)
			continue
		}
		st.InspirationExtracted++
		s.indexInspiration(log, item)
	}

	// Every manual entry gathered for this cycle is consumed.
	if len(in.manual) > 0 {
		ids := make([]string, len(in.manual))
		for i, e := range in.manual {
			ids[i] = e.ID
		}
		n, err := s.store.MarkProcessed(ctx, ids)
		if err != nil {
			fail("manual_entries", "", err)
		}
		st.ManualEntriesProcessed = n
	}

	var scanned *time.Time
	if !in.notes.LastModified.IsZero() {
		t := in.notes.LastModified
		scanned = &t
	}
	if err := s.store.RecordRun(ctx, now, scanned, st.TimelineEntries); err != nil {
		fail("metadata", "singleton", err)
	}

	return st
}

// updateOrder lists update categories in canonical order, then any unknown
// ones sorted.
func updateOrder(updates map[models.Category]analysis.QuadrantUpdate) []models.Category {
	out := make([]models.Category, 0, len(updates))
	for _, c := range models.Categories {
		if _, ok := updates[c]; ok {
			out = append(out, c)
		}
	}
	var extra []models.Category
	for c := range updates {
		if !c.Valid() {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// progress keeps a rounded 1-100 value for near-term goals. Zero or missing
// progress is stored as unknown.
func progress(g analysis.Goal) *int {
	if g.Progress == nil || g.Timeframe != models.TimeframeNear {
		return nil
	}
	v := int(math.Round(*g.Progress))
	if v <= 0 {
		return nil
	}
	if v > 100 {
		v = 100
	}
	return &v
}

func (s *Synchronizer) indexTimeline(log *slog.Logger, e models.TimelineEntry) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexTimeline(e); err != nil {
		log.Warn("pipeline: index timeline failed", slog.String("id", e.ID), slog.String("error", err.Error()))
	}
}

func (s *Synchronizer) indexInspiration(log *slog.Logger, it models.InspirationItem) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexInspiration(it); err != nil {
		log.Warn("pipeline: index inspiration failed", slog.String("id", it.ID), slog.String("error", err.Error()))
	}
}
