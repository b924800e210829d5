// Package dashboard serves the read model and the user-initiated writes
// behind the HTTP API and the MCP tools.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/search"
	"github.com/starford/lifedash/internal/sse"
	"github.com/starford/lifedash/internal/store"
)

// Index is the full-text index the service keeps current on user writes.
type Index interface {
	IndexTimeline(e models.TimelineEntry) error
	IndexInspiration(it models.InspirationItem) error
	Search(query string, limit int) ([]search.Result, error)
}

// Notifier broadcasts change events.
type Notifier interface {
	Publish(event sse.Event)
}

// GoalsView splits goals by timeframe and carries the core values.
type GoalsView struct {
	NearFuture []models.Goal `json:"nearFuture"`
	FarFuture  []models.Goal `json:"farFuture"`
	Values     []string      `json:"values"`
}

// RightNow is the latest snapshot. Placeholder is set before any cycle ran.
type RightNow struct {
	models.RightNowSnapshot
	Placeholder bool `json:"placeholder,omitempty"`
}

// Bundle is everything the dashboard page renders.
type Bundle struct {
	Quadrants   map[models.Category]models.Quadrant `json:"quadrants"`
	RightNow    RightNow                            `json:"rightNow"`
	Timeline    []models.TimelineEntry              `json:"timeline"`
	Goals       GoalsView                           `json:"goals"`
	Inspiration []models.InspirationItem            `json:"inspiration"`
	Metadata    models.ProcessingMetadata           `json:"metadata"`
}

// Service coordinates store and index operations.
type Service struct {
	repo     store.Repository
	index    Index
	notifier Notifier
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a dashboard service. index and notifier may be nil.
func NewService(repo store.Repository, index Index, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		index:    index,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Dashboard loads every section concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Bundle, error) {
	var b Bundle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		b.Quadrants, err = s.QuadrantMap(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.RightNow, err = s.RightNow(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.Timeline, err = s.Timeline(gctx, "", 0)
		return err
	})
	g.Go(func() (err error) {
		b.Goals, err = s.Goals(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.Inspiration, err = s.Inspiration(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		b.Metadata, err = s.repo.Metadata(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Quadrants returns the quadrant rows in display order.
func (s *Service) Quadrants(ctx context.Context) ([]models.Quadrant, error) {
	qs, err := s.repo.Quadrants(ctx)
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []models.Quadrant{}
	}
	return qs, nil
}

// QuadrantMap returns the quadrants keyed by category.
func (s *Service) QuadrantMap(ctx context.Context) (map[models.Category]models.Quadrant, error) {
	qs, err := s.repo.Quadrants(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Category]models.Quadrant, len(qs))
	for _, q := range qs {
		out[q.Category] = q
	}
	return out, nil
}

// Quadrant returns one quadrant.
func (s *Service) Quadrant(ctx context.Context, category models.Category) (*models.Quadrant, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q: %w", category, apperr.ErrInvalidInput)
	}
	return s.repo.Quadrant(ctx, category)
}

// RightNow returns the most recent snapshot, or a placeholder when no cycle
// has completed yet.
func (s *Service) RightNow(ctx context.Context) (RightNow, error) {
	snap, err := s.repo.LatestSnapshot(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return RightNow{RightNowSnapshot: models.PlaceholderSnapshot(s.now()), Placeholder: true}, nil
	}
	if err != nil {
		return RightNow{}, err
	}
	return RightNow{RightNowSnapshot: *snap}, nil
}

// Timeline returns entries newest first, optionally filtered by category.
func (s *Service) Timeline(ctx context.Context, category models.Category, limit int) ([]models.TimelineEntry, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("unknown category %q: %w", category, apperr.ErrInvalidInput)
	}
	entries, err := s.repo.Timeline(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.TimelineEntry{}
	}
	return entries, nil
}

// AddTimelineEntry stores a hand-written timeline entry. A missing id is
// generated; an existing id is overwritten.
func (s *Service) AddTimelineEntry(ctx context.Context, in TimelineInput) (*models.TimelineEntry, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	e := models.TimelineEntry{
		ID:           in.ID,
		Date:         in.Date,
		Category:     in.Category,
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		ImageURL:     in.ImageURL,
		Significance: in.Significance,
	}
	if e.ID == "" {
		e.ID = "manual-" + s.newID()
	}
	if e.Significance == "" {
		e.Significance = models.SignificanceMinor
	}
	if err := s.repo.UpsertTimelineEntry(ctx, e); err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.IndexTimeline(e); err != nil {
			s.logger.Warn("dashboard: index timeline failed", slog.String("id", e.ID), slog.String("error", err.Error()))
		}
	}
	return &e, nil
}

// Goals returns goals newest first, split by timeframe, with the core values.
func (s *Service) Goals(ctx context.Context) (GoalsView, error) {
	goals, err := s.repo.Goals(ctx)
	if err != nil {
		return GoalsView{}, err
	}
	values, err := s.repo.Values(ctx)
	if err != nil {
		return GoalsView{}, err
	}
	if len(values) == 0 {
		values = slices.Clone(models.DefaultValues)
	}

	v := GoalsView{NearFuture: []models.Goal{}, FarFuture: []models.Goal{}, Values: values}
	for _, g := range slices.Backward(goals) {
		if g.Timeframe == models.TimeframeFar {
			v.FarFuture = append(v.FarFuture, g)
		} else {
			v.NearFuture = append(v.NearFuture, g)
		}
	}
	return v, nil
}

// CreateGoal adds a user goal.
func (s *Service) CreateGoal(ctx context.Context, in GoalInput) (*models.Goal, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	g := models.Goal{
		ID:        "goal-" + s.newID(),
		Text:      strings.TrimSpace(in.Text),
		Category:  in.Category,
		Timeframe: in.Timeframe,
		Deadline:  in.Deadline,
		Context:   in.Context,
		CreatedAt: s.now().UTC(),
	}
	if in.Progress != nil && *in.Progress > 0 {
		p := *in.Progress
		g.Progress = &p
	}
	if err := s.repo.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	return &g, nil
}

// PatchGoal edits, completes or reopens a goal.
func (s *Service) PatchGoal(ctx context.Context, id string, in GoalPatchInput) (*models.Goal, error) {
	if in.empty() {
		return nil, fmt.Errorf("nothing to update: %w", apperr.ErrInvalidInput)
	}
	if err := check(in); err != nil {
		return nil, err
	}
	patch := store.GoalPatch{Completed: in.Completed, Progress: in.Progress}
	if in.Text != nil {
		t := strings.TrimSpace(*in.Text)
		patch.Text = &t
	}
	return s.repo.PatchGoal(ctx, id, patch, s.now())
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	return s.repo.DeleteGoal(ctx, id)
}

// Inspiration returns items newest first, optionally filtered by category.
func (s *Service) Inspiration(ctx context.Context, category models.InspirationCategory) ([]models.InspirationItem, error) {
	items, err := s.repo.Inspiration(ctx, category)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.InspirationItem{}
	}
	return items, nil
}

// AddInspiration stores a new item dated today.
func (s *Service) AddInspiration(ctx context.Context, in InspirationInput) (*models.InspirationItem, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	it := models.InspirationItem{
		ID:         "insp-" + s.newID(),
		Category:   in.Category,
		Type:       in.Type,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Source:     in.Source,
		PersonName: in.PersonName,
		AddedAt:    s.now().UTC().Format(time.DateOnly),
		Tags:       in.Tags,
	}
	if err := s.repo.CreateInspiration(ctx, it); err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.IndexInspiration(it); err != nil {
			s.logger.Warn("dashboard: index inspiration failed", slog.String("id", it.ID), slog.String("error", err.Error()))
		}
	}
	return &it, nil
}

// ManualEntries lists manual entries, oldest first.
func (s *Service) ManualEntries(ctx context.Context, pendingOnly bool) ([]models.ManualEntry, error) {
	entries, err := s.repo.ManualEntries(ctx, pendingOnly)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ManualEntry{}
	}
	return entries, nil
}

// AddManualEntry stores a pending manual entry for the next cycle.
func (s *Service) AddManualEntry(ctx context.Context, in ManualEntryInput) (*models.ManualEntry, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	e := models.ManualEntry{
		ID:        s.newID(),
		Content:   strings.TrimSpace(in.Content),
		Category:  in.Category,
		ImageURL:  in.ImageURL,
		Link:      in.Link,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateManualEntry(ctx, e); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(sse.Event{
			Type: sse.EventManualEntryAdded,
			Data: map[string]any{"id": e.ID, "category": e.Category},
		})
	}
	return &e, nil
}

// Metadata returns the processing record.
func (s *Service) Metadata(ctx context.Context) (models.ProcessingMetadata, error) {
	return s.repo.Metadata(ctx)
}

// Search runs a full-text query over timeline entries and inspiration.
func (s *Service) Search(_ context.Context, query string, limit int) ([]search.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", apperr.ErrInvalidInput)
	}
	if s.index == nil {
		return nil, fmt.Errorf("search index: %w", apperr.ErrNotConfigured)
	}
	results, err := s.index.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []search.Result{}
	}
	return results, nil
}
