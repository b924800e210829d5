// Package pipeline runs the refresh cycle: gather recent notes, activity and
// pending manual entries, ask the analysis API for a synthesis, then apply
// the result to the store.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/starford/lifedash/internal/activity"
	"github.com/starford/lifedash/internal/analysis"
	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/prompt"
	"github.com/starford/lifedash/internal/sse"
	"github.com/starford/lifedash/internal/vault"
)

// Defaults for Config.
const (
	DefaultLookback   = 14 * 24 * time.Hour
	DefaultRunTimeout = 2 * time.Minute
	DefaultLeaseTTL   = 5 * time.Minute
)

// LeaseName is the run_lease row guarding refresh cycles.
const LeaseName = "refresh"

// NotesSource summarizes recent vault notes. It never fails.
type NotesSource interface {
	Summary(ctx context.Context) vault.Summary
}

// ActivitySource summarizes recent code activity. It never fails.
type ActivitySource interface {
	Summary(ctx context.Context) activity.Summary
}

// Analyzer is the completion API.
type Analyzer interface {
	IsConfigured() bool
	Analyze(ctx context.Context, system, user string) (json.RawMessage, error)
}

// Store is the persistence a cycle reads and writes.
type Store interface {
	Quadrants(ctx context.Context) ([]models.Quadrant, error)
	ManualEntries(ctx context.Context, pendingOnly bool) ([]models.ManualEntry, error)
	Values(ctx context.Context) ([]string, error)

	UpsertTimelineEntry(ctx context.Context, e models.TimelineEntry) error
	UpdateQuadrant(ctx context.Context, category models.Category, expected models.Status, u models.QuadrantUpdate) error
	InsertSnapshot(ctx context.Context, s models.RightNowSnapshot) (int64, error)
	MergeGoal(ctx context.Context, g models.Goal) error
	MergeInspiration(ctx context.Context, it models.InspirationItem) error
	MarkProcessed(ctx context.Context, ids []string) (int, error)
	RecordRun(ctx context.Context, at time.Time, lastNoteScanned *time.Time, entries int) error

	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error)
	ReleaseLease(ctx context.Context, name, holder string) error
}

// Indexer receives persisted entities for full-text search.
type Indexer interface {
	IndexTimeline(e models.TimelineEntry) error
	IndexInspiration(it models.InspirationItem) error
}

// Notifier broadcasts run outcomes.
type Notifier interface {
	Publish(event sse.Event)
}

// Config tunes a Synchronizer.
type Config struct {
	Lookback   time.Duration
	RunTimeout time.Duration
	LeaseTTL   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = DefaultLeaseTTL
	}
	return c
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithNotes sets the vault reader.
func WithNotes(n NotesSource) Option { return func(s *Synchronizer) { s.notes = n } }

// WithActivity sets the activity summarizer.
func WithActivity(a ActivitySource) Option { return func(s *Synchronizer) { s.activity = a } }

// WithIndex sets the search indexer.
func WithIndex(i Indexer) Option { return func(s *Synchronizer) { s.index = i } }

// WithNotifier sets where run events are published.
func WithNotifier(n Notifier) Option { return func(s *Synchronizer) { s.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Synchronizer) { s.logger = l } }

// WithConfig sets timing parameters.
func WithConfig(c Config) Option { return func(s *Synchronizer) { s.cfg = c.withDefaults() } }

// Synchronizer orchestrates refresh cycles. Concurrent Run calls in one
// process share a single cycle; across processes the store lease makes the
// loser return CodeBusy.
type Synchronizer struct {
	store    Store
	analyzer Analyzer
	notes    NotesSource
	activity ActivitySource
	index    Indexer
	notifier Notifier
	logger   *slog.Logger
	cfg      Config

	group singleflight.Group
	now   func() time.Time
	newID func() string
}

// New creates a Synchronizer.
func New(store Store, analyzer Analyzer, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    store,
		analyzer: analyzer,
		logger:   slog.Default(),
		cfg:      Config{}.withDefaults(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run executes one cycle, or joins the cycle already running in this
// process. The cycle is detached from ctx cancellation and bounded by the
// run timeout instead, so a dropped request never stops it halfway.
func (s *Synchronizer) Run(ctx context.Context) Result {
	v, _, shared := s.group.Do(LeaseName, func() (any, error) {
		return s.run(context.WithoutCancel(ctx)), nil
	})
	res := v.(Result)
	if shared {
		s.logger.Debug("pipeline: joined running cycle", slog.String("run_id", res.RunID))
	}
	return res
}

type gathered struct {
	notes     vault.Summary
	activity  activity.Summary
	manual    []models.ManualEntry
	quadrants []models.Quadrant
	values    []string
}

func (s *Synchronizer) run(parent context.Context) Result {
	start := s.now()
	res := Result{RunID: s.newID(), StartedAt: start}
	log := s.logger.With(slog.String("run_id", res.RunID))

	finish := func(stage Stage, code Code, err error) Result {
		res.Stage, res.Code, res.Err = stage, code, err
		res.Duration = s.now().Sub(start)
		if res.OK() {
			log.Info("pipeline: cycle finished",
				slog.String("code", string(code)),
				slog.Int("timeline_entries", res.Stats.TimelineEntries),
				slog.Int("failures", res.Stats.Failures),
				slog.Duration("duration", res.Duration),
			)
			s.publish(sse.EventRefreshCompleted, res)
		} else {
			attrs := []any{slog.String("stage", string(stage)), slog.String("code", string(code))}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			log.Warn("pipeline: cycle aborted", attrs...)
			s.publish(sse.EventRefreshFailed, res)
		}
		return res
	}

	if s.analyzer == nil || !s.analyzer.IsConfigured() {
		return finish(StageGather, CodeNotConfigured, fmt.Errorf("pipeline: analysis api key: %w", apperr.ErrNotConfigured))
	}

	ctx, cancel := context.WithTimeout(parent, s.cfg.RunTimeout)
	defer cancel()

	ok, err := s.store.AcquireLease(ctx, LeaseName, res.RunID, s.cfg.LeaseTTL, start)
	if err != nil {
		return finish(StageLease, CodeGatherFailed, err)
	}
	if !ok {
		return finish(StageLease, CodeBusy, fmt.Errorf("pipeline: %w", apperr.ErrBusy))
	}
	defer func() {
		if err := s.store.ReleaseLease(context.WithoutCancel(ctx), LeaseName, res.RunID); err != nil {
			log.Warn("pipeline: release lease failed", slog.String("error", err.Error()))
		}
	}()

	log.Info("pipeline: cycle started")

	in, err := s.gather(ctx)
	if err != nil {
		return finish(StageGather, codeFor(ctx, CodeGatherFailed), err)
	}
	log.Info("pipeline: gathered",
		slog.Int("notes", in.notes.TotalNotes),
		slog.Bool("activity", in.activity.HasActivity),
		slog.Int("manual_entries", len(in.manual)),
		slog.Int("quadrants", len(in.quadrants)),
	)

	builder := prompt.NewBuilder(in.values, nil)
	system, err := builder.System()
	if err != nil {
		return finish(StagePrompt, CodePromptFailed, err)
	}
	user, err := builder.User(prompt.Input{
		Days:          int(s.cfg.Lookback / (24 * time.Hour)),
		Notes:         in.notes.Notes,
		Mood:          in.notes.Mood,
		Activity:      in.activity,
		ManualEntries: in.manual,
		Quadrants:     in.quadrants,
	})
	if err != nil {
		return finish(StagePrompt, CodePromptFailed, err)
	}

	raw, err := s.analyzer.Analyze(ctx, system, user)
	if err != nil {
		code := CodeAnalysisFailed
		if errors.Is(err, apperr.ErrNotConfigured) {
			code = CodeNotConfigured
		}
		return finish(StageAnalyze, codeFor(ctx, code), err)
	}
	if !analysis.Validate(raw) {
		return finish(StageValidate, CodeValidationFailed, errors.New("pipeline: analysis is missing required fields"))
	}
	result, err := analysis.Decode(raw)
	if err != nil {
		return finish(StageValidate, CodeValidationFailed, err)
	}
	if result.Skipped > 0 {
		log.Warn("pipeline: unreadable entities dropped", slog.Int("skipped", result.Skipped))
	}

	res.Stats = s.persist(ctx, log, result, in)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return finish(StagePersist, CodeTimeout, fmt.Errorf("pipeline: run exceeded %s", s.cfg.RunTimeout))
	}
	if res.Stats.Failures > 0 {
		return finish(StageDone, CodePartial, fmt.Errorf("pipeline: %d persistence failures", res.Stats.Failures))
	}
	return finish(StageDone, CodeOK, nil)
}

// gather runs the independent reads concurrently. Notes and activity degrade
// to empty summaries; store reads abort the cycle.
func (s *Synchronizer) gather(ctx context.Context) (gathered, error) {
	var in gathered
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.notes == nil {
			in.notes = vault.EmptySummary()
			return nil
		}
		in.notes = s.notes.Summary(gctx)
		return nil
	})
	g.Go(func() error {
		if s.activity == nil {
			in.activity = activity.Empty()
			return nil
		}
		in.activity = s.activity.Summary(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		in.manual, err = s.store.ManualEntries(gctx, true)
		if err != nil {
			return fmt.Errorf("pipeline: load manual entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		in.quadrants, err = s.store.Quadrants(gctx)
		if err != nil {
			return fmt.Errorf("pipeline: load quadrants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		in.values, err = s.store.Values(gctx)
		if err != nil {
			return fmt.Errorf("pipeline: load values: %w", err)
		}
		return nil
	})

	return in, g.Wait()
}

func codeFor(ctx context.Context, fallback Code) Code {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return CodeTimeout
	}
	return fallback
}

func (s *Synchronizer) publish(kind string, res Result) {
	if s.notifier == nil {
		return
	}
	data := map[string]any{
		"runId": res.RunID,
		"code":  res.Code,
		"stats": res.Stats,
	}
	if res.Err != nil {
		data["error"] = res.Err.Error()
	}
	s.notifier.Publish(sse.Event{Type: kind, Data: data})
}
