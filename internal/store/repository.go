package store

import (
	"context"
	"time"

	"github.com/starford/lifedash/internal/models"
)

// Repository defines the persistence operations the dashboard needs.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type Repository interface {
	EnsureQuadrants(ctx context.Context, defs []models.QuadrantDef) error
	SaveQuadrant(ctx context.Context, q models.Quadrant) error
	UpdateQuadrant(ctx context.Context, category models.Category, expected models.Status, u models.QuadrantUpdate) error
	Quadrants(ctx context.Context) ([]models.Quadrant, error)
	Quadrant(ctx context.Context, category models.Category) (*models.Quadrant, error)

	UpsertTimelineEntry(ctx context.Context, e models.TimelineEntry) error
	TimelineEntry(ctx context.Context, id string) (*models.TimelineEntry, error)
	Timeline(ctx context.Context, category models.Category, limit int) ([]models.TimelineEntry, error)

	SaveGoal(ctx context.Context, g models.Goal) error
	MergeGoal(ctx context.Context, g models.Goal) error
	CreateGoal(ctx context.Context, g models.Goal) error
	PatchGoal(ctx context.Context, id string, p GoalPatch, now time.Time) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	Goals(ctx context.Context) ([]models.Goal, error)

	SaveInspiration(ctx context.Context, it models.InspirationItem) error
	MergeInspiration(ctx context.Context, it models.InspirationItem) error
	CreateInspiration(ctx context.Context, it models.InspirationItem) error
	Inspiration(ctx context.Context, category models.InspirationCategory) ([]models.InspirationItem, error)
	InspirationContents(ctx context.Context) (map[string]struct{}, error)

	InsertSnapshot(ctx context.Context, s models.RightNowSnapshot) (int64, error)
	LatestSnapshot(ctx context.Context) (*models.RightNowSnapshot, error)

	CreateManualEntry(ctx context.Context, e models.ManualEntry) error
	ManualEntries(ctx context.Context, pendingOnly bool) ([]models.ManualEntry, error)
	MarkProcessed(ctx context.Context, ids []string) (int, error)

	Metadata(ctx context.Context) (models.ProcessingMetadata, error)
	RecordRun(ctx context.Context, at time.Time, lastNoteScanned *time.Time, entries int) error
	TouchNoteScanned(ctx context.Context, at time.Time) error
	SaveMetadata(ctx context.Context, m models.ProcessingMetadata) error

	Values(ctx context.Context) ([]string, error)
	ReplaceValues(ctx context.Context, values []string) error

	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error)
	ReleaseLease(ctx context.Context, name, holder string) error

	Close() error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
