package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const goalColumns = `id, text, category, timeframe, completed, progress, deadline, context, created_at, completed_at`

// GoalPatch holds the user-editable goal fields. Nil fields are left as is.
type GoalPatch struct {
	Text      *string
	Completed *bool
	Progress  *int
}

// SaveGoal inserts a goal or replaces every field of the stored one.
func (db *DB) SaveGoal(ctx context.Context, g models.Goal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text         = excluded.text,
			category     = excluded.category,
			timeframe    = excluded.timeframe,
			completed    = excluded.completed,
			progress     = excluded.progress,
			deadline     = excluded.deadline,
			context      = excluded.context,
			created_at   = excluded.created_at,
			completed_at = excluded.completed_at
	`, goalArgs(g)...)
	if err != nil {
		return fmt.Errorf("store: save goal %s: %w", g.ID, err)
	}
	return nil
}

// MergeGoal inserts an extracted goal, or refreshes text, category and
// progress of the stored one. Completion state and timestamps set by the
// user survive; a nil progress keeps the stored progress.
func (db *DB) MergeGoal(ctx context.Context, g models.Goal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text     = excluded.text,
			category = CASE WHEN excluded.category = '' THEN category ELSE excluded.category END,
			progress = COALESCE(excluded.progress, progress)
	`, goalArgs(g)...)
	if err != nil {
		return fmt.Errorf("store: merge goal %s: %w", g.ID, err)
	}
	return nil
}

// CreateGoal inserts a new goal, failing with apperr.ErrAlreadyExists on a
// duplicate id.
func (db *DB) CreateGoal(ctx context.Context, g models.Goal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	res, err := db.conn.ExecContext(ctx, `INSERT OR IGNORE INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, goalArgs(g)...)
	if err != nil {
		return fmt.Errorf("store: create goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: goal %s: %w", g.ID, apperr.ErrAlreadyExists)
	}
	return nil
}

// PatchGoal applies p to the goal with the given id and returns the result.
// Completing stamps completedAt; reopening clears it. Progress is only
// accepted for near-term goals.
func (db *DB) PatchGoal(ctx context.Context, id string, p GoalPatch, now time.Time) (*models.Goal, error) {
	var out models.Goal
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		g, err := scanGoal(tx.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("store: goal %s: %w", id, apperr.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if p.Text != nil {
			g.Text = *p.Text
		}
		if p.Progress != nil {
			if g.Timeframe != models.TimeframeNear {
				return fmt.Errorf("store: progress on %s goal: %w", g.Timeframe, apperr.ErrInvalidInput)
			}
			v := *p.Progress
			g.Progress = &v
		}
		if p.Completed != nil && *p.Completed != g.Completed {
			g.Completed = *p.Completed
			if g.Completed {
				t := now.UTC()
				g.CompletedAt = &t
			} else {
				g.CompletedAt = nil
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE goals SET text = ?, completed = ?, progress = ?, completed_at = ?
			WHERE id = ?
		`, g.Text, boolInt(g.Completed), nullInt(g.Progress), nullTime(g.CompletedAt), id)
		if err != nil {
			return fmt.Errorf("store: patch goal %s: %w", id, err)
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGoal removes a goal. Only user actions call this.
func (db *DB) DeleteGoal(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete goal %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: goal %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Goal returns one goal by id.
func (db *DB) Goal(ctx context.Context, id string) (*models.Goal, error) {
	g, err := scanGoal(db.conn.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: goal %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Goals returns all goals, oldest first.
func (db *DB) Goals(ctx context.Context) ([]models.Goal, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list goals: %w", err)
	}
	defer rows.Close()

	out := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list goals: %w", err)
	}
	return out, nil
}

func goalArgs(g models.Goal) []any {
	if g.Timeframe == "" {
		g.Timeframe = models.TimeframeNear
	}
	return []any{
		g.ID, g.Text, g.Category, g.Timeframe, boolInt(g.Completed), nullInt(g.Progress),
		g.Deadline, g.Context, g.CreatedAt.UTC(), nullTime(g.CompletedAt),
	}
}

func scanGoal(s scanner) (models.Goal, error) {
	var (
		g         models.Goal
		completed int
		progress  sql.NullInt64
		doneAt    sql.NullTime
	)
	err := s.Scan(&g.ID, &g.Text, &g.Category, &g.Timeframe, &completed, &progress,
		&g.Deadline, &g.Context, &g.CreatedAt, &doneAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, err
	}
	if err != nil {
		return g, fmt.Errorf("store: scan goal: %w", err)
	}
	g.Completed = completed != 0
	if progress.Valid {
		v := int(progress.Int64)
		g.Progress = &v
	}
	g.CreatedAt = g.CreatedAt.UTC()
	g.CompletedAt = timePtr(doneAt)
	return g, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
