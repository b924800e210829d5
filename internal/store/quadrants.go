package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const quadrantColumns = `category, name, color, status, last_activity, activity_pulse,
	recent_entries, metrics, people, skills, github_stats, travel_stats, extra`

// EnsureQuadrants creates a row for every definition that has none. Existing
// rows are left untouched.
func (db *DB) EnsureQuadrants(ctx context.Context, defs []models.QuadrantDef) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, d := range defs {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO quadrants (category, name, color, status)
				VALUES (?, ?, ?, ?)
			`, d.Category, d.Name, d.Color, models.StatusNeedsAttention)
			if err != nil {
				return fmt.Errorf("store: ensure quadrant %s: %w", d.Category, err)
			}
		}
		return nil
	})
}

// SaveQuadrant inserts or fully replaces a quadrant row.
func (db *DB) SaveQuadrant(ctx context.Context, q models.Quadrant) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO quadrants (`+quadrantColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(category) DO UPDATE SET
			name           = excluded.name,
			color          = excluded.color,
			status         = excluded.status,
			last_activity  = excluded.last_activity,
			activity_pulse = excluded.activity_pulse,
			recent_entries = excluded.recent_entries,
			metrics        = excluded.metrics,
			people         = excluded.people,
			skills         = excluded.skills,
			github_stats   = excluded.github_stats,
			travel_stats   = excluded.travel_stats,
			extra          = excluded.extra,
			updated_at     = excluded.updated_at
	`,
		q.Category, q.Name, q.Color, q.Status, q.LastActivity, boolInt(q.ActivityPulse),
		marshalJSON(q.RecentEntries, "[]"), marshalJSON(q.Metrics, "{}"),
		marshalJSON(q.People, "[]"), marshalJSON(q.Skills, "[]"),
		nullJSON(q.GitHubStats), nullJSON(q.TravelStats), nullJSON(q.Extra),
	)
	if err != nil {
		return fmt.Errorf("store: save quadrant %s: %w", q.Category, err)
	}
	return nil
}

// UpdateQuadrant applies an analysis update to an existing row, provided its
// status still equals expected. It returns apperr.ErrNotFound when the
// category has no row and apperr.ErrConflict when the status moved on.
// A nil Metrics keeps the stored metrics.
func (db *DB) UpdateQuadrant(ctx context.Context, category models.Category, expected models.Status, u models.QuadrantUpdate) error {
	var metrics sql.NullString
	if u.Metrics != nil {
		metrics = nullJSON(u.Metrics)
	}

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE quadrants SET
				status         = ?,
				last_activity  = ?,
				activity_pulse = ?,
				metrics        = COALESCE(?, metrics),
				updated_at     = CURRENT_TIMESTAMP
			WHERE category = ? AND status = ?
		`, u.Status, u.LastActivity, boolInt(u.ActivityPulse), metrics, category, expected)
		if err != nil {
			return fmt.Errorf("store: update quadrant %s: %w", category, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: update quadrant %s: %w", category, err)
		}
		if n > 0 {
			return nil
		}

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM quadrants WHERE category = ?`, category).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("store: quadrant %s: %w", category, apperr.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("store: update quadrant %s: %w", category, err)
		}
		return fmt.Errorf("store: quadrant %s changed concurrently: %w", category, apperr.ErrConflict)
	})
}

// Quadrants returns all quadrant rows in canonical category order.
func (db *DB) Quadrants(ctx context.Context) ([]models.Quadrant, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+quadrantColumns+` FROM quadrants`)
	if err != nil {
		return nil, fmt.Errorf("store: list quadrants: %w", err)
	}
	defer rows.Close()

	byCat := make(map[models.Category]models.Quadrant)
	var other []models.Quadrant
	for rows.Next() {
		q, err := scanQuadrant(rows)
		if err != nil {
			return nil, err
		}
		if q.Category.Valid() {
			byCat[q.Category] = q
		} else {
			other = append(other, q)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list quadrants: %w", err)
	}

	out := make([]models.Quadrant, 0, len(byCat)+len(other))
	for _, c := range models.Categories {
		if q, ok := byCat[c]; ok {
			out = append(out, q)
		}
	}
	return append(out, other...), nil
}

// Quadrant returns one quadrant by category.
func (db *DB) Quadrant(ctx context.Context, category models.Category) (*models.Quadrant, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+quadrantColumns+` FROM quadrants WHERE category = ?`, category)
	q, err := scanQuadrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: quadrant %s: %w", category, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func scanQuadrant(s scanner) (models.Quadrant, error) {
	var (
		q                              models.Quadrant
		pulse                          int
		recent, metrics, people, skill string
		gh, travel, extra              sql.NullString
	)
	err := s.Scan(&q.Category, &q.Name, &q.Color, &q.Status, &q.LastActivity, &pulse,
		&recent, &metrics, &people, &skill, &gh, &travel, &extra)
	if errors.Is(err, sql.ErrNoRows) {
		return q, err
	}
	if err != nil {
		return q, fmt.Errorf("store: scan quadrant: %w", err)
	}
	q.ActivityPulse = pulse != 0
	var ghStats models.GitHubStats
	var travelStats models.TravelStats
	err = decodeColumns("quadrant",
		jsonColumn{"recent_entries", text(recent), &q.RecentEntries},
		jsonColumn{"metrics", text(metrics), &q.Metrics},
		jsonColumn{"people", text(people), &q.People},
		jsonColumn{"skills", text(skill), &q.Skills},
		jsonColumn{"github_stats", gh, &ghStats},
		jsonColumn{"travel_stats", travel, &travelStats},
		jsonColumn{"extra", extra, &q.Extra},
	)
	if err != nil {
		return q, err
	}
	if gh.Valid {
		q.GitHubStats = &ghStats
	}
	if travel.Valid {
		q.TravelStats = &travelStats
	}
	if q.RecentEntries == nil {
		q.RecentEntries = []models.TimelineEntry{}
	}
	if q.Metrics == nil {
		q.Metrics = map[string]any{}
	}
	return q, nil
}
