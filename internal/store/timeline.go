package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const timelineColumns = `id, date, category, title, content, image_url, source_note, significance`

// UpsertTimelineEntry inserts an entry or overwrites the stored one with the
// same id. An empty image or source note keeps the stored value.
func (db *DB) UpsertTimelineEntry(ctx context.Context, e models.TimelineEntry) error {
	if e.Significance == "" {
		e.Significance = models.SignificanceMinor
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO timeline_entries (`+timelineColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			date         = excluded.date,
			category     = excluded.category,
			title        = excluded.title,
			content      = excluded.content,
			image_url    = COALESCE(NULLIF(excluded.image_url, ''), image_url),
			source_note  = COALESCE(NULLIF(excluded.source_note, ''), source_note),
			significance = excluded.significance,
			updated_at   = excluded.updated_at
	`, e.ID, e.Date, e.Category, e.Title, e.Content, e.ImageURL, e.SourceNote, e.Significance)
	if err != nil {
		return fmt.Errorf("store: upsert timeline entry %s: %w", e.ID, err)
	}
	return nil
}

// TimelineEntry returns one entry by id.
func (db *DB) TimelineEntry(ctx context.Context, id string) (*models.TimelineEntry, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+timelineColumns+` FROM timeline_entries WHERE id = ?`, id)
	e, err := scanTimelineEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: timeline entry %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Timeline returns entries newest first. A category filters when set; limit
// <= 0 means all.
func (db *DB) Timeline(ctx context.Context, category models.Category, limit int) ([]models.TimelineEntry, error) {
	query := `SELECT ` + timelineColumns + ` FROM timeline_entries`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY date DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list timeline: %w", err)
	}
	defer rows.Close()

	out := []models.TimelineEntry{}
	for rows.Next() {
		e, err := scanTimelineEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list timeline: %w", err)
	}
	return out, nil
}

// CountTimeline returns the number of stored entries.
func (db *DB) CountTimeline(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM timeline_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count timeline: %w", err)
	}
	return n, nil
}

func scanTimelineEntry(s scanner) (models.TimelineEntry, error) {
	var e models.TimelineEntry
	err := s.Scan(&e.ID, &e.Date, &e.Category, &e.Title, &e.Content, &e.ImageURL, &e.SourceNote, &e.Significance)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("store: scan timeline entry: %w", err)
	}
	return e, nil
}
