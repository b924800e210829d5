package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const snapshotColumns = `id, week_of, last_updated, quadrant_statuses, summary, values_alignment,
	actionables, celebration, friendly_note, extra_data, created_at`

// InsertSnapshot appends a snapshot and returns its id. Snapshots are never
// updated; the newest one is the current state.
func (db *DB) InsertSnapshot(ctx context.Context, s models.RightNowSnapshot) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO right_now_snapshots (week_of, last_updated, quadrant_statuses, summary,
			values_alignment, actionables, celebration, friendly_note, extra_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.WeekOf, s.LastUpdated, marshalJSON(s.QuadrantStatuses, "{}"), s.Summary,
		marshalJSON(s.ValuesAlignment, "{}"), marshalJSON(s.Actionables, "[]"),
		s.Celebration, s.FriendlyNote, nullJSON(s.Extra), s.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recently created snapshot, or
// apperr.ErrNotFound when there is none.
func (db *DB) LatestSnapshot(ctx context.Context) (*models.RightNowSnapshot, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM right_now_snapshots
		ORDER BY created_at DESC, id DESC LIMIT 1
	`)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: latest snapshot: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSnapshots returns the number of stored snapshots.
func (db *DB) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM right_now_snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count snapshots: %w", err)
	}
	return n, nil
}

func scanSnapshot(s scanner) (models.RightNowSnapshot, error) {
	var (
		snap                          models.RightNowSnapshot
		statuses, values, actionables string
		extra                         sql.NullString
	)
	err := s.Scan(&snap.ID, &snap.WeekOf, &snap.LastUpdated, &statuses, &snap.Summary, &values,
		&actionables, &snap.Celebration, &snap.FriendlyNote, &extra, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, err
	}
	if err != nil {
		return snap, fmt.Errorf("store: scan snapshot: %w", err)
	}
	err = decodeColumns("snapshot",
		jsonColumn{"quadrant_statuses", text(statuses), &snap.QuadrantStatuses},
		jsonColumn{"values_alignment", text(values), &snap.ValuesAlignment},
		jsonColumn{"actionables", text(actionables), &snap.Actionables},
		jsonColumn{"extra_data", extra, &snap.Extra},
	)
	if err != nil {
		return snap, err
	}
	if snap.Actionables == nil {
		snap.Actionables = []models.Actionable{}
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return snap, nil
}
