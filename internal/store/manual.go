package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const manualColumns = `id, content, category, image_url, link, created_at, processed`

// CreateManualEntry stores a new user entry as unprocessed.
func (db *DB) CreateManualEntry(ctx context.Context, e models.ManualEntry) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO manual_entries (`+manualColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, e.ID, e.Content, e.Category, e.ImageURL, e.Link, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: create manual entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: manual entry %s: %w", e.ID, apperr.ErrAlreadyExists)
	}
	return nil
}

// ManualEntries returns entries oldest first. With pendingOnly set, only
// unprocessed entries are returned.
func (db *DB) ManualEntries(ctx context.Context, pendingOnly bool) ([]models.ManualEntry, error) {
	query := `SELECT ` + manualColumns + ` FROM manual_entries`
	if pendingOnly {
		query += ` WHERE processed = 0`
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list manual entries: %w", err)
	}
	defer rows.Close()

	out := []models.ManualEntry{}
	for rows.Next() {
		var (
			e         models.ManualEntry
			processed int
		)
		if err := rows.Scan(&e.ID, &e.Content, &e.Category, &e.ImageURL, &e.Link, &e.CreatedAt, &processed); err != nil {
			return nil, fmt.Errorf("store: scan manual entry: %w", err)
		}
		e.Processed = processed != 0
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list manual entries: %w", err)
	}
	return out, nil
}

// MarkProcessed flips the given entries to processed and returns how many
// rows actually changed. Entries another run already swept are not counted.
func (db *DB) MarkProcessed(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	res, err := db.conn.ExecContext(ctx,
		`UPDATE manual_entries SET processed = 1 WHERE processed = 0 AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("store: mark processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: mark processed: %w", err)
	}
	return int(n), nil
}
