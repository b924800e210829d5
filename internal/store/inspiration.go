package store

import (
	"context"
	"fmt"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const inspirationColumns = `id, category, type, title, content, source, person_name, added_at, tags`

// SaveInspiration inserts an item or replaces every field of the stored one.
func (db *DB) SaveInspiration(ctx context.Context, it models.InspirationItem) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO inspiration_items (`+inspirationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category    = excluded.category,
			type        = excluded.type,
			title       = excluded.title,
			content     = excluded.content,
			source      = excluded.source,
			person_name = excluded.person_name,
			added_at    = excluded.added_at,
			tags        = excluded.tags
	`, inspirationArgs(it)...)
	if err != nil {
		return fmt.Errorf("store: save inspiration %s: %w", it.ID, err)
	}
	return nil
}

// MergeInspiration inserts an extracted item, or refreshes the title and
// content of the stored one.
func (db *DB) MergeInspiration(ctx context.Context, it models.InspirationItem) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO inspiration_items (`+inspirationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title   = excluded.title,
			content = excluded.content
	`, inspirationArgs(it)...)
	if err != nil {
		return fmt.Errorf("store: merge inspiration %s: %w", it.ID, err)
	}
	return nil
}

// CreateInspiration inserts a new item, failing with
// apperr.ErrAlreadyExists on a duplicate id.
func (db *DB) CreateInspiration(ctx context.Context, it models.InspirationItem) error {
	res, err := db.conn.ExecContext(ctx, `INSERT OR IGNORE INTO inspiration_items (`+inspirationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, inspirationArgs(it)...)
	if err != nil {
		return fmt.Errorf("store: create inspiration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: inspiration %s: %w", it.ID, apperr.ErrAlreadyExists)
	}
	return nil
}

// Inspiration returns items newest first, optionally filtered by category.
func (db *DB) Inspiration(ctx context.Context, category models.InspirationCategory) ([]models.InspirationItem, error) {
	query := `SELECT ` + inspirationColumns + ` FROM inspiration_items`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY added_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list inspiration: %w", err)
	}
	defer rows.Close()

	out := []models.InspirationItem{}
	for rows.Next() {
		var (
			it   models.InspirationItem
			tags string
		)
		if err := rows.Scan(&it.ID, &it.Category, &it.Type, &it.Title, &it.Content,
			&it.Source, &it.PersonName, &it.AddedAt, &tags); err != nil {
			return nil, fmt.Errorf("store: scan inspiration: %w", err)
		}
		if err := decodeColumns("inspiration", jsonColumn{"tags", text(tags), &it.Tags}); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list inspiration: %w", err)
	}
	return out, nil
}

// InspirationContents returns the set of stored content strings, used to
// skip duplicates on import.
func (db *DB) InspirationContents(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT content FROM inspiration_items`)
	if err != nil {
		return nil, fmt.Errorf("store: inspiration contents: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("store: inspiration contents: %w", err)
		}
		set[c] = struct{}{}
	}
	return set, rows.Err()
}

func inspirationArgs(it models.InspirationItem) []any {
	return []any{
		it.ID, it.Category, it.Type, it.Title, it.Content, it.Source, it.PersonName,
		it.AddedAt, marshalJSON(it.Tags, "[]"),
	}
}
