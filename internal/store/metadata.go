package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lifedash/internal/models"
)

// MetadataVersion is written on the first run record.
const MetadataVersion = "1.0"

// Metadata returns the processing record. A fresh database yields a zero
// record rather than an error.
func (db *DB) Metadata(ctx context.Context) (models.ProcessingMetadata, error) {
	var (
		m                  models.ProcessingMetadata
		processed, scanned sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT last_processed, last_note_scanned, total_entries_processed, version
		FROM processing_metadata WHERE id = 'singleton'
	`).Scan(&processed, &scanned, &m.TotalEntriesProcessed, &m.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProcessingMetadata{Version: MetadataVersion}, nil
	}
	if err != nil {
		return m, fmt.Errorf("store: metadata: %w", err)
	}
	m.LastProcessed = timePtr(processed)
	m.LastNoteScanned = timePtr(scanned)
	return m, nil
}

// RecordRun stamps lastProcessed, moves lastNoteScanned forward when given and
// adds entries to the running total in a single statement.
func (db *DB) RecordRun(ctx context.Context, at time.Time, lastNoteScanned *time.Time, entries int) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO processing_metadata (id, last_processed, last_note_scanned, total_entries_processed, version)
		VALUES ('singleton', ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_processed          = excluded.last_processed,
			last_note_scanned       = COALESCE(excluded.last_note_scanned, last_note_scanned),
			total_entries_processed = total_entries_processed + excluded.total_entries_processed
	`, at.UTC(), nullTime(lastNoteScanned), entries, MetadataVersion)
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	return nil
}

// TouchNoteScanned records a vault change seen outside a processing run.
func (db *DB) TouchNoteScanned(ctx context.Context, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO processing_metadata (id, last_note_scanned, version)
		VALUES ('singleton', ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_note_scanned = excluded.last_note_scanned
	`, at.UTC(), MetadataVersion)
	if err != nil {
		return fmt.Errorf("store: touch note scanned: %w", err)
	}
	return nil
}

// SaveMetadata replaces the processing record, as the seed import does.
func (db *DB) SaveMetadata(ctx context.Context, m models.ProcessingMetadata) error {
	if m.Version == "" {
		m.Version = MetadataVersion
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO processing_metadata (id, last_processed, last_note_scanned, total_entries_processed, version)
		VALUES ('singleton', ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_processed          = excluded.last_processed,
			last_note_scanned       = excluded.last_note_scanned,
			total_entries_processed = excluded.total_entries_processed,
			version                 = excluded.version
	`, nullTime(m.LastProcessed), nullTime(m.LastNoteScanned), m.TotalEntriesProcessed, m.Version)
	if err != nil {
		return fmt.Errorf("store: save metadata: %w", err)
	}
	return nil
}

// Values returns the stored core values in order, or nil when none are set.
func (db *DB) Values(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT text FROM core_values ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("store: values: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("store: values: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReplaceValues swaps the core values list.
func (db *DB) ReplaceValues(ctx context.Context, values []string) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM core_values`); err != nil {
			return fmt.Errorf("store: clear values: %w", err)
		}
		for i, v := range values {
			if _, err := tx.ExecContext(ctx, `INSERT INTO core_values (position, text) VALUES (?, ?)`, i, v); err != nil {
				return fmt.Errorf("store: insert value: %w", err)
			}
		}
		return nil
	})
}
