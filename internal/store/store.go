// Package store provides SQLite-backed persistence for the dashboard:
// quadrants, timeline, goals, inspiration, snapshots, manual entries and
// run metadata.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS quadrants (
	category       TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	color          TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'needs_attention',
	last_activity  TEXT NOT NULL DEFAULT '',
	activity_pulse INTEGER NOT NULL DEFAULT 0,
	recent_entries TEXT NOT NULL DEFAULT '[]',
	metrics        TEXT NOT NULL DEFAULT '{}',
	people         TEXT NOT NULL DEFAULT '[]',
	skills         TEXT NOT NULL DEFAULT '[]',
	github_stats   TEXT,
	travel_stats   TEXT,
	extra          TEXT,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS timeline_entries (
	id           TEXT PRIMARY KEY,
	date         TEXT NOT NULL,
	category     TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	source_note  TEXT NOT NULL DEFAULT '',
	significance TEXT NOT NULL DEFAULT 'minor',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_timeline_date ON timeline_entries(date DESC);

CREATE TABLE IF NOT EXISTS goals (
	id           TEXT PRIMARY KEY,
	text         TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	timeframe    TEXT NOT NULL DEFAULT 'near',
	completed    INTEGER NOT NULL DEFAULT 0,
	progress     INTEGER,
	deadline     TEXT NOT NULL DEFAULT '',
	context      TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS inspiration_items (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	person_name TEXT NOT NULL DEFAULT '',
	added_at    TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_inspiration_content ON inspiration_items(content);

CREATE TABLE IF NOT EXISTS right_now_snapshots (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	week_of           TEXT NOT NULL,
	last_updated      TEXT NOT NULL,
	quadrant_statuses TEXT NOT NULL DEFAULT '{}',
	summary           TEXT NOT NULL DEFAULT '',
	values_alignment  TEXT NOT NULL DEFAULT '{}',
	actionables       TEXT NOT NULL DEFAULT '[]',
	celebration       TEXT NOT NULL DEFAULT '',
	friendly_note     TEXT NOT NULL DEFAULT '',
	extra_data        TEXT,
	created_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS processing_metadata (
	id                      TEXT PRIMARY KEY CHECK (id = 'singleton'),
	last_processed          DATETIME,
	last_note_scanned       DATETIME,
	total_entries_processed INTEGER NOT NULL DEFAULT 0,
	version                 TEXT NOT NULL DEFAULT '1.0'
);

CREATE TABLE IF NOT EXISTS manual_entries (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	category   TEXT NOT NULL,
	image_url  TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	processed  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_manual_processed ON manual_entries(processed, created_at);

CREATE TABLE IF NOT EXISTS core_values (
	position INTEGER PRIMARY KEY,
	text     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_lease (
	name       TEXT PRIMARY KEY,
	holder     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// DB wraps a sql.DB with dashboard-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func marshalJSON(v any, fallback string) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return fallback
	}
	return string(b)
}

func nullJSON(v any) sql.NullString {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// jsonColumn is one stored JSON document and its destination.
type jsonColumn struct {
	name string
	data sql.NullString
	dst  any
}

// decodeColumns unmarshals each valid column into its destination. Empty or
// NULL columns leave the destination untouched.
func decodeColumns(table string, cols ...jsonColumn) error {
	for _, c := range cols {
		if !c.data.Valid || c.data.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(c.data.String), c.dst); err != nil {
			return fmt.Errorf("store: scan %s: decode %s: %w", table, c.name, err)
		}
	}
	return nil
}

func text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}
