package store

import (
	"context"
	"fmt"
	"time"
)

// AcquireLease takes the named lease for holder until now+ttl. It succeeds
// when the lease is free, expired, or already held by holder, and reports
// false when someone else holds it.
func (db *DB) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO run_lease (name, holder, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			holder     = excluded.holder,
			expires_at = excluded.expires_at
		WHERE run_lease.expires_at <= ? OR run_lease.holder = excluded.holder
	`, name, holder, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return false, fmt.Errorf("store: acquire lease %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: acquire lease %s: %w", name, err)
	}
	return n > 0, nil
}

// ReleaseLease drops the lease if holder still owns it.
func (db *DB) ReleaseLease(ctx context.Context, name, holder string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM run_lease WHERE name = ? AND holder = ?`, name, holder); err != nil {
		return fmt.Errorf("store: release lease %s: %w", name, err)
	}
	return nil
}
