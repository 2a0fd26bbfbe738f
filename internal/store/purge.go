package store

import (
	"context"
	"fmt"
	"time"
)

// secondsPerDay converts the retention window into trash-age seconds.
const secondsPerDay = 86_400

// PurgeExpired permanently removes trashed notes whose trash age exceeds
// the retention window in days, returning the number removed. A retention
// of zero disables automatic purging entirely: only PurgeAllTrashed acts.
// Associations are removed by the ON DELETE CASCADE constraint and the
// full-text rows by trigger, all inside one statement.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := now.Unix() - int64(retentionDays)*secondsPerDay
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notes WHERE deleted_at IS NOT NULL AND deleted_at <= ?", cutoff)
	if err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("purge expired: %w", err))
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired: rows affected: %w", err)
	}
	return removed, nil
}

// PurgeAllTrashed permanently removes every trashed note regardless of age,
// returning the number removed.
func (s *Store) PurgeAllTrashed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE deleted_at IS NOT NULL")
	if err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("purge trash: %w", err))
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge trash: rows affected: %w", err)
	}
	return removed, nil
}
