package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Window returns the quota window key for t. Windows are UTC calendar days,
// so the counter survives restarts and rolls over at midnight UTC.
func Window(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ReserveQuota atomically claims one submission slot in the given window.
// It reports false without error when the window is already at limit; the
// scheduler then defers instead of failing. Reservations are never rolled
// back, the counter tracks attempted submissions.
func (s *Store) ReserveQuota(ctx context.Context, window string, limit int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("reserve quota: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO quota_windows (window, count) VALUES (?, 0)
		ON CONFLICT (window) DO NOTHING`, window); err != nil {
		return false, fmt.Errorf("reserve quota: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT count FROM quota_windows WHERE window = ?`, window).Scan(&count); err != nil {
		return false, fmt.Errorf("reserve quota: %w", err)
	}
	if count >= limit {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE quota_windows SET count = count + 1 WHERE window = ?`, window); err != nil {
		return false, fmt.Errorf("reserve quota: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("reserve quota: %w", err)
	}
	return true, nil
}

// QuotaCount reads the current counter for a window (0 when unseen).
func (s *Store) QuotaCount(ctx context.Context, window string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count FROM quota_windows WHERE window = ?`, window).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("quota count: %w", err)
	}
	return count, nil
}
