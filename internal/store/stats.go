package store

import (
	"context"
	"fmt"

	"go-jobpilot-automation/internal/models"
)

// Summary is the read-side aggregation over the store. It never mutates
// anything and always reflects a committed snapshot.
type Summary struct {
	TotalPostings     int
	TotalApplications int
	ByStatus          map[models.ApplicationStatus]int
	BySource          map[models.Source]int
	ByDay             map[string]int
}

// Statistics aggregates applications by status, by posting source and by
// submission day, plus the raw totals.
func (s *Store) Statistics(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		ByStatus: make(map[models.ApplicationStatus]int),
		BySource: make(map[models.Source]int),
		ByDay:    make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings`).Scan(&sum.TotalPostings); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&sum.TotalApplications); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("statistics: %w", err)
		}
		sum.ByStatus[models.ApplicationStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	srcRows, err := s.db.QueryContext(ctx, `
		SELECT p.source, COUNT(*)
		FROM applications a JOIN postings p ON p.id = a.job_id
		GROUP BY p.source`)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var (
			src   string
			count int
		)
		if err := srcRows.Scan(&src, &count); err != nil {
			return nil, fmt.Errorf("statistics: %w", err)
		}
		sum.BySource[models.Source(src)] = count
	}
	if err := srcRows.Err(); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	//submission day: timestamps are RFC3339, the date is the first 10 bytes
	dayRows, err := s.db.QueryContext(ctx, `
		SELECT substr(submitted_at, 1, 10), COUNT(*)
		FROM applications WHERE submitted_at IS NOT NULL
		GROUP BY substr(submitted_at, 1, 10)`)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var (
			day   string
			count int
		)
		if err := dayRows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("statistics: %w", err)
		}
		sum.ByDay[day] = count
	}
	if err := dayRows.Err(); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	return sum, nil
}
