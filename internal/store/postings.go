package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-jobpilot-automation/internal/models"
)

// SavePosting inserts a posting, idempotent on (source, external_id).
// It reports whether a new row was actually created; re-saving a known
// posting is not an error and never creates a duplicate row.
func (s *Store) SavePosting(ctx context.Context, p *models.JobPosting) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO postings (id, source, external_id, title, company, location, salary_min, salary_max, description, url, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, external_id) DO NOTHING`,
		p.ID, string(p.Source), p.ExternalID, p.Title, p.Company, p.Location,
		p.SalaryMin, p.SalaryMax, p.Description, p.URL, formatTime(p.ScrapedAt),
	)
	if err != nil {
		return false, fmt.Errorf("save posting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save posting: %w", err)
	}
	return n > 0, nil
}

// FindPosting looks a posting up by its natural key. Returns (nil, nil)
// when no such posting exists.
func (s *Store) FindPosting(ctx context.Context, src models.Source, externalID string) (*models.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, external_id, title, company, location, salary_min, salary_max, description, url, scraped_at
		FROM postings WHERE source = ? AND external_id = ?`,
		string(src), externalID)

	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// PostingByID returns the posting with the given generated id.
func (s *Store) PostingByID(ctx context.Context, id string) (*models.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, external_id, title, company, location, salary_min, salary_max, description, url, scraped_at
		FROM postings WHERE id = ?`, id)

	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("posting %s not found", id)
	}
	return p, err
}

// Postings returns every stored posting, oldest first. The fuzzy
// deduplicator scans these as near-duplicate candidates.
func (s *Store) Postings(ctx context.Context) ([]models.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, external_id, title, company, location, salary_min, salary_max, description, url, scraped_at
		FROM postings ORDER BY scraped_at`)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []models.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (*models.JobPosting, error) {
	var (
		p         models.JobPosting
		src       string
		scrapedAt string
		salMin    sql.NullInt64
		salMax    sql.NullInt64
	)
	err := row.Scan(&p.ID, &src, &p.ExternalID, &p.Title, &p.Company, &p.Location,
		&salMin, &salMax, &p.Description, &p.URL, &scrapedAt)
	if err != nil {
		return nil, err
	}
	p.Source = models.Source(src)
	if salMin.Valid {
		v := int(salMin.Int64)
		p.SalaryMin = &v
	}
	if salMax.Valid {
		v := int(salMax.Int64)
		p.SalaryMax = &v
	}
	if p.ScrapedAt, err = parseTime(scrapedAt); err != nil {
		return nil, fmt.Errorf("parse scraped_at: %w", err)
	}
	return &p, nil
}
