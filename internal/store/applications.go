package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-jobpilot-automation/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition: the requested status change violates the
	// legality table. State is untouched, the attempt is audited.
	ErrInvalidTransition = errors.New("illegal status transition")

	// ErrOpenApplication: the job already has a non-terminal application,
	// so a second one must not be created.
	ErrOpenApplication = errors.New("job already has an open application")
)

// CreateApplication creates a pending application for a job. Creation is not
// a transition, so no history event is appended.
func (s *Store) CreateApplication(ctx context.Context, jobID, resumePath string) (*models.ApplicationRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM applications
		WHERE job_id = ? AND status NOT IN ('rejected', 'offered', 'withdrawn')`,
		jobID).Scan(&existing)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w (application %s)", ErrOpenApplication, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("create application: %w", err)
	}

	now := time.Now().UTC()
	app := &models.ApplicationRecord{
		ID:          uuid.NewString(),
		JobID:       jobID,
		Status:      models.StatusPending,
		ResumePath:  resumePath,
		LastUpdated: now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (id, job_id, status, resume_path, last_updated)
		VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.JobID, string(app.Status), app.ResumePath, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// Transition moves an application to a new status. The read, the legality
// check, the update and the history event are one transaction: a committed
// transition always has its paired event.
//
// An illegal attempt leaves the record untouched, commits a single audit
// event and returns ErrInvalidTransition.
func (s *Store) Transition(ctx context.Context, appID string, to models.ApplicationStatus, detail string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.ApplicationStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = ?`, appID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("application %s not found", appID)
	}
	if err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	now := time.Now().UTC()

	if !current.CanTransitionTo(to) {
		//audit the attempt, keep the state
		if err := appendEvent(ctx, tx, appID, models.EventError, now,
			fmt.Sprintf("rejected illegal transition %s -> %s: %s", current, to, detail)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("transition: %w", err)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	query := `UPDATE applications SET status = ?, last_updated = ?`
	args := []any{string(to), formatTime(now)}
	if to == models.StatusApplied {
		query += `, submitted_at = ?`
		args = append(args, formatTime(now))
	}
	if detail != "" && (to == models.StatusRejected || to == models.StatusFailedTransient) {
		query += `, last_error_reason = ?`
		args = append(args, detail)
	}
	query += ` WHERE id = ?`
	args = append(args, appID)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	eventDetail := fmt.Sprintf("%s -> %s", current, to)
	if detail != "" {
		eventDetail += ": " + detail
	}
	if err := appendEvent(ctx, tx, appID, models.EventStatusTransition, now, eventDetail); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transition: %w", err)
	}
	return nil
}

// RecordRetry books one transient submission failure that will be retried:
// bumps retry_count, remembers the reason and appends exactly one retry
// event. The status stays pending for the next attempt.
func (s *Store) RecordRetry(ctx context.Context, appID, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record retry: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET retry_count = retry_count + 1, last_error_reason = ?, last_updated = ?
		WHERE id = ?`,
		reason, formatTime(now), appID)
	if err != nil {
		return fmt.Errorf("record retry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("application %s not found", appID)
	}

	if err := appendEvent(ctx, tx, appID, models.EventRetry, now, "transient failure, will retry: "+reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record retry: %w", err)
	}
	return nil
}

// AppendHistory adds a free-form audit event outside any transition.
func (s *Store) AppendHistory(ctx context.Context, appID string, et models.EventType, detail string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := appendEvent(ctx, tx, appID, et, time.Now().UTC(), detail); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func appendEvent(ctx context.Context, tx *sql.Tx, appID string, et models.EventType, ts time.Time, detail string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO application_history (application_id, event_type, timestamp, detail)
		VALUES (?, ?, ?, ?)`,
		appID, string(et), formatTime(ts), detail)
	if err != nil {
		return fmt.Errorf("append history event: %w", err)
	}
	return nil
}

// History returns the audit trail for one application in append order.
func (s *Store) History(ctx context.Context, appID string) ([]models.ApplicationHistoryEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, event_type, timestamp, detail
		FROM application_history WHERE application_id = ? ORDER BY id`, appID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []models.ApplicationHistoryEvent
	for rows.Next() {
		var (
			ev models.ApplicationHistoryEvent
			et string
			ts string
		)
		if err := rows.Scan(&ev.ID, &ev.ApplicationID, &et, &ts, &ev.Detail); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		ev.EventType = models.EventType(et)
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Application returns one application by id.
func (s *Store) Application(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_id, status, resume_path, submitted_at, last_updated, retry_count, last_error_reason
		FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s not found", id)
	}
	return app, err
}

// OpenApplicationByJob returns the single non-terminal application for a
// job, or (nil, nil) when there is none.
func (s *Store) OpenApplicationByJob(ctx context.Context, jobID string) (*models.ApplicationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_id, status, resume_path, submitted_at, last_updated, retry_count, last_error_reason
		FROM applications
		WHERE job_id = ? AND status NOT IN ('rejected', 'offered', 'withdrawn')`, jobID)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return app, err
}

// ApplicationsByJob returns every application ever made for a job.
func (s *Store) ApplicationsByJob(ctx context.Context, jobID string) ([]models.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, status, resume_path, submitted_at, last_updated, retry_count, last_error_reason
		FROM applications WHERE job_id = ? ORDER BY last_updated`, jobID)
	if err != nil {
		return nil, fmt.Errorf("applications by job: %w", err)
	}
	defer rows.Close()

	var out []models.ApplicationRecord
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *app)
	}
	return out, rows.Err()
}

func scanApplication(row rowScanner) (*models.ApplicationRecord, error) {
	var (
		app         models.ApplicationRecord
		status      string
		submittedAt sql.NullString
		lastUpdated string
	)
	err := row.Scan(&app.ID, &app.JobID, &status, &app.ResumePath,
		&submittedAt, &lastUpdated, &app.RetryCount, &app.LastErrorReason)
	if err != nil {
		return nil, err
	}
	app.Status = models.ApplicationStatus(status)
	if app.SubmittedAt, err = parseNullTime(submittedAt); err != nil {
		return nil, fmt.Errorf("parse submitted_at: %w", err)
	}
	if app.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return nil, fmt.Errorf("parse last_updated: %w", err)
	}
	return &app, nil
}
