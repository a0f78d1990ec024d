package models

import (
	"time"
)

type Source string

const (
	SourceIndeed    Source = "indeed"
	SourceGlassdoor Source = "glassdoor"
	SourceLinkedIn  Source = "linkedin"
)

// JobPosting is a normalized job listing. Rows are immutable once stored;
// (Source, ExternalID) is the natural key used for deduplication.
type JobPosting struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	SalaryMin   *int      `json:"salary_min,omitempty"`
	SalaryMax   *int      `json:"salary_max,omitempty"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// ApplicationRecord tracks one submission attempt lifecycle for a posting.
// At most one non-terminal record may exist per JobID.
type ApplicationRecord struct {
	ID              string            `json:"id"`
	JobID           string            `json:"job_id"`
	Status          ApplicationStatus `json:"status"`
	ResumePath      string            `json:"resume_path,omitempty"`
	SubmittedAt     *time.Time        `json:"submitted_at,omitempty"`
	LastUpdated     time.Time         `json:"last_updated"`
	RetryCount      int               `json:"retry_count"`
	LastErrorReason string            `json:"last_error_reason,omitempty"`
}

type EventType string

const (
	EventStatusTransition EventType = "status-transition"
	EventRetry            EventType = "retry"
	EventError            EventType = "error"
)

// ApplicationHistoryEvent is one append-only audit entry. Events are never
// mutated or deleted.
type ApplicationHistoryEvent struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"application_id"`
	EventType     EventType `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	Detail        string    `json:"detail"`
}
