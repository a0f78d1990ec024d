package normalizer

import (
	"fmt"
	"strings"
	"time"

	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/source"

	"github.com/google/uuid"
)

// ValidationError reports a raw posting that cannot become a JobPosting.
// The posting is skipped and logged; no record is ever created for it.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("posting missing required field %q", e.Field)
}

// Normalize converts raw source output into a canonical JobPosting. It is a
// pure transform: no store access, no side effects.
func Normalize(raw source.RawPosting) (*models.JobPosting, error) {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.Company)
	url := strings.TrimSpace(raw.URL)

	if title == "" {
		return nil, &ValidationError{Field: "title"}
	}
	if company == "" {
		return nil, &ValidationError{Field: "company"}
	}
	if url == "" {
		return nil, &ValidationError{Field: "url"}
	}

	externalID := strings.TrimSpace(raw.ExternalID)
	if externalID == "" {
		//boards without a native id fall back to the listing URL
		externalID = url
	}

	scrapedAt := raw.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	return &models.JobPosting{
		ID:          uuid.NewString(),
		Source:      models.Source(strings.ToLower(strings.TrimSpace(raw.Source))),
		ExternalID:  externalID,
		Title:       title,
		Company:     company,
		Location:    strings.TrimSpace(raw.Location),
		SalaryMin:   raw.SalaryMin,
		SalaryMax:   raw.SalaryMax,
		Description: raw.Description,
		URL:         url,
		ScrapedAt:   scrapedAt,
	}, nil
}
