package normalizer

import (
	"testing"
	"time"

	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	scraped := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	raw := source.RawPosting{
		Source:      "Indeed",
		ExternalID:  "abc123",
		Title:       "  Python Developer ",
		Company:     "Initech",
		Location:    "Remote",
		Description: "build things",
		URL:         "https://www.indeed.com/viewjob?jk=abc123",
		ScrapedAt:   scraped,
	}

	job, err := Normalize(raw)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.SourceIndeed, job.Source)
	assert.Equal(t, "abc123", job.ExternalID)
	assert.Equal(t, "Python Developer", job.Title)
	assert.Equal(t, scraped, job.ScrapedAt)
}

func TestNormalizeMissingFields(t *testing.T) {
	base := source.RawPosting{
		Source:  "indeed",
		Title:   "Go Developer",
		Company: "Initech",
		URL:     "https://example.com/j/1",
	}

	tests := []struct {
		name   string
		mutate func(*source.RawPosting)
		field  string
	}{
		{"no title", func(r *source.RawPosting) { r.Title = " " }, "title"},
		{"no company", func(r *source.RawPosting) { r.Company = "" }, "company"},
		{"no url", func(r *source.RawPosting) { r.URL = "" }, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base
			tt.mutate(&raw)
			_, err := Normalize(raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	job, err := Normalize(source.RawPosting{
		Source:  "glassdoor",
		Title:   "Backend Engineer",
		Company: "Globex",
		URL:     "https://example.com/j/2",
	})
	require.NoError(t, err)

	//external id falls back to the URL, scraped_at to now
	assert.Equal(t, "https://example.com/j/2", job.ExternalID)
	assert.WithinDuration(t, time.Now().UTC(), job.ScrapedAt, time.Minute)
}
