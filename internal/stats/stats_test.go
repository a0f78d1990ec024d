package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	p := &models.JobPosting{
		ID:         uuid.NewString(),
		Source:     models.SourceIndeed,
		ExternalID: "1",
		Title:      "Python Developer",
		Company:    "Initech",
		URL:        "https://example.com/j/1",
		ScrapedAt:  time.Now().UTC(),
	}
	_, err = st.SavePosting(ctx, p)
	require.NoError(t, err)
	app, err := st.CreateApplication(ctx, p.ID, "")
	require.NoError(t, err)
	require.NoError(t, st.Transition(ctx, app.ID, models.StatusApplied, ""))

	sum, err := NewReporter(st).Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalPostings)
	assert.Equal(t, 1, sum.ByStatus[models.StatusApplied])

	out := Format(sum)
	assert.Contains(t, out, "Total postings seen:  1")
	assert.Contains(t, out, "- applied: 1")
	assert.Contains(t, out, "- indeed: 1")
}

func TestRunCountersSummary(t *testing.T) {
	c := NewRunCounters()
	c.Seen = 10
	c.Filtered = 4
	c.Duplicates = 2
	c.Eligible = 4
	c.Applied = 3
	c.Deferred = 1
	c.RejectedBy["minSalary"] = 4

	s := c.Summary()
	assert.Contains(t, s, "seen=10")
	assert.Contains(t, s, "filtered=4")
	assert.Contains(t, s, "applied=3")
	assert.Contains(t, s, "deferred=1")
}
