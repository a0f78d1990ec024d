package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-jobpilot-automation/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testPosting(src models.Source, externalID string) *models.JobPosting {
	return &models.JobPosting{
		ID:         uuid.NewString(),
		Source:     src,
		ExternalID: externalID,
		Title:      "Python Developer",
		Company:    "Initech",
		Location:   "Remote",
		URL:        "https://example.com/j/" + externalID,
		ScrapedAt:  time.Now().UTC(),
	}
}

func TestSavePostingIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inserted, err := s.SavePosting(ctx, testPosting(models.SourceIndeed, "123"))
	require.NoError(t, err)
	assert.True(t, inserted)

	//re-scraping the same posting must not create a duplicate row
	again := testPosting(models.SourceIndeed, "123")
	inserted, err = s.SavePosting(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	all, err := s.Postings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	//same external id on another source is a different posting
	inserted, err = s.SavePosting(ctx, testPosting(models.SourceGlassdoor, "123"))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestFindPosting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPosting(models.SourceIndeed, "abc")
	sal := 90000
	p.SalaryMax = &sal
	_, err := s.SavePosting(ctx, p)
	require.NoError(t, err)

	found, err := s.FindPosting(ctx, models.SourceIndeed, "abc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.ID, found.ID)
	require.NotNil(t, found.SalaryMax)
	assert.Equal(t, 90000, *found.SalaryMax)
	assert.Nil(t, found.SalaryMin)

	missing, err := s.FindPosting(ctx, models.SourceIndeed, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateApplicationSingleOpen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPosting(models.SourceIndeed, "1")
	_, err := s.SavePosting(ctx, p)
	require.NoError(t, err)

	app, err := s.CreateApplication(ctx, p.ID, "resumes/base.pdf")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Zero(t, app.RetryCount)

	//second open application for the same job is refused
	_, err = s.CreateApplication(ctx, p.ID, "resumes/base.pdf")
	assert.ErrorIs(t, err, ErrOpenApplication)

	//once the first is terminal a fresh one is allowed
	require.NoError(t, s.Transition(ctx, app.ID, models.StatusWithdrawn, "gave up"))
	_, err = s.CreateApplication(ctx, p.ID, "resumes/base.pdf")
	assert.NoError(t, err)
}

func TestTransitionHappyPath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPosting(models.SourceIndeed, "1")
	_, err := s.SavePosting(ctx, p)
	require.NoError(t, err)
	app, err := s.CreateApplication(ctx, p.ID, "")
	require.NoError(t, err)

	require.NoError(t, s.Transition(ctx, app.ID, models.StatusApplied, ""))

	got, err := s.Application(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, got.Status)
	require.NotNil(t, got.SubmittedAt, "applied must set submitted_at")

	events, err := s.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStatusTransition, events[0].EventType)
	assert.Contains(t, events[0].Detail, "pending -> applied")
}

func TestIllegalTransitionPreservesStateAndAudits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPosting(models.SourceIndeed, "1")
	_, err := s.SavePosting(ctx, p)
	require.NoError(t, err)
	app, err := s.CreateApplication(ctx, p.ID, "")
	require.NoError(t, err)

	require.NoError(t, s.Transition(ctx, app.ID, models.StatusRejected, "site said no"))

	//rejected is terminal: going back to applied must fail
	err = s.Transition(ctx, app.ID, models.StatusApplied, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := s.Application(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "site said no", got.LastErrorReason)

	//exactly one audit event for the illegal attempt
	events, err := s.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventError, events[1].EventType)
	assert.Contains(t, events[1].Detail, "rejected illegal transition")
}

func TestHistoryTimestampsNonDecreasing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPosting(models.SourceIndeed, "1")
	_, err := s.SavePosting(ctx, p)
	require.NoError(t, err)
	app, err := s.CreateApplication(ctx, p.ID, "")
	require.NoError(t, err)

	require.NoError(t, s.RecordRetry(ctx, app.ID, "timeout"))
	require.NoError(t, s.RecordRetry(ctx, app.ID, "timeout"))
	require.NoError(t, s.Transition(ctx, app.ID, models.StatusApplied, ""))

	events, err := s.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}

	got, err := s.Application(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetryCount)
}

func TestQuotaReserveAndDurability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	ctx := context.Background()

	window := Window(time.Now())
	for i := 0; i < 3; i++ {
		ok, err := s.ReserveQuota(ctx, window, 3)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	//limit reached: reservation refused, counter unchanged
	ok, err := s.ReserveQuota(ctx, window, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	count, err := s.QuotaCount(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	//the counter survives a process restart
	require.NoError(t, s.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Migrate(ctx))

	count, err = reopened.QuotaCount(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	ok, err = reopened.ReserveQuota(ctx, window, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	//a new window starts fresh
	ok, err = reopened.ReserveQuota(ctx, Window(time.Now().Add(24*time.Hour)), 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatistics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p1 := testPosting(models.SourceIndeed, "1")
	p2 := testPosting(models.SourceGlassdoor, "2")
	p3 := testPosting(models.SourceIndeed, "3")
	for _, p := range []*models.JobPosting{p1, p2, p3} {
		_, err := s.SavePosting(ctx, p)
		require.NoError(t, err)
	}

	a1, err := s.CreateApplication(ctx, p1.ID, "")
	require.NoError(t, err)
	require.NoError(t, s.Transition(ctx, a1.ID, models.StatusApplied, ""))

	a2, err := s.CreateApplication(ctx, p2.ID, "")
	require.NoError(t, err)
	require.NoError(t, s.Transition(ctx, a2.ID, models.StatusRejected, "no"))

	sum, err := s.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.TotalPostings)
	assert.Equal(t, 2, sum.TotalApplications)
	assert.Equal(t, 1, sum.ByStatus[models.StatusApplied])
	assert.Equal(t, 1, sum.ByStatus[models.StatusRejected])
	assert.Equal(t, 1, sum.BySource[models.SourceIndeed])
	assert.Equal(t, 1, sum.BySource[models.SourceGlassdoor])
	assert.Equal(t, 1, sum.ByDay[Window(time.Now())])
}
