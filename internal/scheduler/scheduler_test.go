package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/store"
	"go-jobpilot-automation/internal/submit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted submitter: returns its errors in order, then succeeds
type scriptedSubmitter struct {
	errs  []error
	calls int
}

func (f *scriptedSubmitter) Name() string { return "scripted" }

func (f *scriptedSubmitter) Submit(ctx context.Context, req submit.Request) error {
	defer func() { f.calls++ }()
	if f.calls < len(f.errs) {
		return f.errs[f.calls]
	}
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func savedPosting(t *testing.T, st *store.Store, externalID string) *models.JobPosting {
	t.Helper()
	p := &models.JobPosting{
		ID:         uuid.NewString(),
		Source:     models.SourceIndeed,
		ExternalID: externalID,
		Title:      "Posting " + externalID,
		Company:    "Company " + externalID,
		URL:        "https://example.com/j/" + externalID,
		ScrapedAt:  time.Now().UTC(),
	}
	_, err := st.SavePosting(context.Background(), p)
	require.NoError(t, err)
	return p
}

func testOptions() Options {
	return Options{
		AutoApply:   true,
		DailyLimit:  10,
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
	}
}

func TestApplySuccess(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{}
	s := New(st, sub, testOptions())
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "resumes/base.pdf")
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, result)
	assert.Equal(t, 1, sub.calls)

	app, err := st.OpenApplicationByJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Equal(t, "resumes/base.pdf", app.ResumePath)
}

func TestApplyRetriesThenSucceeds(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{errs: []error{
		submit.Transient(errors.New("timeout")),
		submit.Transient(errors.New("timeout")),
	}}
	s := New(st, sub, testOptions())
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, result)
	assert.Equal(t, 3, sub.calls)

	app, err := st.OpenApplicationByJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Equal(t, 2, app.RetryCount)

	//two retries plus one success, nothing else
	events, err := st.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventRetry, events[0].EventType)
	assert.Equal(t, models.EventRetry, events[1].EventType)
	assert.Equal(t, models.EventStatusTransition, events[2].EventType)
}

func TestApplyRetriesExhausted(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{errs: []error{
		submit.Transient(errors.New("timeout")),
		submit.Transient(errors.New("timeout")),
		submit.Transient(errors.New("timeout")),
		submit.Transient(errors.New("timeout")),
	}}
	s := New(st, sub, testOptions())
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, result)
	//initial attempt plus MaxRetries, never more
	assert.Equal(t, 3, sub.calls)

	apps, err := st.ApplicationsByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusRejected, apps[0].Status)
	assert.Equal(t, 2, apps[0].RetryCount)
	assert.Contains(t, apps[0].LastErrorReason, "retries exhausted")
}

func TestApplyTerminalRejection(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{errs: []error{
		fmt.Errorf("%w: form closed", submit.ErrRejected),
	}}
	s := New(st, sub, testOptions())
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, result)
	//site-side rejections are never retried
	assert.Equal(t, 1, sub.calls)

	apps, err := st.ApplicationsByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusRejected, apps[0].Status)
	assert.Zero(t, apps[0].RetryCount)
}

func TestApplyRecordOnlyMode(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{}
	opts := testOptions()
	opts.AutoApply = false
	s := New(st, sub, opts)
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err)
	assert.Equal(t, ResultRecorded, result)
	//the submission capability is never invoked
	assert.Zero(t, sub.calls)

	app, err := st.OpenApplicationByJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, models.StatusPending, app.Status)

	//no quota consumed either
	count, err := st.QuotaCount(ctx, store.Window(time.Now()))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestApplyQuotaExhaustedDefers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	//window already at the configured maximum
	window := store.Window(time.Now())
	for i := 0; i < 2; i++ {
		ok, err := st.ReserveQuota(ctx, window, 2)
		require.NoError(t, err)
		require.True(t, ok)
	}

	sub := &scriptedSubmitter{}
	opts := testOptions()
	opts.DailyLimit = 2
	s := New(st, sub, opts)

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err, "quota exhaustion is a deferral, not an error")
	assert.Equal(t, ResultDeferred, result)
	assert.Zero(t, sub.calls)

	//counter unchanged, no application created
	count, err := st.QuotaCount(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	app, err := st.OpenApplicationByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestApplyRunCap(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{}
	opts := testOptions()
	opts.RunCap = 1
	s := New(st, sub, opts)
	ctx := context.Background()

	first := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, first, "")
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, result)

	second := savedPosting(t, st, "2")
	result, err = s.Apply(ctx, second, "")
	require.NoError(t, err)
	assert.Equal(t, ResultDeferred, result)
	assert.Equal(t, 1, sub.calls)
}

func TestApplyDryRun(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{}
	opts := testOptions()
	opts.DryRun = true
	s := New(st, sub, opts)
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err)
	assert.Equal(t, ResultRecorded, result)
	assert.Zero(t, sub.calls)

	//no persistence mutation of any kind
	app, err := st.OpenApplicationByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, app)
	count, err := st.QuotaCount(ctx, store.Window(time.Now()))
	require.NoError(t, err)
	assert.Zero(t, count)
}

// blocking submitter: never returns until the context is cancelled
type blockingSubmitter struct{}

func (b *blockingSubmitter) Name() string { return "blocking" }

func (b *blockingSubmitter) Submit(ctx context.Context, req submit.Request) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestApplyCancelledMidAttempt(t *testing.T) {
	st := newTestStore(t)
	s := New(st, &blockingSubmitter{}, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	job := savedPosting(t, st, "1")
	result, err := s.Apply(ctx, job, "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ResultFailed, result)

	//the interrupted record is parked transient, with its paired event
	apps, err := st.ApplicationsByJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusFailedTransient, apps[0].Status)
	assert.Equal(t, "run cancelled mid-attempt", apps[0].LastErrorReason)

	events, err := st.History(context.Background(), apps[0].ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStatusTransition, events[0].EventType)
	assert.Contains(t, events[0].Detail, "pending -> failed-transient")
}

func TestApplySkipsOpenApplication(t *testing.T) {
	st := newTestStore(t)
	sub := &scriptedSubmitter{errs: []error{
		submit.Transient(errors.New("timeout")),
		submit.Transient(errors.New("timeout")),
		submit.Transient(errors.New("timeout")),
	}}
	s := New(st, sub, testOptions())
	ctx := context.Background()

	job := savedPosting(t, st, "1")
	//manually park an open application for this job
	_, err := st.CreateApplication(ctx, job.ID, "")
	require.NoError(t, err)

	result, err := s.Apply(ctx, job, "")
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)
	assert.Zero(t, sub.calls)
}
