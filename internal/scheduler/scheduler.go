// Package scheduler sequences submission attempts: it reserves daily quota,
// paces consecutive submissions, retries transient failures with backoff
// and drives every ApplicationRecord status change through the store.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/store"
	"go-jobpilot-automation/internal/submit"

	"golang.org/x/time/rate"
)

// Result says what happened to one eligible posting.
type Result int

const (
	//ResultApplied: submission succeeded, record is applied
	ResultApplied Result = iota
	//ResultRecorded: record-only or dry-run mode, nothing submitted
	ResultRecorded
	//ResultDeferred: quota or run cap reached, try again next window
	ResultDeferred
	//ResultFailed: terminal submission failure, record is rejected
	ResultFailed
	//ResultSkipped: the job already has an open application
	ResultSkipped
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultRecorded:
		return "recorded"
	case ResultDeferred:
		return "deferred"
	case ResultFailed:
		return "failed"
	case ResultSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

type Options struct {
	//AutoApply false puts the scheduler in record-only mode: applications
	//are created and logged but the submission capability is never invoked
	AutoApply bool

	//DryRun suppresses pacing delays and every persistence mutation
	DryRun bool

	//DailyLimit is max_applications_per_day over the quota window
	DailyLimit int

	//RunCap caps submissions for this run when lower than the daily quota
	//remainder; 0 means no extra cap
	RunCap int

	//Delay is the minimum gap between consecutive submission attempts
	Delay time.Duration

	//MaxRetries bounds transient-failure retries per application
	MaxRetries int

	//BackoffBase is the first retry backoff, doubled per retry
	BackoffBase time.Duration

	//SubmitTimeout bounds one submission attempt
	SubmitTimeout time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.BackoffBase <= 0 {
		out.BackoffBase = 2 * time.Second
	}
	if out.SubmitTimeout <= 0 {
		out.SubmitTimeout = 2 * time.Minute
	}
	return out
}

type Scheduler struct {
	store     *store.Store
	submitter submit.Submitter
	limiter   *rate.Limiter
	opts      Options

	submittedThisRun int
}

func New(st *store.Store, submitter submit.Submitter, opts Options) *Scheduler {
	o := opts.withDefaults()

	//pacing is a minimum gap, not a guarantee; other work may extend it
	limiter := rate.NewLimiter(rate.Inf, 1)
	if o.Delay > 0 && !o.DryRun {
		limiter = rate.NewLimiter(rate.Every(o.Delay), 1)
	}

	return &Scheduler{
		store:     st,
		submitter: submitter,
		limiter:   limiter,
		opts:      o,
	}
}

// Apply takes one new, filter-passed, deduplicated posting and runs it
// through the submission lifecycle. Quota exhaustion defers, it never
// errors. Storage failures abort: they are returned to the caller so the
// run stops rather than continue unsynchronized.
func (s *Scheduler) Apply(ctx context.Context, job *models.JobPosting, resumePath string) (Result, error) {
	if s.opts.DryRun {
		log.Printf("🧪 [dry-run] would apply to %q at %q (%s)", job.Title, job.Company, job.Source)
		return ResultRecorded, nil
	}

	if !s.opts.AutoApply {
		//record-only: the application is persisted as pending for the audit
		//trail, the submission capability is never invoked
		app, err := s.store.CreateApplication(ctx, job.ID, resumePath)
		if errors.Is(err, store.ErrOpenApplication) {
			return ResultSkipped, nil
		}
		if err != nil {
			return ResultFailed, err
		}
		log.Printf("📝 Eligible (auto_apply off): %q at %q, recorded as %s", job.Title, job.Company, app.Status)
		return ResultRecorded, nil
	}

	//an open application means a submission is already in flight or done
	if existing, err := s.store.OpenApplicationByJob(ctx, job.ID); err != nil {
		return ResultFailed, err
	} else if existing != nil {
		log.Printf("⏭️ Skipping %q at %q: open application %s (%s)", job.Title, job.Company, existing.ID, existing.Status)
		return ResultSkipped, nil
	}

	if s.opts.RunCap > 0 && s.submittedThisRun >= s.opts.RunCap {
		log.Printf("⏸️ Run cap %d reached, deferring %q at %q", s.opts.RunCap, job.Title, job.Company)
		return ResultDeferred, nil
	}

	ok, err := s.store.ReserveQuota(ctx, store.Window(time.Now()), s.opts.DailyLimit)
	if err != nil {
		return ResultFailed, err
	}
	if !ok {
		log.Printf("⏸️ Daily quota (%d) exhausted, deferring %q at %q", s.opts.DailyLimit, job.Title, job.Company)
		return ResultDeferred, nil
	}

	app, err := s.store.CreateApplication(ctx, job.ID, resumePath)
	if errors.Is(err, store.ErrOpenApplication) {
		return ResultSkipped, nil
	}
	if err != nil {
		return ResultFailed, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		//cancelled while pacing: nothing was attempted yet
		if terr := s.store.Transition(ctx, app.ID, models.StatusWithdrawn, "run cancelled before attempt"); terr != nil {
			return ResultFailed, terr
		}
		return ResultFailed, err
	}

	s.submittedThisRun++
	return s.attempt(ctx, job, app)
}

func (s *Scheduler) attempt(ctx context.Context, job *models.JobPosting, app *models.ApplicationRecord) (Result, error) {
	req := submit.Request{Posting: *job, ResumePath: app.ResumePath}

	for try := 0; ; try++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.SubmitTimeout)
		err := s.submitter.Submit(attemptCtx, req)
		cancel()

		if err == nil {
			if terr := s.store.Transition(ctx, app.ID, models.StatusApplied, ""); terr != nil {
				return ResultFailed, terr
			}
			log.Printf("✅ Applied to %q at %q", job.Title, job.Company)
			return ResultApplied, nil
		}

		//user abort mid-flight: leave the record transient, keep the audit pair
		if ctx.Err() != nil {
			if terr := s.store.Transition(context.WithoutCancel(ctx), app.ID, models.StatusFailedTransient, "run cancelled mid-attempt"); terr != nil {
				return ResultFailed, terr
			}
			return ResultFailed, ctx.Err()
		}

		if submit.IsTransient(err) && try < s.opts.MaxRetries {
			if rerr := s.store.RecordRetry(ctx, app.ID, err.Error()); rerr != nil {
				return ResultFailed, rerr
			}
			backoff := s.opts.BackoffBase << try
			log.Printf("🔁 Transient failure for %q at %q (attempt %d/%d), retrying in %v: %v",
				job.Title, job.Company, try+1, s.opts.MaxRetries, backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				if terr := s.store.Transition(context.WithoutCancel(ctx), app.ID, models.StatusFailedTransient, "run cancelled during backoff"); terr != nil {
					return ResultFailed, terr
				}
				return ResultFailed, ctx.Err()
			}
			continue
		}

		//terminal: retry budget exhausted or site-side rejection
		reason := err.Error()
		if submit.IsTransient(err) {
			reason = fmt.Sprintf("retries exhausted after %d attempts: %v", try+1, err)
		}
		if terr := s.store.Transition(ctx, app.ID, models.StatusRejected, reason); terr != nil {
			return ResultFailed, terr
		}
		log.Printf("❌ Submission rejected for %q at %q: %s", job.Title, job.Company, reason)
		return ResultFailed, nil
	}
}
