// Package engine wires the run pipeline: fetch, normalize, filter, dedup,
// render, submit. One Run processes every posting the configured sources
// return and reports what happened to each.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"

	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/dedup"
	"go-jobpilot-automation/internal/filter"
	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/normalizer"
	"go-jobpilot-automation/internal/resume"
	"go-jobpilot-automation/internal/scheduler"
	"go-jobpilot-automation/internal/source"
	"go-jobpilot-automation/internal/stats"

	"golang.org/x/sync/errgroup"
)

// how many source adapters fetch at once
const fetchConcurrency = 2

// Notifier receives run events. Delivery failures are logged, never fatal.
type Notifier interface {
	SendApplication(job models.JobPosting, status models.ApplicationStatus) error
	SendRunSummary(c *stats.RunCounters) error
}

type Params struct {
	Config    *config.Config
	Providers []source.Provider
	Pipeline  *filter.Pipeline
	Dedup     *dedup.Deduplicator
	Scheduler *scheduler.Scheduler
	Renderer  resume.Renderer

	//Notifier is optional
	Notifier Notifier

	DryRun bool
}

type Engine struct {
	p Params
}

func New(p Params) *Engine {
	return &Engine{p: p}
}

// Run executes one full cycle. Adapter failures degrade to an empty batch;
// storage failures abort so the run never continues unsynchronized. The
// returned counters are valid either way.
func (e *Engine) Run(ctx context.Context) (*stats.RunCounters, error) {
	counters := stats.NewRunCounters()

	raws, err := e.fetchAll(ctx)
	if err != nil {
		return counters, err
	}

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return counters, err
		}
		counters.Seen++

		job, err := normalizer.Normalize(raw)
		if err != nil {
			var verr *normalizer.ValidationError
			if errors.As(err, &verr) {
				counters.Invalid++
				log.Printf("🚮 Skipping malformed posting from %s: %v", raw.Source, err)
				continue
			}
			return counters, err
		}

		if decision := e.p.Pipeline.Evaluate(*job); !decision.Keep {
			counters.Filtered++
			counters.RejectedBy[decision.Predicate]++
			log.Printf("🚫 Filtered %q at %q [%s]: %s", job.Title, job.Company, decision.Predicate, decision.Reason)
			continue
		}

		var outcome dedup.Outcome
		if e.p.DryRun {
			outcome, err = e.p.Dedup.Known(ctx, job)
		} else {
			outcome, err = e.p.Dedup.Check(ctx, job)
		}
		if err != nil {
			return counters, err
		}
		if outcome != dedup.New {
			counters.Duplicates++
			log.Printf("♻️ Duplicate (%s): %q at %q", outcome, job.Title, job.Company)
			continue
		}

		counters.Eligible++

		//dry-run writes nothing, not even resume artifacts
		resumePath := e.p.Config.BaseResumePath
		if !e.p.DryRun {
			rendered, rerr := e.p.Renderer.Render(ctx, job)
			if rerr != nil {
				//a missing artifact must not drop an eligible posting
				log.Printf("⚠️ Resume rendering failed for %q, using base resume: %v", job.Title, rerr)
			} else {
				resumePath = rendered
			}
		}

		result, err := e.p.Scheduler.Apply(ctx, job, resumePath)
		if err != nil {
			return counters, err
		}
		e.tally(counters, result, job)
	}

	log.Printf("🏁 Run complete: %s", counters.Summary())
	if e.p.Notifier != nil {
		if err := e.p.Notifier.SendRunSummary(counters); err != nil {
			log.Printf("⚠️ Failed to send run summary: %v", err)
		}
	}
	return counters, nil
}

func (e *Engine) tally(counters *stats.RunCounters, result scheduler.Result, job *models.JobPosting) {
	switch result {
	case scheduler.ResultApplied:
		counters.Applied++
		if e.p.Notifier != nil {
			if err := e.p.Notifier.SendApplication(*job, models.StatusApplied); err != nil {
				log.Printf("⚠️ Failed to send application notice: %v", err)
			}
		}
	case scheduler.ResultRecorded:
		counters.Recorded++
	case scheduler.ResultDeferred:
		counters.Deferred++
	case scheduler.ResultFailed:
		counters.Failed++
	case scheduler.ResultSkipped:
		counters.Skipped++
	}
}

// fetchAll runs every provider concurrently. One adapter failing only costs
// its own batch.
func (e *Engine) fetchAll(ctx context.Context) ([]source.RawPosting, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	var mu sync.Mutex
	var raws []source.RawPosting

	for _, provider := range e.p.Providers {
		g.Go(func() error {
			batch, err := provider.Fetch(gctx)
			if err != nil {
				log.Printf("⚠️ %s fetch failed, treating as empty batch: %v", provider.Name(), err)
			}
			mu.Lock()
			raws = append(raws, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raws, ctx.Err()
}
