// Package dedup suppresses postings the store already knows about. The
// check and the insert happen under a per-posting lock, so two concurrent
// runs over the same posting cannot both pass before either commits.
package dedup

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"

	"go-jobpilot-automation/internal/filter"
	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/store"
)

type Outcome int

const (
	//New: posting was unknown and has been persisted
	New Outcome = iota
	//AlreadyKnown: same (source, external_id) already stored, pipeline stops
	AlreadyKnown
	//NearDuplicate: a fuzzy match on an existing posting, pipeline stops
	NearDuplicate
)

func (o Outcome) String() string {
	switch o {
	case New:
		return "new"
	case AlreadyKnown:
		return "already-known"
	case NearDuplicate:
		return "near-duplicate"
	default:
		return "unknown"
	}
}

const lockStripes = 64

type Deduplicator struct {
	store   *store.Store
	matcher filter.Matcher
	// striped by posting key; a mutex per (source, external_id) bucket keeps
	// check+insert atomic without one big lock over the whole run
	locks [lockStripes]sync.Mutex
}

func NewDeduplicator(st *store.Store, matcher filter.Matcher) *Deduplicator {
	return &Deduplicator{store: st, matcher: matcher}
}

func (d *Deduplicator) lockFor(p *models.JobPosting) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(string(p.Source) + "|" + p.ExternalID))
	return &d.locks[h.Sum32()%lockStripes]
}

// Check decides whether a filter-passed posting is new. A new posting is
// persisted before Check returns; known and near-duplicate postings leave
// the store untouched.
func (d *Deduplicator) Check(ctx context.Context, p *models.JobPosting) (Outcome, error) {
	mu := d.lockFor(p)
	mu.Lock()
	defer mu.Unlock()

	outcome, err := d.lookup(ctx, p)
	if err != nil || outcome != New {
		return outcome, err
	}

	inserted, err := d.store.SavePosting(ctx, p)
	if err != nil {
		return AlreadyKnown, fmt.Errorf("dedup insert: %w", err)
	}
	if !inserted {
		//lost a race against another writer, the unique index is the backstop
		return AlreadyKnown, nil
	}
	return New, nil
}

// Known is the read-only variant used in dry-run mode: same decision, no
// persistence.
func (d *Deduplicator) Known(ctx context.Context, p *models.JobPosting) (Outcome, error) {
	return d.lookup(ctx, p)
}

func (d *Deduplicator) lookup(ctx context.Context, p *models.JobPosting) (Outcome, error) {
	existing, err := d.store.FindPosting(ctx, p.Source, p.ExternalID)
	if err != nil {
		return AlreadyKnown, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return AlreadyKnown, nil
	}

	//exact key unknown, scan for a fuzzy re-listing
	candidates, err := d.store.Postings(ctx)
	if err != nil {
		return AlreadyKnown, fmt.Errorf("dedup candidates: %w", err)
	}
	for i := range candidates {
		if d.matcher.SameJob(candidates[i], *p) {
			log.Printf("🔍 Near-duplicate: %q at %q matches stored posting %s", p.Title, p.Company, candidates[i].ID)
			return NearDuplicate, nil
		}
	}
	return New, nil
}
