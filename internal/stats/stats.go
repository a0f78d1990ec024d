// Package stats is the read side: per-run counters collected by the engine
// plus aggregation over the store. Nothing in here mutates state.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go-jobpilot-automation/internal/store"
)

// RunCounters tracks what happened to every posting seen in one run.
type RunCounters struct {
	Seen       int
	Invalid    int
	Filtered   int
	Duplicates int
	Eligible   int
	Applied    int
	Recorded   int
	Deferred   int
	Failed     int
	Skipped    int

	//RejectedBy counts filter rejections per predicate name
	RejectedBy map[string]int
}

func NewRunCounters() *RunCounters {
	return &RunCounters{RejectedBy: make(map[string]int)}
}

func (c *RunCounters) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seen=%d invalid=%d filtered=%d duplicates=%d eligible=%d", c.Seen, c.Invalid, c.Filtered, c.Duplicates, c.Eligible)
	fmt.Fprintf(&b, " applied=%d recorded=%d deferred=%d failed=%d skipped=%d", c.Applied, c.Recorded, c.Deferred, c.Failed, c.Skipped)
	return b.String()
}

// Reporter aggregates over the store on demand.
type Reporter struct {
	store *store.Store
}

func NewReporter(st *store.Store) *Reporter {
	return &Reporter{store: st}
}

func (r *Reporter) Report(ctx context.Context) (*store.Summary, error) {
	return r.store.Statistics(ctx)
}

// Format renders a store summary the way the run log prints its final block.
func Format(sum *store.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total postings seen:  %d\n", sum.TotalPostings)
	fmt.Fprintf(&b, "Total applications:   %d\n", sum.TotalApplications)

	b.WriteString("By status:\n")
	for _, k := range sortedKeys(sum.ByStatus) {
		fmt.Fprintf(&b, "  - %s: %d\n", k, sum.ByStatus[k])
	}
	b.WriteString("By source:\n")
	for _, k := range sortedKeys(sum.BySource) {
		fmt.Fprintf(&b, "  - %s: %d\n", k, sum.BySource[k])
	}
	b.WriteString("By day:\n")
	days := make([]string, 0, len(sum.ByDay))
	for d := range sum.ByDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		fmt.Fprintf(&b, "  - %s: %d\n", d, sum.ByDay[d])
	}
	return b.String()
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
