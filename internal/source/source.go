// Define an interface for all source adapters
// The engine only ever consumes RawPostings; fetching mechanics stay here

package source

import (
	"context"
	"time"
)

// RawPosting is the untrusted output of one source adapter, exactly as
// parsed off the board. The normalizer turns it into a models.JobPosting.
type RawPosting struct {
	Source      string
	ExternalID  string
	Title       string
	Company     string
	Location    string
	SalaryMin   *int
	SalaryMax   *int
	Description string
	URL         string
	ScrapedAt   time.Time
}

// Provider is implemented by every job board adapter. Fetch runs the
// adapter's own retry policy; when that is exhausted it returns an empty
// slice and the error, and the engine treats it as "no postings this cycle".
type Provider interface {
	//Fetch postings from the platform
	Fetch(ctx context.Context) ([]RawPosting, error)

	//Name is the platform name (indeed, glassdoor, ...)
	Name() string
}
