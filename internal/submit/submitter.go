// Package submit defines the submission capability: one operation that
// performs the actual application and reports the outcome. The orchestration
// core only ever sees this interface, so it tests without any browser.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-jobpilot-automation/internal/models"
)

// Request carries everything a submitter needs for one application.
type Request struct {
	Posting    models.JobPosting
	ResumePath string
}

// Submitter performs one application submission. A nil return means the
// site accepted the application. Failures are either transient (wrapped in
// TransientError, eligible for retry) or terminal (everything else,
// typically wrapping ErrRejected).
type Submitter interface {
	//Name is the capability name for logs
	Name() string

	//Submit applies to the posting in req
	Submit(ctx context.Context, req Request) error
}

// ErrRejected is the terminal submission failure: the site refused the
// application, or no submitter can handle the source. Never retried.
var ErrRejected = errors.New("submission rejected")

// TransientError marks network/timeout-class failures. The scheduler
// retries these with backoff up to the configured limit.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient submission failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable.
func Transient(err error) error {
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Classify maps a raw browser/network error into the taxonomy. Timeouts and
// connection-class failures are transient; anything else is terminal.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "timed out", "net::", "connection reset", "connection refused"} {
		if strings.Contains(msg, marker) {
			return Transient(err)
		}
	}
	return fmt.Errorf("%w: %v", ErrRejected, err)
}

// Router dispatches a request to the submitter registered for its source.
type Router struct {
	bySource map[models.Source]Submitter
}

func NewRouter() *Router {
	return &Router{bySource: make(map[models.Source]Submitter)}
}

func (r *Router) Register(src models.Source, sub Submitter) {
	r.bySource[src] = sub
}

func (r *Router) Name() string { return "router" }

func (r *Router) Submit(ctx context.Context, req Request) error {
	sub, ok := r.bySource[req.Posting.Source]
	if !ok {
		return fmt.Errorf("%w: no submitter for source %q", ErrRejected, req.Posting.Source)
	}
	return sub.Submit(ctx, req)
}
