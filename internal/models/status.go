package models

// ApplicationStatus is a closed enumeration. Every status change must pass
// the legality table below; free-form strings never reach the store.
type ApplicationStatus string

const (
	StatusPending         ApplicationStatus = "pending"
	StatusApplied         ApplicationStatus = "applied"
	StatusFailedTransient ApplicationStatus = "failed-transient"
	StatusInterviewed     ApplicationStatus = "interviewed"
	StatusRejected        ApplicationStatus = "rejected"
	StatusOffered         ApplicationStatus = "offered"
	StatusWithdrawn       ApplicationStatus = "withdrawn"
)

// legalTransitions is the single source of truth for the lifecycle:
//
//	pending          -> applied | failed-transient | rejected | withdrawn
//	failed-transient -> pending | rejected
//	applied          -> interviewed | rejected | offered | withdrawn
//	interviewed      -> offered | rejected | withdrawn
//
// rejected, offered and withdrawn are terminal.
var legalTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:         {StatusApplied, StatusFailedTransient, StatusRejected, StatusWithdrawn},
	StatusFailedTransient: {StatusPending, StatusRejected},
	StatusApplied:         {StatusInterviewed, StatusRejected, StatusOffered, StatusWithdrawn},
	StatusInterviewed:     {StatusOffered, StatusRejected, StatusWithdrawn},
	StatusRejected:        {},
	StatusOffered:         {},
	StatusWithdrawn:       {},
}

func (s ApplicationStatus) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// IsTerminal reports whether no further automatic transition may occur.
func (s ApplicationStatus) IsTerminal() bool {
	targets, ok := legalTransitions[s]
	return ok && len(targets) == 0
}

func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// TerminalStatuses lists the statuses a record can never leave. The store
// uses it to build its partial unique index.
func TerminalStatuses() []ApplicationStatus {
	return []ApplicationStatus{StatusRejected, StatusOffered, StatusWithdrawn}
}
