package domain

import "fmt"

// OutcomeKind classifies the result of a remote write.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRetriable covers network failures, timeouts and unavailable backends.
	OutcomeRetriable
	// OutcomePermanent covers writes the backend will reject again (constraint or data errors).
	OutcomePermanent
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetriable:
		return "retriable"
	case OutcomePermanent:
		return "permanent"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// WriteOutcome is returned by every remote item store write.
type WriteOutcome struct {
	Kind OutcomeKind
	Err  error
}

func Succeeded() WriteOutcome {
	return WriteOutcome{Kind: OutcomeSuccess}
}

func Retriable(err error) WriteOutcome {
	return WriteOutcome{Kind: OutcomeRetriable, Err: err}
}

func Permanent(err error) WriteOutcome {
	return WriteOutcome{Kind: OutcomePermanent, Err: err}
}

func (o WriteOutcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
