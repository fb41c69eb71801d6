// internal/domain/schedule/status.go
package schedule

import "fmt"

// Status is the lifecycle state of a scheduled transaction.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ErrInvalidTransition is returned when a requested status change is not in
// the transition table.
var ErrInvalidTransition = fmt.Errorf("invalid schedule status transition")

// allowedTransitions is the full transition table. Cancelled and Completed
// are terminal: they have no outgoing edges. Active -> Completed is reserved
// for the execution engine (one-time completion or execution cap reached).
var allowedTransitions = map[Status]map[Status]bool{
	StatusActive: {
		StatusPaused:    true,
		StatusCancelled: true,
		StatusCompleted: true,
	},
	StatusPaused: {
		StatusActive:    true,
		StatusCancelled: true,
	},
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition table permits s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	return allowedTransitions[s][next]
}

// ValidateTransition returns ErrInvalidTransition (wrapped with the pair)
// when from -> to is not permitted.
func ValidateTransition(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
