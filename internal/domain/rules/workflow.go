package rules

import (
	"fmt"

	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// AssessmentStatus is the lifecycle state of an assessment
type AssessmentStatus string

const (
	StatusDraft      AssessmentStatus = "draft"
	StatusPending    AssessmentStatus = "pending"
	StatusInProgress AssessmentStatus = "in_progress"
	StatusSubmitted  AssessmentStatus = "submitted"
	StatusVerified   AssessmentStatus = "verified"
	StatusRejected   AssessmentStatus = "rejected"
)

var transitions = map[AssessmentStatus][]AssessmentStatus{
	StatusDraft:      {StatusPending},
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusSubmitted},
	StatusSubmitted:  {StatusVerified, StatusRejected},
}

// Valid reports whether s is a known status
func (s AssessmentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInProgress, StatusSubmitted, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s AssessmentStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// IsEditable reports whether ratings may still change
func (s AssessmentStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusPending || s == StatusInProgress
}

// CanTransition reports whether from -> to is a single allowed step
func CanTransition(from, to AssessmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns a conflict error otherwise
func Transition(from, to AssessmentStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperr.Conflict(code.ErrInvalidTransition,
		fmt.Sprintf("cannot move assessment from %s to %s", from, to))
}

// NextStatuses lists the statuses reachable in one step
func NextStatuses(from AssessmentStatus) []AssessmentStatus {
	out := make([]AssessmentStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}
