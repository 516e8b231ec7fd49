package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// SessionStatus is the state of a personal training session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusNoShow    SessionStatus = "no_show"
)

var sessionStatuses = []SessionStatus{
	SessionStatusScheduled,
	SessionStatusCompleted,
	SessionStatusCancelled,
	SessionStatusNoShow,
}

func (s SessionStatus) String() string {
	return string(s)
}

func (s SessionStatus) Validate() error {
	if !lo.Contains(sessionStatuses, s) {
		return ierr.NewError("invalid session status").
			WithHintf("Session status must be one of %v", sessionStatuses).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsReassignable reports whether a session can still move to another trainer
func (s SessionStatus) IsReassignable() bool {
	return s != SessionStatusCompleted && s != SessionStatusCancelled
}
