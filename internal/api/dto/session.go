package dto

import (
	"time"

	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/session"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
)

// ScheduleSessionRequest books a personal training session on a membership
type ScheduleSessionRequest struct {
	MembershipID string `json:"membership_id" validate:"required"`
	// TrainerID defaults to the trainer on the membership
	TrainerID   string          `json:"trainer_id,omitempty"`
	SessionDate time.Time       `json:"session_date" validate:"required"`
	StartTime   types.TimeOfDay `json:"start_time" swaggertype:"string" example:"09:00"`
	EndTime     types.TimeOfDay `json:"end_time" swaggertype:"string" example:"10:00"`
	Notes       string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *ScheduleSessionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.StartTime.Before(r.EndTime) {
		return ierr.NewError("session ends before it starts").
			WithHintf("Session end time %s must be after start time %s", r.EndTime, r.StartTime).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CompleteSessionRequest marks a session as held
type CompleteSessionRequest struct {
	Notes string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *CompleteSessionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// CancelSessionRequest cancels a session and gives the session back to the membership
type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	// NoShow keeps the session used, the member did not turn up
	NoShow bool `json:"no_show"`
}

func (r *CancelSessionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SessionResponse is a session with the side effects of the last operation on it
type SessionResponse struct {
	Session    *session.Session       `json:"session"`
	Membership *MembershipResponse    `json:"membership,omitempty"`
	Earning    *commission.Earning    `json:"earning,omitempty"`
	Events     []types.LifecycleEvent `json:"events"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// ListSessionsResponse lists the sessions of a membership
type ListSessionsResponse struct {
	Items []*session.Session `json:"items"`
}

// SessionConflictsRequest checks a slot before booking it
type SessionConflictsRequest struct {
	TrainerID   string    `form:"trainer_id" validate:"required"`
	SessionDate time.Time `form:"session_date" time_format:"2006-01-02" validate:"required"`
	StartTime   string    `form:"start_time" validate:"required"`
	EndTime     string    `form:"end_time" validate:"required"`
}

func (r *SessionConflictsRequest) Validate() error {
	return validator.ValidateRequest(r)
}
