package session

import (
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
)

// Session is one personal training appointment
type Session struct {
	ID            string              `db:"id" json:"id"`
	MembershipID  string              `db:"membership_id" json:"membership_id"`
	MemberID      string              `db:"member_id" json:"member_id"`
	TrainerID     string              `db:"trainer_id" json:"trainer_id"`
	SessionDate   time.Time           `db:"session_date" json:"session_date"`
	StartTime     types.TimeOfDay     `db:"start_time" json:"start_time"`
	EndTime       types.TimeOfDay     `db:"end_time" json:"end_time"`
	SessionStatus types.SessionStatus `db:"session_status" json:"session_status"`
	Notes         string              `db:"notes" json:"notes,omitempty"`
	types.BaseModel
}

func (s *Session) TableName() string {
	return "sessions"
}

func (s *Session) Validate() error {
	if s.TrainerID == "" || s.MembershipID == "" {
		return ierr.NewError("session is missing trainer or membership").
			WithHint("Trainer and membership are required for a session").
			Mark(ierr.ErrValidation)
	}
	if !s.StartTime.Before(s.EndTime) {
		return ierr.NewError("session ends before it starts").
			WithHintf("Session end time %s must be after start time %s", s.EndTime, s.StartTime).
			Mark(ierr.ErrValidation)
	}
	return s.SessionStatus.Validate()
}

// Overlaps reports whether two sessions of the same trainer collide
func (s *Session) Overlaps(other *Session) bool {
	return s.TrainerID == other.TrainerID &&
		types.Date(s.SessionDate).Equal(types.Date(other.SessionDate)) &&
		types.Overlaps(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}

// Patch updates a session. Nil fields are left untouched.
type Patch struct {
	Status    *types.SessionStatus
	TrainerID *string
	Notes     *string
}

func (p Patch) Apply(s *Session) {
	if p.Status != nil {
		s.SessionStatus = *p.Status
	}
	if p.TrainerID != nil {
		s.TrainerID = *p.TrainerID
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
}
