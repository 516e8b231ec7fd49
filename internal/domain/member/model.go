package member

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
)

// Member is a person holding memberships at the gym
type Member struct {
	ID           string             `db:"id" json:"id"`
	FirstName    string             `db:"first_name" json:"first_name"`
	LastName     string             `db:"last_name" json:"last_name"`
	Email        string             `db:"email" json:"email"`
	Phone        string             `db:"phone" json:"phone"`
	MemberStatus types.MemberStatus `db:"member_status" json:"member_status"`
	// StatusMembershipID is the membership that put the member in a non active status
	StatusMembershipID *string `db:"status_membership_id" json:"status_membership_id,omitempty"`
	types.BaseModel
}

func (m *Member) TableName() string {
	return "members"
}

// Profile is the identity captured when a new member is created during a transfer
type Profile struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required"`
}

func (p *Profile) Validate() error {
	if p.FirstName == "" || p.Phone == "" {
		return ierr.NewError("member profile is incomplete").
			WithHint("First name and phone are required for a new member").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// FromProfile builds an active member from a profile
func FromProfile(p *Profile, base types.BaseModel) *Member {
	return &Member{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBER),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		Phone:        p.Phone,
		MemberStatus: types.MemberStatusActive,
		BaseModel:    base,
	}
}

// IsHeldBy reports whether membershipID caused the member's current non active status.
func (m *Member) IsHeldBy(membershipID string) bool {
	return m.MemberStatus != types.MemberStatusActive &&
		m.StatusMembershipID != nil && *m.StatusMembershipID == membershipID
}
