package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// MemberStatus is the gym-facing status of a member
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusFrozen    MemberStatus = "frozen"
	MemberStatusSuspended MemberStatus = "suspended"
)

func (s MemberStatus) String() string {
	return string(s)
}

func (s MemberStatus) Validate() error {
	allowed := []MemberStatus{
		MemberStatusActive,
		MemberStatusInactive,
		MemberStatusFrozen,
		MemberStatusSuspended,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid member status").
			WithHintf("Member status must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}
