package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// MembershipStatus is the lifecycle state of a membership
type MembershipStatus string

const (
	MembershipStatusTrial          MembershipStatus = "trial"
	MembershipStatusActive         MembershipStatus = "active"
	MembershipStatusPendingPayment MembershipStatus = "pending_payment"
	MembershipStatusSuspended      MembershipStatus = "suspended"
	MembershipStatusFrozen         MembershipStatus = "frozen"
	MembershipStatusExpired        MembershipStatus = "expired"
	MembershipStatusCancelled      MembershipStatus = "cancelled"
	MembershipStatusTransferred    MembershipStatus = "transferred"
	MembershipStatusUpgraded       MembershipStatus = "upgraded"
	MembershipStatusDowngraded     MembershipStatus = "downgraded"
)

var membershipStatuses = []MembershipStatus{
	MembershipStatusTrial,
	MembershipStatusActive,
	MembershipStatusPendingPayment,
	MembershipStatusSuspended,
	MembershipStatusFrozen,
	MembershipStatusExpired,
	MembershipStatusCancelled,
	MembershipStatusTransferred,
	MembershipStatusUpgraded,
	MembershipStatusDowngraded,
}

var terminalMembershipStatuses = []MembershipStatus{
	MembershipStatusExpired,
	MembershipStatusCancelled,
	MembershipStatusTransferred,
	MembershipStatusUpgraded,
	MembershipStatusDowngraded,
}

func (s MembershipStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave s.
// Cancel is the only action allowed from upgraded and downgraded.
func (s MembershipStatus) IsTerminal() bool {
	return lo.Contains(terminalMembershipStatuses, s)
}

func (s MembershipStatus) Validate() error {
	if !lo.Contains(membershipStatuses, s) {
		return ierr.NewError("invalid membership status").
			WithHintf("Membership status must be one of %v", membershipStatuses).
			WithReportableDetails(map[string]any{
				"status": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MembershipAction is an operation that moves a membership between states
type MembershipAction string

const (
	MembershipActionUpgrade    MembershipAction = "upgrade"
	MembershipActionDowngrade  MembershipAction = "downgrade"
	MembershipActionFreeze     MembershipAction = "freeze"
	MembershipActionTransfer   MembershipAction = "transfer"
	MembershipActionUnfreeze   MembershipAction = "unfreeze"
	MembershipActionSuspend    MembershipAction = "suspend"
	MembershipActionReactivate MembershipAction = "reactivate"
	MembershipActionCancel     MembershipAction = "cancel"
	MembershipActionActivate   MembershipAction = "activate"
	MembershipActionExpire     MembershipAction = "expire"
)

var membershipActions = []MembershipAction{
	MembershipActionUpgrade,
	MembershipActionDowngrade,
	MembershipActionFreeze,
	MembershipActionTransfer,
	MembershipActionUnfreeze,
	MembershipActionSuspend,
	MembershipActionReactivate,
	MembershipActionCancel,
	MembershipActionActivate,
	MembershipActionExpire,
}

func (a MembershipAction) String() string {
	return string(a)
}

func (a MembershipAction) Validate() error {
	if !lo.Contains(membershipActions, a) {
		return ierr.NewError("invalid membership action").
			WithHintf("Membership action must be one of %v", membershipActions).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangeType is recorded on the membership change audit row.
// It mirrors the action that produced the change.
type ChangeType = MembershipAction

// InitialMembershipStatuses are the statuses a purchase may create.
var InitialMembershipStatuses = []MembershipStatus{
	MembershipStatusTrial,
	MembershipStatusActive,
	MembershipStatusPendingPayment,
}
