package membership

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
)

type transition struct {
	from []types.MembershipStatus
	to   types.MembershipStatus
}

// transitions is the only place that decides which action may run from which
// status. Financial consequences live in the lifecycle service.
var transitions = map[types.MembershipAction]transition{
	types.MembershipActionUpgrade: {
		from: []types.MembershipStatus{types.MembershipStatusActive, types.MembershipStatusTrial},
		to:   types.MembershipStatusUpgraded,
	},
	types.MembershipActionDowngrade: {
		from: []types.MembershipStatus{types.MembershipStatusActive, types.MembershipStatusTrial},
		to:   types.MembershipStatusDowngraded,
	},
	types.MembershipActionFreeze: {
		from: []types.MembershipStatus{types.MembershipStatusActive, types.MembershipStatusTrial},
		to:   types.MembershipStatusFrozen,
	},
	types.MembershipActionTransfer: {
		from: []types.MembershipStatus{types.MembershipStatusActive, types.MembershipStatusTrial, types.MembershipStatusSuspended},
		to:   types.MembershipStatusTransferred,
	},
	types.MembershipActionUnfreeze: {
		from: []types.MembershipStatus{types.MembershipStatusFrozen},
		to:   types.MembershipStatusActive,
	},
	types.MembershipActionSuspend: {
		from: []types.MembershipStatus{types.MembershipStatusActive, types.MembershipStatusTrial, types.MembershipStatusFrozen},
		to:   types.MembershipStatusSuspended,
	},
	types.MembershipActionReactivate: {
		from: []types.MembershipStatus{types.MembershipStatusSuspended, types.MembershipStatusFrozen},
		to:   types.MembershipStatusActive,
	},
	types.MembershipActionCancel: {
		from: []types.MembershipStatus{
			types.MembershipStatusTrial,
			types.MembershipStatusActive,
			types.MembershipStatusPendingPayment,
			types.MembershipStatusSuspended,
			types.MembershipStatusFrozen,
			types.MembershipStatusUpgraded,
			types.MembershipStatusDowngraded,
		},
		to: types.MembershipStatusCancelled,
	},
	types.MembershipActionActivate: {
		from: []types.MembershipStatus{types.MembershipStatusPendingPayment, types.MembershipStatusTrial},
		to:   types.MembershipStatusActive,
	},
	types.MembershipActionExpire: {
		from: []types.MembershipStatus{
			types.MembershipStatusActive,
			types.MembershipStatusTrial,
			types.MembershipStatusFrozen,
			types.MembershipStatusSuspended,
			types.MembershipStatusPendingPayment,
		},
		to: types.MembershipStatusExpired,
	},
}

// CanTransition reports whether action is legal from status.
func CanTransition(status types.MembershipStatus, action types.MembershipAction) bool {
	t, ok := transitions[action]
	return ok && lo.Contains(t.from, status)
}

// NextStatus returns the status a membership ends up in after action, or an
// ErrInvalidTransition error when the action is not allowed from status.
func NextStatus(status types.MembershipStatus, action types.MembershipAction) (types.MembershipStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", ierr.NewError("unknown membership action").
			WithHintf("Action %s is not a membership action", action).
			Mark(ierr.ErrValidation)
	}
	if !lo.Contains(t.from, status) {
		return "", ierr.NewErrorf("cannot %s a membership that is %s", action, status).
			WithHintf("Membership cannot be %s while it is %s", pastTense(action), status).
			WithReportableDetails(map[string]any{
				"status":       status,
				"action":       action,
				"allowed_from": t.from,
			}).
			Mark(ierr.ErrInvalidTransition)
	}
	return t.to, nil
}

// AllowedActions lists the actions that may run from status, in a stable order.
func AllowedActions(status types.MembershipStatus) []types.MembershipAction {
	ordered := []types.MembershipAction{
		types.MembershipActionActivate,
		types.MembershipActionUpgrade,
		types.MembershipActionDowngrade,
		types.MembershipActionTransfer,
		types.MembershipActionFreeze,
		types.MembershipActionUnfreeze,
		types.MembershipActionSuspend,
		types.MembershipActionReactivate,
		types.MembershipActionCancel,
		types.MembershipActionExpire,
	}
	return lo.Filter(ordered, func(a types.MembershipAction, _ int) bool {
		return CanTransition(status, a)
	})
}

func pastTense(action types.MembershipAction) string {
	switch action {
	case types.MembershipActionFreeze:
		return "frozen"
	case types.MembershipActionUnfreeze:
		return "unfrozen"
	case types.MembershipActionCancel:
		return "cancelled"
	case types.MembershipActionTransfer:
		return "transferred"
	case types.MembershipActionExpire:
		return "expired"
	default:
		return string(action) + "d"
	}
}
