package membership

import (
	"testing"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		action  types.MembershipAction
		allowed []types.MembershipStatus
		to      types.MembershipStatus
	}{
		{types.MembershipActionUpgrade, []types.MembershipStatus{"active", "trial"}, "upgraded"},
		{types.MembershipActionDowngrade, []types.MembershipStatus{"active", "trial"}, "downgraded"},
		{types.MembershipActionFreeze, []types.MembershipStatus{"active", "trial"}, "frozen"},
		{types.MembershipActionTransfer, []types.MembershipStatus{"active", "trial", "suspended"}, "transferred"},
		{types.MembershipActionUnfreeze, []types.MembershipStatus{"frozen"}, "active"},
		{types.MembershipActionSuspend, []types.MembershipStatus{"active", "trial", "frozen"}, "suspended"},
		{types.MembershipActionReactivate, []types.MembershipStatus{"suspended", "frozen"}, "active"},
		{types.MembershipActionCancel, []types.MembershipStatus{"trial", "active", "pending_payment", "suspended", "frozen", "upgraded", "downgraded"}, "cancelled"},
		{types.MembershipActionActivate, []types.MembershipStatus{"pending_payment", "trial"}, "active"},
		{types.MembershipActionExpire, []types.MembershipStatus{"active", "trial", "frozen", "suspended", "pending_payment"}, "expired"},
	}

	all := []types.MembershipStatus{
		types.MembershipStatusTrial,
		types.MembershipStatusActive,
		types.MembershipStatusPendingPayment,
		types.MembershipStatusSuspended,
		types.MembershipStatusFrozen,
		types.MembershipStatusExpired,
		types.MembershipStatusCancelled,
		types.MembershipStatusTransferred,
		types.MembershipStatusUpgraded,
		types.MembershipStatusDowngraded,
	}

	for _, tt := range tests {
		for _, from := range all {
			allowed := false
			for _, a := range tt.allowed {
				if a == from {
					allowed = true
				}
			}

			t.Run(string(tt.action)+"_from_"+string(from), func(t *testing.T) {
				got, err := NextStatus(from, tt.action)
				if allowed {
					require.NoError(t, err)
					assert.Equal(t, tt.to, got)
					assert.True(t, CanTransition(from, tt.action))
					return
				}
				require.Error(t, err)
				assert.True(t, ierr.IsInvalidTransition(err))
				assert.False(t, CanTransition(from, tt.action))
			})
		}
	}
}

func TestNextStatus_FreezeCancelledIsInvalid(t *testing.T) {
	_, err := NextStatus(types.MembershipStatusCancelled, types.MembershipActionFreeze)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidTransition(err))
	assert.Equal(t, "Membership cannot be frozen while it is cancelled", ierr.DisplayMessage(err))
}

func TestNextStatus_UnknownAction(t *testing.T) {
	_, err := NextStatus(types.MembershipStatusActive, "teleport")
	assert.True(t, ierr.IsValidation(err))
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t, []types.MembershipAction{
		types.MembershipActionUnfreeze,
		types.MembershipActionSuspend,
		types.MembershipActionReactivate,
		types.MembershipActionCancel,
		types.MembershipActionExpire,
	}, AllowedActions(types.MembershipStatusFrozen))

	assert.Empty(t, AllowedActions(types.MembershipStatusTransferred))
	assert.Empty(t, AllowedActions(types.MembershipStatusCancelled))
}
