package membership

import (
	"context"

	"github.com/flexprice/flexgym/internal/types"
)

// Repository defines the interface for membership persistence operations.
// Counter fields only change through the delta methods, which apply
// against the stored row.
type Repository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, id string) (*Membership, error)
	Update(ctx context.Context, id string, patch Patch) (*Membership, error)
	ListByMember(ctx context.Context, memberID string, filter *types.QueryFilter) ([]*Membership, error)

	// ApplyAmountDelta fails with ErrValidation when the result breaks the
	// amount invariant or goes negative
	ApplyAmountDelta(ctx context.Context, id string, delta AmountDelta) (*Membership, error)
	// AdjustSessions fails with ErrValidation when a counter would go negative
	AdjustSessions(ctx context.Context, id string, remainingDelta, usedDelta int) (*Membership, error)
	// AdjustFreeze moves end_date and freeze_days_used by days
	AdjustFreeze(ctx context.Context, id string, days int) (*Membership, error)
	// LinkPaymentPlan sets the plan, an empty id unlinks it
	LinkPaymentPlan(ctx context.Context, id string, planID string) error
}

// ChangeRepository stores the append-only transition history
type ChangeRepository interface {
	CreateChange(ctx context.Context, c *Change) error
	// ListChanges returns changes where the membership is either side, oldest first
	ListChanges(ctx context.Context, membershipID string) ([]*Change, error)
}
