package commission

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/types"
)

// Repository defines the interface for commission persistence operations
type Repository interface {
	// Rule operations
	GetRule(ctx context.Context, id string) (*Rule, error)
	// GetActiveRule returns ErrNotFound when the triple has no active rule
	GetActiveRule(ctx context.Context, trainerID, packageID, memberID string) (*Rule, error)
	// CreateRule fails with ErrAlreadyExists when the triple already has an active rule
	CreateRule(ctx context.Context, r *Rule) error
	DeactivateRule(ctx context.Context, id string, until time.Time) error
	ReactivateRule(ctx context.Context, id string) error

	// Earning operations
	CreateEarning(ctx context.Context, e *Earning) error
	ListEarnings(ctx context.Context, filter *EarningFilter) ([]*Earning, error)
}

// EarningFilter narrows an earnings query
type EarningFilter struct {
	*types.QueryFilter
	TrainerID    string
	MembershipID string
	From         *time.Time
	To           *time.Time
}
