package payment

import (
	"context"
)

// Repository defines the interface for payment persistence operations
type Repository interface {
	// Create stores the payment. A payment whose idempotency key already exists
	// is not stored again, the existing payment is returned with created false.
	Create(ctx context.Context, p *Payment) (stored *Payment, created bool, err error)
	Get(ctx context.Context, id string) (*Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	ListByMembership(ctx context.Context, membershipID string) ([]*Payment, error)
}
