package credit

import (
	"context"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for the member credit ledger
type Repository interface {
	// Append computes the balance from the member's last entry, under a lock,
	// and stores t. A debit that would take the balance below zero fails with
	// ErrValidation. An existing idempotency key returns the stored entry with
	// created false.
	Append(ctx context.Context, t *Transaction) (stored *Transaction, created bool, err error)
	GetBalance(ctx context.Context, memberID string) (decimal.Decimal, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error)
}

// TransactionFilter narrows a ledger query
type TransactionFilter struct {
	*types.QueryFilter
	MemberID string
	Reason   *types.CreditReason
}
