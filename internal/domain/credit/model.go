package credit

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction is one append-only line of a member's store credit ledger.
// BalanceBefore and BalanceAfter are filled by the store at write time.
type Transaction struct {
	ID             string                    `db:"id" json:"id"`
	MemberID       string                    `db:"member_id" json:"member_id"`
	Amount         decimal.Decimal           `db:"amount" json:"amount" swaggertype:"string"`
	BalanceBefore  decimal.Decimal           `db:"balance_before" json:"balance_before" swaggertype:"string"`
	BalanceAfter   decimal.Decimal           `db:"balance_after" json:"balance_after" swaggertype:"string"`
	Reason         types.CreditReason        `db:"reason" json:"reason"`
	ReferenceType  types.CreditReferenceType `db:"reference_type" json:"reference_type"`
	ReferenceID    string                    `db:"reference_id" json:"reference_id"`
	Description    string                    `db:"description" json:"description"`
	IdempotencyKey string                    `db:"idempotency_key" json:"idempotency_key"`
	types.BaseModel
}

func (t *Transaction) TableName() string {
	return "credit_transactions"
}

func (t *Transaction) Validate() error {
	if t.MemberID == "" {
		return ierr.NewError("credit transaction has no member").
			WithHint("Member is required for a credit transaction").
			Mark(ierr.ErrValidation)
	}
	if t.Amount.IsZero() {
		return ierr.NewError("credit transaction amount is zero").
			WithHint("Credit amount cannot be zero").
			Mark(ierr.ErrValidation)
	}
	if t.IdempotencyKey == "" {
		return ierr.NewError("credit transaction has no idempotency key").
			Mark(ierr.ErrValidation)
	}
	return t.Reason.Validate()
}

// IsCredit reports whether the entry adds to the balance
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// Reversal returns the entry that cancels t.
func (t *Transaction) Reversal(base types.BaseModel) *Transaction {
	return &Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_TRANSACTION),
		MemberID:       t.MemberID,
		Amount:         t.Amount.Neg(),
		Reason:         types.CreditReasonReversal,
		ReferenceType:  t.ReferenceType,
		ReferenceID:    t.ReferenceID,
		Description:    "reversal of " + t.ID,
		IdempotencyKey: t.IdempotencyKey + ":reversal",
		BaseModel:      base,
	}
}
