package dto

import (
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/shopspring/decimal"
)

// CreditAdjustmentRequest is a manual correction of a member's store credit.
// Negative amounts take credit away.
type CreditAdjustmentRequest struct {
	Amount         decimal.Decimal `json:"amount" swaggertype:"string"`
	Description    string          `json:"description" validate:"required,max=500"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"omitempty,max=255"`
}

func (r *CreditAdjustmentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.IsZero() {
		return ierr.NewError("credit amount is zero").
			WithHint("Credit adjustment cannot be zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreditBalanceResponse is a member's store credit with its recent ledger lines
type CreditBalanceResponse struct {
	MemberID     string                `json:"member_id"`
	Balance      decimal.Decimal       `json:"balance" swaggertype:"string"`
	Transactions []*credit.Transaction `json:"transactions"`
}

// CreditTransactionResponse is the outcome of a manual adjustment
type CreditTransactionResponse struct {
	Transaction *credit.Transaction    `json:"transaction"`
	Duplicate   bool                   `json:"duplicate"`
	Events      []types.LifecycleEvent `json:"events"`
}

// CreditTransactionFilter narrows the ledger listing of a member
type CreditTransactionFilter struct {
	types.QueryFilter
	Reason types.CreditReason `form:"reason"`
}

func (f *CreditTransactionFilter) Validate() error {
	if f.Reason != "" {
		if err := f.Reason.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}

// TrainerEarningsFilter narrows the earnings listing of a trainer
type TrainerEarningsFilter struct {
	types.QueryFilter
	MembershipID string `form:"membership_id"`
	From         string `form:"from"`
	To           string `form:"to"`
}

// TrainerEarningsResponse lists earnings and their sum
type TrainerEarningsResponse struct {
	TrainerID string                `json:"trainer_id"`
	Total     decimal.Decimal       `json:"total" swaggertype:"string"`
	Items     []*commission.Earning `json:"items"`
}
