package payment

import (
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is money received against a membership. Negative amounts are reversals.
type Payment struct {
	ID                string              `db:"id" json:"id"`
	MemberID          string              `db:"member_id" json:"member_id"`
	MembershipID      string              `db:"membership_id" json:"membership_id"`
	PaymentPlanID     *string             `db:"payment_plan_id" json:"payment_plan_id,omitempty"`
	InstallmentNumber *int                `db:"installment_number" json:"installment_number,omitempty"`
	Amount            decimal.Decimal     `db:"amount" json:"amount" swaggertype:"string"`
	PaymentType       types.PaymentType   `db:"payment_type" json:"payment_type"`
	PaymentMethod     types.PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentDate       time.Time           `db:"payment_date" json:"payment_date"`
	ReceiptNumber     string              `db:"receipt_number" json:"receipt_number"`
	IdempotencyKey    string              `db:"idempotency_key" json:"idempotency_key"`
	Notes             string              `db:"notes" json:"notes,omitempty"`
	// ReversesPaymentID points at the payment a reversal cancels
	ReversesPaymentID *string `db:"reverses_payment_id" json:"reverses_payment_id,omitempty"`
	types.BaseModel
}

func (p *Payment) TableName() string {
	return "payments"
}

func (p *Payment) Validate() error {
	if p.MembershipID == "" || p.MemberID == "" {
		return ierr.NewError("payment is missing its membership").
			WithHint("Member and membership are required for a payment").
			Mark(ierr.ErrValidation)
	}
	if p.IdempotencyKey == "" {
		return ierr.NewError("payment has no idempotency key").
			Mark(ierr.ErrValidation)
	}
	if err := p.PaymentType.Validate(); err != nil {
		return err
	}
	if err := p.PaymentMethod.Validate(); err != nil {
		return err
	}
	if p.PaymentType == types.PaymentTypeReversal {
		if !p.Amount.IsNegative() {
			return ierr.NewError("reversal must be negative").
				Mark(ierr.ErrValidation)
		}
		return nil
	}
	if !p.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"amount": p.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Reversal returns the payment that cancels p.
func (p *Payment) Reversal(receipt string, base types.BaseModel) *Payment {
	return &Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		MemberID:          p.MemberID,
		MembershipID:      p.MembershipID,
		PaymentPlanID:     p.PaymentPlanID,
		InstallmentNumber: p.InstallmentNumber,
		Amount:            p.Amount.Neg(),
		PaymentType:       types.PaymentTypeReversal,
		PaymentMethod:     p.PaymentMethod,
		PaymentDate:       p.PaymentDate,
		ReceiptNumber:     receipt,
		IdempotencyKey:    p.IdempotencyKey + ":reversal",
		ReversesPaymentID: &p.ID,
		BaseModel:         base,
	}
}
