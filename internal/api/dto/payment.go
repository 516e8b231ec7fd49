package dto

import (
	"time"

	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest settles part of what a membership still owes
type RecordPaymentRequest struct {
	Amount decimal.Decimal     `json:"amount" validate:"required" swaggertype:"string"`
	Method types.PaymentMethod `json:"payment_method" validate:"required"`

	// InstallmentNumber marks an installment of the linked payment plan as paid.
	// When the membership has a plan and this is empty the next unpaid one is used.
	InstallmentNumber *int `json:"installment_number,omitempty" validate:"omitempty,min=1"`

	// PaymentDate defaults to today
	PaymentDate *time.Time `json:"payment_date,omitempty"`

	// IdempotencyKey makes retries safe. One is derived from the request when empty.
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=255"`
	Notes          string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return r.Method.Validate()
}

// CreatePaymentPlanRequest spreads the pending amount of a membership over
// installments
type CreatePaymentPlanRequest struct {
	// DownPayment is collected now, before the installments
	DownPayment       decimal.Decimal            `json:"down_payment" swaggertype:"string"`
	DownPaymentMethod types.PaymentMethod        `json:"down_payment_method,omitempty"`
	InstallmentCount  int                        `json:"installment_count" validate:"required,min=1,max=60"`
	Frequency         types.InstallmentFrequency `json:"frequency" validate:"required"`
	FirstDueDate      *time.Time                 `json:"first_due_date,omitempty"`
	CustomDueDates    []time.Time                `json:"custom_due_dates,omitempty"`
}

func (r *CreatePaymentPlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.DownPayment.IsNegative() {
		return ierr.NewError("down payment cannot be negative").
			WithHint("Down payment must be zero or more").
			Mark(ierr.ErrValidation)
	}
	if r.DownPayment.IsPositive() {
		if err := r.DownPaymentMethod.Validate(); err != nil {
			return err
		}
	}
	if r.Frequency == types.InstallmentFrequencyCustom {
		if len(r.CustomDueDates) != r.InstallmentCount {
			return ierr.NewError("custom due dates do not match installment count").
				WithHintf("Enter exactly %d due dates", r.InstallmentCount).
				Mark(ierr.ErrValidation)
		}
		return nil
	}
	if r.FirstDueDate == nil {
		return ierr.NewError("first due date is required").
			WithHint("Enter the due date of the first installment").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToPlanInput builds the planner input for total, the amount the plan covers
// including the down payment
func (r *CreatePaymentPlanRequest) ToPlanInput(total decimal.Decimal) installment.PlanInput {
	in := installment.PlanInput{
		TotalAmount:      total,
		DownPayment:      r.DownPayment,
		InstallmentCount: r.InstallmentCount,
		Frequency:        r.Frequency,
		CustomDueDates:   r.CustomDueDates,
	}
	if r.FirstDueDate != nil {
		in.FirstDueDate = types.Date(*r.FirstDueDate)
	}
	return in
}

// PaymentResponse is the outcome of recording a payment
type PaymentResponse struct {
	Payment    *payment.Payment       `json:"payment"`
	Membership *MembershipResponse    `json:"membership"`
	Credit     *credit.Transaction    `json:"credit_transaction,omitempty"`
	Change     *membership.Change     `json:"change,omitempty"`
	Duplicate  bool                   `json:"duplicate"`
	Events     []types.LifecycleEvent `json:"events"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// PaymentPlanResponse is the outcome of creating a payment plan
type PaymentPlanResponse struct {
	PaymentPlan *installment.Plan      `json:"payment_plan"`
	DownPayment *payment.Payment       `json:"down_payment,omitempty"`
	Membership  *MembershipResponse    `json:"membership"`
	Events      []types.LifecycleEvent `json:"events"`
}

// ListPaymentsResponse lists the payments of a membership
type ListPaymentsResponse struct {
	Items []*payment.Payment `json:"items"`
}
