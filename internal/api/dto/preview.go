package dto

import (
	"time"

	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/proration"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/shopspring/decimal"
)

// ProrationPreviewRequest prices a package change without writing anything.
// Either MembershipID or the explicit source amounts and dates are given.
type ProrationPreviewRequest struct {
	MembershipID string `json:"membership_id,omitempty"`

	AmountPaid     decimal.Decimal `json:"amount_paid" swaggertype:"string"`
	TotalAmountDue decimal.Decimal `json:"total_amount_due" swaggertype:"string"`
	AmountPending  decimal.Decimal `json:"amount_pending" swaggertype:"string"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`

	// TargetPackageID or the explicit target price and duration
	TargetPackageID string          `json:"target_package_id,omitempty"`
	TargetPrice     decimal.Decimal `json:"target_price" swaggertype:"string"`
	TargetDuration  int             `json:"target_duration_days"`

	EffectiveDate         *time.Time               `json:"effective_date,omitempty"`
	Policy                types.ProrationPolicy    `json:"policy,omitempty"`
	Direction             types.ProrationDirection `json:"direction" validate:"required"`
	CustomAmount          decimal.Decimal          `json:"custom_amount" swaggertype:"string"`
	IgnorePreviousPending bool                     `json:"ignore_previous_pending"`
}

func (r *ProrationPreviewRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Direction.Validate(); err != nil {
		return err
	}
	if r.Policy != "" {
		if err := r.Policy.Validate(); err != nil {
			return err
		}
	}
	if r.MembershipID == "" && (r.StartDate == nil || r.EndDate == nil) {
		return ierr.NewError("proration source is missing").
			WithHint("Provide a membership or its start and end dates").
			Mark(ierr.ErrValidation)
	}
	if r.TargetPackageID == "" && r.TargetDuration == 0 {
		return ierr.NewError("proration target is missing").
			WithHint("Provide a target package or its price and duration").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CommissionPreviewRequest computes a commission without writing anything
type CommissionPreviewRequest struct {
	CommissionType    types.CommissionType `json:"commission_type" validate:"required"`
	CommissionValue   decimal.Decimal      `json:"commission_value" swaggertype:"string"`
	BaseAmount        decimal.Decimal      `json:"base_amount" swaggertype:"string"`
	SessionsRemaining int                  `json:"sessions_remaining" validate:"min=0"`
	SessionsUsed      int                  `json:"sessions_used" validate:"min=0"`
	MinAmount         decimal.NullDecimal  `json:"min_amount" swaggertype:"string"`
	MaxAmount         decimal.NullDecimal  `json:"max_amount" swaggertype:"string"`
}

func (r *CommissionPreviewRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.CommissionType.Validate()
}

func (r *CommissionPreviewRequest) ToInput() commission.Input {
	return commission.Input{
		Type:              r.CommissionType,
		Value:             r.CommissionValue,
		BaseAmount:        r.BaseAmount,
		SessionsRemaining: r.SessionsRemaining,
		SessionsUsed:      r.SessionsUsed,
		MinAmount:         r.MinAmount,
		MaxAmount:         r.MaxAmount,
	}
}

// InstallmentPreviewRequest builds a schedule without writing anything
type InstallmentPreviewRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount" swaggertype:"string"`
	CreatePaymentPlanRequest
}

func (r *InstallmentPreviewRequest) Validate() error {
	if !r.TotalAmount.IsPositive() {
		return ierr.NewError("total amount must be positive").
			WithHint("Total amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	return r.CreatePaymentPlanRequest.Validate()
}

// ResizeDueDatesRequest recomputes due dates after the installment count changed
type ResizeDueDatesRequest struct {
	DueDates         []time.Time                `json:"due_dates"`
	InstallmentCount int                        `json:"installment_count" validate:"required,min=1,max=60"`
	Frequency        types.InstallmentFrequency `json:"frequency" validate:"required"`
}

func (r *ResizeDueDatesRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Frequency.Validate()
}

type ProrationPreviewResponse struct {
	*proration.Result
}

type CommissionPreviewResponse struct {
	*commission.Result
}

type InstallmentPreviewResponse struct {
	*installment.Schedule
}

type ResizeDueDatesResponse struct {
	DueDates []time.Time `json:"due_dates"`
}
