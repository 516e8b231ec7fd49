package dto

import (
	"time"

	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/domain/proration"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PurchaseMembershipRequest sells a package to a member
type PurchaseMembershipRequest struct {
	MemberID  string  `json:"member_id" validate:"required"`
	PackageID string  `json:"package_id" validate:"required"`
	TrainerID *string `json:"trainer_id,omitempty"`

	// StartDate defaults to today
	StartDate *time.Time `json:"start_date,omitempty"`

	// InitialStatus is trial, active or pending_payment. Defaults to pending_payment
	// when nothing is paid up front and active otherwise.
	InitialStatus types.MembershipStatus `json:"initial_status,omitempty"`

	// Price overrides the package price, for example after a discount
	Price *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`

	DownPayment *PaymentInput             `json:"down_payment,omitempty"`
	PaymentPlan *CreatePaymentPlanRequest `json:"payment_plan,omitempty"`
	Commission  *CommissionRuleInput      `json:"commission,omitempty"`
	Metadata    map[string]string         `json:"metadata,omitempty"`
}

func (r *PurchaseMembershipRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.InitialStatus != "" && !lo.Contains(types.InitialMembershipStatuses, r.InitialStatus) {
		return ierr.NewError("invalid initial status").
			WithHintf("A new membership must start as one of %v", types.InitialMembershipStatuses).
			Mark(ierr.ErrValidation)
	}
	if r.Price != nil && !r.Price.IsPositive() {
		return ierr.NewError("price must be positive").
			WithHint("Membership price must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if r.DownPayment != nil {
		if err := r.DownPayment.Validate(); err != nil {
			return err
		}
	}
	if r.PaymentPlan != nil {
		if err := r.PaymentPlan.Validate(); err != nil {
			return err
		}
		if r.DownPayment != nil && r.PaymentPlan.DownPayment.IsPositive() {
			return ierr.NewError("down payment given twice").
				WithHint("Set the down payment either on the purchase or on the payment plan").
				Mark(ierr.ErrValidation)
		}
	}
	if r.Commission != nil {
		if r.TrainerID == nil || *r.TrainerID == "" {
			return ierr.NewError("commission without trainer").
				WithHint("A commission rule needs a trainer on the membership").
				Mark(ierr.ErrValidation)
		}
		if err := r.Commission.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PaymentInput is money collected as part of another operation
type PaymentInput struct {
	Amount         decimal.Decimal     `json:"amount" validate:"required" swaggertype:"string"`
	Method         types.PaymentMethod `json:"payment_method" validate:"required"`
	IdempotencyKey string              `json:"idempotency_key,omitempty"`
}

func (p *PaymentInput) Validate() error {
	if !p.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	return p.Method.Validate()
}

// CommissionRuleInput sets a trainer commission rule. Missing fields use the
// configured defaults.
type CommissionRuleInput struct {
	Type      types.CommissionType `json:"commission_type,omitempty"`
	Value     *decimal.Decimal     `json:"commission_value,omitempty" swaggertype:"string"`
	MinAmount decimal.NullDecimal  `json:"min_amount" swaggertype:"string"`
	MaxAmount decimal.NullDecimal  `json:"max_amount" swaggertype:"string"`
}

func (c *CommissionRuleInput) Validate() error {
	if c.Type != "" {
		if err := c.Type.Validate(); err != nil {
			return err
		}
	}
	if c.Value != nil && !c.Value.IsPositive() {
		return ierr.NewError("commission value must be positive").
			WithHint("Commission value must be greater than zero").
			Mark(ierr.ErrInvalidCommission)
	}
	return nil
}

// ChangePackageRequest moves a membership to another package. It is used for
// both upgrades and downgrades.
type ChangePackageRequest struct {
	TargetPackageID string `json:"target_package_id" validate:"required"`

	// EffectiveDate defaults to today
	EffectiveDate *time.Time `json:"effective_date,omitempty"`

	// Policy defaults to the configured proration policy
	Policy types.ProrationPolicy `json:"policy,omitempty"`

	// CustomAmount and IgnorePreviousPending apply to the custom policy only
	CustomAmount          *decimal.Decimal `json:"custom_amount,omitempty" swaggertype:"string"`
	IgnorePreviousPending bool             `json:"ignore_previous_pending"`

	Reason string `json:"reason" validate:"required,max=500"`
}

func (r *ChangePackageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Policy != "" {
		if err := r.Policy.Validate(); err != nil {
			return err
		}
	}
	if r.Policy == types.ProrationPolicyCustom && r.CustomAmount == nil {
		return ierr.NewError("custom amount is required").
			WithHint("Enter the amount to charge for a custom proration").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TransferMembershipRequest hands the rest of a membership to another member.
// Exactly one of ToMemberID and NewMember is set.
type TransferMembershipRequest struct {
	ToMemberID string          `json:"to_member_id,omitempty"`
	NewMember  *member.Profile `json:"new_member,omitempty"`

	EffectiveDate *time.Time      `json:"effective_date,omitempty"`
	TransferFee   decimal.Decimal `json:"transfer_fee" swaggertype:"string"`
	// FeeMethod is how the fee was settled, cash when empty
	FeeMethod types.PaymentMethod `json:"fee_payment_method,omitempty"`
	Reason    string              `json:"reason" validate:"required,max=500"`
}

func (r *TransferMembershipRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if (r.ToMemberID == "") == (r.NewMember == nil) {
		return ierr.NewError("transfer target is ambiguous").
			WithHint("Provide either an existing member or the details of a new member").
			Mark(ierr.ErrValidation)
	}
	if r.NewMember != nil {
		if err := r.NewMember.Validate(); err != nil {
			return err
		}
	}
	if r.TransferFee.IsNegative() {
		return ierr.NewError("transfer fee cannot be negative").
			WithHint("Transfer fee must be zero or more").
			Mark(ierr.ErrValidation)
	}
	if r.FeeMethod != "" {
		if err := r.FeeMethod.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FreezeMembershipRequest pauses a membership and pushes its end date out
type FreezeMembershipRequest struct {
	DurationDays int        `json:"duration_days" validate:"required,min=1,max=365"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	Reason       string     `json:"reason" validate:"required,max=500"`
}

func (r *FreezeMembershipRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// StatusChangeRequest carries the mandatory reason of a status only transition
type StatusChangeRequest struct {
	Reason        string     `json:"reason" validate:"required,max=500"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (r *StatusChangeRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ChangeTrainerRequest moves the personal trainer of a membership
type ChangeTrainerRequest struct {
	NewTrainerID     string     `json:"new_trainer_id" validate:"required"`
	ChangeDate       *time.Time `json:"change_date,omitempty"`
	ReassignSessions bool       `json:"reassign_sessions"`
	Reason           string     `json:"reason" validate:"omitempty,max=500"`
}

func (r *ChangeTrainerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// MembershipResponse is a membership with what can be done next
type MembershipResponse struct {
	*membership.Membership
	AllowedActions []types.MembershipAction `json:"allowed_actions"`
}

func NewMembershipResponse(m *membership.Membership) *MembershipResponse {
	if m == nil {
		return nil
	}
	return &MembershipResponse{
		Membership:     m,
		AllowedActions: membership.AllowedActions(m.MembershipStatus),
	}
}

// PurchaseMembershipResponse is the outcome of a purchase
type PurchaseMembershipResponse struct {
	Membership     *MembershipResponse    `json:"membership"`
	DownPayment    *payment.Payment       `json:"down_payment,omitempty"`
	PaymentPlan    *installment.Plan      `json:"payment_plan,omitempty"`
	CommissionRule *commission.Rule       `json:"commission_rule,omitempty"`
	Events         []types.LifecycleEvent `json:"events"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// LifecycleResponse is the outcome of a membership transition. Source is the
// membership after the transition, Successor is set when one was created.
type LifecycleResponse struct {
	Source         *MembershipResponse    `json:"membership"`
	Successor      *MembershipResponse    `json:"successor,omitempty"`
	Change         *membership.Change     `json:"change"`
	Proration      *proration.Result      `json:"proration,omitempty"`
	Credit         *credit.Transaction    `json:"credit_transaction,omitempty"`
	Payment        *payment.Payment       `json:"payment,omitempty"`
	CommissionRule *commission.Rule       `json:"commission_rule,omitempty"`
	Events         []types.LifecycleEvent `json:"events"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// TrainerChangeResponse is the outcome of a trainer change
type TrainerChangeResponse struct {
	Membership         *MembershipResponse    `json:"membership"`
	PreviousRule       *commission.Rule       `json:"previous_rule,omitempty"`
	NewRule            *commission.Rule       `json:"new_rule,omitempty"`
	RemainingValue     decimal.Decimal        `json:"remaining_value" swaggertype:"string"`
	Earnings           []*commission.Earning  `json:"earnings"`
	ReassignedSessions []string               `json:"reassigned_sessions,omitempty"`
	Events             []types.LifecycleEvent `json:"events"`
	Warnings           []string               `json:"warnings,omitempty"`
}

// ListMembershipChangesResponse is the audit history of a membership
type ListMembershipChangesResponse struct {
	Items []*membership.Change `json:"items"`
}

// ListMembershipsResponse lists a member's memberships
type ListMembershipsResponse struct {
	Items  []*MembershipResponse `json:"items"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}
