package commission

import (
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Rule determines a trainer's cut of a member's package. At most one rule is
// active per (trainer, package, member).
type Rule struct {
	ID              string               `db:"id" json:"id"`
	TrainerID       string               `db:"trainer_id" json:"trainer_id"`
	PackageID       string               `db:"package_id" json:"package_id"`
	MemberID        string               `db:"member_id" json:"member_id"`
	MembershipID    string               `db:"membership_id" json:"membership_id"`
	CommissionType  types.CommissionType `db:"commission_type" json:"commission_type"`
	CommissionValue decimal.Decimal      `db:"commission_value" json:"commission_value" swaggertype:"string"`
	MinAmount       decimal.NullDecimal  `db:"min_amount" json:"min_amount" swaggertype:"string"`
	MaxAmount       decimal.NullDecimal  `db:"max_amount" json:"max_amount" swaggertype:"string"`
	ValidFrom       time.Time            `db:"valid_from" json:"valid_from"`
	ValidUntil      *time.Time           `db:"valid_until" json:"valid_until,omitempty"`
	IsActive        bool                 `db:"is_active" json:"is_active"`
	types.BaseModel
}

func (r *Rule) TableName() string {
	return "commission_rules"
}

func (r *Rule) Validate() error {
	if r.TrainerID == "" || r.PackageID == "" || r.MemberID == "" {
		return ierr.NewError("commission rule is missing its owner").
			WithHint("Trainer, package and member are required for a commission rule").
			Mark(ierr.ErrValidation)
	}
	if err := r.CommissionType.Validate(); err != nil {
		return err
	}
	if !r.CommissionValue.IsPositive() {
		return ierr.NewError("commission value must be positive").
			WithHint("Commission value must be greater than zero").
			WithReportableDetails(map[string]any{
				"commission_value": r.CommissionValue.String(),
			}).
			Mark(ierr.ErrInvalidCommission)
	}
	if r.MinAmount.Valid && r.MaxAmount.Valid && r.MinAmount.Decimal.GreaterThan(r.MaxAmount.Decimal) {
		return ierr.NewError("commission bounds are inverted").
			WithHint("Minimum commission cannot exceed the maximum").
			Mark(ierr.ErrInvalidCommission)
	}
	return nil
}

// CopyFor returns a new active rule with the same commission parameters for
// another trainer or membership, valid from the given date.
func (r *Rule) CopyFor(trainerID, membershipID, packageID string, validFrom time.Time, base types.BaseModel) *Rule {
	return &Rule{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMMISSION_RULE),
		TrainerID:       trainerID,
		PackageID:       packageID,
		MemberID:        r.MemberID,
		MembershipID:    membershipID,
		CommissionType:  r.CommissionType,
		CommissionValue: r.CommissionValue,
		MinAmount:       r.MinAmount,
		MaxAmount:       r.MaxAmount,
		ValidFrom:       types.Date(validFrom),
		IsActive:        true,
		BaseModel:       base,
	}
}

// Earning is one trainer ledger line. A negative TotalEarning is a reversal.
type Earning struct {
	ID               string              `db:"id" json:"id"`
	TrainerID        string              `db:"trainer_id" json:"trainer_id"`
	MemberID         string              `db:"member_id" json:"member_id"`
	MembershipID     string              `db:"membership_id" json:"membership_id"`
	SessionID        *string             `db:"session_id" json:"session_id,omitempty"`
	RuleID           *string             `db:"commission_rule_id" json:"commission_rule_id,omitempty"`
	EarningType      types.EarningType   `db:"earning_type" json:"earning_type"`
	BaseAmount       decimal.Decimal     `db:"base_amount" json:"base_amount" swaggertype:"string"`
	CommissionRate   decimal.NullDecimal `db:"commission_rate" json:"commission_rate" swaggertype:"string"`
	CommissionAmount decimal.Decimal     `db:"commission_amount" json:"commission_amount" swaggertype:"string"`
	TotalEarning     decimal.Decimal     `db:"total_earning" json:"total_earning" swaggertype:"string"`
	EarningDate      time.Time           `db:"earning_date" json:"earning_date"`
	IsPaid           bool                `db:"is_paid" json:"is_paid"`
	Description      string              `db:"description" json:"description"`
	types.BaseModel
}

func (e *Earning) TableName() string {
	return "trainer_earnings"
}

// Reversal returns the earning that cancels e.
func (e *Earning) Reversal(base types.BaseModel, description string) *Earning {
	return &Earning{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRAINER_EARNING),
		TrainerID:        e.TrainerID,
		MemberID:         e.MemberID,
		MembershipID:     e.MembershipID,
		SessionID:        e.SessionID,
		RuleID:           e.RuleID,
		EarningType:      types.EarningTypeReversal,
		BaseAmount:       e.BaseAmount,
		CommissionRate:   e.CommissionRate,
		CommissionAmount: e.CommissionAmount.Neg(),
		TotalEarning:     e.TotalEarning.Neg(),
		EarningDate:      e.EarningDate,
		Description:      description,
		BaseModel:        base,
	}
}
