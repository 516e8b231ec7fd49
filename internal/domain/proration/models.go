package proration

import (
	"time"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// SourceMembership is the part of the current membership the calculator reads.
type SourceMembership struct {
	AmountPaid     decimal.Decimal
	TotalAmountDue decimal.Decimal
	AmountPending  decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
}

// TargetPackage is the package the member moves to.
type TargetPackage struct {
	Price        decimal.Decimal
	DurationDays int
}

// Params holds all necessary input for calculating proration.
type Params struct {
	Source        SourceMembership
	Target        TargetPackage
	EffectiveDate time.Time
	Policy        types.ProrationPolicy
	Direction     types.ProrationDirection

	// Custom policy only
	CustomAmount          decimal.Decimal
	IgnorePreviousPending bool
}

// Result holds the output of a proration calculation. Every amount is rounded
// half-up to 2 decimals, intermediate values are not.
type Result struct {
	Policy         types.ProrationPolicy `json:"policy"`
	TotalDays      int                   `json:"total_days"`
	RemainingDays  int                   `json:"remaining_days"`
	OldDailyRate   decimal.Decimal       `json:"old_daily_rate"`
	RemainingValue decimal.Decimal       `json:"remaining_value"`
	NewDailyRate   decimal.Decimal       `json:"new_daily_rate"`
	NewCost        decimal.Decimal       `json:"new_cost"`
	// Delta is positive when the member owes more and negative when value is returned
	Delta decimal.Decimal `json:"delta"`
	// Refund is the credit-eligible amount returned to the member
	Refund decimal.Decimal `json:"refund"`
	// AmountDue is what the successor membership starts with as pending
	AmountDue  decimal.Decimal `json:"amount_due"`
	NewEndDate time.Time       `json:"new_end_date"`
}
