package proration

import (
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Calculator prices a package change. Implementations are pure: identical
// params always give identical results.
type Calculator interface {
	Calculate(params Params) (*Result, error)
}

// NewCalculator creates the proration calculator used by the lifecycle engine.
func NewCalculator() Calculator {
	return &calculator{
		policies: map[types.ProrationPolicy]policyFunc{
			types.ProrationPolicyProportional: proportional,
			types.ProrationPolicyFull:         full,
			types.ProrationPolicyCustom:       custom,
		},
	}
}

type calculator struct {
	policies map[types.ProrationPolicy]policyFunc
}

// window is the unrounded state shared by every policy
type window struct {
	totalDays      int
	remainingDays  int
	oldDailyRate   decimal.Decimal
	remainingValue decimal.Decimal
}

type policyFunc func(p Params, w window) (*Result, error)

func (c *calculator) Calculate(params Params) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	apply, ok := c.policies[params.Policy]
	if !ok {
		return nil, ierr.NewError("unsupported proration policy").
			WithHintf("Proration policy %s is not supported", params.Policy).
			Mark(ierr.ErrValidation)
	}

	w := newWindow(params)
	result, err := apply(params, w)
	if err != nil {
		return nil, err
	}

	result.Policy = params.Policy
	result.TotalDays = w.totalDays
	result.RemainingDays = w.remainingDays
	result.round()
	return result, nil
}

func validateParams(p Params) error {
	if err := p.Policy.Validate(); err != nil {
		return err
	}
	if err := p.Direction.Validate(); err != nil {
		return err
	}

	totalDays := types.DaysBetween(p.Source.StartDate, p.Source.EndDate)
	if totalDays <= 0 {
		return ierr.NewError("membership period has no days").
			WithHintf("Membership end date must be after its start date (%d days)", totalDays).
			WithReportableDetails(map[string]any{
				"start_date": p.Source.StartDate,
				"end_date":   p.Source.EndDate,
			}).
			Mark(ierr.ErrInvalidPackage)
	}
	if p.Target.DurationDays <= 0 {
		return ierr.NewError("target package has no duration").
			WithHint("Package duration must be at least one day").
			WithReportableDetails(map[string]any{
				"duration_days": p.Target.DurationDays,
			}).
			Mark(ierr.ErrInvalidPackage)
	}
	if !p.Target.Price.IsPositive() {
		return ierr.NewError("target package has no price").
			WithHint("Package price must be greater than zero").
			WithReportableDetails(map[string]any{
				"price": p.Target.Price.String(),
			}).
			Mark(ierr.ErrInvalidPackage)
	}
	if p.Source.AmountPaid.IsNegative() {
		return ierr.NewError("negative amount paid").
			WithHint("Amount paid cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func newWindow(p Params) window {
	totalDays := types.DaysBetween(p.Source.StartDate, p.Source.EndDate)

	remainingDays := types.DaysBetween(p.EffectiveDate, p.Source.EndDate)
	if remainingDays < 0 {
		// change happened after the membership ended
		remainingDays = 0
	}
	if remainingDays > totalDays {
		// change dated before the membership started
		remainingDays = totalDays
	}

	total := decimal.NewFromInt(int64(totalDays))
	remaining := decimal.NewFromInt(int64(remainingDays))

	return window{
		totalDays:     totalDays,
		remainingDays: remainingDays,
		oldDailyRate:  p.Source.AmountPaid.Div(total),
		// multiply before dividing so whole-day values stay exact
		remainingValue: p.Source.AmountPaid.Mul(remaining).Div(total),
	}
}

func proportional(p Params, w window) (*Result, error) {
	duration := decimal.NewFromInt(int64(p.Target.DurationDays))
	remaining := decimal.NewFromInt(int64(w.remainingDays))

	newDailyRate := p.Target.Price.Div(duration)
	newCost := p.Target.Price.Mul(remaining).Div(duration)
	delta := newCost.Sub(w.remainingValue)

	return &Result{
		OldDailyRate:   w.oldDailyRate,
		RemainingValue: w.remainingValue,
		NewDailyRate:   newDailyRate,
		NewCost:        newCost,
		Delta:          delta,
		Refund:         decimal.Max(decimal.Zero, delta.Neg()),
		AmountDue:      decimal.Max(decimal.Zero, delta),
		NewEndDate:     types.Date(p.Source.EndDate),
	}, nil
}

func full(p Params, w window) (*Result, error) {
	duration := decimal.NewFromInt(int64(p.Target.DurationDays))

	result := &Result{
		OldDailyRate:   w.oldDailyRate,
		RemainingValue: w.remainingValue,
		NewDailyRate:   p.Target.Price.Div(duration),
		NewCost:        p.Target.Price,
		NewEndDate:     types.AddDays(p.EffectiveDate, p.Target.DurationDays),
	}

	delta := p.Target.Price.Sub(w.remainingValue)
	switch p.Direction {
	case types.ProrationDirectionUpgrade:
		// a full-price upgrade never owes the member a refund
		result.Delta = decimal.Max(decimal.Zero, delta)
		result.Refund = decimal.Zero
	default:
		result.Delta = delta
		result.Refund = decimal.Max(decimal.Zero, w.remainingValue.Sub(p.Target.Price))
	}
	result.AmountDue = decimal.Max(decimal.Zero, result.Delta)
	return result, nil
}

func custom(p Params, w window) (*Result, error) {
	delta := p.CustomAmount
	if !p.IgnorePreviousPending {
		delta = delta.Add(p.Source.AmountPending)
	}
	if delta.IsNegative() {
		return nil, ierr.NewError("custom amount results in a negative total").
			WithHint("Custom amount plus the outstanding balance cannot be negative").
			WithReportableDetails(map[string]any{
				"custom_amount":           p.CustomAmount.String(),
				"amount_pending":          p.Source.AmountPending.String(),
				"ignore_previous_pending": p.IgnorePreviousPending,
			}).
			Mark(ierr.ErrValidation)
	}

	return &Result{
		OldDailyRate:   w.oldDailyRate,
		RemainingValue: w.remainingValue,
		NewDailyRate:   decimal.Zero,
		NewCost:        delta,
		Delta:          delta,
		Refund:         decimal.Zero,
		AmountDue:      delta,
		NewEndDate:     types.Date(p.Source.EndDate),
	}, nil
}

func (r *Result) round() {
	r.OldDailyRate = r.OldDailyRate.Round(2)
	r.RemainingValue = r.RemainingValue.Round(2)
	r.NewDailyRate = r.NewDailyRate.Round(2)
	r.NewCost = r.NewCost.Round(2)
	r.Delta = r.Delta.Round(2)
	r.Refund = r.Refund.Round(2)
	r.AmountDue = r.AmountDue.Round(2)
}

// MembershipEndDate is the end date of a new membership of durationDays
// starting on start.
func MembershipEndDate(start time.Time, durationDays int) time.Time {
	return types.AddDays(start, durationDays)
}
