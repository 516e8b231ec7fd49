package commission

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input describes one commission calculation.
type Input struct {
	Type  types.CommissionType
	Value decimal.Decimal
	// BaseAmount is the package amount a percentage applies to
	BaseAmount        decimal.Decimal
	SessionsRemaining int
	SessionsUsed      int
	MinAmount         decimal.NullDecimal
	MaxAmount         decimal.NullDecimal
}

// InputFromRule builds the input for a rule against a package and its
// session counters.
func InputFromRule(r *Rule, base decimal.Decimal, remaining, used int) Input {
	return Input{
		Type:              r.CommissionType,
		Value:             r.CommissionValue,
		BaseAmount:        base,
		SessionsRemaining: remaining,
		SessionsUsed:      used,
		MinAmount:         r.MinAmount,
		MaxAmount:         r.MaxAmount,
	}
}

// Result is rounded half-up to 2 decimals.
type Result struct {
	TotalSessions int             `json:"total_sessions"`
	Commission    decimal.Decimal `json:"commission"`
	PerSession    decimal.Decimal `json:"per_session"`
	// RemainingValue is the commission still attached to unused sessions
	RemainingValue decimal.Decimal `json:"remaining_value"`
	// Rate is the percentage for percentage rules
	Rate decimal.NullDecimal `json:"rate"`
}

// Calculator computes trainer commission. It holds no state.
type Calculator interface {
	Calculate(in Input) (*Result, error)
}

func NewCalculator() Calculator {
	return calculator{}
}

type calculator struct{}

func (calculator) Calculate(in Input) (*Result, error) {
	if err := in.Type.Validate(); err != nil {
		return nil, err
	}

	total := in.SessionsRemaining + in.SessionsUsed
	if total <= 0 {
		return nil, ierr.NewError("commission has no sessions").
			WithHint("Package must include at least one session to calculate a commission").
			WithReportableDetails(map[string]any{
				"sessions_remaining": in.SessionsRemaining,
				"sessions_used":      in.SessionsUsed,
			}).
			Mark(ierr.ErrInvalidCommission)
	}
	if !in.Value.IsPositive() {
		return nil, ierr.NewError("commission value must be positive").
			WithHint("Commission value must be greater than zero").
			WithReportableDetails(map[string]any{
				"commission_value": in.Value.String(),
			}).
			Mark(ierr.ErrInvalidCommission)
	}

	sessions := decimal.NewFromInt(int64(total))
	result := &Result{TotalSessions: total}

	var commission, perSession decimal.Decimal
	switch in.Type {
	case types.CommissionTypePercentage:
		commission = in.BaseAmount.Mul(in.Value).Div(hundred)
		perSession = commission.Div(sessions)
		result.Rate = decimal.NewNullDecimal(in.Value)
	case types.CommissionTypeFixedAmount:
		commission = in.Value
		perSession = commission.Div(sessions)
	case types.CommissionTypePerSession:
		perSession = in.Value
		commission = perSession.Mul(sessions)
	}

	if bounded, ok := clamp(commission, in.MinAmount, in.MaxAmount); ok {
		commission = bounded
		perSession = commission.Div(sessions)
	}

	result.Commission = commission.Round(2)
	result.PerSession = perSession.Round(2)
	result.RemainingValue = perSession.Mul(decimal.NewFromInt(int64(in.SessionsRemaining))).Round(2)
	return result, nil
}

// clamp bounds v and reports whether it changed
func clamp(v decimal.Decimal, min, max decimal.NullDecimal) (decimal.Decimal, bool) {
	if min.Valid && v.LessThan(min.Decimal) {
		return min.Decimal, true
	}
	if max.Valid && v.GreaterThan(max.Decimal) {
		return max.Decimal, true
	}
	return v, false
}
