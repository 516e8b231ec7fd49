package installment

import (
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PlanInput describes the schedule to build. Periodic frequencies need
// FirstDueDate, the custom frequency needs exactly InstallmentCount dates.
type PlanInput struct {
	TotalAmount      decimal.Decimal
	DownPayment      decimal.Decimal
	InstallmentCount int
	Frequency        types.InstallmentFrequency
	FirstDueDate     time.Time
	CustomDueDates   []time.Time
}

// ScheduledInstallment is one line of a schedule before it is stored
type ScheduledInstallment struct {
	Number  int             `json:"installment_number"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// Schedule is the planner output. Amounts are rounded half-up to 2 decimals,
// each installment independently.
type Schedule struct {
	TotalAmount      decimal.Decimal            `json:"total_amount"`
	DownPayment      decimal.Decimal            `json:"down_payment"`
	RemainingAmount  decimal.Decimal            `json:"remaining_amount"`
	InstallmentCount int                        `json:"installment_count"`
	Frequency        types.InstallmentFrequency `json:"frequency"`
	PerInstallment   decimal.Decimal            `json:"per_installment_amount"`
	FirstDueDate     time.Time                  `json:"first_due_date"`
	LastDueDate      time.Time                  `json:"last_due_date"`
	Installments     []ScheduledInstallment     `json:"installments"`
}

// Planner builds installment schedules. It holds no state.
type Planner interface {
	Plan(in PlanInput) (*Schedule, error)
	DueDates(first time.Time, count int, frequency types.InstallmentFrequency) ([]time.Time, error)
	ResizeDueDates(existing []time.Time, count int, frequency types.InstallmentFrequency) ([]time.Time, error)
}

func NewPlanner() Planner {
	return planner{}
}

type planner struct{}

func (p planner) Plan(in PlanInput) (*Schedule, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var dates []time.Time
	if in.Frequency == types.InstallmentFrequencyCustom {
		dates = lo.Map(in.CustomDueDates, func(d time.Time, _ int) time.Time { return types.Date(d) })
	} else {
		generated, err := p.DueDates(in.FirstDueDate, in.InstallmentCount, in.Frequency)
		if err != nil {
			return nil, err
		}
		dates = generated
	}

	remaining := in.TotalAmount.Sub(in.DownPayment)
	per := remaining.Div(decimal.NewFromInt(int64(in.InstallmentCount))).Round(2)

	s := &Schedule{
		TotalAmount:      in.TotalAmount.Round(2),
		DownPayment:      in.DownPayment.Round(2),
		RemainingAmount:  remaining.Round(2),
		InstallmentCount: in.InstallmentCount,
		Frequency:        in.Frequency,
		PerInstallment:   per,
		FirstDueDate:     dates[0],
		LastDueDate:      dates[len(dates)-1],
		Installments:     make([]ScheduledInstallment, 0, len(dates)),
	}
	for i, d := range dates {
		s.Installments = append(s.Installments, ScheduledInstallment{
			Number:  i + 1,
			DueDate: d,
			Amount:  per,
		})
	}
	return s, nil
}

// DueDates generates count periodic dates. Month based dates are always
// derived from first so a 31st keeps landing on month ends.
func (p planner) DueDates(first time.Time, count int, frequency types.InstallmentFrequency) ([]time.Time, error) {
	if count < 1 {
		return nil, ierr.NewError("installment count must be at least 1").
			WithHint("A payment plan needs at least one installment").
			Mark(ierr.ErrValidation)
	}
	if frequency == types.InstallmentFrequencyCustom {
		return nil, ierr.NewError("custom frequency has no generated dates").
			WithHint("Custom plans must list their due dates").
			Mark(ierr.ErrValidation)
	}
	if err := frequency.Validate(); err != nil {
		return nil, err
	}

	dates := make([]time.Time, count)
	for i := 0; i < count; i++ {
		dates[i] = step(first, i, frequency)
	}
	return dates, nil
}

// ResizeDueDates keeps the dates that still fit and appends new ones after the
// last kept date. Custom plans continue monthly. Growing needs at least one
// entered date to continue from.
func (p planner) ResizeDueDates(existing []time.Time, count int, frequency types.InstallmentFrequency) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	if count <= len(existing) {
		return append([]time.Time{}, existing[:count]...), nil
	}
	if len(existing) == 0 {
		return nil, ierr.NewErrorf("no due dates to extend to %d installments", count).
			WithHint("Enter the first due date before adding installments").
			WithReportableDetails(map[string]any{"installment_count": count}).
			Mark(ierr.ErrValidation)
	}

	if frequency == types.InstallmentFrequencyCustom {
		frequency = types.InstallmentFrequencyMonthly
	}
	resized := append(make([]time.Time, 0, count), existing...)
	last := existing[len(existing)-1]
	for k := 1; len(resized) < count; k++ {
		resized = append(resized, step(last, k, frequency))
	}
	return resized, nil
}

func step(from time.Time, n int, frequency types.InstallmentFrequency) time.Time {
	switch frequency {
	case types.InstallmentFrequencyWeekly:
		return types.AddDays(from, 7*n)
	case types.InstallmentFrequencyQuarterly:
		return types.AddMonthsClamped(from, 3*n)
	default:
		return types.AddMonthsClamped(from, n)
	}
}

func validateInput(in PlanInput) error {
	if err := in.Frequency.Validate(); err != nil {
		return err
	}
	if in.InstallmentCount < 1 {
		return ierr.NewError("installment count must be at least 1").
			WithHint("A payment plan needs at least one installment").
			Mark(ierr.ErrValidation)
	}
	if !in.TotalAmount.IsPositive() {
		return ierr.NewError("plan total must be positive").
			WithHint("Payment plan total must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if in.DownPayment.IsNegative() || !in.DownPayment.LessThan(in.TotalAmount) {
		return ierr.NewError("invalid down payment").
			WithHint("Down payment must be at least zero and less than the total").
			WithReportableDetails(map[string]any{
				"total_amount": in.TotalAmount.String(),
				"down_payment": in.DownPayment.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if in.Frequency != types.InstallmentFrequencyCustom {
		if in.FirstDueDate.IsZero() {
			return ierr.NewError("first due date is required").
				WithHint("Periodic plans need a first due date").
				Mark(ierr.ErrValidation)
		}
		return nil
	}

	if len(in.CustomDueDates) != in.InstallmentCount {
		return ierr.NewError("custom due dates do not match installment count").
			WithHintf("Expected %d due dates, got %d", in.InstallmentCount, len(in.CustomDueDates)).
			Mark(ierr.ErrValidation)
	}
	for i := 1; i < len(in.CustomDueDates); i++ {
		if types.Date(in.CustomDueDates[i]).Before(types.Date(in.CustomDueDates[i-1])) {
			return ierr.NewError("custom due dates are out of order").
				WithHintf("Installment %d is due before installment %d", i+1, i).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
