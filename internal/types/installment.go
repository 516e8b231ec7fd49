package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// InstallmentFrequency is the spacing between installment due dates
type InstallmentFrequency string

const (
	InstallmentFrequencyWeekly    InstallmentFrequency = "weekly"
	InstallmentFrequencyMonthly   InstallmentFrequency = "monthly"
	InstallmentFrequencyQuarterly InstallmentFrequency = "quarterly"
	InstallmentFrequencyCustom    InstallmentFrequency = "custom"
)

var installmentFrequencies = []InstallmentFrequency{
	InstallmentFrequencyWeekly,
	InstallmentFrequencyMonthly,
	InstallmentFrequencyQuarterly,
	InstallmentFrequencyCustom,
}

func (f InstallmentFrequency) String() string {
	return string(f)
}

func (f InstallmentFrequency) Validate() error {
	if !lo.Contains(installmentFrequencies, f) {
		return ierr.NewError("invalid installment frequency").
			WithHintf("Installment frequency must be one of %v", installmentFrequencies).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentPlanStatus tracks whether a plan still governs its membership
type PaymentPlanStatus string

const (
	PaymentPlanStatusActive    PaymentPlanStatus = "active"
	PaymentPlanStatusCompleted PaymentPlanStatus = "completed"
	PaymentPlanStatusCancelled PaymentPlanStatus = "cancelled"
)

func (s PaymentPlanStatus) String() string {
	return string(s)
}
