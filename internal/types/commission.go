package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// CommissionType is how a trainer's cut of a package is computed
type CommissionType string

const (
	CommissionTypePercentage  CommissionType = "percentage"
	CommissionTypeFixedAmount CommissionType = "fixed_amount"
	CommissionTypePerSession  CommissionType = "per_session"
)

var commissionTypes = []CommissionType{
	CommissionTypePercentage,
	CommissionTypeFixedAmount,
	CommissionTypePerSession,
}

func (t CommissionType) String() string {
	return string(t)
}

func (t CommissionType) Validate() error {
	if !lo.Contains(commissionTypes, t) {
		return ierr.NewError("invalid commission type").
			WithHintf("Commission type must be one of %v", commissionTypes).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// EarningType classifies a trainer earning row
type EarningType string

const (
	EarningTypePackageCommission     EarningType = "package_commission"
	EarningTypeSessionCommission     EarningType = "session_commission"
	EarningTypeCommissionTransferOut EarningType = "commission_transfer_out"
	EarningTypeCommissionTransferIn  EarningType = "commission_transfer_in"
	EarningTypeReversal              EarningType = "reversal"
)

func (t EarningType) String() string {
	return string(t)
}

func (t EarningType) Validate() error {
	allowed := []EarningType{
		EarningTypePackageCommission,
		EarningTypeSessionCommission,
		EarningTypeCommissionTransferOut,
		EarningTypeCommissionTransferIn,
		EarningTypeReversal,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid earning type").
			WithHintf("Earning type must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}
