package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// CreditReason explains a credit ledger entry
type CreditReason string

const (
	CreditReasonTransferSurplus  CreditReason = "transfer_surplus"
	CreditReasonDowngradeRefund  CreditReason = "downgrade_refund"
	CreditReasonRedemption       CreditReason = "redemption"
	CreditReasonManualAdjustment CreditReason = "manual_adjustment"
	CreditReasonReversal         CreditReason = "reversal"
)

var creditReasons = []CreditReason{
	CreditReasonTransferSurplus,
	CreditReasonDowngradeRefund,
	CreditReasonRedemption,
	CreditReasonManualAdjustment,
	CreditReasonReversal,
}

func (r CreditReason) String() string {
	return string(r)
}

func (r CreditReason) Validate() error {
	if !lo.Contains(creditReasons, r) {
		return ierr.NewError("invalid credit reason").
			WithHintf("Credit reason must be one of %v", creditReasons).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreditReferenceType names the entity a credit entry points at
type CreditReferenceType string

const (
	CreditReferenceMembership CreditReferenceType = "membership"
	CreditReferencePayment    CreditReferenceType = "payment"
	CreditReferenceManual     CreditReferenceType = "manual"
)
