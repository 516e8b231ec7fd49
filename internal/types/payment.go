package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// PaymentType is what a payment settles
type PaymentType string

const (
	PaymentTypeMembership  PaymentType = "membership"
	PaymentTypeDownPayment PaymentType = "down_payment"
	PaymentTypeInstallment PaymentType = "installment"
	PaymentTypeTransferFee PaymentType = "transfer_fee"
	PaymentTypeSettlement  PaymentType = "settlement"
	PaymentTypeReversal    PaymentType = "reversal"
)

var paymentTypes = []PaymentType{
	PaymentTypeMembership,
	PaymentTypeDownPayment,
	PaymentTypeInstallment,
	PaymentTypeTransferFee,
	PaymentTypeSettlement,
	PaymentTypeReversal,
}

func (t PaymentType) String() string {
	return string(t)
}

func (t PaymentType) Validate() error {
	if !lo.Contains(paymentTypes, t) {
		return ierr.NewError("invalid payment type").
			WithHintf("Payment type must be one of %v", paymentTypes).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentMethod is how the money was collected
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	// PaymentMethodCreditBalance redeems the member's store credit
	PaymentMethodCreditBalance PaymentMethod = "credit_balance"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodCreditBalance,
}

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	if !lo.Contains(paymentMethods, m) {
		return ierr.NewError("invalid payment method").
			WithHintf("Payment method must be one of %v", paymentMethods).
			Mark(ierr.ErrValidation)
	}
	return nil
}
