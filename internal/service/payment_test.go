package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/membership"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	serviceSuite
	service PaymentService
	credits CreditService
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewPaymentService(s.params)
	s.credits = NewCreditService(s.params)
}

func (s *PaymentServiceSuite) pendingMembership(price string) string {
	m := s.createMembership(membershipFixture{
		member: s.createMember("Ana"),
		pkg:    s.createPackage("Gold", price, 90, 0),
		start:  date(2025, 1, 1),
		paid:   "0",
		status: types.MembershipStatusPendingPayment,
	})
	return m.ID
}

func (s *PaymentServiceSuite) TestRecordPayment_ActivatesWhenPaidInFull() {
	id := s.pendingMembership("3000")

	partial, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:      amount("1000"),
		Method:      types.PaymentMethodCash,
		PaymentDate: lo.ToPtr(date(2025, 1, 2)),
	})
	s.Require().NoError(err)
	s.False(partial.Duplicate)
	s.Nil(partial.Change)
	s.Equal(types.MembershipStatusPendingPayment, partial.Membership.MembershipStatus)
	s.assertDecimal("2000", partial.Membership.AmountPending)
	s.Equal([]string{types.EventPaymentRecorded}, eventNames(partial.Events))

	rest, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:      amount("2000"),
		Method:      types.PaymentMethodCard,
		PaymentDate: lo.ToPtr(date(2025, 1, 3)),
	})
	s.Require().NoError(err)
	s.Require().NotNil(rest.Change)
	s.Equal("paid in full", rest.Change.Reason)
	s.Equal([]string{types.EventPaymentRecorded, types.EventMembershipActivated}, eventNames(rest.Events))

	m := s.reload(id)
	s.Equal(types.MembershipStatusActive, m.MembershipStatus)
	s.assertDecimal("3000", m.AmountPaid)
	s.True(m.AmountPending.IsZero())
	s.assertAmounts(m)
}

func (s *PaymentServiceSuite) TestRecordPayment_DuplicateWritesNothing() {
	id := s.pendingMembership("3000")
	req := dto.RecordPaymentRequest{
		Amount:      amount("500"),
		Method:      types.PaymentMethodCash,
		PaymentDate: lo.ToPtr(date(2025, 1, 2)),
	}

	first, err := s.service.RecordPayment(s.GetContext(), id, req)
	s.Require().NoError(err)

	second, err := s.service.RecordPayment(s.GetContext(), id, req)
	s.Require().NoError(err)
	s.True(second.Duplicate)
	s.Equal(first.Payment.ID, second.Payment.ID)
	s.Empty(second.Events)

	list, err := s.service.ListPayments(s.GetContext(), id)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.assertDecimal("500", s.reload(id).AmountPaid)
}

func (s *PaymentServiceSuite) TestRecordPayment_ExplicitKey() {
	id := s.pendingMembership("3000")

	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:         amount("500"),
		Method:         types.PaymentMethodCash,
		IdempotencyKey: "receipt-17",
	})
	s.Require().NoError(err)

	// same key, different amount, still the first payment
	again, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:         amount("700"),
		Method:         types.PaymentMethodCash,
		IdempotencyKey: "receipt-17",
	})
	s.Require().NoError(err)
	s.True(again.Duplicate)
	s.assertDecimal("500", again.Payment.Amount)
}

func (s *PaymentServiceSuite) TestRecordPayment_OverPending() {
	id := s.pendingMembership("3000")

	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("3000.01"),
		Method: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal(0, s.GetFaults().Writes("payment.Create"))
}

func (s *PaymentServiceSuite) TestRecordPayment_InvalidRequest() {
	id := s.pendingMembership("3000")

	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("-5"),
		Method: types.PaymentMethodCash,
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("5"),
		Method: "cheque",
	})
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestRecordPayment_UnknownMembership() {
	_, err := s.service.RecordPayment(s.GetContext(), "msh_missing", dto.RecordPaymentRequest{
		Amount: amount("5"),
		Method: types.PaymentMethodCash,
	})
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestRecordPayment_InstallmentWithoutPlan() {
	id := s.pendingMembership("3000")

	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:            amount("100"),
		Method:            types.PaymentMethodCash,
		InstallmentNumber: lo.ToPtr(1),
	})
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestRecordPayment_CreditBalance() {
	id := s.pendingMembership("3000")
	m := s.reload(id)

	_, err := s.credits.Adjust(s.GetContext(), m.MemberID, dto.CreditAdjustmentRequest{
		Amount:      amount("800"),
		Description: "goodwill",
	})
	s.Require().NoError(err)

	resp, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("500"),
		Method: types.PaymentMethodCreditBalance,
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Credit)
	s.Equal(types.CreditReasonRedemption, resp.Credit.Reason)
	s.Equal([]string{types.EventPaymentRecorded, types.EventCreditRedeemed}, eventNames(resp.Events))

	balance, err := s.credits.GetBalance(s.GetContext(), m.MemberID)
	s.Require().NoError(err)
	s.assertDecimal("300", balance.Balance)

	// more than the remaining balance
	_, err = s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("400"),
		Method: types.PaymentMethodCreditBalance,
	})
	s.True(ierr.IsValidation(err))
	s.assertDecimal("500", s.reload(id).AmountPaid)
}

func (s *PaymentServiceSuite) TestRecordPayment_RolledBackWhenMembershipFails() {
	id := s.pendingMembership("3000")
	s.GetFaults().FailAlways("membership.ApplyAmountDelta", ierr.NewError("db down").Mark(ierr.ErrDatabase))

	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("500"),
		Method: types.PaymentMethodCash,
	})
	s.Error(err)
	s.False(ierr.IsPartiallyApplied(err))
	s.True(s.reload(id).AmountPaid.IsZero())
	s.Empty(s.GetReports().All())
}

func (s *PaymentServiceSuite) planFor(id string) *dto.PaymentPlanResponse {
	resp, err := s.service.CreatePaymentPlan(s.GetContext(), id, dto.CreatePaymentPlanRequest{
		DownPayment:       amount("2000"),
		DownPaymentMethod: types.PaymentMethodCash,
		InstallmentCount:  5,
		Frequency:         types.InstallmentFrequencyMonthly,
		FirstDueDate:      lo.ToPtr(date(2025, 1, 15)),
	})
	s.Require().NoError(err)
	return resp
}

func (s *PaymentServiceSuite) TestCreatePaymentPlan_MonthlySchedule() {
	id := s.pendingMembership("12000")

	resp := s.planFor(id)
	plan := resp.PaymentPlan
	s.assertDecimal("2000", plan.PerInstallmentAmount)
	s.assertDecimal("10000", plan.RemainingAmount)
	s.Require().Len(plan.Installments, 5)
	for i, inst := range plan.Installments {
		s.Equal(i+1, inst.Number)
		s.Equal(date(2025, time.Month(i+1), 15), inst.DueDate)
		s.assertDecimal("2000", inst.Amount)
	}

	s.Require().NotNil(resp.DownPayment)
	s.Equal(types.PaymentTypeDownPayment, resp.DownPayment.PaymentType)
	s.Equal([]string{types.EventPaymentPlanCreated, types.EventPaymentRecorded}, eventNames(resp.Events))

	m := s.reload(id)
	s.Equal(plan.ID, lo.FromPtr(m.PaymentPlanID))
	s.assertDecimal("2000", m.AmountPaid)
	s.assertDecimal("10000", m.AmountPending)
	s.assertAmounts(m)
}

func (s *PaymentServiceSuite) TestCreatePaymentPlan_AlreadyActive() {
	id := s.pendingMembership("12000")
	s.planFor(id)

	_, err := s.service.CreatePaymentPlan(s.GetContext(), id, dto.CreatePaymentPlanRequest{
		InstallmentCount: 2,
		Frequency:        types.InstallmentFrequencyWeekly,
		FirstDueDate:     lo.ToPtr(date(2025, 2, 1)),
	})
	s.True(ierr.IsAlreadyExists(err))
}

func (s *PaymentServiceSuite) TestCreatePaymentPlan_TerminalMembership() {
	m := s.createMembership(membershipFixture{
		member: s.createMember("Ana"),
		pkg:    s.createPackage("Gold", "3000", 90, 0),
		start:  date(2025, 1, 1),
		paid:   "0",
		status: types.MembershipStatusCancelled,
	})

	_, err := s.service.CreatePaymentPlan(s.GetContext(), m.ID, dto.CreatePaymentPlanRequest{
		InstallmentCount: 2,
		Frequency:        types.InstallmentFrequencyMonthly,
		FirstDueDate:     lo.ToPtr(date(2025, 2, 1)),
	})
	s.True(ierr.IsInvalidTransition(err))
}

func (s *PaymentServiceSuite) TestInstallments_CompletePlan() {
	id := s.pendingMembership("12000")
	planID := s.planFor(id).PaymentPlan.ID

	for n := 1; n <= 5; n++ {
		resp, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
			Amount:            amount("2000"),
			Method:            types.PaymentMethodBankTransfer,
			InstallmentNumber: lo.ToPtr(n),
		})
		s.Require().NoError(err, "installment %d", n)
		s.False(resp.Duplicate)
		s.Equal(types.PaymentTypeInstallment, resp.Payment.PaymentType)
		s.Equal(n, lo.FromPtr(resp.Payment.InstallmentNumber))
		s.Contains(eventNames(resp.Events), types.EventInstallmentPaid)
	}

	plan, err := s.GetStores().InstallmentRepo.GetPlan(s.GetContext(), planID)
	s.Require().NoError(err)
	s.Equal(types.PaymentPlanStatusCompleted, plan.PlanStatus)
	for _, inst := range plan.Installments {
		s.True(inst.IsPaid, "installment %d", inst.Number)
		s.NotNil(inst.PaymentID)
	}

	m := s.reload(id)
	s.Equal(types.MembershipStatusActive, m.MembershipStatus)
	s.True(m.AmountPending.IsZero())
	s.assertAmounts(m)
}

func (s *PaymentServiceSuite) TestInstallments_DefaultsToNextUnpaid() {
	id := s.pendingMembership("12000")
	s.planFor(id)

	resp, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("2000"),
		Method: types.PaymentMethodCash,
	})
	s.Require().NoError(err)
	s.Equal(1, lo.FromPtr(resp.Payment.InstallmentNumber))

	_, err = s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:            amount("2000"),
		Method:            types.PaymentMethodCash,
		InstallmentNumber: lo.ToPtr(1),
	})
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestInstallments_PartialPaymentSettlesNothing() {
	id := s.pendingMembership("12000")
	planID := s.planFor(id).PaymentPlan.ID

	resp, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("1.00"),
		Method: types.PaymentMethodCash,
	})
	s.Require().NoError(err)
	s.Equal(types.PaymentTypeMembership, resp.Payment.PaymentType)
	s.Nil(resp.Payment.InstallmentNumber)
	s.Equal([]string{types.EventPaymentRecorded}, eventNames(resp.Events))

	plan, err := s.GetStores().InstallmentRepo.GetPlan(s.GetContext(), planID)
	s.Require().NoError(err)
	s.Equal(types.PaymentPlanStatusActive, plan.PlanStatus)
	for _, inst := range plan.Installments {
		s.False(inst.IsPaid, "installment %d", inst.Number)
	}

	m := s.reload(id)
	s.assertDecimal("9999", m.AmountPending)
	s.assertAmounts(m)
}

func (s *PaymentServiceSuite) TestInstallments_NamedInstallmentMustBeCovered() {
	id := s.pendingMembership("12000")
	s.planFor(id)
	writes := s.GetFaults().Writes("payment.Create")

	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:            amount("1500"),
		Method:            types.PaymentMethodCard,
		InstallmentNumber: lo.ToPtr(1),
	})
	s.True(ierr.IsValidation(err))
	s.Equal(writes, s.GetFaults().Writes("payment.Create"))
	s.assertDecimal("10000", s.reload(id).AmountPending)
}

func (s *PaymentServiceSuite) TestInstallments_PlanCompletesWhenBalanceIsPaidOff() {
	id := s.pendingMembership("12000")
	planID := s.planFor(id).PaymentPlan.ID

	for n := 1; n <= 4; n++ {
		_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
			Amount:            amount("2000"),
			Method:            types.PaymentMethodCash,
			InstallmentNumber: lo.ToPtr(n),
		})
		s.Require().NoError(err, "installment %d", n)
	}

	// half of the last installment leaves the plan open
	_, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:      amount("1000"),
		Method:      types.PaymentMethodCash,
		PaymentDate: lo.ToPtr(date(2025, 5, 1)),
	})
	s.Require().NoError(err)
	plan, err := s.GetStores().InstallmentRepo.GetPlan(s.GetContext(), planID)
	s.Require().NoError(err)
	s.Equal(types.PaymentPlanStatusActive, plan.PlanStatus)
	s.False(plan.Installments[4].IsPaid)

	// the rest of the balance settles it
	last, err := s.service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount:      amount("1000"),
		Method:      types.PaymentMethodCash,
		PaymentDate: lo.ToPtr(date(2025, 5, 15)),
	})
	s.Require().NoError(err)
	s.Equal(5, lo.FromPtr(last.Payment.InstallmentNumber))
	s.Contains(eventNames(last.Events), types.EventInstallmentPaid)

	plan, err = s.GetStores().InstallmentRepo.GetPlan(s.GetContext(), planID)
	s.Require().NoError(err)
	s.Equal(types.PaymentPlanStatusCompleted, plan.PlanStatus)
	s.True(s.reload(id).AmountPending.IsZero())
}

// interleavedPaymentRepo applies another desk's payment after the service has
// read the membership and before its own delta lands
type interleavedPaymentRepo struct {
	membership.Repository
	amount decimal.Decimal
	once   sync.Once
}

func (r *interleavedPaymentRepo) ApplyAmountDelta(ctx context.Context, id string, delta membership.AmountDelta) (*membership.Membership, error) {
	var err error
	r.once.Do(func() {
		_, err = r.Repository.ApplyAmountDelta(ctx, id, membership.PaymentDelta(r.amount))
	})
	if err != nil {
		return nil, err
	}
	return r.Repository.ApplyAmountDelta(ctx, id, delta)
}

func (s *PaymentServiceSuite) TestRecordPayment_ActivatesAfterInterleavedPayment() {
	id := s.pendingMembership("3000")
	params := s.params
	params.MembershipRepo = &interleavedPaymentRepo{Repository: s.params.MembershipRepo, amount: amount("2000")}
	service := NewPaymentService(params)

	resp, err := service.RecordPayment(s.GetContext(), id, dto.RecordPaymentRequest{
		Amount: amount("1000"),
		Method: types.PaymentMethodCash,
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Change)
	s.Equal(types.MembershipStatusActive, resp.Membership.MembershipStatus)
	s.Contains(eventNames(resp.Events), types.EventMembershipActivated)

	m := s.reload(id)
	s.Equal(types.MembershipStatusActive, m.MembershipStatus)
	s.True(m.AmountPending.IsZero())
}
