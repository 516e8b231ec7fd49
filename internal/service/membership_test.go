package service

import (
	"testing"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type MembershipServiceSuite struct {
	serviceSuite
	service  MembershipService
	memberID string
	pt       *pkg.Package
}

func TestMembershipService(t *testing.T) {
	suite.Run(t, new(MembershipServiceSuite))
}

func (s *MembershipServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewMembershipService(s.params)
	s.memberID = s.createMember("Ana").ID
	s.pt = s.createPackage("PT 20", "12000", 90, 20)
}

func (s *MembershipServiceSuite) TestPurchase_NothingPaidIsPending() {
	resp, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:  s.memberID,
		PackageID: s.pt.ID,
		StartDate: lo.ToPtr(date(2025, 1, 1)),
	})
	s.Require().NoError(err)

	m := resp.Membership
	s.Equal(types.MembershipStatusPendingPayment, m.MembershipStatus)
	s.Equal(date(2025, 4, 1), m.EndDate)
	s.assertDecimal("12000", m.AmountPending)
	s.Equal(20, m.PTSessionsRemaining)
	s.Contains(m.AllowedActions, types.MembershipActionActivate)
	s.Nil(resp.DownPayment)
	s.Nil(resp.CommissionRule)
	s.Equal([]string{types.EventMembershipPurchased}, eventNames(resp.Events))
	s.assertAmounts(s.reload(m.ID))
}

func (s *MembershipServiceSuite) TestPurchase_DownPaymentPlanAndRule() {
	resp, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:  s.memberID,
		PackageID: s.pt.ID,
		TrainerID: lo.ToPtr("trn_alice"),
		StartDate: lo.ToPtr(date(2025, 1, 1)),
		PaymentPlan: &dto.CreatePaymentPlanRequest{
			DownPayment:       amount("2000"),
			DownPaymentMethod: types.PaymentMethodCard,
			InstallmentCount:  5,
			Frequency:         types.InstallmentFrequencyMonthly,
			FirstDueDate:      lo.ToPtr(date(2025, 1, 15)),
		},
		Commission: &dto.CommissionRuleInput{
			Type:  types.CommissionTypePercentage,
			Value: lo.ToPtr(amount("12")),
		},
	})
	s.Require().NoError(err)
	s.Empty(resp.Warnings)

	m := s.reload(resp.Membership.ID)
	s.Equal(types.MembershipStatusActive, m.MembershipStatus)
	s.assertDecimal("2000", m.AmountPaid)
	s.assertDecimal("10000", m.AmountPending)
	s.assertAmounts(m)

	s.Require().NotNil(resp.PaymentPlan)
	s.Equal(resp.PaymentPlan.ID, lo.FromPtr(m.PaymentPlanID))
	s.assertDecimal("2000", resp.PaymentPlan.PerInstallmentAmount)
	s.Require().NotNil(resp.DownPayment)
	s.Equal(resp.PaymentPlan.ID, lo.FromPtr(resp.DownPayment.PaymentPlanID))

	s.Require().NotNil(resp.CommissionRule)
	s.Equal("trn_alice", resp.CommissionRule.TrainerID)
	s.assertDecimal("12", resp.CommissionRule.CommissionValue)

	s.Equal([]string{
		types.EventMembershipPurchased,
		types.EventPaymentRecorded,
		types.EventPaymentPlanCreated,
	}, eventNames(resp.Events))
}

func (s *MembershipServiceSuite) TestPurchase_DefaultCommissionRule() {
	resp, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:    s.memberID,
		PackageID:   s.pt.ID,
		TrainerID:   lo.ToPtr("trn_alice"),
		DownPayment: &dto.PaymentInput{Amount: amount("12000"), Method: types.PaymentMethodCash},
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.CommissionRule)
	s.Equal(s.GetConfig().Engine.DefaultCommissionType, resp.CommissionRule.CommissionType)
	s.True(resp.Membership.AmountPending.IsZero())
}

func (s *MembershipServiceSuite) TestPurchase_NoRuleWithoutSessions() {
	gym := s.createPackage("Gym only", "900", 30, 0)
	resp, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:  s.memberID,
		PackageID: gym.ID,
		TrainerID: lo.ToPtr("trn_alice"),
	})
	s.Require().NoError(err)
	s.Nil(resp.CommissionRule)
}

func (s *MembershipServiceSuite) TestPurchase_RuleFailureIsWarning() {
	s.GetFaults().FailAlways("commission.CreateRule", ierr.NewError("db down").Mark(ierr.ErrDatabase))

	resp, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:  s.memberID,
		PackageID: s.pt.ID,
		TrainerID: lo.ToPtr("trn_alice"),
	})
	s.Require().NoError(err)
	s.Nil(resp.CommissionRule)
	s.Require().Len(resp.Warnings, 1)
	s.Contains(resp.Warnings[0], "create_commission_rule")
	s.Equal(types.MembershipStatusPendingPayment, s.reload(resp.Membership.ID).MembershipStatus)
}

func (s *MembershipServiceSuite) TestPurchase_RolledBackWhenPaymentFails() {
	s.GetFaults().FailAlways("payment.Create", ierr.NewError("db down").Mark(ierr.ErrDatabase))

	_, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:    s.memberID,
		PackageID:   s.pt.ID,
		DownPayment: &dto.PaymentInput{Amount: amount("500"), Method: types.PaymentMethodCash},
	})
	s.Error(err)
	s.False(ierr.IsPartiallyApplied(err))

	list, err := s.service.ListByMember(s.GetContext(), s.memberID, nil)
	s.Require().NoError(err)
	s.Require().Len(list.Items, 1)
	s.Equal(types.MembershipStatusCancelled, list.Items[0].MembershipStatus)
	s.Equal(rollbackReason, list.Items[0].StatusReason)
}

func (s *MembershipServiceSuite) TestPurchase_Validation() {
	tests := []struct {
		name string
		req  dto.PurchaseMembershipRequest
		is   func(error) bool
	}{
		{
			name: "unknown_member",
			req:  dto.PurchaseMembershipRequest{MemberID: "mem_missing", PackageID: s.pt.ID},
			is:   ierr.IsNotFound,
		},
		{
			name: "unknown_package",
			req:  dto.PurchaseMembershipRequest{MemberID: s.memberID, PackageID: "pkg_missing"},
			is:   ierr.IsNotFound,
		},
		{
			name: "down_payment_over_price",
			req: dto.PurchaseMembershipRequest{
				MemberID:    s.memberID,
				PackageID:   s.pt.ID,
				DownPayment: &dto.PaymentInput{Amount: amount("12000.01"), Method: types.PaymentMethodCash},
			},
			is: ierr.IsValidation,
		},
		{
			name: "terminal_initial_status",
			req: dto.PurchaseMembershipRequest{
				MemberID:      s.memberID,
				PackageID:     s.pt.ID,
				InitialStatus: types.MembershipStatusExpired,
			},
			is: ierr.IsValidation,
		},
		{
			name: "commission_without_trainer",
			req: dto.PurchaseMembershipRequest{
				MemberID:   s.memberID,
				PackageID:  s.pt.ID,
				Commission: &dto.CommissionRuleInput{Type: types.CommissionTypePerSession},
			},
			is: ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Purchase(s.GetContext(), tt.req)
			s.Error(err)
			s.True(tt.is(err), "unexpected error %v", err)
		})
	}
}

func (s *MembershipServiceSuite) TestGetAndChanges() {
	resp, err := s.service.Purchase(s.GetContext(), dto.PurchaseMembershipRequest{
		MemberID:  s.memberID,
		PackageID: s.pt.ID,
	})
	s.Require().NoError(err)

	got, err := s.service.Get(s.GetContext(), resp.Membership.ID)
	s.Require().NoError(err)
	s.Equal(resp.Membership.ID, got.ID)

	changes, err := s.service.ListChanges(s.GetContext(), got.ID)
	s.Require().NoError(err)
	s.Empty(changes.Items)

	_, err = s.service.Get(s.GetContext(), "msh_missing")
	s.True(ierr.IsNotFound(err))
}
