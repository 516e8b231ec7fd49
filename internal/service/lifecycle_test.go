package service

import (
	"testing"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/session"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/testutil"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LifecycleServiceSuite struct {
	serviceSuite
	service LifecycleService
}

func TestLifecycleService(t *testing.T) {
	suite.Run(t, new(LifecycleServiceSuite))
}

func (s *LifecycleServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewLifecycleService(s.params)
}

func (s *LifecycleServiceSuite) TestUpgrade_Proportional() {
	mem := s.createMember("Ana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	premium := s.createPackage("Premium", "6000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	resp, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: premium.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 3, 2)),
		Policy:          types.ProrationPolicyProportional,
		Reason:          "wants the pool",
	})
	s.Require().NoError(err)

	p := resp.Proration
	s.Equal(90, p.TotalDays)
	s.Equal(30, p.RemainingDays)
	s.assertDecimal("33.33", p.OldDailyRate)
	s.assertDecimal("1000", p.RemainingValue)
	s.assertDecimal("66.67", p.NewDailyRate)
	s.assertDecimal("2000", p.NewCost)
	s.assertDecimal("1000", p.Delta)

	source := s.reload(m.ID)
	s.Equal(types.MembershipStatusUpgraded, source.MembershipStatus)
	s.Require().NotNil(source.ActualEndDate)
	s.Equal(date(2025, 3, 2), *source.ActualEndDate)

	successor := s.reload(resp.Successor.ID)
	s.Equal(premium.ID, successor.PackageID)
	s.Equal(m.ID, lo.FromPtr(successor.OriginalMembershipID))
	s.Equal(types.MembershipStatusActive, successor.MembershipStatus)
	s.Equal(source.EndDate, successor.EndDate)
	s.assertDecimal("1000", successor.TotalAmountDue)
	s.assertDecimal("1000", successor.AmountPending)
	s.assertAmounts(successor)

	changes, err := s.GetStores().ChangeRepo.ListChanges(s.GetContext(), m.ID)
	s.Require().NoError(err)
	s.Require().Len(changes, 1)
	s.Equal(types.MembershipActionUpgrade, changes[0].ChangeType)
	s.Equal(30, changes[0].RemainingDays)
	s.assertDecimal("1000", changes[0].AmountDifference)
	s.Equal(successor.ID, lo.FromPtr(changes[0].ToMembershipID))

	s.Equal([]string{types.EventMembershipUpgraded}, eventNames(resp.Events))
	s.Nil(resp.Credit)
	s.Empty(resp.Warnings)
}

func (s *LifecycleServiceSuite) TestUpgrade_FromTerminalStatus() {
	mem := s.createMember("Ana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	premium := s.createPackage("Premium", "6000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1), status: types.MembershipStatusExpired})

	_, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: premium.ID,
		Reason:          "too late",
	})
	s.True(ierr.IsInvalidTransition(err))
}

func (s *LifecycleServiceSuite) TestUpgrade_SamePackage() {
	mem := s.createMember("Ana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	_, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: basic.ID,
		Reason:          "same",
	})
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleServiceSuite) TestUpgrade_AfterEndDateOwesNothing() {
	mem := s.createMember("Ana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	premium := s.createPackage("Premium", "6000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	// a successor cannot start on or after the end date so the upgrade is
	// rejected, but the preview still clamps the remaining days
	_, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: premium.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 5, 1)),
		Reason:          "late",
	})
	s.True(ierr.IsValidation(err))

	calc := NewCalculatorService(s.params)
	preview, err := calc.PreviewProration(s.GetContext(), dto.ProrationPreviewRequest{
		MembershipID:    m.ID,
		TargetPackageID: premium.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 5, 1)),
		Direction:       types.ProrationDirectionUpgrade,
	})
	s.Require().NoError(err)
	s.Equal(0, preview.Result.RemainingDays)
	s.True(preview.Result.RemainingValue.IsZero())
}

func (s *LifecycleServiceSuite) TestDowngrade_RefundGoesToCredit() {
	mem := s.createMember("Ben")
	premium := s.createPackage("Premium", "6000", 90, 0)
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: premium, start: date(2025, 1, 1)})

	resp, err := s.service.Downgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: basic.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 3, 2)),
		Reason:          "budget",
	})
	s.Require().NoError(err)

	s.assertDecimal("-1000", resp.Proration.Delta)
	s.assertDecimal("1000", resp.Proration.Refund)
	s.Equal(types.MembershipStatusDowngraded, s.reload(m.ID).MembershipStatus)

	successor := s.reload(resp.Successor.ID)
	s.True(successor.TotalAmountDue.IsZero())
	s.assertAmounts(successor)

	s.Require().NotNil(resp.Credit)
	s.Equal(types.CreditReasonDowngradeRefund, resp.Credit.Reason)
	balance, err := s.GetStores().CreditRepo.GetBalance(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.assertDecimal("1000", balance)

	s.Equal([]string{types.EventMembershipDowngraded, types.EventCreditIssued}, eventNames(resp.Events))
}

func (s *LifecycleServiceSuite) TestUpgrade_MovesCommissionRule() {
	mem := s.createMember("Cleo")
	pt := s.createPackage("PT 10", "5000", 90, 10)
	pt20 := s.createPackage("PT 20", "9000", 90, 20)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a"})
	rule := s.createRule(m, types.CommissionTypePercentage, "15")

	resp, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: pt20.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 2, 1)),
		Reason:          "more sessions",
	})
	s.Require().NoError(err)
	s.Empty(resp.Warnings)

	old, err := s.GetStores().CommissionRepo.GetRule(s.GetContext(), rule.ID)
	s.Require().NoError(err)
	s.False(old.IsActive)

	s.Require().NotNil(resp.CommissionRule)
	s.Equal(pt20.ID, resp.CommissionRule.PackageID)
	s.Equal(resp.Successor.ID, resp.CommissionRule.MembershipID)
	s.Equal(types.CommissionTypePercentage, resp.CommissionRule.CommissionType)
	s.assertDecimal("15", resp.CommissionRule.CommissionValue)
}

func (s *LifecycleServiceSuite) TestUpgrade_CommissionFailureIsWarning() {
	mem := s.createMember("Cleo")
	pt := s.createPackage("PT 10", "5000", 90, 10)
	pt20 := s.createPackage("PT 20", "9000", 90, 20)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a"})
	s.createRule(m, types.CommissionTypePercentage, "15")
	s.GetFaults().FailAlways("commission.CreateRule", testutil.ErrInjected("commission.CreateRule"))

	resp, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: pt20.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 2, 1)),
		Reason:          "more sessions",
	})
	s.Require().NoError(err)
	s.Require().Len(resp.Warnings, 1)
	s.Contains(resp.Warnings[0], "create_commission_rule")
	s.Nil(resp.CommissionRule)
	s.Equal(types.MembershipStatusUpgraded, s.reload(m.ID).MembershipStatus)
}

func (s *LifecycleServiceSuite) TestUpgrade_RolledBackWhenChangeFails() {
	mem := s.createMember("Dan")
	basic := s.createPackage("Basic", "3000", 90, 0)
	premium := s.createPackage("Premium", "6000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})
	s.GetFaults().FailAlways("membership.CreateChange", testutil.ErrInjected("membership.CreateChange"))

	_, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: premium.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 3, 2)),
		Reason:          "upgrade",
	})
	s.Require().Error(err)
	s.True(ierr.IsDatabase(err))
	s.False(ierr.IsPartiallyApplied(err))

	source := s.reload(m.ID)
	s.Equal(types.MembershipStatusActive, source.MembershipStatus)
	s.Nil(source.ActualEndDate)

	all, err := s.GetStores().MembershipRepo.ListByMember(s.GetContext(), mem.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	for _, item := range all {
		if item.ID == m.ID {
			continue
		}
		s.Equal(types.MembershipStatusCancelled, item.MembershipStatus)
		s.Equal(rollbackReason, item.StatusReason)
	}
	s.Empty(s.GetReports().All())
}

func (s *LifecycleServiceSuite) TestUpgrade_PartiallyApplied() {
	mem := s.createMember("Dan")
	basic := s.createPackage("Basic", "3000", 90, 0)
	premium := s.createPackage("Premium", "6000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})
	s.GetFaults().FailAlways("membership.CreateChange", testutil.ErrInjected("membership.CreateChange"))
	// close_source goes through, every undo after it fails
	s.GetFaults().FailAfter("membership.Update", 1, testutil.ErrInjected("membership.Update"))

	_, err := s.service.Upgrade(s.GetContext(), m.ID, dto.ChangePackageRequest{
		TargetPackageID: premium.ID,
		EffectiveDate:   lo.ToPtr(date(2025, 3, 2)),
		Reason:          "upgrade",
	})
	s.Require().Error(err)
	s.True(ierr.IsPartiallyApplied(err))

	reports := s.GetReports().All()
	s.Require().Len(reports, 1)
	s.Equal(string(types.MembershipActionUpgrade), reports[0]["saga"])
	s.Equal("record_change", reports[0]["failed_step"])
}

func (s *LifecycleServiceSuite) TestTransfer_ToNewMember() {
	mem := s.createMember("Eve")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	resp, err := s.service.Transfer(s.GetContext(), m.ID, dto.TransferMembershipRequest{
		NewMember: &member.Profile{
			FirstName: "Finn",
			LastName:  "Test",
			Phone:     "+15550199",
		},
		EffectiveDate: lo.ToPtr(date(2025, 3, 2)),
		TransferFee:   decimal.NewFromInt(500),
		Reason:        "moving away",
	})
	s.Require().NoError(err)

	source := s.reload(m.ID)
	s.Equal(types.MembershipStatusTransferred, source.MembershipStatus)
	s.Require().NotNil(source.TransferredToMemberID)

	destination, err := s.GetStores().MemberRepo.Get(s.GetContext(), *source.TransferredToMemberID)
	s.Require().NoError(err)
	s.Equal("Finn", destination.FirstName)

	successor := s.reload(resp.Successor.ID)
	s.Equal(destination.ID, successor.MemberID)
	s.Equal(mem.ID, lo.FromPtr(successor.TransferredFromMemberID))
	s.Equal(date(2025, 3, 2), successor.StartDate)
	s.Equal(date(2025, 4, 1), successor.EndDate)
	s.assertDecimal("500", successor.TotalAmountDue)
	s.assertDecimal("500", successor.AmountPending)
	s.Nil(successor.TrainerID)
	s.assertAmounts(successor)

	s.Require().NotNil(resp.Payment)
	s.Equal(types.PaymentTypeTransferFee, resp.Payment.PaymentType)
	s.assertDecimal("500", resp.Payment.Amount)

	s.Require().NotNil(resp.Credit)
	s.Equal(mem.ID, resp.Credit.MemberID)
	s.Equal(types.CreditReasonTransferSurplus, resp.Credit.Reason)
	s.assertDecimal("2500", resp.Credit.Amount)

	s.Equal(30, resp.Change.RemainingDays)
	s.assertDecimal("500", resp.Change.AmountDifference)
	s.Equal([]string{types.EventMembershipTransferred, types.EventPaymentRecorded, types.EventCreditIssued}, eventNames(resp.Events))
}

func (s *LifecycleServiceSuite) TestTransfer_ReleasesSuspendedMember() {
	mem := s.createMember("Eve")
	other := s.createMember("Gus")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	_, err := s.service.Suspend(s.GetContext(), m.ID, dto.StatusChangeRequest{Reason: "unpaid locker"})
	s.Require().NoError(err)

	_, err = s.service.Transfer(s.GetContext(), m.ID, dto.TransferMembershipRequest{
		ToMemberID:    other.ID,
		EffectiveDate: lo.ToPtr(date(2025, 3, 2)),
		Reason:        "sold to a friend",
	})
	s.Require().NoError(err)
	s.Equal(types.MembershipStatusTransferred, s.reload(m.ID).MembershipStatus)

	holder, err := s.GetStores().MemberRepo.Get(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.Equal(types.MemberStatusActive, holder.MemberStatus)
	s.False(holder.IsHeldBy(m.ID))
}

func (s *LifecycleServiceSuite) TestTransfer_SameMember() {
	mem := s.createMember("Eve")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	_, err := s.service.Transfer(s.GetContext(), m.ID, dto.TransferMembershipRequest{
		ToMemberID: mem.ID,
		Reason:     "self",
	})
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleServiceSuite) TestTransfer_NoDaysLeft() {
	mem := s.createMember("Eve")
	other := s.createMember("Gus")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	_, err := s.service.Transfer(s.GetContext(), m.ID, dto.TransferMembershipRequest{
		ToMemberID:    other.ID,
		EffectiveDate: lo.ToPtr(date(2025, 6, 1)),
		Reason:        "late",
	})
	s.True(ierr.IsValidation(err))
	s.Equal(types.MembershipStatusActive, s.reload(m.ID).MembershipStatus)
}

func (s *LifecycleServiceSuite) TestTransfer_NewMemberArchivedOnRollback() {
	mem := s.createMember("Eve")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})
	s.GetFaults().FailAlways("membership.Create", testutil.ErrInjected("membership.Create"))

	_, err := s.service.Transfer(s.GetContext(), m.ID, dto.TransferMembershipRequest{
		NewMember:     &member.Profile{FirstName: "Finn", LastName: "Test", Phone: "+15550199"},
		EffectiveDate: lo.ToPtr(date(2025, 3, 2)),
		Reason:        "moving away",
	})
	s.Require().Error(err)
	s.False(ierr.IsPartiallyApplied(err))
	s.Equal(1, s.GetFaults().Writes("member.Archive"))
	s.Equal(types.MembershipStatusActive, s.reload(m.ID).MembershipStatus)
}

func (s *LifecycleServiceSuite) TestFreeze_ExtendsEndDate() {
	mem := s.createMember("Hana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 7, 3)})
	s.Require().Equal(date(2025, 10, 1), m.EndDate)

	resp, err := s.service.Freeze(s.GetContext(), m.ID, dto.FreezeMembershipRequest{
		DurationDays: 30,
		StartDate:    lo.ToPtr(date(2025, 9, 1)),
		Reason:       "travel",
	})
	s.Require().NoError(err)

	frozen := s.reload(m.ID)
	s.Equal(types.MembershipStatusFrozen, frozen.MembershipStatus)
	s.Equal(date(2025, 9, 1), lo.FromPtr(frozen.FreezeStartDate))
	s.Equal(date(2025, 10, 1), lo.FromPtr(frozen.FreezeEndDate))
	s.Equal(date(2025, 10, 31), frozen.EndDate)
	s.Equal(30, frozen.FreezeDaysUsed)
	s.Equal("travel", frozen.FreezeReason)

	holder, err := s.GetStores().MemberRepo.Get(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.Equal(types.MemberStatusFrozen, holder.MemberStatus)
	s.True(holder.IsHeldBy(m.ID))

	s.Equal(types.MembershipActionFreeze, resp.Change.ChangeType)
	s.Equal([]string{types.EventMembershipFrozen}, eventNames(resp.Events))

	_, err = s.service.Unfreeze(s.GetContext(), m.ID, dto.StatusChangeRequest{Reason: "back early"})
	s.Require().NoError(err)

	unfrozen := s.reload(m.ID)
	s.Equal(types.MembershipStatusActive, unfrozen.MembershipStatus)
	// the extension is kept
	s.Equal(date(2025, 10, 31), unfrozen.EndDate)

	holder, err = s.GetStores().MemberRepo.Get(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.Equal(types.MemberStatusActive, holder.MemberStatus)
}

func (s *LifecycleServiceSuite) TestFreeze_CancelledIsInvalidWithoutWrites() {
	mem := s.createMember("Hana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 7, 3), status: types.MembershipStatusCancelled})
	before := s.GetFaults().Writes("")

	_, err := s.service.Freeze(s.GetContext(), m.ID, dto.FreezeMembershipRequest{
		DurationDays: 30,
		Reason:       "travel",
	})
	s.Require().Error(err)
	s.True(ierr.IsInvalidTransition(err))
	s.Equal(before, s.GetFaults().Writes(""))
}

func (s *LifecycleServiceSuite) TestFreeze_OverLimit() {
	cfg := s.GetConfig()
	limit := cfg.Engine.MaxFreezeDays
	cfg.Engine.MaxFreezeDays = 14
	defer func() { cfg.Engine.MaxFreezeDays = limit }()

	mem := s.createMember("Hana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 7, 3)})

	_, err := s.service.Freeze(s.GetContext(), m.ID, dto.FreezeMembershipRequest{
		DurationDays: 30,
		Reason:       "travel",
	})
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleServiceSuite) TestFreeze_RolledBackWhenChangeFails() {
	mem := s.createMember("Hana")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 7, 3)})
	s.GetFaults().FailNext("membership.CreateChange", testutil.ErrInjected("membership.CreateChange"))

	_, err := s.service.Freeze(s.GetContext(), m.ID, dto.FreezeMembershipRequest{
		DurationDays: 30,
		StartDate:    lo.ToPtr(date(2025, 9, 1)),
		Reason:       "travel",
	})
	s.Require().Error(err)
	s.False(ierr.IsPartiallyApplied(err))

	restored := s.reload(m.ID)
	s.Equal(types.MembershipStatusActive, restored.MembershipStatus)
	s.Equal(date(2025, 10, 1), restored.EndDate)
	s.Equal(0, restored.FreezeDaysUsed)
	s.Nil(restored.FreezeStartDate)

	holder, err := s.GetStores().MemberRepo.Get(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.Equal(types.MemberStatusActive, holder.MemberStatus)
}

func (s *LifecycleServiceSuite) TestSuspendAndReactivate() {
	mem := s.createMember("Ivo")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	resp, err := s.service.Suspend(s.GetContext(), m.ID, dto.StatusChangeRequest{Reason: "unpaid locker"})
	s.Require().NoError(err)
	s.Equal(types.MembershipStatusSuspended, resp.Source.MembershipStatus)
	s.Contains(resp.Source.AllowedActions, types.MembershipActionReactivate)

	holder, err := s.GetStores().MemberRepo.Get(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.Equal(types.MemberStatusSuspended, holder.MemberStatus)

	resp, err = s.service.Reactivate(s.GetContext(), m.ID, dto.StatusChangeRequest{Reason: "settled"})
	s.Require().NoError(err)
	s.Equal(types.MembershipStatusActive, resp.Source.MembershipStatus)
	s.Equal([]string{types.EventMembershipReactivated}, eventNames(resp.Events))

	holder, err = s.GetStores().MemberRepo.Get(s.GetContext(), mem.ID)
	s.Require().NoError(err)
	s.Equal(types.MemberStatusActive, holder.MemberStatus)

	changes, err := s.GetStores().ChangeRepo.ListChanges(s.GetContext(), m.ID)
	s.Require().NoError(err)
	s.Len(changes, 2)
}

func (s *LifecycleServiceSuite) TestCancel_ClosesCommissionRule() {
	mem := s.createMember("Jo")
	pt := s.createPackage("PT 10", "5000", 90, 10)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a"})
	rule := s.createRule(m, types.CommissionTypeFixedAmount, "500")

	resp, err := s.service.Cancel(s.GetContext(), m.ID, dto.StatusChangeRequest{
		Reason:        "moved",
		EffectiveDate: lo.ToPtr(date(2025, 2, 1)),
	})
	s.Require().NoError(err)

	cancelled := s.reload(m.ID)
	s.Equal(types.MembershipStatusCancelled, cancelled.MembershipStatus)
	s.Equal(date(2025, 2, 1), lo.FromPtr(cancelled.ActualEndDate))
	s.Empty(resp.Source.AllowedActions)

	closed, err := s.GetStores().CommissionRepo.GetRule(s.GetContext(), rule.ID)
	s.Require().NoError(err)
	s.False(closed.IsActive)
	s.Equal(date(2025, 2, 1), lo.FromPtr(closed.ValidUntil))
}

func (s *LifecycleServiceSuite) TestExpire_ClosesOnEndDate() {
	mem := s.createMember("Jo")
	basic := s.createPackage("Basic", "3000", 90, 0)
	m := s.createMembership(membershipFixture{member: mem, pkg: basic, start: date(2025, 1, 1)})

	resp, err := s.service.Expire(s.GetContext(), m.ID, dto.StatusChangeRequest{
		Reason:        "ran out",
		EffectiveDate: lo.ToPtr(date(2025, 5, 1)),
	})
	s.Require().NoError(err)
	s.Equal(types.MembershipStatusExpired, resp.Source.MembershipStatus)
	s.Equal(m.EndDate, lo.FromPtr(resp.Source.ActualEndDate))
	s.Equal(0, resp.Change.RemainingDays)

	_, err = s.service.Cancel(s.GetContext(), m.ID, dto.StatusChangeRequest{Reason: "again"})
	s.True(ierr.IsInvalidTransition(err))
}

func (s *LifecycleServiceSuite) TestChangeTrainer_ConservesRemainingValue() {
	mem := s.createMember("Kai")
	pt := s.createPackage("PT 20", "10000", 90, 20)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a", used: 5})
	previous := s.createRule(m, types.CommissionTypePercentage, "10")

	sessions := s.GetStores().SessionRepo
	early := s.storeSession(m, "trainer_a", date(2025, 1, 20))
	later := []*session.Session{
		s.storeSession(m, "trainer_a", date(2025, 2, 10)),
		s.storeSession(m, "trainer_a", date(2025, 2, 11)),
	}

	resp, err := s.service.ChangeTrainer(s.GetContext(), m.ID, dto.ChangeTrainerRequest{
		NewTrainerID:     "trainer_b",
		ChangeDate:       lo.ToPtr(date(2025, 2, 1)),
		ReassignSessions: true,
		Reason:           "schedule clash",
	})
	s.Require().NoError(err)

	s.assertDecimal("750", resp.RemainingValue)
	s.Require().Len(resp.Earnings, 2)
	out, in := resp.Earnings[0], resp.Earnings[1]
	s.Equal("trainer_a", out.TrainerID)
	s.Equal(types.EarningTypeCommissionTransferOut, out.EarningType)
	s.Equal("trainer_b", in.TrainerID)
	s.Equal(types.EarningTypeCommissionTransferIn, in.EarningType)
	s.True(out.TotalEarning.Add(in.TotalEarning).IsZero())
	s.True(in.TotalEarning.Equal(resp.RemainingValue))

	stored, err := s.GetStores().CommissionRepo.ListEarnings(s.GetContext(), &commission.EarningFilter{MembershipID: m.ID})
	s.Require().NoError(err)
	total := lo.Reduce(stored, func(acc decimal.Decimal, e *commission.Earning, _ int) decimal.Decimal {
		return acc.Add(e.TotalEarning)
	}, decimal.Zero)
	s.True(total.IsZero())

	old, err := s.GetStores().CommissionRepo.GetRule(s.GetContext(), previous.ID)
	s.Require().NoError(err)
	s.False(old.IsActive)
	s.Require().NotNil(resp.NewRule)
	s.Equal("trainer_b", resp.NewRule.TrainerID)
	s.True(resp.NewRule.IsActive)

	s.Equal("trainer_b", s.reload(m.ID).TrainerIDValue())

	s.ElementsMatch(lo.Map(later, func(x *session.Session, _ int) string { return x.ID }), resp.ReassignedSessions)
	for _, x := range later {
		got, err := sessions.Get(s.GetContext(), x.ID)
		s.Require().NoError(err)
		s.Equal("trainer_b", got.TrainerID)
	}
	got, err := sessions.Get(s.GetContext(), early.ID)
	s.Require().NoError(err)
	s.Equal("trainer_a", got.TrainerID)

	names := eventNames(resp.Events)
	s.Equal(types.EventMembershipTrainer, names[0])
	s.Equal(2, lo.Count(names, types.EventTrainerEarningLogged))
	s.Equal(2, lo.Count(names, types.EventSessionReassigned))
}

func (s *LifecycleServiceSuite) TestChangeTrainer_WithoutRuleUsesDefault() {
	mem := s.createMember("Kai")
	pt := s.createPackage("PT 20", "10000", 90, 20)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a"})

	resp, err := s.service.ChangeTrainer(s.GetContext(), m.ID, dto.ChangeTrainerRequest{
		NewTrainerID: "trainer_b",
		ChangeDate:   lo.ToPtr(date(2025, 2, 1)),
	})
	s.Require().NoError(err)
	s.Nil(resp.PreviousRule)
	s.Empty(resp.Earnings)
	s.True(resp.RemainingValue.IsZero())
	s.Equal(s.GetConfig().Engine.DefaultCommissionType, resp.NewRule.CommissionType)
}

func (s *LifecycleServiceSuite) TestChangeTrainer_SameTrainer() {
	mem := s.createMember("Kai")
	pt := s.createPackage("PT 20", "10000", 90, 20)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a"})

	_, err := s.service.ChangeTrainer(s.GetContext(), m.ID, dto.ChangeTrainerRequest{NewTrainerID: "trainer_a"})
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleServiceSuite) TestChangeTrainer_RolledBackWhenEarningFails() {
	mem := s.createMember("Kai")
	pt := s.createPackage("PT 20", "10000", 90, 20)
	m := s.createMembership(membershipFixture{member: mem, pkg: pt, start: date(2025, 1, 1), trainer: "trainer_a", used: 5})
	previous := s.createRule(m, types.CommissionTypePercentage, "10")
	s.GetFaults().FailNext("commission.CreateEarning", testutil.ErrInjected("commission.CreateEarning"))

	_, err := s.service.ChangeTrainer(s.GetContext(), m.ID, dto.ChangeTrainerRequest{
		NewTrainerID: "trainer_b",
		ChangeDate:   lo.ToPtr(date(2025, 2, 1)),
	})
	s.Require().Error(err)
	s.False(ierr.IsPartiallyApplied(err))

	s.Equal("trainer_a", s.reload(m.ID).TrainerIDValue())
	old, err := s.GetStores().CommissionRepo.GetRule(s.GetContext(), previous.ID)
	s.Require().NoError(err)
	s.True(old.IsActive)

	active := lo.Filter(s.GetStores().CommissionRepo.(*testutil.InMemoryCommissionStore).Rules(), func(r *commission.Rule, _ int) bool {
		return r.IsActive
	})
	s.Len(active, 1)
}
