package service

import (
	"testing"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceSuite struct {
	serviceSuite
	credits  CreditService
	trainers TrainerService
}

func TestLedgerServices(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.credits = NewCreditService(s.params)
	s.trainers = NewTrainerService(s.params)
}

func (s *LedgerServiceSuite) TestAdjust_BalanceAndDuplicate() {
	memberID := s.createMember("Ana").ID
	req := dto.CreditAdjustmentRequest{Amount: amount("250"), Description: "referral bonus"}

	first, err := s.credits.Adjust(s.GetContext(), memberID, req)
	s.Require().NoError(err)
	s.False(first.Duplicate)
	s.assertDecimal("250", first.Transaction.BalanceAfter)
	s.Equal([]string{types.EventCreditIssued}, eventNames(first.Events))

	again, err := s.credits.Adjust(s.GetContext(), memberID, req)
	s.Require().NoError(err)
	s.True(again.Duplicate)
	s.Empty(again.Events)

	_, err = s.credits.Adjust(s.GetContext(), memberID, dto.CreditAdjustmentRequest{
		Amount:      amount("-100"),
		Description: "correction",
	})
	s.Require().NoError(err)

	balance, err := s.credits.GetBalance(s.GetContext(), memberID)
	s.Require().NoError(err)
	s.assertDecimal("150", balance.Balance)
	s.Len(balance.Transactions, 2)
}

func (s *LedgerServiceSuite) TestAdjust_CannotGoNegative() {
	memberID := s.createMember("Ana").ID

	_, err := s.credits.Adjust(s.GetContext(), memberID, dto.CreditAdjustmentRequest{
		Amount:      amount("-1"),
		Description: "oops",
	})
	s.True(ierr.IsValidation(err))

	_, err = s.credits.Adjust(s.GetContext(), memberID, dto.CreditAdjustmentRequest{
		Amount:      amount("0"),
		Description: "nothing",
	})
	s.True(ierr.IsValidation(err))

	_, err = s.credits.Adjust(s.GetContext(), "mem_missing", dto.CreditAdjustmentRequest{
		Amount:      amount("5"),
		Description: "nobody",
	})
	s.True(ierr.IsNotFound(err))
}

func (s *LedgerServiceSuite) TestListTransactions_ByReason() {
	memberID := s.createMember("Ana").ID
	_, err := s.credits.Adjust(s.GetContext(), memberID, dto.CreditAdjustmentRequest{
		Amount:      amount("40"),
		Description: "bonus",
	})
	s.Require().NoError(err)

	resp, err := s.credits.ListTransactions(s.GetContext(), memberID, &dto.CreditTransactionFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		Reason:      types.CreditReasonDowngradeRefund,
	})
	s.Require().NoError(err)
	s.Empty(resp.Transactions)
	s.assertDecimal("40", resp.Balance)

	_, err = s.credits.ListTransactions(s.GetContext(), memberID, &dto.CreditTransactionFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		Reason:      "lottery",
	})
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceSuite) earning(trainerID, total string, day time.Time, kind types.EarningType) {
	e := &commission.Earning{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRAINER_EARNING),
		TrainerID:    trainerID,
		MemberID:     "mem_1",
		MembershipID: "msh_1",
		EarningType:  kind,
		BaseAmount:   amount("10000"),
		TotalEarning: amount(total),
		EarningDate:  day,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().CommissionRepo.CreateEarning(s.GetContext(), e))
}

func (s *LedgerServiceSuite) TestListEarnings_TotalAndRange() {
	s.earning("trn_alice", "50", date(2025, 1, 10), types.EarningTypeSessionCommission)
	s.earning("trn_alice", "50", date(2025, 2, 10), types.EarningTypeSessionCommission)
	s.earning("trn_alice", "-750", date(2025, 2, 15), types.EarningTypeCommissionTransferOut)
	s.earning("trn_bob", "750", date(2025, 2, 15), types.EarningTypeCommissionTransferIn)

	all, err := s.trainers.ListEarnings(s.GetContext(), "trn_alice", nil)
	s.Require().NoError(err)
	s.Len(all.Items, 3)
	s.assertDecimal("-650", all.Total)

	february, err := s.trainers.ListEarnings(s.GetContext(), "trn_alice", &dto.TrainerEarningsFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		From:        "2025-02-01",
		To:          "2025-02-28",
	})
	s.Require().NoError(err)
	s.Len(february.Items, 2)
	s.assertDecimal("-700", february.Total)
}

func (s *LedgerServiceSuite) TestListEarnings_BadRange() {
	_, err := s.trainers.ListEarnings(s.GetContext(), "trn_alice", &dto.TrainerEarningsFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		From:        "2025-03-01",
		To:          "2025-02-01",
	})
	s.True(ierr.IsValidation(err))

	_, err = s.trainers.ListEarnings(s.GetContext(), "trn_alice", &dto.TrainerEarningsFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		From:        "March",
	})
	s.True(ierr.IsValidation(err))
}
