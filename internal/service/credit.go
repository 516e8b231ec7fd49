package service

import (
	"context"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/idempotency"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CreditService interface {
	GetBalance(ctx context.Context, memberID string) (*dto.CreditBalanceResponse, error)
	ListTransactions(ctx context.Context, memberID string, filter *dto.CreditTransactionFilter) (*dto.CreditBalanceResponse, error)
	Adjust(ctx context.Context, memberID string, req dto.CreditAdjustmentRequest) (*dto.CreditTransactionResponse, error)
}

type creditService struct {
	ServiceParams
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{
		ServiceParams: params,
	}
}

// recentTransactions is how many ledger lines come with a balance
const recentTransactions = 10

func (s *creditService) GetBalance(ctx context.Context, memberID string) (*dto.CreditBalanceResponse, error) {
	filter := types.NewDefaultQueryFilter()
	filter.Limit = lo.ToPtr(recentTransactions)
	return s.ListTransactions(ctx, memberID, &dto.CreditTransactionFilter{QueryFilter: *filter})
}

func (s *creditService) ListTransactions(ctx context.Context, memberID string, filter *dto.CreditTransactionFilter) (*dto.CreditBalanceResponse, error) {
	if filter == nil {
		filter = &dto.CreditTransactionFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadMember(ctx, memberID); err != nil {
		return nil, err
	}

	balance, err := retryRead(ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.CreditRepo.GetBalance(ctx, memberID)
	})
	if err != nil {
		return nil, err
	}

	query := &credit.TransactionFilter{
		QueryFilter: &filter.QueryFilter,
		MemberID:    memberID,
	}
	if filter.Reason != "" {
		query.Reason = lo.ToPtr(filter.Reason)
	}
	items, err := retryRead(ctx, func(ctx context.Context) ([]*credit.Transaction, error) {
		return s.CreditRepo.List(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreditBalanceResponse{
		MemberID:     memberID,
		Balance:      balance,
		Transactions: items,
	}, nil
}

// Adjust writes a manual ledger line. Debits cannot take the balance below zero.
func (s *creditService) Adjust(ctx context.Context, memberID string, req dto.CreditAdjustmentRequest) (*dto.CreditTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadMember(ctx, memberID); err != nil {
		return nil, err
	}

	amount := req.Amount.Round(2)
	key := req.IdempotencyKey
	if key == "" {
		key = s.Idempotency.GenerateKey(idempotency.ScopeCreditManual, map[string]interface{}{
			"member_id":   memberID,
			"amount":      amount.String(),
			"description": req.Description,
		})
	}

	t := &credit.Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_TRANSACTION),
		MemberID:       memberID,
		Amount:         amount,
		Reason:         types.CreditReasonManualAdjustment,
		ReferenceType:  types.CreditReferenceManual,
		Description:    req.Description,
		IdempotencyKey: key,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	stored, created, err := s.CreditRepo.Append(ctx, t)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("credit adjusted",
		"member_id", memberID,
		"credit_transaction_id", stored.ID,
		"amount", amount.String(),
		"balance_after", stored.BalanceAfter.String(),
		"duplicate", !created,
	)

	resp := &dto.CreditTransactionResponse{
		Transaction: stored,
		Duplicate:   !created,
	}
	if created {
		resp.Events = []types.LifecycleEvent{creditEvent(ctx, stored, "")}
	}
	return resp, nil
}
