package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/flexgym/internal/domain/credit"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// InMemoryCreditStore implements credit.Repository. Appends are serialised
// by one mutex which stands in for the member row lock.
type InMemoryCreditStore struct {
	*InMemoryStore[*credit.Transaction]
	mu       sync.Mutex
	byKey    map[string]string
	balances map[string]decimal.Decimal
	faults   *Faults
}

var _ credit.Repository = (*InMemoryCreditStore)(nil)

func NewInMemoryCreditStore(faults *Faults) *InMemoryCreditStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryCreditStore{
		InMemoryStore: NewInMemoryStore("credit transaction", func(t *credit.Transaction) *credit.Transaction {
			cp := *t
			return &cp
		}),
		byKey:    make(map[string]string),
		balances: make(map[string]decimal.Decimal),
		faults:   faults,
	}
}

func (s *InMemoryCreditStore) tenantKey(ctx context.Context, v string) string {
	return types.GetTenantID(ctx) + "/" + v
}

func (s *InMemoryCreditStore) Append(ctx context.Context, t *credit.Transaction) (*credit.Transaction, bool, error) {
	if err := t.Validate(); err != nil {
		return nil, false, err
	}
	if err := s.faults.write("credit.Append"); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[s.tenantKey(ctx, t.IdempotencyKey)]; ok {
		existing, err := s.InMemoryStore.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	before := s.balances[s.tenantKey(ctx, t.MemberID)]
	after := before.Add(t.Amount)
	if after.IsNegative() {
		return nil, false, ierr.NewError("insufficient credit balance").
			WithHintf("Member credit balance %s is not enough for %s", before.StringFixed(2), t.Amount.Neg().StringFixed(2)).
			WithReportableDetails(map[string]any{
				"member_id": t.MemberID,
				"balance":   before.String(),
				"amount":    t.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	t.BalanceBefore = before
	t.BalanceAfter = after
	if err := s.InMemoryStore.Create(ctx, t.ID, t); err != nil {
		return nil, false, err
	}
	s.byKey[s.tenantKey(ctx, t.IdempotencyKey)] = t.ID
	s.balances[s.tenantKey(ctx, t.MemberID)] = after

	stored, err := s.InMemoryStore.Get(ctx, t.ID)
	return stored, true, err
}

func (s *InMemoryCreditStore) GetBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	if err := s.faults.check("credit.GetBalance"); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[s.tenantKey(ctx, memberID)], nil
}

func (s *InMemoryCreditStore) List(ctx context.Context, filter *credit.TransactionFilter) ([]*credit.Transaction, error) {
	if filter == nil {
		filter = &credit.TransactionFilter{}
	}
	items := s.InMemoryStore.List(ctx, func(ctx context.Context, t *credit.Transaction) bool {
		if !CheckTenantFilter(ctx, t.TenantID) {
			return false
		}
		if filter.MemberID != "" && t.MemberID != filter.MemberID {
			return false
		}
		return filter.Reason == nil || t.Reason == *filter.Reason
	}, filter.QueryFilter.GetOrder())
	return types.Page(items, filter.QueryFilter), nil
}

func (s *InMemoryCreditStore) Clear() {
	s.mu.Lock()
	s.byKey = make(map[string]string)
	s.balances = make(map[string]decimal.Decimal)
	s.mu.Unlock()
	s.InMemoryStore.Clear()
}
