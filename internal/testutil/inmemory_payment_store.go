package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/types"
)

// InMemoryPaymentStore implements payment.Repository with the same
// idempotency key semantics as the postgres store
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	mu     sync.Mutex
	byKey  map[string]string
	faults *Faults
}

var _ payment.Repository = (*InMemoryPaymentStore)(nil)

func NewInMemoryPaymentStore(faults *Faults) *InMemoryPaymentStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore("payment", func(p *payment.Payment) *payment.Payment {
			cp := *p
			cp.PaymentPlanID = copyPtr(p.PaymentPlanID)
			cp.InstallmentNumber = copyPtr(p.InstallmentNumber)
			cp.ReversesPaymentID = copyPtr(p.ReversesPaymentID)
			return &cp
		}),
		byKey:  make(map[string]string),
		faults: faults,
	}
}

func (s *InMemoryPaymentStore) keyOf(ctx context.Context, key string) string {
	return types.GetTenantID(ctx) + "/" + key
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) (*payment.Payment, bool, error) {
	if err := p.Validate(); err != nil {
		return nil, false, err
	}
	if err := s.faults.write("payment.Create"); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[s.keyOf(ctx, p.IdempotencyKey)]; ok {
		existing, err := s.InMemoryStore.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err := s.InMemoryStore.Create(ctx, p.ID, p); err != nil {
		return nil, false, err
	}
	s.byKey[s.keyOf(ctx, p.IdempotencyKey)] = p.ID
	stored, err := s.InMemoryStore.Get(ctx, p.ID)
	return stored, true, err
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CheckTenantFilter(ctx, p.TenantID) {
		return nil, s.notFound(id)
	}
	return p, nil
}

func (s *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	s.mu.Lock()
	id, ok := s.byKey[s.keyOf(ctx, key)]
	s.mu.Unlock()
	if !ok {
		return nil, s.notFound(key)
	}
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPaymentStore) ListByMembership(ctx context.Context, membershipID string) ([]*payment.Payment, error) {
	return s.List(ctx, func(ctx context.Context, p *payment.Payment) bool {
		return p.MembershipID == membershipID && CheckTenantFilter(ctx, p.TenantID)
	}, types.OrderAsc), nil
}

func (s *InMemoryPaymentStore) Clear() {
	s.mu.Lock()
	s.byKey = make(map[string]string)
	s.mu.Unlock()
	s.InMemoryStore.Clear()
}
