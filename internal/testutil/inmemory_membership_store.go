package testutil

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/membership"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
)

// InMemoryMembershipStore implements membership.Repository and
// membership.ChangeRepository
type InMemoryMembershipStore struct {
	*InMemoryStore[*membership.Membership]
	changes *InMemoryStore[*membership.Change]
	faults  *Faults
}

var (
	_ membership.Repository       = (*InMemoryMembershipStore)(nil)
	_ membership.ChangeRepository = (*InMemoryMembershipStore)(nil)
)

func NewInMemoryMembershipStore(faults *Faults) *InMemoryMembershipStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryMembershipStore{
		InMemoryStore: NewInMemoryStore("membership", copyMembership),
		changes:       NewInMemoryStore("membership change", copyChange),
		faults:        faults,
	}
}

func copyMembership(m *membership.Membership) *membership.Membership {
	cp := *m
	cp.OriginalMembershipID = copyPtr(m.OriginalMembershipID)
	cp.TrainerID = copyPtr(m.TrainerID)
	cp.ActualEndDate = copyPtr(m.ActualEndDate)
	cp.FreezeStartDate = copyPtr(m.FreezeStartDate)
	cp.FreezeEndDate = copyPtr(m.FreezeEndDate)
	cp.PaymentPlanID = copyPtr(m.PaymentPlanID)
	cp.TransferredToMemberID = copyPtr(m.TransferredToMemberID)
	cp.TransferredFromMemberID = copyPtr(m.TransferredFromMemberID)
	return &cp
}

func copyChange(c *membership.Change) *membership.Change {
	cp := *c
	cp.ToMembershipID = copyPtr(c.ToMembershipID)
	return &cp
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *InMemoryMembershipStore) Create(ctx context.Context, m *membership.Membership) error {
	if m == nil {
		return ierr.NewError("membership cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.faults.write("membership.Create"); err != nil {
		return err
	}
	m.StartDate = types.Date(m.StartDate)
	m.EndDate = types.Date(m.EndDate)
	return s.InMemoryStore.Create(ctx, m.ID, m)
}

func (s *InMemoryMembershipStore) Get(ctx context.Context, id string) (*membership.Membership, error) {
	if err := s.faults.check("membership.Get"); err != nil {
		return nil, err
	}
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CheckTenantFilter(ctx, m.TenantID) || m.Status != types.StatusPublished {
		return nil, s.notFound(id)
	}
	return m, nil
}

func (s *InMemoryMembershipStore) Update(ctx context.Context, id string, patch membership.Patch) (*membership.Membership, error) {
	if err := s.faults.write("membership.Update"); err != nil {
		return nil, err
	}
	return s.Mutate(ctx, id, func(m *membership.Membership) error {
		patch.Apply(m)
		m.UpdatedBy = types.GetUserID(ctx)
		return nil
	})
}

func (s *InMemoryMembershipStore) ListByMember(ctx context.Context, memberID string, filter *types.QueryFilter) ([]*membership.Membership, error) {
	items := s.List(ctx, func(ctx context.Context, m *membership.Membership) bool {
		return m.MemberID == memberID && CheckTenantFilter(ctx, m.TenantID) && m.Status == types.StatusPublished
	}, filter.GetOrder())
	return types.Page(items, filter), nil
}

func (s *InMemoryMembershipStore) ApplyAmountDelta(ctx context.Context, id string, delta membership.AmountDelta) (*membership.Membership, error) {
	if err := s.faults.write("membership.ApplyAmountDelta"); err != nil {
		return nil, err
	}
	return s.Mutate(ctx, id, func(m *membership.Membership) error {
		m.AmountPaid = m.AmountPaid.Add(delta.Paid)
		m.AmountPending = m.AmountPending.Add(delta.Pending)
		m.TotalAmountDue = m.TotalAmountDue.Add(delta.Total)
		return m.Validate()
	})
}

func (s *InMemoryMembershipStore) AdjustSessions(ctx context.Context, id string, remainingDelta, usedDelta int) (*membership.Membership, error) {
	if err := s.faults.write("membership.AdjustSessions"); err != nil {
		return nil, err
	}
	return s.Mutate(ctx, id, func(m *membership.Membership) error {
		m.PTSessionsRemaining += remainingDelta
		m.PTSessionsUsed += usedDelta
		return m.Validate()
	})
}

func (s *InMemoryMembershipStore) AdjustFreeze(ctx context.Context, id string, days int) (*membership.Membership, error) {
	if err := s.faults.write("membership.AdjustFreeze"); err != nil {
		return nil, err
	}
	return s.Mutate(ctx, id, func(m *membership.Membership) error {
		m.EndDate = types.AddDays(m.EndDate, days)
		m.FreezeDaysUsed += days
		return m.Validate()
	})
}

func (s *InMemoryMembershipStore) LinkPaymentPlan(ctx context.Context, id string, planID string) error {
	if err := s.faults.write("membership.LinkPaymentPlan"); err != nil {
		return err
	}
	_, err := s.Mutate(ctx, id, func(m *membership.Membership) error {
		if planID == "" {
			m.PaymentPlanID = nil
			return nil
		}
		m.PaymentPlanID = lo.ToPtr(planID)
		return nil
	})
	return err
}

func (s *InMemoryMembershipStore) CreateChange(ctx context.Context, c *membership.Change) error {
	if err := s.faults.write("membership.CreateChange"); err != nil {
		return err
	}
	return s.changes.Create(ctx, c.ID, c)
}

func (s *InMemoryMembershipStore) ListChanges(ctx context.Context, membershipID string) ([]*membership.Change, error) {
	return s.changes.List(ctx, func(ctx context.Context, c *membership.Change) bool {
		return CheckTenantFilter(ctx, c.TenantID) &&
			(c.FromMembershipID == membershipID || lo.FromPtr(c.ToMembershipID) == membershipID)
	}, types.OrderAsc), nil
}

// Changes returns every stored change, oldest first
func (s *InMemoryMembershipStore) Changes() []*membership.Change {
	return s.changes.List(context.Background(), nil, types.OrderAsc)
}

func (s *InMemoryMembershipStore) Clear() {
	s.InMemoryStore.Clear()
	s.changes.Clear()
}
