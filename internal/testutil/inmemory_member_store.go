package testutil

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/member"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
)

// InMemoryMemberStore implements member.Repository
type InMemoryMemberStore struct {
	*InMemoryStore[*member.Member]
	faults *Faults
}

var _ member.Repository = (*InMemoryMemberStore)(nil)

func NewInMemoryMemberStore(faults *Faults) *InMemoryMemberStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryMemberStore{
		InMemoryStore: NewInMemoryStore("member", func(m *member.Member) *member.Member {
			cp := *m
			cp.StatusMembershipID = copyPtr(m.StatusMembershipID)
			return &cp
		}),
		faults: faults,
	}
}

func (s *InMemoryMemberStore) CreateIdentity(ctx context.Context, m *member.Member) (string, error) {
	if m == nil {
		return "", ierr.NewError("member cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := s.faults.write("member.CreateIdentity"); err != nil {
		return "", err
	}
	if m.ID == "" {
		m.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBER)
	}
	if err := s.InMemoryStore.Create(ctx, m.ID, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *InMemoryMemberStore) Get(ctx context.Context, id string) (*member.Member, error) {
	if err := s.faults.check("member.Get"); err != nil {
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

func (s *InMemoryMemberStore) UpdateStatus(ctx context.Context, id string, status types.MemberStatus, membershipID string) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := s.faults.write("member.UpdateStatus"); err != nil {
		return err
	}
	_, err := s.Mutate(ctx, id, func(m *member.Member) error {
		m.MemberStatus = status
		m.StatusMembershipID = types.ToNillableString(membershipID)
		return nil
	})
	return err
}

func (s *InMemoryMemberStore) Archive(ctx context.Context, id string) error {
	if err := s.faults.write("member.Archive"); err != nil {
		return err
	}
	_, err := s.Mutate(ctx, id, func(m *member.Member) error {
		m.Status = types.StatusArchived
		return nil
	})
	return err
}
