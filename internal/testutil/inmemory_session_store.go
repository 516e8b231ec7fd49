package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flexprice/flexgym/internal/domain/session"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
)

// InMemorySessionStore implements session.Repository. The overlap check and
// the write happen under one mutex, like the exclusion constraint in postgres.
type InMemorySessionStore struct {
	*InMemoryStore[*session.Session]
	mu     sync.Mutex
	faults *Faults
}

var _ session.Repository = (*InMemorySessionStore)(nil)

func NewInMemorySessionStore(faults *Faults) *InMemorySessionStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemorySessionStore{
		InMemoryStore: NewInMemoryStore("session", func(s *session.Session) *session.Session {
			cp := *s
			return &cp
		}),
		faults: faults,
	}
}

func (s *InMemorySessionStore) FindConflicting(ctx context.Context, trainerID string, date time.Time, start, end types.TimeOfDay) ([]*session.Session, error) {
	probe := &session.Session{TrainerID: trainerID, SessionDate: date, StartTime: start, EndTime: end}
	return s.conflicts(ctx, probe, ""), nil
}

func (s *InMemorySessionStore) conflicts(ctx context.Context, probe *session.Session, skipID string) []*session.Session {
	found := s.List(ctx, func(ctx context.Context, existing *session.Session) bool {
		return existing.ID != skipID &&
			existing.SessionStatus != types.SessionStatusCancelled &&
			existing.Status == types.StatusPublished &&
			CheckTenantFilter(ctx, existing.TenantID) &&
			existing.Overlaps(probe)
	}, types.OrderAsc)
	sort.SliceStable(found, func(i, j int) bool { return found[i].StartTime < found[j].StartTime })
	return found
}

func conflictError(trainerID string, clash *session.Session) error {
	return ierr.NewError("trainer session overlaps an existing booking").
		WithHint("Trainer already has a session booked at this time").
		WithReportableDetails(map[string]any{
			"trainer_id":          trainerID,
			"conflict_session_id": clash.ID,
		}).
		Mark(ierr.ErrConflict)
}

func (s *InMemorySessionStore) Create(ctx context.Context, sess *session.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if err := s.faults.write("session.Create"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess.SessionDate = types.Date(sess.SessionDate)
	if sess.SessionStatus != types.SessionStatusCancelled {
		if clash := s.conflicts(ctx, sess, sess.ID); len(clash) > 0 {
			return conflictError(sess.TrainerID, clash[0])
		}
	}
	return s.InMemoryStore.Create(ctx, sess.ID, sess)
}

func (s *InMemorySessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CheckTenantFilter(ctx, sess.TenantID) {
		return nil, s.notFound(id)
	}
	return sess, nil
}

func (s *InMemorySessionStore) Update(ctx context.Context, id string, patch session.Patch) (*session.Session, error) {
	if err := s.faults.write("session.Update"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(current)
	if current.SessionStatus != types.SessionStatusCancelled {
		if clash := s.conflicts(ctx, current, id); len(clash) > 0 {
			return nil, conflictError(current.TrainerID, clash[0])
		}
	}
	return s.Mutate(ctx, id, func(stored *session.Session) error {
		patch.Apply(stored)
		stored.UpdatedBy = types.GetUserID(ctx)
		return nil
	})
}

func (s *InMemorySessionStore) ListReassignable(ctx context.Context, membershipID, trainerID string, from time.Time) ([]*session.Session, error) {
	from = types.Date(from)
	found := s.List(ctx, func(ctx context.Context, sess *session.Session) bool {
		return sess.MembershipID == membershipID &&
			sess.TrainerID == trainerID &&
			!sess.SessionDate.Before(from) &&
			sess.SessionStatus.IsReassignable() &&
			CheckTenantFilter(ctx, sess.TenantID)
	}, types.OrderAsc)
	sortByStart(found)
	return found, nil
}

func (s *InMemorySessionStore) ListByMembership(ctx context.Context, membershipID string) ([]*session.Session, error) {
	found := s.List(ctx, func(ctx context.Context, sess *session.Session) bool {
		return sess.MembershipID == membershipID && CheckTenantFilter(ctx, sess.TenantID)
	}, types.OrderAsc)
	sortByStart(found)
	return found, nil
}

func sortByStart(sessions []*session.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].SessionDate.Equal(sessions[j].SessionDate) {
			return sessions[i].SessionDate.Before(sessions[j].SessionDate)
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
}
