package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/flexgym/internal/domain/commission"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
)

// InMemoryCommissionStore implements commission.Repository. Rule writes
// share one lock so the single active rule per triple holds.
type InMemoryCommissionStore struct {
	mu       sync.Mutex
	rules    *InMemoryStore[*commission.Rule]
	earnings *InMemoryStore[*commission.Earning]
	faults   *Faults
}

var _ commission.Repository = (*InMemoryCommissionStore)(nil)

func NewInMemoryCommissionStore(faults *Faults) *InMemoryCommissionStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryCommissionStore{
		rules: NewInMemoryStore("commission rule", func(r *commission.Rule) *commission.Rule {
			cp := *r
			cp.ValidUntil = copyPtr(r.ValidUntil)
			return &cp
		}),
		earnings: NewInMemoryStore("trainer earning", func(e *commission.Earning) *commission.Earning {
			cp := *e
			cp.SessionID = copyPtr(e.SessionID)
			cp.RuleID = copyPtr(e.RuleID)
			return &cp
		}),
		faults: faults,
	}
}

func (s *InMemoryCommissionStore) GetRule(ctx context.Context, id string) (*commission.Rule, error) {
	if err := s.faults.check("commission.GetRule"); err != nil {
		return nil, err
	}
	return s.rules.Get(ctx, id)
}

func (s *InMemoryCommissionStore) GetActiveRule(ctx context.Context, trainerID, packageID, memberID string) (*commission.Rule, error) {
	if err := s.faults.check("commission.GetActiveRule"); err != nil {
		return nil, err
	}
	active := s.activeRules(ctx, trainerID, packageID, memberID)
	if len(active) == 0 {
		return nil, ierr.NewError("active commission rule not found").
			WithHint("No active commission rule for this trainer and package").
			WithReportableDetails(map[string]any{
				"trainer_id": trainerID,
				"package_id": packageID,
				"member_id":  memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return active[0], nil
}

func (s *InMemoryCommissionStore) activeRules(ctx context.Context, trainerID, packageID, memberID string) []*commission.Rule {
	return s.rules.List(ctx, func(ctx context.Context, r *commission.Rule) bool {
		return r.IsActive && r.TrainerID == trainerID && r.PackageID == packageID &&
			r.MemberID == memberID && CheckTenantFilter(ctx, r.TenantID)
	}, types.OrderDesc)
}

func (s *InMemoryCommissionStore) CreateRule(ctx context.Context, r *commission.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.faults.write("commission.CreateRule"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.IsActive && len(s.activeRules(ctx, r.TrainerID, r.PackageID, r.MemberID)) > 0 {
		return ierr.NewError("active commission rule already exists").
			WithHint("This trainer already has an active commission rule for the member and package").
			WithReportableDetails(map[string]any{
				"trainer_id": r.TrainerID,
				"package_id": r.PackageID,
				"member_id":  r.MemberID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return s.rules.Create(ctx, r.ID, r)
}

func (s *InMemoryCommissionStore) DeactivateRule(ctx context.Context, id string, until time.Time) error {
	if err := s.faults.write("commission.DeactivateRule"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.rules.Mutate(ctx, id, func(r *commission.Rule) error {
		d := types.Date(until)
		r.IsActive = false
		r.ValidUntil = &d
		return nil
	})
	return err
}

func (s *InMemoryCommissionStore) ReactivateRule(ctx context.Context, id string) error {
	if err := s.faults.write("commission.ReactivateRule"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rule, err := s.rules.Get(ctx, id)
	if err != nil {
		return err
	}
	if rule.IsActive {
		return nil
	}
	if len(s.activeRules(ctx, rule.TrainerID, rule.PackageID, rule.MemberID)) > 0 {
		return ierr.NewError("active commission rule already exists").
			WithHint("Another commission rule is already active for this trainer and package").
			Mark(ierr.ErrAlreadyExists)
	}
	_, err = s.rules.Mutate(ctx, id, func(r *commission.Rule) error {
		r.IsActive = true
		r.ValidUntil = nil
		return nil
	})
	return err
}

func (s *InMemoryCommissionStore) CreateEarning(ctx context.Context, e *commission.Earning) error {
	if err := e.EarningType.Validate(); err != nil {
		return err
	}
	if err := s.faults.write("commission.CreateEarning"); err != nil {
		return err
	}
	return s.earnings.Create(ctx, e.ID, e)
}

func (s *InMemoryCommissionStore) ListEarnings(ctx context.Context, filter *commission.EarningFilter) ([]*commission.Earning, error) {
	if filter == nil {
		filter = &commission.EarningFilter{}
	}
	items := s.earnings.List(ctx, func(ctx context.Context, e *commission.Earning) bool {
		if !CheckTenantFilter(ctx, e.TenantID) {
			return false
		}
		if filter.TrainerID != "" && e.TrainerID != filter.TrainerID {
			return false
		}
		if filter.MembershipID != "" && e.MembershipID != filter.MembershipID {
			return false
		}
		if filter.From != nil && e.EarningDate.Before(types.Date(*filter.From)) {
			return false
		}
		if filter.To != nil && e.EarningDate.After(types.Date(*filter.To)) {
			return false
		}
		return true
	}, filter.QueryFilter.GetOrder())
	return types.Page(items, filter.QueryFilter), nil
}

// Rules returns every stored rule, oldest first
func (s *InMemoryCommissionStore) Rules() []*commission.Rule {
	return s.rules.List(context.Background(), nil, types.OrderAsc)
}

func (s *InMemoryCommissionStore) Clear() {
	s.rules.Clear()
	s.earnings.Clear()
}
