package testutil

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/domain/installment"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
)

// InMemoryInstallmentStore implements installment.Repository. Installments
// are kept on the stored plan.
type InMemoryInstallmentStore struct {
	*InMemoryStore[*installment.Plan]
	faults *Faults
}

var _ installment.Repository = (*InMemoryInstallmentStore)(nil)

func NewInMemoryInstallmentStore(faults *Faults) *InMemoryInstallmentStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryInstallmentStore{
		InMemoryStore: NewInMemoryStore("payment plan", copyPlan),
		faults:        faults,
	}
}

func copyPlan(p *installment.Plan) *installment.Plan {
	cp := *p
	cp.Installments = make([]*installment.Installment, 0, len(p.Installments))
	for _, inst := range p.Installments {
		ic := *inst
		ic.PaidAt = copyPtr(inst.PaidAt)
		ic.PaymentID = copyPtr(inst.PaymentID)
		cp.Installments = append(cp.Installments, &ic)
	}
	return &cp
}

func (s *InMemoryInstallmentStore) CreatePlan(ctx context.Context, p *installment.Plan) error {
	if err := s.faults.write("installment.CreatePlan"); err != nil {
		return err
	}
	if p.PlanStatus == types.PaymentPlanStatusActive {
		active := s.List(ctx, func(ctx context.Context, existing *installment.Plan) bool {
			return existing.MembershipID == p.MembershipID && existing.PlanStatus == types.PaymentPlanStatusActive
		}, types.OrderDesc)
		if len(active) > 0 {
			return ierr.NewError("membership already has an active payment plan").
				WithHint("Cancel the current payment plan before creating a new one").
				WithReportableDetails(map[string]any{
					"membership_id": p.MembershipID,
					"plan_id":       active[0].ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryInstallmentStore) GetPlan(ctx context.Context, id string) (*installment.Plan, error) {
	if err := s.faults.check("installment.GetPlan"); err != nil {
		return nil, err
	}
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryInstallmentStore) UpdatePlanStatus(ctx context.Context, id string, status types.PaymentPlanStatus) error {
	if err := s.faults.write("installment.UpdatePlanStatus"); err != nil {
		return err
	}
	_, err := s.Mutate(ctx, id, func(p *installment.Plan) error {
		p.PlanStatus = status
		return nil
	})
	return err
}

func (s *InMemoryInstallmentStore) MarkInstallmentPaid(ctx context.Context, planID string, number int, paymentID string, paidAt time.Time) error {
	if err := s.faults.write("installment.MarkInstallmentPaid"); err != nil {
		return err
	}
	_, err := s.Mutate(ctx, planID, func(p *installment.Plan) error {
		inst, ok := lo.Find(p.Installments, func(i *installment.Installment) bool { return i.Number == number })
		if !ok {
			return ierr.NewErrorf("installment %d not found", number).
				WithHintf("Installment %d does not exist on this plan", number).
				Mark(ierr.ErrNotFound)
		}
		if inst.IsPaid {
			return ierr.NewErrorf("installment %d already paid", number).
				WithHintf("Installment %d is already paid", number).
				Mark(ierr.ErrConflict)
		}
		inst.IsPaid = true
		inst.PaidAt = lo.ToPtr(paidAt.UTC())
		inst.PaymentID = lo.ToPtr(paymentID)
		return nil
	})
	return err
}

func (s *InMemoryInstallmentStore) MarkInstallmentUnpaid(ctx context.Context, planID string, number int) error {
	if err := s.faults.write("installment.MarkInstallmentUnpaid"); err != nil {
		return err
	}
	_, err := s.Mutate(ctx, planID, func(p *installment.Plan) error {
		inst, ok := lo.Find(p.Installments, func(i *installment.Installment) bool { return i.Number == number })
		if !ok {
			return ierr.NewErrorf("installment %d not found", number).Mark(ierr.ErrNotFound)
		}
		inst.IsPaid = false
		inst.PaidAt = nil
		inst.PaymentID = nil
		return nil
	})
	return err
}
