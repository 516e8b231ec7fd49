package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// LifecycleService runs the membership transitions. Each one validates
// everything up front, then writes through a saga.
type LifecycleService interface {
	Upgrade(ctx context.Context, id string, req dto.ChangePackageRequest) (*dto.LifecycleResponse, error)
	Downgrade(ctx context.Context, id string, req dto.ChangePackageRequest) (*dto.LifecycleResponse, error)
	Transfer(ctx context.Context, id string, req dto.TransferMembershipRequest) (*dto.LifecycleResponse, error)
	Freeze(ctx context.Context, id string, req dto.FreezeMembershipRequest) (*dto.LifecycleResponse, error)
	Unfreeze(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error)
	Suspend(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error)
	Reactivate(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error)
	Cancel(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error)
	Expire(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error)
	ChangeTrainer(ctx context.Context, id string, req dto.ChangeTrainerRequest) (*dto.TrainerChangeResponse, error)
}

type lifecycleService struct {
	ServiceParams
}

func NewLifecycleService(params ServiceParams) LifecycleService {
	return &lifecycleService{
		ServiceParams: params,
	}
}

// rollbackReason is written on records whose creation was compensated
const rollbackReason = "rolled back"

func (s ServiceParams) loadMembership(ctx context.Context, id string) (*membership.Membership, error) {
	return retryRead(ctx, func(ctx context.Context) (*membership.Membership, error) {
		return s.MembershipRepo.Get(ctx, id)
	})
}

func (s ServiceParams) loadMember(ctx context.Context, id string) (*member.Member, error) {
	return retryRead(ctx, func(ctx context.Context) (*member.Member, error) {
		return s.MemberRepo.Get(ctx, id)
	})
}

// loadPackage returns a package that can be sold, failing with
// ErrInvalidPackage when it cannot be priced
func (s ServiceParams) loadPackage(ctx context.Context, id string) (*pkg.Package, error) {
	p, err := retryRead(ctx, func(ctx context.Context) (*pkg.Package, error) {
		return s.PackageRepo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ierr.NewError("package is not active").
			WithHintf("Package %s is no longer sold", p.Name).
			WithReportableDetails(map[string]any{
				"package_id": p.ID,
			}).
			Mark(ierr.ErrInvalidPackage)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// activeRule returns the active commission rule of the membership's trainer,
// nil when there is none
func (s ServiceParams) activeRule(ctx context.Context, m *membership.Membership) (*commission.Rule, error) {
	if m.TrainerID == nil {
		return nil, nil
	}
	rule, err := retryRead(ctx, func(ctx context.Context) (*commission.Rule, error) {
		return s.CommissionRepo.GetActiveRule(ctx, *m.TrainerID, m.PackageID, m.MemberID)
	})
	if ierr.IsNotFound(err) {
		return nil, nil
	}
	return rule, err
}

// defaultRule is the rule used when a trainer has no rule to carry over
func (s ServiceParams) defaultRule(ctx context.Context, trainerID, membershipID, packageID, memberID string, validFrom time.Time) *commission.Rule {
	return &commission.Rule{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMMISSION_RULE),
		TrainerID:       trainerID,
		PackageID:       packageID,
		MemberID:        memberID,
		MembershipID:    membershipID,
		CommissionType:  s.Config.Engine.DefaultCommissionType,
		CommissionValue: s.Config.Engine.GetDefaultCommissionValue(),
		ValidFrom:       types.Date(validFrom),
		IsActive:        true,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

func (s ServiceParams) receiptNumber() string {
	return types.GenerateShortIDWithPrefix(s.Config.Engine.ReceiptPrefix)
}

func dateOrToday(d *time.Time) time.Time {
	if d == nil {
		return types.Today()
	}
	return types.Date(*d)
}

// Saga steps. Every undo reverses exactly what its own step wrote.

// updateStep patches the membership and puts back prev's fields on undo
func (s ServiceParams) updateStep(name string, prev *membership.Membership, patch membership.Patch, out **membership.Membership) saga.Step {
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			m, err := s.MembershipRepo.Update(ctx, prev.ID, patch)
			if err != nil {
				return err
			}
			if out != nil {
				*out = m
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			_, err := s.MembershipRepo.Update(ctx, prev.ID, membership.RestorePatch(prev))
			return err
		},
	}
}

// createMembershipStep stores m. Memberships are never deleted so the undo
// closes it as cancelled.
func (s ServiceParams) createMembershipStep(name string, m *membership.Membership) saga.Step {
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			return s.MembershipRepo.Create(ctx, m)
		},
		Undo: func(ctx context.Context) error {
			_, err := s.MembershipRepo.Update(ctx, m.ID, membership.Patch{
				Status:        lo.ToPtr(types.MembershipStatusCancelled),
				StatusReason:  lo.ToPtr(rollbackReason),
				ActualEndDate: lo.ToPtr(m.StartDate),
			})
			return err
		},
	}
}

func (s ServiceParams) amountStep(name, membershipID string, delta membership.AmountDelta, out **membership.Membership) saga.Step {
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			m, err := s.MembershipRepo.ApplyAmountDelta(ctx, membershipID, delta)
			if err != nil {
				return err
			}
			if out != nil {
				*out = m
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			_, err := s.MembershipRepo.ApplyAmountDelta(ctx, membershipID, delta.Neg())
			return err
		},
	}
}

func (s ServiceParams) sessionCounterStep(name, membershipID string, remainingDelta, usedDelta int, out **membership.Membership) saga.Step {
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			m, err := s.MembershipRepo.AdjustSessions(ctx, membershipID, remainingDelta, usedDelta)
			if err != nil {
				return err
			}
			if out != nil {
				*out = m
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			_, err := s.MembershipRepo.AdjustSessions(ctx, membershipID, -remainingDelta, -usedDelta)
			return err
		},
	}
}

// changeStep writes the audit row. It runs last so the row only exists for
// completed transitions, and is never undone.
func (s ServiceParams) changeStep(c *membership.Change) saga.Step {
	return saga.Step{
		Name: "record_change",
		Do: func(ctx context.Context) error {
			return s.ChangeRepo.CreateChange(ctx, c)
		},
	}
}

// creditStep appends a ledger entry and appends its reversal on undo. An
// entry that already existed under the same key is left alone.
func (s ServiceParams) creditStep(name string, t *credit.Transaction, out **credit.Transaction) saga.Step {
	var created bool
	var stored *credit.Transaction
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			var err error
			stored, created, err = s.CreditRepo.Append(ctx, t)
			if err != nil {
				return err
			}
			if out != nil {
				*out = stored
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			if !created {
				return nil
			}
			_, _, err := s.CreditRepo.Append(ctx, stored.Reversal(types.GetDefaultBaseModel(ctx)))
			return err
		},
	}
}

// paymentStep stores a payment and records its reversal on undo
func (s ServiceParams) paymentStep(name string, p *payment.Payment, out **payment.Payment) saga.Step {
	var created bool
	var stored *payment.Payment
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			var err error
			stored, created, err = s.PaymentRepo.Create(ctx, p)
			if err != nil {
				return err
			}
			if out != nil {
				*out = stored
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			if !created {
				return nil
			}
			reversal := stored.Reversal(s.receiptNumber(), types.GetDefaultBaseModel(ctx))
			_, _, err := s.PaymentRepo.Create(ctx, reversal)
			return err
		},
	}
}

// memberStatusStep moves the member status and puts the previous one back on undo
func (s ServiceParams) memberStatusStep(name string, prev *member.Member, status types.MemberStatus, membershipID string) saga.Step {
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			return s.MemberRepo.UpdateStatus(ctx, prev.ID, status, membershipID)
		},
		Undo: func(ctx context.Context) error {
			return s.MemberRepo.UpdateStatus(ctx, prev.ID, prev.MemberStatus, lo.FromPtr(prev.StatusMembershipID))
		},
	}
}

func (s ServiceParams) deactivateRuleStep(rule *commission.Rule, until time.Time, nonFatal bool) saga.Step {
	return saga.Step{
		Name:     "deactivate_commission_rule",
		NonFatal: nonFatal,
		Do: func(ctx context.Context) error {
			return s.CommissionRepo.DeactivateRule(ctx, rule.ID, until)
		},
		Undo: func(ctx context.Context) error {
			return s.CommissionRepo.ReactivateRule(ctx, rule.ID)
		},
	}
}

// createRuleStep stores rule and sets *out once it exists
func (s ServiceParams) createRuleStep(rule *commission.Rule, nonFatal bool, out **commission.Rule) saga.Step {
	return saga.Step{
		Name:     "create_commission_rule",
		NonFatal: nonFatal,
		Do: func(ctx context.Context) error {
			if err := rule.Validate(); err != nil {
				return err
			}
			if err := s.CommissionRepo.CreateRule(ctx, rule); err != nil {
				return err
			}
			if out != nil {
				*out = rule
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			return s.CommissionRepo.DeactivateRule(ctx, rule.ID, rule.ValidFrom)
		},
	}
}

// earningStep logs an earning and offsets it with a reversal on undo
func (s ServiceParams) earningStep(name string, e *commission.Earning, nonFatal bool) saga.Step {
	return saga.Step{
		Name:     name,
		NonFatal: nonFatal,
		Do: func(ctx context.Context) error {
			return s.CommissionRepo.CreateEarning(ctx, e)
		},
		Undo: func(ctx context.Context) error {
			return s.CommissionRepo.CreateEarning(ctx, e.Reversal(types.GetDefaultBaseModel(ctx), "reversal of "+e.ID))
		},
	}
}

// restoreMemberStatus returns the step that sets the member back to active
// when this membership put it in another status, nil otherwise
func (s ServiceParams) restoreMemberStatus(ctx context.Context, m *membership.Membership) (*saga.Step, error) {
	mem, err := s.loadMember(ctx, m.MemberID)
	if err != nil {
		return nil, err
	}
	if !mem.IsHeldBy(m.ID) {
		return nil, nil
	}
	step := s.memberStatusStep("restore_member_status", mem, types.MemberStatusActive, "")
	return &step, nil
}

// holdMemberStatus returns the step that moves an active member into status
// on behalf of m, nil when the member is not active
func (s ServiceParams) holdMemberStatus(ctx context.Context, m *membership.Membership, status types.MemberStatus) (*saga.Step, error) {
	mem, err := s.loadMember(ctx, m.MemberID)
	if err != nil {
		return nil, err
	}
	if mem.MemberStatus != types.MemberStatusActive {
		return nil, nil
	}
	step := s.memberStatusStep("update_member_status", mem, status, m.ID)
	return &step, nil
}

func (s ServiceParams) runSaga(ctx context.Context, name string, steps []saga.Step) ([]string, error) {
	outcome, err := s.Saga.Run(ctx, name, steps)
	if err != nil {
		return nil, err
	}
	for _, w := range outcome.Warnings {
		s.Logger.Warnw("membership operation finished with warning",
			"operation", name,
			"warning", w,
		)
	}
	return outcome.Warnings, nil
}

func membershipEvent(ctx context.Context, name string, m *membership.Membership, payload any) types.LifecycleEvent {
	return types.NewLifecycleEvent(ctx, name, m.ID, m.MemberID, payload)
}

// amountsPayload is the money part of a membership event
func amountsPayload(m *membership.Membership) map[string]any {
	return map[string]any{
		"status":           m.MembershipStatus,
		"total_amount_due": m.TotalAmountDue.String(),
		"amount_paid":      m.AmountPaid.String(),
		"amount_pending":   m.AmountPending.String(),
	}
}

func creditEvent(ctx context.Context, t *credit.Transaction, membershipID string) types.LifecycleEvent {
	name := types.EventCreditIssued
	if !t.IsCredit() {
		name = types.EventCreditRedeemed
	}
	return types.NewLifecycleEvent(ctx, name, membershipID, t.MemberID, map[string]any{
		"credit_transaction_id": t.ID,
		"amount":                t.Amount.String(),
		"balance_after":         t.BalanceAfter.String(),
		"reason":                t.Reason,
	})
}

func paymentEvent(ctx context.Context, p *payment.Payment) types.LifecycleEvent {
	return types.NewLifecycleEvent(ctx, types.EventPaymentRecorded, p.MembershipID, p.MemberID, map[string]any{
		"payment_id":     p.ID,
		"amount":         p.Amount.String(),
		"payment_type":   p.PaymentType,
		"payment_method": p.PaymentMethod,
		"receipt_number": p.ReceiptNumber,
	})
}

func earningEvent(ctx context.Context, e *commission.Earning) types.LifecycleEvent {
	return types.NewLifecycleEvent(ctx, types.EventTrainerEarningLogged, e.MembershipID, e.MemberID, map[string]any{
		"earning_id":    e.ID,
		"trainer_id":    e.TrainerID,
		"earning_type":  e.EarningType,
		"total_earning": e.TotalEarning.String(),
	})
}

// surplusDescription is the ledger text of a credit issued by a transition
func surplusDescription(action types.MembershipAction, m *membership.Membership, amount decimal.Decimal) string {
	return fmt.Sprintf("%s of membership %s: %s credited", action, m.ID, amount.StringFixed(2))
}
