package service

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/session"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// ChangeTrainer moves the membership to another trainer. The commission still
// attached to unused sessions leaves the outgoing trainer and goes to the
// incoming one, so the total across both stays the same.
func (s *lifecycleService) ChangeTrainer(ctx context.Context, id string, req dto.ChangeTrainerRequest) (*dto.TrainerChangeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.loadMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.MembershipStatus.IsTerminal() ||
		m.MembershipStatus == types.MembershipStatusUpgraded ||
		m.MembershipStatus == types.MembershipStatusDowngraded {
		return nil, ierr.NewErrorf("cannot change the trainer of a membership that is %s", m.MembershipStatus).
			WithHintf("Trainer cannot be changed while the membership is %s", m.MembershipStatus).
			WithReportableDetails(map[string]any{
				"membership_id": m.ID,
				"status":        m.MembershipStatus,
			}).
			Mark(ierr.ErrInvalidTransition)
	}

	outgoing := m.TrainerIDValue()
	if outgoing == req.NewTrainerID {
		return nil, ierr.NewError("trainer is unchanged").
			WithHint("The membership is already assigned to this trainer").
			Mark(ierr.ErrValidation)
	}

	changeDate := dateOrToday(req.ChangeDate)
	base := types.GetDefaultBaseModel(ctx)

	previous, err := s.activeRule(ctx, m)
	if err != nil {
		return nil, err
	}
	newRule := s.defaultRule(ctx, req.NewTrainerID, m.ID, m.PackageID, m.MemberID, changeDate)
	if previous != nil {
		newRule = previous.CopyFor(req.NewTrainerID, m.ID, m.PackageID, changeDate, base)
	}
	if err := newRule.Validate(); err != nil {
		return nil, err
	}

	remainingValue := decimal.Zero
	if previous != nil && m.PTSessionsRemaining+m.PTSessionsUsed > 0 {
		result, err := s.CommissionCalc.Calculate(commission.InputFromRule(previous, m.OriginalAmount, m.PTSessionsRemaining, m.PTSessionsUsed))
		if err != nil {
			return nil, err
		}
		remainingValue = result.RemainingValue
	}

	var updated *membership.Membership
	var steps []saga.Step
	if previous != nil {
		steps = append(steps, s.deactivateRuleStep(previous, changeDate, false))
	}
	steps = append(steps,
		s.createRuleStep(newRule, false, nil),
		s.updateStep("assign_trainer", m, membership.Patch{
			TrainerID: lo.ToPtr(req.NewTrainerID),
		}, &updated),
	)

	var earnings []*commission.Earning
	if remainingValue.IsPositive() {
		out := s.transferEarning(m, outgoing, previous, remainingValue.Neg(), types.EarningTypeCommissionTransferOut, changeDate, base)
		in := s.transferEarning(m, req.NewTrainerID, newRule, remainingValue, types.EarningTypeCommissionTransferIn, changeDate, base)
		earnings = append(earnings, out, in)
		steps = append(steps,
			s.earningStep("transfer_commission_out", out, false),
			s.earningStep("transfer_commission_in", in, false),
		)
	}

	var reassigned []*session.Session
	if req.ReassignSessions && outgoing != "" {
		steps = append(steps, s.reassignSessionsStep(m.ID, outgoing, req.NewTrainerID, changeDate, &reassigned))
	}

	warnings, err := s.runSaga(ctx, "change_trainer", steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("membership trainer changed",
		"membership_id", m.ID,
		"from_trainer_id", outgoing,
		"to_trainer_id", req.NewTrainerID,
		"remaining_value", remainingValue.String(),
		"reassigned_sessions", len(reassigned),
	)

	events := []types.LifecycleEvent{membershipEvent(ctx, types.EventMembershipTrainer, updated, map[string]any{
		"from_trainer_id": outgoing,
		"to_trainer_id":   req.NewTrainerID,
		"remaining_value": remainingValue.String(),
		"reason":          req.Reason,
	})}
	for _, e := range earnings {
		events = append(events, earningEvent(ctx, e))
	}
	ids := make([]string, 0, len(reassigned))
	for _, sess := range reassigned {
		ids = append(ids, sess.ID)
		events = append(events, types.NewLifecycleEvent(ctx, types.EventSessionReassigned, m.ID, m.MemberID, map[string]any{
			"session_id":      sess.ID,
			"from_trainer_id": outgoing,
			"to_trainer_id":   req.NewTrainerID,
		}))
	}

	return &dto.TrainerChangeResponse{
		Membership:         dto.NewMembershipResponse(updated),
		PreviousRule:       previous,
		NewRule:            newRule,
		RemainingValue:     remainingValue,
		Earnings:           earnings,
		ReassignedSessions: ids,
		Events:             events,
		Warnings:           warnings,
	}, nil
}

func (s *lifecycleService) transferEarning(m *membership.Membership, trainerID string, rule *commission.Rule, amount decimal.Decimal, earningType types.EarningType, date time.Time, base types.BaseModel) *commission.Earning {
	e := &commission.Earning{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRAINER_EARNING),
		TrainerID:        trainerID,
		MemberID:         m.MemberID,
		MembershipID:     m.ID,
		EarningType:      earningType,
		BaseAmount:       m.OriginalAmount,
		CommissionAmount: amount,
		TotalEarning:     amount,
		EarningDate:      date,
		Description:      string(earningType) + " on trainer change",
		BaseModel:        base,
	}
	if rule != nil {
		e.RuleID = lo.ToPtr(rule.ID)
	}
	return e
}

// reassignSessionsStep moves the membership's open sessions from one trainer
// to another, at most ReassignConcurrency at a time. A failed batch puts back
// the sessions it already moved before failing.
func (s *lifecycleService) reassignSessionsStep(membershipID, from, to string, since time.Time, out *[]*session.Session) saga.Step {
	move := func(ctx context.Context, sessions []*session.Session, trainerID string) ([]*session.Session, error) {
		var mu sync.Mutex
		moved := make([]*session.Session, 0, len(sessions))
		p := pool.New().
			WithMaxGoroutines(s.Config.Engine.ReassignConcurrency).
			WithErrors().
			WithContext(ctx)
		for _, sess := range sessions {
			sess := sess // per-iteration copy (go1.21 loop semantics)
			p.Go(func(ctx context.Context) error {
				updated, err := s.SessionRepo.Update(ctx, sess.ID, session.Patch{TrainerID: lo.ToPtr(trainerID)})
				if err != nil {
					return err
				}
				mu.Lock()
				moved = append(moved, updated)
				mu.Unlock()
				return nil
			})
		}
		return moved, p.Wait()
	}

	return saga.Step{
		Name: "reassign_sessions",
		Do: func(ctx context.Context) error {
			sessions, err := retryRead(ctx, func(ctx context.Context) ([]*session.Session, error) {
				return s.SessionRepo.ListReassignable(ctx, membershipID, from, since)
			})
			if err != nil {
				return err
			}
			moved, err := move(ctx, sessions, to)
			if err != nil {
				if _, undoErr := move(context.WithoutCancel(ctx), moved, from); undoErr != nil {
					s.Logger.Errorw("failed to put back reassigned sessions",
						"membership_id", membershipID,
						"error", undoErr,
					)
				}
				return err
			}
			*out = moved
			return nil
		},
		Undo: func(ctx context.Context) error {
			_, err := move(ctx, *out, from)
			return err
		},
	}
}
