package service

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/proration"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/idempotency"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Upgrade closes the membership as upgraded and opens a successor on the
// target package
func (s *lifecycleService) Upgrade(ctx context.Context, id string, req dto.ChangePackageRequest) (*dto.LifecycleResponse, error) {
	return s.changePackage(ctx, id, req, types.ProrationDirectionUpgrade)
}

// Downgrade closes the membership as downgraded and opens a successor on the
// target package. Value returned to the member goes to their credit balance.
func (s *lifecycleService) Downgrade(ctx context.Context, id string, req dto.ChangePackageRequest) (*dto.LifecycleResponse, error) {
	return s.changePackage(ctx, id, req, types.ProrationDirectionDowngrade)
}

func (s *lifecycleService) changePackage(ctx context.Context, id string, req dto.ChangePackageRequest, direction types.ProrationDirection) (*dto.LifecycleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	action, changeType, eventName := types.MembershipActionUpgrade, types.MembershipActionUpgrade, types.EventMembershipUpgraded
	if direction == types.ProrationDirectionDowngrade {
		action, changeType, eventName = types.MembershipActionDowngrade, types.MembershipActionDowngrade, types.EventMembershipDowngraded
	}

	source, err := s.loadMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	closedStatus, err := membership.NextStatus(source.MembershipStatus, action)
	if err != nil {
		return nil, err
	}

	target, err := s.loadPackage(ctx, req.TargetPackageID)
	if err != nil {
		return nil, err
	}
	if target.ID == source.PackageID {
		return nil, ierr.NewError("target package is the current package").
			WithHintf("Membership is already on package %s", target.Name).
			Mark(ierr.ErrValidation)
	}

	effective := dateOrToday(req.EffectiveDate)
	policy := lo.Ternary(req.Policy != "", req.Policy, s.Config.Engine.DefaultProrationPolicy)

	params := proration.Params{
		Source: proration.SourceMembership{
			AmountPaid:     source.AmountPaid,
			TotalAmountDue: source.TotalAmountDue,
			AmountPending:  source.AmountPending,
			StartDate:      source.StartDate,
			EndDate:        source.EndDate,
		},
		Target: proration.TargetPackage{
			Price:        target.Price,
			DurationDays: target.DurationDays,
		},
		EffectiveDate:         effective,
		Policy:                policy,
		Direction:             direction,
		IgnorePreviousPending: req.IgnorePreviousPending,
	}
	if req.CustomAmount != nil {
		params.CustomAmount = *req.CustomAmount
	}

	result, err := s.ProrationCalc.Calculate(params)
	if err != nil {
		return nil, err
	}

	base := types.GetDefaultBaseModel(ctx)
	successor := &membership.Membership{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP),
		MemberID:             source.MemberID,
		PackageID:            target.ID,
		OriginalMembershipID: lo.ToPtr(source.ID),
		TrainerID:            source.TrainerID,
		StartDate:            effective,
		EndDate:              result.NewEndDate,
		MembershipStatus:     types.MembershipStatusActive,
		OriginalAmount:       target.Price,
		TotalAmountDue:       result.AmountDue,
		AmountPaid:           decimal.Zero,
		AmountPending:        result.AmountDue,
		PTSessionsRemaining:  target.PTSessions,
		BaseModel:            base,
	}
	if err := successor.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Membership cannot be %sd on %s, no days are left", action, effective.Format("2006-01-02")).
			Mark(ierr.ErrValidation)
	}

	change := membership.NewChange(source, changeType, effective, req.Reason, base)
	change.ToMembershipID = lo.ToPtr(successor.ID)
	change.AmountDifference = result.Delta
	change.RemainingDays = result.RemainingDays
	change.ProratedAmount = result.RemainingValue

	var closed *membership.Membership
	var refund *credit.Transaction
	steps := []saga.Step{
		s.updateStep("close_source", source, membership.Patch{
			Status:        lo.ToPtr(closedStatus),
			StatusReason:  lo.ToPtr(req.Reason),
			ActualEndDate: lo.ToPtr(effective),
		}, &closed),
		s.createMembershipStep("create_successor", successor),
	}

	if result.Refund.IsPositive() {
		t := &credit.Transaction{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_TRANSACTION),
			MemberID:      source.MemberID,
			Amount:        result.Refund,
			Reason:        types.CreditReasonDowngradeRefund,
			ReferenceType: types.CreditReferenceMembership,
			ReferenceID:   source.ID,
			Description:   surplusDescription(action, source, result.Refund),
			IdempotencyKey: s.Idempotency.GenerateKey(idempotency.ScopeDowngradeRefund, map[string]interface{}{
				"membership_id": source.ID,
				"successor_id":  successor.ID,
			}),
			BaseModel: base,
		}
		steps = append(steps, s.creditStep("issue_refund", t, &refund))
	}

	steps = append(steps, s.changeStep(change))

	var newRule *commission.Rule
	if source.TrainerID != nil && target.HasPTSessions() {
		steps = append(steps, s.moveCommissionSteps(source, successor, effective, &newRule)...)
	}

	warnings, err := s.runSaga(ctx, string(action), steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("membership package changed",
		"action", action,
		"membership_id", source.ID,
		"successor_id", successor.ID,
		"policy", policy,
		"delta", result.Delta.String(),
		"refund", result.Refund.String(),
	)

	payload := amountsPayload(successor)
	payload["successor_id"] = successor.ID
	payload["target_package_id"] = target.ID
	payload["delta"] = result.Delta.String()
	events := []types.LifecycleEvent{membershipEvent(ctx, eventName, source, payload)}
	if refund != nil {
		events = append(events, creditEvent(ctx, refund, source.ID))
	}

	return &dto.LifecycleResponse{
		Source:         dto.NewMembershipResponse(closed),
		Successor:      dto.NewMembershipResponse(successor),
		Change:         change,
		Proration:      result,
		Credit:         refund,
		CommissionRule: newRule,
		Events:         events,
		Warnings:       warnings,
	}, nil
}

// moveCommissionSteps closes the trainer's rule on the source and opens the
// same rule on the successor. Both steps are non fatal. Without a rule to
// carry over the configured default is used.
func (s ServiceParams) moveCommissionSteps(source, successor *membership.Membership, from time.Time, out **commission.Rule) []saga.Step {
	var previous *commission.Rule
	return []saga.Step{
		s.closeRuleStep(source, from, &previous),
		s.openRuleStep(successor, from, &previous, out),
	}
}

// closeRuleStep ends the active rule of m's trainer, if any, and stores it in prev
func (s ServiceParams) closeRuleStep(m *membership.Membership, until time.Time, prev **commission.Rule) saga.Step {
	return saga.Step{
		Name:     "deactivate_commission_rule",
		NonFatal: true,
		Do: func(ctx context.Context) error {
			rule, err := s.activeRule(ctx, m)
			if err != nil || rule == nil {
				return err
			}
			if err := s.CommissionRepo.DeactivateRule(ctx, rule.ID, until); err != nil {
				return err
			}
			*prev = rule
			return nil
		},
		Undo: func(ctx context.Context) error {
			if *prev == nil {
				return nil
			}
			return s.CommissionRepo.ReactivateRule(ctx, (*prev).ID)
		},
	}
}

// openRuleStep creates the successor's rule from *prev, or from the defaults
func (s ServiceParams) openRuleStep(successor *membership.Membership, from time.Time, prev, out **commission.Rule) saga.Step {
	return saga.Step{
		Name:     "create_commission_rule",
		NonFatal: true,
		Do: func(ctx context.Context) error {
			trainerID := successor.TrainerIDValue()
			rule := s.defaultRule(ctx, trainerID, successor.ID, successor.PackageID, successor.MemberID, from)
			if *prev != nil {
				rule = (*prev).CopyFor(trainerID, successor.ID, successor.PackageID, from, types.GetDefaultBaseModel(ctx))
			}
			if err := rule.Validate(); err != nil {
				return err
			}
			if err := s.CommissionRepo.CreateRule(ctx, rule); err != nil {
				return err
			}
			*out = rule
			return nil
		},
		Undo: func(ctx context.Context) error {
			if *out == nil {
				return nil
			}
			return s.CommissionRepo.DeactivateRule(ctx, (*out).ID, from)
		},
	}
}
