package service

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/membership"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
)

// Freeze pauses the membership for DurationDays and pushes its end date out by
// the same amount. The extension stays when the membership is unfrozen early.
func (s *lifecycleService) Freeze(ctx context.Context, id string, req dto.FreezeMembershipRequest) (*dto.LifecycleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.DurationDays > s.Config.Engine.MaxFreezeDays {
		return nil, ierr.NewErrorf("freeze of %d days exceeds the limit", req.DurationDays).
			WithHintf("A membership can be frozen for at most %d days", s.Config.Engine.MaxFreezeDays).
			WithReportableDetails(map[string]any{
				"duration_days":   req.DurationDays,
				"max_freeze_days": s.Config.Engine.MaxFreezeDays,
			}).
			Mark(ierr.ErrValidation)
	}

	m, err := s.loadMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := membership.NextStatus(m.MembershipStatus, types.MembershipActionFreeze)
	if err != nil {
		return nil, err
	}

	start := dateOrToday(req.StartDate)
	end := types.AddDays(start, req.DurationDays)

	hold, err := s.holdMemberStatus(ctx, m, types.MemberStatusFrozen)
	if err != nil {
		return nil, err
	}

	change := membership.NewChange(m, types.MembershipActionFreeze, start, req.Reason, types.GetDefaultBaseModel(ctx))
	change.RemainingDays = m.RemainingDays(start)

	var frozen *membership.Membership
	steps := []saga.Step{
		s.updateStep("freeze_membership", m, membership.Patch{
			Status:          lo.ToPtr(status),
			StatusReason:    lo.ToPtr(req.Reason),
			FreezeStartDate: lo.ToPtr(start),
			FreezeEndDate:   lo.ToPtr(end),
			FreezeReason:    lo.ToPtr(req.Reason),
		}, nil),
		{
			Name: "extend_end_date",
			Do: func(ctx context.Context) error {
				var err error
				frozen, err = s.MembershipRepo.AdjustFreeze(ctx, m.ID, req.DurationDays)
				return err
			},
			Undo: func(ctx context.Context) error {
				_, err := s.MembershipRepo.AdjustFreeze(ctx, m.ID, -req.DurationDays)
				return err
			},
		},
	}
	if hold != nil {
		steps = append(steps, *hold)
	}
	steps = append(steps, s.changeStep(change))

	warnings, err := s.runSaga(ctx, string(types.MembershipActionFreeze), steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("membership frozen",
		"membership_id", m.ID,
		"freeze_start_date", start,
		"freeze_end_date", end,
		"end_date", frozen.EndDate,
	)

	return &dto.LifecycleResponse{
		Source: dto.NewMembershipResponse(frozen),
		Change: change,
		Events: []types.LifecycleEvent{membershipEvent(ctx, types.EventMembershipFrozen, frozen, map[string]any{
			"duration_days":     req.DurationDays,
			"freeze_start_date": start,
			"freeze_end_date":   end,
			"end_date":          frozen.EndDate,
		})},
		Warnings: warnings,
	}, nil
}

func (s *lifecycleService) Unfreeze(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error) {
	return s.changeStatus(ctx, id, req, types.MembershipActionUnfreeze, types.EventMembershipUnfrozen)
}

func (s *lifecycleService) Suspend(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error) {
	return s.changeStatus(ctx, id, req, types.MembershipActionSuspend, types.EventMembershipSuspended)
}

func (s *lifecycleService) Reactivate(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error) {
	return s.changeStatus(ctx, id, req, types.MembershipActionReactivate, types.EventMembershipReactivated)
}

// Cancel ends the membership for good and closes the trainer's commission rule
func (s *lifecycleService) Cancel(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error) {
	return s.changeStatus(ctx, id, req, types.MembershipActionCancel, types.EventMembershipCancelled)
}

func (s *lifecycleService) Expire(ctx context.Context, id string, req dto.StatusChangeRequest) (*dto.LifecycleResponse, error) {
	return s.changeStatus(ctx, id, req, types.MembershipActionExpire, types.EventMembershipExpired)
}

// changeStatus runs a transition that only moves the status, plus the member
// status and commission bookkeeping that comes with it
func (s *lifecycleService) changeStatus(ctx context.Context, id string, req dto.StatusChangeRequest, action types.MembershipAction, eventName string) (*dto.LifecycleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.loadMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := membership.NextStatus(m.MembershipStatus, action)
	if err != nil {
		return nil, err
	}

	effective := dateOrToday(req.EffectiveDate)
	patch := membership.Patch{
		Status:       lo.ToPtr(status),
		StatusReason: lo.ToPtr(req.Reason),
	}

	var memberStep *saga.Step
	switch action {
	case types.MembershipActionSuspend:
		memberStep, err = s.holdMemberStatus(ctx, m, types.MemberStatusSuspended)
	case types.MembershipActionUnfreeze, types.MembershipActionReactivate:
		if m.MembershipStatus == types.MembershipStatusFrozen {
			patch.FreezeReason = lo.ToPtr("")
		}
		memberStep, err = s.restoreMemberStatus(ctx, m)
	case types.MembershipActionCancel, types.MembershipActionExpire:
		patch.ActualEndDate = lo.ToPtr(closingDate(m, effective))
		memberStep, err = s.restoreMemberStatus(ctx, m)
	}
	if err != nil {
		return nil, err
	}

	change := membership.NewChange(m, action, effective, req.Reason, types.GetDefaultBaseModel(ctx))
	change.RemainingDays = m.RemainingDays(effective)

	var updated *membership.Membership
	steps := []saga.Step{s.updateStep(string(action)+"_membership", m, patch, &updated)}
	if memberStep != nil {
		steps = append(steps, *memberStep)
	}
	steps = append(steps, s.changeStep(change))

	var closedRule *commission.Rule
	if action == types.MembershipActionCancel && m.TrainerID != nil {
		steps = append(steps, s.closeRuleStep(m, effective, &closedRule))
	}

	warnings, err := s.runSaga(ctx, string(action), steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("membership status changed",
		"action", action,
		"membership_id", m.ID,
		"from_status", m.MembershipStatus,
		"to_status", status,
	)

	payload := map[string]any{
		"from_status": m.MembershipStatus,
		"to_status":   status,
		"reason":      req.Reason,
	}
	if closedRule != nil {
		payload["deactivated_commission_rule_id"] = closedRule.ID
	}

	return &dto.LifecycleResponse{
		Source:   dto.NewMembershipResponse(updated),
		Change:   change,
		Events:   []types.LifecycleEvent{membershipEvent(ctx, eventName, updated, payload)},
		Warnings: warnings,
	}, nil
}

// closingDate is the actual end date written when a membership closes. An
// elapsed membership closes on its end date.
func closingDate(m *membership.Membership, effective time.Time) time.Time {
	if effective.After(m.EndDate) {
		return m.EndDate
	}
	return effective
}
