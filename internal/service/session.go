package service

import (
	"context"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/session"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
)

type SessionService interface {
	Schedule(ctx context.Context, req dto.ScheduleSessionRequest) (*dto.SessionResponse, error)
	Complete(ctx context.Context, id string, req dto.CompleteSessionRequest) (*dto.SessionResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	ListByMembership(ctx context.Context, membershipID string) (*dto.ListSessionsResponse, error)
	Conflicts(ctx context.Context, req dto.SessionConflictsRequest) (*dto.ListSessionsResponse, error)
}

type sessionService struct {
	ServiceParams
}

func NewSessionService(params ServiceParams) SessionService {
	return &sessionService{
		ServiceParams: params,
	}
}

// Schedule books a session and takes it off the membership's remaining count.
// The store rejects a slot that overlaps another session of the trainer even
// when the pre check passed.
func (s *sessionService) Schedule(ctx context.Context, req dto.ScheduleSessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.loadMembership(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}
	if m.MembershipStatus != types.MembershipStatusActive && m.MembershipStatus != types.MembershipStatusTrial {
		return nil, ierr.NewErrorf("cannot book a session on a membership that is %s", m.MembershipStatus).
			WithHint("Sessions can only be booked on an active membership").
			Mark(ierr.ErrInvalidTransition)
	}
	if m.PTSessionsRemaining <= 0 {
		return nil, ierr.NewError("no sessions remaining").
			WithHint("No personal training sessions left on this membership").
			WithReportableDetails(map[string]any{
				"membership_id":    m.ID,
				"pt_sessions_used": m.PTSessionsUsed,
			}).
			Mark(ierr.ErrValidation)
	}

	trainerID := lo.Ternary(req.TrainerID != "", req.TrainerID, m.TrainerIDValue())
	if trainerID == "" {
		return nil, ierr.NewError("session has no trainer").
			WithHint("Assign a trainer to the membership or pick one for the session").
			Mark(ierr.ErrValidation)
	}

	date := types.Date(req.SessionDate)
	clashes, err := retryRead(ctx, func(ctx context.Context) ([]*session.Session, error) {
		return s.SessionRepo.FindConflicting(ctx, trainerID, date, req.StartTime, req.EndTime)
	})
	if err != nil {
		return nil, err
	}
	if len(clashes) > 0 {
		return nil, ierr.NewError("trainer is already booked").
			WithHintf("Trainer is booked from %s to %s on that day", clashes[0].StartTime, clashes[0].EndTime).
			WithReportableDetails(map[string]any{
				"trainer_id":   trainerID,
				"session_id":   clashes[0].ID,
				"session_date": date,
			}).
			Mark(ierr.ErrConflict)
	}

	sess := &session.Session{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SESSION),
		MembershipID:  m.ID,
		MemberID:      m.MemberID,
		TrainerID:     trainerID,
		SessionDate:   date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		SessionStatus: types.SessionStatusScheduled,
		Notes:         req.Notes,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	var updated *membership.Membership
	steps := []saga.Step{
		s.sessionCounterStep("use_session", m.ID, -1, 1, &updated),
		{
			Name: "create_session",
			Do: func(ctx context.Context) error {
				return s.SessionRepo.Create(ctx, sess)
			},
			Undo: func(ctx context.Context) error {
				_, err := s.SessionRepo.Update(ctx, sess.ID, session.Patch{
					Status: lo.ToPtr(types.SessionStatusCancelled),
					Notes:  lo.ToPtr(rollbackReason),
				})
				return err
			},
		},
	}
	warnings, err := s.runSaga(ctx, "schedule_session", steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("session scheduled",
		"session_id", sess.ID,
		"membership_id", m.ID,
		"trainer_id", trainerID,
		"session_date", date,
		"start_time", sess.StartTime.String(),
	)

	return &dto.SessionResponse{
		Session:    sess,
		Membership: dto.NewMembershipResponse(updated),
		Events:     []types.LifecycleEvent{sessionEvent(ctx, types.EventSessionScheduled, sess)},
		Warnings:   warnings,
	}, nil
}

// Complete marks the session held and logs the trainer's per session earning.
// A missing rule or a failed earning write does not fail the completion.
func (s *sessionService) Complete(ctx context.Context, id string, req dto.CompleteSessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.loadScheduled(ctx, id, "completed")
	if err != nil {
		return nil, err
	}
	m, err := s.loadMembership(ctx, sess.MembershipID)
	if err != nil {
		return nil, err
	}

	patch := session.Patch{Status: lo.ToPtr(types.SessionStatusCompleted)}
	if req.Notes != "" {
		patch.Notes = lo.ToPtr(req.Notes)
	}

	var completed *session.Session
	var earning *commission.Earning
	steps := []saga.Step{
		s.sessionUpdateStep("complete_session", sess, patch, &completed),
		{
			Name:     "log_session_earning",
			NonFatal: true,
			Do: func(ctx context.Context) error {
				e, err := s.sessionEarning(ctx, sess, m)
				if err != nil || e == nil {
					return err
				}
				if err := s.CommissionRepo.CreateEarning(ctx, e); err != nil {
					return err
				}
				earning = e
				return nil
			},
		},
	}
	warnings, err := s.runSaga(ctx, "complete_session", steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("session completed",
		"session_id", sess.ID,
		"membership_id", m.ID,
		"trainer_id", sess.TrainerID,
		"earning_logged", earning != nil,
	)

	events := []types.LifecycleEvent{sessionEvent(ctx, types.EventSessionCompleted, completed)}
	if earning != nil {
		events = append(events, earningEvent(ctx, earning))
	}
	return &dto.SessionResponse{
		Session:    completed,
		Membership: dto.NewMembershipResponse(m),
		Earning:    earning,
		Events:     events,
		Warnings:   warnings,
	}, nil
}

// Cancel calls a session off. The session goes back to the membership unless
// the member did not show up.
func (s *sessionService) Cancel(ctx context.Context, id string, req dto.CancelSessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.loadScheduled(ctx, id, "cancelled")
	if err != nil {
		return nil, err
	}

	status := lo.Ternary(req.NoShow, types.SessionStatusNoShow, types.SessionStatusCancelled)
	var cancelled *session.Session
	var updated *membership.Membership
	steps := []saga.Step{
		s.sessionUpdateStep("cancel_session", sess, session.Patch{
			Status: lo.ToPtr(status),
			Notes:  lo.ToPtr(req.Reason),
		}, &cancelled),
	}
	if !req.NoShow {
		steps = append(steps, s.sessionCounterStep("return_session", sess.MembershipID, 1, -1, &updated))
	}
	warnings, err := s.runSaga(ctx, "cancel_session", steps)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		if updated, err = s.loadMembership(ctx, sess.MembershipID); err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("session cancelled",
		"session_id", sess.ID,
		"membership_id", sess.MembershipID,
		"status", status,
	)

	return &dto.SessionResponse{
		Session:    cancelled,
		Membership: dto.NewMembershipResponse(updated),
		Events:     []types.LifecycleEvent{sessionEvent(ctx, types.EventSessionCancelled, cancelled)},
		Warnings:   warnings,
	}, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*session.Session, error) {
	return retryRead(ctx, func(ctx context.Context) (*session.Session, error) {
		return s.SessionRepo.Get(ctx, id)
	})
}

func (s *sessionService) ListByMembership(ctx context.Context, membershipID string) (*dto.ListSessionsResponse, error) {
	if _, err := s.loadMembership(ctx, membershipID); err != nil {
		return nil, err
	}
	items, err := retryRead(ctx, func(ctx context.Context) ([]*session.Session, error) {
		return s.SessionRepo.ListByMembership(ctx, membershipID)
	})
	if err != nil {
		return nil, err
	}
	return &dto.ListSessionsResponse{Items: items}, nil
}

// Conflicts lists the trainer's sessions that overlap the slot
func (s *sessionService) Conflicts(ctx context.Context, req dto.SessionConflictsRequest) (*dto.ListSessionsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start, err := types.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := types.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, ierr.NewError("slot ends before it starts").
			WithHintf("End time %s must be after start time %s", end, start).
			Mark(ierr.ErrValidation)
	}
	items, err := retryRead(ctx, func(ctx context.Context) ([]*session.Session, error) {
		return s.SessionRepo.FindConflicting(ctx, req.TrainerID, types.Date(req.SessionDate), start, end)
	})
	if err != nil {
		return nil, err
	}
	return &dto.ListSessionsResponse{Items: items}, nil
}

func (s *sessionService) loadScheduled(ctx context.Context, id, verb string) (*session.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.SessionStatus != types.SessionStatusScheduled {
		return nil, ierr.NewErrorf("session is %s", sess.SessionStatus).
			WithHintf("Only a scheduled session can be %s", verb).
			WithReportableDetails(map[string]any{
				"session_id": sess.ID,
				"status":     sess.SessionStatus,
			}).
			Mark(ierr.ErrInvalidTransition)
	}
	return sess, nil
}

// sessionEarning prices one held session from the trainer's active rule. It
// returns nil when the trainer has no rule for the membership.
func (s *sessionService) sessionEarning(ctx context.Context, sess *session.Session, m *membership.Membership) (*commission.Earning, error) {
	rule, err := retryRead(ctx, func(ctx context.Context) (*commission.Rule, error) {
		return s.CommissionRepo.GetActiveRule(ctx, sess.TrainerID, m.PackageID, m.MemberID)
	})
	if ierr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	result, err := s.CommissionCalc.Calculate(commission.InputFromRule(rule, m.OriginalAmount, m.PTSessionsRemaining, m.PTSessionsUsed))
	if err != nil {
		return nil, err
	}
	return &commission.Earning{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRAINER_EARNING),
		TrainerID:        sess.TrainerID,
		MemberID:         m.MemberID,
		MembershipID:     m.ID,
		SessionID:        lo.ToPtr(sess.ID),
		RuleID:           lo.ToPtr(rule.ID),
		EarningType:      types.EarningTypeSessionCommission,
		BaseAmount:       m.OriginalAmount,
		CommissionRate:   result.Rate,
		CommissionAmount: result.PerSession,
		TotalEarning:     result.PerSession,
		EarningDate:      types.Date(sess.SessionDate),
		Description:      "session " + sess.ID,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}, nil
}

func (s ServiceParams) sessionUpdateStep(name string, prev *session.Session, patch session.Patch, out **session.Session) saga.Step {
	return saga.Step{
		Name: name,
		Do: func(ctx context.Context) error {
			updated, err := s.SessionRepo.Update(ctx, prev.ID, patch)
			if err != nil {
				return err
			}
			*out = updated
			return nil
		},
		Undo: func(ctx context.Context) error {
			_, err := s.SessionRepo.Update(ctx, prev.ID, session.Patch{
				Status:    lo.ToPtr(prev.SessionStatus),
				TrainerID: lo.ToPtr(prev.TrainerID),
				Notes:     lo.ToPtr(prev.Notes),
			})
			return err
		},
	}
}

func sessionEvent(ctx context.Context, name string, sess *session.Session) types.LifecycleEvent {
	return types.NewLifecycleEvent(ctx, name, sess.MembershipID, sess.MemberID, map[string]any{
		"session_id":   sess.ID,
		"trainer_id":   sess.TrainerID,
		"session_date": sess.SessionDate,
		"start_time":   sess.StartTime.String(),
		"end_time":     sess.EndTime.String(),
		"status":       sess.SessionStatus,
	})
}
