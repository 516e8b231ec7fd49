package service

import (
	"testing"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/membership"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/stretchr/testify/suite"
)

type SessionServiceSuite struct {
	serviceSuite
	service SessionService
	m       *membership.Membership
}

func TestSessionService(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewSessionService(s.params)
	s.m = s.createMembership(membershipFixture{
		member:  s.createMember("Ana"),
		pkg:     s.createPackage("PT 20", "10000", 90, 20),
		start:   date(2025, 1, 1),
		trainer: "trn_alice",
	})
}

func (s *SessionServiceSuite) book(start, end string) (*dto.SessionResponse, error) {
	return s.service.Schedule(s.GetContext(), dto.ScheduleSessionRequest{
		MembershipID: s.m.ID,
		SessionDate:  date(2025, 2, 3),
		StartTime:    types.MustTimeOfDay(start),
		EndTime:      types.MustTimeOfDay(end),
	})
}

func (s *SessionServiceSuite) TestSchedule_UsesSession() {
	resp, err := s.book("09:00", "10:00")
	s.Require().NoError(err)
	s.Equal("trn_alice", resp.Session.TrainerID)
	s.Equal(types.SessionStatusScheduled, resp.Session.SessionStatus)
	s.Equal([]string{types.EventSessionScheduled}, eventNames(resp.Events))

	m := s.reload(s.m.ID)
	s.Equal(19, m.PTSessionsRemaining)
	s.Equal(1, m.PTSessionsUsed)
}

func (s *SessionServiceSuite) TestSchedule_Conflict() {
	_, err := s.book("09:00", "10:00")
	s.Require().NoError(err)

	_, err = s.book("09:30", "10:30")
	s.True(ierr.IsConflict(err))

	// back to back is fine
	_, err = s.book("10:00", "11:00")
	s.NoError(err)
	s.Equal(2, s.reload(s.m.ID).PTSessionsUsed)
}

func (s *SessionServiceSuite) TestSchedule_EndBeforeStart() {
	_, err := s.book("10:00", "09:00")
	s.True(ierr.IsValidation(err))
}

func (s *SessionServiceSuite) TestSchedule_NoSessionsLeft() {
	m := s.createMembership(membershipFixture{
		member:  s.createMember("Ben"),
		pkg:     s.createPackage("PT 2", "2000", 30, 2),
		start:   date(2025, 1, 1),
		trainer: "trn_alice",
		used:    2,
	})
	_, err := s.service.Schedule(s.GetContext(), dto.ScheduleSessionRequest{
		MembershipID: m.ID,
		SessionDate:  date(2025, 1, 10),
		StartTime:    types.MustTimeOfDay("07:00"),
		EndTime:      types.MustTimeOfDay("08:00"),
	})
	s.True(ierr.IsValidation(err))
}

func (s *SessionServiceSuite) TestSchedule_FrozenMembership() {
	m := s.createMembership(membershipFixture{
		member:  s.createMember("Ben"),
		pkg:     s.createPackage("PT 2", "2000", 30, 2),
		start:   date(2025, 1, 1),
		trainer: "trn_alice",
		status:  types.MembershipStatusFrozen,
	})
	_, err := s.service.Schedule(s.GetContext(), dto.ScheduleSessionRequest{
		MembershipID: m.ID,
		SessionDate:  date(2025, 1, 10),
		StartTime:    types.MustTimeOfDay("07:00"),
		EndTime:      types.MustTimeOfDay("08:00"),
	})
	s.True(ierr.IsInvalidTransition(err))
}

func (s *SessionServiceSuite) TestSchedule_RolledBackWhenCreateFails() {
	s.GetFaults().FailAlways("session.Create", ierr.NewError("db down").Mark(ierr.ErrDatabase))

	_, err := s.book("09:00", "10:00")
	s.Error(err)
	s.False(ierr.IsPartiallyApplied(err))

	m := s.reload(s.m.ID)
	s.Equal(20, m.PTSessionsRemaining)
	s.Equal(0, m.PTSessionsUsed)
}

func (s *SessionServiceSuite) TestComplete_LogsEarning() {
	s.createRule(s.m, types.CommissionTypePercentage, "10")
	booked, err := s.book("09:00", "10:00")
	s.Require().NoError(err)

	resp, err := s.service.Complete(s.GetContext(), booked.Session.ID, dto.CompleteSessionRequest{Notes: "legs"})
	s.Require().NoError(err)
	s.Equal(types.SessionStatusCompleted, resp.Session.SessionStatus)
	s.Require().NotNil(resp.Earning)
	// 10% of 10000 over 20 sessions
	s.assertDecimal("50", resp.Earning.TotalEarning)
	s.Equal(types.EarningTypeSessionCommission, resp.Earning.EarningType)
	s.Equal([]string{types.EventSessionCompleted, types.EventTrainerEarningLogged}, eventNames(resp.Events))

	_, err = s.service.Complete(s.GetContext(), booked.Session.ID, dto.CompleteSessionRequest{})
	s.True(ierr.IsInvalidTransition(err))
}

func (s *SessionServiceSuite) TestComplete_WithoutRule() {
	booked, err := s.book("09:00", "10:00")
	s.Require().NoError(err)

	resp, err := s.service.Complete(s.GetContext(), booked.Session.ID, dto.CompleteSessionRequest{})
	s.Require().NoError(err)
	s.Nil(resp.Earning)
	s.Empty(resp.Warnings)
}

func (s *SessionServiceSuite) TestComplete_EarningFailureIsWarning() {
	s.createRule(s.m, types.CommissionTypePercentage, "10")
	booked, err := s.book("09:00", "10:00")
	s.Require().NoError(err)
	s.GetFaults().FailAlways("commission.CreateEarning", ierr.NewError("db down").Mark(ierr.ErrDatabase))

	resp, err := s.service.Complete(s.GetContext(), booked.Session.ID, dto.CompleteSessionRequest{})
	s.Require().NoError(err)
	s.Equal(types.SessionStatusCompleted, resp.Session.SessionStatus)
	s.Nil(resp.Earning)
	s.Require().Len(resp.Warnings, 1)
	s.Contains(resp.Warnings[0], "log_session_earning")
}

func (s *SessionServiceSuite) TestCancel_ReturnsSession() {
	booked, err := s.book("09:00", "10:00")
	s.Require().NoError(err)

	resp, err := s.service.Cancel(s.GetContext(), booked.Session.ID, dto.CancelSessionRequest{Reason: "sick"})
	s.Require().NoError(err)
	s.Equal(types.SessionStatusCancelled, resp.Session.SessionStatus)
	s.Equal(20, resp.Membership.PTSessionsRemaining)
	s.Equal(0, resp.Membership.PTSessionsUsed)

	// the slot is free again
	_, err = s.book("09:00", "10:00")
	s.NoError(err)
}

func (s *SessionServiceSuite) TestCancel_NoShowKeepsSessionUsed() {
	booked, err := s.book("09:00", "10:00")
	s.Require().NoError(err)

	resp, err := s.service.Cancel(s.GetContext(), booked.Session.ID, dto.CancelSessionRequest{
		Reason: "did not turn up",
		NoShow: true,
	})
	s.Require().NoError(err)
	s.Equal(types.SessionStatusNoShow, resp.Session.SessionStatus)
	s.Equal(19, resp.Membership.PTSessionsRemaining)
	s.Equal(1, resp.Membership.PTSessionsUsed)
}

func (s *SessionServiceSuite) TestConflictsAndList() {
	_, err := s.book("09:00", "10:00")
	s.Require().NoError(err)

	clashes, err := s.service.Conflicts(s.GetContext(), dto.SessionConflictsRequest{
		TrainerID:   "trn_alice",
		SessionDate: date(2025, 2, 3),
		StartTime:   "09:45",
		EndTime:     "10:15",
	})
	s.Require().NoError(err)
	s.Len(clashes.Items, 1)

	clashes, err = s.service.Conflicts(s.GetContext(), dto.SessionConflictsRequest{
		TrainerID:   "trn_bob",
		SessionDate: date(2025, 2, 3),
		StartTime:   "09:45",
		EndTime:     "10:15",
	})
	s.Require().NoError(err)
	s.Empty(clashes.Items)

	list, err := s.service.ListByMembership(s.GetContext(), s.m.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
}
