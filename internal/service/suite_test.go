package service

import (
	"time"

	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/domain/session"
	"github.com/flexprice/flexgym/internal/testutil"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// serviceSuite wires ServiceParams over the in-memory stores and adds the
// fixtures shared by the service suites
type serviceSuite struct {
	testutil.BaseServiceTestSuite
	params ServiceParams
}

func (s *serviceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.params = NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		stores.MemberRepo,
		stores.PackageRepo,
		stores.MembershipRepo,
		stores.ChangeRepo,
		stores.CommissionRepo,
		stores.PaymentRepo,
		stores.CreditRepo,
		stores.InstallmentRepo,
		stores.SessionRepo,
		s.GetSagaRunner(),
	)
}

func date(year int, month time.Month, day int) time.Time {
	return types.NewDate(year, month, day)
}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *serviceSuite) createMember(first string) *member.Member {
	m := member.FromProfile(&member.Profile{
		FirstName: first,
		LastName:  "Test",
		Phone:     "+15550100",
	}, types.GetDefaultBaseModel(s.GetContext()))
	_, err := s.GetStores().MemberRepo.CreateIdentity(s.GetContext(), m)
	s.Require().NoError(err)
	return m
}

func (s *serviceSuite) createPackage(name, price string, days, sessions int) *pkg.Package {
	p := &pkg.Package{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE),
		Name:         name,
		Price:        amount(price),
		DurationDays: days,
		PTSessions:   sessions,
		IsActive:     true,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().PackageRepo.Create(s.GetContext(), p))
	return p
}

type membershipFixture struct {
	member  *member.Member
	pkg     *pkg.Package
	start   time.Time
	paid    string
	status  types.MembershipStatus
	trainer string
	used    int
}

// createMembership stores a membership directly, bypassing Purchase
func (s *serviceSuite) createMembership(f membershipFixture) *membership.Membership {
	if f.status == "" {
		f.status = types.MembershipStatusActive
	}
	paid := f.pkg.Price
	if f.paid != "" {
		paid = amount(f.paid)
	}
	m := &membership.Membership{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP),
		MemberID:            f.member.ID,
		PackageID:           f.pkg.ID,
		StartDate:           f.start,
		EndDate:             types.AddDays(f.start, f.pkg.DurationDays),
		MembershipStatus:    f.status,
		OriginalAmount:      f.pkg.Price,
		TotalAmountDue:      f.pkg.Price,
		AmountPaid:          paid,
		AmountPending:       f.pkg.Price.Sub(paid),
		PTSessionsRemaining: f.pkg.PTSessions - f.used,
		PTSessionsUsed:      f.used,
		BaseModel:           types.GetDefaultBaseModel(s.GetContext()),
	}
	if f.trainer != "" {
		m.TrainerID = lo.ToPtr(f.trainer)
	}
	s.Require().NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))
	return m
}

func (s *serviceSuite) createRule(m *membership.Membership, commissionType types.CommissionType, value string) *commission.Rule {
	r := &commission.Rule{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMMISSION_RULE),
		TrainerID:       m.TrainerIDValue(),
		PackageID:       m.PackageID,
		MemberID:        m.MemberID,
		MembershipID:    m.ID,
		CommissionType:  commissionType,
		CommissionValue: amount(value),
		ValidFrom:       m.StartDate,
		IsActive:        true,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().CommissionRepo.CreateRule(s.GetContext(), r))
	return r
}

// storeSession books a 09:00 to 10:00 session directly in the store
func (s *serviceSuite) storeSession(m *membership.Membership, trainerID string, day time.Time) *session.Session {
	sess := &session.Session{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SESSION),
		MembershipID:  m.ID,
		MemberID:      m.MemberID,
		TrainerID:     trainerID,
		SessionDate:   day,
		StartTime:     types.MustTimeOfDay("09:00"),
		EndTime:       types.MustTimeOfDay("10:00"),
		SessionStatus: types.SessionStatusScheduled,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().SessionRepo.Create(s.GetContext(), sess))
	return sess
}

func (s *serviceSuite) reload(id string) *membership.Membership {
	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return m
}

func (s *serviceSuite) assertAmounts(m *membership.Membership) {
	s.True(m.AmountPaid.Add(m.AmountPending).Equal(m.TotalAmountDue),
		"paid %s + pending %s != due %s", m.AmountPaid, m.AmountPending, m.TotalAmountDue)
}

func (s *serviceSuite) assertDecimal(expected string, actual decimal.Decimal) {
	s.True(amount(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func eventNames(events []types.LifecycleEvent) []string {
	return lo.Map(events, func(e types.LifecycleEvent, _ int) string { return e.EventName })
}
