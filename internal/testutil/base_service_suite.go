package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/flexgym/internal/config"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/domain/session"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	MemberRepo      member.Repository
	PackageRepo     pkg.Repository
	MembershipRepo  membership.Repository
	ChangeRepo      membership.ChangeRepository
	CommissionRepo  commission.Repository
	PaymentRepo     payment.Repository
	CreditRepo      credit.Repository
	InstallmentRepo installment.Repository
	SessionRepo     session.Repository
}

// Reports records sagas the runner could not roll back
type Reports struct {
	mu      sync.Mutex
	details []map[string]any
}

func (r *Reports) ReportPartiallyApplied(_ context.Context, _ error, details map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details = append(r.details, details)
}

func (r *Reports) All() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.details...)
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	faults    *Faults
	reports   *Reports
	pubsub    *InMemoryPubSub
	publisher publisher.LifecycleEventPublisher
	saga      *saga.Runner
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.faults = newFaults()
	membershipStore := NewInMemoryMembershipStore(s.faults)
	s.stores = Stores{
		MemberRepo:      NewInMemoryMemberStore(s.faults),
		PackageRepo:     NewInMemoryPackageStore(s.faults),
		MembershipRepo:  membershipStore,
		ChangeRepo:      membershipStore,
		CommissionRepo:  NewInMemoryCommissionStore(s.faults),
		PaymentRepo:     NewInMemoryPaymentStore(s.faults),
		CreditRepo:      NewInMemoryCreditStore(s.faults),
		InstallmentRepo: NewInMemoryInstallmentStore(s.faults),
		SessionRepo:     NewInMemorySessionStore(s.faults),
	}

	s.reports = &Reports{}
	s.saga = saga.NewRunner(s.logger,
		saga.WithReporter(s.reports),
		saga.WithCompensationRetries(2),
		saga.WithInitialInterval(time.Millisecond),
	)
	s.pubsub = NewInMemoryPubSub()
	s.publisher = publisher.NewLifecycleEventPublisher(s.pubsub, s.config, s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.MemberRepo.(*InMemoryMemberStore).Clear()
	s.stores.PackageRepo.(*InMemoryPackageStore).Clear()
	s.stores.MembershipRepo.(*InMemoryMembershipStore).Clear()
	s.stores.CommissionRepo.(*InMemoryCommissionStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.CreditRepo.(*InMemoryCreditStore).Clear()
	s.stores.InstallmentRepo.(*InMemoryInstallmentStore).Clear()
	s.stores.SessionRepo.(*InMemorySessionStore).Clear()
	s.pubsub.ClearMessages()
	s.faults.Reset()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetFaults returns the fault injector shared by every store
func (s *BaseServiceTestSuite) GetFaults() *Faults {
	return s.faults
}

// GetReports returns the partially applied sagas reported so far
func (s *BaseServiceTestSuite) GetReports() *Reports {
	return s.reports
}

// GetSagaRunner returns a runner that retries compensations quickly
func (s *BaseServiceTestSuite) GetSagaRunner() *saga.Runner {
	return s.saga
}

// GetPubSub returns the in-memory pubsub behind the publisher
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() publisher.LifecycleEventPublisher {
	return s.publisher
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
