package service

import (
	"time"

	"github.com/flexprice/flexgym/internal/config"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/domain/proration"
	"github.com/flexprice/flexgym/internal/domain/session"
	"github.com/flexprice/flexgym/internal/idempotency"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	MemberRepo      member.Repository
	PackageRepo     pkg.Repository
	MembershipRepo  membership.Repository
	ChangeRepo      membership.ChangeRepository
	CommissionRepo  commission.Repository
	PaymentRepo     payment.Repository
	CreditRepo      credit.Repository
	InstallmentRepo installment.Repository
	SessionRepo     session.Repository

	// Calculators
	ProrationCalc  proration.Calculator
	CommissionCalc commission.Calculator
	Planner        installment.Planner

	Saga        *saga.Runner
	Idempotency *idempotency.Generator
}

// NewSagaRunner builds the runner from the engine config, reporting sagas
// that could not be rolled back to sentry
func NewSagaRunner(cfg *config.Configuration, logger *logger.Logger, sentryService *sentry.Service) *saga.Runner {
	return saga.NewRunner(logger,
		saga.WithReporter(sentryService),
		saga.WithCompensationRetries(cfg.Engine.CompensationRetries),
		saga.WithInitialInterval(100*time.Millisecond),
	)
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	memberRepo member.Repository,
	packageRepo pkg.Repository,
	membershipRepo membership.Repository,
	changeRepo membership.ChangeRepository,
	commissionRepo commission.Repository,
	paymentRepo payment.Repository,
	creditRepo credit.Repository,
	installmentRepo installment.Repository,
	sessionRepo session.Repository,
	sagaRunner *saga.Runner,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		MemberRepo:      memberRepo,
		PackageRepo:     packageRepo,
		MembershipRepo:  membershipRepo,
		ChangeRepo:      changeRepo,
		CommissionRepo:  commissionRepo,
		PaymentRepo:     paymentRepo,
		CreditRepo:      creditRepo,
		InstallmentRepo: installmentRepo,
		SessionRepo:     sessionRepo,
		ProrationCalc:   proration.NewCalculator(),
		CommissionCalc:  commission.NewCalculator(),
		Planner:         installment.NewPlanner(),
		Saga:            sagaRunner,
		Idempotency:     idempotency.NewGenerator(),
	}
}
