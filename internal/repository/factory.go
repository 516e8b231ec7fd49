package repository

import (
	"github.com/flexprice/flexgym/internal/cache"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/domain/session"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	postgresRepo "github.com/flexprice/flexgym/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
)

func NewMemberRepository(db *postgres.DB, logger *logger.Logger) member.Repository {
	return postgresRepo.NewMemberRepository(db, logger)
}

// NewPackageRepository puts the catalogue cache in front of postgres
func NewPackageRepository(db *postgres.DB, logger *logger.Logger, c cache.Cache) pkg.Repository {
	return cache.NewCachedPackageRepository(postgresRepo.NewPackageRepository(db, logger), c, logger)
}

func NewMembershipRepository(db *postgres.DB, logger *logger.Logger) membership.Repository {
	return postgresRepo.NewMembershipRepository(db, logger)
}

func NewMembershipChangeRepository(db *postgres.DB, logger *logger.Logger) membership.ChangeRepository {
	return postgresRepo.NewMembershipChangeRepository(db, logger)
}

func NewCommissionRepository(db *postgres.DB, logger *logger.Logger) commission.Repository {
	return postgresRepo.NewCommissionRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewCreditRepository(db *postgres.DB, logger *logger.Logger) credit.Repository {
	return postgresRepo.NewCreditRepository(db, logger)
}

func NewInstallmentRepository(db *postgres.DB, logger *logger.Logger) installment.Repository {
	return postgresRepo.NewInstallmentRepository(db, logger)
}

func NewSessionRepository(db *postgres.DB, logger *logger.Logger) session.Repository {
	return postgresRepo.NewSessionRepository(db, logger)
}
