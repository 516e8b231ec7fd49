package postgres

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/domain/installment"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

type installmentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInstallmentRepository creates a new instance of payment plan repository
func NewInstallmentRepository(db *postgres.DB, logger *logger.Logger) installment.Repository {
	return &installmentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *installmentRepository) CreatePlan(ctx context.Context, p *installment.Plan) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)

		planQuery := `
			INSERT INTO payment_plans (
				id, tenant_id, membership_id, member_id, total_amount, down_payment,
				remaining_amount, installment_count, frequency, per_installment_amount,
				first_due_date, last_due_date, plan_status,
				status, created_at, updated_at, created_by, updated_by
			) VALUES (
				:id, :tenant_id, :membership_id, :member_id, :total_amount, :down_payment,
				:remaining_amount, :installment_count, :frequency, :per_installment_amount,
				:first_due_date, :last_due_date, :plan_status,
				:status, :created_at, :updated_at, :created_by, :updated_by
			)`

		r.logger.Debugw("creating payment plan",
			"plan_id", p.ID,
			"membership_id", p.MembershipID,
			"installment_count", p.InstallmentCount,
		)

		if _, err := q.NamedExecContext(ctx, planQuery, p); err != nil {
			if postgres.IsUniqueViolation(err, "") {
				return ierr.WithError(err).
					WithHint("Membership already has an active payment plan").
					Mark(ierr.ErrAlreadyExists)
			}
			return postgres.WrapError(err, "create payment plan")
		}

		installmentQuery := `
			INSERT INTO installments (
				id, tenant_id, payment_plan_id, installment_number, due_date, amount,
				is_paid, paid_at, payment_id,
				status, created_at, updated_at, created_by, updated_by
			) VALUES (
				:id, :tenant_id, :payment_plan_id, :installment_number, :due_date, :amount,
				:is_paid, :paid_at, :payment_id,
				:status, :created_at, :updated_at, :created_by, :updated_by
			)`

		for _, inst := range p.Installments {
			if _, err := q.NamedExecContext(ctx, installmentQuery, inst); err != nil {
				return postgres.WrapError(err, "create installment")
			}
		}
		return nil
	})
}

func (r *installmentRepository) GetPlan(ctx context.Context, id string) (*installment.Plan, error) {
	q := r.db.GetQuerier(ctx)

	planQuery := `
		SELECT * FROM payment_plans
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var p installment.Plan
	if err := q.GetContext(ctx, &p, planQuery, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "payment plan", id)
	}

	installmentQuery := `
		SELECT * FROM installments
		WHERE payment_plan_id = $1
		AND tenant_id = $2
		AND status = $3
		ORDER BY installment_number ASC`

	if err := q.SelectContext(ctx, &p.Installments, installmentQuery, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "list installments")
	}
	return &p, nil
}

func (r *installmentRepository) UpdatePlanStatus(ctx context.Context, id string, status types.PaymentPlanStatus) error {
	query := `
		UPDATE payment_plans
		SET plan_status = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		status, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.WrapError(err, "update payment plan status")
	}
	return requireRows(result, "payment plan", id)
}

func (r *installmentRepository) MarkInstallmentPaid(ctx context.Context, planID string, number int, paymentID string, paidAt time.Time) error {
	query := `
		UPDATE installments
		SET is_paid = TRUE, paid_at = $1, payment_id = $2, updated_at = NOW(), updated_by = $3
		WHERE payment_plan_id = $4
		AND installment_number = $5
		AND NOT is_paid
		AND tenant_id = $6`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		paidAt, paymentID, types.GetUserID(ctx), planID, number, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "mark installment paid")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError(err, "mark installment paid")
	}
	if rows == 0 {
		return ierr.NewErrorf("installment %d of plan %s is not payable", number, planID).
			WithHintf("Installment %d is already paid or does not exist", number).
			Mark(ierr.ErrConflict)
	}
	return nil
}

func (r *installmentRepository) MarkInstallmentUnpaid(ctx context.Context, planID string, number int) error {
	query := `
		UPDATE installments
		SET is_paid = FALSE, paid_at = NULL, payment_id = NULL, updated_at = NOW(), updated_by = $1
		WHERE payment_plan_id = $2
		AND installment_number = $3
		AND tenant_id = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.GetUserID(ctx), planID, number, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "mark installment unpaid")
	}
	return requireRows(result, "installment", planID)
}
