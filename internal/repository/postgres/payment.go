package postgres

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/payment"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

const paymentIdempotencyConstraint = "uq_payments_idempotency_key"

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) (*payment.Payment, bool, error) {
	span := StartRepositorySpan(ctx, "payment", "create", map[string]interface{}{
		"membership_id":   p.MembershipID,
		"idempotency_key": p.IdempotencyKey,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO payments (
			id, tenant_id, member_id, membership_id, payment_plan_id, installment_number,
			amount, payment_type, payment_method, payment_date, receipt_number,
			idempotency_key, notes, reverses_payment_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :member_id, :membership_id, :payment_plan_id, :installment_number,
			:amount, :payment_type, :payment_method, :payment_date, :receipt_number,
			:idempotency_key, :notes, :reverses_payment_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT ON CONSTRAINT ` + paymentIdempotencyConstraint + ` DO NOTHING`

	r.logger.Debugw("recording payment",
		"payment_id", p.ID,
		"membership_id", p.MembershipID,
		"amount", p.Amount.String(),
		"payment_type", p.PaymentType,
	)

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		SetSpanError(span, err)
		return nil, false, postgres.WrapError(err, "create payment")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, postgres.WrapError(err, "create payment")
	}
	SetSpanSuccess(span)
	if rows == 1 {
		return p, true, nil
	}

	existing, err := r.GetByIdempotencyKey(ctx, p.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	r.logger.Infow("payment already recorded for idempotency key",
		"payment_id", existing.ID,
		"idempotency_key", p.IdempotencyKey,
	)
	return existing, false, nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "payment", id)
	}
	return &p, nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE idempotency_key = $1
		AND tenant_id = $2`

	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, key, types.GetTenantID(ctx)); err != nil {
		return nil, notFoundOr(err, "payment with key", key)
	}
	return &p, nil
}

func (r *paymentRepository) ListByMembership(ctx context.Context, membershipID string) ([]*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE membership_id = $1
		AND tenant_id = $2
		AND status = $3
		ORDER BY created_at ASC`

	var payments []*payment.Payment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query,
		membershipID, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "list payments")
	}
	return payments, nil
}
