package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/flexprice/flexgym/internal/domain/credit"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

const creditColumns = `
	id, tenant_id, member_id, amount, balance_before, balance_after, reason,
	reference_type, reference_id, description, idempotency_key,
	status, created_at, updated_at, created_by, updated_by`

type creditRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewCreditRepository creates a new instance of the member credit ledger repository
func NewCreditRepository(db *postgres.DB, logger *logger.Logger) credit.Repository {
	return &creditRepository{
		db:     db,
		logger: logger,
	}
}

// Append serialises writers on the member row so the running balance is
// computed from the last committed entry
func (r *creditRepository) Append(ctx context.Context, t *credit.Transaction) (*credit.Transaction, bool, error) {
	span := StartRepositorySpan(ctx, "credit", "append", map[string]interface{}{
		"member_id":       t.MemberID,
		"idempotency_key": t.IdempotencyKey,
	})
	defer FinishSpan(span)

	var stored *credit.Transaction
	created := false

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)

		var memberID string
		lock := `SELECT id FROM members WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
		if err := q.GetContext(ctx, &memberID, lock, t.MemberID, types.GetTenantID(ctx)); err != nil {
			return notFoundOr(err, "member", t.MemberID)
		}

		existing, err := r.getByKey(ctx, t.IdempotencyKey)
		if err == nil {
			stored = existing
			return nil
		}
		if !ierr.IsNotFound(err) {
			return err
		}

		balance, err := r.lastBalance(ctx, t.MemberID)
		if err != nil {
			return err
		}

		after := balance.Add(t.Amount)
		if after.IsNegative() {
			return ierr.NewError("insufficient credit balance").
				WithHintf("Member credit balance %s is not enough for %s", balance.StringFixed(2), t.Amount.Neg().StringFixed(2)).
				WithReportableDetails(map[string]any{
					"member_id": t.MemberID,
					"balance":   balance.String(),
					"amount":    t.Amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		t.BalanceBefore = balance
		t.BalanceAfter = after

		query := `
			INSERT INTO credit_transactions (` + creditColumns + `)
			VALUES (
				:id, :tenant_id, :member_id, :amount, :balance_before, :balance_after, :reason,
				:reference_type, :reference_id, :description, :idempotency_key,
				:status, :created_at, :updated_at, :created_by, :updated_by
			)`

		r.logger.Debugw("appending credit transaction",
			"transaction_id", t.ID,
			"member_id", t.MemberID,
			"amount", t.Amount.String(),
			"balance_after", after.String(),
		)

		if _, err := q.NamedExecContext(ctx, query, t); err != nil {
			return postgres.WrapError(err, "append credit transaction")
		}
		stored = t
		created = true
		return nil
	})
	if err != nil {
		SetSpanError(span, err)
		return nil, false, err
	}
	SetSpanSuccess(span)
	return stored, created, nil
}

func (r *creditRepository) getByKey(ctx context.Context, key string) (*credit.Transaction, error) {
	query := `SELECT ` + creditColumns + ` FROM credit_transactions
		WHERE idempotency_key = $1 AND tenant_id = $2`

	var t credit.Transaction
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, key, types.GetTenantID(ctx)); err != nil {
		return nil, notFoundOr(err, "credit transaction", key)
	}
	return &t, nil
}

func (r *creditRepository) lastBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	query := `
		SELECT balance_after FROM credit_transactions
		WHERE member_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY seq DESC
		LIMIT 1`

	var balance decimal.Decimal
	err := r.db.GetQuerier(ctx).GetContext(ctx, &balance, query, memberID, types.GetTenantID(ctx), types.StatusPublished)
	if ierr.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, postgres.WrapError(err, "get credit balance")
	}
	return balance, nil
}

func (r *creditRepository) GetBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	return r.lastBalance(ctx, memberID)
}

func (r *creditRepository) List(ctx context.Context, filter *credit.TransactionFilter) ([]*credit.Transaction, error) {
	conditions := []string{"tenant_id = $1", "status = $2", "member_id = $3"}
	args := []interface{}{types.GetTenantID(ctx), types.StatusPublished, filter.MemberID}
	if filter.Reason != nil {
		args = append(args, *filter.Reason)
		conditions = append(conditions, fmt.Sprintf("reason = $%d", len(args)))
	}
	args = append(args, filter.QueryFilter.GetLimit(), filter.QueryFilter.GetOffset())

	query := fmt.Sprintf(`
		SELECT %s FROM credit_transactions
		WHERE %s
		ORDER BY seq %s
		LIMIT $%d OFFSET $%d`,
		creditColumns, strings.Join(conditions, " AND "),
		orderClause(filter.QueryFilter.GetOrder()), len(args)-1, len(args))

	var txns []*credit.Transaction
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, postgres.WrapError(err, "list credit transactions")
	}
	return txns, nil
}
