package postgres

import (
	"context"
	"fmt"

	"github.com/flexprice/flexgym/internal/domain/membership"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

type membershipRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewMembershipRepository creates a new instance of membership repository
func NewMembershipRepository(db *postgres.DB, logger *logger.Logger) membership.Repository {
	return &membershipRepository{
		db:     db,
		logger: logger,
	}
}

func (r *membershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	span := StartRepositorySpan(ctx, "membership", "create", map[string]interface{}{"membership_id": m.ID})
	defer FinishSpan(span)

	if err := m.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO memberships (
			id, tenant_id, member_id, package_id, original_membership_id, trainer_id,
			start_date, end_date, actual_end_date, membership_status, status_reason,
			original_amount, total_amount_due, amount_paid, amount_pending,
			freeze_start_date, freeze_end_date, freeze_reason, freeze_days_used,
			pt_sessions_remaining, pt_sessions_used, payment_plan_id,
			transferred_to_member_id, transferred_from_member_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :member_id, :package_id, :original_membership_id, :trainer_id,
			:start_date, :end_date, :actual_end_date, :membership_status, :status_reason,
			:original_amount, :total_amount_due, :amount_paid, :amount_pending,
			:freeze_start_date, :freeze_end_date, :freeze_reason, :freeze_days_used,
			:pt_sessions_remaining, :pt_sessions_used, :payment_plan_id,
			:transferred_to_member_id, :transferred_from_member_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating membership",
		"membership_id", m.ID,
		"member_id", m.MemberID,
		"membership_status", m.MembershipStatus,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, m); err != nil {
		SetSpanError(span, err)
		return postgres.WrapError(err, "create membership")
	}
	SetSpanSuccess(span)
	return nil
}

func (r *membershipRepository) Get(ctx context.Context, id string) (*membership.Membership, error) {
	query := `
		SELECT * FROM memberships
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var m membership.Membership
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "membership", id)
	}
	return &m, nil
}

// Update applies the patch inside a transaction holding the row lock so the
// patched record is written in one statement
func (r *membershipRepository) Update(ctx context.Context, id string, patch membership.Patch) (*membership.Membership, error) {
	var updated *membership.Membership

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)

		var m membership.Membership
		lock := `
			SELECT * FROM memberships
			WHERE id = $1 AND tenant_id = $2 AND status = $3
			FOR UPDATE`
		if err := q.GetContext(ctx, &m, lock, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
			return notFoundOr(err, "membership", id)
		}

		patch.Apply(&m)
		m.UpdatedBy = types.GetUserID(ctx)

		query := `
			UPDATE memberships
			SET
				membership_status = :membership_status,
				status_reason = :status_reason,
				actual_end_date = :actual_end_date,
				freeze_start_date = :freeze_start_date,
				freeze_end_date = :freeze_end_date,
				freeze_reason = :freeze_reason,
				trainer_id = :trainer_id,
				transferred_to_member_id = :transferred_to_member_id,
				updated_at = NOW(),
				updated_by = :updated_by
			WHERE id = :id AND tenant_id = :tenant_id`

		r.logger.Debugw("updating membership",
			"membership_id", id,
			"membership_status", m.MembershipStatus,
		)

		if _, err := q.NamedExecContext(ctx, query, &m); err != nil {
			return postgres.WrapError(err, "update membership")
		}
		updated = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *membershipRepository) ListByMember(ctx context.Context, memberID string, filter *types.QueryFilter) ([]*membership.Membership, error) {
	query := fmt.Sprintf(`
		SELECT * FROM memberships
		WHERE member_id = $1
		AND tenant_id = $2
		AND status = $3
		ORDER BY start_date %s, created_at %s
		LIMIT $4 OFFSET $5`, orderClause(filter.GetOrder()), orderClause(filter.GetOrder()))

	var memberships []*membership.Membership
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &memberships, query,
		memberID, types.GetTenantID(ctx), types.StatusPublished, filter.GetLimit(), filter.GetOffset()); err != nil {
		return nil, postgres.WrapError(err, "list memberships")
	}
	return memberships, nil
}

func (r *membershipRepository) ApplyAmountDelta(ctx context.Context, id string, delta membership.AmountDelta) (*membership.Membership, error) {
	query := `
		UPDATE memberships
		SET
			amount_paid = amount_paid + $1,
			amount_pending = amount_pending + $2,
			total_amount_due = total_amount_due + $3,
			updated_at = NOW(),
			updated_by = $4
		WHERE id = $5
		AND tenant_id = $6
		AND status = $7
		RETURNING *`

	r.logger.Debugw("applying amount delta",
		"membership_id", id,
		"paid", delta.Paid.String(),
		"pending", delta.Pending.String(),
		"total", delta.Total.String(),
	)

	var m membership.Membership
	err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query,
		delta.Paid, delta.Pending, delta.Total,
		types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return nil, ierr.WithError(err).
				WithHint("Payment would leave the membership amounts out of balance").
				WithReportableDetails(map[string]any{
					"membership_id": id,
					"paid_delta":    delta.Paid.String(),
					"pending_delta": delta.Pending.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		return nil, notFoundOr(err, "membership", id)
	}
	return &m, nil
}

func (r *membershipRepository) AdjustSessions(ctx context.Context, id string, remainingDelta, usedDelta int) (*membership.Membership, error) {
	query := `
		UPDATE memberships
		SET
			pt_sessions_remaining = pt_sessions_remaining + $1,
			pt_sessions_used = pt_sessions_used + $2,
			updated_at = NOW(),
			updated_by = $3
		WHERE id = $4
		AND tenant_id = $5
		AND status = $6
		RETURNING *`

	var m membership.Membership
	err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query,
		remainingDelta, usedDelta, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return nil, ierr.WithError(err).
				WithHint("No personal training sessions left on this membership").
				Mark(ierr.ErrValidation)
		}
		return nil, notFoundOr(err, "membership", id)
	}
	return &m, nil
}

func (r *membershipRepository) AdjustFreeze(ctx context.Context, id string, days int) (*membership.Membership, error) {
	query := `
		UPDATE memberships
		SET
			end_date = end_date + $1::int,
			freeze_days_used = freeze_days_used + $1::int,
			updated_at = NOW(),
			updated_by = $2
		WHERE id = $3
		AND tenant_id = $4
		AND status = $5
		RETURNING *`

	var m membership.Membership
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query,
		days, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "membership", id)
	}
	return &m, nil
}

func (r *membershipRepository) LinkPaymentPlan(ctx context.Context, id string, planID string) error {
	query := `
		UPDATE memberships
		SET payment_plan_id = NULLIF($1, ''), updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		planID, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.WrapError(err, "link payment plan")
	}
	return requireRows(result, "membership", id)
}

type membershipChangeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewMembershipChangeRepository creates the append-only change history repository
func NewMembershipChangeRepository(db *postgres.DB, logger *logger.Logger) membership.ChangeRepository {
	return &membershipChangeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *membershipChangeRepository) CreateChange(ctx context.Context, c *membership.Change) error {
	query := `
		INSERT INTO membership_changes (
			id, tenant_id, from_membership_id, to_membership_id, change_type, change_date,
			amount_difference, remaining_days, prorated_amount, reason,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :from_membership_id, :to_membership_id, :change_type, :change_date,
			:amount_difference, :remaining_days, :prorated_amount, :reason,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("recording membership change",
		"change_id", c.ID,
		"from_membership_id", c.FromMembershipID,
		"change_type", c.ChangeType,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, c); err != nil {
		return postgres.WrapError(err, "create membership change")
	}
	return nil
}

func (r *membershipChangeRepository) ListChanges(ctx context.Context, membershipID string) ([]*membership.Change, error) {
	query := `
		SELECT * FROM membership_changes
		WHERE (from_membership_id = $1 OR to_membership_id = $1)
		AND tenant_id = $2
		AND status = $3
		ORDER BY created_at ASC`

	var changes []*membership.Change
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &changes, query,
		membershipID, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "list membership changes")
	}
	return changes, nil
}
