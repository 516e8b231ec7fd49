package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/flexgym/internal/domain/commission"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

const activeRuleIndex = "uq_commission_rules_active"

type commissionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewCommissionRepository creates a new instance of the commission rule and earnings repository
func NewCommissionRepository(db *postgres.DB, logger *logger.Logger) commission.Repository {
	return &commissionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *commissionRepository) GetRule(ctx context.Context, id string) (*commission.Rule, error) {
	query := `
		SELECT * FROM commission_rules
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var rule commission.Rule
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &rule, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "commission rule", id)
	}
	return &rule, nil
}

func (r *commissionRepository) GetActiveRule(ctx context.Context, trainerID, packageID, memberID string) (*commission.Rule, error) {
	query := `
		SELECT * FROM commission_rules
		WHERE trainer_id = $1
		AND package_id = $2
		AND member_id = $3
		AND is_active
		AND tenant_id = $4
		AND status = $5`

	var rule commission.Rule
	err := r.db.GetQuerier(ctx).GetContext(ctx, &rule, query,
		trainerID, packageID, memberID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, notFoundOr(err, "active commission rule for trainer", trainerID)
	}
	return &rule, nil
}

func (r *commissionRepository) CreateRule(ctx context.Context, rule *commission.Rule) error {
	query := `
		INSERT INTO commission_rules (
			id, tenant_id, trainer_id, package_id, member_id, membership_id,
			commission_type, commission_value, min_amount, max_amount,
			valid_from, valid_until, is_active,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :trainer_id, :package_id, :member_id, :membership_id,
			:commission_type, :commission_value, :min_amount, :max_amount,
			:valid_from, :valid_until, :is_active,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating commission rule",
		"rule_id", rule.ID,
		"trainer_id", rule.TrainerID,
		"package_id", rule.PackageID,
		"member_id", rule.MemberID,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, rule); err != nil {
		if postgres.IsUniqueViolation(err, activeRuleIndex) {
			return ierr.WithError(err).
				WithHint("Trainer already has an active commission rule for this member and package").
				WithReportableDetails(map[string]any{
					"trainer_id": rule.TrainerID,
					"package_id": rule.PackageID,
					"member_id":  rule.MemberID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return postgres.WrapError(err, "create commission rule")
	}
	return nil
}

func (r *commissionRepository) DeactivateRule(ctx context.Context, id string, until time.Time) error {
	query := `
		UPDATE commission_rules
		SET is_active = FALSE, valid_until = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.Date(until), types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.WrapError(err, "deactivate commission rule")
	}
	return requireRows(result, "commission rule", id)
}

func (r *commissionRepository) ReactivateRule(ctx context.Context, id string) error {
	query := `
		UPDATE commission_rules
		SET is_active = TRUE, valid_until = NULL, updated_at = NOW(), updated_by = $1
		WHERE id = $2 AND tenant_id = $3 AND status = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if postgres.IsUniqueViolation(err, activeRuleIndex) {
			return ierr.WithError(err).
				WithHint("Another commission rule is already active for this trainer").
				Mark(ierr.ErrAlreadyExists)
		}
		return postgres.WrapError(err, "reactivate commission rule")
	}
	return requireRows(result, "commission rule", id)
}

func (r *commissionRepository) CreateEarning(ctx context.Context, e *commission.Earning) error {
	query := `
		INSERT INTO trainer_earnings (
			id, tenant_id, trainer_id, member_id, membership_id, session_id, commission_rule_id,
			earning_type, base_amount, commission_rate, commission_amount, total_earning,
			earning_date, is_paid, description,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :trainer_id, :member_id, :membership_id, :session_id, :commission_rule_id,
			:earning_type, :base_amount, :commission_rate, :commission_amount, :total_earning,
			:earning_date, :is_paid, :description,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("logging trainer earning",
		"earning_id", e.ID,
		"trainer_id", e.TrainerID,
		"earning_type", e.EarningType,
		"total_earning", e.TotalEarning.String(),
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e); err != nil {
		return postgres.WrapError(err, "create trainer earning")
	}
	return nil
}

func (r *commissionRepository) ListEarnings(ctx context.Context, filter *commission.EarningFilter) ([]*commission.Earning, error) {
	conditions := []string{"tenant_id = $1", "status = $2"}
	args := []interface{}{types.GetTenantID(ctx), types.StatusPublished}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.TrainerID != "" {
		add("trainer_id = $%d", filter.TrainerID)
	}
	if filter.MembershipID != "" {
		add("membership_id = $%d", filter.MembershipID)
	}
	if filter.From != nil {
		add("earning_date >= $%d", types.Date(*filter.From))
	}
	if filter.To != nil {
		add("earning_date <= $%d", types.Date(*filter.To))
	}

	args = append(args, filter.QueryFilter.GetLimit(), filter.QueryFilter.GetOffset())
	query := fmt.Sprintf(`
		SELECT * FROM trainer_earnings
		WHERE %s
		ORDER BY earning_date %s, created_at %s
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "),
		orderClause(filter.QueryFilter.GetOrder()), orderClause(filter.QueryFilter.GetOrder()),
		len(args)-1, len(args))

	var earnings []*commission.Earning
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &earnings, query, args...); err != nil {
		return nil, postgres.WrapError(err, "list trainer earnings")
	}
	return earnings, nil
}
