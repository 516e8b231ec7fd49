package postgres

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

type memberRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewMemberRepository creates a new instance of member repository
func NewMemberRepository(db *postgres.DB, logger *logger.Logger) member.Repository {
	return &memberRepository{
		db:     db,
		logger: logger,
	}
}

func (r *memberRepository) CreateIdentity(ctx context.Context, m *member.Member) (string, error) {
	span := StartRepositorySpan(ctx, "member", "create_identity", nil)
	defer FinishSpan(span)

	query := `
		INSERT INTO members (
			id, tenant_id, first_name, last_name, email, phone, member_status,
			status_membership_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :first_name, :last_name, :email, :phone, :member_status,
			:status_membership_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating member identity",
		"member_id", m.ID,
		"tenant_id", m.TenantID,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, m); err != nil {
		SetSpanError(span, err)
		return "", postgres.WrapError(err, "create member")
	}
	SetSpanSuccess(span)
	return m.ID, nil
}

func (r *memberRepository) Get(ctx context.Context, id string) (*member.Member, error) {
	query := `
		SELECT * FROM members
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var m member.Member
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "member", id)
	}
	return &m, nil
}

func (r *memberRepository) UpdateStatus(ctx context.Context, id string, status types.MemberStatus, membershipID string) error {
	query := `
		UPDATE members
		SET
			member_status = $1,
			status_membership_id = NULLIF($2, ''),
			updated_at = NOW(),
			updated_by = $3
		WHERE id = $4
		AND tenant_id = $5
		AND status = $6`

	r.logger.Debugw("updating member status",
		"member_id", id,
		"member_status", status,
		"membership_id", membershipID,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		status, membershipID, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.WrapError(err, "update member status")
	}
	return requireRows(result, "member", id)
}

func (r *memberRepository) Archive(ctx context.Context, id string) error {
	query := `
		UPDATE members
		SET status = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.StatusArchived, types.GetUserID(ctx), id, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "archive member")
	}
	return requireRows(result, "member", id)
}
