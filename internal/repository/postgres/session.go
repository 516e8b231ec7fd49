package postgres

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/domain/session"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

type sessionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewSessionRepository creates a new instance of the training session repository
func NewSessionRepository(db *postgres.DB, logger *logger.Logger) session.Repository {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sessionRepository) FindConflicting(ctx context.Context, trainerID string, date time.Time, start, end types.TimeOfDay) ([]*session.Session, error) {
	query := `
		SELECT * FROM sessions
		WHERE trainer_id = $1
		AND session_date = $2
		AND start_time < $3
		AND end_time > $4
		AND session_status <> $5
		AND tenant_id = $6
		AND status = $7
		ORDER BY start_time ASC`

	var sessions []*session.Session
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &sessions, query,
		trainerID, types.Date(date), end, start, types.SessionStatusCancelled,
		types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "find conflicting sessions")
	}
	return sessions, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, tenant_id, membership_id, member_id, trainer_id, session_date,
			start_time, end_time, session_status, notes,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :membership_id, :member_id, :trainer_id, :session_date,
			:start_time, :end_time, :session_status, :notes,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("scheduling session",
		"session_id", s.ID,
		"trainer_id", s.TrainerID,
		"session_date", s.SessionDate,
		"start_time", s.StartTime.String(),
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, s); err != nil {
		return conflictOr(postgres.WrapError(err, "create session"), s.TrainerID)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT * FROM sessions
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var s session.Session
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, notFoundOr(err, "session", id)
	}
	return &s, nil
}

func (r *sessionRepository) Update(ctx context.Context, id string, patch session.Patch) (*session.Session, error) {
	var updated *session.Session

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)

		var s session.Session
		lock := `SELECT * FROM sessions WHERE id = $1 AND tenant_id = $2 AND status = $3 FOR UPDATE`
		if err := q.GetContext(ctx, &s, lock, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
			return notFoundOr(err, "session", id)
		}

		patch.Apply(&s)
		s.UpdatedBy = types.GetUserID(ctx)

		query := `
			UPDATE sessions
			SET
				session_status = :session_status,
				trainer_id = :trainer_id,
				notes = :notes,
				updated_at = NOW(),
				updated_by = :updated_by
			WHERE id = :id AND tenant_id = :tenant_id`

		if _, err := q.NamedExecContext(ctx, query, &s); err != nil {
			return conflictOr(postgres.WrapError(err, "update session"), s.TrainerID)
		}
		updated = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sessionRepository) ListReassignable(ctx context.Context, membershipID, trainerID string, from time.Time) ([]*session.Session, error) {
	query := `
		SELECT * FROM sessions
		WHERE membership_id = $1
		AND trainer_id = $2
		AND session_date >= $3
		AND session_status NOT IN ($4, $5)
		AND tenant_id = $6
		AND status = $7
		ORDER BY session_date ASC, start_time ASC`

	var sessions []*session.Session
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &sessions, query,
		membershipID, trainerID, types.Date(from),
		types.SessionStatusCompleted, types.SessionStatusCancelled,
		types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "list reassignable sessions")
	}
	return sessions, nil
}

func (r *sessionRepository) ListByMembership(ctx context.Context, membershipID string) ([]*session.Session, error) {
	query := `
		SELECT * FROM sessions
		WHERE membership_id = $1
		AND tenant_id = $2
		AND status = $3
		ORDER BY session_date ASC, start_time ASC`

	var sessions []*session.Session
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &sessions, query,
		membershipID, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "list sessions")
	}
	return sessions, nil
}

func conflictOr(err error, trainerID string) error {
	if ierr.IsConflict(err) {
		return ierr.WithError(err).
			WithHint("Trainer already has a session booked at this time").
			WithReportableDetails(map[string]any{
				"trainer_id": trainerID,
			}).
			Mark(ierr.ErrConflict)
	}
	return err
}
