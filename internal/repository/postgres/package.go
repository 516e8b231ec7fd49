package postgres

import (
	"context"
	"fmt"

	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/types"
)

type packageRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPackageRepository creates a new instance of the package catalogue repository
func NewPackageRepository(db *postgres.DB, logger *logger.Logger) pkg.Repository {
	return &packageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *packageRepository) Create(ctx context.Context, p *pkg.Package) error {
	query := `
		INSERT INTO packages (
			id, tenant_id, name, description, price, duration_days, pt_sessions, is_active,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :name, :description, :price, :duration_days, :pt_sessions, :is_active,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating package",
		"package_id", p.ID,
		"tenant_id", p.TenantID,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return postgres.WrapError(err, "create package")
	}
	return nil
}

func (r *packageRepository) Get(ctx context.Context, id string) (*pkg.Package, error) {
	span := StartRepositorySpan(ctx, "package", "get", map[string]interface{}{"package_id": id})
	defer FinishSpan(span)

	query := `
		SELECT * FROM packages
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var p pkg.Package
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		SetSpanError(span, err)
		return nil, notFoundOr(err, "package", id)
	}
	SetSpanSuccess(span)
	return &p, nil
}

func (r *packageRepository) List(ctx context.Context, filter *types.QueryFilter) ([]*pkg.Package, error) {
	query := fmt.Sprintf(`
		SELECT * FROM packages
		WHERE tenant_id = $1
		AND status = $2
		ORDER BY created_at %s
		LIMIT $3 OFFSET $4`, orderClause(filter.GetOrder()))

	var packages []*pkg.Package
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &packages, query,
		types.GetTenantID(ctx), types.StatusPublished, filter.GetLimit(), filter.GetOffset()); err != nil {
		return nil, postgres.WrapError(err, "list packages")
	}
	return packages, nil
}
