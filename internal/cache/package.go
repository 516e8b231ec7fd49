package cache

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/types"
)

// cachedPackageRepository serves catalogue reads from the cache. Packages are
// read on every lifecycle operation and change rarely.
type cachedPackageRepository struct {
	pkg.Repository
	cache  Cache
	logger *logger.Logger
}

// NewCachedPackageRepository wraps repo with a read-through cache
func NewCachedPackageRepository(repo pkg.Repository, c Cache, logger *logger.Logger) pkg.Repository {
	return &cachedPackageRepository{
		Repository: repo,
		cache:      c,
		logger:     logger,
	}
}

func (r *cachedPackageRepository) Get(ctx context.Context, id string) (*pkg.Package, error) {
	span := StartCacheSpan(ctx, "package", "get", map[string]interface{}{"package_id": id})
	defer FinishSpan(span)

	key := GenerateKey(PrefixPackage, types.GetTenantID(ctx), id)
	if v, ok := r.cache.Get(ctx, key); ok {
		if p, ok := v.(*pkg.Package); ok {
			r.logger.Debugw("package cache hit", "package_id", id)
			SetSpanSuccess(span)
			return p, nil
		}
	}

	p, err := r.Repository.Get(ctx, id)
	if err != nil {
		SetSpanError(span, err)
		return nil, err
	}
	r.cache.Set(ctx, key, p, 0)
	SetSpanSuccess(span)
	return p, nil
}

func (r *cachedPackageRepository) Create(ctx context.Context, p *pkg.Package) error {
	if err := r.Repository.Create(ctx, p); err != nil {
		return err
	}
	r.cache.Delete(ctx, GenerateKey(PrefixPackage, types.GetTenantID(ctx), p.ID))
	return nil
}
