package testutil

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/types"
)

// InMemoryPackageStore implements pkg.Repository
type InMemoryPackageStore struct {
	*InMemoryStore[*pkg.Package]
	faults *Faults
}

var _ pkg.Repository = (*InMemoryPackageStore)(nil)

func NewInMemoryPackageStore(faults *Faults) *InMemoryPackageStore {
	if faults == nil {
		faults = newFaults()
	}
	return &InMemoryPackageStore{
		InMemoryStore: NewInMemoryStore("package", func(p *pkg.Package) *pkg.Package {
			cp := *p
			return &cp
		}),
		faults: faults,
	}
}

func (s *InMemoryPackageStore) Create(ctx context.Context, p *pkg.Package) error {
	if err := s.faults.write("package.Create"); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPackageStore) Get(ctx context.Context, id string) (*pkg.Package, error) {
	if err := s.faults.check("package.Get"); err != nil {
		return nil, err
	}
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CheckTenantFilter(ctx, p.TenantID) {
		return nil, s.notFound(id)
	}
	return p, nil
}

func (s *InMemoryPackageStore) List(ctx context.Context, filter *types.QueryFilter) ([]*pkg.Package, error) {
	items := s.InMemoryStore.List(ctx, func(ctx context.Context, p *pkg.Package) bool {
		return CheckTenantFilter(ctx, p.TenantID) && p.Status == types.StatusPublished
	}, filter.GetOrder())
	return types.Page(items, filter), nil
}
