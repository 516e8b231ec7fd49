package pkg

import (
	"context"

	"github.com/flexprice/flexgym/internal/types"
)

// Repository defines the interface for the package catalogue
type Repository interface {
	Create(ctx context.Context, p *Package) error
	Get(ctx context.Context, id string) (*Package, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*Package, error)
}
