// Package pkg holds the membership package catalogue.
package pkg

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Package is a sellable membership product
type Package struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	Price        decimal.Decimal `db:"price" json:"price" swaggertype:"string"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	PTSessions   int             `db:"pt_sessions" json:"pt_sessions"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	types.BaseModel
}

func (p *Package) TableName() string {
	return "packages"
}

// Validate fails with ErrInvalidPackage for packages the calculators cannot price
func (p *Package) Validate() error {
	if p.DurationDays <= 0 {
		return ierr.NewError("package has no duration").
			WithHintf("Package %s must last at least one day", p.Name).
			WithReportableDetails(map[string]any{
				"package_id":    p.ID,
				"duration_days": p.DurationDays,
			}).
			Mark(ierr.ErrInvalidPackage)
	}
	if !p.Price.IsPositive() {
		return ierr.NewError("package has no price").
			WithHintf("Package %s must have a price greater than zero", p.Name).
			WithReportableDetails(map[string]any{
				"package_id": p.ID,
				"price":      p.Price.String(),
			}).
			Mark(ierr.ErrInvalidPackage)
	}
	if p.PTSessions < 0 {
		return ierr.NewError("package has negative sessions").
			WithHint("Personal training sessions cannot be negative").
			Mark(ierr.ErrInvalidPackage)
	}
	return nil
}

func (p *Package) HasPTSessions() bool {
	return p.PTSessions > 0
}
