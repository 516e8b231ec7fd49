package dto

import (
	"context"

	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/shopspring/decimal"
)

type CreatePackageRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Description  string          `json:"description" validate:"omitempty,max=1000"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	DurationDays int             `json:"duration_days" validate:"required,min=1"`
	PTSessions   int             `json:"pt_sessions" validate:"min=0"`
}

func (r *CreatePackageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.ToPackage(context.Background()).Validate()
}

func (r *CreatePackageRequest) ToPackage(ctx context.Context) *pkg.Package {
	return &pkg.Package{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE),
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		DurationDays: r.DurationDays,
		PTSessions:   r.PTSessions,
		IsActive:     true,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
}

type ListPackagesResponse struct {
	Items []*pkg.Package `json:"items"`
}

type CreateMemberRequest struct {
	member.Profile
}

func (r *CreateMemberRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Profile.Validate()
}

type MemberResponse struct {
	*member.Member
}
