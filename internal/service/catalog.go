package service

import (
	"context"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	"github.com/flexprice/flexgym/internal/types"
)

type PackageService interface {
	CreatePackage(ctx context.Context, req dto.CreatePackageRequest) (*pkg.Package, error)
	GetPackage(ctx context.Context, id string) (*pkg.Package, error)
	ListPackages(ctx context.Context, filter *types.QueryFilter) (*dto.ListPackagesResponse, error)
}

type packageService struct {
	ServiceParams
}

func NewPackageService(params ServiceParams) PackageService {
	return &packageService{
		ServiceParams: params,
	}
}

func (s *packageService) CreatePackage(ctx context.Context, req dto.CreatePackageRequest) (*pkg.Package, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := req.ToPackage(ctx)
	if err := s.PackageRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Logger.Infow("package created",
		"package_id", p.ID,
		"price", p.Price.String(),
		"duration_days", p.DurationDays,
		"pt_sessions", p.PTSessions,
	)
	return p, nil
}

func (s *packageService) GetPackage(ctx context.Context, id string) (*pkg.Package, error) {
	return retryRead(ctx, func(ctx context.Context) (*pkg.Package, error) {
		return s.PackageRepo.Get(ctx, id)
	})
}

func (s *packageService) ListPackages(ctx context.Context, filter *types.QueryFilter) (*dto.ListPackagesResponse, error) {
	if filter == nil {
		filter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	items, err := retryRead(ctx, func(ctx context.Context) ([]*pkg.Package, error) {
		return s.PackageRepo.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return &dto.ListPackagesResponse{Items: items}, nil
}

type MemberService interface {
	CreateMember(ctx context.Context, req dto.CreateMemberRequest) (*dto.MemberResponse, error)
	GetMember(ctx context.Context, id string) (*dto.MemberResponse, error)
}

type memberService struct {
	ServiceParams
}

func NewMemberService(params ServiceParams) MemberService {
	return &memberService{
		ServiceParams: params,
	}
}

func (s *memberService) CreateMember(ctx context.Context, req dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m := member.FromProfile(&req.Profile, types.GetDefaultBaseModel(ctx))
	if _, err := s.MemberRepo.CreateIdentity(ctx, m); err != nil {
		return nil, err
	}
	s.Logger.Infow("member created", "member_id", m.ID)
	return &dto.MemberResponse{Member: m}, nil
}

func (s *memberService) GetMember(ctx context.Context, id string) (*dto.MemberResponse, error) {
	m, err := s.loadMember(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.MemberResponse{Member: m}, nil
}
