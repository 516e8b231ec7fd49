package service

import (
	"context"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/proration"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
)

// CalculatorService exposes the pure calculators. Nothing here writes.
type CalculatorService interface {
	PreviewProration(ctx context.Context, req dto.ProrationPreviewRequest) (*dto.ProrationPreviewResponse, error)
	PreviewCommission(ctx context.Context, req dto.CommissionPreviewRequest) (*dto.CommissionPreviewResponse, error)
	PreviewInstallments(ctx context.Context, req dto.InstallmentPreviewRequest) (*dto.InstallmentPreviewResponse, error)
	ResizeDueDates(ctx context.Context, req dto.ResizeDueDatesRequest) (*dto.ResizeDueDatesResponse, error)
}

type calculatorService struct {
	ServiceParams
}

func NewCalculatorService(params ServiceParams) CalculatorService {
	return &calculatorService{
		ServiceParams: params,
	}
}

func (s *calculatorService) PreviewProration(ctx context.Context, req dto.ProrationPreviewRequest) (*dto.ProrationPreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := proration.Params{
		EffectiveDate:         dateOrToday(req.EffectiveDate),
		Policy:                lo.Ternary(req.Policy != "", req.Policy, s.Config.Engine.DefaultProrationPolicy),
		Direction:             req.Direction,
		CustomAmount:          req.CustomAmount,
		IgnorePreviousPending: req.IgnorePreviousPending,
	}

	if req.MembershipID != "" {
		m, err := s.loadMembership(ctx, req.MembershipID)
		if err != nil {
			return nil, err
		}
		params.Source = proration.SourceMembership{
			AmountPaid:     m.AmountPaid,
			TotalAmountDue: m.TotalAmountDue,
			AmountPending:  m.AmountPending,
			StartDate:      m.StartDate,
			EndDate:        m.EndDate,
		}
	} else {
		params.Source = proration.SourceMembership{
			AmountPaid:     req.AmountPaid,
			TotalAmountDue: req.TotalAmountDue,
			AmountPending:  req.AmountPending,
			StartDate:      types.Date(*req.StartDate),
			EndDate:        types.Date(*req.EndDate),
		}
	}

	if req.TargetPackageID != "" {
		p, err := s.loadPackage(ctx, req.TargetPackageID)
		if err != nil {
			return nil, err
		}
		params.Target = proration.TargetPackage{Price: p.Price, DurationDays: p.DurationDays}
	} else {
		params.Target = proration.TargetPackage{Price: req.TargetPrice, DurationDays: req.TargetDuration}
	}

	result, err := s.ProrationCalc.Calculate(params)
	if err != nil {
		return nil, err
	}
	return &dto.ProrationPreviewResponse{Result: result}, nil
}

func (s *calculatorService) PreviewCommission(ctx context.Context, req dto.CommissionPreviewRequest) (*dto.CommissionPreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result, err := s.CommissionCalc.Calculate(req.ToInput())
	if err != nil {
		return nil, err
	}
	return &dto.CommissionPreviewResponse{Result: result}, nil
}

func (s *calculatorService) PreviewInstallments(ctx context.Context, req dto.InstallmentPreviewRequest) (*dto.InstallmentPreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	schedule, err := s.Planner.Plan(req.ToPlanInput(req.TotalAmount))
	if err != nil {
		return nil, err
	}
	return &dto.InstallmentPreviewResponse{Schedule: schedule}, nil
}

// ResizeDueDates keeps the dates already entered and fills in the new tail
func (s *calculatorService) ResizeDueDates(ctx context.Context, req dto.ResizeDueDatesRequest) (*dto.ResizeDueDatesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	dueDates, err := s.Planner.ResizeDueDates(req.DueDates, req.InstallmentCount, req.Frequency)
	if err != nil {
		return nil, err
	}
	return &dto.ResizeDueDatesResponse{DueDates: dueDates}, nil
}
