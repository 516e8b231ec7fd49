package service

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

type TrainerService interface {
	ListEarnings(ctx context.Context, trainerID string, filter *dto.TrainerEarningsFilter) (*dto.TrainerEarningsResponse, error)
}

type trainerService struct {
	ServiceParams
}

func NewTrainerService(params ServiceParams) TrainerService {
	return &trainerService{
		ServiceParams: params,
	}
}

// ListEarnings returns a trainer's ledger lines and their sum. Transfers and
// reversals are included so the total is what the trainer is owed.
func (s *trainerService) ListEarnings(ctx context.Context, trainerID string, filter *dto.TrainerEarningsFilter) (*dto.TrainerEarningsResponse, error) {
	if filter == nil {
		filter = &dto.TrainerEarningsFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.QueryFilter.Validate(); err != nil {
		return nil, err
	}

	query := &commission.EarningFilter{
		QueryFilter:  &filter.QueryFilter,
		TrainerID:    trainerID,
		MembershipID: filter.MembershipID,
	}
	var err error
	if query.From, err = parseFilterDate("from", filter.From); err != nil {
		return nil, err
	}
	if query.To, err = parseFilterDate("to", filter.To); err != nil {
		return nil, err
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, ierr.NewError("date range is inverted").
			WithHint("The end of the range must not be before its start").
			Mark(ierr.ErrValidation)
	}

	items, err := retryRead(ctx, func(ctx context.Context) ([]*commission.Earning, error) {
		return s.CommissionRepo.ListEarnings(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range items {
		total = total.Add(e.TotalEarning)
	}
	return &dto.TrainerEarningsResponse{
		TrainerID: trainerID,
		Total:     total,
		Items:     items,
	}, nil
}

func parseFilterDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("%s must be a date like 2025-01-31", name).
			Mark(ierr.ErrValidation)
	}
	d := types.Date(t)
	return &d, nil
}
