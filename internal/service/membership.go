package service

import (
	"context"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/installment"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/idempotency"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type MembershipService interface {
	Purchase(ctx context.Context, req dto.PurchaseMembershipRequest) (*dto.PurchaseMembershipResponse, error)
	Get(ctx context.Context, id string) (*dto.MembershipResponse, error)
	ListByMember(ctx context.Context, memberID string, filter *types.QueryFilter) (*dto.ListMembershipsResponse, error)
	ListChanges(ctx context.Context, id string) (*dto.ListMembershipChangesResponse, error)
}

type membershipService struct {
	ServiceParams
}

func NewMembershipService(params ServiceParams) MembershipService {
	return &membershipService{
		ServiceParams: params,
	}
}

// Purchase sells a package to a member. The down payment and the payment plan
// are optional, the commission rule is only created for packages with personal
// training and never fails the purchase.
func (s *membershipService) Purchase(ctx context.Context, req dto.PurchaseMembershipRequest) (*dto.PurchaseMembershipResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mem, err := s.loadMember(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	p, err := s.loadPackage(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	price := p.Price
	if req.Price != nil {
		price = req.Price.Round(2)
	}

	down, downMethod, downKey := decimal.Zero, types.PaymentMethod(""), ""
	switch {
	case req.DownPayment != nil:
		down, downMethod, downKey = req.DownPayment.Amount.Round(2), req.DownPayment.Method, req.DownPayment.IdempotencyKey
	case req.PaymentPlan != nil && req.PaymentPlan.DownPayment.IsPositive():
		down, downMethod = req.PaymentPlan.DownPayment.Round(2), req.PaymentPlan.DownPaymentMethod
	}
	if down.GreaterThan(price) {
		return nil, ierr.NewError("down payment exceeds price").
			WithHintf("Down payment cannot be more than %s", price.StringFixed(2)).
			WithReportableDetails(map[string]any{
				"price":        price.String(),
				"down_payment": down.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	status := req.InitialStatus
	if status == "" {
		status = lo.Ternary(down.IsZero(), types.MembershipStatusPendingPayment, types.MembershipStatusActive)
	}

	start := dateOrToday(req.StartDate)
	base := types.GetDefaultBaseModel(ctx)
	m := &membership.Membership{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP),
		MemberID:            mem.ID,
		PackageID:           p.ID,
		TrainerID:           req.TrainerID,
		StartDate:           start,
		EndDate:             types.AddDays(start, p.DurationDays),
		MembershipStatus:    status,
		OriginalAmount:      p.Price,
		TotalAmountDue:      price,
		AmountPaid:          down,
		AmountPending:       price.Sub(down),
		PTSessionsRemaining: p.PTSessions,
		BaseModel:           base,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var plan *installment.Plan
	if req.PaymentPlan != nil {
		in := req.PaymentPlan.ToPlanInput(price)
		in.DownPayment = down
		schedule, err := s.Planner.Plan(in)
		if err != nil {
			return nil, err
		}
		plan = installment.NewPlan(schedule, m.ID, mem.ID, base)
	}

	var rule, createdRule *commission.Rule
	if req.TrainerID != nil && p.HasPTSessions() {
		rule = s.defaultRule(ctx, *req.TrainerID, m.ID, p.ID, mem.ID, start)
		if c := req.Commission; c != nil {
			if c.Type != "" {
				rule.CommissionType = c.Type
			}
			if c.Value != nil {
				rule.CommissionValue = *c.Value
			}
			rule.MinAmount, rule.MaxAmount = c.MinAmount, c.MaxAmount
			if err := rule.Validate(); err != nil {
				return nil, err
			}
		}
	}

	steps := []saga.Step{s.createMembershipStep("create_membership", m)}

	var downPayment *payment.Payment
	var redemption *credit.Transaction
	if down.IsPositive() {
		pay := &payment.Payment{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			MemberID:      mem.ID,
			MembershipID:  m.ID,
			Amount:        down,
			PaymentType:   types.PaymentTypeDownPayment,
			PaymentMethod: downMethod,
			PaymentDate:   start,
			ReceiptNumber: s.receiptNumber(),
			IdempotencyKey: lo.Ternary(downKey != "", downKey, s.Idempotency.GenerateKey(idempotency.ScopeDownPayment, map[string]interface{}{
				"membership_id": m.ID,
			})),
			BaseModel: base,
		}
		if plan != nil {
			pay.PaymentPlanID = lo.ToPtr(plan.ID)
		}
		if downMethod == types.PaymentMethodCreditBalance {
			steps = append(steps, s.creditStep("redeem_credit", s.redemption(pay, base), &redemption))
		}
		steps = append(steps, s.paymentStep("record_down_payment", pay, &downPayment))
	}

	if plan != nil {
		steps = append(steps, s.createPlanStep(plan), s.linkPlanStep(m.ID, plan.ID))
	}
	if rule != nil {
		steps = append(steps, s.createRuleStep(rule, true, &createdRule))
	}

	warnings, err := s.runSaga(ctx, "purchase", steps)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		m.PaymentPlanID = lo.ToPtr(plan.ID)
	}

	s.Logger.Infow("membership purchased",
		"membership_id", m.ID,
		"member_id", mem.ID,
		"package_id", p.ID,
		"status", m.MembershipStatus,
		"total_amount_due", price.String(),
		"down_payment", down.String(),
	)

	payload := amountsPayload(m)
	payload["package_id"] = p.ID
	events := []types.LifecycleEvent{membershipEvent(ctx, types.EventMembershipPurchased, m, payload)}
	if redemption != nil {
		events = append(events, creditEvent(ctx, redemption, m.ID))
	}
	if downPayment != nil {
		events = append(events, paymentEvent(ctx, downPayment))
	}
	if plan != nil {
		events = append(events, planEvent(ctx, plan))
	}

	return &dto.PurchaseMembershipResponse{
		Membership:     dto.NewMembershipResponse(m),
		DownPayment:    downPayment,
		PaymentPlan:    plan,
		CommissionRule: createdRule,
		Events:         events,
		Warnings:       warnings,
	}, nil
}

func (s *membershipService) Get(ctx context.Context, id string) (*dto.MembershipResponse, error) {
	m, err := s.loadMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewMembershipResponse(m), nil
}

func (s *membershipService) ListByMember(ctx context.Context, memberID string, filter *types.QueryFilter) (*dto.ListMembershipsResponse, error) {
	if filter == nil {
		filter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadMember(ctx, memberID); err != nil {
		return nil, err
	}

	items, err := retryRead(ctx, func(ctx context.Context) ([]*membership.Membership, error) {
		return s.MembershipRepo.ListByMember(ctx, memberID, filter)
	})
	if err != nil {
		return nil, err
	}

	return &dto.ListMembershipsResponse{
		Items:  lo.Map(items, func(m *membership.Membership, _ int) *dto.MembershipResponse { return dto.NewMembershipResponse(m) }),
		Limit:  filter.GetLimit(),
		Offset: filter.GetOffset(),
	}, nil
}

func (s *membershipService) ListChanges(ctx context.Context, id string) (*dto.ListMembershipChangesResponse, error) {
	if _, err := s.loadMembership(ctx, id); err != nil {
		return nil, err
	}
	changes, err := retryRead(ctx, func(ctx context.Context) ([]*membership.Change, error) {
		return s.ChangeRepo.ListChanges(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &dto.ListMembershipChangesResponse{Items: changes}, nil
}
