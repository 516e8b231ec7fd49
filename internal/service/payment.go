package service

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/api/dto"
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

type PaymentService interface {
	RecordPayment(ctx context.Context, membershipID string, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
	CreatePaymentPlan(ctx context.Context, membershipID string, req dto.CreatePaymentPlanRequest) (*dto.PaymentPlanResponse, error)
	ListPayments(ctx context.Context, membershipID string) (*dto.ListPaymentsResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
	}
}

// RecordPayment settles part of what a membership owes. A key that was already
// used returns the stored payment and writes nothing. A pending_payment
// membership whose balance reaches zero is activated.
func (s *paymentService) RecordPayment(ctx context.Context, membershipID string, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	paidOn := dateOrToday(req.PaymentDate)
	amount := req.Amount.Round(2)
	key := req.IdempotencyKey
	if key == "" {
		key = s.Idempotency.GenerateKey(idempotency.ScopePayment, map[string]interface{}{
			"membership_id":      membershipID,
			"amount":             amount.String(),
			"payment_method":     req.Method,
			"payment_date":       paidOn.Format("2006-01-02"),
			"installment_number": lo.FromPtr(req.InstallmentNumber),
		})
	}

	existing, err := retryRead(ctx, func(ctx context.Context) (*payment.Payment, error) {
		return s.PaymentRepo.GetByIdempotencyKey(ctx, key)
	})
	if err == nil {
		s.Logger.Infow("duplicate payment request",
			"membership_id", membershipID,
			"payment_id", existing.ID,
			"idempotency_key", key,
		)
		return &dto.PaymentResponse{
			Payment:    existing,
			Membership: dto.NewMembershipResponse(m),
			Duplicate:  true,
		}, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	if !amount.LessThanOrEqual(m.AmountPending) {
		return nil, ierr.NewError("payment exceeds pending amount").
			WithHintf("Only %s is pending on this membership", m.AmountPending.StringFixed(2)).
			WithReportableDetails(map[string]any{
				"amount":         amount.String(),
				"amount_pending": m.AmountPending.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	var plan *installment.Plan
	var inst *installment.Installment
	if m.PaymentPlanID != nil {
		plan, err = retryRead(ctx, func(ctx context.Context) (*installment.Plan, error) {
			return s.InstallmentRepo.GetPlan(ctx, *m.PaymentPlanID)
		})
		if err != nil {
			return nil, err
		}
		if plan.PlanStatus != types.PaymentPlanStatusActive {
			plan = nil
		}
	}
	if plan != nil {
		inst, err = pickInstallment(plan, req.InstallmentNumber)
		if err != nil {
			return nil, err
		}
		if inst != nil && !coversInstallment(amount, inst, m.AmountPending) {
			if req.InstallmentNumber != nil {
				return nil, ierr.NewErrorf("payment does not cover installment %d", inst.Number).
					WithHintf("Installment %d is %s", inst.Number, inst.Amount.StringFixed(2)).
					WithReportableDetails(map[string]any{
						"amount":             amount.String(),
						"installment_amount": inst.Amount.String(),
					}).
					Mark(ierr.ErrValidation)
			}
			// a partial payment reduces the balance without settling an installment
			inst = nil
		}
	} else if req.InstallmentNumber != nil {
		return nil, ierr.NewError("membership has no active payment plan").
			WithHint("Installments can only be paid on a membership with a payment plan").
			Mark(ierr.ErrValidation)
	}

	base := types.GetDefaultBaseModel(ctx)
	p := &payment.Payment{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		MemberID:       m.MemberID,
		MembershipID:   m.ID,
		Amount:         amount,
		PaymentType:    types.PaymentTypeMembership,
		PaymentMethod:  req.Method,
		PaymentDate:    paidOn,
		ReceiptNumber:  s.receiptNumber(),
		IdempotencyKey: key,
		Notes:          req.Notes,
		BaseModel:      base,
	}
	if inst != nil {
		p.PaymentType = types.PaymentTypeInstallment
		p.PaymentPlanID = lo.ToPtr(plan.ID)
		p.InstallmentNumber = lo.ToPtr(inst.Number)
	}

	var steps []saga.Step
	var redemption *credit.Transaction
	if req.Method == types.PaymentMethodCreditBalance {
		steps = append(steps, s.creditStep("redeem_credit", s.redemption(p, base), &redemption))
	}

	var stored *payment.Payment
	var updated *membership.Membership
	steps = append(steps,
		s.paymentStep("record_payment", p, &stored),
		unlessDuplicate(s.amountStep("apply_payment", m.ID, membership.PaymentDelta(amount), &updated), p, &stored),
	)
	// whether the balance is settled is only known once the delta is applied
	paidOff := func() bool { return updated != nil && updated.AmountPending.IsZero() }
	if inst != nil {
		steps = append(steps, unlessDuplicate(s.markInstallmentStep(plan.ID, inst.Number, p.ID, paidOn), p, &stored))
	}
	var planCompleted bool
	if plan != nil {
		steps = append(steps, onlyIf(s.planStatusStep(plan, types.PaymentPlanStatusCompleted), paidOff, &planCompleted))
	}

	var change *membership.Change
	var activated, changeLogged bool
	if m.MembershipStatus == types.MembershipStatusPendingPayment {
		activeStatus, err := membership.NextStatus(m.MembershipStatus, types.MembershipActionActivate)
		if err != nil {
			return nil, err
		}
		change = membership.NewChange(m, types.MembershipActionActivate, paidOn, "paid in full", base)
		steps = append(steps,
			onlyIf(s.updateStep("activate_membership", m, membership.Patch{
				Status:       lo.ToPtr(activeStatus),
				StatusReason: lo.ToPtr("paid in full"),
			}, &updated), paidOff, &activated),
			onlyIf(s.changeStep(change), func() bool { return activated }, &changeLogged),
		)
	}

	warnings, err := s.runSaga(ctx, "record_payment", steps)
	if err != nil {
		return nil, err
	}

	if stored.ID != p.ID {
		// lost a race with a request carrying the same key
		current, err := s.loadMembership(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		return &dto.PaymentResponse{
			Payment:    stored,
			Membership: dto.NewMembershipResponse(current),
			Duplicate:  true,
		}, nil
	}

	s.Logger.Infow("payment recorded",
		"membership_id", m.ID,
		"payment_id", stored.ID,
		"amount", amount.String(),
		"payment_method", req.Method,
		"amount_pending", updated.AmountPending.String(),
		"activated", activated,
		"plan_completed", planCompleted,
	)

	events := []types.LifecycleEvent{paymentEvent(ctx, stored)}
	if redemption != nil {
		events = append(events, creditEvent(ctx, redemption, m.ID))
	}
	if inst != nil {
		events = append(events, types.NewLifecycleEvent(ctx, types.EventInstallmentPaid, m.ID, m.MemberID, map[string]any{
			"payment_plan_id":    plan.ID,
			"installment_number": inst.Number,
			"payment_id":         stored.ID,
		}))
	}
	if activated {
		events = append(events, membershipEvent(ctx, types.EventMembershipActivated, updated, amountsPayload(updated)))
	} else {
		change = nil
	}

	return &dto.PaymentResponse{
		Payment:    stored,
		Membership: dto.NewMembershipResponse(updated),
		Credit:     redemption,
		Change:     change,
		Events:     events,
		Warnings:   warnings,
	}, nil
}

// CreatePaymentPlan spreads what a membership still owes over installments,
// collecting the down payment first when there is one
func (s *paymentService) CreatePaymentPlan(ctx context.Context, membershipID string, req dto.CreatePaymentPlanRequest) (*dto.PaymentPlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.MembershipStatus.IsTerminal() {
		return nil, ierr.NewErrorf("cannot create a payment plan for a membership that is %s", m.MembershipStatus).
			WithHint("Payment plans can only be created for open memberships").
			Mark(ierr.ErrInvalidTransition)
	}
	if m.PaymentPlanID != nil {
		current, err := retryRead(ctx, func(ctx context.Context) (*installment.Plan, error) {
			return s.InstallmentRepo.GetPlan(ctx, *m.PaymentPlanID)
		})
		if err != nil {
			return nil, err
		}
		if current.PlanStatus == types.PaymentPlanStatusActive {
			return nil, ierr.NewError("membership already has an active payment plan").
				WithHint("Cancel the current payment plan before creating a new one").
				WithReportableDetails(map[string]any{
					"membership_id": m.ID,
					"plan_id":       current.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	schedule, err := s.Planner.Plan(req.ToPlanInput(m.AmountPending))
	if err != nil {
		return nil, err
	}
	base := types.GetDefaultBaseModel(ctx)
	plan := installment.NewPlan(schedule, m.ID, m.MemberID, base)

	var steps []saga.Step
	var down *payment.Payment
	if schedule.DownPayment.IsPositive() {
		p := &payment.Payment{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			MemberID:      m.MemberID,
			MembershipID:  m.ID,
			PaymentPlanID: lo.ToPtr(plan.ID),
			Amount:        schedule.DownPayment,
			PaymentType:   types.PaymentTypeDownPayment,
			PaymentMethod: req.DownPaymentMethod,
			PaymentDate:   types.Today(),
			ReceiptNumber: s.receiptNumber(),
			IdempotencyKey: s.Idempotency.GenerateKey(idempotency.ScopeDownPayment, map[string]interface{}{
				"membership_id": m.ID,
				"plan_id":       plan.ID,
			}),
			BaseModel: base,
		}
		if req.DownPaymentMethod == types.PaymentMethodCreditBalance {
			steps = append(steps, s.creditStep("redeem_credit", s.redemption(p, base), nil))
		}
		steps = append(steps,
			s.paymentStep("record_down_payment", p, &down),
			s.amountStep("apply_down_payment", m.ID, membership.PaymentDelta(p.Amount), nil),
		)
	}
	steps = append(steps, s.createPlanStep(plan), s.linkPlanStep(m.ID, plan.ID))

	if _, err := s.runSaga(ctx, "create_payment_plan", steps); err != nil {
		return nil, err
	}

	m, err = s.loadMembership(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("payment plan created",
		"membership_id", m.ID,
		"plan_id", plan.ID,
		"installment_count", plan.InstallmentCount,
		"frequency", plan.Frequency,
		"per_installment_amount", plan.PerInstallmentAmount.String(),
	)

	events := []types.LifecycleEvent{planEvent(ctx, plan)}
	if down != nil {
		events = append(events, paymentEvent(ctx, down))
	}

	return &dto.PaymentPlanResponse{
		PaymentPlan: plan,
		DownPayment: down,
		Membership:  dto.NewMembershipResponse(m),
		Events:      events,
	}, nil
}

func (s *paymentService) ListPayments(ctx context.Context, membershipID string) (*dto.ListPaymentsResponse, error) {
	if _, err := s.loadMembership(ctx, membershipID); err != nil {
		return nil, err
	}
	items, err := retryRead(ctx, func(ctx context.Context) ([]*payment.Payment, error) {
		return s.PaymentRepo.ListByMembership(ctx, membershipID)
	})
	if err != nil {
		return nil, err
	}
	return &dto.ListPaymentsResponse{Items: items}, nil
}

// pickInstallment returns the installment a payment settles, the requested
// one or else the earliest unpaid
func pickInstallment(plan *installment.Plan, number *int) (*installment.Installment, error) {
	if number == nil {
		return plan.NextUnpaid(), nil
	}
	inst, ok := lo.Find(plan.Installments, func(i *installment.Installment) bool { return i.Number == *number })
	if !ok {
		return nil, ierr.NewErrorf("installment %d not found", *number).
			WithHintf("The payment plan has %d installments", plan.InstallmentCount).
			Mark(ierr.ErrValidation)
	}
	if inst.IsPaid {
		return nil, ierr.NewErrorf("installment %d already paid", *number).
			WithHintf("Installment %d is already paid", *number).
			Mark(ierr.ErrValidation)
	}
	return inst, nil
}

// coversInstallment reports whether amount settles inst. Paying off the whole
// balance also settles it, which absorbs the rounding of the last installment.
func coversInstallment(amount decimal.Decimal, inst *installment.Installment, pending decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(inst.Amount) || amount.Equal(pending)
}

// onlyIf runs step when cond holds at the point the saga reaches it and
// records in ran whether it did. Undo is skipped for a step that never ran.
func onlyIf(step saga.Step, cond func() bool, ran *bool) saga.Step {
	do, undo := step.Do, step.Undo
	step.Do = func(ctx context.Context) error {
		if !cond() {
			return nil
		}
		if err := do(ctx); err != nil {
			return err
		}
		*ran = true
		return nil
	}
	if undo != nil {
		step.Undo = func(ctx context.Context) error {
			if !*ran {
				return nil
			}
			return undo(ctx)
		}
	}
	return step
}

// unlessDuplicate skips step when the payment recorded before it turned out
// to exist already under the same key
func unlessDuplicate(step saga.Step, p *payment.Payment, stored **payment.Payment) saga.Step {
	do, undo := step.Do, step.Undo
	duplicate := func() bool { return *stored != nil && (*stored).ID != p.ID }
	step.Do = func(ctx context.Context) error {
		if duplicate() {
			return nil
		}
		return do(ctx)
	}
	if undo != nil {
		step.Undo = func(ctx context.Context) error {
			if duplicate() {
				return nil
			}
			return undo(ctx)
		}
	}
	return step
}

// redemption is the ledger debit that pays for p out of store credit
func (s ServiceParams) redemption(p *payment.Payment, base types.BaseModel) *credit.Transaction {
	return &credit.Transaction{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_TRANSACTION),
		MemberID:      p.MemberID,
		Amount:        p.Amount.Neg(),
		Reason:        types.CreditReasonRedemption,
		ReferenceType: types.CreditReferencePayment,
		ReferenceID:   p.ID,
		Description:   "payment " + p.ReceiptNumber,
		IdempotencyKey: s.Idempotency.GenerateKey(idempotency.ScopeCreditPayment, map[string]interface{}{
			"payment_key": p.IdempotencyKey,
		}),
		BaseModel: base,
	}
}

// createPlanStep stores the plan and cancels it on undo
func (s ServiceParams) createPlanStep(plan *installment.Plan) saga.Step {
	return saga.Step{
		Name: "create_payment_plan",
		Do: func(ctx context.Context) error {
			return s.InstallmentRepo.CreatePlan(ctx, plan)
		},
		Undo: func(ctx context.Context) error {
			return s.InstallmentRepo.UpdatePlanStatus(ctx, plan.ID, types.PaymentPlanStatusCancelled)
		},
	}
}

func (s ServiceParams) linkPlanStep(membershipID, planID string) saga.Step {
	return saga.Step{
		Name: "link_payment_plan",
		Do: func(ctx context.Context) error {
			return s.MembershipRepo.LinkPaymentPlan(ctx, membershipID, planID)
		},
		Undo: func(ctx context.Context) error {
			return s.MembershipRepo.LinkPaymentPlan(ctx, membershipID, "")
		},
	}
}

func (s ServiceParams) markInstallmentStep(planID string, number int, paymentID string, paidAt time.Time) saga.Step {
	return saga.Step{
		Name: "mark_installment_paid",
		Do: func(ctx context.Context) error {
			return s.InstallmentRepo.MarkInstallmentPaid(ctx, planID, number, paymentID, paidAt)
		},
		Undo: func(ctx context.Context) error {
			return s.InstallmentRepo.MarkInstallmentUnpaid(ctx, planID, number)
		},
	}
}

func (s ServiceParams) planStatusStep(plan *installment.Plan, status types.PaymentPlanStatus) saga.Step {
	return saga.Step{
		Name: "update_plan_status",
		Do: func(ctx context.Context) error {
			return s.InstallmentRepo.UpdatePlanStatus(ctx, plan.ID, status)
		},
		Undo: func(ctx context.Context) error {
			return s.InstallmentRepo.UpdatePlanStatus(ctx, plan.ID, plan.PlanStatus)
		},
	}
}

func planEvent(ctx context.Context, plan *installment.Plan) types.LifecycleEvent {
	return types.NewLifecycleEvent(ctx, types.EventPaymentPlanCreated, plan.MembershipID, plan.MemberID, map[string]any{
		"payment_plan_id":        plan.ID,
		"installment_count":      plan.InstallmentCount,
		"frequency":              plan.Frequency,
		"per_installment_amount": plan.PerInstallmentAmount.String(),
		"first_due_date":         plan.FirstDueDate,
		"last_due_date":          plan.LastDueDate,
	})
}
