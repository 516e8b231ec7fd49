package service

import (
	"context"

	"github.com/flexprice/flexgym/internal/api/dto"
	"github.com/flexprice/flexgym/internal/domain/commission"
	"github.com/flexprice/flexgym/internal/domain/credit"
	"github.com/flexprice/flexgym/internal/domain/member"
	"github.com/flexprice/flexgym/internal/domain/membership"
	"github.com/flexprice/flexgym/internal/domain/payment"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/idempotency"
	"github.com/flexprice/flexgym/internal/saga"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Transfer hands the days left on a membership to another member, existing or
// created on the spot. The fee is retained out of what the source member paid
// and added to what the destination owes, the rest of the source payment goes
// to the source member's credit balance.
func (s *lifecycleService) Transfer(ctx context.Context, id string, req dto.TransferMembershipRequest) (*dto.LifecycleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	source, err := s.loadMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	closedStatus, err := membership.NextStatus(source.MembershipStatus, types.MembershipActionTransfer)
	if err != nil {
		return nil, err
	}

	base := types.GetDefaultBaseModel(ctx)

	var destination *member.Member
	newMember := req.NewMember != nil
	if newMember {
		destination = member.FromProfile(req.NewMember, base)
	} else {
		if req.ToMemberID == source.MemberID {
			return nil, ierr.NewError("transfer to the same member").
				WithHint("A membership cannot be transferred to the member who holds it").
				Mark(ierr.ErrValidation)
		}
		destination, err = s.loadMember(ctx, req.ToMemberID)
		if err != nil {
			return nil, err
		}
	}

	effective := dateOrToday(req.EffectiveDate)
	remainingDays := source.RemainingDays(effective)
	if remainingDays == 0 {
		return nil, ierr.NewError("no days left to transfer").
			WithHintf("Membership has no days left on %s", effective.Format("2006-01-02")).
			WithReportableDetails(map[string]any{
				"membership_id": source.ID,
				"end_date":      source.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}

	fee := req.TransferFee.Round(2)
	owed := decimal.Max(decimal.Zero, source.AmountPending.Add(fee))
	successor := &membership.Membership{
		ID:                      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP),
		MemberID:                destination.ID,
		PackageID:               source.PackageID,
		OriginalMembershipID:    lo.ToPtr(source.ID),
		StartDate:               effective,
		EndDate:                 types.AddDays(effective, remainingDays),
		MembershipStatus:        types.MembershipStatusActive,
		OriginalAmount:          source.OriginalAmount,
		TotalAmountDue:          owed,
		AmountPaid:              decimal.Zero,
		AmountPending:           owed,
		PTSessionsRemaining:     source.PTSessionsRemaining,
		TransferredFromMemberID: lo.ToPtr(source.MemberID),
		BaseModel:               base,
	}

	change := membership.NewChange(source, types.MembershipActionTransfer, effective, req.Reason, base)
	change.ToMembershipID = lo.ToPtr(successor.ID)
	change.AmountDifference = fee
	change.RemainingDays = remainingDays
	change.ProratedAmount = source.AmountPaid

	var steps []saga.Step
	if newMember {
		steps = append(steps, saga.Step{
			Name: "create_member",
			Do: func(ctx context.Context) error {
				_, err := s.MemberRepo.CreateIdentity(ctx, destination)
				return err
			},
			Undo: func(ctx context.Context) error {
				return s.MemberRepo.Archive(ctx, destination.ID)
			},
		})
	}

	var closed *membership.Membership
	steps = append(steps,
		s.updateStep("close_source", source, membership.Patch{
			Status:                lo.ToPtr(closedStatus),
			StatusReason:          lo.ToPtr(req.Reason),
			ActualEndDate:         lo.ToPtr(effective),
			TransferredToMemberID: lo.ToPtr(destination.ID),
		}, &closed),
		s.createMembershipStep("create_successor", successor),
	)

	// a suspended source no longer holds its member once it is transferred
	memberStep, err := s.restoreMemberStatus(ctx, source)
	if err != nil {
		return nil, err
	}
	if memberStep != nil {
		steps = append(steps, *memberStep)
	}

	var feePayment *payment.Payment
	if fee.IsPositive() {
		p := &payment.Payment{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			MemberID:      source.MemberID,
			MembershipID:  source.ID,
			Amount:        fee,
			PaymentType:   types.PaymentTypeTransferFee,
			PaymentMethod: lo.Ternary(req.FeeMethod != "", req.FeeMethod, types.PaymentMethodCash),
			PaymentDate:   effective,
			ReceiptNumber: s.receiptNumber(),
			IdempotencyKey: s.Idempotency.GenerateKey(idempotency.ScopeTransferFee, map[string]interface{}{
				"membership_id": source.ID,
			}),
			Notes:     "transfer to " + successor.ID,
			BaseModel: base,
		}
		steps = append(steps, s.paymentStep("record_transfer_fee", p, &feePayment))
	}

	var surplusCredit *credit.Transaction
	if surplus := source.AmountPaid.Sub(fee); surplus.IsPositive() {
		t := &credit.Transaction{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_TRANSACTION),
			MemberID:      source.MemberID,
			Amount:        surplus,
			Reason:        types.CreditReasonTransferSurplus,
			ReferenceType: types.CreditReferenceMembership,
			ReferenceID:   source.ID,
			Description:   surplusDescription(types.MembershipActionTransfer, source, surplus),
			IdempotencyKey: s.Idempotency.GenerateKey(idempotency.ScopeTransferSurplus, map[string]interface{}{
				"membership_id": source.ID,
			}),
			BaseModel: base,
		}
		steps = append(steps, s.creditStep("credit_surplus", t, &surplusCredit))
	}

	steps = append(steps, s.changeStep(change))

	var previousRule *commission.Rule
	if source.TrainerID != nil {
		steps = append(steps, s.closeRuleStep(source, effective, &previousRule))
	}

	warnings, err := s.runSaga(ctx, string(types.MembershipActionTransfer), steps)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("membership transferred",
		"membership_id", source.ID,
		"successor_id", successor.ID,
		"from_member_id", source.MemberID,
		"to_member_id", destination.ID,
		"new_member", newMember,
		"remaining_days", remainingDays,
		"transfer_fee", fee.String(),
	)

	payload := amountsPayload(successor)
	payload["successor_id"] = successor.ID
	payload["to_member_id"] = destination.ID
	payload["remaining_days"] = remainingDays
	events := []types.LifecycleEvent{membershipEvent(ctx, types.EventMembershipTransferred, source, payload)}
	if feePayment != nil {
		events = append(events, paymentEvent(ctx, feePayment))
	}
	if surplusCredit != nil {
		events = append(events, creditEvent(ctx, surplusCredit, source.ID))
	}

	return &dto.LifecycleResponse{
		Source:    dto.NewMembershipResponse(closed),
		Successor: dto.NewMembershipResponse(successor),
		Change:    change,
		Credit:    surplusCredit,
		Payment:   feePayment,
		Events:    events,
		Warnings:  warnings,
	}, nil
}
