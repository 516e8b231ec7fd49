package installment

import (
	"time"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Plan spreads the unpaid part of a membership over dated installments
type Plan struct {
	ID                   string                     `db:"id" json:"id"`
	MembershipID         string                     `db:"membership_id" json:"membership_id"`
	MemberID             string                     `db:"member_id" json:"member_id"`
	TotalAmount          decimal.Decimal            `db:"total_amount" json:"total_amount" swaggertype:"string"`
	DownPayment          decimal.Decimal            `db:"down_payment" json:"down_payment" swaggertype:"string"`
	RemainingAmount      decimal.Decimal            `db:"remaining_amount" json:"remaining_amount" swaggertype:"string"`
	InstallmentCount     int                        `db:"installment_count" json:"installment_count"`
	Frequency            types.InstallmentFrequency `db:"frequency" json:"frequency"`
	PerInstallmentAmount decimal.Decimal            `db:"per_installment_amount" json:"per_installment_amount" swaggertype:"string"`
	FirstDueDate         time.Time                  `db:"first_due_date" json:"first_due_date"`
	LastDueDate          time.Time                  `db:"last_due_date" json:"last_due_date"`
	PlanStatus           types.PaymentPlanStatus    `db:"plan_status" json:"plan_status"`
	Installments         []*Installment             `db:"-" json:"installments,omitempty"`
	types.BaseModel
}

func (p *Plan) TableName() string {
	return "payment_plans"
}

// Installment is one dated amount of a plan. Numbers start at 1.
type Installment struct {
	ID        string          `db:"id" json:"id"`
	PlanID    string          `db:"payment_plan_id" json:"payment_plan_id"`
	Number    int             `db:"installment_number" json:"installment_number"`
	DueDate   time.Time       `db:"due_date" json:"due_date"`
	Amount    decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	IsPaid    bool            `db:"is_paid" json:"is_paid"`
	PaidAt    *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	PaymentID *string         `db:"payment_id" json:"payment_id,omitempty"`
	types.BaseModel
}

func (i *Installment) TableName() string {
	return "installments"
}

// NewPlan materialises a schedule for a membership.
func NewPlan(s *Schedule, membershipID, memberID string, base types.BaseModel) *Plan {
	plan := &Plan{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_PLAN),
		MembershipID:         membershipID,
		MemberID:             memberID,
		TotalAmount:          s.TotalAmount,
		DownPayment:          s.DownPayment,
		RemainingAmount:      s.RemainingAmount,
		InstallmentCount:     s.InstallmentCount,
		Frequency:            s.Frequency,
		PerInstallmentAmount: s.PerInstallment,
		FirstDueDate:         s.FirstDueDate,
		LastDueDate:          s.LastDueDate,
		PlanStatus:           types.PaymentPlanStatusActive,
		BaseModel:            base,
	}
	for _, si := range s.Installments {
		plan.Installments = append(plan.Installments, &Installment{
			ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
			PlanID:    plan.ID,
			Number:    si.Number,
			DueDate:   si.DueDate,
			Amount:    si.Amount,
			BaseModel: base,
		})
	}
	return plan
}

// NextUnpaid returns the earliest unpaid installment, or nil when the plan is settled.
func (p *Plan) NextUnpaid() *Installment {
	for _, inst := range p.Installments {
		if !inst.IsPaid {
			return inst
		}
	}
	return nil
}
