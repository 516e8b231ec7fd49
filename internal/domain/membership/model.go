package membership

import (
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Membership is one member's entitlement to a package for a period.
// Memberships are never deleted, closed ones stay for history.
type Membership struct {
	ID                      string                 `db:"id" json:"id"`
	MemberID                string                 `db:"member_id" json:"member_id"`
	PackageID               string                 `db:"package_id" json:"package_id"`
	OriginalMembershipID    *string                `db:"original_membership_id" json:"original_membership_id,omitempty"`
	TrainerID               *string                `db:"trainer_id" json:"trainer_id,omitempty"`
	StartDate               time.Time              `db:"start_date" json:"start_date"`
	EndDate                 time.Time              `db:"end_date" json:"end_date"`
	ActualEndDate           *time.Time             `db:"actual_end_date" json:"actual_end_date,omitempty"`
	MembershipStatus        types.MembershipStatus `db:"membership_status" json:"membership_status"`
	StatusReason            string                 `db:"status_reason" json:"status_reason,omitempty"`
	OriginalAmount          decimal.Decimal        `db:"original_amount" json:"original_amount" swaggertype:"string"`
	TotalAmountDue          decimal.Decimal        `db:"total_amount_due" json:"total_amount_due" swaggertype:"string"`
	AmountPaid              decimal.Decimal        `db:"amount_paid" json:"amount_paid" swaggertype:"string"`
	AmountPending           decimal.Decimal        `db:"amount_pending" json:"amount_pending" swaggertype:"string"`
	FreezeStartDate         *time.Time             `db:"freeze_start_date" json:"freeze_start_date,omitempty"`
	FreezeEndDate           *time.Time             `db:"freeze_end_date" json:"freeze_end_date,omitempty"`
	FreezeReason            string                 `db:"freeze_reason" json:"freeze_reason,omitempty"`
	FreezeDaysUsed          int                    `db:"freeze_days_used" json:"freeze_days_used"`
	PTSessionsRemaining     int                    `db:"pt_sessions_remaining" json:"pt_sessions_remaining"`
	PTSessionsUsed          int                    `db:"pt_sessions_used" json:"pt_sessions_used"`
	PaymentPlanID           *string                `db:"payment_plan_id" json:"payment_plan_id,omitempty"`
	TransferredToMemberID   *string                `db:"transferred_to_member_id" json:"transferred_to_member_id,omitempty"`
	TransferredFromMemberID *string                `db:"transferred_from_member_id" json:"transferred_from_member_id,omitempty"`
	types.BaseModel
}

func (m *Membership) TableName() string {
	return "memberships"
}

// Validate checks the record invariants. It runs on every create and after
// every write that touches the amounts.
func (m *Membership) Validate() error {
	if m.MemberID == "" || m.PackageID == "" {
		return ierr.NewError("membership is missing member or package").
			WithHint("Member and package are required").
			Mark(ierr.ErrValidation)
	}
	if err := m.MembershipStatus.Validate(); err != nil {
		return err
	}
	if !m.EndDate.After(m.StartDate) {
		return ierr.NewError("membership ends before it starts").
			WithHint("Membership end date must be after its start date").
			WithReportableDetails(map[string]any{
				"start_date": m.StartDate,
				"end_date":   m.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	if m.AmountPaid.IsNegative() || m.AmountPending.IsNegative() || m.TotalAmountDue.IsNegative() {
		return ierr.NewError("membership amounts cannot be negative").
			WithHint("Paid, pending and total amounts must be zero or more").
			WithReportableDetails(m.amountDetails()).
			Mark(ierr.ErrValidation)
	}
	if !m.AmountPaid.Add(m.AmountPending).Equal(m.TotalAmountDue) {
		return ierr.NewError("membership amounts do not balance").
			WithHint("Amount paid plus amount pending must equal the total amount due").
			WithReportableDetails(m.amountDetails()).
			Mark(ierr.ErrValidation)
	}
	if m.PTSessionsRemaining < 0 || m.PTSessionsUsed < 0 {
		return ierr.NewError("session counters cannot be negative").
			WithHint("No personal training sessions left on this membership").
			WithReportableDetails(map[string]any{
				"pt_sessions_remaining": m.PTSessionsRemaining,
				"pt_sessions_used":      m.PTSessionsUsed,
			}).
			Mark(ierr.ErrValidation)
	}
	if m.FreezeDaysUsed < 0 {
		return ierr.NewError("freeze days cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (m *Membership) amountDetails() map[string]any {
	return map[string]any{
		"total_amount_due": m.TotalAmountDue.String(),
		"amount_paid":      m.AmountPaid.String(),
		"amount_pending":   m.AmountPending.String(),
	}
}

// RemainingDays is the number of days left on the membership at date,
// never negative.
func (m *Membership) RemainingDays(at time.Time) int {
	days := types.DaysBetween(at, m.EndDate)
	if days < 0 {
		return 0
	}
	if total := types.DaysBetween(m.StartDate, m.EndDate); days > total {
		return total
	}
	return days
}

func (m *Membership) TrainerIDValue() string {
	if m.TrainerID == nil {
		return ""
	}
	return *m.TrainerID
}

// Patch updates the non counter fields of a membership. Nil fields are left
// untouched. Empty strings clear nullable id columns.
type Patch struct {
	Status                *types.MembershipStatus
	StatusReason          *string
	ActualEndDate         *time.Time
	ClearActualEndDate    bool
	FreezeStartDate       *time.Time
	FreezeEndDate         *time.Time
	ClearFreezeDates      bool
	FreezeReason          *string
	TrainerID             *string
	TransferredToMemberID *string
}

// Apply writes the patch onto m.
func (p Patch) Apply(m *Membership) {
	if p.Status != nil {
		m.MembershipStatus = *p.Status
	}
	if p.StatusReason != nil {
		m.StatusReason = *p.StatusReason
	}
	if p.ClearActualEndDate {
		m.ActualEndDate = nil
	}
	if p.ActualEndDate != nil {
		d := types.Date(*p.ActualEndDate)
		m.ActualEndDate = &d
	}
	if p.ClearFreezeDates {
		m.FreezeStartDate = nil
		m.FreezeEndDate = nil
	}
	if p.FreezeStartDate != nil {
		d := types.Date(*p.FreezeStartDate)
		m.FreezeStartDate = &d
	}
	if p.FreezeEndDate != nil {
		d := types.Date(*p.FreezeEndDate)
		m.FreezeEndDate = &d
	}
	if p.FreezeReason != nil {
		m.FreezeReason = *p.FreezeReason
	}
	if p.TrainerID != nil {
		m.TrainerID = nullableID(*p.TrainerID)
	}
	if p.TransferredToMemberID != nil {
		m.TransferredToMemberID = nullableID(*p.TransferredToMemberID)
	}
}

// RestorePatch returns the patch that puts every patchable field back to
// its value on prev.
func RestorePatch(prev *Membership) Patch {
	p := Patch{
		Status:                &prev.MembershipStatus,
		StatusReason:          &prev.StatusReason,
		ActualEndDate:         prev.ActualEndDate,
		ClearActualEndDate:    prev.ActualEndDate == nil,
		FreezeStartDate:       prev.FreezeStartDate,
		FreezeEndDate:         prev.FreezeEndDate,
		ClearFreezeDates:      prev.FreezeStartDate == nil && prev.FreezeEndDate == nil,
		FreezeReason:          &prev.FreezeReason,
		TrainerID:             stringValue(prev.TrainerID),
		TransferredToMemberID: stringValue(prev.TransferredToMemberID),
	}
	return p
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func stringValue(s *string) *string {
	v := ""
	if s != nil {
		v = *s
	}
	return &v
}

// AmountDelta is added to the stored amounts. Paid plus pending must still
// equal the total afterwards.
type AmountDelta struct {
	Paid    decimal.Decimal
	Pending decimal.Decimal
	Total   decimal.Decimal
}

// Neg returns the delta that undoes d.
func (d AmountDelta) Neg() AmountDelta {
	return AmountDelta{Paid: d.Paid.Neg(), Pending: d.Pending.Neg(), Total: d.Total.Neg()}
}

// PaymentDelta moves amount from pending to paid.
func PaymentDelta(amount decimal.Decimal) AmountDelta {
	return AmountDelta{Paid: amount, Pending: amount.Neg(), Total: decimal.Zero}
}
