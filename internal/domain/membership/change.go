package membership

import (
	"time"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
)

// Change is the immutable audit row of one membership transition
type Change struct {
	ID               string           `db:"id" json:"id"`
	FromMembershipID string           `db:"from_membership_id" json:"from_membership_id"`
	ToMembershipID   *string          `db:"to_membership_id" json:"to_membership_id,omitempty"`
	ChangeType       types.ChangeType `db:"change_type" json:"change_type"`
	ChangeDate       time.Time        `db:"change_date" json:"change_date"`
	AmountDifference decimal.Decimal  `db:"amount_difference" json:"amount_difference" swaggertype:"string"`
	RemainingDays    int              `db:"remaining_days" json:"remaining_days"`
	ProratedAmount   decimal.Decimal  `db:"prorated_amount" json:"prorated_amount" swaggertype:"string"`
	Reason           string           `db:"reason" json:"reason"`
	types.BaseModel
}

func (c *Change) TableName() string {
	return "membership_changes"
}

// NewChange returns a change row with a fresh id and zero amounts.
func NewChange(from *Membership, changeType types.ChangeType, changeDate time.Time, reason string, base types.BaseModel) *Change {
	return &Change{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP_CHANGE),
		FromMembershipID: from.ID,
		ChangeType:       changeType,
		ChangeDate:       types.Date(changeDate),
		AmountDifference: decimal.Zero,
		ProratedAmount:   decimal.Zero,
		Reason:           reason,
		BaseModel:        base,
	}
}
