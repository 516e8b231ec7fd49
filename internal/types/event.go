package types

import (
	"context"
	"encoding/json"
	"time"
)

// LifecycleEvent is a completion signal emitted by a successful lifecycle
// operation. Services return events and the caller decides where they go.
type LifecycleEvent struct {
	ID           string          `json:"id"`
	EventName    string          `json:"event_name"`
	TenantID     string          `json:"tenant_id"`
	UserID       string          `json:"user_id"`
	MembershipID string          `json:"membership_id,omitempty"`
	MemberID     string          `json:"member_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// NewLifecycleEvent builds an event scoped to the tenant and actor in ctx.
// A payload that fails to marshal is dropped, the event itself is kept.
func NewLifecycleEvent(ctx context.Context, name, membershipID, memberID string, payload any) LifecycleEvent {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	return LifecycleEvent{
		ID:           GenerateUUIDWithPrefix(UUID_PREFIX_LIFECYCLE_EVENT),
		EventName:    name,
		TenantID:     GetTenantID(ctx),
		UserID:       GetUserID(ctx),
		MembershipID: membershipID,
		MemberID:     memberID,
		Timestamp:    time.Now().UTC(),
		Payload:      raw,
	}
}

// membership event names
const (
	EventMembershipPurchased   = "membership.purchased"
	EventMembershipActivated   = "membership.activated"
	EventMembershipUpgraded    = "membership.upgraded"
	EventMembershipDowngraded  = "membership.downgraded"
	EventMembershipTransferred = "membership.transferred"
	EventMembershipFrozen      = "membership.frozen"
	EventMembershipUnfrozen    = "membership.unfrozen"
	EventMembershipSuspended   = "membership.suspended"
	EventMembershipReactivated = "membership.reactivated"
	EventMembershipCancelled   = "membership.cancelled"
	EventMembershipExpired     = "membership.expired"
	EventMembershipTrainer     = "membership.trainer_changed"
)

// money event names
const (
	EventPaymentRecorded      = "payment.recorded"
	EventPaymentPlanCreated   = "payment_plan.created"
	EventInstallmentPaid      = "payment_plan.installment_paid"
	EventCreditIssued         = "credit.issued"
	EventCreditRedeemed       = "credit.redeemed"
	EventTrainerEarningLogged = "trainer_earning.recorded"
)

// session event names
const (
	EventSessionScheduled  = "session.scheduled"
	EventSessionCompleted  = "session.completed"
	EventSessionCancelled  = "session.cancelled"
	EventSessionReassigned = "session.reassigned"
)

// PubSubType defines the type of pubsub implementation
type PubSubType string

const (
	// MemoryPubSub uses in-memory implementation
	MemoryPubSub PubSubType = "memory"
)
