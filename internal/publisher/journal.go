package publisher

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/types"
)

// Journal consumes lifecycle events and writes them to the structured log,
// one line per event, so operators can follow membership activity.
type Journal struct {
	logger *logger.Logger
}

func NewJournal(logger *logger.Logger) *Journal {
	return &Journal{logger: logger}
}

// Handle is a watermill no-publish handler
func (j *Journal) Handle(msg *message.Message) error {
	var event types.LifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// a payload that does not decode will never decode, drop it
		j.logger.Errorw("dropping undecodable lifecycle event",
			"message_uuid", msg.UUID,
			"error", err,
		)
		return nil
	}
	if event.EventName == "" {
		return ierr.NewError("lifecycle event has no name").
			WithReportableDetails(map[string]any{"message_uuid": msg.UUID}).
			Mark(ierr.ErrValidation)
	}

	j.logger.Infow("membership lifecycle",
		"event_id", event.ID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
		"user_id", event.UserID,
		"membership_id", event.MembershipID,
		"member_id", event.MemberID,
		"timestamp", event.Timestamp,
	)
	return nil
}
