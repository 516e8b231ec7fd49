package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/flexgym/internal/config"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/pubsub"
	"github.com/flexprice/flexgym/internal/types"
)

// LifecycleEventPublisher sends the completion signals returned by the
// lifecycle services to the event bus
type LifecycleEventPublisher interface {
	Publish(ctx context.Context, events ...types.LifecycleEvent) error
}

type lifecyclePublisher struct {
	pubSub pubsub.PubSub
	config *config.EventConfig
	logger *logger.Logger
}

// NewLifecycleEventPublisher creates a new publisher on top of pubSub
func NewLifecycleEventPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) LifecycleEventPublisher {
	return &lifecyclePublisher{
		pubSub: pubSub,
		config: &cfg.Event,
		logger: logger,
	}
}

// Publish sends every event and returns the first failure. A failed event
// does not stop the remaining ones.
func (p *lifecyclePublisher) Publish(ctx context.Context, events ...types.LifecycleEvent) error {
	if !p.config.Enabled {
		return nil
	}

	var firstErr error
	for _, event := range events {
		if err := p.publishOne(ctx, event); err != nil {
			p.logger.Errorw("failed to publish lifecycle event",
				"error", err,
				"event_id", event.ID,
				"event_name", event.EventName,
				"membership_id", event.MembershipID,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *lifecyclePublisher) publishOne(ctx context.Context, event types.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to marshal lifecycle event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("event_name", event.EventName)

	p.logger.Debugw("publishing lifecycle event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"topic", p.config.Topic,
	)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		return ierr.WithError(err).
			WithMessage("failed to publish lifecycle event").
			Mark(ierr.ErrSystem)
	}
	return nil
}
