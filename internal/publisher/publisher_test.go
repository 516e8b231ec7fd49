package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/flexgym/internal/config"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/pubsub/memory"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversEvents(t *testing.T) {
	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	ps := memory.NewPubSub(cfg, log)
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := ps.Subscribe(ctx, cfg.Event.Topic)
	require.NoError(t, err)

	pub := NewLifecycleEventPublisher(ps, cfg, log)
	ctx = types.SetTenantID(ctx, "gym_1")
	event := types.NewLifecycleEvent(ctx, types.EventMembershipFrozen, "mbr_1", "mem_1", map[string]int{"days": 10})
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "gym_1", msg.Metadata.Get("tenant_id"))

		var got types.LifecycleEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, types.EventMembershipFrozen, got.EventName)
		assert.Equal(t, "mbr_1", got.MembershipID)
		assert.JSONEq(t, `{"days":10}`, string(got.Payload))
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestPublishDisabledIsNoop(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Event.Enabled = false
	log := logger.NewNopLogger()
	ps := memory.NewPubSub(cfg, log)
	defer ps.Close()

	pub := NewLifecycleEventPublisher(ps, cfg, log)
	assert.NoError(t, pub.Publish(context.Background(), types.NewLifecycleEvent(context.Background(), types.EventMembershipCancelled, "mbr_1", "mem_1", nil)))
}

func TestJournalHandle(t *testing.T) {
	j := NewJournal(logger.NewNopLogger())

	event := types.NewLifecycleEvent(context.Background(), types.EventMembershipUpgraded, "mbr_1", "mem_1", nil)
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	assert.NoError(t, j.Handle(message.NewMessage(event.ID, payload)))
	assert.NoError(t, j.Handle(message.NewMessage("bad", []byte("not json"))))
	assert.Error(t, j.Handle(message.NewMessage("empty", []byte(`{"id":"x"}`))))
}
