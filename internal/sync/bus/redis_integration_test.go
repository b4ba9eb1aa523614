//go:build integration

package bus_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/sync/bus"
	"paygate/pkg/testutil/containers"
)

func TestRedisBus_CrossProcessDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redis := containers.NewRedisContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	// Two buses over the same channel stand in for two sessions on two
	// machines.
	publisher := bus.NewRedisBus(redis.Client, "paygate.broadcast", logger)
	subscriberBus := bus.NewRedisBus(redis.Client, "paygate.broadcast", logger)

	received := make(chan bus.Message, 1)
	unsub, err := subscriberBus.Subscribe(ctx, func(msg bus.Message) { received <- msg })
	require.NoError(t, err)
	defer unsub()

	payload, _ := json.Marshal(map[string]string{"id": "req-1"})
	require.NoError(t, publisher.Publish(ctx, bus.Message{
		Type: bus.TypeNewRequest, Payload: payload, SenderID: "session-a",
	}))

	select {
	case msg := <-received:
		assert.Equal(t, bus.TypeNewRequest, msg.Type)
		assert.Equal(t, "session-a", msg.SenderID)
		assert.JSONEq(t, string(payload), string(msg.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast not delivered")
	}
}

func TestRedisBus_UnsubscribeStopsDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redis := containers.NewRedisContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	b := bus.NewRedisBus(redis.Client, "paygate.broadcast", logger)

	received := make(chan bus.Message, 4)
	unsub, err := b.Subscribe(ctx, func(msg bus.Message) { received <- msg })
	require.NoError(t, err)
	unsub()

	require.NoError(t, b.Publish(ctx, bus.Message{Type: bus.TypeRefresh, SenderID: "session-a"}))

	select {
	case <-received:
		t.Fatal("message delivered after unsubscribe")
	case <-time.After(500 * time.Millisecond):
	}
}
