package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBus_DeliversToAllSubscribers(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBus()

	var first, second []Message
	unsubFirst, err := b.Subscribe(ctx, func(m Message) { first = append(first, m) })
	require.NoError(t, err)
	defer unsubFirst()
	unsubSecond, err := b.Subscribe(ctx, func(m Message) { second = append(second, m) })
	require.NoError(t, err)
	defer unsubSecond()

	require.NoError(t, b.Publish(ctx, Message{Type: TypeNewRequest, SenderID: "session-a"}))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "session-a", first[0].SenderID)
}

func TestInMemoryBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBus()

	var got []Message
	unsub, err := b.Subscribe(ctx, func(m Message) { got = append(got, m) })
	require.NoError(t, err)
	unsub()

	require.NoError(t, b.Publish(ctx, Message{Type: TypeRefresh, SenderID: "x"}))
	assert.Empty(t, got)
}
