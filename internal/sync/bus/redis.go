package bus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBus carries broadcasts across processes over one Redis pub/sub
// channel. Used when operator sessions run as separate processes on the same
// workstation or share a site-local Redis.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if channel == "" {
		channel = "paygate.broadcast"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe consumes the channel until unsubscribed or ctx is done.
func (b *RedisBus) Subscribe(ctx context.Context, handler Handler) (func(), error) {
	sub := b.client.Subscribe(ctx, b.channel)
	// Force the subscription to be established before returning so callers
	// never miss messages published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for raw := range sub.Channel() {
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				b.logger.Warn("malformed broadcast dropped", "error", err)
				continue
			}
			handler(msg)
		}
	}()

	return func() { _ = sub.Close() }, nil
}
