package safety

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mindease/backend/internal/model/chat"
)

// RedisNotifier publishes alerts as JSON on a Redis pub/sub channel.
type RedisNotifier struct {
	client  redis.Cmdable
	channel string
}

// NewRedisNotifier publishes on channel through client.
func NewRedisNotifier(client redis.Cmdable, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes the alert as JSON on the configured channel.
func (n *RedisNotifier) Notify(ctx context.Context, alert chat.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert to %s: %w", n.channel, err)
	}
	return nil
}
