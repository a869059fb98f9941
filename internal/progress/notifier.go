package progress

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notifier is told after any statistics mutation is persisted, so UI surfaces
// can refresh without polling. Delivery is best effort; the store never fails
// an operation because a notification could not be sent.
type Notifier interface {
	StatsChanged(ctx context.Context, userID uuid.UUID, stats Stats)
}

// RedisNotifier publishes stats updates on the per-user pub/sub channel the
// websocket hub subscribes to.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) StatsChanged(ctx context.Context, userID uuid.UUID, stats Stats) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    "stats_update",
		"payload": stats,
	})
	if err != nil {
		return
	}

	if err := n.client.Publish(ctx, "user_updates:"+userID.String(), payload).Err(); err != nil {
		log.Printf("progress: failed to publish stats update for user %s: %v", userID, err)
	}
}
