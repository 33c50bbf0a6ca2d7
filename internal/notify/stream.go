package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher publishes alerts as Redis stream entries. Downstream
// consumers (email bridge, pager, bot) read the stream independently.
// XADD returns the broker-assigned entry ID, which serves as message_id.
type RedisStreamPublisher struct {
	rdb    *redis.Client
	stream string
}

func NewRedisStreamPublisher(rdb *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{rdb: rdb, stream: stream}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, subject, message string) (string, error) {
	id, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"subject": subject,
			"message": message,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publish to stream %s: %w", p.stream, err)
	}
	return id, nil
}
