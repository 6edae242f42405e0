package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OrderChannel là kênh Redis mà websocket của một đơn hàng subscribe
func OrderChannel(link string) string {
	return "order:" + link
}

// RedisPublisher đẩy trạng thái đơn hàng tới client đang mở websocket
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.Link == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	return p.client.Publish(ctx, OrderChannel(ev.Link), body).Err()
}
