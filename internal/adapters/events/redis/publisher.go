// Package redis publishes session events on Redis pub/sub channels, one
// channel per session code. Delivery to clients happens elsewhere.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client, prefix string) ports.EventPublisher {
	if prefix == "" {
		prefix = "planningpoker"
	}
	return &Publisher{client: client, prefix: prefix}
}

// Channel returns the channel that carries events of one session.
func Channel(prefix, code string) string {
	return fmt.Sprintf("%s:session:%s", prefix, code)
}

func (p *Publisher) Publish(ctx context.Context, event domain.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(p.prefix, event.SessionCode), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
