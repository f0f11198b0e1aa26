package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Envelope is the message published for every event.
type Envelope struct {
	Type       string                 `json:"type"`
	Recipients []int64                `json:"recipients,omitempty"`
	Payload    map[string]interface{} `json:"payload"`
	EmittedAt  time.Time              `json:"emittedAt"`
}

// Publisher is the part of the redis client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes events on a pub/sub channel for other services (push, email).
type RedisSink struct {
	client  Publisher
	channel string
	now     func() time.Time
}

func NewRedisSink(client Publisher, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel, now: time.Now}
}

func (s *RedisSink) Emit(ctx context.Context, eventType string, payload map[string]interface{}) error {
	body, err := json.Marshal(Envelope{
		Type:       eventType,
		Recipients: Recipients(eventType, payload),
		Payload:    payload,
		EmittedAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	if err := s.client.Publish(ctx, s.channel, body).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}
