package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-escrow-service/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// EventPublisher implements ports.EventPublisher on Redis pub/sub.
// Delivery is at-most-once; the auction core treats publish failures
// as non-fatal.
type EventPublisher struct {
	client  *goredis.Client
	channel string
}

// NewEventPublisher creates a new Redis-backed event publisher.
func NewEventPublisher(client *goredis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// PublishBidAccepted publishes a bid-accepted event as JSON.
func (p *EventPublisher) PublishBidAccepted(ctx context.Context, event *domain.BidAccepted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal bid-accepted event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish bid-accepted event: %w", err)
	}
	return nil
}
