package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/goroutine"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

// EventTypeSubscriptionUpdated is the only event type on the channel.
const EventTypeSubscriptionUpdated = "subscription_updated"

// SubscriptionUpdatedEvent is the payload delivered to the notifier. Keys
// are camelCase because browser clients consume it unchanged.
type SubscriptionUpdatedEvent struct {
	Type           string    `json:"type"`
	TenantID       string    `json:"tenantId"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	FromStatus     string    `json:"fromStatus,omitempty"`
	SubscriptionID uint      `json:"subscriptionId,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

// NewSubscriptionUpdatedEvent converts a committed status change into the
// notifier payload.
func NewSubscriptionUpdatedEvent(e *subscription.StatusChangedEvent) SubscriptionUpdatedEvent {
	return SubscriptionUpdatedEvent{
		Type:           EventTypeSubscriptionUpdated,
		TenantID:       e.TenantID,
		Status:         e.ToStatus.String(),
		Timestamp:      e.Timestamp.UTC(),
		FromStatus:     e.FromStatus.String(),
		SubscriptionID: e.SubscriptionID,
		Reason:         e.Reason,
	}
}

// SubscriptionEventHandler is a callback function for handling subscription events
type SubscriptionEventHandler func(ctx context.Context, event SubscriptionUpdatedEvent)

// RedisSubscriptionEventBus publishes status changes on a Redis channel and
// lets the notifier side subscribe to them.
type RedisSubscriptionEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

func NewRedisSubscriptionEventBus(client *redis.Client, logger logger.Interface) *RedisSubscriptionEventBus {
	return &RedisSubscriptionEventBus{
		client:  client,
		channel: constants.RedisChannelSubscriptionUpdated,
		logger:  logger,
	}
}

// PublishStatusChanged publishes one committed status change.
func (b *RedisSubscriptionEventBus) PublishStatusChanged(ctx context.Context, e *subscription.StatusChangedEvent) error {
	event := NewSubscriptionUpdatedEvent(e)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish subscription updated event",
			"tenant_id", event.TenantID,
			"subscription_id", event.SubscriptionID,
			"status", event.Status,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("subscription updated event published",
		"tenant_id", event.TenantID,
		"subscription_id", event.SubscriptionID,
		"from_status", event.FromStatus,
		"status", event.Status,
	)
	return nil
}

// Subscribe blocks until ctx is done, reconnecting with exponential backoff
// when the connection drops. Handlers run in their own goroutine.
func (b *RedisSubscriptionEventBus) Subscribe(ctx context.Context, handler SubscriptionEventHandler) error {
	return b.listen(ctx, handler, false)
}

// SubscribeOrdered is Subscribe with the handler called on the receiving
// goroutine, one event at a time in publish order. A slow handler holds up
// delivery.
func (b *RedisSubscriptionEventBus) SubscribeOrdered(ctx context.Context, handler SubscriptionEventHandler) error {
	return b.listen(ctx, handler, true)
}

func (b *RedisSubscriptionEventBus) listen(ctx context.Context, handler SubscriptionEventHandler, ordered bool) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, handler, ordered)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("subscription event stream disconnected, reconnecting",
			"channel", b.channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisSubscriptionEventBus) subscribe(ctx context.Context, handler SubscriptionEventHandler, ordered bool) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", b.channel, err)
	}

	b.logger.Infow("subscribed to subscription events", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("subscription event subscriber stopped",
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("channel %s closed", b.channel)
			}

			var event SubscriptionUpdatedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal subscription event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}

			if ordered {
				b.dispatch(handler, event)
				continue
			}
			goroutine.SafeGo(b.logger, "subscription-event-handler", func() {
				handler(context.Background(), event)
			})
		}
	}
}

func (b *RedisSubscriptionEventBus) dispatch(handler SubscriptionEventHandler, event SubscriptionUpdatedEvent) {
	defer goroutine.Recover(b.logger, "subscription-event-handler")
	handler(context.Background(), event)
}
