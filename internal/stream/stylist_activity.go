package stream

import (
	"context"
	"fmt"
	"time"

	"stylist_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ActivityType names a shopper action that moves the recommendation funnel.
type ActivityType string

const (
	ActivityOrderPlaced     ActivityType = "order.placed"
	ActivityCartUpdated     ActivityType = "cart.updated"
	ActivityWishlistUpdated ActivityType = "wishlist.updated"
	ActivitySuggestionSaved ActivityType = "suggestion.saved"
)

// ActivityEvent is published by the order, cart and wishlist services.
type ActivityEvent struct {
	Type       ActivityType `json:"type"`
	UserID     string       `json:"userId,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

func (t ActivityType) valid() bool {
	switch t {
	case ActivityOrderPlaced, ActivityCartUpdated, ActivityWishlistUpdated, ActivitySuggestionSaved:
		return true
	}
	return false
}

// Validate checks an event before it is published.
func (e ActivityEvent) Validate() error {
	if e.Type == "" {
		return apperr.MissingField("type")
	}
	if !e.Type.valid() {
		return apperr.BadRequest("unknown activity type").WithDetail("type", string(e.Type))
	}
	return nil
}

// MetricsTrigger schedules a recomputation of the funnel.
type MetricsTrigger interface {
	Trigger()
}

// ActivityConsumer turns activity events into metrics triggers. The
// broadcaster debounces, so bursts collapse into one recomputation.
type ActivityConsumer struct {
	stream   *RedisStream
	trigger  MetricsTrigger
	consumer string
	log      zerolog.Logger
}

func NewActivityConsumer(stream *RedisStream, trigger MetricsTrigger, consumer string, log zerolog.Logger) *ActivityConsumer {
	return &ActivityConsumer{
		stream:   stream,
		trigger:  trigger,
		consumer: consumer,
		log:      log.With().Str("component", "activity_consumer").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (c *ActivityConsumer) Run(ctx context.Context) error {
	if err := c.stream.CreateGroup(ctx, StreamActivity); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.log.Info().Str("stream", StreamActivity).Str("consumer", c.consumer).Msg("starting activity consumer")
	c.stream.Consume(ctx, StreamActivity, c.consumer, c.Handle)
	return ctx.Err()
}

// Handle processes one message. Unknown event types are acknowledged and
// ignored; malformed payloads are left pending.
func (c *ActivityConsumer) Handle(id string, data []byte) error {
	var event ActivityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode activity %s: %w", id, err)
	}
	if !event.Type.valid() {
		c.log.Debug().Str("id", id).Str("type", string(event.Type)).Msg("ignoring activity")
		return nil
	}
	c.trigger.Trigger()
	return nil
}
