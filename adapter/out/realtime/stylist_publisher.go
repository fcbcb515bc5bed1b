package realtime

import (
	"context"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
)

// Publisher adapts a RealtimePort to the fire-and-forget EventPublisher used by services.
type Publisher struct {
	port out.RealtimePort
	now  func() time.Time
}

func NewPublisher(port out.RealtimePort) *Publisher {
	return &Publisher{port: port, now: time.Now}
}

var _ out.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Emit(ctx context.Context, eventType domain.EventType, payload interface{}) error {
	return p.port.Broadcast(ctx, p.event(eventType, payload))
}

func (p *Publisher) EmitTo(ctx context.Context, userID string, eventType domain.EventType, payload interface{}) error {
	return p.port.Push(ctx, userID, p.event(eventType, payload))
}

func (p *Publisher) event(eventType domain.EventType, payload interface{}) *domain.RealtimeEvent {
	return &domain.RealtimeEvent{
		Type:      eventType,
		Data:      payload,
		Timestamp: p.now().UTC(),
	}
}

// NopPublisher drops every event. It stands in when no push channel is configured.
type NopPublisher struct{}

var _ out.EventPublisher = NopPublisher{}

func (NopPublisher) Emit(context.Context, domain.EventType, interface{}) error { return nil }

func (NopPublisher) EmitTo(context.Context, string, domain.EventType, interface{}) error {
	return nil
}
