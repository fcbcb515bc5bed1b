package out

import (
	"context"

	"stylist_server/core/domain"
)

// RealtimePort - 실시간 이벤트 푸시
type RealtimePort interface {
	// 사용자 채널 구독
	Subscribe(userID string) <-chan *domain.RealtimeEvent

	// 구독 해제
	Unsubscribe(userID string, ch <-chan *domain.RealtimeEvent)

	// 특정 사용자에게 이벤트 전송
	Push(ctx context.Context, userID string, event *domain.RealtimeEvent) error

	// 모든 사용자에게 브로드캐스트
	Broadcast(ctx context.Context, event *domain.RealtimeEvent) error

	// 연결된 사용자 수
	ConnectedCount() int
}

// EventPublisher is the fire-and-forget push channel handed to services.
// A no-op implementation stands in when no channel is configured.
type EventPublisher interface {
	Emit(ctx context.Context, event domain.EventType, payload interface{}) error
	EmitTo(ctx context.Context, userID string, event domain.EventType, payload interface{}) error
}
