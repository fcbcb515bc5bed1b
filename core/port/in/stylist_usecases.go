// Package in declares the use cases the HTTP layer drives.
package in

import (
	"context"

	"stylist_server/core/domain"
)

// ChatUseCase - 대화형 스타일리스트
type ChatUseCase interface {
	InterpretAndCompose(ctx context.Context, query string, history []domain.ChatTurn) (*domain.ChatResponse, error)
	// Complements pushes the result to userID as well when it is set.
	Complements(ctx context.Context, userID string, req domain.ComplementRequest) (*domain.ComplementResult, error)
}

// StyleSuggestionUseCase - 개인화 코디 추천
type StyleSuggestionUseCase interface {
	GetStickySuggestion(ctx context.Context, userID string) (*domain.StyleSuggestionResult, error)
	RefreshSuggestion(ctx context.Context, userID string) (*domain.StyleSuggestionResult, error)
	ProductStyleTip(ctx context.Context, productID string) (*domain.StyleTip, error)
}

// MetricsUseCase - 추천 퍼널 지표
type MetricsUseCase interface {
	// Compute never fails; degraded results carry warnings.
	Compute(ctx context.Context) *domain.RecommendationMetrics
	// Trigger schedules a debounced broadcast.
	Trigger()
	// Latest returns the last broadcast snapshot, or nil.
	Latest(ctx context.Context) *domain.RecommendationMetrics
}
