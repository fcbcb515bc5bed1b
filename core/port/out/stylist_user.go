package out

import (
	"context"

	"stylist_server/core/domain"
)

// UserRepository - 사용자 프로필과 스타일 추천 캐시
type UserRepository interface {
	// GetProfile returns nil, nil when the user does not exist.
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	// SaveStyleSuggestion replaces the cached suggestion in one atomic update.
	SaveStyleSuggestion(ctx context.Context, userID string, suggestion *domain.CachedStyleSuggestion) error
	// ScanActivity streams every user's outfits, wishlist and cart. Returning
	// an error from fn stops the scan.
	ScanActivity(ctx context.Context, fn func(*domain.UserActivity) error) error
}
