package out

import (
	"context"

	"stylist_server/core/domain"
)

// MetricsSnapshotCache keeps the latest broadcast metrics for late subscribers.
type MetricsSnapshotCache interface {
	SaveSnapshot(ctx context.Context, metrics *domain.RecommendationMetrics) error
	// LatestSnapshot returns nil, nil when nothing is cached.
	LatestSnapshot(ctx context.Context) (*domain.RecommendationMetrics, error)
}

// GenderCache remembers resolved display-name genders.
type GenderCache interface {
	// GetGender returns "" on a miss.
	GetGender(ctx context.Context, name string) (domain.Gender, error)
	SetGender(ctx context.Context, name string, gender domain.Gender) error
}
