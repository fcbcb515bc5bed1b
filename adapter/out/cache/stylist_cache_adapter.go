// Package cache keeps metrics snapshots and gender lookups in a key-value store.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
)

const (
	metricsSnapshotKey = "recommendation:metrics:latest"
	genderKeyPrefix    = "stylist:gender:"
)

// Store is the subset of pkg/cache.RedisCache the adapters need.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// =============================================================================
// Metrics snapshot
// =============================================================================

type MetricsSnapshotCache struct {
	store Store
	ttl   time.Duration
}

func NewMetricsSnapshotCache(store Store, ttl time.Duration) *MetricsSnapshotCache {
	return &MetricsSnapshotCache{store: store, ttl: ttl}
}

var _ out.MetricsSnapshotCache = (*MetricsSnapshotCache)(nil)

func (c *MetricsSnapshotCache) SaveSnapshot(ctx context.Context, metrics *domain.RecommendationMetrics) error {
	if metrics == nil {
		return nil
	}
	if err := c.store.SetJSON(ctx, metricsSnapshotKey, metrics, c.ttl); err != nil {
		return fmt.Errorf("failed to cache metrics snapshot: %w", err)
	}
	return nil
}

func (c *MetricsSnapshotCache) LatestSnapshot(ctx context.Context) (*domain.RecommendationMetrics, error) {
	var metrics domain.RecommendationMetrics
	found, err := c.store.GetJSON(ctx, metricsSnapshotKey, &metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &metrics, nil
}

// =============================================================================
// Gender lookups
// =============================================================================

type GenderCache struct {
	store Store
	ttl   time.Duration
}

func NewGenderCache(store Store, ttl time.Duration) *GenderCache {
	return &GenderCache{store: store, ttl: ttl}
}

var _ out.GenderCache = (*GenderCache)(nil)

func genderKey(name string) string {
	return genderKeyPrefix + strings.ToLower(strings.TrimSpace(name))
}

// GetGender returns "" on a miss or when the stored value is not a known gender.
func (c *GenderCache) GetGender(ctx context.Context, name string) (domain.Gender, error) {
	value, found, err := c.store.Get(ctx, genderKey(name))
	if err != nil {
		return "", fmt.Errorf("failed to read gender cache: %w", err)
	}
	if !found {
		return "", nil
	}
	g := domain.ParseGender(value)
	if !g.IsSpecific() {
		return "", nil
	}
	return g, nil
}

func (c *GenderCache) SetGender(ctx context.Context, name string, gender domain.Gender) error {
	if err := c.store.Set(ctx, genderKey(name), string(gender), c.ttl); err != nil {
		return fmt.Errorf("failed to write gender cache: %w", err)
	}
	return nil
}
