package memory

import (
	"context"
	"strings"
	"sync"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
)

// Snapshots keeps the latest metrics in process when no shared cache is configured.
type Snapshots struct {
	mu     sync.RWMutex
	latest *domain.RecommendationMetrics
}

var _ out.MetricsSnapshotCache = (*Snapshots)(nil)

func (s *Snapshots) SaveSnapshot(ctx context.Context, metrics *domain.RecommendationMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = metrics
	return nil
}

func (s *Snapshots) LatestSnapshot(ctx context.Context) (*domain.RecommendationMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, nil
}

// Genders is a process-local gender cache.
type Genders struct {
	mu     sync.RWMutex
	values map[string]domain.Gender
}

var _ out.GenderCache = (*Genders)(nil)

func NewGenders() *Genders {
	return &Genders{values: make(map[string]domain.Gender)}
}

func (g *Genders) GetGender(ctx context.Context, name string) (domain.Gender, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[strings.ToLower(strings.TrimSpace(name))], nil
}

func (g *Genders) SetGender(ctx context.Context, name string, gender domain.Gender) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[strings.ToLower(strings.TrimSpace(name))] = gender
	return nil
}
