package metrics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"stylist_server/adapter/out/memory"
	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/pkg/debounce"

	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type failingUsers struct {
	out.UserRepository
}

func (failingUsers) ScanActivity(ctx context.Context, fn func(*domain.UserActivity) error) error {
	if err := fn(&domain.UserActivity{UserID: "u1", Wishlist: []domain.ProductReference{domain.IDRef("p1")}}); err != nil {
		return err
	}
	return errors.New("cursor closed")
}

type panickingCatalog struct {
	out.CatalogRepository
}

func (panickingCatalog) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	panic("nil dereference")
}

func fixtureStores() (*memory.Users, *memory.Orders, *memory.Catalog) {
	catalog := memory.NewCatalog(
		&domain.Product{ID: "p1", Name: "Oxford Shirt", Brand: "Loom", Category: "Shirts", Images: []string{"p1.jpg"}, Price: 1500, Stock: 3},
		&domain.Product{ID: "p2", Name: "Slim Chinos", Category: "Pants", Price: 1800, Stock: 2},
		&domain.Product{ID: "p3", Name: "Leather Belt", Category: "Accessories", Price: 700, Stock: 5},
	)

	users := memory.NewUsers()
	users.Put(domain.UserProfile{
		ID: "u1",
		StyleSuggestions: &domain.CachedStyleSuggestion{
			Outfits: []domain.StoredOutfit{{
				Top:    domain.IDRef("p1"),
				Bottom: domain.SnapshotRef(&domain.ProductSnapshot{ProductID: domain.IDRef("p2"), Name: "Snapshot Chinos"}),
			}},
		},
	})
	users.SetActivity("u1",
		[]domain.ProductReference{domain.IDRef("p1"), domain.IDRef("null")},
		[]domain.CartLine{
			{Product: domain.PopulatedRef(&domain.Product{ID: "p3"}), Quantity: 2},
			{Product: domain.IDRef("p2"), Quantity: 0},
		},
	)

	orders := memory.NewOrders(
		domain.OrderLine{Product: domain.IDRef("p1"), Quantity: 1, Price: 1500},
		domain.OrderLine{Product: domain.SnapshotRef(&domain.ProductSnapshot{Product: domain.IDRef("ghost"), Brand: "Gone"}), Quantity: 2, Price: 500},
		domain.OrderLine{Product: domain.IDRef("p3"), Quantity: -1, Price: -10},
		domain.OrderLine{Product: domain.IDRef("[object Object]"), Quantity: 1, Price: 99},
	)
	return users, orders, catalog
}

func newAggregator(users out.UserRepository, orders out.OrderRepository, catalog out.CatalogRepository, verbose bool) *Aggregator {
	return NewAggregator(AggregatorDeps{
		Users:           users,
		Orders:          orders,
		Catalog:         catalog,
		VerboseWarnings: verbose,
		Now:             func() time.Time { return fixedNow },
		Logger:          zerolog.Nop(),
	})
}

func TestCompute(t *testing.T) {
	users, orders, catalog := fixtureStores()
	result := newAggregator(users, orders, catalog, false).Compute(context.Background())

	if result.Degraded {
		t.Fatalf("unexpected degraded result: %v", result.Warnings)
	}
	if !result.UpdatedAt.Equal(fixedNow) {
		t.Errorf("expected updatedAt %v, got %v", fixedNow, result.UpdatedAt)
	}

	expected := []domain.ProductMetric{
		{ID: "ghost", Name: "Unknown Product", Brand: "Gone", Conversions: 2, Revenue: 1000},
		{ID: "p3", Name: "Leather Belt", Category: "Accessories", Clicks: 2, Conversions: 1, CVR: 50},
		{ID: "p1", Name: "Oxford Shirt", Brand: "Loom", Category: "Shirts", PrimaryImage: "p1.jpg", Impressions: 1, Clicks: 1, Conversions: 1, CTR: 100, CVR: 100, Revenue: 1500},
		{ID: "p2", Name: "Slim Chinos", Category: "Pants", Impressions: 1, Clicks: 1, CTR: 100},
	}
	if len(result.Products) != len(expected) {
		t.Fatalf("expected %d products, got %d: %+v", len(expected), len(result.Products), result.Products)
	}
	for i, want := range expected {
		if got := result.Products[i]; got != want {
			t.Errorf("product %d: expected %+v, got %+v", i, want, got)
		}
	}

	s := result.Summary
	if s.TotalImpressions != 2 || s.TotalClicks != 4 || s.TotalConversions != 4 || s.TotalRevenue != 2500 {
		t.Errorf("unexpected totals %+v", s)
	}
	if s.AvgCTR != 200 || s.AvgCVR != 100 {
		t.Errorf("expected avgCtr 200 and avgCvr 100, got %v and %v", s.AvgCTR, s.AvgCVR)
	}
}

func TestComputeEmpty(t *testing.T) {
	result := newAggregator(memory.NewUsers(), memory.NewOrders(), memory.NewCatalog(), false).Compute(context.Background())

	if result.Degraded {
		t.Errorf("expected a healthy result")
	}
	if result.Products == nil || len(result.Products) != 0 {
		t.Errorf("expected an empty product list, got %v", result.Products)
	}
	if result.Summary.AvgCTR != 0 || result.Summary.AvgCVR != 0 {
		t.Errorf("expected zero rates, got %+v", result.Summary)
	}
}

func TestComputeDegraded(t *testing.T) {
	users, orders, catalog := fixtureStores()

	tests := []struct {
		name     string
		agg      *Aggregator
		expected string
	}{
		{"store error", newAggregator(failingUsers{}, orders, catalog, false), degradedWarning},
		{"store error in development", newAggregator(failingUsers{}, orders, catalog, true), "Recommendation metrics degraded: scan user activity: cursor closed"},
		{"panic", newAggregator(users, orders, panickingCatalog{}, true), "Recommendation metrics degraded: panic: nil dereference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.agg.Compute(context.Background())
			if !result.Degraded {
				t.Fatalf("expected degraded result")
			}
			if result.Summary != (domain.MetricsSummary{}) {
				t.Errorf("expected zeroed summary, got %+v", result.Summary)
			}
			if len(result.Products) != 0 {
				t.Errorf("expected no products, got %d", len(result.Products))
			}
			if len(result.Warnings) != 1 || result.Warnings[0] != tt.expected {
				t.Errorf("expected warning %q, got %q", tt.expected, result.Warnings)
			}
		})
	}
}

func TestPositiveOr(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{3, 3},
		{0.5, 0.5},
		{0, 1},
		{-2, 1},
		{math.NaN(), 1},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		if got := positiveOr(tt.in, 1); got != tt.expected {
			t.Errorf("positiveOr(%v): expected %v, got %v", tt.in, tt.expected, got)
		}
	}
}

// =============================================================================
// Broadcaster
// =============================================================================

type countingComputer struct {
	calls int
}

func (c *countingComputer) Compute(ctx context.Context) *domain.RecommendationMetrics {
	c.calls++
	return &domain.RecommendationMetrics{Products: []domain.ProductMetric{}, Warnings: []string{}}
}

type recordingPublisher struct {
	events []domain.EventType
	err    error
}

func (p *recordingPublisher) Emit(ctx context.Context, event domain.EventType, payload interface{}) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) EmitTo(ctx context.Context, userID string, event domain.EventType, payload interface{}) error {
	return p.Emit(ctx, event, payload)
}

type memorySnapshots struct {
	latest *domain.RecommendationMetrics
	saves  int
}

func (m *memorySnapshots) SaveSnapshot(ctx context.Context, metrics *domain.RecommendationMetrics) error {
	m.latest = metrics
	m.saves++
	return nil
}

func (m *memorySnapshots) LatestSnapshot(ctx context.Context) (*domain.RecommendationMetrics, error) {
	return m.latest, nil
}

func newTestBroadcaster(publisher out.EventPublisher) (*Broadcaster, *countingComputer, *memorySnapshots, *debounce.ManualClock) {
	computer := &countingComputer{}
	snapshots := &memorySnapshots{}
	clock := debounce.NewManualClock(fixedNow)
	b := NewBroadcaster(BroadcasterDeps{
		Computer:  computer,
		Publisher: publisher,
		Snapshots: snapshots,
		Clock:     clock,
		Logger:    zerolog.Nop(),
	})
	return b, computer, snapshots, clock
}

func TestBroadcasterCollapsesTriggers(t *testing.T) {
	publisher := &recordingPublisher{}
	b, computer, snapshots, clock := newTestBroadcaster(publisher)

	b.Trigger()
	clock.Advance(100 * time.Millisecond)
	b.Trigger()
	clock.Advance(200 * time.Millisecond)
	b.Trigger()

	if computer.calls != 0 {
		t.Fatalf("expected no compute inside the window, got %d", computer.calls)
	}

	clock.Advance(DefaultDebounce)

	if computer.calls != 1 {
		t.Errorf("expected 1 compute, got %d", computer.calls)
	}
	if len(publisher.events) != 1 || publisher.events[0] != domain.EventRecommendationMetrics {
		t.Errorf("expected one %q event, got %v", domain.EventRecommendationMetrics, publisher.events)
	}
	if snapshots.saves != 1 || b.Latest(context.Background()) == nil {
		t.Errorf("expected the snapshot to be cached")
	}
}

func TestBroadcasterSwallowsPublisherError(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("no subscribers")}
	b, computer, snapshots, clock := newTestBroadcaster(publisher)

	b.Trigger()
	clock.Advance(DefaultDebounce)

	if computer.calls != 1 {
		t.Errorf("expected 1 compute, got %d", computer.calls)
	}
	if snapshots.saves != 1 {
		t.Errorf("expected snapshot to be saved despite publisher error")
	}
}

func TestBroadcasterStop(t *testing.T) {
	b, computer, _, clock := newTestBroadcaster(&recordingPublisher{})

	b.Trigger()
	b.Stop()
	clock.Advance(time.Second)
	b.Trigger()
	clock.Advance(time.Second)

	if computer.calls != 0 {
		t.Errorf("expected no compute after stop, got %d", computer.calls)
	}
}

func TestBroadcasterWithoutSnapshots(t *testing.T) {
	b := NewBroadcaster(BroadcasterDeps{Computer: &countingComputer{}, Logger: zerolog.Nop()})
	if b.Latest(context.Background()) != nil {
		t.Errorf("expected nil snapshot without a cache")
	}
	if got := b.Broadcast(context.Background()); got == nil {
		t.Errorf("expected metrics from a direct broadcast")
	}
}
