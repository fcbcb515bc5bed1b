// Package metrics computes and broadcasts the recommendation funnel.
package metrics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"

	"github.com/rs/zerolog"
)

const (
	unknownProductName = "Unknown Product"
	degradedWarning    = "Recommendation metrics temporarily unavailable; displaying zeros until data loads."
)

// Aggregator recomputes the funnel from stored activity on every call.
type Aggregator struct {
	users   out.UserRepository
	orders  out.OrderRepository
	catalog out.CatalogRepository
	verbose bool
	now     func() time.Time
	log     zerolog.Logger
}

// AggregatorDeps holds dependencies for creating an Aggregator.
type AggregatorDeps struct {
	Users   out.UserRepository
	Orders  out.OrderRepository
	Catalog out.CatalogRepository
	// VerboseWarnings puts the failure cause into degraded warnings. It is
	// enabled in development.
	VerboseWarnings bool
	Now             func() time.Time
	Logger          zerolog.Logger
}

func NewAggregator(deps AggregatorDeps) *Aggregator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		users:   deps.Users,
		orders:  deps.Orders,
		catalog: deps.Catalog,
		verbose: deps.VerboseWarnings,
		now:     now,
		log:     deps.Logger.With().Str("component", "metrics").Logger(),
	}
}

// Compute never fails. A store error or panic yields a zeroed, degraded result.
func (a *Aggregator) Compute(ctx context.Context) (result *domain.RecommendationMetrics) {
	defer func() {
		if r := recover(); r != nil {
			result = a.degraded(fmt.Errorf("panic: %v", r))
		}
	}()

	metrics, err := a.compute(ctx)
	if err != nil {
		return a.degraded(err)
	}
	return metrics
}

func (a *Aggregator) degraded(err error) *domain.RecommendationMetrics {
	a.log.Error().Err(err).Msg("recommendation metrics degraded")
	warning := degradedWarning
	if a.verbose {
		warning = "Recommendation metrics degraded: " + err.Error()
	}
	return &domain.RecommendationMetrics{
		Products:  []domain.ProductMetric{},
		UpdatedAt: a.now().UTC(),
		Degraded:  true,
		Warnings:  []string{warning},
	}
}

func (a *Aggregator) compute(ctx context.Context) (*domain.RecommendationMetrics, error) {
	acc := newAccumulator(a.log)

	err := a.users.ScanActivity(ctx, func(activity *domain.UserActivity) error {
		for _, outfit := range activity.Outfits {
			for _, ref := range []domain.ProductReference{outfit.Top, outfit.Bottom, outfit.Accessory} {
				if ref.IsPresent() {
					acc.impression(ref, activity.UserID)
				}
			}
		}
		for _, ref := range activity.Wishlist {
			acc.click(ref, 1, activity.UserID)
		}
		for _, line := range activity.Cart {
			acc.click(line.Product, positiveOr(line.Quantity, 1), activity.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan user activity: %w", err)
	}

	err = a.orders.ScanOrderLines(ctx, func(line *domain.OrderLine) error {
		quantity := positiveOr(line.Quantity, 1)
		price := line.Price
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			price = 0
		}
		acc.conversion(line.Product, quantity, price)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan order lines: %w", err)
	}
	if acc.skipped > 0 {
		a.log.Warn().Int("skipped", acc.skipped).Msg("product references skipped during aggregation")
	}

	products, err := a.resolve(ctx, acc)
	if err != nil {
		return nil, err
	}

	return &domain.RecommendationMetrics{
		Summary:   summarize(products),
		Products:  products,
		UpdatedAt: a.now().UTC(),
		Warnings:  []string{},
	}, nil
}

// resolve joins counters with catalog display data and sorts the leaderboard.
func (a *Aggregator) resolve(ctx context.Context, acc *accumulator) ([]domain.ProductMetric, error) {
	products := make([]domain.ProductMetric, 0, len(acc.order))
	if len(acc.order) == 0 {
		return products, nil
	}

	found, err := a.catalog.FindByIDs(ctx, acc.order)
	if err != nil {
		return nil, fmt.Errorf("load product metadata: %w", err)
	}
	index := make(map[string]*domain.Product, len(found))
	for _, p := range found {
		index[p.ID] = p
	}

	for _, id := range acc.order {
		e := acc.entries[id]
		m := domain.ProductMetric{
			ID:          id,
			Impressions: e.impressions,
			Clicks:      e.clicks,
			Conversions: e.conversions,
			Revenue:     e.revenue,
			CTR:         domain.Rate(e.clicks, float64(e.impressions)),
			CVR:         domain.Rate(e.conversions, e.clicks),
		}

		md := e.metadata
		if p, ok := index[id]; ok {
			m.Name = p.Name
			m.Brand = p.Brand
			m.Category = p.Category
			m.PrimaryImage = p.PrimaryImage()
		}
		if m.Name == "" {
			m.Name = md.Name
		}
		if m.Name == "" {
			m.Name = unknownProductName
		}
		if m.Brand == "" {
			m.Brand = md.Brand
		}
		if m.Category == "" {
			m.Category = md.Category
		}
		if m.PrimaryImage == "" {
			m.PrimaryImage = md.PrimaryImage
		}
		if m.PrimaryImage == "" && len(md.Images) > 0 {
			m.PrimaryImage = md.Images[0]
		}

		products = append(products, m)
	}

	sort.SliceStable(products, func(i, j int) bool {
		pi, pj := products[i], products[j]
		if pi.Conversions != pj.Conversions {
			return pi.Conversions > pj.Conversions
		}
		if pi.Clicks != pj.Clicks {
			return pi.Clicks > pj.Clicks
		}
		return pi.Impressions > pj.Impressions
	})
	return products, nil
}

func summarize(products []domain.ProductMetric) domain.MetricsSummary {
	var s domain.MetricsSummary
	for _, p := range products {
		s.TotalImpressions += p.Impressions
		s.TotalClicks += p.Clicks
		s.TotalConversions += p.Conversions
		s.TotalRevenue += p.Revenue
	}
	s.AvgCTR = domain.Rate(s.TotalClicks, float64(s.TotalImpressions))
	s.AvgCVR = domain.Rate(s.TotalConversions, s.TotalClicks)
	return s
}

func positiveOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

// =============================================================================
// Accumulator
// =============================================================================

type entry struct {
	metadata    domain.ProductMetadata
	impressions int64
	clicks      float64
	conversions float64
	revenue     float64
}

type accumulator struct {
	entries map[string]*entry
	order   []string
	skipped int
	log     zerolog.Logger
}

func newAccumulator(log zerolog.Logger) *accumulator {
	return &accumulator{entries: make(map[string]*entry), log: log}
}

// ensure returns the entry for ref, or nil when ref does not resolve.
func (a *accumulator) ensure(ref domain.ProductReference, source string) *entry {
	id := ref.Normalize()
	if id == "" {
		a.skipped++
		a.log.Warn().Str("source", source).Str("kind", ref.Kind.String()).Msg("skipping unresolvable product reference")
		return nil
	}
	e, ok := a.entries[id]
	if !ok {
		e = &entry{}
		a.entries[id] = e
		a.order = append(a.order, id)
	}
	e.metadata.Merge(ref.Metadata())
	return e
}

func (a *accumulator) impression(ref domain.ProductReference, userID string) {
	if e := a.ensure(ref, "outfit:"+userID); e != nil {
		e.impressions++
	}
}

func (a *accumulator) click(ref domain.ProductReference, weight float64, userID string) {
	if e := a.ensure(ref, "activity:"+userID); e != nil {
		e.clicks += weight
	}
}

func (a *accumulator) conversion(ref domain.ProductReference, quantity, price float64) {
	e := a.ensure(ref, "order")
	if e == nil {
		return
	}
	e.metadata.Merge(&domain.ProductMetadata{Price: &price, DiscountPrice: &price})
	e.conversions += quantity
	e.revenue += quantity * price
}
