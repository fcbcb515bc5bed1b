package metrics

import (
	"context"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/in"
	"stylist_server/core/port/out"
	"stylist_server/pkg/debounce"

	"github.com/rs/zerolog"
)

const (
	DefaultDebounce         = 300 * time.Millisecond
	defaultBroadcastTimeout = 30 * time.Second
)

// Computer produces the current metrics.
type Computer interface {
	Compute(ctx context.Context) *domain.RecommendationMetrics
}

// Broadcaster recomputes and pushes metrics after a burst of triggers settles.
type Broadcaster struct {
	computer  Computer
	publisher out.EventPublisher
	snapshots out.MetricsSnapshotCache
	debouncer *debounce.Debouncer
	timeout   time.Duration
	log       zerolog.Logger
}

// BroadcasterDeps holds dependencies for creating a Broadcaster.
type BroadcasterDeps struct {
	Computer  Computer
	Publisher out.EventPublisher
	Snapshots out.MetricsSnapshotCache // optional
	Delay     time.Duration
	Clock     debounce.Clock // optional, wall clock by default
	Logger    zerolog.Logger
}

func NewBroadcaster(deps BroadcasterDeps) *Broadcaster {
	delay := deps.Delay
	if delay <= 0 {
		delay = DefaultDebounce
	}

	b := &Broadcaster{
		computer:  deps.Computer,
		publisher: deps.Publisher,
		snapshots: deps.Snapshots,
		timeout:   defaultBroadcastTimeout,
		log:       deps.Logger.With().Str("component", "metrics_broadcaster").Logger(),
	}

	var opts []debounce.Option
	if deps.Clock != nil {
		opts = append(opts, debounce.WithClock(deps.Clock))
	}
	b.debouncer = debounce.New(delay, b.fire, opts...)
	return b
}

// Trigger schedules a broadcast. Triggers within the delay collapse into one.
func (b *Broadcaster) Trigger() {
	b.debouncer.Trigger()
}

// Stop cancels a pending broadcast. Later triggers are ignored.
func (b *Broadcaster) Stop() {
	b.debouncer.Stop()
}

func (b *Broadcaster) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	b.Broadcast(ctx)
}

// Broadcast computes and pushes metrics immediately. Publisher and cache
// failures are logged only.
func (b *Broadcaster) Broadcast(ctx context.Context) *domain.RecommendationMetrics {
	metrics := b.computer.Compute(ctx)

	if b.publisher != nil {
		if err := b.publisher.Emit(ctx, domain.EventRecommendationMetrics, metrics); err != nil {
			b.log.Warn().Err(err).Msg("failed to emit recommendation metrics")
		}
	}
	if b.snapshots != nil {
		if err := b.snapshots.SaveSnapshot(ctx, metrics); err != nil {
			b.log.Warn().Err(err).Msg("failed to cache recommendation metrics")
		}
	}

	b.log.Info().
		Bool("degraded", metrics.Degraded).
		Int("products", len(metrics.Products)).
		Msg("recommendation metrics broadcast")
	return metrics
}

// Latest returns the last broadcast snapshot, or nil when none is cached.
func (b *Broadcaster) Latest(ctx context.Context) *domain.RecommendationMetrics {
	if b.snapshots == nil {
		return nil
	}
	metrics, err := b.snapshots.LatestSnapshot(ctx)
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to read cached recommendation metrics")
		return nil
	}
	return metrics
}

// Service exposes on-demand aggregation and debounced broadcasting as one use case.
type Service struct {
	*Aggregator
	*Broadcaster
}

var _ in.MetricsUseCase = (*Service)(nil)
