// Package resilience guards calls to optional external services.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// GuardConfig holds breaker and timeout settings for one dependency.
type GuardConfig struct {
	Name        string
	MaxFailures int           // consecutive failures before opening (default: 5)
	OpenTimeout time.Duration // time spent open before half-open (default: 30s)
	CallTimeout time.Duration // per-call deadline, 0 disables
	Logger      zerolog.Logger
}

// Guard combines a circuit breaker with a per-call deadline.
type Guard struct {
	cb          *gobreaker.CircuitBreaker
	callTimeout time.Duration
}

func NewGuard(cfg GuardConfig) *Guard {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	maxFailures := uint32(cfg.MaxFailures)
	log := cfg.Logger

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1, // Half-open 상태에서 허용할 요청 수
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Guard{
		cb:          gobreaker.NewCircuitBreaker(settings),
		callTimeout: cfg.CallTimeout,
	}
}

// Execute runs fn under the breaker with the configured deadline applied to ctx.
func (g *Guard) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// IsOpen reports whether calls are currently rejected.
func (g *Guard) IsOpen() bool {
	return g.cb.State() == gobreaker.StateOpen
}

// IsRejected reports whether err came from the breaker rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
