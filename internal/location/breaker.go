package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jengzang/trackheat/internal/logging"
)

// BreakerConfig tunes BreakerSource.
type BreakerConfig struct {
	// Failures is the number of consecutive failed requests that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before a trial request.
	Cooldown time.Duration
}

// BreakerSource fails fast with ErrUnavailable while the wrapped source keeps
// failing, instead of spending a full fix timeout on every attempt.
type BreakerSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker[*Fix]
	log    zerolog.Logger
}

// NewBreakerSource wraps source. Zero Failures defaults to 5, zero Cooldown to 1m.
func NewBreakerSource(source Source, cfg BreakerConfig) *BreakerSource {
	if cfg.Failures == 0 {
		cfg.Failures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}

	b := &BreakerSource{source: source, log: logging.Component("location")}
	b.cb = gobreaker.NewCircuitBreaker[*Fix](gobreaker.Settings{
		Name:        "location-source",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		// a run being stopped says nothing about the source
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})
	return b
}

// RequestFix implements Source
func (b *BreakerSource) RequestFix(ctx context.Context, accuracy Accuracy) (*Fix, error) {
	fix, err := b.cb.Execute(func() (*Fix, error) {
		f, err := b.source.RequestFix(ctx, accuracy)
		if err == nil && f == nil {
			err = ErrNoFix
		}
		return f, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fix, err
}

// CheckAvailability delegates to the wrapped source when it is a Checker.
func (b *BreakerSource) CheckAvailability(ctx context.Context) error {
	if c, ok := b.source.(Checker); ok {
		return c.CheckAvailability(ctx)
	}
	return nil
}

// State reports the breaker state: closed, half-open or open.
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}
