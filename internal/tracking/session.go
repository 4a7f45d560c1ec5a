// Package tracking runs the location sampling loop and owns the tracking
// session state (Idle or Tracking).
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jengzang/trackheat/internal/location"
	"github.com/jengzang/trackheat/internal/logging"
	"github.com/jengzang/trackheat/internal/models"
	"github.com/jengzang/trackheat/internal/timeutil"
)

// PointStore persists samples. Every method is a single atomic operation.
type PointStore interface {
	SampleWriter
	Init(ctx context.Context) error
	SelectAll(ctx context.Context) ([]models.GeoSample, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

// Config configures a Session.
type Config struct {
	Sampler SamplerConfig
	// FailureAlertThreshold marks the session degraded after this many
	// consecutive fix failures. Zero disables it.
	FailureAlertThreshold int64
}

// Option customizes a Session
type Option func(*Session)

// WithClock replaces the wall clock used for sample timestamps and delays.
func WithClock(c timeutil.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Session couples a location source with a point store. At most one sampler
// runs at a time.
type Session struct {
	store  PointStore
	source location.Source
	clock  timeutil.Clock
	cfg    Config
	log    zerolog.Logger

	mu          sync.Mutex
	initialized bool
	cancel      context.CancelFunc // non-nil while Tracking
	sampler     *Sampler           // most recent run
	startedAt   time.Time

	gate sync.Mutex // shared with the running sampler
}

// NewSession creates an idle session.
func NewSession(store PointStore, source location.Source, cfg Config, opts ...Option) *Session {
	s := &Session{
		store:  store,
		source: source,
		clock:  timeutil.RealClock{},
		cfg:    cfg,
		log:    logging.Component("tracking"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins sampling in a background goroutine. It is a no-op while
// tracking. The store is initialized on first use; on init failure or when the
// source reports it is unusable the session stays idle and the error is returned.
// Start does not wait for the first fix.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}
	if err := s.initLocked(ctx); err != nil {
		return err
	}
	if checker, ok := s.source.(location.Checker); ok {
		if err := checker.CheckAvailability(ctx); err != nil {
			return fmt.Errorf("location source not available: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sampler := newSampler(uuid.NewString(), s.source, s.store, s.clock, s.cfg.Sampler, &s.gate)

	s.cancel = cancel
	s.sampler = sampler
	s.startedAt = s.clock.Now().UTC()

	go sampler.Run(runCtx)

	s.log.Info().Str("run_id", sampler.RunID()).Msg("tracking started")
	return nil
}

// Stop cancels the running sampler and returns to Idle. It is a no-op when
// idle. Stop does not wait for the goroutine to exit, but no sample is stored
// after it returns.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}

	s.gate.Lock()
	s.cancel()
	s.gate.Unlock()

	s.cancel = nil
	s.log.Info().Str("run_id", s.sampler.RunID()).Msg("tracking stopped")
}

// IsTracking reports whether a sampler is running
func (s *Session) IsTracking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Wait blocks until the most recently started sampler has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	sampler := s.sampler
	s.mu.Unlock()

	if sampler != nil {
		<-sampler.Done()
	}
}

// Points returns all stored samples ordered by timestamp, then id.
func (s *Session) Points(ctx context.Context) ([]models.GeoSample, error) {
	if err := s.ensureInit(ctx); err != nil {
		return nil, err
	}
	points, err := s.store.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}
	return points, nil
}

// PointCount returns the number of stored samples
func (s *Session) PointCount(ctx context.Context) (int64, error) {
	if err := s.ensureInit(ctx); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// ClearPoints deletes every stored sample. Allowed in either state; a running
// sampler keeps running.
func (s *Session) ClearPoints(ctx context.Context) error {
	if err := s.ensureInit(ctx); err != nil {
		return err
	}
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear points: %w", err)
	}
	s.log.Info().Msg("points cleared")
	return nil
}

// Status returns the session state, the stored point count and the counters
// of the most recent run.
func (s *Session) Status(ctx context.Context) (models.SessionStatus, error) {
	count, err := s.PointCount(ctx)
	if err != nil {
		return models.SessionStatus{}, err
	}

	s.mu.Lock()
	tracking := s.cancel != nil
	sampler := s.sampler
	startedAt := s.startedAt
	s.mu.Unlock()

	status := models.SessionStatus{Tracking: tracking, PointCount: count}
	if sampler == nil {
		return status, nil
	}

	st := sampler.Stats()
	status.RunID = sampler.RunID()
	status.FixSuccesses = st.FixSuccesses
	status.FixFailures = st.FixFailures
	status.ConsecutiveFailures = st.ConsecutiveFailures
	status.StoreErrors = st.StoreErrors
	status.LastError = st.LastError
	if !st.LastFixAt.IsZero() {
		t := st.LastFixAt
		status.LastFixAt = &t
	}
	if tracking {
		status.StartedAt = &startedAt
		status.Degraded = s.cfg.FailureAlertThreshold > 0 && st.ConsecutiveFailures >= s.cfg.FailureAlertThreshold
	}
	return status, nil
}

func (s *Session) ensureInit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Session) initLocked(ctx context.Context) error {
	if s.initialized {
		return nil
	}
	if err := s.store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize point store: %w", err)
	}
	s.initialized = true
	return nil
}
