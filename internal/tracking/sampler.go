package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jengzang/trackheat/internal/location"
	"github.com/jengzang/trackheat/internal/logging"
	"github.com/jengzang/trackheat/internal/metrics"
	"github.com/jengzang/trackheat/internal/models"
	"github.com/jengzang/trackheat/internal/timeutil"
)

// Sampling defaults
const (
	DefaultInterval        = 30 * time.Second
	DefaultFixTimeout      = 10 * time.Second
	DefaultFirstFixTimeout = 5 * time.Second
	DefaultInsertTimeout   = 5 * time.Second
)

// SamplerConfig controls the sampling cadence.
type SamplerConfig struct {
	Interval        time.Duration // delay after each attempt
	FixTimeout      time.Duration
	FirstFixTimeout time.Duration // used for the first request of a run
	// InsertTimeout bounds one store write. Stop waits on it while the
	// write holds the gate.
	InsertTimeout time.Duration
	Accuracy      location.Accuracy
}

func (c SamplerConfig) withDefaults() SamplerConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.FixTimeout <= 0 {
		c.FixTimeout = DefaultFixTimeout
	}
	if c.FirstFixTimeout <= 0 {
		c.FirstFixTimeout = DefaultFirstFixTimeout
	}
	if c.InsertTimeout <= 0 {
		c.InsertTimeout = DefaultInsertTimeout
	}
	c.Accuracy = c.Accuracy.OrDefault()
	return c
}

// SampleWriter is the part of the point store the sampler writes to.
type SampleWriter interface {
	Insert(ctx context.Context, sample models.GeoSample) (int64, error)
}

// Stats are the counters of one sampler run.
type Stats struct {
	FixSuccesses        int64
	FixFailures         int64
	ConsecutiveFailures int64
	StoreErrors         int64
	LastFixAt           time.Time
	LastError           string
}

// Sampler is one run of the sampling loop: request a fix, persist it, wait,
// repeat until the context is cancelled. Fix and store failures are counted
// and never end the run.
type Sampler struct {
	runID  string
	source location.Source
	store  SampleWriter
	clock  timeutil.Clock
	cfg    SamplerConfig

	// gate is held around the last cancellation check and the insert. Whoever
	// cancels the run while holding it is guaranteed no later insert.
	gate sync.Locker
	log  zerolog.Logger

	mu    sync.Mutex
	stats Stats
	done  chan struct{}
}

func newSampler(runID string, source location.Source, store SampleWriter, clock timeutil.Clock, cfg SamplerConfig, gate sync.Locker) *Sampler {
	return &Sampler{
		runID:  runID,
		source: source,
		store:  store,
		clock:  clock,
		cfg:    cfg.withDefaults(),
		gate:   gate,
		log:    logging.Component("tracking").With().Str("run_id", runID).Logger(),
		done:   make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled and returns ctx.Err().
func (s *Sampler) Run(ctx context.Context) error {
	defer close(s.done)

	metrics.SamplerRunning.Inc()
	defer metrics.SamplerRunning.Dec()

	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Str("accuracy", s.cfg.Accuracy.String()).
		Msg("sampler started")
	defer func() { s.log.Info().Msg("sampler stopped") }()

	timeout := s.cfg.FirstFixTimeout
	for {
		s.sampleOnce(ctx, timeout)
		timeout = s.cfg.FixTimeout
		if ctx.Err() != nil {
			return ctx.Err()
		}

		timer := s.clock.NewTimer(s.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C():
		}
	}
}

func (s *Sampler) sampleOnce(ctx context.Context, timeout time.Duration) {
	fixCtx, cancel := context.WithTimeout(ctx, timeout)
	started := time.Now()
	fix, err := s.source.RequestFix(fixCtx, s.cfg.Accuracy)
	cancel()
	elapsed := time.Since(started)

	if err == nil {
		if fix == nil {
			err = location.ErrNoFix
		} else if vErr := location.ValidateFix(*fix); vErr != nil {
			err = vErr
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			metrics.RecordFix(metrics.OutcomeCancelled, elapsed)
			return
		}
		outcome := metrics.OutcomeFailure
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.RecordFix(outcome, elapsed)
		n := s.recordFailure(err)
		s.log.Warn().Err(err).Int64("consecutive", n).Msg("location fix failed")
		return
	}
	metrics.RecordFix(metrics.OutcomeSuccess, elapsed)

	now := s.clock.Now().UTC()
	s.recordSuccess(now)

	sample := models.GeoSample{
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Timestamp: now,
	}

	s.gate.Lock()
	if ctx.Err() != nil {
		s.gate.Unlock()
		return
	}
	insertCtx, cancel := context.WithTimeout(ctx, s.cfg.InsertTimeout)
	id, err := s.store.Insert(insertCtx, sample)
	cancel()
	s.gate.Unlock()

	if err != nil {
		metrics.StoreErrors.Inc()
		s.recordStoreError(err)
		s.log.Error().Err(err).Msg("failed to persist sample")
		return
	}
	metrics.SamplesPersisted.Inc()
	s.log.Debug().
		Int64("id", id).
		Float64("lat", sample.Latitude).
		Float64("lon", sample.Longitude).
		Msg("sample persisted")
}

func (s *Sampler) recordFailure(err error) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FixFailures++
	s.stats.ConsecutiveFailures++
	s.stats.LastError = err.Error()
	return s.stats.ConsecutiveFailures
}

func (s *Sampler) recordSuccess(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FixSuccesses++
	s.stats.ConsecutiveFailures = 0
	s.stats.LastFixAt = at
}

func (s *Sampler) recordStoreError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.StoreErrors++
	s.stats.LastError = err.Error()
}

// Stats returns a snapshot of the run counters
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RunID identifies this run in logs and status.
func (s *Sampler) RunID() string { return s.runID }

// Done is closed when Run returns.
func (s *Sampler) Done() <-chan struct{} { return s.done }
