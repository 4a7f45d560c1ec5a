package location

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jengzang/trackheat/internal/spatial"
)

// SimulatorConfig tunes SimulatedSource.
type SimulatorConfig struct {
	HomeLatitude  float64
	HomeLongitude float64
	// StepMeters is the largest distance moved between two fixes.
	StepMeters float64
	// RadiusMeters pulls the walk back home once exceeded. Zero disables it.
	RadiusMeters float64
	// FailureRate in [0,1] is the share of requests that return ErrNoFix.
	FailureRate float64
	// Latency delays every fix; the request still honors ctx.
	Latency time.Duration
	Seed    int64
	// PermissionDenied starts the source in the denied state.
	PermissionDenied bool
}

// SimulatedSource produces a random walk around a home coordinate.
type SimulatedSource struct {
	cfg SimulatorConfig

	mu      sync.Mutex
	rng     *rand.Rand
	lat     float64
	lon     float64
	granted bool
}

// NewSimulatedSource creates a simulator positioned at home.
func NewSimulatedSource(cfg SimulatorConfig) *SimulatedSource {
	if cfg.StepMeters <= 0 {
		cfg.StepMeters = 25
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		lat:     cfg.HomeLatitude,
		lon:     cfg.HomeLongitude,
		granted: !cfg.PermissionDenied,
	}
}

// SetPermission grants or revokes location access at runtime.
func (s *SimulatedSource) SetPermission(granted bool) {
	s.mu.Lock()
	s.granted = granted
	s.mu.Unlock()
}

// CheckAvailability implements Checker
func (s *SimulatedSource) CheckAvailability(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.granted {
		return ErrPermissionDenied
	}
	return nil
}

// RequestFix implements Source
func (s *SimulatedSource) RequestFix(ctx context.Context, accuracy Accuracy) (*Fix, error) {
	if s.cfg.Latency > 0 {
		t := time.NewTimer(s.cfg.Latency)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %w", ErrNoFix, ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFix, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.granted {
		return nil, ErrPermissionDenied
	}
	if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
		return nil, ErrNoFix
	}

	s.lat, s.lon = spatial.DestinationPoint(s.lat, s.lon, s.rng.Float64()*360, s.rng.Float64()*s.cfg.StepMeters)
	if s.cfg.RadiusMeters > 0 &&
		spatial.HaversineDistance(s.cfg.HomeLatitude, s.cfg.HomeLongitude, s.lat, s.lon) > s.cfg.RadiusMeters {
		s.lat, s.lon = s.cfg.HomeLatitude, s.cfg.HomeLongitude
	}

	// reported position scatters around the true one by the hint's error
	errM := accuracy.ErrorMeters()
	lat, lon := spatial.DestinationPoint(s.lat, s.lon, s.rng.Float64()*360, s.rng.Float64()*errM)

	return &Fix{
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: errM,
		Timestamp:      time.Now().UTC(),
	}, nil
}
