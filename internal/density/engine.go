// Package density turns a batch of location samples into a per-sample heat encoding.
//
// Each sample's density is the number of other samples within ProximityThresholdKm.
// Densities are normalized against the batch maximum and mapped onto a
// blue-cyan-green-yellow-red gradient plus a mode-specific radius and opacity.
// Results are computed fresh per call and never cached.
package density

import (
	"github.com/jengzang/trackheat/internal/models"
)

// ProximityThresholdKm is the neighbor radius (100 m).
const ProximityThresholdKm = 0.1

// DefaultIndexMinPoints is the batch size above which the s2 index replaces the
// all-pairs scan.
const DefaultIndexMinPoints = 512

// Result is the visual encoding of one sample, index-aligned with the input
type Result struct {
	NeighborCount     int     `json:"neighborCount"`
	NormalizedDensity float64 `json:"normalizedDensity"`
	Color             RGB     `json:"color"`
	RadiusMeters      float64 `json:"radiusMeters"`
	Opacity           float64 `json:"opacity"`
}

// Config tunes an Engine
type Config struct {
	IndexMinPoints int // batches with at least this many samples use S2Index; <0 disables the index
}

// Engine computes density results. It is stateless between calls and safe for
// concurrent use.
type Engine struct {
	indexMinPoints int
	small          NeighborCounter
	large          NeighborCounter
}

// NewEngine creates an engine; zero config values fall back to the defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.IndexMinPoints == 0 {
		cfg.IndexMinPoints = DefaultIndexMinPoints
	}
	return &Engine{
		indexMinPoints: cfg.IndexMinPoints,
		small:          BruteForce{},
		large:          S2Index{},
	}
}

// ThresholdKm returns the neighbor radius in kilometers. It is always
// ProximityThresholdKm.
func (e *Engine) ThresholdKm() float64 {
	return ProximityThresholdKm
}

func (e *Engine) counter(n int) NeighborCounter {
	if e.indexMinPoints > 0 && n >= e.indexMinPoints {
		return e.large
	}
	return e.small
}

// Compute returns one Result per sample, in input order. Empty input gives an empty slice.
func (e *Engine) Compute(samples []models.GeoSample, mode Mode) []Result {
	results := make([]Result, len(samples))
	if len(samples) == 0 {
		return results
	}

	counts := e.counter(len(samples)).CountNeighbors(samples, ProximityThresholdKm)

	maxDensity := 0
	for _, c := range counts {
		if c > maxDensity {
			maxDensity = c
		}
	}
	if maxDensity == 0 {
		maxDensity = 1
	}

	for i, c := range counts {
		normalized := float64(c) / float64(maxDensity)
		radius, opacity := Encode(normalized, mode)
		results[i] = Result{
			NeighborCount:     c,
			NormalizedDensity: normalized,
			Color:             ColorAt(normalized),
			RadiusMeters:      radius,
			Opacity:           opacity,
		}
	}
	return results
}

var defaultEngine = NewEngine(Config{})

// Compute runs the default engine (100 m threshold).
func Compute(samples []models.GeoSample, mode Mode) []Result {
	return defaultEngine.Compute(samples, mode)
}
