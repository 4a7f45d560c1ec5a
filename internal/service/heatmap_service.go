package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/trackheat/internal/density"
	"github.com/jengzang/trackheat/internal/metrics"
	"github.com/jengzang/trackheat/internal/models"
	"github.com/jengzang/trackheat/internal/spatial"
)

// PointReader loads the stored samples
type PointReader interface {
	Points(ctx context.Context) ([]models.GeoSample, error)
}

// HeatmapService turns stored samples into a renderable heatmap. Nothing is
// cached; every call recomputes from the store.
type HeatmapService struct {
	points PointReader
	engine *density.Engine
}

// NewHeatmapService creates a new heatmap service
func NewHeatmapService(points PointReader, engine *density.Engine) *HeatmapService {
	if engine == nil {
		engine = density.NewEngine(density.Config{})
	}
	return &HeatmapService{points: points, engine: engine}
}

// Build computes the heatmap for every stored sample.
func (s *HeatmapService) Build(ctx context.Context, mode density.Mode) (*models.HeatmapResponse, error) {
	samples, err := s.points.Points(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	start := time.Now()
	results := s.engine.Compute(samples, mode)
	metrics.RecordDensity(string(mode), len(samples), time.Since(start))

	resp := &models.HeatmapResponse{
		Mode:        string(mode),
		Count:       len(samples),
		ThresholdKm: s.engine.ThresholdKm(),
		Elements:    make([]models.HeatmapElement, len(samples)),
	}
	if len(samples) == 0 {
		return resp, nil
	}

	counts := make([]float64, len(results))
	track := make([]spatial.Point, len(samples))
	for i, r := range results {
		sm := samples[i]
		resp.Elements[i] = models.HeatmapElement{
			ID:                sm.ID,
			Lat:               sm.Latitude,
			Lng:               sm.Longitude,
			NeighborCount:     r.NeighborCount,
			NormalizedDensity: r.NormalizedDensity,
			Color:             r.Color.Hex(),
			R:                 r.Color.R,
			G:                 r.Color.G,
			B:                 r.Color.B,
			RadiusMeters:      r.RadiusMeters,
			Opacity:           r.Opacity,
		}
		if r.NeighborCount > resp.MaxNeighborCount {
			resp.MaxNeighborCount = r.NeighborCount
		}
		counts[i] = float64(r.NeighborCount)
		track[i] = spatial.Point{Lat: sm.Latitude, Lon: sm.Longitude}
	}

	bounds := spatial.BoundingBox(track)
	center := spatial.Centroid(track)
	resp.Bounds = &bounds
	resp.Center = &center
	resp.Summary = summarize(counts, track)
	return resp, nil
}

func summarize(counts []float64, track []spatial.Point) models.DensitySummary {
	sorted := make([]float64, len(counts))
	copy(sorted, counts)
	sort.Float64s(sorted)

	return models.DensitySummary{
		MeanNeighbors: stat.Mean(counts, nil),
		P50Neighbors:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90Neighbors:  stat.Quantile(0.9, stat.Empirical, sorted, nil),
		PathLengthKm:  spatial.PathLengthKm(track),
		SpreadKm:      spatial.RadiusOfGyrationKm(track),
	}
}
