package models

import "github.com/jengzang/trackheat/internal/spatial"

// HeatmapElement is one renderable circle of the heatmap
type HeatmapElement struct {
	ID                int64   `json:"id"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	NeighborCount     int     `json:"neighborCount"`
	NormalizedDensity float64 `json:"intensity"` // Normalized 0-1
	Color             string  `json:"color"`     // #rrggbb
	R                 float64 `json:"r"`
	G                 float64 `json:"g"`
	B                 float64 `json:"b"`
	RadiusMeters      float64 `json:"radiusMeters"`
	Opacity           float64 `json:"opacity"`
}

// DensitySummary describes the distribution of neighbor counts in one heatmap
type DensitySummary struct {
	MeanNeighbors float64 `json:"meanNeighbors"`
	P50Neighbors  float64 `json:"p50Neighbors"`
	P90Neighbors  float64 `json:"p90Neighbors"`
	PathLengthKm  float64 `json:"pathLengthKm"`
	SpreadKm      float64 `json:"spreadKm"` // radius of gyration
}

// HeatmapResponse represents the heatmap API response
type HeatmapResponse struct {
	Mode             string           `json:"mode"` // "area" or "marker"
	Count            int              `json:"count"`
	MaxNeighborCount int              `json:"maxNeighborCount"`
	ThresholdKm      float64          `json:"thresholdKm"`
	Elements         []HeatmapElement `json:"elements"`
	Bounds           *spatial.Bounds  `json:"bounds,omitempty"`
	Center           *spatial.Point   `json:"center,omitempty"`
	Summary          DensitySummary   `json:"summary"`
}
