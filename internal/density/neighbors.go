package density

import (
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/jengzang/trackheat/internal/models"
	"github.com/jengzang/trackheat/internal/spatial"
)

// NeighborCounter counts, for every sample, the other samples within thresholdKm.
// Implementations must agree exactly with BruteForce.
type NeighborCounter interface {
	CountNeighbors(samples []models.GeoSample, thresholdKm float64) []int
}

// pairDistanceKm evaluates the distance with the lower index first so every
// counter sees bit-identical values for the same pair.
func pairDistanceKm(samples []models.GeoSample, i, j int) float64 {
	if j < i {
		i, j = j, i
	}
	a, b := samples[i], samples[j]
	return spatial.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// BruteForce compares all pairs. O(N²); the reference implementation.
type BruteForce struct{}

// CountNeighbors implements NeighborCounter
func (BruteForce) CountNeighbors(samples []models.GeoSample, thresholdKm float64) []int {
	counts := make([]int, len(samples))
	for i := range samples {
		for j := i + 1; j < len(samples); j++ {
			if pairDistanceKm(samples, i, j) <= thresholdKm {
				counts[i]++
				counts[j]++
			}
		}
	}
	return counts
}

// S2Index buckets samples by leaf s2.CellID and only measures pairs whose cells
// intersect a covering of the threshold cap around each sample.
type S2Index struct {
	// MaxLevel bounds how fine the cap covering may get. Zero means 16 (~150 m cells).
	MaxLevel int
	// MaxCells bounds the covering size. Zero means 8.
	MaxCells int
}

type indexedSample struct {
	cell s2.CellID
	idx  int
}

// capPadding widens the search cap so float noise at the threshold edge cannot
// drop a candidate; the exact distance check still decides.
const capPadding = 1.0001

// CountNeighbors implements NeighborCounter
func (x S2Index) CountNeighbors(samples []models.GeoSample, thresholdKm float64) []int {
	counts := make([]int, len(samples))
	if len(samples) < 2 {
		return counts
	}

	maxLevel := x.MaxLevel
	if maxLevel <= 0 || maxLevel > s2.MaxLevel {
		maxLevel = 16
	}
	maxCells := x.MaxCells
	if maxCells <= 0 {
		maxCells = 8
	}

	sorted := make([]indexedSample, len(samples))
	for i, s := range samples {
		ll := s2.LatLngFromDegrees(s.Latitude, s.Longitude)
		sorted[i] = indexedSample{cell: s2.CellIDFromLatLng(ll), idx: i}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].cell < sorted[b].cell })

	coverer := &s2.RegionCoverer{MinLevel: 0, MaxLevel: maxLevel, LevelMod: 1, MaxCells: maxCells}
	radius := s1.Angle(thresholdKm/spatial.EarthRadiusKm*capPadding) + 1e-12

	for i, s := range samples {
		center := s2.PointFromLatLng(s2.LatLngFromDegrees(s.Latitude, s.Longitude))
		covering := coverer.Covering(s2.CapFromCenterAngle(center, radius))

		for _, cell := range covering {
			lo, hi := cell.RangeMin(), cell.RangeMax()
			start := sort.Search(len(sorted), func(k int) bool { return sorted[k].cell >= lo })
			for k := start; k < len(sorted) && sorted[k].cell <= hi; k++ {
				j := sorted[k].idx
				if j == i {
					continue
				}
				if pairDistanceKm(samples, i, j) <= thresholdKm {
					counts[i]++
				}
			}
		}
	}
	return counts
}
