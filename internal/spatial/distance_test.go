package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm_SamePointIsZero(t *testing.T) {
	points := []Point{
		{0, 0},
		{-6.2088, 106.8456},
		{51.5074, -0.1278},
		{90, 0},
		{-90, 180},
		{12.5, -180},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, HaversineKm(p.Lat, p.Lon, p.Lat, p.Lon), "point %+v", p)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	pairs := [][2]Point{
		{{-6.2088, 106.8456}, {-6.2100, 106.8456}},
		{{51.5074, -0.1278}, {48.8566, 2.3522}},
		{{35.6762, 139.6503}, {-33.8688, 151.2093}},
		{{0, 179.9}, {0, -179.9}},
	}
	for _, p := range pairs {
		ab := HaversineKm(p[0].Lat, p[0].Lon, p[1].Lat, p[1].Lon)
		ba := HaversineKm(p[1].Lat, p[1].Lon, p[0].Lat, p[0].Lon)
		assert.InDelta(t, ab, ba, 1e-12)
	}
}

func TestHaversineKm_KnownDistances(t *testing.T) {
	// London -> Paris is roughly 343.5 km.
	d := HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 343.5, d, 1.0)

	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	d = HaversineKm(0, 0, 1, 0)
	assert.InDelta(t, 111.195, d, 0.01)

	// Across the antimeridian the short way round.
	d = HaversineKm(0, 179.95, 0, -179.95)
	assert.InDelta(t, 11.12, d, 0.01)
}

func TestHaversineDistance_Meters(t *testing.T) {
	km := HaversineKm(-6.2088, 106.8456, -6.2100, 106.8456)
	m := HaversineDistance(-6.2088, 106.8456, -6.2100, 106.8456)
	assert.InDelta(t, km*1000, m, 1e-9)
	assert.InDelta(t, 133.4, m, 1.0)
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	lat, lon := DestinationPoint(47.3769, 8.5417, 90, 1000)
	assert.InDelta(t, 1000, HaversineDistance(47.3769, 8.5417, lat, lon), 0.01)
	assert.InDelta(t, 47.3769, lat, 0.001)
	assert.Greater(t, lon, 8.5417)

	lat, _ = DestinationPoint(0, 0, 0, 10000)
	assert.Greater(t, lat, 0.0)
}

func TestDestinationPoint_WrapsLongitude(t *testing.T) {
	_, lon := DestinationPoint(0, 179.999, 90, 1000)
	assert.GreaterOrEqual(t, lon, -180.0)
	assert.Less(t, lon, 0.0)
}
