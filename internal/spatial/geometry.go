package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Bounds is an axis-aligned latitude/longitude box.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLng"`
}

// Centroid calculates the arithmetic centroid of a set of points.
// Not antimeridian aware.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lon: sumLon / float64(len(points)),
	}
}

// BoundingBox calculates the bounding box of a set of points
func BoundingBox(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}

	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}

	return b
}

// PathLengthKm calculates the total length of a path (sequence of points) in kilometers
func PathLengthKm(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineKm(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}

	return total
}

// RadiusOfGyrationKm measures the spatial dispersion of points around their centroid
func RadiusOfGyrationKm(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}

	center := Centroid(points)

	var sumSquared float64
	for _, p := range points {
		d := HaversineKm(center.Lat, center.Lon, p.Lat, p.Lon)
		sumSquared += d * d
	}

	return math.Sqrt(sumSquared / float64(len(points)))
}
