// Package geo provides great-circle distance computation over WGS84
// coordinates.
package geo

import (
	"math"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between a and b in
// kilometers. It is symmetric, returns 0 for identical points and is never
// negative; callers are responsible for rejecting malformed coordinates.
func Distance(a, b entities.Coordinate) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
