// Package geo provides the great-circle distance primitives used by the
// radius filter, the travel-status derivation, and the viewer-distance
// computation.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// epsilonKm absorbs floating point noise so a radius of zero still matches
// the exact point.
const epsilonKm = 1e-9

// HaversineKm returns the great-circle distance in kilometers between two
// points. It is symmetric and zero for identical points. NaN coordinates
// propagate NaN; callers treat a NaN distance as "excluded".
func HaversineKm(a, b orb.Point) float64 {
	latA := radians(a.Lat())
	latB := radians(b.Lat())
	dLat := radians(b.Lat() - a.Lat())
	dLon := radians(b.Lon() - a.Lon())

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsWithinRadius reports whether p lies within radiusKm of center. A NaN
// distance is never within; a radius of zero matches only the exact point.
func IsWithinRadius(center, p orb.Point, radiusKm float64) bool {
	d := HaversineKm(center, p)
	if math.IsNaN(d) {
		return false
	}

	return d <= radiusKm+epsilonKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
