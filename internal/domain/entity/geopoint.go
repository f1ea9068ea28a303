// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint is a WGS84 coordinate pair. The JSON shape (latitude/longitude)
// matches the live feed and catalog payloads; orb uses lon/lat order
// internally, so conversions go through Point().
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point converts the coordinate to an orb.Point (lon, lat).
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Valid reports whether both components are finite and within WGS84 bounds.
// Entities carrying an invalid point are skipped by the aggregation pass,
// never a reason to abort it.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) {
		return false
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return false
	}

	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// FromPoint builds a GeoPoint from an orb.Point.
func FromPoint(p orb.Point) GeoPoint {
	return GeoPoint{Latitude: p.Lat(), Longitude: p.Lon()}
}
