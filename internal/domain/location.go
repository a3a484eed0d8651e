// Package domain holds the immutable data model shared across the
// generation pipeline: locations, forecasts, reference comments, and the
// per-location/per-batch result types.
package domain

import "math"

// Location is an immutable catalogue entry: a named Japanese place with
// its canonical coordinates. Loaded once at startup; never mutated.
type Location struct {
	Name           string
	NormalizedName string
	Prefecture     string
	Region         string
	Latitude       float64
	Longitude      float64
	HasCoordinates bool
}

// Valid reports whether the location's coordinates, if present, are both
// present and within range.
func (l Location) Valid() bool {
	if !l.HasCoordinates {
		return true
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two locations in
// kilometers.
func HaversineKm(a, b Location) float64 {
	lat1, lat2 := a.Latitude*math.Pi/180, b.Latitude*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}
