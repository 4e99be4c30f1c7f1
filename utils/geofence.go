package utils

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"p9e.in/siteops/models"
)

const earthRadiusMeters = 6371000.0

// GeofenceStatus classifies a point relative to a site fence.
type GeofenceStatus string

const (
	GeofenceInside      GeofenceStatus = "INSIDE"
	GeofenceOutside     GeofenceStatus = "OUTSIDE"
	GeofenceUnvalidated GeofenceStatus = "UNVALIDATED"
)

// GeofenceResult is the outcome of validating a point against a fence.
type GeofenceResult struct {
	DistanceMeters float64        `json:"distanceMeters"`
	Status         GeofenceStatus `json:"status"`
	Violation      bool           `json:"violation"`
}

// ValidateCoordinate rejects out-of-range latitudes and longitudes before
// any distance math runs.
func ValidateCoordinate(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", lng)
	}
	return nil
}

// HaversineDistance returns the great-circle distance in meters between two
// points. Points are orb.Point in (lng, lat) order.
func HaversineDistance(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLng := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// ValidateGeofence classifies a point against a project fence. Geofencing
// is opt-in per project: a nil or disabled fence yields UNVALIDATED with no
// violation, so its absence never blocks an action. The allowed radius is
// radius+buffer, boundary inclusive.
func ValidateGeofence(lat, lng float64, fence *models.GeoFence) (GeofenceResult, error) {
	if err := ValidateCoordinate(lat, lng); err != nil {
		return GeofenceResult{}, err
	}
	if fence == nil || !fence.Enabled {
		return GeofenceResult{Status: GeofenceUnvalidated}, nil
	}
	if fence.RadiusMeters < 0 || fence.BufferMeters < 0 {
		return GeofenceResult{}, fmt.Errorf("fence radius and buffer must be non-negative")
	}

	point := orb.Point{lng, lat}
	center := orb.Point{fence.CenterLng, fence.CenterLat}
	distance := HaversineDistance(point, center)

	allowed := fence.RadiusMeters + fence.BufferMeters
	result := GeofenceResult{
		DistanceMeters: distance,
		Status:         GeofenceInside,
	}
	if distance > allowed {
		result.Status = GeofenceOutside
		result.Violation = true
	}
	return result, nil
}
