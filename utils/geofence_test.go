package utils

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"p9e.in/siteops/models"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      orb.Point // (lng, lat)
		expected  float64
		tolerance float64
	}{
		{"same point", orb.Point{77.5946, 12.9716}, orb.Point{77.5946, 12.9716}, 0, 0.001},
		// Bangalore to Chennai is about 290 km great-circle.
		{"bangalore to chennai", orb.Point{77.5946, 12.9716}, orb.Point{80.2707, 13.0827}, 290000, 5000},
		// One degree of latitude is about 111.2 km at this Earth radius.
		{"one degree latitude", orb.Point{0, 0}, orb.Point{0, 1}, 111195, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("HaversineDistance() = %.1f, expected %.1f ± %.1f", got, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestHaversineDistanceSymmetry(t *testing.T) {
	a := orb.Point{77.5946, 12.9716}
	b := orb.Point{80.2707, 13.0827}
	if d1, d2 := HaversineDistance(a, b), HaversineDistance(b, a); d1 != d2 {
		t.Errorf("distance not symmetric: %.6f vs %.6f", d1, d2)
	}
}

func TestValidateGeofence(t *testing.T) {
	fence := &models.GeoFence{
		Enabled:      true,
		CenterLat:    12.9716,
		CenterLng:    77.5946,
		RadiusMeters: 200,
		BufferMeters: 50,
	}

	t.Run("point at center is inside", func(t *testing.T) {
		result, err := ValidateGeofence(12.9716, 77.5946, fence)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != GeofenceInside || result.Violation {
			t.Errorf("got status=%s violation=%v, expected INSIDE with no violation", result.Status, result.Violation)
		}
	})

	t.Run("far point is a violation", func(t *testing.T) {
		result, err := ValidateGeofence(13.0827, 80.2707, fence)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != GeofenceOutside || !result.Violation {
			t.Errorf("got status=%s violation=%v, expected OUTSIDE with violation", result.Status, result.Violation)
		}
	})

	t.Run("nil fence is unvalidated", func(t *testing.T) {
		result, err := ValidateGeofence(13.0827, 80.2707, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != GeofenceUnvalidated || result.Violation {
			t.Errorf("got status=%s violation=%v, expected UNVALIDATED with no violation", result.Status, result.Violation)
		}
	})

	t.Run("disabled fence is unvalidated", func(t *testing.T) {
		disabled := &models.GeoFence{Enabled: false, CenterLat: 12.9716, CenterLng: 77.5946, RadiusMeters: 200}
		result, err := ValidateGeofence(13.0827, 80.2707, disabled)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != GeofenceUnvalidated || result.Violation {
			t.Errorf("got status=%s violation=%v, expected UNVALIDATED with no violation", result.Status, result.Violation)
		}
	})

	t.Run("out of range coordinates rejected", func(t *testing.T) {
		if _, err := ValidateGeofence(91, 77.5946, fence); err == nil {
			t.Error("expected error for latitude 91")
		}
		if _, err := ValidateGeofence(12.9716, 181, fence); err == nil {
			t.Error("expected error for longitude 181")
		}
	})
}

// The boundary is inclusive: a point at exactly radius+buffer is INSIDE.
func TestValidateGeofenceBoundaryInclusive(t *testing.T) {
	center := orb.Point{77.5946, 12.9716}
	// Move roughly 250 m north, then set the allowed radius to exactly
	// that measured distance.
	pointLat := 12.9716 + 250.0/111194.9
	distance := HaversineDistance(center, orb.Point{77.5946, pointLat})

	fence := &models.GeoFence{
		Enabled:      true,
		CenterLat:    12.9716,
		CenterLng:    77.5946,
		RadiusMeters: distance,
		BufferMeters: 0,
	}

	result, err := ValidateGeofence(pointLat, 77.5946, fence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Violation {
		t.Errorf("distance exactly radius+buffer must not be a violation (distance %.6f, allowed %.6f)",
			result.DistanceMeters, fence.RadiusMeters+fence.BufferMeters)
	}
	if result.Status != GeofenceInside {
		t.Errorf("got status %s, expected INSIDE at the boundary", result.Status)
	}
}
