package geo

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	testCases := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64 // meters
		tolerance float64 // meters
	}{
		{
			name:      "same point",
			lat1:      41.0082,
			lon1:      28.9784,
			lat2:      41.0082,
			lon2:      28.9784,
			expected:  0,
			tolerance: 0.001,
		},
		{
			name:      "taksim to kadikoy",
			lat1:      41.0370,
			lon1:      28.9850,
			lat2:      40.9900,
			lon2:      29.0250,
			expected:  6200,
			tolerance: 300,
		},
		{
			name:      "one degree of latitude",
			lat1:      40.0,
			lon1:      29.0,
			lat2:      41.0,
			lon2:      29.0,
			expected:  111195,
			tolerance: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineDistance(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.expected) > tc.tolerance {
				t.Errorf("HaversineDistance() = %f, want %f (±%f)", got, tc.expected, tc.tolerance)
			}

			// Distance must be symmetric
			back := HaversineDistance(tc.lat2, tc.lon2, tc.lat1, tc.lon1)
			if math.Abs(got-back) > 1e-9 {
				t.Errorf("distance not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()

	points := []Location{
		{Latitude: 41.01, Longitude: 28.98},
		{Latitude: 41.11, Longitude: 29.05},
		{Latitude: 40.95, Longitude: 29.15},
	}
	for _, p := range points {
		bbox.ExtendWithPoint(p.Latitude, p.Longitude)
	}

	if !bbox.Valid() {
		t.Fatalf("bounding box invalid after extending: %+v", bbox)
	}
	if bbox.MinLat != 40.95 || bbox.MaxLat != 41.11 {
		t.Errorf("latitude bounds = [%f, %f], want [40.95, 41.11]", bbox.MinLat, bbox.MaxLat)
	}
	if bbox.MinLon != 28.98 || bbox.MaxLon != 29.15 {
		t.Errorf("longitude bounds = [%f, %f], want [28.98, 29.15]", bbox.MinLon, bbox.MaxLon)
	}

	center := bbox.Center()
	if math.Abs(center.Latitude-41.03) > 1e-9 {
		t.Errorf("center latitude = %f, want 41.03", center.Latitude)
	}
}

func TestBoundingBoxEmptyInvalid(t *testing.T) {
	bbox := NewBoundingBox()
	if bbox.Valid() {
		t.Error("empty bounding box should not be valid")
	}
}
