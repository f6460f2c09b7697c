package roadnet

import (
	"math"
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

func TestDirectionForTag(t *testing.T) {
	tests := []struct {
		tag      string
		expected Direction
	}{
		{"yes", DirectionOneway},
		{"1", DirectionOneway},
		{"true", DirectionOneway},
		{"-1", DirectionReverse},
		{"no", DirectionBoth},
		{"", DirectionBoth},
		{"alternating", DirectionBoth},
	}

	for _, tt := range tests {
		t.Run("tag_"+tt.tag, func(t *testing.T) {
			if got := directionForTag(tt.tag); got != tt.expected {
				t.Errorf("directionForTag(%q) = %s, want %s", tt.tag, got, tt.expected)
			}
		})
	}
}

func TestIndexEdgesDirections(t *testing.T) {
	network := &Network{
		Nodes: map[int64]*Node{
			1: {GPS: [2]float64{41.000, 29.000}},
			2: {GPS: [2]float64{41.001, 29.000}},
			3: {GPS: [2]float64{41.002, 29.000}},
			4: {GPS: [2]float64{41.003, 29.000}},
		},
		Edges: []*Edge{
			{From: 1, To: 2, Direction: DirectionBoth},
			{From: 2, To: 3, Direction: DirectionOneway},
			{From: 3, To: 4, Direction: DirectionReverse},
		},
	}

	countTo := func(from, to int64) int {
		n := 0
		for _, tr := range network.neighbors(from) {
			if tr.to() == to {
				n++
			}
		}
		return n
	}

	if countTo(1, 2) != 1 || countTo(2, 1) != 1 {
		t.Error("bidirectional edge should be traversable both ways")
	}
	if countTo(2, 3) != 1 {
		t.Error("oneway edge should be traversable forward")
	}
	if countTo(3, 2) != 0 {
		t.Error("oneway edge must not be traversable backward")
	}
	if countTo(3, 4) != 0 {
		t.Error("reverse-only edge must not be traversable forward")
	}
	if countTo(4, 3) != 1 {
		t.Error("reverse-only edge should be traversable backward")
	}
}

func TestReversedTraversalFlipsSlope(t *testing.T) {
	e := &Edge{From: 1, To: 2, SlopePercent: 8.5, ElevationGain: 12.0}

	forward := traversal{edge: e}
	if forward.slopePercent() != 8.5 || forward.elevationGain() != 12.0 {
		t.Errorf("forward traversal changed slope: got %.1f/%.1f",
			forward.slopePercent(), forward.elevationGain())
	}

	back := traversal{edge: e, reversed: true}
	if back.slopePercent() != -8.5 || back.elevationGain() != -12.0 {
		t.Errorf("reversed traversal should negate slope: got %.1f/%.1f",
			back.slopePercent(), back.elevationGain())
	}
	if back.from() != 2 || back.to() != 1 {
		t.Errorf("reversed traversal endpoints wrong: %d -> %d", back.from(), back.to())
	}
}

func TestNearestNode(t *testing.T) {
	network := &Network{
		Nodes: map[int64]*Node{
			10: {GPS: [2]float64{41.1000, 29.0500}},
			20: {GPS: [2]float64{41.1100, 29.0600}},
			30: {GPS: [2]float64{41.1500, 29.1500}},
		},
	}

	id, dist, ok := network.NearestNode(41.1002, 29.0500)
	if !ok {
		t.Fatal("expected a nearest node")
	}
	if id != 10 {
		t.Errorf("nearest node = %d, want 10", id)
	}
	if dist < 15 || dist > 30 {
		t.Errorf("distance = %.1fm, want roughly 22m", dist)
	}

	empty := &Network{Nodes: map[int64]*Node{}}
	if _, _, ok := empty.NearestNode(41.0, 29.0); ok {
		t.Error("empty network should report no nearest node")
	}
}

func TestTravelSpeedKmh(t *testing.T) {
	tests := []struct {
		name     string
		edge     Edge
		period   fuel.TimeOfDay
		expected float64
	}{
		{
			name:     "peak uses zone average",
			edge:     Edge{SpeedLimitKmh: 120, AvgSpeedPeak: 50, AvgSpeedOffpeak: 95},
			period:   fuel.Peak,
			expected: 50,
		},
		{
			name:     "offpeak uses zone average",
			edge:     Edge{SpeedLimitKmh: 120, AvgSpeedPeak: 50, AvgSpeedOffpeak: 95},
			period:   fuel.Offpeak,
			expected: 95,
		},
		{
			name:     "average capped at the limit",
			edge:     Edge{SpeedLimitKmh: 30, AvgSpeedPeak: 15, AvgSpeedOffpeak: 35},
			period:   fuel.Offpeak,
			expected: 30,
		},
		{
			name:     "missing average falls back to limit",
			edge:     Edge{SpeedLimitKmh: 70},
			period:   fuel.Peak,
			expected: 70,
		},
		{
			name:     "missing everything falls back to default",
			edge:     Edge{},
			period:   fuel.Offpeak,
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.edge.TravelSpeedKmh(tt.period); got != tt.expected {
				t.Errorf("TravelSpeedKmh(%s) = %.0f, want %.0f", tt.period, got, tt.expected)
			}
		})
	}
}

func TestZoneProfileFor(t *testing.T) {
	tests := []struct {
		roadType   string
		zoneKey    string
		peak       float64
		offpeak    float64
		multiplier float64
	}{
		{"motorway", "O-1_O-2_Otoyol", 50, 95, 1.2},
		{"trunk", "O-1_O-2_Otoyol", 50, 95, 1.2},
		{"primary", "D100_E5", 25, 60, 1.8},
		{"secondary", "D100_E5", 25, 60, 1.8},
		{"residential", "Taksim_Sisli", 15, 35, 2.2},
		{"tertiary", "Taksim_Sisli", 15, 35, 2.2},
		{"service", "", 30, 50, 1.5},
		{"unclassified", "", 30, 50, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.roadType, func(t *testing.T) {
			key, peak, offpeak, multiplier := zoneProfileFor(tt.roadType)
			if key != tt.zoneKey {
				t.Errorf("zone key = %q, want %q", key, tt.zoneKey)
			}
			if peak != tt.peak || offpeak != tt.offpeak || multiplier != tt.multiplier {
				t.Errorf("profile = %.0f/%.0f/%.2f, want %.0f/%.0f/%.2f",
					peak, offpeak, multiplier, tt.peak, tt.offpeak, tt.multiplier)
			}
		})
	}
}

func TestBBoxAreaKm2(t *testing.T) {
	// Beykoz test region: 0.05 deg of latitude by 0.10 deg of longitude.
	bbox := geo.BoundingBox{MinLat: 41.10, MinLon: 29.05, MaxLat: 41.15, MaxLon: 29.15}

	area := BBoxAreaKm2(bbox)
	expected := 0.05 * 111.0 * 0.10 * 111.0 * math.Cos(41.125*math.Pi/180)
	if math.Abs(area-expected) > 0.01 {
		t.Errorf("area = %.2f km2, want %.2f", area, expected)
	}
	if area < 40 || area > 50 {
		t.Errorf("area = %.2f km2, expected roughly 46", area)
	}
}

func TestPathLocations(t *testing.T) {
	network := &Network{
		Nodes: map[int64]*Node{
			1: {GPS: [2]float64{41.00, 29.00}},
			2: {GPS: [2]float64{41.01, 29.01}},
		},
	}

	locs := network.PathLocations([]int64{1, 99, 2})
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2 (unknown IDs skipped)", len(locs))
	}
	if locs[0].Latitude != 41.00 || locs[1].Longitude != 29.01 {
		t.Errorf("unexpected locations: %+v", locs)
	}
}
