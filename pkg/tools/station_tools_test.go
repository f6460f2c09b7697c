package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/cache"
	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/osm"
)

func TestProcessFuelStations(t *testing.T) {
	anchors := []geo.Location{{Latitude: 41.0, Longitude: 29.0}}

	elements := []osm.OverpassElement{
		{
			ID:   1,
			Type: "node",
			Lat:  41.001, // roughly 110m north of the anchor
			Lon:  29.0,
			Tags: map[string]string{
				"name":          "Opet Kadıköy",
				"brand":         "Opet",
				"fuel:diesel":   "yes",
				"fuel:octane_95": "yes",
			},
		},
		{
			ID:   2,
			Type: "node",
			Lat:  41.5, // tens of kilometers away, outside any sane radius
			Lon:  29.5,
			Tags: map[string]string{"name": "Far Station"},
		},
		{
			ID:   3,
			Type: "way", // no center coordinates, must be skipped
			Tags: map[string]string{"name": "Centerless Way"},
		},
		{
			ID:   4,
			Type: "node",
			Lat:  41.0005,
			Lon:  29.0005,
			Tags: map[string]string{"brand": "Shell"}, // no name, falls back to brand
		},
	}

	t.Run("Within radius", func(t *testing.T) {
		stations := processFuelStations(elements, anchors, 2000, "")
		if len(stations) != 2 {
			t.Fatalf("Expected 2 stations, got %d", len(stations))
		}
		for _, s := range stations {
			if s.Distance > 2000 {
				t.Errorf("Station %s distance %f exceeds radius", s.ID, s.Distance)
			}
		}
	})

	t.Run("Brand filter matches brand tag", func(t *testing.T) {
		stations := processFuelStations(elements, anchors, 2000, "opet")
		if len(stations) != 1 {
			t.Fatalf("Expected 1 station, got %d", len(stations))
		}
		if stations[0].ID != "1" {
			t.Errorf("Expected station 1, got %s", stations[0].ID)
		}
	})

	t.Run("Brand filter matches name tag", func(t *testing.T) {
		stations := processFuelStations(elements, anchors, 2000, "kadıköy")
		if len(stations) != 1 {
			t.Fatalf("Expected 1 station, got %d", len(stations))
		}
	})

	t.Run("Name falls back to brand", func(t *testing.T) {
		stations := processFuelStations(elements, anchors, 2000, "shell")
		if len(stations) != 1 {
			t.Fatalf("Expected 1 station, got %d", len(stations))
		}
		if stations[0].Name != "Shell" {
			t.Errorf("Expected name Shell, got %s", stations[0].Name)
		}
	})

	t.Run("Fuel tags extracted and sorted", func(t *testing.T) {
		stations := processFuelStations(elements, anchors, 2000, "opet")
		if len(stations) != 1 {
			t.Fatalf("Expected 1 station, got %d", len(stations))
		}
		fuels := stations[0].Fuels
		if len(fuels) != 2 || fuels[0] != "diesel" || fuels[1] != "octane_95" {
			t.Errorf("Unexpected fuel tags: %v", fuels)
		}
	})
}

func TestCollectFuelTags(t *testing.T) {
	tags := map[string]string{
		"amenity":       "fuel",
		"fuel:diesel":   "yes",
		"fuel:lpg":      "no",
		"fuel:octane_95": "yes",
		"name":          "Test",
	}

	fuels := collectFuelTags(tags)
	if len(fuels) != 2 {
		t.Fatalf("Expected 2 fuels, got %d: %v", len(fuels), fuels)
	}
	if fuels[0] != "diesel" || fuels[1] != "octane_95" {
		t.Errorf("Unexpected fuels: %v", fuels)
	}

	if got := collectFuelTags(map[string]string{}); len(got) != 0 {
		t.Errorf("Expected no fuels for empty tags, got %v", got)
	}
}

func TestRankFuelStations(t *testing.T) {
	const radius = 2000.0

	stations := []FuelStation{
		{ID: "bare_near", Distance: 100},
		{
			ID:           "rich_near",
			Distance:     300,
			Brand:        "Opet",
			OpeningHours: "24/7",
			Operator:     "Opet A.Ş.",
			Fuels:        []string{"diesel", "lpg", "octane_95"},
		},
		{
			ID:       "rich_far",
			Distance: 1900,
			Brand:    "Shell",
			Fuels:    []string{"diesel"},
		},
		{ID: "bare_far", Distance: 1500},
	}

	rankFuelStations(stations, radius)

	if stations[0].ID != "rich_near" {
		t.Errorf("Expected rich_near first, got %s", stations[0].ID)
	}
	for i, s := range stations {
		if s.Score < 0 || s.Score > stationMaxScore {
			t.Errorf("Station %s score %d out of bounds", s.ID, s.Score)
		}
		if i > 0 && s.Score > stations[i-1].Score {
			t.Errorf("Stations not sorted by score at index %d", i)
		}
	}

	// With no tag data everything scores zero and nearest wins.
	bareIdx := map[string]int{}
	for i, s := range stations {
		if s.ID == "bare_near" || s.ID == "bare_far" {
			bareIdx[s.ID] = i
			if s.Score != 0 {
				t.Errorf("Bare station %s should score 0, got %d", s.ID, s.Score)
			}
		}
	}
	if bareIdx["bare_near"] > bareIdx["bare_far"] {
		t.Error("Nearest bare station should rank above the farther one")
	}
}

func TestHandleFindFuelStationsServesCachedQuery(t *testing.T) {
	const (
		lat    = 41.0
		lon    = 29.0
		radius = 2000.0
	)

	key := stationCachePrefix + core.FuelStationsQuery(lat, lon, radius)
	cache.GetGlobalCache().Set(key, []osm.OverpassElement{
		{
			ID:   7,
			Type: "node",
			Lat:  41.001,
			Lon:  29.0,
			Tags: map[string]string{"name": "Opet Test", "brand": "Opet"},
		},
	})
	t.Cleanup(func() { cache.GetGlobalCache().Delete(key) })

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "find_fuel_stations",
			Arguments: map[string]any{
				"latitude":  lat,
				"longitude": lon,
				"radius":    radius,
			},
		},
	}

	result, err := HandleFindFuelStations(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected success result, but got error")

	var output struct {
		Stations []FuelStation `json:"stations"`
		Count    int           `json:"count"`
	}
	if err := ParseResultJSON(result, &output); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	if output.Count != 1 || len(output.Stations) != 1 {
		t.Fatalf("Expected 1 cached station, got %d", output.Count)
	}
	if output.Stations[0].Name != "Opet Test" {
		t.Errorf("Expected cached station, got %s", output.Stations[0].Name)
	}
}

func TestOverpassErrorResult(t *testing.T) {
	t.Run("MCPError passes through with its code", func(t *testing.T) {
		result := overpassErrorResult(core.NewError(core.ErrRateLimit, "Slow down"))
		AssertErrorResult(t, result, "Expected error result")
		if text := ResultText(result); !strings.Contains(text, string(core.ErrRateLimit)) {
			t.Errorf("Expected error code in result, got: %s", text)
		}
	})

	t.Run("Plain error maps to a service error", func(t *testing.T) {
		result := overpassErrorResult(errors.New("connection reset"))
		AssertErrorResult(t, result, "Expected error result")
		if text := ResultText(result); !strings.Contains(text, "Overpass") {
			t.Errorf("Expected a shaped Overpass service error, got: %s", text)
		}
	})
}

func TestHandleFindFuelStationsInputValidation(t *testing.T) {
	validPolyline := core.EncodePolyline([]geo.Location{
		{Latitude: 41.0, Longitude: 29.0},
		{Latitude: 41.02, Longitude: 29.02},
	})

	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "Missing coordinates and polyline",
			args: map[string]any{},
		},
		{
			name: "Malformed polyline",
			args: map[string]any{"polyline": "bad\x00polyline"},
		},
		{
			name: "Oversized radius with polyline",
			args: map[string]any{
				"polyline": validPolyline,
				"radius":   float64(MaxStationRadiusM + 1),
			},
		},
		{
			name: "Invalid latitude",
			args: map[string]any{
				"latitude":  95.0,
				"longitude": 29.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      "find_fuel_stations",
					Arguments: tt.args,
				},
			}

			result, err := HandleFindFuelStations(context.Background(), req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			AssertErrorResult(t, result, "Expected error result, but got success")
		})
	}
}
