package roadnet

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/osm"
)

// fastRetry keeps error-path tests from sleeping through backoff delays.
var fastRetry = core.RetryOptions{
	MaxAttempts:  1,
	InitialDelay: time.Millisecond,
	MaxDelay:     time.Millisecond,
	Multiplier:   1.0,
}

// newOverpassStub serves a canned Overpass payload and counts requests.
func newOverpassStub(t *testing.T, payload string, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		if r.Method != http.MethodPost {
			t.Errorf("overpass request method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing overpass form: %v", err)
		}
		data := r.PostFormValue("data")
		if !strings.Contains(data, "out skel qt") || !strings.Contains(data, `"highway"`) {
			t.Errorf("overpass query missing expected clauses: %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
}

// newElevationStub answers lookup requests with elevation derived from
// latitude, so tests can predict every node's height.
func newElevationStub(t *testing.T, baseLat float64, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		var req struct {
			Locations []struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"locations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding elevation request: %v", err)
		}

		type point struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Elevation float64 `json:"elevation"`
		}
		resp := struct {
			Results []point `json:"results"`
		}{}
		for _, loc := range req.Locations {
			resp.Results = append(resp.Results, point{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				Elevation: math.Round((loc.Latitude - baseLat) * 10000),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encoding elevation response: %v", err)
		}
	}))
}

func testBuildOptions(overpassURL, elevationURL string) BuildOptions {
	options := DefaultBuildOptions()
	options.OverpassBaseURL = overpassURL
	options.Client = &http.Client{Timeout: 5 * time.Second}
	options.RetryOptions = fastRetry
	options.Elevation = core.ElevationOptions{
		BaseURL:      elevationURL,
		BatchSize:    100,
		Client:       &http.Client{Timeout: 5 * time.Second},
		RetryOptions: fastRetry,
	}
	return options
}

// beykozPayload is a tiny drivable-ways download: a residential street
// through nodes 1-2-3 and a oneway motorway link from 3 to 4. Nodes climb
// 10m per step so slopes are predictable.
const beykozPayload = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 41.1000, "lon": 29.0500},
    {"type": "node", "id": 2, "lat": 41.1010, "lon": 29.0500},
    {"type": "node", "id": 3, "lat": 41.1020, "lon": 29.0500},
    {"type": "node", "id": 4, "lat": 41.1030, "lon": 29.0500},
    {"type": "way", "id": 100, "nodes": [1, 2, 3],
     "tags": {"highway": "residential", "name": "Çamlık Sokak"}},
    {"type": "way", "id": 200, "nodes": [3, 4],
     "tags": {"highway": "motorway", "oneway": "yes", "maxspeed": "120", "lanes": "3"}}
  ]
}`

func TestBuildNetwork(t *testing.T) {
	var overpassHits, elevationHits int32
	overpass := newOverpassStub(t, beykozPayload, &overpassHits)
	defer overpass.Close()
	elevation := newElevationStub(t, 41.1000, &elevationHits)
	defer elevation.Close()

	bbox := geo.BoundingBox{MinLat: 41.09, MinLon: 29.04, MaxLat: 41.11, MaxLon: 29.06}
	network, err := BuildNetwork(context.Background(), bbox, testBuildOptions(overpass.URL, elevation.URL))
	if err != nil {
		t.Fatalf("BuildNetwork failed: %v", err)
	}

	stats := network.Stats()
	if stats.NodeCount != 4 {
		t.Errorf("node count = %d, want 4", stats.NodeCount)
	}
	if stats.EdgeCount != 3 {
		t.Errorf("edge count = %d, want 3", stats.EdgeCount)
	}
	if network.BuiltAt.IsZero() {
		t.Error("BuiltAt should be set")
	}
	if network.BBox != bbox {
		t.Errorf("bbox = %+v, want %+v", network.BBox, bbox)
	}
	if atomic.LoadInt32(&overpassHits) != 1 {
		t.Errorf("overpass requests = %d, want 1", overpassHits)
	}

	if got := network.Nodes[1].Elevation; got != 0 {
		t.Errorf("node 1 elevation = %.1f, want 0", got)
	}
	if got := network.Nodes[4].Elevation; got != 30 {
		t.Errorf("node 4 elevation = %.1f, want 30", got)
	}

	var street, motorway *Edge
	for _, e := range network.Edges {
		switch {
		case e.From == 1 && e.To == 2:
			street = e
		case e.From == 3 && e.To == 4:
			motorway = e
		}
	}
	if street == nil || motorway == nil {
		t.Fatalf("expected edges 1->2 and 3->4, got %+v", network.Edges)
	}

	if street.Direction != DirectionBoth {
		t.Errorf("street direction = %s, want %s", street.Direction, DirectionBoth)
	}
	if street.RoadType != "residential" || street.StreetName != "Çamlık Sokak" {
		t.Errorf("street identity = %s/%s", street.RoadType, street.StreetName)
	}
	if street.SpeedLimitKmh != 50 || street.Lanes != 1 {
		t.Errorf("street defaults = %d km/h, %d lanes; want 50, 1", street.SpeedLimitKmh, street.Lanes)
	}
	if street.TrafficZone != "Taksim_Sisli" {
		t.Errorf("street zone = %q, want Taksim_Sisli", street.TrafficZone)
	}
	if street.AvgSpeedPeak != 15 || street.AvgSpeedOffpeak != 35 || street.TrafficMultiplier != 2.2 {
		t.Errorf("street profile = %.0f/%.0f/%.1f, want 15/35/2.2",
			street.AvgSpeedPeak, street.AvgSpeedOffpeak, street.TrafficMultiplier)
	}
	if math.Abs(street.DistanceM-111.2) > 1.0 {
		t.Errorf("street distance = %.1fm, want about 111.2m", street.DistanceM)
	}
	if math.Abs(street.ElevationGain-10) > 0.01 {
		t.Errorf("street elevation gain = %.2fm, want 10m", street.ElevationGain)
	}
	if math.Abs(street.SlopePercent-9.0) > 0.2 {
		t.Errorf("street slope = %.2f%%, want about 9%%", street.SlopePercent)
	}

	if motorway.Direction != DirectionOneway {
		t.Errorf("motorway direction = %s, want %s", motorway.Direction, DirectionOneway)
	}
	if motorway.SpeedLimitKmh != 120 || motorway.Lanes != 3 {
		t.Errorf("motorway tags = %d km/h, %d lanes; want 120, 3", motorway.SpeedLimitKmh, motorway.Lanes)
	}
	if motorway.StreetName != "Unnamed Road" {
		t.Errorf("motorway street = %q, want Unnamed Road", motorway.StreetName)
	}
	if motorway.TrafficZone != "O-1_O-2_Otoyol" {
		t.Errorf("motorway zone = %q, want O-1_O-2_Otoyol", motorway.TrafficZone)
	}
	if motorway.AvgSpeedPeak != 50 || motorway.AvgSpeedOffpeak != 95 || motorway.TrafficMultiplier != 1.2 {
		t.Errorf("motorway profile = %.0f/%.0f/%.1f, want 50/95/1.2",
			motorway.AvgSpeedPeak, motorway.AvgSpeedOffpeak, motorway.TrafficMultiplier)
	}

	// The oneway link is usable forward but not backward.
	forward := false
	for _, tr := range network.neighbors(3) {
		if tr.to() == 4 {
			forward = true
		}
	}
	if !forward {
		t.Error("motorway should be traversable from 3 to 4")
	}
	for _, tr := range network.neighbors(4) {
		if tr.to() == 3 {
			t.Error("motorway must not be traversable from 4 to 3")
		}
	}
}

func TestBuildNetworkOverpassError(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	bbox := geo.BoundingBox{MinLat: 41.0, MinLon: 29.0, MaxLat: 41.1, MaxLon: 29.1}
	_, err := BuildNetwork(context.Background(), bbox, testBuildOptions(server.URL, server.URL))
	if err == nil {
		t.Fatal("expected an error from a failing Overpass server")
	}
	if !strings.Contains(err.Error(), "overpass request failed") {
		t.Errorf("error = %v, want overpass request failure", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("overpass requests = %d, want 1", hits)
	}
}

func TestBuildNetworkInvalidBBox(t *testing.T) {
	var hits int32
	server := newOverpassStub(t, beykozPayload, &hits)
	defer server.Close()

	bbox := geo.BoundingBox{MinLat: 41.2, MinLon: 29.0, MaxLat: 41.1, MaxLon: 29.1}
	_, err := BuildNetwork(context.Background(), bbox, testBuildOptions(server.URL, server.URL))
	if err == nil {
		t.Fatal("expected an error for an inverted bounding box")
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("overpass requests = %d, want 0", hits)
	}
}

func TestBuildNetworkElevationFailure(t *testing.T) {
	var overpassHits, elevationHits int32

	// Distinct coordinates from the happy-path test so cached elevations
	// cannot mask the provider failure.
	payload := `{
	  "elements": [
	    {"type": "node", "id": 11, "lat": 41.2000, "lon": 29.2000},
	    {"type": "node", "id": 12, "lat": 41.2010, "lon": 29.2000},
	    {"type": "way", "id": 300, "nodes": [11, 12], "tags": {"highway": "residential"}}
	  ]
	}`
	overpass := newOverpassStub(t, payload, &overpassHits)
	defer overpass.Close()

	elevation := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&elevationHits, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer elevation.Close()

	bbox := geo.BoundingBox{MinLat: 41.19, MinLon: 29.19, MaxLat: 41.21, MaxLon: 29.21}
	network, err := BuildNetwork(context.Background(), bbox, testBuildOptions(overpass.URL, elevation.URL))
	if err != nil {
		t.Fatalf("build should survive an elevation outage: %v", err)
	}

	if got := network.Nodes[11].Elevation; got != 0 {
		t.Errorf("node 11 elevation = %.1f, want 0 after provider failure", got)
	}
	if len(network.Edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(network.Edges))
	}
	if network.Edges[0].SlopePercent != 0 {
		t.Errorf("slope = %.2f%%, want 0 when elevations default", network.Edges[0].SlopePercent)
	}
	if atomic.LoadInt32(&elevationHits) != 1 {
		t.Errorf("elevation requests = %d, want 1", elevationHits)
	}
}

// mustOverpassElements decodes a raw Overpass payload fixture.
func mustOverpassElements(t *testing.T, payload string) []osm.OverpassElement {
	t.Helper()
	var parsed struct {
		Elements []osm.OverpassElement `json:"elements"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return parsed.Elements
}

func TestParseElementsSkipsMissingNodes(t *testing.T) {
	payload := `{
	  "elements": [
	    {"type": "node", "id": 1, "lat": 41.0, "lon": 29.0},
	    {"type": "node", "id": 2, "lat": 41.001, "lon": 29.0},
	    {"type": "way", "id": 500, "nodes": [1, 99, 2], "tags": {"highway": "residential"}},
	    {"type": "way", "id": 501, "nodes": [1, 2, 98], "tags": {"highway": "residential"}}
	  ]
	}`
	network := parseElements(mustOverpassElements(t, payload))
	if len(network.Nodes) != 2 {
		t.Errorf("node count = %d, want 2", len(network.Nodes))
	}
	// Way 500 contributes nothing (both pairs touch node 99); way 501
	// contributes only the 1-2 pair.
	if len(network.Edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(network.Edges))
	}
	if network.Edges[0].From != 1 || network.Edges[0].To != 2 {
		t.Errorf("edge = %d->%d, want 1->2", network.Edges[0].From, network.Edges[0].To)
	}
}

func TestParseElementsDefaults(t *testing.T) {
	payload := `{
	  "elements": [
	    {"type": "node", "id": 1, "lat": 41.0, "lon": 29.0},
	    {"type": "node", "id": 2, "lat": 41.001, "lon": 29.0},
	    {"type": "way", "id": 600, "nodes": [1, 2]}
	  ]
	}`
	network := parseElements(mustOverpassElements(t, payload))
	if len(network.Edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(network.Edges))
	}

	e := network.Edges[0]
	if e.RoadType != "unclassified" {
		t.Errorf("road type = %q, want unclassified", e.RoadType)
	}
	if e.StreetName != "Unnamed Road" {
		t.Errorf("street = %q, want Unnamed Road", e.StreetName)
	}
	if e.SpeedLimitKmh != 50 || e.Lanes != 1 {
		t.Errorf("defaults = %d km/h, %d lanes; want 50, 1", e.SpeedLimitKmh, e.Lanes)
	}
	if e.Direction != DirectionBoth {
		t.Errorf("direction = %s, want %s", e.Direction, DirectionBoth)
	}
}
