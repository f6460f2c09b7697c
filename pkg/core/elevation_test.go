package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

func resetElevationCache() {
	initElevationCache()
	elevationCache.Purge()
}

// newElevationServer answers lookups with elevation = latitude * 10 so
// tests can verify result ordering.
func newElevationServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	count := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		var req openElevationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		var resp openElevationResult
		for _, loc := range req.Locations {
			resp.Results = append(resp.Results, openElevationLocation{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				Elevation: loc.Latitude * 10,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	return server, &count
}

func TestGetElevationsBatching(t *testing.T) {
	server, count := newElevationServer(t)
	defer server.Close()
	resetElevationCache()

	options := DefaultElevationOptions()
	options.BaseURL = server.URL
	options.BatchSize = 2
	options.Client = server.Client()
	options.RetryOptions.MaxAttempts = 1

	points := []geo.Location{
		{Latitude: 10.1, Longitude: 29.0},
		{Latitude: 10.2, Longitude: 29.0},
		{Latitude: 10.3, Longitude: 29.0},
		{Latitude: 10.4, Longitude: 29.0},
		{Latitude: 10.5, Longitude: 29.0},
	}

	elevations, err := GetElevations(context.Background(), points, options)
	if err != nil {
		t.Fatal(err)
	}

	if len(elevations) != len(points) {
		t.Fatalf("expected %d elevations, got %d", len(points), len(elevations))
	}
	for i, p := range points {
		want := p.Latitude * 10
		if elevations[i] != want {
			t.Errorf("point %d: elevation = %f, want %f", i, elevations[i], want)
		}
	}

	// 5 points at batch size 2 means 3 requests
	if *count != 3 {
		t.Fatalf("expected 3 requests, got %d", *count)
	}
}

func TestGetElevationsCache(t *testing.T) {
	server, count := newElevationServer(t)
	defer server.Close()
	resetElevationCache()

	options := DefaultElevationOptions()
	options.BaseURL = server.URL
	options.Client = server.Client()
	options.RetryOptions.MaxAttempts = 1

	points := []geo.Location{
		{Latitude: 20.1, Longitude: 29.0},
		{Latitude: 20.2, Longitude: 29.0},
	}

	ctx := context.Background()
	first, err := GetElevations(ctx, points, options)
	if err != nil {
		t.Fatal(err)
	}
	if *count != 1 {
		t.Fatalf("expected 1 request, got %d", *count)
	}

	second, err := GetElevations(ctx, points, options)
	if err != nil {
		t.Fatal(err)
	}
	if *count != 1 {
		t.Fatalf("expected cache hit on second call, requests=%d", *count)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("point %d: cached elevation %f != %f", i, second[i], first[i])
		}
	}

	// A nearby point within rounding distance also hits the cache
	nearby := []geo.Location{{Latitude: 20.100001, Longitude: 29.000001}}
	_, err = GetElevations(ctx, nearby, options)
	if err != nil {
		t.Fatal(err)
	}
	if *count != 1 {
		t.Fatalf("expected rounded coordinate to hit cache, requests=%d", *count)
	}
}

func TestGetElevationsServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	resetElevationCache()

	options := DefaultElevationOptions()
	options.BaseURL = server.URL
	options.Client = server.Client()
	options.RetryOptions.MaxAttempts = 1

	points := []geo.Location{{Latitude: 30.1, Longitude: 29.0}}
	_, err := GetElevations(context.Background(), points, options)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetElevationSingle(t *testing.T) {
	server, _ := newElevationServer(t)
	defer server.Close()
	resetElevationCache()

	options := DefaultElevationOptions()
	options.BaseURL = server.URL
	options.Client = server.Client()
	options.RetryOptions.MaxAttempts = 1

	elev, err := GetElevation(context.Background(), geo.Location{Latitude: 40.5, Longitude: 29.0}, options)
	if err != nil {
		t.Fatal(err)
	}
	if elev != 405 {
		t.Errorf("elevation = %f, want 405", elev)
	}
}
