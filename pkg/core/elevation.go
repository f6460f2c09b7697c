package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Default Open-Elevation service base URL
	defaultOpenElevationBaseURL = "https://api.open-elevation.com"

	// Default cache size for elevation lookups
	defaultElevationCacheSize = 8192

	// Default number of points per lookup request
	defaultElevationBatchSize = 100
)

var (
	// Global elevation cache
	elevationCache     *lru.Cache[string, float64]
	elevationCacheOnce sync.Once
)

// ElevationOptions defines options for Open-Elevation lookups
type ElevationOptions struct {
	// Base URL for the Open-Elevation service
	BaseURL string

	// BatchSize is the number of points sent per lookup request
	BatchSize int

	// Client is the HTTP client to use for requests
	Client *http.Client

	// RetryOptions controls retry behavior
	RetryOptions RetryOptions
}

// DefaultElevationOptions returns reasonable defaults for elevation lookups
func DefaultElevationOptions() ElevationOptions {
	return ElevationOptions{
		BaseURL:      defaultOpenElevationBaseURL,
		BatchSize:    defaultElevationBatchSize,
		Client:       &http.Client{Timeout: 30 * time.Second},
		RetryOptions: DefaultRetryOptions,
	}
}

// openElevationLocation is a single point in the lookup request or response
type openElevationLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
}

type openElevationRequest struct {
	Locations []openElevationLocation `json:"locations"`
}

type openElevationResult struct {
	Results []openElevationLocation `json:"results"`
}

// initElevationCache initializes the elevation cache
func initElevationCache() {
	elevationCacheOnce.Do(func() {
		var err error
		elevationCache, err = lru.New[string, float64](defaultElevationCacheSize)
		if err != nil {
			elevationCache, _ = lru.New[string, float64](64) // Fallback to smaller cache
		}
	})
}

// elevationCacheKey rounds a location to about a meter so nearby lookups
// share cache entries.
func elevationCacheKey(loc geo.Location) string {
	return fmt.Sprintf("%.5f,%.5f", loc.Latitude, loc.Longitude)
}

// GetElevations returns the elevation in meters for each input point, in
// input order. Lookups are cached. Points the service does not resolve come
// back as 0, matching the behavior expected by grade calculations.
func GetElevations(ctx context.Context, points []geo.Location, options ElevationOptions) ([]float64, error) {
	logger := slog.Default().With("service", "elevation")

	// Initialize cache if needed
	initElevationCache()

	// Default options if not provided
	if options.BaseURL == "" {
		options.BaseURL = defaultOpenElevationBaseURL
	}
	if options.BatchSize <= 0 {
		options.BatchSize = defaultElevationBatchSize
	}
	if options.Client == nil {
		options.Client = &http.Client{Timeout: 30 * time.Second}
	}

	out := make([]float64, len(points))

	// Resolve what we can from the cache and collect the misses
	missing := make([]int, 0, len(points))
	for i, p := range points {
		if v, found := elevationCache.Get(elevationCacheKey(p)); found {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		logger.Debug("elevation cache hit", "points", len(points))
		return out, nil
	}

	logger.Debug("elevation cache miss", "misses", len(missing), "points", len(points))

	// Fetch the misses in batches
	for start := 0; start < len(missing); start += options.BatchSize {
		end := start + options.BatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		results, err := lookupElevationBatch(ctx, points, batch, options)
		if err != nil {
			return nil, err
		}

		for bi, idx := range batch {
			out[idx] = results[bi]
			elevationCache.Add(elevationCacheKey(points[idx]), results[bi])
		}
	}

	return out, nil
}

// GetElevation is a convenience wrapper for a single point
func GetElevation(ctx context.Context, point geo.Location, options ElevationOptions) (float64, error) {
	elevations, err := GetElevations(ctx, []geo.Location{point}, options)
	if err != nil {
		return 0, err
	}
	return elevations[0], nil
}

// lookupElevationBatch posts one batch of points to the lookup endpoint
func lookupElevationBatch(ctx context.Context, points []geo.Location, batch []int, options ElevationOptions) ([]float64, error) {
	reqBody := openElevationRequest{Locations: make([]openElevationLocation, len(batch))}
	for i, idx := range batch {
		reqBody.Locations[i] = openElevationLocation{
			Latitude:  points[idx].Latitude,
			Longitude: points[idx].Longitude,
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	lookupURL := strings.TrimRight(options.BaseURL, "/") + "/api/v1/lookup"

	// POST bodies are consumed on send, so build a fresh request per attempt
	requestFactory := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, lookupURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "fuel-mcp-server/0.1.0")
		return req, nil
	}

	resp, err := WithRetryFactory(ctx, requestFactory, options.Client, options.RetryOptions)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ServiceError("OpenElevation", resp.StatusCode, fmt.Sprintf("Elevation service error: %d", resp.StatusCode))
	}

	var parsed openElevationResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	// Unresolved points stay at 0
	results := make([]float64, len(batch))
	for i := range batch {
		if i < len(parsed.Results) {
			results[i] = parsed.Results[i].Elevation
		}
	}

	return results, nil
}
