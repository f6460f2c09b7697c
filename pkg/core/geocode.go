package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Default Nominatim service base URL
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

	// Default cache size for geocoding results
	defaultGeocodeCacheSize = 512
)

var (
	// Global geocode cache
	geocodeCache     *lru.Cache[string, *GeocodedPlace]
	geocodeCacheOnce sync.Once
)

// GeocodeOptions defines options for Nominatim search requests
type GeocodeOptions struct {
	// Base URL for the Nominatim service
	BaseURL string

	// CountryCodes restricts results to the given comma-separated ISO codes
	CountryCodes string

	// Client is the HTTP client to use for requests
	Client *http.Client

	// RetryOptions controls retry behavior
	RetryOptions RetryOptions
}

// DefaultGeocodeOptions returns defaults biased to Turkey, where the
// traffic zone model lives.
func DefaultGeocodeOptions() GeocodeOptions {
	return GeocodeOptions{
		BaseURL:      defaultNominatimBaseURL,
		CountryCodes: "tr",
		Client:       &http.Client{Timeout: 10 * time.Second},
		RetryOptions: DefaultRetryOptions,
	}
}

// GeocodedPlace is a single geocoding result
type GeocodedPlace struct {
	Name     string       `json:"name"`
	Location geo.Location `json:"location"`
	Class    string       `json:"class,omitempty"`
	Type     string       `json:"type,omitempty"`
}

// nominatimPlace mirrors the fields we need from a search response entry.
// Nominatim returns coordinates as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// initGeocodeCache initializes the geocode cache
func initGeocodeCache() {
	geocodeCacheOnce.Do(func() {
		var err error
		geocodeCache, err = lru.New[string, *GeocodedPlace](defaultGeocodeCacheSize)
		if err != nil {
			geocodeCache, _ = lru.New[string, *GeocodedPlace](16) // Fallback to smaller cache
		}
	})
}

// GeocodePlace resolves a free-text place name to coordinates using the
// Nominatim search endpoint and returns the best match.
func GeocodePlace(ctx context.Context, query string, options GeocodeOptions) (*GeocodedPlace, error) {
	logger := slog.Default().With("service", "nominatim")

	// Initialize cache if needed
	initGeocodeCache()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewError(ErrEmptyParameter, "Place query cannot be empty")
	}

	// Default options if not provided
	if options.BaseURL == "" {
		options.BaseURL = defaultNominatimBaseURL
	}
	if options.Client == nil {
		options.Client = &http.Client{Timeout: 10 * time.Second}
	}

	// Check cache first
	key := query + "|" + options.CountryCodes
	if cached, found := geocodeCache.Get(key); found {
		logger.Debug("geocode cache hit", "query", query)
		return cached, nil
	}

	logger.Debug("geocode cache miss", "query", query)

	// Build the request URL
	reqURL, err := url.Parse(strings.TrimRight(options.BaseURL, "/") + "/search")
	if err != nil {
		return nil, err
	}

	params := reqURL.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if options.CountryCodes != "" {
		params.Set("countrycodes", options.CountryCodes)
	}
	reqURL.RawQuery = params.Encode()

	// Create the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	// Set User-Agent
	req.Header.Set("User-Agent", "fuel-mcp-server/0.1.0")

	// Execute the request with retries
	resp, err := WithRetry(ctx, req, options.Client, options.RetryOptions)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ServiceError("Nominatim", resp.StatusCode, fmt.Sprintf("Geocoding error: %d", resp.StatusCode))
	}

	var results []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, NewError(ErrParseError, "Failed to parse geocoding response")
	}

	if len(results) == 0 {
		return nil, NewError(ErrNoResults, fmt.Sprintf("No location found for %q", query)).
			WithQuery(query).
			WithGuidance("Try a more specific place name, or pass coordinates directly.")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, NewError(ErrParseError, "Geocoding response had a malformed latitude")
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, NewError(ErrParseError, "Geocoding response had a malformed longitude")
	}

	place := &GeocodedPlace{
		Name:     results[0].DisplayName,
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Class:    results[0].Class,
		Type:     results[0].Type,
	}

	// Cache the result
	geocodeCache.Add(key, place)

	return place, nil
}
