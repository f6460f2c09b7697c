package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/tracing"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// ChartResourceScheme is the URI scheme for chart resources
	ChartResourceScheme = "fuel"

	// ChartResourceType is the resource type for rendered charts
	ChartResourceType = "chart"

	// DefaultChartCacheTTL is how long rendered charts stay cached
	DefaultChartCacheTTL = 24 * time.Hour

	// MaxCachedCharts is the maximum number of charts to cache
	MaxCachedCharts = 256
)

// ChartResource represents a rendered route chart as an MCP resource
type ChartResource struct {
	URI         string        `json:"uri"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	MimeType    string        `json:"mimeType"`
	Data        []byte        `json:"-"` // Don't serialize raw data in JSON
	Metadata    ChartMetadata `json:"metadata"`
	CachedAt    time.Time     `json:"cachedAt"`
}

// ChartMetadata describes the analysis a chart was rendered from
type ChartMetadata struct {
	AnalysisKey     string  `json:"analysis_key"`
	Chart           string  `json:"chart"`
	Title           string  `json:"title"`
	VehicleID       string  `json:"vehicle_id"`
	Period          string  `json:"time_of_day"`
	RouteDistanceKm float64 `json:"route_distance_km"`
	SampleCount     int     `json:"sample_count"`
}

// Chart cache keys become URIs and file-adjacent identifiers, so both
// parts are validated before they are stored.
var (
	chartKeyPattern  = regexp.MustCompile(`^[a-f0-9]{6,64}$`)
	chartNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// ChartResourceManager manages chart resources for MCP
type ChartResourceManager struct {
	cache  *TTLCache
	logger *slog.Logger
}

// NewChartResourceManager creates a new chart resource manager
func NewChartResourceManager(logger *slog.Logger) *ChartResourceManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartResourceManager{
		cache:  NewTTLCache(DefaultChartCacheTTL, time.Minute, MaxCachedCharts),
		logger: logger.With("component", "chart_resource_manager"),
	}
}

// PutChart stores a rendered chart and returns its resource URI.
func (crm *ChartResourceManager) PutChart(ctx context.Context, meta ChartMetadata, data []byte) (string, error) {
	_, span := tracing.StartSpan(ctx, "chart_cache.put_resource")
	defer span.End()

	if !chartKeyPattern.MatchString(meta.AnalysisKey) {
		return "", fmt.Errorf("invalid analysis key %q", meta.AnalysisKey)
	}
	if !chartNamePattern.MatchString(meta.Chart) {
		return "", fmt.Errorf("invalid chart name %q", meta.Chart)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("chart %s carries no image data", meta.Chart)
	}

	uri := formatChartURI(meta.AnalysisKey, meta.Chart)
	span.SetAttributes(
		attribute.String("chart.uri", uri),
		attribute.Int("chart.data_size", len(data)),
	)

	title := meta.Title
	if title == "" {
		title = meta.Chart
	}
	resource := &ChartResource{
		URI:         uri,
		Name:        fmt.Sprintf("Chart %s/%s", meta.AnalysisKey, meta.Chart),
		Description: fmt.Sprintf("%s for analysis %s", title, meta.AnalysisKey),
		MimeType:    "image/png",
		Data:        data,
		Metadata:    meta,
		CachedAt:    time.Now(),
	}

	crm.cache.Set(chartCacheKey(meta.AnalysisKey, meta.Chart), resource)
	crm.logger.Debug("chart cached as resource", "uri", uri, "size", len(data))
	return uri, nil
}

// GetChart retrieves a cached chart by analysis key and chart name.
func (crm *ChartResourceManager) GetChart(ctx context.Context, key, name string) (*ChartResource, bool) {
	_, span := tracing.StartSpan(ctx, "chart_cache.get_resource")
	defer span.End()

	cacheKey := chartCacheKey(key, name)
	cached, found := crm.cache.Get(cacheKey)
	span.SetAttributes(tracing.CacheAttributes(tracing.CacheTypeChart, found, cacheKey)...)
	if !found {
		return nil, false
	}

	resource, ok := cached.(*ChartResource)
	if !ok {
		crm.logger.Error("invalid cached chart resource type", "key", cacheKey)
		return nil, false
	}
	return resource, true
}

// ListChartResources returns a list of cached chart resources
func (crm *ChartResourceManager) ListChartResources() []mcp.Resource {
	crm.cache.mu.RLock()
	defer crm.cache.mu.RUnlock()

	var resources []mcp.Resource

	for key, item := range crm.cache.items {
		if !strings.HasPrefix(key, "resource:") {
			continue
		}
		if item.Expired() {
			continue
		}

		chartResource, ok := item.Value.(*ChartResource)
		if !ok {
			continue
		}

		resources = append(resources, mcp.Resource{
			URI:         chartResource.URI,
			Name:        chartResource.Name,
			Description: chartResource.Description,
			MIMEType:    chartResource.MimeType,
		})
	}

	crm.logger.Debug("listed chart resources", "count", len(resources))
	return resources
}

// ReadChartResource reads a chart resource by URI
func (crm *ChartResourceManager) ReadChartResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	_, span := tracing.StartSpan(ctx, "chart_cache.read_resource")
	defer span.End()

	span.SetAttributes(attribute.String("chart.uri", uri))
	logger := crm.logger.With("uri", uri)

	key, name, err := parseChartURI(uri)
	if err != nil {
		logger.Warn("invalid chart URI format", "error", err)
		span.RecordError(err)
		return nil, fmt.Errorf("invalid chart URI: %w", err)
	}

	resource, found := crm.GetChart(ctx, key, name)
	if !found {
		logger.Debug("chart resource not found in cache")
		return nil, fmt.Errorf("chart resource not found: %s", uri)
	}

	metadataJSON, err := json.Marshal(resource.Metadata)
	if err != nil {
		logger.Error("failed to marshal chart metadata", "error", err)
		return nil, fmt.Errorf("failed to serialize metadata: %w", err)
	}

	contents := []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri + "#metadata",
			MIMEType: "application/json",
			Text:     string(metadataJSON),
		},
		mcp.BlobResourceContents{
			URI:      uri,
			MIMEType: resource.MimeType,
			Blob:     base64.StdEncoding.EncodeToString(resource.Data),
		},
	}

	logger.Debug("chart resource read successfully", "contents", len(contents))
	return &mcp.ReadResourceResult{Contents: contents}, nil
}

// GetCacheStats returns statistics about the chart cache
func (crm *ChartResourceManager) GetCacheStats() map[string]interface{} {
	return map[string]interface{}{
		"cached_charts": crm.cache.Count(),
		"max_charts":    MaxCachedCharts,
		"ttl_hours":     DefaultChartCacheTTL.Hours(),
	}
}

func chartCacheKey(key, name string) string {
	return fmt.Sprintf("resource:%s:%s", key, name)
}

// formatChartURI creates a URI for a chart resource
func formatChartURI(key, name string) string {
	return fmt.Sprintf("%s://%s/%s/%s", ChartResourceScheme, ChartResourceType, key, name)
}

// parseChartURI parses a chart URI into analysis key and chart name
func parseChartURI(uri string) (key, name string, err error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid URI format: %w", err)
	}

	if parsed.Scheme != ChartResourceScheme {
		return "", "", fmt.Errorf("invalid scheme: expected %s, got %s", ChartResourceScheme, parsed.Scheme)
	}
	if parsed.Host != ChartResourceType {
		return "", "", fmt.Errorf("invalid resource type: expected %s, got %s", ChartResourceType, parsed.Host)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid path format: expected /key/name, got %s", parsed.Path)
	}

	key, name = parts[0], parts[1]
	if !chartKeyPattern.MatchString(key) {
		return "", "", fmt.Errorf("invalid analysis key %q", key)
	}
	if !chartNamePattern.MatchString(name) {
		return "", "", fmt.Errorf("invalid chart name %q", name)
	}
	return key, name, nil
}
