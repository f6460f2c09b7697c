package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/cache"
	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/report"
)

var (
	chartRenderer     = report.NewRenderer("")
	chartRendererOnce sync.Mutex
)

// SetChartDirectory points the chart renderer at a disk cache directory.
// An empty directory keeps rendering in-memory only.
func SetChartDirectory(dir string) {
	chartRendererOnce.Lock()
	defer chartRendererOnce.Unlock()
	chartRenderer = report.NewRenderer(dir)
}

func getChartRenderer() *report.Renderer {
	chartRendererOnce.Lock()
	defer chartRendererOnce.Unlock()
	return chartRenderer
}

// RenderRouteChartsTool returns a tool definition for rendering the route
// chart set.
func RenderRouteChartsTool() mcp.Tool {
	factory := core.NewToolFactory()
	return factory.CreateVehicleRouteTool("render_route_charts",
		"Render the chart set for a route fuel analysis: elevation profile, per-segment consumption, cumulative fuel, and zone cost breakdown")
}

// RenderedChart describes one rendered chart in the tool output
type RenderedChart struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URI   string `json:"uri,omitempty"`
	Path  string `json:"path,omitempty"`
	Bytes int    `json:"bytes"`
}

// RenderRouteChartsOutput defines the output for chart rendering
type RenderRouteChartsOutput struct {
	AnalysisKey string          `json:"analysis_key"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Charts      []RenderedChart `json:"charts"`
}

// HandleRenderRouteCharts implements route chart rendering
func HandleRenderRouteCharts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "render_route_charts")

	params, errResult, err := ValidateAnalysisParameters(req, "render_route_charts", logger)
	if err != nil {
		return errResult, nil
	}

	analysis, errResult := runRouteAnalysis(ctx, params, logger)
	if errResult != nil {
		return errResult, nil
	}

	images, err := getChartRenderer().Render(analysis)
	if err != nil {
		logger.Error("chart rendering failed", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to render charts").ToMCPResult(), nil
	}

	key := analysis.CacheKey()
	output := RenderRouteChartsOutput{
		AnalysisKey: key,
		Origin:      analysis.Origin,
		Destination: analysis.Destination,
		Charts:      make([]RenderedChart, 0, len(images)),
	}

	// Cache each rendered chart as an MCP resource; failures only lose
	// resource URIs, the inline images still go out.
	crm := core.GetChartResourceManager()
	contents := make([]mcp.Content, 0, len(images)+1)
	for _, img := range images {
		entry := RenderedChart{
			Name:  img.Name,
			Title: img.Title,
			Path:  img.Path,
			Bytes: len(img.PNG),
		}
		if crm != nil {
			meta := cache.ChartMetadata{
				AnalysisKey:     key,
				Chart:           img.Name,
				Title:           img.Title,
				VehicleID:       analysis.Vehicle.ID,
				Period:          string(analysis.Period),
				RouteDistanceKm: analysis.Stats.TotalDistanceKm,
				SampleCount:     len(analysis.Points),
			}
			if uri, putErr := crm.PutChart(ctx, meta, img.PNG); putErr == nil {
				entry.URI = uri
			} else {
				logger.Warn("failed to cache chart resource", "chart", img.Name, "error", putErr)
			}
		}
		output.Charts = append(output.Charts, entry)
		contents = append(contents, mcp.ImageContent{
			Type:     "image",
			Data:     base64.StdEncoding.EncodeToString(img.PNG),
			MIMEType: "image/png",
		})
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	contents = append(contents, mcp.TextContent{Type: "text", Text: string(resultBytes)})
	return &mcp.CallToolResult{Content: contents}, nil
}

// ChartCacheTool returns a tool definition for inspecting the chart cache
func ChartCacheTool() mcp.Tool {
	return mcp.NewTool("chart_cache",
		mcp.WithDescription("Manage and access cached route charts. Actions: list, get, stats"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Action to perform: list, get, or stats"),
		),
		mcp.WithString("key",
			mcp.Description("Analysis key (for 'get')"),
		),
		mcp.WithString("name",
			mcp.Description("Chart name (for 'get'), e.g. elevation_profile"),
		),
	)
}

// HandleChartCache implements chart cache inspection
func HandleChartCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "chart_cache")

	crm := core.GetChartResourceManager()
	if crm == nil {
		return core.NewError(core.ErrInternalError, "Chart resource manager is not initialized").ToMCPResult(), nil
	}

	action := mcp.ParseString(req, "action", "")
	switch action {
	case "list":
		resources := crm.ListChartResources()
		resultBytes, err := json.Marshal(map[string]any{
			"charts": resources,
			"count":  len(resources),
		})
		if err != nil {
			logger.Error("failed to marshal result", "error", err)
			return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
		}
		return mcp.NewToolResultText(string(resultBytes)), nil

	case "get":
		key := mcp.ParseString(req, "key", "")
		name := mcp.ParseString(req, "name", "")
		if key == "" || name == "" {
			return core.NewError(core.ErrMissingParameter, "Both key and name are required for 'get'").
				WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("chart_cache"))).
				ToMCPResult(), nil
		}
		resource, found := crm.GetChart(ctx, key, name)
		if !found {
			return core.NewError(core.ErrNoResults, fmt.Sprintf("No cached chart %s/%s", key, name)).
				WithGuidance("Render the charts first with render_route_charts").
				ToMCPResult(), nil
		}
		metaBytes, err := json.Marshal(resource.Metadata)
		if err != nil {
			logger.Error("failed to marshal metadata", "error", err)
			return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.ImageContent{
					Type:     "image",
					Data:     base64.StdEncoding.EncodeToString(resource.Data),
					MIMEType: resource.MimeType,
				},
				mcp.TextContent{Type: "text", Text: string(metaBytes)},
			},
		}, nil

	case "stats":
		resultBytes, err := json.Marshal(crm.GetCacheStats())
		if err != nil {
			logger.Error("failed to marshal result", "error", err)
			return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
		}
		return mcp.NewToolResultText(string(resultBytes)), nil

	default:
		return core.NewError(core.ErrInvalidParameter, fmt.Sprintf("Invalid action: %s", action)).
			WithGuidance("Use 'list', 'get', or 'stats'").
			ToMCPResult(), nil
	}
}

// RouteMapLinksTool returns a tool definition for external map links
func RouteMapLinksTool() mcp.Tool {
	return mcp.NewTool("route_map_links",
		mcp.WithDescription("Build Google Maps and OpenStreetMap links for a route polyline or pair of endpoints"),
		mcp.WithString("polyline",
			mcp.Description("Encoded route polyline (alternative to origin/destination)"),
		),
		mcp.WithString("origin",
			mcp.Description("Starting point: place name, 'lat,lon', DMS, or MGRS"),
		),
		mcp.WithString("destination",
			mcp.Description("Destination: place name, 'lat,lon', DMS, or MGRS"),
		),
	)
}

// RouteMapLinksOutput defines the output for map link generation
type RouteMapLinksOutput struct {
	Links      report.MapLinks `json:"links"`
	PointCount int             `json:"point_count"`
}

// HandleRouteMapLinks implements map link generation
func HandleRouteMapLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "route_map_links")

	polyline := mcp.ParseString(req, "polyline", "")
	origin := mcp.ParseString(req, "origin", "")
	destination := mcp.ParseString(req, "destination", "")

	switch {
	case polyline != "":
		decoded, err := core.DecodePolyline(polyline)
		if err != nil || len(decoded) < 2 {
			logger.Error("malformed polyline", "error", err)
			return core.NewError(core.ErrInvalidInput, "Polyline must decode to at least 2 points").ToMCPResult(), nil
		}
		output := RouteMapLinksOutput{Links: report.Links(decoded), PointCount: len(decoded)}
		resultBytes, err := json.Marshal(output)
		if err != nil {
			logger.Error("failed to marshal result", "error", err)
			return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
		}
		return mcp.NewToolResultText(string(resultBytes)), nil

	case origin != "" && destination != "":
		from, err := resolvePlace(ctx, origin)
		if err != nil {
			logger.Error("failed to resolve origin", "origin", origin, "error", err)
			return placeErrorResult(err, origin), nil
		}
		to, err := resolvePlace(ctx, destination)
		if err != nil {
			logger.Error("failed to resolve destination", "destination", destination, "error", err)
			return placeErrorResult(err, destination), nil
		}

		route, err := core.GetSimpleRoute(ctx,
			[]float64{from.Location.Longitude, from.Location.Latitude},
			[]float64{to.Location.Longitude, to.Location.Latitude},
			"car")
		if err != nil {
			logger.Error("failed to fetch route", "error", err)
			if mcpErr, ok := err.(*core.MCPError); ok {
				return mcpErr.ToMCPResult(), nil
			}
			return core.ServiceError("OSRM", http.StatusServiceUnavailable, "Failed to fetch route").
				WithGuidance(GuidanceOSRMGeneral).
				ToMCPResult(), nil
		}
		decoded, err := core.DecodePolyline(route.Polyline)
		if err != nil || len(decoded) < 2 {
			logger.Error("route geometry unusable", "error", err)
			return core.NewError(core.ErrInsufficientRoute, "Route geometry contains fewer than two points").ToMCPResult(), nil
		}
		output := RouteMapLinksOutput{Links: report.Links(decoded), PointCount: len(decoded)}
		resultBytes, err := json.Marshal(output)
		if err != nil {
			logger.Error("failed to marshal result", "error", err)
			return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
		}
		return mcp.NewToolResultText(string(resultBytes)), nil

	default:
		return core.NewError(core.ErrMissingParameter, "Provide a polyline, or both origin and destination").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("route_map_links"))).
			ToMCPResult(), nil
	}
}
