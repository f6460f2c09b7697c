// Package tools provides the fuel analysis MCP tools implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/tools/prompts"
	"github.com/NERVsystems/fuelmcp/pkg/tracing"
)

// Registry contains all tool definitions and handlers
type Registry struct {
	logger  *slog.Logger
	factory *core.ToolFactory
}

// NewRegistry creates a new tool registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		factory: core.NewToolFactory(),
	}
}

// ToolDefinition represents a fuel analysis MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// Version and reference tools
		{
			Name:        "get_version",
			Description: "Get the version information for this fuel analysis MCP",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},
		{
			Name:        "list_vehicles",
			Description: "List the vehicle catalog with consumption and climbing characteristics",
			Tool:        ListVehiclesTool(),
			Handler:     HandleListVehicles,
		},
		{
			Name:        "list_zones",
			Description: "List the Istanbul traffic zones with speeds, multipliers and tolls",
			Tool:        ListZonesTool(),
			Handler:     HandleListZones,
		},
		{
			Name:        "resolve_zone",
			Description: "Resolve a location hint or coordinate to its traffic zone. Parameters: hint (string), at (object), or from/to (objects with latitude/longitude)",
			Tool:        ResolveZoneTool(),
			Handler:     HandleResolveZone,
		},
		{
			Name:        "get_fuel_prices",
			Description: "Get the current fuel prices and emission factors per fuel type",
			Tool:        GetFuelPricesTool(),
			Handler:     HandleGetFuelPrices,
		},

		// Geocoding tools
		{
			Name:        "geocode_place",
			Description: "Resolve a place name, address, 'lat,lon' pair, DMS, or MGRS string to coordinates",
			Tool:        GeocodePlaceTool(),
			Handler:     HandleGeocodePlace,
		},

		// Fuel analysis tools
		{
			Name:        "analyze_route_fuel",
			Description: "Analyze fuel consumption, cost, and difficulty for a route. Parameters: origin (string), destination (string), vehicle (string), time_of_day (string: peak, offpeak), hour (number), interval (number in meters)",
			Tool:        AnalyzeRouteFuelTool(),
			Handler:     HandleAnalyzeRouteFuel,
		},
		{
			Name:        "compare_vehicles",
			Description: "Compare fuel consumption and difficulty across vehicles on the same route. Parameters: origin (string), destination (string), vehicles (array of strings), time_of_day (string)",
			Tool:        CompareVehiclesTool(),
			Handler:     HandleCompareVehicles,
		},
		{
			Name:        "assess_vehicle_capability",
			Description: "Assess whether a vehicle can handle a route's climbs. Parameters: origin (string), destination (string), vehicle (string)",
			Tool:        AssessVehicleCapabilityTool(),
			Handler:     HandleAssessVehicleCapability,
		},

		// Route tools
		{
			Name:        "route_fetch",
			Description: "Fetch a route between two points. Parameters: start (object with latitude/longitude), end (object with latitude/longitude), mode (string: car, bike, foot)",
			Tool:        RouteFetchTool(),
			Handler:     HandleRouteFetch,
		},
		{
			Name:        "route_sample",
			Description: "Sample points along a route at regular intervals. Parameters: polyline (string), interval (number in meters)",
			Tool:        RouteSampleTool(),
			Handler:     HandleRouteSample,
		},
		{
			Name:        "route_elevation",
			Description: "Fetch elevations for a polyline or list of points. Parameters: polyline (string) or points (array of latitude/longitude objects), interval (number in meters)",
			Tool:        RouteElevationTool(),
			Handler:     HandleRouteElevation,
		},

		// Reporting tools
		{
			Name:        "render_route_charts",
			Description: "Render elevation, consumption, and cost charts for a route analysis. Parameters: origin (string), destination (string), vehicle (string), time_of_day (string)",
			Tool:        RenderRouteChartsTool(),
			Handler:     HandleRenderRouteCharts,
		},
		{
			Name:        "chart_cache",
			Description: "Manage and access cached route charts. Parameters: action (string: list, get, stats), key (string), name (string)",
			Tool:        ChartCacheTool(),
			Handler:     HandleChartCache,
		},
		{
			Name:        "route_map_links",
			Description: "Build Google Maps and OpenStreetMap links for a route. Parameters: polyline (string) or origin/destination (strings)",
			Tool:        RouteMapLinksTool(),
			Handler:     HandleRouteMapLinks,
		},

		// POI tools
		{
			Name:        "find_fuel_stations",
			Description: "Find fuel stations near a point or along a route. Parameters: latitude (number), longitude (number) or polyline (string), radius (number in meters), brand (string), limit (number)",
			Tool:        FindFuelStationsTool(),
			Handler:     HandleFindFuelStations,
		},

		// Road network tools
		{
			Name:        "build_road_network",
			Description: "Build and cache a slope-enriched road graph for a bounding box. Parameters: region (string), min_lat, min_lon, max_lat, max_lon (numbers), force (boolean)",
			Tool:        BuildRoadNetworkTool(),
			Handler:     HandleBuildRoadNetwork,
		},
		{
			Name:        "plan_capability_route",
			Description: "Plan a slope-aware route over a cached network. Parameters: region (string), origin (string), destination (string), vehicle (string), mode (string: power_optimized or balanced)",
			Tool:        PlanCapabilityRouteTool(),
			Handler:     HandlePlanCapabilityRoute,
		},

		// Geo utility tools
		{
			Name:        "geo_distance",
			Description: "Calculate distance between two points. Parameters: from (object with latitude/longitude), to (object with latitude/longitude)",
			Tool:        GeoDistanceTool(),
			Handler:     HandleGeoDistance,
		},
		{
			Name:        "bbox_from_points",
			Description: "Create a bounding box from multiple points. Parameters: points (array of latitude/longitude objects)",
			Tool:        BBoxFromPointsTool(),
			Handler:     HandleBBoxFromPoints,
		},

		// Polyline utilities
		{
			Name:        "polyline_decode",
			Description: "Decode a polyline string into a series of coordinates. Parameters: polyline (string)",
			Tool:        PolylineDecodeTool(),
			Handler:     HandlePolylineDecode,
		},
		{
			Name:        "polyline_encode",
			Description: "Encode a series of coordinates into a polyline string. Parameters: points (array of latitude/longitude objects)",
			Tool:        PolylineEncodeTool(),
			Handler:     HandlePolylineEncode,
		},
	}

	return defs
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		// Wrap handler with tracing
		tracedHandler := r.wrapWithTracing(def.Name, def.Handler)
		mcpServer.AddTool(def.Tool, tracedHandler)
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing
func (r *Registry) wrapWithTracing(toolName string, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Start span
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		// Record start time
		startTime := time.Now()

		// Execute handler
		result, err := handler(ctx, req)

		// Calculate duration
		duration := time.Since(startTime)
		durationMs := duration.Milliseconds()

		// Determine status
		status := tracing.StatusSuccess
		if err != nil {
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		// Calculate result size
		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		// Set final attributes
		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, durationMs),
			attribute.Int(tracing.AttrMCPResultSize, resultSize),
		)

		// Log for debugging
		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", durationMs,
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// RegisterPrompts registers all prompts with the MCP server.
func (r *Registry) RegisterPrompts(mcpServer *server.MCPServer) {
	r.logger.Info("registering fuel analysis prompts")
	prompts.RegisterFuelPrompts(mcpServer)
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterAll registers all tools and prompts with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	// Create a context with the registry for capabilities lookup
	registryCtx := context.WithValue(context.Background(), "registry", r)
	mcpServer.WithContext(registryCtx, nil)

	// Register all tools and prompts
	r.RegisterTools(mcpServer)
	r.RegisterPrompts(mcpServer)
}
