package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/roadnet"
)

var (
	networkManagerMu sync.Mutex
	networkManager   *roadnet.Manager
)

// SetNetworkCacheDir points the road network manager at a disk cache
// directory. An empty directory disables disk caching but builds still work.
func SetNetworkCacheDir(dir string) {
	networkManagerMu.Lock()
	defer networkManagerMu.Unlock()
	networkManager = roadnet.NewManager(dir, roadnet.DefaultBuildOptions())
}

func getNetworkManager() *roadnet.Manager {
	networkManagerMu.Lock()
	defer networkManagerMu.Unlock()
	if networkManager == nil {
		networkManager = roadnet.NewManager("", roadnet.DefaultBuildOptions())
	}
	return networkManager
}

// BuildRoadNetworkTool returns a tool definition for building a road network
func BuildRoadNetworkTool() mcp.Tool {
	return mcp.NewTool("build_road_network",
		mcp.WithDescription("Download the drivable road graph for a bounding box, enrich it with elevations and traffic-zone speeds, and cache it under a region name"),
		mcp.WithString("region",
			mcp.Required(),
			mcp.Description("Region name to cache the network under, e.g. kadikoy"),
		),
		mcp.WithNumber("min_lat",
			mcp.Required(),
			mcp.Description("Southern latitude of the bounding box"),
		),
		mcp.WithNumber("min_lon",
			mcp.Required(),
			mcp.Description("Western longitude of the bounding box"),
		),
		mcp.WithNumber("max_lat",
			mcp.Required(),
			mcp.Description("Northern latitude of the bounding box"),
		),
		mcp.WithNumber("max_lon",
			mcp.Required(),
			mcp.Description("Eastern longitude of the bounding box"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Rebuild even when a cached network exists"),
			mcp.DefaultBool(false),
		),
	)
}

// BuildRoadNetworkOutput defines the output for a network build
type BuildRoadNetworkOutput struct {
	Region    string  `json:"region"`
	NodeCount int     `json:"node_count"`
	EdgeCount int     `json:"edge_count"`
	AreaKm2   float64 `json:"area_km2"`
	CachePath string  `json:"cache_path,omitempty"`
	FromCache bool    `json:"from_cache"`
}

// HandleBuildRoadNetwork implements road network construction
func HandleBuildRoadNetwork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "build_road_network")

	region := mcp.ParseString(req, "region", "")
	if region == "" {
		return core.NewError(core.ErrMissingParameter, "Region name is required").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("build_road_network"))).
			ToMCPResult(), nil
	}

	minLat := mcp.ParseFloat64(req, "min_lat", 0)
	minLon := mcp.ParseFloat64(req, "min_lon", 0)
	maxLat := mcp.ParseFloat64(req, "max_lat", 0)
	maxLon := mcp.ParseFloat64(req, "max_lon", 0)
	force := strings.ToLower(mcp.ParseString(req, "force", "false")) == "true"

	if err := ValidateCoordinates(minLat, minLon); err != nil {
		logger.Error("invalid bounding box corner", "error", err)
		return core.NewError(core.ErrInvalidParameter, err.Error()).ToMCPResult(), nil
	}
	if err := ValidateCoordinates(maxLat, maxLon); err != nil {
		logger.Error("invalid bounding box corner", "error", err)
		return core.NewError(core.ErrInvalidParameter, err.Error()).ToMCPResult(), nil
	}
	if minLat >= maxLat || minLon >= maxLon {
		return core.NewError(core.ErrInvalidParameter, "Bounding box is inverted: min must be strictly south-west of max").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("build_road_network"))).
			ToMCPResult(), nil
	}

	bbox := geo.BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	area := roadnet.BBoxAreaKm2(bbox)
	if area > MaxNetworkAreaKm2 {
		return core.NewError(core.ErrInvalidParameter,
			fmt.Sprintf("Bounding box covers %.0f km², the limit is %.0f km²", area, MaxNetworkAreaKm2)).
			WithGuidance("Split large areas into district-sized regions and build them separately").
			ToMCPResult(), nil
	}

	manager := getNetworkManager()
	fromCache := !force && manager.CacheExists(region)

	var network *roadnet.Network
	var err error
	if force {
		network, err = manager.Build(ctx, region, bbox)
	} else {
		network, err = manager.LoadOrBuild(ctx, region, bbox)
	}
	if err != nil {
		logger.Error("network build failed", "region", region, "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		return core.NewError(core.ErrInternalError, fmt.Sprintf("Failed to build road network: %v", err)).ToMCPResult(), nil
	}

	stats := network.Stats()
	output := BuildRoadNetworkOutput{
		Region:    region,
		NodeCount: stats.NodeCount,
		EdgeCount: stats.EdgeCount,
		AreaKm2:   area,
		CachePath: manager.CachePath(region),
		FromCache: fromCache,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}

// PlanCapabilityRouteTool returns a tool definition for capability routing
func PlanCapabilityRouteTool() mcp.Tool {
	return mcp.NewTool("plan_capability_route",
		mcp.WithDescription("Plan a route over a cached road network with slopes weighed against the vehicle's climbing limits. Modes: power_optimized, balanced"),
		mcp.WithString("region",
			mcp.Required(),
			mcp.Description("Region name of a previously built road network"),
		),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting point: place name, 'lat,lon', DMS, or MGRS"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination: place name, 'lat,lon', DMS, or MGRS"),
		),
		mcp.WithString("vehicle",
			mcp.Description("Vehicle identifier, e.g. fiat_egea_dizel"),
			mcp.DefaultString(DefaultVehicleID),
		),
		mcp.WithString("mode",
			mcp.Description("Routing mode: power_optimized or balanced"),
			mcp.DefaultString(string(roadnet.ModePowerOptimized)),
		),
		mcp.WithString("time_of_day",
			mcp.Description("Traffic period: peak or offpeak"),
			mcp.DefaultString("peak"),
		),
	)
}

// HandlePlanCapabilityRoute implements slope-aware route planning
func HandlePlanCapabilityRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "plan_capability_route")

	region := mcp.ParseString(req, "region", "")
	if region == "" {
		return core.NewError(core.ErrMissingParameter, "Region name is required").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("plan_capability_route"))).
			ToMCPResult(), nil
	}

	vehicleID := mcp.ParseString(req, "vehicle", DefaultVehicleID)
	vehicle, err := fuel.LookupVehicle(vehicleID)
	if err != nil {
		return NewGeocodeDetailedError(
			string(core.ErrUnknownVehicle),
			fmt.Sprintf("Unknown vehicle: %s", vehicleID),
			vehicleID,
			fmt.Sprintf("Known vehicles: %v", fuel.VehicleIDs()),
			"Use list_vehicles to see the full catalog",
		), nil
	}

	mode, err := roadnet.ParseMode(mcp.ParseString(req, "mode", string(roadnet.ModePowerOptimized)))
	if err != nil {
		return core.NewError(core.ErrInvalidParameter, err.Error()).
			WithGuidance("Use 'power_optimized' or 'balanced'").
			ToMCPResult(), nil
	}

	period := fuel.Peak
	if mcp.ParseString(req, "time_of_day", "peak") == "offpeak" {
		period = fuel.Offpeak
	}

	originRaw := mcp.ParseString(req, "origin", "")
	destinationRaw := mcp.ParseString(req, "destination", "")
	origin, err := resolvePlace(ctx, originRaw)
	if err != nil {
		logger.Error("failed to resolve origin", "origin", originRaw, "error", err)
		return placeErrorResult(err, originRaw), nil
	}
	destination, err := resolvePlace(ctx, destinationRaw)
	if err != nil {
		logger.Error("failed to resolve destination", "destination", destinationRaw, "error", err)
		return placeErrorResult(err, destinationRaw), nil
	}

	network, err := getNetworkManager().Load(ctx, region)
	if err != nil {
		logger.Error("failed to load network", "region", region, "error", err)
		return core.NewError(core.ErrNoResults, fmt.Sprintf("No cached road network for region '%s'", region)).
			WithGuidance("Build it first with build_road_network").
			ToMCPResult(), nil
	}

	result, err := roadnet.PlanRoute(ctx, network, vehicle, origin.Location, destination.Location, period, mode)
	if err != nil {
		logger.Error("route planning failed", "region", region, "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		return core.NewError(core.ErrNoResults, fmt.Sprintf("No route found: %v", err)).
			WithGuidance("Check that both endpoints fall inside the built region").
			ToMCPResult(), nil
	}

	output := struct {
		Region string              `json:"region"`
		Plan   *roadnet.PlanResult `json:"plan"`
		Path   []geo.Location      `json:"path_locations"`
	}{
		Region: region,
		Plan:   result,
		Path:   network.PathLocations(result.Path),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}
