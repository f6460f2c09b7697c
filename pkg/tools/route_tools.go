package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/mark3labs/mcp-go/mcp"
)

// RouteFetchInput defines the input parameters for fetching a route
type RouteFetchInput struct {
	Start geo.Location `json:"start"`
	End   geo.Location `json:"end"`
	Mode  string       `json:"mode"`
}

// RouteFetchOutput defines the output for a fetched route
type RouteFetchOutput struct {
	Polyline string  `json:"polyline"`
	Distance float64 `json:"distance"` // in meters
	Duration float64 `json:"duration"` // in seconds
}

// RouteFetchTool returns a tool definition for fetching routes
func RouteFetchTool() mcp.Tool {
	return mcp.NewTool("route_fetch",
		mcp.WithDescription("Fetch a route between two points using OSRM routing service"),
		mcp.WithObject("start",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("end",
			mcp.Required(),
			mcp.Description("The ending point as {latitude, longitude}"),
		),
		mcp.WithString("mode",
			mcp.Description("Travel mode (car, bike, foot)"),
			mcp.DefaultString("car"),
		),
	)
}

// convertModeToProfile maps user-friendly travel modes to OSRM profile names
func convertModeToProfile(mode string) string {
	switch mode {
	case "car", "driving", "drive":
		return "car"
	case "bike", "bicycle", "cycling":
		return "bike"
	case "foot", "walk", "walking":
		return "foot"
	default:
		return ""
	}
}

// HandleRouteFetch implements route fetching functionality
func HandleRouteFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "route_fetch")

	// Parse input
	var input RouteFetchInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	// Validate input coordinates using core validation
	if err := core.ValidateCoords(input.Start.Latitude, input.Start.Longitude); err != nil {
		logger.Error("invalid 'start' coordinates", "error", err)
		return core.NewError(core.ErrInvalidLatitude, fmt.Sprintf("Invalid start coordinates: %s", err)).ToMCPResult(), nil
	}

	if err := core.ValidateCoords(input.End.Latitude, input.End.Longitude); err != nil {
		logger.Error("invalid 'end' coordinates", "error", err)
		return core.NewError(core.ErrInvalidLongitude, fmt.Sprintf("Invalid end coordinates: %s", err)).ToMCPResult(), nil
	}

	// Validate mode
	profile := convertModeToProfile(input.Mode)
	if profile == "" {
		logger.Error("invalid mode", "mode", input.Mode)
		errResult := core.NewError(core.ErrInvalidParameter, fmt.Sprintf("Invalid mode: %s", input.Mode))
		errResult = errResult.WithGuidance("Use 'car', 'bike', or 'foot'")
		return errResult.ToMCPResult(), nil
	}

	// Setup the coordinates (longitude first, latitude second, as expected by OSRM)
	startCoord := []float64{input.Start.Longitude, input.Start.Latitude}
	endCoord := []float64{input.End.Longitude, input.End.Latitude}

	// Use the simpler core.GetSimpleRoute helper
	route, err := core.GetSimpleRoute(ctx, startCoord, endCoord, profile)
	if err != nil {
		logger.Error("failed to get route", "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		// Fallback for other errors
		return core.ServiceError("OSRM", http.StatusServiceUnavailable, "Failed to get route").
			WithGuidance("Try again later or check if the locations are reachable").
			ToMCPResult(), nil
	}

	// Create output from route result
	output := RouteFetchOutput{
		Polyline: route.Polyline,
		Distance: route.Distance,
		Duration: route.Duration,
	}

	// Return result
	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// RouteSampleInput defines the input parameters for sampling points along a route
type RouteSampleInput struct {
	Polyline string  `json:"polyline"`
	Interval float64 `json:"interval"` // in meters
}

// RouteSampleOutput defines the output for sampled route points
type RouteSampleOutput struct {
	Points    []geo.Location `json:"points"`
	Count     int            `json:"count"`
	IntervalM float64        `json:"interval_m"`
}

// RouteSampleTool returns a tool definition for sampling points along a route
func RouteSampleTool() mcp.Tool {
	return mcp.NewTool("route_sample",
		mcp.WithDescription("Sample points along a route polyline at a fixed interval"),
		mcp.WithString("polyline",
			mcp.Required(),
			mcp.Description("The encoded polyline string representing the route"),
		),
		mcp.WithNumber("interval",
			mcp.Description("Sampling interval in meters"),
			mcp.DefaultNumber(DefaultSampleIntervalM),
		),
	)
}

// HandleRouteSample implements route sampling functionality
func HandleRouteSample(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "route_sample")

	// Parse input
	var input RouteSampleInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	// Validate polyline
	if input.Polyline == "" {
		logger.Error("empty polyline")
		return ErrorResponse("Polyline string is required"), nil
	}

	// Validate interval
	if input.Interval < 0 {
		logger.Error("invalid interval", "interval", input.Interval)
		return ErrorResponse("Interval must be greater than 0"), nil
	}

	// Decode the polyline
	points, err := core.DecodePolyline(input.Polyline)
	if err != nil {
		logger.Error("malformed polyline", "error", err)
		return ErrorResponse("Malformed polyline string"), nil
	}
	if len(points) < 2 {
		logger.Error("polyline has too few points", "count", len(points))
		return ErrorResponse("Polyline must contain at least 2 points"), nil
	}

	// Sample points along the route
	interval := effectiveSampleInterval(input.Interval, pathLengthM(points))
	sampledPoints := samplePolylinePoints(points, interval)

	// Create output
	output := RouteSampleOutput{
		Points:    sampledPoints,
		Count:     len(sampledPoints),
		IntervalM: interval,
	}

	// Return result
	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// pathLengthM returns the total length of a point sequence in meters
func pathLengthM(points []geo.Location) float64 {
	var total float64
	for i := 0; i < len(points)-1; i++ {
		total += geo.HaversineDistance(
			points[i].Latitude, points[i].Longitude,
			points[i+1].Latitude, points[i+1].Longitude,
		)
	}
	return total
}

// effectiveSampleInterval resolves a requested sampling interval against the
// route length. Zero falls back to the default, values below the minimum are
// raised to it, and the interval is widened on long routes so the sample
// count stays under MaxRouteSamples.
func effectiveSampleInterval(requested, totalDistanceM float64) float64 {
	interval := requested
	if interval <= 0 {
		interval = DefaultSampleIntervalM
	}
	if interval < MinSampleIntervalM {
		interval = MinSampleIntervalM
	}
	if totalDistanceM/interval > float64(MaxRouteSamples) {
		interval = totalDistanceM / float64(MaxRouteSamples)
	}
	return interval
}

// samplePolylinePoints samples points along a polyline at the specified interval
// Optimized for better performance by avoiding redundant distance calculations
func samplePolylinePoints(points []geo.Location, interval float64) []geo.Location {
	if len(points) < 2 || interval <= 0 {
		return points
	}

	// Start with the first point
	result := []geo.Location{points[0]}

	// currentPoint tracks our last sampled position
	currentPoint := points[0]
	// remaining holds the distance left until the next sample
	remaining := interval

	for i := 0; i < len(points)-1; i++ {
		start := currentPoint
		end := points[i+1]

		for {
			// Distance from the current point to the end of the segment
			segmentDistance := geo.HaversineDistance(start.Latitude, start.Longitude, end.Latitude, end.Longitude)

			if segmentDistance < remaining {
				// Not enough distance left in this segment
				remaining -= segmentDistance
				currentPoint = end
				break
			}

			// Interpolate a new point at the required fraction
			fraction := remaining / segmentDistance
			newPoint := geo.Location{
				Latitude:  start.Latitude + (end.Latitude-start.Latitude)*fraction,
				Longitude: start.Longitude + (end.Longitude-start.Longitude)*fraction,
			}

			result = append(result, newPoint)

			// Prepare for the next sample
			start = newPoint
			currentPoint = newPoint
			remaining = interval

			// Continue sampling within the same segment if distance remains
		}
	}

	// Ensure the final point of the polyline is included
	if last := points[len(points)-1]; result[len(result)-1] != last {
		result = append(result, last)
	}

	return result
}

// RouteElevationInput defines the input parameters for elevation lookup
type RouteElevationInput struct {
	Polyline string         `json:"polyline,omitempty"`
	Points   []geo.Location `json:"points,omitempty"`
	Interval float64        `json:"interval,omitempty"` // in meters, polyline mode only
}

// RouteElevationOutput defines the output for an elevation profile
type RouteElevationOutput struct {
	Points []fuel.SamplePoint `json:"points"`
	Stats  fuel.RouteStats    `json:"stats"`
	Count  int                `json:"count"`
}

// RouteElevationTool returns a tool definition for elevation profiles
func RouteElevationTool() mcp.Tool {
	return mcp.NewTool("route_elevation",
		mcp.WithDescription("Look up the elevation profile for a route polyline or a list of points, with grade statistics"),
		mcp.WithString("polyline",
			mcp.Description("Encoded polyline to sample and look up (alternative to points)"),
		),
		mcp.WithArray("points",
			mcp.Description("Explicit points as [{latitude, longitude}, ...] (alternative to polyline)"),
		),
		mcp.WithNumber("interval",
			mcp.Description("Sampling interval in meters when a polyline is given"),
			mcp.DefaultNumber(DefaultSampleIntervalM),
		),
	)
}

// HandleRouteElevation implements elevation profile lookup
func HandleRouteElevation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "route_elevation")

	input, errResult, err := InputParser[RouteElevationInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	var points []geo.Location
	switch {
	case input.Polyline != "":
		decoded, err := core.DecodePolyline(input.Polyline)
		if err != nil {
			logger.Error("malformed polyline", "error", err)
			return core.NewError(core.ErrInvalidInput, "Malformed polyline string").ToMCPResult(), nil
		}
		if len(decoded) < 2 {
			logger.Error("polyline has too few points", "count", len(decoded))
			return core.NewError(core.ErrInvalidInput, "Polyline must contain at least 2 points").ToMCPResult(), nil
		}
		interval := effectiveSampleInterval(input.Interval, pathLengthM(decoded))
		points = samplePolylinePoints(decoded, interval)

	case len(input.Points) > 0:
		if len(input.Points) < 2 {
			logger.Error("too few points", "count", len(input.Points))
			return core.NewError(core.ErrInvalidInput, "At least 2 points are required").ToMCPResult(), nil
		}
		if len(input.Points) > MaxRouteSamples {
			logger.Error("too many points", "count", len(input.Points))
			return core.NewError(core.ErrInvalidInput, fmt.Sprintf("At most %d points are supported", MaxRouteSamples)).
				WithGuidance("Pass a polyline instead so the route is resampled automatically").
				ToMCPResult(), nil
		}
		for i, p := range input.Points {
			if err := core.ValidateCoords(p.Latitude, p.Longitude); err != nil {
				logger.Error("invalid point", "index", i, "error", err)
				return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid point %d: %s", i, err)).ToMCPResult(), nil
			}
		}
		points = input.Points

	default:
		return core.NewError(core.ErrMissingParameter, "Provide a polyline or a points array").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("route_elevation"))).
			ToMCPResult(), nil
	}

	elevations, err := core.GetElevations(ctx, points, core.DefaultElevationOptions())
	if err != nil {
		logger.Error("failed to get elevations", "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		return core.ServiceError("Open-Elevation", http.StatusServiceUnavailable, "Failed to look up elevations").
			WithGuidance(GuidanceElevationBatch).
			ToMCPResult(), nil
	}

	samples := make([]fuel.SamplePoint, len(points))
	for i, p := range points {
		samples[i] = fuel.SamplePoint{Location: p, ElevationM: elevations[i]}
	}

	output := RouteElevationOutput{
		Points: samples,
		Stats:  fuel.ComputeStats(samples),
		Count:  len(samples),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
