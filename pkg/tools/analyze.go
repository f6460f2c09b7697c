package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/report"
)

// AnalyzeRouteFuelTool returns a tool definition for the full route
// fuel analysis.
func AnalyzeRouteFuelTool() mcp.Tool {
	factory := core.NewToolFactory()
	return factory.CreateVehicleRouteTool("analyze_route_fuel",
		"Analyze fuel consumption, cost, CO2 and route difficulty for a vehicle driving between two points in Istanbul")
}

// runRouteAnalysis executes the shared analysis pipeline: resolve the
// endpoints, fetch the route, sample it, look up elevations, classify
// segments, and run the consumption model. The returned result is nil on
// success; on failure it is the error result the handler should return.
func runRouteAnalysis(ctx context.Context, params *AnalysisParams, logger *slog.Logger) (*report.Analysis, *mcp.CallToolResult) {
	origin, err := resolvePlace(ctx, params.Origin)
	if err != nil {
		logger.Error("failed to resolve origin", "origin", params.Origin, "error", err)
		return nil, placeErrorResult(err, params.Origin)
	}
	destination, err := resolvePlace(ctx, params.Destination)
	if err != nil {
		logger.Error("failed to resolve destination", "destination", params.Destination, "error", err)
		return nil, placeErrorResult(err, params.Destination)
	}

	route, err := core.GetSimpleRoute(ctx,
		[]float64{origin.Location.Longitude, origin.Location.Latitude},
		[]float64{destination.Location.Longitude, destination.Location.Latitude},
		"car")
	if err != nil {
		logger.Error("failed to fetch route", "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return nil, mcpErr.ToMCPResult()
		}
		return nil, core.ServiceError("OSRM", http.StatusServiceUnavailable, "Failed to fetch route").
			WithGuidance(GuidanceOSRMGeneral).
			ToMCPResult()
	}

	decoded, err := core.DecodePolyline(route.Polyline)
	if err != nil || len(decoded) < 2 {
		logger.Error("route geometry unusable", "error", err, "points", len(decoded))
		return nil, core.NewError(core.ErrInsufficientRoute, "Route geometry contains fewer than two points").
			WithGuidance(GuidanceOSRMRouteNotFound).
			ToMCPResult()
	}

	interval := effectiveSampleInterval(params.IntervalM, route.Distance)
	points := samplePolylinePoints(decoded, interval)

	elevations, err := core.GetElevations(ctx, points, core.DefaultElevationOptions())
	if err != nil {
		logger.Error("failed to get elevations", "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return nil, mcpErr.ToMCPResult()
		}
		return nil, core.ServiceError("Open-Elevation", http.StatusServiceUnavailable, "Failed to look up elevations").
			WithGuidance(GuidanceElevationBatch).
			ToMCPResult()
	}

	samples := make([]fuel.SamplePoint, len(points))
	for i, p := range points {
		samples[i] = fuel.SamplePoint{Location: p, ElevationM: elevations[i]}
	}

	segments, err := fuel.BuildSegments(samples)
	if err != nil {
		logger.Error("failed to build segments", "error", err)
		if errors.Is(err, fuel.ErrInsufficientSamples) {
			return nil, core.NewError(core.ErrInsufficientRoute, "Route is too short to analyze").
				WithGuidance("Origin and destination may resolve to the same point").
				ToMCPResult()
		}
		return nil, core.NewError(core.ErrInternalError, "Failed to build route segments").ToMCPResult()
	}

	consumption, err := fuel.Calculate(params.Vehicle, segments, params.Period)
	if err != nil {
		logger.Error("consumption model failed", "error", err)
		return nil, core.NewError(core.ErrInternalError, "Consumption model failed").ToMCPResult()
	}

	stats := fuel.ComputeStats(samples)
	return &report.Analysis{
		Origin:          origin.Name,
		Destination:     destination.Name,
		Vehicle:         params.Vehicle,
		Period:          params.Period,
		Points:          samples,
		Segments:        segments,
		Stats:           stats,
		Consumption:     consumption,
		Capability:      fuel.AssessCapability(params.Vehicle, stats),
		DurationMinutes: route.Duration / 60,
	}, nil
}

// placeErrorResult shapes a place-resolution failure as a tool result.
func placeErrorResult(err error, query string) *mcp.CallToolResult {
	if mcpErr, ok := err.(*core.MCPError); ok {
		return mcpErr.ToMCPResult()
	}
	return core.ServiceError("Nominatim", http.StatusServiceUnavailable, "Failed to resolve place").
		WithQuery(query).
		WithGuidance(GuidanceNominatimGeneral).
		ToMCPResult()
}

// routePoints extracts the bare coordinates of an analysis route.
func routePoints(a *report.Analysis) []geo.Location {
	points := make([]geo.Location, len(a.Points))
	for i, p := range a.Points {
		points[i] = p.Location
	}
	return points
}

// AnalyzeRouteFuelOutput defines the output for a route fuel analysis
type AnalyzeRouteFuelOutput struct {
	Origin          string                   `json:"origin"`
	Destination     string                   `json:"destination"`
	TimeOfDay       fuel.TimeOfDay           `json:"time_of_day"`
	DurationMinutes float64                  `json:"duration_minutes,omitempty"`
	SampleCount     int                      `json:"sample_count"`
	Consumption     *fuel.Result             `json:"consumption"`
	Stats           fuel.RouteStats          `json:"stats"`
	Capability      fuel.Capability          `json:"capability"`
	Critical        []report.CriticalSection `json:"critical_sections,omitempty"`
	Links           report.MapLinks          `json:"links"`
	Summary         string                   `json:"summary"`
}

// HandleAnalyzeRouteFuel implements the full route fuel analysis
func HandleAnalyzeRouteFuel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "analyze_route_fuel")

	params, errResult, err := ValidateAnalysisParameters(req, "analyze_route_fuel", logger)
	if err != nil {
		return errResult, nil
	}

	analysis, errResult := runRouteAnalysis(ctx, params, logger)
	if errResult != nil {
		return errResult, nil
	}

	output := AnalyzeRouteFuelOutput{
		Origin:          analysis.Origin,
		Destination:     analysis.Destination,
		TimeOfDay:       analysis.Period,
		DurationMinutes: analysis.DurationMinutes,
		SampleCount:     len(analysis.Points),
		Consumption:     analysis.Consumption,
		Stats:           analysis.Stats,
		Capability:      analysis.Capability,
		Critical:        analysis.CriticalSections(),
		Links:           report.Links(routePoints(analysis)),
		Summary:         report.Summary(analysis),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	// The detailed Turkish report rides along as a second content block so
	// clients can show it verbatim.
	result := mcp.NewToolResultText(string(resultBytes))
	result.Content = append(result.Content, mcp.NewTextContent(report.Text(analysis)))
	return result, nil
}
