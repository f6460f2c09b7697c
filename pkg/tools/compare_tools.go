package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/report"
)

// CompareVehiclesTool returns a tool definition for comparing vehicles
// over one route.
func CompareVehiclesTool() mcp.Tool {
	return mcp.NewTool("compare_vehicles",
		mcp.WithDescription("Compare fuel consumption, cost and route difficulty for multiple vehicles over the same route, with best picks"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting point: place name, 'lat,lon', DMS, or MGRS"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination: place name, 'lat,lon', DMS, or MGRS"),
		),
		mcp.WithArray("vehicles",
			mcp.Description("Vehicle ids to compare; omit to compare the whole catalog"),
		),
		mcp.WithString("time_of_day",
			mcp.Description("Traffic period: peak or offpeak"),
			mcp.DefaultString("peak"),
		),
		mcp.WithNumber("hour",
			mcp.Description("Local clock hour 0-23; overrides time_of_day when given"),
		),
	)
}

// CompareVehiclesOutput defines the output for a vehicle comparison
type CompareVehiclesOutput struct {
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	TimeOfDay   fuel.TimeOfDay   `json:"time_of_day"`
	DistanceKm  float64          `json:"distance_km"`
	Comparison  *fuel.Comparison `json:"comparison"`
}

// HandleCompareVehicles implements multi-vehicle comparison
func HandleCompareVehicles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compare_vehicles")

	params, errResult, err := ValidateAnalysisParameters(req, "compare_vehicles", logger)
	if err != nil {
		return errResult, nil
	}

	// The candidate list is separate from the pipeline vehicle; an empty
	// list compares the whole catalog.
	var listInput struct {
		Vehicles []string `json:"vehicles"`
	}
	if raw, rawErr := json.Marshal(req.Params.Arguments); rawErr == nil {
		_ = json.Unmarshal(raw, &listInput)
	}

	candidates := make([]fuel.Vehicle, 0, len(listInput.Vehicles))
	for _, id := range listInput.Vehicles {
		v, err := fuel.LookupVehicle(strings.TrimSpace(id))
		if err != nil {
			logger.Error("unknown vehicle in comparison", "vehicle", id, "error", err)
			return NewGeocodeDetailedError(
				"UNKNOWN_VEHICLE",
				fmt.Sprintf("Unknown vehicle id: %s", id),
				id,
				fmt.Sprintf("Valid vehicle ids: %s", strings.Join(fuel.VehicleIDs(), ", ")),
			), nil
		}
		candidates = append(candidates, v)
	}

	analysis, errResult := runRouteAnalysis(ctx, params, logger)
	if errResult != nil {
		return errResult, nil
	}

	comparison, err := fuel.Compare(candidates, analysis.Segments, analysis.Stats, params.Period)
	if err != nil {
		logger.Error("comparison failed", "error", err)
		return core.NewError(core.ErrInternalError, "Vehicle comparison failed").ToMCPResult(), nil
	}

	output := CompareVehiclesOutput{
		Origin:      analysis.Origin,
		Destination: analysis.Destination,
		TimeOfDay:   params.Period,
		DistanceKm:  analysis.Stats.TotalDistanceKm,
		Comparison:  comparison,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// AssessVehicleCapabilityTool returns a tool definition for rating a
// vehicle against a route's elevation profile.
func AssessVehicleCapabilityTool() mcp.Tool {
	factory := core.NewToolFactory()
	return factory.CreateVehicleRouteTool("assess_vehicle_capability",
		"Rate how difficult a route is for a vehicle based on its power, torque and the route's grades")
}

// AssessVehicleCapabilityOutput defines the output for a capability assessment
type AssessVehicleCapabilityOutput struct {
	Origin      string                   `json:"origin"`
	Destination string                   `json:"destination"`
	VehicleName string                   `json:"vehicle_name"`
	Capability  fuel.Capability          `json:"capability"`
	Limits      fuel.ClimbingLimits      `json:"climbing_limits"`
	Stats       fuel.RouteStats          `json:"stats"`
	Critical    []report.CriticalSection `json:"critical_sections,omitempty"`
}

// HandleAssessVehicleCapability implements vehicle capability assessment
func HandleAssessVehicleCapability(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "assess_vehicle_capability")

	params, errResult, err := ValidateAnalysisParameters(req, "assess_vehicle_capability", logger)
	if err != nil {
		return errResult, nil
	}

	analysis, errResult := runRouteAnalysis(ctx, params, logger)
	if errResult != nil {
		return errResult, nil
	}

	output := AssessVehicleCapabilityOutput{
		Origin:      analysis.Origin,
		Destination: analysis.Destination,
		VehicleName: params.Vehicle.Name,
		Capability:  analysis.Capability,
		Limits:      params.Vehicle.ClimbingLimits(),
		Stats:       analysis.Stats,
		Critical:    analysis.CriticalSections(),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
