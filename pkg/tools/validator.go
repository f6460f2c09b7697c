package tools

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
)

// ValidateSearchParameters validates the latitude/longitude/radius/limit
// parameter set used by the station search tool and returns detailed error
// messages to help users correct their input.
func ValidateSearchParameters(req mcp.CallToolRequest, toolName string, logger *slog.Logger) (float64, float64, float64, int, *mcp.CallToolResult, error) {
	// Parse parameters as strings first to detect missing/malformed values
	latStr := mcp.ParseString(req, "latitude", "")
	lonStr := mcp.ParseString(req, "longitude", "")
	radiusStr := mcp.ParseString(req, "radius", "")
	limitStr := mcp.ParseString(req, "limit", "")

	// Validate required parameters
	if latStr == "" || lonStr == "" {
		missingParams := []string{}
		if latStr == "" {
			missingParams = append(missingParams, "latitude")
		}
		if lonStr == "" {
			missingParams = append(missingParams, "longitude")
		}

		logger.Error("missing required parameters", "missing", strings.Join(missingParams, ", "))

		// Return a detailed error with example
		return 0, 0, 0, 0, NewGeocodeDetailedError(
			"MISSING_PARAMETERS",
			fmt.Sprintf("Missing required parameters: %s", strings.Join(missingParams, ", ")),
			"",
			fmt.Sprintf("The %s tool requires both latitude and longitude parameters", toolName),
			fmt.Sprintf("Example: %s", GetToolUsageExample(toolName)),
		), fmt.Errorf("missing parameters")
	}

	// Parse and validate latitude
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		logger.Error("invalid latitude", "input", latStr, "error", err)
		return 0, 0, 0, 0, NewGeocodeDetailedError(
			"INVALID_LATITUDE",
			fmt.Sprintf("Invalid latitude value: %s", latStr),
			"",
			"Latitude must be a valid number between -90 and 90",
			"Example: 41.0082 (numeric, no quotes)",
		), fmt.Errorf("invalid latitude")
	}

	// Parse and validate longitude
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		logger.Error("invalid longitude", "input", lonStr, "error", err)
		return 0, 0, 0, 0, NewGeocodeDetailedError(
			"INVALID_LONGITUDE",
			fmt.Sprintf("Invalid longitude value: %s", lonStr),
			"",
			"Longitude must be a valid number between -180 and 180",
			"Example: 28.9784 (numeric, no quotes)",
		), fmt.Errorf("invalid longitude")
	}

	// Validate coordinates range
	if err := ValidateCoordinates(lat, lon); err != nil {
		logger.Error("coordinate validation failed", "error", err)
		return 0, 0, 0, 0, NewGeocodeDetailedError(
			"INVALID_COORDINATES",
			err.Error(),
			"",
			"Latitude must be between -90 and 90, longitude between -180 and 180",
		), fmt.Errorf("invalid coordinates")
	}

	// Parse radius with default
	radius := DefaultStationRadiusM
	if radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			logger.Error("invalid radius", "input", radiusStr, "error", err)
			return 0, 0, 0, 0, NewGeocodeDetailedError(
				"INVALID_RADIUS",
				fmt.Sprintf("Invalid radius value: %s", radiusStr),
				"",
				"Radius must be a valid positive number",
				"Example: 2000 (numeric, no quotes)",
			), fmt.Errorf("invalid radius")
		}
	}

	// Validate radius range
	if err := ValidateRadius(radius, MaxStationRadiusM); err != nil {
		logger.Error("radius validation failed", "radius", radius, "error", err)
		return 0, 0, 0, 0, NewGeocodeDetailedError(
			"INVALID_RADIUS",
			err.Error(),
			"",
			fmt.Sprintf("Radius must be positive and at most %.0f meters", MaxStationRadiusM),
		), fmt.Errorf("invalid radius range")
	}

	// Parse limit with default
	limit := DefaultStationLimit
	if limitStr != "" {
		limitFloat, err := strconv.ParseFloat(limitStr, 64)
		if err != nil {
			logger.Error("invalid limit", "input", limitStr, "error", err)
			return 0, 0, 0, 0, NewGeocodeDetailedError(
				"INVALID_LIMIT",
				fmt.Sprintf("Invalid limit value: %s", limitStr),
				"",
				"Limit must be a valid positive number",
				"Example: 10 (numeric, no quotes)",
			), fmt.Errorf("invalid limit")
		}
		limit = int(limitFloat)
	}

	// Cap limit to reasonable range
	if limit <= 0 {
		limit = DefaultStationLimit
	}
	if limit > MaxStationLimit {
		limit = MaxStationLimit
	}

	return lat, lon, radius, limit, nil, nil
}

// AnalysisParams is the parameter set shared by the consumption analysis
// tools: where to drive, which vehicle, and when.
type AnalysisParams struct {
	Origin      string
	Destination string
	Vehicle     fuel.Vehicle
	Period      fuel.TimeOfDay
	IntervalM   float64
}

// ValidateAnalysisParameters validates the origin/destination/vehicle/
// time_of_day parameter set used by the analysis, comparison and chart
// tools. Parameters are parsed as strings first so missing and malformed
// values produce distinct, guided errors.
func ValidateAnalysisParameters(req mcp.CallToolRequest, toolName string, logger *slog.Logger) (*AnalysisParams, *mcp.CallToolResult, error) {
	origin := strings.TrimSpace(mcp.ParseString(req, "origin", ""))
	destination := strings.TrimSpace(mcp.ParseString(req, "destination", ""))
	vehicleID := strings.TrimSpace(mcp.ParseString(req, "vehicle", ""))
	periodStr := strings.TrimSpace(mcp.ParseString(req, "time_of_day", ""))
	hourStr := strings.TrimSpace(mcp.ParseString(req, "hour", ""))
	intervalStr := strings.TrimSpace(mcp.ParseString(req, "interval", ""))

	// Validate required parameters
	if origin == "" || destination == "" {
		missingParams := []string{}
		if origin == "" {
			missingParams = append(missingParams, "origin")
		}
		if destination == "" {
			missingParams = append(missingParams, "destination")
		}

		logger.Error("missing required parameters", "missing", strings.Join(missingParams, ", "))
		return nil, NewGeocodeDetailedError(
			"MISSING_PARAMETERS",
			fmt.Sprintf("Missing required parameters: %s", strings.Join(missingParams, ", ")),
			"",
			fmt.Sprintf("The %s tool requires both origin and destination parameters", toolName),
			fmt.Sprintf("Example: %s", GetToolUsageExample(toolName)),
		), fmt.Errorf("missing parameters")
	}

	// Resolve the vehicle, falling back to the default when omitted
	if vehicleID == "" {
		vehicleID = DefaultVehicleID
	}
	vehicle, err := fuel.LookupVehicle(vehicleID)
	if err != nil {
		logger.Error("unknown vehicle", "vehicle", vehicleID, "error", err)
		return nil, NewGeocodeDetailedError(
			"UNKNOWN_VEHICLE",
			fmt.Sprintf("Unknown vehicle id: %s", vehicleID),
			vehicleID,
			fmt.Sprintf("Valid vehicle ids: %s", strings.Join(fuel.VehicleIDs(), ", ")),
			"Use the list_vehicles tool to inspect the catalog",
		), fmt.Errorf("unknown vehicle")
	}

	// Resolve the period: an explicit hour wins over the time_of_day flag
	period := fuel.Peak
	switch {
	case hourStr != "":
		hour, err := strconv.Atoi(hourStr)
		if err != nil || hour < 0 || hour > 23 {
			logger.Error("invalid hour", "input", hourStr, "error", err)
			return nil, NewGeocodeDetailedError(
				"INVALID_HOUR",
				fmt.Sprintf("Invalid hour value: %s", hourStr),
				"",
				"Hour must be an integer between 0 and 23",
				"Example: 8 (classified as peak), 14 (classified as offpeak)",
			), fmt.Errorf("invalid hour")
		}
		period = fuel.ClassifyHour(hour)

	case periodStr != "":
		period, err = fuel.ParseTimeOfDay(periodStr)
		if err != nil {
			logger.Error("invalid time of day", "input", periodStr, "error", err)
			return nil, NewGeocodeDetailedError(
				"INVALID_TIME_OF_DAY",
				fmt.Sprintf("Invalid time_of_day value: %s", periodStr),
				"",
				"time_of_day must be 'peak' or 'offpeak'; alternatively pass an 'hour' (0-23)",
			), fmt.Errorf("invalid time of day")
		}
	}

	// Parse the sampling interval with default
	interval := DefaultSampleIntervalM
	if intervalStr != "" {
		interval, err = strconv.ParseFloat(intervalStr, 64)
		if err != nil || interval < 0 {
			logger.Error("invalid interval", "input", intervalStr, "error", err)
			return nil, NewGeocodeDetailedError(
				"INVALID_INTERVAL",
				fmt.Sprintf("Invalid interval value: %s", intervalStr),
				"",
				"Interval is the route sampling spacing in meters and must be positive",
				"Example: 200 (numeric, no quotes)",
			), fmt.Errorf("invalid interval")
		}
	}

	return &AnalysisParams{
		Origin:      origin,
		Destination: destination,
		Vehicle:     vehicle,
		Period:      period,
		IntervalM:   interval,
	}, nil, nil
}
