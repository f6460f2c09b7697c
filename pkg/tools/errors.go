// Package tools provides the fuel analysis MCP tools implementations.
package tools

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// APIError represents an error that occurred while communicating with
// an external API service, with information to help users recover.
type APIError struct {
	Service     string // The API service name (e.g., "Nominatim", "Overpass")
	StatusCode  int    // HTTP status code
	Message     string // Error message
	Recoverable bool   // Whether the error can be recovered from
	Guidance    string // Guidance for users on how to recover
}

// Error implements the error interface and provides a formatted error message.
func (e *APIError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s API error (%d): %s. %s", e.Service, e.StatusCode, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

// Common error guidance messages
const (
	// Nominatim guidance
	GuidanceNominatimAddressFormat = "Try using a more standard address format or provide district and city (e.g. 'Kadıköy, Istanbul')."
	GuidanceNominatimRateLimit     = "Please try again in a few seconds."
	GuidanceNominatimTimeout       = "Check your internet connection and try again, or use different geocoding parameters."
	GuidanceNominatimGeneral       = "Check your address formatting and try again."

	// Overpass guidance
	GuidanceOverpassTimeout   = "Consider simplifying your query by reducing the search radius or shrinking the bounding box."
	GuidanceOverpassRateLimit = "The Overpass API is currently experiencing high load. Please try again in a minute."
	GuidanceOverpassSyntax    = "There's an issue with the query format. Try simplifying your search."
	GuidanceOverpassMemory    = "The query requires too much memory. Try reducing the search area."
	GuidanceOverpassGeneral   = "Try a smaller search radius or a smaller bounding box."

	// OSRM guidance
	GuidanceOSRMRouteNotFound = "No route could be found between the specified points. Try locations with accessible roads."
	GuidanceOSRMRateLimit     = "The routing service is experiencing high load. Please try again in a few seconds."
	GuidanceOSRMTimeout       = "The routing request timed out. Try a shorter route or check your internet connection."
	GuidanceOSRMGeneral       = "Check that your origin and destination are reachable by car."

	// Open-Elevation guidance
	GuidanceElevationBatch   = "The elevation provider rejected the batch. Try a larger sample interval so fewer points are looked up."
	GuidanceElevationGeneral = "The elevation service may be overloaded. Please try again shortly."

	// Generic guidance
	GuidanceGeneral      = "Please try again later or modify your request parameters."
	GuidanceNetworkError = "Check your internet connection and try again."
	GuidanceDataError    = "The data received was incomplete or malformed. Try different search parameters."
)

// NewAPIError creates a new APIError with appropriate guidance based on status code.
func NewAPIError(service string, statusCode int, message, guidance string) *APIError {
	// Use provided guidance if available, otherwise infer based on status code
	if guidance == "" {
		switch statusCode {
		case http.StatusTooManyRequests:
			guidance = "Rate limit exceeded. Please try again in a few moments."
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			guidance = "The request timed out. Try reducing the search area or simplifying the query."
		case http.StatusBadRequest:
			guidance = "The request was invalid. Check your parameters and try again."
		case http.StatusInternalServerError:
			guidance = "The server encountered an error. This is likely temporary, please try again later."
		case http.StatusServiceUnavailable:
			guidance = "The service is temporarily unavailable. Please try again later."
		default:
			guidance = GuidanceGeneral
		}
	}

	return &APIError{
		Service:     service,
		StatusCode:  statusCode,
		Message:     message,
		Recoverable: statusCode != http.StatusBadRequest, // Most errors except bad requests are recoverable
		Guidance:    guidance,
	}
}

// NewGeocodeDetailedError builds a structured error result from string-first
// parameter parsing: an error code, a human message, the offending query and
// any number of guidance lines.
func NewGeocodeDetailedError(code, message, query string, guidance ...string) *mcp.CallToolResult {
	payload := struct {
		Error struct {
			Code     string   `json:"code"`
			Message  string   `json:"message"`
			Query    string   `json:"query,omitempty"`
			Guidance []string `json:"guidance,omitempty"`
		} `json:"error"`
	}{}
	payload.Error.Code = code
	payload.Error.Message = message
	payload.Error.Query = query
	payload.Error.Guidance = guidance

	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, message))
	}

	result := mcp.NewToolResultText(string(data))
	result.IsError = true
	return result
}

// ErrorWithGuidance returns a properly formatted error response with user guidance.
func ErrorWithGuidance(err *APIError) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s\n\nGuidance: %s", err.Message, err.Guidance)
	return mcp.NewToolResultError(errorText)
}

// ValidationError creates an error for invalid coordinate or radius parameters.
func ValidationError(lat, lon, radius float64, maxRadius float64) *APIError {
	var message string

	if lat < -90 || lat > 90 {
		message = fmt.Sprintf("Invalid latitude value: %f (must be between -90 and 90)", lat)
	} else if lon < -180 || lon > 180 {
		message = fmt.Sprintf("Invalid longitude value: %f (must be between -180 and 180)", lon)
	} else if radius <= 0 {
		message = "Radius must be greater than 0"
	} else if radius > maxRadius {
		message = fmt.Sprintf("Radius too large: %f (maximum allowed is %f meters)", radius, maxRadius)
	} else {
		message = "Invalid parameters"
	}

	guidance := "Please correct the parameters and try again."

	return &APIError{
		Service:     "Validation",
		StatusCode:  http.StatusBadRequest,
		Message:     message,
		Recoverable: true,
		Guidance:    guidance,
	}
}

// GetToolUsageExample returns an example JSON snippet for using a specific tool
// This is helpful for providing guidance when parameter validation fails
func GetToolUsageExample(toolName string) string {
	examples := map[string]string{
		"geocode_place": `{
  "query": "Kadıköy, Istanbul"
}`,
		"analyze_route_fuel": `{
  "origin": "Kadıköy",
  "destination": "Taksim",
  "vehicle": "fiat_egea_dizel",
  "time_of_day": "peak"
}`,
		"compare_vehicles": `{
  "origin": "Beşiktaş",
  "destination": "Sarıyer",
  "vehicles": ["fiat_egea_dizel", "nissan_qashqai"],
  "time_of_day": "offpeak"
}`,
		"assess_vehicle_capability": `{
  "origin": "Üsküdar",
  "destination": "Çamlıca",
  "vehicle": "fiat_egea_dizel"
}`,
		"resolve_zone": `{
  "hint": "FSM Köprüsü"
}`,
		"route_fetch": `{
  "start": {"latitude": 40.9927, "longitude": 29.0277},
  "end": {"latitude": 41.0370, "longitude": 28.9850},
  "mode": "car"
}`,
		"route_sample": `{
  "polyline": "_p~iF~ps|U_ulLnnqC",
  "interval": 200
}`,
		"route_elevation": `{
  "polyline": "_p~iF~ps|U_ulLnnqC",
  "interval": 200
}`,
		"render_route_charts": `{
  "origin": "Kadıköy",
  "destination": "Taksim",
  "vehicle": "fiat_egea_dizel",
  "time_of_day": "peak"
}`,
		"route_map_links": `{
  "polyline": "_p~iF~ps|U_ulLnnqC"
}`,
		"find_fuel_stations": `{
  "latitude": 41.0082,
  "longitude": 28.9784,
  "radius": 2000,
  "limit": 10
}`,
		"build_road_network": `{
  "region": "kadikoy",
  "min_lat": 40.97,
  "min_lon": 29.02,
  "max_lat": 41.00,
  "max_lon": 29.07
}`,
		"plan_capability_route": `{
  "region": "kadikoy",
  "origin": "40.9902, 29.0250",
  "destination": "40.9780, 29.0555",
  "vehicle": "fiat_egea_dizel",
  "mode": "power_optimized"
}`,
		"geo_distance": `{
  "from": {"latitude": 40.9927, "longitude": 29.0277},
  "to": {"latitude": 41.0370, "longitude": 28.9850}
}`,
		"bbox_from_points": `{
  "points": [
    {"latitude": 40.9927, "longitude": 29.0277},
    {"latitude": 41.0370, "longitude": 28.9850}
  ]
}`,
		"chart_cache": `{
  "action": "get",
  "key": "a1b2c3d4e5f6",
  "name": "elevation_profile"
}`,
	}

	if example, exists := examples[toolName]; exists {
		return example
	}

	// Generic example if not found
	return `{
  "origin": "Kadıköy",
  "destination": "Taksim"
}`
}
