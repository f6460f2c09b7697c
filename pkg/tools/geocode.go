package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NERVsystems/fuelmcp/pkg/coords"
	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/mark3labs/mcp-go/mcp"
)

// ResolvedPlace is a place query resolved to a coordinate. Source names
// how it was resolved: a coordinate format (decimal, dms, mgrs, utm) or
// "geocode" when Nominatim answered.
type ResolvedPlace struct {
	Name     string       `json:"name"`
	Location geo.Location `json:"location"`
	Source   string       `json:"source"`
}

// resolvePlace turns free text into a coordinate. Coordinate strings in
// any supported format are parsed locally; everything else goes to the
// geocoder. Errors are *core.MCPError so handlers can surface them.
func resolvePlace(ctx context.Context, raw string) (*ResolvedPlace, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, core.NewError(core.ErrEmptyParameter, "Place query cannot be empty")
	}

	if coords.IsCoordinate(raw) {
		parsed, err := coords.Parse(raw)
		if err != nil {
			return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid coordinate string: %s", err)).
				WithQuery(raw).
				WithGuidance("Use decimal degrees (41.0082, 28.9784), DMS, MGRS, or a place name")
		}
		if err := core.ValidateCoords(parsed.Location.Latitude, parsed.Location.Longitude); err != nil {
			return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("Coordinate out of range: %s", err)).WithQuery(raw)
		}
		return &ResolvedPlace{
			Name:     raw,
			Location: parsed.Location,
			Source:   parsed.Format.String(),
		}, nil
	}

	place, err := core.GeocodePlace(ctx, raw, core.DefaultGeocodeOptions())
	if err != nil {
		return nil, err
	}
	return &ResolvedPlace{
		Name:     place.Name,
		Location: place.Location,
		Source:   "geocode",
	}, nil
}

// GeocodePlaceInput defines the input parameters for resolving a place
type GeocodePlaceInput struct {
	Query string `json:"query"`
}

// GeocodePlaceOutput defines the output for a resolved place
type GeocodePlaceOutput struct {
	Query    string       `json:"query"`
	Name     string       `json:"name"`
	Location geo.Location `json:"location"`
	Source   string       `json:"source"`
}

// GeocodePlaceTool returns a tool definition for resolving place queries
func GeocodePlaceTool() mcp.Tool {
	return mcp.NewTool("geocode_place",
		mcp.WithDescription("Resolve a place name, address, or coordinate string (decimal, DMS, MGRS, UTM) to latitude/longitude"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Place name, address, or coordinate string"),
		),
	)
}

// HandleGeocodePlace implements place resolution
func HandleGeocodePlace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geocode_place")

	query := mcp.ParseString(req, "query", "")
	if strings.TrimSpace(query) == "" {
		logger.Error("missing query")
		return core.NewError(core.ErrMissingParameter, "Query parameter is required").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("geocode_place"))).
			ToMCPResult(), nil
	}

	place, err := resolvePlace(ctx, query)
	if err != nil {
		logger.Error("failed to resolve place", "query", query, "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		return core.ServiceError("Nominatim", http.StatusServiceUnavailable, "Failed to resolve place").
			WithQuery(query).
			WithGuidance(GuidanceNominatimGeneral).
			ToMCPResult(), nil
	}

	output := GeocodePlaceOutput{
		Query:    query,
		Name:     place.Name,
		Location: place.Location,
		Source:   place.Source,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
