package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/cache"
	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/osm"
)

// FuelStation represents a fuel station found via Overpass
type FuelStation struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Brand        string       `json:"brand,omitempty"`
	Location     geo.Location `json:"location"`
	Distance     float64      `json:"distance_m"`
	Score        int          `json:"score"`
	Operator     string       `json:"operator,omitempty"`
	OpeningHours string       `json:"opening_hours,omitempty"`
	Fuels        []string     `json:"fuels,omitempty"`
}

// stationScoreWeights values the amenity data a station advertises; the
// base score is then discounted by distance when ranking results.
var stationScoreWeights = []core.ScoreWeight{
	{Category: "brand", Weight: 12},
	{Category: "fuel_option", Weight: 8},
	{Category: "opening_hours", Weight: 8},
	{Category: "operator", Weight: 4},
}

const stationMaxScore = 100

// rankFuelStations scores each station and sorts best-first. Stations with
// no tag data all score zero, which degrades to a nearest-first ordering.
func rankFuelStations(stations []FuelStation, radius float64) {
	for i := range stations {
		s := &stations[i]
		counts := map[string]int{"fuel_option": len(s.Fuels)}
		if s.Brand != "" {
			counts["brand"] = 1
		}
		if s.OpeningHours != "" {
			counts["opening_hours"] = 1
		}
		if s.Operator != "" {
			counts["operator"] = 1
		}
		base := core.WeightedScore(counts, stationScoreWeights, stationMaxScore)
		s.Score = core.DistanceBiasedScore(base, s.Distance, radius, stationMaxScore)
	}
	sort.Slice(stations, func(i, j int) bool {
		if stations[i].Score != stations[j].Score {
			return stations[i].Score > stations[j].Score
		}
		return stations[i].Distance < stations[j].Distance
	})
}

// FindFuelStationsTool returns a tool definition for finding fuel stations
func FindFuelStationsTool() mcp.Tool {
	return mcp.NewTool("find_fuel_stations",
		mcp.WithDescription("Find fuel stations near a point, or along a route when a polyline is provided"),
		mcp.WithNumber("latitude",
			mcp.Description("The latitude coordinate of the center point"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("The longitude coordinate of the center point"),
		),
		mcp.WithString("polyline",
			mcp.Description("Encoded route polyline; stations within the radius of the route corridor are returned"),
		),
		mcp.WithNumber("radius",
			mcp.Description("Search radius in meters (max 10000)"),
			mcp.DefaultNumber(DefaultStationRadiusM),
		),
		mcp.WithString("brand",
			mcp.Description("Optional brand filter, e.g. Opet, Shell, BP"),
			mcp.DefaultString(""),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (max 50)"),
			mcp.DefaultNumber(DefaultStationLimit),
		),
	)
}

// HandleFindFuelStations implements fuel station search
func HandleFindFuelStations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_fuel_stations")

	polyline := mcp.ParseString(req, "polyline", "")
	brand := strings.TrimSpace(mcp.ParseString(req, "brand", ""))

	if polyline != "" {
		return findStationsAlongRoute(ctx, req, polyline, brand, logger)
	}

	lat, lon, radius, limit, errResult, err := ValidateSearchParameters(req, "find_fuel_stations", logger)
	if err != nil {
		return errResult, nil
	}

	elements, err := fetchFuelStations(ctx, core.FuelStationsQuery(lat, lon, radius))
	if err != nil {
		logger.Error("failed to fetch fuel stations", "error", err)
		return overpassErrorResult(err), nil
	}

	stations := processFuelStations(elements, []geo.Location{{Latitude: lat, Longitude: lon}}, radius, brand)
	rankFuelStations(stations, radius)
	if len(stations) > limit {
		stations = stations[:limit]
	}

	return fuelStationsResult(stations, logger)
}

// findStationsAlongRoute searches a corridor around a route polyline. The
// Overpass query covers the route bounding box padded by the radius; results
// are filtered to those within the radius of any sampled route point.
func findStationsAlongRoute(ctx context.Context, req mcp.CallToolRequest, polyline, brand string, logger *slog.Logger) (*mcp.CallToolResult, error) {
	points, err := core.DecodePolyline(polyline)
	if err != nil || len(points) < 2 {
		logger.Error("malformed polyline", "error", err)
		return core.NewError(core.ErrInvalidInput, "Polyline must decode to at least 2 points").
			WithGuidance("Pass the polyline returned by route_fetch or analyze_route_fuel").
			ToMCPResult(), nil
	}

	radius := mcp.ParseFloat64(req, "radius", DefaultStationRadiusM)
	if err := ValidateRadius(radius, MaxStationRadiusM); err != nil {
		logger.Error("radius validation failed", "radius", radius, "error", err)
		return NewGeocodeDetailedError(
			"INVALID_RADIUS",
			err.Error(),
			"",
			fmt.Sprintf("Radius must be positive and at most %.0f meters", MaxStationRadiusM),
		), nil
	}

	limit := int(mcp.ParseFloat64(req, "limit", float64(DefaultStationLimit)))
	if limit <= 0 {
		limit = DefaultStationLimit
	}
	if limit > MaxStationLimit {
		limit = MaxStationLimit
	}

	probes := samplePolylinePoints(points, RouteStationSampleM)

	// Pad the route bbox by the radius; one degree of latitude is ~111 km.
	bbox := geo.NewBoundingBox()
	for _, p := range probes {
		bbox.ExtendWithPoint(p.Latitude, p.Longitude)
	}
	padLat := radius / 111000.0
	padLon := radius / (111000.0 * math.Cos(bbox.Center().Latitude*math.Pi/180.0))
	query := core.NewOverpassBuilder().
		WithTimeout(25).
		WithBoundingBox(bbox.MinLat-padLat, bbox.MinLon-padLon, bbox.MaxLat+padLat, bbox.MaxLon+padLon).
		WithNode(core.Tag("amenity", "fuel")).
		WithWay(core.Tag("amenity", "fuel")).
		Build()

	elements, err := fetchFuelStations(ctx, query)
	if err != nil {
		logger.Error("failed to fetch fuel stations", "error", err)
		return overpassErrorResult(err), nil
	}

	stations := processFuelStations(elements, probes, radius, brand)
	rankFuelStations(stations, radius)
	if len(stations) > limit {
		stations = stations[:limit]
	}

	return fuelStationsResult(stations, logger)
}

// overpassErrorResult maps a station fetch failure to a tool error result.
// fetchFuelStations returns MCPErrors today; the fallback keeps any other
// error from reaching the client unshaped.
func overpassErrorResult(err error) *mcp.CallToolResult {
	if mcpErr, ok := err.(*core.MCPError); ok {
		return mcpErr.ToMCPResult()
	}
	return core.ServiceError("Overpass", http.StatusServiceUnavailable, "Failed to fetch fuel stations").ToMCPResult()
}

func fuelStationsResult(stations []FuelStation, logger *slog.Logger) (*mcp.CallToolResult, error) {
	output := struct {
		Stations []FuelStation `json:"stations"`
		Count    int           `json:"count"`
	}{
		Stations: stations,
		Count:    len(stations),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}

// stationCachePrefix namespaces station queries in the global TTL cache.
const stationCachePrefix = "overpass:fuel:"

// fetchFuelStations runs an Overpass query and returns the raw elements.
// Results are held in the global TTL cache so repeated searches around the
// same point or corridor skip the Overpass round trip.
func fetchFuelStations(ctx context.Context, query string) ([]osm.OverpassElement, error) {
	cacheKey := stationCachePrefix + query
	if cached, ok := cache.GetGlobalCache().Get(cacheKey); ok {
		if elements, ok := cached.([]osm.OverpassElement); ok {
			return elements, nil
		}
	}

	reqURL, err := url.Parse(osm.OverpassBaseURL)
	if err != nil {
		return nil, core.NewError(core.ErrInternalError, "Internal server error")
	}

	requestFactory := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(
			context.Background(),
			http.MethodPost,
			reqURL.String(),
			strings.NewReader("data="+url.QueryEscape(query)),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", osm.UserAgent)
		return req, nil
	}

	client := osm.GetClient(ctx)
	resp, err := core.WithRetryFactory(ctx, requestFactory, client, core.DefaultRetryOptions)
	if err != nil {
		return nil, core.ServiceError("Overpass", http.StatusServiceUnavailable, "Failed to communicate with Overpass service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.ServiceError("Overpass", resp.StatusCode, fmt.Sprintf("Overpass service error: %d", resp.StatusCode))
	}

	var overpassResp struct {
		Elements []osm.OverpassElement `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		return nil, core.NewError(core.ErrParseError, "Failed to parse fuel station data")
	}

	cache.GetGlobalCache().Set(cacheKey, overpassResp.Elements)
	return overpassResp.Elements, nil
}

// processFuelStations converts Overpass elements to stations within the
// radius of any anchor point. Distance is to the nearest anchor.
func processFuelStations(elements []osm.OverpassElement, anchors []geo.Location, radius float64, brand string) []FuelStation {
	stations := make([]FuelStation, 0)
	brandLower := strings.ToLower(brand)

	for _, element := range elements {
		var elemLat, elemLon float64
		if element.Type == "node" {
			elemLat = element.Lat
			elemLon = element.Lon
		} else if (element.Type == "way" || element.Type == "relation") && element.Center != nil {
			elemLat = element.Center.Lat
			elemLon = element.Center.Lon
		} else {
			continue
		}

		if brandLower != "" {
			elementBrand := strings.ToLower(element.Tags["brand"])
			elementName := strings.ToLower(element.Tags["name"])
			if !strings.Contains(elementBrand, brandLower) && !strings.Contains(elementName, brandLower) {
				continue
			}
		}

		distance := math.Inf(1)
		for _, anchor := range anchors {
			d := osm.HaversineDistance(anchor.Latitude, anchor.Longitude, elemLat, elemLon)
			if d < distance {
				distance = d
			}
		}
		if distance > radius {
			continue
		}

		name := element.Tags["name"]
		if name == "" {
			name = element.Tags["brand"]
		}
		if name == "" {
			name = "Fuel station"
		}

		stations = append(stations, FuelStation{
			ID:           fmt.Sprintf("%d", element.ID),
			Name:         name,
			Brand:        element.Tags["brand"],
			Location:     geo.Location{Latitude: elemLat, Longitude: elemLon},
			Distance:     distance,
			Operator:     element.Tags["operator"],
			OpeningHours: element.Tags["opening_hours"],
			Fuels:        collectFuelTags(element.Tags),
		})
	}

	return stations
}

// collectFuelTags extracts the fuel:* tags a station advertises
func collectFuelTags(tags map[string]string) []string {
	fuels := make([]string, 0, 4)
	for key, value := range tags {
		if strings.HasPrefix(key, "fuel:") && value == "yes" {
			fuels = append(fuels, strings.TrimPrefix(key, "fuel:"))
		}
	}
	sort.Strings(fuels)
	return fuels
}
