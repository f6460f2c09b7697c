package roadnet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/osm"
)

const (
	defaultSpeedLimitKmh = 50
	defaultLaneCount     = 1
	defaultStreetName    = "Unnamed Road"

	// Profile applied to edges whose road class matches no traffic zone.
	defaultProfileSpeedPeak    = 30.0
	defaultProfileSpeedOffpeak = 50.0
	defaultProfileMultiplier   = 1.5

	defaultElevationConcurrency = 4
)

// BuildOptions configures a network build.
type BuildOptions struct {
	// OverpassBaseURL is the Overpass interpreter endpoint.
	OverpassBaseURL string
	// Client executes the Overpass download. Bulk queries can run long,
	// so the default allows well beyond the interpreter's own 90s budget.
	Client *http.Client
	// RetryOptions controls Overpass retry behavior.
	RetryOptions core.RetryOptions
	// Elevation configures the elevation provider used for enrichment.
	Elevation core.ElevationOptions
	// ElevationBatch is the number of nodes looked up per provider call.
	ElevationBatch int
	// Concurrency bounds how many elevation batches run in parallel.
	Concurrency int
}

// DefaultBuildOptions returns the standard build configuration.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		OverpassBaseURL: osm.OverpassBaseURL,
		Client:          &http.Client{Timeout: 120 * time.Second},
		RetryOptions:    core.DefaultRetryOptions,
		Elevation:       core.DefaultElevationOptions(),
		ElevationBatch:  100,
		Concurrency:     defaultElevationConcurrency,
	}
}

// BuildNetwork downloads the drivable ways inside bbox, assembles the road
// graph, enriches it with elevations and traffic-zone profiles, and returns
// the ready-to-route network.
func BuildNetwork(ctx context.Context, bbox geo.BoundingBox, options BuildOptions) (*Network, error) {
	logger := slog.Default().With("component", "roadnet")

	if !bbox.Valid() {
		return nil, fmt.Errorf("invalid bounding box: %+v", bbox)
	}
	if area := BBoxAreaKm2(bbox); area > 2500 {
		logger.Warn("large bounding box, expect a slow build", "area_km2", area)
	}

	elements, err := fetchDrivableWays(ctx, bbox, options)
	if err != nil {
		return nil, err
	}

	network := parseElements(elements)
	network.BBox = bbox
	network.BuiltAt = time.Now().UTC()
	logger.Info("road graph parsed",
		"nodes", len(network.Nodes),
		"edges", len(network.Edges))

	enrichElevations(ctx, network, options)
	computeEdgeProperties(network)
	applyZoneProfiles(network)
	network.ensureIndex()

	return network, nil
}

// fetchDrivableWays runs the drivable-ways query against Overpass and
// decodes the returned elements.
func fetchDrivableWays(ctx context.Context, bbox geo.BoundingBox, options BuildOptions) ([]osm.OverpassElement, error) {
	query := core.DrivableWaysQuery(bbox)
	form := "data=" + url.QueryEscape(query)

	// Form bodies are consumed on send, so build a fresh request per attempt.
	factory := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			options.OverpassBaseURL, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", "fuel-mcp-server/0.1.0")
		return req, nil
	}

	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	resp, err := core.WithRetryFactory(ctx, factory, client, options.RetryOptions)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.ServiceError("Overpass", resp.StatusCode,
			fmt.Sprintf("road network download failed: %s", strings.TrimSpace(string(body))))
	}

	var payload struct {
		Elements []osm.OverpassElement `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}
	return payload.Elements, nil
}

// parseElements converts Overpass elements into nodes and edges. Ways are
// split into one edge per consecutive node pair; pairs referencing nodes
// missing from the download are skipped.
func parseElements(elements []osm.OverpassElement) *Network {
	network := &Network{Nodes: make(map[int64]*Node)}

	for _, elem := range elements {
		if elem.Type == "node" {
			network.Nodes[int64(elem.ID)] = &Node{GPS: [2]float64{elem.Lat, elem.Lon}}
		}
	}

	for _, elem := range elements {
		if elem.Type != "way" {
			continue
		}

		roadType := elem.Tags["highway"]
		if roadType == "" {
			roadType = "unclassified"
		}
		name := elem.Tags["name"]
		if name == "" {
			name = defaultStreetName
		}
		direction := directionForTag(elem.Tags["oneway"])

		speedLimit := defaultSpeedLimitKmh
		if v, err := strconv.Atoi(elem.Tags["maxspeed"]); err == nil {
			speedLimit = v
		}
		lanes := defaultLaneCount
		if v, err := strconv.Atoi(elem.Tags["lanes"]); err == nil {
			lanes = v
		}

		for i := 0; i+1 < len(elem.Nodes); i++ {
			from, to := elem.Nodes[i], elem.Nodes[i+1]
			if _, ok := network.Nodes[from]; !ok {
				continue
			}
			if _, ok := network.Nodes[to]; !ok {
				continue
			}
			network.Edges = append(network.Edges, &Edge{
				From:          from,
				To:            to,
				Direction:     direction,
				RoadType:      roadType,
				StreetName:    name,
				SpeedLimitKmh: speedLimit,
				Lanes:         lanes,
			})
		}
	}
	return network
}

// enrichElevations looks up every node's elevation in parallel batches.
// The build is a bulk offline operation: a failed batch is logged and its
// nodes stay at sea level rather than failing the whole network.
func enrichElevations(ctx context.Context, network *Network, options BuildOptions) {
	if len(network.Nodes) == 0 {
		return
	}
	logger := slog.Default().With("component", "roadnet")

	batchSize := options.ElevationBatch
	if batchSize <= 0 {
		batchSize = 100
	}
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = defaultElevationConcurrency
	}

	ids := make([]int64, 0, len(network.Nodes))
	for id := range network.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		g.Go(func() error {
			points := make([]geo.Location, len(batch))
			for i, id := range batch {
				points[i] = network.Nodes[id].Location()
			}
			elevations, err := core.GetElevations(gctx, points, options.Elevation)
			if err != nil {
				logger.Warn("elevation batch failed, nodes kept at sea level",
					"batch_size", len(batch), "error", err)
				return nil
			}
			for i, id := range batch {
				network.Nodes[id].Elevation = elevations[i]
			}
			return nil
		})
	}

	// Worker funcs never return errors; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		logger.Warn("elevation enrichment interrupted", "error", err)
	}
}

// computeEdgeProperties fills in distance, elevation gain and slope for
// every edge from its endpoint nodes.
func computeEdgeProperties(network *Network) {
	for _, e := range network.Edges {
		from, okFrom := network.Nodes[e.From]
		to, okTo := network.Nodes[e.To]
		if !okFrom || !okTo {
			continue
		}
		e.DistanceM = geo.HaversineDistance(from.GPS[0], from.GPS[1], to.GPS[0], to.GPS[1])
		e.ElevationGain = to.Elevation - from.Elevation
		if e.DistanceM > 0 {
			e.SlopePercent = e.ElevationGain / e.DistanceM * 100
		} else {
			e.SlopePercent = 0
		}
	}
}

// applyZoneProfiles attaches a traffic-zone speed profile to every edge
// based on its OSM road class.
func applyZoneProfiles(network *Network) {
	for _, e := range network.Edges {
		key, peak, offpeak, multiplier := zoneProfileFor(e.RoadType)
		e.TrafficZone = key
		e.AvgSpeedPeak = peak
		e.AvgSpeedOffpeak = offpeak
		e.TrafficMultiplier = multiplier
	}
}

// zoneProfileFor maps an OSM highway class to the first traffic zone of the
// matching road type. Classes outside the mapped set get a generic profile.
func zoneProfileFor(roadType string) (zoneKey string, peak, offpeak, multiplier float64) {
	var want fuel.RoadType
	switch roadType {
	case "motorway", "trunk":
		want = fuel.RoadMotorway
	case "primary", "secondary":
		want = fuel.RoadArterial
	case "residential", "tertiary":
		want = fuel.RoadUrban
	default:
		return "", defaultProfileSpeedPeak, defaultProfileSpeedOffpeak, defaultProfileMultiplier
	}

	for _, z := range fuel.Zones() {
		if z.RoadType == want {
			return z.Key, z.PeakSpeedKmh, z.OffpeakSpeedKmh, z.PeakMultiplier
		}
	}
	return "", defaultProfileSpeedPeak, defaultProfileSpeedOffpeak, defaultProfileMultiplier
}
