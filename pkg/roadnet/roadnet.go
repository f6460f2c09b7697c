// Package roadnet builds drivable road graphs from OpenStreetMap data and
// plans slope-aware routes over them. A network is built once per region
// from an Overpass bounding-box download, enriched with node elevations,
// and cached to disk; the planner then runs A* searches against the cached
// graph with per-vehicle climbing limits.
package roadnet

import (
	"math"
	"sync"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// Direction encodes how a way may be traversed relative to its node order.
type Direction string

const (
	// DirectionOneway allows travel from the first node to the second only.
	DirectionOneway Direction = "oneway"
	// DirectionReverse allows travel against the node order only.
	DirectionReverse Direction = "reverse_only"
	// DirectionBoth allows travel in both directions.
	DirectionBoth Direction = "bidirectional"
)

// directionForTag maps an OSM oneway tag value to a Direction.
func directionForTag(oneway string) Direction {
	switch oneway {
	case "yes", "1", "true":
		return DirectionOneway
	case "-1":
		return DirectionReverse
	default:
		return DirectionBoth
	}
}

// Node is a road graph vertex: a GPS position with its elevation in meters.
// GPS is stored latitude-first.
type Node struct {
	GPS       [2]float64 `json:"gps"`
	Elevation float64    `json:"elevation"`
}

// Lat returns the node latitude.
func (n *Node) Lat() float64 { return n.GPS[0] }

// Lon returns the node longitude.
func (n *Node) Lon() float64 { return n.GPS[1] }

// Location returns the node position as a geo.Location.
func (n *Node) Location() geo.Location {
	return geo.Location{Latitude: n.GPS[0], Longitude: n.GPS[1]}
}

// Edge connects two consecutive way nodes. One Edge record is stored per
// node pair; Direction determines which traversals the router derives from
// it. Distances are meters, speeds km/h, slopes percent.
type Edge struct {
	From              int64     `json:"from"`
	To                int64     `json:"to"`
	Direction         Direction `json:"direction"`
	RoadType          string    `json:"road_type"`
	StreetName        string    `json:"street_name"`
	SpeedLimitKmh     int       `json:"speed_limit"`
	Lanes             int       `json:"lanes"`
	DistanceM         float64   `json:"distance"`
	ElevationGain     float64   `json:"elevation_gain"`
	SlopePercent      float64   `json:"slope_percent"`
	TrafficZone       string    `json:"traffic_zone,omitempty"`
	AvgSpeedPeak      float64   `json:"avg_speed_peak"`
	AvgSpeedOffpeak   float64   `json:"avg_speed_offpeak"`
	TrafficMultiplier float64   `json:"traffic_multiplier"`
}

// TravelSpeedKmh returns the speed used for travel-time estimates: the
// zone average for the period when known, never exceeding the speed limit.
func (e *Edge) TravelSpeedKmh(period fuel.TimeOfDay) float64 {
	avg := e.AvgSpeedOffpeak
	if period == fuel.Peak {
		avg = e.AvgSpeedPeak
	}
	limit := float64(e.SpeedLimitKmh)
	if limit <= 0 {
		limit = defaultSpeedLimitKmh
	}
	if avg <= 0 || avg > limit {
		return limit
	}
	return avg
}

// Stats summarizes a network's size.
type Stats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// Network is a directed road graph for one region.
type Network struct {
	Nodes   map[int64]*Node
	Edges   []*Edge
	BBox    geo.BoundingBox
	BuiltAt time.Time

	indexOnce sync.Once
	outgoing  map[int64][]traversal
}

// traversal is one directed use of an edge. A reversed traversal runs
// against the stored node order, so its slope and elevation gain flip sign.
type traversal struct {
	edge     *Edge
	reversed bool
}

func (t traversal) from() int64 {
	if t.reversed {
		return t.edge.To
	}
	return t.edge.From
}

func (t traversal) to() int64 {
	if t.reversed {
		return t.edge.From
	}
	return t.edge.To
}

func (t traversal) slopePercent() float64 {
	if t.reversed {
		return -t.edge.SlopePercent
	}
	return t.edge.SlopePercent
}

func (t traversal) elevationGain() float64 {
	if t.reversed {
		return -t.edge.ElevationGain
	}
	return t.edge.ElevationGain
}

// Stats returns the node and edge counts.
func (n *Network) Stats() Stats {
	return Stats{NodeCount: len(n.Nodes), EdgeCount: len(n.Edges)}
}

// neighbors returns the directed traversals leaving the given node.
func (n *Network) neighbors(id int64) []traversal {
	n.ensureIndex()
	return n.outgoing[id]
}

func (n *Network) ensureIndex() {
	n.indexOnce.Do(n.indexEdges)
}

// indexEdges expands the stored edges into directed traversals. Bidirectional
// edges contribute one traversal each way, oneway edges only forward and
// reverse-only edges only backward.
func (n *Network) indexEdges() {
	n.outgoing = make(map[int64][]traversal, len(n.Nodes))
	for _, e := range n.Edges {
		switch e.Direction {
		case DirectionOneway:
			n.outgoing[e.From] = append(n.outgoing[e.From], traversal{edge: e})
		case DirectionReverse:
			n.outgoing[e.To] = append(n.outgoing[e.To], traversal{edge: e, reversed: true})
		default:
			n.outgoing[e.From] = append(n.outgoing[e.From], traversal{edge: e})
			n.outgoing[e.To] = append(n.outgoing[e.To], traversal{edge: e, reversed: true})
		}
	}
}

// NearestNodeWarnDistanceM is the distance beyond which a nearest-node
// match is considered doubtful. Matches beyond it are still returned; the
// caller decides whether to warn or refuse.
const NearestNodeWarnDistanceM = 500.0

// NearestNode finds the graph node closest to the given coordinate by
// linear scan. ok is false only for an empty network.
func (n *Network) NearestNode(lat, lon float64) (id int64, distanceM float64, ok bool) {
	distanceM = math.Inf(1)
	for nodeID, node := range n.Nodes {
		d := geo.HaversineDistance(lat, lon, node.GPS[0], node.GPS[1])
		if d < distanceM {
			distanceM = d
			id = nodeID
			ok = true
		}
	}
	return id, distanceM, ok
}

// NodeLocation returns the position of a node by ID.
func (n *Network) NodeLocation(id int64) (geo.Location, bool) {
	node, ok := n.Nodes[id]
	if !ok {
		return geo.Location{}, false
	}
	return node.Location(), true
}

// PathLocations maps a node ID path to coordinates, skipping unknown IDs.
func (n *Network) PathLocations(path []int64) []geo.Location {
	out := make([]geo.Location, 0, len(path))
	for _, id := range path {
		if node, ok := n.Nodes[id]; ok {
			out = append(out, node.Location())
		}
	}
	return out
}

// BBoxAreaKm2 approximates the area of a bounding box in square kilometers.
// Longitude span is scaled by the cosine of the middle latitude.
func BBoxAreaKm2(bbox geo.BoundingBox) float64 {
	dLat := bbox.MaxLat - bbox.MinLat
	dLon := bbox.MaxLon - bbox.MinLon
	midLat := (bbox.MinLat + bbox.MaxLat) / 2
	return dLat * 111.0 * dLon * 111.0 * math.Cos(midLat*math.Pi/180)
}
