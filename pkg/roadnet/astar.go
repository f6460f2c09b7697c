package roadnet

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// Routing failures the tool layer translates into user guidance.
var (
	ErrEmptyNetwork = errors.New("road network has no nodes")
	ErrSameNode     = errors.New("origin and destination resolve to the same road node")
	ErrNoRoute      = errors.New("no passable route found for the vehicle")
)

// maxIterations bounds the A* search on pathological graphs.
const maxIterations = 50000

// Mode selects the cost blend for route planning.
type Mode string

const (
	// ModeBalanced weighs fuel, time and slope equally.
	ModeBalanced Mode = "balanced"
	// ModePowerOptimized favors gentle grades for underpowered vehicles.
	ModePowerOptimized Mode = "power_optimized"
)

// ParseMode parses a user-supplied routing mode. Empty input selects the
// power-optimized default.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModePowerOptimized):
		return ModePowerOptimized, nil
	case string(ModeBalanced):
		return ModeBalanced, nil
	default:
		return "", fmt.Errorf("unknown routing mode %q: use balanced or power_optimized", s)
	}
}

type costWeights struct {
	fuel, time, slope float64
}

func (m Mode) weights() costWeights {
	if m == ModePowerOptimized {
		return costWeights{fuel: 1.5, time: 0.8, slope: 2.5}
	}
	return costWeights{fuel: 1.0, time: 1.0, slope: 1.0}
}

// Slope categories for reporting. Category tracks the fuel-multiplier
// bands; difficulty is the coarser bucket behind the leg color coding.
const (
	slopeDescent  = "descent"
	slopeFlat     = "flat"
	slopeGentle   = "gentle"
	slopeModerate = "moderate"
	slopeSteep    = "steep"
	slopeExtreme  = "extreme"
)

func classifySlope(slopePercent float64) (category, difficulty string) {
	abs := math.Abs(slopePercent)
	switch {
	case slopePercent < -2:
		return slopeDescent, "descent"
	case abs < 2:
		return slopeFlat, "easy"
	case abs < 5:
		return slopeGentle, "easy"
	case abs < 10:
		return slopeModerate, "moderate"
	case abs < 15:
		return slopeSteep, "hard"
	default:
		return slopeExtreme, "extreme"
	}
}

var slopeColors = map[string]string{
	"easy":     "#00ff00",
	"moderate": "#ffff00",
	"hard":     "#ff8800",
	"extreme":  "#ff0000",
	"descent":  "#0088ff",
}

func slopeColor(difficulty string) string {
	if c, ok := slopeColors[difficulty]; ok {
		return c
	}
	return "#888888"
}

// Capability levels a traversal can rate against a vehicle's limits.
const (
	LevelComfortable = "comfortable"
	LevelManageable  = "manageable"
	LevelDifficult   = "difficult"
	LevelImpassable  = "impassable"
)

// Leg is one traversed edge of a planned route.
type Leg struct {
	From            int64   `json:"from"`
	To              int64   `json:"to"`
	StreetName      string  `json:"street_name"`
	DistanceM       float64 `json:"distance_m"`
	SlopePercent    float64 `json:"slope_percent"`
	ElevationChange float64 `json:"elevation_change_m"`
	FromElevation   float64 `json:"from_elevation_m"`
	ToElevation     float64 `json:"to_elevation_m"`
	Category        string  `json:"category"`
	Difficulty      string  `json:"difficulty"`
	Color           string  `json:"color"`
	Level           string  `json:"level"`
	FuelLiters      float64 `json:"fuel_liters"`
	TimeMinutes     float64 `json:"time_minutes"`
}

// PlanResult is a planned route with its per-leg breakdown and totals.
type PlanResult struct {
	VehicleID        string              `json:"vehicle_id"`
	Mode             Mode                `json:"mode"`
	Period           fuel.TimeOfDay      `json:"time_of_day"`
	Limits           fuel.ClimbingLimits `json:"climbing_limits"`
	Path             []int64             `json:"path"`
	Legs             []Leg               `json:"legs"`
	TotalDistanceKm  float64             `json:"total_distance_km"`
	TotalFuelLiters  float64             `json:"total_fuel_liters"`
	FuelCostTL       float64             `json:"fuel_cost_tl"`
	TotalTimeMinutes float64             `json:"total_time_minutes"`
	MaxSlopePercent  float64             `json:"max_slope_percent"`
	CriticalSections int                 `json:"critical_sections"`
}

// Planner runs capability-aware A* searches for one vehicle over one
// network. It is safe for concurrent use once constructed.
type Planner struct {
	network *Network
	vehicle fuel.Vehicle
	limits  fuel.ClimbingLimits
	price   float64
}

// NewPlanner creates a planner for the vehicle over the network.
func NewPlanner(network *Network, vehicle fuel.Vehicle) *Planner {
	return &Planner{
		network: network,
		vehicle: vehicle,
		limits:  vehicle.ClimbingLimits(),
		price:   fuel.PricePerLiter(vehicle.Fuel),
	}
}

// legCost is the evaluated cost of one directed traversal.
type legCost struct {
	total        float64
	passable     bool
	level        string
	slopePenalty float64
	fuelLiters   float64
	timeMinutes  float64
	slopePercent float64
}

// evaluate prices a traversal for the planner's vehicle. The blend charges
// fuel at the pump price, travel time in seconds, and a slope penalty
// scaled by how far the grade sits beyond the vehicle's comfort band.
func (p *Planner) evaluate(t traversal, period fuel.TimeOfDay, w costWeights) legCost {
	e := t.edge
	slope := t.slopePercent()
	abs := math.Abs(slope)

	cost := legCost{passable: true, slopePercent: slope}
	switch {
	case abs <= p.limits.ComfortablePercent:
		cost.slopePenalty = 1.0
		cost.level = LevelComfortable
	case abs <= p.limits.ManageablePercent:
		cost.slopePenalty = 1.5 + (abs-p.limits.ComfortablePercent)*0.1
		cost.level = LevelManageable
	case abs <= p.limits.MaximumPercent:
		cost.slopePenalty = 2.5 + (abs-p.limits.ManageablePercent)*0.2
		cost.level = LevelDifficult
	default:
		cost.passable = false
		cost.level = LevelImpassable
		cost.total = math.Inf(1)
		return cost
	}

	cost.fuelLiters = p.vehicle.CityConsumption / 100 *
		(e.DistanceM / 1000) * fuel.SlopeFuelMultiplier(slope)

	speed := e.TravelSpeedKmh(period)
	seconds := e.DistanceM / (speed * 1000 / 3600)
	cost.timeMinutes = seconds / 60

	cost.total = w.fuel*cost.fuelLiters*p.price +
		w.time*seconds +
		w.slope*cost.slopePenalty*10
	return cost
}

// searchItem is a priority-queue entry for the A* open set.
type searchItem struct {
	node int64
	f    float64
}

type searchQueue []searchItem

func (q searchQueue) Len() int           { return len(q) }
func (q searchQueue) Less(i, j int) bool { return q[i].f < q[j].f }
func (q searchQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x any)        { *q = append(*q, x.(searchItem)) }
func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// FindRoute runs A* from start to end and returns the node path. Grades
// beyond the vehicle's maximum are impassable; the straight-line heuristic
// keeps the search aimed at the goal.
func (p *Planner) FindRoute(ctx context.Context, start, end int64, period fuel.TimeOfDay, mode Mode) ([]int64, error) {
	endNode, ok := p.network.Nodes[end]
	if !ok {
		return nil, fmt.Errorf("unknown destination node %d", end)
	}
	if _, ok := p.network.Nodes[start]; !ok {
		return nil, fmt.Errorf("unknown origin node %d", start)
	}

	w := mode.weights()
	open := &searchQueue{{node: start, f: 0}}
	heap.Init(open)
	gCost := map[int64]float64{start: 0}
	cameFrom := make(map[int64]int64)
	closed := make(map[int64]bool)

	for iteration := 0; open.Len() > 0 && iteration < maxIterations; iteration++ {
		if iteration%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		current := heap.Pop(open).(searchItem)
		if current.node == end {
			return reconstructPath(cameFrom, start, end), nil
		}
		if closed[current.node] {
			continue
		}
		closed[current.node] = true

		for _, t := range p.network.neighbors(current.node) {
			neighbor := t.to()
			if closed[neighbor] {
				continue
			}
			cost := p.evaluate(t, period, w)
			if !cost.passable {
				continue
			}
			tentative := gCost[current.node] + cost.total
			if known, ok := gCost[neighbor]; !ok || tentative < known {
				gCost[neighbor] = tentative
				cameFrom[neighbor] = current.node
				heap.Push(open, searchItem{
					node: neighbor,
					f:    tentative + p.heuristic(neighbor, endNode),
				})
			}
		}
	}
	return nil, ErrNoRoute
}

// heuristic is the straight-line distance to the goal divided by 100,
// keeping it well under real traversal costs.
func (p *Planner) heuristic(node int64, end *Node) float64 {
	n, ok := p.network.Nodes[node]
	if !ok {
		return math.Inf(1)
	}
	return geo.HaversineDistance(n.GPS[0], n.GPS[1], end.GPS[0], end.GPS[1]) / 100
}

func reconstructPath(cameFrom map[int64]int64, start, end int64) []int64 {
	path := []int64{end}
	for node := end; node != start; {
		prev, ok := cameFrom[node]
		if !ok {
			break
		}
		path = append(path, prev)
		node = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Analyze walks a node path and produces per-leg details and totals.
// Manageable and difficult legs count as critical sections.
func (p *Planner) Analyze(path []int64, period fuel.TimeOfDay, mode Mode) (*PlanResult, error) {
	if len(path) < 2 {
		return nil, ErrNoRoute
	}
	w := mode.weights()

	result := &PlanResult{
		VehicleID: p.vehicle.ID,
		Mode:      mode,
		Period:    period,
		Limits:    p.limits,
		Path:      path,
		Legs:      make([]Leg, 0, len(path)-1),
	}

	for i := 0; i+1 < len(path); i++ {
		t, ok := p.findTraversal(path[i], path[i+1])
		if !ok {
			continue
		}
		cost := p.evaluate(t, period, w)
		category, difficulty := classifySlope(cost.slopePercent)

		fromNode := p.network.Nodes[t.from()]
		toNode := p.network.Nodes[t.to()]

		leg := Leg{
			From:            path[i],
			To:              path[i+1],
			StreetName:      t.edge.StreetName,
			DistanceM:       t.edge.DistanceM,
			SlopePercent:    cost.slopePercent,
			ElevationChange: t.elevationGain(),
			Category:        category,
			Difficulty:      difficulty,
			Color:           slopeColor(difficulty),
			Level:           cost.level,
			FuelLiters:      cost.fuelLiters,
			TimeMinutes:     cost.timeMinutes,
		}
		if fromNode != nil {
			leg.FromElevation = fromNode.Elevation
		}
		if toNode != nil {
			leg.ToElevation = toNode.Elevation
		}
		result.Legs = append(result.Legs, leg)

		result.TotalDistanceKm += t.edge.DistanceM / 1000
		result.TotalFuelLiters += cost.fuelLiters
		result.TotalTimeMinutes += cost.timeMinutes
		if abs := math.Abs(cost.slopePercent); abs > result.MaxSlopePercent {
			result.MaxSlopePercent = abs
		}
		if cost.level == LevelManageable || cost.level == LevelDifficult {
			result.CriticalSections++
		}
	}

	result.FuelCostTL = result.TotalFuelLiters * p.price
	return result, nil
}

// findTraversal locates the directed traversal from one node to the next.
func (p *Planner) findTraversal(from, to int64) (traversal, bool) {
	for _, t := range p.network.neighbors(from) {
		if t.to() == to {
			return t, true
		}
	}
	return traversal{}, false
}

// PlanRoute resolves the origin and destination to graph nodes, runs the
// search and returns the analyzed route. Endpoints far from any road node
// still route from the nearest one, with a logged warning.
func PlanRoute(ctx context.Context, network *Network, vehicle fuel.Vehicle, origin, destination geo.Location, period fuel.TimeOfDay, mode Mode) (*PlanResult, error) {
	logger := slog.Default().With("component", "roadnet")

	startID, startDist, ok := network.NearestNode(origin.Latitude, origin.Longitude)
	if !ok {
		return nil, ErrEmptyNetwork
	}
	endID, endDist, _ := network.NearestNode(destination.Latitude, destination.Longitude)

	if startDist > NearestNodeWarnDistanceM {
		logger.Warn("origin is far from the road network",
			"distance_m", startDist, "node", startID)
	}
	if endDist > NearestNodeWarnDistanceM {
		logger.Warn("destination is far from the road network",
			"distance_m", endDist, "node", endID)
	}
	if startID == endID {
		return nil, ErrSameNode
	}

	planner := NewPlanner(network, vehicle)
	path, err := planner.FindRoute(ctx, startID, endID, period, mode)
	if err != nil {
		return nil, err
	}
	return planner.Analyze(path, period, mode)
}
