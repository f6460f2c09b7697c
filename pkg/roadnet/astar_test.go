package roadnet

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

func mustVehicle(t *testing.T, id string) fuel.Vehicle {
	t.Helper()
	v, err := fuel.LookupVehicle(id)
	if err != nil {
		t.Fatalf("vehicle fixture %s: %v", id, err)
	}
	return v
}

// testNetwork builds a bidirectional residential network from node
// coordinates (lat, lon, elevation) and edge pairs, with distances and
// slopes computed the same way a real build does.
func testNetwork(nodes map[int64][3]float64, pairs [][2]int64) *Network {
	network := &Network{Nodes: make(map[int64]*Node)}
	for id, v := range nodes {
		network.Nodes[id] = &Node{GPS: [2]float64{v[0], v[1]}, Elevation: v[2]}
	}
	for _, pair := range pairs {
		network.Edges = append(network.Edges, &Edge{
			From:          pair[0],
			To:            pair[1],
			Direction:     DirectionBoth,
			RoadType:      "residential",
			StreetName:    "Test Sokak",
			SpeedLimitKmh: 50,
			Lanes:         1,
		})
	}
	computeEdgeProperties(network)
	return network
}

func containsNode(path []int64, id int64) bool {
	for _, n := range path {
		if n == id {
			return true
		}
	}
	return false
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"", ModePowerOptimized, false},
		{"power_optimized", ModePowerOptimized, false},
		{"balanced", ModeBalanced, false},
		{"fastest", "", true},
	}

	for _, tt := range tests {
		t.Run("mode_"+tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) failed: %v", tt.input, err)
			}
			if mode != tt.expected {
				t.Errorf("ParseMode(%q) = %s, want %s", tt.input, mode, tt.expected)
			}
		})
	}
}

func TestClassifySlope(t *testing.T) {
	tests := []struct {
		slope      float64
		category   string
		difficulty string
		color      string
	}{
		{-5, "descent", "descent", "#0088ff"},
		{-1, "flat", "easy", "#00ff00"},
		{1.5, "flat", "easy", "#00ff00"},
		{3, "gentle", "easy", "#00ff00"},
		{7, "moderate", "moderate", "#ffff00"},
		{12, "steep", "hard", "#ff8800"},
		{20, "extreme", "extreme", "#ff0000"},
	}

	for _, tt := range tests {
		category, difficulty := classifySlope(tt.slope)
		if category != tt.category || difficulty != tt.difficulty {
			t.Errorf("classifySlope(%.1f) = %s/%s, want %s/%s",
				tt.slope, category, difficulty, tt.category, tt.difficulty)
		}
		if got := slopeColor(difficulty); got != tt.color {
			t.Errorf("slopeColor(%s) = %s, want %s", difficulty, got, tt.color)
		}
	}

	if got := slopeColor("unknown"); got != "#888888" {
		t.Errorf("slopeColor fallback = %s, want #888888", got)
	}
}

func TestFindRouteStraightLine(t *testing.T) {
	network := testNetwork(map[int64][3]float64{
		1: {41.000, 29.000, 100},
		2: {41.001, 29.000, 100},
		3: {41.002, 29.000, 100},
	}, [][2]int64{{1, 2}, {2, 3}})

	planner := NewPlanner(network, mustVehicle(t, "fiat_egea_dizel"))
	path, err := planner.FindRoute(context.Background(), 1, 3, fuel.Offpeak, ModeBalanced)
	if err != nil {
		t.Fatalf("FindRoute failed: %v", err)
	}
	if len(path) != 3 || path[0] != 1 || path[1] != 2 || path[2] != 3 {
		t.Fatalf("path = %v, want [1 2 3]", path)
	}

	result, err := planner.Analyze(path, fuel.Offpeak, ModeBalanced)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(result.Legs))
	}
	if math.Abs(result.TotalDistanceKm-0.2224) > 0.002 {
		t.Errorf("distance = %.4f km, want about 0.2224", result.TotalDistanceKm)
	}
	if result.MaxSlopePercent > 0.01 {
		t.Errorf("max slope = %.2f%%, want 0 on level ground", result.MaxSlopePercent)
	}
	if result.CriticalSections != 0 {
		t.Errorf("critical sections = %d, want 0", result.CriticalSections)
	}
	if result.TotalFuelLiters <= 0 || result.TotalTimeMinutes <= 0 {
		t.Errorf("totals should be positive: fuel %.4f L, time %.2f min",
			result.TotalFuelLiters, result.TotalTimeMinutes)
	}
	if result.Legs[0].Level != LevelComfortable {
		t.Errorf("leg level = %s, want %s", result.Legs[0].Level, LevelComfortable)
	}
}

// steepGradeNetwork has a direct climb over node 2 at about 21% grade and
// a longer flat detour through nodes 10-14.
func steepGradeNetwork() *Network {
	return testNetwork(map[int64][3]float64{
		1:  {41.0000, 29.0000, 0},
		2:  {41.0010, 29.0000, 23.35},
		3:  {41.0020, 29.0000, 0},
		10: {41.0000, 29.0013, 0},
		11: {41.0005, 29.0013, 0},
		12: {41.0010, 29.0013, 0},
		13: {41.0015, 29.0013, 0},
		14: {41.0020, 29.0013, 0},
	}, [][2]int64{
		{1, 2}, {2, 3},
		{1, 10}, {10, 11}, {11, 12}, {12, 13}, {13, 14}, {14, 3},
	})
}

func TestFindRouteAvoidsImpassableGrade(t *testing.T) {
	network := steepGradeNetwork()

	// Fixture sanity: the direct climb must sit between the Egea's 20%
	// maximum and the Corolla's 22% maximum.
	for _, e := range network.Edges {
		if e.From == 1 && e.To == 2 {
			if e.SlopePercent < 20.5 || e.SlopePercent > 21.5 {
				t.Fatalf("direct grade = %.2f%%, fixture expects about 21%%", e.SlopePercent)
			}
		}
	}

	egea := mustVehicle(t, "fiat_egea_dizel")
	planner := NewPlanner(network, egea)
	path, err := planner.FindRoute(context.Background(), 1, 3, fuel.Offpeak, ModePowerOptimized)
	if err != nil {
		t.Fatalf("FindRoute failed: %v", err)
	}
	if containsNode(path, 2) {
		t.Fatalf("path %v crosses a grade beyond the vehicle's maximum", path)
	}

	result, err := planner.Analyze(path, fuel.Offpeak, ModePowerOptimized)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.MaxSlopePercent > 5 {
		t.Errorf("max slope = %.2f%%, detour should stay gentle", result.MaxSlopePercent)
	}
	if result.CriticalSections != 0 {
		t.Errorf("critical sections = %d, want 0 on the flat detour", result.CriticalSections)
	}
}

func TestFindRouteCapableVehicleTakesDirect(t *testing.T) {
	network := steepGradeNetwork()

	corolla := mustVehicle(t, "toyota_corolla")
	planner := NewPlanner(network, corolla)
	path, err := planner.FindRoute(context.Background(), 1, 3, fuel.Offpeak, ModeBalanced)
	if err != nil {
		t.Fatalf("FindRoute failed: %v", err)
	}
	if !containsNode(path, 2) {
		t.Fatalf("path = %v, a 132hp car should take the short climb", path)
	}

	result, err := planner.Analyze(path, fuel.Offpeak, ModeBalanced)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.CriticalSections != 2 {
		t.Errorf("critical sections = %d, want 2 (climb and descent)", result.CriticalSections)
	}
	if math.Abs(result.MaxSlopePercent-21) > 0.5 {
		t.Errorf("max slope = %.2f%%, want about 21%%", result.MaxSlopePercent)
	}
	if result.Legs[0].Level != LevelDifficult {
		t.Errorf("climb level = %s, want %s", result.Legs[0].Level, LevelDifficult)
	}
}

func TestFindRouteRespectsOneway(t *testing.T) {
	nodes := map[int64][3]float64{
		1: {41.0000, 29.0000, 0},
		2: {41.0005, 29.0000, 0},
	}

	build := func(direction Direction) *Network {
		network := &Network{Nodes: make(map[int64]*Node)}
		for id, v := range nodes {
			network.Nodes[id] = &Node{GPS: [2]float64{v[0], v[1]}, Elevation: v[2]}
		}
		network.Edges = []*Edge{{
			From: 1, To: 2, Direction: direction,
			RoadType: "residential", StreetName: "Tek Yön",
			SpeedLimitKmh: 50, Lanes: 1,
		}}
		computeEdgeProperties(network)
		return network
	}

	egea := mustVehicle(t, "fiat_egea_dizel")

	oneway := NewPlanner(build(DirectionOneway), egea)
	if _, err := oneway.FindRoute(context.Background(), 1, 2, fuel.Offpeak, ModeBalanced); err != nil {
		t.Errorf("oneway forward should route: %v", err)
	}
	if _, err := oneway.FindRoute(context.Background(), 2, 1, fuel.Offpeak, ModeBalanced); !errors.Is(err, ErrNoRoute) {
		t.Errorf("oneway backward = %v, want ErrNoRoute", err)
	}

	reverse := NewPlanner(build(DirectionReverse), egea)
	if _, err := reverse.FindRoute(context.Background(), 1, 2, fuel.Offpeak, ModeBalanced); !errors.Is(err, ErrNoRoute) {
		t.Errorf("reverse-only forward = %v, want ErrNoRoute", err)
	}
	if _, err := reverse.FindRoute(context.Background(), 2, 1, fuel.Offpeak, ModeBalanced); err != nil {
		t.Errorf("reverse-only backward should route: %v", err)
	}
}

func TestAnalyzeCountsCriticalSections(t *testing.T) {
	// Grades per leg: 0% comfortable, 13% manageable, 18% difficult for
	// the Egea's 11/16.5/20 limits.
	network := testNetwork(map[int64][3]float64{
		1: {41.000, 29.000, 0},
		2: {41.001, 29.000, 0},
		3: {41.002, 29.000, 14.455},
		4: {41.003, 29.000, 34.470},
	}, [][2]int64{{1, 2}, {2, 3}, {3, 4}})

	planner := NewPlanner(network, mustVehicle(t, "fiat_egea_dizel"))
	result, err := planner.Analyze([]int64{1, 2, 3, 4}, fuel.Peak, ModePowerOptimized)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Legs) != 3 {
		t.Fatalf("legs = %d, want 3", len(result.Legs))
	}

	wantLevels := []string{LevelComfortable, LevelManageable, LevelDifficult}
	wantColors := []string{"#00ff00", "#ff8800", "#ff0000"}
	for i, leg := range result.Legs {
		if leg.Level != wantLevels[i] {
			t.Errorf("leg %d level = %s, want %s", i, leg.Level, wantLevels[i])
		}
		if leg.Color != wantColors[i] {
			t.Errorf("leg %d color = %s, want %s", i, leg.Color, wantColors[i])
		}
	}
	if result.CriticalSections != 2 {
		t.Errorf("critical sections = %d, want 2", result.CriticalSections)
	}
	if math.Abs(result.MaxSlopePercent-18) > 0.2 {
		t.Errorf("max slope = %.2f%%, want about 18%%", result.MaxSlopePercent)
	}

	// Diesel fuel priced as diesel.
	wantCost := result.TotalFuelLiters * fuel.PricePerLiter(fuel.FuelDiesel)
	if math.Abs(result.FuelCostTL-wantCost) > 1e-9 {
		t.Errorf("fuel cost = %.4f TL, want %.4f", result.FuelCostTL, wantCost)
	}
}

func TestPlanRoute(t *testing.T) {
	network := testNetwork(map[int64][3]float64{
		1: {41.000, 29.000, 100},
		2: {41.001, 29.000, 100},
		3: {41.002, 29.000, 100},
	}, [][2]int64{{1, 2}, {2, 3}})

	egea := mustVehicle(t, "fiat_egea_dizel")
	origin := geo.Location{Latitude: 41.0001, Longitude: 29.0}
	destination := geo.Location{Latitude: 41.0019, Longitude: 29.0}

	result, err := PlanRoute(context.Background(), network, egea, origin, destination, fuel.Offpeak, ModePowerOptimized)
	if err != nil {
		t.Fatalf("PlanRoute failed: %v", err)
	}
	if result.VehicleID != "fiat_egea_dizel" {
		t.Errorf("vehicle = %s, want fiat_egea_dizel", result.VehicleID)
	}
	if result.Mode != ModePowerOptimized || result.Period != fuel.Offpeak {
		t.Errorf("mode/period = %s/%s", result.Mode, result.Period)
	}
	if len(result.Path) != 3 {
		t.Errorf("path = %v, want 3 nodes", result.Path)
	}
	if result.Limits != egea.ClimbingLimits() {
		t.Errorf("limits = %+v, want the vehicle's own", result.Limits)
	}
}

func TestPlanRouteSameNode(t *testing.T) {
	network := testNetwork(map[int64][3]float64{
		1: {41.000, 29.000, 0},
		2: {41.001, 29.000, 0},
	}, [][2]int64{{1, 2}})

	egea := mustVehicle(t, "fiat_egea_dizel")
	a := geo.Location{Latitude: 41.0001, Longitude: 29.0}
	b := geo.Location{Latitude: 41.0002, Longitude: 29.0}

	_, err := PlanRoute(context.Background(), network, egea, a, b, fuel.Peak, ModeBalanced)
	if !errors.Is(err, ErrSameNode) {
		t.Errorf("err = %v, want ErrSameNode", err)
	}
}

func TestPlanRouteEmptyNetwork(t *testing.T) {
	network := &Network{Nodes: map[int64]*Node{}}
	egea := mustVehicle(t, "fiat_egea_dizel")

	_, err := PlanRoute(context.Background(), network, egea,
		geo.Location{Latitude: 41, Longitude: 29},
		geo.Location{Latitude: 41.1, Longitude: 29.1},
		fuel.Peak, ModeBalanced)
	if !errors.Is(err, ErrEmptyNetwork) {
		t.Errorf("err = %v, want ErrEmptyNetwork", err)
	}
}

func TestAnalyzeShortPath(t *testing.T) {
	network := testNetwork(map[int64][3]float64{
		1: {41.000, 29.000, 0},
	}, nil)

	planner := NewPlanner(network, mustVehicle(t, "fiat_egea_dizel"))
	if _, err := planner.Analyze([]int64{1}, fuel.Peak, ModeBalanced); !errors.Is(err, ErrNoRoute) {
		t.Errorf("err = %v, want ErrNoRoute for a single-node path", err)
	}
}
