package fuel

import "testing"

func TestCompareTwoVehicles(t *testing.T) {
	corolla := mustVehicle(t, "toyota_corolla")
	peugeot := mustVehicle(t, "peugeot_301_dizel")

	segments := []RouteSegment{segmentIn(t, "D100_E5", 10, 0)}
	stats := RouteStats{TotalDistanceKm: 10, MaxGradePercent: 2}

	cmp, err := Compare([]Vehicle{corolla, peugeot}, segments, stats, Offpeak)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(cmp.Options))
	}

	// The Peugeot's lower consumption figures win fuel, cost and the
	// balanced blend; the difficulty tie keeps the first candidate.
	if cmp.LeastFuel != "peugeot_301_dizel" {
		t.Errorf("least fuel: expected peugeot_301_dizel, got %s", cmp.LeastFuel)
	}
	if cmp.LowestCost != "peugeot_301_dizel" {
		t.Errorf("lowest cost: expected peugeot_301_dizel, got %s", cmp.LowestCost)
	}
	if cmp.Easiest != "toyota_corolla" {
		t.Errorf("easiest tie should keep first candidate, got %s", cmp.Easiest)
	}
	if cmp.BestBalanced != "peugeot_301_dizel" {
		t.Errorf("best balanced: expected peugeot_301_dizel, got %s", cmp.BestBalanced)
	}

	for _, opt := range cmp.Options {
		if opt.Result.TotalFuelLiters <= 0 {
			t.Errorf("vehicle %s burned no fuel", opt.Result.VehicleID)
		}
		if opt.Capability.Difficulty != DifficultyEasy {
			t.Errorf("flat route should rate easy for %s, got %s",
				opt.Result.VehicleID, opt.Capability.Difficulty)
		}
	}
}

func TestCompareDefaultsToCatalog(t *testing.T) {
	segments := []RouteSegment{segmentIn(t, "O-1_O-2_Otoyol", 20, 0)}
	stats := RouteStats{TotalDistanceKm: 20}

	cmp, err := Compare(nil, segments, stats, Peak)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp.Options) != len(Vehicles()) {
		t.Fatalf("expected full catalog, got %d options", len(cmp.Options))
	}
	if cmp.LeastFuel == "" || cmp.BestBalanced == "" {
		t.Error("expected picks to be set")
	}
}

func TestComparePropagatesErrors(t *testing.T) {
	if _, err := Compare([]Vehicle{mustVehicle(t, "vw_polo")}, nil, RouteStats{}, Peak); err == nil {
		t.Error("expected error for empty segments")
	}
}

func TestBalancedScore(t *testing.T) {
	// 8 L/100km at KOLAY: (0.8 + 0)/2.
	if got := BalancedScore(8, DifficultyEasy); !almostEqual(got, 0.4, eps) {
		t.Errorf("expected 0.4, got %.4f", got)
	}
	// 6 L/100km at ZOR: (0.6 + 2/3)/2.
	if got := BalancedScore(6, DifficultyHard); !almostEqual(got, (0.6+2.0/3.0)/2, eps) {
		t.Errorf("expected %.4f, got %.4f", (0.6+2.0/3.0)/2, got)
	}
	// Difficulty can outweigh a small fuel advantage.
	economical := BalancedScore(5.0, DifficultyVeryHard)
	thirstier := BalancedScore(6.5, DifficultyEasy)
	if economical <= thirstier {
		t.Errorf("hard rating should cost more than 1.5L difference: %.4f vs %.4f",
			economical, thirstier)
	}
}
