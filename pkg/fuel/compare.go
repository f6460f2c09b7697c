package fuel

// difficultyScale normalizes a difficulty rank to 0..1 for the balanced
// score (hardest rating is 3).
const difficultyScale = 3.0

// fuelScale normalizes fuel per 100 km for the balanced score; 10 L/100km
// maps to 1.0.
const fuelScale = 10.0

// VehicleOption is one vehicle's outcome in a comparison run.
type VehicleOption struct {
	Result        *Result    `json:"result"`
	Capability    Capability `json:"capability"`
	BalancedScore float64    `json:"balanced_score"`
}

// Comparison holds per-vehicle results over the same route plus the
// recommended picks. Picks are vehicle IDs; ties keep the earlier
// catalog entry.
type Comparison struct {
	Options      []VehicleOption `json:"options"`
	LeastFuel    string          `json:"least_fuel"`
	LowestCost   string          `json:"lowest_fuel_cost"`
	Easiest      string          `json:"easiest"`
	BestBalanced string          `json:"best_balanced"`
}

// BalancedScore blends normalized consumption and difficulty with equal
// weight. Lower is better.
func BalancedScore(fuelPer100Km float64, d Difficulty) float64 {
	return (fuelPer100Km/fuelScale + float64(d.Rank())/difficultyScale) / 2
}

// Compare runs the consumption model and capability assessment for each
// vehicle over the same analyzed route.
func Compare(candidates []Vehicle, segments []RouteSegment, stats RouteStats, period TimeOfDay) (*Comparison, error) {
	if len(candidates) == 0 {
		candidates = Vehicles()
	}

	cmp := &Comparison{Options: make([]VehicleOption, 0, len(candidates))}
	for _, v := range candidates {
		res, err := Calculate(v, segments, period)
		if err != nil {
			return nil, err
		}
		capability := AssessCapability(v, stats)
		cmp.Options = append(cmp.Options, VehicleOption{
			Result:        res,
			Capability:    capability,
			BalancedScore: BalancedScore(res.FuelPer100Km, capability.Difficulty),
		})
	}

	best := func(less func(a, b VehicleOption) bool) string {
		bestIdx := 0
		for i := 1; i < len(cmp.Options); i++ {
			if less(cmp.Options[i], cmp.Options[bestIdx]) {
				bestIdx = i
			}
		}
		return cmp.Options[bestIdx].Result.VehicleID
	}

	cmp.LeastFuel = best(func(a, b VehicleOption) bool {
		return a.Result.TotalFuelLiters < b.Result.TotalFuelLiters
	})
	cmp.LowestCost = best(func(a, b VehicleOption) bool {
		return a.Result.FuelCostTL < b.Result.FuelCostTL
	})
	cmp.Easiest = best(func(a, b VehicleOption) bool {
		return a.Capability.Difficulty.Rank() < b.Capability.Difficulty.Rank()
	})
	cmp.BestBalanced = best(func(a, b VehicleOption) bool {
		return a.BalancedScore < b.BalancedScore
	})
	return cmp, nil
}
