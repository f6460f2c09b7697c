package fuel

import (
	"fmt"
	"math"
)

// Difficulty is a route difficulty rating for a vehicle, ordered easiest
// to hardest. Values are the Turkish report labels.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "KOLAY"
	DifficultyModerate Difficulty = "ORTA"
	DifficultyHard     Difficulty = "ZOR"
	DifficultyVeryHard Difficulty = "ÇOK ZOR"
)

// Rank orders difficulties for comparison, easiest first.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyModerate:
		return 1
	case DifficultyHard:
		return 2
	case DifficultyVeryHard:
		return 3
	default:
		return 1
	}
}

// Capability is the assessment of one vehicle against one route profile.
type Capability struct {
	VehicleID       string     `json:"vehicle_id"`
	PowerToWeight   float64    `json:"power_to_weight"`
	TorqueToWeight  float64    `json:"torque_to_weight"`
	MaxGradePercent float64    `json:"max_gradient_percent"`
	Difficulty      Difficulty `json:"difficulty"`
	Warnings        []string   `json:"warnings,omitempty"`
}

// AssessCapability rates how hard a route profile is for a vehicle.
// Underpowered vehicles on steep grades rate harder and collect
// warnings; low torque and large total ascent bump the rating further.
func AssessCapability(v Vehicle, stats RouteStats) Capability {
	out := Capability{
		VehicleID:       v.ID,
		PowerToWeight:   v.PowerToWeight(),
		TorqueToWeight:  v.TorqueToWeight(),
		MaxGradePercent: stats.MaxGradePercent,
		Difficulty:      DifficultyEasy,
	}

	maxGrade := stats.MaxGradePercent
	switch {
	case maxGrade > 15:
		switch {
		case out.PowerToWeight < 0.07:
			out.Difficulty = DifficultyVeryHard
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("Maksimum %%%.1f eğim için motor gücü yetersiz olabilir", maxGrade))
		case out.PowerToWeight < 0.09:
			out.Difficulty = DifficultyHard
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("Dik yokuşlarda (%%%.1f) zorlanabilir", maxGrade))
		default:
			out.Difficulty = DifficultyModerate
		}
	case maxGrade > 10 && out.PowerToWeight < 0.08:
		out.Difficulty = DifficultyModerate
	}

	if out.TorqueToWeight < 0.15 && maxGrade > 10 {
		out.Warnings = append(out.Warnings,
			"Düşük tork nedeniyle yokuşta çekiş sorunu yaşanabilir")
		if out.Difficulty == DifficultyEasy {
			out.Difficulty = DifficultyModerate
		}
	}

	if stats.TotalAscentM > 500 && out.PowerToWeight < 0.08 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("Toplam %.0fm tırmanış yorucu olabilir", stats.TotalAscentM))
		if out.Difficulty == DifficultyEasy || out.Difficulty == DifficultyModerate {
			out.Difficulty = DifficultyHard
		}
	}
	return out
}

// ClimbingLimits are the grade bands a vehicle handles, in percent.
// Grades up to Comfortable cost no routing penalty, up to Manageable a
// moderate one, up to Maximum a steep one; beyond Maximum the edge is
// treated as impassable for the vehicle.
type ClimbingLimits struct {
	ComfortablePercent float64 `json:"comfortable_percent"`
	ManageablePercent  float64 `json:"manageable_percent"`
	MaximumPercent     float64 `json:"maximum_percent"`
}

// ClimbingLimits tiers the vehicle's grade capability by horsepower per
// ton. Diesel torque earns a small allowance on every band.
func (v Vehicle) ClimbingLimits() ClimbingLimits {
	var limits ClimbingLimits
	switch hpPerTon := v.HorsepowerPerTon(); {
	case hpPerTon < 70:
		limits = ClimbingLimits{8.0, 12.0, 15.0}
	case hpPerTon < 100:
		limits = ClimbingLimits{10.0, 15.0, 18.0}
	default:
		limits = ClimbingLimits{12.0, 18.0, 22.0}
	}
	if v.Fuel == FuelDiesel {
		limits.ComfortablePercent += 1.0
		limits.ManageablePercent += 1.5
		limits.MaximumPercent += 2.0
	}
	return limits
}

// SlopeFuelMultiplier returns the consumption multiplier the capability
// router applies per slope band.
func SlopeFuelMultiplier(slopePercent float64) float64 {
	abs := math.Abs(slopePercent)
	switch {
	case slopePercent < -2:
		return 0.7
	case abs < 2:
		return 1.0
	case abs < 5:
		return 1.15
	case abs < 10:
		return 1.35
	case abs < 15:
		return 1.65
	default:
		return 2.2
	}
}
