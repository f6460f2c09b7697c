// Package fuel implements the Istanbul route fuel consumption model.
package fuel

import (
	"fmt"
	"strings"
)

// FuelType identifies the fuel a vehicle burns.
type FuelType string

const (
	FuelGasoline FuelType = "gasoline"
	FuelDiesel   FuelType = "diesel"
	FuelLPG      FuelType = "lpg"
)

// Pump prices in TL per liter.
const (
	GasolinePricePerLiter = 42.15
	DieselPricePerLiter   = 43.25
	LPGPricePerLiter      = 24.85

	// FallbackPricePerLiter is charged when the fuel type is unknown.
	FallbackPricePerLiter = 42.00
)

// CO2 emission factors in kg per liter burned.
const (
	GasolineCO2PerLiter = 2.31
	DieselCO2PerLiter   = 2.68
	LPGCO2PerLiter      = 1.51

	// FallbackCO2PerLiter is used when the fuel type is unknown.
	FallbackCO2PerLiter = 2.50
)

// DisplayName returns the Turkish pump label for the fuel type.
func (f FuelType) DisplayName() string {
	switch f {
	case FuelGasoline:
		return "Benzin"
	case FuelDiesel:
		return "Dizel"
	case FuelLPG:
		return "LPG"
	default:
		return string(f)
	}
}

// PricePerLiter returns the pump price in TL per liter for the fuel type.
func PricePerLiter(f FuelType) float64 {
	switch f {
	case FuelGasoline:
		return GasolinePricePerLiter
	case FuelDiesel:
		return DieselPricePerLiter
	case FuelLPG:
		return LPGPricePerLiter
	default:
		return FallbackPricePerLiter
	}
}

// EmissionFactor returns kg of CO2 emitted per liter of the fuel type.
func EmissionFactor(f FuelType) float64 {
	switch f {
	case FuelGasoline:
		return GasolineCO2PerLiter
	case FuelDiesel:
		return DieselCO2PerLiter
	case FuelLPG:
		return LPGCO2PerLiter
	default:
		return FallbackCO2PerLiter
	}
}

// Emission computes total CO2 in kg and grams per km for a burned fuel
// volume over a distance.
func Emission(fuelLiters float64, f FuelType, distanceKm float64) (totalKg, perKmGrams float64) {
	totalKg = fuelLiters * EmissionFactor(f)
	if distanceKm > 0 {
		perKmGrams = totalKg / distanceKm * 1000
	}
	return totalKg, perKmGrams
}

// TimeOfDay selects which traffic profile of a zone applies.
type TimeOfDay string

const (
	Peak    TimeOfDay = "peak"
	Offpeak TimeOfDay = "offpeak"
)

// Peak traffic windows as local clock hours, start inclusive, end exclusive.
var peakWindows = [...][2]int{{7, 10}, {17, 20}}

// IsPeakHour reports whether the given local hour falls in a peak window.
func IsPeakHour(hour int) bool {
	for _, w := range peakWindows {
		if hour >= w[0] && hour < w[1] {
			return true
		}
	}
	return false
}

// ClassifyHour maps a local clock hour to a TimeOfDay.
func ClassifyHour(hour int) TimeOfDay {
	if IsPeakHour(hour) {
		return Peak
	}
	return Offpeak
}

// ParseTimeOfDay parses a user-supplied time-of-day flag. The empty
// string defaults to peak, matching the most conservative estimate.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peak", "rush":
		return Peak, nil
	case "offpeak", "off-peak", "off_peak":
		return Offpeak, nil
	default:
		return "", fmt.Errorf("invalid time of day %q: use 'peak' or 'offpeak'", s)
	}
}
