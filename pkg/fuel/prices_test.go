package fuel

import "testing"

func TestPricePerLiter(t *testing.T) {
	tests := []struct {
		fuel     FuelType
		expected float64
	}{
		{FuelGasoline, 42.15},
		{FuelDiesel, 43.25},
		{FuelLPG, 24.85},
		{FuelType("hydrogen"), FallbackPricePerLiter},
	}
	for _, tt := range tests {
		if got := PricePerLiter(tt.fuel); got != tt.expected {
			t.Errorf("%s: expected %.2f, got %.2f", tt.fuel, tt.expected, got)
		}
	}
}

func TestEmissionFactor(t *testing.T) {
	tests := []struct {
		fuel     FuelType
		expected float64
	}{
		{FuelGasoline, 2.31},
		{FuelDiesel, 2.68},
		{FuelLPG, 1.51},
		{FuelType("hydrogen"), FallbackCO2PerLiter},
	}
	for _, tt := range tests {
		if got := EmissionFactor(tt.fuel); got != tt.expected {
			t.Errorf("%s: expected %.2f, got %.2f", tt.fuel, tt.expected, got)
		}
	}
}

func TestEmission(t *testing.T) {
	totalKg, perKmG := Emission(10, FuelDiesel, 100)
	if !almostEqual(totalKg, 26.8, eps) {
		t.Errorf("total: expected 26.8, got %.3f", totalKg)
	}
	if !almostEqual(perKmG, 268, eps) {
		t.Errorf("per km: expected 268, got %.3f", perKmG)
	}

	// Zero distance cannot produce a per-km figure.
	totalKg, perKmG = Emission(5, FuelGasoline, 0)
	if !almostEqual(totalKg, 5*2.31, eps) || perKmG != 0 {
		t.Errorf("zero distance: got total %.3f per-km %.3f", totalKg, perKmG)
	}
}

func TestFuelDisplayNames(t *testing.T) {
	tests := []struct {
		fuel     FuelType
		expected string
	}{
		{FuelGasoline, "Benzin"},
		{FuelDiesel, "Dizel"},
		{FuelLPG, "LPG"},
		{FuelType("ethanol"), "ethanol"},
	}
	for _, tt := range tests {
		if got := tt.fuel.DisplayName(); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.fuel, tt.expected, got)
		}
	}
}

func TestClassifyHour(t *testing.T) {
	peakHours := map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}
	for hour := 0; hour < 24; hour++ {
		want := Offpeak
		if peakHours[hour] {
			want = Peak
		}
		if got := ClassifyHour(hour); got != want {
			t.Errorf("hour %d: expected %s, got %s", hour, want, got)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"peak", Peak, false},
		{"PEAK", Peak, false},
		{"rush", Peak, false},
		{"", Peak, false},
		{"offpeak", Offpeak, false},
		{"off-peak", Offpeak, false},
		{"off_peak", Offpeak, false},
		{" Offpeak ", Offpeak, false},
		{"midnight", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}
