package fuel

import "testing"

func TestZoneTable(t *testing.T) {
	all := Zones()
	if len(all) != 19 {
		t.Fatalf("expected 19 zones, got %d", len(all))
	}

	seen := make(map[string]bool)
	for _, z := range all {
		if z.Key == "" || z.Name == "" {
			t.Errorf("zone with empty key or name: %+v", z)
		}
		if seen[z.Key] {
			t.Errorf("duplicate zone key %q", z.Key)
		}
		seen[z.Key] = true

		if len(z.Keywords) == 0 {
			t.Errorf("zone %s has no keywords", z.Key)
		}
		if z.PeakSpeedKmh <= 0 || z.OffpeakSpeedKmh <= 0 {
			t.Errorf("zone %s has non-positive speeds", z.Key)
		}
		if z.PeakSpeedKmh >= z.OffpeakSpeedKmh {
			t.Errorf("zone %s: peak speed %.0f should be below offpeak %.0f",
				z.Key, z.PeakSpeedKmh, z.OffpeakSpeedKmh)
		}
		if z.PeakMultiplier <= z.OffpeakMultiplier {
			t.Errorf("zone %s: peak multiplier %.2f should exceed offpeak %.2f",
				z.Key, z.PeakMultiplier, z.OffpeakMultiplier)
		}
		if z.Toll && z.TollPrice <= 0 {
			t.Errorf("toll zone %s has no price", z.Key)
		}
		if !z.Toll && z.TollPrice != 0 {
			t.Errorf("free zone %s carries a toll price", z.Key)
		}
	}
}

func TestZoneByKey(t *testing.T) {
	z, err := ZoneByKey("D100_E5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.Name != "D-100 / E-5 Karayolu" {
		t.Errorf("unexpected zone name %q", z.Name)
	}

	if _, err := ZoneByKey("nonexistent"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestDefaultZone(t *testing.T) {
	z := DefaultZone()
	if z == nil {
		t.Fatal("default zone missing")
	}
	if z.Key != "TEM_Baglanti" {
		t.Errorf("expected default TEM_Baglanti, got %s", z.Key)
	}
}

func TestZoneSpeedAndMultiplier(t *testing.T) {
	z, _ := ZoneByKey("Taksim_Sisli")
	if got := z.Speed(Peak); got != 15 {
		t.Errorf("peak speed: expected 15, got %.0f", got)
	}
	if got := z.Speed(Offpeak); got != 35 {
		t.Errorf("offpeak speed: expected 35, got %.0f", got)
	}
	if got := z.Multiplier(Peak); got != 2.2 {
		t.Errorf("peak multiplier: expected 2.2, got %.2f", got)
	}
	if got := z.Multiplier(Offpeak); got != 1.6 {
		t.Errorf("offpeak multiplier: expected 1.6, got %.2f", got)
	}
}

func TestTollCost(t *testing.T) {
	tests := []struct {
		key      string
		expected float64
	}{
		{"Avrasya_Tuneli", 145.00},
		{"15_Temmuz_Kopru", 52.00},
		{"YSS_Kopru", 94.00},
		{"Kuzey_Marmara_Otoyolu", 0.48 * TollSpanKm},
		{"D100_E5", 0},
		{"Taksim_Sisli", 0},
	}
	for _, tt := range tests {
		z, err := ZoneByKey(tt.key)
		if err != nil {
			t.Fatalf("zone %s: %v", tt.key, err)
		}
		if got := z.TollCost(); got != tt.expected {
			t.Errorf("zone %s: expected toll %.2f, got %.2f", tt.key, tt.expected, got)
		}
	}
}
