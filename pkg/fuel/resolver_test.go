package fuel

import (
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

func TestMatchZoneKeyword(t *testing.T) {
	tests := []struct {
		name    string
		hint    string
		wantKey string
		wantOK  bool
	}{
		{"exact keyword", "FSM", "FSM_Kopru", true},
		{"keyword inside hint", "taksim meydanında trafik", "Taksim_Sisli", true},
		{"hint inside keyword", "Göztep", "Avrasya_Tuneli", true},
		{"priority order wins", "Kadıköy", "Bagdat_Caddesi", true},
		{"turkish uppercase dotted i", "İKİTELLİ", "Basin_Ekspres", true},
		{"turkish uppercase s cedilla", "ŞİŞLİ", "Taksim_Sisli", true},
		{"mixed case ascii", "tem otoyolu", "O-1_O-2_Otoyol", true},
		{"no match", "Ankara Kızılay", "", false},
		{"empty hint", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, ok := MatchZoneKeyword(tt.hint)
			if ok != tt.wantOK {
				t.Fatalf("MatchZoneKeyword(%q) ok = %v, want %v", tt.hint, ok, tt.wantOK)
			}
			if ok && z.Key != tt.wantKey {
				t.Errorf("MatchZoneKeyword(%q) = %s, want %s", tt.hint, z.Key, tt.wantKey)
			}
		})
	}
}

func TestResolveZoneByNameNeverFails(t *testing.T) {
	z := ResolveZoneByName("completely unknown place xyz")
	if z == nil {
		t.Fatal("expected a zone")
	}
	if z.Key != DefaultZone().Key {
		t.Errorf("expected default zone, got %s", z.Key)
	}
}

func TestResolveZoneByPoint(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantKey string
	}{
		{"northern motorway west", 41.20, 28.60, "Kuzey_Marmara_Otoyolu"},
		{"northern motorway east", 41.20, 29.40, "Kuzey_Marmara_Otoyolu"},
		{"tem belt", 41.10, 28.90, "O-1_O-2_Otoyol"},
		{"d100 band", 41.00, 28.85, "D100_E5"},
		{"south coast europe", 40.95, 28.80, "Sahil_Yolu_Avrupa"},
		{"south coast asia", 40.95, 29.10, "Sahil_Yolu_Anadolu"},
		{"taksim pocket", 41.05, 28.98, "Taksim_Sisli"},
		{"basin ekspres corridor", 41.03, 28.85, "Basin_Ekspres"},
		{"far west suburbs", 41.04, 28.50, "Beylikduzu_Buyukcekmece"},
		{"uskudar axis", 41.03, 29.05, "Uskudar_Umraniye"},
		{"eastern suburbs", 41.03, 29.20, "Sancaktepe_Sultanbeyli"},
		{"far east", 41.03, 29.40, "Tuzla_Gebze"},
		{"unmatched european gap", 41.04, 28.95, "TEM_Baglanti"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := ResolveZoneByPoint(geo.Location{Latitude: tt.lat, Longitude: tt.lng})
			if z.Key != tt.wantKey {
				t.Errorf("point (%.2f, %.2f): expected %s, got %s", tt.lat, tt.lng, tt.wantKey, z.Key)
			}
		})
	}
}

func TestResolveZoneByLegCrossings(t *testing.T) {
	tests := []struct {
		name    string
		from    geo.Location
		to      geo.Location
		wantKey string
	}{
		{
			name:    "third bridge",
			from:    geo.Location{Latitude: 41.18, Longitude: 29.00},
			to:      geo.Location{Latitude: 41.19, Longitude: 29.08},
			wantKey: "YSS_Kopru",
		},
		{
			name:    "second bridge",
			from:    geo.Location{Latitude: 41.09, Longitude: 29.02},
			to:      geo.Location{Latitude: 41.10, Longitude: 29.09},
			wantKey: "FSM_Kopru",
		},
		{
			name:    "first bridge",
			from:    geo.Location{Latitude: 41.04, Longitude: 28.99},
			to:      geo.Location{Latitude: 41.045, Longitude: 29.06},
			wantKey: "15_Temmuz_Kopru",
		},
		{
			name:    "tunnel",
			from:    geo.Location{Latitude: 40.98, Longitude: 28.97},
			to:      geo.Location{Latitude: 40.985, Longitude: 29.03},
			wantKey: "Avrasya_Tuneli",
		},
		{
			// The latitude band between the first bridge and the tunnel
			// has no crossing structure and falls back to positional rules.
			name:    "crossing band gap falls through",
			from:    geo.Location{Latitude: 41.00, Longitude: 28.96},
			to:      geo.Location{Latitude: 41.00, Longitude: 29.04},
			wantKey: "D100_E5",
		},
		{
			name:    "no crossing uses midpoint",
			from:    geo.Location{Latitude: 41.10, Longitude: 28.88},
			to:      geo.Location{Latitude: 41.10, Longitude: 28.90},
			wantKey: "O-1_O-2_Otoyol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := ResolveZoneByLeg(tt.from, tt.to)
			if z.Key != tt.wantKey {
				t.Errorf("expected %s, got %s", tt.wantKey, z.Key)
			}
		})
	}
}
