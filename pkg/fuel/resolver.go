package fuel

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// bosphorusCrossingDelta is the longitude jump between two consecutive
// route samples that marks a strait crossing.
const bosphorusCrossingDelta = 0.05

// lowerTurkish folds a string with Turkish casing rules so the dotted
// and dotless i forms match (İkitelli and ikitelli, ISPARTA and ısparta).
// Casers are stateful, so a fresh one is built per call.
func lowerTurkish(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

// MatchZoneKeyword returns the first zone in priority order with a
// keyword matching the hint. Matching is case-insensitive with Turkish
// folding and accepts a substring relation in either direction, so both
// "kadıköy rıhtım" and "kadı" find the Kadıköy keywords.
func MatchZoneKeyword(hint string) (*TrafficZone, bool) {
	needle := lowerTurkish(strings.TrimSpace(hint))
	if needle == "" {
		return nil, false
	}
	for _, z := range zones {
		for _, kw := range z.Keywords {
			k := lowerTurkish(kw)
			if strings.Contains(needle, k) || strings.Contains(k, needle) {
				return z, true
			}
		}
	}
	return nil, false
}

// ResolveZoneByName resolves a free-text location hint to a zone,
// falling back to the default zone. Resolution never fails.
func ResolveZoneByName(hint string) *TrafficZone {
	if z, ok := MatchZoneKeyword(hint); ok {
		return z
	}
	return DefaultZone()
}

// ResolveZoneByLeg classifies the leg between two consecutive route
// samples using the leg midpoint. A longitude jump above
// bosphorusCrossingDelta marks a strait crossing and picks the likely
// crossing structure by latitude; the narrow band between the first
// bridge and the tunnel falls through to the positional rules.
func ResolveZoneByLeg(from, to geo.Location) *TrafficZone {
	lat := (from.Latitude + to.Latitude) / 2
	lng := (from.Longitude + to.Longitude) / 2

	if math.Abs(from.Longitude-to.Longitude) > bosphorusCrossingDelta {
		switch {
		case lat > 41.15:
			return zoneIndex["YSS_Kopru"]
		case lat > 41.08:
			return zoneIndex["FSM_Kopru"]
		case lat > 41.03:
			return zoneIndex["15_Temmuz_Kopru"]
		case lat < 40.99:
			return zoneIndex["Avrasya_Tuneli"]
		}
	}
	return classifyPoint(lat, lng)
}

// ResolveZoneByPoint classifies a single coordinate into a zone.
func ResolveZoneByPoint(loc geo.Location) *TrafficZone {
	return classifyPoint(loc.Latitude, loc.Longitude)
}

// classifyPoint maps a position to a zone with coarse Istanbul bands:
// the Bosphorus splits the sides near longitude 29.0, the motorway belts
// run in latitude bands, the coast roads sit below latitude 40.97.
// Rules apply top to bottom, first match wins.
func classifyPoint(lat, lng float64) *TrafficZone {
	switch {
	case lat > 41.15 && (lng < 28.7 || lng > 29.3):
		return zoneIndex["Kuzey_Marmara_Otoyolu"]
	case lat > 41.05 && lat < 41.15:
		return zoneIndex["O-1_O-2_Otoyol"]
	case lat > 40.97 && lat < 41.02:
		return zoneIndex["D100_E5"]
	case lat < 40.97:
		if lng < 29.0 {
			return zoneIndex["Sahil_Yolu_Avrupa"]
		}
		return zoneIndex["Sahil_Yolu_Anadolu"]
	}

	if lng < 29.0 {
		// European side districts.
		switch {
		case lng < 28.7:
			return zoneIndex["Beylikduzu_Buyukcekmece"]
		case lng > 28.96 && lat > 41.03 && lat < 41.07:
			return zoneIndex["Taksim_Sisli"]
		case lng > 28.8 && lng < 28.9:
			return zoneIndex["Basin_Ekspres"]
		}
		return DefaultZone()
	}

	// Asian side districts.
	switch {
	case lng > 29.0 && lng < 29.05 && lat > 40.98 && lat < 41.02:
		return zoneIndex["Kadikoy_Merkez"]
	case lng > 29.02 && lng < 29.15 && lat < 40.98:
		return zoneIndex["Bagdat_Caddesi"]
	case lng > 29.0 && lng < 29.1 && lat > 41.0 && lat < 41.05:
		return zoneIndex["Uskudar_Umraniye"]
	case lng > 29.3:
		return zoneIndex["Tuzla_Gebze"]
	case lng > 29.15 && lat > 40.95:
		return zoneIndex["Sancaktepe_Sultanbeyli"]
	}
	return DefaultZone()
}
