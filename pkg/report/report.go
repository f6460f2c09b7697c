// Package report renders analyzed routes into Turkish text reports,
// charts and map links.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// Analysis bundles one analyzed route for one vehicle: the sampled
// profile, the consumption result and the capability rating.
type Analysis struct {
	Origin      string
	Destination string
	Vehicle     fuel.Vehicle
	Period      fuel.TimeOfDay

	// Points is the sampled route with elevations; Segments pairs them.
	Points   []fuel.SamplePoint
	Segments []fuel.RouteSegment

	Stats       fuel.RouteStats
	Consumption *fuel.Result
	Capability  fuel.Capability

	// DurationMinutes comes from the routing engine; zero means unknown.
	DurationMinutes float64
}

// CumulativeKm returns the running distance in km at every sample point.
func (a *Analysis) CumulativeKm() []float64 {
	out := make([]float64, len(a.Points))
	for i := 1; i < len(a.Points); i++ {
		prev, cur := a.Points[i-1].Location, a.Points[i].Location
		out[i] = out[i-1] + geo.HaversineDistance(
			prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)/1000
	}
	return out
}

// CriticalSection is a route section whose grade exceeds the critical
// reporting threshold.
type CriticalSection struct {
	DistanceKm   float64      `json:"distance_km"`
	GradePercent float64      `json:"grade_percent"`
	Location     geo.Location `json:"location"`
	ElevationM   float64      `json:"elevation_m"`
}

// CriticalSections lists the sections steeper than 20% in route order.
func (a *Analysis) CriticalSections() []CriticalSection {
	distances := a.CumulativeKm()
	var out []CriticalSection
	for i, seg := range a.Segments {
		if seg.DistanceKm <= 0 {
			continue
		}
		if abs(seg.GradePercent) <= fuel.CriticalGradePercent {
			continue
		}
		section := CriticalSection{
			GradePercent: seg.GradePercent,
			Location:     seg.To,
		}
		if i+1 < len(distances) {
			section.DistanceKm = distances[i+1]
		}
		if i+1 < len(a.Points) {
			section.ElevationM = a.Points[i+1].ElevationM
		}
		out = append(out, section)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

const reportRule = "================================================================================"

func periodLabel(p fuel.TimeOfDay) string {
	if p == fuel.Peak {
		return "YOĞUN SAAT"
	}
	return "SEYREK SAAT"
}

// Text renders the full Turkish analysis report.
func Text(a *Analysis) string {
	var b strings.Builder

	fmt.Fprintln(&b, reportRule)
	fmt.Fprintln(&b, "DETAYLI ROTA ANALİZ RAPORU")
	fmt.Fprintln(&b, reportRule)
	fmt.Fprintf(&b, "Tarih: %s\n", time.Now().Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "Trafik Durumu: %s\n", periodLabel(a.Period))
	if a.Origin != "" || a.Destination != "" {
		fmt.Fprintf(&b, "Rota: %s → %s\n", a.Origin, a.Destination)
	}

	fmt.Fprintln(&b, "\nROTA BİLGİLERİ:")
	fmt.Fprintf(&b, "Toplam Mesafe: %.2f km\n", a.Stats.TotalDistanceKm)
	if a.DurationMinutes > 0 {
		fmt.Fprintf(&b, "Tahmini Süre: %.0f dakika\n", a.DurationMinutes)
	}
	fmt.Fprintf(&b, "En Düşük Yükseklik: %.1f m\n", a.Stats.MinElevationM)
	fmt.Fprintf(&b, "En Yüksek Yükseklik: %.1f m\n", a.Stats.MaxElevationM)
	fmt.Fprintf(&b, "Yükseklik Farkı: %.1f m\n", a.Stats.MaxElevationM-a.Stats.MinElevationM)
	fmt.Fprintf(&b, "Toplam Tırmanış: %.1f m\n", a.Stats.TotalAscentM)
	fmt.Fprintf(&b, "Toplam İniş: %.1f m\n", a.Stats.TotalDescentM)
	fmt.Fprintf(&b, "Ortalama Eğim: %.2f%%\n", a.Stats.AvgGradePercent)

	if critical := a.CriticalSections(); len(critical) > 0 {
		fmt.Fprintln(&b, "\nKRİTİK EĞİM BÖLGELERİ (%20'nin Üzeri)")
		fmt.Fprintln(&b, reportRule)
		for i, section := range critical {
			kind := "TIRMANIŞ"
			if section.GradePercent < 0 {
				kind = "İNİŞ"
			}
			fmt.Fprintf(&b, "\n%d. Bölge - %s\n", i+1, kind)
			fmt.Fprintf(&b, "   Mesafe: %.3f km\n", section.DistanceKm)
			fmt.Fprintf(&b, "   Eğim: %.1f%%\n", abs(section.GradePercent))
			fmt.Fprintf(&b, "   Yükseklik: %.1f m\n", section.ElevationM)
			fmt.Fprintf(&b, "   Koordinat: %.6f°, %.6f°\n",
				section.Location.Latitude, section.Location.Longitude)
			fmt.Fprintf(&b, "   Google Maps: https://www.google.com/maps?q=%.6f,%.6f\n",
				section.Location.Latitude, section.Location.Longitude)
		}
	}

	res := a.Consumption
	if res == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "\n%s\n", reportRule)
	fmt.Fprintf(&b, "ARAÇ ÖZEL ANALİZ: %s\n", a.Vehicle.Name)
	fmt.Fprintln(&b, reportRule)

	fmt.Fprintln(&b, "\nAraç Özellikleri:")
	fmt.Fprintf(&b, "Motor Gücü: %d HP\n", a.Vehicle.PowerHP)
	fmt.Fprintf(&b, "Tork: %d Nm\n", a.Vehicle.TorqueNm)
	fmt.Fprintf(&b, "Ağırlık: %d kg\n", a.Vehicle.WeightKg)
	fmt.Fprintf(&b, "Motor Hacmi: %d cc\n", a.Vehicle.EngineCC)
	fmt.Fprintf(&b, "Yakıt Tipi: %s\n", a.Vehicle.Fuel.DisplayName())

	fmt.Fprintf(&b, "\nYakıt Tahmini (%s saatleri):\n", periodLabel(a.Period))
	fmt.Fprintf(&b, "Toplam Tüketim: %.3f Litre\n", res.TotalFuelLiters)
	fmt.Fprintf(&b, "100km Başına: %.2f L/100km\n", res.FuelPer100Km)
	fmt.Fprintf(&b, "Yakıt Maliyeti: %.2f TL\n", res.FuelCostTL)
	if res.TollCostTL > 0 {
		fmt.Fprintf(&b, "Geçiş Ücreti: %.2f TL\n", res.TollCostTL)
		fmt.Fprintf(&b, "Toplam Maliyet: %.2f TL\n", res.TotalCostTL)
	}
	fmt.Fprintf(&b, "CO2 Emisyonu: %.2f kg toplam | %.0f g/km\n",
		res.CO2Kg, res.CO2PerKmGrams)

	fmt.Fprintln(&b, "\nSegment Bazlı Analiz:")
	for _, zone := range res.Zones {
		if zone.DistanceKm <= 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s: %.2f km | Ort. Hız: %.0f km/h | Yakıt: %.3f L\n",
			zone.ZoneName, zone.DistanceKm, zone.AvgSpeedKmh, zone.FuelLiters)
		if zone.Toll {
			fmt.Fprintf(&b, "    Geçiş ücretli bölge: %.2f TL\n", zone.TollPriceTL)
		}
	}

	fmt.Fprintln(&b, "\nPerformans Analizi:")
	fmt.Fprintf(&b, "Güç/Ağırlık: %.3f HP/kg\n", a.Capability.PowerToWeight)
	fmt.Fprintf(&b, "Tork/Ağırlık: %.3f Nm/kg\n", a.Capability.TorqueToWeight)
	fmt.Fprintf(&b, "Rota Zorluğu: %s\n", a.Capability.Difficulty)

	if len(a.Capability.Warnings) > 0 {
		fmt.Fprintln(&b, "\nUyarılar:")
		for _, warning := range a.Capability.Warnings {
			fmt.Fprintf(&b, "  %s\n", warning)
		}
	} else {
		fmt.Fprintln(&b, "\nBu rota için araç performansı yeterli.")
	}

	return b.String()
}

// Summary renders the compact one-block summary used as tool output
// alongside structured data.
func Summary(a *Analysis) string {
	res := a.Consumption
	if res == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %dHP %dNm | %s\n",
		a.Vehicle.Name, a.Vehicle.PowerHP, a.Vehicle.TorqueNm, a.Vehicle.Fuel.DisplayName())
	fmt.Fprintf(&b, "%.3f L | %.2f L/100km | Yakıt: %.2f TL",
		res.TotalFuelLiters, res.FuelPer100Km, res.FuelCostTL)
	if res.TollCostTL > 0 {
		fmt.Fprintf(&b, "\nGeçiş Ücreti: %.2f TL | Toplam Maliyet: %.2f TL",
			res.TollCostTL, res.TotalCostTL)
	}
	if len(a.Capability.Warnings) > 0 {
		limit := len(a.Capability.Warnings)
		if limit > 2 {
			limit = 2
		}
		fmt.Fprintf(&b, "\n%s", strings.Join(a.Capability.Warnings[:limit], " | "))
	} else {
		fmt.Fprint(&b, "\nAraç bu rota için uygun")
	}
	return b.String()
}
