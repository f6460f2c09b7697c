package fuel

import "fmt"

// RoadType classifies a traffic zone by its dominant road character.
// Values are the Turkish display strings carried through to reports.
type RoadType string

const (
	RoadMotorway   RoadType = "Otoyol"
	RoadArterial   RoadType = "Ana Arter"
	RoadTunnel     RoadType = "Tünel"
	RoadBridge     RoadType = "Köprü"
	RoadAvenue     RoadType = "Cadde"
	RoadBoulevard  RoadType = "Bulvar"
	RoadCoastal    RoadType = "Sahil Yolu"
	RoadConnector  RoadType = "Bağlantı Yolu"
	RoadExpressway RoadType = "Ekspres Yol"
	RoadSuburban   RoadType = "Banliyö"
	RoadUrban      RoadType = "Şehir İçi"
)

// TollSpanKm is the distance assumed for zones that toll per kilometer.
// The one per-km zone in the table (Kuzey Marmara) has no entry/exit
// gantry data, so a typical traversal span is charged.
const TollSpanKm = 20.0

// TrafficZone is one named stretch of the Istanbul road network with its
// traffic profile. Peak figures apply during rush windows, offpeak
// otherwise; the peak multiplier is strictly greater than the offpeak one
// for every zone.
type TrafficZone struct {
	Key               string   `json:"key"`
	Name              string   `json:"name"`
	PeakSpeedKmh      float64  `json:"peak_speed_kmh"`
	OffpeakSpeedKmh   float64  `json:"offpeak_speed_kmh"`
	PeakMultiplier    float64  `json:"peak_multiplier"`
	OffpeakMultiplier float64  `json:"offpeak_multiplier"`
	Toll              bool     `json:"toll"`
	TollPrice         float64  `json:"toll_price,omitempty"`
	TollPerKm         bool     `json:"toll_per_km,omitempty"`
	RoadType          RoadType `json:"road_type"`
	Keywords          []string `json:"keywords"`
}

// Speed returns the zone's average speed in km/h for the time of day.
func (z *TrafficZone) Speed(period TimeOfDay) float64 {
	if period == Peak {
		return z.PeakSpeedKmh
	}
	return z.OffpeakSpeedKmh
}

// Multiplier returns the zone's traffic multiplier for the time of day.
func (z *TrafficZone) Multiplier(period TimeOfDay) float64 {
	if period == Peak {
		return z.PeakMultiplier
	}
	return z.OffpeakMultiplier
}

// TollCost returns what a single traversal of the zone costs in TL.
// Per-km zones charge their rate over TollSpanKm.
func (z *TrafficZone) TollCost() float64 {
	if !z.Toll {
		return 0
	}
	if z.TollPerKm {
		return z.TollPrice * TollSpanKm
	}
	return z.TollPrice
}

// defaultZoneKey is the connector-road profile used when nothing matches.
const defaultZoneKey = "TEM_Baglanti"

// zones holds the zone table. Declaration order is match priority: the
// resolver returns the first zone whose keywords match.
var zones = []*TrafficZone{
	{
		Key: "O-1_O-2_Otoyol", Name: "O-1 / O-2 Otoyolu (TEM)",
		PeakSpeedKmh: 50, OffpeakSpeedKmh: 95, PeakMultiplier: 1.2, OffpeakMultiplier: 1.1,
		RoadType: RoadMotorway,
		Keywords: []string{"TEM", "O-1", "O-2", "Trans Avrupa", "Mahmutbey", "Habipler"},
	},
	{
		Key: "D100_E5", Name: "D-100 / E-5 Karayolu",
		PeakSpeedKmh: 25, OffpeakSpeedKmh: 60, PeakMultiplier: 1.8, OffpeakMultiplier: 1.4,
		RoadType: RoadArterial,
		Keywords: []string{"E5", "D100", "Londra Asfaltı", "Bakırköy", "Avcılar", "Beylikdüzü"},
	},
	{
		Key: "Avrasya_Tuneli", Name: "Avrasya Tüneli",
		PeakSpeedKmh: 60, OffpeakSpeedKmh: 70, PeakMultiplier: 1.1, OffpeakMultiplier: 1.05,
		Toll: true, TollPrice: 145.00,
		RoadType: RoadTunnel,
		Keywords: []string{"Avrasya", "Tünel", "Kazlıçeşme", "Göztepe"},
	},
	{
		Key: "15_Temmuz_Kopru", Name: "15 Temmuz Şehitler Köprüsü",
		PeakSpeedKmh: 35, OffpeakSpeedKmh: 70, PeakMultiplier: 1.5, OffpeakMultiplier: 1.25,
		Toll: true, TollPrice: 52.00,
		RoadType: RoadBridge,
		Keywords: []string{"15 Temmuz", "Boğaziçi", "Birinci Köprü", "Ortaköy", "Beylerbeyi"},
	},
	{
		Key: "FSM_Kopru", Name: "Fatih Sultan Mehmet Köprüsü",
		PeakSpeedKmh: 40, OffpeakSpeedKmh: 75, PeakMultiplier: 1.4, OffpeakMultiplier: 1.2,
		Toll: true, TollPrice: 52.00,
		RoadType: RoadBridge,
		Keywords: []string{"FSM", "Fatih Sultan", "İkinci Köprü", "Kavacık", "Hisarüstü"},
	},
	{
		Key: "YSS_Kopru", Name: "Yavuz Sultan Selim Köprüsü",
		PeakSpeedKmh: 70, OffpeakSpeedKmh: 100, PeakMultiplier: 1.1, OffpeakMultiplier: 1.05,
		Toll: true, TollPrice: 94.00,
		RoadType: RoadBridge,
		Keywords: []string{"YSS", "Yavuz Sultan", "Üçüncü Köprü", "Kuzey Marmara"},
	},
	{
		Key: "Kuzey_Marmara_Otoyolu", Name: "Kuzey Marmara Otoyolu",
		PeakSpeedKmh: 80, OffpeakSpeedKmh: 110, PeakMultiplier: 1.05, OffpeakMultiplier: 1.0,
		Toll: true, TollPrice: 0.48, TollPerKm: true,
		RoadType: RoadMotorway,
		Keywords: []string{"Kuzey Marmara", "O-7", "Odayeri", "Başakşehir", "Kurtköy"},
	},
	{
		Key: "Bagdat_Caddesi", Name: "Bağdat Caddesi",
		PeakSpeedKmh: 20, OffpeakSpeedKmh: 45, PeakMultiplier: 2.0, OffpeakMultiplier: 1.5,
		RoadType: RoadAvenue,
		Keywords: []string{"Bağdat", "Kadıköy", "Bostancı", "Suadiye", "Caddebostan"},
	},
	{
		Key: "Barbaros_Bulvari", Name: "Barbaros Bulvarı",
		PeakSpeedKmh: 25, OffpeakSpeedKmh: 50, PeakMultiplier: 1.7, OffpeakMultiplier: 1.35,
		RoadType: RoadBoulevard,
		Keywords: []string{"Barbaros", "Beşiktaş", "Zincirlikuyu", "Levent", "4.Levent"},
	},
	{
		Key: "Sahil_Yolu_Avrupa", Name: "Avrupa Yakası Sahil Yolu",
		PeakSpeedKmh: 30, OffpeakSpeedKmh: 55, PeakMultiplier: 1.6, OffpeakMultiplier: 1.3,
		RoadType: RoadCoastal,
		Keywords: []string{"Sahil", "Florya", "Yeşilköy", "Bakırköy", "Ataköy"},
	},
	{
		Key: "Sahil_Yolu_Anadolu", Name: "Anadolu Yakası Sahil Yolu",
		PeakSpeedKmh: 35, OffpeakSpeedKmh: 60, PeakMultiplier: 1.5, OffpeakMultiplier: 1.25,
		RoadType: RoadCoastal,
		Keywords: []string{"Sahil", "Kadıköy", "Maltepe", "Kartal", "Pendik", "Tuzla"},
	},
	{
		Key: "TEM_Baglanti", Name: "TEM Bağlantı Yolları",
		PeakSpeedKmh: 35, OffpeakSpeedKmh: 65, PeakMultiplier: 1.5, OffpeakMultiplier: 1.25,
		RoadType: RoadConnector,
		Keywords: []string{"TEM Bağlantı", "Kavacık", "Ümraniye", "Samandıra", "Kayışdağı"},
	},
	{
		Key: "Basin_Ekspres", Name: "Basın Ekspres Yolu",
		PeakSpeedKmh: 40, OffpeakSpeedKmh: 70, PeakMultiplier: 1.4, OffpeakMultiplier: 1.2,
		RoadType: RoadExpressway,
		Keywords: []string{"Basın Ekspres", "İkitelli", "Güneşli", "Yenibosna"},
	},
	{
		Key: "Beylikduzu_Buyukcekmece", Name: "Beylikdüzü-Büyükçekmece Bölgesi",
		PeakSpeedKmh: 40, OffpeakSpeedKmh: 65, PeakMultiplier: 1.3, OffpeakMultiplier: 1.15,
		RoadType: RoadSuburban,
		Keywords: []string{"Beylikdüzü", "Büyükçekmece", "Esenyurt", "Avcılar"},
	},
	{
		Key: "Tuzla_Gebze", Name: "Tuzla-Gebze Bölgesi",
		PeakSpeedKmh: 45, OffpeakSpeedKmh: 70, PeakMultiplier: 1.3, OffpeakMultiplier: 1.15,
		RoadType: RoadSuburban,
		Keywords: []string{"Tuzla", "Gebze", "Çayırova", "Darıca", "Şekerpınar"},
	},
	{
		Key: "Sancaktepe_Sultanbeyli", Name: "Sancaktepe-Sultanbeyli Bölgesi",
		PeakSpeedKmh: 35, OffpeakSpeedKmh: 55, PeakMultiplier: 1.4, OffpeakMultiplier: 1.2,
		RoadType: RoadSuburban,
		Keywords: []string{"Sancaktepe", "Sultanbeyli", "Samandıra", "Sarıgazi"},
	},
	{
		Key: "Taksim_Sisli", Name: "Taksim-Şişli Merkez",
		PeakSpeedKmh: 15, OffpeakSpeedKmh: 35, PeakMultiplier: 2.2, OffpeakMultiplier: 1.6,
		RoadType: RoadUrban,
		Keywords: []string{"Taksim", "Şişli", "Mecidiyeköy", "Nişantaşı", "Osmanbey"},
	},
	{
		Key: "Kadikoy_Merkez", Name: "Kadıköy Merkez",
		PeakSpeedKmh: 18, OffpeakSpeedKmh: 40, PeakMultiplier: 2.1, OffpeakMultiplier: 1.55,
		RoadType: RoadUrban,
		Keywords: []string{"Kadıköy", "Moda", "Bahariye", "Altıyol", "Söğütlüçeşme"},
	},
	{
		Key: "Uskudar_Umraniye", Name: "Üsküdar-Ümraniye Aksı",
		PeakSpeedKmh: 22, OffpeakSpeedKmh: 45, PeakMultiplier: 1.9, OffpeakMultiplier: 1.45,
		RoadType: RoadUrban,
		Keywords: []string{"Üsküdar", "Ümraniye", "Altunizade", "Çamlıca", "Acıbadem"},
	},
}

var zoneIndex = func() map[string]*TrafficZone {
	idx := make(map[string]*TrafficZone, len(zones))
	for _, z := range zones {
		idx[z.Key] = z
	}
	return idx
}()

// Zones returns the zone table in priority order.
func Zones() []*TrafficZone {
	out := make([]*TrafficZone, len(zones))
	copy(out, zones)
	return out
}

// ZoneByKey finds a zone by its identifier key.
func ZoneByKey(key string) (*TrafficZone, error) {
	if z, ok := zoneIndex[key]; ok {
		return z, nil
	}
	return nil, fmt.Errorf("unknown traffic zone %q", key)
}

// DefaultZone returns the zone charged when no keyword or coordinate
// matches. Zone resolution never fails.
func DefaultZone() *TrafficZone {
	return zoneIndex[defaultZoneKey]
}
