package fuel

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoSegments is returned when a consumption run receives an empty
// segment list.
var ErrNoSegments = errors.New("no route segments to analyze")

// Grade response of the consumption model.
const (
	// uphillIncreasePerPercent is the consumption increase per percent
	// of positive grade before the power-to-weight scaling.
	uphillIncreasePerPercent = 0.025

	// maxGradeFactor caps the uphill multiplier.
	maxGradeFactor = 2.5

	// downhillSavingPerPercent is the consumption saving per percent of
	// negative grade, capped at maxDownhillSaving.
	downhillSavingPerPercent = 0.01
	maxDownhillSaving        = 0.3

	// flatGradeBand is the absolute grade treated as flat.
	flatGradeBand = 1.0
)

// Power-to-weight bands (hp/kg) where underpowered vehicles burn
// disproportionately more on climbs.
const (
	lowPowerToWeight = 0.07
	midPowerToWeight = 0.09
)

// BaseConsumption returns the vehicle's consumption rate in L/100km for
// a zone at a time of day, before any grade correction. The rate blends
// the city and highway figures by the zone's average speed, then applies
// the zone's traffic multiplier and a stop-and-go surcharge for
// city-center streets in rush hour and crawling avenues.
func BaseConsumption(v Vehicle, zone *TrafficZone, period TimeOfDay) float64 {
	speed := zone.Speed(period)
	city, highway := v.CityConsumption, v.HighwayConsumption

	var base float64
	switch {
	case speed <= 20:
		base = city * 1.4
	case speed <= 30:
		base = city * 1.2
	case speed <= 50:
		base = city
	case speed <= 80:
		base = city + (highway-city)*(speed-50)/30
	case speed <= 100:
		base = highway
	default:
		base = highway * 1.15
	}

	base *= zone.Multiplier(period)

	if zone.RoadType == RoadUrban && period == Peak {
		base *= 1.2
	} else if zone.RoadType == RoadAvenue && speed < 30 {
		base *= 1.15
	}
	return base
}

// GradeFactor returns the multiplier the grade applies to the base
// consumption rate. Grades inside the flat band cost nothing. Uphill
// grades raise consumption linearly, steeper for underpowered vehicles,
// capped at maxGradeFactor. Downhill grades save fuel up to
// maxDownhillSaving.
func GradeFactor(gradePercent float64, v Vehicle) float64 {
	if math.Abs(gradePercent) < flatGradeBand {
		return 1.0
	}
	if gradePercent > 0 {
		perPercent := uphillIncreasePerPercent
		switch pw := v.PowerToWeight(); {
		case pw < lowPowerToWeight:
			perPercent *= 1.3
		case pw < midPowerToWeight:
			perPercent *= 1.15
		}
		return math.Min(1+gradePercent*perPercent, maxGradeFactor)
	}
	return 1 - math.Min(math.Abs(gradePercent)*downhillSavingPerPercent, maxDownhillSaving)
}

// SegmentConsumption records how one segment contributed to the total.
type SegmentConsumption struct {
	Segment     RouteSegment `json:"segment"`
	RateL100    float64      `json:"rate_l_100km"`
	GradeFactor float64      `json:"grade_factor"`
	FuelLiters  float64      `json:"fuel_liters"`
}

// ZoneUsage aggregates the route's time inside one traffic zone.
type ZoneUsage struct {
	ZoneKey     string   `json:"zone_key"`
	ZoneName    string   `json:"zone_name"`
	RoadType    RoadType `json:"road_type"`
	AvgSpeedKmh float64  `json:"avg_speed_kmh"`
	DistanceKm  float64  `json:"distance_km"`
	FuelLiters  float64  `json:"fuel_liters"`
	Segments    int      `json:"segments"`
	Toll        bool     `json:"toll"`
	TollPriceTL float64  `json:"toll_price_tl,omitempty"`
}

// Result is a full consumption analysis for one vehicle over one route.
type Result struct {
	VehicleID       string    `json:"vehicle_id"`
	VehicleName     string    `json:"vehicle_name"`
	FuelType        FuelType  `json:"fuel_type"`
	Period          TimeOfDay `json:"time_of_day"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalFuelLiters float64   `json:"total_fuel_liters"`
	FuelPer100Km    float64   `json:"fuel_per_100km"`
	PricePerLiterTL float64   `json:"fuel_price_per_liter_tl"`
	FuelCostTL      float64   `json:"fuel_cost_tl"`
	TollCostTL      float64   `json:"toll_cost_tl"`
	TotalCostTL     float64   `json:"total_cost_tl"`
	CO2Kg           float64   `json:"total_co2_kg"`
	CO2PerKmGrams   float64   `json:"co2_per_km_g"`

	// Zones lists usage per traffic zone in first-use order; TollZones
	// holds the keys of toll zones traversed, each charged once.
	Zones     []ZoneUsage `json:"zones"`
	TollZones []string    `json:"toll_zones,omitempty"`

	// PerSegment carries the per-leg breakdown for charting. It is
	// omitted from serialized output to keep payloads bounded.
	PerSegment []SegmentConsumption `json:"-"`
}

// Calculate runs the consumption model for one vehicle over built route
// segments. Toll zones charge their price once per distinct zone no
// matter how many segments fall inside them.
func Calculate(v Vehicle, segments []RouteSegment, period TimeOfDay) (*Result, error) {
	if v.ID == "" {
		return nil, fmt.Errorf("vehicle is required")
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	res := &Result{
		VehicleID:       v.ID,
		VehicleName:     v.Name,
		FuelType:        v.Fuel,
		Period:          period,
		PricePerLiterTL: PricePerLiter(v.Fuel),
		PerSegment:      make([]SegmentConsumption, 0, len(segments)),
	}

	usageIdx := make(map[string]int)
	for _, seg := range segments {
		zone := seg.Zone()
		rate := BaseConsumption(v, zone, period)
		gf := GradeFactor(seg.GradePercent, v)
		liters := seg.DistanceKm * rate * gf / 100

		res.TotalDistanceKm += seg.DistanceKm
		res.TotalFuelLiters += liters
		res.PerSegment = append(res.PerSegment, SegmentConsumption{
			Segment:     seg,
			RateL100:    rate,
			GradeFactor: gf,
			FuelLiters:  liters,
		})

		i, ok := usageIdx[zone.Key]
		if !ok {
			i = len(res.Zones)
			usageIdx[zone.Key] = i
			res.Zones = append(res.Zones, ZoneUsage{
				ZoneKey:     zone.Key,
				ZoneName:    zone.Name,
				RoadType:    zone.RoadType,
				AvgSpeedKmh: zone.Speed(period),
				Toll:        zone.Toll,
				TollPriceTL: zone.TollCost(),
			})
			if zone.Toll {
				res.TollZones = append(res.TollZones, zone.Key)
			}
		}
		res.Zones[i].DistanceKm += seg.DistanceKm
		res.Zones[i].FuelLiters += liters
		res.Zones[i].Segments++
	}

	for _, key := range res.TollZones {
		res.TollCostTL += zoneIndex[key].TollCost()
	}

	res.FuelCostTL = res.TotalFuelLiters * res.PricePerLiterTL
	res.TotalCostTL = res.FuelCostTL + res.TollCostTL
	if res.TotalDistanceKm > 0 {
		res.FuelPer100Km = res.TotalFuelLiters / res.TotalDistanceKm * 100
	}
	res.CO2Kg, res.CO2PerKmGrams = Emission(res.TotalFuelLiters, v.Fuel, res.TotalDistanceKm)
	return res, nil
}
