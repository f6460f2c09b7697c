package fuel

import (
	"fmt"
	"sort"
	"strings"
)

// Vehicle describes a catalog vehicle with the specifications the
// consumption model needs. Consumption figures are liters per 100 km.
type Vehicle struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Fuel               FuelType `json:"fuel_type"`
	PowerHP            int      `json:"engine_power_hp"`
	TorqueNm           int      `json:"torque_nm"`
	WeightKg           int      `json:"weight_kg"`
	CityConsumption    float64  `json:"city_consumption_l_100km"`
	HighwayConsumption float64  `json:"highway_consumption_l_100km"`
	EngineCC           int      `json:"engine_cc"`
}

// PowerToWeight returns horsepower per kilogram.
func (v Vehicle) PowerToWeight() float64 {
	if v.WeightKg == 0 {
		return 0
	}
	return float64(v.PowerHP) / float64(v.WeightKg)
}

// TorqueToWeight returns newton-meters per kilogram.
func (v Vehicle) TorqueToWeight() float64 {
	if v.WeightKg == 0 {
		return 0
	}
	return float64(v.TorqueNm) / float64(v.WeightKg)
}

// HorsepowerPerTon returns horsepower per metric ton, the figure the
// climbing limits are tiered on.
func (v Vehicle) HorsepowerPerTon() float64 {
	return v.PowerToWeight() * 1000
}

// vehicles is the catalog in its canonical listing order.
var vehicles = []Vehicle{
	{ID: "fiat_egea_dizel", Name: "Fiat Egea 1.3 Multijet", Fuel: FuelDiesel, PowerHP: 95, TorqueNm: 200, WeightKg: 1185, CityConsumption: 4.9, HighwayConsumption: 3.8, EngineCC: 1300},
	{ID: "renault_clio", Name: "Renault Clio 1.0 TCe", Fuel: FuelGasoline, PowerHP: 100, TorqueNm: 160, WeightKg: 1100, CityConsumption: 5.7, HighwayConsumption: 4.2, EngineCC: 999},
	{ID: "vw_polo", Name: "Volkswagen Polo 1.0 TSI", Fuel: FuelGasoline, PowerHP: 95, TorqueNm: 175, WeightKg: 1150, CityConsumption: 5.8, HighwayConsumption: 4.3, EngineCC: 999},
	{ID: "hyundai_i20_dizel", Name: "Hyundai i20 1.4 CRDi", Fuel: FuelDiesel, PowerHP: 90, TorqueNm: 220, WeightKg: 1120, CityConsumption: 4.7, HighwayConsumption: 3.6, EngineCC: 1396},
	{ID: "toyota_corolla", Name: "Toyota Corolla 1.6", Fuel: FuelGasoline, PowerHP: 132, TorqueNm: 160, WeightKg: 1300, CityConsumption: 6.4, HighwayConsumption: 4.7, EngineCC: 1598},
	{ID: "peugeot_301_dizel", Name: "Peugeot 301 1.5 BlueHDi", Fuel: FuelDiesel, PowerHP: 100, TorqueNm: 250, WeightKg: 1170, CityConsumption: 4.5, HighwayConsumption: 3.4, EngineCC: 1499},
	{ID: "dacia_duster_dizel", Name: "Dacia Duster 1.5 dCi", Fuel: FuelDiesel, PowerHP: 115, TorqueNm: 260, WeightKg: 1320, CityConsumption: 5.3, HighwayConsumption: 4.1, EngineCC: 1461},
	{ID: "ford_focus_dizel", Name: "Ford Focus 1.5 TDCi", Fuel: FuelDiesel, PowerHP: 120, TorqueNm: 270, WeightKg: 1350, CityConsumption: 4.8, HighwayConsumption: 3.7, EngineCC: 1499},
	{ID: "opel_astra_dizel", Name: "Opel Astra 1.5 D", Fuel: FuelDiesel, PowerHP: 105, TorqueNm: 260, WeightKg: 1320, CityConsumption: 4.9, HighwayConsumption: 3.8, EngineCC: 1499},
	{ID: "nissan_qashqai", Name: "Nissan Qashqai 1.3 DIG-T", Fuel: FuelGasoline, PowerHP: 140, TorqueNm: 240, WeightKg: 1425, CityConsumption: 6.8, HighwayConsumption: 5.0, EngineCC: 1332},
	{ID: "skoda_octavia_dizel", Name: "Skoda Octavia 1.6 TDI", Fuel: FuelDiesel, PowerHP: 115, TorqueNm: 250, WeightKg: 1350, CityConsumption: 4.6, HighwayConsumption: 3.5, EngineCC: 1598},
	{ID: "seat_leon", Name: "Seat Leon 1.0 TSI", Fuel: FuelGasoline, PowerHP: 110, TorqueNm: 200, WeightKg: 1205, CityConsumption: 5.9, HighwayConsumption: 4.4, EngineCC: 999},
}

var vehicleIndex = func() map[string]int {
	idx := make(map[string]int, len(vehicles))
	for i, v := range vehicles {
		idx[v.ID] = i
	}
	return idx
}()

// Vehicles returns the full catalog in listing order.
func Vehicles() []Vehicle {
	out := make([]Vehicle, len(vehicles))
	copy(out, vehicles)
	return out
}

// VehicleIDs returns the sorted list of valid vehicle identifiers,
// suitable for inclusion in error guidance.
func VehicleIDs() []string {
	ids := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}
	sort.Strings(ids)
	return ids
}

// LookupVehicle finds a catalog vehicle by its identifier. The match is
// case-insensitive and tolerates surrounding whitespace.
func LookupVehicle(id string) (Vehicle, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if i, ok := vehicleIndex[key]; ok {
		return vehicles[i], nil
	}
	return Vehicle{}, fmt.Errorf("unknown vehicle %q: valid ids are %s", id, strings.Join(VehicleIDs(), ", "))
}
