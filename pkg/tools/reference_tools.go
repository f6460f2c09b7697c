package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/mark3labs/mcp-go/mcp"
)

// VehicleEntry is a catalog vehicle with its derived capability ratios
type VehicleEntry struct {
	fuel.Vehicle
	FuelDisplayName string  `json:"fuel_display_name"`
	PowerToWeight   float64 `json:"power_to_weight"`
	TorqueToWeight  float64 `json:"torque_to_weight"`
	HorsepowerTon   float64 `json:"hp_per_ton"`
}

// ListVehiclesOutput defines the output for the vehicle catalog
type ListVehiclesOutput struct {
	Vehicles []VehicleEntry `json:"vehicles"`
	Count    int            `json:"count"`
}

// ListVehiclesTool returns a tool definition for listing the vehicle catalog
func ListVehiclesTool() mcp.Tool {
	return mcp.NewTool("list_vehicles",
		mcp.WithDescription("List the vehicle catalog with engine specs, consumption figures, and capability ratios"),
	)
}

// HandleListVehicles implements vehicle catalog listing
func HandleListVehicles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_vehicles")

	catalog := fuel.Vehicles()
	entries := make([]VehicleEntry, 0, len(catalog))
	for _, v := range catalog {
		entries = append(entries, VehicleEntry{
			Vehicle:         v,
			FuelDisplayName: v.Fuel.DisplayName(),
			PowerToWeight:   v.PowerToWeight(),
			TorqueToWeight:  v.TorqueToWeight(),
			HorsepowerTon:   v.HorsepowerPerTon(),
		})
	}

	output := ListVehiclesOutput{
		Vehicles: entries,
		Count:    len(entries),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// ZoneEntry is a traffic zone with the toll cost a traversal actually charges
type ZoneEntry struct {
	fuel.TrafficZone
	TollCostTL float64 `json:"toll_cost_tl,omitempty"`
}

// ListZonesOutput defines the output for the traffic zone catalog
type ListZonesOutput struct {
	Zones []ZoneEntry `json:"zones"`
	Count int         `json:"count"`
}

// ListZonesTool returns a tool definition for listing traffic zones
func ListZonesTool() mcp.Tool {
	return mcp.NewTool("list_zones",
		mcp.WithDescription("List the Istanbul traffic zone catalog with speeds, traffic multipliers, and toll prices"),
	)
}

// HandleListZones implements traffic zone listing
func HandleListZones(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_zones")

	zones := fuel.Zones()
	entries := make([]ZoneEntry, 0, len(zones))
	for _, z := range zones {
		entries = append(entries, ZoneEntry{
			TrafficZone: *z,
			TollCostTL:  z.TollCost(),
		})
	}

	output := ListZonesOutput{
		Zones: entries,
		Count: len(entries),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// ResolveZoneInput defines the input parameters for zone resolution
type ResolveZoneInput struct {
	Hint string        `json:"hint,omitempty"`
	At   *geo.Location `json:"at,omitempty"`
	From *geo.Location `json:"from,omitempty"`
	To   *geo.Location `json:"to,omitempty"`
}

// ResolveZoneOutput defines the output for a resolved zone
type ResolveZoneOutput struct {
	Zone       fuel.TrafficZone `json:"zone"`
	TollCostTL float64          `json:"toll_cost_tl,omitempty"`
	Method     string           `json:"method"`
}

// ResolveZoneTool returns a tool definition for resolving traffic zones
func ResolveZoneTool() mcp.Tool {
	return mcp.NewTool("resolve_zone",
		mcp.WithDescription("Resolve a location hint or coordinate to an Istanbul traffic zone. Accepts a keyword hint, a single point, or a from/to leg"),
		mcp.WithString("hint",
			mcp.Description("Free-text location hint matched against zone keywords (e.g. 'FSM Köprüsü')"),
		),
		mcp.WithObject("at",
			mcp.Description("A single point as {latitude, longitude} to classify"),
		),
		mcp.WithObject("from",
			mcp.Description("Leg start as {latitude, longitude}; pair with 'to' to detect strait crossings"),
		),
		mcp.WithObject("to",
			mcp.Description("Leg end as {latitude, longitude}"),
		),
	)
}

// HandleResolveZone implements traffic zone resolution
func HandleResolveZone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "resolve_zone")

	input, errResult, err := InputParser[ResolveZoneInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	var (
		zone   *fuel.TrafficZone
		method string
	)

	switch {
	case input.Hint != "":
		if z, ok := fuel.MatchZoneKeyword(input.Hint); ok {
			zone, method = z, "keyword"
		} else {
			zone, method = fuel.DefaultZone(), "default"
		}

	case input.From != nil && input.To != nil:
		for i, p := range []*geo.Location{input.From, input.To} {
			if err := core.ValidateCoords(p.Latitude, p.Longitude); err != nil {
				logger.Error("invalid leg coordinates", "index", i, "error", err)
				return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid leg coordinates: %s", err)).ToMCPResult(), nil
			}
		}
		zone, method = fuel.ResolveZoneByLeg(*input.From, *input.To), "leg"

	case input.At != nil:
		if err := core.ValidateCoords(input.At.Latitude, input.At.Longitude); err != nil {
			logger.Error("invalid point coordinates", "error", err)
			return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid coordinates: %s", err)).ToMCPResult(), nil
		}
		zone, method = fuel.ResolveZoneByPoint(*input.At), "point"

	default:
		return core.NewError(core.ErrMissingParameter, "Provide a hint, an 'at' point, or a from/to leg").
			WithGuidance(fmt.Sprintf("Example: %s", GetToolUsageExample("resolve_zone"))).
			ToMCPResult(), nil
	}

	output := ResolveZoneOutput{
		Zone:       *zone,
		TollCostTL: zone.TollCost(),
		Method:     method,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// FuelPriceEntry is one fuel type's pump price and emission factor
type FuelPriceEntry struct {
	FuelType        fuel.FuelType `json:"fuel_type"`
	DisplayName     string        `json:"display_name"`
	PricePerLiterTL float64       `json:"price_per_liter_tl"`
	CO2KgPerLiter   float64       `json:"co2_kg_per_liter"`
}

// GetFuelPricesOutput defines the output for the fuel price table
type GetFuelPricesOutput struct {
	Prices   []FuelPriceEntry `json:"prices"`
	Currency string           `json:"currency"`
}

// GetFuelPricesTool returns a tool definition for the fuel price table
func GetFuelPricesTool() mcp.Tool {
	return mcp.NewTool("get_fuel_prices",
		mcp.WithDescription("Get the pump price and CO2 emission factor per fuel type"),
	)
}

// HandleGetFuelPrices implements fuel price listing
func HandleGetFuelPrices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_fuel_prices")

	types := []fuel.FuelType{fuel.FuelGasoline, fuel.FuelDiesel, fuel.FuelLPG}
	prices := make([]FuelPriceEntry, 0, len(types))
	for _, ft := range types {
		prices = append(prices, FuelPriceEntry{
			FuelType:        ft,
			DisplayName:     ft.DisplayName(),
			PricePerLiterTL: fuel.PricePerLiter(ft),
			CO2KgPerLiter:   fuel.EmissionFactor(ft),
		})
	}

	output := GetFuelPricesOutput{
		Prices:   prices,
		Currency: "TRY",
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
